package atlas

// ChartOptions controls chart segmentation. The core forwards it to the
// engine untouched.
type ChartOptions struct {
	// Don't grow charts to be larger than this. 0 means no limit.
	MaxChartArea float32 `yaml:"max_chart_area"`
	// Don't grow charts to have a longer boundary than this. 0 means no limit.
	MaxBoundaryLength float32 `yaml:"max_boundary_length"`

	NormalDeviationWeight float32 `yaml:"normal_deviation_weight"`
	RoundnessWeight       float32 `yaml:"roundness_weight"`
	StraightnessWeight    float32 `yaml:"straightness_weight"`
	NormalSeamWeight      float32 `yaml:"normal_seam_weight"` // > 1000 fully respects normal seams
	TextureSeamWeight     float32 `yaml:"texture_seam_weight"`

	// Lower values result in more charts.
	MaxCost       float32 `yaml:"max_cost"`
	MaxIterations uint32  `yaml:"max_iterations"`

	UseInputMeshUvs bool `yaml:"use_input_mesh_uvs"`
	FixWinding      bool `yaml:"fix_winding"`
}

// PackOptions controls chart packing. The core forwards it to the engine
// untouched.
type PackOptions struct {
	// Charts larger than this are scaled down. 0 means no limit.
	MaxChartSize uint32 `yaml:"max_chart_size"`
	// Texels of padding around each chart.
	Padding uint32 `yaml:"padding"`
	// Unit to texel scale. 0 estimates a value matching Resolution
	// (or 1024 when Resolution is also 0).
	TexelsPerUnit float32 `yaml:"texels_per_unit"`
	// 0 generates a single atlas sized to fit. Otherwise one or more
	// atlases of exactly this resolution are generated.
	Resolution uint32 `yaml:"resolution"`

	Bilinear           bool `yaml:"bilinear"`
	BlockAlign         bool `yaml:"block_align"`
	BruteForce         bool `yaml:"brute_force"`
	CreateImage        bool `yaml:"create_image"`
	RotateChartsToAxis bool `yaml:"rotate_charts_to_axis"`
	RotateCharts       bool `yaml:"rotate_charts"`
}

// DefaultChartOptions returns the engine's default chart options.
func DefaultChartOptions() ChartOptions {
	return ChartOptions{
		NormalDeviationWeight: 2.0,
		RoundnessWeight:       0.01,
		StraightnessWeight:    6.0,
		NormalSeamWeight:      4.0,
		TextureSeamWeight:     0.5,
		MaxCost:               2.0,
		MaxIterations:         1,
	}
}

// DefaultPackOptions returns the engine's default pack options.
func DefaultPackOptions() PackOptions {
	return PackOptions{
		Bilinear:           true,
		RotateChartsToAxis: true,
		RotateCharts:       true,
	}
}
