package config

import "github.com/spf13/pflag"

// Overrides holds command-line values that take priority over the config file.
// Only flags the user actually set are applied.
type Overrides struct {
	ConfigPath    string
	Debug         bool
	LogFile       string
	OutDir        string
	ImageFormat   string
	Verbose       bool
	TexelsPerUnit float32
	Resolution    uint32
	Padding       uint32
	MaxCost       float32
	InputUVs      bool

	fs *pflag.FlagSet
}

// BindFlags registers the override flags on fs.
func BindFlags(fs *pflag.FlagSet) *Overrides {
	o := &Overrides{fs: fs}
	fs.StringVar(&o.ConfigPath, "config", "", "Path to config file")
	fs.BoolVar(&o.Debug, "debug", false, "Enable debug logging")
	fs.StringVar(&o.LogFile, "log-file", "", "Write logs to a rotating file")
	fs.StringVarP(&o.OutDir, "out", "o", "", "Output directory")
	fs.StringVar(&o.ImageFormat, "image", "", "Write chart images (png or bmp)")
	fs.BoolVarP(&o.Verbose, "verbose", "v", false, "Print the generation summary")
	fs.Float32Var(&o.TexelsPerUnit, "texels-per-unit", 0, "Texels per world unit (0 estimates)")
	fs.Uint32Var(&o.Resolution, "resolution", 0, "Fixed atlas resolution (0 grows to fit)")
	fs.Uint32Var(&o.Padding, "padding", 0, "Texels between charts")
	fs.Float32Var(&o.MaxCost, "max-cost", 0, "Chart growth cost threshold")
	fs.BoolVar(&o.InputUVs, "input-uvs", false, "Chart by the mesh's own texture coordinates")
	return o
}

// configPath returns the explicit config path if provided via --config.
func (o *Overrides) configPath() string {
	if o == nil {
		return ""
	}
	return o.ConfigPath
}

func (o *Overrides) changed(name string) bool {
	if o.fs == nil {
		return false
	}
	return o.fs.Changed(name)
}

// apply copies set flags into cfg.
func (o *Overrides) apply(cfg *Config) {
	if o == nil {
		return
	}
	if o.Debug {
		cfg.Logging.Level = "debug"
	}
	if o.LogFile != "" {
		cfg.Logging.LogFile = o.LogFile
	}
	if o.OutDir != "" {
		cfg.Output.Dir = o.OutDir
	}
	if o.ImageFormat != "" {
		cfg.Output.ImageFormat = o.ImageFormat
	}
	if o.Verbose {
		cfg.Output.Verbose = true
	}
	if o.changed("texels-per-unit") {
		cfg.Pack.TexelsPerUnit = o.TexelsPerUnit
	}
	if o.changed("resolution") {
		cfg.Pack.Resolution = o.Resolution
	}
	if o.changed("padding") {
		cfg.Pack.Padding = o.Padding
	}
	if o.changed("max-cost") {
		cfg.Chart.MaxCost = o.MaxCost
	}
	if o.InputUVs {
		cfg.Chart.UseInputMeshUvs = true
	}
	if cfg.Output.ImageFormat != ImageFormatNone {
		cfg.Pack.CreateImage = true
	}
}
