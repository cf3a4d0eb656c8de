package packer

import (
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/spatial/r2"

	"github.com/Faultbox/uvatlas/pkg/atlas"
)

const (
	defaultResolution = 1024
	// Fraction of the atlas the estimated texel density aims to fill.
	targetFill = 0.5
	blockSize  = 4
)

type layout struct {
	atlasCount    int
	width         int
	height        int
	texelsPerUnit float64
}

// texelUV returns the texel-space position of chart vertex i.
func (c *chart) texelUV(i int) [2]float32 {
	p := r2.Scale(c.scale, r2.Sub(c.coords[i], c.bounds.Min))
	return [2]float32{
		float32(float64(c.x+c.margin) + p.X + 0.5),
		float32(float64(c.y+c.margin) + p.Y + 0.5),
	}
}

func chartBounds(coords []r2.Vec) r2.Box {
	if len(coords) == 0 {
		return r2.Box{}
	}
	b := r2.Box{Min: coords[0], Max: coords[0]}
	for _, p := range coords[1:] {
		b.Min = r2.Vec{X: math.Min(b.Min.X, p.X), Y: math.Min(b.Min.Y, p.Y)}
		b.Max = r2.Vec{X: math.Max(b.Max.X, p.X), Y: math.Max(b.Max.Y, p.Y)}
	}
	return b
}

func rotate(coords []r2.Vec, angle float64) {
	sin, cos := math.Sincos(angle)
	for i, p := range coords {
		coords[i] = r2.Vec{X: p.X*cos - p.Y*sin, Y: p.X*sin + p.Y*cos}
	}
}

// rotateToAxis turns the chart to the orientation with the smallest
// bounding box, sampled in 15 degree steps.
func rotateToAxis(c *chart) {
	best, bestArea := 0.0, math.Inf(1)
	work := make([]r2.Vec, len(c.coords))
	for step := range 6 {
		angle := float64(step) * math.Pi / 12
		copy(work, c.coords)
		rotate(work, angle)
		b := chartBounds(work)
		size := r2.Sub(b.Max, b.Min)
		if area := size.X * size.Y; area < bestArea-1e-12 {
			best, bestArea = angle, area
		}
	}
	if best != 0 {
		rotate(c.coords, best)
	}
}

func alignUp(v, a int) int {
	return (v + a - 1) / a * a
}

func estimateTexelsPerUnit(meshes []*inputMesh, charts []*chart, opts atlas.PackOptions) float64 {
	if opts.TexelsPerUnit > 0 {
		return float64(opts.TexelsPerUnit)
	}

	target := float64(defaultResolution)
	if opts.Resolution > 0 {
		target = float64(opts.Resolution)
	}

	var area float64
	for _, c := range charts {
		area += c.area(meshes[c.mesh])
	}
	if area <= 0 {
		return 1
	}
	return target * math.Sqrt(targetFill/area)
}

// sizeChart computes the chart scale and box size in texels.
func sizeChart(c *chart, tpu float64, opts atlas.PackOptions) error {
	if opts.RotateChartsToAxis {
		rotateToAxis(c)
	}
	c.bounds = chartBounds(c.coords)
	ext := r2.Sub(c.bounds.Max, c.bounds.Min)
	if opts.RotateCharts && ext.Y > ext.X {
		rotate(c.coords, math.Pi/2)
		c.bounds = chartBounds(c.coords)
		ext = r2.Sub(c.bounds.Max, c.bounds.Min)
	}

	c.margin = int(opts.Padding)
	if opts.Bilinear {
		c.margin++
	}

	longest := math.Max(ext.X, ext.Y)
	c.scale = tpu
	limit := 0
	if opts.MaxChartSize > 0 {
		limit = int(opts.MaxChartSize)
	}
	if opts.Resolution > 0 {
		fit := int(opts.Resolution) - 2*c.margin
		if fit < 1 {
			return fmt.Errorf("resolution %d cannot hold padding %d", opts.Resolution, opts.Padding)
		}
		if limit == 0 || fit < limit {
			limit = fit
		}
	}
	if limit > 0 && longest > 0 && int(math.Ceil(longest*c.scale))+1 > limit {
		c.scale = float64(limit-1) / longest
	}

	c.boxW = int(math.Ceil(ext.X*c.scale)) + 1 + 2*c.margin
	c.boxH = int(math.Ceil(ext.Y*c.scale)) + 1 + 2*c.margin
	if opts.BlockAlign {
		c.boxW = alignUp(c.boxW, blockSize)
		c.boxH = alignUp(c.boxH, blockSize)
	}
	if opts.Resolution > 0 {
		c.boxW = min(c.boxW, int(opts.Resolution))
		c.boxH = min(c.boxH, int(opts.Resolution))
	}
	return nil
}

// packCharts places chart boxes on shelves, tallest first.
func packCharts(meshes []*inputMesh, charts []*chart, opts atlas.PackOptions) (layout, error) {
	l := layout{texelsPerUnit: estimateTexelsPerUnit(meshes, charts, opts)}

	var boxArea, widest int
	for _, c := range charts {
		if err := sizeChart(c, l.texelsPerUnit, opts); err != nil {
			return layout{}, err
		}
		boxArea += c.boxW * c.boxH
		widest = max(widest, c.boxW)
	}

	order := make([]*chart, len(charts))
	copy(order, charts)
	sort.SliceStable(order, func(i, j int) bool {
		return order[i].boxH > order[j].boxH
	})

	fixed := opts.Resolution > 0
	shelfWidth := int(opts.Resolution)
	if !fixed {
		shelfWidth = max(widest, int(math.Ceil(math.Sqrt(float64(boxArea)))))
		if opts.BlockAlign {
			shelfWidth = alignUp(shelfWidth, blockSize)
		}
	}

	l.atlasCount = 1
	var x, y, shelfH, usedW, usedH, layer int
	for _, c := range order {
		if x+c.boxW > shelfWidth {
			y += shelfH
			x, shelfH = 0, 0
		}
		if fixed && y+c.boxH > shelfWidth {
			layer++
			x, y, shelfH = 0, 0, 0
		}

		c.atlas, c.x, c.y = layer, x, y
		x += c.boxW
		shelfH = max(shelfH, c.boxH)
		usedW = max(usedW, x)
		usedH = max(usedH, y+shelfH)
	}
	l.atlasCount = layer + 1

	if fixed {
		l.width, l.height = shelfWidth, shelfWidth
	} else {
		l.width, l.height = max(usedW, 1), max(usedH, 1)
	}
	return l, nil
}
