package packer

import (
	"math"

	"github.com/Faultbox/uvatlas/pkg/atlas"
)

// rasterize renders chart coverage into one packed texel buffer per atlas,
// followed by the bilinear guard ring and padding rings.
func rasterize(meshes []*inputMesh, charts []*chart, l layout, opts atlas.PackOptions) []uint32 {
	layer := l.width * l.height
	image := make([]uint32, layer*l.atlasCount)

	for _, c := range charts {
		texels := image[c.atlas*layer : (c.atlas+1)*layer]
		value := atlas.ImageHasChartIndexBit | uint32(c.index)
		m := meshes[c.mesh]

		for _, f := range c.faces {
			idx := m.face(f)
			var tri [3][2]float64
			for k, v := range idx {
				uv := c.texelUV(int(c.local[v]))
				tri[k] = [2]float64{float64(uv[0]), float64(uv[1])}
			}
			fillTriangle(texels, l.width, l.height, tri, value)
		}

		// Thin or degenerate faces may miss every texel centre.
		for i := range c.verts {
			uv := c.texelUV(i)
			x, y := int(uv[0]), int(uv[1])
			if x >= 0 && y >= 0 && x < l.width && y < l.height && texels[y*l.width+x] == 0 {
				texels[y*l.width+x] = value
			}
		}

		rings := int(opts.Padding)
		if opts.Bilinear {
			dilate(texels, l.width, c, value, value|atlas.ImageIsBilinearBit)
		}
		for range rings {
			dilate(texels, l.width, c, value, value|atlas.ImageIsPaddingBit)
		}
	}
	return image
}

func edge(a, b [2]float64, px, py float64) float64 {
	return (b[0]-a[0])*(py-a[1]) - (b[1]-a[1])*(px-a[0])
}

// fillTriangle marks every texel whose centre lies inside tri.
func fillTriangle(texels []uint32, w, h int, tri [3][2]float64, value uint32) {
	area := edge(tri[0], tri[1], tri[2][0], tri[2][1])
	if area == 0 {
		return
	}

	minX := math.Min(tri[0][0], math.Min(tri[1][0], tri[2][0]))
	maxX := math.Max(tri[0][0], math.Max(tri[1][0], tri[2][0]))
	minY := math.Min(tri[0][1], math.Min(tri[1][1], tri[2][1]))
	maxY := math.Max(tri[0][1], math.Max(tri[1][1], tri[2][1]))

	x0, x1 := max(int(math.Floor(minX)), 0), min(int(math.Ceil(maxX)), w-1)
	y0, y1 := max(int(math.Floor(minY)), 0), min(int(math.Ceil(maxY)), h-1)

	for y := y0; y <= y1; y++ {
		py := float64(y) + 0.5
		for x := x0; x <= x1; x++ {
			px := float64(x) + 0.5
			e0 := edge(tri[1], tri[2], px, py)
			e1 := edge(tri[2], tri[0], px, py)
			e2 := edge(tri[0], tri[1], px, py)
			if area < 0 {
				e0, e1, e2 = -e0, -e1, -e2
			}
			if e0 >= 0 && e1 >= 0 && e2 >= 0 {
				texels[y*w+x] = value
			}
		}
	}
}

// dilate grows the chart's texels by one ring inside its box, tagging the
// new texels with mark.
func dilate(texels []uint32, w int, c *chart, value, mark uint32) {
	owned := func(x, y int) bool {
		if x < c.x || y < c.y || x >= c.x+c.boxW || y >= c.y+c.boxH {
			return false
		}
		t := texels[y*w+x]
		return t != 0 && t&atlas.ImageChartIndexMask == value&atlas.ImageChartIndexMask
	}

	var ring []int
	for y := c.y; y < c.y+c.boxH; y++ {
		for x := c.x; x < c.x+c.boxW; x++ {
			if texels[y*w+x] != 0 {
				continue
			}
		neighbours:
			for dy := -1; dy <= 1; dy++ {
				for dx := -1; dx <= 1; dx++ {
					if (dx != 0 || dy != 0) && owned(x+dx, y+dy) {
						ring = append(ring, y*w+x)
						break neighbours
					}
				}
			}
		}
	}

	for _, t := range ring {
		texels[t] = mark
	}
}

// utilization is the fraction of chart texels, excluding guard and padding
// rings, in each atlas.
func utilization(image []uint32, l layout) []float32 {
	layer := l.width * l.height
	out := make([]float32, l.atlasCount)
	for a := range out {
		var used int
		for _, t := range image[a*layer : (a+1)*layer] {
			if t&atlas.ImageHasChartIndexBit != 0 && t&(atlas.ImageIsPaddingBit|atlas.ImageIsBilinearBit) == 0 {
				used++
			}
		}
		out[a] = float32(used) / float32(layer)
	}
	return out
}
