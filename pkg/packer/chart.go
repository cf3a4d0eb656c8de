package packer

import (
	"math"

	"gonum.org/v1/gonum/spatial/r2"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/Faultbox/uvatlas/pkg/atlas"
)

// degenerateArea is the face area below which a face has no usable normal.
const degenerateArea = 1e-12

// chart is a group of faces of one mesh parameterized onto a common plane.
type chart struct {
	index int // global, in creation order
	mesh  int

	faces  []uint32
	verts  []uint32          // input vertex ids, first-seen order
	local  map[uint32]uint32 // input vertex id -> position in verts
	coords []r2.Vec          // parameterization of verts, in units

	// Filled in by packing.
	atlas  int
	x, y   int // texel origin of the chart box
	margin int
	scale  float64
	bounds r2.Box
	boxW   int
	boxH   int
}

func newChart(index, mesh int) *chart {
	return &chart{index: index, mesh: mesh, local: make(map[uint32]uint32)}
}

func (c *chart) addFace(m *inputMesh, f uint32) {
	c.faces = append(c.faces, f)
	for _, v := range m.face(f) {
		if _, ok := c.local[v]; !ok {
			c.local[v] = uint32(len(c.verts))
			c.verts = append(c.verts, v)
		}
	}
}

// area returns the parameter-space area of the chart.
func (c *chart) area(m *inputMesh) float64 {
	var sum float64
	for _, f := range c.faces {
		idx := m.face(f)
		a := c.coords[c.local[idx[0]]]
		b := c.coords[c.local[idx[1]]]
		d := c.coords[c.local[idx[2]]]
		sum += math.Abs(r2.Cross(r2.Sub(b, a), r2.Sub(d, a))) / 2
	}
	return sum
}

type edgeKey struct{ a, b uint32 }

func makeEdge(a, b uint32) edgeKey {
	if a > b {
		a, b = b, a
	}
	return edgeKey{a, b}
}

// faceAdjacency returns, for every face, the faces sharing an edge with it.
func faceAdjacency(m *inputMesh) [][]uint32 {
	edges := make(map[edgeKey][]uint32)
	for f := uint32(0); f < m.faceCount(); f++ {
		idx := m.face(f)
		for i := range 3 {
			k := makeEdge(idx[i], idx[(i+1)%3])
			edges[k] = append(edges[k], f)
		}
	}

	adj := make([][]uint32, m.faceCount())
	for _, faces := range edges {
		for _, f := range faces {
			for _, g := range faces {
				if f != g {
					adj[f] = append(adj[f], g)
				}
			}
		}
	}
	return adj
}

// buildCharts segments m into charts starting at global index base.
func buildCharts(m *inputMesh, meshIndex, base int, opts atlas.ChartOptions) []*chart {
	if m.uvMesh || (opts.UseInputMeshUvs && m.uvs != nil) {
		return buildUvCharts(m, meshIndex, base)
	}
	return buildPlanarCharts(m, meshIndex, base, opts)
}

// normalThreshold converts MaxCost into the minimum cosine between a face
// normal and the chart normal.
func normalThreshold(maxCost float32) float64 {
	if maxCost <= 0 {
		maxCost = atlas.DefaultChartOptions().MaxCost
	}
	return max(-1, min(0.999, 1-float64(maxCost)/4))
}

func buildPlanarCharts(m *inputMesh, meshIndex, base int, opts atlas.ChartOptions) []*chart {
	n := m.faceCount()
	normals := make([]r3.Vec, n)
	areas := make([]float64, n)
	for f := range n {
		p := m.facePositions(uint32(f))
		cr := r3.Cross(r3.Sub(p[1], p[0]), r3.Sub(p[2], p[0]))
		areas[f] = r3.Norm(cr) / 2
		if areas[f] > degenerateArea {
			normals[f] = r3.Unit(cr)
		}
	}

	adj := faceAdjacency(m)
	threshold := normalThreshold(opts.MaxCost)
	assigned := make([]bool, n)

	var charts []*chart
	for seed := range n {
		if assigned[seed] {
			continue
		}

		c := newChart(base+len(charts), meshIndex)
		var normalSum r3.Vec
		var area float64

		queue := []uint32{uint32(seed)}
		assigned[seed] = true
		for len(queue) > 0 {
			f := queue[0]
			queue = queue[1:]

			c.addFace(m, f)
			normalSum = r3.Add(normalSum, r3.Scale(areas[f], normals[f]))
			area += areas[f]

			for _, g := range adj[f] {
				if assigned[g] {
					continue
				}
				if opts.MaxChartArea > 0 && area+areas[g] > float64(opts.MaxChartArea) {
					continue
				}
				if areas[g] > degenerateArea && r3.Norm(normalSum) > 0 &&
					r3.Dot(normals[g], r3.Unit(normalSum)) < threshold {
					continue
				}
				assigned[g] = true
				queue = append(queue, g)
			}
		}

		projectChart(c, m, projectionNormal(c, m, normalSum, threshold))
		charts = append(charts, c)
	}
	return charts
}

// projectionNormal prefers the average of the supplied vertex normals when it
// lies within the chart's normal cone, and the area-weighted face normal
// otherwise.
func projectionNormal(c *chart, m *inputMesh, faceNormal r3.Vec, threshold float64) r3.Vec {
	if m.normals == nil || r3.Norm(faceNormal) == 0 {
		return faceNormal
	}

	var sum r3.Vec
	for _, v := range c.verts {
		sum = r3.Add(sum, m.normals[v])
	}
	if r3.Norm(sum) == 0 || r3.Dot(r3.Unit(sum), r3.Unit(faceNormal)) < threshold {
		return faceNormal
	}
	return sum
}

// projectChart flattens the chart onto the plane orthogonal to normal.
func projectChart(c *chart, m *inputMesh, normal r3.Vec) {
	nrm := r3.Vec{Z: 1}
	if r3.Norm(normal) > 0 {
		nrm = r3.Unit(normal)
	}

	axis := r3.Vec{X: 1}
	if math.Abs(nrm.X) > 0.9 {
		axis = r3.Vec{Y: 1}
	}
	tangent := r3.Unit(r3.Sub(axis, r3.Scale(r3.Dot(axis, nrm), nrm)))
	bitangent := r3.Cross(nrm, tangent)

	c.coords = make([]r2.Vec, len(c.verts))
	for i, v := range c.verts {
		p := m.positions[v]
		c.coords[i] = r2.Vec{X: r3.Dot(p, tangent), Y: r3.Dot(p, bitangent)}
	}
}

// buildUvCharts groups faces connected in UV space with the same material
// and keeps the input UVs as parameterization.
func buildUvCharts(m *inputMesh, meshIndex, base int) []*chart {
	n := m.faceCount()
	adj := faceAdjacency(m)
	assigned := make([]bool, n)

	var charts []*chart
	for seed := range n {
		if assigned[seed] {
			continue
		}

		c := newChart(base+len(charts), meshIndex)
		material := m.material(uint32(seed))

		queue := []uint32{uint32(seed)}
		assigned[seed] = true
		for len(queue) > 0 {
			f := queue[0]
			queue = queue[1:]
			c.addFace(m, f)

			for _, g := range adj[f] {
				if !assigned[g] && m.material(g) == material {
					assigned[g] = true
					queue = append(queue, g)
				}
			}
		}

		c.coords = make([]r2.Vec, len(c.verts))
		for i, v := range c.verts {
			uv := m.uvs[v]
			c.coords[i] = r2.Vec{X: float64(uv[0]), Y: float64(uv[1])}
		}
		charts = append(charts, c)
	}
	return charts
}
