// Package packer is a reference atlas engine: planar charting followed by
// shelf packing. It trades packing density for predictability.
package packer

import (
	"errors"
	"fmt"
	"math"

	"go.uber.org/zap"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/Faultbox/uvatlas/pkg/atlas"
)

// Engine errors.
var (
	ErrNoMeshes  = errors.New("no meshes added")
	ErrDestroyed = errors.New("engine destroyed")
)

// inputMesh is the engine's own copy of a declaration.
type inputMesh struct {
	positions []r3.Vec
	normals   []r3.Vec
	uvs       [][2]float32
	indices   []uint32
	materials []uint32
	uvMesh    bool
}

func (m *inputMesh) faceCount() uint32 { return uint32(len(m.indices) / 3) }

func (m *inputMesh) face(f uint32) [3]uint32 {
	return [3]uint32{m.indices[f*3], m.indices[f*3+1], m.indices[f*3+2]}
}

func (m *inputMesh) facePositions(f uint32) [3]r3.Vec {
	idx := m.face(f)
	return [3]r3.Vec{m.positions[idx[0]], m.positions[idx[1]], m.positions[idx[2]]}
}

func (m *inputMesh) material(f uint32) uint32 {
	if m.materials == nil {
		return 0
	}
	return m.materials[f]
}

// Engine implements atlas.Engine.
type Engine struct {
	log       *zap.Logger
	meshes    []*inputMesh
	destroyed bool
}

var _ atlas.Engine = (*Engine)(nil)

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the engine logger.
func WithLogger(l *zap.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.log = l
		}
	}
}

// New creates an empty engine.
func New(opts ...Option) *Engine {
	e := &Engine{log: zap.NewNop()}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func validateIndices(indices []uint32, vertexCount uint32) atlas.AddMeshError {
	if len(indices)%3 != 0 {
		return atlas.AddMeshInvalidIndexCount
	}
	for _, idx := range indices {
		if idx >= vertexCount {
			return atlas.AddMeshIndexOutOfRange
		}
	}
	return atlas.AddMeshSuccess
}

func finite(v ...float32) bool {
	for _, x := range v {
		if math.IsNaN(float64(x)) || math.IsInf(float64(x), 0) {
			return false
		}
	}
	return true
}

func vec(p [3]float32) r3.Vec {
	return r3.Vec{X: float64(p[0]), Y: float64(p[1]), Z: float64(p[2])}
}

// AddMesh copies decl into the engine. Meshes with NaN or infinite
// attributes are rejected.
func (e *Engine) AddMesh(decl *atlas.MeshDecl) atlas.AddMeshError {
	if e.destroyed {
		return atlas.AddMeshErrorGeneric
	}
	if decl.IndexFormat != atlas.IndexFormatUInt32 {
		return atlas.AddMeshErrorGeneric
	}
	indices := decl.IndexData[:decl.IndexCount]
	if res := validateIndices(indices, decl.VertexCount); res != atlas.AddMeshSuccess {
		return res
	}

	m := &inputMesh{
		positions: make([]r3.Vec, decl.VertexCount),
		indices:   append([]uint32(nil), indices...),
	}
	for i := range decl.VertexCount {
		p := decl.Position(i)
		if !finite(p[:]...) {
			return atlas.AddMeshErrorGeneric
		}
		m.positions[i] = vec(p)
	}
	if decl.HasNormals() {
		m.normals = make([]r3.Vec, decl.VertexCount)
		for i := range decl.VertexCount {
			n, _ := decl.Normal(i)
			if !finite(n[:]...) {
				return atlas.AddMeshErrorGeneric
			}
			m.normals[i] = vec(n)
		}
	}
	if decl.HasUVs() {
		m.uvs = make([][2]float32, decl.VertexCount)
		for i := range decl.VertexCount {
			uv, _ := decl.UV(i)
			if !finite(uv[:]...) {
				return atlas.AddMeshErrorGeneric
			}
			m.uvs[i] = uv
		}
	}

	e.meshes = append(e.meshes, m)
	e.log.Debug("mesh copied", zap.Int("mesh", len(e.meshes)-1), zap.Uint32("faces", m.faceCount()))
	return atlas.AddMeshSuccess
}

// AddUvMesh copies decl into the engine. Non-finite UVs are rejected.
func (e *Engine) AddUvMesh(decl *atlas.UvMeshDecl) atlas.AddMeshError {
	if e.destroyed {
		return atlas.AddMeshErrorGeneric
	}
	if decl.IndexFormat != atlas.IndexFormatUInt32 {
		return atlas.AddMeshErrorGeneric
	}
	indices := decl.IndexData[:decl.IndexCount]
	if res := validateIndices(indices, decl.VertexCount); res != atlas.AddMeshSuccess {
		return res
	}
	if decl.FaceMaterialData != nil && uint32(len(decl.FaceMaterialData)) != decl.FaceCount() {
		return atlas.AddMeshInvalidFaceVertexCount
	}

	m := &inputMesh{
		positions: make([]r3.Vec, decl.VertexCount),
		uvs:       make([][2]float32, decl.VertexCount),
		indices:   append([]uint32(nil), indices...),
		uvMesh:    true,
	}
	for i := range decl.VertexCount {
		uv := decl.UV(i)
		if !finite(uv[:]...) {
			return atlas.AddMeshErrorGeneric
		}
		m.uvs[i] = uv
		m.positions[i] = r3.Vec{X: float64(uv[0]), Y: float64(uv[1])}
	}
	if decl.FaceMaterialData != nil {
		m.materials = make([]uint32, decl.FaceCount())
		for f := range m.materials {
			m.materials[f] = decl.FaceMaterial(uint32(f))
		}
	}

	e.meshes = append(e.meshes, m)
	e.log.Debug("uv mesh copied", zap.Int("mesh", len(e.meshes)-1), zap.Uint32("faces", m.faceCount()))
	return atlas.AddMeshSuccess
}

// Generate charts and packs all meshes.
func (e *Engine) Generate(chartOpts atlas.ChartOptions, packOpts atlas.PackOptions) (*atlas.Record, error) {
	if e.destroyed {
		return nil, ErrDestroyed
	}
	if len(e.meshes) == 0 {
		return nil, ErrNoMeshes
	}

	var charts []*chart
	meshCharts := make([][]*chart, len(e.meshes))
	for i, m := range e.meshes {
		meshCharts[i] = buildCharts(m, i, len(charts), chartOpts)
		charts = append(charts, meshCharts[i]...)
	}
	if uint32(len(charts)) > atlas.ImageChartIndexMask {
		return nil, fmt.Errorf("too many charts: %d", len(charts))
	}
	e.log.Debug("charts built", zap.Int("charts", len(charts)))

	layout, err := packCharts(e.meshes, charts, packOpts)
	if err != nil {
		return nil, err
	}

	image := rasterize(e.meshes, charts, layout, packOpts)

	rec := &atlas.Record{
		AtlasCount:    uint32(layout.atlasCount),
		ChartCount:    uint32(len(charts)),
		Width:         uint32(layout.width),
		Height:        uint32(layout.height),
		TexelsPerUnit: float32(layout.texelsPerUnit),
		Utilization:   utilization(image, layout),
		Meshes:        make([]atlas.MeshRecord, len(e.meshes)),
	}
	if packOpts.CreateImage {
		rec.Image = image
	}

	for i, m := range e.meshes {
		rec.Meshes[i] = buildMeshRecord(m, meshCharts[i])
	}

	e.log.Debug("atlas packed",
		zap.Int("atlases", layout.atlasCount),
		zap.Int("width", layout.width),
		zap.Int("height", layout.height))
	return rec, nil
}

// buildMeshRecord emits one output vertex per (chart, input vertex) pair and
// re-indexes the faces in their original order.
func buildMeshRecord(m *inputMesh, charts []*chart) atlas.MeshRecord {
	faceChart := make([]*chart, m.faceCount())
	base := make(map[*chart]uint32, len(charts))

	var rec atlas.MeshRecord
	for _, c := range charts {
		base[c] = uint32(len(rec.Vertices))
		for _, f := range c.faces {
			faceChart[f] = c
		}
		for i, v := range c.verts {
			rec.Vertices = append(rec.Vertices, atlas.Vertex{
				AtlasIndex: int32(c.atlas),
				ChartIndex: int32(c.index),
				UV:         c.texelUV(i),
				Xref:       v,
			})
		}
	}

	rec.Indices = make([]uint32, 0, len(m.indices))
	for f := range m.faceCount() {
		c := faceChart[f]
		for _, v := range m.face(f) {
			rec.Indices = append(rec.Indices, base[c]+c.local[v])
		}
	}
	return rec
}

// Destroy drops all meshes. The engine cannot be used afterwards.
func (e *Engine) Destroy() {
	e.meshes = nil
	e.destroyed = true
}

// MeshCount returns the number of meshes added.
func (e *Engine) MeshCount() int { return len(e.meshes) }
