package atlas

// AddMeshError is the engine's verdict on a submitted declaration.
type AddMeshError uint8

// Engine add results.
const (
	AddMeshSuccess AddMeshError = iota
	AddMeshErrorGeneric
	AddMeshIndexOutOfRange
	AddMeshInvalidFaceVertexCount
	AddMeshInvalidIndexCount
)

// String returns the engine's reason text.
func (e AddMeshError) String() string {
	switch e {
	case AddMeshSuccess:
		return "success"
	case AddMeshIndexOutOfRange:
		return "index out of range"
	case AddMeshInvalidFaceVertexCount:
		return "invalid face vertex count"
	case AddMeshInvalidIndexCount:
		return "invalid index count"
	default:
		return "unspecified error"
	}
}

// Engine is the charting and packing backend driven by an Atlas.
// Implementations need not be safe for concurrent use.
type Engine interface {
	// AddMesh registers a mesh. The declaration's slices are only valid
	// for the duration of the call.
	AddMesh(decl *MeshDecl) AddMeshError
	// AddUvMesh registers a UV-only mesh.
	AddUvMesh(decl *UvMeshDecl) AddMeshError
	// Generate runs charting then packing over every mesh added so far and
	// returns a record that replaces any previous one.
	Generate(chart ChartOptions, pack PackOptions) (*Record, error)
	// Destroy releases engine resources.
	Destroy()
}

// Vertex is one output vertex of a generated mesh.
type Vertex struct {
	AtlasIndex int32      // -1 if the vertex was not packed
	ChartIndex int32      // -1 if the vertex belongs to no chart
	UV         [2]float32 // texel space, not normalized
	Xref       uint32     // index of the source vertex in the input mesh
}

// MeshRecord is the engine's output for one input mesh.
type MeshRecord struct {
	Vertices []Vertex
	Indices  []uint32 // 3 per triangle
}

// Record is the result of one Generate call. It is read-only to callers.
type Record struct {
	AtlasCount    uint32
	ChartCount    uint32
	Width         uint32
	Height        uint32
	TexelsPerUnit float32
	Utilization   []float32 // one per atlas, 0..1
	Meshes        []MeshRecord
	Image         []uint32 // Width*Height*AtlasCount packed texels, nil unless requested
}
