package atlas

import "fmt"

// MeshResult is the generated form of one input mesh. All slices are owned
// by the caller.
type MeshResult struct {
	// VertexMapping maps each output vertex to the input vertex it came from.
	// Vertices split along seams map to the same input vertex.
	VertexMapping []uint32
	Triangles     [][3]uint32
	// UVs are normalized by the atlas width and height.
	UVs [][2]float32
}

// GetMesh extracts mesh i from the last generated record.
func (a *Atlas) GetMesh(i int) (*MeshResult, error) {
	rec, err := a.generated()
	if err != nil {
		return nil, err
	}

	if i < 0 || i >= len(rec.Meshes) {
		return nil, fmt.Errorf("%w: mesh index %d out of bounds for atlas with %d meshes",
			ErrIndexOutOfRange, i, len(rec.Meshes))
	}

	return extractMesh(&rec.Meshes[i], rec.Width, rec.Height)
}

func extractMesh(mesh *MeshRecord, width, height uint32) (*MeshResult, error) {
	if len(mesh.Indices)%3 != 0 {
		return nil, fmt.Errorf("%w: index count %d is not a multiple of 3",
			ErrInternalConsistency, len(mesh.Indices))
	}
	if len(mesh.Vertices) > 0 && (width == 0 || height == 0) {
		return nil, fmt.Errorf("%w: atlas size %dx%d with %d vertices",
			ErrInternalConsistency, width, height, len(mesh.Vertices))
	}

	res := &MeshResult{
		VertexMapping: make([]uint32, len(mesh.Vertices)),
		Triangles:     make([][3]uint32, len(mesh.Indices)/3),
		UVs:           make([][2]float32, len(mesh.Vertices)),
	}

	w, h := float32(width), float32(height)
	for v, vertex := range mesh.Vertices {
		res.VertexMapping[v] = vertex.Xref
		res.UVs[v] = [2]float32{vertex.UV[0] / w, vertex.UV[1] / h}
	}

	for f := range res.Triangles {
		copy(res.Triangles[f][:], mesh.Indices[f*3:f*3+3])
	}

	return res, nil
}
