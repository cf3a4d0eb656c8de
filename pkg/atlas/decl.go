package atlas

import "unsafe"

// IndexFormat identifies the index element type of a declaration.
type IndexFormat uint8

// Index formats. Only 32-bit indices are produced by the builders.
const (
	IndexFormatUInt16 IndexFormat = iota
	IndexFormatUInt32
)

const (
	floatSize = uint32(unsafe.Sizeof(float32(0)))

	positionComponents = 3
	normalComponents   = 3
	uvComponents       = 2
)

// MeshInput holds the caller buffers for a per-vertex mesh.
// Normals and UVs are optional and must have one row per position.
type MeshInput struct {
	Positions Buffer[float32] // Nx3
	Indices   Buffer[uint32]  // Mx3
	Normals   *Buffer[float32]
	UVs       *Buffer[float32]
}

// UvMeshInput holds the caller buffers for a UV-only mesh.
type UvMeshInput struct {
	UVs           Buffer[float32] // Nx2
	Indices       Buffer[uint32]  // Mx3
	FaceMaterials *Buffer[uint32] // Mx1, one material per triangle
}

// MeshDecl describes a mesh to the engine. Data slices alias the caller's
// buffers; strides are in bytes.
type MeshDecl struct {
	VertexCount          uint32
	VertexPositionData   []float32
	VertexPositionStride uint32
	VertexNormalData     []float32
	VertexNormalStride   uint32
	VertexUvData         []float32
	VertexUvStride       uint32
	IndexCount           uint32
	IndexData            []uint32
	IndexFormat          IndexFormat
}

// UvMeshDecl describes a UV-only mesh to the engine.
type UvMeshDecl struct {
	VertexCount      uint32
	VertexUvData     []float32
	VertexStride     uint32
	IndexCount       uint32
	IndexData        []uint32
	IndexFormat      IndexFormat
	FaceMaterialData []uint32
}

// BuildMeshDecl validates in and builds a declaration over its buffers.
func BuildMeshDecl(in MeshInput) (*MeshDecl, error) {
	if err := CheckShape("Position", in.Positions, positionComponents); err != nil {
		return nil, err
	}
	if err := CheckShape("Index", in.Indices, 3); err != nil {
		return nil, err
	}

	vertexCount := in.Positions.Rows()
	if in.Normals != nil {
		if err := CheckShapeRows("Normal", *in.Normals, normalComponents, vertexCount); err != nil {
			return nil, err
		}
	}
	if in.UVs != nil {
		if err := CheckShapeRows("Texture coordinates", *in.UVs, uvComponents, vertexCount); err != nil {
			return nil, err
		}
	}

	decl := &MeshDecl{
		VertexCount:          uint32(vertexCount),
		VertexPositionData:   in.Positions.Data,
		VertexPositionStride: floatSize * positionComponents,
		IndexCount:           uint32(in.Indices.Len()),
		IndexData:            in.Indices.Data,
		IndexFormat:          IndexFormatUInt32,
	}

	if in.Normals != nil {
		decl.VertexNormalData = in.Normals.Data
		decl.VertexNormalStride = floatSize * normalComponents
	}

	if in.UVs != nil {
		decl.VertexUvData = in.UVs.Data
		decl.VertexUvStride = floatSize * uvComponents
	}

	return decl, nil
}

// BuildUvMeshDecl validates in and builds a UV mesh declaration over its buffers.
func BuildUvMeshDecl(in UvMeshInput) (*UvMeshDecl, error) {
	if err := CheckShape("Texture coordinates", in.UVs, uvComponents); err != nil {
		return nil, err
	}
	if err := CheckShape("Index", in.Indices, 3); err != nil {
		return nil, err
	}

	if in.FaceMaterials != nil {
		if err := CheckShapeRows("Face material", *in.FaceMaterials, 1, in.Indices.Rows()); err != nil {
			return nil, err
		}
	}

	decl := &UvMeshDecl{
		VertexCount:  uint32(in.UVs.Rows()),
		VertexUvData: in.UVs.Data,
		VertexStride: floatSize * uvComponents,
		IndexCount:   uint32(in.Indices.Len()),
		IndexData:    in.Indices.Data,
		IndexFormat:  IndexFormatUInt32,
	}

	if in.FaceMaterials != nil {
		decl.FaceMaterialData = in.FaceMaterials.Data
	}

	return decl, nil
}

// FaceCount returns the number of triangles.
func (d *MeshDecl) FaceCount() uint32 { return d.IndexCount / 3 }

// Position returns the position of vertex i.
func (d *MeshDecl) Position(i uint32) [3]float32 {
	o := i * d.VertexPositionStride / floatSize
	p := d.VertexPositionData[o : o+3]
	return [3]float32{p[0], p[1], p[2]}
}

// HasNormals reports whether the declaration carries normals.
func (d *MeshDecl) HasNormals() bool { return d.VertexNormalData != nil }

// Normal returns the normal of vertex i, if present.
func (d *MeshDecl) Normal(i uint32) ([3]float32, bool) {
	if !d.HasNormals() {
		return [3]float32{}, false
	}
	o := i * d.VertexNormalStride / floatSize
	n := d.VertexNormalData[o : o+3]
	return [3]float32{n[0], n[1], n[2]}, true
}

// HasUVs reports whether the declaration carries texture coordinates.
func (d *MeshDecl) HasUVs() bool { return d.VertexUvData != nil }

// UV returns the texture coordinate of vertex i, if present.
func (d *MeshDecl) UV(i uint32) ([2]float32, bool) {
	if !d.HasUVs() {
		return [2]float32{}, false
	}
	o := i * d.VertexUvStride / floatSize
	return [2]float32{d.VertexUvData[o], d.VertexUvData[o+1]}, true
}

// FaceCount returns the number of triangles.
func (d *UvMeshDecl) FaceCount() uint32 { return d.IndexCount / 3 }

// UV returns the texture coordinate of vertex i.
func (d *UvMeshDecl) UV(i uint32) [2]float32 {
	o := i * d.VertexStride / floatSize
	return [2]float32{d.VertexUvData[o], d.VertexUvData[o+1]}
}

// FaceMaterial returns the material of face f, or 0 when none were declared.
func (d *UvMeshDecl) FaceMaterial(f uint32) uint32 {
	if d.FaceMaterialData == nil {
		return 0
	}
	return d.FaceMaterialData[f]
}
