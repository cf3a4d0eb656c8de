package formats

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/Faultbox/uvatlas/pkg/atlas"
)

// OBJ format errors.
var (
	ErrInvalidOBJ      = errors.New("invalid OBJ data")
	ErrOBJIndexRange   = errors.New("OBJ index out of range")
	ErrOBJFaceTooSmall = errors.New("OBJ face has fewer than 3 vertices")
)

// OBJCorner references the attributes of one face corner.
// Indices are 0-based; -1 means the attribute is absent.
type OBJCorner struct {
	V  int
	VT int
	VN int
}

// OBJ is a parsed Wavefront OBJ mesh. Polygons are fan-triangulated.
type OBJ struct {
	Positions [][3]float32
	TexCoords [][2]float32
	Normals   [][3]float32
	Triangles [][3]OBJCorner
}

// ParseOBJ parses the geometry statements of an OBJ file. Statements other
// than v, vt, vn and f are ignored.
func ParseOBJ(data []byte) (*OBJ, error) {
	obj := &OBJ{}
	scanner := bufio.NewScanner(bytes.NewReader(data))
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	line := 0
	for scanner.Scan() {
		line++
		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 || strings.HasPrefix(fields[0], "#") {
			continue
		}

		var err error
		switch fields[0] {
		case "v":
			var p []float32
			if p, err = parseFloats(fields[1:], 3); err == nil {
				obj.Positions = append(obj.Positions, [3]float32{p[0], p[1], p[2]})
			}
		case "vt":
			var p []float32
			if p, err = parseFloats(fields[1:], 1); err == nil {
				uv := [2]float32{p[0], 0}
				if len(p) > 1 {
					uv[1] = p[1]
				}
				obj.TexCoords = append(obj.TexCoords, uv)
			}
		case "vn":
			var p []float32
			if p, err = parseFloats(fields[1:], 3); err == nil {
				obj.Normals = append(obj.Normals, [3]float32{p[0], p[1], p[2]})
			}
		case "f":
			err = obj.parseFace(fields[1:])
		}
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidOBJ, err)
	}

	return obj, nil
}

func parseFloats(fields []string, minCount int) ([]float32, error) {
	if len(fields) < minCount {
		return nil, fmt.Errorf("%w: expected %d values, got %d", ErrInvalidOBJ, minCount, len(fields))
	}
	out := make([]float32, len(fields))
	for i, f := range fields {
		v, err := strconv.ParseFloat(f, 32)
		if err != nil {
			return nil, fmt.Errorf("%w: %q is not a number", ErrInvalidOBJ, f)
		}
		out[i] = float32(v)
	}
	return out, nil
}

// resolveIndex converts a 1-based or negative OBJ index to 0-based.
func resolveIndex(s string, count int) (int, error) {
	if s == "" {
		return -1, nil
	}
	i, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("%w: bad index %q", ErrInvalidOBJ, s)
	}
	switch {
	case i > 0 && i <= count:
		return i - 1, nil
	case i < 0 && -i <= count:
		return count + i, nil
	default:
		return 0, fmt.Errorf("%w: %d (have %d)", ErrOBJIndexRange, i, count)
	}
}

func (o *OBJ) parseFace(fields []string) error {
	if len(fields) < 3 {
		return ErrOBJFaceTooSmall
	}

	corners := make([]OBJCorner, len(fields))
	for i, f := range fields {
		parts := strings.Split(f, "/")
		c := OBJCorner{VT: -1, VN: -1}

		var err error
		if c.V, err = resolveIndex(parts[0], len(o.Positions)); err != nil {
			return err
		}
		if c.V < 0 {
			return fmt.Errorf("%w: face corner without vertex", ErrInvalidOBJ)
		}
		if len(parts) > 1 {
			if c.VT, err = resolveIndex(parts[1], len(o.TexCoords)); err != nil {
				return err
			}
		}
		if len(parts) > 2 {
			if c.VN, err = resolveIndex(parts[2], len(o.Normals)); err != nil {
				return err
			}
		}
		corners[i] = c
	}

	for i := 1; i+1 < len(corners); i++ {
		o.Triangles = append(o.Triangles, [3]OBJCorner{corners[0], corners[i], corners[i+1]})
	}
	return nil
}

// MeshInput converts the OBJ to atlas buffers with one vertex per position.
// Normals and UVs are attached only when every corner indexes them with its
// position index, as written by WriteOBJ.
func (o *OBJ) MeshInput() atlas.MeshInput {
	indices := make([][3]uint32, len(o.Triangles))
	perVertexUV := len(o.TexCoords) == len(o.Positions) && len(o.Triangles) > 0
	perVertexNormal := len(o.Normals) == len(o.Positions) && len(o.Triangles) > 0

	for f, tri := range o.Triangles {
		for k, c := range tri {
			indices[f][k] = uint32(c.V)
			perVertexUV = perVertexUV && c.VT == c.V
			perVertexNormal = perVertexNormal && c.VN == c.V
		}
	}

	in := atlas.MeshInput{
		Positions: atlas.Rows3(o.Positions),
		Indices:   atlas.Rows3(indices),
	}
	if perVertexUV {
		uvs := atlas.Rows2(o.TexCoords)
		in.UVs = &uvs
	}
	if perVertexNormal {
		normals := atlas.Rows3(o.Normals)
		in.Normals = &normals
	}
	return in
}

// WriteOBJ writes positions and optional faces, UVs and normals as OBJ text.
// All attributes share the position index, so faces are written as
// "f a/a/a" style corners with 1-based indices.
func WriteOBJ(w io.Writer, positions atlas.Buffer[float32], indices *atlas.Buffer[uint32],
	uvs, normals *atlas.Buffer[float32]) error {
	if err := atlas.CheckShape("Position", positions, 3); err != nil {
		return err
	}
	if indices != nil {
		if err := atlas.CheckShape("Index", *indices, 3); err != nil {
			return err
		}
	}
	if normals != nil {
		if err := atlas.CheckShapeRows("Normal", *normals, 3, positions.Rows()); err != nil {
			return err
		}
	}
	if uvs != nil {
		if err := atlas.CheckShapeRows("Texture coordinates", *uvs, 2, positions.Rows()); err != nil {
			return err
		}
	}

	bw := bufio.NewWriter(w)

	writeRows(bw, "v", positions.Data, 3)
	if normals != nil {
		writeRows(bw, "vn", normals.Data, 3)
	}
	if uvs != nil {
		writeRows(bw, "vt", uvs.Data, 2)
	}

	if indices != nil {
		corner := func(i uint32) string { return strconv.FormatUint(uint64(i), 10) }
		switch {
		case normals != nil && uvs != nil:
			corner = func(i uint32) string { return fmt.Sprintf("%d/%d/%d", i, i, i) }
		case normals != nil:
			corner = func(i uint32) string { return fmt.Sprintf("%d//%d", i, i) }
		case uvs != nil:
			corner = func(i uint32) string { return fmt.Sprintf("%d/%d", i, i) }
		}

		for f := 0; f < indices.Rows(); f++ {
			face := indices.Data[f*3 : f*3+3]
			fmt.Fprintf(bw, "f %s %s %s\n", corner(face[0]+1), corner(face[1]+1), corner(face[2]+1))
		}
	}

	return bw.Flush()
}

func writeRows(w *bufio.Writer, tag string, data []float32, width int) {
	for i := 0; i+width <= len(data); i += width {
		w.WriteString(tag)
		for _, v := range data[i : i+width] {
			w.WriteByte(' ')
			w.WriteString(strconv.FormatFloat(float64(v), 'g', -1, 32))
		}
		w.WriteByte('\n')
	}
}
