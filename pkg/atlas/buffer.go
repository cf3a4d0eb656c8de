package atlas

import "fmt"

// Element is the set of element types accepted in mesh buffers.
type Element interface {
	float32 | uint32
}

// Buffer is a caller-owned, row-major numeric array with an explicit shape.
// Declarations built from a Buffer alias Data, so it must stay unmodified
// until the add call that references it has returned.
type Buffer[T Element] struct {
	Data  []T
	Shape []int
}

// Shaped exposes buffer shape metadata to the validator.
type Shaped interface {
	Rank() int
	Dim(i int) int
	Len() int
}

// NewBuffer wraps data with the given shape. No copy is made.
func NewBuffer[T Element](data []T, shape ...int) Buffer[T] {
	return Buffer[T]{Data: data, Shape: shape}
}

// Rows2 flattens pairs into an Nx2 buffer.
func Rows2[T Element](rows [][2]T) Buffer[T] {
	data := make([]T, 0, len(rows)*2)
	for _, r := range rows {
		data = append(data, r[0], r[1])
	}
	return NewBuffer(data, len(rows), 2)
}

// Rows3 flattens triples into an Nx3 buffer.
func Rows3[T Element](rows [][3]T) Buffer[T] {
	data := make([]T, 0, len(rows)*3)
	for _, r := range rows {
		data = append(data, r[0], r[1], r[2])
	}
	return NewBuffer(data, len(rows), 3)
}

// Rank returns the number of dimensions.
func (b Buffer[T]) Rank() int { return len(b.Shape) }

// Dim returns the size of dimension i, or 0 if i is out of range.
func (b Buffer[T]) Dim(i int) int {
	if i < 0 || i >= len(b.Shape) {
		return 0
	}
	return b.Shape[i]
}

// Len returns the number of elements in Data.
func (b Buffer[T]) Len() int { return len(b.Data) }

// Rows returns the first dimension.
func (b Buffer[T]) Rows() int { return b.Dim(0) }

// Cols returns the second dimension.
func (b Buffer[T]) Cols() int { return b.Dim(1) }

// CheckShape verifies that b is an Nx<lastDim> matrix.
func CheckShape(name string, b Shaped, lastDim int) error {
	if b.Rank() != 2 || b.Dim(1) != lastDim {
		return fmt.Errorf("%w: %s array expected to be Nx%d", ErrShape, name, lastDim)
	}

	if n := b.Dim(0) * b.Dim(1); b.Dim(0) < 0 || n != b.Len() {
		return fmt.Errorf("%w: %s array has %d elements, shape %dx%d requires %d",
			ErrShape, name, b.Len(), b.Dim(0), b.Dim(1), n)
	}

	return nil
}

// CheckShapeRows verifies that b is a <firstDim>x<lastDim> matrix.
func CheckShapeRows(name string, b Shaped, lastDim, firstDim int) error {
	if err := CheckShape(name, b, lastDim); err != nil {
		return err
	}

	if b.Dim(0) != firstDim {
		return fmt.Errorf("%w: %s has invalid number of elements in the first dimension (expected %d, got %d)",
			ErrShape, name, firstDim, b.Dim(0))
	}

	return nil
}
