package atlas

import (
	"errors"
	"fmt"
)

// Atlas errors.
var (
	ErrShape               = errors.New("invalid buffer shape")
	ErrMeshAddition        = errors.New("mesh rejected by engine")
	ErrIndexOutOfRange     = errors.New("index out of range")
	ErrNotGenerated        = errors.New("atlas not generated")
	ErrNoImage             = errors.New("atlas has no chart image")
	ErrGeneration          = errors.New("atlas generation failed")
	ErrInternalConsistency = errors.New("atlas internal consistency violated")
	ErrClosed              = errors.New("atlas closed")
)

// MeshAdditionError is returned when the engine rejects a mesh declaration.
type MeshAdditionError struct {
	Kind AddMeshError
}

func (e *MeshAdditionError) Error() string {
	return fmt.Sprintf("%v: %s", ErrMeshAddition, e.Kind)
}

// Unwrap lets errors.Is match ErrMeshAddition.
func (e *MeshAdditionError) Unwrap() error {
	return ErrMeshAddition
}
