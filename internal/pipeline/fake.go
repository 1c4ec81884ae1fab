package pipeline

import (
	"context"

	"github.com/google/uuid"
)

// Fake is an in-memory pipeline client for tests.
type Fake struct {
	Occupied map[uuid.UUID]bool
	Err      error
}

func NewFake() *Fake {
	return &Fake{Occupied: map[uuid.UUID]bool{}}
}

func (f *Fake) IsOccupied(_ context.Context, connectorUID uuid.UUID) (bool, error) {
	if f.Err != nil {
		return false, f.Err
	}
	return f.Occupied[connectorUID], nil
}
