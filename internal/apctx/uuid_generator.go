package apctx

import (
	"context"

	"github.com/google/uuid"
)

// UuidGenerator produces UUIDs for newly created resources. It is carried on the context so that tests
// can substitute a deterministic sequence.
type UuidGenerator interface {
	New() uuid.UUID
}

type randomUuidGenerator struct{}

func (randomUuidGenerator) New() uuid.UUID {
	return uuid.New()
}

var realUuidGenerator = randomUuidGenerator{}

func WithUuidGenerator(ctx context.Context, g UuidGenerator) context.Context {
	return context.WithValue(ctx, uuidGeneratorKey, g)
}

// GetUuidGenerator retrieves the UUID generator set on the context, or a random generator if none has been set.
func GetUuidGenerator(ctx context.Context) UuidGenerator {
	val := ctx.Value(uuidGeneratorKey)
	if val == nil {
		return realUuidGenerator
	}

	return val.(UuidGenerator)
}

// FixedUuidGenerator returns each of the specified UUIDs in order, then panics. Intended for tests.
type FixedUuidGenerator struct {
	Uuids []uuid.UUID
	next  int
}

func (g *FixedUuidGenerator) New() uuid.UUID {
	if g.next >= len(g.Uuids) {
		panic("fixed uuid generator exhausted")
	}

	u := g.Uuids[g.next]
	g.next++
	return u
}
