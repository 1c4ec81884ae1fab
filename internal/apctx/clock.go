package apctx

import (
	"context"

	"k8s.io/utils/clock"
)

type contextKey string

const (
	clockKey         contextKey = "clock"
	uuidGeneratorKey contextKey = "uuid_generator"
)

var realClock = clock.RealClock{}

// WithClock sets the clock used for all time observations downstream of this context. Tests use this with
// a fake clock to make timestamps deterministic.
func WithClock(ctx context.Context, c clock.Clock) context.Context {
	return context.WithValue(ctx, clockKey, c)
}

// GetClock retrieves the clock set on the context, or a real clock if none has been set.
func GetClock(ctx context.Context) clock.Clock {
	val := ctx.Value(clockKey)
	if val == nil {
		return realClock
	}

	return val.(clock.Clock)
}
