package apctx

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	clocktesting "k8s.io/utils/clock/testing"
)

func TestGetClock(t *testing.T) {
	t.Run("defaults to real clock", func(t *testing.T) {
		c := GetClock(context.Background())
		require.NotNil(t, c)
		require.WithinDuration(t, time.Now(), c.Now(), time.Minute)
	})

	t.Run("returns clock from context", func(t *testing.T) {
		now := time.Date(1955, time.November, 5, 6, 29, 0, 0, time.UTC)
		ctx := WithClock(context.Background(), clocktesting.NewFakeClock(now))
		require.Equal(t, now, GetClock(ctx).Now())
	})
}

func TestGetUuidGenerator(t *testing.T) {
	t.Run("defaults to random", func(t *testing.T) {
		g := GetUuidGenerator(context.Background())
		require.NotEqual(t, g.New(), g.New())
	})

	t.Run("fixed generator", func(t *testing.T) {
		u1 := uuid.MustParse("6f1f9c15-1a2b-4d0a-b3d8-966c073a1a11")
		ctx := WithUuidGenerator(context.Background(), &FixedUuidGenerator{Uuids: []uuid.UUID{u1}})
		require.Equal(t, u1, GetUuidGenerator(ctx).New())
		require.Panics(t, func() { GetUuidGenerator(ctx).New() })
	})
}
