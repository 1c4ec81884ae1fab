package worker

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openpipe/connectorhub/internal/aplog"
	"github.com/openpipe/connectorhub/internal/config"
	"github.com/openpipe/connectorhub/internal/service"
)

func TestServeFailsFastWithoutRedis(t *testing.T) {
	deps := &service.Deps{
		Cfg: config.FromRoot(&config.Root{
			Redis: config.Redis{Addr: "127.0.0.1:1"},
		}),
		Logger: aplog.NewNop(),
	}

	err := Serve(deps)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "redis is unreachable")
}

func TestEnqueueAgainstRedis(t *testing.T) {
	mr := miniredis.RunT(t)

	deps := &service.Deps{
		Cfg: config.FromRoot(&config.Root{
			Redis: config.Redis{Addr: mr.Addr()},
		}),
		Logger: aplog.NewNop(),
	}

	client := asynq.NewClient(deps.RedisClientOpt())
	defer client.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	info, err := client.EnqueueContext(ctx, asynq.NewTask("connector:check", []byte(`{"connector_uid":"2d9b0ee3-5a20-42b7-9f08-7ca042ae1a4b"}`)))
	require.NoError(t, err)
	assert.Equal(t, "default", info.Queue)

	// The task should be visible in the backing store
	assert.NotEmpty(t, mr.Keys())
}
