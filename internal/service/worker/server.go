// Package worker runs the background task server that settles connector
// states and delivers queued destination writes.
package worker

import (
	"context"

	"github.com/hibiken/asynq"
	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"

	"github.com/openpipe/connectorhub/internal/service"
)

const defaultConcurrency = 10

// Serve runs the asynq worker until the process is signalled.
func Serve(deps *service.Deps) error {
	root := deps.Cfg.GetRoot()

	// Fail fast when redis is unreachable rather than letting asynq retry
	// silently in the background.
	rdb := redis.NewClient(&redis.Options{
		Addr: root.Redis.Addr,
		DB:   root.Redis.DB,
	})
	if err := rdb.Ping(context.Background()).Err(); err != nil {
		return errors.Wrap(err, "redis is unreachable")
	}
	_ = rdb.Close()

	srv := asynq.NewServer(
		deps.RedisClientOpt(),
		asynq.Config{
			Concurrency: defaultConcurrency,
			Queues: map[string]int{
				"default": 5,
			},
		},
	)

	mux := asynq.NewServeMux()
	deps.Connectors.RegisterTasks(mux)

	deps.Logger.Info("starting worker", "redis", root.Redis.Addr)
	return srv.Run(mux)
}
