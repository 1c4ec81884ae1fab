// Package service wires the shared dependency graph for the public, admin and
// worker entrypoints.
package service

import (
	"log/slog"

	"github.com/hibiken/asynq"
	"github.com/pkg/errors"

	"github.com/openpipe/connectorhub/internal/aplog"
	"github.com/openpipe/connectorhub/internal/auth"
	"github.com/openpipe/connectorhub/internal/config"
	"github.com/openpipe/connectorhub/internal/connector"
	"github.com/openpipe/connectorhub/internal/database"
	"github.com/openpipe/connectorhub/internal/definition"
	"github.com/openpipe/connectorhub/internal/pipeline"
	"github.com/openpipe/connectorhub/internal/runtime"
)

type Deps struct {
	Cfg         config.C
	Logger      *slog.Logger
	DB          database.DB
	Definitions definition.C
	Runtimes    *runtime.Registry
	Pipeline    pipeline.C
	AsynqClient *asynq.Client
	Connectors  connector.C
	Gate        auth.Gate
}

func (d *Deps) RedisClientOpt() asynq.RedisClientOpt {
	root := d.Cfg.GetRoot()
	return asynq.RedisClientOpt{
		Addr: root.Redis.Addr,
		DB:   root.Redis.DB,
	}
}

func (d *Deps) Close() {
	if d.AsynqClient != nil {
		_ = d.AsynqClient.Close()
	}
}

// BuildDeps constructs the full dependency graph for a service entrypoint.
func BuildDeps(cfg config.C, serviceName string) (*Deps, error) {
	root := cfg.GetRoot()

	logger := aplog.NewBuilder(aplog.NewDefault(cfg.IsDebugMode())).
		WithService(serviceName).
		Build()

	db, err := database.NewConnectionForRoot(root, logger)
	if err != nil {
		return nil, errors.Wrap(err, "failed to connect to database")
	}

	defs, err := definition.New(root.SystemAuth.GlobalAESKey)
	if err != nil {
		return nil, errors.Wrap(err, "failed to load definition catalog")
	}

	runtimes := runtime.NewRegistry(logger)
	pipelineClient := pipeline.New(&root.Pipeline, logger)

	ac := asynq.NewClient(asynq.RedisClientOpt{
		Addr: root.Redis.Addr,
		DB:   root.Redis.DB,
	})

	connectors := connector.NewConnectorsService(cfg, db, defs, runtimes, pipelineClient, ac, logger)

	return &Deps{
		Cfg:         cfg,
		Logger:      logger,
		DB:          db,
		Definitions: defs,
		Runtimes:    runtimes,
		Pipeline:    pipelineClient,
		AsynqClient: ac,
		Connectors:  connectors,
		Gate:        auth.NewGate(cfg, db),
	}, nil
}
