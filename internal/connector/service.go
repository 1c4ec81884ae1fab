package connector

import (
	"context"
	"log/slog"

	"github.com/hibiken/asynq"

	"github.com/openpipe/connectorhub/internal/config"
	"github.com/openpipe/connectorhub/internal/database"
	"github.com/openpipe/connectorhub/internal/definition"
	"github.com/openpipe/connectorhub/internal/pipeline"
	"github.com/openpipe/connectorhub/internal/runtime"
	"github.com/openpipe/connectorhub/internal/view"
)

// Enqueuer is the slice of the asynq client used by this service. Satisfied by
// *asynq.Client.
type Enqueuer interface {
	EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
}

type service struct {
	cfg      config.C
	db       database.DB
	defs     definition.C
	runtimes *runtime.Registry
	pipeline pipeline.C
	ac       Enqueuer
	logger   *slog.Logger
}

// NewConnectorsService creates a new connectors service.
func NewConnectorsService(
	cfg config.C,
	db database.DB,
	defs definition.C,
	runtimes *runtime.Registry,
	pipelineClient pipeline.C,
	ac Enqueuer,
	logger *slog.Logger,
) C {
	return &service{
		cfg:      cfg,
		db:       db,
		defs:     defs,
		runtimes: runtimes,
		pipeline: pipelineClient,
		ac:       ac,
		logger:   logger,
	}
}

// definitionFor resolves the catalog entry for a stored connector. The catalog
// is the source of truth for which runtime backs the connector.
func (s *service) definitionFor(c *database.Connector) *definition.Definition {
	def, err := s.defs.GetByUID(c.DefinitionUID)
	if err != nil {
		s.logger.Error("connector references unknown definition",
			"connector_uid", c.UID,
			"definition_uid", c.DefinitionUID,
		)
		return nil
	}
	return def
}

func (s *service) wrapProjected(c *database.Connector, v view.View) *Connector {
	return ProjectView(wrap(c, s.definitionFor(c)), v)
}
