package connector

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"github.com/pkg/errors"

	"github.com/openpipe/connectorhub/internal/aplog"
	"github.com/openpipe/connectorhub/internal/database"
	"github.com/openpipe/connectorhub/internal/runtime"
)

// writeConnector delivers a queued batch to its destination.
func (s *service) writeConnector(ctx context.Context, t *asynq.Task) error {
	logger := aplog.NewBuilder(s.logger).
		WithTask(t).
		WithCtx(ctx).
		Build()
	logger.Info("connector write task started")
	defer logger.Info("connector write task completed")

	var p writeConnectorTaskPayload
	if err := json.Unmarshal(t.Payload(), &p); err != nil {
		return fmt.Errorf("%s json.Unmarshal failed: %v: %w", taskTypeWriteConnector, err, asynq.SkipRetry)
	}

	if p.ConnectorUid == uuid.Nil {
		return fmt.Errorf("%s connector uid not specified: %w", taskTypeWriteConnector, asynq.SkipRetry)
	}

	logger = aplog.NewBuilder(logger).
		WithConnectorUid(p.ConnectorUid).
		Build()

	c, err := s.db.LookUpConnectorAdmin(ctx, p.ConnectorUid)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return fmt.Errorf("%s connector no longer exists: %w", taskTypeWriteConnector, asynq.SkipRetry)
		}
		return err
	}

	if c.DeletedAt.Valid {
		return fmt.Errorf("%s connector deleted: %w", taskTypeWriteConnector, asynq.SkipRetry)
	}

	if c.ConnectorType != database.ConnectorTypeDestination {
		return fmt.Errorf("%s connector is not a destination: %w", taskTypeWriteConnector, asynq.SkipRetry)
	}

	def := s.definitionFor(c)
	if def == nil {
		return fmt.Errorf("%s connector references unknown definition: %w", taskTypeWriteConnector, asynq.SkipRetry)
	}

	dest, err := s.runtimes.DestinationForDefinition(def.ID)
	if err != nil {
		return fmt.Errorf("%s: %v: %w", taskTypeWriteConnector, err, asynq.SkipRetry)
	}

	batch := make([]runtime.Record, 0, len(p.Batch))
	for _, r := range p.Batch {
		batch = append(batch, runtime.Record{Index: r.Index, Task: r.Task, Payload: r.Payload})
	}

	logger.Info("writing batch to destination", "records", len(batch))
	if err := dest.Write(ctx, []byte(c.Configuration), batch); err != nil {
		logger.Error("failed to write batch", "error", err)
		return err
	}

	return nil
}
