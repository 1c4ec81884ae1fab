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
)

// checkConnector settles a freshly created connector into the connected or
// error state. Settlement only applies while the connector is still
// unspecified; any transition the owner makes first wins.
func (s *service) checkConnector(ctx context.Context, t *asynq.Task) error {
	logger := aplog.NewBuilder(s.logger).
		WithTask(t).
		WithCtx(ctx).
		Build()
	logger.Info("connector check task started")
	defer logger.Info("connector check task completed")

	var p checkConnectorTaskPayload
	if err := json.Unmarshal(t.Payload(), &p); err != nil {
		return fmt.Errorf("%s json.Unmarshal failed: %v: %w", taskTypeCheckConnector, err, asynq.SkipRetry)
	}

	if p.ConnectorUid == uuid.Nil {
		return fmt.Errorf("%s connector uid not specified: %w", taskTypeCheckConnector, asynq.SkipRetry)
	}

	logger = aplog.NewBuilder(logger).
		WithConnectorUid(p.ConnectorUid).
		Build()

	c, err := s.db.LookUpConnectorAdmin(ctx, p.ConnectorUid)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			// Deleted before the check ran; nothing left to settle
			logger.Info("connector no longer exists, skipping check")
			return nil
		}
		return err
	}

	if c.DeletedAt.Valid {
		logger.Info("connector deleted, skipping check")
		return nil
	}

	if c.State != database.ConnectorStateUnspecified {
		// The owner already moved the connector through connect or
		// disconnect; the post-create settlement is moot.
		logger.Info("connector state already settled, skipping check", "state", c.State)
		return nil
	}

	state, err := s.runCheck(ctx, c)
	if err != nil {
		logger.Error("failed to run connectivity check", "error", err)
		return err
	}

	logger.Info("settling connector state", "state", state)
	settled, err := s.db.SettleConnectorState(ctx, p.ConnectorUid, database.ConnectorStateUnspecified, state)
	if err != nil {
		return err
	}
	if !settled {
		logger.Info("connector transitioned while the check ran, leaving state untouched")
	}

	return nil
}
