// Package pipeline talks to the pipeline service, which owns the pipelines
// that attach to connectors. This service only ever asks one question of it:
// is a connector still referenced by any pipeline.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/openpipe/connectorhub/internal/config"
)

// C is the interface for the pipeline collaborator.
type C interface {
	// IsOccupied reports whether any pipeline currently references the connector.
	// An error means the answer could not be determined; callers must treat that
	// as blocking, not as vacant.
	IsOccupied(ctx context.Context, connectorUID uuid.UUID) (bool, error)
}

type client struct {
	http   *resty.Client
	logger *slog.Logger
}

type listPipelinesResponse struct {
	TotalSize int64 `json:"total_size"`
}

// New builds a pipeline client against the configured backend.
func New(cfg *config.PipelineBackend, logger *slog.Logger) C {
	timeout := time.Duration(cfg.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 5 * time.Second
	}

	return &client{
		http: resty.New().
			SetBaseURL(cfg.BaseUrl).
			SetTimeout(timeout),
		logger: logger,
	}
}

func (c *client) IsOccupied(ctx context.Context, connectorUID uuid.UUID) (bool, error) {
	var body listPipelinesResponse

	resp, err := c.http.R().
		SetContext(ctx).
		SetQueryParam("connector_uid", connectorUID.String()).
		SetQueryParam("page_size", "1").
		SetResult(&body).
		Get("/v1alpha/pipelines")
	if err != nil {
		return false, errors.Wrap(err, "failed to query pipeline service")
	}

	if resp.IsError() {
		return false, fmt.Errorf("pipeline service returned status %d", resp.StatusCode())
	}

	occupied := body.TotalSize > 0
	c.logger.Debug("checked connector occupancy",
		"connector_uid", connectorUID,
		"occupied", occupied,
	)

	return occupied, nil
}
