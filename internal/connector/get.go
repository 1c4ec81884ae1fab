package connector

import (
	"context"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/openpipe/connectorhub/internal/api_common"
	"github.com/openpipe/connectorhub/internal/database"
	"github.com/openpipe/connectorhub/internal/view"
)

func notFoundError() error {
	return api_common.NewHttpStatusErrorBuilder().
		WithStatusNotFound().
		WithResponseMsg("resource not found").
		Build()
}

// getScoped fetches a connector for an owner within a connector type
// namespace. A connector of the other type with the same id reads as missing.
func (s *service) getScoped(ctx context.Context, owner *database.Owner, ct database.ConnectorType, id string) (*database.Connector, error) {
	c, err := s.db.GetConnector(ctx, owner.UID, id)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return nil, notFoundError()
		}
		return nil, errors.Wrap(err, "failed to get connector")
	}

	if c.ConnectorType != ct {
		return nil, notFoundError()
	}

	return c, nil
}

func (s *service) GetConnector(ctx context.Context, owner *database.Owner, ct database.ConnectorType, id string, v view.View) (*Connector, error) {
	c, err := s.getScoped(ctx, owner, ct, id)
	if err != nil {
		return nil, err
	}

	return s.wrapProjected(c, v), nil
}

func (s *service) LookUpConnector(ctx context.Context, owner *database.Owner, uid uuid.UUID, v view.View) (*Connector, error) {
	c, err := s.db.GetConnectorByUID(ctx, owner.UID, uid)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return nil, notFoundError()
		}
		return nil, errors.Wrap(err, "failed to look up connector")
	}

	return s.wrapProjected(c, v), nil
}
