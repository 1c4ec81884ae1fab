package connector

import (
	"context"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/openpipe/connectorhub/internal/database"
	"github.com/openpipe/connectorhub/internal/view"
)

/*
 * Admin operations bypass owner scoping and attach the owner identity to each
 * result. They must only be reachable from the admin facade.
 */

func (s *service) ListConnectorsAdmin(ctx context.Context, req *ListRequest) (*ListResult, error) {
	return s.list(ctx, nil, req, true)
}

func (s *service) attachOwner(ctx context.Context, c *database.Connector, wrapped *Connector) *Connector {
	if o, err := s.db.GetOwnerByUID(ctx, c.OwnerUID); err == nil {
		wrapped.Owner = o.ID
	}
	return wrapped
}

func (s *service) GetConnectorAdmin(ctx context.Context, id string, v view.View) (*Connector, error) {
	c, err := s.db.GetConnectorAdmin(ctx, id)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return nil, notFoundError()
		}
		return nil, errors.Wrap(err, "failed to get connector")
	}

	return s.attachOwner(ctx, c, s.wrapProjected(c, v)), nil
}

func (s *service) LookUpConnectorAdmin(ctx context.Context, uid uuid.UUID, v view.View) (*Connector, error) {
	c, err := s.db.LookUpConnectorAdmin(ctx, uid)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return nil, notFoundError()
		}
		return nil, errors.Wrap(err, "failed to look up connector")
	}

	return s.attachOwner(ctx, c, s.wrapProjected(c, v)), nil
}
