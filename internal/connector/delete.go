package connector

import (
	"context"

	"github.com/pkg/errors"

	"github.com/openpipe/connectorhub/internal/api_common"
	"github.com/openpipe/connectorhub/internal/database"
	"github.com/openpipe/connectorhub/internal/view"
)

// guardUnoccupied refuses the operation while any pipeline references the
// connector. When the pipeline service cannot be reached the operation is
// refused as well; vacancy must be proven, not assumed.
func (s *service) guardUnoccupied(ctx context.Context, c *database.Connector) error {
	occupied, err := s.pipeline.IsOccupied(ctx, c.UID)
	if err != nil {
		return api_common.NewHttpStatusErrorBuilder().
			WithStatusPreconditionFailed().
			WithResponseMsgf("unable to verify that connector %q is free of pipelines", c.ID).
			WithInternalErr(err).
			Build()
	}

	if occupied {
		return api_common.NewHttpStatusErrorBuilder().
			WithStatusPreconditionFailed().
			WithResponseMsgf("connector %q is in use by one or more pipelines", c.ID).
			Build()
	}

	return nil
}

func (s *service) DeleteConnector(ctx context.Context, owner *database.Owner, ct database.ConnectorType, id string) error {
	c, err := s.getScoped(ctx, owner, ct, id)
	if err != nil {
		return err
	}

	if err := s.guardUnoccupied(ctx, c); err != nil {
		return err
	}

	if err := s.db.DeleteConnector(ctx, owner.UID, id); err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return notFoundError()
		}
		return errors.Wrap(err, "failed to delete connector")
	}

	s.logger.Info("connector deleted", "connector_uid", c.UID, "id", id)
	return nil
}

func (s *service) RenameConnector(
	ctx context.Context,
	owner *database.Owner,
	ct database.ConnectorType,
	id string,
	newID string,
) (*Connector, error) {
	if err := ValidateID(newID); err != nil {
		return nil, api_common.NewHttpStatusErrorBuilder().
			WithStatusBadRequest().
			WithResponseMsg(err.Error()).
			Build()
	}

	c, err := s.getScoped(ctx, owner, ct, id)
	if err != nil {
		return nil, err
	}

	if err := s.guardUnoccupied(ctx, c); err != nil {
		return nil, err
	}

	renamed, err := s.db.RenameConnector(ctx, owner.UID, id, newID)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return nil, notFoundError()
		}
		if errors.Is(err, database.ErrDuplicate) {
			return nil, api_common.NewHttpStatusErrorBuilder().
				WithStatusConflict().
				WithResponseMsgf("connector with id %q already exists", newID).
				Build()
		}
		return nil, errors.Wrap(err, "failed to rename connector")
	}

	return s.wrapProjected(renamed, view.ViewFull), nil
}
