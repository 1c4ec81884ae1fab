package connector

import (
	"context"

	"github.com/pkg/errors"

	"github.com/openpipe/connectorhub/internal/api_common"
	"github.com/openpipe/connectorhub/internal/database"
	"github.com/openpipe/connectorhub/internal/view"
)

func (s *service) UpdateConnector(
	ctx context.Context,
	owner *database.Owner,
	ct database.ConnectorType,
	id string,
	req *UpdateRequest,
) (*Connector, error) {
	existing, err := s.getScoped(ctx, owner, ct, id)
	if err != nil {
		return nil, err
	}

	fields := map[string]interface{}{}

	if req.Description != nil {
		// An explicit empty string clears the description; absence leaves it alone.
		fields["description"] = *req.Description
	}

	if req.Configuration != nil {
		if err := s.defs.ValidateConfiguration(existing.DefinitionUID, req.Configuration); err != nil {
			return nil, api_common.NewHttpStatusErrorBuilder().
				WithStatusBadRequest().
				WithResponseMsg(err.Error()).
				Build()
		}
		fields["configuration"] = database.ConfigurationJSON(req.Configuration)
	}

	updated, err := s.db.UpdateConnectorFields(ctx, owner.UID, id, fields)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return nil, notFoundError()
		}
		return nil, errors.Wrap(err, "failed to update connector")
	}

	return s.wrapProjected(updated, view.ViewFull), nil
}
