package connector

import (
	"context"

	"github.com/pkg/errors"

	"github.com/openpipe/connectorhub/internal/apctx"
	"github.com/openpipe/connectorhub/internal/api_common"
	"github.com/openpipe/connectorhub/internal/aplog"
	"github.com/openpipe/connectorhub/internal/database"
	"github.com/openpipe/connectorhub/internal/definition"
	"github.com/openpipe/connectorhub/internal/view"
)

func (s *service) CreateConnector(
	ctx context.Context,
	owner *database.Owner,
	ct database.ConnectorType,
	req *CreateRequest,
) (*Connector, error) {
	logger := aplog.NewBuilder(s.logger).
		WithOwner(owner.ID).
		WithConnectorId(req.ID).
		Build()

	if err := ValidateID(req.ID); err != nil {
		return nil, api_common.NewHttpStatusErrorBuilder().
			WithStatusBadRequest().
			WithResponseMsg(err.Error()).
			Build()
	}

	def, err := s.defs.GetByName(req.ConnectorDefinitionName)
	if err != nil {
		if errors.Is(err, definition.ErrNotFound) {
			return nil, api_common.NewHttpStatusErrorBuilder().
				WithStatusBadRequest().
				WithResponseMsgf("unknown connector definition %q", req.ConnectorDefinitionName).
				Build()
		}

		return nil, api_common.NewHttpStatusErrorBuilder().
			WithStatusBadRequest().
			WithResponseMsg(err.Error()).
			Build()
	}

	if def.ConnectorType != ct {
		return nil, api_common.NewHttpStatusErrorBuilder().
			WithStatusBadRequest().
			WithResponseMsgf("definition %q is not a %s definition", req.ConnectorDefinitionName, CollectionFor(ct)).
			Build()
	}

	if def.Tombstone {
		return nil, api_common.NewHttpStatusErrorBuilder().
			WithStatusBadRequest().
			WithResponseMsgf("connector definition %q is retired", req.ConnectorDefinitionName).
			Build()
	}

	if err := s.defs.ValidateConfiguration(def.UID, req.Configuration); err != nil {
		return nil, api_common.NewHttpStatusErrorBuilder().
			WithStatusBadRequest().
			WithResponseMsg(err.Error()).
			Build()
	}

	c := &database.Connector{
		UID:           apctx.GetUuidGenerator(ctx).New(),
		ID:            req.ID,
		OwnerUID:      owner.UID,
		ConnectorType: ct,
		DefinitionUID: def.UID,
		Description:   req.Description,
		Configuration: database.ConfigurationJSON(req.Configuration),
		State:         database.ConnectorStateUnspecified,
	}

	if err := s.db.CreateConnector(ctx, c); err != nil {
		if errors.Is(err, database.ErrDuplicate) {
			return nil, api_common.NewHttpStatusErrorBuilder().
				WithStatusConflict().
				WithResponseMsgf("connector with id %q already exists", req.ID).
				Build()
		}

		return nil, errors.Wrap(err, "failed to create connector")
	}

	logger.Info("connector created", "connector_uid", c.UID, "definition", def.ID)

	// The connector settles to connected or error in the background. Queue
	// failures do not fail the create; the connector stays unspecified until
	// an explicit connect.
	if err := s.enqueueCheck(ctx, c.UID); err != nil {
		logger.Error("failed to queue connectivity check", "error", err)
	}

	return s.wrapProjected(c, view.ViewFull), nil
}
