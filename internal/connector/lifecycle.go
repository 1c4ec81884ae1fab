package connector

import (
	"context"

	"github.com/pkg/errors"

	"github.com/openpipe/connectorhub/internal/api_common"
	"github.com/openpipe/connectorhub/internal/aplog"
	"github.com/openpipe/connectorhub/internal/database"
	"github.com/openpipe/connectorhub/internal/view"
)

// runCheck executes the runtime connectivity check for a connector and maps
// the outcome to a state. A failing check is a settled outcome, not an error.
func (s *service) runCheck(ctx context.Context, c *database.Connector) (database.ConnectorState, error) {
	def := s.definitionFor(c)
	if def == nil {
		return database.ConnectorStateError, errors.New("connector references unknown definition")
	}

	rt, err := s.runtimes.ForDefinition(def.ID)
	if err != nil {
		return database.ConnectorStateError, err
	}

	if err := rt.Check(ctx, []byte(c.Configuration)); err != nil {
		aplog.NewBuilder(s.logger).
			WithConnectorUid(c.UID).
			Build().
			Info("connectivity check failed", "definition", def.ID, "error", err)
		return database.ConnectorStateError, nil
	}

	return database.ConnectorStateConnected, nil
}

func (s *service) ConnectConnector(ctx context.Context, owner *database.Owner, ct database.ConnectorType, id string) (*Connector, error) {
	c, err := s.getScoped(ctx, owner, ct, id)
	if err != nil {
		return nil, err
	}

	// Connecting a connected connector is a no-op
	if c.State == database.ConnectorStateConnected {
		return s.wrapProjected(c, view.ViewFull), nil
	}

	state, err := s.runCheck(ctx, c)
	if err != nil {
		return nil, errors.Wrap(err, "failed to run connectivity check")
	}

	if err := s.db.SetConnectorState(ctx, c.UID, state); err != nil {
		return nil, errors.Wrap(err, "failed to persist connector state")
	}

	c.State = state
	return s.wrapProjected(c, view.ViewFull), nil
}

func (s *service) DisconnectConnector(ctx context.Context, owner *database.Owner, ct database.ConnectorType, id string) (*Connector, error) {
	c, err := s.getScoped(ctx, owner, ct, id)
	if err != nil {
		return nil, err
	}

	if c.State != database.ConnectorStateConnected && c.State != database.ConnectorStateDisconnected {
		return nil, api_common.NewHttpStatusErrorBuilder().
			WithStatusPreconditionFailed().
			WithResponseMsgf("connector %q cannot be disconnected from state %s", id, c.State).
			Build()
	}

	if err := s.guardUnoccupied(ctx, c); err != nil {
		return nil, err
	}

	if c.State != database.ConnectorStateDisconnected {
		if err := s.db.SetConnectorState(ctx, c.UID, database.ConnectorStateDisconnected); err != nil {
			return nil, errors.Wrap(err, "failed to persist connector state")
		}
		c.State = database.ConnectorStateDisconnected
	}

	return s.wrapProjected(c, view.ViewFull), nil
}

func (s *service) TestConnector(ctx context.Context, owner *database.Owner, ct database.ConnectorType, id string) (database.ConnectorState, error) {
	c, err := s.getScoped(ctx, owner, ct, id)
	if err != nil {
		return database.ConnectorStateUnspecified, err
	}

	state, err := s.runCheck(ctx, c)
	if err != nil {
		return database.ConnectorStateUnspecified, errors.Wrap(err, "failed to run connectivity check")
	}

	return state, nil
}
