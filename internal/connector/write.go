package connector

import (
	"context"

	"github.com/pkg/errors"

	"github.com/openpipe/connectorhub/internal/api_common"
	"github.com/openpipe/connectorhub/internal/aplog"
	"github.com/openpipe/connectorhub/internal/database"
	"github.com/openpipe/connectorhub/internal/runtime"
)

// flattenOutputs turns the nested model-instance outputs into the flat record
// batch destinations consume.
func flattenOutputs(req *WriteRequest) ([]runtime.Record, error) {
	var batch []runtime.Record

	for _, mio := range req.ModelInstanceOutputs {
		for i := range mio.TaskOutputs {
			kind, payload, err := mio.TaskOutputs[i].Payload()
			if err != nil {
				return nil, err
			}

			batch = append(batch, runtime.Record{
				Index:   mio.TaskOutputs[i].Index,
				Task:    string(kind),
				Payload: payload,
			})
		}
	}

	return batch, nil
}

func (s *service) WriteDestinationConnector(
	ctx context.Context,
	owner *database.Owner,
	id string,
	req *WriteRequest,
) (*WriteResult, error) {
	c, err := s.getScoped(ctx, owner, database.ConnectorTypeDestination, id)
	if err != nil {
		return nil, err
	}

	if c.State != database.ConnectorStateConnected {
		return nil, api_common.NewHttpStatusErrorBuilder().
			WithStatusPreconditionFailed().
			WithResponseMsgf("connector %q is not connected (state %s)", id, c.State).
			Build()
	}

	if err := req.Validate(); err != nil {
		return nil, api_common.NewHttpStatusErrorBuilder().
			WithStatusBadRequest().
			WithResponseMsg(err.Error()).
			Build()
	}

	batch, err := flattenOutputs(req)
	if err != nil {
		return nil, api_common.NewHttpStatusErrorBuilder().
			WithStatusBadRequest().
			WithResponseMsg(err.Error()).
			Build()
	}

	logger := aplog.NewBuilder(s.logger).
		WithOwner(owner.ID).
		WithConnectorUid(c.UID).
		Build()

	if req.SyncMode == SyncModeAsync {
		if err := s.enqueueWrite(ctx, c.UID, batch); err != nil {
			return nil, errors.Wrap(err, "failed to queue write")
		}

		logger.Info("queued destination write", "records", len(batch))
		return &WriteResult{RecordsWritten: len(batch), Queued: true}, nil
	}

	def := s.definitionFor(c)
	if def == nil {
		return nil, errors.New("connector references unknown definition")
	}

	dest, err := s.runtimes.DestinationForDefinition(def.ID)
	if err != nil {
		return nil, errors.Wrap(err, "failed to resolve destination runtime")
	}

	if err := dest.Write(ctx, []byte(c.Configuration), batch); err != nil {
		return nil, errors.Wrap(err, "failed to write batch to destination")
	}

	logger.Info("wrote batch to destination", "records", len(batch))
	return &WriteResult{RecordsWritten: len(batch)}, nil
}
