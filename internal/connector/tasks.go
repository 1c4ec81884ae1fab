package connector

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"

	"github.com/openpipe/connectorhub/internal/runtime"
)

const (
	taskTypeCheckConnector = "connector:check"
	taskTypeWriteConnector = "connector:write"
)

type checkConnectorTaskPayload struct {
	ConnectorUid uuid.UUID `json:"connector_uid"`
}

type writeConnectorTaskPayload struct {
	ConnectorUid uuid.UUID        `json:"connector_uid"`
	Batch        []writeTaskRecord `json:"batch"`
}

// writeTaskRecord mirrors runtime.Record with json tags so batches survive the
// queue round trip.
type writeTaskRecord struct {
	Index   string          `json:"index"`
	Task    string          `json:"task"`
	Payload json.RawMessage `json:"payload"`
}

func (s *service) enqueueCheck(ctx context.Context, connectorUid uuid.UUID) error {
	payload, err := json.Marshal(checkConnectorTaskPayload{connectorUid})
	if err != nil {
		return err
	}

	_, err = s.ac.EnqueueContext(ctx, asynq.NewTask(taskTypeCheckConnector, payload))
	return err
}

func (s *service) enqueueWrite(ctx context.Context, connectorUid uuid.UUID, batch []runtime.Record) error {
	records := make([]writeTaskRecord, 0, len(batch))
	for _, r := range batch {
		records = append(records, writeTaskRecord{Index: r.Index, Task: r.Task, Payload: r.Payload})
	}

	payload, err := json.Marshal(writeConnectorTaskPayload{ConnectorUid: connectorUid, Batch: records})
	if err != nil {
		return err
	}

	_, err = s.ac.EnqueueContext(ctx, asynq.NewTask(taskTypeWriteConnector, payload))
	return err
}

func (s *service) RegisterTasks(mux *asynq.ServeMux) {
	mux.HandleFunc(taskTypeCheckConnector, s.checkConnector)
	mux.HandleFunc(taskTypeWriteConnector, s.writeConnector)
}
