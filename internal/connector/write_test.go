package connector

import (
	"encoding/csv"
	"encoding/json"
	"net/http"
	"os"
	"path/filepath"
	"testing"

	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openpipe/connectorhub/internal/database"
)

func validWriteRequest() *WriteRequest {
	return &WriteRequest{
		SyncMode:            SyncModeSync,
		DestinationSyncMode: "append",
		Pipeline:            "pipelines/demo",
		Recipe: &Recipe{
			Source:         "source-connectors/my-src",
			ModelInstances: []string{"models/yolo/instances/v1"},
			Destination:    "destination-connectors/my-csv",
		},
		DataMappingIndices: []string{"turtle", "rabbit"},
		ModelInstanceOutputs: []ModelInstanceOutput{
			{
				ModelInstance: "models/yolo/instances/v1",
				Task:          TaskClassification,
				TaskOutputs: []TaskOutput{
					{Index: "turtle", Classification: json.RawMessage(`{"category":"dog","score":0.98}`)},
					{Index: "rabbit", Classification: json.RawMessage(`{"category":"cat","score":0.91}`)},
				},
			},
		},
	}
}

func TestWriteDestinationConnector(t *testing.T) {
	e := newTestEnv(t)
	dir := t.TempDir()
	e.createCsvConnector(t, "my-csv", dir)

	t.Run("refused before connected", func(t *testing.T) {
		_, err := e.svc.WriteDestinationConnector(e.ctx, e.owner, "my-csv", validWriteRequest())
		requireStatus(t, err, http.StatusPreconditionFailed)
	})

	e.connect(t, database.ConnectorTypeDestination, "my-csv")

	t.Run("sync write lands in the destination", func(t *testing.T) {
		result, err := e.svc.WriteDestinationConnector(e.ctx, e.owner, "my-csv", validWriteRequest())
		require.NoError(t, err)
		assert.Equal(t, 2, result.RecordsWritten)
		assert.False(t, result.Queued)

		f, err := os.Open(filepath.Join(dir, "records.csv"))
		require.NoError(t, err)
		defer f.Close()

		rows, err := csv.NewReader(f).ReadAll()
		require.NoError(t, err)
		require.Len(t, rows, 3)
		assert.Equal(t, "turtle", rows[1][0])
		assert.Equal(t, "TASK_CLASSIFICATION", rows[1][1])
		assert.JSONEq(t, `{"category":"dog","score":0.98}`, rows[1][2])
	})

	t.Run("async write is queued", func(t *testing.T) {
		req := validWriteRequest()
		req.SyncMode = SyncModeAsync

		result, err := e.svc.WriteDestinationConnector(e.ctx, e.owner, "my-csv", req)
		require.NoError(t, err)
		assert.True(t, result.Queued)

		task := e.enqueuer.lastTask(t)
		assert.Equal(t, "connector:write", task.Type())

		var p writeConnectorTaskPayload
		require.NoError(t, json.Unmarshal(task.Payload(), &p))
		assert.Len(t, p.Batch, 2)
		assert.Equal(t, "turtle", p.Batch[0].Index)
	})

	t.Run("source connector reads as missing", func(t *testing.T) {
		_, err := e.svc.CreateConnector(e.ctx, e.owner, database.ConnectorTypeSource, &CreateRequest{
			ID:                      "my-src",
			ConnectorDefinitionName: "source-connector-definitions/source-http",
		})
		require.NoError(t, err)

		_, err = e.svc.WriteDestinationConnector(e.ctx, e.owner, "my-src", validWriteRequest())
		requireStatus(t, err, http.StatusNotFound)
	})

	t.Run("output with no payload rejected", func(t *testing.T) {
		req := validWriteRequest()
		req.ModelInstanceOutputs[0].TaskOutputs[0] = TaskOutput{Index: "turtle"}

		_, err := e.svc.WriteDestinationConnector(e.ctx, e.owner, "my-csv", req)
		requireStatus(t, err, http.StatusBadRequest)
	})

	t.Run("output with two payloads rejected", func(t *testing.T) {
		req := validWriteRequest()
		req.ModelInstanceOutputs[0].TaskOutputs[0].Detection = json.RawMessage(`{"objects":[]}`)

		_, err := e.svc.WriteDestinationConnector(e.ctx, e.owner, "my-csv", req)
		requireStatus(t, err, http.StatusBadRequest)
	})

	t.Run("payload kind must match declared task", func(t *testing.T) {
		req := validWriteRequest()
		req.ModelInstanceOutputs[0].Task = TaskDetection

		_, err := e.svc.WriteDestinationConnector(e.ctx, e.owner, "my-csv", req)
		requireStatus(t, err, http.StatusBadRequest)
	})

	t.Run("empty outputs rejected", func(t *testing.T) {
		req := validWriteRequest()
		req.ModelInstanceOutputs = nil

		_, err := e.svc.WriteDestinationConnector(e.ctx, e.owner, "my-csv", req)
		requireStatus(t, err, http.StatusBadRequest)
	})
}

func TestTaskOutputPayload(t *testing.T) {
	kinds := map[TaskKind]func(*TaskOutput, json.RawMessage){
		TaskClassification:       func(o *TaskOutput, p json.RawMessage) { o.Classification = p },
		TaskDetection:            func(o *TaskOutput, p json.RawMessage) { o.Detection = p },
		TaskKeypoint:             func(o *TaskOutput, p json.RawMessage) { o.Keypoint = p },
		TaskOcr:                  func(o *TaskOutput, p json.RawMessage) { o.Ocr = p },
		TaskInstanceSegmentation: func(o *TaskOutput, p json.RawMessage) { o.InstanceSegmentation = p },
		TaskSemanticSegmentation: func(o *TaskOutput, p json.RawMessage) { o.SemanticSegmentation = p },
		TaskTextToImage:          func(o *TaskOutput, p json.RawMessage) { o.TextToImage = p },
		TaskTextGeneration:       func(o *TaskOutput, p json.RawMessage) { o.TextGeneration = p },
		TaskUnspecified:          func(o *TaskOutput, p json.RawMessage) { o.Unspecified = p },
	}

	for kind, set := range kinds {
		t.Run(string(kind), func(t *testing.T) {
			o := TaskOutput{Index: "turtle"}
			set(&o, json.RawMessage(`{"x":1}`))

			gotKind, payload, err := o.Payload()
			require.NoError(t, err)
			assert.Equal(t, kind, gotKind)
			assert.JSONEq(t, `{"x":1}`, string(payload))
		})
	}

	t.Run("round trips through json", func(t *testing.T) {
		o := TaskOutput{Index: "turtle", TextGeneration: json.RawMessage(`{"text":"hello"}`)}
		data, err := json.Marshal(&o)
		require.NoError(t, err)
		assert.NotContains(t, string(data), "classification")

		var back TaskOutput
		require.NoError(t, json.Unmarshal(data, &back))
		kind, payload, err := back.Payload()
		require.NoError(t, err)
		assert.Equal(t, TaskTextGeneration, kind)
		assert.JSONEq(t, `{"text":"hello"}`, string(payload))
	})
}

func TestCheckConnectorTask(t *testing.T) {
	e := newTestEnv(t)
	svc := e.svc.(*service)

	t.Run("settles connected", func(t *testing.T) {
		created := e.createCsvConnector(t, "my-csv", t.TempDir())
		task := e.enqueuer.lastTask(t)

		require.NoError(t, svc.checkConnector(e.ctx, task))

		stored, err := e.db.GetConnectorByUID(e.ctx, e.owner.UID, created.UID)
		require.NoError(t, err)
		assert.Equal(t, database.ConnectorStateConnected, stored.State)
	})

	t.Run("settles error", func(t *testing.T) {
		parent := filepath.Join(t.TempDir(), "blocker")
		created := e.createCsvConnector(t, "broken", filepath.Join(parent, "out"))
		require.NoError(t, writeBlockerFile(parent))
		task := e.enqueuer.lastTask(t)

		require.NoError(t, svc.checkConnector(e.ctx, task))

		stored, err := e.db.GetConnectorByUID(e.ctx, e.owner.UID, created.UID)
		require.NoError(t, err)
		assert.Equal(t, database.ConnectorStateError, stored.State)
	})

	t.Run("stale check does not undo a later transition", func(t *testing.T) {
		created := e.createCsvConnector(t, "raced", t.TempDir())
		task := e.enqueuer.lastTask(t)

		// The owner connects and disconnects before the queued check runs
		e.connect(t, database.ConnectorTypeDestination, "raced")
		_, err := e.svc.DisconnectConnector(e.ctx, e.owner, database.ConnectorTypeDestination, "raced")
		require.NoError(t, err)

		require.NoError(t, svc.checkConnector(e.ctx, task))

		stored, err := e.db.GetConnectorByUID(e.ctx, e.owner.UID, created.UID)
		require.NoError(t, err)
		assert.Equal(t, database.ConnectorStateDisconnected, stored.State)
	})

	t.Run("connector deleted before check", func(t *testing.T) {
		e.createCsvConnector(t, "doomed", t.TempDir())
		task := e.enqueuer.lastTask(t)

		require.NoError(t, e.svc.DeleteConnector(e.ctx, e.owner, database.ConnectorTypeDestination, "doomed"))
		require.NoError(t, svc.checkConnector(e.ctx, task))
	})

	t.Run("garbage payload does not retry", func(t *testing.T) {
		err := svc.checkConnector(e.ctx, asynq.NewTask("connector:check", []byte("not json")))
		require.Error(t, err)
		assert.ErrorIs(t, err, asynq.SkipRetry)
	})
}

func TestWriteConnectorTask(t *testing.T) {
	e := newTestEnv(t)
	svc := e.svc.(*service)
	dir := t.TempDir()
	e.createCsvConnector(t, "my-csv", dir)
	e.connect(t, database.ConnectorTypeDestination, "my-csv")

	req := validWriteRequest()
	req.SyncMode = SyncModeAsync
	_, err := e.svc.WriteDestinationConnector(e.ctx, e.owner, "my-csv", req)
	require.NoError(t, err)

	require.NoError(t, svc.writeConnector(e.ctx, e.enqueuer.lastTask(t)))

	f, err := os.Open(filepath.Join(dir, "records.csv"))
	require.NoError(t, err)
	defer f.Close()

	rows, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	assert.Len(t, rows, 3)
}
