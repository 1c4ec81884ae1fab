package public

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openpipe/connectorhub/internal/aplog"
	"github.com/openpipe/connectorhub/internal/auth"
	"github.com/openpipe/connectorhub/internal/connector"
	"github.com/openpipe/connectorhub/internal/database"
	"github.com/openpipe/connectorhub/internal/definition"
	"github.com/openpipe/connectorhub/internal/pipeline"
	"github.com/openpipe/connectorhub/internal/runtime"
	"github.com/openpipe/connectorhub/internal/service"
)

type fakeEnqueuer struct{}

func (f *fakeEnqueuer) EnqueueContext(_ context.Context, t *asynq.Task, _ ...asynq.Option) (*asynq.TaskInfo, error) {
	return &asynq.TaskInfo{ID: "queued", Type: t.Type()}, nil
}

type testServer struct {
	router   *gin.Engine
	db       database.DB
	pipeline *pipeline.Fake
	token    string
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	cfg, db := database.MustApplyBlankTestDbConfig(t, nil)

	defs, err := definition.New(cfg.GetRoot().SystemAuth.GlobalAESKey)
	require.NoError(t, err)

	pipelineFake := pipeline.NewFake()
	logger := aplog.NewNop()

	connectors := connector.NewConnectorsService(
		cfg, db, defs, runtime.NewRegistry(logger), pipelineFake, &fakeEnqueuer{}, logger)

	deps := &service.Deps{
		Cfg:         cfg,
		Logger:      logger,
		DB:          db,
		Definitions: defs,
		Pipeline:    pipelineFake,
		Connectors:  connectors,
		Gate:        auth.NewGate(cfg, db),
	}

	owner := &database.Owner{UID: uuid.New(), Subject: "user-123", ID: "users/user-123"}
	require.NoError(t, db.CreateOwner(context.Background(), owner))

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{Subject: "user-123"}).
		SignedString([]byte("test"))
	require.NoError(t, err)

	return &testServer{
		router:   GetGinServer(deps),
		db:       db,
		pipeline: pipelineFake,
		token:    token,
	}
}

func (s *testServer) do(t *testing.T, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var reader *strings.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = strings.NewReader(string(data))
	} else {
		reader = strings.NewReader("")
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Authorization", "Bearer "+s.token)
	req.Header.Set("Content-Type", "application/json")

	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), v))
}

func createCsvBody(id string, dir string) map[string]interface{} {
	return map[string]interface{}{
		"id":                        id,
		"connector_definition_name": "destination-connector-definitions/destination-csv",
		"description":               "csv out",
		"configuration":             map[string]interface{}{"destination_path": dir},
	}
}

func TestAuthBoundary(t *testing.T) {
	s := newTestServer(t)

	t.Run("missing token", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/v1alpha/connectors", nil)
		w := httptest.NewRecorder()
		s.router.ServeHTTP(w, req)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Contains(t, w.Body.String(), "error")
	})

	t.Run("unknown principal rejected uniformly", func(t *testing.T) {
		token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{Subject: "nobody"}).
			SignedString([]byte("test"))
		require.NoError(t, err)

		req := httptest.NewRequest(http.MethodGet, "/v1alpha/connectors", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		w := httptest.NewRecorder()
		s.router.ServeHTTP(w, req)
		assert.Equal(t, http.StatusNotFound, w.Code)

		var body map[string]string
		decodeBody(t, w, &body)
		assert.Equal(t, "resource not found", body["error"])
	})

	t.Run("health endpoints are open", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
		w := httptest.NewRecorder()
		s.router.ServeHTTP(w, req)
		assert.Equal(t, http.StatusOK, w.Code)
	})
}

func TestConnectorCrudOverHttp(t *testing.T) {
	s := newTestServer(t)
	dir := t.TempDir()

	var created connector.Connector

	t.Run("create", func(t *testing.T) {
		w := s.do(t, http.MethodPost, "/v1alpha/destination-connectors", createCsvBody("my-csv", dir))
		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

		decodeBody(t, w, &created)
		assert.Equal(t, "my-csv", created.ID)
		assert.Equal(t, "destination-connectors/my-csv", created.Name)
		assert.Equal(t, database.ConnectorStateUnspecified, created.State)
		assert.NotEmpty(t, created.Configuration)
	})

	t.Run("duplicate create conflicts", func(t *testing.T) {
		w := s.do(t, http.MethodPost, "/v1alpha/destination-connectors", createCsvBody("my-csv", dir))
		assert.Equal(t, http.StatusConflict, w.Code)
		assert.Contains(t, w.Body.String(), "already exists")
	})

	t.Run("get basic view strips configuration", func(t *testing.T) {
		w := s.do(t, http.MethodGet, "/v1alpha/destination-connectors/my-csv", nil)
		require.Equal(t, http.StatusOK, w.Code)

		var c connector.Connector
		decodeBody(t, w, &c)
		assert.Nil(t, c.Configuration)

		w = s.do(t, http.MethodGet, "/v1alpha/destination-connectors/my-csv?view=VIEW_FULL", nil)
		require.Equal(t, http.StatusOK, w.Code)
		decodeBody(t, w, &c)
		assert.NotEmpty(t, c.Configuration)
	})

	t.Run("look up by uid", func(t *testing.T) {
		w := s.do(t, http.MethodGet, fmt.Sprintf("/v1alpha/destination-connectors/%s/lookUp", created.UID), nil)
		require.Equal(t, http.StatusOK, w.Code)

		var c connector.Connector
		decodeBody(t, w, &c)
		assert.Equal(t, "my-csv", c.ID)

		w = s.do(t, http.MethodGet, "/v1alpha/destination-connectors/not-a-uuid/lookUp", nil)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("update with explicit empty description", func(t *testing.T) {
		w := s.do(t, http.MethodPatch, "/v1alpha/destination-connectors/my-csv", map[string]interface{}{
			"description": "",
		})
		require.Equal(t, http.StatusOK, w.Code)

		var c connector.Connector
		decodeBody(t, w, &c)
		assert.Equal(t, "", c.Description)
	})

	t.Run("rename", func(t *testing.T) {
		w := s.do(t, http.MethodPost, "/v1alpha/destination-connectors/my-csv/rename", map[string]interface{}{
			"new_connector_id": "renamed-csv",
		})
		require.Equal(t, http.StatusOK, w.Code)

		var c connector.Connector
		decodeBody(t, w, &c)
		assert.Equal(t, "renamed-csv", c.ID)
	})

	t.Run("delete occupied then freed", func(t *testing.T) {
		s.pipeline.Occupied[created.UID] = true

		w := s.do(t, http.MethodDelete, "/v1alpha/destination-connectors/renamed-csv", nil)
		assert.Equal(t, http.StatusPreconditionFailed, w.Code)

		var body map[string]string
		decodeBody(t, w, &body)
		assert.NotEmpty(t, body["error"])

		delete(s.pipeline.Occupied, created.UID)
		w = s.do(t, http.MethodDelete, "/v1alpha/destination-connectors/renamed-csv", nil)
		assert.Equal(t, http.StatusNoContent, w.Code)

		w = s.do(t, http.MethodGet, "/v1alpha/destination-connectors/renamed-csv", nil)
		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}

func TestConnectorLifecycleOverHttp(t *testing.T) {
	s := newTestServer(t)
	dir := t.TempDir()

	w := s.do(t, http.MethodPost, "/v1alpha/destination-connectors", createCsvBody("my-csv", dir))
	require.Equal(t, http.StatusCreated, w.Code)

	t.Run("test connection does not persist", func(t *testing.T) {
		w := s.do(t, http.MethodPost, "/v1alpha/destination-connectors/my-csv/testConnection", nil)
		require.Equal(t, http.StatusOK, w.Code)

		var body map[string]string
		decodeBody(t, w, &body)
		assert.Equal(t, "STATE_CONNECTED", body["state"])

		var c connector.Connector
		w = s.do(t, http.MethodGet, "/v1alpha/destination-connectors/my-csv", nil)
		decodeBody(t, w, &c)
		assert.Equal(t, database.ConnectorStateUnspecified, c.State)
	})

	t.Run("connect then write then disconnect", func(t *testing.T) {
		w := s.do(t, http.MethodPost, "/v1alpha/destination-connectors/my-csv/connect", nil)
		require.Equal(t, http.StatusOK, w.Code)

		var c connector.Connector
		decodeBody(t, w, &c)
		assert.Equal(t, database.ConnectorStateConnected, c.State)

		w = s.do(t, http.MethodPost, "/v1alpha/destination-connectors/my-csv/write", map[string]interface{}{
			"sync_mode":            "sync",
			"data_mapping_indices": []string{"turtle"},
			"model_instance_outputs": []map[string]interface{}{
				{
					"model_instance": "models/yolo/instances/v1",
					"task":           "TASK_CLASSIFICATION",
					"task_outputs": []map[string]interface{}{
						{"index": "turtle", "classification": map[string]interface{}{"category": "dog"}},
					},
				},
			},
		})
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())

		var result connector.WriteResult
		decodeBody(t, w, &result)
		assert.Equal(t, 1, result.RecordsWritten)

		w = s.do(t, http.MethodPost, "/v1alpha/destination-connectors/my-csv/disconnect", nil)
		require.Equal(t, http.StatusOK, w.Code)
		decodeBody(t, w, &c)
		assert.Equal(t, database.ConnectorStateDisconnected, c.State)
	})

	t.Run("write refused when disconnected", func(t *testing.T) {
		w := s.do(t, http.MethodPost, "/v1alpha/destination-connectors/my-csv/write", map[string]interface{}{
			"sync_mode":              "sync",
			"model_instance_outputs": []map[string]interface{}{},
		})
		assert.Equal(t, http.StatusPreconditionFailed, w.Code)
	})
}

func TestListConnectorsOverHttp(t *testing.T) {
	s := newTestServer(t)

	for i := 0; i < 3; i++ {
		w := s.do(t, http.MethodPost, "/v1alpha/destination-connectors", createCsvBody(fmt.Sprintf("dest-%d", i), t.TempDir()))
		require.Equal(t, http.StatusCreated, w.Code)
	}
	// The unified surface derives the namespace from the definition name
	w := s.do(t, http.MethodPost, "/v1alpha/connectors", map[string]interface{}{
		"id":                        "src-0",
		"connector_definition_name": "source-connector-definitions/source-http",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var unified connector.Connector
	decodeBody(t, w, &unified)
	require.Equal(t, "source-connectors/src-0", unified.Name)

	w = s.do(t, http.MethodPost, "/v1alpha/connectors", map[string]interface{}{
		"id":                        "bad-def",
		"connector_definition_name": "not-a-collection/source-http",
	})
	require.Equal(t, http.StatusBadRequest, w.Code)

	type listResponse struct {
		Connectors    []*connector.Connector `json:"connectors"`
		NextPageToken string                 `json:"next_page_token"`
		TotalSize     int64                  `json:"total_size"`
	}

	t.Run("unbounded page size returns everything", func(t *testing.T) {
		w := s.do(t, http.MethodGet, "/v1alpha/connectors", nil)
		require.Equal(t, http.StatusOK, w.Code)

		var resp listResponse
		decodeBody(t, w, &resp)
		assert.Len(t, resp.Connectors, 4)
		assert.Empty(t, resp.NextPageToken)
		assert.EqualValues(t, 4, resp.TotalSize)
	})

	t.Run("page size one walks the whole set", func(t *testing.T) {
		seen := map[string]bool{}
		path := "/v1alpha/connectors?page_size=1"

		for {
			w := s.do(t, http.MethodGet, path, nil)
			require.Equal(t, http.StatusOK, w.Code)

			var resp listResponse
			decodeBody(t, w, &resp)
			require.Len(t, resp.Connectors, 1)
			assert.EqualValues(t, 4, resp.TotalSize)

			id := resp.Connectors[0].ID
			require.False(t, seen[id])
			seen[id] = true

			if resp.NextPageToken == "" {
				break
			}
			path = "/v1alpha/connectors?page_token=" + resp.NextPageToken
		}

		assert.Len(t, seen, 4)
	})

	t.Run("namespaced listings are scoped", func(t *testing.T) {
		w := s.do(t, http.MethodGet, "/v1alpha/source-connectors", nil)
		require.Equal(t, http.StatusOK, w.Code)

		var resp listResponse
		decodeBody(t, w, &resp)
		require.Len(t, resp.Connectors, 1)
		assert.Equal(t, "src-0", resp.Connectors[0].ID)
	})

	t.Run("unified filter by connector type", func(t *testing.T) {
		w := s.do(t, http.MethodGet, "/v1alpha/connectors?filter=connector_type%3DCONNECTOR_TYPE_DESTINATION", nil)
		require.Equal(t, http.StatusOK, w.Code)

		var resp listResponse
		decodeBody(t, w, &resp)
		assert.Len(t, resp.Connectors, 3)

		w = s.do(t, http.MethodGet, "/v1alpha/connectors?filter=bogus", nil)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("bad page token", func(t *testing.T) {
		w := s.do(t, http.MethodGet, "/v1alpha/connectors?page_token=garbage", nil)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("token is bound to the issuing owner", func(t *testing.T) {
		w := s.do(t, http.MethodGet, "/v1alpha/connectors?page_size=2", nil)
		require.Equal(t, http.StatusOK, w.Code)

		var resp listResponse
		decodeBody(t, w, &resp)
		require.NotEmpty(t, resp.NextPageToken)

		other := &database.Owner{UID: uuid.New(), Subject: "other", ID: "users/other"}
		require.NoError(t, s.db.CreateOwner(context.Background(), other))

		otherToken, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{Subject: "other"}).
			SignedString([]byte("test"))
		require.NoError(t, err)

		req := httptest.NewRequest(http.MethodGet, "/v1alpha/connectors?page_token="+resp.NextPageToken, nil)
		req.Header.Set("Authorization", "Bearer "+otherToken)
		rec := httptest.NewRecorder()
		s.router.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusNotFound, rec.Code)

		var body map[string]string
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		assert.Equal(t, "resource not found", body["error"])
	})
}

func TestDefinitionsOverHttp(t *testing.T) {
	s := newTestServer(t)

	t.Run("list destination definitions", func(t *testing.T) {
		w := s.do(t, http.MethodGet, "/v1alpha/destination-connector-definitions", nil)
		require.Equal(t, http.StatusOK, w.Code)

		var resp struct {
			Definitions   []*definition.Definition `json:"connector_definitions"`
			NextPageToken string                   `json:"next_page_token"`
			TotalSize     int64                    `json:"total_size"`
		}
		decodeBody(t, w, &resp)
		assert.Len(t, resp.Definitions, 4)
		assert.EqualValues(t, 4, resp.TotalSize)

		// Basic view strips the spec document
		for _, d := range resp.Definitions {
			assert.Empty(t, d.Spec)
		}
	})

	t.Run("get full view includes spec", func(t *testing.T) {
		w := s.do(t, http.MethodGet, "/v1alpha/destination-connector-definitions/destination-csv?view=VIEW_FULL", nil)
		require.Equal(t, http.StatusOK, w.Code)

		var d definition.Definition
		decodeBody(t, w, &d)
		assert.Equal(t, "destination-csv", d.ID)
		assert.NotEmpty(t, d.Spec)

		var raw map[string]interface{}
		decodeBody(t, w, &raw)
		assert.Equal(t, "destination-connector-definitions/destination-csv", raw["name"])
	})

	t.Run("unknown definition", func(t *testing.T) {
		w := s.do(t, http.MethodGet, "/v1alpha/destination-connector-definitions/destination-bogus", nil)
		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}
