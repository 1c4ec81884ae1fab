package connector

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"

	"github.com/openpipe/connectorhub/internal/database"
	"github.com/openpipe/connectorhub/internal/view"
)

type CreateRequest struct {
	ID                      string          `json:"id"`
	ConnectorDefinitionName string          `json:"connector_definition_name"`
	Description             string          `json:"description"`
	Configuration           json.RawMessage `json:"configuration"`
}

// UpdateRequest carries field-mask semantics: nil means unchanged, a non-nil
// value is applied even when it is the zero value.
type UpdateRequest struct {
	Description   *string         `json:"description"`
	Configuration json.RawMessage `json:"configuration"`
}

type ListRequest struct {
	PageSize      int32
	PageToken     string
	View          view.View
	ConnectorType *database.ConnectorType
}

type ListResult struct {
	Connectors    []*Connector
	NextPageToken string
	TotalSize     int64
}

type WriteResult struct {
	RecordsWritten int  `json:"records_written"`
	Queued         bool `json:"queued"`
}

// C is the interface for the connector service.
type C interface {
	/*
	 * CRUD, scoped to the calling owner
	 */

	CreateConnector(ctx context.Context, owner *database.Owner, ct database.ConnectorType, req *CreateRequest) (*Connector, error)
	GetConnector(ctx context.Context, owner *database.Owner, ct database.ConnectorType, id string, v view.View) (*Connector, error)
	LookUpConnector(ctx context.Context, owner *database.Owner, uid uuid.UUID, v view.View) (*Connector, error)
	ListConnectors(ctx context.Context, owner *database.Owner, req *ListRequest) (*ListResult, error)
	UpdateConnector(ctx context.Context, owner *database.Owner, ct database.ConnectorType, id string, req *UpdateRequest) (*Connector, error)
	RenameConnector(ctx context.Context, owner *database.Owner, ct database.ConnectorType, id string, newID string) (*Connector, error)
	DeleteConnector(ctx context.Context, owner *database.Owner, ct database.ConnectorType, id string) error

	/*
	 * Lifecycle
	 */

	// ConnectConnector runs the connectivity check and persists the resulting
	// state. A failed check settles the connector in the error state; the call
	// itself still succeeds.
	ConnectConnector(ctx context.Context, owner *database.Owner, ct database.ConnectorType, id string) (*Connector, error)

	// DisconnectConnector transitions a connected or already disconnected
	// connector to the disconnected state. Refused while pipelines occupy the
	// connector.
	DisconnectConnector(ctx context.Context, owner *database.Owner, ct database.ConnectorType, id string) (*Connector, error)

	// TestConnector runs the connectivity check without persisting anything and
	// returns the state the connector would settle in.
	TestConnector(ctx context.Context, owner *database.Owner, ct database.ConnectorType, id string) (database.ConnectorState, error)

	/*
	 * Write path
	 */

	WriteDestinationConnector(ctx context.Context, owner *database.Owner, id string, req *WriteRequest) (*WriteResult, error)

	/*
	 * Private surface, for the admin facade only. Not owner scoped.
	 */

	ListConnectorsAdmin(ctx context.Context, req *ListRequest) (*ListResult, error)
	GetConnectorAdmin(ctx context.Context, id string, v view.View) (*Connector, error)
	LookUpConnectorAdmin(ctx context.Context, uid uuid.UUID, v view.View) (*Connector, error)

	/*
	 * Task manager interface functions.
	 */

	RegisterTasks(mux *asynq.ServeMux)
}
