package database

import (
	"context"

	"github.com/google/uuid"
)

// DB is the interface for the resource store. Operations on a given (owner, id) pair are linearizable
// with respect to each other; sqlite serializes writers and every mutation is a single transaction.
type DB interface {
	Migrate(ctx context.Context) error
	Ping(ctx context.Context) bool

	/*
	 * Owners
	 */

	CreateOwner(ctx context.Context, o *Owner) error
	GetOwnerBySubject(ctx context.Context, subject string) (*Owner, error)
	GetOwnerByUID(ctx context.Context, uid uuid.UUID) (*Owner, error)

	/*
	 * Connectors
	 */

	CreateConnector(ctx context.Context, c *Connector) error
	GetConnector(ctx context.Context, ownerUID uuid.UUID, id string) (*Connector, error)
	GetConnectorByUID(ctx context.Context, ownerUID uuid.UUID, uid uuid.UUID) (*Connector, error)
	UpdateConnectorFields(ctx context.Context, ownerUID uuid.UUID, id string, fields map[string]interface{}) (*Connector, error)
	RenameConnector(ctx context.Context, ownerUID uuid.UUID, id string, newID string) (*Connector, error)
	DeleteConnector(ctx context.Context, ownerUID uuid.UUID, id string) error
	SetConnectorState(ctx context.Context, uid uuid.UUID, state ConnectorState) error
	SettleConnectorState(ctx context.Context, uid uuid.UUID, from ConnectorState, to ConnectorState) (bool, error)
	ListConnectorsBuilder() ListConnectorsBuilder
	ListConnectorsFromCursor(ctx context.Context, cursor string) (ListConnectorsExecutor, error)

	/*
	 * Private surface. These bypass owner scoping and must not be reachable from tenant-facing paths.
	 */

	GetConnectorAdmin(ctx context.Context, id string) (*Connector, error)
	LookUpConnectorAdmin(ctx context.Context, uid uuid.UUID) (*Connector, error)
}
