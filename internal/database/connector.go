package database

import (
	"context"
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/hashicorp/go-multierror"
	"github.com/pkg/errors"
	"gorm.io/gorm"

	"github.com/openpipe/connectorhub/internal/apctx"
	"github.com/openpipe/connectorhub/internal/util"
	"github.com/openpipe/connectorhub/internal/util/pagination"
)

type ConnectorState string

// Value implements the driver.Valuer interface for ConnectorState
func (s ConnectorState) Value() (driver.Value, error) {
	return string(s), nil
}

// Scan implements the sql.Scanner interface for ConnectorState
func (s *ConnectorState) Scan(value interface{}) error {
	if value == nil {
		*s = ""
		return nil
	}

	strVal, ok := value.(string)
	if !ok {
		return fmt.Errorf("cannot convert %T to ConnectorState", value)
	}

	*s = ConnectorState(strVal)
	return nil
}

const (
	// ConnectorStateUnspecified is the state at creation, before the initial connection check settles.
	ConnectorStateUnspecified ConnectorState = "STATE_UNSPECIFIED"

	// ConnectorStateConnected means the last connection check against the connector's runtime succeeded.
	ConnectorStateConnected ConnectorState = "STATE_CONNECTED"

	// ConnectorStateDisconnected means the connector was explicitly disconnected.
	ConnectorStateDisconnected ConnectorState = "STATE_DISCONNECTED"

	// ConnectorStateError means the last connection check failed. The check failure is captured here
	// rather than surfaced as a call error.
	ConnectorStateError ConnectorState = "STATE_ERROR"
)

func IsValidConnectorState(s ConnectorState) bool {
	switch s {
	case ConnectorStateUnspecified,
		ConnectorStateConnected,
		ConnectorStateDisconnected,
		ConnectorStateError:
		return true
	default:
		return false
	}
}

type ConnectorType string

// Value implements the driver.Valuer interface for ConnectorType
func (t ConnectorType) Value() (driver.Value, error) {
	return string(t), nil
}

// Scan implements the sql.Scanner interface for ConnectorType
func (t *ConnectorType) Scan(value interface{}) error {
	if value == nil {
		*t = ""
		return nil
	}

	strVal, ok := value.(string)
	if !ok {
		return fmt.Errorf("cannot convert %T to ConnectorType", value)
	}

	*t = ConnectorType(strVal)
	return nil
}

const (
	ConnectorTypeSource      ConnectorType = "CONNECTOR_TYPE_SOURCE"
	ConnectorTypeDestination ConnectorType = "CONNECTOR_TYPE_DESTINATION"
)

func IsValidConnectorType(t ConnectorType) bool {
	return t == ConnectorTypeSource || t == ConnectorTypeDestination
}

// ConfigurationJSON holds the connector configuration document as raw JSON.
type ConfigurationJSON json.RawMessage

// Value implements the driver.Valuer interface for ConfigurationJSON
func (c ConfigurationJSON) Value() (driver.Value, error) {
	if len(c) == 0 {
		return nil, nil
	}

	return string(c), nil
}

// Scan implements the sql.Scanner interface for ConfigurationJSON
func (c *ConfigurationJSON) Scan(value interface{}) error {
	if value == nil {
		*c = nil
		return nil
	}

	switch v := value.(type) {
	case string:
		*c = ConfigurationJSON(v)
	case []byte:
		*c = ConfigurationJSON(append([]byte(nil), v...))
	default:
		return fmt.Errorf("cannot convert %T to ConfigurationJSON", value)
	}

	return nil
}

func (c ConfigurationJSON) MarshalJSON() ([]byte, error) {
	if len(c) == 0 {
		return []byte("null"), nil
	}

	return c, nil
}

func (c *ConfigurationJSON) UnmarshalJSON(data []byte) error {
	*c = ConfigurationJSON(append([]byte(nil), data...))
	return nil
}

// Connector is a tenant-owned instance of a connector definition. The UID is immutable and globally
// unique; the ID is unique per owner and may change via rename.
type Connector struct {
	UID           uuid.UUID         `gorm:"column:uid;primaryKey"`
	ID            string            `gorm:"column:id;index:idx_connectors_owner_id"`
	OwnerUID      uuid.UUID         `gorm:"column:owner_uid;index:idx_connectors_owner_id"`
	ConnectorType ConnectorType     `gorm:"column:connector_type"`
	DefinitionUID uuid.UUID         `gorm:"column:definition_uid"`
	Description   string            `gorm:"column:description"`
	Configuration ConfigurationJSON `gorm:"column:configuration"`
	Tombstone     bool              `gorm:"column:tombstone"`
	State         ConnectorState    `gorm:"column:state"`
	CreatedAt     time.Time         `gorm:"column:created_at"`
	UpdatedAt     time.Time         `gorm:"column:updated_at"`
	DeletedAt     gorm.DeletedAt    `gorm:"column:deleted_at;index"`
}

func (Connector) TableName() string {
	return "connectors"
}

func (c *Connector) Validate() error {
	result := &multierror.Error{}

	if c.UID == uuid.Nil {
		result = multierror.Append(result, errors.New("uid is required"))
	}

	if c.ID == "" {
		result = multierror.Append(result, errors.New("id is required"))
	}

	if c.OwnerUID == uuid.Nil {
		result = multierror.Append(result, errors.New("owner is required"))
	}

	if !IsValidConnectorType(c.ConnectorType) {
		result = multierror.Append(result, errors.New("invalid connector type"))
	}

	if c.DefinitionUID == uuid.Nil {
		result = multierror.Append(result, errors.New("connector definition is required"))
	}

	if !IsValidConnectorState(c.State) {
		result = multierror.Append(result, errors.New("invalid connector state"))
	}

	return result.ErrorOrNil()
}

// CreateConnector inserts the connector. Uniqueness of (owner, id) is enforced against live records, so
// an id can be reused after the previous holder was deleted.
func (db *gormDB) CreateConnector(ctx context.Context, c *Connector) error {
	if c == nil {
		return errors.New("connector is nil")
	}

	if validationErr := c.Validate(); validationErr != nil {
		return validationErr
	}

	return db.gorm.Transaction(func(tx *gorm.DB) error {
		sqlDb, err := tx.DB()
		if err != nil {
			return err
		}

		sqb := sq.StatementBuilder.RunWith(sqlDb)

		var count int64
		err = sqb.
			Select("COUNT(*)").
			From("connectors").
			Where(sq.Eq{"owner_uid": c.OwnerUID, "id": c.ID}).
			Where("deleted_at IS NULL").
			QueryRowContext(ctx).
			Scan(&count)
		if err != nil {
			return err
		}

		if count > 0 {
			return ErrDuplicate
		}

		now := apctx.GetClock(ctx).Now().UTC()
		c.CreatedAt = now
		c.UpdatedAt = now

		configuration, err := c.Configuration.Value()
		if err != nil {
			return err
		}

		_, err = sqb.Insert("connectors").
			Columns(
				"uid",
				"id",
				"owner_uid",
				"connector_type",
				"definition_uid",
				"description",
				"configuration",
				"tombstone",
				"state",
				"created_at",
				"updated_at",
			).
			Values(
				c.UID,
				c.ID,
				c.OwnerUID,
				c.ConnectorType,
				c.DefinitionUID,
				c.Description,
				configuration,
				c.Tombstone,
				c.State,
				c.CreatedAt,
				c.UpdatedAt,
			).
			ExecContext(ctx)

		return err
	})
}

func (db *gormDB) GetConnector(ctx context.Context, ownerUID uuid.UUID, id string) (*Connector, error) {
	sess := db.session(ctx)

	var c Connector
	result := sess.First(&c, "owner_uid = ? AND id = ?", ownerUID, id)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, result.Error
	}

	return &c, nil
}

func (db *gormDB) GetConnectorByUID(ctx context.Context, ownerUID uuid.UUID, uid uuid.UUID) (*Connector, error) {
	sess := db.session(ctx)

	var c Connector
	result := sess.First(&c, "owner_uid = ? AND uid = ?", ownerUID, uid)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, result.Error
	}

	return &c, nil
}

// GetConnectorAdmin resolves a connector by id across all owners. Reserved for the private surface.
func (db *gormDB) GetConnectorAdmin(ctx context.Context, id string) (*Connector, error) {
	sess := db.session(ctx)

	var c Connector
	result := sess.First(&c, "id = ?", id)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, result.Error
	}

	return &c, nil
}

// LookUpConnectorAdmin resolves a connector by its immutable UID across all owners. Reserved for the
// private surface and internal callers such as the background check task.
func (db *gormDB) LookUpConnectorAdmin(ctx context.Context, uid uuid.UUID) (*Connector, error) {
	sess := db.session(ctx)

	var c Connector
	result := sess.First(&c, "uid = ?", uid)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, result.Error
	}

	return &c, nil
}

// UpdateConnectorFields applies the passed column values to the addressed connector. Callers are
// responsible for restricting columns to mutable fields; an explicit empty value overwrites.
func (db *gormDB) UpdateConnectorFields(
	ctx context.Context,
	ownerUID uuid.UUID,
	id string,
	fields map[string]interface{},
) (*Connector, error) {
	if len(fields) == 0 {
		return db.GetConnector(ctx, ownerUID, id)
	}

	q := db.gorm.WithContext(ctx)
	sqlDb, err := q.DB()
	if err != nil {
		return nil, err
	}

	update := sq.StatementBuilder.RunWith(sqlDb).Update("connectors")
	for column, value := range fields {
		update = update.Set(column, value)
	}

	result, err := update.
		Set("updated_at", apctx.GetClock(ctx).Now().UTC()).
		Where(sq.Eq{"owner_uid": ownerUID, "id": id}).
		Where("deleted_at IS NULL").
		ExecContext(ctx)
	if err != nil {
		return nil, err
	}

	count, err := result.RowsAffected()
	if err != nil {
		return nil, err
	}

	if count == 0 {
		return nil, ErrNotFound
	}

	return db.GetConnector(ctx, ownerUID, id)
}

// RenameConnector changes the connector's id, the only mutable identity field.
func (db *gormDB) RenameConnector(ctx context.Context, ownerUID uuid.UUID, id string, newID string) (*Connector, error) {
	if newID == "" {
		return nil, errors.New("new id is required")
	}

	err := db.gorm.Transaction(func(tx *gorm.DB) error {
		sqlDb, err := tx.DB()
		if err != nil {
			return err
		}

		sqb := sq.StatementBuilder.RunWith(sqlDb)

		var count int64
		err = sqb.
			Select("COUNT(*)").
			From("connectors").
			Where(sq.Eq{"owner_uid": ownerUID, "id": newID}).
			Where("deleted_at IS NULL").
			QueryRowContext(ctx).
			Scan(&count)
		if err != nil {
			return err
		}

		if count > 0 {
			return ErrDuplicate
		}

		result, err := sqb.Update("connectors").
			Set("id", newID).
			Set("updated_at", apctx.GetClock(ctx).Now().UTC()).
			Where(sq.Eq{"owner_uid": ownerUID, "id": id}).
			Where("deleted_at IS NULL").
			ExecContext(ctx)
		if err != nil {
			return err
		}

		rows, err := result.RowsAffected()
		if err != nil {
			return err
		}

		if rows == 0 {
			return ErrNotFound
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	return db.GetConnector(ctx, ownerUID, newID)
}

// DeleteConnector soft deletes the connector. The UID is never reused.
func (db *gormDB) DeleteConnector(ctx context.Context, ownerUID uuid.UUID, id string) error {
	sess := db.session(ctx)

	result := sess.Where("owner_uid = ? AND id = ?", ownerUID, id).Delete(&Connector{})
	if result.Error != nil {
		return result.Error
	}

	if result.RowsAffected == 0 {
		return ErrNotFound
	}

	return nil
}

// SetConnectorState records a lifecycle transition by UID. Used by the lifecycle operations and the
// background settlement task, which address connectors by their immutable identifier.
func (db *gormDB) SetConnectorState(ctx context.Context, uid uuid.UUID, state ConnectorState) error {
	if !IsValidConnectorState(state) {
		return errors.Errorf("invalid connector state '%s'", state)
	}

	sess := db.session(ctx)

	result := sess.Model(&Connector{}).
		Where("uid = ?", uid).
		Updates(map[string]interface{}{
			"state":      state,
			"updated_at": apctx.GetClock(ctx).Now().UTC(),
		})
	if result.Error != nil {
		return result.Error
	}

	if result.RowsAffected == 0 {
		return ErrNotFound
	}

	return nil
}

// SettleConnectorState transitions a connector from an expected state to a new state. It reports false
// without error when the connector is missing or has already moved on from the expected state, so a
// stale background settlement never overwrites a transition the owner made in the meantime.
func (db *gormDB) SettleConnectorState(ctx context.Context, uid uuid.UUID, from ConnectorState, to ConnectorState) (bool, error) {
	if !IsValidConnectorState(to) {
		return false, errors.Errorf("invalid connector state '%s'", to)
	}

	sess := db.session(ctx)

	result := sess.Model(&Connector{}).
		Where("uid = ? AND state = ?", uid, from).
		Updates(map[string]interface{}{
			"state":      to,
			"updated_at": apctx.GetClock(ctx).Now().UTC(),
		})
	if result.Error != nil {
		return false, result.Error
	}

	return result.RowsAffected > 0, nil
}

type ListConnectorsExecutor interface {
	FetchPage(context.Context) pagination.PageResult[Connector]
	Enumerate(context.Context, func(pagination.PageResult[Connector]) (keepGoing bool, err error)) error

	// OwnerScope returns the owner filter the listing carries, if any. Callers resuming a cursor
	// must check it against the requesting owner so one tenant cannot replay another tenant's token.
	OwnerScope() *uuid.UUID
}

type ListConnectorsBuilder interface {
	ListConnectorsExecutor

	// Limit caps the page size. Zero or negative returns everything remaining in a single page.
	Limit(int32) ListConnectorsBuilder
	ForOwner(uuid.UUID) ListConnectorsBuilder
	ForConnectorType(ConnectorType) ListConnectorsBuilder
	IncludeTombstoned() ListConnectorsBuilder
}

// listConnectorsFilters is the serialized form of a listing, including the keyset position. It round
// trips through the encrypted page cursor, so a resumed listing carries its filters with it. Ordering
// is fixed at (created_at, uid) ascending, which keeps cursors valid under append-only inserts.
type listConnectorsFilters struct {
	db                   *gormDB         `json:"-"`
	LimitVal             int32           `json:"limit"`
	OwnerVal             *uuid.UUID      `json:"owner,omitempty"`
	TypesVal             []ConnectorType `json:"types,omitempty"`
	IncludeTombstonedVal bool            `json:"include_tombstoned,omitempty"`
	AfterCreatedAt       *time.Time      `json:"after_created_at,omitempty"`
	AfterUID             *uuid.UUID      `json:"after_uid,omitempty"`
}

func (l *listConnectorsFilters) Limit(limit int32) ListConnectorsBuilder {
	l.LimitVal = limit
	return l
}

func (l *listConnectorsFilters) ForOwner(ownerUID uuid.UUID) ListConnectorsBuilder {
	l.OwnerVal = &ownerUID
	return l
}

func (l *listConnectorsFilters) ForConnectorType(t ConnectorType) ListConnectorsBuilder {
	l.TypesVal = []ConnectorType{t}
	return l
}

func (l *listConnectorsFilters) IncludeTombstoned() ListConnectorsBuilder {
	l.IncludeTombstonedVal = true
	return l
}

func (l *listConnectorsFilters) OwnerScope() *uuid.UUID {
	return l.OwnerVal
}

func (l *listConnectorsFilters) FromCursor(ctx context.Context, cursor string) (ListConnectorsExecutor, error) {
	db := l.db
	parsed, err := pagination.ParseCursor[listConnectorsFilters](ctx, db.secretKey, cursor)

	if err != nil {
		return nil, err
	}

	*l = *parsed
	l.db = db

	return l, nil
}

func (l *listConnectorsFilters) conditions(query sq.SelectBuilder) sq.SelectBuilder {
	query = query.Where("deleted_at IS NULL")

	if l.OwnerVal != nil {
		query = query.Where(sq.Eq{"owner_uid": *l.OwnerVal})
	}

	if len(l.TypesVal) > 0 {
		query = query.Where(sq.Eq{"connector_type": l.TypesVal})
	}

	if !l.IncludeTombstonedVal {
		query = query.Where(sq.Eq{"tombstone": false})
	}

	return query
}

func (l *listConnectorsFilters) fetchPage(ctx context.Context) pagination.PageResult[Connector] {
	q := l.db.session(ctx)

	countQuery := l.conditions(sq.Select("COUNT(*)").From("connectors"))

	query := l.conditions(sq.Select(
		"uid",
		"id",
		"owner_uid",
		"connector_type",
		"definition_uid",
		"description",
		"configuration",
		"tombstone",
		"state",
		"created_at",
		"updated_at",
	).From("connectors")).
		OrderBy("created_at ASC", "uid ASC")

	if l.AfterCreatedAt != nil && l.AfterUID != nil {
		query = query.Where(sq.Or{
			sq.Gt{"created_at": *l.AfterCreatedAt},
			sq.And{
				sq.Eq{"created_at": *l.AfterCreatedAt},
				sq.Gt{"uid": *l.AfterUID},
			},
		})
	}

	if l.LimitVal > 0 {
		// Always fetch one more than limit to check if there are more records
		query = query.Limit(uint64(l.LimitVal + 1))
	}

	countSql, countArgs, err := countQuery.ToSql()
	if err != nil {
		// SQL generation should be deterministic
		panic(errors.Errorf("failed to build count query: %s", err))
	}

	var total int64
	if err := q.Raw(countSql, countArgs...).Scan(&total).Error; err != nil {
		return pagination.PageResult[Connector]{Error: err}
	}

	sql, args, err := query.ToSql()
	if err != nil {
		panic(errors.Errorf("failed to build query: %s", err))
	}

	rows, err := q.Raw(sql, args...).Rows()
	if err != nil {
		return pagination.PageResult[Connector]{Error: err}
	}
	defer rows.Close()

	var connectors []Connector
	for rows.Next() {
		var c Connector

		err := rows.Scan(
			&c.UID,
			&c.ID,
			&c.OwnerUID,
			&c.ConnectorType,
			&c.DefinitionUID,
			&c.Description,
			&c.Configuration,
			&c.Tombstone,
			&c.State,
			&c.CreatedAt,
			&c.UpdatedAt,
		)
		if err != nil {
			return pagination.PageResult[Connector]{Error: err}
		}

		connectors = append(connectors, c)
	}

	hasMore := l.LimitVal > 0 && int32(len(connectors)) > l.LimitVal
	if hasMore {
		connectors = connectors[:l.LimitVal]
	}

	cursor := ""
	if hasMore {
		last := connectors[len(connectors)-1]
		l.AfterCreatedAt = util.ToPtr(last.CreatedAt)
		l.AfterUID = util.ToPtr(last.UID)

		cursor, err = pagination.MakeCursor(ctx, l.db.secretKey, l)
		if err != nil {
			return pagination.PageResult[Connector]{Error: err}
		}
	}

	return pagination.PageResult[Connector]{
		HasMore: hasMore,
		Results: connectors,
		Cursor:  cursor,
		Total:   &total,
	}
}

func (l *listConnectorsFilters) FetchPage(ctx context.Context) pagination.PageResult[Connector] {
	return l.fetchPage(ctx)
}

func (l *listConnectorsFilters) Enumerate(ctx context.Context, callback func(pagination.PageResult[Connector]) (keepGoing bool, err error)) error {
	var err error
	keepGoing := true
	hasMore := true

	for err == nil && hasMore && keepGoing {
		result := l.FetchPage(ctx)
		hasMore = result.HasMore

		if result.Error != nil {
			return result.Error
		}
		keepGoing, err = callback(result)
	}

	return err
}

func (db *gormDB) ListConnectorsBuilder() ListConnectorsBuilder {
	return &listConnectorsFilters{
		db: db,
	}
}

func (db *gormDB) ListConnectorsFromCursor(ctx context.Context, cursor string) (ListConnectorsExecutor, error) {
	b := &listConnectorsFilters{
		db: db,
	}

	return b.FromCursor(ctx, cursor)
}
