package database

import (
	"context"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/hashicorp/go-multierror"
	"github.com/pkg/errors"
	"gorm.io/gorm"

	"github.com/openpipe/connectorhub/internal/apctx"
)

// Owner is a tenant principal. Connectors hold a weak reference to an owner by UID; the owner record
// itself is managed out of band (seeded at deploy time or synced from the account system) and resolved
// from request credentials by the authorization gate.
type Owner struct {
	UID       uuid.UUID `gorm:"column:uid;primaryKey"`
	Subject   string    `gorm:"column:subject;uniqueIndex"`
	ID        string    `gorm:"column:id;uniqueIndex"`
	CreatedAt time.Time `gorm:"column:created_at"`
	UpdatedAt time.Time `gorm:"column:updated_at"`
}

func (o *Owner) Validate() error {
	result := &multierror.Error{}

	if o.UID == uuid.Nil {
		result = multierror.Append(result, errors.New("uid is required"))
	}

	if o.Subject == "" {
		result = multierror.Append(result, errors.New("subject is required"))
	}

	if o.ID == "" {
		result = multierror.Append(result, errors.New("id is required"))
	}

	return result.ErrorOrNil()
}

func (db *gormDB) CreateOwner(ctx context.Context, o *Owner) error {
	if o == nil {
		return errors.New("owner is nil")
	}

	if validationErr := o.Validate(); validationErr != nil {
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
			From("owners").
			Where(sq.Or{
				sq.Eq{"uid": o.UID},
				sq.Eq{"subject": o.Subject},
				sq.Eq{"id": o.ID},
			}).
			QueryRowContext(ctx).
			Scan(&count)
		if err != nil {
			return err
		}

		if count > 0 {
			return ErrDuplicate
		}

		now := apctx.GetClock(ctx).Now().UTC()
		_, err = sqb.Insert("owners").
			Columns("uid", "subject", "id", "created_at", "updated_at").
			Values(o.UID, o.Subject, o.ID, now, now).
			ExecContext(ctx)

		return err
	})
}

func (db *gormDB) GetOwnerBySubject(ctx context.Context, subject string) (*Owner, error) {
	sess := db.session(ctx)

	var o Owner
	result := sess.First(&o, "subject = ?", subject)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, result.Error
	}

	return &o, nil
}

func (db *gormDB) GetOwnerByUID(ctx context.Context, uid uuid.UUID) (*Owner, error) {
	sess := db.session(ctx)

	var o Owner
	result := sess.First(&o, "uid = ?", uid)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, result.Error
	}

	return &o, nil
}
