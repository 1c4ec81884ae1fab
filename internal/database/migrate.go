package database

import (
	"context"

	"github.com/pkg/errors"
)

// MigrateMutexKeyName is the key that can be used when locking to perform a migration in redis.
const MigrateMutexKeyName = "db-migrate-lock"

func (db *gormDB) Migrate(ctx context.Context) error {
	err := db.gorm.AutoMigrate(&Owner{})
	if err != nil {
		return errors.Wrap(err, "failed to auto migrate owners")
	}

	err = db.gorm.AutoMigrate(&Connector{})
	if err != nil {
		return errors.Wrap(err, "failed to auto migrate connectors")
	}

	return nil
}
