package database

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/joho/godotenv"

	"github.com/openpipe/connectorhub/internal/aplog"
	"github.com/openpipe/connectorhub/internal/config"
)

// MustApplyBlankTestDbConfig applies a test database configuration to the specified config root. The
// database is guaranteed to be blank and migrated. This method uses a temp file so that the database
// will be cleaned up after the test exits. Note that the configuration in the root will be modified for
// the database and populated for the GlobalAESKey if it is not already populated.
//
// To support debugging tests by inspecting the SQLite database, if the SQLITE_TEST_DATABASE_PATH env
// var is set this method will use the database at that path.
//
// Parameters:
// - t: the test instance used for naming and cleanup
// - cfg: the config to apply the database config to. This may be nil, in which case a new config is created.
//
// Returns:
// - the config with information populated for the database
// - a database instance configured with the specified root
func MustApplyBlankTestDbConfig(t testing.TB, cfg config.C) (config.C, DB) {
	t.Helper()

	// Optionally load a dotenv file to adjust test behavior while debugging
	_ = godotenv.Load()

	if cfg == nil {
		cfg = config.FromRoot(&config.Root{})
	}

	root := cfg.GetRoot()
	if root == nil {
		panic("No root in config")
	}

	path := os.Getenv("SQLITE_TEST_DATABASE_PATH")
	if path == "" {
		path = filepath.Join(t.TempDir(), "test.db")
	} else {
		_ = os.Remove(path)
	}

	root.Database = config.Database{
		Provider: config.DatabaseProviderSqlite,
		Path:     path,
	}

	if root.SystemAuth.GlobalAESKey == nil {
		root.SystemAuth.GlobalAESKey = &config.KeyData{}
	}

	db, err := NewSqliteConnection(&root.Database, root.SystemAuth.GlobalAESKey, aplog.NewNop())
	if err != nil {
		panic(err)
	}

	if err := db.Migrate(context.Background()); err != nil {
		panic(err)
	}

	return cfg, db
}
