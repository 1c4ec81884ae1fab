package runtime

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/pkg/errors"
)

const mysqlTableName = "connector_records"

// mysqlRuntime persists batches into a table in the configured MySQL database.
type mysqlRuntime struct {
	logger *slog.Logger
}

type mysqlConfig struct {
	Host     string `json:"host"`
	Port     int    `json:"port"`
	Database string `json:"database"`
	Username string `json:"username"`
	Password string `json:"password"`
}

func (r *mysqlRuntime) open(configuration json.RawMessage) (*sql.DB, error) {
	var cfg mysqlConfig
	if err := json.Unmarshal(configuration, &cfg); err != nil {
		return nil, errors.Wrap(err, "invalid mysql connector configuration")
	}

	if cfg.Port == 0 {
		cfg.Port = 3306
	}

	dsnCfg := mysql.NewConfig()
	dsnCfg.Net = "tcp"
	dsnCfg.Addr = fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)
	dsnCfg.DBName = cfg.Database
	dsnCfg.User = cfg.Username
	dsnCfg.Passwd = cfg.Password
	dsnCfg.Timeout = 10 * time.Second

	db, err := sql.Open("mysql", dsnCfg.FormatDSN())
	if err != nil {
		return nil, errors.Wrap(err, "failed to open mysql connection")
	}

	return db, nil
}

func (r *mysqlRuntime) Check(ctx context.Context, configuration json.RawMessage) error {
	db, err := r.open(configuration)
	if err != nil {
		return err
	}
	defer db.Close()

	if err := db.PingContext(ctx); err != nil {
		return errors.Wrap(err, "mysql database is unreachable")
	}

	return nil
}

func (r *mysqlRuntime) Write(ctx context.Context, configuration json.RawMessage, batch []Record) error {
	db, err := r.open(configuration)
	if err != nil {
		return err
	}
	defer db.Close()

	_, err = db.ExecContext(ctx, fmt.Sprintf(
		"CREATE TABLE IF NOT EXISTS %s (id BIGINT AUTO_INCREMENT PRIMARY KEY, idx VARCHAR(255), task VARCHAR(64), payload JSON, created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP)",
		mysqlTableName,
	))
	if err != nil {
		return errors.Wrap(err, "failed to prepare records table")
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "failed to begin transaction")
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, fmt.Sprintf(
		"INSERT INTO %s (idx, task, payload) VALUES (?, ?, ?)", mysqlTableName,
	))
	if err != nil {
		return errors.Wrap(err, "failed to prepare insert")
	}
	defer stmt.Close()

	for _, rec := range batch {
		if _, err := stmt.ExecContext(ctx, rec.Index, rec.Task, string(rec.Payload)); err != nil {
			return errors.Wrap(err, "failed to insert record")
		}
	}

	if err := tx.Commit(); err != nil {
		return errors.Wrap(err, "failed to commit batch")
	}

	r.logger.Debug("wrote batch to mysql destination", "records", len(batch))
	return nil
}
