package database

import (
	"context"
	"log/slog"
	"time"

	gormlogger "gorm.io/gorm/logger"
)

// logger adapts slog to gorm's logger interface.
type logger struct {
	inner *slog.Logger
}

func (l *logger) LogMode(gormlogger.LogLevel) gormlogger.Interface {
	return l
}

func (l *logger) Info(ctx context.Context, msg string, data ...interface{}) {
	l.inner.InfoContext(ctx, msg, "data", data)
}

func (l *logger) Warn(ctx context.Context, msg string, data ...interface{}) {
	l.inner.WarnContext(ctx, msg, "data", data)
}

func (l *logger) Error(ctx context.Context, msg string, data ...interface{}) {
	l.inner.ErrorContext(ctx, msg, "data", data)
}

func (l *logger) Trace(ctx context.Context, begin time.Time, fc func() (sql string, rowsAffected int64), err error) {
	sql, rows := fc()
	l.inner.DebugContext(ctx, "sql", "duration", time.Since(begin), "rows", rows, "query", sql, "error", err)
}

var _ gormlogger.Interface = (*logger)(nil)
