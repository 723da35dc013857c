package logger

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"time"
)

type QueryLogger struct {
	Operation     string
	Query         string
	Args          []any
	StartTime     time.Time
	SlowThreshold time.Duration
}

func NewQueryLogger(operation, query string, args ...any) *QueryLogger {
	return &QueryLogger{
		Operation: operation,
		Query:     query,
		Args:      args,
		StartTime: time.Now(),
	}
}

// Log reports the query outcome. Successful queries log at debug, slow ones
// at warn. A missing row is not a failure.
func (l *QueryLogger) Log(err error, rowsAffected int64) {
	duration := time.Since(l.StartTime)

	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		slog.Error("Query failed",
			slog.String("type", "db"),
			slog.String("operation", l.Operation),
			slog.String("query", l.Query),
			slog.Any("args", l.Args),
			slog.Duration("took", duration),
			slog.Any("error", err),
		)
		return
	}

	level := slog.LevelDebug
	msg := "Query executed"
	if l.SlowThreshold > 0 && duration >= l.SlowThreshold {
		level = slog.LevelWarn
		msg = "Slow query"
	}

	attrs := []any{
		slog.String("type", "db"),
		slog.String("operation", l.Operation),
		slog.String("query", l.Query),
		slog.Duration("took", duration),
	}
	if len(l.Args) > 0 {
		attrs = append(attrs, slog.Any("args", l.Args))
	}
	if rowsAffected >= 0 {
		attrs = append(attrs, slog.Int64("affected_rows", rowsAffected))
	}
	slog.Log(context.Background(), level, msg, attrs...)
}
