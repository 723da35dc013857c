package logger

import (
	"bytes"
	"database/sql"
	"errors"
	"log/slog"
	"strings"
	"testing"
	"time"
)

func captureLogs(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	prev := slog.Default()
	slog.SetDefault(slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})))
	t.Cleanup(func() { slog.SetDefault(prev) })
	return &buf
}

func TestQueryLogger_Log(t *testing.T) {
	tests := []struct {
		name      string
		err       error
		slow      time.Duration
		started   time.Duration
		wantLevel string
		wantMsg   string
	}{
		{name: "Success", wantLevel: "level=DEBUG", wantMsg: "Query executed"},
		{name: "No rows", err: sql.ErrNoRows, wantLevel: "level=DEBUG", wantMsg: "Query executed"},
		{name: "Failure", err: errors.New("disk I/O error"), wantLevel: "level=ERROR", wantMsg: "Query failed"},
		{name: "Slow", slow: time.Millisecond, started: time.Second, wantLevel: "level=WARN", wantMsg: "Slow query"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf := captureLogs(t)
			l := NewQueryLogger("SELECT", "SELECT 1")
			l.SlowThreshold = tt.slow
			l.StartTime = time.Now().Add(-tt.started)
			l.Log(tt.err, 1)

			out := buf.String()
			if !strings.Contains(out, tt.wantLevel) {
				t.Errorf("Log() = %q, want level %s", out, tt.wantLevel)
			}
			if !strings.Contains(out, tt.wantMsg) {
				t.Errorf("Log() = %q, want message %q", out, tt.wantMsg)
			}
			if !strings.Contains(out, "type=db") {
				t.Errorf("Log() = %q, want type=db", out)
			}
		})
	}
}
