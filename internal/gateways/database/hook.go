package database

import (
	"context"
	"time"

	"github.com/uptrace/bun"

	"github.com/lovequest/questsync/internal/domain/logger"
)

// QueryHook logs every bun query through logger.QueryLogger.
type QueryHook struct {
	slow time.Duration
}

var _ bun.QueryHook = (*QueryHook)(nil)

func NewQueryHook(slow time.Duration) *QueryHook {
	return &QueryHook{slow: slow}
}

func (h *QueryHook) BeforeQuery(ctx context.Context, _ *bun.QueryEvent) context.Context {
	return ctx
}

func (h *QueryHook) AfterQuery(_ context.Context, event *bun.QueryEvent) {
	l := &logger.QueryLogger{
		Operation:     event.Operation(),
		Query:         event.Query,
		StartTime:     event.StartTime,
		SlowThreshold: h.slow,
	}

	rows := int64(-1)
	if event.Result != nil {
		if n, err := event.Result.RowsAffected(); err == nil {
			rows = n
		}
	}
	l.Log(event.Err, rows)
}
