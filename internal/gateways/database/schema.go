package database

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/lovequest/questsync/internal/gateways/database/models"
)

// InitializeSchema creates all tables and indexes. It is safe to run on every start.
func (db *DB) InitializeSchema(ctx context.Context) error {
	start := time.Now()

	tables := []any{
		(*models.Quest)(nil),
		(*models.LovePointTransaction)(nil),
		(*models.Couple)(nil),
		(*models.UnlockState)(nil),
	}
	for _, model := range tables {
		_, err := db.bunDB.NewCreateTable().
			Model(model).
			IfNotExists().
			Exec(ctx)
		if err != nil {
			return fmt.Errorf("failed to create table: %w", err)
		}
	}

	indexes := []string{
		"CREATE INDEX IF NOT EXISTS idx_quests_couple_date ON quests(couple_id, date);",
		"CREATE UNIQUE INDEX IF NOT EXISTS idx_quests_couple_date_slot ON quests(couple_id, date, slot);",
		"CREATE INDEX IF NOT EXISTS idx_quests_couple_status ON quests(couple_id, status);",
		"CREATE INDEX IF NOT EXISTS idx_love_point_transactions_user_id ON love_point_transactions(user_id);",
	}
	for _, stmt := range indexes {
		if _, err := db.bunDB.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to create index: %w", err)
		}
	}

	slog.Info("Database schema ready",
		slog.String("type", "db"),
		slog.Int("tables", len(tables)),
		slog.Duration("took", time.Since(start)))
	return nil
}
