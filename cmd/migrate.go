package cmd

import (
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"github.com/lovequest/questsync/internal/gateways/database"
)

var migrateCMD = &cobra.Command{
	Use:   "migrate",
	Short: "Create or update the local state store schema",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		start := time.Now()

		db, err := database.New(ctx, cfg.DB)
		if err != nil {
			return err
		}
		defer db.Close()

		if err := db.InitializeSchema(ctx); err != nil {
			return err
		}

		health, err := db.Health(ctx)
		if err != nil {
			return err
		}

		slog.Info("Schema initialized",
			slog.String("type", "db"),
			slog.String("driver", health.Driver),
			slog.Duration("took", time.Since(start)),
			slog.Duration("latency", health.Latency),
			slog.Int("open_conns", health.OpenConns),
			slog.Int("idle_conns", health.IdleConns),
			slog.Int("max_conns", health.MaxConns))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(migrateCMD)
}
