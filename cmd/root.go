package cmd

import (
	"context"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/lovequest/questsync/questsync"
	"github.com/lovequest/questsync/questsync/logger"
)

var (
	configPath string
	cfg        *questsync.Config

	version = "dev"
	commit  = "unknown"
)

var rootCmd = &cobra.Command{
	Use:           "questsync",
	Short:         "Daily quest and love point sync for couples",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		loaded, err := questsync.LoadConfig(configPath)
		if err != nil {
			return err
		}
		cfg = loaded
		setupLogging(cfg.Log)

		slog.Info("Starting questsync",
			slog.String("type", "sys"),
			slog.String("command", cmd.Name()),
			slog.String("version", version),
			slog.String("commit", commit))
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "path to config.toml")
}

// Execute runs the command line with ctx cancelled on shutdown signals.
func Execute(ctx context.Context, v, c string) error {
	version, commit = v, c
	rootCmd.Version = v
	err := rootCmd.ExecuteContext(ctx)
	if err != nil {
		logger.LogError("Command failed", err)
	}
	return err
}

func setupLogging(c questsync.LogConfig) {
	var h slog.Handler
	if c.Format == "json" {
		h = slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: c.Level})
	} else {
		h = logger.NewHandler("questsync",
			logger.WithLevel(c.Level),
			logger.WithColor(c.ColorEnabled()))
	}
	slog.SetDefault(slog.New(h))
}
