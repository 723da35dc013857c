package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"github.com/lovequest/questsync/internal/domain/identity"
	"github.com/lovequest/questsync/internal/gateways/backend"
	"github.com/lovequest/questsync/internal/gateways/database"
	"github.com/lovequest/questsync/questsync"
	"github.com/lovequest/questsync/questsync/logger"
)

var agentUser identity.User

var agentCMD = &cobra.Command{
	Use:   "agent",
	Short: "Run a headless device that keeps quests and love points in sync",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		engine, err := openEngine(ctx)
		if err != nil {
			return err
		}
		defer engine.Close()

		if _, err := engine.SignIn(ctx, agentUser); err != nil {
			return err
		}

		engine.OnQuestsChanged(func(ctx context.Context, _ string) {
			printToday(ctx, engine)
		})
		if err := engine.Foreground(ctx); err != nil {
			return err
		}
		printToday(ctx, engine)

		<-ctx.Done()
		logger.LogSystem("Agent stopping")
		return nil
	},
}

var completeCMD = &cobra.Command{
	Use:   "complete <quest-id>",
	Short: "Record a quest completion for the signed-in user",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		engine, err := openEngine(ctx)
		if err != nil {
			return err
		}
		defer engine.Close()

		if _, err := engine.SignIn(ctx, agentUser); err != nil {
			return err
		}
		if err := engine.Foreground(ctx); err != nil {
			return err
		}
		defer engine.Background()

		out, err := engine.RecordCompletion(ctx, args[0])
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s: %s\n", args[0], out)
		return nil
	},
}

var loginToken string

var loginCMD = &cobra.Command{
	Use:   "login",
	Short: "Store the backend session token in the OS keyring",
	RunE: func(cmd *cobra.Command, args []string) error {
		if loginToken == "" {
			return errors.New("--token is required")
		}
		if err := backend.NewKeyringToken(agentUser.ID).Store(loginToken); err != nil {
			return fmt.Errorf("failed to store token: %w", err)
		}
		logger.LogSystem("Session token stored", slog.String("user_id", agentUser.ID))
		return nil
	},
}

func openEngine(ctx context.Context) (*questsync.Engine, error) {
	if cfg.Backend.URL == "" {
		return nil, errors.New("backend.url is not configured")
	}

	var tokens backend.TokenSource = backend.StaticToken(cfg.Backend.Token)
	if cfg.Backend.Token == "" {
		tokens = backend.NewKeyringToken(agentUser.ID)
	}
	client, err := backend.New(cfg.Backend.URL, tokens, cfg.Backend.Timeout.Duration)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	db, err := database.New(ctx, cfg.DB)
	if err != nil {
		return nil, err
	}
	if err := db.InitializeSchema(ctx); err != nil {
		db.Close()
		return nil, err
	}
	slog.Info("Local store ready",
		slog.String("type", "db"),
		slog.String("driver", cfg.DB.Driver),
		slog.Duration("took", time.Since(start)))

	engine, err := questsync.NewEngine(*cfg, db, client)
	if err != nil {
		db.Close()
		return nil, err
	}
	return engine, nil
}

func printToday(ctx context.Context, engine *questsync.Engine) {
	today, err := engine.TodayQuests(ctx)
	if err != nil {
		logger.LogError("Failed to list quests", err)
		return
	}
	balance, _ := engine.Balance(ctx)

	logger.LogSync("Today's quests",
		slog.String("date", today.Date),
		slog.Int("count", len(today.Quests)),
		slog.Bool("retry", today.Retry),
		slog.Int64("balance", balance))
	for _, q := range today.Quests {
		slog.Info("Quest",
			slog.String("type", "sys"),
			slog.String("id", q.ID),
			slog.String("quest_type", string(q.Type)),
			slog.String("format", q.FormatType),
			slog.String("status", string(q.Status)),
			slog.Bool("your_turn", q.YourTurn),
			slog.Bool("waiting_on_partner", q.WaitingOnPartner))
	}
}

func init() {
	for _, c := range []*cobra.Command{agentCMD, completeCMD, loginCMD} {
		c.Flags().StringVar(&agentUser.ID, "user", "", "stable user id")
		_ = c.MarkFlagRequired("user")
		rootCmd.AddCommand(c)
	}
	agentCMD.Flags().StringVar(&agentUser.LegacyID, "legacy-id", "", "legacy push token id")
	agentCMD.Flags().StringVar(&agentUser.DisplayName, "name", "", "display name")
	loginCMD.Flags().StringVar(&loginToken, "token", "", "session token")
}
