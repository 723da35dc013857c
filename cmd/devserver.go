package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/lovequest/questsync/internal/devserver"
	"github.com/lovequest/questsync/internal/gateways/backend"
)

var pairings []string

var devserverCMD = &cobra.Command{
	Use:   "devserver",
	Short: "Run an in-memory couples backend for local testing",
	RunE: func(cmd *cobra.Command, args []string) error {
		srv := devserver.New(devserver.Config{Token: cfg.DevServer.Token})
		for _, p := range pairings {
			coupleID, a, b, err := parsePairing(p)
			if err != nil {
				return err
			}
			srv.Pair(coupleID, backend.User{ID: a}, backend.User{ID: b})
		}

		errs := make(chan error, 1)
		go func() { errs <- srv.Listen(cfg.DevServer.Addr) }()

		select {
		case err := <-errs:
			return err
		case <-cmd.Context().Done():
		}

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		slog.Info("Dev server shutting down", slog.String("type", "sys"))
		return srv.Shutdown(ctx)
	},
}

// parsePairing reads "couple:userA:userB".
func parsePairing(s string) (string, string, string, error) {
	parts := strings.Split(s, ":")
	if len(parts) != 3 || parts[0] == "" || parts[1] == "" || parts[2] == "" || parts[1] == parts[2] {
		return "", "", "", fmt.Errorf("invalid pairing %q, expected couple:userA:userB", s)
	}
	return parts[0], parts[1], parts[2], nil
}

func init() {
	devserverCMD.Flags().StringArrayVar(&pairings, "pair", nil, "pre-pair two users, as couple:userA:userB")
	rootCmd.AddCommand(devserverCMD)
}
