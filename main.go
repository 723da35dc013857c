package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/lovequest/questsync/cmd"
)

var (
	version = "dev"
	commit  = "unknown"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := cmd.Execute(ctx, version, commit); err != nil {
		os.Exit(1)
	}
}
