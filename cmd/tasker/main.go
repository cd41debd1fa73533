package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/dohr-michael/tasker/cmd/commands"
	"github.com/dohr-michael/tasker/internal/config"
)

func main() {
	// $TASKER_PATH/.env first, then the working directory's .env.
	if err := config.LoadDotenv(config.DotenvPath(), ".env"); err != nil {
		slog.Warn("failed to load .env", "error", err)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	cmd := commands.NewRootCommand()
	if err := cmd.Run(ctx, os.Args); err != nil {
		slog.Error("fatal", "error", err)
		os.Exit(1)
	}
}
