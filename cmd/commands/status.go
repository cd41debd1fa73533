package commands

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/urfave/cli/v3"
)

// NewStatusCommand returns the status subcommand.
func NewStatusCommand() *cli.Command {
	return &cli.Command{
		Name:  "status",
		Usage: "Show tasker gateway status",
		Flags: []cli.Flag{
			gatewayFlag(),
			&cli.DurationFlag{
				Name:  "timeout",
				Usage: "Probe timeout",
				Value: 3 * time.Second,
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			setupLogging(cmd, slog.LevelError)
			if err := newGatewayClient(cmd).Health(ctx); err != nil {
				slog.Debug("health probe failed", "error", err)
				fmt.Println("Gateway: NOT RUNNING")
				return nil
			}
			fmt.Println("Gateway: ALIVE")
			return nil
		},
	}
}
