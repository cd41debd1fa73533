package commands

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/urfave/cli/v3"

	gwclient "github.com/dohr-michael/tasker/clients/gateway"
)

func gatewayFlag() cli.Flag {
	return &cli.StringFlag{
		Name:  "gateway",
		Usage: "Gateway base URL (default: from config)",
	}
}

func timeoutFlag() cli.Flag {
	return &cli.DurationFlag{
		Name:  "timeout",
		Usage: "Request timeout",
		Value: 5 * time.Minute,
	}
}

func newGatewayClient(cmd *cli.Command) *gwclient.Client {
	url := cmd.String("gateway")
	if url == "" {
		cfg := loadConfig(cmd)
		url = fmt.Sprintf("http://%s:%d", cfg.Gateway.Host, cfg.Gateway.Port)
	}
	return gwclient.New(url, cmd.Duration("timeout"))
}

// printResponse writes the body to stdout and turns gateway failures into
// a command error.
func printResponse(resp *gwclient.Response) error {
	if resp.RunID != "" {
		slog.Debug("gateway response", "run_id", resp.RunID, "status", resp.Status)
	}
	if gerr := resp.Decode(); gerr != nil {
		if gerr.State != "" {
			return fmt.Errorf("%s (%s, %s)", gerr.Message, gerr.Kind, gerr.State)
		}
		return fmt.Errorf("%s (%s)", gerr.Message, gerr.Kind)
	}
	_, err := os.Stdout.Write(resp.Body)
	if err == nil && len(resp.Body) > 0 && resp.Body[len(resp.Body)-1] != '\n' {
		fmt.Println()
	}
	return err
}

// NewRunCommand returns the run subcommand.
func NewRunCommand() *cli.Command {
	return &cli.Command{
		Name:      "run",
		Usage:     "Send a task to a running gateway and print the result",
		ArgsUsage: "<task>",
		Flags:     []cli.Flag{gatewayFlag(), timeoutFlag()},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			setupLogging(cmd, slog.LevelWarn)
			task := cmd.Args().First()
			if task == "" {
				return errors.New("usage: tasker run <task>")
			}
			resp, err := newGatewayClient(cmd).Run(ctx, task)
			if err != nil {
				return err
			}
			return printResponse(resp)
		},
	}
}

// NewReadCommand returns the read subcommand.
func NewReadCommand() *cli.Command {
	return &cli.Command{
		Name:      "read",
		Usage:     "Print a file from a running gateway's data directory",
		ArgsUsage: "<path>",
		Flags:     []cli.Flag{gatewayFlag(), timeoutFlag()},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			setupLogging(cmd, slog.LevelWarn)
			path := cmd.Args().First()
			if path == "" {
				return errors.New("usage: tasker read <path>")
			}
			resp, err := newGatewayClient(cmd).Read(ctx, path)
			if err != nil {
				return err
			}
			return printResponse(resp)
		},
	}
}
