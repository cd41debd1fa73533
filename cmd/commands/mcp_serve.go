package commands

import (
	"context"
	"log/slog"

	"github.com/urfave/cli/v3"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"

	taskermcp "github.com/dohr-michael/tasker/internal/mcp"
)

// NewMCPServeCommand returns the mcp-serve subcommand.
func NewMCPServeCommand() *cli.Command {
	return &cli.Command{
		Name:   "mcp-serve",
		Usage:  "Expose tasker operations as an MCP server (stdio)",
		Action: runMCPServe,
	}
}

func runMCPServe(ctx context.Context, cmd *cli.Command) error {
	// stdout is the MCP transport, logs go to stderr
	setupLogging(cmd, slog.LevelWarn)

	a, err := newApp(loadConfig(cmd))
	if err != nil {
		return err
	}

	slog.Debug("starting MCP server", "data_dir", a.root.Dir())

	server := taskermcp.NewMCPServer(a.dispatcher, a.root, Version)
	return server.Run(ctx, &mcpsdk.StdioTransport{})
}
