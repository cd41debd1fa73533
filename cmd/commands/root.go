package commands

import (
	"github.com/urfave/cli/v3"

	"github.com/dohr-michael/tasker/internal/config"
)

// Version is reported by the MCP server and --version.
var Version = "0.1.0"

// NewRootCommand returns the top-level CLI command.
func NewRootCommand() *cli.Command {
	return &cli.Command{
		Name:    "tasker",
		Usage:   "Turn plain-English tasks into file operations on a data directory",
		Version: Version,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to config file",
				Value:   config.ConfigPath(),
			},
			&cli.BoolFlag{
				Name:  "debug",
				Usage: "Enable debug logging",
			},
		},
		Commands: []*cli.Command{
			NewServeCommand(),
			NewRunCommand(),
			NewReadCommand(),
			NewExecCommand(),
			NewOpsCommand(),
			NewStatusCommand(),
			NewMCPServeCommand(),
		},
	}
}
