package commands

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/urfave/cli/v3"

	"github.com/dohr-michael/tasker/internal/tasks"
)

// NewExecCommand returns the exec subcommand.
func NewExecCommand() *cli.Command {
	return &cli.Command{
		Name:      "exec",
		Usage:     "Run one operation locally, without classification",
		ArgsUsage: "<operation>",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "data-dir",
				Usage: "Local data directory",
			},
		},
		Action: runExec,
	}
}

func runExec(ctx context.Context, cmd *cli.Command) error {
	setupLogging(cmd, slog.LevelWarn)
	name := cmd.Args().First()
	if name == "" {
		return errors.New("usage: tasker exec <operation> (see tasker ops)")
	}
	op := tasks.ParseOperation(name)
	if !op.Known() {
		return fmt.Errorf("unknown operation %q (see tasker ops)", name)
	}

	cfg := loadConfig(cmd)
	if cmd.IsSet("data-dir") {
		cfg.Data.Dir = cmd.String("data-dir")
	}
	a, err := newApp(cfg)
	if err != nil {
		return err
	}

	res, err := a.dispatcher.Execute(ctx, op)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	data, err := json.MarshalIndent(res, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(data))
	return nil
}

var operationUsage = map[tasks.Operation]string{
	tasks.OpInstallUV:        "install uv and run datagen.py with USER_EMAIL",
	tasks.OpFormatMarkdown:   "format /data/format.md with prettier",
	tasks.OpCountWeekdays:    "count Wednesdays in /data/dates.txt",
	tasks.OpSortContacts:     "sort /data/contacts.json by last, first name",
	tasks.OpRecentLogLines:   "first lines of the 10 newest /data/logs/*.log",
	tasks.OpMarkdownTitles:   "index H1 titles of /data/docs/**/*.md",
	tasks.OpExtractEmail:     "extract the sender of /data/email.txt",
	tasks.OpCreditCardNumber: "read the number on /data/credit_card.png",
	tasks.OpSimilarComments:  "most similar pair in /data/comments.txt",
	tasks.OpGoldTicketSales:  "total sales of the configured ticket type",
}

// NewOpsCommand returns the ops subcommand.
func NewOpsCommand() *cli.Command {
	return &cli.Command{
		Name:  "ops",
		Usage: "List supported operations",
		Action: func(_ context.Context, _ *cli.Command) error {
			w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "OPERATION\tDESCRIPTION")
			for _, op := range tasks.Operations() {
				fmt.Fprintf(w, "%s\t%s\n", op, strings.TrimSpace(operationUsage[op]))
			}
			return w.Flush()
		},
	}
}
