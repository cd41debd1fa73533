package ops

import (
	"context"
	"os/exec"

	"github.com/dohr-michael/tasker/internal/tasks"
)

const (
	formatInput            = "format.md"
	defaultPrettierVersion = "3.4.2"
)

// prettierCommand picks the formatter: the configured binary, a prettier on
// PATH, then npx with a pinned version.
func (h *Handlers) prettierCommand(file string) (string, []string, error) {
	if h.Tools.Prettier != "" {
		return h.Tools.Prettier, []string{"--write", file}, nil
	}
	if p, err := exec.LookPath("prettier"); err == nil {
		return p, []string{"--write", file}, nil
	}

	npx := h.Tools.Npx
	if npx == "" {
		p, err := exec.LookPath("npx")
		if err != nil {
			return "", nil, tasks.Executionf("prettier and npx not found: install Node.js and Prettier")
		}
		npx = p
	}
	version := h.Tools.PrettierVersion
	if version == "" {
		version = defaultPrettierVersion
	}
	return npx, []string{"prettier@" + version, "--write", file}, nil
}

// FormatMarkdown formats format.md in place with Prettier.
func (h *Handlers) FormatMarkdown(ctx context.Context) (*tasks.Result, error) {
	file, err := h.Root.Require(formatInput)
	if err != nil {
		return nil, err
	}

	name, args, err := h.prettierCommand(file)
	if err != nil {
		return nil, err
	}
	out, err := runCommand(ctx, h.Tools.CommandTimeout.Duration(), h.Root.Dir(), name, args...)
	if err != nil {
		return nil, err
	}

	return tasks.Success("Markdown file formatted").
		With("stdout", out.Stdout).
		With("stderr", out.Stderr), nil
}
