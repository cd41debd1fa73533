package ops

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"os/exec"
	"strings"
	"time"

	"github.com/dohr-michael/tasker/internal/tasks"
)

const defaultCommandTimeout = 2 * time.Minute

type cmdOutput struct {
	Stdout string
	Stderr string
}

// runCommand runs name with args in dir. A non-zero exit is an execution
// error carrying stderr.
func runCommand(ctx context.Context, timeout time.Duration, dir, name string, args ...string) (cmdOutput, error) {
	if timeout <= 0 {
		timeout = defaultCommandTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	slog.Debug("ops: executing", "command", name, "args", args, "dir", dir, "timeout", timeout)

	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Dir = dir

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	out := cmdOutput{}
	err := cmd.Run()
	out.Stdout, out.Stderr = stdout.String(), stderr.String()
	if err != nil {
		if ctx.Err() != nil {
			return out, tasks.ExecutionError(name+" timed out", ctx.Err())
		}
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return out, tasks.Executionf("%s exited with code %d: %s", name, exitErr.ExitCode(), strings.TrimSpace(out.Stderr))
		}
		return out, tasks.ExecutionError("exec "+name, err)
	}
	return out, nil
}
