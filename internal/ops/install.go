package ops

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/exec"
	"path/filepath"
	"regexp"
	"time"

	"github.com/dohr-michael/tasker/internal/tasks"
)

const (
	datagenScript          = "datagen.py"
	defaultDownloadTimeout = 30 * time.Second
	maxDatagenScript       = 4 << 20
)

// dataLiteralRe matches the quoted "/data" root literal in the generator.
var dataLiteralRe = regexp.MustCompile(`(['"])/data(['"])`)

// rewriteDataRoot points every quoted "/data" literal at dir.
func rewriteDataRoot(script []byte, dir string) []byte {
	repl := []byte("${1}" + filepath.ToSlash(dir) + "${2}")
	return dataLiteralRe.ReplaceAll(script, repl)
}

func (h *Handlers) ensureUV(ctx context.Context) error {
	if _, err := exec.LookPath("uv"); err == nil {
		return nil
	}
	pip := h.Tools.Pip
	if pip == "" {
		pip = "pip"
	}
	out, err := runCommand(ctx, h.Tools.CommandTimeout.Duration(), "", pip, "install", "uv")
	if err != nil {
		return fmt.Errorf("install uv: %w", err)
	}
	slog.Info("ops: installed uv", "stdout", out.Stdout)
	return nil
}

func (h *Handlers) downloadDatagen(ctx context.Context) ([]byte, error) {
	timeout := h.Tools.DownloadTimeout.Duration()
	if timeout <= 0 {
		timeout = defaultDownloadTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, h.Tools.DatagenURL, nil)
	if err != nil {
		return nil, tasks.ExecutionError("download "+datagenScript, err)
	}
	client := h.HTTPClient
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, tasks.ExecutionError("download "+datagenScript, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, tasks.Executionf("failed to download %s, status code: %d", datagenScript, resp.StatusCode)
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxDatagenScript))
	if err != nil {
		return nil, tasks.ExecutionError("download "+datagenScript, err)
	}
	return body, nil
}

// InstallUV makes sure uv is available, then fetches the data generator,
// points it at the local data directory and runs it with the user email.
func (h *Handlers) InstallUV(ctx context.Context) (*tasks.Result, error) {
	if h.UserEmail == "" {
		return nil, tasks.InputMissing("USER_EMAIL")
	}
	if err := h.ensureUV(ctx); err != nil {
		return nil, err
	}

	script, err := h.downloadDatagen(ctx)
	if err != nil {
		return nil, err
	}
	script = rewriteDataRoot(script, h.Root.Dir())

	// The generator is written next to the data directory, not inside it,
	// so it is never served by /read.
	workDir := filepath.Dir(h.Root.Dir())
	scriptPath := filepath.Join(workDir, datagenScript)
	if err := os.WriteFile(scriptPath, script, 0o644); err != nil {
		return nil, tasks.ExecutionError("write "+datagenScript, err)
	}

	python := h.Tools.Python
	if python == "" {
		python = "python"
	}
	out, err := runCommand(ctx, h.Tools.CommandTimeout.Duration(), workDir, python, scriptPath, h.UserEmail)
	if err != nil {
		return nil, err
	}

	return tasks.Success("Data generated in %s", h.Root.Prefix()).
		With("stdout", out.Stdout).
		With("stderr", out.Stderr), nil
}
