package ops

import (
	"bufio"
	"context"
	"errors"
	"io"
	"io/fs"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/dohr-michael/tasker/internal/tasks"
)

const (
	logsDir       = "logs"
	logsOutput    = "logs-recent.txt"
	logsMaxRecent = 10
)

type logFile struct {
	name    string
	modTime time.Time
}

func firstLine(fsys fs.FS, name string) (string, error) {
	f, err := fsys.Open(name)
	if err != nil {
		return "", err
	}
	defer f.Close()
	line, err := bufio.NewReader(f).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", err
	}
	return strings.TrimSpace(line), nil
}

// RecentLogLines collects the first line of the newest .log files.
func (h *Handlers) RecentLogLines(ctx context.Context) (*tasks.Result, error) {
	dir, err := h.Root.Require(logsDir)
	if err != nil {
		return nil, err
	}
	fsys := os.DirFS(dir)

	names, err := doublestar.Glob(fsys, "*.log", doublestar.WithFilesOnly())
	if err != nil {
		return nil, tasks.ExecutionError("list logs", err)
	}

	files := make([]logFile, 0, len(names))
	for _, name := range names {
		info, err := fs.Stat(fsys, name)
		if err != nil {
			return nil, tasks.ExecutionError("stat "+name, err)
		}
		files = append(files, logFile{name: name, modTime: info.ModTime()})
	}
	sort.Slice(files, func(i, j int) bool {
		if !files[i].modTime.Equal(files[j].modTime) {
			return files[i].modTime.After(files[j].modTime)
		}
		return files[i].name < files[j].name
	})
	if len(files) > logsMaxRecent {
		files = files[:logsMaxRecent]
	}

	var sb strings.Builder
	n := 0
	for _, f := range files {
		line, err := firstLine(fsys, f.name)
		if err != nil {
			return nil, tasks.ExecutionError("read "+f.name, err)
		}
		if line == "" {
			continue
		}
		sb.WriteString(line)
		sb.WriteByte('\n')
		n++
	}

	if err := h.Root.WriteFileAtomic(logsOutput, []byte(sb.String())); err != nil {
		return nil, err
	}
	return tasks.Success("Extracted first lines from %d logs.", n).
		With("output_file", h.Root.External(logsOutput)), nil
}
