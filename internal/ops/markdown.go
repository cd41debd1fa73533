package ops

import (
	"bufio"
	"context"
	"io/fs"
	"os"
	"path"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/dohr-michael/tasker/internal/tasks"
)

const (
	docsDir    = "docs"
	docsOutput = "docs/index.json"
)

// firstH1 returns the first "# " heading of a markdown file.
func firstH1(fsys fs.FS, name string) (string, bool, error) {
	f, err := fsys.Open(name)
	if err != nil {
		return "", false, err
	}
	defer f.Close()

	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 64*1024), 1024*1024)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if strings.HasPrefix(line, "# ") {
			return strings.TrimSpace(line[2:]), true, nil
		}
	}
	return "", false, sc.Err()
}

// MarkdownTitles indexes the first H1 of every markdown file under docs/,
// keyed by path relative to docs/.
func (h *Handlers) MarkdownTitles(ctx context.Context) (*tasks.Result, error) {
	dir, err := h.Root.Require(docsDir)
	if err != nil {
		return nil, err
	}
	fsys := os.DirFS(dir)

	names, err := doublestar.Glob(fsys, "**/*.md", doublestar.WithFilesOnly())
	if err != nil {
		return nil, tasks.ExecutionError("list docs", err)
	}

	index := make(map[string]string, len(names))
	for _, name := range names {
		title, ok, err := firstH1(fsys, name)
		if err != nil {
			return nil, tasks.ExecutionError("read "+path.Join(docsDir, name), err)
		}
		if ok {
			index[name] = title
		}
	}

	// encoding/json sorts map keys.
	out, err := marshalIndent(index)
	if err != nil {
		return nil, tasks.ExecutionError("encode index", err)
	}
	if err := h.Root.WriteFileAtomic(docsOutput, out); err != nil {
		return nil, err
	}

	return tasks.Success("Extracted H1 titles from %d markdown files.", len(index)).
		With("output_file", h.Root.External(docsOutput)), nil
}
