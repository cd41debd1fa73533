// Package datadir owns the sandboxed data directory: the fixed paths
// handlers read and write, and the guard in front of external reads.
package datadir

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/dohr-michael/tasker/internal/tasks"
)

// Root is a data directory plus the external prefix that maps onto it.
type Root struct {
	dir    string
	prefix string
}

// New creates the data directory if needed and returns its Root. prefix is
// the logical path callers use for it ("/data").
func New(dir, prefix string) (*Root, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("datadir: resolve %s: %w", dir, err)
	}
	if err := os.MkdirAll(abs, 0o755); err != nil {
		return nil, fmt.Errorf("datadir: create %s: %w", abs, err)
	}
	if prefix == "" {
		prefix = "/data"
	}
	prefix = "/" + strings.Trim(path.Clean("/"+prefix), "/")
	return &Root{dir: abs, prefix: prefix}, nil
}

// Dir returns the absolute local directory.
func (r *Root) Dir() string { return r.dir }

// Prefix returns the external prefix.
func (r *Root) Prefix() string { return r.prefix }

// Path joins slash-separated rel onto the local directory.
func (r *Root) Path(rel string) string {
	return filepath.Join(r.dir, filepath.FromSlash(rel))
}

// External returns the logical name of rel, as shown to callers.
func (r *Root) External(rel string) string {
	return path.Join(r.prefix, rel)
}

// Require returns the local path of rel, or an input-missing error naming
// its external path.
func (r *Root) Require(rel string) (string, error) {
	p := r.Path(rel)
	if _, err := os.Stat(p); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", tasks.InputMissing(r.External(rel))
		}
		return "", tasks.ExecutionError("stat "+r.External(rel), err)
	}
	return p, nil
}

// ReadFile reads a required input.
func (r *Root) ReadFile(rel string) ([]byte, error) {
	p, err := r.Require(rel)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(p)
	if err != nil {
		return nil, tasks.ExecutionError("read "+r.External(rel), err)
	}
	return data, nil
}

// WriteFileAtomic replaces rel with content through a temp file and rename,
// so concurrent writers never interleave: the last rename wins.
func (r *Root) WriteFileAtomic(rel string, content []byte) error {
	p := r.Path(rel)
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return tasks.ExecutionError("create dir for "+r.External(rel), err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(p), "."+filepath.Base(p)+".*.tmp")
	if err != nil {
		return tasks.ExecutionError("write "+r.External(rel), err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(content); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return tasks.ExecutionError("write "+r.External(rel), err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return tasks.ExecutionError("write "+r.External(rel), err)
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		os.Remove(tmpName)
		return tasks.ExecutionError("chmod "+r.External(rel), err)
	}

	if err := os.Rename(tmpName, p); err != nil {
		os.Remove(tmpName)
		return tasks.ExecutionError("rename "+r.External(rel), err)
	}
	return nil
}

// WriteJSON writes v indented by two spaces.
func (r *Root) WriteJSON(rel string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return tasks.ExecutionError("marshal "+r.External(rel), err)
	}
	return r.WriteFileAtomic(rel, data)
}
