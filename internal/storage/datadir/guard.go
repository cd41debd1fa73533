package datadir

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/dohr-michael/tasker/internal/tasks"
)

// ResolveReadable maps an external path onto the data directory. Paths
// outside the prefix are rejected before the filesystem is touched; the
// result is re-checked after cleaning and symlink resolution.
func (r *Root) ResolveReadable(requested string) (string, error) {
	if requested != r.prefix && !strings.HasPrefix(requested, r.prefix+"/") {
		return "", tasks.PathInvalidf("invalid file path: must start with %s", r.prefix)
	}

	rel := strings.TrimPrefix(requested, r.prefix)
	local := filepath.Join(r.dir, filepath.FromSlash(rel))
	if !isUnder(local, r.dir) {
		return "", tasks.PathInvalidf("invalid file path: %s escapes %s", requested, r.prefix)
	}

	if _, err := os.Lstat(local); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", tasks.PathNotFound(requested)
		}
		return "", tasks.ExecutionError("stat "+requested, err)
	}

	realDir := r.dir
	if real, err := filepath.EvalSymlinks(realDir); err == nil {
		realDir = real
	}
	real, err := filepath.EvalSymlinks(local)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			// Dangling symlink.
			return "", tasks.PathNotFound(requested)
		}
		return "", tasks.ExecutionError("resolve "+requested, err)
	}
	if !isUnder(real, realDir) {
		return "", tasks.PathInvalidf("invalid file path: %s escapes %s", requested, r.prefix)
	}

	info, err := os.Stat(real)
	if err != nil {
		return "", tasks.ExecutionError("stat "+requested, err)
	}
	if info.IsDir() {
		return "", tasks.PathInvalidf("invalid file path: %s is a directory", requested)
	}
	return real, nil
}

// ReadExternal reads the file behind an external path.
func (r *Root) ReadExternal(requested string) ([]byte, error) {
	local, err := r.ResolveReadable(requested)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(local)
	if err != nil {
		return nil, tasks.ExecutionError("error reading file", err)
	}
	return data, nil
}

// isUnder returns true if child is equal to or a descendant of parent.
func isUnder(child, parent string) bool {
	if child == parent {
		return true
	}
	return strings.HasPrefix(child, parent+string(filepath.Separator))
}
