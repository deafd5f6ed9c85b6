// Package fsutil provides repository-relative path resolution and atomic
// file writes, the two primitives every other package in this module builds
// its on-disk contract on top of.
package fsutil

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/anchorsec/anchor/internal/model"
)

// RepoRel resolves p against root and returns the forward-slash-normalized,
// repository-relative form. It fails with a *model.PathEscapeError if the
// resolved path is not root or a descendant of root.
//
// Every boundary input — manifest entries, Codex-produced citation paths,
// LLM-produced file names — must pass through RepoRel before use.
func RepoRel(root, p string) (string, error) {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return "", fmt.Errorf("resolving repo root: %w", err)
	}
	absRoot, err = filepath.EvalSymlinks(absRoot)
	if err != nil {
		// Root may not exist yet in tests; fall back to the unresolved form.
		absRoot, _ = filepath.Abs(root)
	}

	var absPath string
	if filepath.IsAbs(p) {
		absPath = filepath.Clean(p)
	} else {
		absPath = filepath.Clean(filepath.Join(absRoot, p))
	}

	rel, err := filepath.Rel(absRoot, absPath)
	if err != nil {
		return "", &model.PathEscapeError{Path: p, Root: root}
	}
	if rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", &model.PathEscapeError{Path: p, Root: root}
	}
	return filepath.ToSlash(rel), nil
}

// AtomicWrite writes data to path via a unique temp file created in path's
// parent directory, then renames it over the target on success. On any
// failure the temp file is unlinked and no partial content is ever left at
// path.
func AtomicWrite(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return &model.PersistenceError{Path: path, Cause: err}
	}

	tmp, err := os.CreateTemp(dir, ".anchor-tmp-*")
	if err != nil {
		return &model.PersistenceError{Path: path, Cause: err}
	}
	tmpPath := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return &model.PersistenceError{Path: path, Cause: err}
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return &model.PersistenceError{Path: path, Cause: err}
	}

	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return &model.PersistenceError{Path: path, Cause: err}
	}
	return nil
}

// EnsureDir creates dir (and parents) if it does not already exist.
func EnsureDir(dir string) error {
	return os.MkdirAll(dir, 0o755)
}
