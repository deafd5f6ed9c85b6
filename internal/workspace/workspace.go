package workspace

import (
	"errors"
	"os"
	"path/filepath"
)

// AnchorDir is the workspace marker directory, analogous to the teacher's
// .ralph/.
const AnchorDir = ".anchor"

var ErrNoWorkspace = errors.New("no anchor workspace found (run 'anchor init' first)")
var ErrWorkspaceExists = errors.New("anchor workspace already exists (use --force to overwrite)")

// Find walks up from cwd looking for an .anchor/ directory.
func Find() (string, error) {
	dir, err := os.Getwd()
	if err != nil {
		return "", err
	}

	for {
		anchorPath := filepath.Join(dir, AnchorDir)
		if info, err := os.Stat(anchorPath); err == nil && info.IsDir() {
			return dir, nil
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return "", ErrNoWorkspace
		}
		dir = parent
	}
}

// Path returns the .anchor directory path for a workspace.
func Path(workspaceDir string) string {
	return filepath.Join(workspaceDir, AnchorDir)
}

// ConfigPath returns the config.yaml path for a workspace.
func ConfigPath(workspaceDir string) string {
	return filepath.Join(workspaceDir, AnchorDir, "config.yaml")
}
