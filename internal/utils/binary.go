package utils

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

// ResolveBinaryPath finds a binary, checking common locations: absolute
// paths pass through unchanged, then PATH, then tilde-expansion, then a
// fixed list of common install locations for the codex binary.
func ResolveBinaryPath(binaryPath string) string {
	// If it's an absolute path, use it directly
	if filepath.IsAbs(binaryPath) {
		return binaryPath
	}

	// Check if it's in PATH
	if path, err := exec.LookPath(binaryPath); err == nil {
		return path
	}

	// Handle tilde prefix
	if strings.HasPrefix(binaryPath, "~") {
		home, err := os.UserHomeDir()
		if err == nil {
			return filepath.Join(home, binaryPath[1:])
		}
	}

	// Check common locations
	home, err := os.UserHomeDir()
	if err == nil {
		commonPaths := []string{
			filepath.Join(home, ".codex", "bin", "codex"),
			filepath.Join(home, ".local", "bin", "codex"),
			"/usr/local/bin/codex",
			"/opt/homebrew/bin/codex",
		}

		for _, p := range commonPaths {
			if _, err := os.Stat(p); err == nil {
				return p
			}
		}
	}

	// Return original, will fail with helpful error later
	return binaryPath
}

// BinaryNotFoundError returns a helpful error message when a required
// external binary cannot be located.
func BinaryNotFoundError(name string) error {
	return fmt.Errorf(`%s not found in PATH

Install it and either add its directory to PATH, or set the full path in
.anchor/config.yaml:
  codex:
    binary: /path/to/%s`, name, name)
}
