package seed

import (
	"bufio"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/anchorsec/anchor/internal/fsutil"
	"github.com/anchorsec/anchor/internal/model"
)

// ValidateManifest reads manifestPath and returns its entries canonicalized
// to repo-relative paths, sorted lexicographically. Blank lines are ignored;
// a missing file, a duplicate entry, or a path resolving outside repoRoot is
// fatal, per spec.md §4.5 step 1.
func ValidateManifest(repoRoot, manifestPath string) ([]string, error) {
	f, err := os.Open(manifestPath)
	if err != nil {
		return nil, &model.ManifestError{Entry: manifestPath, Reason: "cannot open manifest: " + err.Error()}
	}
	defer f.Close()

	seen := make(map[string]bool)
	var entries []string

	scanner := bufio.NewScanner(f)
	line := 0
	for scanner.Scan() {
		line++
		trimmed := strings.TrimSpace(scanner.Text())
		if trimmed == "" {
			continue
		}

		rel, err := fsutil.RepoRel(repoRoot, trimmed)
		if err != nil {
			return nil, &model.ManifestError{Line: line, Entry: trimmed, Reason: err.Error()}
		}
		if _, statErr := os.Stat(filepath.Join(repoRoot, rel)); statErr != nil {
			return nil, &model.ManifestError{Line: line, Entry: trimmed, Reason: "file does not exist"}
		}
		if seen[rel] {
			return nil, &model.ManifestError{Line: line, Entry: trimmed, Reason: "duplicate manifest entry"}
		}
		seen[rel] = true
		entries = append(entries, rel)
	}
	if err := scanner.Err(); err != nil {
		return nil, &model.ManifestError{Entry: manifestPath, Reason: "reading manifest: " + err.Error()}
	}

	sort.Strings(entries)
	return entries, nil
}
