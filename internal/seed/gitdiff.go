package seed

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/anchorsec/anchor/internal/dispatcher"
	"github.com/anchorsec/anchor/internal/fsutil"
)

const gitTimeout = 10 * time.Second

// ChangedFiles returns repo-relative *.py paths changed since sinceRef (if
// set) or within windowDays, per spec.md §4.5 step 3. Grounded on
// original_source/util/git_diff.py's git_changed_files, reimplemented over
// internal/dispatcher.RunCommand so the repository has one process-launch
// site rather than a second ad hoc os/exec call, with the Python-only
// filter and existence check applied the same way the original does.
func ChangedFiles(ctx context.Context, repoRoot, sinceRef string, windowDays int) ([]string, error) {
	var args []string
	if windowDays > 0 {
		since := time.Now().UTC().AddDate(0, 0, -windowDays).Format("2006-01-02")
		args = []string{"log", "--since", since, "--name-only", "--pretty=format:"}
	} else {
		args = []string{"diff", "--name-only"}
		if sinceRef != "" {
			args = append(args, sinceRef+"..HEAD")
		}
	}

	stdout, _, err := dispatcher.RunCommand(ctx, repoRoot, gitTimeout, "git", args...)
	if err != nil {
		// git failures (e.g. not a repository, no commits yet) degrade to no
		// diffed files rather than aborting the run, matching
		// git_changed_files' bare except.
		return nil, nil
	}

	var files []string
	for _, line := range strings.Split(stdout, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || !strings.HasSuffix(line, ".py") {
			continue
		}
		rel, err := fsutil.RepoRel(repoRoot, line)
		if err != nil {
			continue
		}
		if _, statErr := os.Stat(filepath.Join(repoRoot, rel)); statErr != nil {
			continue // file since deleted; git_changed_files drops these too
		}
		files = append(files, rel)
	}
	return dedupPreserveOrder(files), nil
}

func dedupPreserveOrder(items []string) []string {
	seen := make(map[string]bool, len(items))
	out := make([]string, 0, len(items))
	for _, item := range items {
		if seen[item] {
			continue
		}
		seen[item] = true
		out = append(out, item)
	}
	return out
}
