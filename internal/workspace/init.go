package workspace

import (
	"fmt"
	"os"
	"path/filepath"
)

// Init creates a new anchor workspace in the current directory: just the
// .anchor/config.yaml scaffold. Unlike the teacher, there is no
// roadmap/PRD/codebase-map to seed — an audit run takes a manifest file as
// its input, not a planning tree.
func Init(force bool) error {
	cwd, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("failed to get current directory: %w", err)
	}

	anchorPath := filepath.Join(cwd, AnchorDir)

	if _, err := os.Stat(anchorPath); err == nil {
		if !force {
			return ErrWorkspaceExists
		}
		if err := os.RemoveAll(anchorPath); err != nil {
			return fmt.Errorf("failed to remove existing workspace: %w", err)
		}
	}

	if err := os.MkdirAll(anchorPath, 0o755); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", anchorPath, err)
	}

	if err := writeFile(filepath.Join(anchorPath, "config.yaml"), defaultConfigYAML); err != nil {
		return err
	}

	fmt.Println("Initialized anchor workspace in", anchorPath)
	fmt.Println()
	fmt.Println("Next steps:")
	fmt.Println("  1. List the files to audit, one repo-relative path per line, in manifest.txt")
	fmt.Println("  2. Edit .anchor/config.yaml if the defaults don't fit")
	fmt.Println("  3. Run 'anchor run --manifest manifest.txt' to start a pass")

	return nil
}

func writeFile(path, content string) error {
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}

const defaultConfigYAML = `# anchor configuration
llm:
  model: claude-sonnet-4-5
  reasoning_effort: medium     # low | medium | high
  service_tier: default

codex:
  binary: codex                # path to the Codex CLI, or a name on PATH
  retries: 3
  workers: 4

seed:
  hotspots: true
  hotspot_categories: []       # empty means all categories
  auto_lens: true
  plan_diversity: true
  bfs_budget: 10

live:
  on: false
  format: text                 # text | json

git_window_days: 14

# memo:
#   dir: ""                    # set LLM_MEMO_DIR (or this) to enable replay
`
