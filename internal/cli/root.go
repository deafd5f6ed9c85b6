// Package cli wires anchor's cobra commands to internal/rundriver,
// internal/config, and internal/workspace.
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// Version is set by the release pipeline via ldflags.
var Version = "dev"

var rootCmd = &cobra.Command{
	Use:   "anchor",
	Short: "Deterministic LLM-driven security-bug triage over a read-only Codex subprocess",
	Long: `anchor adjudicates security-bug claims against a repository by driving a
read-only Codex CLI subprocess and an LLM reasoning service through a fixed
pipeline: DISCOVER selects and scopes candidate files, DERIVE breaks each
claim into conditions, PLAN proposes evidence-gathering tasks, EXEC runs
them against the Codex agent, JUDGE scores the evidence, and NARROW
escalates unresolved conditions before the finding's final verdict is
aggregated and written to disk.

Workflow:
  1. anchor init                         # scaffold .anchor/config.yaml
  2. List files to audit in manifest.txt
  3. anchor run --manifest manifest.txt  # run one pass`,
	Version: Version,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.SetVersionTemplate(fmt.Sprintf("anchor version %s\n", Version))
}

func exitError(msg string) {
	fmt.Fprintln(os.Stderr, "Error:", msg)
	os.Exit(1)
}
