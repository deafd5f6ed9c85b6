package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/anchorsec/anchor/internal/config"
	"github.com/anchorsec/anchor/internal/dispatcher"
	"github.com/anchorsec/anchor/internal/display"
	"github.com/anchorsec/anchor/internal/llmclient"
	"github.com/anchorsec/anchor/internal/respcache"
	"github.com/anchorsec/anchor/internal/rundriver"
	"github.com/anchorsec/anchor/internal/workspace"
)

var (
	runManifest        string
	runFindingsDir     string
	runRepoRoot        string
	runModel           string
	runReasoningEffort string
	runServiceTier     string
	runLive            bool
	runLiveFormat      string
	runVerbose         bool
	runGitSince        string
	runGitWindow       int
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run one audit pass over the files listed in a manifest",
	Long: `Runs the fixed DISCOVER -> DERIVE -> PLAN -> EXEC -> JUDGE -> NARROW
pipeline once over every candidate selected for the manifest, then writes
run.json and one finding_<id>.json per claim to a timestamped run directory
under --findings-dir.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cwd, err := os.Getwd()
		if err != nil {
			return err
		}

		workspaceDir, err := workspace.Find()
		if err != nil {
			workspaceDir = cwd
		}
		cfg, err := config.Load(workspaceDir)
		if err != nil {
			return err
		}
		applyFlagOverrides(cmd, cfg)

		repoRoot := runRepoRoot
		if repoRoot == "" {
			repoRoot = cwd
		}
		findingsDir := runFindingsDir
		if findingsDir == "" {
			findingsDir = filepath.Join(cwd, "findings")
		}

		apiKey := os.Getenv("ANTHROPIC_API_KEY")
		if apiKey == "" {
			return fmt.Errorf("ANTHROPIC_API_KEY is not set")
		}

		llmCache := respcache.New(memoSubdir(cfg.Memo.Dir, "llm"))
		codexCache := respcache.New(memoSubdir(cfg.Memo.Dir, "codex"))

		tools, err := llmclient.StandardTools()
		if err != nil {
			return err
		}

		disp := display.NewWithOptions(noColorEnv())
		reporter := display.NewReporter(runLive, runLiveFormat)

		driver := rundriver.New(rundriver.Config{
			RepoRoot:     repoRoot,
			ManifestPath: runManifest,
			FindingsRoot: findingsDir,

			LLM:        llmclient.New(apiKey, llmCache),
			Dispatcher: dispatcher.New(dispatcher.Config{BinaryPath: cfg.Codex.Binary, Retries: cfg.Codex.Retries, Cache: codexCache}),
			Tools:      tools,

			Model:           cfg.LLM.Model,
			ReasoningEffort: cfg.LLM.ReasoningEffort,
			ServiceTier:     cfg.LLM.ServiceTier,

			HotspotsOn:    cfg.Seed.HotspotsOn,
			HotspotCats:   cfg.Seed.HotspotCategories,
			AutoLensOn:    cfg.Seed.AutoLensOn,
			VerbDiversity: cfg.Seed.PlanDiversityOn,
			BFSBudget:     cfg.Seed.BFSBudget,
			Workers:       cfg.Codex.Workers,
			MaxDepthSteps: 3,
			GitSinceRef:   cfg.GitSince,
			GitWindowDays: cfg.GitWindowDays,

			Display:  disp,
			Reporter: reporter,
		})

		reporter.Log("run_start", map[string]any{"manifest": runManifest, "repo_root": repoRoot})

		run, runDir, runErr := driver.Run(cmd.Context())
		if run == nil {
			disp.RunFailed(runErr)
			reporter.Log("run_failed", map[string]any{"error": runErr.Error()})
			return runErr
		}

		disp.Info("Run", fmt.Sprintf("%s -> %s", run.RunID, runDir))
		disp.RunComplete(run.Counts.FindingsWritten, run.Counts.Errors)
		reporter.Log("run_complete", map[string]any{
			"run_id":           run.RunID,
			"findings_written": run.Counts.FindingsWritten,
			"errors":           run.Counts.Errors,
		})

		if runErr != nil {
			return runErr
		}
		return nil
	},
}

func applyFlagOverrides(cmd *cobra.Command, cfg *config.Config) {
	if cmd.Flags().Changed("model") {
		cfg.LLM.Model = runModel
	}
	if cmd.Flags().Changed("reasoning-effort") {
		cfg.LLM.ReasoningEffort = runReasoningEffort
	}
	if cmd.Flags().Changed("service-tier") {
		cfg.LLM.ServiceTier = runServiceTier
	}
	if cmd.Flags().Changed("git-since") {
		cfg.GitSince = runGitSince
	}
	if cmd.Flags().Changed("git-window") {
		cfg.GitWindowDays = runGitWindow
	}
	if cmd.Flags().Changed("live") {
		cfg.Live.On = runLive
	}
	if cmd.Flags().Changed("live-format") {
		cfg.Live.Format = runLiveFormat
	}
	runLive = cfg.Live.On
	runLiveFormat = cfg.Live.Format
	if runModel == "" {
		runModel = cfg.LLM.Model
	}
	if runReasoningEffort == "" {
		runReasoningEffort = cfg.LLM.ReasoningEffort
	}
	if runServiceTier == "" {
		runServiceTier = cfg.LLM.ServiceTier
	}
}

func memoSubdir(dir, sub string) string {
	if dir == "" {
		return ""
	}
	return filepath.Join(dir, sub)
}

func noColorEnv() bool {
	return os.Getenv("NO_COLOR") != ""
}

func init() {
	runCmd.Flags().StringVar(&runManifest, "manifest", "manifest.txt", "manifest file listing repo-relative paths to audit")
	runCmd.Flags().StringVar(&runFindingsDir, "findings-dir", "", "parent directory for the timestamped run directory (default ./findings)")
	runCmd.Flags().StringVar(&runRepoRoot, "repo-root", "", "root of the repository being audited (default cwd)")
	runCmd.Flags().StringVar(&runModel, "model", "", "reasoning model id")
	runCmd.Flags().StringVar(&runReasoningEffort, "reasoning-effort", "", "low|medium|high")
	runCmd.Flags().StringVar(&runServiceTier, "service-tier", "", "LLM service tier")
	runCmd.Flags().BoolVar(&runLive, "live", false, "emit one line per pipeline event")
	runCmd.Flags().StringVar(&runLiveFormat, "live-format", "text", "text|json")
	runCmd.Flags().BoolVar(&runVerbose, "verbose", false, "accepted but has no effect; output is the same with or without it")
	runCmd.Flags().StringVar(&runGitSince, "git-since", "", "git ref to diff against for diff-seeded candidates")
	runCmd.Flags().IntVar(&runGitWindow, "git-window", 0, "days back to consider for diff-seeded candidates")
	rootCmd.AddCommand(runCmd)
}
