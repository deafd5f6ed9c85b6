// Package rundriver wires together internal/seed, internal/pipeline, and
// internal/model to execute one run: open a timestamped run directory,
// select candidates, drive the pipeline engine to a terminal verdict for
// every candidate, and persist the run.json envelope. Grounded on
// daydemir-ralph/internal/cli/run.go's top-level wiring sequence and
// original_source/run_pipeline.py's envelope construction.
package rundriver

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/anchorsec/anchor/internal/dispatcher"
	"github.com/anchorsec/anchor/internal/display"
	"github.com/anchorsec/anchor/internal/fsutil"
	"github.com/anchorsec/anchor/internal/llmclient"
	"github.com/anchorsec/anchor/internal/model"
	"github.com/anchorsec/anchor/internal/pipeline"
	"github.com/anchorsec/anchor/internal/seed"
	"github.com/anchorsec/anchor/internal/taskagent"
)

const gitInfoTimeout = 5 * time.Second

// Config holds everything one run needs: where the target repository and
// manifest live, where output goes, and the resolved engine/selector
// settings. CLI flags and ANCHOR_* env vars are merged into this struct by
// internal/config before it reaches here.
type Config struct {
	RepoRoot     string
	ManifestPath string
	FindingsRoot string // parent directory under which a timestamped run directory is created

	LLM        *llmclient.Client
	Dispatcher *dispatcher.Dispatcher
	Tools      []llmclient.ToolDef

	Model           string
	ReasoningEffort string
	ServiceTier     string

	HotspotsOn    bool
	HotspotCats   []string
	AutoLensOn    bool
	VerbDiversity bool
	BFSBudget     int
	Workers       int
	MaxDepthSteps int
	GitSinceRef   string
	GitWindowDays int

	Display  *display.Display
	Reporter *display.Reporter
}

// Driver executes one run end to end.
type Driver struct {
	cfg Config
}

// New constructs a Driver.
func New(cfg Config) *Driver {
	return &Driver{cfg: cfg}
}

// Run selects candidates, drives the pipeline engine, and returns the
// persisted run.json envelope plus the run directory it was written to. A
// ManifestError aborts before any run directory is created, per spec.md
// §8's seed property. A failure to create the run directory or to hash the
// manifest also returns a nil envelope. Any later error still returns a
// best-effort Run envelope (with Error set) so the caller can report it
// alongside whatever partial finding state reached disk.
func (d *Driver) Run(ctx context.Context) (*model.Run, string, error) {
	manifestEntries, err := seed.ValidateManifest(d.cfg.RepoRoot, d.cfg.ManifestPath)
	if err != nil {
		return nil, "", err
	}

	runID := uuid.NewString()
	runDir := filepath.Join(d.cfg.FindingsRoot, fsutil.UTCTimestamp()+"_"+runID[:8])
	if err := fsutil.EnsureDir(runDir); err != nil {
		return nil, "", err
	}

	manifestSHA1, err := hashFile(d.cfg.ManifestPath)
	if err != nil {
		return nil, "", err
	}

	run := &model.Run{
		RunID:        runID,
		ManifestPath: d.cfg.ManifestPath,
		StartedAt:    fsutil.UTCNowISO(),
		Counts:       model.RunCounts{ManifestFiles: len(manifestEntries)},
		Git:          gitInfo(ctx, d.cfg.RepoRoot),
		Version:      model.OrchestratorVersion,
		ManifestSHA1: manifestSHA1,
		LLM: model.LLMInfo{
			Model:           d.cfg.Model,
			ReasoningEffort: d.cfg.ReasoningEffort,
			ServiceTier:     d.cfg.ServiceTier,
		},
	}

	candidates, selectErr := seed.Select(ctx, seed.Options{
		RepoRoot:      d.cfg.RepoRoot,
		ManifestPath:  d.cfg.ManifestPath,
		HotspotsOn:    d.cfg.HotspotsOn,
		HotspotCats:   d.cfg.HotspotCats,
		AutoLensOn:    d.cfg.AutoLensOn,
		GitSinceRef:   d.cfg.GitSinceRef,
		GitWindowDays: d.cfg.GitWindowDays,
	})
	if selectErr != nil {
		run.FinishedAt = fsutil.UTCNowISO()
		run.Error = selectErr.Error()
		d.persistRun(run, runDir)
		return run, runDir, selectErr
	}
	run.SeedSources = seedSourceCounts(candidates)

	engine := pipeline.New(pipeline.Config{
		LLM:             d.cfg.LLM,
		Agent:           taskagent.NewAgent(d.cfg.Dispatcher, d.cfg.RepoRoot, runDir),
		Tools:           d.cfg.Tools,
		RepoRoot:        d.cfg.RepoRoot,
		FindingsDir:     runDir,
		RunID:           runID,
		Model:           d.cfg.Model,
		Effort:          d.cfg.ReasoningEffort,
		ServiceTier:     d.cfg.ServiceTier,
		Workers:         d.cfg.Workers,
		VerbDiversityOn: d.cfg.VerbDiversity,
		BFSBudget:       d.cfg.BFSBudget,
		MaxDepthSteps:   d.cfg.MaxDepthSteps,
		Display:         d.cfg.Display,
		Reporter:        d.cfg.Reporter,
	})

	pipelineCandidates := make([]pipeline.SeedCandidate, len(candidates))
	for i, c := range candidates {
		pipelineCandidates[i] = pipeline.SeedCandidate{Path: c.Path, Lenses: c.Lenses, Source: c.Source}
	}

	findings, runErr := engine.Run(ctx, pipelineCandidates)

	run.Counts.FindingsWritten = len(findings)
	if runErr != nil {
		run.Counts.Errors++
		run.Error = runErr.Error()
	}

	stats := engine.Stats()
	run.AutoLensedFiles = stats.AutoLensedFiles
	run.DiscoverRunsByLens = stats.DiscoverRunsByLens
	run.UniqueClaimsPerLens = stats.UniqueClaimsPerLens
	run.BreadthExamined = stats.BreadthExamined
	run.DepthEscalated = stats.DepthEscalated
	run.EscalationHitRate = stats.EscalationHitRate(resolvedInDepth(findings))
	run.AvgUniqueVerbsPerConditionStep2 = stats.AvgUniqueVerbsPerConditionStep2()

	run.FinishedAt = fsutil.UTCNowISO()
	if err := d.persistRun(run, runDir); err != nil {
		return run, runDir, err
	}
	return run, runDir, runErr
}

func (d *Driver) persistRun(run *model.Run, runDir string) error {
	if err := run.Validate(); err != nil {
		return err
	}
	data, err := json.MarshalIndent(run, "", "  ")
	if err != nil {
		return err
	}
	return fsutil.AtomicWrite(filepath.Join(runDir, "run.json"), data)
}

func seedSourceCounts(candidates []seed.Candidate) model.SeedSourceCounts {
	var counts model.SeedSourceCounts
	for _, c := range candidates {
		switch c.Source {
		case model.SeedHotspot:
			counts.Hotspot++
		case model.SeedDep:
			counts.Dep++
		case model.SeedDiff:
			counts.Diff++
		case model.SeedManual:
			counts.Manual++
		}
	}
	return counts
}

// resolvedInDepth counts top-level conditions, across all findings, that
// were escalated into depth (have subconditions) and ended in a non-unknown
// state, for Stats.EscalationHitRate's denominator-free numerator input.
func resolvedInDepth(findings []*model.Finding) int {
	resolved := 0
	for _, f := range findings {
		for _, c := range f.Conditions {
			if len(c.Subconditions) > 0 && c.State != model.ConditionUnknown {
				resolved++
			}
		}
	}
	return resolved
}

// gitInfo inspects the audited repository's current commit and dirty state.
// Grounded on internal/seed.ChangedFiles's use of dispatcher.RunCommand as
// the repository's one process-launch site for git; failures here degrade
// to an empty GitInfo rather than aborting the run, matching
// original_source's bare-except git wrapper style.
func gitInfo(ctx context.Context, repoRoot string) model.GitInfo {
	commit, _, err := dispatcher.RunCommand(ctx, repoRoot, gitInfoTimeout, "git", "rev-parse", "HEAD")
	if err != nil {
		return model.GitInfo{}
	}
	status, _, err := dispatcher.RunCommand(ctx, repoRoot, gitInfoTimeout, "git", "status", "--porcelain")
	dirty := err == nil && len(status) > 0
	return model.GitInfo{Commit: trimNewline(commit), Dirty: dirty}
}

func trimNewline(s string) string {
	for len(s) > 0 && (s[len(s)-1] == '\n' || s[len(s)-1] == '\r') {
		s = s[:len(s)-1]
	}
	return s
}

func hashFile(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("hashing manifest: %w", err)
	}
	sum := sha1.Sum(data)
	return hex.EncodeToString(sum[:]), nil
}
