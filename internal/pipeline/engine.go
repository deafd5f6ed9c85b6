// Package pipeline implements the per-finding state machine: DERIVE, PLAN,
// EXEC, JUDGE, NARROW, plus the two-phase breadth/depth scheduler that
// bounds how many resolve cycles each condition gets. Structured the way
// daydemir-ralph/internal/executor structures its own driver loop (Config,
// New, a per-item entrypoint, an outer multi-item driver); the control
// algorithm itself has no teacher analogue and is new.
package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"path/filepath"

	"github.com/anchorsec/anchor/internal/display"
	"github.com/anchorsec/anchor/internal/fsutil"
	"github.com/anchorsec/anchor/internal/llmclient"
	"github.com/anchorsec/anchor/internal/model"
)

// llmGenerator is the subset of *llmclient.Client the engine depends on,
// narrowed to an interface so tests can substitute a scripted fake, mirroring
// internal/taskagent's execer pattern.
type llmGenerator interface {
	Generate(ctx context.Context, req llmclient.GenerateRequest) (*llmclient.ToolCall, error)
}

// codexAgent is the subset of *taskagent.Agent the engine depends on.
type codexAgent interface {
	RunDiscover(ctx context.Context, task string) (model.DiscoverObservation, error)
	RunExec(ctx context.Context, task string) (model.ExecObservation, error)
}

// SeedCandidate is the engine's view of one seed-selector output, duplicated
// here rather than importing internal/seed so the pipeline has no dependency
// on seed selection; internal/rundriver adapts seed.Candidate into this
// shape.
type SeedCandidate struct {
	Path   string
	Lenses []string
	Source model.SeedSource
}

// Config wires the engine's collaborators and budgets.
type Config struct {
	LLM   llmGenerator
	Agent codexAgent
	Tools []llmclient.ToolDef

	RepoRoot    string
	FindingsDir string
	RunID       string

	Model       string
	Effort      string
	ServiceTier string

	Workers         int // EXEC fan-out width, default 4
	VerbDiversityOn bool
	BFSBudget       int // depth-pass condition cap, default 10
	MaxDepthSteps   int // depth-pass step budget, default 3

	// Display and Reporter are both optional. A nil Display prints nothing;
	// a nil Reporter is a no-op per its own nil-receiver contract.
	Display  *display.Display
	Reporter *display.Reporter
}

func (c *Config) applyDefaults() {
	if c.Workers <= 0 {
		c.Workers = 4
	}
	if c.BFSBudget <= 0 {
		c.BFSBudget = 10
	}
	if c.MaxDepthSteps <= 0 {
		c.MaxDepthSteps = 3
	}
}

// Stats accumulates the optional run.json counters.
type Stats struct {
	BreadthExamined     int
	DepthEscalated      int
	DiscoverRunsByLens  map[string]int
	UniqueClaimsPerLens map[string]int
	AutoLensedFiles     int

	avgVerbsSum   float64
	avgVerbsCount int
}

// recordStep2Verbs folds one condition's used-verb count into the running
// average the first time that condition reaches a depth-pass step.
func (s *Stats) recordStep2Verbs(usedVerbs int) {
	s.avgVerbsSum += float64(usedVerbs)
	s.avgVerbsCount++
}

// AvgUniqueVerbsPerConditionStep2 reports run.json's optional
// avg_unique_verbs_per_condition_step2 field.
func (s *Stats) AvgUniqueVerbsPerConditionStep2() float64 {
	if s.avgVerbsCount == 0 {
		return 0
	}
	return s.avgVerbsSum / float64(s.avgVerbsCount)
}

// EscalationHitRate is the fraction of depth-escalated conditions that
// reached a terminal (non-unknown) state by the end of the depth pass.
func (s *Stats) EscalationHitRate(resolvedInDepth int) float64 {
	if s.DepthEscalated == 0 {
		return 0
	}
	return float64(resolvedInDepth) / float64(s.DepthEscalated)
}

// Engine runs the pipeline over a batch of findings.
type Engine struct {
	cfg   Config
	stats Stats
}

// New constructs an Engine with Config defaults applied.
func New(cfg Config) *Engine {
	cfg.applyDefaults()
	return &Engine{
		cfg: cfg,
		stats: Stats{
			DiscoverRunsByLens:  map[string]int{},
			UniqueClaimsPerLens: map[string]int{},
		},
	}
}

// Stats returns the engine's accumulated run-level counters.
func (e *Engine) Stats() Stats {
	return e.stats
}

// findingPath returns the on-disk path for a finding's JSON file.
func (e *Engine) findingPath(findingID string) string {
	return filepath.Join(e.cfg.FindingsDir, fmt.Sprintf("finding_%s.json", findingID))
}

// persist writes f atomically, per the "rewritten end-to-end on every state
// change" contract.
func (e *Engine) persist(f *model.Finding) error {
	if err := f.Validate(); err != nil {
		return fmt.Errorf("validating finding %s before persist: %w", f.FindingID, err)
	}
	data, err := json.MarshalIndent(f, "", "  ")
	if err != nil {
		return err
	}
	return fsutil.AtomicWrite(e.findingPath(f.FindingID), data)
}

// decodeArgsInto re-marshals a generic tool-call argument map into dst,
// since llmclient.ToolCall.Args is a map[string]any rather than a typed
// struct: the LLM's reply is only known to match a schema, not a Go type,
// until this point.
func decodeArgsInto(args map[string]any, dst any) error {
	raw, err := json.Marshal(args)
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, dst)
}

// emit logs a live event through cfg.Reporter, which is nil-receiver-safe.
func (e *Engine) emit(event string, data map[string]any) {
	e.cfg.Reporter.Log(event, data)
}

// stage prints a boxed stage banner when a Display is configured; a nil
// Display (the default in tests and non-interactive runs) makes this a
// no-op rather than a required collaborator.
func (e *Engine) stage(title string, lines ...string) {
	if e.cfg.Display != nil {
		e.cfg.Display.Stage(title, lines...)
	}
}

// primaryLens returns the first lens in lenses, or "" if none.
func primaryLens(lenses []string) string {
	if len(lenses) == 0 {
		return ""
	}
	return lenses[0]
}
