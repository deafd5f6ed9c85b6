package taskagent

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/anchorsec/anchor/internal/dispatcher"
	"github.com/anchorsec/anchor/internal/model"
)

// DefaultTimeout is the wall-clock budget for a single Codex invocation when
// a task does not override it, per spec.md §4.3 step 3.
const DefaultTimeout = 60 * time.Second

// execer is the dispatcher surface Agent depends on, narrowed to an
// interface (grounded on daydemir-ralph/internal/llm.Backend) so tests can
// substitute a fake Codex without launching a subprocess.
type execer interface {
	Exec(ctx context.Context, opts dispatcher.ExecOptions) (*dispatcher.ExecResult, error)
}

// Agent drives one task string to a validated Observation by invoking the
// dispatcher and normalizing both its replies and its failures.
type Agent struct {
	Dispatcher execer
	RepoRoot   string
	WorkDir    string // read-only checkout handed to Codex's -C flag
	Timeout    time.Duration
}

// NewAgent constructs an Agent with DefaultTimeout unless cfg overrides it.
func NewAgent(d *dispatcher.Dispatcher, repoRoot, workDir string) *Agent {
	return &Agent{Dispatcher: d, RepoRoot: repoRoot, WorkDir: workDir, Timeout: DefaultTimeout}
}

// RunDiscover parses and executes a codex:discover:... task, returning a
// validated DiscoverObservation. Per spec.md §4.3, a discover failure has no
// degraded-observation fallback: the caller treats the error as fatal to that
// seed candidate.
func (a *Agent) RunDiscover(ctx context.Context, task string) (model.DiscoverObservation, error) {
	t, err := ParseTask(a.RepoRoot, task)
	if err != nil {
		return model.DiscoverObservation{}, err
	}
	if t.Stage != model.StageDiscover {
		return model.DiscoverObservation{}, fmt.Errorf("RunDiscover given a %s task", t.Stage)
	}

	raw, err := a.dispatch(ctx, t)
	if err != nil {
		return model.DiscoverObservation{}, err
	}
	return model.ParseDiscoverObservation([]byte(raw))
}

// RunExec parses and executes a codex:exec:... task, returning a validated
// ExecObservation. Dispatcher failures (timeout, non-zero exit) and
// schema-invalid replies are never propagated as errors: per spec.md §4.3
// step 5, they become a degraded error observation so the pipeline can keep
// judging with an "unknown"-leaning signal instead of aborting the run.
func (a *Agent) RunExec(ctx context.Context, task string) (model.ExecObservation, error) {
	t, err := ParseTask(a.RepoRoot, task)
	if err != nil {
		return model.ExecObservation{}, err
	}
	if t.Stage != model.StageExec {
		return model.ExecObservation{}, fmt.Errorf("RunExec given a %s task", t.Stage)
	}

	raw, dispatchErr := a.dispatch(ctx, t)
	if dispatchErr != nil {
		return a.degrade(dispatchErr), nil
	}

	obs, parseErr := model.ParseExecObservation([]byte(raw))
	if parseErr != nil {
		// Validation rejects a non-error summary without citations, so that
		// shape is recognized here and rewritten rather than discarded.
		var bare model.ExecObservation
		if json.Unmarshal([]byte(raw), &bare) == nil && bare.SchemaVersion == model.SchemaVersion &&
			bare.Stage == "exec" && bare.Summary != "" && !bare.IsError() && len(bare.Citations) == 0 {
			return bare.WithMissingCitation(), nil
		}
		return model.NewErrorObservation("invalid-reply"), nil
	}
	if !obs.IsError() && len(obs.Citations) == 0 {
		return obs.WithMissingCitation(), nil
	}
	return obs, nil
}

// degrade maps a dispatcher failure to the degraded exec_observation spec.md
// §4.3 step 5 names: "error: timeout" for a wall-clock timeout, "error:
// codex-exit <code>" for a non-zero exit, and a generic reason otherwise.
func (a *Agent) degrade(err error) model.ExecObservation {
	var timeoutErr *model.DispatcherTimeoutError
	var exitErr *model.DispatcherExitError
	switch {
	case errors.As(err, &timeoutErr):
		return model.NewErrorObservation("timeout")
	case errors.As(err, &exitErr):
		return model.NewErrorObservation(fmt.Sprintf("codex-exit %d", exitErr.ReturnCode))
	default:
		return model.NewErrorObservation(err.Error())
	}
}

// dispatch builds t's prompt and invokes the dispatcher, returning Codex's
// raw last-message text.
func (a *Agent) dispatch(ctx context.Context, t Task) (string, error) {
	prompt, err := BuildPrompt(t)
	if err != nil {
		return "", err
	}

	timeout := a.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	result, err := a.Dispatcher.Exec(ctx, dispatcher.ExecOptions{
		Prompt:  prompt,
		WorkDir: a.WorkDir,
		Timeout: timeout,
	})
	if err != nil {
		return "", err
	}
	return result.Stdout, nil
}
