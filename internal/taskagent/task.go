// Package taskagent is the only code in this module that mints Codex
// prompts: it parses the orchestrator's task strings, builds stage-banner
// prompts, invokes the dispatcher, and normalizes the reply (or its
// failure) into a validated Observation. Grounded on
// original_source/codex_agent.py, generalized from its toy read/stat
// grammar to spec.md §4.3's discover/exec grammar.
package taskagent

import (
	"fmt"
	"strings"

	"github.com/anchorsec/anchor/internal/fsutil"
	"github.com/anchorsec/anchor/internal/model"
)

// Task is a parsed task string.
type Task struct {
	Stage model.PipelineStage // discover or exec
	Path  string              // repo-relative path, already validated
	Lens  string              // discover only; coarse taxonomy hint, optional
	Goal  string              // exec only; free-form evidence-gathering goal
}

// ParseTask parses one of the two fixed task grammars spec.md §4.3 names:
//
//	codex:discover:<path>[::<lens>]
//	codex:exec:<path>::<goal>
func ParseTask(repoRoot, task string) (Task, error) {
	const prefix = "codex:"
	if !strings.HasPrefix(task, prefix) {
		return Task{}, fmt.Errorf("unsupported task %q: missing codex: prefix", task)
	}
	rest := task[len(prefix):]

	parts := strings.SplitN(rest, ":", 2)
	if len(parts) != 2 {
		return Task{}, fmt.Errorf("unsupported task %q: missing stage separator", task)
	}
	stage, tail := parts[0], parts[1]

	switch stage {
	case "discover":
		fields := strings.SplitN(tail, "::", 2)
		path, err := fsutil.RepoRel(repoRoot, fields[0])
		if err != nil {
			return Task{}, err
		}
		t := Task{Stage: model.StageDiscover, Path: path}
		if len(fields) == 2 {
			t.Lens = fields[1]
		}
		return t, nil
	case "exec":
		fields := strings.SplitN(tail, "::", 2)
		if len(fields) != 2 || fields[1] == "" {
			return Task{}, fmt.Errorf("unsupported task %q: exec requires ::<goal>", task)
		}
		path, err := fsutil.RepoRel(repoRoot, fields[0])
		if err != nil {
			return Task{}, err
		}
		return Task{Stage: model.StageExec, Path: path, Goal: fields[1]}, nil
	default:
		return Task{}, fmt.Errorf("unsupported task %q: unknown stage %q", task, stage)
	}
}

// FormatExecTask renders the task-agent form PLAN post-processing produces:
// codex:exec:<p>::<text>, per spec.md §4.6 PLAN step 2.
func FormatExecTask(path, text string) string {
	return fmt.Sprintf("codex:exec:%s::%s", path, text)
}

// FormatDiscoverTask renders a discover task string, optionally with a lens.
func FormatDiscoverTask(path, lens string) string {
	if lens == "" {
		return fmt.Sprintf("codex:discover:%s", path)
	}
	return fmt.Sprintf("codex:discover:%s::%s", path, lens)
}

// Verb returns the leading verb of an exec goal, used for diversity
// bookkeeping (§4.6 PLAN step 3). Goals are expected to begin with a verb
// like search, read-file, ast-parse, callgraph, dataflow, but any leading
// token is accepted as a hint, not validated.
func Verb(goal string) string {
	fields := strings.Fields(goal)
	if len(fields) == 0 {
		return ""
	}
	return strings.ToLower(fields[0])
}
