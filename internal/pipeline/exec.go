package pipeline

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"sort"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/anchorsec/anchor/internal/model"
	"github.com/anchorsec/anchor/internal/taskagent"
)

// taskResult pairs one dispatched task with its observation and the
// content-addressed sort key EXEC reorders by.
type taskResult struct {
	task      string
	inputSHA1 string
	obs       model.ExecObservation
}

func inputSHA1(task string) string {
	sum := sha1.Sum([]byte(task))
	return hex.EncodeToString(sum[:])
}

// execBatch dispatches tasks to the task agent in parallel with a bounded
// worker pool, then returns results reordered by input_sha1 so the batch is
// deterministic independent of completion timing.
func (e *Engine) execBatch(ctx context.Context, tasks []string) ([]taskResult, error) {
	results := make([]taskResult, len(tasks))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.cfg.Workers)

	for i, task := range tasks {
		i, task := i, task
		g.Go(func() error {
			obs, err := e.cfg.Agent.RunExec(gctx, task)
			if err != nil {
				return err
			}
			results[i] = taskResult{task: task, inputSHA1: inputSHA1(task), obs: obs}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].inputSHA1 < results[j].inputSHA1
	})
	return results, nil
}

// runExec executes tasks against condition c of finding f, recording
// evidence, the tasks_log entry, and used-verb bookkeeping, then persists f.
func (e *Engine) runExec(ctx context.Context, f *model.Finding, c *model.Condition, tasks []string) error {
	if e.cfg.Display != nil {
		for _, t := range tasks {
			e.cfg.Display.TaskStart(t)
		}
	}

	results, err := e.execBatch(ctx, tasks)
	if err != nil {
		return err
	}

	executed := make([]model.ExecObservation, 0, len(results))
	for _, r := range results {
		executed = append(executed, r.obs)
		evidence, err := r.obs.MarshalEvidence()
		if err != nil {
			return err
		}
		c.Evidence = append(c.Evidence, evidence)
		c.RecordVerb(taskagent.Verb(taskGoal(r.task)))

		if e.cfg.Display != nil {
			e.cfg.Display.TaskResult(r.obs.Summary, len(r.obs.Citations))
		}
	}
	e.emit("exec_batch", map[string]any{"condition": c.Description, "tasks": len(tasks)})

	f.TasksLog = append(f.TasksLog, model.TasksLogEntry{
		Condition: c.Description,
		Executed:  executed,
	})
	return e.persist(f)
}

// taskGoal extracts the free-form goal text from a codex:exec:<path>::<goal>
// task string, for verb bookkeeping after PLAN has already formatted it.
func taskGoal(task string) string {
	_, goal, ok := strings.Cut(task, "::")
	if !ok {
		return ""
	}
	return goal
}
