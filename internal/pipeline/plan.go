package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/anchorsec/anchor/internal/model"
	"github.com/anchorsec/anchor/internal/prompts"
	"github.com/anchorsec/anchor/internal/taskagent"
)

// planInput is the payload the plan banner sees: the condition's contract
// and the latest observation's summary, if any.
type planInput struct {
	Description     string `json:"description"`
	Accept          string `json:"accept"`
	Reject          string `json:"reject"`
	LatestSummary   string `json:"latest_summary,omitempty"`
	MustChangeClass bool   `json:"must_change_operation_class"`
}

// latestSummary returns the most recently recorded observation's summary, or
// "" if the condition has no evidence yet.
func latestSummary(c *model.Condition) string {
	if len(c.Evidence) == 0 {
		return ""
	}
	obs, err := model.ParseExecObservation([]byte(c.Evidence[len(c.Evidence)-1]))
	if err != nil {
		return ""
	}
	return obs.Summary
}

// plan calls the LLM emit_tasks for condition c, deterministically
// post-processes the reply into task-agent strings.
func (e *Engine) plan(ctx context.Context, path string, c *model.Condition) ([]string, error) {
	banner, err := prompts.GetAgent("plan")
	if err != nil {
		return nil, fmt.Errorf("loading plan banner: %w", err)
	}

	summary := latestSummary(c)
	payload := planInput{
		Description:     c.Description,
		Accept:          c.Accept,
		Reject:          c.Reject,
		LatestSummary:   summary,
		MustChangeClass: strings.HasPrefix(summary, "error:"),
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	call, err := e.cfg.LLM.Generate(ctx, llmRequest(e.cfg, banner, string(body), model.ToolEmitTasks))
	if err != nil {
		return nil, fmt.Errorf("plan: generate: %w", err)
	}

	var args model.EmitTasksArgs
	if err := decodeArgsInto(call.Args, &args); err != nil {
		return nil, fmt.Errorf("plan: decoding emit_tasks args: %w", err)
	}

	tasks := postprocessTasks(path, c, args.Tasks, e.cfg.VerbDiversityOn)
	e.stage("PLAN", c.Description, fmt.Sprintf("%d tasks", len(tasks)))
	e.emit("planned", map[string]any{"condition": c.Description, "tasks": len(tasks)})
	return tasks, nil
}

// postprocessTasks applies the deterministic, engine-side PLAN
// post-processing: keep exec-mode non-empty tasks, dedup, enforce verb
// diversity, collapse to one task per verb, cap at three, and append a
// synthetic callgraph/dataflow task if neither appears.
func postprocessTasks(path string, c *model.Condition, specs []model.TaskSpec, diversityOn bool) []string {
	type kept struct {
		verb, text string
	}

	seenByKey := map[string]bool{}
	var candidates []kept
	for _, s := range specs {
		if s.Mode != "exec" || strings.TrimSpace(s.Task) == "" {
			continue
		}
		key := s.Mode + "\x00" + s.Task
		if seenByKey[key] {
			continue
		}
		seenByKey[key] = true
		candidates = append(candidates, kept{verb: taskagent.Verb(s.Task), text: s.Task})
	}

	if diversityOn {
		var filtered []kept
		enoughVerbsUsed := len(c.UsedVerbs) >= 3
		for _, k := range candidates {
			if k.verb == c.LastVerb {
				continue
			}
			if !enoughVerbsUsed && c.HasUsedVerb(k.verb) {
				continue
			}
			filtered = append(filtered, k)
		}
		candidates = filtered
	}

	seenVerb := map[string]bool{}
	var byVerb []kept
	for _, k := range candidates {
		if seenVerb[k.verb] {
			continue
		}
		seenVerb[k.verb] = true
		byVerb = append(byVerb, k)
	}
	if len(byVerb) > 3 {
		byVerb = byVerb[:3]
	}

	hasDeepVerb := false
	for _, k := range byVerb {
		if k.verb == "callgraph" || k.verb == "dataflow" {
			hasDeepVerb = true
			break
		}
	}
	if !hasDeepVerb {
		byVerb = append(byVerb, kept{
			verb: "callgraph",
			text: "callgraph shortest-path from any discovered sink symbol to any public entrypoint",
		})
	}

	tasks := make([]string, 0, len(byVerb))
	for _, k := range byVerb {
		tasks = append(tasks, taskagent.FormatExecTask(path, k.text))
	}
	return tasks
}
