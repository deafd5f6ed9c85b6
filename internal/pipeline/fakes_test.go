package pipeline

import (
	"context"
	"fmt"
	"sync"

	"github.com/anchorsec/anchor/internal/llmclient"
	"github.com/anchorsec/anchor/internal/model"
)

// fakeAgent is a scripted codexAgent: discover/exec replies keyed by the
// exact task string, consumed once (popped) so call order is observable.
type fakeAgent struct {
	mu       sync.Mutex // EXEC runs a batch's tasks concurrently
	discover map[string][]model.DiscoverObservation
	exec     map[string][]execReply
}

type execReply struct {
	obs model.ExecObservation
	err error
}

func newFakeAgent() *fakeAgent {
	return &fakeAgent{
		discover: map[string][]model.DiscoverObservation{},
		exec:     map[string][]execReply{},
	}
}

func (f *fakeAgent) RunDiscover(ctx context.Context, task string) (model.DiscoverObservation, error) {
	q := f.discover[task]
	if len(q) == 0 {
		return model.DiscoverObservation{}, fmt.Errorf("fakeAgent: no discover reply scripted for %q", task)
	}
	f.discover[task] = q[1:]
	return q[0], nil
}

func (f *fakeAgent) RunExec(ctx context.Context, task string) (model.ExecObservation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	q := f.exec[task]
	if len(q) == 0 {
		return model.ExecObservation{}, fmt.Errorf("fakeAgent: no exec reply scripted for %q", task)
	}
	f.exec[task] = q[1:]
	return q[0].obs, q[0].err
}

// fakeLLM is a scripted llmGenerator: one reply queue per tool name.
type fakeLLM struct {
	byTool map[string][]llmclient.ToolCall
	calls  []llmclient.GenerateRequest
}

func newFakeLLM() *fakeLLM {
	return &fakeLLM{byTool: map[string][]llmclient.ToolCall{}}
}

func (f *fakeLLM) script(tool string, call llmclient.ToolCall) {
	f.byTool[tool] = append(f.byTool[tool], call)
}

func (f *fakeLLM) Generate(ctx context.Context, req llmclient.GenerateRequest) (*llmclient.ToolCall, error) {
	f.calls = append(f.calls, req)
	q := f.byTool[req.ToolChoice]
	if len(q) == 0 {
		return nil, fmt.Errorf("fakeLLM: no reply scripted for tool %q", req.ToolChoice)
	}
	f.byTool[req.ToolChoice] = q[1:]
	call := q[0]
	return &call, nil
}

// condSpecArgs builds an emit_conditions tool-call args map for one
// condition, args-shaped the way decodeArgsInto expects to unmarshal it.
func condSpecArgs(specs ...map[string]any) map[string]any {
	return map[string]any{
		"schema_version": 1,
		"stage":          "derive",
		"conditions":     specs,
	}
}

func condSpec(desc, why, accept, reject string, suggested ...string) map[string]any {
	return map[string]any{
		"desc":            desc,
		"why":             why,
		"accept":          accept,
		"reject":          reject,
		"suggested_tasks": suggested,
	}
}

func taskSpecArgs(tasks ...map[string]any) map[string]any {
	return map[string]any{
		"schema_version": 1,
		"stage":          "plan",
		"tasks":          tasks,
	}
}

func taskSpec(task, why string) map[string]any {
	return map[string]any{"task": task, "why": why, "mode": "exec"}
}

func judgeArgs(state, rationale string, refs ...int) map[string]any {
	return map[string]any{
		"schema_version": 1,
		"stage":          "judge",
		"state":          state,
		"rationale":      rationale,
		"evidence_refs":  refs,
	}
}
