package pipeline

import (
	"context"
	"sort"
	"testing"

	"github.com/anchorsec/anchor/internal/model"
)

func TestExecBatchReordersByInputSHA1(t *testing.T) {
	agent := newFakeAgent()
	tasks := []string{
		"codex:exec:a.py::zebra task",
		"codex:exec:a.py::alpha task",
		"codex:exec:a.py::mid task",
	}
	for _, task := range tasks {
		agent.exec[task] = []execReply{{obs: model.ExecObservation{
			SchemaVersion: model.SchemaVersion, Stage: "exec", Summary: "ok: " + task,
			Citations: []model.Citation{{Path: "a.py", StartLine: 1, EndLine: 1}},
		}}}
	}

	e := New(Config{Agent: agent, Workers: 4})
	results, err := e.execBatch(context.Background(), tasks)
	if err != nil {
		t.Fatalf("execBatch: %v", err)
	}

	want := append([]string{}, tasks...)
	sort.Slice(want, func(i, j int) bool { return inputSHA1(want[i]) < inputSHA1(want[j]) })

	for i, r := range results {
		if r.task != want[i] {
			t.Fatalf("execBatch[%d].task = %q, want %q (sorted by input_sha1)", i, r.task, want[i])
		}
	}
}

func TestExecBatchOrderIndependentOfInputOrder(t *testing.T) {
	agent := newFakeAgent()
	tasks := []string{"codex:exec:a.py::one", "codex:exec:a.py::two", "codex:exec:a.py::three"}
	for _, task := range tasks {
		agent.exec[task] = []execReply{{obs: model.ExecObservation{
			SchemaVersion: model.SchemaVersion, Stage: "exec", Summary: "ok",
			Citations: []model.Citation{{Path: "a.py", StartLine: 1, EndLine: 1}},
		}}}
	}
	reversed := []string{tasks[2], tasks[1], tasks[0]}
	agent2 := newFakeAgent()
	for _, task := range tasks {
		agent2.exec[task] = []execReply{{obs: model.ExecObservation{
			SchemaVersion: model.SchemaVersion, Stage: "exec", Summary: "ok",
			Citations: []model.Citation{{Path: "a.py", StartLine: 1, EndLine: 1}},
		}}}
	}

	e1 := New(Config{Agent: agent, Workers: 4})
	e2 := New(Config{Agent: agent2, Workers: 4})

	r1, err := e1.execBatch(context.Background(), tasks)
	if err != nil {
		t.Fatalf("execBatch: %v", err)
	}
	r2, err := e2.execBatch(context.Background(), reversed)
	if err != nil {
		t.Fatalf("execBatch: %v", err)
	}

	if len(r1) != len(r2) {
		t.Fatalf("result length mismatch: %d vs %d", len(r1), len(r2))
	}
	for i := range r1 {
		if r1[i].task != r2[i].task {
			t.Fatalf("execBatch order depends on input order at %d: %q vs %q", i, r1[i].task, r2[i].task)
		}
	}
}

func TestTaskGoalExtractsAfterFirstDoubleColon(t *testing.T) {
	if got := taskGoal("codex:exec:a.py::search for strcmp"); got != "search for strcmp" {
		t.Fatalf("taskGoal = %q, want %q", got, "search for strcmp")
	}
	if got := taskGoal("codex:exec:a.py"); got != "" {
		t.Fatalf("taskGoal = %q, want empty for a task with no goal separator", got)
	}
}
