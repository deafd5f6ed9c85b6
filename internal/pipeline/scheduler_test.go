package pipeline

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/anchorsec/anchor/internal/model"
)

func newTestEngine(t *testing.T, repoRoot string) *Engine {
	t.Helper()
	return New(Config{RepoRoot: repoRoot})
}

func writeRepoFile(t *testing.T, root, rel, content string) {
	t.Helper()
	path := filepath.Join(root, rel)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func execEvidence(t *testing.T, obs model.ExecObservation) string {
	t.Helper()
	raw, err := obs.MarshalEvidence()
	if err != nil {
		t.Fatal(err)
	}
	return raw
}

func TestScoreConditionNoEvidence(t *testing.T) {
	e := newTestEngine(t, t.TempDir())
	c := model.NewCondition("d", "w", "a", "r", nil)

	if got := e.scoreCondition(c); got != 0 {
		t.Fatalf("scoreCondition = %d, want 0", got)
	}
}

func TestScoreConditionCitationAndSinkKeyword(t *testing.T) {
	root := t.TempDir()
	writeRepoFile(t, root, "a.py", "import subprocess\nsubprocess.run(cmd)\n")
	e := newTestEngine(t, root)

	c := model.NewCondition("d", "w", "a", "r", nil)
	obs := model.ExecObservation{
		SchemaVersion: model.SchemaVersion,
		Stage:         "exec",
		Summary:       "sink reached",
		Citations:     []model.Citation{{Path: "a.py", StartLine: 1, EndLine: 2}},
	}
	c.Evidence = append(c.Evidence, execEvidence(t, obs))

	if got := e.scoreCondition(c); got != 4 {
		t.Fatalf("scoreCondition = %d, want 4 (non-error+citation +2, sink keyword +2)", got)
	}
}

func TestScoreConditionTaintKeywordInSummary(t *testing.T) {
	root := t.TempDir()
	writeRepoFile(t, root, "a.py", "def handler():\n    pass\n")
	e := newTestEngine(t, root)

	c := model.NewCondition("d", "w", "a", "r", nil)
	obs := model.ExecObservation{
		SchemaVersion: model.SchemaVersion,
		Stage:         "exec",
		Summary:       "user-controlled input reaches handler",
		Citations:     []model.Citation{{Path: "a.py", StartLine: 1, EndLine: 2}},
	}
	c.Evidence = append(c.Evidence, execEvidence(t, obs))

	if got := e.scoreCondition(c); got != 3 {
		t.Fatalf("scoreCondition = %d, want 3 (non-error+citation +2, taint keyword +1)", got)
	}
}

func TestScoreConditionErrorObservationScoresZero(t *testing.T) {
	e := newTestEngine(t, t.TempDir())
	c := model.NewCondition("d", "w", "a", "r", nil)
	c.Evidence = append(c.Evidence, execEvidence(t, model.NewErrorObservation("timeout")))

	if got := e.scoreCondition(c); got != 0 {
		t.Fatalf("scoreCondition = %d, want 0 for an error-only observation", got)
	}
}

func TestRankForDepthPassSortsByScoreThenInputOrder(t *testing.T) {
	f := &model.Finding{}
	low := scoredCondition{finding: f, cond: model.NewCondition("low", "", "", "", nil), score: 1, order: 0}
	high := scoredCondition{finding: f, cond: model.NewCondition("high", "", "", "", nil), score: 5, order: 1}
	tie1 := scoredCondition{finding: f, cond: model.NewCondition("tie1", "", "", "", nil), score: 3, order: 2}
	tie2 := scoredCondition{finding: f, cond: model.NewCondition("tie2", "", "", "", nil), score: 3, order: 3}

	got := rankForDepthPass([]scoredCondition{low, high, tie1, tie2}, 10)

	want := []string{"high", "tie1", "tie2", "low"}
	for i, w := range want {
		if got[i].cond.Description != w {
			t.Fatalf("rankForDepthPass[%d] = %q, want %q", i, got[i].cond.Description, w)
		}
	}
}

func TestRankForDepthPassRespectsBudget(t *testing.T) {
	f := &model.Finding{}
	a := scoredCondition{finding: f, cond: model.NewCondition("a", "", "", "", nil), score: 5, order: 0}
	b := scoredCondition{finding: f, cond: model.NewCondition("b", "", "", "", nil), score: 1, order: 1}

	got := rankForDepthPass([]scoredCondition{a, b}, 1)

	if len(got) != 1 || got[0].cond.Description != "a" {
		t.Fatalf("rankForDepthPass = %+v, want only the top-scoring condition", got)
	}
}
