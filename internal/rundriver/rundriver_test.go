package rundriver

import (
	"context"
	"encoding/json"
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/anchorsec/anchor/internal/model"
	"github.com/anchorsec/anchor/internal/seed"
)

func TestSeedSourceCountsTalliesEachSource(t *testing.T) {
	candidates := []seed.Candidate{
		{Path: "a.py", Source: model.SeedHotspot},
		{Path: "b.py", Source: model.SeedManual},
		{Path: "c.py", Source: model.SeedManual},
		{Path: "d.py", Source: model.SeedDiff},
	}
	got := seedSourceCounts(candidates)
	want := model.SeedSourceCounts{Hotspot: 1, Manual: 2, Diff: 1}
	if got != want {
		t.Fatalf("seedSourceCounts = %+v, want %+v", got, want)
	}
}

func TestResolvedInDepthCountsOnlyEscalatedNonUnknown(t *testing.T) {
	findings := []*model.Finding{
		{Conditions: []*model.Condition{
			{State: model.ConditionSatisfied, Subconditions: []*model.Condition{{State: model.ConditionSatisfied}}},
			{State: model.ConditionUnknown}, // never escalated
		}},
		{Conditions: []*model.Condition{
			{State: model.ConditionUnknown, Subconditions: []*model.Condition{{State: model.ConditionUnknown}}}, // escalated, still unknown
		}},
	}
	if got := resolvedInDepth(findings); got != 1 {
		t.Fatalf("resolvedInDepth = %d, want 1", got)
	}
}

func TestHashFileIsDeterministic(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "manifest.txt")
	if err := os.WriteFile(path, []byte("examples/e1.py\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	h1, err := hashFile(path)
	if err != nil {
		t.Fatal(err)
	}
	h2, err := hashFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if h1 != h2 || h1 == "" {
		t.Fatalf("hashFile not deterministic: %q vs %q", h1, h2)
	}
}

func TestTrimNewlineStripsTrailingCRLF(t *testing.T) {
	if got := trimNewline("abc123\n"); got != "abc123" {
		t.Fatalf("trimNewline = %q", got)
	}
	if got := trimNewline("abc123\r\n"); got != "abc123" {
		t.Fatalf("trimNewline = %q", got)
	}
	if got := trimNewline("abc123"); got != "abc123" {
		t.Fatalf("trimNewline = %q", got)
	}
}

func TestGitInfoReadsCommitAndDirtyState(t *testing.T) {
	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git not available")
	}
	root := t.TempDir()
	run := func(args ...string) {
		cmd := exec.Command("git", args...)
		cmd.Dir = root
		cmd.Env = append(os.Environ(), "GIT_AUTHOR_NAME=t", "GIT_AUTHOR_EMAIL=t@t.com", "GIT_COMMITTER_NAME=t", "GIT_COMMITTER_EMAIL=t@t.com")
		if err := cmd.Run(); err != nil {
			t.Fatalf("git %v: %v", args, err)
		}
	}
	run("init", "-q")
	if err := os.WriteFile(filepath.Join(root, "a.py"), []byte("x = 1\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	run("add", "a.py")
	run("commit", "-q", "-m", "initial")

	info := gitInfo(context.Background(), root)
	if info.Commit == "" {
		t.Fatal("gitInfo: expected a non-empty commit")
	}
	if info.Dirty {
		t.Fatal("gitInfo: expected a clean worktree immediately after commit")
	}

	if err := os.WriteFile(filepath.Join(root, "a.py"), []byte("x = 2\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	dirtyInfo := gitInfo(context.Background(), root)
	if !dirtyInfo.Dirty {
		t.Fatal("gitInfo: expected a dirty worktree after an uncommitted edit")
	}
	if dirtyInfo.Commit != info.Commit {
		t.Fatalf("gitInfo: commit changed without a new commit: %q vs %q", dirtyInfo.Commit, info.Commit)
	}
}

func TestGitInfoDegradesToEmptyOutsideAGitRepo(t *testing.T) {
	root := t.TempDir()
	info := gitInfo(context.Background(), root)
	if info.Commit != "" || info.Dirty {
		t.Fatalf("gitInfo = %+v, want zero value outside a git repository", info)
	}
}

func TestPersistRunRejectsInvalidEnvelope(t *testing.T) {
	d := New(Config{})
	err := d.persistRun(&model.Run{}, t.TempDir())
	if err == nil {
		t.Fatal("persistRun: expected validation error for a Run missing required fields")
	}
}

func TestPersistRunWritesAtomicJSON(t *testing.T) {
	d := New(Config{})
	dir := t.TempDir()
	run := &model.Run{RunID: "r1", ManifestPath: "manifest.txt", StartedAt: "2026-01-01T00:00:00Z"}
	if err := d.persistRun(run, dir); err != nil {
		t.Fatalf("persistRun: %v", err)
	}
	data, err := os.ReadFile(filepath.Join(dir, "run.json"))
	if err != nil {
		t.Fatalf("reading run.json: %v", err)
	}
	var got model.Run
	if err := json.Unmarshal(data, &got); err != nil {
		t.Fatalf("run.json is not valid JSON: %v", err)
	}
	if got.RunID != "r1" {
		t.Fatalf("run.json round-trip = %+v", got)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	for _, e := range entries {
		if e.Name() != "run.json" {
			t.Fatalf("persistRun left a stray file: %s", e.Name())
		}
	}
}

func TestRunAbortsOnManifestErrorWithoutCreatingRunDir(t *testing.T) {
	root := t.TempDir()
	findingsRoot := t.TempDir()
	d := New(Config{
		RepoRoot:     root,
		ManifestPath: filepath.Join(root, "manifest.txt"), // does not exist
		FindingsRoot: findingsRoot,
	})

	_, _, err := d.Run(context.Background())
	if err == nil {
		t.Fatal("Run: expected a ManifestError for a missing manifest file")
	}
	entries, readErr := os.ReadDir(findingsRoot)
	if readErr != nil {
		t.Fatal(readErr)
	}
	if len(entries) != 0 {
		t.Fatalf("Run: expected no run directory to be created, found %v", entries)
	}
}
