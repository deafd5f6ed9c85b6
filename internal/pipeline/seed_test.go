package pipeline

import (
	"context"
	"testing"

	"github.com/anchorsec/anchor/internal/model"
)

func TestSynthesizeClaimFromPrimaryHighlight(t *testing.T) {
	obs := model.DiscoverObservation{
		Evidence: model.SeedEvidenceRef{Highlights: []model.SeedHighlight{
			{Path: "a.py", Why: "user input reaches a shell sink"},
			{Path: "b.py", Why: "secondary highlight, ignored"},
		}},
	}

	got := synthesizeClaim("a.py", obs)
	if got != "user input reaches a shell sink" {
		t.Fatalf("synthesizeClaim = %q, want the primary highlight's why text", got)
	}
}

func TestSynthesizeClaimFallsBackWhenNoHighlights(t *testing.T) {
	got := synthesizeClaim("a.py", model.DiscoverObservation{})
	if got == "" {
		t.Fatal("synthesizeClaim: expected a non-empty fallback claim")
	}
}

func TestFilesFromHighlightsDedupesAndKeepsPrimaryFirst(t *testing.T) {
	obs := model.DiscoverObservation{
		Evidence: model.SeedEvidenceRef{Highlights: []model.SeedHighlight{
			{Path: "a.py"},
			{Path: "b.py"},
			{Path: "a.py"},
		}},
	}

	got := filesFromHighlights("a.py", obs)
	want := []string{"a.py", "b.py"}
	if len(got) != len(want) {
		t.Fatalf("filesFromHighlights = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("filesFromHighlights = %v, want %v", got, want)
		}
	}
}

func TestSeedFindingBuildsProvenanceAndEvidence(t *testing.T) {
	root := t.TempDir()
	writeRepoFile(t, root, "a.py", "import os\n")

	agent := newFakeAgent()
	agent.discover["codex:discover:a.py::ssrf"] = []model.DiscoverObservation{{
		SchemaVersion: model.SchemaVersion, Stage: "discover",
		Evidence: model.SeedEvidenceRef{Highlights: []model.SeedHighlight{{Path: "a.py", Why: "a claim"}}},
	}}

	e := New(Config{Agent: agent, RepoRoot: root, RunID: "run-1"})
	f, err := e.seedFinding(context.Background(), SeedCandidate{Path: "a.py", Lenses: []string{"ssrf"}, Source: model.SeedHotspot})
	if err != nil {
		t.Fatalf("seedFinding: %v", err)
	}

	if f.Claim != "a claim" {
		t.Fatalf("seedFinding: claim = %q", f.Claim)
	}
	if f.Status != model.FindingSeeded {
		t.Fatalf("seedFinding: status = %q, want seeded", f.Status)
	}
	if f.Provenance.RunID != "run-1" || f.Provenance.Path != "a.py" {
		t.Fatalf("seedFinding: provenance = %+v", f.Provenance)
	}
	if f.Provenance.InputHash == "" {
		t.Fatal("seedFinding: expected a non-empty input_hash")
	}
	if f.SeedSource != model.SeedHotspot {
		t.Fatalf("seedFinding: seed_source = %q, want hotspot", f.SeedSource)
	}
	if err := f.Validate(); err != nil {
		t.Fatalf("seedFinding: produced an invalid finding: %v", err)
	}
}
