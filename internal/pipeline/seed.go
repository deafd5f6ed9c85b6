package pipeline

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"

	"github.com/anchorsec/anchor/internal/fsutil"
	"github.com/anchorsec/anchor/internal/model"
	"github.com/anchorsec/anchor/internal/taskagent"
)

// seedFinding runs DISCOVER against one candidate and builds the Finding it
// seeds, per the Lifecycle's "seeding creates the Finding once and writes
// it" rule. The claim is synthesized deterministically from the discovery
// stage's primary highlight, since no pipeline stage is named "claim
// generation" and the rest of the engine (DERIVE onward) requires one.
func (e *Engine) seedFinding(ctx context.Context, cand SeedCandidate) (*model.Finding, error) {
	task := taskagent.FormatDiscoverTask(cand.Path, primaryLens(cand.Lenses))
	obs, err := e.cfg.Agent.RunDiscover(ctx, task)
	if err != nil {
		return nil, fmt.Errorf("discover %s: %w", cand.Path, err)
	}

	inputHash, size, err := hashFile(filepath.Join(e.cfg.RepoRoot, cand.Path))
	if err != nil {
		return nil, fmt.Errorf("hashing %s: %w", cand.Path, err)
	}

	f := &model.Finding{
		FindingID:           model.FindingID(cand.Path),
		SchemaVersion:       model.SchemaVersion,
		OrchestratorVersion: model.OrchestratorVersion,
		Claim:               synthesizeClaim(cand.Path, obs),
		Files:               filesFromHighlights(cand.Path, obs),
		Evidence:            model.FindingEvidence{Seed: obs.ToSeedEvidence()},
		SeedSource:          cand.Source,
		Provenance: model.Provenance{
			RunID:     e.cfg.RunID,
			CreatedAt: fsutil.UTCNowISO(),
			InputHash: inputHash,
			FileSize:  size,
			Path:      cand.Path,
		},
		Status: model.FindingSeeded,
	}

	e.stage("DISCOVER", cand.Path, f.Claim)
	if e.cfg.Display != nil {
		e.cfg.Display.FindingBanner(f.FindingID, f.Claim)
	}
	e.emit("finding_seeded", map[string]any{
		"finding_id": f.FindingID,
		"path":       cand.Path,
		"source":     string(cand.Source),
	})
	return f, nil
}

// synthesizeClaim builds the single falsifiable sentence a Finding's claim
// must be, from the discovery stage's primary (first) highlight's why text —
// the only discovery-stage field that already reads like a claim rationale.
func synthesizeClaim(path string, obs model.DiscoverObservation) string {
	if len(obs.Evidence.Highlights) == 0 {
		return fmt.Sprintf("%s may contain a reachable vulnerability", path)
	}
	h := obs.Evidence.Highlights[0]
	if h.Why == "" {
		return fmt.Sprintf("%s may contain a reachable vulnerability", path)
	}
	return h.Why
}

// filesFromHighlights orders the Finding's files with the seed candidate's
// own path as primary, followed by any distinct highlight paths Codex named.
func filesFromHighlights(primary string, obs model.DiscoverObservation) []string {
	files := []string{primary}
	seen := map[string]bool{primary: true}
	for _, h := range obs.Evidence.Highlights {
		if h.Path == "" || seen[h.Path] {
			continue
		}
		seen[h.Path] = true
		files = append(files, h.Path)
	}
	return files
}

// hashFile returns the hex SHA-1 digest and size of the file at path.
func hashFile(path string) (string, int64, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", 0, err
	}
	sum := sha1.Sum(data)
	return hex.EncodeToString(sum[:]), int64(len(data)), nil
}
