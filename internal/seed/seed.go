// Package seed selects and lens-assigns the files a run will audit: the
// manifest entries plus anything the hotspot scanner and git-diff watcher
// surface, each annotated with up to two risk lenses. Grounded on
// original_source/util/{manifest,hotspots,imports,git_diff}.py.
package seed

import (
	"context"
	"path/filepath"

	"github.com/anchorsec/anchor/internal/model"
)

// Candidate is one (repo_rel_path, lens, source) entry spec.md §4.5 defines
// as the seed selector's output unit.
type Candidate struct {
	Path   string
	Lenses []string
	Source model.SeedSource
}

// Options parameterizes Select.
type Options struct {
	RepoRoot      string
	ManifestPath  string
	HotspotsOn    bool
	HotspotCats   []string // empty means all categories
	AutoLensOn    bool
	GitSinceRef   string
	GitWindowDays int
}

// Select runs the full §4.5 pipeline: validate the manifest, optionally scan
// hotspots and the git diff, assign lenses, then order and de-duplicate per
// step 5 (manifest order; diffed files first; hotspots by descending score;
// first-occurrence source wins).
func Select(ctx context.Context, opts Options) ([]Candidate, error) {
	manifestEntries, err := ValidateManifest(opts.RepoRoot, opts.ManifestPath)
	if err != nil {
		return nil, err
	}

	var hotspots []Hotspot
	if opts.HotspotsOn {
		hotspots, err = ScanHotspots(opts.RepoRoot, opts.HotspotCats)
		if err != nil {
			return nil, err
		}
	}

	diffed, err := ChangedFiles(ctx, opts.RepoRoot, opts.GitSinceRef, opts.GitWindowDays)
	if err != nil {
		return nil, err
	}

	var globalLenses []string
	if opts.AutoLensOn {
		globalLenses, err = GlobalLenses(opts.RepoRoot)
		if err != nil {
			return nil, err
		}
	}

	lensFor := func(path string) []string {
		if !opts.AutoLensOn {
			return nil
		}
		local := ModuleLocalLenses(filepath.Join(opts.RepoRoot, path))
		if len(local) > 0 {
			return local
		}
		return globalLenses
	}

	order := make([]string, 0, len(manifestEntries)+len(diffed)+len(hotspots))
	source := make(map[string]model.SeedSource)

	// Diffed files first: they override stale ordering, per step 5.
	for _, path := range diffed {
		order = append(order, path)
		source[path] = model.SeedDiff
	}
	for _, path := range manifestEntries {
		if _, seen := source[path]; seen {
			continue
		}
		order = append(order, path)
		source[path] = model.SeedManual
	}
	for _, h := range hotspots { // already sorted by descending score
		if _, seen := source[h.Path]; seen {
			continue
		}
		order = append(order, h.Path)
		source[h.Path] = model.SeedHotspot
	}

	seen := make(map[string]bool, len(order))
	candidates := make([]Candidate, 0, len(order))
	for _, p := range order {
		if seen[p] {
			continue
		}
		seen[p] = true
		candidates = append(candidates, Candidate{
			Path:   p,
			Lenses: lensFor(p),
			Source: source[p],
		})
	}
	return candidates, nil
}
