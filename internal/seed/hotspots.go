package seed

import (
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"sort"

	"github.com/anchorsec/anchor/internal/fsutil"
)

// hotspotCategory is one row of the category -> patterns -> weight table
// spec.md §4.5 step 2 names. Patterns are grounded on
// original_source/util/hotspots.py's SINK_PATTERNS/ENTRY_PATTERNS, regrouped
// under the nine named categories and extended with each category's obvious
// Python standard-library/ecosystem surface.
type hotspotCategory struct {
	name     string
	weight   int
	patterns []*regexp.Regexp
}

var hotspotTable = []hotspotCategory{
	{name: "network", weight: 3, patterns: compileAll(
		`\brequests\.(get|post|put|delete)\(`,
		`\bhttpx\.`,
		`\burllib\.request\.`,
		`\bsocket\.socket\(`,
	)},
	{name: "filesystem", weight: 2, patterns: compileAll(
		`\bshutil\.`,
		`\bos\.remove\(`,
		`\bos\.path\.join\(`,
		`\btarfile\.open\(`,
		`\bzipfile\.ZipFile\(`,
	)},
	{name: "template", weight: 3, patterns: compileAll(
		`\bjinja2\.`,
		`\bTemplate\(`,
		`render_template_string\(`,
	)},
	{name: "crypto", weight: 3, patterns: compileAll(
		`\bhashlib\.md5\(`,
		`\bhashlib\.sha1\(`,
		`\bCrypto\.Cipher\.`,
		`\bDES\.new\(`,
	)},
	{name: "config", weight: 2, patterns: compileAll(
		`\bos\.environ\[`,
		`\bos\.getenv\(`,
		`\byaml\.load\(`,
	)},
	{name: "server", weight: 2, patterns: compileAll(
		`@app\.route`,
		`FastAPI\(`,
		`flask\.Flask\(`,
	)},
	{name: "serialization", weight: 3, patterns: compileAll(
		`\bpickle\.loads?\(`,
		`\bmarshal\.loads\(`,
		`\byaml\.unsafe_load\(`,
	)},
	{name: "archive", weight: 2, patterns: compileAll(
		`\btarfile\.extractall\(`,
		`\bzipfile\..*\.extractall\(`,
	)},
	{name: "subprocess", weight: 4, patterns: compileAll(
		`\bsubprocess\.`,
		`\bos\.system\(`,
		`\beval\(`,
		`\bexec\(`,
	)},
}

func compileAll(patterns ...string) []*regexp.Regexp {
	out := make([]*regexp.Regexp, len(patterns))
	for i, p := range patterns {
		out[i] = regexp.MustCompile(p)
	}
	return out
}

// Hotspot is one *.py file flagged by the regex scan, with its matched
// category and an integer score of weight(category) + match count.
type Hotspot struct {
	Path     string
	Category string
	Score    int
}

// ScanHotspots walks root for *.py files and scores them against
// hotspotTable, optionally restricted to categories. Results are sorted by
// descending score, per spec.md §4.5 step 5.
func ScanHotspots(root string, categories []string) ([]Hotspot, error) {
	allowed := make(map[string]bool, len(categories))
	for _, c := range categories {
		allowed[c] = true
	}

	var results []Hotspot
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || filepath.Ext(path) != ".py" {
			return nil
		}
		data, readErr := os.ReadFile(path)
		if readErr != nil {
			return nil // unreadable files are skipped, not fatal, per hotspots.py
		}
		text := string(data)

		bestCategory := ""
		bestScore := 0
		for _, cat := range hotspotTable {
			if len(allowed) > 0 && !allowed[cat.name] {
				continue
			}
			matches := 0
			for _, p := range cat.patterns {
				matches += len(p.FindAllStringIndex(text, -1))
			}
			if matches == 0 {
				continue
			}
			score := cat.weight + matches
			if score > bestScore {
				bestScore = score
				bestCategory = cat.name
			}
		}
		if bestCategory == "" {
			return nil
		}
		rel, relErr := fsutil.RepoRel(root, path)
		if relErr != nil {
			return nil
		}
		results = append(results, Hotspot{Path: rel, Category: bestCategory, Score: bestScore})
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})
	return results, nil
}
