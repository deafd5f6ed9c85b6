package pipeline

import (
	"bufio"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/anchorsec/anchor/internal/model"
)

// sinkKeywords are the source-region substrings that earn a condition's
// depth-pass priority boost.
var sinkKeywords = []string{"subprocess", "tarfile", "yaml.load"}

// taintKeywords mark a condition whose evidence names user-controlled input
// reaching a sink, boosting its depth-pass priority.
var taintKeywords = []string{"user-controlled", "taint", "entrypoint"}

// scoreCondition computes the deterministic integer heuristic the two-phase
// scheduler sorts still-unknown conditions by.
func (e *Engine) scoreCondition(c *model.Condition) int {
	if len(c.Evidence) == 0 {
		return 0
	}
	obs, ok := latestObservation(c.Evidence)
	if !ok {
		return 0
	}

	score := 0
	if !obs.IsError() && len(obs.Citations) > 0 {
		score += 2
	}
	if e.citationsContainSinkKeyword(obs.Citations) {
		score += 2
	}
	haystack := strings.ToLower(obs.Summary + " " + obs.Notes)
	for _, kw := range taintKeywords {
		if strings.Contains(haystack, kw) {
			score++
			break
		}
	}
	return score
}

// citationsContainSinkKeyword reports whether any citation's referenced
// source region contains one of sinkKeywords. Read failures (e.g. a citation
// pointing past a file later modified) are treated as no match, not an
// error: scoring is a best-effort priority hint, never a correctness gate.
func (e *Engine) citationsContainSinkKeyword(citations []model.Citation) bool {
	for _, cit := range citations {
		region, err := readLines(filepath.Join(e.cfg.RepoRoot, cit.Path), cit.StartLine, cit.EndLine)
		if err != nil {
			continue
		}
		lower := strings.ToLower(region)
		for _, kw := range sinkKeywords {
			if strings.Contains(lower, kw) {
				return true
			}
		}
	}
	return false
}

// readLines returns the 1-indexed, inclusive line range [start, end] of the
// file at path, joined by newlines.
func readLines(path string, start, end int) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	var sb strings.Builder
	scanner := bufio.NewScanner(f)
	line := 0
	for scanner.Scan() {
		line++
		if line < start {
			continue
		}
		if line > end {
			break
		}
		sb.WriteString(scanner.Text())
		sb.WriteByte('\n')
	}
	return sb.String(), scanner.Err()
}

// scoredCondition pairs a still-unknown top-level condition with its
// heuristic score and input order, for the depth pass's deterministic sort.
type scoredCondition struct {
	finding *model.Finding
	cond    *model.Condition
	score   int
	order   int
}

// collectUnknown gathers every still-unknown top-level condition across
// findings, preserving input order for the sort's tiebreak.
func (e *Engine) collectUnknown(findings []*model.Finding) []scoredCondition {
	var out []scoredCondition
	order := 0
	for _, f := range findings {
		for _, c := range f.Conditions {
			if c.State == model.ConditionUnknown {
				out = append(out, scoredCondition{
					finding: f,
					cond:    c,
					score:   e.scoreCondition(c),
					order:   order,
				})
			}
			order++
		}
	}
	return out
}

// rankForDepthPass sorts still-unknown conditions by score descending with a
// deterministic input-order tiebreak, then takes the top bfsBudget.
func rankForDepthPass(scored []scoredCondition, bfsBudget int) []scoredCondition {
	sort.SliceStable(scored, func(i, j int) bool {
		if scored[i].score != scored[j].score {
			return scored[i].score > scored[j].score
		}
		return scored[i].order < scored[j].order
	})
	if len(scored) > bfsBudget {
		scored = scored[:bfsBudget]
	}
	return scored
}
