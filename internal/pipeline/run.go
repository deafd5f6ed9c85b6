package pipeline

import (
	"context"
	"fmt"

	"github.com/anchorsec/anchor/internal/model"
)

// Run drives every seed candidate through DISCOVER, DERIVE, the breadth
// pass, and the depth pass, returning the resulting Findings in candidate
// order. Each Finding is persisted at every state change; a caller that
// crashes mid-run leaves a directory of readable, individually-valid partial
// findings.
func (e *Engine) Run(ctx context.Context, candidates []SeedCandidate) ([]*model.Finding, error) {
	findings := make([]*model.Finding, 0, len(candidates))

	for _, cand := range candidates {
		e.stats.DiscoverRunsByLens[primaryLens(cand.Lenses)]++

		f, err := e.seedFinding(ctx, cand)
		if err != nil {
			return findings, err
		}
		if err := e.persist(f); err != nil {
			return findings, err
		}

		if err := e.derive(ctx, f); err != nil {
			return findings, err
		}
		f.Status = model.FindingProcessed
		if err := e.persist(f); err != nil {
			return findings, err
		}

		findings = append(findings, f)
	}

	if err := e.breadthPass(ctx, findings); err != nil {
		return findings, err
	}
	if err := e.depthPass(ctx, findings); err != nil {
		return findings, err
	}

	for _, f := range findings {
		f.AssignVerdict()
		if err := e.persist(f); err != nil {
			return findings, err
		}
	}
	return findings, nil
}

// breadthPass gives every top-level condition of every finding exactly one
// resolve cycle, with no narrowing.
func (e *Engine) breadthPass(ctx context.Context, findings []*model.Finding) error {
	for _, f := range findings {
		for _, c := range f.Conditions {
			e.stats.BreadthExamined++
			if err := e.resolveCondition(ctx, f, c, 0, 1); err != nil {
				return err
			}
			if err := e.persist(f); err != nil {
				return err
			}
		}
	}
	return nil
}

// depthPass ranks every still-unknown top-level condition by heuristic
// score, takes the top BFSBudget, and escalates each: NARROW into
// sub-conditions (the condition's own PLAN→EXEC→JUDGE cycle already ran
// during the breadth pass) and resolve those children up to MaxDepthSteps
// further levels.
func (e *Engine) depthPass(ctx context.Context, findings []*model.Finding) error {
	scored := rankForDepthPass(e.collectUnknown(findings), e.cfg.BFSBudget)
	e.stats.DepthEscalated = len(scored)

	touched := map[*model.Finding]bool{}
	for _, sc := range scored {
		if err := e.escalate(ctx, sc.finding, sc.cond); err != nil {
			return err
		}
		touched[sc.finding] = true
	}
	for f := range touched {
		if err := e.persist(f); err != nil {
			return err
		}
	}
	return nil
}

// escalate NARROWs a depth-pass condition into sub-conditions and resolves
// each starting at step index 1, up to 1+MaxDepthSteps.
func (e *Engine) escalate(ctx context.Context, f *model.Finding, c *model.Condition) error {
	if err := e.narrow(ctx, c); err != nil {
		return fmt.Errorf("narrow %s: %w", c.Description, err)
	}
	maxSteps := 1 + e.cfg.MaxDepthSteps
	for _, sub := range c.Subconditions {
		if err := e.resolveCondition(ctx, f, sub, 1, maxSteps); err != nil {
			return err
		}
	}
	c.AggregateFromChildren()
	return nil
}

// resolveCondition runs PLAN→EXEC→JUDGE once for c, then — if c is still
// unknown and the step budget has room for a child cycle — NARROWs and
// recurses into c's subconditions with the step counter advanced by one,
// per the state machine's RESOLVE loop. step and maxSteps are both
// exclusive-upper step indices in the same space: the breadth pass calls
// this with (step=0, maxSteps=1) so it performs exactly one cycle and never
// narrows (step+1 == maxSteps rules narrowing out immediately); depth-pass
// children enter via escalate at (step=1, maxSteps=1+MaxDepthSteps).
func (e *Engine) resolveCondition(ctx context.Context, f *model.Finding, c *model.Condition, step, maxSteps int) error {
	if step >= maxSteps {
		return nil
	}
	if step == 1 {
		e.stats.recordStep2Verbs(len(c.UsedVerbs))
	}

	tasks, err := e.plan(ctx, f.PrimaryFile(), c)
	if err != nil {
		return fmt.Errorf("plan %s: %w", c.Description, err)
	}
	if err := e.runExec(ctx, f, c, tasks); err != nil {
		return fmt.Errorf("exec %s: %w", c.Description, err)
	}
	if err := e.judge(ctx, c); err != nil {
		return fmt.Errorf("judge %s: %w", c.Description, err)
	}
	if c.State != model.ConditionUnknown {
		return nil
	}
	if step+1 >= maxSteps {
		return nil
	}

	if err := e.narrow(ctx, c); err != nil {
		return fmt.Errorf("narrow %s: %w", c.Description, err)
	}
	for _, sub := range c.Subconditions {
		if err := e.resolveCondition(ctx, f, sub, step+1, maxSteps); err != nil {
			return err
		}
	}
	c.AggregateFromChildren()
	return nil
}
