package pipeline

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/anchorsec/anchor/internal/model"
	"github.com/anchorsec/anchor/internal/prompts"
)

// judgeInput is the payload the judge banner sees.
type judgeInput struct {
	Description   string           `json:"description"`
	Accept        string           `json:"accept"`
	Reject        string           `json:"reject"`
	Summary       string           `json:"summary"`
	Citations     []model.Citation `json:"citations"`
	PrevSummaries []string         `json:"prev_summaries"`
}

// judge resolves condition c's state from its evidence, per the
// latest-successful-observation-with-fallback rule.
func (e *Engine) judge(ctx context.Context, c *model.Condition) error {
	if e.cfg.Display != nil {
		e.cfg.Display.JudgeStart(c.Description)
	}
	defer func() {
		if e.cfg.Display != nil {
			e.cfg.Display.JudgeComplete(string(c.State))
		}
		e.emit("judged", map[string]any{"condition": c.Description, "state": string(c.State)})
	}()

	if len(c.Evidence) == 0 {
		c.State = model.ConditionUnknown
		c.Rationale = "no evidence gathered"
		return nil
	}

	obs, ok := latestObservation(c.Evidence)
	if !ok {
		c.State = model.ConditionUnknown
		c.Rationale = "latest observation not valid JSON"
		return nil
	}
	if obs.Summary == "" || (len(obs.Citations) == 0 && !obs.IsError()) {
		c.State = model.ConditionUnknown
		c.Rationale = "missing summary or citations"
		return nil
	}

	banner, err := prompts.GetAgent("judge")
	if err != nil {
		return fmt.Errorf("loading judge banner: %w", err)
	}

	payload := judgeInput{
		Description:   c.Description,
		Accept:        c.Accept,
		Reject:        c.Reject,
		Summary:       obs.Summary,
		Citations:     obs.Citations,
		PrevSummaries: precedingSummaries(c.Evidence, 2),
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	call, err := e.cfg.LLM.Generate(ctx, llmRequest(e.cfg, banner, string(body), model.ToolJudgeCondition))
	if err != nil {
		return fmt.Errorf("judge: generate: %w", err)
	}

	var args model.JudgeConditionArgs
	if err := decodeArgsInto(call.Args, &args); err != nil {
		return fmt.Errorf("judge: decoding judge_condition args: %w", err)
	}
	if !args.State.IsValid() {
		return fmt.Errorf("judge: invalid state %q", args.State)
	}

	c.State = args.State
	c.Rationale = args.Rationale
	c.EvidenceRefs = args.EvidenceRefs
	if e.cfg.Display != nil {
		e.cfg.Display.Judge(c.Rationale)
	}
	return nil
}

// latestObservation returns the latest successful (non-error) observation in
// evidence, falling back to the most recent observation overall; ok is false
// only when the most recent evidence entry itself fails to parse.
func latestObservation(evidence []string) (model.ExecObservation, bool) {
	for i := len(evidence) - 1; i >= 0; i-- {
		obs, err := model.ParseExecObservation([]byte(evidence[i]))
		if err != nil {
			continue
		}
		if !obs.IsError() {
			return obs, true
		}
	}
	last := evidence[len(evidence)-1]
	obs, err := model.ParseExecObservation([]byte(last))
	if err != nil {
		return model.ExecObservation{}, false
	}
	return obs, true
}

// precedingSummaries returns up to n summaries preceding the latest
// observation, oldest evidence entries first, for conflict detection.
func precedingSummaries(evidence []string, n int) []string {
	end := len(evidence) - 1
	if end <= 0 {
		return nil
	}
	start := end - n
	if start < 0 {
		start = 0
	}
	var out []string
	for i := start; i < end; i++ {
		obs, err := model.ParseExecObservation([]byte(evidence[i]))
		if err != nil {
			continue
		}
		out = append(out, obs.Summary)
	}
	return out
}
