package pipeline

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/anchorsec/anchor/internal/model"
	"github.com/anchorsec/anchor/internal/prompts"
)

// deriveInput is the payload the derive banner names: {claim, related_files,
// seed_evidence.highlights[:3]}.
type deriveInput struct {
	Claim          string                `json:"claim"`
	RelatedFiles   []string              `json:"related_files"`
	SeedHighlights []model.SeedHighlight `json:"seed_evidence_highlights"`
}

// derive calls the LLM with the derive banner and turns its emit_conditions
// reply into f's top-level Conditions.
func (e *Engine) derive(ctx context.Context, f *model.Finding) error {
	banner, err := prompts.GetAgent("derive")
	if err != nil {
		return fmt.Errorf("loading derive banner: %w", err)
	}

	highlights := f.Evidence.Seed.Highlights
	if len(highlights) > 3 {
		highlights = highlights[:3]
	}
	payload := deriveInput{
		Claim:          f.Claim,
		RelatedFiles:   f.Files,
		SeedHighlights: highlights,
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	call, err := e.cfg.LLM.Generate(ctx, llmRequest(e.cfg, banner, string(body), model.ToolEmitConditions))
	if err != nil {
		return fmt.Errorf("derive: generate: %w", err)
	}

	var args model.EmitConditionsArgs
	if err := decodeArgsInto(call.Args, &args); err != nil {
		return fmt.Errorf("derive: decoding emit_conditions args: %w", err)
	}

	f.Conditions = conditionsFromSpecs(args.Conditions)
	e.stage("DERIVE", f.Claim, fmt.Sprintf("%d conditions", len(f.Conditions)))
	e.emit("derived", map[string]any{"finding_id": f.FindingID, "conditions": len(f.Conditions)})
	return nil
}

// conditionsFromSpecs builds fresh, unresolved Conditions from the LLM's
// emit_conditions reply, capped to the 1-5 the tool schema allows.
func conditionsFromSpecs(specs []model.ConditionSpec) []*model.Condition {
	if len(specs) > 5 {
		specs = specs[:5]
	}
	conds := make([]*model.Condition, 0, len(specs))
	for _, s := range specs {
		conds = append(conds, model.NewCondition(s.Desc, s.Why, s.Accept, s.Reject, s.SuggestedTasks))
	}
	return conds
}
