package pipeline

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/anchorsec/anchor/internal/model"
	"github.com/anchorsec/anchor/internal/prompts"
)

// narrowInput is the payload the narrow banner sees.
type narrowInput struct {
	ParentCondition     string `json:"parent_condition"`
	ParentAccept        string `json:"parent_accept"`
	ParentReject        string `json:"parent_reject"`
	BlockingUncertainty string `json:"blocking_uncertainty"`
	LastEvidence        string `json:"last_evidence,omitempty"`
}

// narrow calls the LLM emit_conditions for a condition whose judge returned
// unknown, populating c.Subconditions.
func (e *Engine) narrow(ctx context.Context, c *model.Condition) error {
	banner, err := prompts.GetAgent("narrow")
	if err != nil {
		return fmt.Errorf("loading narrow banner: %w", err)
	}

	var lastEvidence string
	if len(c.Evidence) > 0 {
		lastEvidence = c.Evidence[len(c.Evidence)-1]
	}
	payload := narrowInput{
		ParentCondition:     c.Description,
		ParentAccept:        c.Accept,
		ParentReject:        c.Reject,
		BlockingUncertainty: c.Rationale,
		LastEvidence:        lastEvidence,
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	call, err := e.cfg.LLM.Generate(ctx, llmRequest(e.cfg, banner, string(body), model.ToolEmitConditions))
	if err != nil {
		return fmt.Errorf("narrow: generate: %w", err)
	}

	var args model.EmitConditionsArgs
	if err := decodeArgsInto(call.Args, &args); err != nil {
		return fmt.Errorf("narrow: decoding emit_conditions args: %w", err)
	}

	specs := args.Conditions
	if len(specs) > 3 {
		specs = specs[:3]
	}
	c.Subconditions = conditionsFromSpecs(specs)
	e.stage("NARROW", c.Description, fmt.Sprintf("%d subconditions", len(c.Subconditions)))
	e.emit("narrowed", map[string]any{"condition": c.Description, "subconditions": len(c.Subconditions)})
	return nil
}
