package pipeline

import "github.com/anchorsec/anchor/internal/llmclient"

// llmRequest builds the generate() call common to DERIVE/PLAN/JUDGE/NARROW:
// the stage banner as the system-role turn, the JSON payload as the
// user-role turn, every standard tool offered, and toolChoice forced.
func llmRequest(cfg Config, banner, payloadJSON, toolChoice string) llmclient.GenerateRequest {
	return llmclient.GenerateRequest{
		Messages: []llmclient.Message{
			{Role: "user", Text: banner + "\n\nINPUT:\n" + payloadJSON},
		},
		Tools:       cfg.Tools,
		ToolChoice:  toolChoice,
		Model:       cfg.Model,
		Effort:      cfg.Effort,
		ServiceTier: cfg.ServiceTier,
	}
}
