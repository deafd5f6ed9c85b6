package taskagent

import (
	"fmt"
	"strings"

	"github.com/anchorsec/anchor/internal/prompts"
)

// BuildPrompt renders the stage-banner-prefixed prompt for t: the fixed
// system-role text and stage instructions (from internal/prompts' embedded
// templates), followed by a user-role section naming this task's inputs.
func BuildPrompt(t Task) (string, error) {
	banner, err := prompts.GetAgent(string(t.Stage))
	if err != nil {
		return "", fmt.Errorf("loading %s stage banner: %w", t.Stage, err)
	}

	var sb strings.Builder
	sb.WriteString(banner)
	sb.WriteString("\n\nUSER:\n")
	sb.WriteString(fmt.Sprintf("Path: %s\n", t.Path))
	switch t.Stage {
	case "discover":
		if t.Lens != "" {
			sb.WriteString(fmt.Sprintf("Lens hint: %s\n", t.Lens))
		}
	case "exec":
		sb.WriteString(fmt.Sprintf("Goal: %s\n", t.Goal))
	}
	return sb.String(), nil
}
