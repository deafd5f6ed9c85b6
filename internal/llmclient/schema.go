package llmclient

import (
	"encoding/json"
	"fmt"

	"github.com/google/jsonschema-go/jsonschema"
)

// ToolFor reflects T's jsonschema-tagged fields (internal/model/tools.go) into
// a ToolDef's input_schema. This is the lower-risk half of the two places
// this codebase reaches for jsonschema-go: generating an input_schema from a
// Go struct is the exact struct-tag-driven use the example pack's
// jsonschema:"..." tags anticipate, unlike internal/taskagent's
// reply-validation path, which instead uses internal/model's own
// hand-written Validate() methods (see DESIGN.md).
func ToolFor[T any](name, description string) (ToolDef, error) {
	schema, err := jsonschema.For[T](nil)
	if err != nil {
		return ToolDef{}, fmt.Errorf("reflecting schema for tool %s: %w", name, err)
	}
	raw, err := json.Marshal(schema)
	if err != nil {
		return ToolDef{}, fmt.Errorf("marshaling schema for tool %s: %w", name, err)
	}
	return ToolDef{Name: name, Description: description, InputSchema: raw}, nil
}
