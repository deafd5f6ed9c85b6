package llmclient

import "encoding/json"

// parseToolCall implements spec.md §4.4 step 5: extract (name, args) from
// whichever of the known response shapes raw decodes as, trying each in the
// fixed order the spec names. Operating on a generic decoded document
// (rather than the Anthropic SDK's typed Message) is deliberate: memoized
// responses are replayed as plain JSON, and the fixed-order fallback chain
// itself is provider-agnostic by design, matching
// original_source/util/openai.py's parse_tool_call.
func parseToolCall(raw []byte) (*ToolCall, error) {
	var doc map[string]any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, err
	}

	if call := fromOutputArray(doc); call != nil {
		return call, nil
	}
	if call := fromNestedContent(doc); call != nil {
		return call, nil
	}
	if call := fromLegacyChoices(doc); call != nil {
		return call, nil
	}
	// Anthropic's actual shape: top-level content[] of blocks, one of which
	// has type "tool_use".
	if call := fromContentArray(doc); call != nil {
		return call, nil
	}
	return &ToolCall{Args: map[string]any{}}, nil
}

// fromOutputArray looks for a top-level output[*] entry of type
// tool_call/function_call/tool_use.
func fromOutputArray(doc map[string]any) *ToolCall {
	items, _ := doc["output"].([]any)
	for _, item := range items {
		obj, ok := item.(map[string]any)
		if !ok {
			continue
		}
		switch obj["type"] {
		case "tool_call", "function_call", "tool_use":
			return toolCallFromBlock(obj)
		}
	}
	return nil
}

// fromNestedContent looks inside output[0].content[*] for a tool-shaped
// block.
func fromNestedContent(doc map[string]any) *ToolCall {
	items, _ := doc["output"].([]any)
	if len(items) == 0 {
		return nil
	}
	first, ok := items[0].(map[string]any)
	if !ok {
		return nil
	}
	content, _ := first["content"].([]any)
	for _, item := range content {
		obj, ok := item.(map[string]any)
		if !ok {
			continue
		}
		switch obj["type"] {
		case "tool_call", "function_call", "tool_use":
			return toolCallFromBlock(obj)
		}
	}
	return nil
}

// fromLegacyChoices looks for the OpenAI chat-completions shape:
// choices[0].message.tool_calls[0].function, falling back to
// choices[0].message.function_call.
func fromLegacyChoices(doc map[string]any) *ToolCall {
	choices, _ := doc["choices"].([]any)
	if len(choices) == 0 {
		return nil
	}
	choice, ok := choices[0].(map[string]any)
	if !ok {
		return nil
	}
	message, ok := choice["message"].(map[string]any)
	if !ok {
		return nil
	}
	if toolCalls, ok := message["tool_calls"].([]any); ok && len(toolCalls) > 0 {
		if tc, ok := toolCalls[0].(map[string]any); ok {
			if fn, ok := tc["function"].(map[string]any); ok {
				return toolCallFromFunction(fn)
			}
		}
	}
	if fn, ok := message["function_call"].(map[string]any); ok {
		return toolCallFromFunction(fn)
	}
	return nil
}

// fromContentArray handles Anthropic's actual Messages API shape: a
// top-level content[] of blocks, one of which has type "tool_use" with
// "name" and already-decoded "input".
func fromContentArray(doc map[string]any) *ToolCall {
	content, _ := doc["content"].([]any)
	for _, item := range content {
		obj, ok := item.(map[string]any)
		if !ok {
			continue
		}
		if obj["type"] != "tool_use" {
			continue
		}
		name, _ := obj["name"].(string)
		args, _ := obj["input"].(map[string]any)
		if args == nil {
			args = map[string]any{}
		}
		return &ToolCall{Name: name, Args: args}
	}
	return nil
}

// toolCallFromBlock extracts name/arguments from an output[*] or nested
// content[*] tool-shaped block, where arguments may be a JSON-encoded string
// or an already-decoded object.
func toolCallFromBlock(obj map[string]any) *ToolCall {
	name, _ := obj["name"].(string)
	return &ToolCall{Name: name, Args: decodeArgs(obj["arguments"])}
}

func toolCallFromFunction(fn map[string]any) *ToolCall {
	name, _ := fn["name"].(string)
	return &ToolCall{Name: name, Args: decodeArgs(fn["arguments"])}
}

// decodeArgs handles both already-decoded objects and JSON-string-encoded
// arguments, degrading malformed or missing arguments to {} per spec.md
// §4.4 step 5.
func decodeArgs(raw any) map[string]any {
	switch v := raw.(type) {
	case map[string]any:
		return v
	case string:
		var args map[string]any
		if err := json.Unmarshal([]byte(v), &args); err == nil {
			return args
		}
	}
	return map[string]any{}
}
