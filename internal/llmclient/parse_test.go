package llmclient

import "testing"

func TestParseToolCallTopLevelOutput(t *testing.T) {
	raw := []byte(`{"output":[{"type":"tool_call","name":"emit_conditions","arguments":"{\"schema_version\":1}"}]}`)
	call, err := parseToolCall(raw)
	if err != nil {
		t.Fatalf("parseToolCall: %v", err)
	}
	if call.Name != "emit_conditions" {
		t.Fatalf("Name = %q, want emit_conditions", call.Name)
	}
	if call.Args["schema_version"] != float64(1) {
		t.Fatalf("Args[schema_version] = %v, want 1", call.Args["schema_version"])
	}
}

func TestParseToolCallNestedContent(t *testing.T) {
	raw := []byte(`{"output":[{"content":[{"type":"function_call","name":"emit_tasks","arguments":{"stage":"plan"}}]}]}`)
	call, err := parseToolCall(raw)
	if err != nil {
		t.Fatalf("parseToolCall: %v", err)
	}
	if call.Name != "emit_tasks" {
		t.Fatalf("Name = %q, want emit_tasks", call.Name)
	}
	if call.Args["stage"] != "plan" {
		t.Fatalf("Args[stage] = %v, want plan", call.Args["stage"])
	}
}

func TestParseToolCallLegacyChoices(t *testing.T) {
	raw := []byte(`{"choices":[{"message":{"tool_calls":[{"function":{"name":"judge_condition","arguments":"{\"state\":\"satisfied\"}"}}]}}]}`)
	call, err := parseToolCall(raw)
	if err != nil {
		t.Fatalf("parseToolCall: %v", err)
	}
	if call.Name != "judge_condition" {
		t.Fatalf("Name = %q, want judge_condition", call.Name)
	}
	if call.Args["state"] != "satisfied" {
		t.Fatalf("Args[state] = %v, want satisfied", call.Args["state"])
	}
}

func TestParseToolCallLegacyFunctionCall(t *testing.T) {
	raw := []byte(`{"choices":[{"message":{"function_call":{"name":"emit_tasks","arguments":{}}}}]}`)
	call, err := parseToolCall(raw)
	if err != nil {
		t.Fatalf("parseToolCall: %v", err)
	}
	if call.Name != "emit_tasks" {
		t.Fatalf("Name = %q, want emit_tasks", call.Name)
	}
}

func TestParseToolCallAnthropicContentArray(t *testing.T) {
	raw := []byte(`{"content":[{"type":"text","text":"thinking..."},{"type":"tool_use","name":"emit_conditions","input":{"schema_version":1,"stage":"derive"}}]}`)
	call, err := parseToolCall(raw)
	if err != nil {
		t.Fatalf("parseToolCall: %v", err)
	}
	if call.Name != "emit_conditions" {
		t.Fatalf("Name = %q, want emit_conditions", call.Name)
	}
	if call.Args["stage"] != "derive" {
		t.Fatalf("Args[stage] = %v, want derive", call.Args["stage"])
	}
}

func TestParseToolCallMalformedArgumentsDegradeToEmpty(t *testing.T) {
	raw := []byte(`{"output":[{"type":"tool_call","name":"emit_tasks","arguments":"not json"}]}`)
	call, err := parseToolCall(raw)
	if err != nil {
		t.Fatalf("parseToolCall: %v", err)
	}
	if len(call.Args) != 0 {
		t.Fatalf("Args = %v, want empty map on malformed arguments", call.Args)
	}
}

func TestParseToolCallNoToolShapeReturnsEmptyCall(t *testing.T) {
	raw := []byte(`{"content":[{"type":"text","text":"no tool call here"}]}`)
	call, err := parseToolCall(raw)
	if err != nil {
		t.Fatalf("parseToolCall: %v", err)
	}
	if call.Name != "" || len(call.Args) != 0 {
		t.Fatalf("call = %+v, want empty", call)
	}
}

func TestIsReasoningModel(t *testing.T) {
	cases := map[string]bool{
		"claude-opus-4-reasoning": true,
		"o3-mini":                 true,
		"claude-3-5-haiku":        false,
	}
	for id, want := range cases {
		if got := isReasoningModel(id); got != want {
			t.Errorf("isReasoningModel(%q) = %v, want %v", id, got, want)
		}
	}
}
