package model

// This file defines the argument shapes of the three LLM tools spec.md §6
// names. Struct tags double as `jsonschema:"..."` hints so
// github.com/google/jsonschema-go/jsonschema can reflect an input_schema
// for internal/llmclient, and as `json:"..."` tags for decoding the parsed
// tool-call arguments the API returns.

// ConditionSpec is one element of emit_conditions' conditions[].
type ConditionSpec struct {
	Desc           string   `json:"desc" jsonschema:"description=human-readable description of the condition"`
	Why            string   `json:"why" jsonschema:"description=why this condition matters to the claim"`
	Accept         string   `json:"accept" jsonschema:"description=contract text the judge tests to mark this condition satisfied"`
	Reject         string   `json:"reject" jsonschema:"description=contract text the judge tests to mark this condition failed"`
	SuggestedTasks []string `json:"suggested_tasks" jsonschema:"description=seed task goals for the planner"`
}

// EmitConditionsArgs is the emit_conditions tool's argument shape, used by
// both DERIVE (top-level conditions) and NARROW (sub-conditions).
type EmitConditionsArgs struct {
	SchemaVersion int             `json:"schema_version" jsonschema:"description=must be 1"`
	Stage         string          `json:"stage" jsonschema:"description=derive or narrow"`
	Conditions    []ConditionSpec `json:"conditions" jsonschema:"minItems=1,maxItems=5"`
}

// TaskSpec is one element of emit_tasks' tasks[].
type TaskSpec struct {
	Task string `json:"task" jsonschema:"description=free-form evidence-gathering goal, ideally starting with a verb like search/read-file/ast-parse/callgraph/dataflow"`
	Why  string `json:"why" jsonschema:"description=why this task helps resolve the condition"`
	Mode string `json:"mode" jsonschema:"description=must be exec"`
}

// EmitTasksArgs is the emit_tasks tool's argument shape, produced by PLAN.
type EmitTasksArgs struct {
	SchemaVersion int        `json:"schema_version" jsonschema:"description=must be 1"`
	Stage         string     `json:"stage" jsonschema:"description=plan"`
	Tasks         []TaskSpec `json:"tasks" jsonschema:"minItems=1,maxItems=3"`
}

// JudgeConditionArgs is the judge_condition tool's argument shape, produced
// by JUDGE.
type JudgeConditionArgs struct {
	SchemaVersion int            `json:"schema_version" jsonschema:"description=must be 1"`
	Stage         string         `json:"stage" jsonschema:"description=judge"`
	State         ConditionState `json:"state" jsonschema:"enum=satisfied,enum=failed,enum=unknown"`
	Rationale     string         `json:"rationale" jsonschema:"description=short explanation of the judged state"`
	EvidenceRefs  []int          `json:"evidence_refs" jsonschema:"description=indices into the condition's evidence list that the verdict rests on"`
}

// ToolNames are the three fixed LLM tools spec.md §6 requires.
const (
	ToolEmitConditions  = "emit_conditions"
	ToolEmitTasks       = "emit_tasks"
	ToolJudgeCondition  = "judge_condition"
)
