package llmclient

import "github.com/anchorsec/anchor/internal/model"

// StandardTools returns the three fixed LLM tools spec.md §6 names, with
// schemas reflected from their internal/model argument structs.
func StandardTools() ([]ToolDef, error) {
	emitConditions, err := ToolFor[model.EmitConditionsArgs](
		model.ToolEmitConditions,
		"Emit 1-5 conditions that together determine whether the claim is a true or false positive.",
	)
	if err != nil {
		return nil, err
	}
	emitTasks, err := ToolFor[model.EmitTasksArgs](
		model.ToolEmitTasks,
		"Emit 1-3 evidence-gathering tasks for the current condition.",
	)
	if err != nil {
		return nil, err
	}
	judgeCondition, err := ToolFor[model.JudgeConditionArgs](
		model.ToolJudgeCondition,
		"Judge whether the condition's evidence satisfies, fails, or leaves unknown its accept/reject contract.",
	)
	if err != nil {
		return nil, err
	}
	return []ToolDef{emitConditions, emitTasks, judgeCondition}, nil
}
