package display

import "github.com/fatih/color"

// Box drawing characters
const (
	BoxTopLeft       = "┌"
	BoxTopRight      = "┐"
	BoxBottomLeft    = "└"
	BoxBottomRight   = "┘"
	BoxHorizontal    = "─"
	BoxVertical      = "│"
	SectionBreakChar = "━"
)

// Status symbols
const (
	SymbolSuccess = "✓"
	SymbolError   = "✗"
	SymbolWarning = "⚠"
	SymbolResume  = "↻"
	SymbolPending = "○"
	SymbolPartial = "◐"
)

// Gutter markers for subordinate output lines.
const (
	GutterAgent = "▸"
	GutterJudge = "◆"
	GutterDot   = "·"
)

// IndentAgent is the indentation for a finding banner.
const IndentAgent = "  "

// Theme holds all color functions for consistent styling.
type Theme struct {
	// Stage orchestration (prominent): the DISCOVER/DERIVE/PLAN/EXEC/
	// JUDGE/NARROW boxes and status lines.
	StageBorder func(a ...interface{}) string
	StageLabel  func(a ...interface{}) string
	StageText   func(a ...interface{}) string

	// Codex task agent output (subdued).
	AgentGutter        func(a ...interface{}) string
	AgentText          func(a ...interface{}) string
	AgentCitationCount func(a ...interface{}) string

	// Judge rationale output (distinct from both of the above).
	JudgeGutter func(a ...interface{}) string
	JudgeText   func(a ...interface{}) string

	// Status indicators
	Success func(a ...interface{}) string
	Error   func(a ...interface{}) string
	Warning func(a ...interface{}) string
	Info    func(a ...interface{}) string

	// Structural elements
	Bold      func(a ...interface{}) string
	Dim       func(a ...interface{}) string
	Separator func(a ...interface{}) string
}

// DefaultTheme creates the default color theme.
func DefaultTheme() *Theme {
	return &Theme{
		StageBorder: color.New(color.FgCyan).SprintFunc(),
		StageLabel:  color.New(color.FgCyan, color.Bold).SprintFunc(),
		StageText:   color.New(color.FgWhite).SprintFunc(),

		AgentGutter:        color.New(color.FgHiBlack).SprintFunc(),
		AgentText:          color.New(color.FgWhite).SprintFunc(),
		AgentCitationCount: color.New(color.FgHiBlack).SprintFunc(),

		JudgeGutter: color.New(color.FgMagenta).SprintFunc(),
		JudgeText:   color.New(color.FgWhite).SprintFunc(),

		Success: color.New(color.FgGreen).SprintFunc(),
		Error:   color.New(color.FgRed).SprintFunc(),
		Warning: color.New(color.FgYellow).SprintFunc(),
		Info:    color.New(color.FgCyan).SprintFunc(),

		Bold:      color.New(color.Bold).SprintFunc(),
		Dim:       color.New(color.FgHiBlack).SprintFunc(),
		Separator: color.New(color.FgCyan).SprintFunc(),
	}
}

// NoColorTheme creates a theme without colors (selected when NO_COLOR is set).
func NoColorTheme() *Theme {
	identity := func(a ...interface{}) string {
		if len(a) == 0 {
			return ""
		}
		if s, ok := a[0].(string); ok {
			return s
		}
		return ""
	}
	return &Theme{
		StageBorder:        identity,
		StageLabel:         identity,
		StageText:          identity,
		AgentGutter:        identity,
		AgentText:          identity,
		AgentCitationCount: identity,
		JudgeGutter:        identity,
		JudgeText:          identity,
		Success:            identity,
		Error:              identity,
		Warning:            identity,
		Info:               identity,
		Bold:               identity,
		Dim:                identity,
		Separator:          identity,
	}
}
