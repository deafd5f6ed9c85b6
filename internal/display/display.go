// Package display provides unified output formatting for the anchor CLI.
// It visually separates per-stage orchestration messages (DISCOVER, DERIVE,
// PLAN, EXEC, JUDGE, NARROW) from the Codex task agent's own output.
package display

import (
	"fmt"
	"os"
	"strings"
	"time"

	"golang.org/x/term"
)

// Display handles all CLI output with visual hierarchy.
type Display struct {
	theme     *Theme
	termWidth int
	noColor   bool
}

// New creates a new Display instance.
func New() *Display {
	return NewWithOptions(false)
}

// NewWithOptions creates a Display with configuration.
func NewWithOptions(noColor bool) *Display {
	d := &Display{
		termWidth: getTerminalWidth(),
		noColor:   noColor,
	}
	if noColor {
		d.theme = NoColorTheme()
	} else {
		d.theme = DefaultTheme()
	}
	return d
}

// getTerminalWidth returns the terminal width, defaulting to 80.
func getTerminalWidth() int {
	width, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || width < 40 {
		return 80
	}
	if width > 120 {
		return 120 // Cap at 120 for readability
	}
	return width
}

// Stage prints a boxed message headed by one of the six pipeline stage
// names (DISCOVER, DERIVE, PLAN, EXEC, JUDGE, NARROW).
func (d *Display) Stage(title string, lines ...string) {
	if len(lines) == 0 {
		return
	}

	width := d.termWidth - 2
	titleLen := len(title) + 4 // "─ TITLE "
	remainingWidth := width - titleLen

	topLine := BoxTopLeft + BoxHorizontal + " " + title + " " + strings.Repeat(BoxHorizontal, remainingWidth) + BoxTopRight
	fmt.Println(d.theme.StageBorder(topLine))

	for _, line := range lines {
		paddedLine := d.padRight(line, width-2)
		fmt.Println(d.theme.StageBorder(BoxVertical) + " " + d.theme.StageText(paddedLine) + " " + d.theme.StageBorder(BoxVertical))
	}

	bottomLine := BoxBottomLeft + strings.Repeat(BoxHorizontal, width) + BoxBottomRight
	fmt.Println(d.theme.StageBorder(bottomLine))
}

// StatusLine prints a single-line status message (no box).
func (d *Display) StatusLine(symbol, message string) {
	timestamp := time.Now().Format("[15:04:05]")
	fmt.Printf("%s %s %s\n",
		d.theme.StageBorder(timestamp),
		symbol,
		d.theme.StageText(message))
}

// Success prints a success message with a green checkmark.
func (d *Display) Success(message string) {
	d.StatusLine(d.theme.Success(SymbolSuccess), message)
}

// Error prints an error message with a red X.
func (d *Display) Error(message string) {
	d.StatusLine(d.theme.Error(SymbolError), message)
}

// Warning prints a warning message with a yellow triangle.
func (d *Display) Warning(message string) {
	d.StatusLine(d.theme.Warning(SymbolWarning), message)
}

// Info prints an info message with a cyan label.
func (d *Display) Info(label, message string) {
	d.StatusLine(d.theme.Info(label+":"), message)
}

// TaskStart prints a header when a Codex task dispatch begins.
func (d *Display) TaskStart(task string) {
	timestamp := time.Now().Format("[15:04:05]")
	fmt.Printf("  %s %s Dispatching: %s\n",
		d.theme.Dim(timestamp),
		d.theme.AgentGutter(GutterAgent),
		d.theme.AgentText(Truncate(task, 72)))
}

// wrapText wraps text to the given width, returning up to 5 lines.
func (d *Display) wrapText(text string, maxWidth int) []string {
	if maxWidth <= 0 {
		maxWidth = 80
	}

	text = strings.TrimSpace(text)
	if len(text) <= maxWidth {
		return []string{text}
	}

	var lines []string
	words := strings.Fields(text)
	var currentLine strings.Builder

	for _, word := range words {
		if currentLine.Len()+len(word)+1 > maxWidth {
			if currentLine.Len() > 0 {
				lines = append(lines, currentLine.String())
				currentLine.Reset()
			}
		}
		if currentLine.Len() > 0 {
			currentLine.WriteString(" ")
		}
		currentLine.WriteString(word)
	}
	if currentLine.Len() > 0 {
		lines = append(lines, currentLine.String())
	}

	if len(lines) > 5 {
		lines = lines[:5]
		if len(lines[4]) > maxWidth-3 {
			lines[4] = lines[4][:maxWidth-3]
		}
		lines[4] = lines[4] + "..."
	}

	return lines
}

// TaskResult prints one task agent observation summary with a left gutter,
// replacing the teacher's subordinate Claude-output rendering.
func (d *Display) TaskResult(summary string, citationCount int) {
	timestamp := time.Now().Format("[15:04:05]")
	gutter := d.theme.AgentGutter(GutterAgent)

	citeStr := ""
	if citationCount > 0 {
		citeStr = fmt.Sprintf(" %s", d.theme.AgentCitationCount(fmt.Sprintf("[%d]", citationCount)))
	}

	lines := d.wrapText(summary, d.termWidth-20)
	for i, line := range lines {
		if i == 0 {
			fmt.Printf("  %s %s%s %s\n", gutter, d.theme.Dim(timestamp), citeStr, d.theme.AgentText(line))
		} else {
			fmt.Printf("  %s %s%s\n", d.theme.AgentGutter(GutterDot), strings.Repeat(" ", 10), d.theme.AgentText(line))
		}
	}
}

// FindingBanner prints the ">>> AUDITING <finding_id>: <claim> <<<" banner,
// with the claim truncated to 60 characters, when a new finding is seeded.
func (d *Display) FindingBanner(findingID, claim string) {
	banner := fmt.Sprintf(">>> AUDITING %s: %s <<<", findingID, Truncate(claim, 60))
	fmt.Printf("\n%s%s\n\n", IndentAgent, d.theme.StageLabel(banner))
}

// SectionBreak prints a horizontal separator between findings.
func (d *Display) SectionBreak() {
	width := d.termWidth
	fmt.Println(d.theme.Separator(strings.Repeat(SectionBreakChar, width)))
}

// RunHeader prints the run-start banner.
func (d *Display) RunHeader(runID string, fileCount int) {
	fmt.Println(d.theme.Bold(fmt.Sprintf("=== anchor run %s: %d candidate file(s) ===", runID, fileCount)))
	fmt.Println()
}

// RunComplete prints the run-completion summary.
func (d *Display) RunComplete(findingsWritten, errors int) {
	if errors > 0 {
		fmt.Printf("\n%s Run complete with %d error(s): %d finding(s) written.\n", d.theme.Warning(SymbolWarning), errors, findingsWritten)
		return
	}
	fmt.Printf("\n%s Run complete: %d finding(s) written.\n", d.theme.Success(SymbolSuccess), findingsWritten)
}

// RunFailed prints a readable fatal-error banner on stdout. It writes
// nothing to stderr and emits no structured (machine-readable) error line.
func (d *Display) RunFailed(err error) {
	fmt.Printf("\n%s Run aborted: %v\n", d.theme.Error(SymbolError), err)
}

// Theme returns the current theme for external use.
func (d *Display) Theme() *Theme {
	return d.theme
}

// padRight pads a string to the specified width.
func (d *Display) padRight(s string, width int) string {
	if len(s) >= width {
		return s[:width]
	}
	return s + strings.Repeat(" ", width-len(s))
}

// Truncate truncates text to max length with an ellipsis.
func Truncate(s string, max int) string {
	s = CleanText(s)
	if len(s) <= max {
		return s
	}
	return s[:max-3] + "..."
}

// CleanText removes newlines and collapses spaces.
func CleanText(s string) string {
	s = strings.ReplaceAll(s, "\n", " ")
	for strings.Contains(s, "  ") {
		s = strings.ReplaceAll(s, "  ", " ")
	}
	return strings.TrimSpace(s)
}

// JudgeStart prints a header when a condition's evidence is handed to
// JUDGE.
func (d *Display) JudgeStart(conditionDesc string) {
	timestamp := time.Now().Format("[15:04:05]")
	fmt.Printf("\n%s %s %s\n",
		d.theme.Dim(timestamp),
		d.theme.JudgeGutter(GutterJudge),
		d.theme.JudgeText(fmt.Sprintf("Judging: %s", Truncate(conditionDesc, 60))))
}

// Judge prints a judge rationale with distinct styling.
func (d *Display) Judge(rationale string) {
	lines := d.wrapText(rationale, d.termWidth-15)
	for i, line := range lines {
		if i == 0 {
			fmt.Printf("  %s %s\n", d.theme.JudgeGutter(GutterJudge), d.theme.JudgeText(line))
		} else {
			fmt.Printf("  %s %s\n", d.theme.JudgeGutter(GutterDot), d.theme.JudgeText(line))
		}
	}
}

// JudgeComplete prints the judge's terminal state for a condition.
func (d *Display) JudgeComplete(state string) {
	timestamp := time.Now().Format("[15:04:05]")
	fmt.Printf("%s %s %s\n",
		d.theme.Dim(timestamp),
		d.theme.JudgeGutter(GutterJudge),
		d.theme.Success(fmt.Sprintf("-> %s", state)))
}
