package display

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"
)

// Reporter emits one line per pipeline event when --live is set, grounded
// on the reporter the orchestrator used for its own live mode. Each line is
// either a JSON object or a flat "event key=val key=val" line, selected by
// --live-format.
type Reporter struct {
	enabled bool
	format  string // "text" or "json"
}

// NewReporter builds a Reporter. format is normalized to "json" or "text"
// (anything else falls back to "text").
func NewReporter(enabled bool, format string) *Reporter {
	if format != "json" {
		format = "text"
	}
	return &Reporter{enabled: enabled, format: format}
}

// Log emits one event, or does nothing if the reporter is disabled. data
// values may be strings, numbers, bools, or string slices.
func (r *Reporter) Log(event string, data map[string]any) {
	if r == nil || !r.enabled {
		return
	}
	if r.format == "json" {
		r.logJSON(event, data)
		return
	}
	r.logText(event, data)
}

func (r *Reporter) logJSON(event string, data map[string]any) {
	payload := make(map[string]any, len(data)+1)
	payload["event"] = event
	for k, v := range data {
		payload[k] = v
	}
	enc, err := json.Marshal(payload)
	if err != nil {
		return
	}
	fmt.Fprintln(os.Stdout, string(enc))
}

func (r *Reporter) logText(event string, data map[string]any) {
	keys := make([]string, 0, len(data))
	for k := range data {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := []string{event}
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s=%s", k, formatValue(data[k])))
	}
	fmt.Fprintln(os.Stdout, strings.Join(parts, " "))
}

func formatValue(v any) string {
	switch t := v.(type) {
	case []string:
		return strings.Join(t, ",")
	default:
		return fmt.Sprintf("%v", t)
	}
}
