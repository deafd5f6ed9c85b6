package display

import "testing"

func TestReporterDisabledLogsNothing(t *testing.T) {
	r := NewReporter(false, "text")
	// Log must not panic and must not require a real stdout capture; the
	// disabled fast path returns immediately.
	r.Log("discover_start", map[string]any{"files": 3})
}

func TestNewReporterNormalizesUnknownFormatToText(t *testing.T) {
	r := NewReporter(true, "yaml")
	if r.format != "text" {
		t.Fatalf("format = %q, want %q", r.format, "text")
	}
}

func TestFormatValueJoinsStringSlices(t *testing.T) {
	got := formatValue([]string{"a", "b", "c"})
	if got != "a,b,c" {
		t.Fatalf("formatValue([]string) = %q, want %q", got, "a,b,c")
	}
}

func TestFormatValuePassesThroughScalars(t *testing.T) {
	if got := formatValue(7); got != "7" {
		t.Fatalf("formatValue(int) = %q, want %q", got, "7")
	}
	if got := formatValue(true); got != "true" {
		t.Fatalf("formatValue(bool) = %q, want %q", got, "true")
	}
}

func TestNilReporterLogIsANoop(t *testing.T) {
	var r *Reporter
	r.Log("event", nil) // must not panic on a nil receiver
}
