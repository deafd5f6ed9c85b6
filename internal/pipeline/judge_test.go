package pipeline

import (
	"testing"

	"github.com/anchorsec/anchor/internal/model"
)

func obsJSON(t *testing.T, obs model.ExecObservation) string {
	t.Helper()
	s, err := obs.MarshalEvidence()
	if err != nil {
		t.Fatal(err)
	}
	return s
}

func TestLatestObservationPrefersLatestSuccess(t *testing.T) {
	errObs := obsJSON(t, model.NewErrorObservation("timeout"))
	okObs := obsJSON(t, model.ExecObservation{
		SchemaVersion: model.SchemaVersion, Stage: "exec", Summary: "found it",
		Citations: []model.Citation{{Path: "a.py", StartLine: 1, EndLine: 1}},
	})

	got, ok := latestObservation([]string{okObs, errObs})
	if !ok {
		t.Fatal("latestObservation: expected ok")
	}
	if got.Summary != "found it" {
		t.Fatalf("latestObservation = %+v, want the earlier success, not the trailing error", got)
	}
}

func TestLatestObservationFallsBackToMostRecent(t *testing.T) {
	errObs := obsJSON(t, model.NewErrorObservation("exit 1"))

	got, ok := latestObservation([]string{errObs})
	if !ok {
		t.Fatal("latestObservation: expected ok")
	}
	if !got.IsError() {
		t.Fatalf("latestObservation = %+v, want the error observation as fallback", got)
	}
}

func TestLatestObservationInvalidJSONNotOK(t *testing.T) {
	_, ok := latestObservation([]string{"not json"})
	if ok {
		t.Fatal("latestObservation: expected not ok for invalid JSON")
	}
}

func TestPrecedingSummariesWindow(t *testing.T) {
	a := obsJSON(t, model.ExecObservation{SchemaVersion: model.SchemaVersion, Stage: "exec", Summary: "first", Citations: []model.Citation{{Path: "a.py", StartLine: 1, EndLine: 1}}})
	b := obsJSON(t, model.ExecObservation{SchemaVersion: model.SchemaVersion, Stage: "exec", Summary: "second", Citations: []model.Citation{{Path: "a.py", StartLine: 1, EndLine: 1}}})
	c := obsJSON(t, model.ExecObservation{SchemaVersion: model.SchemaVersion, Stage: "exec", Summary: "third", Citations: []model.Citation{{Path: "a.py", StartLine: 1, EndLine: 1}}})

	got := precedingSummaries([]string{a, b, c}, 2)
	want := []string{"first", "second"}
	if len(got) != len(want) {
		t.Fatalf("precedingSummaries = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("precedingSummaries = %v, want %v", got, want)
		}
	}
}

func TestPrecedingSummariesEmptyWhenSingleEntry(t *testing.T) {
	a := obsJSON(t, model.NewErrorObservation("timeout"))
	if got := precedingSummaries([]string{a}, 2); len(got) != 0 {
		t.Fatalf("precedingSummaries = %v, want none", got)
	}
}
