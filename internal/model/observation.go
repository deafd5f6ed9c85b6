package model

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Citation points to a specific line range of a specific repo-relative file
// that backs an Observation's summary.
type Citation struct {
	Path      string `json:"path"`
	StartLine int    `json:"start_line"`
	EndLine   int    `json:"end_line"`
	SHA1      string `json:"sha1,omitempty"`
}

// ExecObservation is a validated EXEC-stage reply: schema_version=1,
// stage="exec", a short summary, and citations into specific line ranges.
type ExecObservation struct {
	SchemaVersion int        `json:"schema_version"`
	Stage         string     `json:"stage"`
	Summary       string     `json:"summary"`
	Citations     []Citation `json:"citations"`
	Notes         string     `json:"notes,omitempty"`
}

// IsError reports whether the observation's summary begins with "error:".
func (o ExecObservation) IsError() bool {
	return strings.HasPrefix(o.Summary, "error:")
}

// Validate enforces spec.md §3's Observation invariant: if summary does not
// begin with "error:", citations must be non-empty.
func (o ExecObservation) Validate() error {
	if o.SchemaVersion != SchemaVersion {
		return fmt.Errorf("exec_observation.schema_version: expected %d, got %d", SchemaVersion, o.SchemaVersion)
	}
	if o.Stage != "exec" {
		return fmt.Errorf("exec_observation.stage: expected %q, got %q", "exec", o.Stage)
	}
	if o.Summary == "" {
		return fmt.Errorf("exec_observation.summary: field is required")
	}
	if !o.IsError() && len(o.Citations) == 0 {
		return fmt.Errorf("exec_observation.citations: required when summary is not an error")
	}
	return nil
}

// NewErrorObservation builds the degraded exec_observation the task agent
// mints when the dispatcher fails, per spec.md §4.3 step 5.
func NewErrorObservation(reason string) ExecObservation {
	return ExecObservation{
		SchemaVersion: SchemaVersion,
		Stage:         "exec",
		Summary:       "error: " + reason,
		Citations:     []Citation{},
	}
}

// WithMissingCitation returns a copy of o rewritten to the "missing-citation"
// error shape required when summary is non-error but citations is empty, per
// spec.md §4.3 step 4.
func (o ExecObservation) WithMissingCitation() ExecObservation {
	o.Summary = "error: missing-citation"
	o.Citations = []Citation{}
	return o
}

// MarshalEvidence serializes o to the JSON string form stored append-only in
// a Condition's Evidence list.
func (o ExecObservation) MarshalEvidence() (string, error) {
	b, err := json.Marshal(o)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// ParseExecObservation parses and validates raw JSON bytes as an
// ExecObservation, returning an InvalidObservationError on failure.
func ParseExecObservation(raw []byte) (ExecObservation, error) {
	var obs ExecObservation
	if err := json.Unmarshal(raw, &obs); err != nil {
		return ExecObservation{}, &InvalidObservationError{
			Stage:  "exec",
			Reason: "not valid JSON: " + err.Error(),
			Raw:    string(raw),
		}
	}
	if err := obs.Validate(); err != nil {
		return ExecObservation{}, &InvalidObservationError{
			Stage:  "exec",
			Reason: err.Error(),
			Raw:    string(raw),
		}
	}
	return obs, nil
}

// DiscoverObservation is a validated DISCOVER-stage reply.
type DiscoverObservation struct {
	SchemaVersion int             `json:"schema_version"`
	Stage         string          `json:"stage"`
	Evidence      SeedEvidenceRef `json:"evidence"`
}

// SeedEvidenceRef mirrors SeedEvidence for discover-stage parsing (kept
// distinct so discover observation JSON shape changes don't ripple into the
// Finding's persisted evidence.seed structure without an explicit mapping).
type SeedEvidenceRef struct {
	Highlights []SeedHighlight `json:"highlights"`
}

// Validate enforces spec.md §4.3's discover-stage schema: 1-3 highlights,
// each with path/region/why; excess highlights are truncated, not rejected,
// so this only rejects zero highlights.
func (o *DiscoverObservation) Validate() error {
	if o.SchemaVersion != SchemaVersion {
		return fmt.Errorf("discover.schema_version: expected %d, got %d", SchemaVersion, o.SchemaVersion)
	}
	if o.Stage != "discover" {
		return fmt.Errorf("discover.stage: expected %q, got %q", "discover", o.Stage)
	}
	if len(o.Evidence.Highlights) == 0 {
		return fmt.Errorf("discover.evidence.highlights: at least one highlight is required")
	}
	if len(o.Evidence.Highlights) > 3 {
		o.Evidence.Highlights = o.Evidence.Highlights[:3]
	}
	for i, h := range o.Evidence.Highlights {
		if h.Path == "" {
			return fmt.Errorf("discover.evidence.highlights[%d].path: field is required", i)
		}
	}
	return nil
}

// ToSeedEvidence maps a validated DiscoverObservation into the evidence.seed
// shape a Finding persists. Kept as an explicit mapping, per
// DiscoverObservation's doc comment, rather than unifying the two types.
func (o DiscoverObservation) ToSeedEvidence() SeedEvidence {
	return SeedEvidence{
		SchemaVersion: o.SchemaVersion,
		Stage:         o.Stage,
		Highlights:    o.Evidence.Highlights,
	}
}

// ParseDiscoverObservation parses and validates raw JSON bytes as a
// DiscoverObservation.
func ParseDiscoverObservation(raw []byte) (DiscoverObservation, error) {
	var obs DiscoverObservation
	if err := json.Unmarshal(raw, &obs); err != nil {
		return DiscoverObservation{}, &InvalidObservationError{
			Stage:  "discover",
			Reason: "not valid JSON: " + err.Error(),
			Raw:    string(raw),
		}
	}
	if err := obs.Validate(); err != nil {
		return DiscoverObservation{}, &InvalidObservationError{
			Stage:  "discover",
			Reason: err.Error(),
			Raw:    string(raw),
		}
	}
	return obs, nil
}
