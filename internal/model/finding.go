package model

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// SchemaVersion is the schema_version stamped into every Finding and
// Observation this orchestrator writes.
const SchemaVersion = 1

// OrchestratorVersion identifies the engine revision that produced a run.
const OrchestratorVersion = "anchor/1"

// FindingStatus is the seeding/derivation status of a Finding.
type FindingStatus string

const (
	FindingSeeded    FindingStatus = "seeded"
	FindingProcessed FindingStatus = "processed"
)

func (s FindingStatus) IsValid() bool {
	return s == FindingSeeded || s == FindingProcessed
}

func (s FindingStatus) String() string {
	return string(s)
}

// Provenance records where and when a Finding was seeded.
type Provenance struct {
	RunID     string `json:"run_id"`
	CreatedAt string `json:"created_at"`
	InputHash string `json:"input_hash"`
	FileSize  int64  `json:"file_size"`
	Path      string `json:"path"`
}

func (p Provenance) Validate() error {
	if p.RunID == "" {
		return fmt.Errorf("provenance.run_id: field is required")
	}
	if p.CreatedAt == "" {
		return fmt.Errorf("provenance.created_at: field is required")
	}
	if p.Path == "" {
		return fmt.Errorf("provenance.path: field is required")
	}
	return nil
}

// Verdict is the final per-finding adjudication.
type Verdict struct {
	State  VerdictState `json:"state"`
	Reason string       `json:"reason"`
}

func (v Verdict) Validate() error {
	if v.State == "" {
		return nil // unresolved verdict, valid mid-pipeline
	}
	if !v.State.IsValid() {
		return fmt.Errorf("verdict.state: invalid value %q", v.State)
	}
	return nil
}

// TasksLogEntry is one append-only batch record: the condition it targeted
// and the task-agent results that were executed against it.
type TasksLogEntry struct {
	Condition string           `json:"condition"`
	Executed  []ExecObservation `json:"executed"`
}

// SeedHighlight is one discovery-stage highlight region.
type SeedHighlight struct {
	Path   string `json:"path"`
	Region struct {
		StartLine int `json:"start_line"`
		EndLine   int `json:"end_line"`
	} `json:"region"`
	Why string `json:"why"`
}

// SeedEvidence is the discovery-stage JSON object recorded on a Finding.
type SeedEvidence struct {
	SchemaVersion int             `json:"schema_version"`
	Stage         string          `json:"stage"`
	Highlights    []SeedHighlight `json:"highlights"`
}

// FindingEvidence wraps the seed discovery payload under evidence.seed, per
// spec.md §3.
type FindingEvidence struct {
	Seed SeedEvidence `json:"seed"`
}

// Finding is the per-claim record, persisted atomically as
// finding_<id>.json.
type Finding struct {
	FindingID           string          `json:"finding_id"`
	SchemaVersion       int             `json:"schema_version"`
	OrchestratorVersion string          `json:"orchestrator_version"`
	Claim               string          `json:"claim"`
	Files               []string        `json:"files"`
	Evidence            FindingEvidence `json:"evidence"`
	SeedSource          SeedSource      `json:"seed_source"`
	Provenance          Provenance      `json:"provenance"`
	Status              FindingStatus   `json:"status"`
	Conditions          []*Condition    `json:"conditions"`
	TasksLog            []TasksLogEntry `json:"tasks_log"`
	Verdict             Verdict         `json:"verdict"`
}

// Validate checks the structural invariants spec.md §3 requires before a
// Finding is persisted.
func (f *Finding) Validate() error {
	if f.FindingID == "" {
		return fmt.Errorf("finding.finding_id: field is required")
	}
	if f.SchemaVersion == 0 {
		return fmt.Errorf("finding.schema_version: field is required")
	}
	if f.Claim == "" {
		return fmt.Errorf("finding.claim: field is required")
	}
	if len(f.Files) == 0 {
		return fmt.Errorf("finding.files: at least one file is required")
	}
	if !f.SeedSource.IsValid() {
		return fmt.Errorf("finding.seed_source: invalid value %q", f.SeedSource)
	}
	if !f.Status.IsValid() {
		return fmt.Errorf("finding.status: invalid value %q", f.Status)
	}
	if err := f.Provenance.Validate(); err != nil {
		return err
	}
	if err := f.Verdict.Validate(); err != nil {
		return err
	}
	for i, c := range f.Conditions {
		if err := c.Validate(); err != nil {
			return fmt.Errorf("finding.conditions[%d]: %w", i, err)
		}
	}
	return nil
}

// PrimaryFile returns the first (primary) file a Finding's claim references.
func (f *Finding) PrimaryFile() string {
	if len(f.Files) == 0 {
		return ""
	}
	return f.Files[0]
}

// FindingID computes the stable short identifier for a finding as the first
// 12 hex characters of the SHA-256 digest of the primary file's
// repository-relative path. SHA-256, not SHA-1: SHA-1 is reserved in this
// system for citation/content digests.
func FindingID(primaryFileRepoRelPath string) string {
	sum := sha256.Sum256([]byte(primaryFileRepoRelPath))
	return hex.EncodeToString(sum[:])[:12]
}

// AssignVerdict sets f.Verdict from the terminal state multiset of its
// top-level conditions, per spec.md §4.6's finding-level verdict rule.
func (f *Finding) AssignVerdict() {
	satisfied, failed := 0, 0
	for _, c := range f.Conditions {
		switch c.State {
		case ConditionSatisfied:
			satisfied++
		case ConditionFailed:
			failed++
		}
	}
	switch {
	case satisfied > 0 && failed == 0 && satisfied == len(f.Conditions):
		f.Verdict = Verdict{State: VerdictTruePositive, Reason: "all conditions satisfied"}
	case satisfied == 0 && failed > 0:
		f.Verdict = Verdict{State: VerdictFalsePositive, Reason: "at least one condition failed"}
	default:
		f.Verdict = Verdict{State: VerdictUnknown, Reason: "conditions unresolved"}
	}
}
