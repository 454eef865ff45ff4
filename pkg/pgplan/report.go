package pgplan

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Outcome is the result of a single step.
type Outcome int

const (
	OutcomeNotAttempted Outcome = iota
	OutcomeSuccess
	OutcomeFailed
)

// String returns the outcome name used in reports.
func (o Outcome) String() string {
	switch o {
	case OutcomeNotAttempted:
		return "NOT_ATTEMPTED"
	case OutcomeSuccess:
		return "SUCCESS"
	case OutcomeFailed:
		return "FAILED"
	default:
		return fmt.Sprintf("Unknown(%d)", int(o))
	}
}

// MarshalText renders the outcome for JSON and YAML reports.
func (o Outcome) MarshalText() ([]byte, error) {
	return []byte(o.String()), nil
}

// RunStatus is the cumulative status of an execution.
type RunStatus int

const (
	StatusSuccess RunStatus = iota
	StatusFailed
	StatusCancelled
	StatusDryRun
)

// String returns the status name used in reports.
func (s RunStatus) String() string {
	switch s {
	case StatusSuccess:
		return "SUCCESS"
	case StatusFailed:
		return "FAILED_AT"
	case StatusCancelled:
		return "CANCELLED"
	case StatusDryRun:
		return "DRY_RUN"
	default:
		return fmt.Sprintf("Unknown(%d)", int(s))
	}
}

// MarshalText renders the status for JSON and YAML reports.
func (s RunStatus) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// StepResult records what happened to one plan step.
type StepResult struct {
	Index    int // 1-based position in the plan
	Step     Step
	Outcome  Outcome
	Error    string
	Duration time.Duration
}

// ExecutionReport is produced by one deployment attempt. It is self-contained:
// an operator can act on it without reading logs.
type ExecutionReport struct {
	RunID       uuid.UUID
	Status      RunStatus
	Plan        *Plan
	Results     []StepResult
	FailedIndex int    // 1-based index of the failed step, 0 when none failed
	Reason      string // Adapter error text, cancellation cause, or dry-run verdict
	StartedAt   time.Time
	FinishedAt  time.Time
}

// Applied returns the steps that completed successfully, in execution order.
func (r *ExecutionReport) Applied() []StepResult {
	var out []StepResult
	for _, res := range r.Results {
		if res.Outcome == OutcomeSuccess {
			out = append(out, res)
		}
	}
	return out
}

// Failed returns the failed step, if any.
func (r *ExecutionReport) Failed() (StepResult, bool) {
	if r.FailedIndex == 0 {
		return StepResult{}, false
	}
	return r.Results[r.FailedIndex-1], true
}

// Succeeded reports whether every step was applied.
func (r *ExecutionReport) Succeeded() bool {
	return r.Status == StatusSuccess
}

// Summary renders the overall status in one line, e.g. "FAILED_AT(4: create goals): relation ... does not exist".
func (r *ExecutionReport) Summary() string {
	switch r.Status {
	case StatusFailed:
		res, ok := r.Failed()
		if !ok {
			return fmt.Sprintf("FAILED_AT(plan verification): %s", r.Reason)
		}
		return fmt.Sprintf("FAILED_AT(%d: %s): %s", res.Index, res.Step, r.Reason)
	case StatusCancelled:
		return fmt.Sprintf("CANCELLED after %d of %d step(s): %s", len(r.Applied()), len(r.Results), r.Reason)
	case StatusDryRun:
		return fmt.Sprintf("DRY_RUN: %s", r.Reason)
	default:
		return fmt.Sprintf("SUCCESS: %d step(s) applied", len(r.Applied()))
	}
}

// FindingKind classifies a validation finding.
type FindingKind int

const (
	FindingMissingObject FindingKind = iota + 1
	FindingMissingConstraint
)

// String returns the finding kind name used in reports.
func (k FindingKind) String() string {
	switch k {
	case FindingMissingObject:
		return "MissingObject"
	case FindingMissingConstraint:
		return "MissingConstraint"
	default:
		return fmt.Sprintf("Unknown(%d)", int(k))
	}
}

// MarshalText renders the kind for JSON and YAML reports.
func (k FindingKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// Finding is a discrepancy between the catalog and the target.
type Finding struct {
	Kind    FindingKind
	Object  string          // Missing object, or the referencing object of a missing constraint
	Edge    *DependencyEdge // Set for MissingConstraint
	Message string
}

// ValidationReport lists findings. An empty list means the target matches the catalog.
type ValidationReport struct {
	Findings           []Finding
	ObjectsChecked     int
	ConstraintsChecked int
}

// Passed reports whether validation found nothing missing.
func (r *ValidationReport) Passed() bool {
	return len(r.Findings) == 0
}
