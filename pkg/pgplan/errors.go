package pgplan

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors for the failure classes of planning and deployment.
// Callers distinguish them with errors.Is():
//
//	plan, err := engine.Plan(defs)
//	if errors.Is(err, pgplan.ErrUnresolvableCycle) {
//	    // dependency declarations need a human redesign
//	}
var (
	// ErrParse indicates a malformed definition.
	ErrParse = errors.New("parse error")

	// ErrUnknownReference indicates a dependency on an object that was never declared.
	ErrUnknownReference = errors.New("unknown reference")

	// ErrUnresolvableCycle indicates a dependency cycle made only of structural edges.
	ErrUnresolvableCycle = errors.New("unresolvable dependency cycle")

	// ErrCycleDetected indicates a cycle survived cycle breaking. This is an internal invariant violation.
	ErrCycleDetected = errors.New("cycle detected after cycle breaking")

	// ErrInvalidPlan indicates a plan that violates its ordering invariants.
	ErrInvalidPlan = errors.New("invalid plan")

	// ErrStepFailed indicates a deployment step failed against the target.
	ErrStepFailed = errors.New("deployment step failed")

	// ErrValidationFailed indicates post-deployment validation produced findings.
	ErrValidationFailed = errors.New("validation failed")

	// ErrInvalidConfig indicates the provided configuration is invalid.
	ErrInvalidConfig = errors.New("invalid configuration")

	// ErrConfigNotFound indicates no pgplan.yaml exists in the searched directory.
	ErrConfigNotFound = errors.New("pgplan.yaml not found")

	// ErrUnsupportedAuthMethod indicates the requested authentication method is not supported.
	ErrUnsupportedAuthMethod = errors.New("unsupported authentication method")

	// ErrConnectionFailed indicates database connection failed.
	ErrConnectionFailed = errors.New("connection failed")

	// ErrFingerprintMismatch indicates the computed plan differs from the one the operator approved.
	ErrFingerprintMismatch = errors.New("plan fingerprint mismatch")

	// ErrApprovalDenied indicates the operator declined to apply the plan.
	ErrApprovalDenied = errors.New("deployment not approved")

	// ErrUsage indicates the command line was used incorrectly.
	ErrUsage = errors.New("usage error")
)

// ParseError reports a malformed definition.
type ParseError struct {
	Object  string // Object name, empty when the name itself is missing
	Source  string // File the definition came from, if any
	Field   string
	Message string
}

func (e *ParseError) Error() string {
	var b strings.Builder
	b.WriteString("parse error")
	if e.Source != "" {
		b.WriteString(" in ")
		b.WriteString(e.Source)
	}
	if e.Object != "" {
		fmt.Fprintf(&b, " (object %q", e.Object)
		if e.Field != "" {
			fmt.Fprintf(&b, ", field %s", e.Field)
		}
		b.WriteString(")")
	} else if e.Field != "" {
		fmt.Fprintf(&b, " (field %s)", e.Field)
	}
	b.WriteString(": ")
	b.WriteString(e.Message)
	return b.String()
}

func (e *ParseError) Unwrap() error { return ErrParse }

// UnknownReferenceError reports a dependency on an undeclared object.
// It matches both ErrUnknownReference and ErrParse.
type UnknownReferenceError struct {
	From string
	To   string
}

func (e *UnknownReferenceError) Error() string {
	return fmt.Sprintf("object %q depends on undeclared object %q", e.From, e.To)
}

func (e *UnknownReferenceError) Is(target error) bool {
	return target == ErrUnknownReference || target == ErrParse
}

// UnresolvableCycleError names a cycle that consists only of structural edges.
// Cycle starts at the member with the lowest ordinal and lists each object once.
type UnresolvableCycleError struct {
	Cycle []string
}

func (e *UnresolvableCycleError) Error() string {
	return fmt.Sprintf("unresolvable structural dependency cycle [%s]: structural dependencies cannot be deferred, redesign the declarations",
		strings.Join(e.Cycle, ", "))
}

func (e *UnresolvableCycleError) Unwrap() error { return ErrUnresolvableCycle }

// CycleDetectedError reports objects the sequencer could not order.
type CycleDetectedError struct {
	Remaining []string
}

func (e *CycleDetectedError) Error() string {
	return fmt.Sprintf("cycle detected among [%s] after cycle breaking", strings.Join(e.Remaining, ", "))
}

func (e *CycleDetectedError) Unwrap() error { return ErrCycleDetected }

// StepExecutionError reports the first failed step of a deployment.
// Index is 1-based.
type StepExecutionError struct {
	Index int
	Total int
	Step  Step
	Err   error
}

func (e *StepExecutionError) Error() string {
	return fmt.Sprintf("step %d of %d (%s) failed: %v", e.Index, e.Total, e.Step, e.Err)
}

func (e *StepExecutionError) Unwrap() []error { return []error{ErrStepFailed, e.Err} }

// ExitCodeForError returns the appropriate exit code for an error.
// Returns ExitSuccess (0) for nil errors, semantic codes for known errors,
// and ExitGeneralError for unclassified errors.
func ExitCodeForError(err error) int {
	if err == nil {
		return ExitSuccess
	}

	switch {
	case errors.Is(err, context.Canceled), errors.Is(err, ErrApprovalDenied):
		return ExitCancelled
	case errors.Is(err, ErrStepFailed):
		return ExitStepFailed
	case errors.Is(err, ErrParse),
		errors.Is(err, ErrUnknownReference),
		errors.Is(err, ErrUnresolvableCycle),
		errors.Is(err, ErrCycleDetected),
		errors.Is(err, ErrInvalidPlan),
		errors.Is(err, ErrFingerprintMismatch):
		return ExitPlanFailed
	case errors.Is(err, ErrValidationFailed):
		return ExitValidationFindings
	case errors.Is(err, ErrInvalidConfig),
		errors.Is(err, ErrConfigNotFound),
		errors.Is(err, ErrUnsupportedAuthMethod):
		return ExitConfigError
	case errors.Is(err, ErrConnectionFailed):
		return ExitConnectionError
	case errors.Is(err, ErrUsage):
		return ExitUsageError
	case errors.Is(err, context.DeadlineExceeded):
		// --timeout expired between steps; the run stopped like a cancellation.
		return ExitCancelled
	}

	errStr := err.Error()
	if isUsageMessage(errStr) {
		return ExitUsageError
	}
	if strings.Contains(errStr, "failed to connect") ||
		strings.Contains(errStr, "connection refused") ||
		strings.Contains(errStr, "no such host") {
		return ExitConnectionError
	}

	return ExitGeneralError
}

// cobra reports flag and argument misuse as plain errors.
func isUsageMessage(msg string) bool {
	for _, prefix := range []string{"unknown flag", "unknown shorthand flag", "unknown command", "required flag", "invalid argument"} {
		if strings.HasPrefix(msg, prefix) {
			return true
		}
	}
	return strings.Contains(msg, "arg(s), received")
}
