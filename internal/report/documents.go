package report

import (
	"fmt"
	"time"

	"github.com/vvka-141/pgplan/pkg/pgplan"
)

// Format selects how reports are rendered.
type Format string

const (
	FormatText Format = "text"
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// ParseFormat accepts "", text, json and yaml. Empty means text.
func ParseFormat(s string) (Format, error) {
	switch Format(s) {
	case "", FormatText:
		return FormatText, nil
	case FormatJSON, FormatYAML:
		return Format(s), nil
	default:
		return "", fmt.Errorf("output format %q must be text, json or yaml: %w", s, pgplan.ErrUsage)
	}
}

type ConstraintDocument struct {
	From string `json:"from" yaml:"from"`
	To   string `json:"to" yaml:"to"`
	Name string `json:"name,omitempty" yaml:"name,omitempty"`
}

type StepDocument struct {
	Index      int                  `json:"index" yaml:"index"`
	Kind       string               `json:"kind" yaml:"kind"`
	Subject    string               `json:"subject" yaml:"subject"`
	ObjectType string               `json:"object_type,omitempty" yaml:"object_type,omitempty"`
	Source     string               `json:"source,omitempty" yaml:"source,omitempty"`
	Inline     []ConstraintDocument `json:"inline,omitempty" yaml:"inline,omitempty"`
}

type PlanDocument struct {
	Fingerprint string               `json:"fingerprint" yaml:"fingerprint"`
	Steps       []StepDocument       `json:"steps" yaml:"steps"`
	Deferred    []ConstraintDocument `json:"deferred" yaml:"deferred"`
}

type ResultDocument struct {
	Index      int    `json:"index" yaml:"index"`
	Kind       string `json:"kind" yaml:"kind"`
	Subject    string `json:"subject" yaml:"subject"`
	Outcome    string `json:"outcome" yaml:"outcome"`
	Error      string `json:"error,omitempty" yaml:"error,omitempty"`
	DurationMS int64  `json:"duration_ms" yaml:"duration_ms"`
}

type ExecutionDocument struct {
	RunID       string              `json:"run_id" yaml:"run_id"`
	Status      string              `json:"status" yaml:"status"`
	Summary     string              `json:"summary" yaml:"summary"`
	Fingerprint string              `json:"fingerprint" yaml:"fingerprint"`
	FailedIndex int                 `json:"failed_index,omitempty" yaml:"failed_index,omitempty"`
	Reason      string              `json:"reason,omitempty" yaml:"reason,omitempty"`
	StartedAt   time.Time           `json:"started_at" yaml:"started_at"`
	FinishedAt  time.Time           `json:"finished_at" yaml:"finished_at"`
	DurationMS  int64               `json:"duration_ms" yaml:"duration_ms"`
	Steps       []ResultDocument    `json:"steps" yaml:"steps"`
	Rollback    []RollbackStatement `json:"rollback,omitempty" yaml:"rollback,omitempty"`
}

type FindingDocument struct {
	Kind       string              `json:"kind" yaml:"kind"`
	Object     string              `json:"object" yaml:"object"`
	Constraint *ConstraintDocument `json:"constraint,omitempty" yaml:"constraint,omitempty"`
	Message    string              `json:"message" yaml:"message"`
}

type ValidationDocument struct {
	Passed             bool              `json:"passed" yaml:"passed"`
	ObjectsChecked     int               `json:"objects_checked" yaml:"objects_checked"`
	ConstraintsChecked int               `json:"constraints_checked" yaml:"constraints_checked"`
	Findings           []FindingDocument `json:"findings" yaml:"findings"`
}

func constraintDocument(e pgplan.DependencyEdge) ConstraintDocument {
	return ConstraintDocument{From: e.From, To: e.To, Name: e.ConstraintName()}
}

func NewPlanDocument(plan *pgplan.Plan) PlanDocument {
	doc := PlanDocument{
		Fingerprint: plan.Fingerprint(),
		Steps:       []StepDocument{},
		Deferred:    []ConstraintDocument{},
	}

	for i, step := range plan.Steps() {
		sd := StepDocument{Index: i + 1, Kind: step.Kind().String(), Subject: step.Subject()}
		if obj := step.Object(); obj != nil {
			sd.ObjectType = string(obj.Type)
			sd.Source = obj.Source
		}
		for _, e := range step.Inline() {
			sd.Inline = append(sd.Inline, constraintDocument(e))
		}
		doc.Steps = append(doc.Steps, sd)
	}

	for _, e := range plan.Deferred() {
		doc.Deferred = append(doc.Deferred, constraintDocument(e))
	}
	return doc
}

func NewExecutionDocument(r *pgplan.ExecutionReport) ExecutionDocument {
	doc := ExecutionDocument{
		RunID:       r.RunID.String(),
		Status:      r.Status.String(),
		Summary:     r.Summary(),
		FailedIndex: r.FailedIndex,
		Reason:      r.Reason,
		StartedAt:   r.StartedAt.UTC(),
		FinishedAt:  r.FinishedAt.UTC(),
		DurationMS:  r.FinishedAt.Sub(r.StartedAt).Milliseconds(),
		Steps:       []ResultDocument{},
		Rollback:    Rollback(r),
	}
	if r.Plan != nil {
		doc.Fingerprint = r.Plan.Fingerprint()
	}

	for _, res := range r.Results {
		doc.Steps = append(doc.Steps, ResultDocument{
			Index:      res.Index,
			Kind:       res.Step.Kind().String(),
			Subject:    res.Step.Subject(),
			Outcome:    res.Outcome.String(),
			Error:      res.Error,
			DurationMS: res.Duration.Milliseconds(),
		})
	}
	return doc
}

func NewValidationDocument(r *pgplan.ValidationReport) ValidationDocument {
	doc := ValidationDocument{
		Passed:             r.Passed(),
		ObjectsChecked:     r.ObjectsChecked,
		ConstraintsChecked: r.ConstraintsChecked,
		Findings:           []FindingDocument{},
	}
	for _, f := range r.Findings {
		fd := FindingDocument{Kind: f.Kind.String(), Object: f.Object, Message: f.Message}
		if f.Edge != nil {
			c := constraintDocument(*f.Edge)
			fd.Constraint = &c
		}
		doc.Findings = append(doc.Findings, fd)
	}
	return doc
}
