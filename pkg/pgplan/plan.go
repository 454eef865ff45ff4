package pgplan

import "fmt"

// StepKind tags a deployment step.
type StepKind int

const (
	StepCreateObject StepKind = iota + 1
	StepApplyDeferredConstraint
)

// String returns the step kind name used in reports.
func (k StepKind) String() string {
	switch k {
	case StepCreateObject:
		return "CreateObject"
	case StepApplyDeferredConstraint:
		return "ApplyDeferredConstraint"
	default:
		return fmt.Sprintf("Unknown(%d)", int(k))
	}
}

// MarshalText renders the kind for JSON and YAML reports.
func (k StepKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// Step is one unit of deployment work. Steps are values; the constructors copy
// their inputs and the accessors return copies, so a generated plan cannot be
// altered through them.
type Step struct {
	kind   StepKind
	object *SchemaObject
	inline []DependencyEdge
	edge   DependencyEdge
}

// CreateObject builds a step that applies obj's body together with the
// referential edges that were not deferred.
func CreateObject(obj *SchemaObject, inline []DependencyEdge) Step {
	return Step{
		kind:   StepCreateObject,
		object: obj.Clone(),
		inline: cloneEdges(inline),
	}
}

// ApplyDeferredConstraint builds a step that applies a postponed referential edge.
func ApplyDeferredConstraint(edge DependencyEdge) Step {
	return Step{kind: StepApplyDeferredConstraint, edge: edge.Clone()}
}

// Kind reports which variant the step is.
func (s Step) Kind() StepKind { return s.kind }

// Object returns the object created by a CreateObject step, or nil.
func (s Step) Object() *SchemaObject { return s.object.Clone() }

// Inline returns the constraints applied together with a CreateObject step.
func (s Step) Inline() []DependencyEdge {
	return cloneEdges(s.inline)
}

// Edge returns the constraint of an ApplyDeferredConstraint step.
func (s Step) Edge() (DependencyEdge, bool) {
	return s.edge.Clone(), s.kind == StepApplyDeferredConstraint
}

// Subject names what the step acts on: the object name or the edge.
func (s Step) Subject() string {
	if s.kind == StepCreateObject && s.object != nil {
		return s.object.Name
	}
	return s.edge.String()
}

// String renders the step for logs and error messages.
func (s Step) String() string {
	switch s.kind {
	case StepCreateObject:
		if len(s.inline) == 0 {
			return fmt.Sprintf("create %s", s.Subject())
		}
		return fmt.Sprintf("create %s (+%d inline constraint(s))", s.Subject(), len(s.inline))
	case StepApplyDeferredConstraint:
		if name := s.edge.ConstraintName(); name != "" {
			return fmt.Sprintf("apply deferred constraint %s on %s", name, s.edge)
		}
		return fmt.Sprintf("apply deferred constraint %s", s.edge)
	default:
		return "unknown step"
	}
}

// Plan is the ordered, immutable sequence of steps computed before execution.
// Object steps come first; the deferred-constraint phase always closes the plan,
// even when it is empty.
type Plan struct {
	steps       []Step
	deferred    []DependencyEdge
	fingerprint string
}

// NewPlan assembles a plan. The slices are copied.
func NewPlan(steps []Step, deferred []DependencyEdge, fingerprint string) *Plan {
	return &Plan{
		steps:       append([]Step(nil), steps...),
		deferred:    cloneEdges(deferred),
		fingerprint: fingerprint,
	}
}

// Steps returns a copy of the ordered steps.
func (p *Plan) Steps() []Step { return append([]Step(nil), p.steps...) }

// Len returns the number of steps.
func (p *Plan) Len() int { return len(p.steps) }

// Deferred returns the edges moved to the deferred-constraint phase.
func (p *Plan) Deferred() []DependencyEdge { return cloneEdges(p.deferred) }

// Fingerprint identifies the plan content. Equal inputs yield equal fingerprints.
func (p *Plan) Fingerprint() string { return p.fingerprint }

// ObjectOrder returns the object names in creation order.
func (p *Plan) ObjectOrder() []string {
	var names []string
	for _, s := range p.steps {
		if s.kind == StepCreateObject {
			names = append(names, s.Subject())
		}
	}
	return names
}
