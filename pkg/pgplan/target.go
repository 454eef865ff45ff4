package pgplan

import "context"

// Target is the system a plan is deployed into. The Executor calls the Apply
// methods; the Validator only calls the existence probes.
//
// Each Apply call is treated as atomic: the engine never cancels a call in
// flight and inherits whatever atomicity the implementation provides.
type Target interface {
	// ApplyObjectDefinition creates obj and then applies each inline constraint.
	ApplyObjectDefinition(ctx context.Context, obj *SchemaObject, inline []DependencyEdge) error

	// ApplyConstraint applies a single referential constraint.
	ApplyConstraint(ctx context.Context, edge DependencyEdge) error

	// ObjectExists reports whether obj exists in the target.
	ObjectExists(ctx context.Context, obj *SchemaObject) (bool, error)

	// ConstraintExists reports whether the constraint for edge exists in the target.
	ConstraintExists(ctx context.Context, edge DependencyEdge) (bool, error)
}
