package planner

import (
	"errors"
	"fmt"

	"github.com/vvka-141/pgplan/pkg/pgplan"
)

// CheckInvariants verifies the ordering rules of a plan:
//   - every object is created once
//   - every dependency target of a CreateObject step is created earlier
//   - every referential dependency is applied either inline or in the deferred phase
//   - the deferred phase comes after all CreateObject steps and after both endpoints
//
// Violations are returned joined, each wrapping pgplan.ErrInvalidPlan.
func CheckInvariants(plan *pgplan.Plan) error {
	var errs []error
	fail := func(index int, format string, args ...interface{}) {
		errs = append(errs, fmt.Errorf("step %d: %s: %w", index, fmt.Sprintf(format, args...), pgplan.ErrInvalidPlan))
	}

	created := make(map[string]int)
	applied := make(map[string]bool)
	inDeferredPhase := false

	for i, step := range plan.Steps() {
		idx := i + 1
		switch step.Kind() {
		case pgplan.StepCreateObject:
			obj := step.Object()
			if obj == nil {
				fail(idx, "create step has no object")
				continue
			}
			if inDeferredPhase {
				fail(idx, "object %s is created after the deferred-constraint phase began", obj.Name)
			}
			if prev, dup := created[obj.Name]; dup {
				fail(idx, "object %s already created at step %d", obj.Name, prev)
			}

			inline := make(map[string]bool)
			for _, e := range step.Inline() {
				inline[e.Key()] = true
				applied[e.Key()] = true
			}
			for _, e := range obj.Dependencies {
				if e.To == obj.Name {
					continue
				}
				mustExist := e.Kind == pgplan.Structural || inline[e.Key()]
				if _, ok := created[e.To]; mustExist && !ok {
					fail(idx, "%s depends on %s, which is not created before it", obj.Name, e.To)
				}
			}
			created[obj.Name] = idx

		case pgplan.StepApplyDeferredConstraint:
			inDeferredPhase = true
			edge, _ := step.Edge()
			if edge.Kind != pgplan.Referential {
				fail(idx, "structural edge %s cannot be deferred", edge)
			}
			for _, endpoint := range []string{edge.From, edge.To} {
				if _, ok := created[endpoint]; !ok {
					fail(idx, "deferred constraint %s runs before %s is created", edge, endpoint)
				}
			}
			if applied[edge.Key()] {
				fail(idx, "constraint %s is applied twice", edge)
			}
			applied[edge.Key()] = true

		default:
			fail(idx, "unknown step kind %s", step.Kind())
		}
	}

	for _, step := range plan.Steps() {
		if step.Kind() != pgplan.StepCreateObject || step.Object() == nil {
			continue
		}
		for _, e := range step.Object().Dependencies {
			if e.Kind == pgplan.Referential && !applied[e.Key()] {
				errs = append(errs, fmt.Errorf("referential dependency %s is neither inline nor deferred: %w", e, pgplan.ErrInvalidPlan))
			}
		}
	}

	return errors.Join(errs...)
}
