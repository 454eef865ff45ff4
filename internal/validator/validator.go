// Package validator compares a catalog against a deployed target.
//
// Validation only calls the target's existence probes. It can be run any
// number of times and never changes the target.
package validator

import (
	"context"
	"fmt"

	"github.com/vvka-141/pgplan/pkg/pgplan"
)

// Validator checks objects and referential constraints.
type Validator struct {
	logger pgplan.Logger
}

// New creates a Validator.
// Panics if logger is nil.
func New(logger pgplan.Logger) *Validator {
	if logger == nil {
		panic("logger cannot be nil")
	}
	return &Validator{logger: logger}
}

// Validate probes every object and every declared referential edge, deferred
// or not, in catalog order. Missing pieces become findings; a probe that fails
// aborts validation with an error.
func (v *Validator) Validate(ctx context.Context, cat pgplan.Catalog, target pgplan.Target) (*pgplan.ValidationReport, error) {
	if cat == nil || target == nil {
		return nil, fmt.Errorf("catalog and target are required: %w", pgplan.ErrInvalidConfig)
	}

	report := &pgplan.ValidationReport{}

	for _, obj := range cat.Objects() {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("validation interrupted: %w", err)
		}

		exists, err := target.ObjectExists(ctx, obj)
		if err != nil {
			return nil, fmt.Errorf("failed to check %s %s: %w", obj.Type, obj.Name, err)
		}
		report.ObjectsChecked++
		if !exists {
			report.Findings = append(report.Findings, pgplan.Finding{
				Kind:    pgplan.FindingMissingObject,
				Object:  obj.Name,
				Message: fmt.Sprintf("%s %s does not exist", obj.Type, obj.Name),
			})
		}

		for _, edge := range obj.Dependencies {
			if edge.Kind != pgplan.Referential {
				continue
			}
			exists, err := target.ConstraintExists(ctx, edge)
			if err != nil {
				return nil, fmt.Errorf("failed to check constraint %s: %w", edge, err)
			}
			report.ConstraintsChecked++
			if !exists {
				e := edge
				report.Findings = append(report.Findings, pgplan.Finding{
					Kind:    pgplan.FindingMissingConstraint,
					Object:  obj.Name,
					Edge:    &e,
					Message: missingConstraintMessage(edge),
				})
			}
		}
	}

	if report.Passed() {
		v.logger.Verbose("Validation passed: %d object(s), %d constraint(s)", report.ObjectsChecked, report.ConstraintsChecked)
	} else {
		v.logger.Verbose("Validation found %d discrepancy(ies)", len(report.Findings))
	}
	return report, nil
}

func missingConstraintMessage(edge pgplan.DependencyEdge) string {
	if name := edge.ConstraintName(); name != "" {
		return fmt.Sprintf("constraint %s for %s does not exist", name, edge)
	}
	return fmt.Sprintf("no foreign key from %s to %s exists", edge.From, edge.To)
}
