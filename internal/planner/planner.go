package planner

import (
	"errors"
	"fmt"

	"github.com/vvka-141/pgplan/internal/catalog"
	"github.com/vvka-141/pgplan/internal/checksum"
	"github.com/vvka-141/pgplan/internal/graph"
	"github.com/vvka-141/pgplan/pkg/pgplan"
)

// Planner runs the planning pipeline.
type Planner struct {
	logger pgplan.Logger
}

// New creates a planner.
// Panics if logger is nil.
func New(logger pgplan.Logger) *Planner {
	if logger == nil {
		panic("logger cannot be nil")
	}
	return &Planner{logger: logger}
}

// Plan loads defs into a catalog and computes a validated plan. The catalog
// is returned for later validation runs.
func (p *Planner) Plan(defs []pgplan.Definition) (*pgplan.Plan, *catalog.Catalog, error) {
	cat, err := catalog.Load(defs)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load definitions: %w", err)
	}
	p.logger.Verbose("Catalog loaded: %d object(s)", cat.Len())

	g, err := graph.Build(cat)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to build dependency graph: %w", err)
	}
	p.logger.Verbose("Dependency graph built: %d edge(s)", len(g.Edges()))

	reduced, deferred, err := graph.BreakCycles(g)
	if err != nil {
		return nil, nil, err
	}
	for _, e := range deferred {
		p.logger.Verbose("Deferring %s to break a dependency cycle", e)
	}
	if err := checkDeferrable(deferred); err != nil {
		return nil, nil, err
	}

	plan, err := Sequence(reduced, deferred)
	if err != nil {
		return nil, nil, err
	}

	if err := CheckInvariants(plan); err != nil {
		return nil, nil, fmt.Errorf("computed plan failed verification: %w", err)
	}

	p.logger.Verbose("Plan %s: %d object step(s), %d deferred constraint(s)",
		checksum.Short(plan.Fingerprint()), plan.Len()-len(deferred), len(deferred))

	return plan, cat, nil
}

// checkDeferrable rejects deferred edges that carry nothing to apply later.
func checkDeferrable(deferred []pgplan.DependencyEdge) error {
	var errs []error
	for _, e := range deferred {
		if !e.Constraint.IsDefined() {
			errs = append(errs, &pgplan.ParseError{
				Object:  e.From,
				Field:   "depends_on " + e.To,
				Message: "this dependency must be deferred to break a cycle, but it declares no constraint columns or sql to apply afterwards",
			})
		}
	}
	return errors.Join(errs...)
}
