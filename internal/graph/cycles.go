package graph

import (
	"sort"

	"github.com/vvka-141/pgplan/pkg/pgplan"
)

func structuralOnly(e pgplan.DependencyEdge) bool {
	return e.Kind == pgplan.Structural
}

// BreakCycles returns a copy of g with cycles removed and the edges it deferred,
// ordered by source ordinal. The input graph is not modified.
//
// A cycle consisting only of structural edges fails with
// *pgplan.UnresolvableCycleError. The structural subgraph is checked first, so
// such a cycle is reported even when referential cycles exist beside it.
func BreakCycles(g *Graph) (*Graph, []pgplan.DependencyEdge, error) {
	if cycle := g.FindCycle(structuralOnly); cycle != nil {
		return nil, nil, g.unresolvable(cycle)
	}

	removed := make(map[string]bool)
	var deferred []pgplan.DependencyEdge
	current := g

	for {
		cycle := current.FindCycle(nil)
		if cycle == nil {
			break
		}

		edge, ok := g.pickDeferral(cycle)
		if !ok {
			return nil, nil, g.unresolvable(cycle)
		}
		removed[edge.Key()] = true
		deferred = append(deferred, edge)
		current = g.without(removed)
	}

	g.SortDeferred(deferred)
	return current, deferred, nil
}

// pickDeferral selects the referential edge of cycle whose source has the
// highest ordinal; ties go to the alphabetically first source, then target.
func (g *Graph) pickDeferral(cycle []pgplan.DependencyEdge) (pgplan.DependencyEdge, bool) {
	var best pgplan.DependencyEdge
	found := false
	for _, e := range cycle {
		if e.Kind != pgplan.Referential {
			continue
		}
		if !found || g.deferBefore(e, best) {
			best, found = e, true
		}
	}
	return best, found
}

func (g *Graph) deferBefore(a, b pgplan.DependencyEdge) bool {
	oa, ob := g.Ordinal(a.From), g.Ordinal(b.From)
	if oa != ob {
		return oa > ob
	}
	if a.From != b.From {
		return a.From < b.From
	}
	if a.To != b.To {
		return a.To < b.To
	}
	return a.ConstraintName() < b.ConstraintName()
}

// SortDeferred orders deferred edges by source ordinal, then source name,
// then target name.
func (g *Graph) SortDeferred(edges []pgplan.DependencyEdge) {
	sort.SliceStable(edges, func(i, j int) bool {
		a, b := edges[i], edges[j]
		oa, ob := g.Ordinal(a.From), g.Ordinal(b.From)
		if oa != ob {
			return oa < ob
		}
		if a.From != b.From {
			return a.From < b.From
		}
		if a.To != b.To {
			return a.To < b.To
		}
		return a.ConstraintName() < b.ConstraintName()
	})
}

// unresolvable names the cycle's objects starting from the lowest ordinal.
func (g *Graph) unresolvable(cycle []pgplan.DependencyEdge) error {
	names := make([]string, len(cycle))
	start := 0
	for i, e := range cycle {
		names[i] = e.From
		if g.Ordinal(e.From) < g.Ordinal(names[start]) ||
			(g.Ordinal(e.From) == g.Ordinal(names[start]) && e.From < names[start]) {
			start = i
		}
	}
	rotated := append(append([]string(nil), names[start:]...), names[:start]...)
	return &pgplan.UnresolvableCycleError{Cycle: rotated}
}
