package planner

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vvka-141/pgplan/internal/catalog"
	"github.com/vvka-141/pgplan/internal/graph"
	"github.com/vvka-141/pgplan/internal/testing/fixtures"
	"github.com/vvka-141/pgplan/pkg/pgplan"
)

func TestSequence_RejectsCyclicGraph(t *testing.T) {
	cat, err := catalog.Load(fixtures.Budgeting())
	require.NoError(t, err)
	g, err := graph.Build(cat)
	require.NoError(t, err)

	_, err = Sequence(g, nil)

	require.Error(t, err)
	var cycleErr *pgplan.CycleDetectedError
	require.True(t, errors.As(err, &cycleErr))
	assert.ElementsMatch(t, []string{"goals", "transactions"}, cycleErr.Remaining)
	assert.True(t, errors.Is(err, pgplan.ErrCycleDetected))
}

func TestSequence_DeferredPhaseSortedBySourceOrdinal(t *testing.T) {
	defs := fixtures.NewDefinitionsBuilder().
		Table("a").References("b", "b_id").
		Table("b").References("a", "a_id").
		Table("c").References("d", "d_id").
		Table("d").References("c", "c_id").
		Build()
	cat, err := catalog.Load(defs)
	require.NoError(t, err)
	g, err := graph.Build(cat)
	require.NoError(t, err)
	reduced, deferred, err := graph.BreakCycles(g)
	require.NoError(t, err)

	// Hand the deferred edges over in reverse to check Sequence re-sorts them.
	reversed := []pgplan.DependencyEdge{deferred[1], deferred[0]}
	p, err := Sequence(reduced, reversed)
	require.NoError(t, err)

	got := p.Deferred()
	require.Len(t, got, 2)
	assert.Equal(t, "b -> a", got[0].String())
	assert.Equal(t, "d -> c", got[1].String())
}
