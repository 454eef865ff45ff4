package graph

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vvka-141/pgplan/internal/catalog"
	"github.com/vvka-141/pgplan/internal/testing/fixtures"
	"github.com/vvka-141/pgplan/pkg/pgplan"
)

func buildGraph(t *testing.T, defs []pgplan.Definition) *Graph {
	t.Helper()
	cat, err := catalog.Load(defs)
	require.NoError(t, err)
	g, err := Build(cat)
	require.NoError(t, err)
	return g
}

func edgeNames(edges []pgplan.DependencyEdge) []string {
	var out []string
	for _, e := range edges {
		out = append(out, e.String())
	}
	return out
}

// staticCatalog bypasses catalog validation so Build's own checks can be exercised.
type staticCatalog []*pgplan.SchemaObject

func (c staticCatalog) Objects() []*pgplan.SchemaObject { return c }
func (c staticCatalog) Len() int                        { return len(c) }
func (c staticCatalog) Lookup(name string) (*pgplan.SchemaObject, bool) {
	for _, o := range c {
		if o.Name == name {
			return o, true
		}
	}
	return nil, false
}

func TestBuild(t *testing.T) {
	g := buildGraph(t, fixtures.Budgeting())

	assert.Equal(t, 4, g.Len())
	assert.Equal(t, []string{"goals -> families", "goals -> accounts", "goals -> transactions"}, edgeNames(g.Outgoing("goals")))
	assert.Equal(t, []string{"transactions -> accounts", "transactions -> goals"}, edgeNames(g.Outgoing("transactions")))
	assert.Len(t, g.Edges(), 5)
	assert.Equal(t, 3, g.Ordinal("goals"))
	assert.Equal(t, -1, g.Ordinal("ghost"))
	assert.Nil(t, g.Outgoing("ghost"))

	node, ok := g.Node("families")
	require.True(t, ok)
	assert.Equal(t, 1, node.Ordinal)
}

func TestBuild_UnknownReference(t *testing.T) {
	cat := staticCatalog{
		{Name: "goals", Ordinal: 1, Dependencies: []pgplan.DependencyEdge{{From: "goals", To: "budgets"}}},
	}

	_, err := Build(cat)
	var refErr *pgplan.UnknownReferenceError
	require.ErrorAs(t, err, &refErr)
	assert.Equal(t, "budgets", refErr.To)
}

func TestFindCycle(t *testing.T) {
	t.Run("acyclic", func(t *testing.T) {
		g := buildGraph(t, fixtures.Chain(5))
		assert.Nil(t, g.FindCycle(nil))
	})

	t.Run("two node cycle", func(t *testing.T) {
		g := buildGraph(t, fixtures.Budgeting())
		cycle := g.FindCycle(nil)
		assert.Equal(t, []string{"goals -> transactions", "transactions -> goals"}, edgeNames(cycle))
	})

	t.Run("filter hides cycle", func(t *testing.T) {
		g := buildGraph(t, fixtures.Budgeting())
		assert.Nil(t, g.FindCycle(structuralOnly))
	})

	t.Run("self loop", func(t *testing.T) {
		g := buildGraph(t, fixtures.NewDefinitionsBuilder().Table("employees").References("employees", "manager_id").Build())
		assert.Equal(t, []string{"employees -> employees"}, edgeNames(g.FindCycle(nil)))
	})
}
