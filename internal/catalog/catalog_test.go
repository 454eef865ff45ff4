package catalog_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vvka-141/pgplan/internal/catalog"
	"github.com/vvka-141/pgplan/internal/testing/fixtures"
	"github.com/vvka-141/pgplan/pkg/pgplan"
)

func TestLoad_Budgeting(t *testing.T) {
	cat, err := catalog.Load(fixtures.Budgeting())
	require.NoError(t, err)

	assert.Equal(t, 4, cat.Len())

	var names []string
	for _, obj := range cat.Objects() {
		names = append(names, obj.Name)
	}
	assert.Equal(t, []string{"families", "accounts", "goals", "transactions"}, names)

	goals, ok := cat.Lookup("goals")
	require.True(t, ok)
	assert.Equal(t, 3, goals.Ordinal)
	assert.Equal(t, pgplan.ObjectTable, goals.Type)
	require.Len(t, goals.Dependencies, 3)
	assert.Equal(t, pgplan.Referential, goals.Dependencies[0].Kind)
	assert.Equal(t, "goals_family_id_fkey", goals.Dependencies[0].ConstraintName())

	_, ok = cat.Lookup("budgets")
	assert.False(t, ok)
	assert.Len(t, cat.Edges(), 5)
}

func TestLoad_OrdinalDefaultsToPosition(t *testing.T) {
	defs := []pgplan.Definition{
		{Name: "b", Body: "CREATE TABLE b ()"},
		{Name: "a", Body: "CREATE TABLE a ()", Ordinal: 10},
		{Name: "c", Body: "CREATE TABLE c ()"},
	}

	cat, err := catalog.Load(defs)
	require.NoError(t, err)

	objs := cat.Objects()
	assert.Equal(t, "b", objs[0].Name)
	assert.Equal(t, 1, objs[0].Ordinal)
	assert.Equal(t, "c", objs[1].Name)
	assert.Equal(t, 3, objs[1].Ordinal)
	assert.Equal(t, "a", objs[2].Name)
}

func TestLoad_EqualOrdinalsSortByName(t *testing.T) {
	defs := []pgplan.Definition{
		{Name: "zeta", Body: "x", Ordinal: 5},
		{Name: "alpha", Body: "x", Ordinal: 5},
	}

	cat, err := catalog.Load(defs)
	require.NoError(t, err)
	assert.Equal(t, "alpha", cat.Objects()[0].Name)
}

func TestLoad_StructuralDependency(t *testing.T) {
	defs := fixtures.NewDefinitionsBuilder().
		Object("util.money", "type", "CREATE TYPE util.money AS (amount numeric)").
		Table("accounts").Requires("util.money").
		Build()

	cat, err := catalog.Load(defs)
	require.NoError(t, err)

	accounts, _ := cat.Lookup("accounts")
	require.Len(t, accounts.Dependencies, 1)
	assert.Equal(t, pgplan.Structural, accounts.Dependencies[0].Kind)
}

func TestLoad_ParseErrors(t *testing.T) {
	tests := []struct {
		name     string
		defs     []pgplan.Definition
		contains string
	}{
		{"missing name", []pgplan.Definition{{Body: "x"}}, "definition #1 has no name"},
		{"duplicate name", []pgplan.Definition{{Name: "a", Body: "x"}, {Name: "a", Body: "y", Source: "b.sql"}},
			"duplicate object name, first declared at ordinal 1"},
		{"empty body", []pgplan.Definition{{Name: "a", Body: "  "}}, "must not be empty"},
		{"negative ordinal", []pgplan.Definition{{Name: "a", Body: "x", Ordinal: -2}}, "must be non-negative"},
		{"unknown type", []pgplan.Definition{{Name: "a", Body: "x", Type: "trigger"}}, "unknown object type"},
		{"dependency without target", []pgplan.Definition{{Name: "a", Body: "x", DependsOn: []pgplan.DependencySpec{{}}}},
			"dependency has no object name"},
		{"structural with constraint", []pgplan.Definition{
			{Name: "b", Body: "x"},
			{Name: "a", Body: "x", DependsOn: []pgplan.DependencySpec{{Object: "b", Structural: true,
				Constraint: pgplan.ConstraintSpec{Columns: []string{"b_id"}}}}},
		}, "cannot declare a constraint"},
		{"bad action", []pgplan.Definition{
			{Name: "b", Body: "x"},
			{Name: "a", Body: "x", DependsOn: []pgplan.DependencySpec{{Object: "b",
				Constraint: pgplan.ConstraintSpec{Columns: []string{"b_id"}, OnDelete: "nuke"}}}},
		}, `on_delete "nuke"`},
		{"column mismatch", []pgplan.Definition{
			{Name: "b", Body: "x"},
			{Name: "a", Body: "x", DependsOn: []pgplan.DependencySpec{{Object: "b",
				Constraint: pgplan.ConstraintSpec{Columns: []string{"b_id"}, References: []string{"id", "tenant"}}}}},
		}, "1 column(s) but 2 reference(s)"},
		{"sql without name", []pgplan.Definition{
			{Name: "b", Body: "x"},
			{Name: "a", Body: "x", DependsOn: []pgplan.DependencySpec{{Object: "b",
				Constraint: pgplan.ConstraintSpec{SQL: "ALTER TABLE a ADD FOREIGN KEY (b_id) REFERENCES b"}}}},
		}, "needs an explicit constraint name"},
		{"duplicate dependency", []pgplan.Definition{
			{Name: "b", Body: "x"},
			{Name: "a", Body: "x", DependsOn: []pgplan.DependencySpec{{Object: "b"}, {Object: "b"}}},
		}, `duplicate dependency on "b"`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cat, err := catalog.Load(tt.defs)
			require.Error(t, err)
			assert.Nil(t, cat)
			assert.ErrorIs(t, err, pgplan.ErrParse)

			var parseErr *pgplan.ParseError
			assert.True(t, errors.As(err, &parseErr))
			assert.Contains(t, err.Error(), tt.contains)
		})
	}
}

func TestLoad_UnknownReference(t *testing.T) {
	defs := fixtures.NewDefinitionsBuilder().
		Table("goals").References("budgets", "budget_id").
		Build()

	_, err := catalog.Load(defs)
	require.Error(t, err)
	assert.ErrorIs(t, err, pgplan.ErrUnknownReference)
	assert.ErrorIs(t, err, pgplan.ErrParse)

	var refErr *pgplan.UnknownReferenceError
	require.ErrorAs(t, err, &refErr)
	assert.Equal(t, "goals", refErr.From)
	assert.Equal(t, "budgets", refErr.To)
}

func TestLoad_ReportsAllProblems(t *testing.T) {
	defs := []pgplan.Definition{
		{Name: "a", Body: ""},
		{Name: "b", Body: "x", DependsOn: []pgplan.DependencySpec{{Object: "ghost"}}},
	}

	_, err := catalog.Load(defs)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "must not be empty")
	assert.Contains(t, err.Error(), `"ghost"`)
}

func TestLoad_SelfReferenceIsAllowed(t *testing.T) {
	defs := fixtures.NewDefinitionsBuilder().
		Table("employees").References("employees", "manager_id").
		Build()

	cat, err := catalog.Load(defs)
	require.NoError(t, err)
	assert.Equal(t, 1, cat.Len())
}

func TestLoad_ConstraintInBody(t *testing.T) {
	defs := []pgplan.Definition{
		{Name: "a", Body: "CREATE TABLE a (id INT PRIMARY KEY)"},
		{Name: "b", Body: "CREATE TABLE b (a_id INT REFERENCES a)", DependsOn: []pgplan.DependencySpec{{Object: "a"}}},
	}

	cat, err := catalog.Load(defs)
	require.NoError(t, err)

	b, ok := cat.Lookup("b")
	require.True(t, ok)
	require.Len(t, b.Dependencies, 1)
	assert.Equal(t, pgplan.Referential, b.Dependencies[0].Kind)
	assert.False(t, b.Dependencies[0].Constraint.IsDefined())
	assert.Empty(t, b.Dependencies[0].ConstraintName())
}

func TestLoad_Empty(t *testing.T) {
	cat, err := catalog.Load(nil)
	require.NoError(t, err)
	assert.Equal(t, 0, cat.Len())
	assert.Empty(t, cat.Objects())
}
