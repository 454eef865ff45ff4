// Package fixtures provides definition sets shared by planner, executor and
// integration tests.
package fixtures

import (
	"fmt"

	"github.com/vvka-141/pgplan/pkg/pgplan"
)

// DefinitionsBuilder provides a fluent API for building definition lists.
//
// Example usage:
//
//	defs := fixtures.NewDefinitionsBuilder().
//	    Table("families").
//	    Table("goals").References("families", "family_id").
//	    Build()
type DefinitionsBuilder struct {
	defs []pgplan.Definition
}

// NewDefinitionsBuilder creates an empty builder.
func NewDefinitionsBuilder() *DefinitionsBuilder {
	return &DefinitionsBuilder{}
}

// Table appends a table with a bigint primary key and one bigint column per
// foreign key added afterwards. Ordinal is its position.
func (b *DefinitionsBuilder) Table(name string) *DefinitionsBuilder {
	b.defs = append(b.defs, pgplan.Definition{
		Name:    name,
		Ordinal: len(b.defs) + 1,
		Body:    fmt.Sprintf("CREATE TABLE %s (id BIGINT PRIMARY KEY)", name),
	})
	return b
}

// Object appends a definition with an explicit type and body.
func (b *DefinitionsBuilder) Object(name, objType, body string) *DefinitionsBuilder {
	b.defs = append(b.defs, pgplan.Definition{
		Name:    name,
		Ordinal: len(b.defs) + 1,
		Type:    objType,
		Body:    body,
	})
	return b
}

// Ordinal overrides the ordinal of the last definition.
func (b *DefinitionsBuilder) Ordinal(ordinal int) *DefinitionsBuilder {
	b.last().Ordinal = ordinal
	return b
}

// References adds a foreign key column on the last table pointing at target(id).
func (b *DefinitionsBuilder) References(target, column string) *DefinitionsBuilder {
	last := b.last()
	if len(last.Body) > 0 && last.Body[len(last.Body)-1] == ')' && (last.Type == "" || last.Type == "table") {
		last.Body = last.Body[:len(last.Body)-1] + fmt.Sprintf(", %s BIGINT)", column)
	}
	last.DependsOn = append(last.DependsOn, pgplan.DependencySpec{
		Object: target,
		Constraint: pgplan.ConstraintSpec{
			Columns:    []string{column},
			References: []string{"id"},
		},
	})
	return b
}

// Requires adds a structural dependency on target to the last definition.
func (b *DefinitionsBuilder) Requires(target string) *DefinitionsBuilder {
	last := b.last()
	last.DependsOn = append(last.DependsOn, pgplan.DependencySpec{Object: target, Structural: true})
	return b
}

// Build returns a copy of the definitions.
func (b *DefinitionsBuilder) Build() []pgplan.Definition {
	return append([]pgplan.Definition(nil), b.defs...)
}

func (b *DefinitionsBuilder) last() *pgplan.Definition {
	if len(b.defs) == 0 {
		panic("fixtures: add a definition first")
	}
	return &b.defs[len(b.defs)-1]
}

// Budgeting is the household budgeting schema: families, accounts, goals and
// transactions, where goals and transactions reference each other.
//
// Expected plan: families, accounts, transactions, goals, then the deferred
// transactions -> goals constraint.
func Budgeting() []pgplan.Definition {
	return NewDefinitionsBuilder().
		Table("families").
		Table("accounts").
		Table("goals").
		References("families", "family_id").
		References("accounts", "account_id").
		References("transactions", "last_transaction_id").
		Table("transactions").
		References("goals", "goal_id").
		References("accounts", "account_id").
		Build()
}

// StructuralCycle returns A and B requiring each other structurally.
func StructuralCycle() []pgplan.Definition {
	return NewDefinitionsBuilder().
		Object("A", "view", "CREATE VIEW A AS SELECT 1").
		Requires("B").
		Object("B", "view", "CREATE VIEW B AS SELECT 1").
		Requires("A").
		Build()
}

// Chain returns n tables where each references the previous one. The plan has
// n object steps and no deferred constraints.
func Chain(n int) []pgplan.Definition {
	b := NewDefinitionsBuilder()
	for i := 1; i <= n; i++ {
		b.Table(fmt.Sprintf("t%d", i))
		if i > 1 {
			b.References(fmt.Sprintf("t%d", i-1), "prev_id")
		}
	}
	return b.Build()
}
