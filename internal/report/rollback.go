package report

import (
	"github.com/vvka-141/pgplan/internal/target/postgres"
	"github.com/vvka-141/pgplan/pkg/pgplan"
)

// RollbackStatement undoes one applied step. Statements are suggestions for an
// operator; nothing executes them.
type RollbackStatement struct {
	Index     int    `json:"index" yaml:"index"`
	Step      string `json:"step" yaml:"step"`
	Statement string `json:"statement" yaml:"statement"`
}

// Rollback lists the applied steps of r, last applied first, with the
// statement that reverses each. Inline constraints go with their object.
func Rollback(r *pgplan.ExecutionReport) []RollbackStatement {
	applied := r.Applied()
	out := make([]RollbackStatement, 0, len(applied))

	for i := len(applied) - 1; i >= 0; i-- {
		res := applied[i]
		var stmt string
		switch res.Step.Kind() {
		case pgplan.StepCreateObject:
			stmt = postgres.DropStatement(res.Step.Object())
		case pgplan.StepApplyDeferredConstraint:
			edge, _ := res.Step.Edge()
			stmt = postgres.DropConstraintStatement(edge)
		default:
			continue
		}
		out = append(out, RollbackStatement{Index: res.Index, Step: res.Step.String(), Statement: stmt})
	}
	return out
}
