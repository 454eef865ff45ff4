// Package planner turns definitions into a deployment plan.
//
// The pipeline is catalog.Load → graph.Build → graph.BreakCycles → Sequence →
// CheckInvariants. Everything here is pure computation over in-memory
// structures; nothing touches a database.
//
// Sequence emits one CreateObject step per object using Kahn's algorithm,
// always taking the ready object with the lowest ordinal (then name), and
// closes the plan with one ApplyDeferredConstraint step per deferred edge.
package planner
