// Package graph builds the dependency graph of a catalog and breaks its cycles.
//
// An edge A -> B means A depends on B: B must be created before A.
//
// BreakCycles repeatedly finds a cycle with a depth-first search and defers one
// referential edge from it: the edge whose source has the highest ordinal,
// ties going to the alphabetically first source and then target name. Cycles
// made only of structural edges cannot be broken and fail with
// *pgplan.UnresolvableCycleError.
//
// Nodes and edges are always visited in ordinal order, so the same catalog
// yields the same deferred edges on every run.
package graph
