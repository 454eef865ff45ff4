package planner

import (
	"container/heap"

	"github.com/vvka-141/pgplan/internal/checksum"
	"github.com/vvka-141/pgplan/internal/graph"
	"github.com/vvka-141/pgplan/pkg/pgplan"
)

// Sequence orders the objects of an acyclic graph and appends the deferred
// constraint phase. It fails with *pgplan.CycleDetectedError if the graph
// still contains a cycle.
func Sequence(g *graph.Graph, deferred []pgplan.DependencyEdge) (*pgplan.Plan, error) {
	nodes := g.Nodes()
	pending := make(map[string]int, len(nodes))
	dependents := make(map[string][]string, len(nodes))

	for _, obj := range nodes {
		for _, e := range g.Outgoing(obj.Name) {
			pending[obj.Name]++
			dependents[e.To] = append(dependents[e.To], obj.Name)
		}
	}

	ready := &readyQueue{}
	for _, obj := range nodes {
		if pending[obj.Name] == 0 {
			heap.Push(ready, obj)
		}
	}

	steps := make([]pgplan.Step, 0, len(nodes)+len(deferred))
	for ready.Len() > 0 {
		obj := heap.Pop(ready).(*pgplan.SchemaObject)
		steps = append(steps, pgplan.CreateObject(obj, inlineConstraints(g, obj.Name)))

		for _, name := range dependents[obj.Name] {
			pending[name]--
			if pending[name] == 0 {
				dep, _ := g.Node(name)
				heap.Push(ready, dep)
			}
		}
	}

	if len(steps) != len(nodes) {
		var remaining []string
		for _, obj := range nodes {
			if pending[obj.Name] > 0 {
				remaining = append(remaining, obj.Name)
			}
		}
		return nil, &pgplan.CycleDetectedError{Remaining: remaining}
	}

	ordered := append([]pgplan.DependencyEdge(nil), deferred...)
	g.SortDeferred(ordered)
	for _, e := range ordered {
		steps = append(steps, pgplan.ApplyDeferredConstraint(e))
	}

	return pgplan.NewPlan(steps, ordered, checksum.Fingerprint(steps)), nil
}

func inlineConstraints(g *graph.Graph, name string) []pgplan.DependencyEdge {
	var inline []pgplan.DependencyEdge
	for _, e := range g.Outgoing(name) {
		if e.Kind == pgplan.Referential {
			inline = append(inline, e)
		}
	}
	return inline
}

// readyQueue is a min-heap of objects ordered by ordinal, then name.
type readyQueue []*pgplan.SchemaObject

func (q readyQueue) Len() int { return len(q) }

func (q readyQueue) Less(i, j int) bool {
	if q[i].Ordinal != q[j].Ordinal {
		return q[i].Ordinal < q[j].Ordinal
	}
	return q[i].Name < q[j].Name
}

func (q readyQueue) Swap(i, j int) { q[i], q[j] = q[j], q[i] }

func (q *readyQueue) Push(x any) { *q = append(*q, x.(*pgplan.SchemaObject)) }

func (q *readyQueue) Pop() any {
	old := *q
	n := len(old)
	item := old[n-1]
	*q = old[:n-1]
	return item
}
