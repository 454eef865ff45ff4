package graph

import (
	"sort"

	"github.com/vvka-141/pgplan/pkg/pgplan"
)

// Graph is an immutable dependency graph over schema objects.
type Graph struct {
	nodes []*pgplan.SchemaObject
	index map[string]int
	out   [][]pgplan.DependencyEdge
}

// Build turns a catalog into a graph with one edge per declared dependency.
// It fails with *pgplan.UnknownReferenceError when a dependency names an
// object outside the catalog.
func Build(cat pgplan.Catalog) (*Graph, error) {
	objects := cat.Objects()
	g := &Graph{
		nodes: objects,
		index: make(map[string]int, len(objects)),
		out:   make([][]pgplan.DependencyEdge, len(objects)),
	}
	for i, obj := range objects {
		g.index[obj.Name] = i
	}

	for i, obj := range objects {
		for _, edge := range obj.Dependencies {
			if _, ok := g.index[edge.To]; !ok {
				return nil, &pgplan.UnknownReferenceError{From: edge.From, To: edge.To}
			}
			g.out[i] = append(g.out[i], edge)
		}
		g.sortEdges(g.out[i])
	}

	return g, nil
}

// sortEdges orders edges by target position, then constraint name.
func (g *Graph) sortEdges(edges []pgplan.DependencyEdge) {
	sort.SliceStable(edges, func(a, b int) bool {
		ta, tb := g.index[edges[a].To], g.index[edges[b].To]
		if ta != tb {
			return ta < tb
		}
		return edges[a].ConstraintName() < edges[b].ConstraintName()
	})
}

// Nodes returns the objects in ordinal order.
func (g *Graph) Nodes() []*pgplan.SchemaObject {
	return append([]*pgplan.SchemaObject(nil), g.nodes...)
}

// Node finds an object by name.
func (g *Graph) Node(name string) (*pgplan.SchemaObject, bool) {
	i, ok := g.index[name]
	if !ok {
		return nil, false
	}
	return g.nodes[i], true
}

// Outgoing returns the dependencies of the named object.
func (g *Graph) Outgoing(name string) []pgplan.DependencyEdge {
	i, ok := g.index[name]
	if !ok {
		return nil
	}
	return append([]pgplan.DependencyEdge(nil), g.out[i]...)
}

// Edges returns every edge, grouped by source in ordinal order.
func (g *Graph) Edges() []pgplan.DependencyEdge {
	var edges []pgplan.DependencyEdge
	for _, out := range g.out {
		edges = append(edges, out...)
	}
	return edges
}

// Len returns the number of nodes.
func (g *Graph) Len() int {
	return len(g.nodes)
}

// Ordinal returns the ordinal of the named node, or -1.
func (g *Graph) Ordinal(name string) int {
	if i, ok := g.index[name]; ok {
		return g.nodes[i].Ordinal
	}
	return -1
}

// without returns a copy of g minus the edges whose keys are in removed.
func (g *Graph) without(removed map[string]bool) *Graph {
	c := &Graph{
		nodes: g.nodes,
		index: g.index,
		out:   make([][]pgplan.DependencyEdge, len(g.out)),
	}
	for i, out := range g.out {
		for _, e := range out {
			if !removed[e.Key()] {
				c.out[i] = append(c.out[i], e)
			}
		}
	}
	return c
}

// FindCycle returns the edges of one cycle among the edges accepted by keep,
// or nil when that subgraph is acyclic. The first edge leaves the node where
// the search re-entered the cycle.
func (g *Graph) FindCycle(keep func(pgplan.DependencyEdge) bool) []pgplan.DependencyEdge {
	const (
		white = iota
		grey
		black
	)
	color := make([]int, len(g.nodes))
	stackPos := make([]int, len(g.nodes))
	var path []pgplan.DependencyEdge

	var visit func(u int) []pgplan.DependencyEdge
	visit = func(u int) []pgplan.DependencyEdge {
		color[u] = grey
		stackPos[u] = len(path)
		for _, e := range g.out[u] {
			if keep != nil && !keep(e) {
				continue
			}
			v := g.index[e.To]
			switch color[v] {
			case grey:
				cycle := append([]pgplan.DependencyEdge(nil), path[stackPos[v]:]...)
				return append(cycle, e)
			case white:
				path = append(path, e)
				if cycle := visit(v); cycle != nil {
					return cycle
				}
				path = path[:len(path)-1]
			}
		}
		color[u] = black
		return nil
	}

	for u := range g.nodes {
		if color[u] == white {
			if cycle := visit(u); cycle != nil {
				return cycle
			}
		}
	}
	return nil
}
