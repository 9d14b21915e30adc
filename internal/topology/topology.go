// Package topology keeps a directed multigraph and its cached topological
// order.
package topology

import (
	"errors"
	"fmt"
	"sort"

	"gonum.org/v1/gonum/graph"
	"gonum.org/v1/gonum/graph/multi"
	"gonum.org/v1/gonum/graph/simple"
	"gonum.org/v1/gonum/graph/topo"
)

var (
	// ErrCycle is returned when graph can't be sorted.
	ErrCycle = errors.New("cycle")
	// ErrUnknownNode is returned when edge references node not in graph.
	ErrUnknownNode = errors.New("unknown node")
)

// Graph is a directed multigraph with nodes identified by K. Every AddEdge
// call adds a separate edge, even if nodes are already connected.
type Graph[K comparable] struct {
	g     *multi.DirectedGraph
	ids   map[K]int64
	keys  []K
	loops int

	order []K
	err   error
	valid bool
}

// New returns an empty graph.
func New[K comparable]() *Graph[K] {
	return &Graph[K]{
		g:   multi.NewDirectedGraph(),
		ids: make(map[K]int64),
	}
}

// AddNode adds a node. It returns false if node already exists.
func (g *Graph[K]) AddNode(k K) bool {
	if _, ok := g.ids[k]; ok {
		return false
	}
	id := int64(len(g.keys))
	g.g.AddNode(simple.Node(id))
	g.ids[k] = id
	g.keys = append(g.keys, k)
	g.valid = false
	return true
}

// AddEdge adds a new edge between two nodes.
func (g *Graph[K]) AddEdge(from, to K) error {
	f, ok := g.ids[from]
	if !ok {
		return fmt.Errorf("%w: %v", ErrUnknownNode, from)
	}
	t, ok := g.ids[to]
	if !ok {
		return fmt.Errorf("%w: %v", ErrUnknownNode, to)
	}
	if f == t {
		g.loops++
	}
	g.g.SetLine(g.g.NewLine(g.g.Node(f), g.g.Node(t)))
	g.valid = false
	return nil
}

// Len returns number of nodes.
func (g *Graph[K]) Len() int {
	return len(g.keys)
}

// Edges returns number of edges between two nodes.
func (g *Graph[K]) Edges(from, to K) int {
	f, ok := g.ids[from]
	if !ok {
		return 0
	}
	t, ok := g.ids[to]
	if !ok {
		return 0
	}
	return g.g.Lines(f, t).Len()
}

// Order returns nodes in topological order. The order is stable for the
// same sequence of changes. The result is cached until the graph is
// changed and must not be modified.
func (g *Graph[K]) Order() ([]K, error) {
	if g.valid {
		return g.order, g.err
	}
	g.order, g.err = g.sort()
	g.valid = true
	return g.order, g.err
}

func (g *Graph[K]) sort() ([]K, error) {
	if g.loops > 0 {
		return nil, fmt.Errorf("%w: %d self-loops", ErrCycle, g.loops)
	}
	sorted, err := topo.SortStabilized(g.g, byID)
	if err != nil {
		var u topo.Unorderable
		if errors.As(err, &u) {
			return nil, fmt.Errorf("%w: %d strongly connected components", ErrCycle, len(u))
		}
		return nil, err
	}
	order := make([]K, 0, len(sorted))
	for _, n := range sorted {
		order = append(order, g.keys[n.ID()])
	}
	return order, nil
}

// byID orders nodes by insertion.
func byID(nodes []graph.Node) {
	sort.Slice(nodes, func(i, j int) bool {
		return nodes[i].ID() < nodes[j].ID()
	})
}
