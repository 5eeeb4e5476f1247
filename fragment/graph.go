package fragment

import "fmt"

// Graph records the reference relations discovered during one resolution
// run. Nodes are artifact paths; an edge means "references". It is built
// fresh per invocation and discarded with the run.
type Graph struct {
	edges map[string][]string
	order []string // edge trace in resolution order, "from -> to"
}

// NewGraph creates an empty composition graph.
func NewGraph() *Graph {
	return &Graph{edges: make(map[string][]string)}
}

// AddEdge records that from references to.
func (g *Graph) AddEdge(from, to string) {
	g.edges[from] = append(g.edges[from], to)
	g.order = append(g.order, fmt.Sprintf("%s -> %s", from, to))
}

// Edges returns the outgoing references of a node.
func (g *Graph) Edges(from string) []string {
	return g.edges[from]
}

// Trace returns every edge in the order it was resolved.
func (g *Graph) Trace() []string {
	return g.order
}
