package graph

import (
	"errors"
	"maps"
	"slices"
)

var (
	// ErrInvalidNodeID is returned by [Graph.AddNode] when the node ID is
	// empty.
	ErrInvalidNodeID = errors.New("node ID must not be empty")

	// ErrDuplicateNodeID is returned by [Graph.AddNode] when a node with the
	// same ID already exists.
	ErrDuplicateNodeID = errors.New("duplicate node ID")

	// ErrUnknownSourceNode is returned by [Graph.AddEdge] when the From node
	// does not exist.
	ErrUnknownSourceNode = errors.New("unknown source node")

	// ErrUnknownTargetNode is returned by [Graph.AddEdge] when the To node
	// does not exist.
	ErrUnknownTargetNode = errors.New("unknown target node")
)

// Metadata stores arbitrary key-value pairs attached to nodes or the graph.
// Metadata maps are never nil once a node has been added.
type Metadata map[string]any

// EdgeKind tells which edge list of the source node an edge came from.
type EdgeKind int

const (
	// EdgeUpstream points from a node to something it depends on.
	EdgeUpstream EdgeKind = iota
	// EdgeDownstream points from a node to something that depends on it.
	EdgeDownstream
)

// String returns "upstream" or "downstream".
func (k EdgeKind) String() string {
	if k == EdgeDownstream {
		return "downstream"
	}
	return "upstream"
}

// ParseEdgeKind is the inverse of [EdgeKind.String]. Unknown values map to
// [EdgeUpstream] and ok is false.
func ParseEdgeKind(s string) (kind EdgeKind, ok bool) {
	switch s {
	case "upstream", "":
		return EdgeUpstream, true
	case "downstream":
		return EdgeDownstream, true
	}
	return EdgeUpstream, false
}

// Node is one analysed object.
type Node struct {
	ID       string   // Unique identifier
	Type     string   // Object type, as used by the filter policy
	Bypassed bool     // Whether the type was elided during analysis
	Meta     Metadata // Arbitrary metadata (never nil after AddNode)
}

// Edge is a directed connection recorded in one of the source node's edge
// lists.
type Edge struct {
	From string
	To   string
	Kind EdgeKind
}

// Graph is an owned, string-keyed snapshot of an analysis session, suitable
// for export and rendering. Unlike the session it may be freely modified.
//
// The zero value is not usable; use [New]. Graph is not safe for concurrent
// use without external synchronization.
type Graph struct {
	nodes      map[string]*Node
	order      []string
	edges      []Edge
	upstream   map[string][]string
	downstream map[string][]string
	meta       Metadata
}

// New creates an empty graph with optional graph-level metadata.
func New(meta Metadata) *Graph {
	if meta == nil {
		meta = Metadata{}
	}
	return &Graph{
		nodes:      make(map[string]*Node),
		upstream:   make(map[string][]string),
		downstream: make(map[string][]string),
		meta:       meta,
	}
}

// Meta returns the graph-level metadata map.
func (g *Graph) Meta() Metadata { return g.meta }

// AddNode adds a node. Returns ErrInvalidNodeID for an empty ID and
// ErrDuplicateNodeID if the ID is taken.
func (g *Graph) AddNode(n Node) error {
	if n.ID == "" {
		return ErrInvalidNodeID
	}
	if _, exists := g.nodes[n.ID]; exists {
		return ErrDuplicateNodeID
	}
	if n.Meta == nil {
		n.Meta = Metadata{}
	}
	g.nodes[n.ID] = &n
	g.order = append(g.order, n.ID)
	return nil
}

// AddEdge adds a directed edge between two existing nodes. Multiple edges
// between the same nodes are kept, mirroring the item edge lists they were
// built from.
func (g *Graph) AddEdge(e Edge) error {
	if _, ok := g.nodes[e.From]; !ok {
		return ErrUnknownSourceNode
	}
	if _, ok := g.nodes[e.To]; !ok {
		return ErrUnknownTargetNode
	}
	g.edges = append(g.edges, e)
	if e.Kind == EdgeDownstream {
		g.downstream[e.From] = append(g.downstream[e.From], e.To)
	} else {
		g.upstream[e.From] = append(g.upstream[e.From], e.To)
	}
	return nil
}

// Node returns the node with the given ID.
func (g *Graph) Node(id string) (*Node, bool) {
	n, ok := g.nodes[id]
	return n, ok
}

// Nodes returns all nodes sorted by ID.
func (g *Graph) Nodes() []*Node {
	ids := slices.Sorted(maps.Keys(g.nodes))
	out := make([]*Node, len(ids))
	for i, id := range ids {
		out[i] = g.nodes[id]
	}
	return out
}

// NodeIDs returns node IDs in insertion order.
func (g *Graph) NodeIDs() []string { return slices.Clone(g.order) }

// Edges returns a copy of all edges in insertion order.
func (g *Graph) Edges() []Edge { return slices.Clone(g.edges) }

// NodeCount returns the number of nodes.
func (g *Graph) NodeCount() int { return len(g.nodes) }

// EdgeCount returns the number of edges.
func (g *Graph) EdgeCount() int { return len(g.edges) }

// Upstream returns the targets of id's upstream edges. The slice is a
// read-only view.
func (g *Graph) Upstream(id string) []string { return g.upstream[id] }

// Downstream returns the targets of id's downstream edges. The slice is a
// read-only view.
func (g *Graph) Downstream(id string) []string { return g.downstream[id] }

// Sources returns nodes that nothing depends on: no other node lists them
// upstream. Sorted by ID.
func (g *Graph) Sources() []*Node {
	referenced := make(map[string]bool)
	for from, targets := range g.upstream {
		for _, to := range targets {
			if to != from {
				referenced[to] = true
			}
		}
	}
	var out []*Node
	for _, n := range g.Nodes() {
		if !referenced[n.ID] {
			out = append(out, n)
		}
	}
	return out
}

// Sinks returns nodes without upstream edges, sorted by ID.
func (g *Graph) Sinks() []*Node {
	var out []*Node
	for _, n := range g.Nodes() {
		if len(g.upstream[n.ID]) == 0 {
			out = append(out, n)
		}
	}
	return out
}

// Cycles returns the upstream edges that close a cycle, found by depth-first
// search from the sources and then from every remaining node in ID order.
// Removing the returned edges would leave the upstream edges acyclic. The
// graph is not modified.
func (g *Graph) Cycles() []Edge {
	const (
		white = iota
		gray
		black
	)

	type frame struct {
		id   string
		next int
	}

	color := make(map[string]int)
	var back []Edge
	var stack []frame

	dfs := func(root string) {
		color[root] = gray
		stack = append(stack[:0], frame{id: root})
		for len(stack) > 0 {
			f := &stack[len(stack)-1]
			ups := g.upstream[f.id]
			if f.next == len(ups) {
				color[f.id] = black
				stack = stack[:len(stack)-1]
				continue
			}
			next := ups[f.next]
			f.next++
			switch color[next] {
			case white:
				color[next] = gray
				stack = append(stack, frame{id: next})
			case gray:
				back = append(back, Edge{From: f.id, To: next, Kind: EdgeUpstream})
			}
		}
	}

	for _, n := range g.Sources() {
		if color[n.ID] == white {
			dfs(n.ID)
		}
	}
	for _, n := range g.Nodes() {
		if color[n.ID] == white {
			dfs(n.ID)
		}
	}
	return back
}
