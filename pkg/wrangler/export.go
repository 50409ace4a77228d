package wrangler

import (
	"fmt"

	"github.com/matzehuels/depwrangler/pkg/graph"
)

// GraphOptions controls [Session.Graph].
type GraphOptions struct {
	// IncludeBypassed keeps bypassed items and their own edges.
	IncludeBypassed bool
	// Meta, if set, supplies node metadata for each exported item.
	Meta func(it *Item) graph.Metadata
}

// Graph converts the session's table into a [graph.Graph]. Identifiers and
// types are formatted with fmt.Sprint; two identifiers with the same string
// form fail with [graph.ErrDuplicateNodeID]. Nodes appear in registration
// order and edges in each item's list order, upstream before downstream.
func (s *Session) Graph(opts GraphOptions) (*graph.Graph, error) {
	g := graph.New(graph.Metadata{"session": s.id})

	keep := func(it *Item) bool { return opts.IncludeBypassed || !it.bypassed }

	for _, id := range s.order {
		it := s.items[id]
		if !keep(it) {
			continue
		}
		n := graph.Node{
			ID:       fmt.Sprint(it.id),
			Type:     fmt.Sprint(it.typ),
			Bypassed: it.bypassed,
		}
		if opts.Meta != nil {
			n.Meta = opts.Meta(it)
		}
		if err := g.AddNode(n); err != nil {
			return nil, fmt.Errorf("node %v: %w", it.id, err)
		}
	}

	for _, id := range s.order {
		it := s.items[id]
		if !keep(it) {
			continue
		}
		from := fmt.Sprint(it.id)
		for _, kind := range []graph.EdgeKind{graph.EdgeUpstream, graph.EdgeDownstream} {
			targets := it.upstream
			if kind == graph.EdgeDownstream {
				targets = it.downstream
			}
			for _, t := range targets {
				if !keep(t) {
					continue
				}
				e := graph.Edge{From: from, To: fmt.Sprint(t.id), Kind: kind}
				if err := g.AddEdge(e); err != nil {
					return nil, fmt.Errorf("edge %s->%s: %w", e.From, e.To, err)
				}
			}
		}
	}

	return g, nil
}
