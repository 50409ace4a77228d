package io

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/matzehuels/depwrangler/pkg/graph"
)

// ReadJSON decodes a JSON graph from r.
//
// Each node needs an "id"; each edge needs "from" and "to" naming existing
// nodes and an optional "kind" of "upstream" or "downstream". ReadJSON
// returns an error for malformed JSON, duplicate node IDs, unknown edge
// endpoints and unknown edge kinds. Errors are wrapped with the node or
// edge that caused them, so errors.Is works with the graph package errors.
//
// ReadJSON does not close r.
func ReadJSON(r io.Reader) (*graph.Graph, error) {
	var data document
	if err := json.NewDecoder(r).Decode(&data); err != nil {
		return nil, fmt.Errorf("decode: %w", err)
	}

	g := graph.New(data.Meta)
	for _, n := range data.Nodes {
		nd := graph.Node{ID: n.ID, Type: n.Type, Bypassed: n.Bypassed, Meta: n.Meta}
		if err := g.AddNode(nd); err != nil {
			return nil, fmt.Errorf("node %s: %w", n.ID, err)
		}
	}
	for _, e := range data.Edges {
		kind, ok := graph.ParseEdgeKind(e.Kind)
		if !ok {
			return nil, fmt.Errorf("edge %s->%s: unknown kind %q", e.From, e.To, e.Kind)
		}
		if err := g.AddEdge(graph.Edge{From: e.From, To: e.To, Kind: kind}); err != nil {
			return nil, fmt.Errorf("edge %s->%s: %w", e.From, e.To, err)
		}
	}

	return g, nil
}

// ImportJSON reads the JSON file at path. See [ReadJSON] for the accepted
// format and errors.
func ImportJSON(path string) (*graph.Graph, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	return ReadJSON(f)
}
