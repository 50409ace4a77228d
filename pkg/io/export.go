package io

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/matzehuels/depwrangler/pkg/graph"
)

type document struct {
	Meta  graph.Metadata `json:"meta,omitempty"`
	Nodes []node         `json:"nodes"`
	Edges []edge         `json:"edges"`
}

type node struct {
	ID       string         `json:"id"`
	Type     string         `json:"type,omitempty"`
	Bypassed bool           `json:"bypassed,omitempty"`
	Meta     graph.Metadata `json:"meta,omitempty"`
}

type edge struct {
	From string `json:"from"`
	To   string `json:"to"`
	Kind string `json:"kind,omitempty"`
}

// WriteJSON encodes g as indented JSON and writes it to w.
// The output can be read back with [ReadJSON].
func WriteJSON(g *graph.Graph, w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(toDocument(g)); err != nil {
		return fmt.Errorf("encode: %w", err)
	}
	return nil
}

// MarshalJSON returns g as indented JSON bytes.
func MarshalJSON(g *graph.Graph) ([]byte, error) {
	data, err := json.MarshalIndent(toDocument(g), "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode: %w", err)
	}
	return data, nil
}

// ExportJSON writes g to a JSON file at path.
func ExportJSON(g *graph.Graph, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()
	return WriteJSON(g, f)
}

func toDocument(g *graph.Graph) document {
	nodes := g.Nodes()
	edges := g.Edges()
	out := document{
		Nodes: make([]node, len(nodes)),
		Edges: make([]edge, len(edges)),
	}
	if len(g.Meta()) > 0 {
		out.Meta = g.Meta()
	}

	for i, n := range nodes {
		nd := node{ID: n.ID, Type: n.Type, Bypassed: n.Bypassed}
		if len(n.Meta) > 0 {
			nd.Meta = n.Meta
		}
		out.Nodes[i] = nd
	}
	for i, e := range edges {
		ed := edge{From: e.From, To: e.To}
		if e.Kind != graph.EdgeUpstream {
			ed.Kind = e.Kind.String()
		}
		out.Edges[i] = ed
	}
	return out
}
