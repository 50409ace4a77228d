// Package graph provides an owned, string-keyed snapshot of an analysed
// object graph.
//
// A wrangler session is keyed by arbitrary comparable identifiers and holds
// references to the caller's domain objects. [Graph] is what the session
// looks like once it leaves the library: node IDs and types are strings,
// edges carry the list they came from ([EdgeUpstream] or [EdgeDownstream]),
// and the structure can be serialized, rendered or modified without touching
// the session.
//
// # Basic Usage
//
//	g := graph.New(nil)
//	g.AddNode(graph.Node{ID: "app", Type: "binary"})
//	g.AddNode(graph.Node{ID: "lib", Type: "library"})
//	g.AddEdge(graph.Edge{From: "app", To: "lib", Kind: graph.EdgeUpstream})
//
// # Cycles
//
// Analysed graphs may contain cycles. [Graph.Cycles] reports the upstream
// edges that close them; nothing in this package rejects cyclic input.
//
// # Concurrency
//
// Graph is not safe for concurrent use without external synchronization.
package graph
