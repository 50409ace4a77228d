// Package io provides JSON import and export for analysed graphs.
//
// # JSON Format
//
// The format has two top-level arrays:
//
//	{
//	  "meta":  {"session": "7d3f..."},
//	  "nodes": [
//	    {"id": "app", "type": "binary"},
//	    {"id": "shim", "type": "virtual", "bypassed": true},
//	    {"id": "core", "type": "library", "meta": {"version": "1.2.0"}}
//	  ],
//	  "edges": [
//	    {"from": "app", "to": "core"},
//	    {"from": "core", "to": "app", "kind": "downstream"}
//	  ]
//	}
//
// Edge "kind" defaults to "upstream". Nodes are written sorted by ID so the
// output is stable across runs; edges keep their insertion order.
//
// # Usage
//
//	g, err := session.Graph(wrangler.GraphOptions{})
//	err = io.WriteJSON(g, os.Stdout)
//
//	g, err = io.ImportJSON("graph.json")
package io
