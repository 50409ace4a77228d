// Package pkg provides the core libraries for depwrangler.
//
// # Overview
//
// Depwrangler turns an external object graph into a graph of proxy items,
// one per distinct identifier, and splices chosen intermediate types out of
// the dependency lists. The pkg directory is organized as:
//
//  1. [wrangler] - Traversal, memoization and bypass splicing
//  2. [graph] - Owned, string-keyed export model with cycle detection
//  3. [document] - Declarative TOML/YAML/JSON object graphs
//  4. [pipeline] - Orchestration (analyse → export → render)
//  5. [render/nodelink], [io] - DOT/SVG and JSON output
//  6. [cache], [errors], [observability], [buildinfo] - Supporting infrastructure
//
// # Architecture
//
// The typical data flow:
//
//	Domain objects (Go values or a document)
//	         ↓
//	    [wrangler] Session (proxy items, bypass splicing)
//	         ↓
//	    [graph] Graph (export model)
//	         ↓
//	    [io] JSON / [render/nodelink] DOT and SVG
//
// # Quick Start
//
// Analyse Go values directly:
//
//	w, err := wrangler.New(wrangler.Options{
//	    ObjectType:  reflect.TypeFor[*Package](),
//	    Identifier:  wrangler.Attribute("Name"),
//	    Type:        wrangler.Attribute("Kind"),
//	    Upstream:    wrangler.NeighborsAttribute("Requires"),
//	    Downstream:  wrangler.NeighborsAttribute("RequiredBy"),
//	    BypassTypes: []any{"virtual"},
//	})
//	session, err := w.Analyse(ctx, root)
//
// Or analyse a document through the pipeline:
//
//	doc, _ := document.Load("graph.toml")
//	result, err := pipeline.NewRunner(nil, logger).Execute(ctx, doc, pipeline.Options{
//	    Bypass: []string{"virtual"},
//	    Format: pipeline.FormatSVG,
//	})
package pkg
