// Package nodelink renders analysed graphs as node-link diagrams.
//
// # Usage
//
// Convert a graph to DOT format, then render to SVG:
//
//	dot := nodelink.ToDOT(g, nodelink.Options{Detailed: true})
//	svg, err := nodelink.RenderSVG(ctx, dot)
//
// The DOT source can also be written out as-is and rendered with the
// Graphviz command line tools.
//
// # Styling
//
// Upstream edges are solid arrows from a consumer to its dependency.
// Downstream edges are drawn dotted, without affecting rank, when
// [Options].ShowDownstream is set. Bypassed nodes are dashed and grey.
package nodelink
