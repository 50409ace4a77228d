// Package render groups the visual output formats for exported graphs.
//
// Node-link diagrams live in the [nodelink] subpackage: [nodelink.ToDOT]
// produces Graphviz DOT and [nodelink.RenderSVG] lays it out with an
// embedded Graphviz.
package render
