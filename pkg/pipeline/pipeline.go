// Package pipeline runs the load → analyse → render flow shared by the CLI
// and the HTTP API.
//
// # Usage
//
//	runner := pipeline.NewRunner(cache.NewNullCache(), logger)
//	result, err := runner.Execute(ctx, doc, pipeline.Options{
//	    Bypass: []string{"virtual"},
//	    Format: pipeline.FormatJSON,
//	})
//	os.Stdout.Write(result.Artifact)
//
// Individual stages are available as [Runner.Analyse] and [Runner.Render].
package pipeline

import (
	"strings"

	"github.com/matzehuels/depwrangler/pkg/errors"
	"github.com/matzehuels/depwrangler/pkg/graph"
	"github.com/matzehuels/depwrangler/pkg/wrangler"
)

// Output formats.
const (
	FormatSummary = "summary"
	FormatJSON    = "json"
	FormatDOT     = "dot"
	FormatSVG     = "svg"
)

// Formats lists every output format [Runner.Render] accepts.
var Formats = []string{FormatSummary, FormatJSON, FormatDOT, FormatSVG}

// DefaultFormat is used when Options.Format is empty.
const DefaultFormat = FormatSummary

// Options configures one pipeline run.
type Options struct {
	// Root is the ID of the object to analyse from. Empty means the
	// document's root, or its first object.
	Root string

	// Bypass and Require are the filter policy; at most one may be set.
	Bypass  []string
	Require []string

	// SymmetricDownstream, see wrangler.Options.
	SymmetricDownstream bool

	// IncludeBypassed keeps bypassed items in the exported graph.
	IncludeBypassed bool

	// Format is one of [Formats].
	Format string
	// Detailed adds types and metadata to DOT/SVG labels.
	Detailed bool
	// ShowDownstream draws downstream edges in DOT/SVG output.
	ShowDownstream bool
}

// ValidateAndSetDefaults fills in defaults and checks the options that can
// be checked without a document.
func (o *Options) ValidateAndSetDefaults() error {
	if o.Format == "" {
		o.Format = DefaultFormat
	}
	o.Format = strings.ToLower(o.Format)
	if err := errors.ValidateFormat(o.Format, Formats...); err != nil {
		return err
	}
	if len(o.Bypass) > 0 && len(o.Require) > 0 {
		return errors.New(errors.ErrCodeInvalidConfig, "more than one filtering policy specified")
	}
	return nil
}

// Result is the outcome of a pipeline run.
type Result struct {
	Session *wrangler.Session
	Graph   *graph.Graph
	// Cycles are the upstream edges of Graph that close a cycle.
	Cycles []graph.Edge
	// Artifact is the rendered output; empty for FormatSummary.
	Artifact []byte
	// Cached reports whether Artifact came from the runner's cache.
	Cached bool
}

func toAny(ss []string) []any {
	if len(ss) == 0 {
		return nil
	}
	out := make([]any, len(ss))
	for i, s := range ss {
		out[i] = s
	}
	return out
}
