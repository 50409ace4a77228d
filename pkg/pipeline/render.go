package pipeline

import (
	"context"
	"time"

	"github.com/matzehuels/depwrangler/pkg/cache"
	"github.com/matzehuels/depwrangler/pkg/document"
	"github.com/matzehuels/depwrangler/pkg/errors"
	"github.com/matzehuels/depwrangler/pkg/io"
	"github.com/matzehuels/depwrangler/pkg/observability"
	"github.com/matzehuels/depwrangler/pkg/render/nodelink"
)

// Render produces the artifact for result.Graph in opts.Format.
// FormatSummary has no artifact and is rejected here.
func (r *Runner) Render(ctx context.Context, result *Result, opts Options) (data []byte, err error) {
	start := time.Now()
	defer func() {
		observability.Export().OnExport(ctx, opts.Format, len(data), time.Since(start), err)
	}()

	dotOpts := nodelink.Options{Detailed: opts.Detailed, ShowDownstream: opts.ShowDownstream}

	switch opts.Format {
	case FormatJSON:
		return io.MarshalJSON(result.Graph)
	case FormatDOT:
		return []byte(nodelink.ToDOT(result.Graph, dotOpts)), nil
	case FormatSVG:
		r.Logger.Debug("rendering svg", "nodes", result.Graph.NodeCount())
		return nodelink.RenderSVG(ctx, nodelink.ToDOT(result.Graph, dotOpts))
	}
	return nil, errors.New(errors.ErrCodeInvalidFormat, "format %q has no artifact", opts.Format)
}

// cacheable reports whether artifacts in format are independent of the
// session they came from. JSON embeds the session ID and is never cached.
func cacheable(format string) bool {
	return format == FormatDOT || format == FormatSVG
}

// renderCached renders through r.Cache, keyed by the document and options.
// Cache failures are logged and fall back to rendering.
func (r *Runner) renderCached(ctx context.Context, doc *document.Document, result *Result, opts Options) ([]byte, bool, error) {
	if !cacheable(opts.Format) {
		data, err := r.Render(ctx, result, opts)
		return data, false, err
	}

	key, err := cache.Key("artifact", doc, opts)
	if err != nil {
		r.Logger.Warn("cache key", "err", err)
		data, err := r.Render(ctx, result, opts)
		return data, false, err
	}

	if data, hit, err := r.Cache.Get(ctx, key); err != nil {
		r.Logger.Warn("cache read", "err", err)
	} else if hit {
		r.Logger.Debug("artifact cache hit", "format", opts.Format)
		return data, true, nil
	}

	data, err := r.Render(ctx, result, opts)
	if err != nil {
		return nil, false, err
	}
	if err := r.Cache.Set(ctx, key, data, cache.DefaultTTL); err != nil {
		r.Logger.Warn("cache write", "err", err)
	}
	return data, false, nil
}
