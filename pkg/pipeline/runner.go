package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/depwrangler/pkg/cache"
	"github.com/matzehuels/depwrangler/pkg/document"
	"github.com/matzehuels/depwrangler/pkg/wrangler"
)

// Runner executes pipeline stages with a shared cache and logger.
//
// The Runner keeps no per-run state, so CLI and API code can share one
// across goroutines as long as the cache is safe for concurrent use.
type Runner struct {
	Cache  cache.Cache
	Logger *log.Logger
}

// NewRunner creates a runner. A nil cache disables artifact caching and a
// nil logger falls back to log.Default().
func NewRunner(c cache.Cache, logger *log.Logger) *Runner {
	if c == nil {
		c = cache.NewNullCache()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{Cache: c, Logger: logger}
}

// Execute analyses doc and renders the result in opts.Format.
func (r *Runner) Execute(ctx context.Context, doc *document.Document, opts Options) (*Result, error) {
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, err
	}

	result, err := r.Analyse(ctx, doc, opts)
	if err != nil {
		return nil, err
	}

	if opts.Format != FormatSummary {
		result.Artifact, result.Cached, err = r.renderCached(ctx, doc, result, opts)
		if err != nil {
			return nil, err
		}
	}
	return result, nil
}

// Analyse builds a wrangler for doc from opts, runs a session from the root
// object and exports it as a graph.
func (r *Runner) Analyse(ctx context.Context, doc *document.Document, opts Options) (*Result, error) {
	w, err := r.Wrangler(doc, opts)
	if err != nil {
		return nil, err
	}

	root, err := doc.RootObject(opts.Root)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	s, err := w.Analyse(ctx, root)
	if err != nil {
		return nil, err
	}

	g, err := s.Graph(wrangler.GraphOptions{
		IncludeBypassed: opts.IncludeBypassed,
		Meta:            document.ItemMeta,
	})
	if err != nil {
		return nil, fmt.Errorf("export: %w", err)
	}

	result := &Result{Session: s, Graph: g, Cycles: g.Cycles()}
	r.Logger.Debug("analysed document",
		"root", root.ID,
		"items", s.Len(),
		"available", len(s.AvailableObjects()),
		"cycles", len(result.Cycles),
		"elapsed", time.Since(start).Round(time.Millisecond))
	return result, nil
}

// Wrangler builds the wrangler for doc and validates it.
func (r *Runner) Wrangler(doc *document.Document, opts Options) (*wrangler.Wrangler, error) {
	wo := doc.Options()
	wo.BypassTypes = toAny(opts.Bypass)
	wo.RequiredTypes = toAny(opts.Require)
	wo.SymmetricDownstream = opts.SymmetricDownstream
	wo.Logger = r.Logger

	w, err := wrangler.New(wo)
	if err != nil {
		return nil, err
	}
	if err := w.Validate(); err != nil {
		return nil, err
	}
	return w, nil
}
