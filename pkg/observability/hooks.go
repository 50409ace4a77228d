// Package observability provides hooks for metrics, tracing, and logging.
//
// This package enables optional instrumentation without adding hard dependencies
// on specific observability backends. Consumers register hooks at startup to
// receive events about graph analysis sessions and graph exports.
//
// # Architecture
//
// The package uses a simple hooks pattern:
//   - Define hook interfaces for different event categories
//   - Provide no-op default implementations
//   - Allow registration of custom implementations at startup
//
// # Usage
//
// Register hooks at application startup:
//
//	func main() {
//	    observability.SetAnalyseHooks(&myAnalyseHooks{})
//	    // ... run application
//	}
//
// Libraries call hooks to emit events:
//
//	observability.Analyse().OnAnalyseStart(ctx, sessionID, root)
//	// ... traverse ...
//	observability.Analyse().OnAnalyseComplete(ctx, sessionID, itemCount, duration, err)
package observability

import (
	"context"
	"sync"
	"time"
)

// =============================================================================
// Analyse Hooks
// =============================================================================

// AnalyseHooks receives events from wrangler sessions.
type AnalyseHooks interface {
	// OnAnalyseStart is called once per top-level analysis, after validation.
	OnAnalyseStart(ctx context.Context, session string, root any)

	// OnItemCreated is called when a proxy item is registered for a new identifier.
	OnItemCreated(ctx context.Context, session string, id any, bypassed bool)

	// OnAnalyseComplete is called when an analysis finishes, successfully or not.
	OnAnalyseComplete(ctx context.Context, session string, items int, duration time.Duration, err error)
}

// =============================================================================
// Export Hooks
// =============================================================================

// ExportHooks receives events when an analysed graph is written out.
type ExportHooks interface {
	OnExport(ctx context.Context, format string, size int, duration time.Duration, err error)
}

// =============================================================================
// No-op Implementations
// =============================================================================

// NoopAnalyseHooks is a no-op implementation of AnalyseHooks.
type NoopAnalyseHooks struct{}

func (NoopAnalyseHooks) OnAnalyseStart(context.Context, string, any)      {}
func (NoopAnalyseHooks) OnItemCreated(context.Context, string, any, bool) {}
func (NoopAnalyseHooks) OnAnalyseComplete(context.Context, string, int, time.Duration, error) {
}

// NoopExportHooks is a no-op implementation of ExportHooks.
type NoopExportHooks struct{}

func (NoopExportHooks) OnExport(context.Context, string, int, time.Duration, error) {}

// =============================================================================
// Global Hook Registry
// =============================================================================

var (
	analyseHooks AnalyseHooks = NoopAnalyseHooks{}
	exportHooks  ExportHooks  = NoopExportHooks{}
	hooksMu      sync.RWMutex
)

// SetAnalyseHooks registers custom analyse hooks.
// This should be called once at application startup before any analysis.
func SetAnalyseHooks(h AnalyseHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		analyseHooks = h
	}
}

// SetExportHooks registers custom export hooks.
func SetExportHooks(h ExportHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		exportHooks = h
	}
}

// Analyse returns the registered analyse hooks.
func Analyse() AnalyseHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return analyseHooks
}

// Export returns the registered export hooks.
func Export() ExportHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return exportHooks
}

// Reset restores all hooks to their no-op defaults.
// This is primarily useful for testing.
func Reset() {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	analyseHooks = NoopAnalyseHooks{}
	exportHooks = NoopExportHooks{}
}
