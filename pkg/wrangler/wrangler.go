package wrangler

import (
	"context"
	"io"
	"reflect"
	"slices"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/depwrangler/pkg/errors"
)

// Options configures a [Wrangler]. All fields are read once by [New].
type Options struct {
	// ObjectType is the expected type of every domain object. Interface
	// types match any object implementing them; for concrete types, both T
	// and *T are accepted.
	ObjectType reflect.Type

	// Identifier resolves an object to its unique, comparable identifier.
	Identifier Extractor
	// Type resolves an object to the comparable type used for filtering.
	Type Extractor

	// Upstream lists the objects an object depends on.
	Upstream Neighbors
	// Downstream lists the objects that depend on an object.
	Downstream Neighbors

	// BypassTypes are elided from edge lists. Mutually exclusive with
	// RequiredTypes.
	BypassTypes []any
	// RequiredTypes, when set, are the only types kept; every other type is
	// bypassed. Mutually exclusive with BypassTypes.
	RequiredTypes []any

	// SymmetricDownstream splices a bypassed dependency's downstream list
	// into downstream edges. By default the upstream list is spliced in both
	// directions.
	SymmetricDownstream bool

	// Logger receives debug output for each session. Nil discards it.
	Logger *log.Logger
}

// Wrangler normalizes external object graphs into sessions of [Item]s.
//
// A Wrangler is immutable after [New] and may start sessions from several
// goroutines. Each [Session] owns its own item table.
type Wrangler struct {
	objectType reflect.Type
	identifier Extractor
	typ        Extractor
	upstream   Neighbors
	downstream Neighbors

	bypass        map[any]struct{}
	required      map[any]struct{}
	requiredTypes []any
	symmetric     bool

	logger *log.Logger
}

// New creates a Wrangler from opts.
//
// Supplying both BypassTypes and RequiredTypes fails with
// [errors.ErrCodeInvalidConfig]. Missing strategies are not reported here;
// see [Wrangler.Validate].
func New(opts Options) (*Wrangler, error) {
	if len(opts.BypassTypes) > 0 && len(opts.RequiredTypes) > 0 {
		return nil, errors.New(errors.ErrCodeInvalidConfig, "more than one filtering policy specified")
	}

	bypass, err := typeSet(opts.BypassTypes)
	if err != nil {
		return nil, err
	}
	required, err := typeSet(opts.RequiredTypes)
	if err != nil {
		return nil, err
	}

	logger := opts.Logger
	if logger == nil {
		logger = log.New(io.Discard)
	}

	return &Wrangler{
		objectType:    opts.ObjectType,
		identifier:    opts.Identifier,
		typ:           opts.Type,
		upstream:      opts.Upstream,
		downstream:    opts.Downstream,
		bypass:        bypass,
		required:      required,
		requiredTypes: slices.Clone(opts.RequiredTypes),
		symmetric:     opts.SymmetricDownstream,
		logger:        logger,
	}, nil
}

func typeSet(types []any) (map[any]struct{}, error) {
	if len(types) == 0 {
		return nil, nil
	}
	set := make(map[any]struct{}, len(types))
	for _, t := range types {
		if !hashable(t) {
			return nil, errors.New(errors.ErrCodeInvalidConfig, "filter type %v (%T) is not comparable", t, t)
		}
		set[t] = struct{}{}
	}
	return set, nil
}

// Validate reports the first required setting that is missing, checking the
// object type, the upstream accessor, the downstream accessor, the
// identifier strategy and the type strategy in that order. Each has its own
// error code.
func (w *Wrangler) Validate() error {
	switch {
	case w.objectType == nil:
		return errors.New(errors.ErrCodeMissingObjectType, "object type is not set")
	case w.upstream.IsZero():
		return errors.New(errors.ErrCodeMissingUpstream, "upstream accessor is not set")
	case w.downstream.IsZero():
		return errors.New(errors.ErrCodeMissingDownstream, "downstream accessor is not set")
	case w.identifier.IsZero():
		return errors.New(errors.ErrCodeMissingIdentifier, "identifier strategy is not set")
	case w.typ.IsZero():
		return errors.New(errors.ErrCodeMissingType, "type strategy is not set")
	}
	return nil
}

// ObjectType returns the configured object type.
func (w *Wrangler) ObjectType() reflect.Type { return w.objectType }

// RequiredTypes returns a copy of the allow-list, or nil under bypass policy.
func (w *Wrangler) RequiredTypes() []any { return slices.Clone(w.requiredTypes) }

// IsBypassed reports whether items of typ are elided under the configured
// filter policy. An uncomparable type can never be listed, so it is bypassed
// under an allow-list and kept under a bypass list.
func (w *Wrangler) IsBypassed(typ any) bool {
	if !hashable(typ) {
		return w.required != nil
	}
	if w.required != nil {
		_, ok := w.required[typ]
		return !ok
	}
	_, ok := w.bypass[typ]
	return ok
}

// Analyse runs a new session rooted at object and returns it. On error no
// session is returned.
func (w *Wrangler) Analyse(ctx context.Context, object any) (*Session, error) {
	s := w.NewSession()
	if _, err := s.Analyse(ctx, object); err != nil {
		return nil, err
	}
	return s, nil
}

func (w *Wrangler) accepts(object any) bool {
	rt := reflect.TypeOf(object)
	if rt == nil {
		return false
	}
	if w.objectType.Kind() == reflect.Interface {
		return rt.Implements(w.objectType)
	}
	if rt.AssignableTo(w.objectType) {
		return true
	}
	return rt.Kind() == reflect.Pointer && rt.Elem().AssignableTo(w.objectType)
}
