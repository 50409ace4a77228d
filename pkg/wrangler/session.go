package wrangler

import (
	"context"
	"maps"
	"slices"
	"time"

	"github.com/google/uuid"

	"github.com/matzehuels/depwrangler/pkg/errors"
	"github.com/matzehuels/depwrangler/pkg/observability"
)

// Session holds the item table built by one or more analyses. Every
// identifier maps to exactly one [Item] for the lifetime of the session, so
// analysing an object twice, or reaching it along several paths, yields the
// same instance.
//
// A Session is not safe for concurrent use.
type Session struct {
	id    string
	w     *Wrangler
	items map[any]*Item
	order []any
	root  *Item
}

// NewSession starts an empty session.
func (w *Wrangler) NewSession() *Session {
	return &Session{
		id:    uuid.NewString(),
		w:     w,
		items: make(map[any]*Item),
	}
}

// ID returns the session's unique identifier, used in logs and hooks.
func (s *Session) ID() string { return s.id }

// Root returns the item produced by the last successful [Session.Analyse],
// or nil.
func (s *Session) Root() *Item { return s.root }

// Len returns the number of items in the table.
func (s *Session) Len() int { return len(s.order) }

// Item returns the item registered for id.
func (s *Session) Item(id any) (*Item, bool) {
	if !hashable(id) {
		return nil, false
	}
	it, ok := s.items[id]
	return it, ok
}

// Items returns a copy of the identifier to item table.
func (s *Session) Items() map[any]*Item { return maps.Clone(s.items) }

// AnalysedObjects returns every registered identifier in registration order.
func (s *Session) AnalysedObjects() []any { return slices.Clone(s.order) }

// AvailableObjects returns the identifiers of items that are not bypassed,
// in registration order.
func (s *Session) AvailableObjects() []any {
	var out []any
	for _, id := range s.order {
		if !s.items[id].bypassed {
			out = append(out, id)
		}
	}
	return out
}

const (
	phaseNew = iota
	phaseUpstream
	phaseDownstream
)

// frame is one item whose neighbors are being expanded.
type frame struct {
	item    *Item
	object  any
	phase   int
	pending []any
}

// Analyse validates the wrangler and then walks the graph reachable from
// object, creating an item for each identifier seen for the first time and
// linking items around bypassed ones. It returns the item for object.
//
// The walk is depth first over an explicit stack, so graph depth is not
// limited by the goroutine stack. An item is registered before its
// neighbors are expanded, which makes cycles terminate: a node met again
// while it is still being expanded is linked as it stands.
//
// On error, items registered by this call are removed again and no item is
// returned.
func (s *Session) Analyse(ctx context.Context, object any) (*Item, error) {
	if err := s.w.Validate(); err != nil {
		return nil, err
	}

	start := time.Now()
	mark := len(s.order)
	hooks := observability.Analyse()
	hooks.OnAnalyseStart(ctx, s.id, object)

	root, err := s.walk(ctx, object)
	if err != nil {
		s.rollback(mark)
	} else {
		s.root = root
	}

	elapsed := time.Since(start)
	hooks.OnAnalyseComplete(ctx, s.id, len(s.order), elapsed, err)
	if err != nil {
		s.w.logger.Debug("analysis failed", "session", s.id, "err", err)
		return nil, err
	}
	s.w.logger.Debug("analysis complete",
		"session", s.id,
		"items", len(s.order),
		"new", len(s.order)-mark,
		"elapsed", elapsed.Round(time.Microsecond))
	return root, nil
}

func (s *Session) walk(ctx context.Context, object any) (*Item, error) {
	rootID, root, created, err := s.visit(ctx, object)
	if err != nil {
		return nil, err
	}
	if !created {
		return root, nil
	}

	stack := []frame{{item: root, object: object}}
	for len(stack) > 0 {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		top := len(stack) - 1
		f := &stack[top]

		if len(f.pending) == 0 {
			if f.phase < phaseDownstream {
				f.phase++
				next, err := s.neighbors(f.phase, f.object)
				if err != nil {
					return nil, err
				}
				f.pending = next
				continue
			}
			done := f.item
			stack = stack[:top]
			if top > 0 {
				s.link(&stack[top-1], done)
			}
			continue
		}

		next := f.pending[0]
		f.pending = f.pending[1:]

		_, dep, created, err := s.visit(ctx, next)
		if err != nil {
			return nil, err
		}
		if created {
			stack = append(stack, frame{item: dep, object: next})
			continue
		}
		s.link(f, dep)
	}

	return s.items[rootID], nil
}

// visit resolves object to its item, registering a new one if the
// identifier has not been seen. created is true for new items.
func (s *Session) visit(ctx context.Context, object any) (id any, it *Item, created bool, err error) {
	if !s.w.accepts(object) {
		return nil, nil, false, errors.New(errors.ErrCodeInvalidObject, "object of type %T is not a %v", object, s.w.objectType)
	}

	id, err = s.w.identifier.Extract(object)
	if err != nil {
		return nil, nil, false, err
	}
	if !hashable(id) {
		return nil, nil, false, errors.New(errors.ErrCodeInvalidIdentifier, "identifier %v (%T) is not comparable", id, id)
	}
	typ, err := s.w.typ.Extract(object)
	if err != nil {
		return nil, nil, false, err
	}
	if existing, ok := s.items[id]; ok {
		return id, existing, false, nil
	}

	bypassed := s.w.IsBypassed(typ)
	it = NewItem(id, typ, object, bypassed)
	s.items[id] = it
	s.order = append(s.order, id)

	s.w.logger.Debug("item created", "session", s.id, "id", id, "type", typ, "bypassed", bypassed)
	observability.Analyse().OnItemCreated(ctx, s.id, id, bypassed)
	return id, it, true, nil
}

func (s *Session) neighbors(phase int, object any) ([]any, error) {
	if phase == phaseUpstream {
		return s.w.upstream.Resolve(object)
	}
	return s.w.downstream.Resolve(object)
}

// link attaches dep to the frame's item in the frame's current direction.
// A bypassed dep is replaced by its upstream items; with SymmetricDownstream
// set, downstream edges use its downstream items instead.
func (s *Session) link(f *frame, dep *Item) {
	if f.phase == phaseUpstream {
		if !dep.bypassed {
			f.item.AppendUpstream(dep)
			return
		}
		for _, u := range dep.upstream {
			f.item.AppendUpstream(u)
		}
		return
	}

	if !dep.bypassed {
		f.item.AppendDownstream(dep)
		return
	}
	subst := dep.upstream
	if s.w.symmetric {
		subst = dep.downstream
	}
	for _, d := range subst {
		f.item.AppendDownstream(d)
	}
}

func (s *Session) rollback(mark int) {
	for _, id := range s.order[mark:] {
		delete(s.items, id)
	}
	s.order = s.order[:mark]
}
