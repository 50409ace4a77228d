// Package wrangler turns an externally defined object graph into an owned
// graph of proxy [Item]s, optionally eliding objects of selected types.
//
// # Overview
//
// The caller's objects stay untouched. A [Wrangler] is told how to read an
// object's identifier and type ([Attribute] or [Func]) and how to list its
// upstream and downstream neighbors ([NeighborsFunc] or
// [NeighborsAttribute]). [Wrangler.Analyse] walks everything reachable from
// a root object and returns a [Session] holding exactly one item per
// identifier.
//
//	w, err := wrangler.New(wrangler.Options{
//	    ObjectType: reflect.TypeFor[*Package](),
//	    Identifier: wrangler.Attribute("Name"),
//	    Type:       wrangler.Attribute("Kind"),
//	    Upstream:   wrangler.NeighborsAttribute("Deps"),
//	    Downstream: wrangler.NeighborsAttribute("Users"),
//	    BypassTypes: []any{"virtual"},
//	})
//	s, err := w.Analyse(ctx, root)
//	for _, dep := range s.Root().Upstream() { ... }
//
// # Bypassing
//
// Items whose type is in BypassTypes (or, with RequiredTypes, not in it) are
// still created but never appear in another item's edge lists. Where a
// bypassed item would be linked, its own upstream items are linked instead,
// so A -> X -> B with X bypassed becomes A -> B. Downstream links splice the
// bypassed item's upstream list too unless SymmetricDownstream is set.
//
// # Cycles
//
// Cycles are not errors. Each item is registered before its neighbors are
// expanded, so revisiting it ends the walk along that path. The traversal
// uses an explicit stack and is not bounded by goroutine stack depth.
//
// # Errors
//
// [New] rejects conflicting filter policies with
// [errors.ErrCodeInvalidConfig]. [Wrangler.Validate], which every analysis
// runs first, reports each missing strategy under its own code. Errors from
// caller-supplied functions are returned unchanged.
package wrangler
