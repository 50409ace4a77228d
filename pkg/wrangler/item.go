package wrangler

import "slices"

// Item is the proxy for one domain object within a [Session].
//
// Identity, type, the source object and the bypass flag are fixed when the
// item is created. Only the two edge lists grow, and only the wrangler
// appends to them during traversal. After a session completes, the edge
// lists of every item contain no bypassed items.
type Item struct {
	id       any
	typ      any
	object   any
	bypassed bool

	upstream   []*Item
	downstream []*Item
}

// NewItem creates an item for object with the given identifier and type.
// The object is referenced, not copied.
func NewItem(id, typ, object any, bypassed bool) *Item {
	return &Item{
		id:       id,
		typ:      typ,
		object:   object,
		bypassed: bypassed,
	}
}

// ID returns the identifier the item is keyed by.
func (i *Item) ID() any { return i.id }

// Type returns the type the item was classified with.
func (i *Item) Type() any { return i.typ }

// Object returns the domain object this item stands in for.
func (i *Item) Object() any { return i.object }

// Bypassed reports whether the item's type is elided from edge lists.
func (i *Item) Bypassed() bool { return i.bypassed }

// Upstream returns the items this item depends on, in discovery order.
// The returned slice is a copy.
func (i *Item) Upstream() []*Item { return slices.Clone(i.upstream) }

// Downstream returns the items depending on this item, in discovery order.
// The returned slice is a copy.
func (i *Item) Downstream() []*Item { return slices.Clone(i.downstream) }

// AppendUpstream adds dep to the upstream list. Duplicates and self
// references are accepted as-is.
func (i *Item) AppendUpstream(dep *Item) { i.upstream = append(i.upstream, dep) }

// AppendDownstream adds dep to the downstream list. Duplicates and self
// references are accepted as-is.
func (i *Item) AppendDownstream(dep *Item) { i.downstream = append(i.downstream, dep) }

// UpstreamIDs returns the identifiers of the upstream items.
func (i *Item) UpstreamIDs() []any { return ids(i.upstream) }

// DownstreamIDs returns the identifiers of the downstream items.
func (i *Item) DownstreamIDs() []any { return ids(i.downstream) }

// ToMap returns the item's fixed attributes keyed by "id", "type", "item"
// and "bypass". Edge lists are not included.
func (i *Item) ToMap() map[string]any {
	return map[string]any{
		"id":     i.id,
		"type":   i.typ,
		"item":   i.object,
		"bypass": i.bypassed,
	}
}

func ids(items []*Item) []any {
	out := make([]any, len(items))
	for k, it := range items {
		out[k] = it.id
	}
	return out
}
