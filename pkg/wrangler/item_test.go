package wrangler

import (
	"slices"
	"testing"
)

func TestNewItem(t *testing.T) {
	obj := &struct{ Name string }{"app"}
	it := NewItem("app", "binary", obj, true)

	if it.ID() != "app" {
		t.Errorf("ID() = %v, want app", it.ID())
	}
	if it.Type() != "binary" {
		t.Errorf("Type() = %v, want binary", it.Type())
	}
	if it.Object() != obj {
		t.Error("Object() should return the original reference")
	}
	if !it.Bypassed() {
		t.Error("Bypassed() = false, want true")
	}
	if len(it.Upstream()) != 0 || len(it.Downstream()) != 0 {
		t.Error("new item should have empty edge lists")
	}
}

func TestItemAppendAcceptsDuplicatesAndSelf(t *testing.T) {
	a := NewItem("a", "t", nil, false)
	b := NewItem("b", "t", nil, false)

	a.AppendUpstream(b)
	a.AppendUpstream(b)
	a.AppendUpstream(a)
	a.AppendDownstream(a)

	if got := a.UpstreamIDs(); !slices.Equal(got, []any{"b", "b", "a"}) {
		t.Errorf("UpstreamIDs() = %v, want [b b a]", got)
	}
	if got := a.DownstreamIDs(); !slices.Equal(got, []any{"a"}) {
		t.Errorf("DownstreamIDs() = %v, want [a]", got)
	}
}

func TestItemEdgeListsAreCopies(t *testing.T) {
	a := NewItem("a", "t", nil, false)
	a.AppendUpstream(NewItem("b", "t", nil, false))

	up := a.Upstream()
	up[0] = nil
	if a.Upstream()[0] == nil {
		t.Error("modifying Upstream() result should not affect the item")
	}
}

func TestItemToMap(t *testing.T) {
	obj := "source"
	m := NewItem(1, "kind", obj, false).ToMap()

	want := map[string]any{"id": 1, "type": "kind", "item": "source", "bypass": false}
	for k, v := range want {
		if m[k] != v {
			t.Errorf("ToMap()[%q] = %v, want %v", k, m[k], v)
		}
	}
	if len(m) != len(want) {
		t.Errorf("ToMap() has %d keys, want %d", len(m), len(want))
	}
}
