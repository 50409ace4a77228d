package wrangler

import (
	"reflect"
	"testing"

	"github.com/matzehuels/depwrangler/pkg/errors"
)

// node is the domain object used throughout the tests.
type node struct {
	Name string
	Kind string
	Up   []*node
	Down []*node
}

// fixture builds nodes by name and wires edges given as "consumer>dependency".
type fixture map[string]*node

func newFixture(kinds map[string]string, edges ...[2]string) fixture {
	f := fixture{}
	get := func(name string) *node {
		if n, ok := f[name]; ok {
			return n
		}
		kind := kinds[name]
		if kind == "" {
			kind = "regular"
		}
		n := &node{Name: name, Kind: kind}
		f[name] = n
		return n
	}
	for name := range kinds {
		get(name)
	}
	for _, e := range edges {
		from, to := get(e[0]), get(e[1])
		from.Up = append(from.Up, to)
		to.Down = append(to.Down, from)
	}
	return f
}

func baseOptions() Options {
	return Options{
		ObjectType: reflect.TypeFor[*node](),
		Identifier: Attribute("Name"),
		Type:       Attribute("Kind"),
		Upstream:   NeighborsAttribute("Up"),
		Downstream: NeighborsAttribute("Down"),
	}
}

func mustNew(t *testing.T, opts Options) *Wrangler {
	t.Helper()
	w, err := New(opts)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return w
}

func TestNewRejectsBothFilterPolicies(t *testing.T) {
	opts := baseOptions()
	opts.BypassTypes = []any{"a"}
	opts.RequiredTypes = []any{"b"}

	w, err := New(opts)
	if w != nil {
		t.Error("New should not return a wrangler on error")
	}
	if !errors.Is(err, errors.ErrCodeInvalidConfig) {
		t.Fatalf("err = %v, want %s", err, errors.ErrCodeInvalidConfig)
	}
	if errors.UserMessage(err) != "more than one filtering policy specified" {
		t.Errorf("message = %q", errors.UserMessage(err))
	}
}

func TestNewAcceptsEmptyPolicyAlongsideOther(t *testing.T) {
	opts := baseOptions()
	opts.BypassTypes = []any{}
	opts.RequiredTypes = []any{"b"}
	if _, err := New(opts); err != nil {
		t.Errorf("New: %v", err)
	}
}

func TestNewRejectsUncomparableFilterType(t *testing.T) {
	opts := baseOptions()
	opts.BypassTypes = []any{[]string{"x"}}
	if _, err := New(opts); !errors.Is(err, errors.ErrCodeInvalidConfig) {
		t.Errorf("err = %v, want %s", err, errors.ErrCodeInvalidConfig)
	}
}

func TestNewDoesNotValidate(t *testing.T) {
	if _, err := New(Options{}); err != nil {
		t.Errorf("New(Options{}) = %v, want nil", err)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name  string
		clear func(*Options)
		want  errors.Code
	}{
		{"object type", func(o *Options) { o.ObjectType = nil }, errors.ErrCodeMissingObjectType},
		{"upstream", func(o *Options) { o.Upstream = Neighbors{} }, errors.ErrCodeMissingUpstream},
		{"downstream", func(o *Options) { o.Downstream = Neighbors{} }, errors.ErrCodeMissingDownstream},
		{"identifier", func(o *Options) { o.Identifier = Extractor{} }, errors.ErrCodeMissingIdentifier},
		{"type", func(o *Options) { o.Type = Extractor{} }, errors.ErrCodeMissingType},
	}

	seen := map[string]bool{}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := baseOptions()
			tt.clear(&opts)
			err := mustNew(t, opts).Validate()
			if !errors.Is(err, tt.want) {
				t.Fatalf("Validate() = %v, want %s", err, tt.want)
			}
			if !errors.IsConfig(err) {
				t.Error("validation errors should be config errors")
			}
			msg := errors.UserMessage(err)
			if seen[msg] {
				t.Errorf("message %q is not distinct", msg)
			}
			seen[msg] = true
		})
	}

	if err := mustNew(t, baseOptions()).Validate(); err != nil {
		t.Errorf("Validate() on complete options = %v", err)
	}
}

func TestIsBypassed(t *testing.T) {
	bypass := baseOptions()
	bypass.BypassTypes = []any{"virtual"}
	wb := mustNew(t, bypass)

	required := baseOptions()
	required.RequiredTypes = []any{"lib", "app"}
	wr := mustNew(t, required)

	none := mustNew(t, baseOptions())

	tests := []struct {
		name string
		w    *Wrangler
		typ  any
		want bool
	}{
		{"bypass listed", wb, "virtual", true},
		{"bypass unlisted", wb, "lib", false},
		{"required listed", wr, "lib", false},
		{"required unlisted", wr, "tool", true},
		{"required nil type", wr, nil, true},
		{"no policy", none, "virtual", false},
		{"uncomparable type under bypass list", wb, []int{1}, false},
		{"uncomparable type under allow-list", wr, []int{1}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.w.IsBypassed(tt.typ); got != tt.want {
				t.Errorf("IsBypassed(%v) = %v, want %v", tt.typ, got, tt.want)
			}
		})
	}
}

func TestRequiredTypesExposed(t *testing.T) {
	opts := baseOptions()
	opts.RequiredTypes = []any{"lib", "app"}
	w := mustNew(t, opts)

	got := w.RequiredTypes()
	if len(got) != 2 || got[0] != "lib" || got[1] != "app" {
		t.Errorf("RequiredTypes() = %v", got)
	}
	got[0] = "changed"
	if w.RequiredTypes()[0] != "lib" {
		t.Error("RequiredTypes() should return a copy")
	}
	opts.RequiredTypes[1] = "changed"
	if w.RequiredTypes()[1] != "app" {
		t.Error("New should copy RequiredTypes")
	}
	if mustNew(t, baseOptions()).RequiredTypes() != nil {
		t.Error("RequiredTypes() without allow-list should be nil")
	}
}

func TestAccepts(t *testing.T) {
	type shape interface{ Area() float64 }

	tests := []struct {
		name   string
		typ    reflect.Type
		object any
		want   bool
	}{
		{"pointer type exact", reflect.TypeFor[*node](), &node{}, true},
		{"pointer type value", reflect.TypeFor[*node](), node{}, false},
		{"struct type pointer", reflect.TypeFor[node](), &node{}, true},
		{"struct type value", reflect.TypeFor[node](), node{}, true},
		{"other type", reflect.TypeFor[*node](), "x", false},
		{"nil", reflect.TypeFor[*node](), nil, false},
		{"empty interface", reflect.TypeFor[any](), 3, true},
		{"unimplemented interface", reflect.TypeFor[shape](), 3, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := baseOptions()
			opts.ObjectType = tt.typ
			if got := mustNew(t, opts).accepts(tt.object); got != tt.want {
				t.Errorf("accepts(%T) = %v, want %v", tt.object, got, tt.want)
			}
		})
	}
}
