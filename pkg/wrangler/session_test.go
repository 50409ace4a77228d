package wrangler

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"reflect"
	"slices"
	"testing"
	"time"

	werrors "github.com/matzehuels/depwrangler/pkg/errors"
	"github.com/matzehuels/depwrangler/pkg/observability"
)

func analyse(t *testing.T, w *Wrangler, root *node) *Session {
	t.Helper()
	s, err := w.Analyse(context.Background(), root)
	if err != nil {
		t.Fatalf("Analyse: %v", err)
	}
	return s
}

func item(t *testing.T, s *Session, id string) *Item {
	t.Helper()
	it, ok := s.Item(id)
	if !ok {
		t.Fatalf("item %q not registered", id)
	}
	return it
}

func assertIDs(t *testing.T, label string, got []any, want ...any) {
	t.Helper()
	if want == nil {
		want = []any{}
	}
	if got == nil {
		got = []any{}
	}
	if !slices.Equal(got, want) {
		t.Errorf("%s = %v, want %v", label, got, want)
	}
}

func TestAnalyseLinearChain(t *testing.T) {
	f := newFixture(nil, [2]string{"A", "B"}, [2]string{"B", "C"}, [2]string{"C", "D"}, [2]string{"D", "E"})
	s := analyse(t, mustNew(t, baseOptions()), f["A"])

	if s.Root() != item(t, s, "A") {
		t.Error("Root() should be the item for A")
	}
	assertIDs(t, "AnalysedObjects", s.AnalysedObjects(), "A", "B", "C", "D", "E")

	wantUp := map[string][]any{"A": {"B"}, "B": {"C"}, "C": {"D"}, "D": {"E"}, "E": nil}
	wantDown := map[string][]any{"A": nil, "B": {"A"}, "C": {"B"}, "D": {"C"}, "E": {"D"}}
	for id := range wantUp {
		it := item(t, s, id)
		assertIDs(t, id+".upstream", it.UpstreamIDs(), wantUp[id]...)
		assertIDs(t, id+".downstream", it.DownstreamIDs(), wantDown[id]...)
	}
}

func TestAnalyseMemoizesSharedDependencies(t *testing.T) {
	f := newFixture(nil,
		[2]string{"app", "auth"}, [2]string{"app", "cache"},
		[2]string{"auth", "core"}, [2]string{"cache", "core"},
		[2]string{"app", "core"},
	)
	s := analyse(t, mustNew(t, baseOptions()), f["app"])

	if s.Len() != 4 {
		t.Fatalf("Len() = %d, want 4", s.Len())
	}
	core := item(t, s, "core")
	for _, id := range []string{"auth", "cache"} {
		up := item(t, s, id).Upstream()
		if len(up) != 1 || up[0] != core {
			t.Errorf("%s.upstream should be the single core instance", id)
		}
	}
	assertIDs(t, "core.downstream", core.DownstreamIDs(), "auth", "cache", "app")
}

func TestSessionReturnsSameInstance(t *testing.T) {
	f := newFixture(nil, [2]string{"a", "b"}, [2]string{"b", "c"})
	w := mustNew(t, baseOptions())
	s := w.NewSession()
	ctx := context.Background()

	first, err := s.Analyse(ctx, f["a"])
	if err != nil {
		t.Fatal(err)
	}
	again, err := s.Analyse(ctx, f["a"])
	if err != nil {
		t.Fatal(err)
	}
	if first != again {
		t.Error("re-analysing the root should return the same item")
	}

	// A distinct object with a known identifier resolves to the existing item.
	twin := &node{Name: "b", Kind: "other"}
	b, err := s.Analyse(ctx, twin)
	if err != nil {
		t.Fatal(err)
	}
	if b != item(t, s, "b") || b.Object() != f["b"] {
		t.Error("identifier b should resolve to the first registered item")
	}
	if s.Len() != 3 {
		t.Errorf("Len() = %d, want 3", s.Len())
	}
	if s.Root() != b {
		t.Error("Root() should track the last analysis")
	}
}

func TestSessionsAreIndependent(t *testing.T) {
	f := newFixture(nil, [2]string{"a", "b"})
	w := mustNew(t, baseOptions())

	s1 := analyse(t, w, f["a"])
	s2 := analyse(t, w, f["a"])
	if s1.ID() == s2.ID() {
		t.Error("sessions should have distinct IDs")
	}
	if item(t, s1, "a") == item(t, s2, "a") {
		t.Error("sessions should not share items")
	}
}

func TestAnalyseBypassSplicesUpstream(t *testing.T) {
	f := newFixture(map[string]string{"X": "virtual"}, [2]string{"P", "X"}, [2]string{"X", "Q"})
	opts := baseOptions()
	opts.BypassTypes = []any{"virtual"}
	s := analyse(t, mustNew(t, opts), f["P"])

	p := item(t, s, "P")
	assertIDs(t, "P.upstream", p.UpstreamIDs(), "Q")
	for _, dep := range p.Upstream() {
		if dep.Type() == "virtual" {
			t.Error("P.upstream should not contain bypassed items")
		}
	}

	x := item(t, s, "X")
	if !x.Bypassed() {
		t.Error("X should be bypassed")
	}
	assertIDs(t, "AvailableObjects", s.AvailableObjects(), "P", "Q")
	assertIDs(t, "AnalysedObjects", s.AnalysedObjects(), "P", "X", "Q")
}

func TestAnalyseBypassChain(t *testing.T) {
	// P -> X1 -> X2 -> Q with both X bypassed collapses to P -> Q.
	f := newFixture(map[string]string{"X1": "virtual", "X2": "virtual"},
		[2]string{"P", "X1"}, [2]string{"X1", "X2"}, [2]string{"X2", "Q"})
	opts := baseOptions()
	opts.BypassTypes = []any{"virtual"}
	s := analyse(t, mustNew(t, opts), f["P"])

	assertIDs(t, "P.upstream", item(t, s, "P").UpstreamIDs(), "Q")
	assertIDs(t, "X1.upstream", item(t, s, "X1").UpstreamIDs(), "Q")
}

func TestAnalyseRequiredTypes(t *testing.T) {
	f := newFixture(map[string]string{"app": "T1", "tool": "T3", "lib": "T2", "gen": "T3"},
		[2]string{"app", "tool"}, [2]string{"tool", "lib"}, [2]string{"app", "gen"}, [2]string{"gen", "lib"})
	opts := baseOptions()
	opts.RequiredTypes = []any{"T1", "T2"}
	s := analyse(t, mustNew(t, opts), f["app"])

	assertIDs(t, "AvailableObjects", s.AvailableObjects(), "app", "lib")
	for _, id := range []string{"tool", "gen"} {
		if !item(t, s, id).Bypassed() {
			t.Errorf("%s should be bypassed", id)
		}
	}
	assertIDs(t, "app.upstream", item(t, s, "app").UpstreamIDs(), "lib", "lib")
}

func TestAnalyseUncomparableType(t *testing.T) {
	tests := []struct {
		name         string
		required     []any
		bypass       []any
		wantBypassed bool
	}{
		{"allow-list", []any{"lib"}, nil, true},
		{"bypass list", nil, []any{"lib"}, false},
		{"no policy", nil, nil, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := baseOptions()
			opts.RequiredTypes = tt.required
			opts.BypassTypes = tt.bypass
			opts.Type = Func(func(any) (any, error) { return []string{"x"}, nil })
			s := analyse(t, mustNew(t, opts), &node{Name: "a"})

			if got := s.Root().Bypassed(); got != tt.wantBypassed {
				t.Errorf("bypassed = %v, want %v", got, tt.wantBypassed)
			}
			if tt.wantBypassed {
				assertIDs(t, "AvailableObjects", s.AvailableObjects())
			} else {
				assertIDs(t, "AvailableObjects", s.AvailableObjects(), "a")
			}
		})
	}
}

func TestAnalyseCycle(t *testing.T) {
	f := newFixture(nil, [2]string{"A", "B"}, [2]string{"B", "A"})
	s := analyse(t, mustNew(t, baseOptions()), f["A"])

	if s.Len() != 2 {
		t.Fatalf("Len() = %d, want 2", s.Len())
	}
	assertIDs(t, "A.upstream", item(t, s, "A").UpstreamIDs(), "B")
	assertIDs(t, "B.upstream", item(t, s, "B").UpstreamIDs(), "A")
	assertIDs(t, "A.downstream", item(t, s, "A").DownstreamIDs(), "B")
	assertIDs(t, "B.downstream", item(t, s, "B").DownstreamIDs(), "A")
}

func TestAnalyseSelfLoop(t *testing.T) {
	f := newFixture(nil, [2]string{"A", "A"})
	s := analyse(t, mustNew(t, baseOptions()), f["A"])

	a := item(t, s, "A")
	assertIDs(t, "A.upstream", a.UpstreamIDs(), "A")
	assertIDs(t, "A.downstream", a.DownstreamIDs(), "A")
}

func TestDownstreamSpliceDirection(t *testing.T) {
	// Q <- X <- P with X bypassed, analysed from Q.
	f := newFixture(map[string]string{"X": "virtual"}, [2]string{"P", "X"}, [2]string{"X", "Q"})

	t.Run("default splices upstream list", func(t *testing.T) {
		opts := baseOptions()
		opts.BypassTypes = []any{"virtual"}
		s := analyse(t, mustNew(t, opts), f["Q"])

		assertIDs(t, "Q.downstream", item(t, s, "Q").DownstreamIDs(), "Q")
		assertIDs(t, "P.upstream", item(t, s, "P").UpstreamIDs(), "Q")
	})

	t.Run("symmetric splices downstream list", func(t *testing.T) {
		opts := baseOptions()
		opts.BypassTypes = []any{"virtual"}
		opts.SymmetricDownstream = true
		s := analyse(t, mustNew(t, opts), f["Q"])

		assertIDs(t, "Q.downstream", item(t, s, "Q").DownstreamIDs(), "P")
	})
}

func TestAnalyseValidationFailsBeforeTraversal(t *testing.T) {
	opts := baseOptions()
	opts.Type = Extractor{}
	calls := 0
	opts.Upstream = NeighborsFunc(func(any) ([]any, error) { calls++; return nil, nil })
	w := mustNew(t, opts)

	s := w.NewSession()
	root, err := s.Analyse(context.Background(), &node{Name: "a"})
	if !werrors.Is(err, werrors.ErrCodeMissingType) {
		t.Fatalf("err = %v, want %s", err, werrors.ErrCodeMissingType)
	}
	if root != nil || s.Len() != 0 || calls != 0 {
		t.Error("no item should be created and no accessor called")
	}

	if _, err := w.Analyse(context.Background(), &node{Name: "a"}); err == nil {
		t.Error("Wrangler.Analyse should fail too")
	}
}

func TestAnalyseCallbackErrorRollsBack(t *testing.T) {
	f := newFixture(nil, [2]string{"a", "b"}, [2]string{"b", "c"})
	boom := errors.New("boom")

	opts := baseOptions()
	opts.Upstream = NeighborsFunc(func(o any) ([]any, error) {
		n := o.(*node)
		if n.Name == "c" {
			return nil, boom
		}
		return NeighborsAttribute("Up").Resolve(n)
	})
	w := mustNew(t, opts)

	s := w.NewSession()
	if _, err := s.Analyse(context.Background(), f["x"]); err == nil {
		t.Fatal("nil object should fail")
	}

	root, err := s.Analyse(context.Background(), f["a"])
	if err != boom {
		t.Fatalf("err = %v, want callback error unchanged", err)
	}
	if root != nil || s.Root() != nil {
		t.Error("failed analysis should not produce a root")
	}
	if s.Len() != 0 || len(s.Items()) != 0 {
		t.Errorf("items left after failure: %v", s.AnalysedObjects())
	}
}

func TestAnalyseKeepsEarlierItemsOnFailure(t *testing.T) {
	f := newFixture(nil, [2]string{"a", "b"})
	w := mustNew(t, baseOptions())
	s := w.NewSession()
	if _, err := s.Analyse(context.Background(), f["a"]); err != nil {
		t.Fatal(err)
	}

	if _, err := s.Analyse(context.Background(), "not a node"); !werrors.Is(err, werrors.ErrCodeInvalidObject) {
		t.Fatalf("err = %v, want %s", err, werrors.ErrCodeInvalidObject)
	}
	if s.Len() != 2 || s.Root() != item(t, s, "a") {
		t.Error("earlier analysis should be untouched")
	}
}

func TestAnalyseUncomparableIdentifier(t *testing.T) {
	opts := baseOptions()
	opts.Identifier = Func(func(o any) (any, error) { return []string{o.(*node).Name}, nil })
	_, err := mustNew(t, opts).Analyse(context.Background(), &node{Name: "a"})
	if !werrors.Is(err, werrors.ErrCodeInvalidIdentifier) {
		t.Errorf("err = %v, want %s", err, werrors.ErrCodeInvalidIdentifier)
	}
}

func TestAnalyseCancelled(t *testing.T) {
	f := newFixture(nil, [2]string{"a", "b"})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	s := mustNew(t, baseOptions()).NewSession()
	if _, err := s.Analyse(ctx, f["a"]); !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
	if s.Len() != 0 {
		t.Error("cancelled analysis should leave no items")
	}
}

func TestAnalyseDeepChain(t *testing.T) {
	const depth = 200_000
	w := mustNew(t, Options{
		ObjectType: reflect.TypeFor[int](),
		Identifier: Func(func(o any) (any, error) { return o, nil }),
		Type:       Func(func(any) (any, error) { return "n", nil }),
		Upstream: NeighborsFunc(func(o any) ([]any, error) {
			if i := o.(int); i+1 < depth {
				return []any{i + 1}, nil
			}
			return nil, nil
		}),
		Downstream: NeighborsFunc(func(o any) ([]any, error) {
			if i := o.(int); i > 0 {
				return []any{i - 1}, nil
			}
			return nil, nil
		}),
	})

	s, err := w.Analyse(context.Background(), 0)
	if err != nil {
		t.Fatal(err)
	}
	if s.Len() != depth {
		t.Fatalf("Len() = %d, want %d", s.Len(), depth)
	}
	first, _ := s.Item(0)
	last, _ := s.Item(depth - 1)
	assertIDs(t, "first.upstream", first.UpstreamIDs(), 1)
	assertIDs(t, "last.downstream", last.DownstreamIDs(), depth-2)
}

// analyseRecursive is the textbook recursive formulation, used as an oracle
// for the iterative walk.
func analyseRecursive(w *Wrangler, table map[any]*Item, object any) *Item {
	id, _ := w.identifier.Extract(object)
	typ, _ := w.typ.Extract(object)
	if it, ok := table[id]; ok {
		return it
	}
	it := NewItem(id, typ, object, w.IsBypassed(typ))
	table[id] = it

	ups, _ := w.upstream.Resolve(object)
	for _, u := range ups {
		dep := analyseRecursive(w, table, u)
		if dep.bypassed {
			for _, x := range dep.upstream {
				it.AppendUpstream(x)
			}
		} else {
			it.AppendUpstream(dep)
		}
	}
	downs, _ := w.downstream.Resolve(object)
	for _, d := range downs {
		dep := analyseRecursive(w, table, d)
		if dep.bypassed {
			for _, x := range dep.upstream {
				it.AppendDownstream(x)
			}
		} else {
			it.AppendDownstream(dep)
		}
	}
	return table[id]
}

func TestAnalyseMatchesRecursiveDefinition(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	kinds := []string{"lib", "virtual", "app"}

	for trial := 0; trial < 25; trial++ {
		const n = 30
		types := map[string]string{}
		for i := 0; i < n; i++ {
			types[fmt.Sprintf("n%d", i)] = kinds[rng.Intn(len(kinds))]
		}
		var edges [][2]string
		for i := 0; i < n*2; i++ {
			edges = append(edges, [2]string{
				fmt.Sprintf("n%d", rng.Intn(n)),
				fmt.Sprintf("n%d", rng.Intn(n)),
			})
		}
		f := newFixture(types, edges...)

		opts := baseOptions()
		opts.BypassTypes = []any{"virtual"}
		w := mustNew(t, opts)

		root := f["n0"]
		s := analyse(t, w, root)
		oracle := map[any]*Item{}
		analyseRecursive(w, oracle, root)

		if s.Len() != len(oracle) {
			t.Fatalf("trial %d: Len() = %d, oracle %d", trial, s.Len(), len(oracle))
		}
		for id, want := range oracle {
			got := item(t, s, id.(string))
			if !slices.Equal(got.UpstreamIDs(), want.UpstreamIDs()) {
				t.Errorf("trial %d: %v.upstream = %v, want %v", trial, id, got.UpstreamIDs(), want.UpstreamIDs())
			}
			if !slices.Equal(got.DownstreamIDs(), want.DownstreamIDs()) {
				t.Errorf("trial %d: %v.downstream = %v, want %v", trial, id, got.DownstreamIDs(), want.DownstreamIDs())
			}
		}
	}
}

type countingHooks struct {
	observability.NoopAnalyseHooks
	started, created, completed int
	lastItems                   int
	lastErr                     error
}

func (h *countingHooks) OnAnalyseStart(context.Context, string, any) { h.started++ }
func (h *countingHooks) OnItemCreated(context.Context, string, any, bool) {
	h.created++
}
func (h *countingHooks) OnAnalyseComplete(_ context.Context, _ string, items int, _ time.Duration, err error) {
	h.completed++
	h.lastItems = items
	h.lastErr = err
}

func TestAnalyseEmitsHooks(t *testing.T) {
	h := &countingHooks{}
	observability.SetAnalyseHooks(h)
	defer observability.Reset()

	f := newFixture(nil, [2]string{"a", "b"}, [2]string{"a", "c"})
	analyse(t, mustNew(t, baseOptions()), f["a"])

	if h.started != 1 || h.completed != 1 {
		t.Errorf("started=%d completed=%d, want 1 each", h.started, h.completed)
	}
	if h.created != 3 || h.lastItems != 3 || h.lastErr != nil {
		t.Errorf("created=%d items=%d err=%v", h.created, h.lastItems, h.lastErr)
	}
}
