package wrangler

import (
	"fmt"
	"reflect"

	"github.com/matzehuels/depwrangler/pkg/errors"
)

// Extractor resolves a domain object to a single value, such as its
// identifier or its type. Build one with [Attribute] or [Func]; the zero
// value is unset and fails [Wrangler.Validate].
type Extractor struct {
	attr string
	fn   func(object any) (any, error)
}

// Attribute returns an extractor that reads the named attribute of an
// object. The name is looked up, in order, as a zero-argument method
// (returning a value, optionally followed by an error), an exported struct
// field (through any number of pointers), or a key of a string-keyed map.
func Attribute(name string) Extractor { return Extractor{attr: name} }

// Func returns an extractor that calls fn. Errors returned by fn are passed
// through to the caller of Analyse unchanged.
func Func(fn func(object any) (any, error)) Extractor { return Extractor{fn: fn} }

// IsZero reports whether no strategy is configured.
func (e Extractor) IsZero() bool { return e.attr == "" && e.fn == nil }

// Extract resolves object using the configured strategy.
func (e Extractor) Extract(object any) (any, error) {
	if e.fn != nil {
		return e.fn(object)
	}
	if e.attr == "" {
		return nil, errors.New(errors.ErrCodeInternal, "extractor is not configured")
	}
	return readAttribute(object, e.attr)
}

// String describes the strategy, e.g. `attribute "ID"` or `func`.
func (e Extractor) String() string {
	switch {
	case e.fn != nil:
		return "func"
	case e.attr != "":
		return fmt.Sprintf("attribute %q", e.attr)
	}
	return "unset"
}

// Neighbors resolves a domain object to the objects adjacent to it in one
// direction. Build one with [NeighborsFunc] or [NeighborsAttribute].
//
// Neighbor strategies must be deterministic and free of side effects for the
// lifetime of a session.
type Neighbors struct {
	attr string
	fn   func(object any) ([]any, error)
}

// NeighborsFunc returns a neighbor strategy that calls fn.
func NeighborsFunc(fn func(object any) ([]any, error)) Neighbors { return Neighbors{fn: fn} }

// NeighborsAttribute returns a neighbor strategy that reads the named
// attribute (see [Attribute]) and expects a slice or array.
func NeighborsAttribute(name string) Neighbors { return Neighbors{attr: name} }

// IsZero reports whether no strategy is configured.
func (n Neighbors) IsZero() bool { return n.attr == "" && n.fn == nil }

// Resolve returns the neighbors of object in accessor order.
func (n Neighbors) Resolve(object any) ([]any, error) {
	if n.fn != nil {
		return n.fn(object)
	}
	if n.attr == "" {
		return nil, errors.New(errors.ErrCodeInternal, "neighbor accessor is not configured")
	}
	v, err := readAttribute(object, n.attr)
	if err != nil {
		return nil, err
	}
	return toSlice(v, n.attr)
}

var errorType = reflect.TypeFor[error]()

func readAttribute(object any, name string) (any, error) {
	v := reflect.ValueOf(object)
	if !v.IsValid() {
		return nil, errors.New(errors.ErrCodeInvalidObject, "cannot read attribute %q of nil object", name)
	}

	if (v.Kind() == reflect.Pointer || v.Kind() == reflect.Interface) && v.IsNil() {
		return nil, errors.New(errors.ErrCodeInvalidObject, "cannot read attribute %q of nil %T", name, object)
	}

	if m := v.MethodByName(name); m.IsValid() {
		if out, ok, err := callGetter(m); ok {
			return out, err
		}
	}

	for v.Kind() == reflect.Pointer || v.Kind() == reflect.Interface {
		if v.IsNil() {
			return nil, errors.New(errors.ErrCodeInvalidObject, "cannot read attribute %q of nil %T", name, object)
		}
		v = v.Elem()
	}

	switch v.Kind() {
	case reflect.Struct:
		if f := v.FieldByName(name); f.IsValid() && f.CanInterface() {
			return f.Interface(), nil
		}
	case reflect.Map:
		kt := v.Type().Key()
		if kt.Kind() == reflect.String {
			if mv := v.MapIndex(reflect.ValueOf(name).Convert(kt)); mv.IsValid() {
				return mv.Interface(), nil
			}
		}
	}
	return nil, errors.New(errors.ErrCodeInvalidObject, "%T has no attribute %q", object, name)
}

// callGetter invokes m if it takes no arguments and returns either one value
// or a value and an error.
func callGetter(m reflect.Value) (any, bool, error) {
	t := m.Type()
	if t.NumIn() != 0 {
		return nil, false, nil
	}
	switch {
	case t.NumOut() == 1:
		return m.Call(nil)[0].Interface(), true, nil
	case t.NumOut() == 2 && t.Out(1) == errorType:
		out := m.Call(nil)
		if !out[1].IsNil() {
			return nil, true, out[1].Interface().(error)
		}
		return out[0].Interface(), true, nil
	}
	return nil, false, nil
}

func toSlice(v any, name string) ([]any, error) {
	if v == nil {
		return nil, nil
	}
	if s, ok := v.([]any); ok {
		return s, nil
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Slice, reflect.Array:
		out := make([]any, rv.Len())
		for i := range out {
			out[i] = rv.Index(i).Interface()
		}
		return out, nil
	}
	return nil, errors.New(errors.ErrCodeInvalidObject, "attribute %q is %T, not a sequence", name, v)
}

// hashable reports whether v can be used as a map key without panicking.
func hashable(v any) bool {
	if v == nil {
		return true
	}
	return reflect.ValueOf(v).Comparable()
}
