// Package document loads declarative object graphs for analysis.
//
// A document lists domain objects by ID with their type and the IDs they
// depend on. It exists so graphs can be analysed from the command line or
// over HTTP without writing Go accessors:
//
//	root = "app"
//
//	[[objects]]
//	id = "app"
//	type = "binary"
//	upstream = ["shim"]
//
//	[[objects]]
//	id = "shim"
//	type = "virtual"
//	upstream = ["core"]
//
//	[[objects]]
//	id = "core"
//	type = "library"
//
// The same structure is accepted as YAML (top-level "objects" list) and
// JSON. Objects that do not declare a downstream list get one derived from
// the upstream declarations of the other objects, in declaration order.
package document

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"reflect"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"github.com/matzehuels/depwrangler/pkg/errors"
	"github.com/matzehuels/depwrangler/pkg/graph"
	"github.com/matzehuels/depwrangler/pkg/wrangler"
)

// Supported document formats.
const (
	FormatTOML = "toml"
	FormatYAML = "yaml"
	FormatJSON = "json"
)

// Formats lists the supported formats.
var Formats = []string{FormatTOML, FormatYAML, FormatJSON}

// Object is one domain object in a document.
type Object struct {
	ID         string         `toml:"id" yaml:"id" json:"id"`
	Type       string         `toml:"type" yaml:"type" json:"type"`
	Upstream   []string       `toml:"upstream" yaml:"upstream" json:"upstream,omitempty"`
	Downstream []string       `toml:"downstream" yaml:"downstream" json:"downstream,omitempty"`
	Meta       map[string]any `toml:"meta" yaml:"meta" json:"meta,omitempty"`
}

// Document is a validated set of objects indexed by ID.
type Document struct {
	Root    string    `toml:"root" yaml:"root" json:"root,omitempty"`
	Objects []*Object `toml:"objects" yaml:"objects" json:"objects"`

	index map[string]*Object
}

// Load reads and parses the document at path. The format is chosen by file
// extension: .toml, .yaml/.yml or .json.
func Load(path string) (*Document, error) {
	format, err := FormatFromPath(path)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Wrap(errors.ErrCodeNotFound, err, "document %s not found", path)
		}
		return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "read %s", path)
	}
	return Parse(data, format)
}

// FormatFromPath maps a file extension to a document format.
func FormatFromPath(path string) (string, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		return FormatTOML, nil
	case ".yaml", ".yml":
		return FormatYAML, nil
	case ".json":
		return FormatJSON, nil
	}
	return "", errors.New(errors.ErrCodeInvalidFormat, "cannot infer document format from %q", filepath.Base(path))
}

// Parse decodes data in the given format and validates the result.
func Parse(data []byte, format string) (*Document, error) {
	var d Document
	var err error
	switch strings.ToLower(format) {
	case FormatTOML:
		_, err = toml.Decode(string(data), &d)
	case FormatYAML:
		err = yaml.Unmarshal(data, &d)
	case FormatJSON:
		dec := json.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		err = dec.Decode(&d)
	default:
		return nil, errors.ValidateFormat(format, Formats...)
	}
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidDocument, err, "decode %s document", format)
	}
	if err := d.init(); err != nil {
		return nil, err
	}
	return &d, nil
}

// New builds a document from objects, validating it like [Parse] does.
func New(root string, objects ...*Object) (*Document, error) {
	d := &Document{Root: root, Objects: objects}
	if err := d.init(); err != nil {
		return nil, err
	}
	return d, nil
}

func (d *Document) init() error {
	d.index = make(map[string]*Object, len(d.Objects))
	for i, o := range d.Objects {
		if o == nil {
			return errors.New(errors.ErrCodeInvalidDocument, "object %d is empty", i)
		}
		if err := errors.ValidateIdentifier(o.ID); err != nil {
			return errors.Wrap(errors.ErrCodeInvalidDocument, err, "object %d", i)
		}
		if _, dup := d.index[o.ID]; dup {
			return errors.New(errors.ErrCodeInvalidDocument, "duplicate object %q", o.ID)
		}
		d.index[o.ID] = o
	}

	for _, o := range d.Objects {
		for _, ref := range o.Upstream {
			if _, ok := d.index[ref]; !ok {
				return errors.New(errors.ErrCodeNotFound, "object %q: unknown upstream %q", o.ID, ref)
			}
		}
		for _, ref := range o.Downstream {
			if _, ok := d.index[ref]; !ok {
				return errors.New(errors.ErrCodeNotFound, "object %q: unknown downstream %q", o.ID, ref)
			}
		}
	}
	if d.Root != "" {
		if _, ok := d.index[d.Root]; !ok {
			return errors.New(errors.ErrCodeNotFound, "root %q is not a declared object", d.Root)
		}
	}

	d.deriveDownstream()
	return nil
}

func (d *Document) deriveDownstream() {
	derived := make(map[string][]string)
	for _, o := range d.Objects {
		for _, ref := range o.Upstream {
			derived[ref] = append(derived[ref], o.ID)
		}
	}
	for _, o := range d.Objects {
		if o.Downstream == nil {
			o.Downstream = derived[o.ID]
		}
	}
}

// Lookup returns the object with the given ID.
func (d *Document) Lookup(id string) (*Object, bool) {
	o, ok := d.index[id]
	return o, ok
}

// RootObject returns the object named by id, falling back to the
// document's root and then to its first object.
func (d *Document) RootObject(id string) (*Object, error) {
	if id == "" {
		id = d.Root
	}
	if id == "" {
		if len(d.Objects) == 0 {
			return nil, errors.New(errors.ErrCodeInvalidDocument, "document has no objects")
		}
		return d.Objects[0], nil
	}
	o, ok := d.index[id]
	if !ok {
		return nil, errors.New(errors.ErrCodeNotFound, "object %q not found", id)
	}
	return o, nil
}

// UpstreamOf returns the objects o depends on.
func (d *Document) UpstreamOf(o *Object) []*Object { return d.resolve(o.Upstream) }

// DownstreamOf returns the objects depending on o.
func (d *Document) DownstreamOf(o *Object) []*Object { return d.resolve(o.Downstream) }

func (d *Document) resolve(ids []string) []*Object {
	out := make([]*Object, 0, len(ids))
	for _, id := range ids {
		out = append(out, d.index[id])
	}
	return out
}

// Options returns wrangler options that read identifiers and types from
// the ID and Type fields and walk the document's references. Filter
// policies are left for the caller to set.
func (d *Document) Options() wrangler.Options {
	return wrangler.Options{
		ObjectType: reflect.TypeFor[*Object](),
		Identifier: wrangler.Attribute("ID"),
		Type:       wrangler.Attribute("Type"),
		Upstream:   wrangler.NeighborsFunc(d.neighbors(d.UpstreamOf)),
		Downstream: wrangler.NeighborsFunc(d.neighbors(d.DownstreamOf)),
	}
}

func (d *Document) neighbors(fn func(*Object) []*Object) func(any) ([]any, error) {
	return func(object any) ([]any, error) {
		o, ok := object.(*Object)
		if !ok {
			return nil, errors.New(errors.ErrCodeInvalidObject, "expected *document.Object, got %T", object)
		}
		objs := fn(o)
		out := make([]any, len(objs))
		for i, n := range objs {
			out[i] = n
		}
		return out, nil
	}
}

// ItemMeta returns the metadata of the object behind it, for use as
// [wrangler.GraphOptions.Meta].
func ItemMeta(it *wrangler.Item) graph.Metadata {
	o, ok := it.Object().(*Object)
	if !ok || len(o.Meta) == 0 {
		return nil
	}
	return graph.Metadata(o.Meta)
}
