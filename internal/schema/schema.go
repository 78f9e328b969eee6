// Package schema implements the default-overlay engine shared by every
// tilecfg document.
//
// A document is a Go struct tree in which optional values are pointers,
// slices or maps (nil means "absent") and identity values are plain fields.
// One fully-populated Default Tree supplies the fallback for every path, and
// one template per list element type supplies the fallback for every
// position of a positional collection. The engine walks the tree once,
// generically, instead of one hand-written merge per field:
//
//   - Merge fills absent fields from the Default Tree.
//   - Unmerge clears fields equal to their default, producing the minimal
//     form that is persisted.
//   - Grow appends template entries to a positional collection.
//
// Merge and Unmerge are pure: inputs are never mutated and results never
// share memory with the Default Tree.
package schema

import (
	"fmt"
	"reflect"
	"strconv"

	"github.com/randalmurphal/tilecfg/internal/paths"
)

// Schema binds a Default Tree and its element templates to a root type.
// A Schema is immutable and safe for concurrent use.
type Schema[T any] struct {
	defaults  *T
	templates map[reflect.Type]reflect.Value
	roots     paths.Roots
}

type options struct {
	templates map[reflect.Type]reflect.Value
	roots     paths.Roots
}

// Option configures a Schema.
type Option func(*options)

// WithTemplate registers the canonical element for every positional
// collection whose element type is E.
func WithTemplate[E any](tmpl E) Option {
	return func(o *options) {
		v := reflect.ValueOf(tmpl)
		o.templates[v.Type()] = cloneValue(v)
	}
}

// WithRoots sets the symbolic roots used to compare path leaves.
func WithRoots(r paths.Roots) Option {
	return func(o *options) {
		o.roots = r
	}
}

// New creates a Schema around a fully-populated Default Tree.
// Every record type used as a list element must have a template.
func New[T any](defaults *T, opts ...Option) (*Schema[T], error) {
	if defaults == nil {
		return nil, fmt.Errorf("defaults are required")
	}
	rt := reflect.TypeOf(defaults).Elem()
	if rt.Kind() != reflect.Struct {
		return nil, fmt.Errorf("schema root must be a struct, got %s", rt.Kind())
	}

	o := &options{templates: make(map[reflect.Type]reflect.Value)}
	for _, opt := range opts {
		opt(o)
	}

	for t := range o.templates {
		if !isRecord(t) {
			return nil, fmt.Errorf("template %s is not a record type", t)
		}
	}
	if err := checkTemplates(rt, o.templates, make(map[reflect.Type]bool)); err != nil {
		return nil, err
	}

	return &Schema[T]{
		defaults:  cloneValue(reflect.ValueOf(defaults)).Interface().(*T),
		templates: o.templates,
		roots:     o.roots,
	}, nil
}

// MustNew is like New but panics on error. It is intended for package-level
// schema construction where a failure is a programming error.
func MustNew[T any](defaults *T, opts ...Option) *Schema[T] {
	s, err := New(defaults, opts...)
	if err != nil {
		panic(err)
	}
	return s
}

// checkTemplates walks record types reachable from t and verifies that every
// list element type has a registered template.
func checkTemplates(t reflect.Type, templates map[reflect.Type]reflect.Value, seen map[reflect.Type]bool) error {
	if seen[t] {
		return nil
	}
	seen[t] = true
	for _, f := range fieldsOf(t) {
		switch f.kind {
		case kindList:
			if _, ok := templates[f.elem]; !ok {
				return fmt.Errorf("no template registered for %s (field %s.%s)", f.elem, t.Name(), f.name)
			}
			if err := checkTemplates(f.elem, templates, seen); err != nil {
				return err
			}
		case kindRecord, kindInline:
			if err := checkTemplates(f.elem, templates, seen); err != nil {
				return err
			}
		}
	}
	return nil
}

// WithRoots returns a copy of s that compares and rewrites paths against r.
func (s *Schema[T]) WithRoots(r paths.Roots) *Schema[T] {
	cp := *s
	cp.roots = r
	return &cp
}

// Roots returns the symbolic roots used by s.
func (s *Schema[T]) Roots() paths.Roots {
	return s.roots
}

// Defaults returns a deep copy of the Default Tree.
func (s *Schema[T]) Defaults() *T {
	return s.Clone(s.defaults)
}

// Clone returns a deep copy of t. A nil t yields an empty tree.
func (s *Schema[T]) Clone(t *T) *T {
	if t == nil {
		return new(T)
	}
	return cloneValue(reflect.ValueOf(t)).Interface().(*T)
}

// Merge returns a copy of loaded with every absent field filled from the
// Default Tree at the same path. Present records are merged recursively and
// each element of a present collection is merged against its template.
// Collections are never extended; see Grow.
func (s *Schema[T]) Merge(loaded *T) *T {
	out := s.Clone(loaded)
	s.mergeStruct(reflect.ValueOf(out).Elem(), reflect.ValueOf(s.defaults).Elem())
	return out
}

func (s *Schema[T]) mergeStruct(v, def reflect.Value) {
	for _, f := range fieldsOf(v.Type()) {
		fv := v.Field(f.index)
		dv := fieldOf(def, f.index)

		switch f.kind {
		case kindLeaf:
			if isAbsent(fv) && present(dv) {
				fv.Set(cloneValue(dv))
			}
		case kindRecord:
			if fv.IsNil() {
				if present(dv) {
					fv.Set(cloneValue(dv))
				}
				continue
			}
			s.mergeStruct(fv.Elem(), deref(dv))
		case kindInline:
			s.mergeStruct(fv, dv)
		case kindList:
			if fv.IsNil() {
				if present(dv) {
					fv.Set(cloneValue(dv))
				}
				continue
			}
			tmpl := s.templates[f.elem]
			for i := 0; i < fv.Len(); i++ {
				s.mergeStruct(fv.Index(i), tmpl)
			}
		}
	}
}

// Unmerge returns a copy of resolved with every field equal to its default
// cleared. Records are cleared field by field; a record collapses to absent
// only when nothing in it is left and its default exists. Collections keep
// their length and order unless the whole collection equals the default.
func (s *Schema[T]) Unmerge(resolved *T) *T {
	out := s.Clone(resolved)
	s.unmergeStruct(reflect.ValueOf(out).Elem(), reflect.ValueOf(s.defaults).Elem())
	return out
}

// unmergeStruct clears default-valued fields of v in place and reports
// whether v ended up bare: every optional field absent and every identity
// field equal to the default.
func (s *Schema[T]) unmergeStruct(v, def reflect.Value) bool {
	bare := true
	for _, f := range fieldsOf(v.Type()) {
		fv := v.Field(f.index)
		dv := fieldOf(def, f.index)

		switch f.kind {
		case kindRequired:
			if !dv.IsValid() || !s.equal(fv, dv) {
				bare = false
			}
		case kindLeaf:
			if isAbsent(fv) {
				continue
			}
			if s.equal(fv, orZero(dv, fv.Type())) {
				fv.Set(reflect.Zero(fv.Type()))
				continue
			}
			bare = false
		case kindRecord:
			if fv.IsNil() {
				continue
			}
			if s.unmergeStruct(fv.Elem(), deref(dv)) && present(dv) {
				fv.Set(reflect.Zero(fv.Type()))
				continue
			}
			bare = false
		case kindInline:
			if !s.unmergeStruct(fv, dv) {
				bare = false
			}
		case kindList:
			if fv.IsNil() {
				continue
			}
			tmpl := s.templates[f.elem]
			if s.equal(s.resolveList(fv, tmpl), orZero(dv, fv.Type())) {
				fv.Set(reflect.Zero(fv.Type()))
				continue
			}
			for i := 0; i < fv.Len(); i++ {
				s.unmergeStruct(fv.Index(i), tmpl)
			}
			bare = false
		}
	}
	return bare
}

// resolveList returns a copy of list with every element merged against tmpl.
func (s *Schema[T]) resolveList(list, tmpl reflect.Value) reflect.Value {
	out := cloneValue(list)
	for i := 0; i < out.Len(); i++ {
		s.mergeStruct(out.Index(i), tmpl)
	}
	return out
}

// Equal reports whether a and b are structurally equal. Path leaves compare
// by their canonical spelling, and nil slices and maps equal empty ones.
// A nil tree equals an empty tree.
func (s *Schema[T]) Equal(a, b *T) bool {
	if a == nil {
		a = new(T)
	}
	if b == nil {
		b = new(T)
	}
	return s.equal(reflect.ValueOf(a).Elem(), reflect.ValueOf(b).Elem())
}

// Redundant lists the dot paths of present fields whose value equals the
// default at the same path.
func (s *Schema[T]) Redundant(t *T) []string {
	if t == nil {
		return nil
	}
	var out []string
	s.redundantStruct(reflect.ValueOf(t).Elem(), reflect.ValueOf(s.defaults).Elem(), "", &out)
	return out
}

func (s *Schema[T]) redundantStruct(v, def reflect.Value, prefix string, out *[]string) {
	for _, f := range fieldsOf(v.Type()) {
		fv := v.Field(f.index)
		dv := fieldOf(def, f.index)
		key := joinKey(prefix, f.name)

		switch f.kind {
		case kindLeaf:
			if !isAbsent(fv) && s.equal(fv, orZero(dv, fv.Type())) {
				*out = append(*out, key)
			}
		case kindRecord:
			if !fv.IsNil() {
				s.redundantStruct(fv.Elem(), deref(dv), key, out)
			}
		case kindInline:
			s.redundantStruct(fv, dv, key, out)
		case kindList:
			if fv.IsNil() {
				continue
			}
			tmpl := s.templates[f.elem]
			if fv.Len() == 0 && s.equal(fv, orZero(dv, fv.Type())) {
				*out = append(*out, key)
				continue
			}
			for i := 0; i < fv.Len(); i++ {
				s.redundantStruct(fv.Index(i), tmpl, joinKey(key, strconv.Itoa(i)), out)
			}
		}
	}
}

// Expand returns a copy of t with every path leaf expanded to an absolute path.
func (s *Schema[T]) Expand(t *T) *T {
	out := s.Clone(t)
	rewritePaths(reflect.ValueOf(out).Elem(), s.roots.Expand)
	return out
}

// Resolve is the in-memory view of a loaded tree: Merge followed by Expand,
// so path leaves filled from the Default Tree are absolute like the loaded
// ones.
func (s *Schema[T]) Resolve(loaded *T) *T {
	out := s.Merge(loaded)
	rewritePaths(reflect.ValueOf(out).Elem(), s.roots.Expand)
	return out
}

// Collapse returns a copy of t with every path leaf rewritten to its
// symbolic form.
func (s *Schema[T]) Collapse(t *T) *T {
	out := s.Clone(t)
	rewritePaths(reflect.ValueOf(out).Elem(), func(p string) string {
		return s.roots.Canonical(p)
	})
	return out
}

// Grow makes sure the positional collection at key holds at least n
// entries. An absent collection is initialized with n template entries; a
// shorter one gets template entries appended at the tail. Existing entries
// are never touched, and a collection already holding n or more entries is
// left alone. Grow reports whether anything was added.
func (s *Schema[T]) Grow(t *T, key string, n int) (*T, bool, error) {
	out := s.Clone(t)

	fv, err := s.lookup(reflect.ValueOf(out).Elem(), key, false)
	if err != nil {
		return nil, false, err
	}
	ft := fv.Type()
	kind, elem := classify(ft)
	if kind != kindList {
		return nil, false, fmt.Errorf("%s is not a positional collection", key)
	}

	cur := 0
	if fv.CanSet() && !fv.IsNil() {
		cur = fv.Len()
	}
	if n <= cur {
		return out, false, nil
	}

	// Re-walk with allocation so intermediate absent records exist.
	fv, err = s.lookup(reflect.ValueOf(out).Elem(), key, true)
	if err != nil {
		return nil, false, err
	}
	tmpl := s.templates[elem]
	grown := reflect.MakeSlice(ft, 0, n)
	if !fv.IsNil() {
		grown = reflect.AppendSlice(grown, fv)
	}
	for i := cur; i < n; i++ {
		grown = reflect.Append(grown, cloneValue(tmpl))
	}
	fv.Set(grown)
	return out, true, nil
}

func orZero(v reflect.Value, t reflect.Type) reflect.Value {
	if v.IsValid() {
		return v
	}
	return reflect.Zero(t)
}

func joinKey(prefix, name string) string {
	if prefix == "" {
		return name
	}
	return prefix + "." + name
}
