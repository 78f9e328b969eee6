package schema

import (
	"fmt"
	"reflect"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	tcerrors "github.com/randalmurphal/tilecfg/internal/errors"
)

// Value returns the value at a dot-separated key (e.g.
// "monitors.0.workspaces.1.layout"). Pointers are dereferenced; an absent
// value returns nil.
func (s *Schema[T]) Value(t *T, key string) (any, error) {
	if t == nil {
		t = new(T)
	}
	v, err := s.lookup(reflect.ValueOf(t).Elem(), key, false)
	if err != nil {
		return nil, err
	}
	if isAbsent(v) {
		return nil, nil
	}
	if v.Kind() == reflect.Ptr {
		v = v.Elem()
	}
	return v.Interface(), nil
}

// Set returns a copy of t with the value at key replaced. The value is
// parsed as YAML into the field's type, so "8", "true", "[a, b]" and
// "{left: 1, top: 2}" all work. Absent records along the way are created.
func (s *Schema[T]) Set(t *T, key, value string) (*T, error) {
	out := s.Clone(t)
	fv, err := s.lookup(reflect.ValueOf(out).Elem(), key, true)
	if err != nil {
		return nil, err
	}

	ptr := reflect.New(fv.Type())
	if err := yaml.Unmarshal([]byte(value), ptr.Interface()); err != nil {
		return nil, tcerrors.ErrInvalidValue(key, value, err)
	}
	parsed := ptr.Elem()
	rewritePaths(parsed, s.roots.Expand)
	fv.Set(parsed)
	return out, nil
}

// Unset returns a copy of t with the optional value at key cleared, so it
// resolves to its default again.
func (s *Schema[T]) Unset(t *T, key string) (*T, error) {
	out := s.Clone(t)
	fv, err := s.lookup(reflect.ValueOf(out).Elem(), key, false)
	if err != nil {
		return nil, err
	}
	switch fv.Kind() {
	case reflect.Ptr, reflect.Slice, reflect.Map, reflect.Interface:
	default:
		return nil, tcerrors.ErrInvalidKey(key, "required fields cannot be unset")
	}
	if fv.CanSet() {
		fv.Set(reflect.Zero(fv.Type()))
	}
	return out, nil
}

// lookup traverses v by dot-separated key. Struct fields are matched by yaml
// tag or case-insensitive field name; list elements by index. With alloc,
// absent records along the way are created so the result is settable.
// Without alloc, an absent record is read as its zero value.
func (s *Schema[T]) lookup(v reflect.Value, key string, alloc bool) (reflect.Value, error) {
	if key == "" {
		return reflect.Value{}, tcerrors.ErrInvalidKey(key, "empty key")
	}

	parts := strings.Split(key, ".")
	for i, part := range parts {
		for v.Kind() == reflect.Ptr {
			if v.IsNil() {
				if alloc && v.CanSet() {
					v.Set(reflect.New(v.Type().Elem()))
				} else {
					v = reflect.New(v.Type().Elem())
				}
			}
			v = v.Elem()
		}

		switch v.Kind() {
		case reflect.Struct:
			f, ok := findField(v.Type(), part)
			if !ok {
				return reflect.Value{}, tcerrors.ErrInvalidKey(key, fmt.Sprintf("unknown field %q", part))
			}
			v = v.Field(f.index)
		case reflect.Slice:
			idx, err := strconv.Atoi(part)
			if err != nil || idx < 0 {
				return reflect.Value{}, tcerrors.ErrInvalidKey(key, fmt.Sprintf("%q is not a list index", part))
			}
			if idx >= v.Len() {
				return reflect.Value{}, tcerrors.ErrInvalidKey(key,
					fmt.Sprintf("index %d out of range for %s (length %d)", idx, strings.Join(parts[:i], "."), v.Len()))
			}
			v = v.Index(idx)
		default:
			return reflect.Value{}, tcerrors.ErrInvalidKey(key,
				fmt.Sprintf("%s has no nested fields", strings.Join(parts[:i], ".")))
		}
	}
	return v, nil
}

// findField finds a struct field by its yaml tag or name.
func findField(t reflect.Type, name string) (field, bool) {
	for _, f := range fieldsOf(t) {
		if f.name == name {
			return f, true
		}
	}
	for _, f := range fieldsOf(t) {
		if strings.EqualFold(t.Field(f.index).Name, name) {
			return f, true
		}
	}
	return field{}, false
}

// Keys returns every leaf key of the schema in declaration order, using "N"
// as the placeholder for list indices (e.g. "monitors.N.workspaces.N.layout").
func (s *Schema[T]) Keys() []string {
	var out []string
	collectKeys(reflect.TypeOf(s.defaults).Elem(), "", &out, make(map[reflect.Type]bool))
	return out
}

func collectKeys(t reflect.Type, prefix string, out *[]string, seen map[reflect.Type]bool) {
	if seen[t] {
		return
	}
	seen[t] = true
	defer delete(seen, t)

	for _, f := range fieldsOf(t) {
		key := joinKey(prefix, f.name)
		switch f.kind {
		case kindRecord, kindInline:
			collectKeys(f.elem, key, out, seen)
		case kindList:
			collectKeys(f.elem, key+".N", out, seen)
		default:
			*out = append(*out, key)
		}
	}
}
