package schema

import (
	"reflect"
)

// cloneValue returns a deep copy of v. Unexported struct fields are copied
// shallowly.
func cloneValue(v reflect.Value) reflect.Value {
	switch v.Kind() {
	case reflect.Ptr:
		if v.IsNil() {
			return reflect.Zero(v.Type())
		}
		out := reflect.New(v.Type().Elem())
		out.Elem().Set(cloneValue(v.Elem()))
		return out
	case reflect.Slice:
		if v.IsNil() {
			return reflect.Zero(v.Type())
		}
		out := reflect.MakeSlice(v.Type(), v.Len(), v.Len())
		for i := 0; i < v.Len(); i++ {
			out.Index(i).Set(cloneValue(v.Index(i)))
		}
		return out
	case reflect.Map:
		if v.IsNil() {
			return reflect.Zero(v.Type())
		}
		out := reflect.MakeMapWithSize(v.Type(), v.Len())
		iter := v.MapRange()
		for iter.Next() {
			out.SetMapIndex(cloneValue(iter.Key()), cloneValue(iter.Value()))
		}
		return out
	case reflect.Struct:
		out := reflect.New(v.Type()).Elem()
		out.Set(v)
		t := v.Type()
		for i := 0; i < t.NumField(); i++ {
			if t.Field(i).IsExported() {
				out.Field(i).Set(cloneValue(v.Field(i)))
			}
		}
		return out
	case reflect.Interface:
		if v.IsNil() {
			return reflect.Zero(v.Type())
		}
		out := reflect.New(v.Type()).Elem()
		out.Set(cloneValue(v.Elem()))
		return out
	default:
		return v
	}
}

// equal compares a and b structurally. Path leaves compare canonically and
// nil slices and maps equal empty ones.
func (s *Schema[T]) equal(a, b reflect.Value) bool {
	if !a.IsValid() || !b.IsValid() {
		return a.IsValid() == b.IsValid()
	}
	if a.Type() != b.Type() {
		return false
	}
	if a.Type() == pathType {
		return s.roots.Canonical(a.String()) == s.roots.Canonical(b.String())
	}

	switch a.Kind() {
	case reflect.Ptr:
		if a.IsNil() || b.IsNil() {
			return a.IsNil() && b.IsNil()
		}
		return s.equal(a.Elem(), b.Elem())
	case reflect.Interface:
		if a.IsNil() || b.IsNil() {
			return a.IsNil() && b.IsNil()
		}
		return s.equal(a.Elem(), b.Elem())
	case reflect.Slice, reflect.Array:
		if a.Len() != b.Len() {
			return false
		}
		for i := 0; i < a.Len(); i++ {
			if !s.equal(a.Index(i), b.Index(i)) {
				return false
			}
		}
		return true
	case reflect.Map:
		if a.Len() != b.Len() {
			return false
		}
		iter := a.MapRange()
		for iter.Next() {
			bv := b.MapIndex(iter.Key())
			if !bv.IsValid() || !s.equal(iter.Value(), bv) {
				return false
			}
		}
		return true
	case reflect.Struct:
		t := a.Type()
		if hasUnexported(t) {
			return reflect.DeepEqual(a.Interface(), b.Interface())
		}
		for i := 0; i < t.NumField(); i++ {
			if !s.equal(a.Field(i), b.Field(i)) {
				return false
			}
		}
		return true
	default:
		return reflect.DeepEqual(a.Interface(), b.Interface())
	}
}

func hasUnexported(t reflect.Type) bool {
	for i := 0; i < t.NumField(); i++ {
		if !t.Field(i).IsExported() {
			return true
		}
	}
	return false
}

// rewritePaths applies fn to every path leaf reachable from the addressable
// value v.
func rewritePaths(v reflect.Value, fn func(string) string) {
	if v.Type() == pathType {
		if v.CanSet() {
			v.SetString(fn(v.String()))
		}
		return
	}

	switch v.Kind() {
	case reflect.Ptr:
		if !v.IsNil() {
			rewritePaths(v.Elem(), fn)
		}
	case reflect.Slice, reflect.Array:
		for i := 0; i < v.Len(); i++ {
			rewritePaths(v.Index(i), fn)
		}
	case reflect.Map:
		if v.IsNil() || !containsPath(v.Type().Elem(), make(map[reflect.Type]bool)) {
			return
		}
		for _, k := range v.MapKeys() {
			elem := reflect.New(v.Type().Elem()).Elem()
			elem.Set(cloneValue(v.MapIndex(k)))
			rewritePaths(elem, fn)
			v.SetMapIndex(k, elem)
		}
	case reflect.Struct:
		t := v.Type()
		for i := 0; i < t.NumField(); i++ {
			if t.Field(i).IsExported() {
				rewritePaths(v.Field(i), fn)
			}
		}
	}
}

// containsPath reports whether values of type t can hold a path leaf.
func containsPath(t reflect.Type, seen map[reflect.Type]bool) bool {
	if t == pathType {
		return true
	}
	if seen[t] {
		return false
	}
	seen[t] = true

	switch t.Kind() {
	case reflect.Ptr, reflect.Slice, reflect.Array, reflect.Map:
		return containsPath(t.Elem(), seen)
	case reflect.Struct:
		for i := 0; i < t.NumField(); i++ {
			if t.Field(i).IsExported() && containsPath(t.Field(i).Type, seen) {
				return true
			}
		}
	}
	return false
}
