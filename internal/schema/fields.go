package schema

import (
	"reflect"
	"strings"
	"sync"

	"github.com/randalmurphal/tilecfg/internal/paths"
)

// nodeKind classifies a struct field for the tree walk.
type nodeKind int

const (
	// kindRequired is a non-nillable value: always present, never filled or cleared.
	kindRequired nodeKind = iota
	// kindLeaf is an optional value compared and substituted wholesale.
	kindLeaf
	// kindRecord is an optional nested record (*S).
	kindRecord
	// kindInline is an always-present nested record (S).
	kindInline
	// kindList is a positional collection of records ([]S).
	kindList
)

func (k nodeKind) String() string {
	switch k {
	case kindRequired:
		return "required"
	case kindLeaf:
		return "leaf"
	case kindRecord:
		return "record"
	case kindInline:
		return "inline"
	case kindList:
		return "list"
	default:
		return "unknown"
	}
}

// field is the cached description of one exported struct field.
type field struct {
	index int
	name  string // yaml key
	kind  nodeKind
	elem  reflect.Type // record type for kindRecord/kindInline/kindList
}

var (
	pathType = reflect.TypeOf(paths.Path(""))

	fieldCacheMu sync.RWMutex
	fieldCache   = make(map[reflect.Type][]field)
)

// fieldsOf returns the classified exported fields of struct type t.
func fieldsOf(t reflect.Type) []field {
	fieldCacheMu.RLock()
	fs, ok := fieldCache[t]
	fieldCacheMu.RUnlock()
	if ok {
		return fs
	}

	fs = make([]field, 0, t.NumField())
	for i := 0; i < t.NumField(); i++ {
		sf := t.Field(i)
		if !sf.IsExported() {
			continue
		}
		name := yamlName(sf)
		if name == "-" {
			continue
		}
		f := field{index: i, name: name}
		f.kind, f.elem = classify(sf.Type)
		fs = append(fs, f)
	}

	fieldCacheMu.Lock()
	fieldCache[t] = fs
	fieldCacheMu.Unlock()
	return fs
}

// classify decides how the walk treats a field of type t.
func classify(t reflect.Type) (nodeKind, reflect.Type) {
	switch t.Kind() {
	case reflect.Ptr:
		if isRecord(t.Elem()) {
			return kindRecord, t.Elem()
		}
		return kindLeaf, nil
	case reflect.Slice:
		if isRecord(t.Elem()) {
			return kindList, t.Elem()
		}
		return kindLeaf, nil
	case reflect.Map, reflect.Interface:
		return kindLeaf, nil
	case reflect.Struct:
		if isRecord(t) {
			return kindInline, t
		}
		return kindRequired, nil
	default:
		return kindRequired, nil
	}
}

// isRecord reports whether t is a struct with at least one optional field.
// Structs made only of plain values (a Rect of four ints) are treated as
// single leaf values.
func isRecord(t reflect.Type) bool {
	if t.Kind() != reflect.Struct {
		return false
	}
	for i := 0; i < t.NumField(); i++ {
		sf := t.Field(i)
		if !sf.IsExported() {
			continue
		}
		switch sf.Type.Kind() {
		case reflect.Ptr, reflect.Slice, reflect.Map, reflect.Interface:
			return true
		}
	}
	return false
}

// yamlName returns the yaml key for a struct field.
func yamlName(sf reflect.StructField) string {
	tag := sf.Tag.Get("yaml")
	if tag != "" {
		name := strings.Split(tag, ",")[0]
		if name != "" {
			return name
		}
	}
	return strings.ToLower(sf.Name)
}

// isAbsent reports whether an optional value is unset.
func isAbsent(v reflect.Value) bool {
	switch v.Kind() {
	case reflect.Ptr, reflect.Slice, reflect.Map, reflect.Interface:
		return v.IsNil()
	default:
		return false
	}
}

// present reports whether v is a valid, non-nil value.
func present(v reflect.Value) bool {
	return v.IsValid() && !isAbsent(v)
}

// fieldOf returns def's field at index i, or the zero Value when def is not
// a valid struct.
func fieldOf(def reflect.Value, i int) reflect.Value {
	if !def.IsValid() {
		return reflect.Value{}
	}
	return def.Field(i)
}

// deref returns the pointed-to struct of a present record pointer, or the
// zero Value.
func deref(v reflect.Value) reflect.Value {
	if !present(v) {
		return reflect.Value{}
	}
	return v.Elem()
}
