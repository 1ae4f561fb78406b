// Copyright 2026 Tamás Gulácsi.
//
// SPDX-License-Identifier: Apache-2.0

package obj2sheet

import (
	"cmp"
	"encoding"
	"fmt"
	"reflect"
	"slices"
	"time"
)

// Field describes one column (or column pair, for maps) of a record type.
type Field struct {
	// Name is the header of the column.
	Name string
	// Type is the declared type, printed under the header.
	Type string
	// Map fields occupy two columns: keys and values.
	Map bool

	depth int
	get   func(reflect.Value) (any, error)
}

// Accessor declares one column of T without reflection.
type Accessor[T any] struct {
	Name, Type string
	Map        bool
	Get        func(T) (any, error)
}

// schema caches the field lists of record types.
type schema struct {
	explicit map[reflect.Type][]Field
	cache    map[reflect.Type][]Field
}

func newSchema() *schema {
	return &schema{
		explicit: make(map[reflect.Type][]Field),
		cache:    make(map[reflect.Type][]Field),
	}
}

func register[T any](s *schema, accessors []Accessor[T]) {
	typ := reflect.TypeFor[T]()
	fields := make([]Field, 0, len(accessors))
	for _, a := range accessors {
		get := a.Get
		fields = append(fields, Field{
			Name: a.Name, Type: a.Type, Map: a.Map,
			get: func(rv reflect.Value) (any, error) {
				t, err := convertTo[T](rv, typ)
				if err != nil {
					return nil, err
				}
				return get(t)
			},
		})
	}
	sortFields(fields)
	key := typ
	if key.Kind() == reflect.Pointer {
		key = key.Elem()
	}
	s.explicit[key] = fields
}

// convertTo returns rv as a T, taking or dropping one level of pointer.
func convertTo[T any](rv reflect.Value, typ reflect.Type) (T, error) {
	var zero T
	switch {
	case rv.Type() == typ:
	case rv.Kind() == reflect.Pointer && rv.Type().Elem() == typ:
		if rv.IsNil() {
			return zero, fmt.Errorf("nil %s", rv.Type())
		}
		rv = rv.Elem()
	case typ.Kind() == reflect.Pointer && rv.Type() == typ.Elem() && rv.CanAddr():
		rv = rv.Addr()
	default:
		return zero, fmt.Errorf("%s is not %s", rv.Type(), typ)
	}
	return rv.Interface().(T), nil
}

// fieldsOf returns the cached fields of the (non-pointer) record type.
func (s *schema) fieldsOf(typ reflect.Type) []Field {
	if fields, ok := s.explicit[typ]; ok {
		return fields
	}
	if fields, ok := s.cache[typ]; ok {
		return fields
	}
	var fields []Field
	if typ.Kind() == reflect.Struct {
		fields = structFields(typ, nil, 0, fields, map[reflect.Type]bool{typ: true})
	}
	sortFields(fields)
	s.cache[typ] = fields
	return fields
}

func sortFields(fields []Field) {
	slices.SortStableFunc(fields, func(a, b Field) int {
		if c := cmp.Compare(a.Name, b.Name); c != 0 {
			return c
		}
		return cmp.Compare(a.depth, b.depth)
	})
}

// structFields collects the exported fields of typ, then those of its
// embedded structs. Embedded types already on the path are skipped.
func structFields(typ reflect.Type, index []int, depth int, fields []Field, path map[reflect.Type]bool) []Field {
	var embedded []reflect.StructField
	for i := range typ.NumField() {
		sf := typ.Field(i)
		tag := sf.Tag.Get("sheet")
		if tag == "-" {
			continue
		}
		if sf.Anonymous && tag == "" {
			ft := sf.Type
			if ft.Kind() == reflect.Pointer {
				ft = ft.Elem()
			}
			if ft.Kind() == reflect.Struct && !isScalarType(ft) {
				embedded = append(embedded, sf)
				continue
			}
		}
		if !sf.IsExported() {
			continue
		}
		name := sf.Name
		if tag != "" {
			name = tag
		}
		idx := append(slices.Clip(index), i)
		fields = append(fields, Field{
			Name: name, Type: sf.Type.String(),
			Map:   sf.Type.Kind() == reflect.Map,
			depth: depth,
			get: func(rv reflect.Value) (any, error) {
				if rv.Kind() == reflect.Pointer {
					rv = rv.Elem()
				}
				fv, err := rv.FieldByIndexErr(idx)
				if err != nil {
					return nil, err
				}
				if !fv.CanInterface() {
					return nil, fmt.Errorf("%s: unexported", name)
				}
				return fv.Interface(), nil
			},
		})
	}
	for _, sf := range embedded {
		ft := sf.Type
		if ft.Kind() == reflect.Pointer {
			ft = ft.Elem()
		}
		if path[ft] {
			continue
		}
		path[ft] = true
		fields = structFields(ft, append(slices.Clip(index), sf.Index...), depth+1, fields, path)
		delete(path, ft)
	}
	return fields
}

var (
	timeType          = reflect.TypeFor[time.Time]()
	textMarshalerType = reflect.TypeFor[encoding.TextMarshaler]()
)

// isScalarType reports whether a struct type is rendered as one cell.
func isScalarType(typ reflect.Type) bool {
	return typ == timeType ||
		typ.Implements(textMarshalerType) ||
		reflect.PointerTo(typ).Implements(textMarshalerType)
}
