// Copyright 2026 Tamás Gulácsi.
//
// SPDX-License-Identifier: Apache-2.0

package obj2sheet

import (
	"cmp"
	"database/sql/driver"
	"encoding"
	"encoding/hex"
	"fmt"
	"reflect"
	"slices"
	"time"
	"unicode/utf8"
	"unsafe"
)

// writeHeader writes the two header rows of the sheet: the column names
// and, under them, the declared types.
func (p *Printer) writeHeader(sh *sheet) error {
	if err := p.set(sh, 0, 0, "ID "+sh.name, RoleIdentity); err != nil {
		return err
	}
	col := 1
	for _, f := range sh.fields {
		if f.Map {
			if err := p.set(sh, 0, col, f.Name+" keys", RoleHeader); err != nil {
				return err
			}
			if err := p.set(sh, 0, col+1, f.Name+" values", RoleHeader); err != nil {
				return err
			}
			col += 2
			continue
		}
		if err := p.set(sh, 0, col, f.Name, RoleHeader); err != nil {
			return err
		}
		if err := p.set(sh, 1, col, f.Type, RoleHeader); err != nil {
			return err
		}
		col++
	}
	sh.row, sh.header = 2, true
	return nil
}

// write writes the row of the record, and marks it printed.
// Nested objects are only registered and queued, never written here.
func (p *Printer) write(rec *record) error {
	sh := rec.sheet
	if !sh.header {
		if err := p.writeHeader(sh); err != nil {
			return err
		}
	}
	row := sh.row
	if err := p.set(sh, row, 0, rec.id, RoleIdentity); err != nil {
		return err
	}
	last, col := row, 1
	for _, f := range sh.fields {
		width := 1
		if f.Map {
			width = 2
		}
		v, err := f.get(rec.value)
		if err != nil {
			p.fieldFailed(rec, f.Name, err)
			col += width
			continue
		}
		l, err := p.flatten(rec, f.Name, row, col, v, f.Map)
		if err != nil {
			return err
		}
		last = max(last, l)
		col += width
	}
	sh.row = last + 1
	rec.state = statePrinted
	return nil
}

// flatten writes v starting at (row, col), and returns the last row touched.
// Slices and maps run downwards, maps across two columns when inMapColumn.
func (p *Printer) flatten(rec *record, field string, row, col int, v any, inMapColumn bool) (int, error) {
	if v == nil {
		return row, nil
	}
	rv := reflect.ValueOf(v)
	val, role, ok, err := scalar(rv)
	if err != nil {
		p.fieldFailed(rec, field, err)
		return row, nil
	}
	if ok {
		if val == nil {
			return row, nil
		}
		return row, p.set(rec.sheet, row, col, val, role)
	}

	if k := rv.Kind(); k == reflect.Slice || (k == reflect.Pointer && !isRecordType(rv.Type().Elem())) {
		key, ok := p.enter(rv)
		if !ok {
			p.fieldFailed(rec, field, fmt.Errorf("%w: cyclic %s", ErrUnsupportedValue, rv.Type()))
			return row, nil
		}
		defer delete(p.expanding, key)
	}

	switch rv.Kind() {
	case reflect.Pointer:
		if isRecordType(rv.Type().Elem()) {
			return row, p.setRef(rec.sheet, row, col, rv)
		}
		return p.flatten(rec, field, row, col, rv.Elem().Interface(), inMapColumn)

	case reflect.Struct:
		return row, p.setRef(rec.sheet, row, col, rv)

	case reflect.Slice, reflect.Array:
		next := row
		for i := range rv.Len() {
			l, err := p.flatten(rec, field, next, col, rv.Index(i).Interface(), false)
			if err != nil {
				return row, err
			}
			next = l + 1
		}
		return max(row, next-1), nil

	case reflect.Map:
		if !inMapColumn {
			return row, p.setRef(rec.sheet, row, col, reflect.ValueOf(p.mapRecord(rv)))
		}
		next := row
		for _, k := range sortedKeys(rv) {
			lk, err := p.flatten(rec, field, next, col, k.Interface(), false)
			if err != nil {
				return row, err
			}
			lv, err := p.flatten(rec, field, next, col+1, rv.MapIndex(k).Interface(), false)
			if err != nil {
				return row, err
			}
			next = max(lk, lv) + 1
		}
		return max(row, next-1), nil
	}

	p.fieldFailed(rec, field, fmt.Errorf("%w: %s", ErrUnsupportedValue, rv.Type()))
	return row, nil
}

// expansion is a slice or a pointer being flattened on the current path.
type expansion struct {
	typ reflect.Type
	ptr unsafe.Pointer
	len int
}

// enter marks rv as being flattened, and reports false if it already is.
func (p *Printer) enter(rv reflect.Value) (expansion, bool) {
	key := expansion{typ: rv.Type(), ptr: rv.UnsafePointer()}
	if rv.Kind() == reflect.Slice {
		key.len = rv.Len()
	}
	if p.expanding[key] {
		return key, false
	}
	p.expanding[key] = true
	return key, true
}

// setRef registers the nested object and writes its identifier.
func (p *Printer) setRef(sh *sheet, row, col int, rv reflect.Value) error {
	id, err := p.ref(rv)
	if err != nil {
		return err
	}
	return p.set(sh, row, col, id, RoleIdentity)
}

func (p *Printer) set(sh *sheet, row, col int, value any, role Role) error {
	if err := sh.cells.SetCell(row, col, value, role); err != nil {
		return fmt.Errorf("%s[%d,%d]: %w", sh.name, row, col, err)
	}
	return nil
}

func (p *Printer) fieldFailed(rec *record, field string, err error) {
	p.logger.Warn("read field", "sheet", rec.sheet.name, "id", rec.id, "field", field, "error", err)
}

// scalar returns the cell value of rv, and whether rv is rendered as
// a single cell at all. A nil value means a blank cell.
func scalar(rv reflect.Value) (any, Role, bool, error) {
	switch rv.Kind() {
	case reflect.Pointer, reflect.Interface, reflect.Map, reflect.Slice:
		if rv.IsNil() {
			return nil, RoleNone, true, nil
		}
	}
	typ := rv.Type()
	if typ.Kind() == reflect.Pointer && typ.Elem().Kind() == reflect.Struct && isScalarType(typ.Elem()) {
		return scalar(rv.Elem())
	}
	if typ == timeType {
		t := rv.Interface().(time.Time)
		if t.IsZero() {
			return nil, RoleNone, true, nil
		}
		return t, RoleDate, true, nil
	}
	if rv.CanInterface() {
		switch x := rv.Interface().(type) {
		case driver.Valuer:
			v, err := x.Value()
			if err != nil || v == nil {
				return nil, RoleNone, true, err
			}
			return scalar(reflect.ValueOf(v))
		case encoding.TextMarshaler:
			b, err := x.MarshalText()
			if err != nil {
				return nil, RoleNone, true, err
			}
			return string(b), RoleNone, true, nil
		case fmt.Stringer:
			if isBasicKind(typ.Kind()) {
				return x.String(), RoleNone, true, nil
			}
		}
		if typ.Kind() == reflect.Struct && reflect.PointerTo(typ).Implements(textMarshalerType) {
			pv := reflect.New(typ)
			pv.Elem().Set(rv)
			return scalar(pv)
		}
	}

	switch k := typ.Kind(); {
	case k == reflect.Bool:
		return rv.Bool(), RoleNone, true, nil
	case reflect.Int <= k && k <= reflect.Int64:
		return rv.Int(), RoleNone, true, nil
	case reflect.Uint <= k && k <= reflect.Uintptr:
		return rv.Uint(), RoleNone, true, nil
	case k == reflect.Float32 || k == reflect.Float64:
		return rv.Float(), RoleNone, true, nil
	case k == reflect.Complex64 || k == reflect.Complex128:
		return fmt.Sprint(rv.Complex()), RoleNone, true, nil
	case k == reflect.String:
		return rv.String(), RoleNone, true, nil
	case k == reflect.Slice && typ.Elem().Kind() == reflect.Uint8:
		b := rv.Bytes()
		if utf8.Valid(b) {
			return string(b), RoleNone, true, nil
		}
		return hex.EncodeToString(b), RoleNone, true, nil
	}
	return nil, RoleNone, false, nil
}

func isBasicKind(k reflect.Kind) bool {
	return k == reflect.Bool || k == reflect.String ||
		(reflect.Int <= k && k <= reflect.Complex128)
}

// isRecordType reports whether values of typ get a row of their own.
func isRecordType(typ reflect.Type) bool {
	return typ.Kind() == reflect.Struct && !isScalarType(typ)
}

// MapRecord wraps a map that is not in a map-typed field,
// so that it gets a sheet of its own.
type MapRecord struct {
	Map map[any]any `sheet:"map"`

	src any
}

// mapRecord returns the wrapper of the map: the same one for the same map,
// so shared and self-containing maps are printed once.
func (p *Printer) mapRecord(rv reflect.Value) *MapRecord {
	ptr := rv.UnsafePointer()
	if mr, ok := p.maps[ptr]; ok {
		return mr
	}
	m := make(map[any]any, rv.Len())
	iter := rv.MapRange()
	for iter.Next() {
		m[iter.Key().Interface()] = iter.Value().Interface()
	}
	mr := &MapRecord{Map: m, src: rv.Interface()}
	p.maps[ptr] = mr
	return mr
}

// sortedKeys returns the keys of the map in a deterministic order.
func sortedKeys(rv reflect.Value) []reflect.Value {
	keys := rv.MapKeys()
	slices.SortFunc(keys, compareKeys)
	return keys
}

func compareKeys(a, b reflect.Value) int {
	if a.Kind() == reflect.Interface {
		a = a.Elem()
	}
	if b.Kind() == reflect.Interface {
		b = b.Elem()
	}
	if a.Kind() != b.Kind() {
		return cmp.Compare(a.Kind(), b.Kind())
	}
	switch k := a.Kind(); {
	case k == reflect.String:
		return cmp.Compare(a.String(), b.String())
	case reflect.Int <= k && k <= reflect.Int64:
		return cmp.Compare(a.Int(), b.Int())
	case reflect.Uint <= k && k <= reflect.Uintptr:
		return cmp.Compare(a.Uint(), b.Uint())
	case k == reflect.Float32 || k == reflect.Float64:
		return cmp.Compare(a.Float(), b.Float())
	case k == reflect.Bool:
		if a.Bool() == b.Bool() {
			return 0
		} else if a.Bool() {
			return 1
		}
		return -1
	}
	return cmp.Compare(fmt.Sprint(a), fmt.Sprint(b))
}
