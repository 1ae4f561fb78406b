// Copyright 2026 Tamás Gulácsi.
//
// SPDX-License-Identifier: Apache-2.0

package obj2sheet

import (
	"reflect"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"
)

// MaxSheetNameLength leaves room for a "~N" suffix under the
// 31 character limit of spreadsheet applications.
const MaxSheetNameLength = 28

// sheet is the printer's bookkeeping for one sheet of the sink.
type sheet struct {
	cells  CellSheet
	typ    reflect.Type
	name   string
	fields []Field
	queue  []handle
	row    int
	count  int
	header bool
}

type router struct {
	sink   Sink
	byType map[reflect.Type]*sheet
	byName map[string]*sheet
	sheets []*sheet
}

func newRouter(sink Sink) *router {
	return &router{
		sink:   sink,
		byType: make(map[reflect.Type]*sheet),
		byName: make(map[string]*sheet),
	}
}

// route returns the sheet of the (non-pointer) record type,
// creating it on first use.
func (r *router) route(typ reflect.Type) (*sheet, error) {
	if sh, ok := r.byType[typ]; ok {
		return sh, nil
	}
	base := displayName(typ)
	name := base
	for i := 1; r.byName[strings.ToLower(name)] != nil; i++ {
		name = base + "~" + strconv.Itoa(i)
	}
	cells, err := r.sink.Sheet(name)
	if err != nil {
		return nil, err
	}
	sh := &sheet{cells: cells, typ: typ, name: name}
	r.byType[typ] = sh
	r.byName[strings.ToLower(name)] = sh
	r.sheets = append(r.sheets, sh)
	return sh, nil
}

// displayName is the humanized, truncated name of the type.
// Anonymous structs take the name of their first embedded named type.
func displayName(typ reflect.Type) string {
	name := typ.Name()
	if name == "" && typ.Kind() == reflect.Struct {
		for i := range typ.NumField() {
			sf := typ.Field(i)
			if !sf.Anonymous {
				continue
			}
			ft := sf.Type
			if ft.Kind() == reflect.Pointer {
				ft = ft.Elem()
			}
			if ft.Name() != "" {
				name = ft.Name()
				break
			}
		}
	}
	if i := strings.IndexByte(name, '['); i >= 0 {
		name = name[:i]
	}
	if name == "" {
		name = "Record"
	}
	name = Humanize(name)
	if utf8.RuneCountInString(name) > MaxSheetNameLength {
		name = strings.TrimSpace(string([]rune(name)[:MaxSheetNameLength]))
	}
	return name
}

// Humanize inserts a space before every word starting with an uppercase
// letter: "HelloWorld" -> "Hello World", "HTTPServer" -> "HTTP Server".
func Humanize(s string) string {
	rs := []rune(s)
	var buf strings.Builder
	buf.Grow(len(s) + 4)
	for i, r := range rs {
		if i > 0 && unicode.IsUpper(r) {
			prev := rs[i-1]
			nextLower := i+1 < len(rs) && unicode.IsLower(rs[i+1])
			if unicode.IsLower(prev) || unicode.IsDigit(prev) ||
				(unicode.IsUpper(prev) && nextLower) {
				buf.WriteByte(' ')
			}
		}
		if r == '_' {
			r = ' '
		}
		buf.WriteRune(r)
	}
	return strings.Join(strings.Fields(buf.String()), " ")
}
