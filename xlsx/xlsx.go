// Copyright 2020, 2023, 2026 Tamás Gulácsi.
//
// SPDX-License-Identifier: Apache-2.0

// Package xlsx is an obj2sheet.Sink writing Office Open XML workbooks.
package xlsx

import (
	"database/sql/driver"
	"fmt"
	"io"
	"strconv"
	"sync"
	"time"

	"github.com/UNO-SOFT/obj2sheet"
	"github.com/mattn/go-runewidth"
	"github.com/xuri/excelize/v2"
)

var (
	_ = (obj2sheet.Sink)((*Sink)(nil))
	_ = (obj2sheet.CellSheet)((*Sheet)(nil))
)

// MaxRowCount is the number of maximum rows.
const MaxRowCount = 1_048_576

// Column widths are kept between these, in characters.
const (
	minColWidth = 6
	maxColWidth = 80
)

type Sink struct {
	xl     *excelize.File
	styles map[obj2sheet.Style]int
	sheets map[string]*Sheet
	order  []*Sheet
	mu     sync.Mutex
}

type Sheet struct {
	sink   *Sink
	Name   string
	widths []int
	last   int
}

// NewSink returns a new obj2sheet.Sink.
//
// This sink allows concurrent writes to separate sheets.
//
// This sink collects everything in memory, so big sheets may impose problems.
func NewSink() *Sink {
	return &Sink{xl: excelize.NewFile(), sheets: make(map[string]*Sheet)}
}

// Sheet returns the named sheet, creating it if needed.
func (s *Sink) Sheet(name string) (obj2sheet.CellSheet, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if sh, ok := s.sheets[name]; ok {
		return sh, nil
	}
	if s.xl == nil {
		return nil, fmt.Errorf("%s: sink is finalized", name)
	}
	if len(s.order) == 0 { // first
		if err := s.xl.SetSheetName("Sheet1", name); err != nil {
			return nil, fmt.Errorf("%s: %w", name, err)
		}
	} else if _, err := s.xl.NewSheet(name); err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	sh := &Sheet{sink: s, Name: name, last: -1}
	s.sheets[name] = sh
	s.order = append(s.order, sh)
	return sh, nil
}

// Finalize sets the column widths and writes the workbook to w.
// The sink cannot be used afterwards.
func (s *Sink) Finalize(w io.Writer) error {
	if s == nil {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	xl := s.xl
	s.xl = nil
	if xl == nil {
		return nil
	}
	for _, sh := range s.order {
		for i, width := range sh.widths {
			if width == 0 {
				continue
			}
			col, err := excelize.ColumnNumberToName(i + 1)
			if err != nil {
				return err
			}
			width = min(max(width+2, minColWidth), maxColWidth)
			if err = xl.SetColWidth(sh.Name, col, col, float64(width)); err != nil {
				return fmt.Errorf("%s[%s]: %w", sh.Name, col, err)
			}
		}
	}
	_, err := xl.WriteTo(w)
	return err
}

func (s *Sink) getStyle(style obj2sheet.Style) (int, error) {
	if style.IsZero() {
		return 0, nil
	}
	if st, ok := s.styles[style]; ok {
		return st, nil
	}
	var st excelize.Style
	if style.FontBold {
		st.Font = &excelize.Font{Bold: true}
	}
	if style.Fill != "" {
		st.Fill = excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{style.Fill}}
	}
	if style.Format != "" {
		st.CustomNumFmt = &style.Format
	}
	id, err := s.xl.NewStyle(&st)
	if err != nil {
		return 0, err
	}
	if s.styles == nil {
		s.styles = make(map[obj2sheet.Style]int)
	}
	s.styles[style] = id
	return id, nil
}

// LastRow returns the last written row, -1 if none.
func (sh *Sheet) LastRow() int {
	sh.sink.mu.Lock()
	defer sh.sink.mu.Unlock()
	return sh.last
}

// SetCell sets the value and style of the cell.
func (sh *Sheet) SetCell(row, col int, v any, role obj2sheet.Role) error {
	if row >= MaxRowCount {
		return obj2sheet.ErrTooManyRows
	}
	sh.sink.mu.Lock()
	defer sh.sink.mu.Unlock()
	xl := sh.sink.xl
	if xl == nil {
		return fmt.Errorf("%s: sink is finalized", sh.Name)
	}
	axis, err := excelize.CoordinatesToCellName(col+1, row+1)
	if err != nil {
		return fmt.Errorf("%d/%d: %w", col, row, err)
	}
	sh.last = max(sh.last, row)

	v, isNil := cellValue(v)
	if !isNil {
		if s, ok := v.(string); ok {
			err = xl.SetCellStr(sh.Name, axis, s)
		} else {
			err = xl.SetCellValue(sh.Name, axis, v)
		}
		if err != nil {
			return fmt.Errorf("%s[%s]: %w", sh.Name, axis, err)
		}
		sh.measure(col, v)
	}
	if role == obj2sheet.RoleNone {
		return nil
	}
	st, err := sh.sink.getStyle(role.Style())
	if err != nil {
		return err
	}
	if err = xl.SetCellStyle(sh.Name, axis, axis, st); err != nil {
		return fmt.Errorf("%s[%s]: %w", sh.Name, axis, err)
	}
	return nil
}

func (sh *Sheet) measure(col int, v any) {
	var width int
	switch x := v.(type) {
	case string:
		width = runewidth.StringWidth(x)
	case time.Time:
		width = len("2006-01-02")
	default:
		width = runewidth.StringWidth(fmt.Sprint(x))
	}
	for len(sh.widths) <= col {
		sh.widths = append(sh.widths, 0)
	}
	sh.widths[col] = max(sh.widths[col], width)
}

// cellValue unwraps driver.Valuer (sql.Null*) values, and reports nil ones.
func cellValue(v any) (any, bool) {
	if v == nil {
		return nil, true
	}
	if vr, ok := v.(driver.Valuer); ok {
		if vv, err := vr.Value(); err == nil {
			v = vv
		}
	}
	switch x := v.(type) {
	case nil:
		return nil, true
	case time.Time:
		return x, x.IsZero()
	case obj2sheet.Number:
		if f, err := strconv.ParseFloat(string(x), 64); err == nil {
			return f, false
		}
		return string(x), x == ""
	case []byte:
		return string(x), false
	case fmt.Stringer:
		return x.String(), false
	}
	return v, false
}
