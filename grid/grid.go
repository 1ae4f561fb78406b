// Copyright 2026 Tamás Gulácsi.
//
// SPDX-License-Identifier: Apache-2.0

// Package grid is an in-memory obj2sheet.Sink.
//
// On Finalize the sheets are replayed row by row into an obj2sheet.Writer,
// so any append-only writer (ods, pdf, csvzip) can receive printed objects.
package grid

import (
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/UNO-SOFT/obj2sheet"
)

var (
	_ = (obj2sheet.Sink)((*Grid)(nil))
	_ = (obj2sheet.CellSheet)((*Sheet)(nil))
)

// ErrNoWriter is returned by Finalize of a Grid without a writer.
var ErrNoWriter = errors.New("no writer")

// NewWriterFunc creates the writer the sheets are replayed into.
type NewWriterFunc func(io.Writer) (obj2sheet.Writer, error)

// Cell is one cell of a Sheet.
type Cell struct {
	Value any
	Role  obj2sheet.Role
}

type Grid struct {
	newWriter NewWriterFunc
	byName    map[string]*Sheet
	sheets    []*Sheet
	mu        sync.Mutex
}

type Sheet struct {
	Name string
	rows [][]Cell
	mu   sync.Mutex
}

// New returns a new Grid. newWriter may be nil, if the grid is only read back.
func New(newWriter NewWriterFunc) *Grid {
	return &Grid{newWriter: newWriter, byName: make(map[string]*Sheet)}
}

// Sheet returns the named sheet, creating it if needed.
func (g *Grid) Sheet(name string) (obj2sheet.CellSheet, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if sh, ok := g.byName[name]; ok {
		return sh, nil
	}
	sh := &Sheet{Name: name}
	g.byName[name] = sh
	g.sheets = append(g.sheets, sh)
	return sh, nil
}

// Names returns the sheet names in creation order.
func (g *Grid) Names() []string {
	g.mu.Lock()
	defer g.mu.Unlock()
	names := make([]string, len(g.sheets))
	for i, sh := range g.sheets {
		names[i] = sh.Name
	}
	return names
}

// Lookup returns the named sheet, or nil.
func (g *Grid) Lookup(name string) *Sheet {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.byName[name]
}

// Finalize replays every sheet into a new writer on w, then closes that writer.
//
// The first row of each sheet becomes the column headers.
func (g *Grid) Finalize(w io.Writer) error {
	if g.newWriter == nil {
		return ErrNoWriter
	}
	wr, err := g.newWriter(w)
	if err != nil {
		return err
	}
	g.mu.Lock()
	sheets := append([]*Sheet(nil), g.sheets...)
	g.mu.Unlock()
	for _, sh := range sheets {
		if err := sh.replay(wr); err != nil {
			wr.Close()
			return fmt.Errorf("%s: %w", sh.Name, err)
		}
	}
	return wr.Close()
}

func (sh *Sheet) replay(wr obj2sheet.Writer) error {
	sh.mu.Lock()
	defer sh.mu.Unlock()
	var width int
	for _, row := range sh.rows {
		width = max(width, len(row))
	}
	cols := make([]obj2sheet.Column, width)
	if len(sh.rows) != 0 {
		for i, c := range sh.rows[0] {
			if c.Value != nil {
				cols[i].Name = fmt.Sprint(c.Value)
			}
			cols[i].Header = c.Role.Style()
		}
	}
	for _, row := range sh.rows {
		for i, c := range row {
			if c.Role == obj2sheet.RoleDate {
				cols[i].Column = c.Role.Style()
			}
		}
	}
	ws, err := wr.NewSheet(sh.Name, cols)
	if err != nil {
		return err
	}
	values := make([]any, width)
	for r := 1; r < len(sh.rows); r++ {
		clear(values)
		for i, c := range sh.rows[r] {
			values[i] = c.Value
		}
		if err := ws.AppendRow(values...); err != nil {
			ws.Close()
			return fmt.Errorf("row %d: %w", r, err)
		}
	}
	return ws.Close()
}

// SetCell sets the cell.
func (sh *Sheet) SetCell(row, col int, value any, role obj2sheet.Role) error {
	if row < 0 || col < 0 {
		return fmt.Errorf("%d/%d: negative coordinate", row, col)
	}
	sh.mu.Lock()
	defer sh.mu.Unlock()
	for len(sh.rows) <= row {
		sh.rows = append(sh.rows, nil)
	}
	for len(sh.rows[row]) <= col {
		sh.rows[row] = append(sh.rows[row], Cell{})
	}
	sh.rows[row][col] = Cell{Value: value, Role: role}
	return nil
}

// LastRow returns the last written row, -1 if none.
func (sh *Sheet) LastRow() int {
	sh.mu.Lock()
	defer sh.mu.Unlock()
	return len(sh.rows) - 1
}

// Cell returns the cell at (row, col); the zero Cell if never set.
func (sh *Sheet) Cell(row, col int) Cell {
	sh.mu.Lock()
	defer sh.mu.Unlock()
	if row < 0 || row >= len(sh.rows) || col < 0 || col >= len(sh.rows[row]) {
		return Cell{}
	}
	return sh.rows[row][col]
}

// Row returns the values of the row, nil for blank cells.
func (sh *Sheet) Row(row int) []any {
	sh.mu.Lock()
	defer sh.mu.Unlock()
	if row < 0 || row >= len(sh.rows) {
		return nil
	}
	values := make([]any, len(sh.rows[row]))
	for i, c := range sh.rows[row] {
		values[i] = c.Value
	}
	return values
}
