// Copyright 2026 Tamás Gulácsi.
//
// SPDX-License-Identifier: Apache-2.0

package grid_test

import (
	"bytes"
	"io"
	"testing"
	"time"

	"github.com/UNO-SOFT/obj2sheet"
	"github.com/UNO-SOFT/obj2sheet/grid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recorder struct {
	w      io.Writer
	sheets []*recordedSheet
	closed bool
}

type recordedSheet struct {
	name   string
	cols   []obj2sheet.Column
	rows   [][]any
	closed bool
}

func (r *recorder) NewSheet(name string, cols []obj2sheet.Column) (obj2sheet.Sheet, error) {
	sh := &recordedSheet{name: name, cols: cols}
	r.sheets = append(r.sheets, sh)
	return sh, nil
}
func (r *recorder) Close() error {
	r.closed = true
	_, err := io.WriteString(r.w, "done")
	return err
}
func (sh *recordedSheet) AppendRow(values ...any) error {
	sh.rows = append(sh.rows, append([]any(nil), values...))
	return nil
}
func (sh *recordedSheet) Close() error { sh.closed = true; return nil }

func TestSetCell(t *testing.T) {
	g := grid.New(nil)
	cs, err := g.Sheet("a")
	require.NoError(t, err)
	again, err := g.Sheet("a")
	require.NoError(t, err)
	assert.Same(t, cs, again)

	assert.Equal(t, -1, cs.LastRow())
	require.NoError(t, cs.SetCell(3, 2, "x", obj2sheet.RoleIdentity))
	assert.Equal(t, 3, cs.LastRow())
	sh := g.Lookup("a")
	assert.Equal(t, grid.Cell{Value: "x", Role: obj2sheet.RoleIdentity}, sh.Cell(3, 2))
	assert.Equal(t, grid.Cell{}, sh.Cell(1, 1))
	assert.Equal(t, grid.Cell{}, sh.Cell(9, 9))
	assert.Equal(t, []any{nil, nil, "x"}, sh.Row(3))
	assert.Error(t, cs.SetCell(-1, 0, "y", obj2sheet.RoleNone))
	assert.Nil(t, g.Lookup("b"))
}

func TestReplay(t *testing.T) {
	rec := &recorder{}
	g := grid.New(func(w io.Writer) (obj2sheet.Writer, error) {
		rec.w = w
		return rec, nil
	})
	day := time.Date(2020, 1, 2, 0, 0, 0, 0, time.UTC)
	for _, name := range []string{"First", "Second"} {
		cs, err := g.Sheet(name)
		require.NoError(t, err)
		require.NoError(t, cs.SetCell(0, 0, "ID "+name, obj2sheet.RoleIdentity))
		require.NoError(t, cs.SetCell(0, 1, "When", obj2sheet.RoleHeader))
		require.NoError(t, cs.SetCell(1, 1, "time.Time", obj2sheet.RoleHeader))
		require.NoError(t, cs.SetCell(2, 0, name+" 0", obj2sheet.RoleIdentity))
		require.NoError(t, cs.SetCell(2, 1, day, obj2sheet.RoleDate))
		require.NoError(t, cs.SetCell(3, 2, int64(1), obj2sheet.RoleNone))
	}
	var buf bytes.Buffer
	require.NoError(t, g.Finalize(&buf))
	assert.Equal(t, "done", buf.String())
	assert.True(t, rec.closed)
	assert.Equal(t, []string{"First", "Second"}, g.Names())

	require.Len(t, rec.sheets, 2)
	sh := rec.sheets[0]
	assert.Equal(t, "First", sh.name)
	assert.True(t, sh.closed)
	require.Len(t, sh.cols, 3)
	assert.Equal(t, "ID First", sh.cols[0].Name)
	assert.Equal(t, "When", sh.cols[1].Name)
	assert.True(t, sh.cols[1].Header.FontBold)
	assert.Equal(t, obj2sheet.RoleDate.Style(), sh.cols[1].Column)
	assert.Equal(t, "", sh.cols[2].Name)
	assert.Equal(t, [][]any{
		{nil, "time.Time", nil},
		{"First 0", day, nil},
		{nil, nil, int64(1)},
	}, sh.rows)
}
