// Copyright 2026 Tamás Gulácsi.
//
// SPDX-License-Identifier: Apache-2.0

package xlsx_test

import (
	"bytes"
	"testing"
	"time"

	"github.com/UNO-SOFT/obj2sheet"
	"github.com/UNO-SOFT/obj2sheet/xlsx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

type Dog struct {
	Name string
}

type Person struct {
	Born time.Time
	Name string
	Pets []*Dog
}

func TestPrintToXLSX(t *testing.T) {
	sink := xlsx.NewSink()
	p := obj2sheet.New(sink)
	rex := &Dog{Name: "Rex"}
	_, err := p.AddObject([]*Person{
		{Name: "Ann", Born: time.Date(1990, 5, 6, 0, 0, 0, 0, time.UTC), Pets: []*Dog{rex, {Name: "Bo"}}},
		{Name: "Bob", Pets: []*Dog{rex}},
	})
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, p.Save(&buf))

	xl, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer xl.Close()
	assert.Equal(t, []string{"Person", "Dog"}, xl.GetSheetList())

	get := func(sheet, axis string) string {
		t.Helper()
		s, err := xl.GetCellValue(sheet, axis)
		require.NoError(t, err)
		return s
	}
	assert.Equal(t, "ID Person", get("Person", "A1"))
	assert.Equal(t, "Born", get("Person", "B1"))
	assert.Equal(t, "Name", get("Person", "C1"))
	assert.Equal(t, "Pets", get("Person", "D1"))
	assert.Equal(t, "string", get("Person", "C2"))
	assert.Equal(t, "Person 0", get("Person", "A3"))
	assert.Equal(t, "Ann", get("Person", "C3"))
	assert.Equal(t, "Dog 0", get("Person", "D3"))
	assert.Equal(t, "Dog 1", get("Person", "D4"))
	assert.Equal(t, "Person 1", get("Person", "A5"))
	assert.Equal(t, "", get("Person", "B5"))
	assert.Equal(t, "Dog 0", get("Person", "D5"))

	assert.Equal(t, "Dog 0", get("Dog", "A3"))
	assert.Equal(t, "Rex", get("Dog", "B3"))
	assert.Equal(t, "Bo", get("Dog", "B4"))
	assert.Equal(t, "", get("Dog", "A5"))

	width, err := xl.GetColWidth("Person", "A")
	require.NoError(t, err)
	assert.Greater(t, width, 8.0)
}

func TestSheet(t *testing.T) {
	sink := xlsx.NewSink()
	cs, err := sink.Sheet("Only")
	require.NoError(t, err)
	again, err := sink.Sheet("Only")
	require.NoError(t, err)
	assert.Same(t, cs, again)

	assert.Equal(t, -1, cs.LastRow())
	require.NoError(t, cs.SetCell(4, 0, obj2sheet.Number("1.5"), obj2sheet.RoleNone))
	require.NoError(t, cs.SetCell(1, 1, nil, obj2sheet.RoleHeader))
	assert.Equal(t, 4, cs.LastRow())
	assert.ErrorIs(t, cs.SetCell(xlsx.MaxRowCount, 0, "x", obj2sheet.RoleNone), obj2sheet.ErrTooManyRows)

	var buf bytes.Buffer
	require.NoError(t, sink.Finalize(&buf))
	assert.Error(t, cs.SetCell(0, 0, "late", obj2sheet.RoleNone))

	xl, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer xl.Close()
	s, err := xl.GetCellValue("Only", "A5")
	require.NoError(t, err)
	assert.Equal(t, "1.5", s)
}
