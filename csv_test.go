// Copyright 2026 Tamás Gulácsi.
//
// SPDX-License-Identifier: Apache-2.0

package obj2sheet_test

import (
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/UNO-SOFT/obj2sheet"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/encoding/charmap"
)

func TestCSVReader(t *testing.T) {
	src := "name;age;\nAnn;30;x;extra\nBob\n"
	r, err := obj2sheet.NewCSVReader(io.NopCloser(strings.NewReader(src)), "utf-8")
	require.NoError(t, err)
	defer r.Close()
	assert.Equal(t, []string{"name", "age", "column 3"}, r.Header())

	ann, err := r.Next()
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"name": "Ann", "age": "30", "column 3": "x"}, ann)
	assert.Equal(t, 2, r.Line())

	bob, err := r.Next()
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"name": "Bob"}, bob)
	assert.Equal(t, 3, r.Line())

	_, err = r.Next()
	assert.ErrorIs(t, err, io.EOF)

	p, g := newPrinter(t)
	id, err := p.AddObject(ann)
	require.NoError(t, err)
	assert.Equal(t, "Map Record 0", id)
	sh := sheet(t, g, "Map Record")
	assert.Equal(t, []any{"Map Record 0", "age", "30"}, sh.Row(2))
	assert.Equal(t, []any{nil, "column 3", "x"}, sh.Row(3))
	assert.Equal(t, []any{nil, "name", "Ann"}, sh.Row(4))
}

func TestCSVSingleColumn(t *testing.T) {
	r, err := obj2sheet.NewCSVReader(io.NopCloser(strings.NewReader("name\nx,y\n")), "")
	require.NoError(t, err)
	assert.Equal(t, []string{"name"}, r.Header())
	rec, err := r.Next()
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"name": "x"}, rec)
}

func TestOpenCSV(t *testing.T) {
	b, err := charmap.ISO8859_2.NewEncoder().String("név,kor\nÁrpád,3\n")
	require.NoError(t, err)
	fn := filepath.Join(t.TempDir(), "hu.csv")
	require.NoError(t, os.WriteFile(fn, []byte(b), 0o644))

	r, err := obj2sheet.OpenCSV(fn, "iso-8859-2")
	require.NoError(t, err)
	assert.Equal(t, []string{"név", "kor"}, r.Header())
	rec, err := r.Next()
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"név": "Árpád", "kor": "3"}, rec)
	require.NoError(t, r.Close())

	_, err = obj2sheet.OpenCSV(filepath.Join(t.TempDir(), "missing.csv"), "")
	assert.Error(t, err)
	_, err = obj2sheet.OpenCSV(fn, "no-such-charset")
	assert.Error(t, err)
}
