// Copyright 2026 Tamás Gulácsi.
//
// SPDX-License-Identifier: Apache-2.0

package ods_test

import (
	"bytes"
	"encoding/xml"
	"io"
	"testing"
	"time"

	"github.com/UNO-SOFT/obj2sheet"
	"github.com/UNO-SOFT/obj2sheet/grid"
	"github.com/UNO-SOFT/obj2sheet/ods"
	"github.com/klauspost/compress/zip"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func readZip(t *testing.T, b []byte) (names []string, files map[string]string) {
	t.Helper()
	zr, err := zip.NewReader(bytes.NewReader(b), int64(len(b)))
	require.NoError(t, err)
	files = make(map[string]string)
	for _, f := range zr.File {
		names = append(names, f.Name)
		rc, err := f.Open()
		require.NoError(t, err)
		content, err := io.ReadAll(rc)
		rc.Close()
		require.NoError(t, err)
		files[f.Name] = string(content)
	}
	return names, files
}

func TestWriter(t *testing.T) {
	var buf bytes.Buffer
	w, err := ods.NewWriter(&buf)
	require.NoError(t, err)
	sh, err := w.NewSheet("Fancy <&> name", []obj2sheet.Column{
		{Name: "A", Header: obj2sheet.Style{FontBold: true}}, {Name: "B"},
	})
	require.NoError(t, err)
	_, err = w.NewSheet("Fancy <&> name", nil)
	assert.Error(t, err)
	require.NoError(t, sh.AppendRow("x<y", int64(3), 1.5, true, nil,
		time.Date(2021, 3, 4, 0, 0, 0, 0, time.UTC), obj2sheet.Number("12")))
	require.NoError(t, sh.Close())
	require.NoError(t, w.Close())
	assert.Error(t, sh.AppendRow("late"))

	b := buf.Bytes()
	names, files := readZip(t, b)
	require.NotEmpty(t, names)
	assert.Equal(t, "mimetype", names[0])
	assert.Equal(t, ods.MimeType, files["mimetype"])
	assert.Contains(t, files, "META-INF/manifest.xml")

	content := files["content.xml"]
	require.NoError(t, xml.Unmarshal([]byte(content), new(struct{})), "well formed")
	assert.Contains(t, content, `table:name="Fancy &lt;&amp;&gt; name"`)
	assert.Contains(t, content, `table:number-columns-repeated="2"`)
	assert.Contains(t, content, `table:style-name="hdr" office:value-type="string"><text:p>A</text:p>`)
	assert.Contains(t, content, `<text:p>x&lt;y</text:p>`)
	assert.Contains(t, content, `office:value-type="float" office:value="3"`)
	assert.Contains(t, content, `office:value-type="float" office:value="1.5"`)
	assert.Contains(t, content, `office:value-type="boolean" office:boolean-value="true"`)
	assert.Contains(t, content, `office:date-value="2021-03-04T00:00:00"`)
	assert.Contains(t, content, `office:value-type="float" office:value="12"`)
	assert.Contains(t, content, `<table:table-cell/>`)
}

type Dog struct {
	Name string
}

func TestPrintToODS(t *testing.T) {
	g := grid.New(func(w io.Writer) (obj2sheet.Writer, error) { return ods.NewWriter(w) })
	p := obj2sheet.New(g)
	_, err := p.AddObject([]*Dog{{Name: "Rex"}, {Name: "Bo"}})
	require.NoError(t, err)
	var buf bytes.Buffer
	require.NoError(t, p.Save(&buf))

	_, files := readZip(t, buf.Bytes())
	content := files["content.xml"]
	require.NoError(t, xml.Unmarshal([]byte(content), new(struct{})))
	assert.Contains(t, content, `table:name="Dog"`)
	assert.Contains(t, content, `<text:p>ID Dog</text:p>`)
	assert.Contains(t, content, `<text:p>Dog 1</text:p>`)
	assert.Contains(t, content, `<text:p>Bo</text:p>`)
}
