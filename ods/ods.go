// Copyright 2020, 2026 Tamás Gulácsi.
//
// SPDX-License-Identifier: Apache-2.0

// Package ods writes OpenDocument spreadsheets.
package ods

import (
	"fmt"
	"io"
	"strconv"
	"sync"
	"time"

	"github.com/UNO-SOFT/obj2sheet"
	"github.com/klauspost/compress/zip"
	"github.com/valyala/bytebufferpool"
	"github.com/valyala/quicktemplate"
)

var _ = (obj2sheet.Writer)((*ODSWriter)(nil))

// MimeType of OpenDocument spreadsheets; also the first, stored entry of the file.
const MimeType = "application/vnd.oasis.opendocument.spreadsheet"

type ODSWriter struct {
	w      io.Writer
	sheets []*ODSSheet
	mu     sync.Mutex
}

type ODSSheet struct {
	buf     *bytebufferpool.ByteBuffer
	Name    string
	columns []obj2sheet.Column
	mu      sync.Mutex
	closed  bool
}

// NewWriter returns a new obj2sheet.Writer.
//
// This writer allows concurrent writes to separate sheets.
//
// The rows are collected in memory, and the file is written by Close.
func NewWriter(w io.Writer) (*ODSWriter, error) {
	return &ODSWriter{w: w}, nil
}

func (ow *ODSWriter) NewSheet(name string, columns []obj2sheet.Column) (obj2sheet.Sheet, error) {
	ow.mu.Lock()
	defer ow.mu.Unlock()
	if ow.w == nil {
		return nil, fmt.Errorf("%s: writer is closed", name)
	}
	for _, sh := range ow.sheets {
		if sh.Name == name {
			return nil, fmt.Errorf("%s: sheet already exists", name)
		}
	}
	sh := &ODSSheet{Name: name, columns: columns, buf: bytebufferpool.Get()}
	var hasHeader bool
	for _, c := range columns {
		hasHeader = hasHeader || c.Name != ""
	}
	if hasHeader {
		qw := quicktemplate.AcquireWriter(sh.buf)
		qw.N().S("<table:table-row>")
		for _, c := range columns {
			style := ""
			if c.Header.FontBold {
				style = "hdr"
			}
			writeCell(qw, c.Name, style)
		}
		qw.N().S("</table:table-row>\n")
		quicktemplate.ReleaseWriter(qw)
	}
	ow.sheets = append(ow.sheets, sh)
	return sh, nil
}

// Close writes the zipped document.
func (ow *ODSWriter) Close() error {
	if ow == nil {
		return nil
	}
	ow.mu.Lock()
	defer ow.mu.Unlock()
	w := ow.w
	ow.w = nil
	if w == nil {
		return nil
	}
	defer func() {
		for _, sh := range ow.sheets {
			sh.mu.Lock()
			if sh.buf != nil {
				bytebufferpool.Put(sh.buf)
				sh.buf = nil
			}
			sh.closed = true
			sh.mu.Unlock()
		}
	}()

	zw := zip.NewWriter(w)
	// The mimetype must be the first entry, uncompressed.
	mw, err := zw.CreateHeader(&zip.FileHeader{Name: "mimetype", Method: zip.Store})
	if err != nil {
		return err
	}
	if _, err = io.WriteString(mw, MimeType); err != nil {
		return err
	}
	mw, err = zw.Create("META-INF/manifest.xml")
	if err != nil {
		return err
	}
	if _, err = io.WriteString(mw, manifestXML); err != nil {
		return err
	}
	cw, err := zw.Create("content.xml")
	if err != nil {
		return err
	}
	qw := quicktemplate.AcquireWriter(cw)
	defer quicktemplate.ReleaseWriter(qw)
	qw.N().S(contentHead)
	for _, sh := range ow.sheets {
		sh.mu.Lock()
		qw.N().S(`<table:table table:name="`)
		qw.E().S(sh.Name)
		qw.N().S("\">\n")
		if len(sh.columns) != 0 {
			qw.N().S(`<table:table-column table:number-columns-repeated="`)
			qw.N().D(len(sh.columns))
			qw.N().S("\"/>\n")
		}
		qw.N().Z(sh.buf.B)
		qw.N().S("</table:table>\n")
		sh.mu.Unlock()
	}
	qw.N().S(contentTail)
	return zw.Close()
}

func (sh *ODSSheet) Close() error {
	sh.mu.Lock()
	defer sh.mu.Unlock()
	sh.closed = true
	return nil
}

func (sh *ODSSheet) AppendRow(values ...any) error {
	sh.mu.Lock()
	defer sh.mu.Unlock()
	if sh.closed || sh.buf == nil {
		return fmt.Errorf("%s: sheet is closed", sh.Name)
	}
	qw := quicktemplate.AcquireWriter(sh.buf)
	defer quicktemplate.ReleaseWriter(qw)
	qw.N().S("<table:table-row>")
	for _, v := range values {
		writeCell(qw, v, "")
	}
	qw.N().S("</table:table-row>\n")
	return nil
}

func writeCell(qw *quicktemplate.Writer, v any, style string) {
	if s, ok := v.(fmt.Stringer); ok {
		if _, isTime := v.(time.Time); !isTime {
			v = s.String()
		}
	}
	if v == nil || v == "" {
		qw.N().S("<table:table-cell/>")
		return
	}
	qw.N().S("<table:table-cell")
	if style != "" {
		qw.N().S(` table:style-name="`)
		qw.N().S(style)
		qw.N().S(`"`)
	}
	text := ""
	switch x := v.(type) {
	case string:
		qw.N().S(` office:value-type="string">`)
		text = x
	case bool:
		qw.N().S(` office:value-type="boolean" office:boolean-value="`)
		qw.N().S(strconv.FormatBool(x))
		qw.N().S(`">`)
		text = strconv.FormatBool(x)
	case time.Time:
		if style == "" {
			qw.N().S(` table:style-name="date"`)
		}
		qw.N().S(` office:value-type="date" office:date-value="`)
		qw.N().S(x.Format("2006-01-02T15:04:05"))
		qw.N().S(`">`)
		text = x.Format("2006-01-02")
	case obj2sheet.Number:
		text = string(x)
		if _, err := strconv.ParseFloat(text, 64); err != nil {
			qw.N().S(` office:value-type="string">`)
			break
		}
		writeFloat(qw, text)
	case int64:
		text = strconv.FormatInt(x, 10)
		writeFloat(qw, text)
	case int:
		text = strconv.Itoa(x)
		writeFloat(qw, text)
	case uint64:
		text = strconv.FormatUint(x, 10)
		writeFloat(qw, text)
	case float64:
		text = strconv.FormatFloat(x, 'g', -1, 64)
		writeFloat(qw, text)
	default:
		qw.N().S(` office:value-type="string">`)
		text = fmt.Sprint(v)
	}
	qw.N().S("<text:p>")
	qw.E().S(text)
	qw.N().S("</text:p></table:table-cell>")
}

func writeFloat(qw *quicktemplate.Writer, text string) {
	qw.N().S(` office:value-type="float" office:value="`)
	qw.N().S(text)
	qw.N().S(`">`)
}

const manifestXML = `<?xml version="1.0" encoding="UTF-8"?>
<manifest:manifest xmlns:manifest="urn:oasis:names:tc:opendocument:xmlns:manifest:1.0" manifest:version="1.2">
 <manifest:file-entry manifest:full-path="/" manifest:version="1.2" manifest:media-type="` + MimeType + `"/>
 <manifest:file-entry manifest:full-path="content.xml" manifest:media-type="text/xml"/>
</manifest:manifest>
`

const contentHead = `<?xml version="1.0" encoding="UTF-8"?>
<office:document-content xmlns:office="urn:oasis:names:tc:opendocument:xmlns:office:1.0" xmlns:style="urn:oasis:names:tc:opendocument:xmlns:style:1.0" xmlns:text="urn:oasis:names:tc:opendocument:xmlns:text:1.0" xmlns:table="urn:oasis:names:tc:opendocument:xmlns:table:1.0" xmlns:fo="urn:oasis:names:tc:opendocument:xmlns:xsl-fo-compatible:1.0" xmlns:number="urn:oasis:names:tc:opendocument:xmlns:datastyle:1.0" office:version="1.2">
<office:automatic-styles>
<number:date-style style:name="N1"><number:year number:style="long"/><number:text>-</number:text><number:month number:style="long"/><number:text>-</number:text><number:day number:style="long"/></number:date-style>
<style:style style:name="hdr" style:family="table-cell"><style:text-properties fo:font-weight="bold"/></style:style>
<style:style style:name="date" style:family="table-cell" style:data-style-name="N1"/>
</office:automatic-styles>
<office:body>
<office:spreadsheet>
`

const contentTail = `</office:spreadsheet>
</office:body>
</office:document-content>
`
