// Copyright 2020, 2026 Tamás Gulácsi.
//
// SPDX-License-Identifier: Apache-2.0

package obj2sheet

import (
	"bufio"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"unicode"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/htmlindex"
)

// EncName is the charset name of the environment (from $LANG).
var EncName = "utf-8"

func init() {
	EncName = os.Getenv("LANG")
	if i := strings.IndexByte(EncName, '.'); i >= 0 {
		EncName = strings.ToLower(EncName[i+1:])
	}
	if EncName == "" {
		EncName = "utf-8"
	}
}

// GetEncoding returns the named encoding, nil for UTF-8.
func GetEncoding(encName string) (encoding.Encoding, error) {
	encName = strings.ToLower(encName)
	if encName == "" || encName == "utf-8" || encName == "utf8" {
		return nil, nil
	}
	enc, err := htmlindex.Get(encName)
	if err != nil {
		err = fmt.Errorf("%q: %w", encName, err)
	}
	return enc, err
}

// CSVReader reads the rows of a CSV document as records,
// keyed by the fields of the header row.
type CSVReader struct {
	cr     *csv.Reader
	closer io.Closer
	header []string
	line   int
}

// OpenCSV opens the named CSV file (stdin for "" or "-") decoding it from encName.
func OpenCSV(fn, encName string) (*CSVReader, error) {
	if fn == "" || fn == "-" {
		return NewCSVReader(io.NopCloser(os.Stdin), encName)
	}
	fh, err := os.Open(fn)
	if err != nil {
		return nil, err
	}
	r, err := NewCSVReader(fh, encName)
	if err != nil {
		fh.Close()
	}
	return r, err
}

// NewCSVReader decodes r from encName, sniffs the field separator
// and reads the header row.
func NewCSVReader(r io.ReadCloser, encName string) (*CSVReader, error) {
	enc, err := GetEncoding(encName)
	if err != nil {
		return nil, err
	}
	var rd io.Reader = r
	if enc != nil {
		rd = enc.NewDecoder().Reader(r)
	}
	br := bufio.NewReaderSize(rd, 1<<20)
	b, err := br.Peek(1024)
	if err != nil && len(b) == 0 {
		return nil, err
	}
	cr := csv.NewReader(br)
	cr.Comma = sniffComma(b)
	cr.FieldsPerRecord = -1
	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("header: %w", err)
	}
	for i, h := range header {
		if h = strings.TrimSpace(h); h == "" {
			h = "column " + strconv.Itoa(i+1)
		}
		header[i] = h
	}
	line, _ := cr.FieldPos(0)
	return &CSVReader{cr: cr, closer: r, header: header, line: line}, nil
}

// sniffComma returns the first character of b that cannot be part of
// an unquoted header name, ',' if there is none.
func sniffComma(b []byte) rune {
	for _, r := range string(b) {
		if r == '"' || r == '_' || unicode.IsLetter(r) || unicode.IsNumber(r) {
			continue
		}
		if r == '\r' || r == '\n' {
			break
		}
		return r
	}
	return ','
}

// Header returns the column names.
func (r *CSVReader) Header() []string { return r.header }

// Next returns the next row as a record, io.EOF at the end.
// Fields beyond the header are dropped, missing ones are absent.
func (r *CSVReader) Next() (map[string]string, error) {
	row, err := r.cr.Read()
	if err != nil {
		return nil, err
	}
	r.line, _ = r.cr.FieldPos(0)
	rec := make(map[string]string, len(r.header))
	for i, s := range row {
		if i < len(r.header) {
			rec[r.header[i]] = s
		}
	}
	return rec, nil
}

// Line returns the line where the last read row starts.
func (r *CSVReader) Line() int { return r.line }

func (r *CSVReader) Close() error { return r.closer.Close() }
