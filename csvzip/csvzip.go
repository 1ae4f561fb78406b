// Copyright 2026 Tamás Gulácsi.
//
// SPDX-License-Identifier: Apache-2.0

// Package csvzip writes every sheet as a CSV file into a zip archive.
package csvzip

import (
	"encoding/csv"
	"fmt"
	"io"
	"sync"

	"github.com/UNO-SOFT/obj2sheet"
	"github.com/klauspost/compress/zip"
	"golang.org/x/text/encoding"
)

var _ = (obj2sheet.Writer)((*CSVWriter)(nil))

type CSVWriter struct {
	zw      *zip.Writer
	enc     encoding.Encoding
	current *CSVSheet
	mu      sync.Mutex
	Comma   rune
}

type CSVSheet struct {
	w    *CSVWriter
	cw   *csv.Writer
	tail io.Closer // flushes the charset encoder
	Name string
}

// NewWriter returns a new obj2sheet.Writer, encoding the CSV files
// with the named charset (see obj2sheet.GetEncoding).
//
// This writer does NOT allow concurrent writes to separate sheets:
// creating a new sheet closes the previous one.
func NewWriter(w io.Writer, encName string) (*CSVWriter, error) {
	enc, err := obj2sheet.GetEncoding(encName)
	if err != nil {
		return nil, err
	}
	return &CSVWriter{zw: zip.NewWriter(w), enc: enc, Comma: ','}, nil
}

func (cw *CSVWriter) NewSheet(name string, columns []obj2sheet.Column) (obj2sheet.Sheet, error) {
	cw.mu.Lock()
	defer cw.mu.Unlock()
	if cw.zw == nil {
		return nil, fmt.Errorf("%s: writer is closed", name)
	}
	if err := cw.closeCurrent(); err != nil {
		return nil, err
	}
	fw, err := cw.zw.Create(name + ".csv")
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	var tail io.Closer
	if cw.enc != nil {
		fw = cw.enc.NewEncoder().Writer(fw)
		tail, _ = fw.(io.Closer)
	}
	sh := &CSVSheet{w: cw, cw: csv.NewWriter(fw), tail: tail, Name: name}
	sh.cw.Comma = cw.Comma
	cw.current = sh
	var hasHeader bool
	header := make([]string, len(columns))
	for i, c := range columns {
		header[i] = c.Name
		hasHeader = hasHeader || c.Name != ""
	}
	if hasHeader {
		if err := sh.cw.Write(header); err != nil {
			return nil, fmt.Errorf("%s: %w", name, err)
		}
	}
	return sh, nil
}

func (cw *CSVWriter) closeCurrent() error {
	if cw.current == nil {
		return nil
	}
	sh := cw.current
	cw.current = nil
	sh.cw.Flush()
	if err := sh.cw.Error(); err != nil {
		return err
	}
	if sh.tail != nil {
		return sh.tail.Close()
	}
	return nil
}

// Close flushes the last sheet and finishes the archive.
func (cw *CSVWriter) Close() error {
	if cw == nil {
		return nil
	}
	cw.mu.Lock()
	defer cw.mu.Unlock()
	zw := cw.zw
	cw.zw = nil
	if zw == nil {
		return nil
	}
	if err := cw.closeCurrent(); err != nil {
		zw.Close()
		return err
	}
	return zw.Close()
}

func (sh *CSVSheet) Close() error {
	sh.w.mu.Lock()
	defer sh.w.mu.Unlock()
	if sh.w.current != sh {
		return nil
	}
	return sh.w.closeCurrent()
}

func (sh *CSVSheet) AppendRow(values ...any) error {
	sh.w.mu.Lock()
	defer sh.w.mu.Unlock()
	if sh.w.current != sh {
		return fmt.Errorf("%s: sheet is closed", sh.Name)
	}
	record := make([]string, len(values))
	for i, v := range values {
		record[i] = obj2sheet.FormatValue(v)
	}
	return sh.cw.Write(record)
}
