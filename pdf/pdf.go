// Copyright 2021, 2026 Tamás Gulácsi.
//
// SPDX-License-Identifier: Apache-2.0

// Package pdf renders sheets as tables of a PDF document.
package pdf

import (
	"fmt"
	"io"
	"sync"

	"github.com/UNO-SOFT/obj2sheet"
	"github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	"github.com/johnfercher/maroto/v2/pkg/config"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontfamily"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/consts/orientation"
	"github.com/johnfercher/maroto/v2/pkg/core"
	"github.com/johnfercher/maroto/v2/pkg/props"
)

var _ = (obj2sheet.Writer)((*PDFWriter)(nil))

type PDFWriter struct {
	w      io.Writer
	sheets []*PDFSheet
	mu     sync.Mutex

	// FontSize of the cells; the titles are a bit bigger.
	FontSize float64
	// Landscape orientation instead of portrait.
	Landscape bool
}

type PDFSheet struct {
	Name    string
	headers []string
	bold    []bool
	rows    [][]string
	mu      sync.Mutex
}

// NewWriter returns a new obj2sheet.Writer.
//
// This writer allows concurrent writes to separate sheets.
//
// The document is rendered by Close, everything is kept in memory till then.
func NewWriter(w io.Writer) *PDFWriter {
	return &PDFWriter{w: w, FontSize: 7}
}

func (pw *PDFWriter) NewSheet(name string, columns []obj2sheet.Column) (obj2sheet.Sheet, error) {
	pw.mu.Lock()
	defer pw.mu.Unlock()
	if pw.w == nil {
		return nil, fmt.Errorf("%s: writer is closed", name)
	}
	sh := &PDFSheet{
		Name:    name,
		headers: make([]string, len(columns)),
		bold:    make([]bool, len(columns)),
	}
	for i, c := range columns {
		sh.headers[i], sh.bold[i] = c.Name, c.Header.FontBold
	}
	pw.sheets = append(pw.sheets, sh)
	return sh, nil
}

func (sh *PDFSheet) Close() error { return nil }

func (sh *PDFSheet) AppendRow(values ...any) error {
	row := make([]string, len(values))
	for i, v := range values {
		row[i] = obj2sheet.FormatValue(v)
	}
	sh.mu.Lock()
	sh.rows = append(sh.rows, row)
	sh.mu.Unlock()
	return nil
}

// Close renders the document and writes it out.
func (pw *PDFWriter) Close() error {
	if pw == nil {
		return nil
	}
	pw.mu.Lock()
	defer pw.mu.Unlock()
	w := pw.w
	pw.w = nil
	if w == nil {
		return nil
	}

	gridSize := 1
	for _, sh := range pw.sheets {
		sh.mu.Lock()
		gridSize = max(gridSize, sh.width())
		sh.mu.Unlock()
	}
	orient := orientation.Vertical
	if pw.Landscape {
		orient = orientation.Horizontal
	}
	m := maroto.New(config.NewBuilder().
		WithOrientation(orient).
		WithMaxGridSize(gridSize).
		Build())

	fontSize := pw.FontSize
	if fontSize <= 0 {
		fontSize = 7
	}
	rowHeight := fontSize * 0.6
	normal := props.Text{Family: fontfamily.Courier, Style: fontstyle.Normal, Size: fontSize, Top: 0.5, Left: 0.5}
	bold := props.Text{Family: fontfamily.Arial, Style: fontstyle.Bold, Size: fontSize, Top: 0.5, Left: 0.5}
	title := props.Text{Family: fontfamily.Arial, Style: fontstyle.Bold, Size: fontSize * 1.375, Top: 1}

	for _, sh := range pw.sheets {
		sh.mu.Lock()
		width := sh.width()
		size := max(1, gridSize/max(1, width))
		m.AddRows(text.NewRow(rowHeight*2, sh.Name, title))
		cols := make([]core.Col, 0, width)
		for i, h := range sh.headers {
			ps := normal
			if sh.bold[i] {
				ps = bold
			}
			cols = append(cols, text.NewCol(size, h, ps))
		}
		if len(cols) != 0 {
			m.AddRow(rowHeight, cols...)
		}
		for _, row := range sh.rows {
			cols := make([]core.Col, 0, len(row))
			for _, s := range row {
				cols = append(cols, text.NewCol(size, s, normal))
			}
			m.AddRow(rowHeight, cols...)
		}
		sh.mu.Unlock()
	}

	doc, err := m.Generate()
	if err != nil {
		return err
	}
	_, err = w.Write(doc.GetBytes())
	return err
}

func (sh *PDFSheet) width() int {
	width := len(sh.headers)
	for _, row := range sh.rows {
		width = max(width, len(row))
	}
	return width
}
