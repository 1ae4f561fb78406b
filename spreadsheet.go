// Copyright 2020, 2026 Tamás Gulácsi.
//
// SPDX-License-Identifier: Apache-2.0

package obj2sheet

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"time"
)

// Writer writes the spreadsheet consisting of the sheets created
// with NewSheet. The write finishes when Close is called.
//
// The writer SHOULD allow writing to separate sheets concurrently,
// and document if it does not provide this functionality.
type Writer interface {
	io.Closer
	NewSheet(name string, cols []Column) (Sheet, error)
}

// Sheet should be Closed when finished.
type Sheet interface {
	io.Closer
	AppendRow(values ...any) error
}

// Sink receives the cells of a workbook in any order.
//
// Unlike Writer, a Sink allows writing any cell of any sheet,
// which is what the object printer needs for vertically expanded fields.
type Sink interface {
	// Sheet returns the sheet with the given name, creating it on first call.
	Sheet(name string) (CellSheet, error)
	// Finalize writes the whole workbook to w.
	Finalize(w io.Writer) error
}

// CellSheet is one sheet of a Sink.
type CellSheet interface {
	// SetCell sets the cell at the zero-based row and column.
	// The value is nil, int64, uint64, float64, string, bool or time.Time.
	SetCell(row, col int, value any, role Role) error
	// LastRow returns the last written row, -1 for an empty sheet.
	LastRow() int
}

// Role is the styling role of a cell.
type Role uint8

const (
	RoleNone Role = iota
	RoleHeader
	RoleIdentity
	RoleDate
)

func (r Role) String() string {
	switch r {
	case RoleHeader:
		return "header"
	case RoleIdentity:
		return "identity"
	case RoleDate:
		return "date"
	default:
		return "none"
	}
}

// Style returns the visual style of the role.
func (r Role) Style() Style {
	switch r {
	case RoleHeader:
		return Style{FontBold: true, Fill: "FFFF00"}
	case RoleIdentity:
		return Style{Fill: "C0C0C0"}
	case RoleDate:
		return Style{Format: "m/d/yy"}
	default:
		return Style{}
	}
}

// Style is a style for a column/row/cell.
type Style struct {
	// Format is the number format
	Format string
	// Fill is the RGB hex background color, empty for none.
	Fill string
	// FontBold is true if the font is bold
	FontBold bool
}

// IsZero reports whether the style is the default one.
func (s Style) IsZero() bool { return s == Style{} }

// Column contains the Name of the column and header's style and column's style.
type Column struct {
	Name           string
	Header, Column Style
}

var (
	ErrTooManyRows      = errors.New("too many rows")
	ErrUnsupportedValue = errors.New("unsupported value")
)

// Number is a string that contains a number.
type Number string

// FormatValue formats a cell value as text: dates without a clock part
// as 2006-01-02, numbers without exponent.
func FormatValue(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case Number:
		return string(x)
	case time.Time:
		if x.IsZero() {
			return ""
		}
		if x.Hour() == 0 && x.Minute() == 0 && x.Second() == 0 && x.Nanosecond() == 0 {
			return x.Format("2006-01-02")
		}
		return x.Format(time.RFC3339)
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case int64:
		return strconv.FormatInt(x, 10)
	case uint64:
		return strconv.FormatUint(x, 10)
	case bool:
		return strconv.FormatBool(x)
	case fmt.Stringer:
		return x.String()
	}
	return fmt.Sprint(v)
}
