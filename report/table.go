package report

import (
	"fmt"
	"io"
	"strings"
)

// Align selects which side of a column a value is padded on
type Align int

const (
	AlignLeft Align = iota
	AlignRight
)

// ColumnSpec defines a column's properties
type ColumnSpec struct {
	Header string
	Width  int // Fixed column width, 0 leaves the value unpadded
	Align  Align
}

// Table writes fixed-width rows as they are produced. Nothing is buffered, so
// column widths never depend on the data.
type Table struct {
	w         io.Writer
	columns   []ColumnSpec
	separator string
}

// NewTable creates a new table writing to w with the given column specifications
func NewTable(w io.Writer, cols ...ColumnSpec) *Table {
	return &Table{
		w:         w,
		columns:   cols,
		separator: "-",
	}
}

// WriteHeader writes the column headers and a separator line
func (t *Table) WriteHeader() error {
	headers := make([]string, len(t.columns))
	width := 0
	for i, col := range t.columns {
		headers[i] = col.Header
		width += max(col.Width, len(col.Header)) + 1
	}
	if _, err := fmt.Fprintln(t.w, t.FormatRow(headers...)); err != nil {
		return err
	}

	_, err := fmt.Fprintln(t.w, strings.Repeat(t.separator, width-1))
	return err
}

// FormatRow renders one row. Missing cells are blank, values wider than their
// column are not truncated.
func (t *Table) FormatRow(cells ...string) string {
	formatted := make([]string, len(t.columns))
	for i, col := range t.columns {
		var val string
		if i < len(cells) {
			val = cells[i]
		}
		formatted[i] = pad(val, col.Width, col.Align)
	}
	return strings.TrimRight(strings.Join(formatted, " "), " ")
}

// WriteRow formats and writes one row
func (t *Table) WriteRow(cells ...string) error {
	_, err := fmt.Fprintln(t.w, t.FormatRow(cells...))
	return err
}

// pad pads a string to the given width
func pad(s string, width int, align Align) string {
	if len(s) >= width {
		return s
	}
	fill := strings.Repeat(" ", width-len(s))
	if align == AlignRight {
		return fill + s
	}
	return s + fill
}
