// Package table parses tabular data and assembles answers from per-cell
// relevance scores.
package table

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
)

// Limits on accepted tables.
const (
	maxColumns   = 64
	maxRows      = 512
	maxCellBytes = 512
)

// Coordinate addresses one cell.
type Coordinate struct {
	Row int `json:"row"`
	Col int `json:"col"`
}

// Table is a parsed table: a header row and at least one data row, every
// row the same width.
type Table struct {
	Columns []string   `json:"columns"`
	Rows    [][]string `json:"rows"`
}

// Parse reads a CSV document with a header row.
func Parse(r io.Reader) (*Table, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, ErrEmptyTable
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadTable, err)
	}
	if len(header) > maxColumns {
		return nil, fmt.Errorf("%w: %d columns", ErrTooLarge, len(header))
	}

	var rows [][]string
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrBadTable, err)
		}
		if len(rows) == maxRows {
			return nil, fmt.Errorf("%w: more than %d rows", ErrTooLarge, maxRows)
		}
		for _, cell := range record {
			if len(cell) > maxCellBytes {
				return nil, fmt.Errorf("%w: cell of %d bytes", ErrTooLarge, len(cell))
			}
		}
		rows = append(rows, record)
	}
	if len(rows) == 0 {
		return nil, ErrEmptyTable
	}
	return &Table{Columns: header, Rows: rows}, nil
}

// ColumnCount returns the table's width.
func (t *Table) ColumnCount() int { return len(t.Columns) }

// RowCount returns the number of data rows.
func (t *Table) RowCount() int { return len(t.Rows) }

// CellCount returns the number of data cells.
func (t *Table) CellCount() int { return len(t.Rows) * len(t.Columns) }

// Cell returns the value at an in-range coordinate.
func (t *Table) Cell(c Coordinate) string { return t.Rows[c.Row][c.Col] }

// Coordinates lists every cell in row-major order. Encoders emit one
// feature row per entry, in this order.
func (t *Table) Coordinates() []Coordinate {
	coords := make([]Coordinate, 0, t.CellCount())
	for row := range t.Rows {
		for col := range t.Columns {
			coords = append(coords, Coordinate{Row: row, Col: col})
		}
	}
	return coords
}
