// Package sheets defines the tabular store the price tracker reads
// wishlists from and writes results back to. The first row of a sheet
// is its header; rows below are addressed 1-based in spreadsheet style
// ("A2:E10").
package sheets

import (
	"context"
	"fmt"
)

// Row maps a header column name to the cell value in that column.
type Row map[string]string

type Store interface {
	// Header returns the ordered column names of the first row.
	Header(ctx context.Context, sheet string) ([]string, error)
	// ReadAll returns every data row below the header, in order.
	ReadAll(ctx context.Context, sheet string) ([]Row, error)
	// EnsureColumn appends the column to the header if absent.
	EnsureColumn(ctx context.Context, sheet string, column string) error
	// WriteRange overwrites the rectangle between the two cell
	// references (inclusive) with the given row-major values.
	WriteRange(ctx context.Context, sheet string, topLeft, bottomRight string, rows [][]string) error
}

// ColumnLetter converts a 1-based column index to its letter coordinate
// (1 -> A, 26 -> Z, 27 -> AA). Base 26 with no zero digit.
func ColumnLetter(index int) string {
	if index < 1 {
		return ""
	}
	var letters []byte
	for index > 0 {
		index--
		letters = append([]byte{byte('A' + index%26)}, letters...)
		index /= 26
	}
	return string(letters)
}

// CellRef renders a 1-based (column, row) pair as a cell reference.
func CellRef(column, row int) string {
	return fmt.Sprintf("%s%d", ColumnLetter(column), row)
}

// ParseCellRef is the inverse of CellRef.
func ParseCellRef(ref string) (column, row int, err error) {
	i := 0
	for i < len(ref) && ref[i] >= 'A' && ref[i] <= 'Z' {
		column = column*26 + int(ref[i]-'A') + 1
		i++
	}
	if i == 0 || i == len(ref) {
		return 0, 0, fmt.Errorf("malformed cell reference %q", ref)
	}
	for ; i < len(ref); i++ {
		if ref[i] < '0' || ref[i] > '9' {
			return 0, 0, fmt.Errorf("malformed cell reference %q", ref)
		}
		row = row*10 + int(ref[i]-'0')
	}
	if row < 1 {
		return 0, 0, fmt.Errorf("malformed cell reference %q", ref)
	}
	return column, row, nil
}
