// Package sqlitestore persists sheets as a sparse cell table in sqlite
// (local file or remote libsql), implementing the sheets.Store contract.
package sqlitestore

import (
	"context"
	"database/sql"
	"fmt"

	"pricewatch/lib/sheets"
	"pricewatch/lib/sheets/sqlitestore/db"
)

type Store struct {
	db  *sql.DB
	qry *db.Queries
}

// Schema is the DDL the backing database must carry.
var Schema = db.Schema

func New(database *sql.DB) Store {
	return Store{
		db:  database,
		qry: db.New(database),
	}
}

func (s Store) Header(ctx context.Context, sheet string) ([]string, error) {
	cells, err := s.qry.GetRowCells(ctx, sheet, 1)
	if err != nil {
		return nil, err
	}

	var header []string
	for _, cell := range cells {
		for int64(len(header)) < cell.Col-1 {
			header = append(header, "")
		}
		header = append(header, cell.Value)
	}
	return header, nil
}

func (s Store) ReadAll(ctx context.Context, sheet string) ([]sheets.Row, error) {
	header, err := s.Header(ctx, sheet)
	if err != nil {
		return nil, err
	}

	cells, err := s.qry.GetSheetCells(ctx, sheet)
	if err != nil {
		return nil, err
	}

	var maxRow int64 = 1
	for _, cell := range cells {
		if cell.Row > maxRow {
			maxRow = cell.Row
		}
	}

	// rows stay contiguous so row indexes line up with write-back
	// ranges, even when a sheet row holds no values
	rows := make([]sheets.Row, maxRow-1)
	for i := range rows {
		rows[i] = sheets.Row{}
	}
	for _, cell := range cells {
		if cell.Row < 2 {
			continue
		}
		if cell.Col < 1 || cell.Col > int64(len(header)) {
			continue
		}
		name := header[cell.Col-1]
		if name == "" {
			continue
		}
		rows[cell.Row-2][name] = cell.Value
	}
	return rows, nil
}

func (s Store) EnsureColumn(ctx context.Context, sheet string, column string) error {
	header, err := s.Header(ctx, sheet)
	if err != nil {
		return err
	}
	for _, name := range header {
		if name == column {
			return nil
		}
	}
	return s.qry.UpsertCell(ctx, db.UpsertCellParams{
		Sheet: sheet,
		Row:   1,
		Col:   int64(len(header)) + 1,
		Value: column,
	})
}

func (s Store) WriteRange(ctx context.Context, sheet string, topLeft, bottomRight string, rows [][]string) error {
	startCol, startRow, err := sheets.ParseCellRef(topLeft)
	if err != nil {
		return err
	}
	endCol, endRow, err := sheets.ParseCellRef(bottomRight)
	if err != nil {
		return err
	}
	if endCol < startCol || endRow < startRow {
		return fmt.Errorf("inverted range %s:%s", topLeft, bottomRight)
	}
	if len(rows) != endRow-startRow+1 {
		return fmt.Errorf(
			"range %s:%s spans %d rows, got %d",
			topLeft, bottomRight, endRow-startRow+1, len(rows),
		)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()
	txqry := s.qry.WithTx(tx)

	for i, row := range rows {
		if len(row) != endCol-startCol+1 {
			return fmt.Errorf(
				"range %s:%s spans %d columns, row %d has %d",
				topLeft, bottomRight, endCol-startCol+1, i, len(row),
			)
		}
		for j, value := range row {
			err := txqry.UpsertCell(ctx, db.UpsertCellParams{
				Sheet: sheet,
				Row:   int64(startRow + i),
				Col:   int64(startCol + j),
				Value: value,
			})
			if err != nil {
				return err
			}
		}
	}
	return tx.Commit()
}
