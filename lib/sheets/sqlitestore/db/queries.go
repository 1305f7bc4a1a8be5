package db

import (
	"context"
	"database/sql"
)

type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func New(db DBTX) *Queries {
	return &Queries{db: db}
}

type Queries struct {
	db DBTX
}

func (q *Queries) WithTx(tx *sql.Tx) *Queries {
	return &Queries{db: tx}
}

type Cell struct {
	Sheet string
	Row   int64
	Col   int64
	Value string
}

const getSheetCells = `
SELECT sheet, row, col, value FROM cells
WHERE sheet = ?
ORDER BY row, col
`

func (q *Queries) GetSheetCells(ctx context.Context, sheet string) ([]Cell, error) {
	rows, err := q.db.QueryContext(ctx, getSheetCells, sheet)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var cells []Cell
	for rows.Next() {
		var c Cell
		if err := rows.Scan(&c.Sheet, &c.Row, &c.Col, &c.Value); err != nil {
			return nil, err
		}
		cells = append(cells, c)
	}
	return cells, rows.Err()
}

const getRowCells = `
SELECT sheet, row, col, value FROM cells
WHERE sheet = ? AND row = ?
ORDER BY col
`

func (q *Queries) GetRowCells(ctx context.Context, sheet string, row int64) ([]Cell, error) {
	rows, err := q.db.QueryContext(ctx, getRowCells, sheet, row)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var cells []Cell
	for rows.Next() {
		var c Cell
		if err := rows.Scan(&c.Sheet, &c.Row, &c.Col, &c.Value); err != nil {
			return nil, err
		}
		cells = append(cells, c)
	}
	return cells, rows.Err()
}

const upsertCell = `
INSERT INTO cells (sheet, row, col, value)
VALUES (?, ?, ?, ?)
ON CONFLICT (sheet, row, col) DO UPDATE SET value = excluded.value
`

type UpsertCellParams struct {
	Sheet string
	Row   int64
	Col   int64
	Value string
}

func (q *Queries) UpsertCell(ctx context.Context, arg UpsertCellParams) error {
	_, err := q.db.ExecContext(ctx, upsertCell, arg.Sheet, arg.Row, arg.Col, arg.Value)
	return err
}
