package storage

import (
	"context"
	"database/sql"
)

type DBTX interface {
	ExecContext(context.Context, string, ...interface{}) (sql.Result, error)
	PrepareContext(context.Context, string) (*sql.Stmt, error)
	QueryContext(context.Context, string, ...interface{}) (*sql.Rows, error)
	QueryRowContext(context.Context, string, ...interface{}) *sql.Row
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

// Row types mirror the tables one to one.
type (
	Transaction struct {
		ID          int64
		Kind        string
		AmountCents int64
		CategoryID  int64
		Description string
		Date        string
		CreatedAt   string
	}

	Category struct {
		ID    int64
		Name  string
		Kind  string
		Icon  string
		Color string
	}
)
