package storage

import (
	"context"
)

const transactionColumns = `id, kind, amount_cents, category_id, description, date, created_at`

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanTransaction(s scanner) (Transaction, error) {
	var t Transaction
	err := s.Scan(&t.ID, &t.Kind, &t.AmountCents, &t.CategoryID, &t.Description, &t.Date, &t.CreatedAt)
	return t, err
}

const listTransactions = `SELECT ` + transactionColumns + ` FROM transactions ORDER BY date DESC, id DESC`

func (q *Queries) ListTransactions(ctx context.Context) ([]Transaction, error) {
	rows, err := q.db.QueryContext(ctx, listTransactions)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	items := []Transaction{}
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, t)
	}
	return items, rows.Err()
}

const getTransaction = `SELECT ` + transactionColumns + ` FROM transactions WHERE id = ?`

func (q *Queries) GetTransaction(ctx context.Context, id int64) (Transaction, error) {
	return scanTransaction(q.db.QueryRowContext(ctx, getTransaction, id))
}

const createTransaction = `INSERT INTO transactions (kind, amount_cents, category_id, description, date, created_at)
VALUES (?, ?, ?, ?, ?, ?)
RETURNING ` + transactionColumns

type CreateTransactionParams struct {
	Kind        string
	AmountCents int64
	CategoryID  int64
	Description string
	Date        string
	CreatedAt   string
}

func (q *Queries) CreateTransaction(ctx context.Context, arg CreateTransactionParams) (Transaction, error) {
	row := q.db.QueryRowContext(ctx, createTransaction,
		arg.Kind, arg.AmountCents, arg.CategoryID, arg.Description, arg.Date, arg.CreatedAt)
	return scanTransaction(row)
}

const updateTransaction = `UPDATE transactions
SET kind = ?, amount_cents = ?, category_id = ?, description = ?, date = ?
WHERE id = ?
RETURNING ` + transactionColumns

type UpdateTransactionParams struct {
	Kind        string
	AmountCents int64
	CategoryID  int64
	Description string
	Date        string
	ID          int64
}

func (q *Queries) UpdateTransaction(ctx context.Context, arg UpdateTransactionParams) (Transaction, error) {
	row := q.db.QueryRowContext(ctx, updateTransaction,
		arg.Kind, arg.AmountCents, arg.CategoryID, arg.Description, arg.Date, arg.ID)
	return scanTransaction(row)
}

const deleteTransaction = `DELETE FROM transactions WHERE id = ?`

func (q *Queries) DeleteTransaction(ctx context.Context, id int64) (int64, error) {
	res, err := q.db.ExecContext(ctx, deleteTransaction, id)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

const listCategories = `SELECT id, name, kind, icon, color FROM categories ORDER BY id`

const listCategoriesByKind = `SELECT id, name, kind, icon, color FROM categories WHERE kind = ? ORDER BY id`

func (q *Queries) ListCategories(ctx context.Context, kind string) ([]Category, error) {
	query, args := listCategories, []interface{}{}
	if kind != "" {
		query, args = listCategoriesByKind, []interface{}{kind}
	}
	rows, err := q.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	items := []Category{}
	for rows.Next() {
		var c Category
		if err := rows.Scan(&c.ID, &c.Name, &c.Kind, &c.Icon, &c.Color); err != nil {
			return nil, err
		}
		items = append(items, c)
	}
	return items, rows.Err()
}

const getCategory = `SELECT id, name, kind, icon, color FROM categories WHERE id = ?`

func (q *Queries) GetCategory(ctx context.Context, id int64) (Category, error) {
	var c Category
	err := q.db.QueryRowContext(ctx, getCategory, id).Scan(&c.ID, &c.Name, &c.Kind, &c.Icon, &c.Color)
	return c, err
}

const createCategory = `INSERT INTO categories (name, kind, icon, color) VALUES (?, ?, ?, ?)
RETURNING id, name, kind, icon, color`

func (q *Queries) CreateCategory(ctx context.Context, arg Category) (Category, error) {
	var c Category
	err := q.db.QueryRowContext(ctx, createCategory, arg.Name, arg.Kind, arg.Icon, arg.Color).
		Scan(&c.ID, &c.Name, &c.Kind, &c.Icon, &c.Color)
	return c, err
}

const updateCategory = `UPDATE categories SET name = ?, kind = ?, icon = ?, color = ? WHERE id = ?
RETURNING id, name, kind, icon, color`

func (q *Queries) UpdateCategory(ctx context.Context, arg Category) (Category, error) {
	var c Category
	err := q.db.QueryRowContext(ctx, updateCategory, arg.Name, arg.Kind, arg.Icon, arg.Color, arg.ID).
		Scan(&c.ID, &c.Name, &c.Kind, &c.Icon, &c.Color)
	return c, err
}

const deleteCategory = `DELETE FROM categories WHERE id = ?`

func (q *Queries) DeleteCategory(ctx context.Context, id int64) (int64, error) {
	res, err := q.db.ExecContext(ctx, deleteCategory, id)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

const getSetting = `SELECT value FROM settings WHERE key = ?`

func (q *Queries) GetSetting(ctx context.Context, key string) (string, error) {
	var v string
	err := q.db.QueryRowContext(ctx, getSetting, key).Scan(&v)
	return v, err
}

const upsertSetting = `INSERT INTO settings (key, value) VALUES (?, ?)
ON CONFLICT (key) DO UPDATE SET value = excluded.value`

func (q *Queries) UpsertSetting(ctx context.Context, key, value string) error {
	_, err := q.db.ExecContext(ctx, upsertSetting, key, value)
	return err
}
