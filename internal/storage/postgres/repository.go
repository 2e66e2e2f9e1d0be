// Package postgres is the PostgreSQL ledger backend.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"dompet/internal/core"
	"dompet/internal/storage"
)

type Repository struct {
	pool *pgxpool.Pool
}

// Open connects to dsn, verifies the connection and migrates the schema.
func Open(ctx context.Context, dsn string) (*Repository, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	if err := RunMigrations(pool); err != nil {
		pool.Close()
		return nil, err
	}
	return &Repository{pool: pool}, nil
}

func (r *Repository) Close() error {
	r.pool.Close()
	return nil
}

func (r *Repository) Ping(ctx context.Context) error {
	return r.pool.Ping(ctx)
}

const transactionColumns = `id, kind, amount_cents, category_id, description, date, created_at`

func scanTransaction(row pgx.Row) (core.Transaction, error) {
	var (
		t       storage.Transaction
		created time.Time
	)
	if err := row.Scan(&t.ID, &t.Kind, &t.AmountCents, &t.CategoryID, &t.Description, &t.Date, &created); err != nil {
		return core.Transaction{}, err
	}
	out := storage.ToCoreTransaction(t)
	out.CreatedAt = &created
	return out, nil
}

func scanCategory(row pgx.Row) (core.Category, error) {
	var c storage.Category
	if err := row.Scan(&c.ID, &c.Name, &c.Kind, &c.Icon, &c.Color); err != nil {
		return core.Category{}, err
	}
	return storage.ToCoreCategory(c), nil
}

func (r *Repository) ListTransactions(ctx context.Context) ([]core.Transaction, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+transactionColumns+` FROM transactions ORDER BY date DESC, id DESC`)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	defer rows.Close()

	out := []core.Transaction{}
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func (r *Repository) GetTransaction(ctx context.Context, id int64) (core.Transaction, error) {
	t, err := scanTransaction(r.pool.QueryRow(ctx,
		`SELECT `+transactionColumns+` FROM transactions WHERE id = $1`, id))
	if err != nil {
		return core.Transaction{}, fmt.Errorf("get transaction %d: %w", id, notFound(err))
	}
	return t, nil
}

func (r *Repository) CreateTransaction(ctx context.Context, t core.Transaction) (core.Transaction, error) {
	if err := t.Validate(); err != nil {
		return core.Transaction{}, err
	}
	out, err := scanTransaction(r.pool.QueryRow(ctx,
		`INSERT INTO transactions (kind, amount_cents, category_id, description, date)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING `+transactionColumns,
		string(t.Kind), t.Amount.Cents, t.CategoryID, t.Description, t.Date,
	))
	if err != nil {
		return core.Transaction{}, fmt.Errorf("create transaction: %w", err)
	}
	return out, nil
}

func (r *Repository) UpdateTransaction(ctx context.Context, t core.Transaction) (core.Transaction, error) {
	if err := t.Validate(); err != nil {
		return core.Transaction{}, err
	}
	out, err := scanTransaction(r.pool.QueryRow(ctx,
		`UPDATE transactions
		 SET kind = $1, amount_cents = $2, category_id = $3, description = $4, date = $5
		 WHERE id = $6
		 RETURNING `+transactionColumns,
		string(t.Kind), t.Amount.Cents, t.CategoryID, t.Description, t.Date, t.ID,
	))
	if err != nil {
		return core.Transaction{}, fmt.Errorf("update transaction %d: %w", t.ID, notFound(err))
	}
	return out, nil
}

func (r *Repository) DeleteTransaction(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM transactions WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete transaction %d: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("delete transaction %d: %w", id, core.ErrNotFound)
	}
	return nil
}

func (r *Repository) ListCategories(ctx context.Context, kind *core.Kind) ([]core.Category, error) {
	query := `SELECT id, name, kind, icon, color FROM categories`
	var args []any
	if kind != nil {
		query += ` WHERE kind = $1`
		args = append(args, string(*kind))
	}
	rows, err := r.pool.Query(ctx, query+` ORDER BY id`, args...)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	defer rows.Close()

	out := []core.Category{}
	for rows.Next() {
		c, err := scanCategory(rows)
		if err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (r *Repository) GetCategory(ctx context.Context, id int64) (core.Category, error) {
	c, err := scanCategory(r.pool.QueryRow(ctx,
		`SELECT id, name, kind, icon, color FROM categories WHERE id = $1`, id))
	if err != nil {
		return core.Category{}, fmt.Errorf("get category %d: %w", id, notFound(err))
	}
	return c, nil
}

func (r *Repository) CreateCategory(ctx context.Context, c core.Category) (core.Category, error) {
	if err := c.Validate(); err != nil {
		return core.Category{}, err
	}
	out, err := scanCategory(r.pool.QueryRow(ctx,
		`INSERT INTO categories (name, kind, icon, color) VALUES ($1, $2, $3, $4)
		 RETURNING id, name, kind, icon, color`,
		c.Name, string(c.Kind), c.Icon, c.Color,
	))
	if err != nil {
		return core.Category{}, fmt.Errorf("create category: %w", err)
	}
	return out, nil
}

func (r *Repository) UpdateCategory(ctx context.Context, c core.Category) (core.Category, error) {
	if err := c.Validate(); err != nil {
		return core.Category{}, err
	}
	out, err := scanCategory(r.pool.QueryRow(ctx,
		`UPDATE categories SET name = $1, kind = $2, icon = $3, color = $4 WHERE id = $5
		 RETURNING id, name, kind, icon, color`,
		c.Name, string(c.Kind), c.Icon, c.Color, c.ID,
	))
	if err != nil {
		return core.Category{}, fmt.Errorf("update category %d: %w", c.ID, notFound(err))
	}
	return out, nil
}

func (r *Repository) DeleteCategory(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM categories WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete category %d: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("delete category %d: %w", id, core.ErrNotFound)
	}
	return nil
}

func (r *Repository) GetSetting(ctx context.Context, key string) (string, error) {
	var v string
	if err := r.pool.QueryRow(ctx, `SELECT value FROM settings WHERE key = $1`, key).Scan(&v); err != nil {
		return "", fmt.Errorf("get setting %q: %w", key, notFound(err))
	}
	return v, nil
}

func (r *Repository) SetSetting(ctx context.Context, key, value string) error {
	if strings.TrimSpace(key) == "" {
		return core.ErrSettingKeyBlank
	}
	_, err := r.pool.Exec(ctx,
		`INSERT INTO settings (key, value) VALUES ($1, $2)
		 ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value`,
		key, value,
	)
	if err != nil {
		return fmt.Errorf("set setting %q: %w", key, err)
	}
	return nil
}

func notFound(err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return core.ErrNotFound
	}
	return err
}
