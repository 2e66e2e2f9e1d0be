package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"dompet/internal/core"

	_ "modernc.org/sqlite"
)

type SQLiteRepository struct {
	db      *sql.DB
	queries *Queries
	now     func() time.Time
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	// A single writer avoids SQLITE_BUSY under concurrent requests.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{db: db, queries: New(db), now: time.Now}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

func (r *SQLiteRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

func (r *SQLiteRepository) ListTransactions(ctx context.Context) ([]core.Transaction, error) {
	rows, err := r.queries.ListTransactions(ctx)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	out := make([]core.Transaction, len(rows))
	for i, row := range rows {
		out[i] = ToCoreTransaction(row)
	}
	return out, nil
}

func (r *SQLiteRepository) GetTransaction(ctx context.Context, id int64) (core.Transaction, error) {
	row, err := r.queries.GetTransaction(ctx, id)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("get transaction %d: %w", id, notFound(err))
	}
	return ToCoreTransaction(row), nil
}

func (r *SQLiteRepository) CreateTransaction(ctx context.Context, t core.Transaction) (core.Transaction, error) {
	if err := t.Validate(); err != nil {
		return core.Transaction{}, err
	}
	row, err := r.queries.CreateTransaction(ctx, CreateTransactionParams{
		Kind:        string(t.Kind),
		AmountCents: t.Amount.Cents,
		CategoryID:  t.CategoryID,
		Description: t.Description,
		Date:        t.Date,
		CreatedAt:   r.now().UTC().Format(time.RFC3339Nano),
	})
	if err != nil {
		return core.Transaction{}, fmt.Errorf("create transaction: %w", err)
	}

	slog.DebugContext(ctx, "Transaction saved to SQLite",
		"id", row.ID,
		"kind", row.Kind,
		"amount_cents", row.AmountCents,
		"date", row.Date)

	return ToCoreTransaction(row), nil
}

func (r *SQLiteRepository) UpdateTransaction(ctx context.Context, t core.Transaction) (core.Transaction, error) {
	if err := t.Validate(); err != nil {
		return core.Transaction{}, err
	}
	row, err := r.queries.UpdateTransaction(ctx, UpdateTransactionParams{
		Kind:        string(t.Kind),
		AmountCents: t.Amount.Cents,
		CategoryID:  t.CategoryID,
		Description: t.Description,
		Date:        t.Date,
		ID:          t.ID,
	})
	if err != nil {
		return core.Transaction{}, fmt.Errorf("update transaction %d: %w", t.ID, notFound(err))
	}
	return ToCoreTransaction(row), nil
}

func (r *SQLiteRepository) DeleteTransaction(ctx context.Context, id int64) error {
	n, err := r.queries.DeleteTransaction(ctx, id)
	if err != nil {
		return fmt.Errorf("delete transaction %d: %w", id, err)
	}
	if n == 0 {
		return fmt.Errorf("delete transaction %d: %w", id, core.ErrNotFound)
	}
	return nil
}

func (r *SQLiteRepository) ListCategories(ctx context.Context, kind *core.Kind) ([]core.Category, error) {
	var k string
	if kind != nil {
		k = string(*kind)
	}
	rows, err := r.queries.ListCategories(ctx, k)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	out := make([]core.Category, len(rows))
	for i, row := range rows {
		out[i] = ToCoreCategory(row)
	}
	return out, nil
}

func (r *SQLiteRepository) GetCategory(ctx context.Context, id int64) (core.Category, error) {
	row, err := r.queries.GetCategory(ctx, id)
	if err != nil {
		return core.Category{}, fmt.Errorf("get category %d: %w", id, notFound(err))
	}
	return ToCoreCategory(row), nil
}

func (r *SQLiteRepository) CreateCategory(ctx context.Context, c core.Category) (core.Category, error) {
	if err := c.Validate(); err != nil {
		return core.Category{}, err
	}
	row, err := r.queries.CreateCategory(ctx, FromCoreCategory(c))
	if err != nil {
		return core.Category{}, fmt.Errorf("create category: %w", err)
	}
	return ToCoreCategory(row), nil
}

func (r *SQLiteRepository) UpdateCategory(ctx context.Context, c core.Category) (core.Category, error) {
	if err := c.Validate(); err != nil {
		return core.Category{}, err
	}
	row, err := r.queries.UpdateCategory(ctx, FromCoreCategory(c))
	if err != nil {
		return core.Category{}, fmt.Errorf("update category %d: %w", c.ID, notFound(err))
	}
	return ToCoreCategory(row), nil
}

func (r *SQLiteRepository) DeleteCategory(ctx context.Context, id int64) error {
	n, err := r.queries.DeleteCategory(ctx, id)
	if err != nil {
		return fmt.Errorf("delete category %d: %w", id, err)
	}
	if n == 0 {
		return fmt.Errorf("delete category %d: %w", id, core.ErrNotFound)
	}
	return nil
}

func (r *SQLiteRepository) GetSetting(ctx context.Context, key string) (string, error) {
	v, err := r.queries.GetSetting(ctx, key)
	if err != nil {
		return "", fmt.Errorf("get setting %q: %w", key, notFound(err))
	}
	return v, nil
}

func (r *SQLiteRepository) SetSetting(ctx context.Context, key, value string) error {
	if strings.TrimSpace(key) == "" {
		return core.ErrSettingKeyBlank
	}
	if err := r.queries.UpsertSetting(ctx, key, value); err != nil {
		return fmt.Errorf("set setting %q: %w", key, err)
	}
	return nil
}

func notFound(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return core.ErrNotFound
	}
	return err
}

// ToCoreTransaction converts a stored row. An unparseable created_at is
// dropped rather than failing the read.
func ToCoreTransaction(row Transaction) core.Transaction {
	t := core.Transaction{
		ID:          row.ID,
		Kind:        core.Kind(row.Kind),
		Amount:      core.Money{Cents: row.AmountCents},
		CategoryID:  row.CategoryID,
		Description: row.Description,
		Date:        row.Date,
	}
	if created, err := time.Parse(time.RFC3339Nano, row.CreatedAt); err == nil {
		t.CreatedAt = &created
	}
	return t
}

func ToCoreCategory(row Category) core.Category {
	return core.Category{
		ID:    row.ID,
		Name:  row.Name,
		Kind:  core.Kind(row.Kind),
		Icon:  row.Icon,
		Color: row.Color,
	}
}

func FromCoreCategory(c core.Category) Category {
	return Category{ID: c.ID, Name: c.Name, Kind: string(c.Kind), Icon: c.Icon, Color: c.Color}
}
