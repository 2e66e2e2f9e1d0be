// Package ledger declares the storage ports the services depend on. Every
// backend (memory, sqlite, postgres) implements Store.
package ledger

import (
	"context"

	"dompet/internal/core"
)

type (
	TransactionReader interface {
		// ListTransactions returns every transaction, newest date first.
		ListTransactions(ctx context.Context) ([]core.Transaction, error)
		GetTransaction(ctx context.Context, id int64) (core.Transaction, error)
	}

	TransactionWriter interface {
		// CreateTransaction assigns ID and CreatedAt and returns the stored row.
		CreateTransaction(ctx context.Context, t core.Transaction) (core.Transaction, error)
		UpdateTransaction(ctx context.Context, t core.Transaction) (core.Transaction, error)
		DeleteTransaction(ctx context.Context, id int64) error
	}

	CategoryReader interface {
		// ListCategories filters by kind when kind is non-nil.
		ListCategories(ctx context.Context, kind *core.Kind) ([]core.Category, error)
		GetCategory(ctx context.Context, id int64) (core.Category, error)
	}

	CategoryWriter interface {
		CreateCategory(ctx context.Context, c core.Category) (core.Category, error)
		UpdateCategory(ctx context.Context, c core.Category) (core.Category, error)
		// DeleteCategory leaves referencing transactions untouched.
		DeleteCategory(ctx context.Context, id int64) error
	}

	// SettingsStore is a flat key/value store. Missing keys yield core.ErrNotFound.
	SettingsStore interface {
		GetSetting(ctx context.Context, key string) (string, error)
		SetSetting(ctx context.Context, key, value string) error
	}

	Store interface {
		TransactionReader
		TransactionWriter
		CategoryReader
		CategoryWriter
		SettingsStore
		Ping(ctx context.Context) error
		Close() error
	}
)

// Well-known setting keys.
const (
	SettingDefaultGranularity = "default_granularity"
	SettingCurrency           = "currency"
)
