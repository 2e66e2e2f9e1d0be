package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"dompet/internal/amqp"
	"dompet/internal/core"
	"dompet/internal/ledger"
	"dompet/internal/period"
)

// EventPublisher announces committed ledger writes.
type EventPublisher interface {
	PublishLedgerChanged(ctx context.Context, msg *amqp.LedgerChanged) error
}

// Invalidator drops derived state after a write.
type Invalidator interface {
	Invalidate(ctx context.Context)
}

// LedgerService orchestrates writes across the store, derived-view caches
// and the event bus. The store is the source of truth: publish and cache
// failures are logged and never fail the write.
type LedgerService struct {
	store        ledger.Store
	events       EventPublisher
	invalidators []Invalidator
}

// NewLedgerService wires a store. events may be nil.
func NewLedgerService(store ledger.Store, events EventPublisher, invalidators ...Invalidator) *LedgerService {
	return &LedgerService{store: store, events: events, invalidators: invalidators}
}

func (s *LedgerService) ListTransactions(ctx context.Context) ([]core.Transaction, error) {
	return s.store.ListTransactions(ctx)
}

func (s *LedgerService) GetTransaction(ctx context.Context, id int64) (core.Transaction, error) {
	return s.store.GetTransaction(ctx, id)
}

// CreateTransaction stores t in canonical form: the amount carries the sign
// implied by its kind and the date is rewritten as local RFC3339.
func (s *LedgerService) CreateTransaction(ctx context.Context, t core.Transaction) (core.Transaction, error) {
	if err := s.prepare(ctx, &t); err != nil {
		return core.Transaction{}, err
	}
	created, err := s.store.CreateTransaction(ctx, t)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("save transaction: %w", err)
	}

	slog.InfoContext(ctx, "Transaction created",
		"transaction_id", created.ID,
		"kind", created.Kind,
		"amount_cents", created.Amount.Cents,
		"date", created.Date)

	s.changed(ctx, amqp.NewLedgerChanged(amqp.EntityTransaction, amqp.OpCreated, created.ID, created.Date))
	return created, nil
}

func (s *LedgerService) UpdateTransaction(ctx context.Context, t core.Transaction) (core.Transaction, error) {
	old, err := s.store.GetTransaction(ctx, t.ID)
	if err != nil {
		return core.Transaction{}, err
	}
	if err := s.prepare(ctx, &t); err != nil {
		return core.Transaction{}, err
	}
	updated, err := s.store.UpdateTransaction(ctx, t)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("update transaction: %w", err)
	}

	slog.InfoContext(ctx, "Transaction updated", "transaction_id", updated.ID)
	s.changed(ctx, amqp.NewLedgerChanged(amqp.EntityTransaction, amqp.OpUpdated, updated.ID, old.Date, updated.Date))
	return updated, nil
}

func (s *LedgerService) DeleteTransaction(ctx context.Context, id int64) error {
	old, err := s.store.GetTransaction(ctx, id)
	if err != nil {
		return err
	}
	if err := s.store.DeleteTransaction(ctx, id); err != nil {
		return fmt.Errorf("delete transaction: %w", err)
	}

	slog.InfoContext(ctx, "Transaction deleted", "transaction_id", id)
	s.changed(ctx, amqp.NewLedgerChanged(amqp.EntityTransaction, amqp.OpDeleted, id, old.Date))
	return nil
}

// prepare validates t and rewrites it into canonical form. The category
// must exist at write time; later deletions may still leave it dangling.
func (s *LedgerService) prepare(ctx context.Context, t *core.Transaction) error {
	when, err := core.ParseDate(t.Date)
	if err != nil {
		return err
	}
	t.Date = core.FormatDate(when)
	t.Amount = core.Signed(t.Kind, t.Amount)
	if err := t.Validate(); err != nil {
		return err
	}
	if _, err := s.store.GetCategory(ctx, t.CategoryID); err != nil {
		if errors.Is(err, core.ErrNotFound) {
			return fmt.Errorf("%w: category %d does not exist", core.ErrInvalidCategory, t.CategoryID)
		}
		return fmt.Errorf("check category: %w", err)
	}
	return nil
}

func (s *LedgerService) ListCategories(ctx context.Context, kind *core.Kind) ([]core.Category, error) {
	return s.store.ListCategories(ctx, kind)
}

func (s *LedgerService) GetCategory(ctx context.Context, id int64) (core.Category, error) {
	return s.store.GetCategory(ctx, id)
}

func (s *LedgerService) CreateCategory(ctx context.Context, c core.Category) (core.Category, error) {
	created, err := s.store.CreateCategory(ctx, c)
	if err != nil {
		return core.Category{}, fmt.Errorf("save category: %w", err)
	}
	slog.InfoContext(ctx, "Category created", "category_id", created.ID, "name", created.Name)
	s.changed(ctx, amqp.NewLedgerChanged(amqp.EntityCategory, amqp.OpCreated, created.ID))
	return created, nil
}

func (s *LedgerService) UpdateCategory(ctx context.Context, c core.Category) (core.Category, error) {
	updated, err := s.store.UpdateCategory(ctx, c)
	if err != nil {
		return core.Category{}, fmt.Errorf("update category: %w", err)
	}
	s.changed(ctx, amqp.NewLedgerChanged(amqp.EntityCategory, amqp.OpUpdated, updated.ID))
	return updated, nil
}

// DeleteCategory removes the category; its transactions are kept and fall
// back to the "Lainnya" bucket in rankings.
func (s *LedgerService) DeleteCategory(ctx context.Context, id int64) error {
	if err := s.store.DeleteCategory(ctx, id); err != nil {
		return fmt.Errorf("delete category: %w", err)
	}
	slog.InfoContext(ctx, "Category deleted", "category_id", id)
	s.changed(ctx, amqp.NewLedgerChanged(amqp.EntityCategory, amqp.OpDeleted, id))
	return nil
}

func (s *LedgerService) GetSetting(ctx context.Context, key string) (string, error) {
	return s.store.GetSetting(ctx, key)
}

// SetSetting stores value under key. Known keys are validated.
func (s *LedgerService) SetSetting(ctx context.Context, key, value string) error {
	if key == ledger.SettingDefaultGranularity {
		g, err := period.ParseGranularity(value)
		if err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidSetting, err)
		}
		value = g.String()
	}
	if err := s.store.SetSetting(ctx, key, value); err != nil {
		return fmt.Errorf("save setting: %w", err)
	}
	return nil
}

// DefaultGranularity reads the stored preference, falling back when unset
// or unreadable.
func (s *LedgerService) DefaultGranularity(ctx context.Context, fallback period.Granularity) period.Granularity {
	v, err := s.store.GetSetting(ctx, ledger.SettingDefaultGranularity)
	if err != nil {
		return fallback
	}
	g, err := period.ParseGranularity(v)
	if err != nil {
		return fallback
	}
	return g
}

var ErrInvalidSetting = errors.New("invalid setting value")

func (s *LedgerService) changed(ctx context.Context, msg *amqp.LedgerChanged) {
	for _, inv := range s.invalidators {
		inv.Invalidate(ctx)
	}
	if s.events == nil {
		slog.DebugContext(ctx, "Event bus not configured, skipping ledger change event")
		return
	}
	if err := s.events.PublishLedgerChanged(ctx, msg); err != nil {
		slog.ErrorContext(ctx, "Failed to publish ledger change",
			"event_id", msg.EventID,
			"entity", msg.Entity,
			"id", msg.ID,
			"error", err)
	}
}

func (s *LedgerService) Ping(ctx context.Context) error {
	return s.store.Ping(ctx)
}

// Close releases the store.
func (s *LedgerService) Close() error {
	if s.store == nil {
		return nil
	}
	if err := s.store.Close(); err != nil {
		return fmt.Errorf("close store: %w", err)
	}
	return nil
}
