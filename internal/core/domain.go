package core

import (
	"errors"
	"strings"
	"time"
)

const (
	Income  Kind = "income"
	Expense Kind = "expense"
)

type (
	// Kind tells whether a transaction or category adds to or subtracts from the balance.
	Kind string

	Money struct {
		Cents int64
	}

	Transaction struct {
		ID          int64 // 0 before persistence
		Kind        Kind
		Amount      Money // stored signed; aggregation uses Amount.Abs()
		CategoryID  int64
		Description string
		Date        string // ISO-8601 effective date, parsed lazily
		CreatedAt   *time.Time
	}

	Category struct {
		ID    int64
		Name  string
		Kind  Kind
		Icon  string
		Color string
	}
)

var (
	ErrInvalidKind     = errors.New("invalid kind")
	ErrInvalidAmount   = errors.New("invalid amount")
	ErrInvalidDate     = errors.New("invalid date")
	ErrInvalidCategory = errors.New("invalid category")
	ErrEmptyName       = errors.New("empty name")
	ErrDescriptionLong = errors.New("description too long (max 200 characters)")
	ErrNotFound        = errors.New("not found")
	ErrSettingKeyBlank = errors.New("empty setting key")
)

// ParseKind accepts "income"/"expense" in any case.
func ParseKind(s string) (Kind, error) {
	k := Kind(strings.ToLower(strings.TrimSpace(s)))
	if !k.IsValid() {
		return "", ErrInvalidKind
	}
	return k, nil
}

func (k Kind) IsValid() bool {
	switch k {
	case Income, Expense:
		return true
	default:
		return false
	}
}

func (k Kind) String() string {
	return string(k)
}

// Abs returns the magnitude of the amount.
func (m Money) Abs() Money {
	if m.Cents < 0 {
		return Money{Cents: -m.Cents}
	}
	return m
}

func (m Money) Add(o Money) Money {
	return Money{Cents: m.Cents + o.Cents}
}

func (m Money) Sub(o Money) Money {
	return Money{Cents: m.Cents - o.Cents}
}

// Signed returns the amount with the sign implied by kind: negative for expenses.
func Signed(kind Kind, m Money) Money {
	abs := m.Abs()
	if kind == Expense {
		return Money{Cents: -abs.Cents}
	}
	return abs
}

// Time parses the transaction's effective date. ok is false when the
// date is missing or malformed.
func (t Transaction) Time() (time.Time, bool) {
	ts, err := ParseDate(t.Date)
	if err != nil {
		return time.Time{}, false
	}
	return ts, true
}

func (t Transaction) Validate() error {
	if !t.Kind.IsValid() {
		return ErrInvalidKind
	}
	if t.Amount.Cents == 0 || t.Amount.Cents > MaxAmountCents || t.Amount.Cents < -MaxAmountCents {
		return ErrInvalidAmount
	}
	if t.CategoryID <= 0 {
		return ErrInvalidCategory
	}
	if _, err := ParseDate(t.Date); err != nil {
		return err
	}
	if len(t.Description) > 200 {
		return ErrDescriptionLong
	}
	return nil
}

func (c Category) Validate() error {
	if strings.TrimSpace(c.Name) == "" {
		return ErrEmptyName
	}
	if !c.Kind.IsValid() {
		return ErrInvalidKind
	}
	return nil
}
