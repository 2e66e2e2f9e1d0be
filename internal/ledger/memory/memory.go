package memory

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"dompet/internal/core"
)

// Store keeps the whole ledger in process memory. It is the default backend
// for local use and the fixture for service tests.
type Store struct {
	mu       sync.RWMutex
	txs      map[int64]core.Transaction
	cats     map[int64]core.Category
	settings map[string]string
	nextTx   int64
	nextCat  int64
	now      func() time.Time
}

func New(cats []core.Category) *Store {
	s := &Store{
		txs:      map[int64]core.Transaction{},
		cats:     map[int64]core.Category{},
		settings: map[string]string{},
		now:      time.Now,
	}
	for _, c := range dedupeCategories(cats) {
		s.nextCat++
		c.ID = s.nextCat
		s.cats[c.ID] = c
	}
	return s
}

var defaultCategories = []core.Category{
	{Name: "Gaji", Kind: core.Income, Icon: "briefcase", Color: "#4CAF50"},
	{Name: "Bonus", Kind: core.Income, Icon: "gift", Color: "#8BC34A"},
	{Name: "Makan", Kind: core.Expense, Icon: "utensils", Color: "#FF9800"},
	{Name: "Transportasi", Kind: core.Expense, Icon: "car", Color: "#2196F3"},
	{Name: "Belanja", Kind: core.Expense, Icon: "shopping-bag", Color: "#E91E63"},
	{Name: "Tagihan", Kind: core.Expense, Icon: "file-text", Color: "#9C27B0"},
}

// NewFromFiles seeds categories from base/seed_categories.txt, one
// "kind|name|icon|color" entry per line. Missing or empty files fall back to
// a built-in set.
func NewFromFiles(base string) *Store {
	cats := readCategories(filepath.Join(base, "seed_categories.txt"))
	if len(cats) == 0 {
		cats = defaultCategories
	}
	return New(cats)
}

func (s *Store) ListTransactions(_ context.Context) ([]core.Transaction, error) {
	s.mu.RLock()
	out := make([]core.Transaction, 0, len(s.txs))
	for _, t := range s.txs {
		out = append(out, t)
	}
	s.mu.RUnlock()
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Date != out[j].Date {
			return out[i].Date > out[j].Date
		}
		return out[i].ID > out[j].ID
	})
	return out, nil
}

func (s *Store) GetTransaction(_ context.Context, id int64) (core.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.txs[id]
	if !ok {
		return core.Transaction{}, fmt.Errorf("transaction %d: %w", id, core.ErrNotFound)
	}
	return t, nil
}

func (s *Store) CreateTransaction(_ context.Context, t core.Transaction) (core.Transaction, error) {
	if err := t.Validate(); err != nil {
		return core.Transaction{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextTx++
	t.ID = s.nextTx
	created := s.now()
	t.CreatedAt = &created
	s.txs[t.ID] = t
	return t, nil
}

func (s *Store) UpdateTransaction(_ context.Context, t core.Transaction) (core.Transaction, error) {
	if err := t.Validate(); err != nil {
		return core.Transaction{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	old, ok := s.txs[t.ID]
	if !ok {
		return core.Transaction{}, fmt.Errorf("transaction %d: %w", t.ID, core.ErrNotFound)
	}
	t.CreatedAt = old.CreatedAt
	s.txs[t.ID] = t
	return t, nil
}

func (s *Store) DeleteTransaction(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.txs[id]; !ok {
		return fmt.Errorf("transaction %d: %w", id, core.ErrNotFound)
	}
	delete(s.txs, id)
	return nil
}

func (s *Store) ListCategories(_ context.Context, kind *core.Kind) ([]core.Category, error) {
	s.mu.RLock()
	out := make([]core.Category, 0, len(s.cats))
	for _, c := range s.cats {
		if kind != nil && c.Kind != *kind {
			continue
		}
		out = append(out, c)
	}
	s.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *Store) GetCategory(_ context.Context, id int64) (core.Category, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.cats[id]
	if !ok {
		return core.Category{}, fmt.Errorf("category %d: %w", id, core.ErrNotFound)
	}
	return c, nil
}

func (s *Store) CreateCategory(_ context.Context, c core.Category) (core.Category, error) {
	if err := c.Validate(); err != nil {
		return core.Category{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextCat++
	c.ID = s.nextCat
	s.cats[c.ID] = c
	return c, nil
}

func (s *Store) UpdateCategory(_ context.Context, c core.Category) (core.Category, error) {
	if err := c.Validate(); err != nil {
		return core.Category{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.cats[c.ID]; !ok {
		return core.Category{}, fmt.Errorf("category %d: %w", c.ID, core.ErrNotFound)
	}
	s.cats[c.ID] = c
	return c, nil
}

func (s *Store) DeleteCategory(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.cats[id]; !ok {
		return fmt.Errorf("category %d: %w", id, core.ErrNotFound)
	}
	delete(s.cats, id)
	return nil
}

func (s *Store) GetSetting(_ context.Context, key string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.settings[key]
	if !ok {
		return "", fmt.Errorf("setting %q: %w", key, core.ErrNotFound)
	}
	return v, nil
}

func (s *Store) SetSetting(_ context.Context, key, value string) error {
	if strings.TrimSpace(key) == "" {
		return core.ErrSettingKeyBlank
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.settings[key] = value
	return nil
}

func (s *Store) Ping(context.Context) error { return nil }

func (s *Store) Close() error { return nil }

func readCategories(path string) []core.Category {
	f, err := os.Open(path)
	if err != nil {
		return nil
	}
	defer f.Close()
	var out []core.Category
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		parts := strings.Split(line, "|")
		for len(parts) < 4 {
			parts = append(parts, "")
		}
		kind, err := core.ParseKind(parts[0])
		if err != nil {
			continue
		}
		out = append(out, core.Category{
			Kind:  kind,
			Name:  strings.TrimSpace(parts[1]),
			Icon:  strings.TrimSpace(parts[2]),
			Color: strings.TrimSpace(parts[3]),
		})
	}
	return out
}

// dedupeCategories drops blank names and repeated (kind, name) pairs,
// preserving input order.
func dedupeCategories(in []core.Category) []core.Category {
	seen := map[string]struct{}{}
	out := make([]core.Category, 0, len(in))
	for _, c := range in {
		c.Name = strings.TrimSpace(c.Name)
		if c.Name == "" {
			continue
		}
		key := string(c.Kind) + "|" + c.Name
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, c)
	}
	return out
}
