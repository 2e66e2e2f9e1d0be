//go:build integration

package postgres

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"dompet/internal/core"
)

// Run with: DOMPET_TEST_DATABASE_URL=postgres://... go test -tags=integration ./internal/storage/postgres
func openTestRepo(t *testing.T) *Repository {
	t.Helper()
	dsn := os.Getenv("DOMPET_TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("DOMPET_TEST_DATABASE_URL not set")
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	repo, err := Open(ctx, dsn)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { repo.Close() })
	return repo
}

func TestRepositoryRoundTrip(t *testing.T) {
	repo := openTestRepo(t)
	ctx := context.Background()

	created, err := repo.CreateTransaction(ctx, core.Transaction{
		Kind: core.Income, Amount: core.Money{Cents: 200000}, CategoryID: 1, Date: "2024-03-10",
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	t.Cleanup(func() { repo.DeleteTransaction(context.Background(), created.ID) })

	got, err := repo.GetTransaction(ctx, created.ID)
	if err != nil || got.Amount.Cents != 200000 || got.CreatedAt == nil {
		t.Fatalf("get: %+v err=%v", got, err)
	}
	if _, err := repo.GetTransaction(ctx, -1); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	if err := repo.SetSetting(ctx, "test_key", "v1"); err != nil {
		t.Fatalf("set setting: %v", err)
	}
	if v, err := repo.GetSetting(ctx, "test_key"); err != nil || v != "v1" {
		t.Fatalf("get setting: %q err=%v", v, err)
	}
}
