package amqp

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rabbitmq/amqp091-go"
)

// unreachableClient fails every dial without touching the network.
func unreachableClient() *Client {
	return &Client{url: "bogus://broker", exchangeName: "ledger", queueName: "ledger.changes"}
}

func TestPublishLedgerChanged_OpensCircuitAfterFailures(t *testing.T) {
	client := unreachableClient()
	msg := NewLedgerChanged(EntityTransaction, OpCreated, 1, "2024-03-05")

	for i := 1; i <= maxFailures; i++ {
		err := client.PublishLedgerChanged(context.Background(), msg)
		if err == nil || errors.Is(err, ErrCircuitOpen) {
			t.Fatalf("publish %d: expected a dial failure, got %v", i, err)
		}
		if !strings.Contains(err.Error(), "dial AMQP") {
			t.Fatalf("publish %d: unexpected error %v", i, err)
		}
	}
	if got := atomic.LoadInt64(&client.failureCount); got != maxFailures {
		t.Fatalf("failureCount = %d, want %d", got, maxFailures)
	}

	err := client.PublishLedgerChanged(context.Background(), msg)
	if !errors.Is(err, ErrCircuitOpen) {
		t.Fatalf("expected ErrCircuitOpen once the breaker trips, got %v", err)
	}
}

func TestPublishLedgerChanged_HalfOpen(t *testing.T) {
	msg := NewLedgerChanged(EntityCategory, OpDeleted, 7)

	t.Run("open circuit short-circuits", func(t *testing.T) {
		client := unreachableClient()
		atomic.StoreInt32(&client.state, StateOpen)
		client.lastFailure = time.Now()
		if err := client.PublishLedgerChanged(context.Background(), msg); !errors.Is(err, ErrCircuitOpen) {
			t.Fatalf("expected ErrCircuitOpen, got %v", err)
		}
	})

	t.Run("expired open circuit retries and reopens on failure", func(t *testing.T) {
		client := unreachableClient()
		atomic.StoreInt32(&client.state, StateOpen)
		client.lastFailure = time.Now().Add(-openTimeout - time.Second)

		err := client.PublishLedgerChanged(context.Background(), msg)
		if err == nil || errors.Is(err, ErrCircuitOpen) {
			t.Fatalf("expected a retried dial, got %v", err)
		}
		if atomic.LoadInt32(&client.state) != StateOpen {
			t.Fatal("a failed retry should reopen the circuit")
		}
	})

	t.Run("success closes the circuit", func(t *testing.T) {
		client := unreachableClient()
		atomic.StoreInt32(&client.state, StateHalfOpen)
		atomic.StoreInt64(&client.failureCount, maxFailures)
		client.recordSuccess()
		if client.isCircuitOpen() || atomic.LoadInt64(&client.failureCount) != 0 {
			t.Fatal("success should reset the breaker")
		}
	})
}

func TestPublishLedgerChanged_CancelledContext(t *testing.T) {
	client := unreachableClient()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := client.PublishLedgerChanged(ctx, NewLedgerChanged(EntityTransaction, OpUpdated, 3))
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if atomic.LoadInt64(&client.failureCount) != 0 {
		t.Fatal("a cancelled publish must not count as a broker failure")
	}
}

func TestConsumerBackoffIsCapped(t *testing.T) {
	if got := exponentialBackoff(0); got != time.Second {
		t.Fatalf("first retry waits %v, want 1s", got)
	}
	prev := time.Duration(0)
	for attempt := 0; attempt < 64; attempt++ {
		d := exponentialBackoff(attempt)
		if d < prev {
			t.Fatalf("backoff shrank at attempt %d: %v < %v", attempt, d, prev)
		}
		if d > maxBackoff {
			t.Fatalf("backoff %v at attempt %d exceeds cap", d, attempt)
		}
		prev = d
	}
	if prev != maxBackoff {
		t.Fatalf("backoff settles at %v, want %v", prev, maxBackoff)
	}
}

func TestConsumerRetriesOnlyConnectionErrors(t *testing.T) {
	dialErr := unreachableClient().PublishLedgerChanged(context.Background(), NewLedgerChanged(EntityTransaction, OpCreated, 1))

	tests := []struct {
		name  string
		err   error
		retry bool
	}{
		{"nil", nil, false},
		{"dial failure from publish", dialErr, true},
		{"broker closed", fmt.Errorf("consume: %w", amqp091.ErrClosed), true},
		{"closed delivery channel", errors.New("message channel closed"), true},
		{"peer reset", errors.New("read tcp: unexpected EOF"), true},
		{"handler bug", errors.New("invalid ledger change"), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := isConnectionError(tt.err); got != tt.retry {
				t.Errorf("isConnectionError(%v) = %v, want %v", tt.err, got, tt.retry)
			}
		})
	}
}

func TestNewLedgerChanged(t *testing.T) {
	msg := NewLedgerChanged(EntityTransaction, OpUpdated, 42, "2024-01-31", "2024-02-01")

	if msg.ID != 42 || msg.Entity != EntityTransaction || msg.Operation != OpUpdated {
		t.Errorf("unexpected message %+v", msg)
	}
	if len(msg.Dates) != 2 {
		t.Errorf("Dates = %v", msg.Dates)
	}
	if msg.EventID == "" {
		t.Error("EventID should be set")
	}
	if other := NewLedgerChanged(EntityTransaction, OpUpdated, 42); other.EventID == msg.EventID {
		t.Error("EventID should be unique per event")
	}
	if time.Since(msg.Timestamp) > time.Second {
		t.Error("Timestamp should be recent")
	}
}

func TestLedgerChanged_JSON(t *testing.T) {
	msg := &LedgerChanged{
		EventID:   "e1",
		Entity:    EntityCategory,
		Operation: OpDeleted,
		ID:        7,
		Timestamp: time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC),
	}

	b, err := msg.ToJSON()
	if err != nil {
		t.Fatalf("ToJSON() error = %v", err)
	}
	parsed, err := LedgerChangedFromJSON(b)
	if err != nil {
		t.Fatalf("LedgerChangedFromJSON() error = %v", err)
	}
	if parsed.EventID != "e1" || parsed.Entity != EntityCategory || parsed.ID != 7 || len(parsed.Dates) != 0 {
		t.Errorf("parsed = %+v", parsed)
	}
	if !parsed.Timestamp.Equal(msg.Timestamp) {
		t.Errorf("Timestamp = %v, want %v", parsed.Timestamp, msg.Timestamp)
	}
}

func TestLedgerChanged_InvalidJSON(t *testing.T) {
	for name, body := range map[string]string{
		"wrong type":     `{"id": "not_a_number", "entity": "transaction"}`,
		"unknown entity": `{"id": 1, "entity": "budget"}`,
	} {
		if _, err := LedgerChangedFromJSON([]byte(body)); err == nil {
			t.Errorf("%s: expected error", name)
		}
	}
}
