package worker

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"testing"
	"time"

	"dompet/internal/amqp"
)

type recordingSyncer struct {
	calls []string
	fail  map[string]bool
}

func (r *recordingSyncer) SyncMonth(_ context.Context, year int, month time.Month) error {
	call := fmt.Sprintf("month %d-%02d", year, int(month))
	r.calls = append(r.calls, call)
	if r.fail[call] {
		return errors.New("publish failed")
	}
	return nil
}

func (r *recordingSyncer) SyncYear(_ context.Context, year int) error {
	call := fmt.Sprintf("year %d", year)
	r.calls = append(r.calls, call)
	if r.fail[call] {
		return errors.New("publish failed")
	}
	return nil
}

type countingInvalidator struct{ n int }

func (c *countingInvalidator) Invalidate(context.Context) { c.n++ }

func fixedNow() time.Time { return time.Date(2024, 7, 15, 12, 0, 0, 0, time.Local) }

func TestHandleLedgerChanged(t *testing.T) {
	tests := []struct {
		name string
		msg  *amqp.LedgerChanged
		want []string
	}{
		{
			name: "created transaction",
			msg:  amqp.NewLedgerChanged(amqp.EntityTransaction, amqp.OpCreated, 1, "2024-03-05"),
			want: []string{"month 2024-03", "year 2024"},
		},
		{
			name: "update moving across years",
			msg:  amqp.NewLedgerChanged(amqp.EntityTransaction, amqp.OpUpdated, 1, "2024-01-02", "2023-12-31"),
			want: []string{"month 2023-12", "month 2024-01", "year 2023", "year 2024"},
		},
		{
			name: "update within one month",
			msg:  amqp.NewLedgerChanged(amqp.EntityTransaction, amqp.OpUpdated, 1, "2024-03-01", "2024-03-31"),
			want: []string{"month 2024-03", "year 2024"},
		},
		{
			name: "category change refreshes current year",
			msg:  amqp.NewLedgerChanged(amqp.EntityCategory, amqp.OpDeleted, 4),
			want: []string{"year 2024"},
		},
		{
			name: "no usable dates",
			msg:  amqp.NewLedgerChanged(amqp.EntityTransaction, amqp.OpDeleted, 9, "garbage"),
			want: []string{"year 2024"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			syncer := &recordingSyncer{}
			inv := &countingInvalidator{}
			w := NewSyncWorker(syncer, inv)
			w.now = fixedNow

			if err := w.HandleLedgerChanged(context.Background(), tt.msg); err != nil {
				t.Fatalf("HandleLedgerChanged: %v", err)
			}
			if !reflect.DeepEqual(syncer.calls, tt.want) {
				t.Errorf("calls = %v, want %v", syncer.calls, tt.want)
			}
			if inv.n != 1 {
				t.Errorf("expected one invalidation, got %d", inv.n)
			}
		})
	}
}

func TestHandleLedgerChanged_ContinuesAfterFailure(t *testing.T) {
	syncer := &recordingSyncer{fail: map[string]bool{"month 2023-12": true}}
	w := NewSyncWorker(syncer, nil)
	w.now = fixedNow

	msg := amqp.NewLedgerChanged(amqp.EntityTransaction, amqp.OpUpdated, 1, "2023-12-31", "2024-01-02")
	if err := w.HandleLedgerChanged(context.Background(), msg); err == nil {
		t.Fatal("expected error so the message is requeued")
	}
	if len(syncer.calls) != 4 {
		t.Errorf("remaining periods should still be synced, calls = %v", syncer.calls)
	}
}

func TestStartupSyncCheck(t *testing.T) {
	syncer := &recordingSyncer{}
	w := NewSyncWorker(syncer, nil)
	w.now = fixedNow

	if err := w.StartupSyncCheck(context.Background()); err != nil {
		t.Fatalf("StartupSyncCheck: %v", err)
	}
	if !reflect.DeepEqual(syncer.calls, []string{"year 2024"}) {
		t.Errorf("calls = %v", syncer.calls)
	}

	syncer.fail = map[string]bool{"year 2024": true}
	if err := w.StartupSyncCheck(context.Background()); err == nil {
		t.Error("expected error")
	}
}
