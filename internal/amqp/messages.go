package amqp

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Operation is the kind of ledger mutation an event reports.
type Operation string

const (
	OpCreated Operation = "created"
	OpUpdated Operation = "updated"
	OpDeleted Operation = "deleted"
)

// Entity is the record type an event refers to.
type Entity string

const (
	EntityTransaction Entity = "transaction"
	EntityCategory    Entity = "category"
)

// LedgerChanged announces a committed write. Dates holds every effective
// date the write touched (old and new for an update) so consumers can
// refresh exactly the affected periods. It is empty for category events.
type LedgerChanged struct {
	EventID   string    `json:"event_id"`
	Entity    Entity    `json:"entity"`
	Operation Operation `json:"operation"`
	ID        int64     `json:"id"`
	Dates     []string  `json:"dates,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

func NewLedgerChanged(entity Entity, op Operation, id int64, dates ...string) *LedgerChanged {
	return &LedgerChanged{
		EventID:   uuid.NewString(),
		Entity:    entity,
		Operation: op,
		ID:        id,
		Dates:     dates,
		Timestamp: time.Now(),
	}
}

func (m *LedgerChanged) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

func LedgerChangedFromJSON(data []byte) (*LedgerChanged, error) {
	var msg LedgerChanged
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	if msg.Entity != EntityTransaction && msg.Entity != EntityCategory {
		return nil, fmt.Errorf("unknown entity %q", msg.Entity)
	}
	return &msg, nil
}
