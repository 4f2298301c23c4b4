package amqp

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// EventKind names a committed change to a user's ledger.
type EventKind string

const (
	TransactionCreated EventKind = "transaction.created"
	TransactionDeleted EventKind = "transaction.deleted"
	GoalCreated        EventKind = "goal.created"
	GoalDeleted        EventKind = "goal.deleted"
	GoalDeposited      EventKind = "goal.deposited"
)

func (k EventKind) Valid() bool {
	switch k {
	case TransactionCreated, TransactionDeleted, GoalCreated, GoalDeleted, GoalDeposited:
		return true
	}
	return false
}

// LedgerEvent is published after a write commits. It carries only
// identifiers; consumers re-read the ledger for the full state.
type LedgerEvent struct {
	Kind      EventKind        `json:"kind"`
	UserID    string           `json:"user_id"`
	EntityID  string           `json:"entity_id"`
	Amount    *decimal.Decimal `json:"amount,omitempty"`
	Timestamp time.Time        `json:"timestamp"`
}

func NewLedgerEvent(kind EventKind, userID, entityID string) *LedgerEvent {
	return &LedgerEvent{
		Kind:      kind,
		UserID:    userID,
		EntityID:  entityID,
		Timestamp: time.Now().UTC(),
	}
}

// WithAmount attaches the monetary amount involved in the change.
func (e *LedgerEvent) WithAmount(amount decimal.Decimal) *LedgerEvent {
	e.Amount = &amount
	return e
}

func (e *LedgerEvent) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}

// LedgerEventFromJSON decodes and sanity-checks a message body.
func LedgerEventFromJSON(data []byte) (*LedgerEvent, error) {
	var e LedgerEvent
	if err := json.Unmarshal(data, &e); err != nil {
		return nil, err
	}
	if !e.Kind.Valid() {
		return nil, fmt.Errorf("unknown event kind %q", e.Kind)
	}
	if e.UserID == "" {
		return nil, fmt.Errorf("event %s has no user id", e.Kind)
	}
	return &e, nil
}
