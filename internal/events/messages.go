package events

import (
	"encoding/json"
	"time"
)

const (
	ActionCreated = "transaction.created"
	ActionDeleted = "transaction.deleted"
)

// LedgerEvent is the lightweight message published after a ledger write.
// Consumers that need the full entry fetch it from the store; the message
// carries only enough to address it.
type LedgerEvent struct {
	Action        string    `json:"action"`
	TransactionID string    `json:"transactionId"`
	UserID        string    `json:"userId"`
	Timestamp     time.Time `json:"timestamp"`
}

func NewLedgerEvent(action, transactionID, userID string) *LedgerEvent {
	return &LedgerEvent{
		Action:        action,
		TransactionID: transactionID,
		UserID:        userID,
		Timestamp:     time.Now(),
	}
}

// ToJSON converts the event to JSON bytes.
func (e *LedgerEvent) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}

// LedgerEventFromJSON creates an event from JSON bytes.
func LedgerEventFromJSON(data []byte) (*LedgerEvent, error) {
	var e LedgerEvent
	if err := json.Unmarshal(data, &e); err != nil {
		return nil, err
	}
	return &e, nil
}
