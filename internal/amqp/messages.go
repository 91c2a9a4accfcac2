package amqp

import (
	"encoding/json"
	"time"
)

// LedgerEventMessage announces a committed ledger mutation. It carries only
// the entity reference and the affected year; the worker fetches current
// state from the database, so stale or duplicate deliveries are harmless.
type LedgerEventMessage struct {
	Action     string    `json:"action"`
	EntityType string    `json:"entity_type"`
	EntityID   int64     `json:"entity_id"`
	Year       int       `json:"year"`
	Timestamp  time.Time `json:"timestamp"`
}

func NewLedgerEventMessage(action, entityType string, entityID int64, year int) *LedgerEventMessage {
	return &LedgerEventMessage{
		Action:     action,
		EntityType: entityType,
		EntityID:   entityID,
		Year:       year,
		Timestamp:  time.Now(),
	}
}

func (m *LedgerEventMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

func LedgerEventMessageFromJSON(data []byte) (*LedgerEventMessage, error) {
	var msg LedgerEventMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
