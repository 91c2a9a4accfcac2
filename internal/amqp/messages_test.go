package amqp

import (
	"testing"
	"time"
)

func TestLedgerEventMessage_JSON(t *testing.T) {
	timestamp := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	msg := &LedgerEventMessage{
		Action:     "create",
		EntityType: "transaction",
		EntityID:   42,
		Year:       2025,
		Timestamp:  timestamp,
	}

	body, err := msg.ToJSON()
	if err != nil {
		t.Fatalf("ToJSON() error = %v", err)
	}

	parsed, err := LedgerEventMessageFromJSON(body)
	if err != nil {
		t.Fatalf("LedgerEventMessageFromJSON() error = %v", err)
	}

	if parsed.Action != msg.Action || parsed.EntityType != msg.EntityType || parsed.EntityID != msg.EntityID || parsed.Year != msg.Year {
		t.Errorf("round trip mismatch: %+v", parsed)
	}
	if !parsed.Timestamp.Equal(timestamp) {
		t.Errorf("Timestamp = %v, want %v", parsed.Timestamp, timestamp)
	}
}

func TestNewLedgerEventMessage(t *testing.T) {
	msg := NewLedgerEventMessage("delete", "account", 7, 2025)

	if msg.Action != "delete" || msg.EntityType != "account" || msg.EntityID != 7 {
		t.Errorf("unexpected message fields: %+v", msg)
	}
	if msg.Timestamp.IsZero() {
		t.Error("Timestamp should not be zero")
	}
}

func TestLedgerEventMessage_InvalidJSON(t *testing.T) {
	if _, err := LedgerEventMessageFromJSON([]byte(`{"entity_id": "x"}`)); err == nil {
		t.Error("expected error for invalid JSON")
	}
}
