// Package audit implements a hash-chained audit trail for ledger mutations.
// Every entry carries the hash of its predecessor, so tampering with any
// recorded mutation breaks the chain from that point on.
package audit

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
)

const (
	ActionCreate = "create"
	ActionUpdate = "update"
	ActionDelete = "delete"
)

// GenesisHash is the previous-hash value of the first chain entry.
const GenesisHash = "0000000000000000000000000000000000000000000000000000000000000000"

// Entry is one audit-trail record. OldValues/NewValues are JSON snapshots
// of the mutated entity; either may be empty depending on the action.
type Entry struct {
	ID           int64     `json:"id"`
	Timestamp    time.Time `json:"timestamp"`
	Source       string    `json:"source"`
	Action       string    `json:"action"`
	EntityType   string    `json:"entity_type"`
	EntityID     int64     `json:"entity_id"`
	OldValues    string    `json:"old_values,omitempty"`
	NewValues    string    `json:"new_values,omitempty"`
	PreviousHash string    `json:"previous_hash"`
	EntryHash    string    `json:"entry_hash"`
}

// ComputeHash returns the SHA-256 over a deterministic concatenation of the
// entry fields.
func ComputeHash(previousHash string, timestamp time.Time, action, entityType string, entityID int64, oldJSON, newJSON string) string {
	payload := strings.Join([]string{
		previousHash,
		timestamp.UTC().Format(time.RFC3339Nano),
		action,
		entityType,
		strconv.FormatInt(entityID, 10),
		oldJSON,
		newJSON,
	}, "|")
	sum := sha256.Sum256([]byte(payload))
	return hex.EncodeToString(sum[:])
}

// Seal links the entry to its predecessor and computes its own hash.
func (e *Entry) Seal(previousHash string) {
	e.PreviousHash = previousHash
	e.EntryHash = ComputeHash(previousHash, e.Timestamp, e.Action, e.EntityType, e.EntityID, e.OldValues, e.NewValues)
}

// Snapshot serializes an entity for the old/new value columns.
func Snapshot(v any) (string, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("marshal audit snapshot: %w", err)
	}
	return string(raw), nil
}

// Verify walks the chain in insertion order and returns the index of the
// first broken entry, or -1 if the chain is intact.
func Verify(entries []Entry) int {
	prev := GenesisHash
	for i, e := range entries {
		if e.PreviousHash != prev {
			return i
		}
		want := ComputeHash(e.PreviousHash, e.Timestamp, e.Action, e.EntityType, e.EntityID, e.OldValues, e.NewValues)
		if e.EntryHash != want {
			return i
		}
		prev = e.EntryHash
	}
	return -1
}
