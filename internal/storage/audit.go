package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"buchhaltung/internal/audit"
)

// appendAudit writes one hash-chained audit entry inside the caller's write
// transaction, so the mutation and its trail commit or roll back together.
func (r *Repository) appendAudit(ctx context.Context, tx *sql.Tx, action, entityType string, entityID int64, oldValue, newValue any) error {
	prev := audit.GenesisHash
	err := tx.QueryRowContext(ctx, `SELECT entry_hash FROM audit_log ORDER BY id DESC LIMIT 1`).Scan(&prev)
	if err != nil && err != sql.ErrNoRows {
		return fmt.Errorf("read previous audit hash: %w", err)
	}

	entry := audit.Entry{
		Timestamp:  time.Now().UTC(),
		Source:     r.source,
		Action:     action,
		EntityType: entityType,
		EntityID:   entityID,
	}
	if oldValue != nil {
		if entry.OldValues, err = audit.Snapshot(oldValue); err != nil {
			return err
		}
	}
	if newValue != nil {
		if entry.NewValues, err = audit.Snapshot(newValue); err != nil {
			return err
		}
	}
	entry.Seal(prev)

	_, err = tx.ExecContext(ctx, `
		INSERT INTO audit_log (timestamp, source, action, entity_type, entity_id, old_values, new_values, previous_hash, entry_hash)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		fmtTime(entry.Timestamp), entry.Source, entry.Action, entry.EntityType, entry.EntityID,
		entry.OldValues, entry.NewValues, entry.PreviousHash, entry.EntryHash)
	if err != nil {
		return fmt.Errorf("insert audit entry: %w", err)
	}
	return nil
}

// AuditEntries returns the full audit trail in insertion order.
func (r *Repository) AuditEntries(ctx context.Context) ([]audit.Entry, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, timestamp, source, action, entity_type, entity_id, old_values, new_values, previous_hash, entry_hash
		FROM audit_log ORDER BY id ASC`)
	if err != nil {
		return nil, fmt.Errorf("query audit log: %w", err)
	}
	defer rows.Close()

	var entries []audit.Entry
	for rows.Next() {
		var e audit.Entry
		var ts string
		if err := rows.Scan(&e.ID, &ts, &e.Source, &e.Action, &e.EntityType, &e.EntityID, &e.OldValues, &e.NewValues, &e.PreviousHash, &e.EntryHash); err != nil {
			return nil, fmt.Errorf("scan audit entry: %w", err)
		}
		e.Timestamp = parseTime(ts)
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// VerifyAuditChain checks hash-chain integrity and returns the index of the
// first broken entry, or -1 when the chain is intact.
func (r *Repository) VerifyAuditChain(ctx context.Context) (int, error) {
	entries, err := r.AuditEntries(ctx)
	if err != nil {
		return 0, err
	}
	return audit.Verify(entries), nil
}
