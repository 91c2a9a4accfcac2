package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"buchhaltung/internal/audit"
	"buchhaltung/internal/core"
)

func (r *Repository) AddDocument(ctx context.Context, d *core.Document) error {
	now := time.Now().UTC()
	return r.writeTx(ctx, func(tx *sql.Tx) error {
		var exists bool
		if err := tx.QueryRowContext(ctx, `SELECT EXISTS(SELECT 1 FROM transactions WHERE id = ?)`, d.TransactionID).Scan(&exists); err != nil {
			return fmt.Errorf("check transaction: %w", err)
		}
		if !exists {
			return core.NotFoundf("transaction %d not found", d.TransactionID)
		}

		res, err := tx.ExecContext(ctx, `
			INSERT INTO documents (filename, original_filename, transaction_id, created_at)
			VALUES (?, ?, ?, ?)`,
			d.Filename, d.OriginalFilename, d.TransactionID, fmtTime(now))
		if err != nil {
			return fmt.Errorf("insert document: %w", err)
		}
		id, err := res.LastInsertId()
		if err != nil {
			return fmt.Errorf("document id: %w", err)
		}
		d.ID = id
		d.CreatedAt = now
		return r.appendAudit(ctx, tx, audit.ActionCreate, "document", d.ID, nil, d)
	})
}

func (r *Repository) GetDocument(ctx context.Context, id int64) (*core.Document, error) {
	d, err := scanDocument(r.db.QueryRowContext(ctx, `
		SELECT id, filename, original_filename, transaction_id, created_at
		FROM documents WHERE id = ?`, id))
	if err == sql.ErrNoRows {
		return nil, core.NotFoundf("document %d not found", id)
	}
	if err != nil {
		return nil, fmt.Errorf("get document: %w", err)
	}
	return d, nil
}

// DeleteDocument removes the row and returns it so the caller can remove the
// stored file.
func (r *Repository) DeleteDocument(ctx context.Context, id int64) (*core.Document, error) {
	var doc *core.Document
	err := r.writeTx(ctx, func(tx *sql.Tx) error {
		d, err := scanDocument(tx.QueryRowContext(ctx, `
			SELECT id, filename, original_filename, transaction_id, created_at
			FROM documents WHERE id = ?`, id))
		if err == sql.ErrNoRows {
			return core.NotFoundf("document %d not found", id)
		}
		if err != nil {
			return fmt.Errorf("load document: %w", err)
		}

		if _, err := tx.ExecContext(ctx, `DELETE FROM documents WHERE id = ?`, id); err != nil {
			return fmt.Errorf("delete document: %w", err)
		}
		doc = d
		return r.appendAudit(ctx, tx, audit.ActionDelete, "document", id, d, nil)
	})
	if err != nil {
		return nil, err
	}
	return doc, nil
}

func (r *Repository) DocumentsForTransaction(ctx context.Context, transactionID int64) ([]core.Document, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, filename, original_filename, transaction_id, created_at
		FROM documents WHERE transaction_id = ? ORDER BY id ASC`, transactionID)
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}
	defer rows.Close()
	return collectDocuments(rows)
}

func documentsInTx(ctx context.Context, tx *sql.Tx, transactionID int64) ([]core.Document, error) {
	rows, err := tx.QueryContext(ctx, `
		SELECT id, filename, original_filename, transaction_id, created_at
		FROM documents WHERE transaction_id = ? ORDER BY id ASC`, transactionID)
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}
	defer rows.Close()
	return collectDocuments(rows)
}

func collectDocuments(rows *sql.Rows) ([]core.Document, error) {
	var docs []core.Document
	for rows.Next() {
		d, err := scanDocument(rows)
		if err != nil {
			return nil, fmt.Errorf("scan document: %w", err)
		}
		docs = append(docs, *d)
	}
	return docs, rows.Err()
}

func scanDocument(row rowScanner) (*core.Document, error) {
	var d core.Document
	var createdAt string
	if err := row.Scan(&d.ID, &d.Filename, &d.OriginalFilename, &d.TransactionID, &createdAt); err != nil {
		return nil, err
	}
	d.CreatedAt = parseTime(createdAt)
	return &d, nil
}
