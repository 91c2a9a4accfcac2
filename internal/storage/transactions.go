package storage

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"buchhaltung/internal/audit"
	"buchhaltung/internal/core"
)

const (
	SortDateDesc = "date_desc"
	SortDateAsc  = "date_asc"

	// DefaultListLimit applies when the caller gives no limit; MaxListLimit
	// caps whatever the caller asks for.
	DefaultListLimit = 100
	MaxListLimit     = 1000
)

// ListFilter narrows and pages a transaction listing. Zero values mean
// "no filter". AccountID matches both the owning account and, for
// transfers, the destination account.
type ListFilter struct {
	Year       int
	Month      int
	Type       core.TransactionType
	CategoryID int64
	AccountID  int64
	Search     string
	Sort       string
	Limit      int
	Offset     int
}

// Normalize returns the filter with limit and offset clamped to the values
// the query will actually use, so callers can echo the effective page bounds.
func (f ListFilter) Normalize() ListFilter {
	switch {
	case f.Limit <= 0:
		f.Limit = DefaultListLimit
	case f.Limit > MaxListLimit:
		f.Limit = MaxListLimit
	}
	if f.Offset < 0 {
		f.Offset = 0
	}
	return f
}

const txColumns = `id, date, type, description, amount_cents, net_amount_cents, tax_amount_cents,
	tax_treatment, tax_rate, category_id, account_id, transfer_to_account_id, linked_asset_id,
	notes, created_at, updated_at`

func (r *Repository) CreateTransaction(ctx context.Context, t *core.Transaction) error {
	now := time.Now().UTC()
	return r.writeTx(ctx, func(tx *sql.Tx) error {
		if err := checkTransactionRefs(ctx, tx, t); err != nil {
			return err
		}

		res, err := tx.ExecContext(ctx, `
			INSERT INTO transactions (date, type, description, amount_cents, net_amount_cents, tax_amount_cents,
				tax_treatment, tax_rate, category_id, account_id, transfer_to_account_id, linked_asset_id,
				notes, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			t.Date.String(), string(t.Type), t.Description,
			cents(t.Amount), cents(t.NetAmount), cents(t.TaxAmount),
			string(t.TaxTreatment), t.TaxRate.String(),
			t.CategoryID, t.AccountID, t.TransferToAccountID, t.LinkedAssetID,
			t.Notes, fmtTime(now), fmtTime(now))
		if err != nil {
			return fmt.Errorf("insert transaction: %w", err)
		}
		id, err := res.LastInsertId()
		if err != nil {
			return fmt.Errorf("transaction id: %w", err)
		}
		t.ID = id
		t.Amount = t.Amount.Round(2)
		t.CreatedAt, t.UpdatedAt = now, now
		return r.appendAudit(ctx, tx, audit.ActionCreate, "transaction", t.ID, nil, t)
	})
}

func (r *Repository) GetTransaction(ctx context.Context, id int64) (*core.Transaction, error) {
	t, err := scanTransaction(r.db.QueryRowContext(ctx,
		`SELECT `+txColumns+` FROM transactions WHERE id = ?`, id))
	if err == sql.ErrNoRows {
		return nil, core.NotFoundf("transaction %d not found", id)
	}
	if err != nil {
		return nil, fmt.Errorf("get transaction: %w", err)
	}

	docs, err := r.DocumentsForTransaction(ctx, id)
	if err != nil {
		return nil, err
	}
	t.Documents = docs
	return t, nil
}

// UpdateTransaction replaces all mutable fields of an existing row. The
// caller (mutation guard) is responsible for having decided that the row may
// be edited; the update itself is all-or-nothing.
func (r *Repository) UpdateTransaction(ctx context.Context, t *core.Transaction) error {
	return r.writeTx(ctx, func(tx *sql.Tx) error {
		old, err := scanTransaction(tx.QueryRowContext(ctx,
			`SELECT `+txColumns+` FROM transactions WHERE id = ?`, t.ID))
		if err == sql.ErrNoRows {
			return core.NotFoundf("transaction %d not found", t.ID)
		}
		if err != nil {
			return fmt.Errorf("load transaction: %w", err)
		}

		if err := checkTransactionRefs(ctx, tx, t); err != nil {
			return err
		}

		now := time.Now().UTC()
		_, err = tx.ExecContext(ctx, `
			UPDATE transactions SET date = ?, type = ?, description = ?, amount_cents = ?,
				net_amount_cents = ?, tax_amount_cents = ?, tax_treatment = ?, tax_rate = ?,
				category_id = ?, account_id = ?, notes = ?, updated_at = ?
			WHERE id = ?`,
			t.Date.String(), string(t.Type), t.Description, cents(t.Amount),
			cents(t.NetAmount), cents(t.TaxAmount), string(t.TaxTreatment), t.TaxRate.String(),
			t.CategoryID, t.AccountID, t.Notes, fmtTime(now), t.ID)
		if err != nil {
			return fmt.Errorf("update transaction: %w", err)
		}
		t.Amount = t.Amount.Round(2)
		t.CreatedAt = old.CreatedAt
		t.UpdatedAt = now
		return r.appendAudit(ctx, tx, audit.ActionUpdate, "transaction", t.ID, old, t)
	})
}

// DeleteTransaction removes the row and its document rows in one write
// transaction and returns the removed documents so the caller can clean up
// the stored files.
func (r *Repository) DeleteTransaction(ctx context.Context, id int64) ([]core.Document, error) {
	var docs []core.Document
	err := r.writeTx(ctx, func(tx *sql.Tx) error {
		old, err := scanTransaction(tx.QueryRowContext(ctx,
			`SELECT `+txColumns+` FROM transactions WHERE id = ?`, id))
		if err == sql.ErrNoRows {
			return core.NotFoundf("transaction %d not found", id)
		}
		if err != nil {
			return fmt.Errorf("load transaction: %w", err)
		}

		docs, err = documentsInTx(ctx, tx, id)
		if err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM documents WHERE transaction_id = ?`, id); err != nil {
			return fmt.Errorf("delete transaction documents: %w", err)
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM transactions WHERE id = ?`, id); err != nil {
			return fmt.Errorf("delete transaction: %w", err)
		}
		return r.appendAudit(ctx, tx, audit.ActionDelete, "transaction", id, old, nil)
	})
	if err != nil {
		return nil, err
	}
	return docs, nil
}

// ListTransactions returns the filtered page and the total match count
// before pagination.
func (r *Repository) ListTransactions(ctx context.Context, f ListFilter) ([]core.Transaction, int, error) {
	f = f.Normalize()
	where, args := buildFilter(f)

	var total int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM transactions`+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count transactions: %w", err)
	}

	order := ` ORDER BY date DESC, id ASC`
	if f.Sort == SortDateAsc {
		order = ` ORDER BY date ASC, id ASC`
	}

	query := `SELECT ` + txColumns + ` FROM transactions` + where + order + ` LIMIT ? OFFSET ?`
	rows, err := r.db.QueryContext(ctx, query, append(args, f.Limit, f.Offset)...)
	if err != nil {
		return nil, 0, fmt.Errorf("list transactions: %w", err)
	}
	defer rows.Close()

	var transactions []core.Transaction
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan transaction: %w", err)
		}
		transactions = append(transactions, *t)
	}
	return transactions, total, rows.Err()
}

// YearTransactions returns every transaction of the given year in date
// order, without pagination. Used by the summary aggregator.
func (r *Repository) YearTransactions(ctx context.Context, year int) ([]core.Transaction, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+txColumns+` FROM transactions
		 WHERE CAST(substr(date, 1, 4) AS INTEGER) = ?
		 ORDER BY date ASC, id ASC`, year)
	if err != nil {
		return nil, fmt.Errorf("query year transactions: %w", err)
	}
	defer rows.Close()

	var transactions []core.Transaction
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		transactions = append(transactions, *t)
	}
	return transactions, rows.Err()
}

func buildFilter(f ListFilter) (string, []any) {
	var conds []string
	var args []any

	if f.Year != 0 {
		conds = append(conds, `CAST(substr(date, 1, 4) AS INTEGER) = ?`)
		args = append(args, f.Year)
	}
	if f.Month != 0 {
		conds = append(conds, `CAST(substr(date, 6, 2) AS INTEGER) = ?`)
		args = append(args, f.Month)
	}
	if f.Type.Valid() {
		conds = append(conds, `type = ?`)
		args = append(args, string(f.Type))
	}
	if f.CategoryID != 0 {
		conds = append(conds, `category_id = ?`)
		args = append(args, f.CategoryID)
	}
	if f.AccountID != 0 {
		conds = append(conds, `(account_id = ? OR transfer_to_account_id = ?)`)
		args = append(args, f.AccountID, f.AccountID)
	}
	if s := strings.TrimSpace(f.Search); s != "" {
		like := "%" + strings.ToLower(s) + "%"
		conds = append(conds, `(LOWER(description) LIKE ? OR LOWER(notes) LIKE ?)`)
		args = append(args, like, like)
	}

	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

// checkTransactionRefs verifies foreign references inside the write
// transaction so a concurrent delete cannot slip between check and insert.
func checkTransactionRefs(ctx context.Context, tx *sql.Tx, t *core.Transaction) error {
	var exists bool
	if err := tx.QueryRowContext(ctx, `SELECT EXISTS(SELECT 1 FROM accounts WHERE id = ?)`, t.AccountID).Scan(&exists); err != nil {
		return fmt.Errorf("check account: %w", err)
	}
	if !exists {
		return core.NotFoundf("account %d not found", t.AccountID)
	}

	if t.TransferToAccountID != nil {
		if err := tx.QueryRowContext(ctx, `SELECT EXISTS(SELECT 1 FROM accounts WHERE id = ?)`, *t.TransferToAccountID).Scan(&exists); err != nil {
			return fmt.Errorf("check destination account: %w", err)
		}
		if !exists {
			return core.NotFoundf("account %d not found", *t.TransferToAccountID)
		}
	}

	if t.CategoryID != nil {
		if err := tx.QueryRowContext(ctx, `SELECT EXISTS(SELECT 1 FROM categories WHERE id = ?)`, *t.CategoryID).Scan(&exists); err != nil {
			return fmt.Errorf("check category: %w", err)
		}
		if !exists {
			return core.NotFoundf("category %d not found", *t.CategoryID)
		}
	}
	return nil
}

func scanTransaction(row rowScanner) (*core.Transaction, error) {
	var t core.Transaction
	var date, txType, treatment, rate, createdAt, updatedAt string
	var amountCents, netCents, taxCents int64
	if err := row.Scan(&t.ID, &date, &txType, &t.Description, &amountCents, &netCents, &taxCents,
		&treatment, &rate, &t.CategoryID, &t.AccountID, &t.TransferToAccountID, &t.LinkedAssetID,
		&t.Notes, &createdAt, &updatedAt); err != nil {
		return nil, err
	}

	parsed, err := core.ParseDate(date)
	if err != nil {
		return nil, fmt.Errorf("parse stored date %q: %w", date, err)
	}
	t.Date = parsed
	t.Type = core.TransactionType(txType)
	t.Amount = fromCents(amountCents)
	t.NetAmount = fromCents(netCents)
	t.TaxAmount = fromCents(taxCents)
	t.TaxTreatment = core.Treatment(treatment)
	t.TaxRate = parseRate(rate)
	t.CreatedAt = parseTime(createdAt)
	t.UpdatedAt = parseTime(updatedAt)
	return &t, nil
}
