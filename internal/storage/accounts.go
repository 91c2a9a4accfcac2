package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"buchhaltung/internal/audit"
	"buchhaltung/internal/core"

	"github.com/shopspring/decimal"
)

// balanceExpr derives an account's balance from the transaction log:
// initial balance, plus income, minus expenses and outgoing transfers,
// plus incoming transfers.
const balanceExpr = `
	a.initial_balance_cents
	+ COALESCE((SELECT SUM(CASE t.type WHEN 'income' THEN t.amount_cents ELSE -t.amount_cents END)
	            FROM transactions t WHERE t.account_id = a.id), 0)
	+ COALESCE((SELECT SUM(t.amount_cents)
	            FROM transactions t WHERE t.transfer_to_account_id = a.id), 0)`

func (r *Repository) CreateAccount(ctx context.Context, a *core.Account) error {
	now := time.Now().UTC()
	return r.writeTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `
			INSERT INTO accounts (name, description, initial_balance_cents, sort_order, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?)`,
			a.Name, a.Description, cents(a.InitialBalance), a.SortOrder, fmtTime(now), fmtTime(now))
		if err != nil {
			return fmt.Errorf("insert account: %w", err)
		}
		id, err := res.LastInsertId()
		if err != nil {
			return fmt.Errorf("account id: %w", err)
		}
		a.ID = id
		a.InitialBalance = a.InitialBalance.Round(2)
		a.CreatedAt, a.UpdatedAt = now, now
		return r.appendAudit(ctx, tx, audit.ActionCreate, "account", a.ID, nil, a)
	})
}

func (r *Repository) GetAccount(ctx context.Context, id int64) (*core.Account, error) {
	a, err := scanAccount(r.db.QueryRowContext(ctx, `
		SELECT id, name, description, initial_balance_cents, sort_order, created_at, updated_at
		FROM accounts WHERE id = ?`, id))
	if err == sql.ErrNoRows {
		return nil, core.NotFoundf("account %d not found", id)
	}
	if err != nil {
		return nil, fmt.Errorf("get account: %w", err)
	}
	return a, nil
}

func (r *Repository) ListAccounts(ctx context.Context) ([]core.Account, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, name, description, initial_balance_cents, sort_order, created_at, updated_at
		FROM accounts ORDER BY sort_order, name`)
	if err != nil {
		return nil, fmt.Errorf("list accounts: %w", err)
	}
	defer rows.Close()

	var accounts []core.Account
	for rows.Next() {
		a, err := scanAccount(rows)
		if err != nil {
			return nil, fmt.Errorf("scan account: %w", err)
		}
		accounts = append(accounts, *a)
	}
	return accounts, rows.Err()
}

func (r *Repository) UpdateAccount(ctx context.Context, a *core.Account) error {
	return r.writeTx(ctx, func(tx *sql.Tx) error {
		old, err := scanAccount(tx.QueryRowContext(ctx, `
			SELECT id, name, description, initial_balance_cents, sort_order, created_at, updated_at
			FROM accounts WHERE id = ?`, a.ID))
		if err == sql.ErrNoRows {
			return core.NotFoundf("account %d not found", a.ID)
		}
		if err != nil {
			return fmt.Errorf("load account: %w", err)
		}

		now := time.Now().UTC()
		_, err = tx.ExecContext(ctx, `
			UPDATE accounts SET name = ?, description = ?, initial_balance_cents = ?, sort_order = ?, updated_at = ?
			WHERE id = ?`,
			a.Name, a.Description, cents(a.InitialBalance), a.SortOrder, fmtTime(now), a.ID)
		if err != nil {
			return fmt.Errorf("update account: %w", err)
		}
		a.InitialBalance = a.InitialBalance.Round(2)
		a.CreatedAt = old.CreatedAt
		a.UpdatedAt = now
		return r.appendAudit(ctx, tx, audit.ActionUpdate, "account", a.ID, old, a)
	})
}

// DeleteAccount refuses to delete an account that is still referenced by
// transactions (as source or transfer destination) and reports the count.
func (r *Repository) DeleteAccount(ctx context.Context, id int64) error {
	return r.writeTx(ctx, func(tx *sql.Tx) error {
		old, err := scanAccount(tx.QueryRowContext(ctx, `
			SELECT id, name, description, initial_balance_cents, sort_order, created_at, updated_at
			FROM accounts WHERE id = ?`, id))
		if err == sql.ErrNoRows {
			return core.NotFoundf("account %d not found", id)
		}
		if err != nil {
			return fmt.Errorf("load account: %w", err)
		}

		var refs int
		err = tx.QueryRowContext(ctx, `
			SELECT COUNT(*) FROM transactions WHERE account_id = ? OR transfer_to_account_id = ?`, id, id).Scan(&refs)
		if err != nil {
			return fmt.Errorf("count account references: %w", err)
		}
		if refs > 0 {
			return core.Conflictf("account %d is referenced by %d transactions", id, refs)
		}

		if _, err := tx.ExecContext(ctx, `DELETE FROM accounts WHERE id = ?`, id); err != nil {
			return fmt.Errorf("delete account: %w", err)
		}
		return r.appendAudit(ctx, tx, audit.ActionDelete, "account", id, old, nil)
	})
}

// AccountBalance derives the balance of one account from all committed
// transactions at query time.
func (r *Repository) AccountBalance(ctx context.Context, id int64) (decimal.Decimal, error) {
	var balanceCents int64
	err := r.db.QueryRowContext(ctx, `SELECT `+balanceExpr+` FROM accounts a WHERE a.id = ?`, id).Scan(&balanceCents)
	if err == sql.ErrNoRows {
		return decimal.Zero, core.NotFoundf("account %d not found", id)
	}
	if err != nil {
		return decimal.Zero, fmt.Errorf("derive account balance: %w", err)
	}
	return fromCents(balanceCents), nil
}

// AccountBalances derives the balances of all accounts in one query.
func (r *Repository) AccountBalances(ctx context.Context) ([]core.AccountBalance, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT a.id, a.name, `+balanceExpr+`
		FROM accounts a ORDER BY a.sort_order, a.name`)
	if err != nil {
		return nil, fmt.Errorf("derive account balances: %w", err)
	}
	defer rows.Close()

	var balances []core.AccountBalance
	for rows.Next() {
		var b core.AccountBalance
		var balanceCents int64
		if err := rows.Scan(&b.AccountID, &b.Name, &balanceCents); err != nil {
			return nil, fmt.Errorf("scan account balance: %w", err)
		}
		b.Balance = fromCents(balanceCents)
		balances = append(balances, b)
	}
	return balances, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAccount(row rowScanner) (*core.Account, error) {
	var a core.Account
	var balanceCents int64
	var createdAt, updatedAt string
	if err := row.Scan(&a.ID, &a.Name, &a.Description, &balanceCents, &a.SortOrder, &createdAt, &updatedAt); err != nil {
		return nil, err
	}
	a.InitialBalance = fromCents(balanceCents)
	a.CreatedAt = parseTime(createdAt)
	a.UpdatedAt = parseTime(updatedAt)
	return &a, nil
}
