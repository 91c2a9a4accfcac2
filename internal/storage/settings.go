package storage

import (
	"context"
	"database/sql"
	"fmt"

	"buchhaltung/internal/audit"
	"buchhaltung/internal/core"
)

// Settings reads the single settings row. Callers treat the returned value
// as an immutable snapshot for the duration of one operation.
func (r *Repository) Settings(ctx context.Context) (core.Settings, error) {
	var s core.Settings
	var rate, reduced string
	err := r.db.QueryRowContext(ctx, `
		SELECT business_name, tax_number, vat_id, tax_mode, tax_rate, tax_rate_reduced
		FROM site_settings WHERE id = 1`).
		Scan(&s.BusinessName, &s.TaxNumber, &s.VATID, &s.TaxMode, &rate, &reduced)
	if err != nil {
		return core.Settings{}, fmt.Errorf("read settings: %w", err)
	}
	s.TaxRate = parseRate(rate)
	s.TaxRateReduced = parseRate(reduced)
	return s, nil
}

func (r *Repository) UpdateSettings(ctx context.Context, s core.Settings) error {
	if s.TaxMode != core.TaxModeKleinunternehmer && s.TaxMode != core.TaxModeRegular {
		return core.Validationf("tax_mode must be 'kleinunternehmer' or 'regular'")
	}
	return r.writeTx(ctx, func(tx *sql.Tx) error {
		old, err := r.Settings(ctx)
		if err != nil {
			return err
		}

		_, err = tx.ExecContext(ctx, `
			UPDATE site_settings
			SET business_name = ?, tax_number = ?, vat_id = ?, tax_mode = ?, tax_rate = ?, tax_rate_reduced = ?
			WHERE id = 1`,
			s.BusinessName, s.TaxNumber, s.VATID, s.TaxMode, s.TaxRate.String(), s.TaxRateReduced.String())
		if err != nil {
			return fmt.Errorf("update settings: %w", err)
		}
		return r.appendAudit(ctx, tx, audit.ActionUpdate, "settings", 1, old, s)
	})
}
