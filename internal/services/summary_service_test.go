package services

import (
	"context"
	"testing"

	"buchhaltung/internal/core"
	"buchhaltung/internal/storage"
)

func listAll() storage.ListFilter {
	return storage.ListFilter{}
}

func TestYearSummary(t *testing.T) {
	env := newTestEnv(t)
	env.setRegularMode(t)
	ctx := context.Background()

	category := &core.Category{Name: "Umsatzerlöse 19%", Type: core.TypeIncome}
	if err := env.repo.CreateCategory(ctx, category); err != nil {
		t.Fatalf("CreateCategory: %v", err)
	}

	income := newIncome(env, "2025-01-15", "1190.00")
	income.CategoryID = &category.ID
	if err := env.ledger.CreateTransaction(ctx, income, nil, false); err != nil {
		t.Fatalf("CreateTransaction: %v", err)
	}

	expense := newIncome(env, "2025-02-10", "238.00")
	expense.Type = core.TypeExpense
	expense.Description = "Bürobedarf"
	expense.CategoryID = nil
	if err := env.ledger.CreateTransaction(ctx, expense, nil, false); err != nil {
		t.Fatalf("CreateTransaction: %v", err)
	}

	// a transfer and a foreign-year row must not show up
	dest := &core.Account{Name: "Rücklagen"}
	if err := env.repo.CreateAccount(ctx, dest); err != nil {
		t.Fatalf("CreateAccount: %v", err)
	}
	transfer := &core.Transaction{
		Date:                core.NewDate(2025, 3, 1),
		Amount:              dec(t, "500.00"),
		AccountID:           env.account.ID,
		TransferToAccountID: &dest.ID,
	}
	if err := env.ledger.CreateTransfer(ctx, transfer); err != nil {
		t.Fatalf("CreateTransfer: %v", err)
	}
	other := newIncome(env, "2024-12-31", "99.00")
	if err := env.ledger.CreateTransaction(ctx, other, nil, false); err != nil {
		t.Fatalf("CreateTransaction: %v", err)
	}

	summary, err := env.summary.YearSummary(ctx, 2025)
	if err != nil {
		t.Fatalf("YearSummary: %v", err)
	}

	if summary.TransactionCount != 2 {
		t.Errorf("transaction count = %d, want 2", summary.TransactionCount)
	}
	if want := dec(t, "1190.00"); !summary.TotalIncome.Equal(want) {
		t.Errorf("total income = %s, want %s", summary.TotalIncome, want)
	}
	if want := dec(t, "238.00"); !summary.TotalExpenses.Equal(want) {
		t.Errorf("total expenses = %s, want %s", summary.TotalExpenses, want)
	}
	if want := dec(t, "952.00"); !summary.Profit.Equal(want) {
		t.Errorf("profit = %s, want %s", summary.Profit, want)
	}
	if want := dec(t, "190.00"); !summary.VATCollected.Equal(want) {
		t.Errorf("vat collected = %s, want %s", summary.VATCollected, want)
	}
	if want := dec(t, "38.00"); !summary.VATPaid.Equal(want) {
		t.Errorf("vat paid = %s, want %s", summary.VATPaid, want)
	}
	if want := dec(t, "152.00"); !summary.VATPayable.Equal(want) {
		t.Errorf("vat payable = %s, want %s", summary.VATPayable, want)
	}

	if len(summary.Monthly) != 12 {
		t.Fatalf("monthly buckets = %d, want 12", len(summary.Monthly))
	}
	jan := summary.Monthly[1]
	if want := dec(t, "1190.00"); !jan.Income.Equal(want) {
		t.Errorf("january income = %s, want %s", jan.Income, want)
	}
	feb := summary.Monthly[2]
	if want := dec(t, "238.00"); !feb.Expenses.Equal(want) {
		t.Errorf("february expenses = %s, want %s", feb.Expenses, want)
	}
	march := summary.Monthly[3]
	if !march.Income.IsZero() || !march.Expenses.IsZero() {
		t.Errorf("transfer leaked into march bucket: %+v", march)
	}

	if entry, ok := summary.IncomeByCategory["Umsatzerlöse 19%"]; !ok || entry.Count != 1 {
		t.Errorf("income by category = %+v", summary.IncomeByCategory)
	}
	if entry, ok := summary.ExpenseByCategory[core.UncategorizedLabel]; !ok || entry.Count != 1 {
		t.Errorf("expense by category = %+v", summary.ExpenseByCategory)
	}

	if len(summary.AccountBalances) == 0 {
		t.Error("account balances missing")
	}
}

func TestYearSummaryEmptyYear(t *testing.T) {
	env := newTestEnv(t)

	summary, err := env.summary.YearSummary(context.Background(), 2019)
	if err != nil {
		t.Fatalf("YearSummary: %v", err)
	}
	if summary.TransactionCount != 0 {
		t.Errorf("count = %d, want 0", summary.TransactionCount)
	}
	if !summary.Profit.IsZero() || !summary.VATPayable.IsZero() {
		t.Errorf("empty year should have zero totals: %+v", summary)
	}
	if len(summary.Monthly) != 12 {
		t.Errorf("monthly buckets = %d, want 12", len(summary.Monthly))
	}
}

func TestYearSummaryExcludesAssetLinkedRows(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	assetID := int64(1)
	linked := &core.Transaction{
		Date:          core.NewDate(2025, 6, 1),
		Type:          core.TypeExpense,
		Description:   "Abschreibung",
		Amount:        dec(t, "100.00"),
		NetAmount:     dec(t, "100.00"),
		TaxTreatment:  core.TreatmentNone,
		AccountID:     env.account.ID,
		LinkedAssetID: &assetID,
	}
	if err := env.repo.CreateTransaction(ctx, linked); err != nil {
		t.Fatalf("CreateTransaction: %v", err)
	}

	summary, err := env.summary.YearSummary(ctx, 2025)
	if err != nil {
		t.Fatalf("YearSummary: %v", err)
	}
	if summary.TransactionCount != 0 || !summary.TotalExpenses.IsZero() {
		t.Errorf("asset-linked row leaked into summary: %+v", summary)
	}
}
