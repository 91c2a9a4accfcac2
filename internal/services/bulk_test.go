package services

import (
	"context"
	"testing"

	"buchhaltung/internal/core"
)

func TestBulkCreatePartialFailure(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	items := []BulkItem{
		{Transaction: *newIncome(env, "2025-01-10", "100.00")},
		{Transaction: core.Transaction{}}, // missing everything
		{Transaction: *newIncome(env, "2025-01-20", "200.00")},
	}

	result, err := env.ledger.BulkCreate(ctx, items)
	if err != nil {
		t.Fatalf("BulkCreate: %v", err)
	}
	if len(result.Created) != 2 {
		t.Errorf("created = %d, want 2", len(result.Created))
	}
	if len(result.Errors) != 1 || result.Errors[0].Index != 1 {
		t.Errorf("errors = %+v, want one error at index 1", result.Errors)
	}

	// the good rows really committed
	_, total, err := env.repo.ListTransactions(ctx, listAll())
	if err != nil {
		t.Fatalf("ListTransactions: %v", err)
	}
	if total != 2 {
		t.Errorf("stored rows = %d, want 2", total)
	}
}

func TestBulkCreateAllFail(t *testing.T) {
	env := newTestEnv(t)

	items := []BulkItem{
		{Transaction: core.Transaction{}},
		{Transaction: core.Transaction{}},
	}

	result, err := env.ledger.BulkCreate(context.Background(), items)
	if !core.IsKind(err, core.KindValidation) {
		t.Fatalf("error = %v, want validation", err)
	}
	if result == nil || len(result.Errors) != 2 {
		t.Fatalf("result = %+v, want 2 per-item errors", result)
	}
}

func TestBulkCreateLimits(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	if _, err := env.ledger.BulkCreate(ctx, nil); !core.IsKind(err, core.KindValidation) {
		t.Errorf("empty batch error = %v, want validation", err)
	}

	tooMany := make([]BulkItem, MaxBulkItems+1)
	for i := range tooMany {
		tooMany[i] = BulkItem{Transaction: *newIncome(env, "2025-01-01", "1.00")}
	}
	if _, err := env.ledger.BulkCreate(ctx, tooMany); !core.IsKind(err, core.KindValidation) {
		t.Errorf("oversized batch error = %v, want validation", err)
	}

	// nothing may have committed from the rejected batch
	_, total, err := env.repo.ListTransactions(ctx, listAll())
	if err != nil {
		t.Fatalf("ListTransactions: %v", err)
	}
	if total != 0 {
		t.Errorf("stored rows = %d, want 0", total)
	}
}
