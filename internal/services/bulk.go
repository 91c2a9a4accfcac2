package services

import (
	"context"

	"github.com/shopspring/decimal"

	"buchhaltung/internal/core"
	"buchhaltung/internal/log"
)

// MaxBulkItems caps the size of one bulk import batch.
const MaxBulkItems = 500

// BulkItem is one candidate row of a bulk import.
type BulkItem struct {
	Transaction core.Transaction
	CustomRate  *decimal.Decimal
	AmountIsNet bool
}

// BulkError records why one item of the batch was rejected.
type BulkError struct {
	Index   int    `json:"index"`
	Message string `json:"error"`
}

// BulkResult reports the outcome of a bulk import: the rows that were
// committed and a per-index error for every rejected item.
type BulkResult struct {
	Created []core.Transaction `json:"created"`
	Errors  []BulkError        `json:"errors"`
}

// BulkCreate imports up to MaxBulkItems transactions. Each item commits on
// its own; a bad row never rolls back its neighbours. Only when every single
// item fails is the whole batch reported as an error.
func (s *LedgerService) BulkCreate(ctx context.Context, items []BulkItem) (*BulkResult, error) {
	if len(items) == 0 {
		return nil, core.Validationf("transactions list must not be empty")
	}
	if len(items) > MaxBulkItems {
		return nil, core.Validationf("too many transactions, maximum is %d per request", MaxBulkItems)
	}

	result := &BulkResult{}
	for i := range items {
		item := items[i]
		t := item.Transaction
		if err := s.CreateTransaction(ctx, &t, item.CustomRate, item.AmountIsNet); err != nil {
			result.Errors = append(result.Errors, BulkError{Index: i, Message: err.Error()})
			continue
		}
		result.Created = append(result.Created, t)
	}

	s.logger.InfoContext(ctx, "Bulk import finished",
		log.FieldOperation, log.OpBulk,
		"requested", len(items),
		"created", len(result.Created),
		"failed", len(result.Errors))

	if len(result.Created) == 0 {
		return result, core.Validationf("all %d transactions were rejected", len(items))
	}
	return result, nil
}
