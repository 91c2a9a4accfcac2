package sheets

import (
	"context"

	"buchhaltung/internal/core"
)

// SummaryWriter mirrors a yearly report to an external spreadsheet. The
// mirror is write-only and derived; it can always be rebuilt from the
// database.
type SummaryWriter interface {
	WriteYearSummary(ctx context.Context, summary *core.YearSummary) error
}
