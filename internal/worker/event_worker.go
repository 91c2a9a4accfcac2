// Package worker mirrors the ledger's yearly reports to a spreadsheet. It
// reacts to ledger events from AMQP and additionally refreshes the current
// year on a timer, so the mirror heals itself when events are lost.
package worker

import (
	"context"
	"fmt"
	"time"

	"buchhaltung/internal/amqp"
	"buchhaltung/internal/log"
	"buchhaltung/internal/services"
	"buchhaltung/internal/sheets"
)

type EventWorker struct {
	summaries *services.SummaryService
	writer    sheets.SummaryWriter
	logger    *log.Logger
}

func NewEventWorker(summaries *services.SummaryService, writer sheets.SummaryWriter, logger *log.Logger) *EventWorker {
	return &EventWorker{
		summaries: summaries,
		writer:    writer,
		logger:    logger.WithComponent(log.ComponentWorker),
	}
}

// HandleLedgerEvent recomputes and mirrors the year touched by one event.
// The message only names the entity; all figures come from the database, so
// replayed or out-of-order deliveries converge on the same result.
func (w *EventWorker) HandleLedgerEvent(ctx context.Context, msg *amqp.LedgerEventMessage) error {
	year := msg.Year
	if year == 0 {
		year = time.Now().Year()
	}

	w.logger.InfoContext(ctx, "Processing ledger event",
		log.FieldEntityType, msg.EntityType,
		log.FieldEntityID, msg.EntityID,
		log.FieldYear, year)

	return w.MirrorYear(ctx, year)
}

// MirrorYear writes one year's report to the spreadsheet.
func (w *EventWorker) MirrorYear(ctx context.Context, year int) error {
	summary, err := w.summaries.YearSummary(ctx, year)
	if err != nil {
		return fmt.Errorf("compute year summary: %w", err)
	}
	if err := w.writer.WriteYearSummary(ctx, summary); err != nil {
		return fmt.Errorf("mirror year summary: %w", err)
	}

	w.logger.InfoContext(ctx, "Year summary mirrored",
		log.FieldOperation, log.OpMirror,
		log.FieldYear, year,
		"transactions", summary.TransactionCount)
	return nil
}

// RunPeriodicMirror refreshes the current year every interval until ctx is
// done. Failures are logged and retried on the next tick.
func (w *EventWorker) RunPeriodicMirror(ctx context.Context, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if err := w.MirrorYear(ctx, time.Now().Year()); err != nil {
				w.logger.ErrorContext(ctx, "Periodic mirror failed", log.FieldError, err)
			}
		}
	}
}
