// Package services orchestrates ledger operations across the SQLite store,
// the document store and the AMQP event bus. All mutation policy lives here:
// tax resolution, the mutation guard for protected rows, and writer
// serialization.
package services

import (
	"context"
	"io"
	"os"
	"sync"

	"github.com/shopspring/decimal"

	"buchhaltung/internal/amqp"
	"buchhaltung/internal/audit"
	"buchhaltung/internal/core"
	"buchhaltung/internal/documents"
	"buchhaltung/internal/log"
	"buchhaltung/internal/storage"
)

// LedgerService is the write path of the ledger. Mutations take the service
// mutex so application-level checks and the database write happen without
// interleaving; reads bypass the mutex entirely.
type LedgerService struct {
	repo   *storage.Repository
	docs   *documents.Store
	events *amqp.Client
	logger *log.Logger

	mu sync.Mutex
}

func NewLedgerService(repo *storage.Repository, docs *documents.Store, events *amqp.Client, logger *log.Logger) *LedgerService {
	return &LedgerService{
		repo:   repo,
		docs:   docs,
		events: events,
		logger: logger.WithComponent(log.ComponentLedger),
	}
}

// CreateTransaction records an income or expense. The caller supplies the
// gross amount, the requested tax treatment and, for 'custom', the custom
// rate; net and tax are always derived here under the current settings and
// never trusted from input. When amountIsNet is set the supplied amount is
// taken as net and the gross is derived instead.
func (s *LedgerService) CreateTransaction(ctx context.Context, t *core.Transaction, customRate *decimal.Decimal, amountIsNet bool) error {
	if t.Type == core.TypeTransfer {
		return core.Validationf("transfers must be created through the transfer operation")
	}
	if err := t.Validate(); err != nil {
		return err
	}

	settings, err := s.repo.Settings(ctx)
	if err != nil {
		return err
	}
	if err := s.applyTax(t, customRate, amountIsNet, settings); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.repo.CreateTransaction(ctx, t); err != nil {
		return err
	}

	s.logger.InfoContext(ctx, "Transaction created",
		log.FieldTransaction, t.ID,
		log.FieldAmount, t.Amount.String(),
		log.FieldTreatment, string(t.TaxTreatment))
	s.publishEvent(ctx, audit.ActionCreate, "transaction", t.ID, t.Date.Year())
	return nil
}

// CreateTransfer moves money between two accounts. Both legs are one row, so
// the movement is atomic by construction and carries no tax effect.
func (s *LedgerService) CreateTransfer(ctx context.Context, t *core.Transaction) error {
	if err := t.Date.Validate(); err != nil {
		return err
	}
	if !t.Amount.IsPositive() {
		return core.Validationf("amount must be positive")
	}
	if t.TransferToAccountID == nil {
		return core.Validationf("transfer_to_account_id is required")
	}
	if *t.TransferToAccountID == t.AccountID {
		return core.Validationf("source and destination account must differ")
	}
	if t.Description == "" {
		t.Description = "Umbuchung"
	}

	t.Type = core.TypeTransfer
	t.TaxTreatment = core.TreatmentNone
	t.TaxRate = decimal.Zero
	t.Amount = t.Amount.Round(2)
	t.NetAmount = t.Amount
	t.TaxAmount = decimal.Zero
	t.CategoryID = nil
	t.LinkedAssetID = nil

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.repo.CreateTransaction(ctx, t); err != nil {
		return err
	}

	s.logger.InfoContext(ctx, "Transfer created",
		log.FieldOperation, log.OpTransfer,
		log.FieldTransaction, t.ID,
		log.FieldAmount, t.Amount.String())
	s.publishEvent(ctx, audit.ActionCreate, "transaction", t.ID, t.Date.Year())
	return nil
}

// UpdateTransaction edits an existing income or expense row. Transfers and
// asset-linked rows are closed to editing.
func (s *LedgerService) UpdateTransaction(ctx context.Context, t *core.Transaction, customRate *decimal.Decimal, amountIsNet bool) error {
	existing, err := s.repo.GetTransaction(ctx, t.ID)
	if err != nil {
		return err
	}
	if existing.IsTransfer() {
		return core.Conflictf("transfer transactions cannot be edited, delete and recreate instead")
	}
	if existing.AssetLinked() {
		return core.Conflictf("transaction %d belongs to asset %d and cannot be edited directly", t.ID, *existing.LinkedAssetID)
	}

	if t.Type == core.TypeTransfer {
		return core.Validationf("type cannot be changed to 'transfer'")
	}
	if err := t.Validate(); err != nil {
		return err
	}

	settings, err := s.repo.Settings(ctx)
	if err != nil {
		return err
	}
	if err := s.applyTax(t, customRate, amountIsNet, settings); err != nil {
		return err
	}
	t.TransferToAccountID = nil
	t.LinkedAssetID = nil

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.repo.UpdateTransaction(ctx, t); err != nil {
		return err
	}

	s.logger.InfoContext(ctx, "Transaction updated", log.FieldTransaction, t.ID)
	s.publishEvent(ctx, audit.ActionUpdate, "transaction", t.ID, t.Date.Year())
	return nil
}

// DeleteTransaction removes a row together with its attached documents.
// Asset-linked rows are protected; transfers may be deleted, which reverses
// the movement on both accounts at once.
func (s *LedgerService) DeleteTransaction(ctx context.Context, id int64) error {
	existing, err := s.repo.GetTransaction(ctx, id)
	if err != nil {
		return err
	}
	if existing.AssetLinked() {
		return core.Conflictf("transaction %d belongs to asset %d and cannot be deleted directly", id, *existing.LinkedAssetID)
	}

	s.mu.Lock()
	docs, err := s.repo.DeleteTransaction(ctx, id)
	s.mu.Unlock()
	if err != nil {
		return err
	}

	for _, d := range docs {
		if err := s.docs.Remove(d.Filename); err != nil {
			s.logger.WarnContext(ctx, "Failed to remove document file",
				"filename", d.Filename, log.FieldError, err)
		}
	}

	s.logger.InfoContext(ctx, "Transaction deleted", log.FieldTransaction, id)
	s.publishEvent(ctx, audit.ActionDelete, "transaction", id, existing.Date.Year())
	return nil
}

func (s *LedgerService) GetTransaction(ctx context.Context, id int64) (*core.Transaction, error) {
	return s.repo.GetTransaction(ctx, id)
}

func (s *LedgerService) ListTransactions(ctx context.Context, f storage.ListFilter) ([]core.Transaction, int, error) {
	return s.repo.ListTransactions(ctx, f)
}

// AttachDocument stores the uploaded file and links it to a transaction.
func (s *LedgerService) AttachDocument(ctx context.Context, transactionID int64, originalName string, content io.Reader) (*core.Document, error) {
	if _, err := s.repo.GetTransaction(ctx, transactionID); err != nil {
		return nil, err
	}

	stored, err := s.docs.Save(originalName, content)
	if err != nil {
		return nil, err
	}

	doc := &core.Document{
		Filename:         stored,
		OriginalFilename: originalName,
		TransactionID:    transactionID,
	}
	s.mu.Lock()
	err = s.repo.AddDocument(ctx, doc)
	s.mu.Unlock()
	if err != nil {
		if rmErr := s.docs.Remove(stored); rmErr != nil {
			s.logger.WarnContext(ctx, "Failed to remove orphaned file", "filename", stored, log.FieldError, rmErr)
		}
		return nil, err
	}

	s.logger.InfoContext(ctx, "Document attached",
		log.FieldTransaction, transactionID, "filename", stored)
	return doc, nil
}

// OpenDocument opens a stored file for streaming to the caller.
func (s *LedgerService) OpenDocument(filename string) (*os.File, error) {
	return s.docs.Open(filename)
}

// DetachDocument removes a document row and its stored file.
func (s *LedgerService) DetachDocument(ctx context.Context, id int64) error {
	s.mu.Lock()
	doc, err := s.repo.DeleteDocument(ctx, id)
	s.mu.Unlock()
	if err != nil {
		return err
	}
	if err := s.docs.Remove(doc.Filename); err != nil {
		s.logger.WarnContext(ctx, "Failed to remove document file",
			"filename", doc.Filename, log.FieldError, err)
	}
	return nil
}

// applyTax resolves the effective treatment and rate and derives net and tax
// from the amount.
func (s *LedgerService) applyTax(t *core.Transaction, customRate *decimal.Decimal, amountIsNet bool, settings core.Settings) error {
	treatment, rate, err := core.ResolveTaxRate(t.TaxTreatment, customRate, settings)
	if err != nil {
		return err
	}
	t.TaxTreatment = treatment
	t.TaxRate = rate

	if amountIsNet {
		gross, tax, err := core.SplitNet(t.Amount, rate)
		if err != nil {
			return err
		}
		t.NetAmount = t.Amount.Round(2)
		t.Amount = gross
		t.TaxAmount = tax
		return nil
	}

	net, tax, err := core.SplitGross(t.Amount, rate)
	if err != nil {
		return err
	}
	t.Amount = t.Amount.Round(2)
	t.NetAmount = net
	t.TaxAmount = tax
	return nil
}

// publishEvent announces a committed mutation on the event bus. Failures are
// logged and swallowed; the database write already succeeded.
func (s *LedgerService) publishEvent(ctx context.Context, action, entityType string, entityID int64, year int) {
	if s.events == nil {
		return
	}
	msg := amqp.NewLedgerEventMessage(action, entityType, entityID, year)
	if err := s.events.PublishLedgerEvent(ctx, msg); err != nil {
		s.logger.WarnContext(ctx, "Failed to publish ledger event",
			log.FieldEntityType, entityType,
			log.FieldEntityID, entityID,
			log.FieldError, err)
	}
}
