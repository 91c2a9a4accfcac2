package http

import (
	"net/http"
	"strings"

	"github.com/shopspring/decimal"

	"buchhaltung/internal/core"
	"buchhaltung/internal/services"
	"buchhaltung/internal/storage"
)

// transactionRequest is the wire shape for creating and editing bookings.
// Net and tax are never accepted from the caller; the engine derives them.
type transactionRequest struct {
	Date          core.Date        `json:"date"`
	Type          string           `json:"type"`
	Description   string           `json:"description"`
	Amount        decimal.Decimal  `json:"amount"`
	AmountIsNet   bool             `json:"amount_is_net"`
	TaxTreatment  string           `json:"tax_treatment"`
	CustomTaxRate *decimal.Decimal `json:"custom_tax_rate"`
	CategoryID    *int64           `json:"category_id"`
	AccountID     int64            `json:"account_id"`
	Notes         string           `json:"notes"`
}

func (req *transactionRequest) toTransaction() *core.Transaction {
	treatment := core.Treatment(req.TaxTreatment)
	if req.TaxTreatment == "" {
		treatment = core.TreatmentNone
	}
	return &core.Transaction{
		Date:         req.Date,
		Type:         core.TransactionType(req.Type),
		Description:  sanitizeInput(req.Description),
		Amount:       req.Amount,
		TaxTreatment: treatment,
		CategoryID:   req.CategoryID,
		AccountID:    req.AccountID,
		Notes:        sanitizeInput(req.Notes),
	}
}

type transactionListResponse struct {
	Transactions []core.Transaction `json:"transactions"`
	Total        int                `json:"total"`
	Limit        int                `json:"limit"`
	Offset       int                `json:"offset"`
}

func (s *Server) handleListTransactions(w http.ResponseWriter, r *http.Request) {
	filter := storage.ListFilter{
		Year:       queryInt(r, "year", 0),
		Month:      queryInt(r, "month", 0),
		Type:       core.TransactionType(r.URL.Query().Get("type")),
		CategoryID: queryInt64(r, "category_id"),
		AccountID:  queryInt64(r, "account_id"),
		Search:     strings.TrimSpace(r.URL.Query().Get("search")),
		Sort:       r.URL.Query().Get("sort"),
		Limit:      queryInt(r, "limit", storage.DefaultListLimit),
		Offset:     queryInt(r, "offset", 0),
	}.Normalize()

	transactions, total, err := s.ledger.ListTransactions(r.Context(), filter)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if transactions == nil {
		transactions = []core.Transaction{}
	}
	writeJSON(w, http.StatusOK, transactionListResponse{
		Transactions: transactions,
		Total:        total,
		Limit:        filter.Limit,
		Offset:       filter.Offset,
	})
}

func (s *Server) handleCreateTransaction(w http.ResponseWriter, r *http.Request) {
	var req transactionRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}

	t := req.toTransaction()
	if err := s.ledger.CreateTransaction(r.Context(), t, req.CustomTaxRate, req.AmountIsNet); err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, t)
}

func (s *Server) handleGetTransaction(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	t, err := s.ledger.GetTransaction(r.Context(), id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, t)
}

func (s *Server) handleUpdateTransaction(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	var req transactionRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}

	t := req.toTransaction()
	t.ID = id
	if err := s.ledger.UpdateTransaction(r.Context(), t, req.CustomTaxRate, req.AmountIsNet); err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, t)
}

func (s *Server) handleDeleteTransaction(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := s.ledger.DeleteTransaction(r.Context(), id); err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

// transferRequest is the wire shape for account-to-account movements.
type transferRequest struct {
	Date          core.Date       `json:"date"`
	Amount        decimal.Decimal `json:"amount"`
	FromAccountID int64           `json:"from_account_id"`
	ToAccountID   int64           `json:"to_account_id"`
	Description   string          `json:"description"`
	Notes         string          `json:"notes"`
}

func (s *Server) handleCreateTransfer(w http.ResponseWriter, r *http.Request) {
	var req transferRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}

	t := &core.Transaction{
		Date:                req.Date,
		Amount:              req.Amount,
		Description:         sanitizeInput(req.Description),
		Notes:               sanitizeInput(req.Notes),
		AccountID:           req.FromAccountID,
		TransferToAccountID: &req.ToAccountID,
	}
	if err := s.ledger.CreateTransfer(r.Context(), t); err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, t)
}

type bulkRequest struct {
	Transactions []transactionRequest `json:"transactions"`
}

func (s *Server) handleBulkCreate(w http.ResponseWriter, r *http.Request) {
	var req bulkRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}

	items := make([]services.BulkItem, len(req.Transactions))
	for i := range req.Transactions {
		items[i] = services.BulkItem{
			Transaction: *req.Transactions[i].toTransaction(),
			CustomRate:  req.Transactions[i].CustomTaxRate,
			AmountIsNet: req.Transactions[i].AmountIsNet,
		}
	}

	result, err := s.ledger.BulkCreate(r.Context(), items)
	if err != nil {
		if result != nil && len(result.Errors) > 0 {
			// every row failed; report the per-item errors with the batch error
			writeJSON(w, http.StatusBadRequest, result)
			return
		}
		s.writeError(w, r, err)
		return
	}

	status := http.StatusCreated
	if len(result.Errors) > 0 {
		status = http.StatusMultiStatus
	}
	writeJSON(w, status, result)
}
