package http

import (
	"net/http"

	"github.com/shopspring/decimal"

	"buchhaltung/internal/core"
)

type accountRequest struct {
	Name           string          `json:"name"`
	Description    string          `json:"description"`
	InitialBalance decimal.Decimal `json:"initial_balance"`
	SortOrder      int             `json:"sort_order"`
}

func (s *Server) handleListAccounts(w http.ResponseWriter, r *http.Request) {
	accounts, err := s.repo.ListAccounts(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if accounts == nil {
		accounts = []core.Account{}
	}
	writeJSON(w, http.StatusOK, accounts)
}

func (s *Server) handleCreateAccount(w http.ResponseWriter, r *http.Request) {
	var req accountRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}

	account := &core.Account{
		Name:           sanitizeInput(req.Name),
		Description:    sanitizeInput(req.Description),
		InitialBalance: req.InitialBalance,
		SortOrder:      req.SortOrder,
	}
	if err := account.Validate(); err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := s.repo.CreateAccount(r.Context(), account); err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, account)
}

func (s *Server) handleGetAccount(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	account, err := s.repo.GetAccount(r.Context(), id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, account)
}

func (s *Server) handleUpdateAccount(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	var req accountRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}

	account := &core.Account{
		ID:             id,
		Name:           sanitizeInput(req.Name),
		Description:    sanitizeInput(req.Description),
		InitialBalance: req.InitialBalance,
		SortOrder:      req.SortOrder,
	}
	if err := account.Validate(); err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := s.repo.UpdateAccount(r.Context(), account); err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, account)
}

func (s *Server) handleDeleteAccount(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := s.repo.DeleteAccount(r.Context(), id); err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

func (s *Server) handleAccountBalance(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	balance, err := s.repo.AccountBalance(r.Context(), id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"account_id": id, "balance": balance})
}
