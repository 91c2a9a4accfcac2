package http

import (
	"net/http"

	"buchhaltung/internal/core"
)

type categoryRequest struct {
	Name        string `json:"name"`
	Type        string `json:"type"`
	Description string `json:"description"`
	SortOrder   int    `json:"sort_order"`
}

func (s *Server) handleListCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := s.repo.ListCategories(r.Context(), core.TransactionType(r.URL.Query().Get("type")))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if categories == nil {
		categories = []core.Category{}
	}
	writeJSON(w, http.StatusOK, categories)
}

func (s *Server) handleCreateCategory(w http.ResponseWriter, r *http.Request) {
	var req categoryRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}

	category := &core.Category{
		Name:        sanitizeInput(req.Name),
		Type:        core.TransactionType(req.Type),
		Description: sanitizeInput(req.Description),
		SortOrder:   req.SortOrder,
	}
	if err := category.Validate(); err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := s.repo.CreateCategory(r.Context(), category); err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, category)
}

func (s *Server) handleGetCategory(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	category, err := s.repo.GetCategory(r.Context(), id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, category)
}

func (s *Server) handleUpdateCategory(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	var req categoryRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}

	category := &core.Category{
		ID:          id,
		Name:        sanitizeInput(req.Name),
		Type:        core.TransactionType(req.Type),
		Description: sanitizeInput(req.Description),
		SortOrder:   req.SortOrder,
	}
	if err := category.Validate(); err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := s.repo.UpdateCategory(r.Context(), category); err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, category)
}

func (s *Server) handleDeleteCategory(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := s.repo.DeleteCategory(r.Context(), id); err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}
