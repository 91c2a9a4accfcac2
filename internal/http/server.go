// Package http exposes the ledger as a JSON API. Every /api route requires
// the configured API key; error kinds from the engine map onto status codes
// in one place.
package http

import (
	"context"
	"net/http"
	"time"

	"buchhaltung/internal/log"
	"buchhaltung/internal/services"
	"buchhaltung/internal/storage"
)

type Server struct {
	ledger    *services.LedgerService
	summaries *services.SummaryService
	repo      *storage.Repository
	logger    *log.Logger
	apiKey    string
	limiter   *rateLimiter
	server    *http.Server
}

func NewServer(addr, apiKey string, ledger *services.LedgerService, summaries *services.SummaryService, repo *storage.Repository, logger *log.Logger) *Server {
	s := &Server{
		ledger:    ledger,
		summaries: summaries,
		repo:      repo,
		logger:    logger.WithComponent(log.ComponentHTTP),
		apiKey:    apiKey,
		limiter:   newRateLimiter(),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)

	api := func(h http.HandlerFunc) http.HandlerFunc {
		return s.withRequestLog(s.withAuth(h))
	}

	mux.HandleFunc("GET /api/settings", api(s.handleGetSettings))
	mux.HandleFunc("PUT /api/settings", api(s.handleUpdateSettings))
	mux.HandleFunc("GET /api/tax-treatments", api(s.handleTaxTreatments))

	mux.HandleFunc("GET /api/accounts", api(s.handleListAccounts))
	mux.HandleFunc("POST /api/accounts", api(s.handleCreateAccount))
	mux.HandleFunc("GET /api/accounts/{id}", api(s.handleGetAccount))
	mux.HandleFunc("PUT /api/accounts/{id}", api(s.handleUpdateAccount))
	mux.HandleFunc("DELETE /api/accounts/{id}", api(s.handleDeleteAccount))
	mux.HandleFunc("GET /api/accounts/{id}/balance", api(s.handleAccountBalance))

	mux.HandleFunc("GET /api/categories", api(s.handleListCategories))
	mux.HandleFunc("POST /api/categories", api(s.handleCreateCategory))
	mux.HandleFunc("GET /api/categories/{id}", api(s.handleGetCategory))
	mux.HandleFunc("PUT /api/categories/{id}", api(s.handleUpdateCategory))
	mux.HandleFunc("DELETE /api/categories/{id}", api(s.handleDeleteCategory))

	mux.HandleFunc("GET /api/transactions", api(s.handleListTransactions))
	mux.HandleFunc("POST /api/transactions", api(s.handleCreateTransaction))
	mux.HandleFunc("POST /api/transactions/bulk", api(s.handleBulkCreate))
	mux.HandleFunc("GET /api/transactions/{id}", api(s.handleGetTransaction))
	mux.HandleFunc("PUT /api/transactions/{id}", api(s.handleUpdateTransaction))
	mux.HandleFunc("DELETE /api/transactions/{id}", api(s.handleDeleteTransaction))
	mux.HandleFunc("POST /api/transfers", api(s.handleCreateTransfer))

	mux.HandleFunc("POST /api/transactions/{id}/documents", api(s.handleUploadDocument))
	mux.HandleFunc("GET /api/documents/{id}", api(s.handleDownloadDocument))
	mux.HandleFunc("DELETE /api/documents/{id}", api(s.handleDeleteDocument))

	mux.HandleFunc("GET /api/summary", api(s.handleSummary))
	mux.HandleFunc("GET /api/audit/verify", api(s.handleVerifyAudit))

	s.server = &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	return s
}

// ListenAndServe blocks until the server stops.
func (s *Server) ListenAndServe() error {
	s.logger.Info("HTTP server listening", "addr", s.server.Addr)
	return s.server.ListenAndServe()
}

// Shutdown drains in-flight requests and stops background goroutines.
func (s *Server) Shutdown(ctx context.Context) error {
	s.limiter.stop()
	return s.server.Shutdown(ctx)
}

func handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleReady reports readiness; the database must answer.
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if _, err := s.repo.Settings(r.Context()); err != nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}
