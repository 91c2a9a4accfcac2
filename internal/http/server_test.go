package http

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"buchhaltung/internal/core"
	"buchhaltung/internal/documents"
	"buchhaltung/internal/log"
	"buchhaltung/internal/services"
	"buchhaltung/internal/storage"
)

const testAPIKey = "test-key-123"

func newTestServer(t *testing.T) (*Server, *storage.Repository) {
	t.Helper()
	dir := t.TempDir()

	repo, err := storage.NewRepository(filepath.Join(dir, "test.db"), storage.SourceSystem)
	if err != nil {
		t.Fatalf("NewRepository: %v", err)
	}
	t.Cleanup(func() { repo.Close() })

	docs, err := documents.NewStore(filepath.Join(dir, "uploads"), 1<<20)
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}

	logger := log.New(log.Config{
		Component: "test",
		Handler:   slog.NewTextHandler(io.Discard, nil),
	})
	ledger := services.NewLedgerService(repo, docs, nil, logger)
	summaries := services.NewSummaryService(repo, logger)

	server := NewServer(":0", testAPIKey, ledger, summaries, repo, logger)
	t.Cleanup(func() { server.Shutdown(context.Background()) })
	return server, repo
}

func doRequest(t *testing.T, server *Server, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Authorization", "Bearer "+testAPIKey)
	rec := httptest.NewRecorder()
	server.server.Handler.ServeHTTP(rec, req)
	return rec
}

func decodeBody[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(rec.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode response %q: %v", rec.Body.String(), err)
	}
	return v
}

func TestHealthEndpointsNeedNoAuth(t *testing.T) {
	server, _ := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	server.server.Handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Errorf("/healthz = %d, want 200", rec.Code)
	}
}

func TestAuthRequired(t *testing.T) {
	server, _ := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/api/settings", nil)
	rec := httptest.NewRecorder()
	server.server.Handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("missing key = %d, want 401", rec.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/api/settings", nil)
	req.Header.Set("X-API-Key", "wrong")
	rec = httptest.NewRecorder()
	server.server.Handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("wrong key = %d, want 401", rec.Code)
	}
}

func TestUnconfiguredAPIKeyRefusesTraffic(t *testing.T) {
	server, _ := newTestServer(t)
	server.apiKey = ""

	req := httptest.NewRequest(http.MethodGet, "/api/settings", nil)
	req.Header.Set("X-API-Key", "anything")
	rec := httptest.NewRecorder()
	server.server.Handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want 503", rec.Code)
	}
}

func TestTransactionLifecycleOverHTTP(t *testing.T) {
	server, repo := newTestServer(t)
	ctx := context.Background()

	// switch to regular mode so tax splitting is visible
	settings, err := repo.Settings(ctx)
	if err != nil {
		t.Fatalf("Settings: %v", err)
	}
	settings.TaxMode = core.TaxModeRegular
	if err := repo.UpdateSettings(ctx, settings); err != nil {
		t.Fatalf("UpdateSettings: %v", err)
	}

	accounts, err := repo.ListAccounts(ctx)
	if err != nil || len(accounts) == 0 {
		t.Fatalf("ListAccounts: %v", err)
	}
	accountID := accounts[0].ID

	rec := doRequest(t, server, http.MethodPost, "/api/transactions", map[string]any{
		"date":          "2025-01-15",
		"type":          "income",
		"description":   "Beratung Januar",
		"amount":        "1190.00",
		"tax_treatment": "standard",
		"account_id":    accountID,
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create = %d, body %s", rec.Code, rec.Body.String())
	}
	created := decodeBody[core.Transaction](t, rec)
	if created.NetAmount.String() != "1000" || created.TaxAmount.String() != "190" {
		t.Errorf("split = %s/%s, want 1000/190", created.NetAmount, created.TaxAmount)
	}

	rec = doRequest(t, server, http.MethodGet, fmt.Sprintf("/api/transactions/%d", created.ID), nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("get = %d", rec.Code)
	}

	rec = doRequest(t, server, http.MethodDelete, fmt.Sprintf("/api/transactions/%d", created.ID), nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("delete = %d", rec.Code)
	}

	rec = doRequest(t, server, http.MethodGet, fmt.Sprintf("/api/transactions/%d", created.ID), nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("get after delete = %d, want 404", rec.Code)
	}
}

func TestErrorKindMapping(t *testing.T) {
	server, repo := newTestServer(t)
	ctx := context.Background()

	// validation error
	rec := doRequest(t, server, http.MethodPost, "/api/transactions", map[string]any{
		"date": "2025-01-15", "type": "income", "description": "", "amount": "10", "account_id": 1,
	})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("validation = %d, want 400", rec.Code)
	}

	// not found
	rec = doRequest(t, server, http.MethodGet, "/api/accounts/9999", nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("not found = %d, want 404", rec.Code)
	}

	// conflict: deleting a referenced account
	accounts, _ := repo.ListAccounts(ctx)
	rec = doRequest(t, server, http.MethodPost, "/api/transactions", map[string]any{
		"date": "2025-01-15", "type": "expense", "description": "Miete", "amount": "800", "account_id": accounts[0].ID,
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create = %d, body %s", rec.Code, rec.Body.String())
	}
	rec = doRequest(t, server, http.MethodDelete, fmt.Sprintf("/api/accounts/%d", accounts[0].ID), nil)
	if rec.Code != http.StatusConflict {
		t.Errorf("conflict = %d, want 409", rec.Code)
	}
}

func TestTransferEndpoint(t *testing.T) {
	server, repo := newTestServer(t)
	ctx := context.Background()

	accounts, _ := repo.ListAccounts(ctx)
	dest := &core.Account{Name: "Rücklagen"}
	if err := repo.CreateAccount(ctx, dest); err != nil {
		t.Fatalf("CreateAccount: %v", err)
	}

	rec := doRequest(t, server, http.MethodPost, "/api/transfers", map[string]any{
		"date":            "2025-02-01",
		"amount":          "250.00",
		"from_account_id": accounts[0].ID,
		"to_account_id":   dest.ID,
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("transfer = %d, body %s", rec.Code, rec.Body.String())
	}
	created := decodeBody[core.Transaction](t, rec)
	if created.Type != core.TypeTransfer {
		t.Errorf("type = %q, want transfer", created.Type)
	}

	// editing a transfer via the API is refused
	rec = doRequest(t, server, http.MethodPut, fmt.Sprintf("/api/transactions/%d", created.ID), map[string]any{
		"date": "2025-02-01", "type": "expense", "description": "x", "amount": "250.00", "account_id": accounts[0].ID,
	})
	if rec.Code != http.StatusConflict {
		t.Errorf("edit transfer = %d, want 409", rec.Code)
	}
}

func TestBulkEndpointStatuses(t *testing.T) {
	server, repo := newTestServer(t)
	accounts, _ := repo.ListAccounts(context.Background())

	good := map[string]any{
		"date": "2025-03-01", "type": "income", "description": "ok", "amount": "10", "account_id": accounts[0].ID,
	}
	bad := map[string]any{
		"date": "2025-03-01", "type": "income", "description": "", "amount": "10", "account_id": accounts[0].ID,
	}

	rec := doRequest(t, server, http.MethodPost, "/api/transactions/bulk", map[string]any{
		"transactions": []any{good, bad},
	})
	if rec.Code != http.StatusMultiStatus {
		t.Errorf("partial = %d, want 207", rec.Code)
	}

	rec = doRequest(t, server, http.MethodPost, "/api/transactions/bulk", map[string]any{
		"transactions": []any{bad, bad},
	})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("all fail = %d, want 400", rec.Code)
	}

	rec = doRequest(t, server, http.MethodPost, "/api/transactions/bulk", map[string]any{
		"transactions": []any{good},
	})
	if rec.Code != http.StatusCreated {
		t.Errorf("all good = %d, want 201", rec.Code)
	}
}

func TestListEchoesClampedPagination(t *testing.T) {
	server, _ := newTestServer(t)

	rec := doRequest(t, server, http.MethodGet, "/api/transactions?limit=5000&offset=-3", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	list := decodeBody[transactionListResponse](t, rec)
	if list.Limit != 1000 {
		t.Errorf("limit = %d, want 1000", list.Limit)
	}
	if list.Offset != 0 {
		t.Errorf("offset = %d, want 0", list.Offset)
	}

	rec = doRequest(t, server, http.MethodGet, "/api/transactions?limit=0", nil)
	list = decodeBody[transactionListResponse](t, rec)
	if list.Limit != 100 {
		t.Errorf("default limit = %d, want 100", list.Limit)
	}
}

func TestSummaryEndpoint(t *testing.T) {
	server, repo := newTestServer(t)
	accounts, _ := repo.ListAccounts(context.Background())

	rec := doRequest(t, server, http.MethodPost, "/api/transactions", map[string]any{
		"date": "2025-04-01", "type": "income", "description": "Honorar", "amount": "500", "account_id": accounts[0].ID,
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create = %d", rec.Code)
	}

	rec = doRequest(t, server, http.MethodGet, "/api/summary?year=2025", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("summary = %d, body %s", rec.Code, rec.Body.String())
	}
	summary := decodeBody[core.YearSummary](t, rec)
	if summary.TransactionCount != 1 {
		t.Errorf("count = %d, want 1", summary.TransactionCount)
	}

	rec = doRequest(t, server, http.MethodGet, "/api/summary", nil)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("missing year = %d, want 400", rec.Code)
	}
}

func TestTaxTreatmentsRespectMode(t *testing.T) {
	server, repo := newTestServer(t)
	ctx := context.Background()

	rec := doRequest(t, server, http.MethodGet, "/api/tax-treatments", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	kleinList := decodeBody[[]taxTreatmentInfo](t, rec)
	if len(kleinList) != 1 || kleinList[0].Value != core.TreatmentNone {
		t.Errorf("kleinunternehmer list = %+v, want only 'none'", kleinList)
	}

	settings, _ := repo.Settings(ctx)
	settings.TaxMode = core.TaxModeRegular
	if err := repo.UpdateSettings(ctx, settings); err != nil {
		t.Fatalf("UpdateSettings: %v", err)
	}

	rec = doRequest(t, server, http.MethodGet, "/api/tax-treatments", nil)
	regularList := decodeBody[[]taxTreatmentInfo](t, rec)
	if len(regularList) != 7 {
		t.Errorf("regular list has %d entries, want 7", len(regularList))
	}
}

func TestAuditVerifyEndpoint(t *testing.T) {
	server, _ := newTestServer(t)

	rec := doRequest(t, server, http.MethodGet, "/api/audit/verify", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	body := decodeBody[map[string]any](t, rec)
	if body["intact"] != true {
		t.Errorf("intact = %v, want true", body["intact"])
	}
}
