package httpserver

import (
	"bytes"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	creditledger "bluecarbon/contexts/credit-registry/credit-ledger"
	paymentdistributor "bluecarbon/contexts/finance-core/payment-distributor"
	settlementservice "bluecarbon/contexts/finance-core/settlement-service"
	accesspolicyservice "bluecarbon/contexts/identity-access/access-policy-service"
	consensusverifier "bluecarbon/contexts/verification-core/consensus-verifier"
)

func newTestServer() *Server {
	return New(
		consensusverifier.NewInMemoryModule(nil, nil, slog.Default()),
		creditledger.NewInMemoryModule(slog.Default()),
		paymentdistributor.NewInMemoryModule(slog.Default()),
		settlementservice.NewInMemoryModule(nil, nil, 250, "platform-treasury", slog.Default()),
		accesspolicyservice.NewInMemoryModule(nil, slog.Default()),
		slog.Default(),
		":0",
	)
}

func TestEvidenceSubmitRequiresUser(t *testing.T) {
	server := newTestServer()
	body := []byte(`{"claim_id":"claim-1","source_kind":"community","content_ref":"ipfs://x","claimed_quantity":10}`)
	req := httptest.NewRequest(http.MethodPost, "/v1/verification/submissions", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	rr := httptest.NewRecorder()
	server.mux.ServeHTTP(rr, req)
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d body=%s", rr.Code, rr.Body.String())
	}
}

func TestEvidenceDecisionRequiresUser(t *testing.T) {
	server := newTestServer()
	req := httptest.NewRequest(http.MethodPost, "/v1/verification/submissions/sub-1/decision", bytes.NewReader([]byte(`{"accept":true}`)))
	req.Header.Set("Content-Type", "application/json")

	rr := httptest.NewRecorder()
	server.mux.ServeHTTP(rr, req)
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d body=%s", rr.Code, rr.Body.String())
	}
}

func TestRetireRequiresUser(t *testing.T) {
	server := newTestServer()
	req := httptest.NewRequest(http.MethodPost, "/v1/credits/retire", bytes.NewReader([]byte(`{"batch_id":"batch-1","quantity":5,"reason":"offset"}`)))
	req.Header.Set("Content-Type", "application/json")

	rr := httptest.NewRecorder()
	server.mux.ServeHTTP(rr, req)
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d body=%s", rr.Code, rr.Body.String())
	}
}

func TestTransferRejectsInvalidJSON(t *testing.T) {
	server := newTestServer()
	req := httptest.NewRequest(http.MethodPost, "/v1/credits/transfer", bytes.NewReader([]byte(`{not-json`)))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-User-Id", "alice")

	rr := httptest.NewRecorder()
	server.mux.ServeHTTP(rr, req)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d body=%s", rr.Code, rr.Body.String())
	}
}

func TestWithdrawRequiresUser(t *testing.T) {
	server := newTestServer()
	req := httptest.NewRequest(http.MethodPost, "/v1/payments/withdraw", nil)

	rr := httptest.NewRecorder()
	server.mux.ServeHTTP(rr, req)
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d body=%s", rr.Code, rr.Body.String())
	}
}

func TestListingPurchaseRequiresUser(t *testing.T) {
	server := newTestServer()
	req := httptest.NewRequest(http.MethodPost, "/v1/market/listings/listing-1/buy", bytes.NewReader([]byte(`{"quantity":1,"payment":100}`)))
	req.Header.Set("Content-Type", "application/json")

	rr := httptest.NewRecorder()
	server.mux.ServeHTTP(rr, req)
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d body=%s", rr.Code, rr.Body.String())
	}
}

func TestRoleGrantRequiresUser(t *testing.T) {
	server := newTestServer()
	req := httptest.NewRequest(http.MethodPost, "/v1/policy/roles/grant", bytes.NewReader([]byte(`{"identity":"vera","role":"verifier"}`)))
	req.Header.Set("Content-Type", "application/json")

	rr := httptest.NewRecorder()
	server.mux.ServeHTTP(rr, req)
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d body=%s", rr.Code, rr.Body.String())
	}
}

func TestRoleGrantRejectsNonAdminActor(t *testing.T) {
	server := newTestServer()
	req := httptest.NewRequest(http.MethodPost, "/v1/policy/roles/grant", bytes.NewReader([]byte(`{"identity":"vera","role":"verifier"}`)))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-User-Id", "nobody")

	rr := httptest.NewRecorder()
	server.mux.ServeHTTP(rr, req)
	if rr.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d body=%s", rr.Code, rr.Body.String())
	}
}

func TestUnknownListingIsNotFound(t *testing.T) {
	server := newTestServer()
	req := httptest.NewRequest(http.MethodGet, "/v1/market/listings/listing-missing", nil)

	rr := httptest.NewRecorder()
	server.mux.ServeHTTP(rr, req)
	if rr.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d body=%s", rr.Code, rr.Body.String())
	}
}
