package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/iho/gotransfer/internal/adapter/http/dto"
	"github.com/iho/gotransfer/internal/adapter/repository/memory"
	"github.com/iho/gotransfer/internal/domain"
	"github.com/iho/gotransfer/internal/usecase"
)

type gatewayStub struct {
	handleFn func(ctx context.Context, req domain.Request) domain.Response
	got      domain.Request
}

func (s *gatewayStub) Handle(ctx context.Context, req domain.Request) domain.Response {
	s.got = req
	return s.handleFn(ctx, req)
}

type pingerStub struct{ err error }

func (p pingerStub) Ping(ctx context.Context) error { return p.err }

func newMemoryGateway(t *testing.T) *usecase.Gateway {
	t.Helper()

	store := memory.NewStore()
	for id, balance := range map[string]int64{"user1": 100, "user5": 0} {
		if err := store.PutAccount(context.Background(), &domain.Account{ID: id, Balance: balance}); err != nil {
			t.Fatalf("seed failed: %v", err)
		}
	}

	policy := usecase.RetryPolicy{
		CommitRetryDelay:      time.Millisecond,
		ConflictInitialWait:   time.Millisecond,
		ConflictMaxWait:       time.Millisecond,
		StatusWriteRetryDelay: time.Millisecond,
	}
	guard := usecase.NewIdempotencyGuard(store, policy, zerolog.Nop(), nil)
	executor := usecase.NewTransferExecutor(store, guard, policy, zerolog.Nop(), nil)

	return usecase.NewGateway(executor, usecase.NewAccountUseCase(store), usecase.NewKeyResolver(usecase.KeyPolicyRequire, nil))
}

func postTransfer(t *testing.T, h *TransferHandler, body string, header string) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(http.MethodPost, "/api/v1/transfers", strings.NewReader(body))
	if header != "" {
		req.Header.Set(dto.IdempotencyKeyHeader, header)
	}
	rec := httptest.NewRecorder()
	h.Create(rec, req)
	return rec
}

func TestTransferHandler_Create_Example(t *testing.T) {
	h := NewTransferHandler(newMemoryGateway(t))
	body := `{"sender":"user1","receiver":"user5","amount":1,"idempotency_key":"ex-1"}`

	rec := postTransfer(t, h, body, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var resp dto.MessageResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if resp.Transfer == nil || resp.Transfer.SenderBalance != 99 || resp.Transfer.ReceiverBalance != 1 {
		t.Fatalf("unexpected transfer %+v", resp.Transfer)
	}
	if !strings.Contains(resp.Message, "New balance of user1 is 99") {
		t.Fatalf("unexpected message %q", resp.Message)
	}

	replay := postTransfer(t, h, body, "")
	if replay.Code != http.StatusCreated {
		t.Fatalf("expected 201 on replay, got %d", replay.Code)
	}
}

func TestTransferHandler_Create_Errors(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		header     string
		wantStatus int
		wantCode   string
	}{
		{"malformed json", `{"sender":`, "", http.StatusBadRequest, "invalid_request"},
		{"fractional amount", `{"sender":"user1","receiver":"user5","amount":1.5,"idempotency_key":"e1"}`, "", http.StatusBadRequest, "invalid_amount"},
		{"quoted amount", `{"sender":"user1","receiver":"user5","amount":"5","idempotency_key":"e6"}`, "", http.StatusBadRequest, "invalid_amount"},
		{"zero amount", `{"sender":"user1","receiver":"user5","amount":0,"idempotency_key":"e2"}`, "", http.StatusBadRequest, "invalid_amount"},
		{"negative amount", `{"sender":"user1","receiver":"user5","amount":-5,"idempotency_key":"e3"}`, "", http.StatusBadRequest, "invalid_amount"},
		{"insufficient funds", `{"sender":"user1","receiver":"user5","amount":150,"idempotency_key":"e4"}`, "", http.StatusBadRequest, "insufficient_funds"},
		{"unknown receiver", `{"sender":"user1","receiver":"ghost","amount":1,"idempotency_key":"e5"}`, "", http.StatusBadRequest, "receiver_not_found"},
		{"missing key", `{"sender":"user1","receiver":"user5","amount":1}`, "", http.StatusBadRequest, "invalid_idempotency_key"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewTransferHandler(newMemoryGateway(t))

			rec := postTransfer(t, h, tt.body, tt.header)
			if rec.Code != tt.wantStatus {
				t.Fatalf("expected %d, got %d: %s", tt.wantStatus, rec.Code, rec.Body.String())
			}

			var resp dto.ErrorResponse
			if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
				t.Fatalf("decode failed: %v", err)
			}
			if resp.Error != tt.wantCode {
				t.Fatalf("expected error code %q, got %q", tt.wantCode, resp.Error)
			}
		})
	}
}

func TestTransferHandler_Create_HeaderKey(t *testing.T) {
	stub := &gatewayStub{handleFn: func(ctx context.Context, req domain.Request) domain.Response {
		return domain.Response{StatusCode: http.StatusOK, Body: "ok", Transfer: &domain.TransferResult{}}
	}}
	h := NewTransferHandler(stub)

	rec := postTransfer(t, h, `{"sender":"a","receiver":"b","amount":3}`, "hdr-key")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	got, ok := stub.got.(domain.TransferRequest)
	if !ok || got.IdempotencyKey != "hdr-key" || got.Amount != 3 {
		t.Fatalf("unexpected request forwarded: %#v", stub.got)
	}
}

func TestTransferHandler_Create_ServerError(t *testing.T) {
	stub := &gatewayStub{handleFn: func(ctx context.Context, req domain.Request) domain.Response {
		err := &domain.TransactionFailedError{IdempotencyKey: "k", Attempts: 3, Err: domain.ErrThrottled}
		return domain.Response{StatusCode: http.StatusInternalServerError, Body: err.Error(), Err: err}
	}}
	h := NewTransferHandler(stub)

	rec := postTransfer(t, h, `{"sender":"a","receiver":"b","amount":3,"idempotency_key":"k"}`, "")
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rec.Code)
	}
	if !bytes.Contains(rec.Body.Bytes(), []byte("transaction_failed")) {
		t.Fatalf("expected transaction_failed code, got %s", rec.Body.String())
	}
}

func TestAccountHandler_GetBalance(t *testing.T) {
	h := NewAccountHandler(newMemoryGateway(t))

	r := chi.NewRouter()
	r.Get("/accounts/{id}/balance", h.GetBalance)
	r.Get("/balance", h.GetBalance)

	tests := []struct {
		name       string
		path       string
		wantStatus int
		wantBody   string
	}{
		{"path param", "/accounts/user1/balance", http.StatusOK, "user user1 has balance 100"},
		{"query param", "/balance?id=user5", http.StatusOK, "user user5 has balance 0"},
		{"unknown account", "/accounts/ghost/balance", http.StatusNotFound, "account_not_found"},
		{"missing id", "/balance", http.StatusBadRequest, "invalid_account_id"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, tt.path, nil))

			if rec.Code != tt.wantStatus {
				t.Fatalf("expected %d, got %d: %s", tt.wantStatus, rec.Code, rec.Body.String())
			}
			if !strings.Contains(rec.Body.String(), tt.wantBody) {
				t.Fatalf("expected body to contain %q, got %s", tt.wantBody, rec.Body.String())
			}
		})
	}
}

func TestHealthHandler(t *testing.T) {
	healthy := NewHealthHandler("redis", pingerStub{})

	rec := httptest.NewRecorder()
	healthy.Liveness(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected liveness 200, got %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	healthy.Readiness(rec, httptest.NewRequest(http.MethodGet, "/ready", nil))
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `"redis":"ok"`) {
		t.Fatalf("expected ready, got %d %s", rec.Code, rec.Body.String())
	}

	unhealthy := NewHealthHandler("postgres", pingerStub{err: errors.New("connection refused")})

	rec = httptest.NewRecorder()
	unhealthy.Readiness(rec, httptest.NewRequest(http.MethodGet, "/ready", nil))
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", rec.Code)
	}
}

func TestErrorCode(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{domain.ErrSenderNotFound, "sender_not_found"},
		{domain.ErrAccountNotFound, "account_not_found"},
		{domain.ErrSameAccount, "same_account"},
		{domain.ErrBalanceOverflow, "balance_overflow"},
		{domain.ErrStoreUnavailable, "store_unavailable"},
		{errors.New("boom"), "internal_error"},
	}

	for _, tt := range tests {
		if got := errorCode(tt.err); got != tt.want {
			t.Errorf("errorCode(%v) = %q, want %q", tt.err, got, tt.want)
		}
	}
}
