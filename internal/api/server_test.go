package api

import (
	"bytes"
	"context"
	"encoding/json"
	stderrors "errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"bida-banking-workers/internal/bank"
	"bida-banking-workers/internal/bank/store"
	apperrors "bida-banking-workers/internal/common/errors"
	"bida-banking-workers/internal/common/logger"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type fakeSearch struct {
	docs []bank.Document
	err  error
}

func (f *fakeSearch) SearchDocuments(_ context.Context, investorID, category string) ([]bank.Document, error) {
	if f.err != nil {
		return nil, f.err
	}
	var out []bank.Document
	for _, d := range f.docs {
		if d.InvestorID == investorID && (category == "" || d.Metadata.Category == category) {
			out = append(out, d)
		}
	}
	return out, nil
}

func newTestServer(t *testing.T, opts Options) *Server {
	t.Helper()
	if opts.Service == nil {
		opts.Service = bank.NewService(bank.Options{
			Repository: store.NewMemoryStore(),
			Clock:      func() time.Time { return time.Date(2024, 3, 15, 10, 0, 0, 0, time.UTC) },
			Logger:     logger.NewNoOpLogger(),
		})
	}
	opts.Logger = logger.NewTestLogger(t)
	return NewServer(opts)
}

func do(t *testing.T, s *Server, method, path string, body interface{}) (*httptest.ResponseRecorder, map[string]interface{}) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)

	var out map[string]interface{}
	if rec.Body.Len() > 0 && rec.Header().Get("Content-Type") != "" && rec.Body.Bytes()[0] == '{' {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	}
	return rec, out
}

func errorCode(body map[string]interface{}) string {
	e, _ := body["error"].(map[string]interface{})
	code, _ := e["code"].(string)
	return code
}

const base = "/api/v1/banking"

func TestHealth(t *testing.T) {
	s := newTestServer(t, Options{})

	rec, body := do(t, s, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", body["status"])
}

func TestReady(t *testing.T) {
	tests := []struct {
		name       string
		checks     map[string]CheckFunc
		wantStatus int
	}{
		{"no checks", nil, http.StatusOK},
		{"all healthy", map[string]CheckFunc{"store": func(context.Context) error { return nil }}, http.StatusOK},
		{
			name: "one failing",
			checks: map[string]CheckFunc{
				"store": func(context.Context) error { return nil },
				"zeebe": func(context.Context) error { return stderrors.New("connection refused") },
			},
			wantStatus: http.StatusServiceUnavailable,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestServer(t, Options{Checks: tt.checks})
			rec, _ := do(t, s, http.MethodGet, "/ready", nil)
			assert.Equal(t, tt.wantStatus, rec.Code)
		})
	}
}

func TestMetricsEndpoint(t *testing.T) {
	s := newTestServer(t, Options{})
	rec, _ := do(t, s, http.MethodGet, "/metrics", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestPartners(t *testing.T) {
	s := newTestServer(t, Options{})

	rec, body := do(t, s, http.MethodGet, base+"/partners", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, body["partners"], len(bank.DefaultPartners))

	rec, body = do(t, s, http.MethodGet, base+"/partners?capability=letter-of-credit", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	partners := body["partners"].([]interface{})
	require.NotEmpty(t, partners)
	assert.Equal(t, "hsbc-bd", partners[0].(map[string]interface{})["id"])

	rec, body = do(t, s, http.MethodGet, base+"/partners/brac-bank", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "brac-bank", body["id"])

	rec, body = do(t, s, http.MethodGet, base+"/partners/nope", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "UNKNOWN_BANK_PARTNER", errorCode(body))
}

func TestInvestorLifecycle(t *testing.T) {
	s := newTestServer(t, Options{})
	inv := base + "/investors/inv-1"

	rec, body := do(t, s, http.MethodGet, inv, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "BANK_STATE_NOT_FOUND", errorCode(body))

	rec, _ = do(t, s, http.MethodPost, base+"/investors", map[string]interface{}{
		"investorId": "inv-1", "investorName": "Acme Ltd", "applicationId": "APP-1",
	})
	assert.Equal(t, http.StatusCreated, rec.Code)

	rec, _ = do(t, s, http.MethodPost, base+"/investors", map[string]interface{}{
		"investorId": "inv-1", "investorName": "Acme Ltd",
	})
	assert.Equal(t, http.StatusOK, rec.Code)

	rec, body = do(t, s, http.MethodPost, inv+"/account", nil)
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "KYC_NOT_APPROVED", errorCode(body))

	rec, body = do(t, s, http.MethodPost, inv+"/kyc", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "approved", body["kycStatus"].(map[string]interface{})["status"])

	rec, body = do(t, s, http.MethodPost, inv+"/account", map[string]interface{}{"companyName": "Acme Bangladesh"})
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "BRAC00000001", body["corporateAccount"].(map[string]interface{})["accountNumber"])

	rec, body = do(t, s, http.MethodPost, inv+"/escrow", map[string]interface{}{"amount": "500000", "purpose": "Capital"})
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "APP-1", body["escrowAccount"].(map[string]interface{})["applicationId"])

	rec, _ = do(t, s, http.MethodPost, inv+"/letters-of-credit", map[string]interface{}{"amount": 1000, "beneficiary": "Supplier"})
	assert.Equal(t, http.StatusCreated, rec.Code)

	rec, body = do(t, s, http.MethodPost, inv+"/loans", map[string]interface{}{"amount": 2000})
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.EqualValues(t, 60, body["loanApplication"].(map[string]interface{})["termMonths"])

	rec, body = do(t, s, http.MethodGet, inv+"/readiness", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.EqualValues(t, 100, body["readinessScore"])

	rec, body = do(t, s, http.MethodPost, base+"/applications/APP-1/approved", map[string]interface{}{"investorId": "inv-1"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, true, body["released"])

	rec, body = do(t, s, http.MethodPost, inv+"/escrow/release", nil)
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "ESCROW_ALREADY_RELEASED", errorCode(body))

	rec, body = do(t, s, http.MethodGet, inv+"/documents", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.EqualValues(t, 9, body["documentCount"])

	rec, body = do(t, s, http.MethodGet, inv+"/messages?recipient=officer", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	for _, m := range body["messages"].([]interface{}) {
		assert.Equal(t, "officer", m.(map[string]interface{})["recipient"])
	}
}

func TestAmountsKeepPrecision(t *testing.T) {
	s := newTestServer(t, Options{})
	inv := base + "/investors/inv-1"

	rec, _ := do(t, s, http.MethodPost, base+"/investors", map[string]interface{}{"investorId": "inv-1", "investorName": "Acme Ltd"})
	require.Equal(t, http.StatusCreated, rec.Code)
	rec, _ = do(t, s, http.MethodPost, inv+"/kyc", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	rec, _ = do(t, s, http.MethodPost, inv+"/account", nil)
	require.Equal(t, http.StatusCreated, rec.Code)

	rec, body := do(t, s, http.MethodPost, inv+"/escrow", map[string]interface{}{"amount": json.Number("9007199254740993")})
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "9007199254740993", body["escrowAccount"].(map[string]interface{})["amount"])

	rec, body = do(t, s, http.MethodPost, inv+"/letters-of-credit", map[string]interface{}{
		"amount": json.Number("1234567.123456789012345678"), "beneficiary": "Supplier",
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "1234567.123456789012345678", body["letterOfCredit"].(map[string]interface{})["amount"])
}

func TestUpdateAndSelectBank(t *testing.T) {
	s := newTestServer(t, Options{})
	inv := base + "/investors/inv-2"

	rec, body := do(t, s, http.MethodPatch, inv, map[string]interface{}{"investorName": "New"})
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "BANK_STATE_NOT_FOUND", errorCode(body))

	do(t, s, http.MethodPost, base+"/investors", map[string]interface{}{"investorId": "inv-2", "investorName": "Old"})

	rec, body = do(t, s, http.MethodPatch, inv, map[string]interface{}{"investorName": "New"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "New", body["investorName"])

	rec, body = do(t, s, http.MethodPost, inv+"/bank", map[string]interface{}{"bankId": "city-bank"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "city-bank", body["selectedBank"])

	rec, body = do(t, s, http.MethodPost, inv+"/bank", map[string]interface{}{"bankId": "imaginary"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "INVALID_BANK_REQUEST", errorCode(body))
}

func TestValidationErrors(t *testing.T) {
	s := newTestServer(t, Options{})

	tests := []struct {
		name string
		path string
		body interface{}
	}{
		{"init without name", base + "/investors", map[string]interface{}{"investorId": "x"}},
		{"escrow zero amount", base + "/investors/x/escrow", map[string]interface{}{"amount": 0}},
		{"lc missing beneficiary", base + "/investors/x/letters-of-credit", map[string]interface{}{"amount": 5}},
		{"fx bad currency", base + "/investors/x/fx-quotes", map[string]interface{}{"fromCurrency": "US", "toCurrency": "BDT", "amount": 1}},
		{"approval without investor", base + "/applications/APP-1/approved", map[string]interface{}{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, body := do(t, s, http.MethodPost, tt.path, tt.body)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Equal(t, "INVALID_BANK_REQUEST", errorCode(body))
			assert.NotEmpty(t, body["error"].(map[string]interface{})["details"])
		})
	}
}

func TestFXQuote_NoState(t *testing.T) {
	s := newTestServer(t, Options{})

	rec, body := do(t, s, http.MethodPost, base+"/investors/nobody/fx-quotes", map[string]interface{}{
		"fromCurrency": "usd", "toCurrency": "bdt", "amount": "100",
	})
	require.Equal(t, http.StatusOK, rec.Code)
	quote := body["fxQuote"].(map[string]interface{})
	assert.Equal(t, "USD", quote["fromCurrency"])
	assert.Equal(t, "11050", quote["quotedAmount"])
}

func TestMessages_BadRecipient(t *testing.T) {
	s := newTestServer(t, Options{})
	rec, body := do(t, s, http.MethodGet, base+"/investors/x/messages?recipient=bank", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "INVALID_BANK_REQUEST", errorCode(body))
}

func TestSearchDocuments(t *testing.T) {
	t.Run("disabled", func(t *testing.T) {
		s := newTestServer(t, Options{})
		rec, body := do(t, s, http.MethodGet, base+"/investors/x/documents/search", nil)
		assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
		assert.Equal(t, "DOCUMENT_INDEX_FAILED", errorCode(body))
	})

	t.Run("filters by category", func(t *testing.T) {
		search := &fakeSearch{docs: []bank.Document{
			{ID: "a", InvestorID: "x", Metadata: bank.DocumentMetadata{Category: "escrow"}},
			{ID: "b", InvestorID: "x", Metadata: bank.DocumentMetadata{Category: "banking"}},
		}}
		s := newTestServer(t, Options{Search: search})
		rec, body := do(t, s, http.MethodGet, base+"/investors/x/documents/search?category=escrow", nil)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.EqualValues(t, 1, body["documentCount"])
	})
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		code   string
		status int
	}{
		{"STATE_NOT_INITIALIZED", http.StatusNotFound},
		{"ACCOUNT_NOT_ACTIVE", http.StatusConflict},
		{"NO_ESCROW_FOUND", http.StatusConflict},
		{"BANK_STORE_FAILED", http.StatusServiceUnavailable},
		{"OPERATION_TIMEOUT", http.StatusServiceUnavailable},
		{"SOMETHING_ELSE", http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			assert.Equal(t, tt.status, statusFor(apperrors.ErrorCode(tt.code)))
		})
	}
}
