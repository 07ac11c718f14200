package documents

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"bida-banking-workers/internal/bank"
	apperrors "bida-banking-workers/internal/common/errors"
	"bida-banking-workers/internal/common/logger"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeES struct {
	mu      sync.Mutex
	indexed map[string][]byte
	fail    bool
}

func (f *fakeES) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("X-Elastic-Product", "Elasticsearch")
	w.Header().Set("Content-Type", "application/json")

	if f.fail {
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte(`{"error":{"type":"unavailable"}}`))
		return
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	switch {
	case strings.HasSuffix(r.URL.Path, "/_search"):
		var hits []map[string]interface{}
		for _, raw := range f.indexed {
			var src map[string]interface{}
			_ = json.Unmarshal(raw, &src)
			hits = append(hits, map[string]interface{}{"_source": src})
		}
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"hits": map[string]interface{}{"hits": hits},
		})
	case strings.Contains(r.URL.Path, "/_doc/"):
		body, _ := io.ReadAll(r.Body)
		id := r.URL.Path[strings.LastIndex(r.URL.Path, "/")+1:]
		f.indexed[id] = body
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"result":"created"}`))
	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

func newIndexer(t *testing.T, es *fakeES) *Indexer {
	t.Helper()
	srv := httptest.NewServer(es)
	t.Cleanup(srv.Close)

	client, err := elasticsearch.NewClient(elasticsearch.Config{Addresses: []string{srv.URL}})
	require.NoError(t, err)
	return NewIndexer(client, "", logger.NewNoOpLogger())
}

func sampleDocs() []bank.Document {
	now := time.Date(2024, 3, 15, 10, 0, 0, 0, time.UTC)
	state := bank.NewBankState("inv-1", "Acme Ltd", "APP-100", "brac-bank", now)
	state.KYCStatus = bank.KYCStatus{Status: bank.KYCApproved, ApprovedAt: &now}
	state.CorporateAccount = &bank.BankAccount{AccountNumber: "BRAC00000001", Status: bank.AccountActive, OpenedDate: now}
	return bank.GenerateDocuments(state, "BRAC Bank")
}

func TestIndexer_IndexAndSearch(t *testing.T) {
	es := &fakeES{indexed: map[string][]byte{}}
	idx := newIndexer(t, es)
	docs := sampleDocs()

	require.NoError(t, idx.IndexDocuments(context.Background(), docs))
	require.NoError(t, idx.IndexDocuments(context.Background(), docs))
	assert.Len(t, es.indexed, len(docs))
	assert.Contains(t, es.indexed, "bank-inv-1-kyc-report")

	found, err := idx.SearchDocuments(context.Background(), "inv-1", "")
	require.NoError(t, err)
	assert.Len(t, found, len(docs))
	for _, d := range found {
		assert.Equal(t, bank.DocumentSourceBank, d.Metadata.Source)
	}
}

func TestIndexer_Failures(t *testing.T) {
	idx := newIndexer(t, &fakeES{fail: true, indexed: map[string][]byte{}})

	err := idx.IndexDocuments(context.Background(), sampleDocs())
	require.Error(t, err)
	assert.Equal(t, apperrors.ErrCodeDocumentIndexFailed, apperrors.Normalize(err).Code)

	_, err = idx.SearchDocuments(context.Background(), "inv-1", "banking")
	assert.Error(t, err)
}
