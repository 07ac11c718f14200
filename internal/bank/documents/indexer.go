// Package documents indexes generated bank documents into Elasticsearch.
package documents

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"bida-banking-workers/internal/bank"
	apperrors "bida-banking-workers/internal/common/errors"
	"bida-banking-workers/internal/common/logger"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"
)

const DefaultIndex = "bank-documents"

type Indexer struct {
	client *elasticsearch.Client
	index  string
	logger logger.Logger
}

func NewIndexer(client *elasticsearch.Client, index string, log logger.Logger) *Indexer {
	if index == "" {
		index = DefaultIndex
	}
	return &Indexer{
		client: client,
		index:  index,
		logger: log.WithFields(map[string]interface{}{"component": "document-indexer", "index": index}),
	}
}

// IndexDocuments upserts docs by their deterministic ID, so regenerating the
// same projection overwrites rather than duplicates.
func (i *Indexer) IndexDocuments(ctx context.Context, docs []bank.Document) error {
	for _, doc := range docs {
		body, err := json.Marshal(doc)
		if err != nil {
			return apperrors.NewDocumentIndexFailedError(err)
		}

		req := esapi.IndexRequest{
			Index:      i.index,
			DocumentID: doc.ID,
			Body:       bytes.NewReader(body),
		}

		res, err := req.Do(ctx, i.client)
		if err != nil {
			return apperrors.NewDocumentIndexFailedError(err)
		}
		res.Body.Close()

		if res.IsError() {
			return apperrors.NewDocumentIndexFailedError(fmt.Errorf("index %s: %s", doc.ID, res.String()))
		}
	}

	i.logger.Debug("documents indexed", map[string]interface{}{"count": len(docs)})
	return nil
}

// SearchDocuments returns indexed documents for investorID, optionally
// restricted to one metadata category.
func (i *Indexer) SearchDocuments(ctx context.Context, investorID, category string) ([]bank.Document, error) {
	filters := []interface{}{
		map[string]interface{}{"term": map[string]interface{}{"investorId.keyword": investorID}},
	}
	if category != "" {
		filters = append(filters, map[string]interface{}{
			"term": map[string]interface{}{"metadata.category.keyword": category},
		})
	}

	queryBody := map[string]interface{}{
		"query": map[string]interface{}{
			"bool": map[string]interface{}{"filter": filters},
		},
		"sort": []interface{}{map[string]interface{}{"date": "asc"}},
		"size": 100,
	}
	body, _ := json.Marshal(queryBody)

	req := esapi.SearchRequest{
		Index: []string{i.index},
		Body:  strings.NewReader(string(body)),
	}

	res, err := req.Do(ctx, i.client)
	if err != nil {
		return nil, apperrors.NewDocumentIndexFailedError(err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return nil, apperrors.NewDocumentIndexFailedError(fmt.Errorf("search failed: %s", res.String()))
	}

	var r struct {
		Hits struct {
			Hits []struct {
				Source bank.Document `json:"_source"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(res.Body).Decode(&r); err != nil {
		return nil, apperrors.NewDocumentIndexFailedError(err)
	}

	docs := make([]bank.Document, 0, len(r.Hits.Hits))
	for _, hit := range r.Hits.Hits {
		docs = append(docs, hit.Source)
	}
	return docs, nil
}
