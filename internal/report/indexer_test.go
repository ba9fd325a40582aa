// internal/report/indexer_test.go
package report

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type capturedIndexRequest struct {
	Method string
	Path   string
	Doc    map[string]interface{}
}

// newTestESClient stands up an httptest server speaking just enough of the
// Elasticsearch protocol for the v8 client, which validates the
// X-Elastic-Product header on every response.
func newTestESClient(t *testing.T, handler func(w http.ResponseWriter, r *http.Request)) (*elasticsearch.Client, *httptest.Server) {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Elastic-Product", "Elasticsearch")
		handler(w, r)
	}))
	t.Cleanup(server.Close)

	client, err := elasticsearch.NewClient(elasticsearch.Config{
		Addresses: []string{server.URL},
	})
	require.NoError(t, err)
	return client, server
}

// ==========================
// Core Functionality Tests
// ==========================

func TestIndexer_IndexRun_IndexesEvaluatedChunks(t *testing.T) {
	var captured []capturedIndexRequest
	client, _ := newTestESClient(t, func(w http.ResponseWriter, r *http.Request) {
		var doc map[string]interface{}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&doc))
		captured = append(captured, capturedIndexRequest{
			Method: r.Method,
			Path:   r.URL.Path,
			Doc:    doc,
		})
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		w.Write([]byte(`{"result":"created"}`))
	})

	indexer := NewIndexer(client, "", NewTestLogger(t))
	err := indexer.IndexRun(context.Background(), reportFixture(t))
	require.NoError(t, err)

	// The failed chunk carries no verdict, so only two documents go out.
	require.Len(t, captured, 2)

	first := captured[0]
	assert.Equal(t, http.MethodPut, first.Method)
	assert.Equal(t, "/chunk-audits/_doc/run-0001-0", first.Path)
	assert.Equal(t, "run-0001", first.Doc["run_id"])
	assert.Equal(t, float64(0), first.Doc["chunk_index"])
	assert.Equal(t, "section_0", first.Doc["chunk_id"])
	assert.Equal(t, "Getting started", first.Doc["heading"])
	assert.Equal(t, float64(85), first.Doc["overall_score"])
	assert.Equal(t, true, first.Doc["passing"])
	assert.Equal(t, false, first.Doc["degraded"])
	assert.Equal(t, "https://docs.example.com/guide", first.Doc["source_origin"])
	assert.Equal(t, "markdown", first.Doc["source_type"])
	assert.Equal(t, "2026-08-21T10:00:05Z", first.Doc["analyzed_at"])

	scores, ok := first.Doc["assessor_scores"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, float64(85), scores["query_answer"])
	assert.Equal(t, float64(85), scores["structure_quality"])

	second := captured[1]
	assert.Equal(t, "/chunk-audits/_doc/run-0001-1", second.Path)
	assert.Equal(t, true, second.Doc["degraded"])

	// The timed-out assessor has no score to index, only its zeroed weight.
	degradedScores, ok := second.Doc["assessor_scores"].(map[string]interface{})
	require.True(t, ok)
	assert.Len(t, degradedScores, 1)
	assert.Equal(t, float64(45), degradedScores["query_answer"])

	weights, ok := second.Doc["effective_weights"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, float64(1), weights["query_answer"])
	assert.Equal(t, float64(0), weights["structure_quality"])
}

func TestIndexer_IndexRun_CustomIndexName(t *testing.T) {
	var paths []string
	client, _ := newTestESClient(t, func(w http.ResponseWriter, r *http.Request) {
		paths = append(paths, r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		w.Write([]byte(`{"result":"created"}`))
	})

	indexer := NewIndexer(client, "staging-audits", NewTestLogger(t))
	err := indexer.IndexRun(context.Background(), reportFixture(t))
	require.NoError(t, err)

	require.Len(t, paths, 2)
	assert.Equal(t, "/staging-audits/_doc/run-0001-0", paths[0])
	assert.Equal(t, "/staging-audits/_doc/run-0001-1", paths[1])
}

// ==========================
// Error Handling Tests
// ==========================

func TestIndexer_IndexRun_ServerError(t *testing.T) {
	client, _ := newTestESClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"error":{"reason":"shard failure"}}`))
	})

	indexer := NewIndexer(client, "", NewTestLogger(t))
	err := indexer.IndexRun(context.Background(), reportFixture(t))

	assert.Error(t, err)
	assert.ErrorIs(t, err, ErrIndexFailed)
	assert.Contains(t, err.Error(), "chunk 0")
	assert.Contains(t, err.Error(), "500")
}

func TestNewIndexer_DefaultsIndexName(t *testing.T) {
	client, _ := newTestESClient(t, func(w http.ResponseWriter, r *http.Request) {})

	indexer := NewIndexer(client, "", NewTestLogger(t))
	assert.Equal(t, defaultIndexName, indexer.index)
}
