package qdrant

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"supportrag/internal/domain"
)

// fakeQdrant implements just enough of the REST surface for the client.
type fakeQdrant struct {
	points  map[string]map[string]any
	created bool
	dropped bool
}

func newFakeQdrant() *fakeQdrant {
	return &fakeQdrant{points: map[string]map[string]any{}}
}

func (f *fakeQdrant) handler(t *testing.T) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("PUT /collections/kb", func(w http.ResponseWriter, r *http.Request) {
		f.created = true
		_ = json.NewEncoder(w).Encode(map[string]any{"result": true, "status": "ok"})
	})
	mux.HandleFunc("DELETE /collections/kb", func(w http.ResponseWriter, r *http.Request) {
		f.dropped = true
		_ = json.NewEncoder(w).Encode(map[string]any{"result": true, "status": "ok"})
	})
	mux.HandleFunc("PUT /collections/kb/points", func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Points []map[string]any `json:"points"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		for _, p := range req.Points {
			f.points[p["id"].(string)] = p
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"status": "ok"})
	})
	mux.HandleFunc("POST /collections/kb/points/search", func(w http.ResponseWriter, r *http.Request) {
		results := []map[string]any{}
		for id, p := range f.points {
			results = append(results, map[string]any{
				"id": id, "score": 0.5, "payload": p["payload"],
			})
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"result": results})
	})
	mux.HandleFunc("POST /collections/kb/points/count", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{
			"result": map[string]any{"count": len(f.points)},
		})
	})
	return mux
}

func newIndex(t *testing.T, fake *fakeQdrant) *Index {
	t.Helper()
	srv := httptest.NewServer(fake.handler(t))
	t.Cleanup(srv.Close)
	idx, err := New(Config{URL: srv.URL, Collection: "kb", Dimension: 2})
	require.NoError(t, err)
	require.True(t, fake.created, "collection is created on construction")
	return idx
}

func TestNewValidatesConfig(t *testing.T) {
	_, err := New(Config{URL: "http://localhost:6333", Collection: "kb", Dimension: 0})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	_, err = New(Config{Collection: "kb", Dimension: 2})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	_, err = New(Config{URL: "http://localhost:6333", Dimension: 2})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestInsertUpsertsByChunkID(t *testing.T) {
	fake := newFakeQdrant()
	idx := newIndex(t, fake)

	entries := []domain.IndexEntry{
		{Chunk: domain.Chunk{ID: "kb/a.txt:0", Source: "kb/a.txt", Text: "first"}, Vector: []float64{1, 0}},
		{Chunk: domain.Chunk{ID: "kb/a.txt:1", Source: "kb/a.txt", Position: 1, Text: "second"}, Vector: []float64{0, 1}},
	}
	require.NoError(t, idx.Insert(context.Background(), entries))
	assert.Equal(t, 2, idx.Size())

	// Re-inserting the same ids replaces the points.
	require.NoError(t, idx.Insert(context.Background(), entries))
	assert.Equal(t, 2, idx.Size())
}

func TestInsertRejectsDimensionMismatch(t *testing.T) {
	fake := newFakeQdrant()
	idx := newIndex(t, fake)

	err := idx.Insert(context.Background(), []domain.IndexEntry{
		{Chunk: domain.Chunk{ID: "a"}, Vector: []float64{1, 0, 0}},
	})
	assert.ErrorIs(t, err, domain.ErrDimensionMismatch)
	assert.Empty(t, fake.points, "nothing reaches the server")
}

func TestSearchRebuildsChunksFromPayload(t *testing.T) {
	fake := newFakeQdrant()
	idx := newIndex(t, fake)
	require.NoError(t, idx.Insert(context.Background(), []domain.IndexEntry{
		{Chunk: domain.Chunk{ID: "kb/a.txt:3", Source: "kb/a.txt", Position: 3, Text: "passage"}, Vector: []float64{1, 0}},
	}))

	results, err := idx.Search(context.Background(), []float64{1, 0}, 5)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, domain.Chunk{ID: "kb/a.txt:3", Source: "kb/a.txt", Position: 3, Text: "passage"}, results[0].Chunk)
}

func TestSearchValidatesQuery(t *testing.T) {
	idx := newIndex(t, newFakeQdrant())

	_, err := idx.Search(context.Background(), []float64{1, 0, 0}, 5)
	assert.ErrorIs(t, err, domain.ErrDimensionMismatch)

	results, err := idx.Search(context.Background(), []float64{1, 0}, 0)
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestClearDropsCollection(t *testing.T) {
	fake := newFakeQdrant()
	idx := newIndex(t, fake)
	require.NoError(t, idx.Clear(context.Background()))
	assert.True(t, fake.dropped)
}
