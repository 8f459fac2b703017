// Package qdrant implements the vector index against a Qdrant server's
// REST API. Upserts are keyed by chunk id, so Qdrant's native point
// replacement provides the supersede-on-reinsert behavior. Persistence is
// server-side; Persist is a no-op kept for interface compatibility.
package qdrant

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"supportrag/internal/domain"
)

// Config contains connection details for a Qdrant collection.
type Config struct {
	URL        string
	APIKey     string
	Collection string
	Dimension  int
	Timeout    time.Duration
}

// Index is a minimal REST client to Qdrant using cosine distance.
type Index struct {
	url        string
	apiKey     string
	collection string
	dimension  int
	client     *http.Client
}

func New(cfg Config) (*Index, error) {
	if cfg.Dimension <= 0 {
		return nil, fmt.Errorf("%w: dimension must be positive", domain.ErrInvalidInput)
	}
	if cfg.URL == "" || cfg.Collection == "" {
		return nil, fmt.Errorf("%w: qdrant url and collection are required", domain.ErrInvalidInput)
	}
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 15 * time.Second
	}
	idx := &Index{
		url:        cfg.URL,
		apiKey:     cfg.APIKey,
		collection: cfg.Collection,
		dimension:  cfg.Dimension,
		client:     &http.Client{Timeout: timeout},
	}
	// Create the collection if missing; Qdrant accepts the call when it
	// already exists with the same schema.
	body := map[string]any{
		"vectors": map[string]any{"size": cfg.Dimension, "distance": "Cosine"},
	}
	if err := idx.putJSON(context.Background(), fmt.Sprintf("%s/collections/%s", idx.url, idx.collection), body); err != nil {
		return nil, err
	}
	return idx, nil
}

func (x *Index) Dimension() int { return x.dimension }

func (x *Index) Insert(ctx context.Context, entries []domain.IndexEntry) error {
	for _, e := range entries {
		if len(e.Vector) != x.dimension {
			return fmt.Errorf("%w: entry %s has dimension %d, index expects %d",
				domain.ErrDimensionMismatch, e.Chunk.ID, len(e.Vector), x.dimension)
		}
	}
	if len(entries) == 0 {
		return nil
	}
	points := make([]map[string]any, len(entries))
	for i, e := range entries {
		points[i] = map[string]any{
			"id":     e.Chunk.ID,
			"vector": e.Vector,
			"payload": map[string]any{
				"source":   e.Chunk.Source,
				"position": e.Chunk.Position,
				"text":     e.Chunk.Text,
			},
		}
	}
	body := map[string]any{"points": points}
	return x.putJSON(ctx, fmt.Sprintf("%s/collections/%s/points?wait=true", x.url, x.collection), body)
}

func (x *Index) Search(ctx context.Context, vector []float64, k int) ([]domain.SearchResult, error) {
	if len(vector) != x.dimension {
		return nil, fmt.Errorf("%w: query has dimension %d, index expects %d",
			domain.ErrDimensionMismatch, len(vector), x.dimension)
	}
	if k <= 0 {
		return nil, nil
	}
	req := map[string]any{
		"vector":       vector,
		"limit":        k,
		"with_payload": true,
	}
	var resp struct {
		Result []struct {
			ID      string         `json:"id"`
			Score   float64        `json:"score"`
			Payload map[string]any `json:"payload"`
		} `json:"result"`
	}
	if err := x.postJSON(ctx, fmt.Sprintf("%s/collections/%s/points/search", x.url, x.collection), req, &resp); err != nil {
		return nil, err
	}
	results := make([]domain.SearchResult, 0, len(resp.Result))
	for _, r := range resp.Result {
		chunk := domain.Chunk{ID: r.ID}
		if v, ok := r.Payload["source"].(string); ok {
			chunk.Source = v
		}
		if v, ok := r.Payload["position"].(float64); ok {
			chunk.Position = int(v)
		}
		if v, ok := r.Payload["text"].(string); ok {
			chunk.Text = v
		}
		results = append(results, domain.SearchResult{Chunk: chunk, Score: r.Score})
	}
	return results, nil
}

// Size reports the exact point count, or 0 if the server cannot be reached.
// Callers needing the error path should query the collection directly.
func (x *Index) Size() int {
	var resp struct {
		Result struct {
			Count int `json:"count"`
		} `json:"result"`
	}
	err := x.postJSON(context.Background(),
		fmt.Sprintf("%s/collections/%s/points/count", x.url, x.collection),
		map[string]any{"exact": true}, &resp)
	if err != nil {
		return 0
	}
	return resp.Result.Count
}

// Persist is a no-op: Qdrant owns durability for its collections.
func (x *Index) Persist(string) error { return nil }

// Clear drops the collection. Used by full rebuilds.
func (x *Index) Clear(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete,
		fmt.Sprintf("%s/collections/%s", x.url, x.collection), nil)
	if err != nil {
		return err
	}
	x.auth(req)
	resp, err := x.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return fmt.Errorf("qdrant DELETE failed: %s", resp.Status)
	}
	return nil
}

func (x *Index) auth(req *http.Request) {
	if x.apiKey != "" {
		req.Header.Set("api-key", x.apiKey)
	}
}

func (x *Index) putJSON(ctx context.Context, url string, body any) error {
	return x.doJSON(ctx, http.MethodPut, url, body, nil)
}

func (x *Index) postJSON(ctx context.Context, url string, body any, out any) error {
	return x.doJSON(ctx, http.MethodPost, url, body, out)
}

func (x *Index) doJSON(ctx context.Context, method, url string, body, out any) error {
	data, err := json.Marshal(body)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, method, url, bytes.NewReader(data))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	x.auth(req)
	resp, err := x.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return fmt.Errorf("qdrant %s %s failed: %s", method, url, resp.Status)
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return errors.Join(fmt.Errorf("decoding qdrant response from %s", url), err)
	}
	return nil
}
