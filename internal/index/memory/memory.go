// Package memory implements the default vector index: an id-keyed exact
// k-NN store using cosine similarity, with JSON file persistence.
//
// Concurrency follows a single-writer/multi-reader discipline: writers are
// serialized by a mutex and publish an immutable snapshot that readers load
// atomically, so a search either fully sees or fully misses an insert batch.
package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"os"
	"sort"
	"sync"
	"sync/atomic"

	"supportrag/internal/domain"
)

// Metric identifies the similarity function baked into persisted files.
// Scores from indexes with different metrics are not comparable.
const Metric = "cosine"

type snapshot struct {
	entries []domain.IndexEntry // insertion order, unique by chunk id
}

// Index is an in-memory vector index with a fixed dimension.
type Index struct {
	dimension int

	mu   sync.Mutex // serializes Insert
	byID map[string]int
	snap atomic.Pointer[snapshot]
}

// New creates an empty index for vectors of the given dimension.
func New(dimension int) (*Index, error) {
	if dimension <= 0 {
		return nil, fmt.Errorf("%w: dimension must be positive, got %d", domain.ErrInvalidInput, dimension)
	}
	idx := &Index{dimension: dimension, byID: make(map[string]int)}
	idx.snap.Store(&snapshot{})
	return idx, nil
}

// Dimension returns the fixed vector dimension of this index.
func (x *Index) Dimension() int { return x.dimension }

// Size returns the number of live entries.
func (x *Index) Size() int { return len(x.snap.Load().entries) }

// Insert adds entries, superseding any existing entry with the same chunk
// id in place (insertion order of the original entry is kept). The batch is
// validated before any mutation, so a dimension error leaves the index
// untouched.
func (x *Index) Insert(_ context.Context, entries []domain.IndexEntry) error {
	for _, e := range entries {
		if len(e.Vector) != x.dimension {
			return fmt.Errorf("%w: entry %s has dimension %d, index expects %d",
				domain.ErrDimensionMismatch, e.Chunk.ID, len(e.Vector), x.dimension)
		}
	}
	x.mu.Lock()
	defer x.mu.Unlock()

	cur := x.snap.Load().entries
	next := make([]domain.IndexEntry, len(cur), len(cur)+len(entries))
	copy(next, cur)
	for _, e := range entries {
		if pos, ok := x.byID[e.Chunk.ID]; ok {
			next[pos] = e
			continue
		}
		x.byID[e.Chunk.ID] = len(next)
		next = append(next, e)
	}
	x.snap.Store(&snapshot{entries: next})
	return nil
}

// Search returns up to k entries ranked by descending cosine similarity.
// Ties keep insertion order. An empty index yields an empty result, not an
// error.
func (x *Index) Search(_ context.Context, vector []float64, k int) ([]domain.SearchResult, error) {
	if len(vector) != x.dimension {
		return nil, fmt.Errorf("%w: query has dimension %d, index expects %d",
			domain.ErrDimensionMismatch, len(vector), x.dimension)
	}
	if k <= 0 {
		return nil, nil
	}
	entries := x.snap.Load().entries
	results := make([]domain.SearchResult, len(entries))
	for i, e := range entries {
		results[i] = domain.SearchResult{Chunk: e.Chunk, Score: cosine(vector, e.Vector)}
	}
	sort.SliceStable(results, func(i, j int) bool { return results[i].Score > results[j].Score })
	if k > len(results) {
		k = len(results)
	}
	return results[:k], nil
}

type indexFile struct {
	Dimension int                 `json:"dimension"`
	Metric    string              `json:"metric"`
	Entries   []domain.IndexEntry `json:"entries"`
}

// Persist writes the current snapshot to path. The file carries the
// dimension and metric so Load can validate it in a separate process.
func (x *Index) Persist(path string) error {
	data, err := json.Marshal(indexFile{
		Dimension: x.dimension,
		Metric:    Metric,
		Entries:   x.snap.Load().entries,
	})
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// Load reads a persisted index. The loaded index answers any search with
// the same results as the one that was persisted.
func Load(path string) (*Index, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var f indexFile
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrIndexCorrupt, err)
	}
	if f.Metric != Metric {
		return nil, fmt.Errorf("%w: unsupported metric %q", domain.ErrIndexCorrupt, f.Metric)
	}
	if f.Dimension <= 0 {
		return nil, fmt.Errorf("%w: non-positive dimension %d", domain.ErrIndexCorrupt, f.Dimension)
	}
	idx, err := New(f.Dimension)
	if err != nil {
		return nil, err
	}
	for _, e := range f.Entries {
		if len(e.Vector) != f.Dimension {
			return nil, fmt.Errorf("%w: entry %s has dimension %d, file declares %d",
				domain.ErrIndexCorrupt, e.Chunk.ID, len(e.Vector), f.Dimension)
		}
	}
	if err := idx.Insert(context.Background(), f.Entries); err != nil {
		return nil, err
	}
	return idx, nil
}

func cosine(a, b []float64) float64 {
	var dot, na, nb float64
	for i := range a {
		dot += a[i] * b[i]
		na += a[i] * a[i]
		nb += b[i] * b[i]
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}
