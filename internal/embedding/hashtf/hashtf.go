// Package hashtf implements a local, dependency-free embedder using feature
// hashing: each token is hashed into a fixed number of buckets and the
// resulting term-frequency vector is L2-normalized. The dimension is fixed
// at construction, no corpus preparation is needed, and identical input
// always produces identical vectors.
package hashtf

import (
	"context"
	"fmt"
	"hash/fnv"
	"math"

	"supportrag/internal/domain"
	"supportrag/internal/textutil"
)

const DefaultDimension = 512

// Embedder is a pure-function embedder suitable for offline use and tests.
type Embedder struct {
	dimension int
}

func New(dimension int) (*Embedder, error) {
	if dimension <= 0 {
		return nil, fmt.Errorf("%w: dimension must be positive, got %d", domain.ErrInvalidInput, dimension)
	}
	return &Embedder{dimension: dimension}, nil
}

func (e *Embedder) Name() string { return "hashtf" }

func (e *Embedder) Dimension() int { return e.dimension }

func (e *Embedder) Embed(_ context.Context, text string) ([]float64, error) {
	vec := make([]float64, e.dimension)
	for _, tok := range textutil.Tokenize(text) {
		bucket, sign := e.hash(tok)
		vec[bucket] += sign
	}
	normalize(vec)
	return vec, nil
}

func (e *Embedder) EmbedBatch(ctx context.Context, texts []string) ([][]float64, error) {
	vectors := make([][]float64, len(texts))
	for i, t := range texts {
		v, err := e.Embed(ctx, t)
		if err != nil {
			return nil, err
		}
		vectors[i] = v
	}
	return vectors, nil
}

// hash maps a token to a bucket plus a +1/-1 sign. The sign bit spreads
// collisions so two colliding tokens do not always reinforce each other.
func (e *Embedder) hash(token string) (int, float64) {
	h := fnv.New32a()
	_, _ = h.Write([]byte(token))
	sum := h.Sum32()
	bucket := int(sum>>1) % e.dimension
	if sum&1 == 1 {
		return bucket, -1
	}
	return bucket, 1
}

func normalize(vec []float64) {
	var norm float64
	for _, v := range vec {
		norm += v * v
	}
	norm = math.Sqrt(norm)
	if norm == 0 {
		return
	}
	for i := range vec {
		vec[i] /= norm
	}
}
