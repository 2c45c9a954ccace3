// Package hashing provides a deterministic local embedder based on feature hashing.
// It needs no network and is used for offline builds and tests.
package hashing

import (
	"context"
	"hash/fnv"
	"math"

	"github.com/totto/penpot-wizard-sub002/internal/domain"
	"github.com/totto/penpot-wizard-sub002/internal/domain/search/tokenize"
)

// Provider is the provider label reported in metrics and config.
const Provider = "hashing"

// Embedder maps each term to a signed bucket and L2-normalizes the counts.
type Embedder struct {
	dimensions int
}

// NewEmbedder creates a hashing embedder producing vectors of the given size.
func NewEmbedder(dimensions int) *Embedder {
	if dimensions <= 0 {
		dimensions = domain.DefaultVectorConfig().Dimensions
	}
	return &Embedder{dimensions: dimensions}
}

// Dimensions returns the vector size.
func (e *Embedder) Dimensions() int { return e.dimensions }

// Embed implements domain.Embedder. Text without terms yields a zero vector.
func (e *Embedder) Embed(ctx context.Context, text string) (domain.EmbeddingResult, error) {
	if err := ctx.Err(); err != nil {
		return domain.EmbeddingResult{}, err
	}
	terms := tokenize.Terms(text)
	acc := make([]float64, e.dimensions)
	for _, t := range terms {
		idx, sign := e.bucket(t)
		acc[idx] += sign
	}

	var norm float64
	for _, v := range acc {
		norm += v * v
	}
	norm = math.Sqrt(norm)

	vec := make([]float32, e.dimensions)
	if norm > 0 {
		for i, v := range acc {
			vec[i] = float32(v / norm)
		}
	}
	return domain.EmbeddingResult{
		Embedding:    vec,
		PromptTokens: len(terms),
		TotalTokens:  len(terms),
	}, nil
}

// HealthCheck always succeeds.
func (e *Embedder) HealthCheck(context.Context) error { return nil }

func (e *Embedder) bucket(term string) (int, float64) {
	h := fnv.New64a()
	_, _ = h.Write([]byte(term))
	sum := h.Sum64()
	sign := 1.0
	if sum>>63 == 1 {
		sign = -1.0
	}
	return int(sum % uint64(e.dimensions)), sign
}
