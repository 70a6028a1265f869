package providers

import (
	"context"
	"hash/fnv"
	"math"
	"strings"
)

// HashingEmbedder is an offline embedder that hashes character trigrams of
// each token into a fixed number of buckets. It needs no network access, so
// it backs semantic scoring when no hosted embedding model is configured.
type HashingEmbedder struct {
	dims int
}

// NewHashingEmbedder creates a hashing embedder with the given dimensionality
func NewHashingEmbedder(dims int) *HashingEmbedder {
	if dims <= 0 {
		dims = 512
	}
	return &HashingEmbedder{dims: dims}
}

// EmbedDocuments embeds every text independently
func (e *HashingEmbedder) EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error) {
	vectors := make([][]float32, len(texts))
	for i, text := range texts {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		vectors[i] = e.embed(text)
	}
	return vectors, nil
}

// EmbedQuery embeds a single text
func (e *HashingEmbedder) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return e.embed(text), nil
}

func (e *HashingEmbedder) embed(text string) []float32 {
	vec := make([]float32, e.dims)
	for _, token := range strings.Fields(strings.ToLower(text)) {
		padded := []rune(" " + token + " ")
		for i := 0; i+3 <= len(padded); i++ {
			vec[e.bucket(string(padded[i:i+3]))]++
		}
	}

	var norm float64
	for _, v := range vec {
		norm += float64(v) * float64(v)
	}
	if norm == 0 {
		return vec
	}
	scale := float32(1 / math.Sqrt(norm))
	for i := range vec {
		vec[i] *= scale
	}
	return vec
}

func (e *HashingEmbedder) bucket(feature string) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(feature))
	return int(h.Sum32() % uint32(e.dims))
}
