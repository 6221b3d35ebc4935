// Package retrieval grounds question generation in indexed source documents:
// it embeds text, stores vectors, and returns the snippets nearest to a goal.
package retrieval

import (
	"context"
	"fmt"
	"hash/fnv"
	"math"
	"strings"

	"github.com/jonathan/interview-coach/internal/llm"
)

// Embedder turns texts into vectors
type Embedder interface {
	// EmbedTexts returns one vector per input text. Empty input yields nil.
	EmbedTexts(ctx context.Context, texts []string) ([][]float32, error)
	// Dimension returns the vector dimension this embedder produces
	Dimension() int
}

// GeminiEmbedder embeds via the Gemini embedding model
type GeminiEmbedder struct {
	client *llm.GeminiClient
	dim    int
}

// NewGeminiEmbedder wraps a Gemini client as an Embedder.
// text-embedding-004 produces 768-dimensional vectors.
func NewGeminiEmbedder(client *llm.GeminiClient) *GeminiEmbedder {
	return &GeminiEmbedder{client: client, dim: 768}
}

// EmbedTexts embeds a batch of texts
func (e *GeminiEmbedder) EmbedTexts(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}
	vectors, err := e.client.EmbedTexts(ctx, texts)
	if err != nil {
		return nil, fmt.Errorf("failed to embed texts: %w", err)
	}
	return vectors, nil
}

// Dimension returns the embedding dimension
func (e *GeminiEmbedder) Dimension() int {
	return e.dim
}

// LocalEmbedder is a deterministic offline embedder: a normalized hashed
// bag-of-words. Not semantically deep, but stable and dependency-free, which
// keeps retrieval functional without credentials and makes tests exact.
type LocalEmbedder struct {
	dim int
}

// NewLocalEmbedder creates a local embedder with the given dimension
func NewLocalEmbedder(dim int) *LocalEmbedder {
	if dim <= 0 {
		dim = 256
	}
	return &LocalEmbedder{dim: dim}
}

// EmbedTexts embeds texts as normalized hashed term-frequency vectors
func (e *LocalEmbedder) EmbedTexts(_ context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	vectors := make([][]float32, len(texts))
	for i, text := range texts {
		vectors[i] = e.embed(text)
	}
	return vectors, nil
}

// Dimension returns the embedding dimension
func (e *LocalEmbedder) Dimension() int {
	return e.dim
}

// embed returns nil for input with no tokens, so retrieval on blank input
// degrades to an empty result instead of a meaningless query.
func (e *LocalEmbedder) embed(text string) []float32 {
	vec := make([]float32, e.dim)
	tokens := 0
	for _, token := range strings.Fields(strings.ToLower(text)) {
		token = strings.Trim(token, ".,;:!?()[]{}\"'")
		if token == "" {
			continue
		}
		h := fnv.New32a()
		h.Write([]byte(token)) //nolint:errcheck
		vec[h.Sum32()%uint32(e.dim)]++
		tokens++
	}
	if tokens == 0 {
		return nil
	}

	var norm float64
	for _, v := range vec {
		norm += float64(v) * float64(v)
	}
	if norm > 0 {
		inv := float32(1 / math.Sqrt(norm))
		for i := range vec {
			vec[i] *= inv
		}
	}
	return vec
}
