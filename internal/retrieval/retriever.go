package retrieval

import (
	"context"
	"fmt"
)

// DefaultCollection is the collection name used for interview grounding
const DefaultCollection = "interview_kb"

// Retriever indexes documents and retrieves the snippets most relevant to a
// natural-language goal.
type Retriever struct {
	store    Store
	embedder Embedder
}

// NewRetriever creates a retriever over a store and an embedder
func NewRetriever(store Store, embedder Embedder) *Retriever {
	return &Retriever{store: store, embedder: embedder}
}

// Index embeds and upserts documents. Re-indexing a document with the same
// ID replaces its text, metadata and vector.
func (r *Retriever) Index(ctx context.Context, docs []Document) ([]string, error) {
	if len(docs) == 0 {
		return nil, nil
	}

	texts := make([]string, len(docs))
	for i, d := range docs {
		texts[i] = d.Text
	}

	vectors, err := r.embedder.EmbedTexts(ctx, texts)
	if err != nil {
		return nil, fmt.Errorf("failed to embed documents: %w", err)
	}

	ids, err := r.store.Upsert(ctx, docs, vectors)
	if err != nil {
		return nil, fmt.Errorf("failed to store documents: %w", err)
	}
	return ids, nil
}

// Retrieve returns up to k snippet texts ordered by descending similarity to
// the goal. An empty goal embedding yields an empty result, not an error.
func (r *Retriever) Retrieve(ctx context.Context, goal string, k int) ([]string, error) {
	vectors, err := r.embedder.EmbedTexts(ctx, []string{goal})
	if err != nil {
		return nil, fmt.Errorf("failed to embed goal: %w", err)
	}
	if len(vectors) == 0 || len(vectors[0]) == 0 {
		return nil, nil
	}

	result, err := r.store.Query(ctx, vectors[0], k)
	if err != nil {
		return nil, fmt.Errorf("failed to query documents: %w", err)
	}
	return result.Texts, nil
}
