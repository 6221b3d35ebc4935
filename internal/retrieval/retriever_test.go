package retrieval

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRetriever() (*Retriever, *MemoryStore) {
	store := NewMemoryStore()
	return NewRetriever(store, NewLocalEmbedder(64)), store
}

func TestRetriever_IndexAndRetrieve(t *testing.T) {
	r, store := newTestRetriever()
	ctx := context.Background()

	docs := []Document{
		{Text: "Built a payment gateway handling 2000 requests per second", Metadata: map[string]string{"type": "experience"}},
		{Text: "Led migration of the search cluster to Kubernetes", Metadata: map[string]string{"type": "experience"}},
		{Text: "Requirements: Go, PostgreSQL, distributed systems", Metadata: map[string]string{"type": "job"}},
	}

	ids, err := r.Index(ctx, docs)
	require.NoError(t, err)
	require.Len(t, ids, 3)
	assert.Equal(t, 3, store.Len())

	texts, err := r.Retrieve(ctx, "payment gateway requests per second", 2)
	require.NoError(t, err)
	require.Len(t, texts, 2)
	assert.Equal(t, docs[0].Text, texts[0], "most similar document should rank first")
}

func TestRetriever_RetrieveRespectsK(t *testing.T) {
	r, _ := newTestRetriever()
	ctx := context.Background()

	_, err := r.Index(ctx, []Document{
		{Text: "alpha"}, {Text: "beta"}, {Text: "gamma"},
	})
	require.NoError(t, err)

	texts, err := r.Retrieve(ctx, "alpha beta gamma", 10)
	require.NoError(t, err)
	assert.Len(t, texts, 3, "k larger than the corpus returns everything")

	texts, err = r.Retrieve(ctx, "alpha", 1)
	require.NoError(t, err)
	assert.Len(t, texts, 1)
}

func TestRetriever_EmptyGoalReturnsEmpty(t *testing.T) {
	r, _ := newTestRetriever()
	ctx := context.Background()

	_, err := r.Index(ctx, []Document{{Text: "something"}})
	require.NoError(t, err)

	texts, err := r.Retrieve(ctx, "   ", 5)
	require.NoError(t, err)
	assert.Empty(t, texts, "blank goal yields no vector, so retrieval returns nothing")
}

func TestRetriever_UpsertReplacesByID(t *testing.T) {
	r, store := newTestRetriever()
	ctx := context.Background()

	ids, err := r.Index(ctx, []Document{{ID: "doc-1", Text: "original text"}})
	require.NoError(t, err)
	require.Equal(t, []string{"doc-1"}, ids)

	_, err = r.Index(ctx, []Document{{ID: "doc-1", Text: "replacement text about databases"}})
	require.NoError(t, err)
	assert.Equal(t, 1, store.Len(), "re-indexing the same id must replace, not duplicate")

	texts, err := r.Retrieve(ctx, "replacement databases", 1)
	require.NoError(t, err)
	require.Len(t, texts, 1)
	assert.Contains(t, texts[0], "replacement")
}

func TestRetriever_IndexGeneratesIDs(t *testing.T) {
	r, _ := newTestRetriever()

	ids, err := r.Index(context.Background(), []Document{{Text: "no id given"}})
	require.NoError(t, err)
	require.Len(t, ids, 1)
	assert.NotEmpty(t, ids[0])
}

func TestLocalEmbedder_Deterministic(t *testing.T) {
	e := NewLocalEmbedder(64)
	ctx := context.Background()

	a, err := e.EmbedTexts(ctx, []string{"kubernetes migration"})
	require.NoError(t, err)
	b, err := e.EmbedTexts(ctx, []string{"kubernetes migration"})
	require.NoError(t, err)

	assert.Equal(t, a, b)
	assert.Len(t, a[0], 64)
}

func TestLocalEmbedder_EmptyInput(t *testing.T) {
	e := NewLocalEmbedder(64)

	vectors, err := e.EmbedTexts(context.Background(), nil)
	require.NoError(t, err)
	assert.Nil(t, vectors)

	vectors, err = e.EmbedTexts(context.Background(), []string{""})
	require.NoError(t, err)
	require.Len(t, vectors, 1)
	assert.Empty(t, vectors[0])
}
