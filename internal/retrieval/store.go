package retrieval

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Document is one indexable unit of text with its metadata
type Document struct {
	ID       string            `json:"id,omitempty"`
	Text     string            `json:"text"`
	Metadata map[string]string `json:"metadata,omitempty"`
}

// QueryResult holds nearest-neighbor matches ordered ascending by distance
type QueryResult struct {
	IDs       []string
	Texts     []string
	Metadatas []map[string]string
	Distances []float32
}

// Store persists documents and their vectors inside one named collection
type Store interface {
	// Upsert inserts or replaces documents by ID. Documents without an ID
	// get a freshly generated one. Returns the stored IDs in input order.
	Upsert(ctx context.Context, docs []Document, vectors [][]float32) ([]string, error)
	// Query returns the k nearest documents to the given vector
	Query(ctx context.Context, vector []float32, k int) (*QueryResult, error)
}

// PgStore is a pgvector-backed Store
type PgStore struct {
	pool       *pgxpool.Pool
	collection string
}

// NewPgStore creates a pgvector store scoped to one collection and ensures
// the extension and table exist.
func NewPgStore(ctx context.Context, pool *pgxpool.Pool, collection string, dim int) (*PgStore, error) {
	ddl := fmt.Sprintf(`
		CREATE EXTENSION IF NOT EXISTS vector;
		CREATE TABLE IF NOT EXISTS rag_embeddings (
			id         TEXT PRIMARY KEY,
			collection TEXT NOT NULL,
			document   TEXT NOT NULL,
			metadata   JSONB NOT NULL DEFAULT '{}',
			embedding  vector(%d)
		);
		CREATE INDEX IF NOT EXISTS idx_rag_embeddings_collection ON rag_embeddings(collection);
	`, dim)
	if _, err := pool.Exec(ctx, ddl); err != nil {
		return nil, fmt.Errorf("failed to ensure vector store schema: %w", err)
	}
	return &PgStore{pool: pool, collection: collection}, nil
}

// Upsert inserts or replaces documents by ID
func (s *PgStore) Upsert(ctx context.Context, docs []Document, vectors [][]float32) ([]string, error) {
	if len(docs) != len(vectors) {
		return nil, fmt.Errorf("document/vector count mismatch: %d != %d", len(docs), len(vectors))
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	ids := make([]string, len(docs))
	for i, doc := range docs {
		id := doc.ID
		if id == "" {
			id = uuid.New().String()
		}
		ids[i] = id

		meta := doc.Metadata
		if meta == nil {
			meta = map[string]string{}
		}
		metaJSON, err := json.Marshal(meta)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal metadata: %w", err)
		}

		_, err = tx.Exec(ctx,
			`INSERT INTO rag_embeddings (id, collection, document, metadata, embedding)
			 VALUES ($1, $2, $3, $4, $5::vector)
			 ON CONFLICT (id) DO UPDATE SET collection = $2, document = $3, metadata = $4, embedding = $5::vector`,
			id, s.collection, doc.Text, metaJSON, vectorLiteral(vectors[i]),
		)
		if err != nil {
			return nil, fmt.Errorf("failed to upsert document: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit upsert: %w", err)
	}
	return ids, nil
}

// Query returns the k nearest documents by cosine distance
func (s *PgStore) Query(ctx context.Context, vector []float32, k int) (*QueryResult, error) {
	qv := vectorLiteral(vector)
	rows, err := s.pool.Query(ctx,
		`SELECT id, document, metadata, embedding <=> $1::vector AS distance
		 FROM rag_embeddings
		 WHERE collection = $2
		 ORDER BY embedding <=> $1::vector
		 LIMIT $3`,
		qv, s.collection, k,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query vector store: %w", err)
	}
	defer rows.Close()

	result := &QueryResult{}
	for rows.Next() {
		var id, document string
		var metaRaw []byte
		var distance float32
		if err := rows.Scan(&id, &document, &metaRaw, &distance); err != nil {
			return nil, fmt.Errorf("failed to scan match: %w", err)
		}
		var meta map[string]string
		_ = json.Unmarshal(metaRaw, &meta)

		result.IDs = append(result.IDs, id)
		result.Texts = append(result.Texts, document)
		result.Metadatas = append(result.Metadatas, meta)
		result.Distances = append(result.Distances, distance)
	}
	return result, nil
}

// vectorLiteral renders a vector as a pgvector text literal
func vectorLiteral(vec []float32) string {
	var b strings.Builder
	b.WriteByte('[')
	for i, v := range vec {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(strconv.FormatFloat(float64(v), 'f', -1, 32))
	}
	b.WriteByte(']')
	return b.String()
}
