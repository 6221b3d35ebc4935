package retrieval

import (
	"context"
	"math"
	"sort"
	"sync"

	"github.com/google/uuid"
)

// MemoryStore is an in-memory Store with the same contract as PgStore.
// It backs the stub retrieval backend and unit tests. Ties in similarity
// are broken by insertion order.
type MemoryStore struct {
	mu      sync.RWMutex
	docs    map[string]memoryDoc
	ordered []string // insertion order of IDs
}

type memoryDoc struct {
	doc    Document
	vector []float32
}

// NewMemoryStore creates an empty in-memory store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{docs: make(map[string]memoryDoc)}
}

// Upsert inserts or replaces documents by ID
func (s *MemoryStore) Upsert(_ context.Context, docs []Document, vectors [][]float32) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ids := make([]string, len(docs))
	for i, doc := range docs {
		id := doc.ID
		if id == "" {
			id = uuid.New().String()
		}
		ids[i] = id

		if _, exists := s.docs[id]; !exists {
			s.ordered = append(s.ordered, id)
		}
		s.docs[id] = memoryDoc{doc: Document{ID: id, Text: doc.Text, Metadata: doc.Metadata}, vector: vectors[i]}
	}
	return ids, nil
}

// Query returns the k nearest documents by cosine distance
func (s *MemoryStore) Query(_ context.Context, vector []float32, k int) (*QueryResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	type scored struct {
		id       string
		order    int
		distance float32
	}

	var matches []scored
	for i, id := range s.ordered {
		d := s.docs[id]
		matches = append(matches, scored{id: id, order: i, distance: 1 - cosine(vector, d.vector)})
	}

	sort.SliceStable(matches, func(i, j int) bool {
		if matches[i].distance != matches[j].distance {
			return matches[i].distance < matches[j].distance
		}
		return matches[i].order < matches[j].order
	})

	if k < len(matches) {
		matches = matches[:k]
	}

	result := &QueryResult{}
	for _, m := range matches {
		d := s.docs[m.id]
		result.IDs = append(result.IDs, m.id)
		result.Texts = append(result.Texts, d.doc.Text)
		result.Metadatas = append(result.Metadatas, d.doc.Metadata)
		result.Distances = append(result.Distances, m.distance)
	}
	return result, nil
}

// Len returns the number of stored documents
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.docs)
}

func cosine(a, b []float32) float32 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, na, nb float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return float32(dot / (math.Sqrt(na) * math.Sqrt(nb)))
}
