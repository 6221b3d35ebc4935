// Package recommend ranks a candidate's experiences against a job posting by
// embedding similarity, so interview sessions can be started from the most
// relevant material.
package recommend

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/jonathan/interview-coach/internal/db"
	"github.com/jonathan/interview-coach/internal/retrieval"
)

// DefaultLimit caps recommendations when the caller does not set one.
const DefaultLimit = 5

// Store is the persistence surface the recommender needs. *db.DB satisfies it.
type Store interface {
	GetJobPosting(ctx context.Context, id uuid.UUID) (*db.JobPosting, error)
	ListExperiencesByUser(ctx context.Context, userID uuid.UUID) ([]db.Experience, error)
}

// Recommendation pairs an experience with its similarity to the posting.
// Score is cosine similarity, higher is more relevant.
type Recommendation struct {
	Experience db.Experience `json:"experience"`
	Score      float32       `json:"score"`
}

// Recommender ranks experiences for a posting.
type Recommender struct {
	store    Store
	embedder retrieval.Embedder
}

// New creates a recommender.
func New(store Store, embedder retrieval.Embedder) *Recommender {
	return &Recommender{store: store, embedder: embedder}
}

// Recommend returns the user's experiences most similar to the job posting,
// best match first.
func (r *Recommender) Recommend(ctx context.Context, userID, jobPostingID uuid.UUID, limit int) ([]Recommendation, error) {
	if limit <= 0 {
		limit = DefaultLimit
	}

	job, err := r.store.GetJobPosting(ctx, jobPostingID)
	if err != nil {
		return nil, err
	}
	if job == nil {
		return nil, fmt.Errorf("job posting %s not found", jobPostingID)
	}

	experiences, err := r.store.ListExperiencesByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if len(experiences) == 0 {
		return nil, nil
	}

	texts := make([]string, 0, len(experiences)+1)
	texts = append(texts, jobPostingText(job))
	for _, exp := range experiences {
		texts = append(texts, experienceText(&exp))
	}

	vectors, err := r.embedder.EmbedTexts(ctx, texts)
	if err != nil {
		return nil, err
	}
	jobVec := vectors[0]
	if len(jobVec) == 0 {
		return nil, nil
	}

	// A transient store does the similarity ranking.
	index := retrieval.NewMemoryStore()
	docs := make([]retrieval.Document, len(experiences))
	for i, exp := range experiences {
		docs[i] = retrieval.Document{ID: exp.ID.String(), Text: texts[i+1]}
	}
	if _, err := index.Upsert(ctx, docs, vectors[1:]); err != nil {
		return nil, err
	}

	result, err := index.Query(ctx, jobVec, limit)
	if err != nil {
		return nil, err
	}

	byID := make(map[string]db.Experience, len(experiences))
	for _, exp := range experiences {
		byID[exp.ID.String()] = exp
	}

	recs := make([]Recommendation, 0, len(result.IDs))
	for i, id := range result.IDs {
		exp, ok := byID[id]
		if !ok {
			continue
		}
		recs = append(recs, Recommendation{Experience: exp, Score: 1 - result.Distances[i]})
	}
	return recs, nil
}

func jobPostingText(job *db.JobPosting) string {
	var parts []string
	for _, v := range job.Sections {
		parts = append(parts, v)
	}
	if len(parts) == 0 && job.RawText != nil {
		parts = append(parts, *job.RawText)
	}
	return strings.Join(parts, "\n")
}

func experienceText(exp *db.Experience) string {
	var parts []string
	if exp.Title != nil {
		parts = append(parts, *exp.Title)
	}
	for _, v := range exp.Content {
		parts = append(parts, v)
	}
	return strings.Join(parts, "\n")
}
