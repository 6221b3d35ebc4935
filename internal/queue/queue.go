// Package queue provides a durable FIFO job queue with at-least-once
// delivery. The Postgres implementation uses SELECT ... FOR UPDATE SKIP
// LOCKED so concurrent consumers never claim the same job twice.
package queue

import (
	"context"
	"encoding/json"
	"time"
)

// Job statuses
const (
	StatusPending    = "pending"
	StatusProcessing = "processing"
	StatusDone       = "done"
	StatusFailed     = "failed"
)

// Job types
const (
	TypeGenerateFeedback = "generate_feedback"
	TypeReindexDocuments = "reindex_documents"
)

// Job represents a unit of background work. IDs are assigned sequentially
// so that claim order matches enqueue order.
type Job struct {
	ID          int64           `json:"id"`
	Type        string          `json:"type"`
	Payload     json.RawMessage `json:"payload"`
	Status      string          `json:"status"`
	Attempts    int             `json:"attempts"`
	LastError   string          `json:"last_error,omitempty"`
	ScheduledAt *time.Time      `json:"scheduled_at,omitempty"`
	ClaimedAt   *time.Time      `json:"claimed_at,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
}

// Queue is the job queue contract shared by the Postgres and in-memory
// implementations.
type Queue interface {
	// Enqueue inserts a pending job and returns its assigned ID.
	Enqueue(ctx context.Context, jobType string, payload json.RawMessage) (int64, error)

	// Dequeue claims the oldest eligible pending job and marks it
	// processing. It returns nil, nil when no job is available.
	Dequeue(ctx context.Context) (*Job, error)

	// Ack marks a claimed job done.
	Ack(ctx context.Context, id int64) error

	// Fail records a failure for a claimed job and increments its attempt
	// count. Retryable failures return the job to pending immediately;
	// terminal failures mark it failed.
	Fail(ctx context.Context, id int64, cause string, retryable bool) error

	// RequeueStale returns jobs stuck in processing longer than staleAfter
	// to pending, so work claimed by a crashed consumer is re-delivered.
	RequeueStale(ctx context.Context, staleAfter time.Duration) (int, error)
}
