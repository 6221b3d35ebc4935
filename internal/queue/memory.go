package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"
)

// MemoryQueue is an in-process Queue with the same delivery semantics as
// PgQueue. It backs tests and single-process deployments without Postgres.
type MemoryQueue struct {
	mu     sync.Mutex
	nextID int64
	jobs   map[int64]*Job
	now    func() time.Time
}

// NewMemoryQueue returns an empty in-memory queue.
func NewMemoryQueue() *MemoryQueue {
	return &MemoryQueue{
		nextID: 1,
		jobs:   make(map[int64]*Job),
		now:    time.Now,
	}
}

// SetClock overrides the queue's time source. Intended for tests.
func (q *MemoryQueue) SetClock(now func() time.Time) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.now = now
}

// Enqueue inserts a pending job and returns its ID.
func (q *MemoryQueue) Enqueue(ctx context.Context, jobType string, payload json.RawMessage) (int64, error) {
	if payload == nil {
		payload = json.RawMessage(`{}`)
	}

	q.mu.Lock()
	defer q.mu.Unlock()

	id := q.nextID
	q.nextID++
	q.jobs[id] = &Job{
		ID:        id,
		Type:      jobType,
		Payload:   payload,
		Status:    StatusPending,
		CreatedAt: q.now(),
	}
	return id, nil
}

// Dequeue claims the oldest eligible pending job, or returns nil, nil.
func (q *MemoryQueue) Dequeue(ctx context.Context) (*Job, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	now := q.now()
	var oldest *Job
	for _, job := range q.jobs {
		if job.Status != StatusPending {
			continue
		}
		if job.ScheduledAt != nil && job.ScheduledAt.After(now) {
			continue
		}
		if oldest == nil || job.ID < oldest.ID {
			oldest = job
		}
	}
	if oldest == nil {
		return nil, nil
	}

	oldest.Status = StatusProcessing
	claimed := now
	oldest.ClaimedAt = &claimed

	copied := *oldest
	return &copied, nil
}

// Ack marks a claimed job done.
func (q *MemoryQueue) Ack(ctx context.Context, id int64) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	job, ok := q.jobs[id]
	if !ok || job.Status != StatusProcessing {
		return fmt.Errorf("job %d is not processing", id)
	}
	job.Status = StatusDone
	return nil
}

// Fail records a failure for a claimed job and bumps its attempt count.
// Retryable failures go straight back to pending and are claimable at once.
func (q *MemoryQueue) Fail(ctx context.Context, id int64, cause string, retryable bool) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	job, ok := q.jobs[id]
	if !ok || job.Status != StatusProcessing {
		return fmt.Errorf("job %d is not processing", id)
	}

	job.LastError = cause
	job.Attempts++
	if retryable {
		job.Status = StatusPending
		job.ClaimedAt = nil
	} else {
		job.Status = StatusFailed
	}
	return nil
}

// RequeueStale returns jobs stuck in processing to pending.
func (q *MemoryQueue) RequeueStale(ctx context.Context, staleAfter time.Duration) (int, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	cutoff := q.now().Add(-staleAfter)
	requeued := 0
	for _, job := range q.jobs {
		if job.Status == StatusProcessing && job.ClaimedAt != nil && job.ClaimedAt.Before(cutoff) {
			job.Status = StatusPending
			job.ClaimedAt = nil
			requeued++
		}
	}
	return requeued, nil
}

// Get returns a snapshot of a job by ID, or nil when unknown. Intended for
// tests and status endpoints.
func (q *MemoryQueue) Get(id int64) *Job {
	q.mu.Lock()
	defer q.mu.Unlock()

	job, ok := q.jobs[id]
	if !ok {
		return nil
	}
	copied := *job
	return &copied
}
