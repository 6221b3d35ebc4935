package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const jobQueueSchema = `
CREATE TABLE IF NOT EXISTS job_queue (
	id BIGSERIAL PRIMARY KEY,
	type TEXT NOT NULL,
	payload JSONB NOT NULL DEFAULT '{}',
	status TEXT NOT NULL DEFAULT 'pending',
	attempts INTEGER NOT NULL DEFAULT 0,
	last_error TEXT,
	scheduled_at TIMESTAMPTZ,
	claimed_at TIMESTAMPTZ,
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS idx_job_queue_pending
	ON job_queue (id) WHERE status = 'pending';
`

// PgQueue is the Postgres-backed queue used in production.
type PgQueue struct {
	pool *pgxpool.Pool
}

// NewPgQueue creates the job_queue table if needed and returns the queue.
func NewPgQueue(ctx context.Context, pool *pgxpool.Pool) (*PgQueue, error) {
	if _, err := pool.Exec(ctx, jobQueueSchema); err != nil {
		return nil, fmt.Errorf("failed to ensure job queue schema: %w", err)
	}
	return &PgQueue{pool: pool}, nil
}

// Enqueue inserts a pending job and returns its ID.
func (q *PgQueue) Enqueue(ctx context.Context, jobType string, payload json.RawMessage) (int64, error) {
	if payload == nil {
		payload = json.RawMessage(`{}`)
	}

	var id int64
	err := q.pool.QueryRow(ctx, `
		INSERT INTO job_queue (type, payload)
		VALUES ($1, $2)
		RETURNING id
	`, jobType, payload).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("failed to enqueue job: %w", err)
	}
	return id, nil
}

// Dequeue claims the oldest eligible pending job. The claim runs as a single
// UPDATE over a locked subselect, so two consumers can never claim the same
// row.
func (q *PgQueue) Dequeue(ctx context.Context) (*Job, error) {
	row := q.pool.QueryRow(ctx, `
		UPDATE job_queue
		SET status = 'processing', claimed_at = NOW()
		WHERE id = (
			SELECT id FROM job_queue
			WHERE status = 'pending'
			  AND (scheduled_at IS NULL OR scheduled_at <= NOW())
			ORDER BY id ASC
			FOR UPDATE SKIP LOCKED
			LIMIT 1
		)
		RETURNING id, type, payload, status, attempts, last_error, scheduled_at, claimed_at, created_at
	`)

	job, err := scanJob(row)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to dequeue job: %w", err)
	}
	return job, nil
}

// Ack marks a claimed job done.
func (q *PgQueue) Ack(ctx context.Context, id int64) error {
	tag, err := q.pool.Exec(ctx, `
		UPDATE job_queue SET status = 'done' WHERE id = $1 AND status = 'processing'
	`, id)
	if err != nil {
		return fmt.Errorf("failed to ack job %d: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("job %d is not processing", id)
	}
	return nil
}

// Fail records a failure and bumps the attempt count. Retryable failures go
// straight back to pending; scheduled_at is left alone so it keeps meaning a
// producer-set not-before time.
func (q *PgQueue) Fail(ctx context.Context, id int64, cause string, retryable bool) error {
	var err error
	if retryable {
		_, err = q.pool.Exec(ctx, `
			UPDATE job_queue
			SET status = 'pending',
			    attempts = attempts + 1,
			    last_error = $2,
			    claimed_at = NULL
			WHERE id = $1 AND status = 'processing'
		`, id, cause)
	} else {
		_, err = q.pool.Exec(ctx, `
			UPDATE job_queue
			SET status = 'failed', attempts = attempts + 1, last_error = $2
			WHERE id = $1 AND status = 'processing'
		`, id, cause)
	}
	if err != nil {
		return fmt.Errorf("failed to record job %d failure: %w", id, err)
	}
	return nil
}

// RequeueStale returns jobs stuck in processing to pending.
func (q *PgQueue) RequeueStale(ctx context.Context, staleAfter time.Duration) (int, error) {
	tag, err := q.pool.Exec(ctx, `
		UPDATE job_queue
		SET status = 'pending', claimed_at = NULL
		WHERE status = 'processing' AND claimed_at < NOW() - $1::interval
	`, staleAfter)
	if err != nil {
		return 0, fmt.Errorf("failed to requeue stale jobs: %w", err)
	}
	return int(tag.RowsAffected()), nil
}

func scanJob(row pgx.Row) (*Job, error) {
	var job Job
	var lastError *string
	err := row.Scan(
		&job.ID, &job.Type, &job.Payload, &job.Status, &job.Attempts,
		&lastError, &job.ScheduledAt, &job.ClaimedAt, &job.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	if lastError != nil {
		job.LastError = *lastError
	}
	return &job, nil
}
