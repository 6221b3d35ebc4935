// Package worker polls the job queue and dispatches jobs to registered
// handlers.
package worker

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/jonathan/interview-coach/internal/queue"
)

// HandlerFunc processes one claimed job. A returned error requeues the job
// for retry.
type HandlerFunc func(ctx context.Context, job *queue.Job) error

// Options tune the polling loop.
type Options struct {
	// PollInterval is how long the worker sleeps when the queue is empty.
	PollInterval time.Duration
	// StaleAfter is the processing age past which a job is treated as
	// abandoned and requeued. Zero disables the reaper.
	StaleAfter time.Duration
}

// Worker runs the consume loop. Multiple workers can share one queue; the
// queue's claim semantics guarantee each job is delivered to one of them.
type Worker struct {
	jobs     queue.Queue
	handlers map[string]HandlerFunc
	opts     Options

	sleep    func(ctx context.Context, d time.Duration) error
	now      func() time.Time
	lastReap time.Time
}

// New creates a worker with no registered handlers.
func New(jobs queue.Queue, opts Options) *Worker {
	if opts.PollInterval <= 0 {
		opts.PollInterval = time.Second
	}
	return &Worker{
		jobs:     jobs,
		handlers: make(map[string]HandlerFunc),
		opts:     opts,
		sleep:    sleepCtx,
		now:      time.Now,
	}
}

// Register binds a handler to a job type. Registering a type twice replaces
// the earlier handler.
func (w *Worker) Register(jobType string, handler HandlerFunc) {
	w.handlers[jobType] = handler
}

// Run consumes jobs until the context is canceled. It always returns the
// context's error.
func (w *Worker) Run(ctx context.Context) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		w.maybeReap(ctx)

		job, err := w.jobs.Dequeue(ctx)
		if err != nil {
			log.Printf("worker: dequeue failed: %v", err)
			if err := w.sleep(ctx, w.opts.PollInterval); err != nil {
				return err
			}
			continue
		}
		if job == nil {
			if err := w.sleep(ctx, w.opts.PollInterval); err != nil {
				return err
			}
			continue
		}

		w.process(ctx, job)
	}
}

// RunOnce drains the queue until it is empty, then returns the number of
// jobs processed. Intended for tests and one-shot invocations.
func (w *Worker) RunOnce(ctx context.Context) (int, error) {
	processed := 0
	for {
		job, err := w.jobs.Dequeue(ctx)
		if err != nil {
			return processed, err
		}
		if job == nil {
			return processed, nil
		}
		w.process(ctx, job)
		processed++
	}
}

func (w *Worker) process(ctx context.Context, job *queue.Job) {
	handler, ok := w.handlers[job.Type]
	if !ok {
		// No handler will ever exist for this type; retrying is pointless.
		if err := w.jobs.Fail(ctx, job.ID, fmt.Sprintf("no handler for job type %q", job.Type), false); err != nil {
			log.Printf("worker: failed to reject job %d: %v", job.ID, err)
		}
		return
	}

	if err := handler(ctx, job); err != nil {
		log.Printf("worker: job %d (%s) failed on attempt %d: %v", job.ID, job.Type, job.Attempts, err)
		if failErr := w.jobs.Fail(ctx, job.ID, err.Error(), true); failErr != nil {
			log.Printf("worker: failed to record job %d failure: %v", job.ID, failErr)
		}
		return
	}

	if err := w.jobs.Ack(ctx, job.ID); err != nil {
		log.Printf("worker: failed to ack job %d: %v", job.ID, err)
	}
}

// maybeReap requeues abandoned jobs at most once per stale window.
func (w *Worker) maybeReap(ctx context.Context) {
	if w.opts.StaleAfter <= 0 {
		return
	}
	now := w.now()
	if now.Sub(w.lastReap) < w.opts.StaleAfter {
		return
	}
	w.lastReap = now

	n, err := w.jobs.RequeueStale(ctx, w.opts.StaleAfter)
	if err != nil {
		log.Printf("worker: stale job sweep failed: %v", err)
		return
	}
	if n > 0 {
		log.Printf("worker: requeued %d stale jobs", n)
	}
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
