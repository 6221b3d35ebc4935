package db

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// -----------------------------------------------------------------------------
// Feedback Report Methods
// -----------------------------------------------------------------------------

// ReplaceReport deletes any existing report for the session and creates a
// fresh pending one. The latest report supersedes earlier ones, so a session
// has at most one current report.
func (db *DB) ReplaceReport(ctx context.Context, sessionID uuid.UUID) (*FeedbackReport, error) {
	tx, err := db.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	if _, err := tx.Exec(ctx, `DELETE FROM feedback_reports WHERE session_id = $1`, sessionID); err != nil {
		return nil, fmt.Errorf("failed to delete prior report: %w", err)
	}

	var r FeedbackReport
	err = tx.QueryRow(ctx,
		`INSERT INTO feedback_reports (session_id, status)
		 VALUES ($1, 'pending')
		 RETURNING id, session_id, status, progress, report, error_message, created_at, completed_at`,
		sessionID,
	).Scan(&r.ID, &r.SessionID, &r.Status, &r.Progress, &r.Report, &r.ErrorMessage, &r.CreatedAt, &r.CompletedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to create report: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit report: %w", err)
	}
	return &r, nil
}

// GetReportBySession returns the session's current report, or nil
func (db *DB) GetReportBySession(ctx context.Context, sessionID uuid.UUID) (*FeedbackReport, error) {
	var r FeedbackReport
	err := db.pool.QueryRow(ctx,
		`SELECT id, session_id, status, progress, report, error_message, created_at, completed_at
		 FROM feedback_reports WHERE session_id = $1 ORDER BY created_at DESC LIMIT 1`,
		sessionID,
	).Scan(&r.ID, &r.SessionID, &r.Status, &r.Progress, &r.Report, &r.ErrorMessage, &r.CreatedAt, &r.CompletedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get report: %w", err)
	}
	return &r, nil
}

// SetReportProgress marks a report processing and advances its progress.
// GREATEST keeps progress monotonic even on handler re-delivery.
func (db *DB) SetReportProgress(ctx context.Context, id uuid.UUID, progress int) error {
	_, err := db.pool.Exec(ctx,
		`UPDATE feedback_reports
		 SET status = 'processing', progress = GREATEST(progress, $1)
		 WHERE id = $2`,
		progress, id,
	)
	if err != nil {
		return fmt.Errorf("failed to set report progress: %w", err)
	}
	return nil
}

// CompleteReport stores the payload and marks the report completed
func (db *DB) CompleteReport(ctx context.Context, id uuid.UUID, payload json.RawMessage) error {
	_, err := db.pool.Exec(ctx,
		`UPDATE feedback_reports
		 SET status = 'completed', progress = 100, report = $1, completed_at = NOW()
		 WHERE id = $2`,
		payload, id,
	)
	if err != nil {
		return fmt.Errorf("failed to complete report: %w", err)
	}
	return nil
}

// FailReport marks the report failed with the captured error message
func (db *DB) FailReport(ctx context.Context, id uuid.UUID, message string) error {
	_, err := db.pool.Exec(ctx,
		`UPDATE feedback_reports SET status = 'failed', error_message = $1 WHERE id = $2`,
		message, id,
	)
	if err != nil {
		return fmt.Errorf("failed to fail report: %w", err)
	}
	return nil
}
