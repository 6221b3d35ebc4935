package worker

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"github.com/jonathan/interview-coach/internal/feedback"
	"github.com/jonathan/interview-coach/internal/interview"
	"github.com/jonathan/interview-coach/internal/queue"
)

// GenerateFeedbackHandler runs the feedback pipeline for a finished session.
func GenerateFeedbackHandler(gen *feedback.Generator) HandlerFunc {
	return func(ctx context.Context, job *queue.Job) error {
		var payload struct {
			SessionID uuid.UUID `json:"session_id"`
			ReportID  uuid.UUID `json:"report_id"`
		}
		if err := json.Unmarshal(job.Payload, &payload); err != nil {
			return fmt.Errorf("failed to decode feedback payload: %w", err)
		}
		if payload.SessionID == uuid.Nil || payload.ReportID == uuid.Nil {
			return fmt.Errorf("feedback payload missing session or report id")
		}
		return gen.Generate(ctx, payload.SessionID, payload.ReportID)
	}
}

// ReindexDocumentsHandler rebuilds a session's retrieval index, typically
// after the candidate edits the underlying experiences.
func ReindexDocumentsHandler(store interview.Store, orch *interview.Orchestrator) HandlerFunc {
	return func(ctx context.Context, job *queue.Job) error {
		var payload struct {
			SessionID uuid.UUID `json:"session_id"`
		}
		if err := json.Unmarshal(job.Payload, &payload); err != nil {
			return fmt.Errorf("failed to decode reindex payload: %w", err)
		}

		session, err := store.GetSession(ctx, payload.SessionID)
		if err != nil {
			return err
		}
		if session == nil {
			return fmt.Errorf("session %s not found", payload.SessionID)
		}
		return orch.IndexSessionMaterial(ctx, session)
	}
}
