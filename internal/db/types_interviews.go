package db

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Session status constants
const (
	SessionStatusActive    = "active"
	SessionStatusCompleted = "completed"
)

// Question type constants
const (
	QuestionTypeMain     = "main"
	QuestionTypeFollowUp = "follow_up"
)

// Feedback report status constants
const (
	ReportStatusPending    = "pending"
	ReportStatusProcessing = "processing"
	ReportStatusCompleted  = "completed"
	ReportStatusFailed     = "failed"
)

// InterviewSession pairs a candidate with a job posting and tracks the
// dialogue progression counters the orchestrator branches on.
type InterviewSession struct {
	ID            uuid.UUID   `json:"id"`
	UserID        uuid.UUID   `json:"user_id"`
	JobPostingID  uuid.UUID   `json:"job_posting_id"`
	ExperienceIDs []uuid.UUID `json:"experience_ids"`
	Status        string      `json:"status"`
	CurrentRound  int         `json:"current_round"`
	FollowUpCount int         `json:"follow_up_count"`
	CreatedAt     time.Time   `json:"created_at"`
}

// IsActive returns true while the session accepts answers
func (s *InterviewSession) IsActive() bool {
	return s.Status == SessionStatusActive
}

// InterviewQuestion is immutable once created. Seq preserves creation order
// within a session.
type InterviewQuestion struct {
	ID               uuid.UUID  `json:"id"`
	Seq              int64      `json:"-"`
	SessionID        uuid.UUID  `json:"session_id"`
	RoundIndex       int        `json:"round_index"`
	QuestionType     string     `json:"question_type"`
	Text             string     `json:"text"`
	ParentQuestionID *uuid.UUID `json:"parent_question_id,omitempty"`
	CreatedAt        time.Time  `json:"created_at"`
}

// IsFollowUp returns true for follow-up questions
func (q *InterviewQuestion) IsFollowUp() bool {
	return q.QuestionType == QuestionTypeFollowUp
}

// InterviewAnswer carries the raw answer text and the classifier's verdict.
// At most one answer exists per question.
type InterviewAnswer struct {
	ID         uuid.UUID       `json:"id"`
	SessionID  uuid.UUID       `json:"session_id"`
	QuestionID uuid.UUID       `json:"question_id"`
	AnswerText string          `json:"answer_text"`
	Evaluation json.RawMessage `json:"evaluation"`
	CreatedAt  time.Time       `json:"created_at"`
}

// FeedbackReport tracks asynchronous report generation for one session.
// State machine: pending -> processing -> completed | failed.
type FeedbackReport struct {
	ID           uuid.UUID       `json:"id"`
	SessionID    uuid.UUID       `json:"session_id"`
	Status       string          `json:"status"`
	Progress     int             `json:"progress"`
	Report       json.RawMessage `json:"report,omitempty"`
	ErrorMessage *string         `json:"error_message,omitempty"`
	CreatedAt    time.Time       `json:"created_at"`
	CompletedAt  *time.Time      `json:"completed_at,omitempty"`
}

// IsTerminal returns true once the report reached a final state
func (r *FeedbackReport) IsTerminal() bool {
	return r.Status == ReportStatusCompleted || r.Status == ReportStatusFailed
}

// QuestionCreateInput is used when creating a new question
type QuestionCreateInput struct {
	SessionID        uuid.UUID
	RoundIndex       int
	QuestionType     string
	Text             string
	ParentQuestionID *uuid.UUID
}

// AnswerCreateInput is used when persisting an answered question
type AnswerCreateInput struct {
	SessionID  uuid.UUID
	QuestionID uuid.UUID
	AnswerText string
	Evaluation json.RawMessage
}
