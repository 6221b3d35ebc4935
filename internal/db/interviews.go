package db

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// -----------------------------------------------------------------------------
// Interview Session Methods
// -----------------------------------------------------------------------------

// CreateSession creates a new active interview session
func (db *DB) CreateSession(ctx context.Context, userID, jobPostingID uuid.UUID, experienceIDs []uuid.UUID) (*InterviewSession, error) {
	idsJSON, err := json.Marshal(experienceIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal experience ids: %w", err)
	}

	var s InterviewSession
	var idsRaw []byte
	err = db.pool.QueryRow(ctx,
		`INSERT INTO interview_sessions (user_id, job_posting_id, experience_ids)
		 VALUES ($1, $2, $3)
		 RETURNING id, user_id, job_posting_id, experience_ids, status, current_round, follow_up_count, created_at`,
		userID, jobPostingID, idsJSON,
	).Scan(&s.ID, &s.UserID, &s.JobPostingID, &idsRaw, &s.Status, &s.CurrentRound, &s.FollowUpCount, &s.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}
	_ = json.Unmarshal(idsRaw, &s.ExperienceIDs)
	return &s, nil
}

// GetSession retrieves a session by ID. Returns nil when not found.
func (db *DB) GetSession(ctx context.Context, id uuid.UUID) (*InterviewSession, error) {
	var s InterviewSession
	var idsRaw []byte
	err := db.pool.QueryRow(ctx,
		`SELECT id, user_id, job_posting_id, experience_ids, status, current_round, follow_up_count, created_at
		 FROM interview_sessions WHERE id = $1`,
		id,
	).Scan(&s.ID, &s.UserID, &s.JobPostingID, &idsRaw, &s.Status, &s.CurrentRound, &s.FollowUpCount, &s.CreatedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get session: %w", err)
	}
	_ = json.Unmarshal(idsRaw, &s.ExperienceIDs)
	return &s, nil
}

// ListSessionsByUser retrieves a user's sessions, newest first
func (db *DB) ListSessionsByUser(ctx context.Context, userID uuid.UUID) ([]InterviewSession, error) {
	rows, err := db.pool.Query(ctx,
		`SELECT id, user_id, job_posting_id, experience_ids, status, current_round, follow_up_count, created_at
		 FROM interview_sessions WHERE user_id = $1 ORDER BY created_at DESC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}
	defer rows.Close()

	var sessions []InterviewSession
	for rows.Next() {
		var s InterviewSession
		var idsRaw []byte
		if err := rows.Scan(&s.ID, &s.UserID, &s.JobPostingID, &idsRaw, &s.Status, &s.CurrentRound, &s.FollowUpCount, &s.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan session: %w", err)
		}
		_ = json.Unmarshal(idsRaw, &s.ExperienceIDs)
		sessions = append(sessions, s)
	}
	return sessions, nil
}

// UpdateSessionProgress writes the round and follow-up counters after a turn
func (db *DB) UpdateSessionProgress(ctx context.Context, id uuid.UUID, currentRound, followUpCount int) error {
	_, err := db.pool.Exec(ctx,
		`UPDATE interview_sessions SET current_round = $1, follow_up_count = $2 WHERE id = $3`,
		currentRound, followUpCount, id,
	)
	if err != nil {
		return fmt.Errorf("failed to update session progress: %w", err)
	}
	return nil
}

// SetSessionStatus transitions a session's status
func (db *DB) SetSessionStatus(ctx context.Context, id uuid.UUID, status string) error {
	_, err := db.pool.Exec(ctx,
		`UPDATE interview_sessions SET status = $1 WHERE id = $2`,
		status, id,
	)
	if err != nil {
		return fmt.Errorf("failed to set session status: %w", err)
	}
	return nil
}

// DeleteSessionCascade removes a session together with its questions, answers
// and reports in a single transaction.
func (db *DB) DeleteSessionCascade(ctx context.Context, id uuid.UUID) error {
	tx, err := db.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	for _, stmt := range []string{
		`DELETE FROM interview_answers WHERE session_id = $1`,
		`DELETE FROM feedback_reports WHERE session_id = $1`,
		`DELETE FROM interview_questions WHERE session_id = $1`,
		`DELETE FROM interview_sessions WHERE id = $1`,
	} {
		if _, err := tx.Exec(ctx, stmt, id); err != nil {
			return fmt.Errorf("failed to delete session data: %w", err)
		}
	}

	return tx.Commit(ctx)
}

// -----------------------------------------------------------------------------
// Question / Answer Methods
// -----------------------------------------------------------------------------

// CreateQuestion inserts a new question and returns the stored row
func (db *DB) CreateQuestion(ctx context.Context, input QuestionCreateInput) (*InterviewQuestion, error) {
	var q InterviewQuestion
	err := db.pool.QueryRow(ctx,
		`INSERT INTO interview_questions (session_id, round_index, question_type, text, parent_question_id)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING id, seq, session_id, round_index, question_type, text, parent_question_id, created_at`,
		input.SessionID, input.RoundIndex, input.QuestionType, input.Text, input.ParentQuestionID,
	).Scan(&q.ID, &q.Seq, &q.SessionID, &q.RoundIndex, &q.QuestionType, &q.Text, &q.ParentQuestionID, &q.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to create question: %w", err)
	}
	return &q, nil
}

// GetQuestion retrieves a question by ID. Returns nil when not found.
func (db *DB) GetQuestion(ctx context.Context, id uuid.UUID) (*InterviewQuestion, error) {
	var q InterviewQuestion
	err := db.pool.QueryRow(ctx,
		`SELECT id, seq, session_id, round_index, question_type, text, parent_question_id, created_at
		 FROM interview_questions WHERE id = $1`,
		id,
	).Scan(&q.ID, &q.Seq, &q.SessionID, &q.RoundIndex, &q.QuestionType, &q.Text, &q.ParentQuestionID, &q.CreatedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get question: %w", err)
	}
	return &q, nil
}

// LatestQuestion returns the most recently created question of a session,
// or nil when the session has no questions.
func (db *DB) LatestQuestion(ctx context.Context, sessionID uuid.UUID) (*InterviewQuestion, error) {
	var q InterviewQuestion
	err := db.pool.QueryRow(ctx,
		`SELECT id, seq, session_id, round_index, question_type, text, parent_question_id, created_at
		 FROM interview_questions WHERE session_id = $1 ORDER BY seq DESC LIMIT 1`,
		sessionID,
	).Scan(&q.ID, &q.Seq, &q.SessionID, &q.RoundIndex, &q.QuestionType, &q.Text, &q.ParentQuestionID, &q.CreatedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get latest question: %w", err)
	}
	return &q, nil
}

// ListQuestions returns a session's questions in creation order
func (db *DB) ListQuestions(ctx context.Context, sessionID uuid.UUID) ([]InterviewQuestion, error) {
	rows, err := db.pool.Query(ctx,
		`SELECT id, seq, session_id, round_index, question_type, text, parent_question_id, created_at
		 FROM interview_questions WHERE session_id = $1 ORDER BY seq ASC`,
		sessionID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list questions: %w", err)
	}
	defer rows.Close()

	var questions []InterviewQuestion
	for rows.Next() {
		var q InterviewQuestion
		if err := rows.Scan(&q.ID, &q.Seq, &q.SessionID, &q.RoundIndex, &q.QuestionType, &q.Text, &q.ParentQuestionID, &q.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan question: %w", err)
		}
		questions = append(questions, q)
	}
	return questions, nil
}

// CreateAnswer persists an answer with its evaluation
func (db *DB) CreateAnswer(ctx context.Context, input AnswerCreateInput) (*InterviewAnswer, error) {
	evaluation := input.Evaluation
	if evaluation == nil {
		evaluation = json.RawMessage(`{}`)
	}

	var a InterviewAnswer
	err := db.pool.QueryRow(ctx,
		`INSERT INTO interview_answers (session_id, question_id, answer_text, evaluation)
		 VALUES ($1, $2, $3, $4)
		 RETURNING id, session_id, question_id, answer_text, evaluation, created_at`,
		input.SessionID, input.QuestionID, input.AnswerText, evaluation,
	).Scan(&a.ID, &a.SessionID, &a.QuestionID, &a.AnswerText, &a.Evaluation, &a.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to create answer: %w", err)
	}
	return &a, nil
}

// ListAnswers returns a session's answers in creation order
func (db *DB) ListAnswers(ctx context.Context, sessionID uuid.UUID) ([]InterviewAnswer, error) {
	rows, err := db.pool.Query(ctx,
		`SELECT id, session_id, question_id, answer_text, evaluation, created_at
		 FROM interview_answers WHERE session_id = $1 ORDER BY created_at ASC`,
		sessionID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list answers: %w", err)
	}
	defer rows.Close()

	var answers []InterviewAnswer
	for rows.Next() {
		var a InterviewAnswer
		if err := rows.Scan(&a.ID, &a.SessionID, &a.QuestionID, &a.AnswerText, &a.Evaluation, &a.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan answer: %w", err)
		}
		answers = append(answers, a)
	}
	return answers, nil
}
