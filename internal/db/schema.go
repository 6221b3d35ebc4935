package db

import (
	"context"
	"fmt"
)

// schema holds idempotent DDL for the interview tables. Collaborator tables
// (users, job postings, experiences) live here too; the job queue and the
// vector store create their own tables.
const schema = `
CREATE TABLE IF NOT EXISTS users (
	id              UUID PRIMARY KEY DEFAULT gen_random_uuid(),
	email           TEXT NOT NULL UNIQUE,
	hashed_password TEXT NOT NULL,
	name            TEXT,
	created_at      TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS job_postings (
	id          UUID PRIMARY KEY DEFAULT gen_random_uuid(),
	user_id     UUID NOT NULL,
	source_type TEXT NOT NULL DEFAULT 'manual',
	url         TEXT,
	raw_text    TEXT,
	sections    JSONB NOT NULL DEFAULT '{}',
	status      TEXT NOT NULL DEFAULT 'draft',
	created_at  TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS idx_job_postings_user ON job_postings(user_id);

CREATE TABLE IF NOT EXISTS experiences (
	id         UUID PRIMARY KEY DEFAULT gen_random_uuid(),
	user_id    UUID NOT NULL,
	category   TEXT NOT NULL,
	title      TEXT,
	start_date TEXT,
	end_date   TEXT,
	content    JSONB NOT NULL DEFAULT '{}',
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS idx_experiences_user ON experiences(user_id);

CREATE TABLE IF NOT EXISTS interview_sessions (
	id              UUID PRIMARY KEY DEFAULT gen_random_uuid(),
	user_id         UUID NOT NULL,
	job_posting_id  UUID NOT NULL,
	experience_ids  JSONB NOT NULL DEFAULT '[]',
	status          TEXT NOT NULL DEFAULT 'active',
	current_round   INT NOT NULL DEFAULT 0,
	follow_up_count INT NOT NULL DEFAULT 0,
	created_at      TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS idx_interview_sessions_user ON interview_sessions(user_id);

CREATE TABLE IF NOT EXISTS interview_questions (
	id                 UUID PRIMARY KEY DEFAULT gen_random_uuid(),
	seq                BIGSERIAL,
	session_id         UUID NOT NULL REFERENCES interview_sessions(id),
	round_index        INT NOT NULL DEFAULT 0,
	question_type      TEXT NOT NULL DEFAULT 'main',
	text               TEXT NOT NULL,
	parent_question_id UUID,
	created_at         TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS idx_interview_questions_session ON interview_questions(session_id, seq);

CREATE TABLE IF NOT EXISTS interview_answers (
	id          UUID PRIMARY KEY DEFAULT gen_random_uuid(),
	session_id  UUID NOT NULL REFERENCES interview_sessions(id),
	question_id UUID NOT NULL REFERENCES interview_questions(id),
	answer_text TEXT NOT NULL,
	evaluation  JSONB NOT NULL DEFAULT '{}',
	created_at  TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	UNIQUE (question_id)
);
CREATE INDEX IF NOT EXISTS idx_interview_answers_session ON interview_answers(session_id);

CREATE TABLE IF NOT EXISTS feedback_reports (
	id            UUID PRIMARY KEY DEFAULT gen_random_uuid(),
	session_id    UUID NOT NULL REFERENCES interview_sessions(id),
	status        TEXT NOT NULL DEFAULT 'pending',
	progress      INT NOT NULL DEFAULT 0,
	report        JSONB,
	error_message TEXT,
	created_at    TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	completed_at  TIMESTAMPTZ
);
CREATE INDEX IF NOT EXISTS idx_feedback_reports_session ON feedback_reports(session_id);
`

// EnsureSchema creates the interview tables if they do not exist
func (db *DB) EnsureSchema(ctx context.Context) error {
	if _, err := db.pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("failed to ensure schema: %w", err)
	}
	return nil
}
