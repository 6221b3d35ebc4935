package db

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// -----------------------------------------------------------------------------
// Job Posting Methods
// -----------------------------------------------------------------------------

// CreateJobPosting inserts a job posting and returns the stored row
func (db *DB) CreateJobPosting(ctx context.Context, input JobPostingCreateInput) (*JobPosting, error) {
	sections := input.Sections
	if sections == nil {
		sections = map[string]string{}
	}
	sectionsJSON, err := json.Marshal(sections)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal sections: %w", err)
	}

	sourceType := input.SourceType
	if sourceType == "" {
		sourceType = SourceTypeManual
	}

	var p JobPosting
	var sectionsRaw []byte
	err = db.pool.QueryRow(ctx,
		`INSERT INTO job_postings (user_id, source_type, url, raw_text, sections)
		 VALUES ($1, $2, NULLIF($3, ''), NULLIF($4, ''), $5)
		 RETURNING id, user_id, source_type, url, raw_text, sections, status, created_at`,
		input.UserID, sourceType, input.URL, input.RawText, sectionsJSON,
	).Scan(&p.ID, &p.UserID, &p.SourceType, &p.URL, &p.RawText, &sectionsRaw, &p.Status, &p.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to create job posting: %w", err)
	}
	_ = json.Unmarshal(sectionsRaw, &p.Sections)
	return &p, nil
}

// GetJobPosting retrieves a job posting by ID. Returns nil when not found.
func (db *DB) GetJobPosting(ctx context.Context, id uuid.UUID) (*JobPosting, error) {
	var p JobPosting
	var sectionsRaw []byte
	err := db.pool.QueryRow(ctx,
		`SELECT id, user_id, source_type, url, raw_text, sections, status, created_at
		 FROM job_postings WHERE id = $1`,
		id,
	).Scan(&p.ID, &p.UserID, &p.SourceType, &p.URL, &p.RawText, &sectionsRaw, &p.Status, &p.CreatedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get job posting: %w", err)
	}
	_ = json.Unmarshal(sectionsRaw, &p.Sections)
	return &p, nil
}

// ListJobPostingsByUser retrieves a user's postings, newest first
func (db *DB) ListJobPostingsByUser(ctx context.Context, userID uuid.UUID) ([]JobPosting, error) {
	rows, err := db.pool.Query(ctx,
		`SELECT id, user_id, source_type, url, raw_text, sections, status, created_at
		 FROM job_postings WHERE user_id = $1 ORDER BY created_at DESC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list job postings: %w", err)
	}
	defer rows.Close()

	var postings []JobPosting
	for rows.Next() {
		var p JobPosting
		var sectionsRaw []byte
		if err := rows.Scan(&p.ID, &p.UserID, &p.SourceType, &p.URL, &p.RawText, &sectionsRaw, &p.Status, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan job posting: %w", err)
		}
		_ = json.Unmarshal(sectionsRaw, &p.Sections)
		postings = append(postings, p)
	}
	return postings, nil
}

// DeleteJobPosting removes a job posting by ID
func (db *DB) DeleteJobPosting(ctx context.Context, id uuid.UUID) error {
	result, err := db.pool.Exec(ctx, `DELETE FROM job_postings WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete job posting: %w", err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("job posting not found: %s", id)
	}
	return nil
}
