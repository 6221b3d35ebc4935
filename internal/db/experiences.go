package db

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// -----------------------------------------------------------------------------
// Experience Methods
// -----------------------------------------------------------------------------

// CreateExperience inserts an experience and returns the stored row
func (db *DB) CreateExperience(ctx context.Context, input ExperienceCreateInput) (*Experience, error) {
	content := input.Content
	if content == nil {
		content = map[string]string{}
	}
	contentJSON, err := json.Marshal(content)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal content: %w", err)
	}

	var e Experience
	var contentRaw []byte
	err = db.pool.QueryRow(ctx,
		`INSERT INTO experiences (user_id, category, title, start_date, end_date, content)
		 VALUES ($1, $2, NULLIF($3, ''), NULLIF($4, ''), NULLIF($5, ''), $6)
		 RETURNING id, user_id, category, title, start_date, end_date, content, created_at`,
		input.UserID, input.Category, input.Title, input.StartDate, input.EndDate, contentJSON,
	).Scan(&e.ID, &e.UserID, &e.Category, &e.Title, &e.StartDate, &e.EndDate, &contentRaw, &e.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to create experience: %w", err)
	}
	_ = json.Unmarshal(contentRaw, &e.Content)
	return &e, nil
}

// GetExperience retrieves an experience by ID. Returns nil when not found.
func (db *DB) GetExperience(ctx context.Context, id uuid.UUID) (*Experience, error) {
	var e Experience
	var contentRaw []byte
	err := db.pool.QueryRow(ctx,
		`SELECT id, user_id, category, title, start_date, end_date, content, created_at
		 FROM experiences WHERE id = $1`,
		id,
	).Scan(&e.ID, &e.UserID, &e.Category, &e.Title, &e.StartDate, &e.EndDate, &contentRaw, &e.CreatedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get experience: %w", err)
	}
	_ = json.Unmarshal(contentRaw, &e.Content)
	return &e, nil
}

// ListExperiencesByIDs retrieves the experiences matching the given IDs.
// Missing IDs are silently skipped.
func (db *DB) ListExperiencesByIDs(ctx context.Context, ids []uuid.UUID) ([]Experience, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	rows, err := db.pool.Query(ctx,
		`SELECT id, user_id, category, title, start_date, end_date, content, created_at
		 FROM experiences WHERE id = ANY($1) ORDER BY created_at ASC`,
		ids,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list experiences: %w", err)
	}
	defer rows.Close()

	return scanExperiences(rows)
}

// ListExperiencesByUser retrieves a user's experiences, oldest first
func (db *DB) ListExperiencesByUser(ctx context.Context, userID uuid.UUID) ([]Experience, error) {
	rows, err := db.pool.Query(ctx,
		`SELECT id, user_id, category, title, start_date, end_date, content, created_at
		 FROM experiences WHERE user_id = $1 ORDER BY created_at ASC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list experiences: %w", err)
	}
	defer rows.Close()

	return scanExperiences(rows)
}

// DeleteExperience removes an experience by ID
func (db *DB) DeleteExperience(ctx context.Context, id uuid.UUID) error {
	result, err := db.pool.Exec(ctx, `DELETE FROM experiences WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete experience: %w", err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("experience not found: %s", id)
	}
	return nil
}

func scanExperiences(rows pgx.Rows) ([]Experience, error) {
	var experiences []Experience
	for rows.Next() {
		var e Experience
		var contentRaw []byte
		if err := rows.Scan(&e.ID, &e.UserID, &e.Category, &e.Title, &e.StartDate, &e.EndDate, &contentRaw, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan experience: %w", err)
		}
		_ = json.Unmarshal(contentRaw, &e.Content)
		experiences = append(experiences, e)
	}
	return experiences, nil
}
