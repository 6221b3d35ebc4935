package db

import (
	"time"

	"github.com/google/uuid"
)

// Job posting source constants
const (
	SourceTypeURL    = "url"
	SourceTypeManual = "manual"
)

// Experience category constants
const (
	CategoryProject       = "project"
	CategoryCareer        = "career"
	CategoryEducation     = "education"
	CategoryCertification = "certification"
	CategoryLanguage      = "language"
)

// User is a registered candidate account
type User struct {
	ID             uuid.UUID `json:"id"`
	Email          string    `json:"email"`
	HashedPassword string    `json:"-"`
	Name           *string   `json:"name,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
}

// JobPosting holds a posting's raw text and its parsed sections
type JobPosting struct {
	ID         uuid.UUID         `json:"id"`
	UserID     uuid.UUID         `json:"user_id"`
	SourceType string            `json:"source_type"`
	URL        *string           `json:"url,omitempty"`
	RawText    *string           `json:"raw_text,omitempty"`
	Sections   map[string]string `json:"sections"`
	Status     string            `json:"status"`
	CreatedAt  time.Time         `json:"created_at"`
}

// Experience is a structured record of something the candidate has done
type Experience struct {
	ID        uuid.UUID         `json:"id"`
	UserID    uuid.UUID         `json:"user_id"`
	Category  string            `json:"category"`
	Title     *string           `json:"title,omitempty"`
	StartDate *string           `json:"start_date,omitempty"`
	EndDate   *string           `json:"end_date,omitempty"`
	Content   map[string]string `json:"content"`
	CreatedAt time.Time         `json:"created_at"`
}

// JobPostingCreateInput is used when creating a job posting
type JobPostingCreateInput struct {
	UserID     uuid.UUID
	SourceType string
	URL        string
	RawText    string
	Sections   map[string]string
}

// ExperienceCreateInput is used when creating an experience
type ExperienceCreateInput struct {
	UserID    uuid.UUID
	Category  string
	Title     string
	StartDate string
	EndDate   string
	Content   map[string]string
}
