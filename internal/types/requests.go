// Package types provides request and response types shared by the HTTP API.
package types

import (
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

// RegisterRequest represents the request to create a new user account.
type RegisterRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
	Name     string `json:"name,omitempty"`
}

// LoginRequest represents the login request.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// User represents a user account for API responses (avoids import cycle with db package).
type User struct {
	ID        uuid.UUID `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// LoginResponse carries the authenticated user and the issued token.
type LoginResponse struct {
	User  *User  `json:"user"`
	Token string `json:"token"`
}

// CreateJobPostingRequest represents the request to register a job posting.
// Either raw_text or sections must be supplied.
type CreateJobPostingRequest struct {
	UserID     uuid.UUID         `json:"user_id" validate:"required"`
	SourceType string            `json:"source_type" validate:"required,oneof=url manual"`
	URL        string            `json:"url,omitempty" validate:"omitempty,url"`
	RawText    string            `json:"raw_text,omitempty"`
	Sections   map[string]string `json:"sections,omitempty"`
}

// CreateExperienceRequest represents the request to record an experience.
type CreateExperienceRequest struct {
	UserID    uuid.UUID         `json:"user_id" validate:"required"`
	Category  string            `json:"category" validate:"required,oneof=project career education certification language"`
	Title     string            `json:"title,omitempty"`
	StartDate string            `json:"start_date,omitempty"`
	EndDate   string            `json:"end_date,omitempty"`
	Content   map[string]string `json:"content" validate:"required,min=1"`
}

// StartInterviewRequest represents the request to start an interview session.
type StartInterviewRequest struct {
	UserID        uuid.UUID   `json:"user_id" validate:"required"`
	JobPostingID  uuid.UUID   `json:"job_posting_id" validate:"required"`
	ExperienceIDs []uuid.UUID `json:"experience_ids" validate:"required,min=1"`
}

// SubmitAnswerRequest represents the candidate's answer to a question.
type SubmitAnswerRequest struct {
	AnswerText string `json:"answer_text" validate:"required,min=1"`
}

// RecommendExperiencesRequest asks which experiences best match a job posting.
type RecommendExperiencesRequest struct {
	UserID       uuid.UUID `json:"user_id" validate:"required"`
	JobPostingID uuid.UUID `json:"job_posting_id" validate:"required"`
	Limit        int       `json:"limit,omitempty" validate:"omitempty,min=1,max=20"`
}

// TranscribeRequest carries base64-encoded audio for transcription.
type TranscribeRequest struct {
	Audio    string `json:"audio" validate:"required"`
	MimeType string `json:"mime_type" validate:"required"`
}

// Validate validates the RegisterRequest using the validator.
func (r *RegisterRequest) Validate() error {
	validate := validator.New()
	return validate.Struct(r)
}

// Validate validates the LoginRequest using the validator.
func (r *LoginRequest) Validate() error {
	validate := validator.New()
	return validate.Struct(r)
}

// Validate validates the CreateJobPostingRequest using the validator.
func (r *CreateJobPostingRequest) Validate() error {
	validate := validator.New()
	if err := validate.Struct(r); err != nil {
		return err
	}
	if r.RawText == "" && len(r.Sections) == 0 {
		return &MissingFieldError{Field: "raw_text or sections"}
	}
	return nil
}

// Validate validates the CreateExperienceRequest using the validator.
func (r *CreateExperienceRequest) Validate() error {
	validate := validator.New()
	return validate.Struct(r)
}

// Validate validates the StartInterviewRequest using the validator.
func (r *StartInterviewRequest) Validate() error {
	validate := validator.New()
	return validate.Struct(r)
}

// Validate validates the SubmitAnswerRequest using the validator.
func (r *SubmitAnswerRequest) Validate() error {
	validate := validator.New()
	return validate.Struct(r)
}

// Validate validates the RecommendExperiencesRequest using the validator.
func (r *RecommendExperiencesRequest) Validate() error {
	validate := validator.New()
	return validate.Struct(r)
}

// Validate validates the TranscribeRequest using the validator.
func (r *TranscribeRequest) Validate() error {
	validate := validator.New()
	return validate.Struct(r)
}

// MissingFieldError reports a request missing a conditionally required field.
type MissingFieldError struct {
	Field string
}

func (e *MissingFieldError) Error() string {
	return "missing required field: " + e.Field
}
