package interview

import (
	"fmt"

	"github.com/google/uuid"
)

// NotFoundError indicates a referenced session or question does not exist.
type NotFoundError struct {
	Entity string
	ID     uuid.UUID
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Entity, e.ID)
}

// SessionNotActiveError indicates the session no longer accepts answers.
type SessionNotActiveError struct {
	SessionID uuid.UUID
}

func (e *SessionNotActiveError) Error() string {
	return fmt.Sprintf("session is not active: %s", e.SessionID)
}
