package server

import (
	"encoding/json"
	"log"
	"net/http"

	"github.com/jonathan/interview-coach/internal/types"
)

// handleStartInterview creates a session and returns the opening question
func (s *Server) handleStartInterview(w http.ResponseWriter, r *http.Request) {
	var req types.StartInterviewRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.errorResponse(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}
	if err := req.Validate(); err != nil {
		s.errorResponse(w, http.StatusBadRequest, err.Error())
		return
	}

	posting, err := s.store.GetJobPosting(r.Context(), req.JobPostingID)
	if err != nil {
		s.errorResponse(w, http.StatusInternalServerError, "Database error: "+err.Error())
		return
	}
	if posting == nil {
		s.errorResponse(w, http.StatusNotFound, "Job posting not found")
		return
	}

	session, question, err := s.orch.StartSession(r.Context(), req.UserID, req.JobPostingID, req.ExperienceIDs)
	if err != nil {
		s.errorResponse(w, http.StatusInternalServerError, "Failed to start interview: "+err.Error())
		return
	}

	s.jsonResponse(w, http.StatusCreated, map[string]any{
		"session":  session,
		"question": question,
	})
}

// handleGetInterview retrieves a session by ID
func (s *Server) handleGetInterview(w http.ResponseWriter, r *http.Request) {
	id, ok := s.pathUUID(w, r, "id")
	if !ok {
		return
	}

	session, err := s.store.GetSession(r.Context(), id)
	if err != nil {
		s.errorResponse(w, http.StatusInternalServerError, "Database error: "+err.Error())
		return
	}
	if session == nil {
		s.errorResponse(w, http.StatusNotFound, "Session not found")
		return
	}
	s.jsonResponse(w, http.StatusOK, session)
}

// handleDeleteInterview removes a session and everything attached to it
func (s *Server) handleDeleteInterview(w http.ResponseWriter, r *http.Request) {
	id, ok := s.pathUUID(w, r, "id")
	if !ok {
		return
	}

	if err := s.store.DeleteSessionCascade(r.Context(), id); err != nil {
		s.errorResponse(w, http.StatusInternalServerError, "Database error: "+err.Error())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleListInterviews lists a user's sessions, newest first
func (s *Server) handleListInterviews(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.pathUUID(w, r, "id")
	if !ok {
		return
	}

	sessions, err := s.store.ListSessionsByUser(r.Context(), userID)
	if err != nil {
		s.errorResponse(w, http.StatusInternalServerError, "Database error: "+err.Error())
		return
	}
	s.jsonResponse(w, http.StatusOK, map[string]any{
		"sessions": sessions,
		"count":    len(sessions),
	})
}

// handleCurrentQuestion returns the session's latest question
func (s *Server) handleCurrentQuestion(w http.ResponseWriter, r *http.Request) {
	id, ok := s.pathUUID(w, r, "id")
	if !ok {
		return
	}

	question, err := s.orch.NextQuestion(r.Context(), id)
	if err != nil {
		s.errorResponse(w, http.StatusInternalServerError, "Database error: "+err.Error())
		return
	}
	if question == nil {
		s.errorResponse(w, http.StatusNotFound, "Session has no questions")
		return
	}
	s.jsonResponse(w, http.StatusOK, question)
}

// handleTranscript returns the session's questions with their answers
func (s *Server) handleTranscript(w http.ResponseWriter, r *http.Request) {
	id, ok := s.pathUUID(w, r, "id")
	if !ok {
		return
	}

	entries, err := s.orch.Transcript(r.Context(), id)
	if err != nil {
		s.errorResponse(w, http.StatusInternalServerError, "Database error: "+err.Error())
		return
	}
	s.jsonResponse(w, http.StatusOK, map[string]any{
		"entries": entries,
		"count":   len(entries),
	})
}

// handleSubmitAnswer rates an answer and returns the next question
func (s *Server) handleSubmitAnswer(w http.ResponseWriter, r *http.Request) {
	sessionID, ok := s.pathUUID(w, r, "id")
	if !ok {
		return
	}
	questionID, ok := s.pathUUID(w, r, "question_id")
	if !ok {
		return
	}

	var req types.SubmitAnswerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.errorResponse(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}
	if err := req.Validate(); err != nil {
		s.errorResponse(w, http.StatusBadRequest, err.Error())
		return
	}

	result, err := s.orch.SubmitAnswer(r.Context(), sessionID, questionID, req.AnswerText)
	if err != nil {
		s.errorResponse(w, HTTPStatus(err), err.Error())
		return
	}
	s.jsonResponse(w, http.StatusOK, result)
}

// handleSubmitAnswerStream is the SSE variant of handleSubmitAnswer. The
// evaluation arrives first, then the next question streams chunk by chunk.
func (s *Server) handleSubmitAnswerStream(w http.ResponseWriter, r *http.Request) {
	sessionID, ok := s.pathUUID(w, r, "id")
	if !ok {
		return
	}
	questionID, ok := s.pathUUID(w, r, "question_id")
	if !ok {
		return
	}

	var req types.SubmitAnswerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.errorResponse(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}
	if err := req.Validate(); err != nil {
		s.errorResponse(w, http.StatusBadRequest, err.Error())
		return
	}

	// Resolve the turn before the stream opens so a bad reference still
	// gets a plain 404 instead of an SSE error event.
	session, err := s.store.GetSession(r.Context(), sessionID)
	if err != nil {
		s.errorResponse(w, http.StatusInternalServerError, "Database error: "+err.Error())
		return
	}
	if session == nil {
		s.errorResponse(w, http.StatusNotFound, "Session not found")
		return
	}
	question, err := s.store.GetQuestion(r.Context(), questionID)
	if err != nil {
		s.errorResponse(w, http.StatusInternalServerError, "Database error: "+err.Error())
		return
	}
	if question == nil || question.SessionID != sessionID {
		s.errorResponse(w, http.StatusNotFound, "Question not found in session")
		return
	}

	sse, err := NewSSEWriter(w)
	if err != nil {
		s.errorResponse(w, http.StatusInternalServerError, err.Error())
		return
	}

	err = s.orch.SubmitAnswerStream(r.Context(), sessionID, questionID, req.AnswerText, sse.WriteEvent)
	if err != nil {
		log.Printf("answer stream failed for session %s: %v", sessionID, err)
		sse.WriteError(err.Error())
	}
}

// handleEndInterview completes the session and schedules feedback generation
func (s *Server) handleEndInterview(w http.ResponseWriter, r *http.Request) {
	id, ok := s.pathUUID(w, r, "id")
	if !ok {
		return
	}

	report, err := s.orch.EndSession(r.Context(), id)
	if err != nil {
		s.errorResponse(w, HTTPStatus(err), err.Error())
		return
	}
	s.jsonResponse(w, http.StatusAccepted, report)
}

// handleGetFeedback returns the session's report and generation progress
func (s *Server) handleGetFeedback(w http.ResponseWriter, r *http.Request) {
	id, ok := s.pathUUID(w, r, "id")
	if !ok {
		return
	}

	report, err := s.store.GetReportBySession(r.Context(), id)
	if err != nil {
		s.errorResponse(w, http.StatusInternalServerError, "Database error: "+err.Error())
		return
	}
	if report == nil {
		s.errorResponse(w, http.StatusNotFound, "No feedback report for session")
		return
	}
	s.jsonResponse(w, http.StatusOK, report)
}
