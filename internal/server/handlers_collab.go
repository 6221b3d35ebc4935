package server

import (
	"encoding/json"
	"net/http"

	"github.com/jonathan/interview-coach/internal/db"
	"github.com/jonathan/interview-coach/internal/types"
	"github.com/jonathan/interview-coach/internal/voice"
)

// handleCreateJobPosting registers a job posting from raw text or parsed
// sections.
func (s *Server) handleCreateJobPosting(w http.ResponseWriter, r *http.Request) {
	var req types.CreateJobPostingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.errorResponse(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}
	if err := req.Validate(); err != nil {
		s.errorResponse(w, http.StatusBadRequest, err.Error())
		return
	}

	posting, err := s.store.CreateJobPosting(r.Context(), db.JobPostingCreateInput{
		UserID:     req.UserID,
		SourceType: req.SourceType,
		URL:        req.URL,
		RawText:    req.RawText,
		Sections:   req.Sections,
	})
	if err != nil {
		s.errorResponse(w, http.StatusInternalServerError, "Database error: "+err.Error())
		return
	}
	s.jsonResponse(w, http.StatusCreated, posting)
}

// handleGetJobPosting retrieves a job posting by its ID
func (s *Server) handleGetJobPosting(w http.ResponseWriter, r *http.Request) {
	id, ok := s.pathUUID(w, r, "id")
	if !ok {
		return
	}

	posting, err := s.store.GetJobPosting(r.Context(), id)
	if err != nil {
		s.errorResponse(w, http.StatusInternalServerError, "Database error: "+err.Error())
		return
	}
	if posting == nil {
		s.errorResponse(w, http.StatusNotFound, "Job posting not found")
		return
	}
	s.jsonResponse(w, http.StatusOK, posting)
}

// handleDeleteJobPosting removes a job posting
func (s *Server) handleDeleteJobPosting(w http.ResponseWriter, r *http.Request) {
	id, ok := s.pathUUID(w, r, "id")
	if !ok {
		return
	}

	if err := s.store.DeleteJobPosting(r.Context(), id); err != nil {
		s.errorResponse(w, http.StatusInternalServerError, "Database error: "+err.Error())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleListJobPostings lists a user's job postings
func (s *Server) handleListJobPostings(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.pathUUID(w, r, "id")
	if !ok {
		return
	}

	postings, err := s.store.ListJobPostingsByUser(r.Context(), userID)
	if err != nil {
		s.errorResponse(w, http.StatusInternalServerError, "Database error: "+err.Error())
		return
	}
	s.jsonResponse(w, http.StatusOK, map[string]any{
		"postings": postings,
		"count":    len(postings),
	})
}

// handleCreateExperience records a structured experience
func (s *Server) handleCreateExperience(w http.ResponseWriter, r *http.Request) {
	var req types.CreateExperienceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.errorResponse(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}
	if err := req.Validate(); err != nil {
		s.errorResponse(w, http.StatusBadRequest, err.Error())
		return
	}

	experience, err := s.store.CreateExperience(r.Context(), db.ExperienceCreateInput{
		UserID:    req.UserID,
		Category:  req.Category,
		Title:     req.Title,
		StartDate: req.StartDate,
		EndDate:   req.EndDate,
		Content:   req.Content,
	})
	if err != nil {
		s.errorResponse(w, http.StatusInternalServerError, "Database error: "+err.Error())
		return
	}
	s.jsonResponse(w, http.StatusCreated, experience)
}

// handleGetExperience retrieves an experience by its ID
func (s *Server) handleGetExperience(w http.ResponseWriter, r *http.Request) {
	id, ok := s.pathUUID(w, r, "id")
	if !ok {
		return
	}

	experience, err := s.store.GetExperience(r.Context(), id)
	if err != nil {
		s.errorResponse(w, http.StatusInternalServerError, "Database error: "+err.Error())
		return
	}
	if experience == nil {
		s.errorResponse(w, http.StatusNotFound, "Experience not found")
		return
	}
	s.jsonResponse(w, http.StatusOK, experience)
}

// handleDeleteExperience removes an experience
func (s *Server) handleDeleteExperience(w http.ResponseWriter, r *http.Request) {
	id, ok := s.pathUUID(w, r, "id")
	if !ok {
		return
	}

	if err := s.store.DeleteExperience(r.Context(), id); err != nil {
		s.errorResponse(w, http.StatusInternalServerError, "Database error: "+err.Error())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleListExperiences lists a user's experiences
func (s *Server) handleListExperiences(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.pathUUID(w, r, "id")
	if !ok {
		return
	}

	experiences, err := s.store.ListExperiencesByUser(r.Context(), userID)
	if err != nil {
		s.errorResponse(w, http.StatusInternalServerError, "Database error: "+err.Error())
		return
	}
	s.jsonResponse(w, http.StatusOK, map[string]any{
		"experiences": experiences,
		"count":       len(experiences),
	})
}

// handleRecommendExperiences ranks the user's experiences against a posting
func (s *Server) handleRecommendExperiences(w http.ResponseWriter, r *http.Request) {
	var req types.RecommendExperiencesRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.errorResponse(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}
	if err := req.Validate(); err != nil {
		s.errorResponse(w, http.StatusBadRequest, err.Error())
		return
	}

	recs, err := s.recommender.Recommend(r.Context(), req.UserID, req.JobPostingID, req.Limit)
	if err != nil {
		s.errorResponse(w, http.StatusInternalServerError, "Recommendation failed: "+err.Error())
		return
	}
	s.jsonResponse(w, http.StatusOK, map[string]any{
		"recommendations": recs,
		"count":           len(recs),
	})
}

// handleTranscribe converts an audio answer to text
func (s *Server) handleTranscribe(w http.ResponseWriter, r *http.Request) {
	var req types.TranscribeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.errorResponse(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}
	if err := req.Validate(); err != nil {
		s.errorResponse(w, http.StatusBadRequest, err.Error())
		return
	}

	audio, err := voice.DecodeAudio(req.Audio)
	if err != nil {
		s.errorResponse(w, http.StatusBadRequest, err.Error())
		return
	}

	text, err := s.transcriber.Transcribe(r.Context(), audio, req.MimeType)
	if err != nil {
		s.errorResponse(w, http.StatusBadRequest, err.Error())
		return
	}
	s.jsonResponse(w, http.StatusOK, map[string]string{"text": text})
}
