package server

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"

	"github.com/jonathan/interview-coach/internal/db"
	"github.com/jonathan/interview-coach/internal/interview"
	"github.com/jonathan/interview-coach/internal/recommend"
	"github.com/jonathan/interview-coach/internal/voice"
)

// Store is the persistence surface the HTTP handlers need. *db.DB satisfies
// it.
type Store interface {
	interview.Store

	CreateUser(ctx context.Context, email, hashedPassword, name string) (*db.User, error)
	GetUser(ctx context.Context, id uuid.UUID) (*db.User, error)
	GetUserByEmail(ctx context.Context, email string) (*db.User, error)

	CreateJobPosting(ctx context.Context, input db.JobPostingCreateInput) (*db.JobPosting, error)
	ListJobPostingsByUser(ctx context.Context, userID uuid.UUID) ([]db.JobPosting, error)
	DeleteJobPosting(ctx context.Context, id uuid.UUID) error

	CreateExperience(ctx context.Context, input db.ExperienceCreateInput) (*db.Experience, error)
	GetExperience(ctx context.Context, id uuid.UUID) (*db.Experience, error)
	ListExperiencesByUser(ctx context.Context, userID uuid.UUID) ([]db.Experience, error)
	DeleteExperience(ctx context.Context, id uuid.UUID) error

	ListSessionsByUser(ctx context.Context, userID uuid.UUID) ([]db.InterviewSession, error)
	DeleteSessionCascade(ctx context.Context, id uuid.UUID) error
	GetReportBySession(ctx context.Context, sessionID uuid.UUID) (*db.FeedbackReport, error)
}

// Config holds server configuration
type Config struct {
	Port      int
	JWTSecret string
}

// Deps carries the wired components the handlers delegate to.
type Deps struct {
	Store        Store
	Orchestrator *interview.Orchestrator
	Recommender  *recommend.Recommender
	Transcriber  voice.Transcriber
}

// Server represents the HTTP server
type Server struct {
	httpServer  *http.Server
	store       Store
	orch        *interview.Orchestrator
	recommender *recommend.Recommender
	transcriber voice.Transcriber
	jwtService  *JWTService
}

// New creates a new server instance
func New(cfg Config, deps Deps) *Server {
	s := &Server{
		store:       deps.Store,
		orch:        deps.Orchestrator,
		recommender: deps.Recommender,
		transcriber: deps.Transcriber,
		jwtService:  NewJWTService(cfg.JWTSecret),
	}

	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      s.withLogging(s.withCORS(s.routes())),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 300 * time.Second, // Long timeout for streamed question generation
		IdleTimeout:  60 * time.Second,
	}
	return s
}

func (s *Server) routes() *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", s.handleHealth)

	// Authentication
	mux.HandleFunc("POST /auth/register", s.handleRegister)
	mux.HandleFunc("POST /auth/login", s.handleLogin)
	mux.Handle("GET /auth/me", s.withAuth(http.HandlerFunc(s.handleMe)))

	// Job posting endpoints
	mux.HandleFunc("POST /job-postings", s.handleCreateJobPosting)
	mux.HandleFunc("GET /job-postings/{id}", s.handleGetJobPosting)
	mux.HandleFunc("DELETE /job-postings/{id}", s.handleDeleteJobPosting)
	mux.HandleFunc("GET /users/{id}/job-postings", s.handleListJobPostings)

	// Experience endpoints
	mux.HandleFunc("POST /experiences", s.handleCreateExperience)
	mux.HandleFunc("GET /experiences/{id}", s.handleGetExperience)
	mux.HandleFunc("DELETE /experiences/{id}", s.handleDeleteExperience)
	mux.HandleFunc("GET /users/{id}/experiences", s.handleListExperiences)

	// Interview endpoints
	mux.HandleFunc("POST /interviews", s.handleStartInterview)
	mux.HandleFunc("GET /interviews/{id}", s.handleGetInterview)
	mux.HandleFunc("DELETE /interviews/{id}", s.handleDeleteInterview)
	mux.HandleFunc("GET /users/{id}/interviews", s.handleListInterviews)
	mux.HandleFunc("GET /interviews/{id}/question", s.handleCurrentQuestion)
	mux.HandleFunc("GET /interviews/{id}/transcript", s.handleTranscript)
	mux.HandleFunc("POST /interviews/{id}/answers/{question_id}", s.handleSubmitAnswer)
	mux.HandleFunc("POST /interviews/{id}/answers/{question_id}/stream", s.handleSubmitAnswerStream)
	mux.HandleFunc("POST /interviews/{id}/end", s.handleEndInterview)
	mux.HandleFunc("GET /interviews/{id}/feedback", s.handleGetFeedback)

	// Recommendations and voice input
	mux.HandleFunc("POST /recommendations", s.handleRecommendExperiences)
	mux.HandleFunc("POST /voice/transcriptions", s.handleTranscribe)

	return mux
}

// Start begins listening for requests
func (s *Server) Start() error {
	// Graceful shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	go func() {
		log.Printf("Server starting on %s", s.httpServer.Addr)
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server error: %v", err)
		}
	}()

	<-stop
	log.Println("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	log.Println("Server stopped")
	return nil
}

// Handler exposes the routed handler stack. Intended for tests.
func (s *Server) Handler() http.Handler {
	return s.withCORS(s.routes())
}

// withCORS adds CORS headers
func (s *Server) withCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// withLogging adds request logging
func (s *Server) withLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		log.Printf("[%s] %s %s", r.Method, r.URL.Path, r.RemoteAddr)
		next.ServeHTTP(w, r)
		log.Printf("[%s] %s completed in %v", r.Method, r.URL.Path, time.Since(start))
	})
}

// handleHealth reports liveness
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.jsonResponse(w, http.StatusOK, map[string]string{"status": "ok"})
}

// jsonResponse writes a JSON response
func (s *Server) jsonResponse(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Printf("Error encoding JSON response: %v", err)
	}
}

// errorResponse writes an error JSON response
func (s *Server) errorResponse(w http.ResponseWriter, status int, message string) {
	s.jsonResponse(w, status, map[string]string{"error": message})
}

// pathUUID parses a UUID path segment, writing a 400 on failure.
func (s *Server) pathUUID(w http.ResponseWriter, r *http.Request, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(r.PathValue(name))
	if err != nil {
		s.errorResponse(w, http.StatusBadRequest, "Invalid "+name)
		return uuid.Nil, false
	}
	return id, true
}
