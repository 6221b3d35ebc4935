package interview

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/jonathan/interview-coach/internal/db"
	"github.com/jonathan/interview-coach/internal/llm"
)

// memStore implements Store entirely in memory.
type memStore struct {
	mu          sync.Mutex
	nextSeq     int64
	sessions    map[uuid.UUID]*db.InterviewSession
	questions   []*db.InterviewQuestion
	answers     []*db.InterviewAnswer
	reports     map[uuid.UUID]*db.FeedbackReport
	jobPostings map[uuid.UUID]*db.JobPosting
	experiences map[uuid.UUID]*db.Experience
}

func newMemStore() *memStore {
	return &memStore{
		nextSeq:     1,
		sessions:    make(map[uuid.UUID]*db.InterviewSession),
		reports:     make(map[uuid.UUID]*db.FeedbackReport),
		jobPostings: make(map[uuid.UUID]*db.JobPosting),
		experiences: make(map[uuid.UUID]*db.Experience),
	}
}

func (s *memStore) addJobPosting(job *db.JobPosting) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.jobPostings[job.ID] = job
}

func (s *memStore) addExperience(exp *db.Experience) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.experiences[exp.ID] = exp
}

func (s *memStore) CreateSession(ctx context.Context, userID, jobPostingID uuid.UUID, experienceIDs []uuid.UUID) (*db.InterviewSession, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	session := &db.InterviewSession{
		ID:            uuid.New(),
		UserID:        userID,
		JobPostingID:  jobPostingID,
		ExperienceIDs: experienceIDs,
		Status:        db.SessionStatusActive,
		CreatedAt:     time.Now(),
	}
	s.sessions[session.ID] = session
	copied := *session
	return &copied, nil
}

func (s *memStore) GetSession(ctx context.Context, id uuid.UUID) (*db.InterviewSession, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	session, ok := s.sessions[id]
	if !ok {
		return nil, nil
	}
	copied := *session
	return &copied, nil
}

func (s *memStore) UpdateSessionProgress(ctx context.Context, id uuid.UUID, currentRound, followUpCount int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	session, ok := s.sessions[id]
	if !ok {
		return fmt.Errorf("session %s not found", id)
	}
	session.CurrentRound = currentRound
	session.FollowUpCount = followUpCount
	return nil
}

func (s *memStore) SetSessionStatus(ctx context.Context, id uuid.UUID, status string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	session, ok := s.sessions[id]
	if !ok {
		return fmt.Errorf("session %s not found", id)
	}
	session.Status = status
	return nil
}

func (s *memStore) CreateQuestion(ctx context.Context, input db.QuestionCreateInput) (*db.InterviewQuestion, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	q := &db.InterviewQuestion{
		ID:               uuid.New(),
		Seq:              s.nextSeq,
		SessionID:        input.SessionID,
		RoundIndex:       input.RoundIndex,
		QuestionType:     input.QuestionType,
		Text:             input.Text,
		ParentQuestionID: input.ParentQuestionID,
		CreatedAt:        time.Now(),
	}
	s.nextSeq++
	s.questions = append(s.questions, q)
	copied := *q
	return &copied, nil
}

func (s *memStore) GetQuestion(ctx context.Context, id uuid.UUID) (*db.InterviewQuestion, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, q := range s.questions {
		if q.ID == id {
			copied := *q
			return &copied, nil
		}
	}
	return nil, nil
}

func (s *memStore) LatestQuestion(ctx context.Context, sessionID uuid.UUID) (*db.InterviewQuestion, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var latest *db.InterviewQuestion
	for _, q := range s.questions {
		if q.SessionID == sessionID && (latest == nil || q.Seq > latest.Seq) {
			latest = q
		}
	}
	if latest == nil {
		return nil, nil
	}
	copied := *latest
	return &copied, nil
}

func (s *memStore) ListQuestions(ctx context.Context, sessionID uuid.UUID) ([]db.InterviewQuestion, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []db.InterviewQuestion
	for _, q := range s.questions {
		if q.SessionID == sessionID {
			out = append(out, *q)
		}
	}
	return out, nil
}

func (s *memStore) CreateAnswer(ctx context.Context, input db.AnswerCreateInput) (*db.InterviewAnswer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, a := range s.answers {
		if a.QuestionID == input.QuestionID {
			return nil, fmt.Errorf("question %s already answered", input.QuestionID)
		}
	}

	a := &db.InterviewAnswer{
		ID:         uuid.New(),
		SessionID:  input.SessionID,
		QuestionID: input.QuestionID,
		AnswerText: input.AnswerText,
		Evaluation: input.Evaluation,
		CreatedAt:  time.Now(),
	}
	s.answers = append(s.answers, a)
	copied := *a
	return &copied, nil
}

func (s *memStore) ListAnswers(ctx context.Context, sessionID uuid.UUID) ([]db.InterviewAnswer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []db.InterviewAnswer
	for _, a := range s.answers {
		if a.SessionID == sessionID {
			out = append(out, *a)
		}
	}
	return out, nil
}

func (s *memStore) GetJobPosting(ctx context.Context, id uuid.UUID) (*db.JobPosting, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	job, ok := s.jobPostings[id]
	if !ok {
		return nil, nil
	}
	copied := *job
	return &copied, nil
}

func (s *memStore) ListExperiencesByIDs(ctx context.Context, ids []uuid.UUID) ([]db.Experience, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []db.Experience
	for _, id := range ids {
		if exp, ok := s.experiences[id]; ok {
			out = append(out, *exp)
		}
	}
	return out, nil
}

func (s *memStore) ReplaceReport(ctx context.Context, sessionID uuid.UUID) (*db.FeedbackReport, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	report := &db.FeedbackReport{
		ID:        uuid.New(),
		SessionID: sessionID,
		Status:    db.ReportStatusPending,
		CreatedAt: time.Now(),
	}
	s.reports[sessionID] = report
	copied := *report
	return &copied, nil
}

// scriptedClient returns canned verdicts for rating calls and numbered texts
// for question generation. Rating calls are recognized by the verdict
// contract embedded in the rating prompt.
type scriptedClient struct {
	mu        sync.Mutex
	verdicts  []string
	questions int
}

func (c *scriptedClient) isRatingCall(messages []llm.Message) bool {
	for _, m := range messages {
		if strings.Contains(m.Content, "OFF_TOPIC") {
			return true
		}
	}
	return false
}

func (c *scriptedClient) Chat(ctx context.Context, messages []llm.Message, tier llm.ModelTier) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.isRatingCall(messages) {
		if len(c.verdicts) == 0 {
			return `{"rating": "GOOD", "notes": {"summary": "solid", "hints": []}}`, nil
		}
		v := c.verdicts[0]
		c.verdicts = c.verdicts[1:]
		return v, nil
	}

	c.questions++
	return fmt.Sprintf("Generated question %d?", c.questions), nil
}

func (c *scriptedClient) ChatStream(ctx context.Context, messages []llm.Message, tier llm.ModelTier, onChunk func(string) error) error {
	text, err := c.Chat(ctx, messages, tier)
	if err != nil {
		return err
	}
	for _, part := range strings.SplitAfter(text, " ") {
		if part == "" {
			continue
		}
		if err := onChunk(part); err != nil {
			return err
		}
	}
	return nil
}

func (c *scriptedClient) Close() error { return nil }
