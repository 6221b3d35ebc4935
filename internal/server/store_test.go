package server

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

// testStore implements Store in memory for handler tests.
type testStore struct {
	mu          sync.Mutex
	nextSeq     int64
	users       map[uuid.UUID]*db.User
	jobPostings map[uuid.UUID]*db.JobPosting
	experiences map[uuid.UUID]*db.Experience
	sessions    map[uuid.UUID]*db.InterviewSession
	questions   []*db.InterviewQuestion
	answers     []*db.InterviewAnswer
	reports     map[uuid.UUID]*db.FeedbackReport
}

func newTestStore() *testStore {
	return &testStore{
		nextSeq:     1,
		users:       make(map[uuid.UUID]*db.User),
		jobPostings: make(map[uuid.UUID]*db.JobPosting),
		experiences: make(map[uuid.UUID]*db.Experience),
		sessions:    make(map[uuid.UUID]*db.InterviewSession),
		reports:     make(map[uuid.UUID]*db.FeedbackReport),
	}
}

func (s *testStore) CreateUser(ctx context.Context, email, hashedPassword, name string) (*db.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	user := &db.User{ID: uuid.New(), Email: email, HashedPassword: hashedPassword, CreatedAt: time.Now()}
	if name != "" {
		user.Name = &name
	}
	s.users[user.ID] = user
	return user, nil
}

func (s *testStore) GetUser(ctx context.Context, id uuid.UUID) (*db.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.users[id], nil
}

func (s *testStore) GetUserByEmail(ctx context.Context, email string) (*db.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, u := range s.users {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, nil
}

func (s *testStore) CreateJobPosting(ctx context.Context, input db.JobPostingCreateInput) (*db.JobPosting, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	posting := &db.JobPosting{
		ID:         uuid.New(),
		UserID:     input.UserID,
		SourceType: input.SourceType,
		Sections:   input.Sections,
		Status:     "ready",
		CreatedAt:  time.Now(),
	}
	if input.URL != "" {
		posting.URL = &input.URL
	}
	if input.RawText != "" {
		posting.RawText = &input.RawText
	}
	s.jobPostings[posting.ID] = posting
	return posting, nil
}

func (s *testStore) GetJobPosting(ctx context.Context, id uuid.UUID) (*db.JobPosting, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.jobPostings[id], nil
}

func (s *testStore) ListJobPostingsByUser(ctx context.Context, userID uuid.UUID) ([]db.JobPosting, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []db.JobPosting
	for _, p := range s.jobPostings {
		if p.UserID == userID {
			out = append(out, *p)
		}
	}
	return out, nil
}

func (s *testStore) DeleteJobPosting(ctx context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.jobPostings, id)
	return nil
}

func (s *testStore) CreateExperience(ctx context.Context, input db.ExperienceCreateInput) (*db.Experience, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	exp := &db.Experience{
		ID:        uuid.New(),
		UserID:    input.UserID,
		Category:  input.Category,
		Content:   input.Content,
		CreatedAt: time.Now(),
	}
	if input.Title != "" {
		exp.Title = &input.Title
	}
	s.experiences[exp.ID] = exp
	return exp, nil
}

func (s *testStore) GetExperience(ctx context.Context, id uuid.UUID) (*db.Experience, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.experiences[id], nil
}

func (s *testStore) ListExperiencesByUser(ctx context.Context, userID uuid.UUID) ([]db.Experience, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []db.Experience
	for _, e := range s.experiences {
		if e.UserID == userID {
			out = append(out, *e)
		}
	}
	return out, nil
}

func (s *testStore) ListExperiencesByIDs(ctx context.Context, ids []uuid.UUID) ([]db.Experience, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []db.Experience
	for _, id := range ids {
		if e, ok := s.experiences[id]; ok {
			out = append(out, *e)
		}
	}
	return out, nil
}

func (s *testStore) DeleteExperience(ctx context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.experiences, id)
	return nil
}

func (s *testStore) CreateSession(ctx context.Context, userID, jobPostingID uuid.UUID, experienceIDs []uuid.UUID) (*db.InterviewSession, error) {
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

func (s *testStore) GetSession(ctx context.Context, id uuid.UUID) (*db.InterviewSession, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	session, ok := s.sessions[id]
	if !ok {
		return nil, nil
	}
	copied := *session
	return &copied, nil
}

func (s *testStore) ListSessionsByUser(ctx context.Context, userID uuid.UUID) ([]db.InterviewSession, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []db.InterviewSession
	for _, sess := range s.sessions {
		if sess.UserID == userID {
			out = append(out, *sess)
		}
	}
	return out, nil
}

func (s *testStore) UpdateSessionProgress(ctx context.Context, id uuid.UUID, currentRound, followUpCount int) error {
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

func (s *testStore) SetSessionStatus(ctx context.Context, id uuid.UUID, status string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	session, ok := s.sessions[id]
	if !ok {
		return fmt.Errorf("session %s not found", id)
	}
	session.Status = status
	return nil
}

func (s *testStore) DeleteSessionCascade(ctx context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, id)
	delete(s.reports, id)
	return nil
}

func (s *testStore) CreateQuestion(ctx context.Context, input db.QuestionCreateInput) (*db.InterviewQuestion, error) {
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

func (s *testStore) GetQuestion(ctx context.Context, id uuid.UUID) (*db.InterviewQuestion, error) {
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

func (s *testStore) LatestQuestion(ctx context.Context, sessionID uuid.UUID) (*db.InterviewQuestion, error) {
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

func (s *testStore) ListQuestions(ctx context.Context, sessionID uuid.UUID) ([]db.InterviewQuestion, error) {
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

func (s *testStore) CreateAnswer(ctx context.Context, input db.AnswerCreateInput) (*db.InterviewAnswer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

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

func (s *testStore) ListAnswers(ctx context.Context, sessionID uuid.UUID) ([]db.InterviewAnswer, error) {
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

func (s *testStore) ReplaceReport(ctx context.Context, sessionID uuid.UUID) (*db.FeedbackReport, error) {
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

func (s *testStore) GetReportBySession(ctx context.Context, sessionID uuid.UUID) (*db.FeedbackReport, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	report, ok := s.reports[sessionID]
	if !ok {
		return nil, nil
	}
	copied := *report
	return &copied, nil
}

// cannedClient answers rating prompts with a GOOD verdict and everything
// else with a fixed question.
type cannedClient struct{}

func (c *cannedClient) Chat(ctx context.Context, messages []llm.Message, tier llm.ModelTier) (string, error) {
	for _, m := range messages {
		if strings.Contains(m.Content, "OFF_TOPIC") {
			return `{"rating": "GOOD", "notes": {"summary": "specific and quantified", "hints": []}}`, nil
		}
	}
	return "Tell me about the hardest production incident you handled.", nil
}

func (c *cannedClient) ChatStream(ctx context.Context, messages []llm.Message, tier llm.ModelTier, onChunk func(string) error) error {
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

func (c *cannedClient) Close() error { return nil }
