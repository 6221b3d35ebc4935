package feedback

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/interview-coach/internal/db"
	"github.com/jonathan/interview-coach/internal/llm"
)

type fakeStore struct {
	session   *db.InterviewSession
	questions []db.InterviewQuestion
	answers   []db.InterviewAnswer

	progress    []int
	status      string
	payload     json.RawMessage
	errMessage  string
	completedAt *time.Time
}

func (s *fakeStore) GetSession(ctx context.Context, id uuid.UUID) (*db.InterviewSession, error) {
	if s.session == nil || s.session.ID != id {
		return nil, nil
	}
	return s.session, nil
}

func (s *fakeStore) ListQuestions(ctx context.Context, sessionID uuid.UUID) ([]db.InterviewQuestion, error) {
	return s.questions, nil
}

func (s *fakeStore) ListAnswers(ctx context.Context, sessionID uuid.UUID) ([]db.InterviewAnswer, error) {
	return s.answers, nil
}

func (s *fakeStore) SetReportProgress(ctx context.Context, id uuid.UUID, progress int) error {
	s.status = db.ReportStatusProcessing
	s.progress = append(s.progress, progress)
	return nil
}

func (s *fakeStore) CompleteReport(ctx context.Context, id uuid.UUID, payload json.RawMessage) error {
	s.status = db.ReportStatusCompleted
	s.payload = payload
	s.progress = append(s.progress, 100)
	now := time.Now()
	s.completedAt = &now
	return nil
}

func (s *fakeStore) FailReport(ctx context.Context, id uuid.UUID, message string) error {
	s.status = db.ReportStatusFailed
	s.errMessage = message
	return nil
}

// reportClient answers the assessment and suggestion prompts with canned
// JSON; either call can be forced to fail.
type reportClient struct {
	failOverall     bool
	failSuggestions bool
}

func (c *reportClient) Chat(ctx context.Context, messages []llm.Message, tier llm.ModelTier) (string, error) {
	prompt := messages[len(messages)-1].Content
	if strings.Contains(prompt, "overall assessment") {
		if c.failOverall {
			return "", errors.New("model unavailable")
		}
		return `{"overall": "Strong on delivery, weak on metrics.", "strengths": ["clear ownership"], "areas": ["quantify outcomes"], "detailed_analysis": "Most answers lacked numbers."}`, nil
	}
	if c.failSuggestions {
		return "", errors.New("model unavailable")
	}
	return `{"additional_content": ["add load testing"], "concretization": ["document the rollback plan"], "practical_application": ["apply the queue pattern to batch jobs"]}`, nil
}

func (c *reportClient) ChatStream(ctx context.Context, messages []llm.Message, tier llm.ModelTier, onChunk func(string) error) error {
	text, err := c.Chat(ctx, messages, tier)
	if err != nil {
		return err
	}
	return onChunk(text)
}

func (c *reportClient) Close() error { return nil }

func storeWithAnsweredQuestions(n int) *fakeStore {
	sessionID := uuid.New()
	store := &fakeStore{
		session: &db.InterviewSession{ID: sessionID, Status: db.SessionStatusCompleted},
	}
	ratings := []string{"GOOD", "VAGUE", "GOOD"}
	for i := 0; i < n; i++ {
		q := db.InterviewQuestion{
			ID:        uuid.New(),
			SessionID: sessionID,
			Text:      fmt.Sprintf("Question %d?", i+1),
		}
		store.questions = append(store.questions, q)

		eval, _ := json.Marshal(map[string]any{
			"rating": ratings[i%len(ratings)],
			"notes":  map[string]any{"summary": "noted", "hints": []string{}},
		})
		store.answers = append(store.answers, db.InterviewAnswer{
			ID:         uuid.New(),
			SessionID:  sessionID,
			QuestionID: q.ID,
			AnswerText: fmt.Sprintf("Answer %d.", i+1),
			Evaluation: eval,
		})
	}
	return store
}

func TestGenerate_CompletesReport(t *testing.T) {
	store := storeWithAnsweredQuestions(3)
	gen := NewGenerator(store, &reportClient{})

	err := gen.Generate(context.Background(), store.session.ID, uuid.New())
	require.NoError(t, err)

	assert.Equal(t, db.ReportStatusCompleted, store.status)
	require.NotNil(t, store.completedAt)
	assert.Equal(t, []int{10, 30, 50, 80, 100}, store.progress)

	var report Report
	require.NoError(t, json.Unmarshal(store.payload, &report))
	assert.Equal(t, "Strong on delivery, weak on metrics.", report.Overall)
	assert.Equal(t, []string{"clear ownership"}, report.Strengths)
	assert.Equal(t, []string{"quantify outcomes"}, report.Areas)
	require.NotNil(t, report.ProjectSuggestions)
	assert.Equal(t, []string{"add load testing"}, report.ProjectSuggestions.AdditionalContent)
	require.NotNil(t, report.Stats)
	assert.Equal(t, 3, report.Stats.Questions)
	assert.Equal(t, 3, report.Stats.Answered)
	assert.Equal(t, 2, report.Stats.Good)
	assert.Equal(t, 1, report.Stats.Vague)

	require.NoError(t, Validate(store.payload))
}

func TestGenerate_FailureReachesTerminalState(t *testing.T) {
	store := storeWithAnsweredQuestions(2)
	gen := NewGenerator(store, &reportClient{failOverall: true})

	err := gen.Generate(context.Background(), store.session.ID, uuid.New())
	require.Error(t, err)

	assert.Equal(t, db.ReportStatusFailed, store.status)
	assert.Contains(t, store.errMessage, "model unavailable")
}

func TestGenerate_SuggestionFailureStillCompletes(t *testing.T) {
	store := storeWithAnsweredQuestions(2)
	gen := NewGenerator(store, &reportClient{failSuggestions: true})

	err := gen.Generate(context.Background(), store.session.ID, uuid.New())
	require.NoError(t, err)

	assert.Equal(t, db.ReportStatusCompleted, store.status)

	var report Report
	require.NoError(t, json.Unmarshal(store.payload, &report))
	assert.Nil(t, report.ProjectSuggestions)
	assert.NotEmpty(t, report.Overall)
}

func TestGenerate_UnknownSessionFails(t *testing.T) {
	store := &fakeStore{}
	gen := NewGenerator(store, &reportClient{})

	err := gen.Generate(context.Background(), uuid.New(), uuid.New())
	require.Error(t, err)
	assert.Equal(t, db.ReportStatusFailed, store.status)
}

func TestGenerate_EmptySessionFails(t *testing.T) {
	store := &fakeStore{session: &db.InterviewSession{ID: uuid.New()}}
	gen := NewGenerator(store, &reportClient{})

	err := gen.Generate(context.Background(), store.session.ID, uuid.New())
	require.Error(t, err)
	assert.Equal(t, db.ReportStatusFailed, store.status)
	assert.Contains(t, store.errMessage, "no questions")

	// The report already showed processing before collection was attempted.
	assert.Equal(t, []int{10}, store.progress)
}

func TestParseOverall(t *testing.T) {
	tests := []struct {
		name        string
		raw         string
		wantOverall string
		wantDefault bool
	}{
		{
			name:        "clean json",
			raw:         `{"overall": "Good.", "strengths": ["a"], "areas": ["b"]}`,
			wantOverall: "Good.",
		},
		{
			name:        "json with surrounding prose",
			raw:         "Here is the report: {\"overall\": \"Solid.\", \"strengths\": [], \"areas\": []} hope it helps",
			wantOverall: "Solid.",
		},
		{
			name:        "not json degrades to raw text",
			raw:         "The candidate did fine overall.",
			wantOverall: "The candidate did fine overall.",
			wantDefault: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			report := ParseOverall(tt.raw)
			assert.Equal(t, tt.wantOverall, report.Overall)
			assert.NotNil(t, report.Strengths)
			assert.NotNil(t, report.Areas)
			if tt.wantDefault {
				assert.Empty(t, report.Strengths)
				assert.Empty(t, report.Areas)
			}
		})
	}
}

func TestParseProjectSuggestions_GarbageReturnsNil(t *testing.T) {
	assert.Nil(t, ParseProjectSuggestions("no json here"))
	assert.Nil(t, ParseProjectSuggestions(`{"unrelated": true}`))

	parsed := ParseProjectSuggestions(`{"additional_content": ["x"]}`)
	require.NotNil(t, parsed)
	assert.Equal(t, []string{"x"}, parsed.AdditionalContent)
}

func TestValidate(t *testing.T) {
	valid := json.RawMessage(`{"overall": "ok", "strengths": [], "areas": []}`)
	assert.NoError(t, Validate(valid))

	missingOverall := json.RawMessage(`{"strengths": [], "areas": []}`)
	assert.Error(t, Validate(missingOverall))

	emptyOverall := json.RawMessage(`{"overall": "", "strengths": [], "areas": []}`)
	assert.Error(t, Validate(emptyOverall))
}

func TestRenderTranscript(t *testing.T) {
	answer := "We cut latency by 90%."
	entries := []transcriptEntry{
		{question: "What did you ship?", answer: &answer, verdict: "GOOD", summary: "specific"},
		{question: "Anything else?"},
	}

	out := renderTranscript(entries)
	assert.Contains(t, out, "Q1: What did you ship?")
	assert.Contains(t, out, "A: We cut latency by 90%.")
	assert.Contains(t, out, "Verdict: GOOD (specific)")
	assert.Contains(t, out, "A: (not answered)")
}
