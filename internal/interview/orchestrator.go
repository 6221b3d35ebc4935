package interview

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/jonathan/interview-coach/internal/db"
	"github.com/jonathan/interview-coach/internal/llm"
	"github.com/jonathan/interview-coach/internal/prompts"
	"github.com/jonathan/interview-coach/internal/queue"
	"github.com/jonathan/interview-coach/internal/rating"
	"github.com/jonathan/interview-coach/internal/retrieval"
)

// Next actions returned to the client after a turn
const (
	ActionNextQuestion = "next_question"
	ActionFollowUp     = "follow_up"
)

// Store is the persistence surface the orchestrator needs. *db.DB satisfies
// it; tests use an in-memory implementation.
type Store interface {
	CreateSession(ctx context.Context, userID, jobPostingID uuid.UUID, experienceIDs []uuid.UUID) (*db.InterviewSession, error)
	GetSession(ctx context.Context, id uuid.UUID) (*db.InterviewSession, error)
	UpdateSessionProgress(ctx context.Context, id uuid.UUID, currentRound, followUpCount int) error
	SetSessionStatus(ctx context.Context, id uuid.UUID, status string) error

	CreateQuestion(ctx context.Context, input db.QuestionCreateInput) (*db.InterviewQuestion, error)
	GetQuestion(ctx context.Context, id uuid.UUID) (*db.InterviewQuestion, error)
	LatestQuestion(ctx context.Context, sessionID uuid.UUID) (*db.InterviewQuestion, error)
	ListQuestions(ctx context.Context, sessionID uuid.UUID) ([]db.InterviewQuestion, error)
	CreateAnswer(ctx context.Context, input db.AnswerCreateInput) (*db.InterviewAnswer, error)
	ListAnswers(ctx context.Context, sessionID uuid.UUID) ([]db.InterviewAnswer, error)

	GetJobPosting(ctx context.Context, id uuid.UUID) (*db.JobPosting, error)
	ListExperiencesByIDs(ctx context.Context, ids []uuid.UUID) ([]db.Experience, error)

	ReplaceReport(ctx context.Context, sessionID uuid.UUID) (*db.FeedbackReport, error)
}

// Options tune the dialogue branching.
type Options struct {
	// MaxFollowUps caps consecutive follow-ups per round before the
	// interviewer moves on regardless of the verdict.
	MaxFollowUps int
	// TopK is the number of grounding snippets retrieved per question.
	TopK int
	// DesignRound and ResilienceRound set when question difficulty shifts
	// from fact checks to design trade-offs and failure scenarios.
	DesignRound     int
	ResilienceRound int
}

// DefaultOptions mirrors the production defaults.
func DefaultOptions() Options {
	return Options{
		MaxFollowUps:    3,
		TopK:            6,
		DesignRound:     2,
		ResilienceRound: 3,
	}
}

// TurnResult is the outcome of one answered question.
type TurnResult struct {
	Rating        rating.Rating         `json:"rating"`
	Notes         rating.Notes          `json:"notes"`
	NextAction    string                `json:"next_action"`
	FollowUpCount int                   `json:"follow_up_count"`
	Question      *db.InterviewQuestion `json:"question"`
}

// TranscriptEntry pairs a question with its answer, if any.
type TranscriptEntry struct {
	Question db.InterviewQuestion `json:"question"`
	Answer   *db.InterviewAnswer  `json:"answer,omitempty"`
}

// Orchestrator runs interview sessions end to end.
type Orchestrator struct {
	store      Store
	retriever  *retrieval.Retriever
	classifier *rating.Classifier
	client     llm.Client
	jobs       queue.Queue
	opts       Options
}

// NewOrchestrator wires the orchestrator's collaborators.
func NewOrchestrator(store Store, retriever *retrieval.Retriever, classifier *rating.Classifier, client llm.Client, jobs queue.Queue, opts Options) *Orchestrator {
	if opts.TopK <= 0 {
		opts.TopK = DefaultOptions().TopK
	}
	if opts.DesignRound <= 0 {
		opts.DesignRound = DefaultOptions().DesignRound
	}
	if opts.ResilienceRound < opts.DesignRound {
		opts.ResilienceRound = opts.DesignRound + 1
	}
	return &Orchestrator{
		store:      store,
		retriever:  retriever,
		classifier: classifier,
		client:     client,
		jobs:       jobs,
		opts:       opts,
	}
}

// StartSession creates a session, indexes the grounding material, and
// generates the opening question.
func (o *Orchestrator) StartSession(ctx context.Context, userID, jobPostingID uuid.UUID, experienceIDs []uuid.UUID) (*db.InterviewSession, *db.InterviewQuestion, error) {
	session, err := o.store.CreateSession(ctx, userID, jobPostingID, experienceIDs)
	if err != nil {
		return nil, nil, err
	}

	if err := o.IndexSessionMaterial(ctx, session); err != nil {
		return nil, nil, err
	}

	text, err := o.generateQuestion(ctx, session, nil)
	if err != nil {
		return nil, nil, err
	}

	question, err := o.store.CreateQuestion(ctx, db.QuestionCreateInput{
		SessionID:    session.ID,
		RoundIndex:   session.CurrentRound,
		QuestionType: db.QuestionTypeMain,
		Text:         text,
	})
	if err != nil {
		return nil, nil, err
	}
	return session, question, nil
}

// IndexSessionMaterial rebuilds the retrieval index from the session's job
// posting and experiences. Upserts are keyed by document ID, so reindexing
// the same material is idempotent.
func (o *Orchestrator) IndexSessionMaterial(ctx context.Context, session *db.InterviewSession) error {
	job, err := o.store.GetJobPosting(ctx, session.JobPostingID)
	if err != nil {
		return err
	}
	experiences, err := o.store.ListExperiencesByIDs(ctx, session.ExperienceIDs)
	if err != nil {
		return err
	}

	docs := BuildDocuments(job, experiences)
	if len(docs) == 0 {
		return nil
	}
	_, err = o.retriever.Index(ctx, docs)
	return err
}

// SubmitAnswer rates the answer to a question and advances the dialogue. The
// question must belong to an active session.
func (o *Orchestrator) SubmitAnswer(ctx context.Context, sessionID, questionID uuid.UUID, answerText string) (*TurnResult, error) {
	session, question, err := o.loadTurn(ctx, sessionID, questionID)
	if err != nil {
		return nil, err
	}

	verdict := o.classifier.Evaluate(ctx, question.Text, answerText)
	if err := o.persistAnswer(ctx, session, question, answerText, verdict); err != nil {
		return nil, err
	}

	action, round, followUps := o.route(session, verdict)

	var nextText string
	if action == ActionFollowUp {
		nextText = followUpText(verdict)
	} else {
		advanced := *session
		advanced.CurrentRound = round
		nextText, err = o.generateQuestion(ctx, &advanced, nil)
		if err != nil {
			return nil, err
		}
	}

	next, err := o.finishTurn(ctx, session, question, action, round, followUps, nextText)
	if err != nil {
		return nil, err
	}

	return &TurnResult{
		Rating:        verdict.Rating,
		Notes:         verdict.Notes,
		NextAction:    action,
		FollowUpCount: followUps,
		Question:      next,
	}, nil
}

// SubmitAnswerStream behaves like SubmitAnswer but delivers the result
// incrementally through emit. Event order is fixed: evaluation, then
// question_start, question_chunk..., question_end, done. The next question is
// persisted exactly once, after its full text has been assembled.
func (o *Orchestrator) SubmitAnswerStream(ctx context.Context, sessionID, questionID uuid.UUID, answerText string, emit func(event string, data any) error) error {
	session, question, err := o.loadTurn(ctx, sessionID, questionID)
	if err != nil {
		return err
	}

	verdict := o.classifier.Evaluate(ctx, question.Text, answerText)
	if err := o.persistAnswer(ctx, session, question, answerText, verdict); err != nil {
		return err
	}

	action, round, followUps := o.route(session, verdict)

	if err := emit("evaluation", map[string]any{
		"rating":      verdict.Rating,
		"notes":       verdict.Notes,
		"next_action": action,
	}); err != nil {
		return err
	}
	if err := emit("question_start", map[string]any{"question_type": questionTypeFor(action)}); err != nil {
		return err
	}

	var nextText string
	if action == ActionFollowUp {
		nextText = followUpText(verdict)
		if err := emit("question_chunk", map[string]any{"text": nextText}); err != nil {
			return err
		}
	} else {
		advanced := *session
		advanced.CurrentRound = round
		nextText, err = o.generateQuestion(ctx, &advanced, func(chunk string) error {
			return emit("question_chunk", map[string]any{"text": chunk})
		})
		if err != nil {
			return err
		}
	}

	next, err := o.finishTurn(ctx, session, question, action, round, followUps, nextText)
	if err != nil {
		return err
	}

	if err := emit("question_end", map[string]any{
		"question_id":   next.ID,
		"question_type": next.QuestionType,
		"round_index":   next.RoundIndex,
		"text":          next.Text,
	}); err != nil {
		return err
	}
	return emit("done", map[string]any{"follow_up_count": followUps, "current_round": round})
}

// NextQuestion returns the session's current unanswered question, or nil.
func (o *Orchestrator) NextQuestion(ctx context.Context, sessionID uuid.UUID) (*db.InterviewQuestion, error) {
	return o.store.LatestQuestion(ctx, sessionID)
}

// Transcript returns the session's questions in order, each with its answer
// when one exists.
func (o *Orchestrator) Transcript(ctx context.Context, sessionID uuid.UUID) ([]TranscriptEntry, error) {
	questions, err := o.store.ListQuestions(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	answers, err := o.store.ListAnswers(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	byQuestion := make(map[uuid.UUID]*db.InterviewAnswer, len(answers))
	for i := range answers {
		byQuestion[answers[i].QuestionID] = &answers[i]
	}

	entries := make([]TranscriptEntry, 0, len(questions))
	for _, q := range questions {
		entries = append(entries, TranscriptEntry{Question: q, Answer: byQuestion[q.ID]})
	}
	return entries, nil
}

// EndSession marks the session completed, creates a fresh pending report, and
// enqueues report generation. It returns the pending report so callers can
// poll its status.
func (o *Orchestrator) EndSession(ctx context.Context, sessionID uuid.UUID) (*db.FeedbackReport, error) {
	session, err := o.store.GetSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if session == nil {
		return nil, &NotFoundError{Entity: "session", ID: sessionID}
	}

	if err := o.store.SetSessionStatus(ctx, sessionID, db.SessionStatusCompleted); err != nil {
		return nil, err
	}

	report, err := o.store.ReplaceReport(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	payload, err := json.Marshal(map[string]string{
		"session_id": sessionID.String(),
		"report_id":  report.ID.String(),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal feedback job payload: %w", err)
	}
	if _, err := o.jobs.Enqueue(ctx, queue.TypeGenerateFeedback, payload); err != nil {
		return nil, err
	}
	return report, nil
}

// loadTurn validates that the question belongs to an active session.
func (o *Orchestrator) loadTurn(ctx context.Context, sessionID, questionID uuid.UUID) (*db.InterviewSession, *db.InterviewQuestion, error) {
	session, err := o.store.GetSession(ctx, sessionID)
	if err != nil {
		return nil, nil, err
	}
	if session == nil {
		return nil, nil, &NotFoundError{Entity: "session", ID: sessionID}
	}
	if !session.IsActive() {
		return nil, nil, &SessionNotActiveError{SessionID: sessionID}
	}

	question, err := o.store.GetQuestion(ctx, questionID)
	if err != nil {
		return nil, nil, err
	}
	if question == nil || question.SessionID != sessionID {
		return nil, nil, &NotFoundError{Entity: "question", ID: questionID}
	}
	return session, question, nil
}

func (o *Orchestrator) persistAnswer(ctx context.Context, session *db.InterviewSession, question *db.InterviewQuestion, answerText string, verdict rating.Evaluation) error {
	evaluation, err := json.Marshal(verdict)
	if err != nil {
		return fmt.Errorf("failed to marshal evaluation: %w", err)
	}
	_, err = o.store.CreateAnswer(ctx, db.AnswerCreateInput{
		SessionID:  session.ID,
		QuestionID: question.ID,
		AnswerText: answerText,
		Evaluation: evaluation,
	})
	return err
}

// route decides the next action from the verdict and the session counters. A
// GOOD answer always advances the round; anything else gets a follow-up until
// the cap, then the interviewer moves on.
func (o *Orchestrator) route(session *db.InterviewSession, verdict rating.Evaluation) (action string, round, followUps int) {
	if verdict.Rating != rating.RatingGood && session.FollowUpCount < o.opts.MaxFollowUps {
		return ActionFollowUp, session.CurrentRound, session.FollowUpCount + 1
	}
	return ActionNextQuestion, session.CurrentRound + 1, 0
}

// finishTurn persists the next question and the advanced session counters.
func (o *Orchestrator) finishTurn(ctx context.Context, session *db.InterviewSession, answered *db.InterviewQuestion, action string, round, followUps int, nextText string) (*db.InterviewQuestion, error) {
	input := db.QuestionCreateInput{
		SessionID:    session.ID,
		RoundIndex:   round,
		QuestionType: questionTypeFor(action),
		Text:         nextText,
	}
	if action == ActionFollowUp {
		input.ParentQuestionID = &answered.ID
	}

	next, err := o.store.CreateQuestion(ctx, input)
	if err != nil {
		return nil, err
	}
	if err := o.store.UpdateSessionProgress(ctx, session.ID, round, followUps); err != nil {
		return nil, err
	}
	return next, nil
}

// generateQuestion builds a grounded question for the session's current
// round. When onChunk is non-nil the completion is streamed through it; the
// returned string is always the full assembled text.
func (o *Orchestrator) generateQuestion(ctx context.Context, session *db.InterviewSession, onChunk func(string) error) (string, error) {
	goal := prompts.MustGet("interview.json", "goal_next_round")
	if session.CurrentRound == 0 {
		goal = prompts.MustGet("interview.json", "goal_first_round")
	}

	snippets, err := o.retriever.Retrieve(ctx, goal, o.opts.TopK)
	if err != nil {
		return "", err
	}
	contextText := strings.Join(snippets, "\n\n")
	if contextText == "" {
		contextText = "(no grounding material indexed)"
	}

	messages := []llm.Message{
		{Role: llm.RoleSystem, Content: prompts.MustGet("interview.json", "question_system")},
		{Role: llm.RoleUser, Content: prompts.Format(prompts.MustGet("interview.json", "question_user"), map[string]string{
			"Goal":     goal,
			"Context":  contextText,
			"Guidance": o.guidance(session.CurrentRound),
		})},
	}

	if onChunk == nil {
		return o.client.Chat(ctx, messages, llm.TierStandard)
	}

	var sb strings.Builder
	err = o.client.ChatStream(ctx, messages, llm.TierStandard, func(chunk string) error {
		sb.WriteString(chunk)
		return onChunk(chunk)
	})
	if err != nil {
		return "", err
	}
	return sb.String(), nil
}

// guidance escalates question difficulty as the session progresses.
func (o *Orchestrator) guidance(round int) string {
	switch {
	case round >= o.opts.ResilienceRound:
		return prompts.MustGet("interview.json", "guidance_resilience")
	case round >= o.opts.DesignRound:
		return prompts.MustGet("interview.json", "guidance_design")
	default:
		return prompts.MustGet("interview.json", "guidance_early")
	}
}

// followUpText derives the follow-up from the classifier's hints. No model
// call is made: the hints already state what the answer was missing.
func followUpText(verdict rating.Evaluation) string {
	if len(verdict.Notes.Hints) > 0 {
		return strings.Join(verdict.Notes.Hints, "; ")
	}
	return prompts.MustGet("interview.json", "follow_up_generic")
}

func questionTypeFor(action string) string {
	if action == ActionFollowUp {
		return db.QuestionTypeFollowUp
	}
	return db.QuestionTypeMain
}
