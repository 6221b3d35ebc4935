package feedback

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"

	"github.com/google/uuid"

	"github.com/jonathan/interview-coach/internal/db"
	"github.com/jonathan/interview-coach/internal/llm"
	"github.com/jonathan/interview-coach/internal/prompts"
	"github.com/jonathan/interview-coach/internal/rating"
)

// Progress checkpoints written as the pipeline advances. Clients polling
// report status see these values: 10 as soon as the job starts, 30 once the
// transcript is collected, 50 when the prompt is ready, 80 after the model
// call, 100 at completion.
const (
	progressStarted   = 10
	progressCollected = 30
	progressPrepared  = 50
	progressAssessed  = 80
)

// Store is the persistence surface the generator needs. *db.DB satisfies it.
type Store interface {
	GetSession(ctx context.Context, id uuid.UUID) (*db.InterviewSession, error)
	ListQuestions(ctx context.Context, sessionID uuid.UUID) ([]db.InterviewQuestion, error)
	ListAnswers(ctx context.Context, sessionID uuid.UUID) ([]db.InterviewAnswer, error)
	SetReportProgress(ctx context.Context, id uuid.UUID, progress int) error
	CompleteReport(ctx context.Context, id uuid.UUID, payload json.RawMessage) error
	FailReport(ctx context.Context, id uuid.UUID, message string) error
}

// Generator produces feedback reports from finished sessions.
type Generator struct {
	store  Store
	client llm.Client
}

// NewGenerator wires the generator's collaborators.
func NewGenerator(store Store, client llm.Client) *Generator {
	return &Generator{store: store, client: client}
}

type transcriptEntry struct {
	question string
	answer   *string
	verdict  rating.Rating
	summary  string
}

// Generate runs the report pipeline for one session. The report row always
// reaches a terminal state: completed with the payload on success, failed
// with the error message otherwise.
func (g *Generator) Generate(ctx context.Context, sessionID, reportID uuid.UUID) (err error) {
	defer func() {
		if err == nil {
			return
		}
		// The finalizing write must happen even when a stage failed, so a
		// polling client never waits on a report that will not arrive.
		if failErr := g.store.FailReport(ctx, reportID, err.Error()); failErr != nil {
			log.Printf("feedback: failed to mark report %s failed: %v", reportID, failErr)
		}
	}()

	session, err := g.store.GetSession(ctx, sessionID)
	if err != nil {
		return err
	}
	if session == nil {
		return fmt.Errorf("session %s not found", sessionID)
	}

	// The report shows processing before any heavy work starts.
	if err = g.store.SetReportProgress(ctx, reportID, progressStarted); err != nil {
		return err
	}

	entries, err := g.collectTranscript(ctx, sessionID)
	if err != nil {
		return err
	}
	if err = g.store.SetReportProgress(ctx, reportID, progressCollected); err != nil {
		return err
	}

	transcript := renderTranscript(entries)

	if err = g.store.SetReportProgress(ctx, reportID, progressPrepared); err != nil {
		return err
	}
	overallRaw, err := g.client.Chat(ctx, []llm.Message{
		{Role: llm.RoleSystem, Content: prompts.MustGet("feedback.json", "overall_system")},
		{Role: llm.RoleUser, Content: prompts.Format(prompts.MustGet("feedback.json", "overall_user"), map[string]string{
			"Transcript": transcript,
		})},
	}, llm.TierAdvanced)
	if err != nil {
		return fmt.Errorf("failed to generate assessment: %w", err)
	}

	report := ParseOverall(overallRaw)
	report.Stats = countStats(entries)
	if err = g.store.SetReportProgress(ctx, reportID, progressAssessed); err != nil {
		return err
	}

	// Suggestions are additive: a failure here degrades the report rather
	// than failing the job.
	suggestionsRaw, sugErr := g.client.Chat(ctx, []llm.Message{
		{Role: llm.RoleSystem, Content: prompts.MustGet("feedback.json", "project_system")},
		{Role: llm.RoleUser, Content: prompts.Format(prompts.MustGet("feedback.json", "project_user"), map[string]string{
			"Transcript": transcript,
		})},
	}, llm.TierAdvanced)
	if sugErr != nil {
		log.Printf("feedback: suggestions skipped for session %s: %v", sessionID, sugErr)
	} else {
		report.ProjectSuggestions = ParseProjectSuggestions(suggestionsRaw)
	}

	payload, err := json.Marshal(report)
	if err != nil {
		return fmt.Errorf("failed to marshal report: %w", err)
	}
	if err = Validate(payload); err != nil {
		return err
	}

	return g.store.CompleteReport(ctx, reportID, payload)
}

func (g *Generator) collectTranscript(ctx context.Context, sessionID uuid.UUID) ([]transcriptEntry, error) {
	questions, err := g.store.ListQuestions(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if len(questions) == 0 {
		return nil, fmt.Errorf("session %s has no questions", sessionID)
	}
	answers, err := g.store.ListAnswers(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	byQuestion := make(map[uuid.UUID]*db.InterviewAnswer, len(answers))
	for i := range answers {
		byQuestion[answers[i].QuestionID] = &answers[i]
	}

	entries := make([]transcriptEntry, 0, len(questions))
	for _, q := range questions {
		entry := transcriptEntry{question: q.Text}
		if a := byQuestion[q.ID]; a != nil {
			text := a.AnswerText
			entry.answer = &text

			var verdict rating.Evaluation
			if err := json.Unmarshal(a.Evaluation, &verdict); err == nil {
				entry.verdict = verdict.Rating
				entry.summary = verdict.Notes.Summary
			}
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

// renderTranscript formats the session as numbered Q/A pairs with the
// classifier's verdicts inline.
func renderTranscript(entries []transcriptEntry) string {
	var sb strings.Builder
	for i, e := range entries {
		fmt.Fprintf(&sb, "Q%d: %s\n", i+1, e.question)
		if e.answer == nil {
			sb.WriteString("A: (not answered)\n\n")
			continue
		}
		fmt.Fprintf(&sb, "A: %s\n", *e.answer)
		if e.verdict != rating.RatingUnknown {
			fmt.Fprintf(&sb, "Verdict: %s", e.verdict)
			if e.summary != "" {
				fmt.Fprintf(&sb, " (%s)", e.summary)
			}
			sb.WriteString("\n")
		}
		sb.WriteString("\n")
	}
	return strings.TrimRight(sb.String(), "\n")
}
