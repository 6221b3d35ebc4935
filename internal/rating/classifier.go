package rating

import (
	"context"
	"encoding/json"

	"github.com/jonathan/interview-coach/internal/llm"
	"github.com/jonathan/interview-coach/internal/prompts"
)

// Classifier rates a question/answer pair using a completion client
type Classifier struct {
	client llm.Client
}

// NewClassifier creates a classifier over a completion client
func NewClassifier(client llm.Client) *Classifier {
	return &Classifier{client: client}
}

// Evaluate rates an answer. It never fails on malformed model output: the
// response is searched for the first brace-delimited JSON object, missing
// fields keep their defaults, and anything unparseable degrades to a VAGUE
// verdict whose summary is the raw response text.
func (c *Classifier) Evaluate(ctx context.Context, question, answer string) Evaluation {
	messages := []llm.Message{
		{Role: llm.RoleSystem, Content: prompts.MustGet("rating.json", "system")},
		{Role: llm.RoleUser, Content: prompts.Format(prompts.MustGet("rating.json", "evaluate"), map[string]string{
			"Question": question,
			"Answer":   answer,
		})},
	}

	raw, err := c.client.Chat(ctx, messages, llm.TierLite)
	if err != nil {
		// Transport failure gets the same degraded verdict as bad output;
		// a single unrated turn must not break the dialogue.
		return defaultVerdict(err.Error())
	}

	return Parse(raw)
}

// Parse extracts an Evaluation from raw model output, applying the
// degradation policy described on Evaluate.
func Parse(raw string) Evaluation {
	verdict := defaultVerdict(raw)

	payload := llm.ExtractJSONObject(raw)
	var parsed struct {
		Rating Rating `json:"rating"`
		Notes  *Notes `json:"notes"`
	}
	if err := json.Unmarshal([]byte(payload), &parsed); err != nil {
		return verdict
	}

	verdict.Rating = parsed.Rating.Normalize()
	if parsed.Notes != nil {
		verdict.Notes = *parsed.Notes
		if verdict.Notes.Hints == nil {
			verdict.Notes.Hints = []string{}
		}
	}
	return verdict
}

func defaultVerdict(summary string) Evaluation {
	return Evaluation{
		Rating: RatingVague,
		Notes:  Notes{Summary: summary, Hints: []string{}},
	}
}
