package rating

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/interview-coach/internal/llm"
)

// fixedClient returns a canned response for every chat call
type fixedClient struct {
	response string
	err      error
}

func (c *fixedClient) Chat(_ context.Context, _ []llm.Message, _ llm.ModelTier) (string, error) {
	return c.response, c.err
}

func (c *fixedClient) ChatStream(ctx context.Context, messages []llm.Message, tier llm.ModelTier, onChunk func(string) error) error {
	out, err := c.Chat(ctx, messages, tier)
	if err != nil {
		return err
	}
	return onChunk(out)
}

func (c *fixedClient) Close() error { return nil }

func TestEvaluate_NonJSONFallsBackToVague(t *testing.T) {
	c := NewClassifier(&fixedClient{response: "not json"})

	ev := c.Evaluate(context.Background(), "Q", "A")

	assert.Equal(t, RatingVague, ev.Rating)
	assert.Equal(t, "not json", ev.Notes.Summary)
	assert.Equal(t, []string{}, ev.Notes.Hints)
}

func TestEvaluate_ExtractsJSONFromSurroundingText(t *testing.T) {
	c := NewClassifier(&fixedClient{
		response: `prefix {"rating":"GOOD","notes":{"summary":"ok","hints":[]}} suffix`,
	})

	ev := c.Evaluate(context.Background(), "Q", "A")

	assert.Equal(t, RatingGood, ev.Rating)
	assert.Equal(t, "ok", ev.Notes.Summary)
	assert.Empty(t, ev.Notes.Hints)
}

func TestEvaluate_FullVerdict(t *testing.T) {
	c := NewClassifier(&fixedClient{
		response: `{"rating":"OFF_TOPIC","notes":{"summary":"missed the point","hints":["re-read the question"],"missing_dims":["understanding"]}}`,
	})

	ev := c.Evaluate(context.Background(), "Q", "A")

	assert.Equal(t, RatingOffTopic, ev.Rating)
	assert.Equal(t, []string{"re-read the question"}, ev.Notes.Hints)
	assert.Equal(t, []string{"understanding"}, ev.Notes.MissingDims)
}

func TestEvaluate_TransportErrorDegrades(t *testing.T) {
	c := NewClassifier(&fixedClient{err: errors.New("upstream unavailable")})

	ev := c.Evaluate(context.Background(), "Q", "A")

	assert.Equal(t, RatingVague, ev.Rating)
	assert.Contains(t, ev.Notes.Summary, "upstream unavailable")
}

func TestParse_UnknownRatingNormalizes(t *testing.T) {
	ev := Parse(`{"rating":"EXCELLENT","notes":{"summary":"s","hints":[]}}`)
	assert.Equal(t, RatingVague, ev.Rating, "ratings outside the closed set collapse to the default")
}

func TestParse_MissingNotesKeepsDefaults(t *testing.T) {
	raw := `{"rating":"GOOD"}`
	ev := Parse(raw)

	require.Equal(t, RatingGood, ev.Rating)
	assert.Equal(t, raw, ev.Notes.Summary, "absent notes keep the raw-text default summary")
	assert.Equal(t, []string{}, ev.Notes.Hints)
}

func TestParse_FencedJSON(t *testing.T) {
	ev := Parse("```json\n{\"rating\":\"GOOD\",\"notes\":{\"summary\":\"ok\",\"hints\":[]}}\n```")
	assert.Equal(t, RatingGood, ev.Rating)
}

func TestRating_Normalize(t *testing.T) {
	tests := []struct {
		name     string
		in       Rating
		expected Rating
	}{
		{"good", RatingGood, RatingGood},
		{"vague", RatingVague, RatingVague},
		{"off topic", RatingOffTopic, RatingOffTopic},
		{"unknown", RatingUnknown, RatingVague},
		{"arbitrary", Rating("GREAT"), RatingVague},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.in.Normalize())
		})
	}
}
