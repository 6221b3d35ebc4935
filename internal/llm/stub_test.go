package llm

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStubClient_RatingContract(t *testing.T) {
	c := NewStubClient()
	ctx := context.Background()

	messages := []Message{
		{Role: RoleSystem, Content: "You are a technical interviewer."},
		{Role: RoleUser, Content: "Return JSON only: {\"rating\": \"...\"}\n\nAnswer:\nWe cut p99 latency by 40% because we added a cache."},
	}

	out, err := c.Chat(ctx, messages, TierLite)
	require.NoError(t, err)
	assert.Contains(t, out, `"rating":"GOOD"`)
}

func TestStubClient_VagueAnswer(t *testing.T) {
	c := NewStubClient()

	messages := []Message{
		{Role: RoleUser, Content: "Return JSON only: {\"rating\": \"...\"}\n\nAnswer:\nI worked on the backend."},
	}

	out, err := c.Chat(context.Background(), messages, TierLite)
	require.NoError(t, err)
	assert.Contains(t, out, `"rating":"VAGUE"`)
}

func TestStubClient_StreamMatchesChat(t *testing.T) {
	c := NewStubClient()
	ctx := context.Background()

	messages := []Message{
		{Role: RoleUser, Content: "Generate one interview question."},
	}

	full, err := c.Chat(ctx, messages, TierStandard)
	require.NoError(t, err)

	var b strings.Builder
	err = c.ChatStream(ctx, messages, TierStandard, func(chunk string) error {
		b.WriteString(chunk)
		return nil
	})
	require.NoError(t, err)

	assert.Equal(t, full, b.String())
}
