package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"
)

// Role constants for chat messages
const (
	RoleSystem = "system"
	RoleUser   = "user"
	RoleModel  = "model"
)

// Message is a single role-tagged chat message
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Client is an abstraction over completion providers
type Client interface {
	// Chat sends a list of role-tagged messages and returns the full response text
	Chat(ctx context.Context, messages []Message, tier ModelTier) (string, error)
	// ChatStream sends the same request but forwards response fragments to
	// onChunk as they arrive. Concatenating all fragments yields the same
	// text Chat would have returned.
	ChatStream(ctx context.Context, messages []Message, tier ModelTier, onChunk func(string) error) error
	// Close releases any resources held by the client
	Close() error
}

// NewClient creates a new LLM client based on configuration
func NewClient(ctx context.Context, config *Config, apiKey string) (Client, error) {
	if config == nil {
		config = DefaultConfig()
	}

	switch config.Provider {
	case ProviderStub:
		return NewStubClient(), nil
	default:
		return NewGeminiClient(ctx, config, apiKey)
	}
}

// GeminiClient implements Client for Google Gemini
type GeminiClient struct {
	client *genai.Client
	config *Config
}

// NewGeminiClient creates a new Gemini client
func NewGeminiClient(ctx context.Context, config *Config, apiKey string) (*GeminiClient, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("API key is required")
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	return &GeminiClient{
		client: client,
		config: config,
	}, nil
}

// Chat sends role-tagged messages and returns the full response text
func (c *GeminiClient) Chat(ctx context.Context, messages []Message, tier ModelTier) (string, error) {
	model, parts, err := c.prepare(messages, tier)
	if err != nil {
		return "", err
	}

	resp, err := model.GenerateContent(ctx, parts...)
	if err != nil {
		return "", fmt.Errorf("failed to generate content: %w", err)
	}

	return extractTextFromResponse(resp)
}

// ChatStream streams the response, forwarding each fragment to onChunk
func (c *GeminiClient) ChatStream(ctx context.Context, messages []Message, tier ModelTier, onChunk func(string) error) error {
	model, parts, err := c.prepare(messages, tier)
	if err != nil {
		return err
	}

	it := model.GenerateContentStream(ctx, parts...)
	for {
		resp, err := it.Next()
		if err == iterator.Done {
			return nil
		}
		if err != nil {
			return fmt.Errorf("failed to stream content: %w", err)
		}
		text, err := extractTextFromResponse(resp)
		if err != nil {
			continue // skip non-text fragments
		}
		if err := onChunk(text); err != nil {
			return err
		}
	}
}

// Close releases resources held by the client
func (c *GeminiClient) Close() error {
	if c.client != nil {
		return c.client.Close()
	}
	return nil
}

// prepare resolves the model for a tier and maps messages onto the Gemini
// request shape: system messages become the system instruction, the rest
// are concatenated into user parts.
func (c *GeminiClient) prepare(messages []Message, tier ModelTier) (*genai.GenerativeModel, []genai.Part, error) {
	modelName := c.config.GetModel(tier)
	if modelName == "" {
		return nil, nil, fmt.Errorf("no model configured for tier %s", tier)
	}

	model := c.client.GenerativeModel(modelName)
	model.SetTemperature(0.1) // Low temperature for consistent output

	var sys []string
	var parts []genai.Part
	for _, m := range messages {
		if m.Role == RoleSystem {
			sys = append(sys, m.Content)
			continue
		}
		parts = append(parts, genai.Text(m.Content))
	}
	if len(sys) > 0 {
		model.SystemInstruction = &genai.Content{
			Parts: []genai.Part{genai.Text(strings.Join(sys, "\n"))},
		}
	}
	if len(parts) == 0 {
		return nil, nil, fmt.Errorf("no user messages provided")
	}

	return model, parts, nil
}

// EmbedTexts embeds a batch of texts using the configured embedding model.
// Returns one vector per input text; an empty input yields an empty result.
func (c *GeminiClient) EmbedTexts(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	em := c.client.EmbeddingModel(c.config.EmbeddingModel)
	batch := em.NewBatch()
	for _, t := range texts {
		batch.AddContent(genai.Text(t))
	}

	resp, err := em.BatchEmbedContents(ctx, batch)
	if err != nil {
		return nil, fmt.Errorf("failed to embed texts: %w", err)
	}

	vectors := make([][]float32, 0, len(resp.Embeddings))
	for _, e := range resp.Embeddings {
		vectors = append(vectors, e.Values)
	}
	return vectors, nil
}

// extractTextFromResponse extracts text from Gemini API response
func extractTextFromResponse(resp *genai.GenerateContentResponse) (string, error) {
	if len(resp.Candidates) == 0 {
		return "", fmt.Errorf("no candidates in response")
	}

	candidate := resp.Candidates[0]
	if candidate.Content == nil || len(candidate.Content.Parts) == 0 {
		return "", fmt.Errorf("no content in response")
	}

	var parts []string
	for _, part := range candidate.Content.Parts {
		if text, ok := part.(genai.Text); ok {
			parts = append(parts, string(text))
		}
	}

	if len(parts) == 0 {
		return "", fmt.Errorf("no text parts in response")
	}

	return strings.Join(parts, ""), nil
}
