package main

import (
	"context"
	"fmt"
	"log"

	"github.com/jonathan/interview-coach/internal/config"
	"github.com/jonathan/interview-coach/internal/db"
	"github.com/jonathan/interview-coach/internal/feedback"
	"github.com/jonathan/interview-coach/internal/interview"
	"github.com/jonathan/interview-coach/internal/llm"
	"github.com/jonathan/interview-coach/internal/queue"
	"github.com/jonathan/interview-coach/internal/rating"
	"github.com/jonathan/interview-coach/internal/recommend"
	"github.com/jonathan/interview-coach/internal/retrieval"
	"github.com/jonathan/interview-coach/internal/voice"
)

// appEnv holds the wired components shared by the serve and worker commands.
type appEnv struct {
	cfg         config.Config
	database    *db.DB
	client      llm.Client
	embedder    retrieval.Embedder
	retriever   *retrieval.Retriever
	jobs        queue.Queue
	orch        *interview.Orchestrator
	generator   *feedback.Generator
	recommender *recommend.Recommender
	transcriber voice.Transcriber
}

// buildEnv connects to Postgres and wires every component from the
// environment configuration.
func buildEnv(ctx context.Context) (*appEnv, error) {
	cfg := config.FromEnv()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	database, err := db.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	if err := database.EnsureSchema(ctx); err != nil {
		database.Close()
		return nil, err
	}

	env := &appEnv{cfg: cfg, database: database}
	if err := env.wire(ctx); err != nil {
		database.Close()
		return nil, err
	}
	return env, nil
}

func (e *appEnv) wire(ctx context.Context) error {
	llmConfig := llm.DefaultGeminiConfig()
	if e.cfg.CompletionBackend == config.BackendStub {
		llmConfig.Provider = llm.ProviderStub
		log.Println("Completion backend: stub (no API key configured)")
	}

	client, err := llm.NewClient(ctx, llmConfig, e.cfg.APIKey)
	if err != nil {
		return fmt.Errorf("failed to create LLM client: %w", err)
	}
	e.client = client

	if gemini, ok := client.(*llm.GeminiClient); ok && e.cfg.RetrievalBackend == config.BackendLive {
		e.embedder = retrieval.NewGeminiEmbedder(gemini)
	} else {
		e.embedder = retrieval.NewLocalEmbedder(e.cfg.EmbeddingDim)
	}

	store, err := retrieval.NewPgStore(ctx, e.database.Pool(), retrieval.DefaultCollection, e.embedder.Dimension())
	if err != nil {
		return err
	}
	e.retriever = retrieval.NewRetriever(store, e.embedder)

	jobs, err := queue.NewPgQueue(ctx, e.database.Pool())
	if err != nil {
		return err
	}
	e.jobs = jobs

	e.orch = interview.NewOrchestrator(
		e.database, e.retriever, rating.NewClassifier(e.client), e.client, e.jobs,
		interview.Options{
			MaxFollowUps:    e.cfg.MaxFollowUps,
			TopK:            e.cfg.TopK,
			DesignRound:     e.cfg.DesignRound,
			ResilienceRound: e.cfg.ResilienceRound,
		},
	)
	e.generator = feedback.NewGenerator(e.database, e.client)
	e.recommender = recommend.New(e.database, e.embedder)
	e.transcriber = voice.NewStubTranscriber()
	return nil
}

// Close releases the environment's connections.
func (e *appEnv) Close() {
	if e.client != nil {
		if err := e.client.Close(); err != nil {
			log.Printf("Error closing LLM client: %v", err)
		}
	}
	if e.database != nil {
		e.database.Close()
	}
}
