// Package config provides configuration loading and validation for the
// interview coach services.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Backend selects a live or stubbed implementation of an external capability
type Backend string

// Backend constants
const (
	BackendLive Backend = "live"
	BackendStub Backend = "stub"
)

// Config holds every tunable the components need. Constructors receive this
// struct explicitly; there are no cached singletons.
type Config struct {
	// Connections
	DatabaseURL string
	APIKey      string
	Port        int

	// Capability backends
	CompletionBackend Backend
	RetrievalBackend  Backend

	// Dialogue tuning
	MaxFollowUps int
	TopK         int
	// Round thresholds for question difficulty guidance. Questions before
	// DesignRound verify facts and metrics, the DesignRound itself probes
	// design trade-offs, and rounds at or past ResilienceRound probe
	// failure handling.
	DesignRound     int
	ResilienceRound int

	// Worker tuning
	PollInterval time.Duration
	StaleAfter   time.Duration

	// Embedding dimension for the local embedder / vector table
	EmbeddingDim int

	// Auth
	JWTSecret string
}

// Default returns the baseline configuration
func Default() Config {
	return Config{
		Port:              8080,
		CompletionBackend: BackendLive,
		RetrievalBackend:  BackendLive,
		MaxFollowUps:      3,
		TopK:              6,
		DesignRound:       2,
		ResilienceRound:   3,
		PollInterval:      time.Second,
		StaleAfter:        10 * time.Minute,
		EmbeddingDim:      768,
		JWTSecret:         "dev-secret",
	}
}

// FromEnv loads configuration from environment variables on top of defaults
func FromEnv() Config {
	cfg := Default()

	cfg.DatabaseURL = os.Getenv("DATABASE_URL")
	cfg.APIKey = os.Getenv("GEMINI_API_KEY")

	if v := os.Getenv("PORT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Port = n
		}
	}
	if v := os.Getenv("COMPLETION_BACKEND"); v != "" {
		cfg.CompletionBackend = Backend(v)
	}
	if v := os.Getenv("RETRIEVAL_BACKEND"); v != "" {
		cfg.RetrievalBackend = Backend(v)
	}
	if v := os.Getenv("MAX_FOLLOW_UPS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.MaxFollowUps = n
		}
	}
	if v := os.Getenv("QUEUE_POLL_INTERVAL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.PollInterval = d
		}
	}
	if v := os.Getenv("QUEUE_STALE_AFTER"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.StaleAfter = d
		}
	}
	if v := os.Getenv("JWT_SECRET"); v != "" {
		cfg.JWTSecret = v
	}

	// No credentials: fall back to deterministic offline responders rather
	// than failing every request arbitrarily.
	if cfg.APIKey == "" {
		cfg.CompletionBackend = BackendStub
		cfg.RetrievalBackend = BackendStub
	}
	if cfg.RetrievalBackend == BackendStub {
		cfg.EmbeddingDim = 256
	}

	return cfg
}

// Validate checks that the configuration has usable values
func (c *Config) Validate() error {
	if c.DatabaseURL == "" {
		return fmt.Errorf("config error: DATABASE_URL is required")
	}
	if c.CompletionBackend != BackendLive && c.CompletionBackend != BackendStub {
		return fmt.Errorf("config error: completion backend must be %q or %q", BackendLive, BackendStub)
	}
	if c.RetrievalBackend != BackendLive && c.RetrievalBackend != BackendStub {
		return fmt.Errorf("config error: retrieval backend must be %q or %q", BackendLive, BackendStub)
	}
	if c.CompletionBackend == BackendLive && c.APIKey == "" {
		return fmt.Errorf("config error: GEMINI_API_KEY is required for the live completion backend")
	}
	if c.MaxFollowUps < 0 {
		return fmt.Errorf("config error: max follow-ups must be non-negative")
	}
	if c.TopK <= 0 {
		return fmt.Errorf("config error: top-k must be positive")
	}
	if c.PollInterval <= 0 {
		return fmt.Errorf("config error: poll interval must be positive")
	}
	if c.DesignRound < 1 || c.ResilienceRound < c.DesignRound {
		return fmt.Errorf("config error: round thresholds must satisfy 1 <= design <= resilience")
	}
	return nil
}
