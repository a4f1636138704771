// Package llm wraps the external generative-language classifier endpoint.
//
// The adapter's contract is deliberately thin: prompt in, raw text out,
// best-effort. Failures and empty responses propagate to the caller; no
// retries happen at this layer.
package llm

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// Client defines the interface for classifier providers.
type Client interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// Config holds configuration for the classifier client.
type Config struct {
	Provider    string
	APIKey      string
	Model       string
	BaseURL     string
	Temperature float64
	MaxTokens   int
}

// NewClient creates a classifier client based on the provided configuration.
func NewClient(cfg Config) (Client, error) {
	switch strings.ToLower(cfg.Provider) {
	case "gemini", "":
		return newGeminiClient(cfg)
	case "openai":
		return newOpenAIClient(cfg)
	default:
		return nil, fmt.Errorf("unsupported classifier provider: %s", cfg.Provider)
	}
}

// defaultTimeout bounds a single classifier round trip.
const defaultTimeout = 30 * time.Second
