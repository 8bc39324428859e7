package llm

import (
	"context"
	"fmt"
	"strings"
)

// DefaultMaxTokens is the completion token budget used for every call
const DefaultMaxTokens = 1000

// Image is an inline image attached to a completion request
type Image struct {
	Base64   string // payload without the data: prefix
	MIMEType string
}

// Request is a single-shot chat completion: an optional system prompt and
// one user turn, optionally carrying an image
type Request struct {
	System string
	Prompt string
	Image  *Image
}

// Model is a hosted chat-completion backend
type Model interface {
	// Name returns the provider name used in logs and errors
	Name() string
	// Ready reports whether the model is configured well enough to be called.
	// It never performs I/O.
	Ready() error
	// Complete sends the request and returns the text of the first choice
	Complete(ctx context.Context, req Request) (string, error)
	// Close releases the underlying client
	Close() error
}

// MissingKeyError is returned when a provider that needs an API key has none
type MissingKeyError struct {
	Provider string
}

func (e *MissingKeyError) Error() string {
	return e.Provider + " API Key is missing"
}

// Config selects and configures a provider
type Config struct {
	Provider  string
	APIKey    string
	BaseURL   string
	Model     string
	MaxTokens int
}

// New creates a Model for the configured provider
func New(cfg Config) (Model, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Provider)) {
	case "", "fastrouter":
		return NewFastRouter(cfg), nil
	case "gemini":
		return NewGemini(cfg)
	case "ollama":
		return NewOllama(cfg), nil
	default:
		return nil, fmt.Errorf("unsupported provider: %s", cfg.Provider)
	}
}

func maxTokens(n int) int {
	if n <= 0 {
		return DefaultMaxTokens
	}
	return n
}
