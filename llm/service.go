package llm

import (
	"context"
)

// Service defines the interface for text-generation operations.
// The gateway is an untyped text channel: callers must validate every
// response against their own output contract before trusting its shape.
type Service interface {
	// Generate sends a system instruction plus user content and returns the
	// raw text of the first completion choice
	Generate(ctx context.Context, req GenerateRequest) (string, error)

	// IsEnabled returns true if the LLM service is enabled
	IsEnabled() bool

	// GetProvider returns the configured provider name
	GetProvider() string

	// GetModel returns the configured default model name
	GetModel() string
}

// GenerateRequest represents one generation call
type GenerateRequest struct {
	// System is the task-specific system instruction
	System string

	// User is the task context passed as the user message
	User string

	// Model overrides the default model when set (e.g., the smaller
	// classifier model for intent extraction)
	Model string

	// Temperature controls randomness for this request (0.0 to 2.0)
	Temperature float64
}
