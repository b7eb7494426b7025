// Package llm is the gateway to the language-model backend: plain chat
// invocation, validator-gated retry and helpers that pull structured content
// out of model text.
package llm

import (
	"context"

	"analytics-chat/internal/models"
)

type Request struct {
	Messages    []models.Message
	Temperature float64
	MaxTokens   int
}

// Backend is one chat-completion provider. Implementations wrap transport
// failures with ErrBackendUnavailable and non-success responses with
// ErrBackendError.
type Backend interface {
	Name() string
	Chat(ctx context.Context, req Request) (string, error)
}

// Embedder turns text into a fixed-length vector.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float64, error)
}

// HealthChecker is implemented by backends that can be probed cheaply.
type HealthChecker interface {
	Ping(ctx context.Context) error
}

// splitSystem separates system prompts from the conversational turns, for
// providers that take the system prompt out of band.
func splitSystem(messages []models.Message) (string, []models.Message) {
	var system string
	turns := make([]models.Message, 0, len(messages))
	for _, m := range messages {
		if m.Role == models.RoleSystem {
			if system != "" {
				system += "\n\n"
			}
			system += m.Content
			continue
		}
		turns = append(turns, m)
	}
	return system, turns
}
