// Package llm abstracts the completion providers the assistant can run on.
// The server picks one implementation at startup (ASSISTANT_PROVIDER); both
// stream their output so the HTTP handler can flush chunks as they arrive.
package llm

import (
	"context"
	"fmt"

	"folio-backend/internal/models"
)

// Provider streams a completion for one assistant turn. Chunks are delivered
// in order via onChunk; returning an error from onChunk aborts the stream.
type Provider interface {
	Stream(ctx context.Context, systemPrompt string, history []models.ChatMessage, message string, onChunk func(string) error) error
	Name() string
	Close() error
}

// New builds the configured provider.
func New(provider, geminiKey, openaiKey string) (Provider, error) {
	switch provider {
	case "gemini":
		if geminiKey == "" {
			return nil, fmt.Errorf("GEMINI_API_KEY is required for the gemini provider")
		}
		return NewGemini(geminiKey)
	case "openai":
		if openaiKey == "" {
			return nil, fmt.Errorf("OPENAI_API_KEY is required for the openai provider")
		}
		return NewOpenAI(openaiKey), nil
	default:
		return nil, fmt.Errorf("unknown assistant provider %q", provider)
	}
}
