package llm

import (
	"context"
	"fmt"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/casebot/internal/common"
)

// ProviderType represents the AI provider type
type ProviderType string

const (
	// ProviderGemini uses Google Gemini API
	ProviderGemini ProviderType = "gemini"
	// ProviderClaude uses Anthropic Claude API
	ProviderClaude ProviderType = "claude"
)

// DisplayName is the backend name shown to users
func (p ProviderType) DisplayName() string {
	switch p {
	case ProviderGemini:
		return "Gemini"
	case ProviderClaude:
		return "Claude"
	default:
		return string(p)
	}
}

// ContentRequest represents a provider-agnostic content generation request
type ContentRequest struct {
	Prompt            string
	SystemInstruction string
	Model             string
	Temperature       float32
	MaxTokens         int
	// SectionsSchema asks providers that support it to return the four report
	// sections as a JSON object
	SectionsSchema bool
}

// ContentResponse represents a provider-agnostic content generation response
type ContentResponse struct {
	Text     string
	Provider ProviderType
	Model    string
	// Blocked is set when the backend withheld output for safety reasons
	Blocked     bool
	BlockReason string
}

// Provider defines the interface for AI content generation
type Provider interface {
	GetProviderType() ProviderType
	// Configured reports whether an API key is available; no network call is made
	Configured() bool
	GenerateContent(ctx context.Context, request *ContentRequest) (*ContentResponse, error)
	Close() error
}

// NewProvider creates the provider selected by llm.default_provider
func NewProvider(config *common.Config, logger arbor.ILogger) (Provider, error) {
	switch ProviderType(config.LLM.DefaultProvider) {
	case ProviderGemini:
		return NewGeminiProvider(&config.Gemini, logger), nil
	case ProviderClaude:
		return NewClaudeProvider(&config.Claude, logger), nil
	default:
		return nil, fmt.Errorf("unsupported LLM provider: %s", config.LLM.DefaultProvider)
	}
}
