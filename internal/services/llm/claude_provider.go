package llm

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/casebot/internal/common"
)

// ClaudeProvider generates content with the Anthropic Messages API
type ClaudeProvider struct {
	config *common.ClaudeConfig
	apiKey string
	logger arbor.ILogger

	mu     sync.Mutex
	client *anthropic.Client
}

var _ Provider = (*ClaudeProvider)(nil)

// NewClaudeProvider creates a Claude provider
func NewClaudeProvider(config *common.ClaudeConfig, logger arbor.ILogger) *ClaudeProvider {
	apiKey, err := common.ResolveAPIKey("anthropic_api_key", config.APIKey)
	if err != nil {
		logger.Warn().Msg("Anthropic API key not configured - analysis requests will be rejected")
	}
	return &ClaudeProvider{
		config: config,
		apiKey: apiKey,
		logger: logger,
	}
}

func (p *ClaudeProvider) GetProviderType() ProviderType { return ProviderClaude }

func (p *ClaudeProvider) Configured() bool { return p.apiKey != "" }

func (p *ClaudeProvider) getClient() (*anthropic.Client, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.client != nil {
		return p.client, nil
	}
	if p.apiKey == "" {
		return nil, ErrMissingCredentials
	}

	client := anthropic.NewClient(option.WithAPIKey(p.apiKey))
	p.client = &client
	return p.client, nil
}

// GenerateContent makes a single Messages.New call
func (p *ClaudeProvider) GenerateContent(ctx context.Context, request *ContentRequest) (*ContentResponse, error) {
	client, err := p.getClient()
	if err != nil {
		return nil, err
	}

	model := request.Model
	if model == "" {
		model = p.config.Model
	}
	maxTokens := request.MaxTokens
	if maxTokens <= 0 {
		maxTokens = p.config.MaxTokens
	}

	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(model),
		MaxTokens: int64(maxTokens),
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(request.Prompt)),
		},
	}

	temp := request.Temperature
	if temp <= 0 {
		temp = p.config.Temperature
	}
	if temp > 0 {
		params.Temperature = anthropic.Float(float64(temp))
	}
	if request.SystemInstruction != "" {
		params.System = []anthropic.TextBlockParam{
			{Text: request.SystemInstruction},
		}
	}

	resp, err := client.Messages.New(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("Claude API call failed: %w", err)
	}

	out := &ContentResponse{Provider: ProviderClaude, Model: model}
	if resp == nil {
		return out, nil
	}
	if string(resp.StopReason) == "refusal" {
		out.Blocked = true
		out.BlockReason = "refusal"
		return out, nil
	}

	var text strings.Builder
	for _, block := range resp.Content {
		if block.Type == "text" {
			text.WriteString(block.Text)
		}
	}
	out.Text = text.String()
	return out, nil
}

// Close drops the cached client
func (p *ClaudeProvider) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.client = nil
	return nil
}
