package llm

import (
	"context"
	"fmt"
	"sync"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/casebot/internal/common"
	"google.golang.org/genai"
)

// GeminiProvider generates content with the Google Gemini API
type GeminiProvider struct {
	config *common.GeminiConfig
	apiKey string
	logger arbor.ILogger

	mu     sync.Mutex
	client *genai.Client
}

var _ Provider = (*GeminiProvider)(nil)

// NewGeminiProvider creates a Gemini provider. The API key is resolved from the
// environment first, then from config; the client is created on first use.
func NewGeminiProvider(config *common.GeminiConfig, logger arbor.ILogger) *GeminiProvider {
	apiKey, err := common.ResolveAPIKey("gemini_api_key", config.APIKey)
	if err != nil {
		logger.Warn().Msg("Gemini API key not configured - analysis requests will be rejected")
	}
	return &GeminiProvider{
		config: config,
		apiKey: apiKey,
		logger: logger,
	}
}

func (p *GeminiProvider) GetProviderType() ProviderType { return ProviderGemini }

func (p *GeminiProvider) Configured() bool { return p.apiKey != "" }

func (p *GeminiProvider) getClient(ctx context.Context) (*genai.Client, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.client != nil {
		return p.client, nil
	}
	if p.apiKey == "" {
		return nil, ErrMissingCredentials
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  p.apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}
	p.client = client
	return client, nil
}

// GenerateContent makes a single GenerateContent call
func (p *GeminiProvider) GenerateContent(ctx context.Context, request *ContentRequest) (*ContentResponse, error) {
	client, err := p.getClient(ctx)
	if err != nil {
		return nil, err
	}

	model := request.Model
	if model == "" {
		model = p.config.Model
	}
	temp := request.Temperature
	if temp <= 0 {
		temp = p.config.Temperature
	}

	config := &genai.GenerateContentConfig{
		Temperature: genai.Ptr(temp),
	}
	if request.SystemInstruction != "" {
		config.SystemInstruction = genai.NewContentFromText(request.SystemInstruction, genai.RoleUser)
	}
	if request.SectionsSchema {
		config.ResponseMIMEType = "application/json"
		config.ResponseSchema = sectionsSchema()
	}

	contents := []*genai.Content{genai.NewContentFromText(request.Prompt, genai.RoleUser)}

	resp, err := client.Models.GenerateContent(ctx, model, contents, config)
	if err != nil {
		return nil, fmt.Errorf("Gemini API call failed: %w", err)
	}

	out := &ContentResponse{Provider: ProviderGemini, Model: model}
	if resp == nil {
		return out, nil
	}
	if resp.PromptFeedback != nil && resp.PromptFeedback.BlockReason != "" {
		out.Blocked = true
		out.BlockReason = string(resp.PromptFeedback.BlockReason)
		return out, nil
	}
	if len(resp.Candidates) > 0 && resp.Candidates[0].FinishReason == genai.FinishReasonSafety {
		out.Blocked = true
		out.BlockReason = string(genai.FinishReasonSafety)
		return out, nil
	}

	out.Text = resp.Text()
	return out, nil
}

// Close drops the cached client
func (p *GeminiProvider) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.client = nil
	return nil
}

// sectionsSchema describes the JSON object the analysis prompt asks for
func sectionsSchema() *genai.Schema {
	list := func(desc string) *genai.Schema {
		return &genai.Schema{
			Type:        genai.TypeArray,
			Description: desc,
			Items:       &genai.Schema{Type: genai.TypeString},
		}
	}
	return &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"summary":         {Type: genai.TypeString, Description: "Brief factual summary of the document"},
			"arguments":       list("Key arguments made in the document"),
			"inconsistencies": list("Potential inconsistencies or contradictions"),
			"recommendations": list("Recommended next steps"),
		},
		Required: []string{"summary", "arguments", "inconsistencies", "recommendations"},
	}
}
