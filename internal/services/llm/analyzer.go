package llm

import (
	"context"
	"strings"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/casebot/internal/interfaces"
	"github.com/ternarybob/casebot/internal/models"
)

// Analyzer sends document text to one provider and returns the raw analysis.
// One attempt per call; callers own any retry policy.
type Analyzer struct {
	provider Provider
	prompt   *PromptTemplate
	timeout  time.Duration
	logger   arbor.ILogger
}

var (
	_ interfaces.AnalysisService = (*Analyzer)(nil)
	_ interfaces.SectionParser   = (*Analyzer)(nil)
)

// NewAnalyzer creates an analyzer. A zero timeout leaves the caller's deadline in charge.
func NewAnalyzer(provider Provider, prompt *PromptTemplate, timeout time.Duration, logger arbor.ILogger) *Analyzer {
	if prompt == nil {
		prompt, _ = NewPromptTemplate(DefaultPromptTemplate)
	}
	return &Analyzer{
		provider: provider,
		prompt:   prompt,
		timeout:  timeout,
		logger:   logger,
	}
}

// Backend names the provider for user-facing messages
func (a *Analyzer) Backend() string {
	return a.provider.GetProviderType().DisplayName()
}

// Analyze performs the analysis call. Every failure is an *AnalysisError.
func (a *Analyzer) Analyze(ctx context.Context, text string) (*models.AnalysisResult, error) {
	backend := a.Backend()

	if !a.provider.Configured() {
		return nil, &AnalysisError{Cause: CauseMissingCredentials, Backend: backend, Err: ErrMissingCredentials}
	}

	if a.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, a.timeout)
		defer cancel()
	}

	a.logger.Info().
		Str("backend", backend).
		Int("text_len", len(text)).
		Msg("Sending document for analysis")

	start := time.Now()
	resp, err := a.provider.GenerateContent(ctx, &ContentRequest{
		Prompt:            a.prompt.Render(text),
		SystemInstruction: SystemInstruction,
		SectionsSchema:    true,
	})
	elapsed := time.Since(start)

	if err != nil {
		cause := classifyCallError(err)
		a.logger.Error().
			Err(err).
			Str("backend", backend).
			Str("cause", string(cause)).
			Int64("elapsed_ms", elapsed.Milliseconds()).
			Msg("Analysis call failed")
		return nil, &AnalysisError{Cause: cause, Backend: backend, Err: err}
	}

	if resp == nil {
		return nil, &AnalysisError{Cause: CauseMalformedResponse, Backend: backend}
	}
	if resp.Blocked {
		a.logger.Warn().
			Str("backend", backend).
			Str("block_reason", resp.BlockReason).
			Msg("Analysis blocked by backend")
		return nil, &AnalysisError{Cause: CauseEmptyResponse, Backend: backend}
	}
	if strings.TrimSpace(resp.Text) == "" {
		return nil, &AnalysisError{Cause: CauseEmptyResponse, Backend: backend}
	}

	a.logger.Info().
		Str("backend", backend).
		Str("model", resp.Model).
		Int("result_len", len(resp.Text)).
		Int64("elapsed_ms", elapsed.Milliseconds()).
		Msg("Analysis received")

	return &models.AnalysisResult{
		Text:     resp.Text,
		Backend:  backend,
		Model:    resp.Model,
		Duration: elapsed,
	}, nil
}

// ParseSections splits raw analysis text into report sections
func (a *Analyzer) ParseSections(raw string) models.ReportSections {
	return ParseSections(raw)
}
