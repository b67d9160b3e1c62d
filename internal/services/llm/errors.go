package llm

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"google.golang.org/genai"
)

// AnalysisCause classifies why an analysis call produced no usable text
type AnalysisCause string

const (
	CauseMissingCredentials AnalysisCause = "missing_credentials"
	CauseTransport          AnalysisCause = "transport"
	CauseQuota              AnalysisCause = "quota"
	CauseMalformedResponse  AnalysisCause = "malformed_response"
	CauseEmptyResponse      AnalysisCause = "empty_response"
)

// ErrMissingCredentials is returned by providers asked to call out without an API key
var ErrMissingCredentials = errors.New("API key not configured")

// AnalysisError is the single failure type returned by Analyzer.Analyze
type AnalysisError struct {
	Cause   AnalysisCause
	Backend string
	Err     error
}

func (e *AnalysisError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s analysis failed (%s): %v", e.Backend, e.Cause, e.Err)
	}
	return fmt.Sprintf("%s analysis failed (%s)", e.Backend, e.Cause)
}

func (e *AnalysisError) Unwrap() error {
	return e.Err
}

// IsRateLimitError reports whether err is a rate limit or quota rejection
// from either backend, judged by the SDK error's status rather than its text.
func IsRateLimitError(err error) bool {
	if err == nil {
		return false
	}

	var claudeErr *anthropic.Error
	if errors.As(err, &claudeErr) && claudeErr.StatusCode == http.StatusTooManyRequests {
		return true
	}

	var geminiErr genai.APIError
	if errors.As(err, &geminiErr) {
		return isGeminiQuota(geminiErr)
	}
	var geminiErrPtr *genai.APIError
	if errors.As(err, &geminiErrPtr) && geminiErrPtr != nil {
		return isGeminiQuota(*geminiErrPtr)
	}

	// Status-only errors from transports that drop the structured body
	return strings.Contains(err.Error(), "RESOURCE_EXHAUSTED")
}

func isGeminiQuota(e genai.APIError) bool {
	return e.Code == http.StatusTooManyRequests || e.Status == "RESOURCE_EXHAUSTED"
}

// classifyCallError maps a provider error onto an analysis cause
func classifyCallError(err error) AnalysisCause {
	switch {
	case errors.Is(err, ErrMissingCredentials):
		return CauseMissingCredentials
	case IsRateLimitError(err):
		return CauseQuota
	default:
		return CauseTransport
	}
}
