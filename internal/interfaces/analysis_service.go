package interfaces

import (
	"context"

	"github.com/ternarybob/casebot/internal/models"
)

// AnalysisService sends document text to the configured model backend.
// One call per document, no retry.
type AnalysisService interface {
	Analyze(ctx context.Context, text string) (*models.AnalysisResult, error)

	// Backend names the provider used, for user-facing error messages
	Backend() string
}

// SectionParser splits raw analysis text into report sections
type SectionParser interface {
	ParseSections(raw string) models.ReportSections
}
