package interfaces

import "github.com/ternarybob/casebot/internal/models"

// ReportRenderer produces the analysis report document
type ReportRenderer interface {
	// Render builds the report PDF. Missing sections render a placeholder.
	Render(caseID, originalFilename string, sections models.ReportSections) ([]byte, error)
}
