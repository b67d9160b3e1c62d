package interfaces

import (
	"context"

	"github.com/ternarybob/casebot/internal/models"
)

// PDFExtractor turns a PDF on local disk into plain text.
// Structural failures are reported as typed errors from the implementation.
type PDFExtractor interface {
	Extract(ctx context.Context, path string) (*models.ExtractedContent, error)
}
