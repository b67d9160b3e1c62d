package pipeline

import (
	"errors"
	"fmt"

	"github.com/ternarybob/casebot/internal/models"
	"github.com/ternarybob/casebot/internal/services/content"
	"github.com/ternarybob/casebot/internal/services/llm"
	"github.com/ternarybob/casebot/internal/services/pdf"
)

// UploadRejection is the reason an upload was refused at intake
type UploadRejection string

const (
	RejectNotPDF   UploadRejection = "not_pdf"
	RejectTooLarge UploadRejection = "too_large"
	RejectInvalid  UploadRejection = "invalid"
	RejectFetch    UploadRejection = "fetch_failed"
)

// UploadRejected is returned for uploads refused before or during transfer
type UploadRejected struct {
	Reason  UploadRejection
	Message string
	Err     error
}

func (e *UploadRejected) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("upload rejected (%s): %s: %v", e.Reason, e.Message, e.Err)
	}
	return fmt.Sprintf("upload rejected (%s): %s", e.Reason, e.Message)
}

func (e *UploadRejected) Unwrap() error {
	return e.Err
}

// DeliveryError wraps a failure to hand the report back to the user
type DeliveryError struct {
	Err error
}

func (e *DeliveryError) Error() string {
	return fmt.Sprintf("report delivery failed: %v", e.Err)
}

func (e *DeliveryError) Unwrap() error {
	return e.Err
}

// reportStoreError wraps a failure to write the rendered report to the reports directory
type reportStoreError struct {
	Err error
}

func (e *reportStoreError) Error() string {
	return fmt.Sprintf("failed to store report: %v", e.Err)
}

func (e *reportStoreError) Unwrap() error {
	return e.Err
}

// Failure is the user-facing classification of a pipeline error
type Failure struct {
	Category models.FailureCategory
	// Reason is a short machine-readable code recorded on the submission
	Reason string
	// Detail is safe to show to the user; empty selects the category default
	Detail string
	// Backend names the analysis backend for AI service failures
	Backend string
}

var extractionDetails = map[pdf.ExtractionReason]string{
	pdf.ReasonNotFound:           "The uploaded file could not be found for processing.",
	pdf.ReasonEncryptedOrCorrupt: "The PDF appears to be encrypted or damaged.",
	pdf.ReasonNoPages:            "The PDF contains no pages.",
	pdf.ReasonUnreadable:         "The text in the PDF could not be read.",
}

// Classify maps any error to exactly one failure category. Unknown errors fall
// into the unexpected category and carry no detail.
func Classify(err error) Failure {
	var (
		uploadErr     *UploadRejected
		extractionErr *pdf.ExtractionError
		analysisErr   *llm.AnalysisError
		renderErr     *pdf.RenderError
		storeErr      *reportStoreError
		deliveryErr   *DeliveryError
	)

	switch {
	case err == nil:
		return Failure{Category: models.CategoryUnexpectedError, Reason: "unknown"}
	case errors.As(err, &uploadErr):
		return Failure{
			Category: models.CategoryUploadError,
			Reason:   string(uploadErr.Reason),
			Detail:   uploadErr.Message,
		}
	case errors.As(err, &extractionErr):
		return Failure{
			Category: models.CategoryProcessingError,
			Reason:   string(extractionErr.Reason),
			Detail:   extractionDetails[extractionErr.Reason],
		}
	case errors.Is(err, content.ErrInsufficientContent):
		return Failure{
			Category: models.CategoryProcessingError,
			Reason:   "insufficient",
			Detail:   "The document contains too little text to analyse. It may contain only images.",
		}
	case errors.As(err, &analysisErr):
		return Failure{
			Category: models.CategoryAIServiceError,
			Reason:   string(analysisErr.Cause),
			Backend:  analysisErr.Backend,
		}
	case errors.As(err, &renderErr):
		return Failure{Category: models.CategoryReportError, Reason: "render_failed"}
	case errors.As(err, &storeErr):
		return Failure{Category: models.CategoryReportError, Reason: "store_failed"}
	case errors.As(err, &deliveryErr):
		return Failure{Category: models.CategoryDeliveryError, Reason: "send_failed"}
	default:
		return Failure{Category: models.CategoryUnexpectedError, Reason: "internal"}
	}
}
