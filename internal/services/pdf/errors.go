package pdf

import "fmt"

// ExtractionReason classifies why text could not be extracted
type ExtractionReason string

const (
	ReasonNotFound           ExtractionReason = "not_found"
	ReasonEncryptedOrCorrupt ExtractionReason = "encrypted_or_corrupt"
	ReasonNoPages            ExtractionReason = "no_pages"
	ReasonUnreadable         ExtractionReason = "unreadable"
)

// ExtractionError is returned by Extractor.Extract for every structural failure
type ExtractionError struct {
	Reason ExtractionReason
	Path   string
	Err    error
}

func (e *ExtractionError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("pdf extraction failed (%s) for %s: %v", e.Reason, e.Path, e.Err)
	}
	return fmt.Sprintf("pdf extraction failed (%s) for %s", e.Reason, e.Path)
}

// Unwrap exposes the parser error for logging
func (e *ExtractionError) Unwrap() error {
	return e.Err
}

// RenderError wraps any failure while producing the report document
type RenderError struct {
	Err error
}

func (e *RenderError) Error() string {
	return fmt.Sprintf("report rendering failed: %v", e.Err)
}

func (e *RenderError) Unwrap() error {
	return e.Err
}
