package models

// ExtractedContent is the plain text recovered from a PDF.
// Text may be empty; PageCount is at least 1.
type ExtractedContent struct {
	Text      string `json:"text"`
	PageCount int    `json:"page_count"`
}
