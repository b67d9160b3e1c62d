package interfaces

// ContentValidator decides whether extracted text is worth analysing
type ContentValidator interface {
	// Validate returns the advisory language code, or an error when the text is insufficient
	Validate(text string) (string, error)
}
