package content

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/abadojack/whatlanggo"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/casebot/internal/interfaces"
)

// ErrInsufficientContent is returned when extracted text is below the minimum length
var ErrInsufficientContent = errors.New("insufficient text content")

// Detector guesses the language of text. ok is false when the guess is not trustworthy.
type Detector func(text string) (code string, ok bool)

// Sufficient reports whether text has at least minLength characters
func Sufficient(text string, minLength int) bool {
	return utf8.RuneCountInString(text) >= minLength
}

// WhatlangDetector detects language with whatlanggo and returns ISO 639-1 codes
func WhatlangDetector(text string) (string, bool) {
	info := whatlanggo.Detect(text)
	if !info.IsReliable() {
		return "", false
	}
	code := info.Lang.Iso6391()
	if code == "" {
		return "", false
	}
	return code, true
}

// DetectLanguage returns the detected language code, or fallback when the text
// is blank or the detector is unsure. The detector is not called for blank text.
func DetectLanguage(text, fallback string, detect Detector) string {
	if strings.TrimSpace(text) == "" {
		return fallback
	}
	if detect == nil {
		detect = WhatlangDetector
	}
	code, ok := detect(text)
	if !ok || code == "" {
		return fallback
	}
	return code
}

// Validator applies the configured sufficiency threshold and language fallback
type Validator struct {
	minLength       int
	defaultLanguage string
	detect          Detector
	logger          arbor.ILogger
}

var _ interfaces.ContentValidator = (*Validator)(nil)

// NewValidator creates a content validator
func NewValidator(minLength int, defaultLanguage string, logger arbor.ILogger) *Validator {
	return &Validator{
		minLength:       minLength,
		defaultLanguage: defaultLanguage,
		detect:          WhatlangDetector,
		logger:          logger,
	}
}

// Validate checks sufficiency and returns the advisory language
func (v *Validator) Validate(text string) (string, error) {
	length := utf8.RuneCountInString(text)
	if !Sufficient(text, v.minLength) {
		return "", fmt.Errorf("%w: %d characters, minimum %d", ErrInsufficientContent, length, v.minLength)
	}

	lang := DetectLanguage(text, v.defaultLanguage, v.detect)
	v.logger.Debug().
		Int("text_len", length).
		Str("language", lang).
		Msg("Content validated")

	return lang, nil
}
