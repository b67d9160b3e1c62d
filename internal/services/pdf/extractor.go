// -----------------------------------------------------------------------
// PDF Extractor - plain text from uploaded case documents.
// pdfcpu validates structure, ledongthuc/pdf decodes page text.
// -----------------------------------------------------------------------

package pdf

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	ledongthuc "github.com/ledongthuc/pdf"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/casebot/internal/interfaces"
	"github.com/ternarybob/casebot/internal/models"
)

// document is the minimal view of an opened PDF the extractor needs
type document interface {
	PageCount() int
	Encrypted() bool
	// PageText returns the plain text of a 1-indexed page
	PageText(page int) (string, error)
	Close() error
}

type opener func(path string) (document, error)

// Extractor implements the PDFExtractor interface
type Extractor struct {
	logger arbor.ILogger
	open   opener
}

// Compile-time interface assertion
var _ interfaces.PDFExtractor = (*Extractor)(nil)

// NewExtractor creates a new PDF extractor service
func NewExtractor(logger arbor.ILogger) *Extractor {
	return &Extractor{
		logger: logger,
		open:   openDocument,
	}
}

// Extract reads every page of the PDF at path and returns the joined text.
// Pages without text contribute nothing; an empty result is not an error.
func (e *Extractor) Extract(ctx context.Context, path string) (content *models.ExtractedContent, err error) {
	if _, statErr := os.Stat(path); statErr != nil {
		return nil, &ExtractionError{Reason: ReasonNotFound, Path: path, Err: statErr}
	}

	// ledongthuc/pdf panics on some malformed streams
	defer func() {
		if r := recover(); r != nil {
			e.logger.Warn().Str("path", path).Str("panic", fmt.Sprint(r)).Msg("PDF parser panicked")
			content = nil
			err = &ExtractionError{Reason: ReasonEncryptedOrCorrupt, Path: path, Err: fmt.Errorf("parser panic: %v", r)}
		}
	}()

	doc, openErr := e.open(path)
	if openErr != nil {
		return nil, &ExtractionError{Reason: ReasonEncryptedOrCorrupt, Path: path, Err: openErr}
	}
	defer doc.Close()

	if doc.Encrypted() {
		return nil, &ExtractionError{Reason: ReasonEncryptedOrCorrupt, Path: path, Err: errors.New("document is encrypted")}
	}

	pageCount := doc.PageCount()
	if pageCount <= 0 {
		return nil, &ExtractionError{Reason: ReasonNoPages, Path: path}
	}

	var (
		parts     []string
		failures  int
		lastError error
	)
	for page := 1; page <= pageCount; page++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		text, pageErr := doc.PageText(page)
		if pageErr != nil {
			failures++
			lastError = pageErr
			e.logger.Debug().Err(pageErr).Int("page", page).Msg("Failed to decode page text")
			continue
		}
		if text == "" {
			continue
		}
		parts = append(parts, text)
	}

	if failures == pageCount {
		return nil, &ExtractionError{Reason: ReasonUnreadable, Path: path, Err: lastError}
	}

	content = &models.ExtractedContent{
		Text:      strings.TrimSpace(strings.Join(parts, "\n")),
		PageCount: pageCount,
	}

	e.logger.Debug().
		Int("page_count", pageCount).
		Int("failed_pages", failures).
		Int("text_len", len(content.Text)).
		Msg("Extracted PDF text")

	return content, nil
}

// pdfDocument pairs the pdfcpu structural view with the ledongthuc text reader
type pdfDocument struct {
	pageCount int
	encrypted bool
	file      *os.File
	reader    *ledongthuc.Reader
}

func openDocument(path string) (document, error) {
	pdfCtx, err := api.ReadContextFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read PDF context: %w", err)
	}

	doc := &pdfDocument{
		pageCount: pdfCtx.PageCount,
		encrypted: pdfCtx.Encrypt != nil,
	}
	if doc.encrypted || doc.pageCount == 0 {
		return doc, nil
	}

	f, r, err := ledongthuc.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open PDF for text extraction: %w", err)
	}
	doc.file = f
	doc.reader = r
	return doc, nil
}

func (d *pdfDocument) PageCount() int  { return d.pageCount }
func (d *pdfDocument) Encrypted() bool { return d.encrypted }

func (d *pdfDocument) PageText(page int) (string, error) {
	if d.reader == nil || page > d.reader.NumPage() {
		return "", nil
	}
	p := d.reader.Page(page)
	if p.V.IsNull() {
		return "", nil
	}
	text, err := p.GetPlainText(nil)
	if err != nil {
		return "", fmt.Errorf("page %d: %w", page, err)
	}
	return strings.TrimSpace(text), nil
}

func (d *pdfDocument) Close() error {
	if d.file == nil {
		return nil
	}
	return d.file.Close()
}
