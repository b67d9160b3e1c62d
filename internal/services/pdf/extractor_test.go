package pdf

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"
)

type fakeDocument struct {
	pages     int
	encrypted bool
	texts     map[int]string
	errs      map[int]error
	panicOn   int
	closed    bool
}

func (f *fakeDocument) PageCount() int  { return f.pages }
func (f *fakeDocument) Encrypted() bool { return f.encrypted }
func (f *fakeDocument) Close() error    { f.closed = true; return nil }

func (f *fakeDocument) PageText(page int) (string, error) {
	if page == f.panicOn {
		panic("malformed stream")
	}
	if err := f.errs[page]; err != nil {
		return "", err
	}
	return f.texts[page], nil
}

func extractorWith(doc *fakeDocument) *Extractor {
	e := NewExtractor(arbor.NewLogger())
	e.open = func(path string) (document, error) { return doc, nil }
	return e
}

func requireReason(t *testing.T, err error, want ExtractionReason) {
	t.Helper()
	var extractionErr *ExtractionError
	require.True(t, errors.As(err, &extractionErr), "expected ExtractionError, got %v", err)
	assert.Equal(t, want, extractionErr.Reason)
}

func TestExtract_TextPDF(t *testing.T) {
	path := writeTextPDF(t, t.TempDir(), "Hello court", "Second page testimony")
	e := NewExtractor(arbor.NewLogger())

	content, err := e.Extract(context.Background(), path)
	require.NoError(t, err)

	assert.Equal(t, 2, content.PageCount)
	assert.Contains(t, content.Text, "Hello")
	assert.Contains(t, content.Text, "testimony")
	assert.Equal(t, strings.TrimSpace(content.Text), content.Text)
}

func TestExtract_PageWithoutTextIsNotAnError(t *testing.T) {
	path := writeTextPDF(t, t.TempDir(), "")
	e := NewExtractor(arbor.NewLogger())

	content, err := e.Extract(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, 1, content.PageCount)
	assert.Empty(t, content.Text)
}

func TestExtract_MissingFile(t *testing.T) {
	e := NewExtractor(arbor.NewLogger())
	_, err := e.Extract(context.Background(), filepath.Join(t.TempDir(), "missing.pdf"))
	requireReason(t, err, ReasonNotFound)
}

func TestExtract_CorruptFile(t *testing.T) {
	dir := t.TempDir()
	e := NewExtractor(arbor.NewLogger())

	for name, data := range map[string][]byte{
		"garbage.pdf": []byte("this is not a pdf at all"),
		"header.pdf":  []byte("%PDF-1.4\n1 0 obj\n<< /Type /Catalog"),
		"empty.pdf":   {},
	} {
		t.Run(name, func(t *testing.T) {
			_, err := e.Extract(context.Background(), writeRawFile(t, dir, name, data))
			requireReason(t, err, ReasonEncryptedOrCorrupt)
		})
	}
}

func TestExtract_EncryptedFile(t *testing.T) {
	path := writeEncryptedPDF(t, t.TempDir())
	e := NewExtractor(arbor.NewLogger())

	_, err := e.Extract(context.Background(), path)
	requireReason(t, err, ReasonEncryptedOrCorrupt)
}

func TestExtract_ZeroPages(t *testing.T) {
	path := writeRawFile(t, t.TempDir(), "zero.pdf", []byte("%PDF-1.4"))
	doc := &fakeDocument{pages: 0}

	_, err := extractorWith(doc).Extract(context.Background(), path)
	requireReason(t, err, ReasonNoPages)
	assert.True(t, doc.closed)
}

func TestExtract_EncryptedFlagFromDocument(t *testing.T) {
	path := writeRawFile(t, t.TempDir(), "enc.pdf", []byte("%PDF-1.4"))

	_, err := extractorWith(&fakeDocument{pages: 3, encrypted: true}).Extract(context.Background(), path)
	requireReason(t, err, ReasonEncryptedOrCorrupt)
}

func TestExtract_PartialPageFailuresAreSkipped(t *testing.T) {
	path := writeRawFile(t, t.TempDir(), "partial.pdf", []byte("%PDF-1.4"))
	doc := &fakeDocument{
		pages: 3,
		texts: map[int]string{1: "first", 3: "third"},
		errs:  map[int]error{2: errors.New("bad font")},
	}

	content, err := extractorWith(doc).Extract(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, "first\nthird", content.Text)
	assert.Equal(t, 3, content.PageCount)
}

func TestExtract_AllPagesFailing(t *testing.T) {
	path := writeRawFile(t, t.TempDir(), "unreadable.pdf", []byte("%PDF-1.4"))
	cause := errors.New("unsupported encoding")
	doc := &fakeDocument{pages: 2, errs: map[int]error{1: cause, 2: cause}}

	_, err := extractorWith(doc).Extract(context.Background(), path)
	requireReason(t, err, ReasonUnreadable)
	assert.ErrorIs(t, err, cause)
}

func TestExtract_ParserPanicIsRecovered(t *testing.T) {
	path := writeRawFile(t, t.TempDir(), "panic.pdf", []byte("%PDF-1.4"))
	doc := &fakeDocument{pages: 2, panicOn: 2, texts: map[int]string{1: "ok"}}

	content, err := extractorWith(doc).Extract(context.Background(), path)
	assert.Nil(t, content)
	requireReason(t, err, ReasonEncryptedOrCorrupt)
}

func TestExtract_JoinsAndTrims(t *testing.T) {
	path := writeRawFile(t, t.TempDir(), "join.pdf", []byte("%PDF-1.4"))
	doc := &fakeDocument{pages: 3, texts: map[int]string{1: "  alpha", 2: "", 3: "beta  "}}

	content, err := extractorWith(doc).Extract(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, "alpha\nbeta", content.Text)
}

func TestExtract_CancelledContext(t *testing.T) {
	path := writeRawFile(t, t.TempDir(), "cancel.pdf", []byte("%PDF-1.4"))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := extractorWith(&fakeDocument{pages: 1}).Extract(ctx, path)
	assert.ErrorIs(t, err, context.Canceled)
}
