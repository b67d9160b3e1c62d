package pipeline

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/go-pdf/fpdf"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/casebot/internal/common"
	"github.com/ternarybob/casebot/internal/interfaces"
	"github.com/ternarybob/casebot/internal/models"
	"github.com/ternarybob/casebot/internal/services/content"
	"github.com/ternarybob/casebot/internal/services/events"
	"github.com/ternarybob/casebot/internal/services/llm"
	"github.com/ternarybob/casebot/internal/services/notify"
	"github.com/ternarybob/casebot/internal/services/pdf"
)

const analysisJSON = `{
	"summary": "The hearing concerned a noise complaint against the defendant.",
	"arguments": ["The prosecution relies on a neighbour's statement"],
	"inconsistencies": ["The timeline of the call differs between witnesses"],
	"recommendations": ["Request the call log from the carrier"]
}`

var testimony = strings.Repeat("The witness stated that the defendant was present at the scene at nine o'clock. ", 4)

// MockAnalyzer is a mock implementation of interfaces.AnalysisService for testing
type MockAnalyzer struct {
	mock.Mock
}

func (m *MockAnalyzer) Analyze(ctx context.Context, text string) (*models.AnalysisResult, error) {
	args := m.Called(ctx, text)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.AnalysisResult), args.Error(1)
}

func (m *MockAnalyzer) Backend() string { return "Gemini" }

type parserFunc func(raw string) models.ReportSections

func (f parserFunc) ParseSections(raw string) models.ReportSections { return f(raw) }

type extractorFunc func(ctx context.Context, path string) (*models.ExtractedContent, error)

func (f extractorFunc) Extract(ctx context.Context, path string) (*models.ExtractedContent, error) {
	return f(ctx, path)
}

// recordingRenderer delegates to the real renderer and keeps the sections it was given
type recordingRenderer struct {
	inner    interfaces.ReportRenderer
	sections models.ReportSections
	err      error
}

func (r *recordingRenderer) Render(caseID, filename string, sections models.ReportSections) ([]byte, error) {
	r.sections = sections
	if r.err != nil {
		return nil, r.err
	}
	return r.inner.Render(caseID, filename, sections)
}

type sentDocument struct {
	filename string
	data     []byte
	caption  string
}

// recordingMessenger captures everything sent to the user
type recordingMessenger struct {
	mu        sync.Mutex
	texts     []string
	documents []sentDocument
	docErr    error
}

func (m *recordingMessenger) SendText(_ context.Context, _ string, text string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.texts = append(m.texts, text)
	return nil
}

func (m *recordingMessenger) SendDocument(_ context.Context, _ string, filename string, data []byte, caption string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.docErr != nil {
		return m.docErr
	}
	m.documents = append(m.documents, sentDocument{filename: filename, data: data, caption: caption})
	return nil
}

type harness struct {
	orchestrator *Orchestrator
	analyzer     *MockAnalyzer
	renderer     *recordingRenderer
	messenger    *recordingMessenger
	config       common.ProcessingConfig
}

func newHarness(t *testing.T, extractor interfaces.PDFExtractor) *harness {
	t.Helper()

	logger := arbor.NewLogger()
	root := t.TempDir()
	config := common.ProcessingConfig{
		MinTextLength:   50,
		MaxFileSizeMB:   1,
		DefaultLanguage: "en",
		TempDir:         filepath.Join(root, "temp"),
		ReportsDir:      filepath.Join(root, "reports"),
	}

	bus := events.NewService(logger)
	t.Cleanup(func() { bus.Close() })
	require.NoError(t, notify.NewNotifier(logger).Subscribe(bus))

	if extractor == nil {
		extractor = pdf.NewExtractor(logger)
	}
	analyzer := &MockAnalyzer{}
	renderer := &recordingRenderer{inner: pdf.NewRenderer(logger, "Political Case Analysis Report", "")}

	o := NewOrchestrator(
		extractor,
		content.NewValidator(config.MinTextLength, config.DefaultLanguage, logger),
		analyzer,
		parserFunc(llm.ParseSections),
		renderer,
		bus,
		config,
		logger,
	)
	o.newCaseID = func() string { return "case_test" }

	return &harness{
		orchestrator: o,
		analyzer:     analyzer,
		renderer:     renderer,
		messenger:    &recordingMessenger{},
		config:       config,
	}
}

func (h *harness) process(upload *models.Upload) *models.Submission {
	return h.orchestrator.Process(context.Background(), upload, h.messenger)
}

func (h *harness) assertWorkspaceRemoved(t *testing.T) {
	t.Helper()
	_, err := os.Stat(filepath.Join(h.config.TempDir, "case_test"))
	assert.True(t, os.IsNotExist(err), "case directory should be removed, stat err: %v", err)
}

func textPDF(t *testing.T, pages ...string) []byte {
	t.Helper()
	doc := fpdf.New("P", "mm", "A4", "")
	doc.SetFont("Helvetica", "", 12)
	for _, text := range pages {
		doc.AddPage()
		doc.MultiCell(0, 6, text, "", "L", false)
	}
	var buf bytes.Buffer
	require.NoError(t, doc.Output(&buf))
	return buf.Bytes()
}

func bytesUpload(filename string, data []byte) *models.Upload {
	return &models.Upload{
		UserID:   "user-42",
		Filename: filename,
		Size:     int64(len(data)),
		Source: models.FetcherFunc(func(_ context.Context, w io.Writer) (int64, error) {
			n, err := w.Write(data)
			return int64(n), err
		}),
	}
}

func TestProcess_ValidPDFIsDelivered(t *testing.T) {
	h := newHarness(t, nil)
	h.analyzer.On("Analyze", mock.Anything, mock.MatchedBy(func(text string) bool {
		return strings.Contains(text, "witness stated")
	})).Return(&models.AnalysisResult{Text: analysisJSON, Backend: "Gemini", Model: "gemini-2.5-flash"}, nil)

	sub := h.process(bytesUpload("hearing.pdf", textPDF(t, testimony, testimony)))

	require.Equal(t, models.StateDelivered, sub.State, "failure reason: %s", sub.FailureReason)
	assert.Empty(t, sub.FailedStage)
	assert.Equal(t, "en", sub.Language)
	assert.GreaterOrEqual(t, sub.TextLength, 50)
	h.analyzer.AssertNumberOfCalls(t, "Analyze", 1)

	for _, key := range models.SectionOrder {
		assert.False(t, h.renderer.sections[key].IsEmpty(), "section %s should have content", key)
	}

	require.Len(t, h.messenger.documents, 1)
	doc := h.messenger.documents[0]
	assert.Equal(t, pdf.ReportFilename("case_test", "hearing.pdf"), doc.filename)
	assert.Equal(t, notify.ReportCaption("hearing.pdf"), doc.caption)
	assert.True(t, bytes.HasPrefix(doc.data, []byte("%PDF")))
	assert.Equal(t, []string{notify.FileAccepted, notify.AnalysisStarted, notify.ReportGenerating}, h.messenger.texts)

	h.assertWorkspaceRemoved(t)
	_, err := os.Stat(filepath.Join(h.config.ReportsDir, doc.filename))
	assert.True(t, os.IsNotExist(err), "delivered report should be removed")
}

func TestProcess_ZeroPagesFailsAtExtract(t *testing.T) {
	h := newHarness(t, extractorFunc(func(_ context.Context, path string) (*models.ExtractedContent, error) {
		return nil, &pdf.ExtractionError{Reason: pdf.ReasonNoPages, Path: path}
	}))

	sub := h.process(bytesUpload("empty.pdf", []byte("%PDF-1.4 no pages")))

	assert.Equal(t, models.StateFailed, sub.State)
	assert.Equal(t, models.StageExtract, sub.FailedStage)
	assert.Equal(t, "no_pages", sub.FailureReason)
	h.analyzer.AssertNotCalled(t, "Analyze", mock.Anything, mock.Anything)

	require.NotEmpty(t, h.messenger.texts)
	last := h.messenger.texts[len(h.messenger.texts)-1]
	assert.Equal(t, notify.FailureMessage(models.CategoryProcessingError, extractionDetails[pdf.ReasonNoPages], ""), last)
	assert.Empty(t, h.messenger.documents)
	h.assertWorkspaceRemoved(t)
}

func TestProcess_InsufficientTextFailsAtValidate(t *testing.T) {
	h := newHarness(t, extractorFunc(func(context.Context, string) (*models.ExtractedContent, error) {
		return &models.ExtractedContent{Text: "Too short.", PageCount: 1}, nil
	}))

	sub := h.process(bytesUpload("short.pdf", []byte("%PDF-1.4")))

	assert.Equal(t, models.StateFailed, sub.State)
	assert.Equal(t, models.StageValidate, sub.FailedStage)
	assert.Equal(t, "insufficient", sub.FailureReason)
	assert.Equal(t, 10, sub.TextLength)
	h.analyzer.AssertNotCalled(t, "Analyze", mock.Anything, mock.Anything)
	h.assertWorkspaceRemoved(t)
}

func TestProcess_AnalysisTransportErrorNamesBackend(t *testing.T) {
	h := newHarness(t, extractorFunc(func(context.Context, string) (*models.ExtractedContent, error) {
		return &models.ExtractedContent{Text: testimony, PageCount: 1}, nil
	}))
	h.analyzer.On("Analyze", mock.Anything, testimony).
		Return(nil, &llm.AnalysisError{Cause: llm.CauseTransport, Backend: "Gemini", Err: errors.New("connection reset")})

	sub := h.process(bytesUpload("case.pdf", []byte("%PDF-1.4")))

	assert.Equal(t, models.StateFailed, sub.State)
	assert.Equal(t, models.StageAnalyze, sub.FailedStage)
	assert.Equal(t, "transport", sub.FailureReason)

	last := h.messenger.texts[len(h.messenger.texts)-1]
	assert.Equal(t, notify.FailureMessage(models.CategoryAIServiceError, "", "Gemini"), last)
	assert.NotContains(t, last, "connection reset")
	h.assertWorkspaceRemoved(t)
}

func TestProcess_RejectsNonPDFBeforeFetch(t *testing.T) {
	h := newHarness(t, nil)
	fetched := false
	upload := &models.Upload{
		UserID:   "user-42",
		Filename: "notes.docx",
		Size:     100,
		Source: models.FetcherFunc(func(context.Context, io.Writer) (int64, error) {
			fetched = true
			return 0, nil
		}),
	}

	sub := h.process(upload)

	assert.Equal(t, models.StateFailed, sub.State)
	assert.Equal(t, models.StageIntake, sub.FailedStage)
	assert.Equal(t, string(RejectNotPDF), sub.FailureReason)
	assert.False(t, fetched)
	_, err := os.Stat(h.config.TempDir)
	assert.True(t, os.IsNotExist(err), "no workspace should be created for rejected uploads")
}

func TestProcess_AcceptsUppercaseExtension(t *testing.T) {
	h := newHarness(t, extractorFunc(func(context.Context, string) (*models.ExtractedContent, error) {
		return &models.ExtractedContent{Text: "short", PageCount: 1}, nil
	}))

	sub := h.process(bytesUpload("HEARING.PDF", []byte("%PDF-1.4")))

	assert.Equal(t, models.StageValidate, sub.FailedStage)
}

func TestProcess_RejectsDeclaredOversize(t *testing.T) {
	h := newHarness(t, nil)
	upload := bytesUpload("big.pdf", []byte("%PDF"))
	upload.Size = h.config.MaxFileSizeBytes() + 1

	sub := h.process(upload)

	assert.Equal(t, models.StageIntake, sub.FailedStage)
	assert.Equal(t, string(RejectTooLarge), sub.FailureReason)
}

func TestProcess_StopsFetchBeyondLimit(t *testing.T) {
	h := newHarness(t, nil)
	payload := bytes.Repeat([]byte("x"), int(h.config.MaxFileSizeBytes())+10)
	upload := bytesUpload("big.pdf", payload)
	upload.Size = 10 // declared size lies

	sub := h.process(upload)

	assert.Equal(t, models.StageFetch, sub.FailedStage)
	assert.Equal(t, string(RejectTooLarge), sub.FailureReason)
	h.assertWorkspaceRemoved(t)
}

func TestProcess_FetchErrorIsUploadError(t *testing.T) {
	h := newHarness(t, nil)
	upload := bytesUpload("case.pdf", nil)
	upload.Source = models.FetcherFunc(func(context.Context, io.Writer) (int64, error) {
		return 0, errors.New("network unreachable")
	})

	sub := h.process(upload)

	assert.Equal(t, models.StageFetch, sub.FailedStage)
	assert.Equal(t, string(RejectFetch), sub.FailureReason)
	last := h.messenger.texts[len(h.messenger.texts)-1]
	assert.Equal(t, notify.FailureMessage(models.CategoryUploadError, "The file could not be received. Please try again.", ""), last)
	h.assertWorkspaceRemoved(t)
}

func TestProcess_DeliveryFailure(t *testing.T) {
	h := newHarness(t, extractorFunc(func(context.Context, string) (*models.ExtractedContent, error) {
		return &models.ExtractedContent{Text: testimony, PageCount: 1}, nil
	}))
	h.analyzer.On("Analyze", mock.Anything, mock.Anything).
		Return(&models.AnalysisResult{Text: "## Summary\nA short hearing.", Backend: "Gemini"}, nil)
	h.messenger.docErr = errors.New("chat closed")

	sub := h.process(bytesUpload("case.pdf", []byte("%PDF-1.4")))

	assert.Equal(t, models.StateFailed, sub.State)
	assert.Equal(t, models.StageDeliver, sub.FailedStage)
	last := h.messenger.texts[len(h.messenger.texts)-1]
	assert.Equal(t, notify.FailureMessage(models.CategoryDeliveryError, "", ""), last)
	h.assertWorkspaceRemoved(t)
}

func TestProcess_PanicBecomesUnexpectedFailure(t *testing.T) {
	h := newHarness(t, extractorFunc(func(context.Context, string) (*models.ExtractedContent, error) {
		panic("parser exploded")
	}))

	sub := h.process(bytesUpload("case.pdf", []byte("%PDF-1.4")))

	require.NotNil(t, sub, "a recovered panic must still return the failed submission")
	assert.Equal(t, "case_test", sub.CaseID)
	assert.Equal(t, models.StateFailed, sub.State)
	assert.Equal(t, models.StageExtract, sub.FailedStage)
	assert.Equal(t, "internal", sub.FailureReason)
	assert.Equal(t, models.CategoryUnexpectedError, sub.FailureCategory)
	last := h.messenger.texts[len(h.messenger.texts)-1]
	assert.Equal(t, notify.FailureMessage(models.CategoryUnexpectedError, "", ""), last)
	assert.NotContains(t, last, "parser exploded")
	h.assertWorkspaceRemoved(t)
}

func TestProcess_CancelledCallerStillReachesTerminalState(t *testing.T) {
	h := newHarness(t, extractorFunc(func(ctx context.Context, _ string) (*models.ExtractedContent, error) {
		require.NoError(t, ctx.Err())
		return &models.ExtractedContent{Text: "short", PageCount: 1}, nil
	}))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	sub := h.orchestrator.Process(ctx, bytesUpload("case.pdf", []byte("%PDF-1.4")), h.messenger)

	assert.True(t, sub.IsTerminal())
	assert.Equal(t, models.StageValidate, sub.FailedStage)
}

func TestProcess_NilMessengerFailsDelivery(t *testing.T) {
	h := newHarness(t, extractorFunc(func(context.Context, string) (*models.ExtractedContent, error) {
		return &models.ExtractedContent{Text: testimony, PageCount: 1}, nil
	}))
	h.analyzer.On("Analyze", mock.Anything, mock.Anything).
		Return(&models.AnalysisResult{Text: analysisJSON, Backend: "Gemini"}, nil)

	sub := h.orchestrator.Process(context.Background(), bytesUpload("case.pdf", []byte("%PDF-1.4")), nil)

	assert.Equal(t, models.StageDeliver, sub.FailedStage)
	h.assertWorkspaceRemoved(t)
}

func extractedTestimony(context.Context, string) (*models.ExtractedContent, error) {
	return &models.ExtractedContent{Text: testimony, PageCount: 1}, nil
}

func TestProcess_EmptySectionsAreNotDelivered(t *testing.T) {
	h := newHarness(t, extractorFunc(extractedTestimony))
	h.analyzer.On("Analyze", mock.Anything, mock.Anything).Return(&models.AnalysisResult{
		Text:    `{"summary":"","arguments":[],"inconsistencies":[],"recommendations":[]}`,
		Backend: "Gemini",
	}, nil)

	sub := h.process(bytesUpload("case.pdf", []byte("%PDF-1.4")))

	assert.Equal(t, models.StateFailed, sub.State)
	assert.Equal(t, models.StageAnalyze, sub.FailedStage)
	assert.Equal(t, string(llm.CauseEmptyResponse), sub.FailureReason)
	assert.Equal(t, models.CategoryAIServiceError, sub.FailureCategory)
	assert.Nil(t, h.renderer.sections, "renderer should not be called")
	assert.Empty(t, h.messenger.documents)
	last := h.messenger.texts[len(h.messenger.texts)-1]
	assert.Equal(t, notify.FailureMessage(models.CategoryAIServiceError, "", "Gemini"), last)
	h.assertWorkspaceRemoved(t)
}

func TestProcess_KeepsCaseDirectoryWithForeignFiles(t *testing.T) {
	h := newHarness(t, extractorFunc(func(_ context.Context, path string) (*models.ExtractedContent, error) {
		if err := os.WriteFile(filepath.Join(filepath.Dir(path), "page-1.png"), []byte("png"), 0600); err != nil {
			return nil, err
		}
		return &models.ExtractedContent{Text: "short", PageCount: 1}, nil
	}))

	sub := h.process(bytesUpload("case.pdf", []byte("%PDF-1.4")))

	assert.Equal(t, models.StageValidate, sub.FailedStage)
	caseDir := filepath.Join(h.config.TempDir, "case_test")
	_, err := os.Stat(filepath.Join(caseDir, "source.pdf"))
	assert.True(t, os.IsNotExist(err), "source file should always be removed")
	_, err = os.Stat(filepath.Join(caseDir, "page-1.png"))
	assert.NoError(t, err, "non-empty case directory should be left intact")
}

func TestProcess_RenderFailureIsReportError(t *testing.T) {
	h := newHarness(t, extractorFunc(extractedTestimony))
	h.analyzer.On("Analyze", mock.Anything, mock.Anything).
		Return(&models.AnalysisResult{Text: analysisJSON, Backend: "Gemini"}, nil)
	h.renderer.err = &pdf.RenderError{Err: errors.New("font missing")}

	sub := h.process(bytesUpload("case.pdf", []byte("%PDF-1.4")))

	assert.Equal(t, models.StateFailed, sub.State)
	assert.Equal(t, models.StageRender, sub.FailedStage)
	assert.Equal(t, "render_failed", sub.FailureReason)
	assert.Equal(t, models.CategoryReportError, sub.FailureCategory)
	assert.Empty(t, h.messenger.documents)
	last := h.messenger.texts[len(h.messenger.texts)-1]
	assert.Equal(t, notify.FailureMessage(models.CategoryReportError, "", ""), last)
	h.assertWorkspaceRemoved(t)
}

func TestProcess_ReportStoreFailureIsReportError(t *testing.T) {
	h := newHarness(t, extractorFunc(extractedTestimony))
	h.analyzer.On("Analyze", mock.Anything, mock.Anything).
		Return(&models.AnalysisResult{Text: analysisJSON, Backend: "Gemini"}, nil)

	blocker := filepath.Join(t.TempDir(), "reports")
	require.NoError(t, os.WriteFile(blocker, []byte("not a directory"), 0600))
	h.orchestrator.config.ReportsDir = blocker

	sub := h.process(bytesUpload("case.pdf", []byte("%PDF-1.4")))

	assert.Equal(t, models.StateFailed, sub.State)
	assert.Equal(t, models.StageRender, sub.FailedStage)
	assert.Equal(t, "store_failed", sub.FailureReason)
	assert.Equal(t, models.CategoryReportError, sub.FailureCategory)
	assert.Empty(t, h.messenger.documents)
	h.assertWorkspaceRemoved(t)
}
