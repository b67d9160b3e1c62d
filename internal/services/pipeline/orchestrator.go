package pipeline

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/casebot/internal/common"
	"github.com/ternarybob/casebot/internal/interfaces"
	"github.com/ternarybob/casebot/internal/models"
	"github.com/ternarybob/casebot/internal/services/llm"
	"github.com/ternarybob/casebot/internal/services/notify"
	"github.com/ternarybob/casebot/internal/services/pdf"
)

var errNoSections = errors.New("analysis response has no section content")

// Orchestrator runs one submission from intake to delivery.
// Every run ends delivered or failed, and the per-case temp directory is
// cleaned up on every exit path.
type Orchestrator struct {
	extractor interfaces.PDFExtractor
	validator interfaces.ContentValidator
	analyzer  interfaces.AnalysisService
	parser    interfaces.SectionParser
	renderer  interfaces.ReportRenderer
	events    interfaces.EventService
	config    common.ProcessingConfig
	logger    arbor.ILogger
	newCaseID func() string
}

var _ interfaces.DocumentProcessor = (*Orchestrator)(nil)

// NewOrchestrator wires the pipeline stages together
func NewOrchestrator(
	extractor interfaces.PDFExtractor,
	validator interfaces.ContentValidator,
	analyzer interfaces.AnalysisService,
	parser interfaces.SectionParser,
	renderer interfaces.ReportRenderer,
	events interfaces.EventService,
	config common.ProcessingConfig,
	logger arbor.ILogger,
) *Orchestrator {
	return &Orchestrator{
		extractor: extractor,
		validator: validator,
		analyzer:  analyzer,
		parser:    parser,
		renderer:  renderer,
		events:    events,
		config:    config,
		logger:    logger,
		newCaseID: common.NewCaseID,
	}
}

// Process runs the pipeline for one upload and returns the terminal submission.
// The caller's cancellation is not propagated into the stages: once accepted,
// a submission always runs to a terminal state.
func (o *Orchestrator) Process(ctx context.Context, upload *models.Upload, messenger interfaces.Messenger) (sub *models.Submission) {
	if upload == nil {
		upload = &models.Upload{}
	}
	ctx = context.WithoutCancel(ctx)

	caseID := o.newCaseID()
	sub = models.NewSubmission(caseID, upload)
	log := o.logger.WithCorrelationId(caseID)

	log.Info().
		Str("user_id", sub.UserID).
		Str("filename", sub.OriginalFilename).
		Int64("declared_size", sub.DeclaredSize).
		Msg("Submission received")
	o.publish(ctx, log, interfaces.EventSubmissionReceived, sub, messenger)

	if err := o.preflight(upload); err != nil {
		o.fail(ctx, log, sub, messenger, models.StageIntake, err)
		return sub
	}

	ws, err := newWorkspace(o.config.TempDir, caseID)
	if err != nil {
		o.fail(ctx, log, sub, messenger, models.StageIntake, err)
		return sub
	}
	defer ws.cleanup(log)
	sub.SourcePath = ws.sourcePath

	stage := models.StageFetch
	defer func() {
		if r := recover(); r != nil {
			o.fail(ctx, log, sub, messenger, stage, fmt.Errorf("panic in %s stage: %v", stage, r))
		}
	}()

	if err := o.fetch(ctx, upload, ws.sourcePath); err != nil {
		o.fail(ctx, log, sub, messenger, stage, err)
		return sub
	}
	o.publish(ctx, log, interfaces.EventSubmissionAccepted, sub, messenger)

	stage = models.StageExtract
	extracted, err := o.extractor.Extract(ctx, ws.sourcePath)
	if err != nil {
		o.fail(ctx, log, sub, messenger, stage, err)
		return sub
	}
	sub.TextLength = utf8.RuneCountInString(extracted.Text)
	if !o.advance(ctx, log, sub, messenger, stage, models.StateExtracted) {
		return sub
	}
	log.Info().
		Int("pages", extracted.PageCount).
		Int("text_length", sub.TextLength).
		Msg("Text extracted")

	stage = models.StageValidate
	language, err := o.validator.Validate(extracted.Text)
	if err != nil {
		o.fail(ctx, log, sub, messenger, stage, err)
		return sub
	}
	sub.Language = language
	if !o.advance(ctx, log, sub, messenger, stage, models.StateValidated) {
		return sub
	}

	stage = models.StageAnalyze
	o.publish(ctx, log, interfaces.EventAnalysisStarted, sub, messenger)
	result, err := o.analyzer.Analyze(ctx, extracted.Text)
	if err != nil {
		o.fail(ctx, log, sub, messenger, stage, err)
		return sub
	}
	sections := o.parser.ParseSections(result.Text)
	if !sections.HasContent() {
		o.fail(ctx, log, sub, messenger, stage, &llm.AnalysisError{
			Cause:   llm.CauseEmptyResponse,
			Backend: result.Backend,
			Err:     errNoSections,
		})
		return sub
	}
	if !o.advance(ctx, log, sub, messenger, stage, models.StateAnalyzed) {
		return sub
	}
	log.Info().
		Str("backend", result.Backend).
		Str("model", result.Model).
		Int64("duration_ms", result.Duration.Milliseconds()).
		Int("response_length", len(result.Text)).
		Msg("Analysis complete")

	stage = models.StageRender
	o.publish(ctx, log, interfaces.EventReportGenerating, sub, messenger)
	report, err := o.renderer.Render(caseID, sub.OriginalFilename, sections)
	if err != nil {
		o.fail(ctx, log, sub, messenger, stage, err)
		return sub
	}
	reportName := pdf.ReportFilename(caseID, sub.OriginalFilename)
	reportPath, err := o.storeReport(reportName, report)
	if err != nil {
		o.fail(ctx, log, sub, messenger, stage, err)
		return sub
	}
	defer o.removeReport(log, reportPath)
	sub.ReportFilename = reportName
	sub.ReportSize = len(report)
	if !o.advance(ctx, log, sub, messenger, stage, models.StateRendered) {
		return sub
	}

	stage = models.StageDeliver
	if err := o.deliver(ctx, sub, messenger, report); err != nil {
		o.fail(ctx, log, sub, messenger, stage, err)
		return sub
	}
	if !o.advance(ctx, log, sub, messenger, stage, models.StateDelivered) {
		return sub
	}

	log.Info().
		Str("report", reportName).
		Int("report_size", sub.ReportSize).
		Int64("elapsed_ms", sub.CompletedAt.Sub(sub.ReceivedAt).Milliseconds()).
		Msg("Report delivered")
	o.publish(ctx, log, interfaces.EventSubmissionDelivered, sub, messenger)
	return sub
}

// preflight checks metadata before any bytes are transferred
func (o *Orchestrator) preflight(upload *models.Upload) error {
	if err := upload.Validate(); err != nil {
		return &UploadRejected{Reason: RejectInvalid, Message: "The upload is missing required information.", Err: err}
	}
	if !strings.EqualFold(filepath.Ext(upload.Filename), ".pdf") {
		return &UploadRejected{Reason: RejectNotPDF, Message: "Only PDF documents are accepted."}
	}
	if upload.Size > o.config.MaxFileSizeBytes() {
		return &UploadRejected{
			Reason:  RejectTooLarge,
			Message: fmt.Sprintf("The file exceeds the %d MB size limit.", o.config.MaxFileSizeMB),
		}
	}
	return nil
}

// fetch streams the payload to path, enforcing the size limit on actual bytes
func (o *Orchestrator) fetch(ctx context.Context, upload *models.Upload, path string) error {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0600)
	if err != nil {
		return fmt.Errorf("failed to create source file: %w", err)
	}

	n, fetchErr := upload.Source.Fetch(ctx, &limitedWriter{w: f, remaining: o.config.MaxFileSizeBytes()})
	closeErr := f.Close()

	switch {
	case errors.Is(fetchErr, errPayloadTooLarge):
		return &UploadRejected{
			Reason:  RejectTooLarge,
			Message: fmt.Sprintf("The file exceeds the %d MB size limit.", o.config.MaxFileSizeMB),
			Err:     fetchErr,
		}
	case fetchErr != nil:
		return &UploadRejected{Reason: RejectFetch, Message: "The file could not be received. Please try again.", Err: fetchErr}
	case closeErr != nil:
		return fmt.Errorf("failed to write source file: %w", closeErr)
	case n == 0:
		return &UploadRejected{Reason: RejectInvalid, Message: "The uploaded file is empty."}
	}
	return nil
}

func (o *Orchestrator) storeReport(name string, data []byte) (string, error) {
	if err := os.MkdirAll(o.config.ReportsDir, 0755); err != nil {
		return "", &reportStoreError{Err: err}
	}
	path := filepath.Join(o.config.ReportsDir, name)
	if err := os.WriteFile(path, data, 0600); err != nil {
		return "", &reportStoreError{Err: err}
	}
	return path, nil
}

func (o *Orchestrator) removeReport(log arbor.ILogger, path string) {
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Warn().Err(err).Str("path", path).Msg("Failed to remove delivered report")
	}
}

func (o *Orchestrator) deliver(ctx context.Context, sub *models.Submission, messenger interfaces.Messenger, report []byte) error {
	if messenger == nil {
		return &DeliveryError{Err: errors.New("no messenger for submission")}
	}
	caption := notify.ReportCaption(sub.OriginalFilename)
	if err := messenger.SendDocument(ctx, sub.UserID, sub.ReportFilename, report, caption); err != nil {
		return &DeliveryError{Err: err}
	}
	return nil
}

// advance moves to next, failing the submission if the transition is refused
func (o *Orchestrator) advance(ctx context.Context, log arbor.ILogger, sub *models.Submission, messenger interfaces.Messenger, stage models.Stage, next models.SubmissionState) bool {
	if err := sub.Advance(next); err != nil {
		o.fail(ctx, log, sub, messenger, stage, err)
		return false
	}
	return true
}

// fail moves the submission to failed and notifies subscribers. The technical
// error is logged; only the classified detail reaches the user.
func (o *Orchestrator) fail(ctx context.Context, log arbor.ILogger, sub *models.Submission, messenger interfaces.Messenger, stage models.Stage, err error) {
	failure := Classify(err)
	if !sub.Fail(stage, failure.Reason) {
		log.Warn().Err(err).Str("state", string(sub.State)).Msg("Failure after terminal state ignored")
		return
	}
	sub.FailureCategory = failure.Category

	log.Error().
		Err(err).
		Str("stage", string(stage)).
		Str("category", string(failure.Category)).
		Str("reason", failure.Reason).
		Msg("Submission failed")

	payload := interfaces.SubmissionEvent{
		Submission: sub,
		Messenger:  messenger,
		Category:   failure.Category,
		Detail:     failure.Detail,
		Backend:    failure.Backend,
	}
	if pubErr := o.events.PublishSync(ctx, interfaces.Event{Type: interfaces.EventSubmissionFailed, Payload: payload}); pubErr != nil {
		log.Warn().Err(pubErr).Msg("Failure notification incomplete")
	}
}

// publish delivers a stage event synchronously so user messages keep pipeline order
func (o *Orchestrator) publish(ctx context.Context, log arbor.ILogger, eventType interfaces.EventType, sub *models.Submission, messenger interfaces.Messenger) {
	payload := interfaces.SubmissionEvent{Submission: sub, Messenger: messenger}
	if err := o.events.PublishSync(ctx, interfaces.Event{Type: eventType, Payload: payload}); err != nil {
		log.Warn().Err(err).Str("event", string(eventType)).Msg("Event handler failed")
	}
}
