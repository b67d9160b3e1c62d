package models

import (
	"fmt"
	"time"
)

// SubmissionState is the lifecycle position of one uploaded document
type SubmissionState string

const (
	StateReceived  SubmissionState = "received"
	StateExtracted SubmissionState = "extracted"
	StateValidated SubmissionState = "validated"
	StateAnalyzed  SubmissionState = "analyzed"
	StateRendered  SubmissionState = "rendered"
	StateDelivered SubmissionState = "delivered"
	StateFailed    SubmissionState = "failed"
)

// Stage names the pipeline step a failure occurred in
type Stage string

const (
	StageIntake   Stage = "intake"
	StageFetch    Stage = "fetch"
	StageExtract  Stage = "extract"
	StageValidate Stage = "validate"
	StageAnalyze  Stage = "analyze"
	StageRender   Stage = "render"
	StageDeliver  Stage = "deliver"
)

// stateOrder fixes the forward sequence; failed sits outside it
var stateOrder = map[SubmissionState]int{
	StateReceived:  0,
	StateExtracted: 1,
	StateValidated: 2,
	StateAnalyzed:  3,
	StateRendered:  4,
	StateDelivered: 5,
}

// Submission tracks a single document from intake to delivery.
// The orchestrator owns it for the duration of one run.
type Submission struct {
	CaseID           string          `json:"case_id"`
	UserID           string          `json:"user_id"`
	OriginalFilename string          `json:"original_filename"`
	DeclaredSize     int64           `json:"declared_size"`
	SourcePath       string          `json:"-"`
	State            SubmissionState `json:"state"`
	FailedStage      Stage           `json:"failed_stage,omitempty"`
	FailureReason    string          `json:"failure_reason,omitempty"`
	FailureCategory  FailureCategory `json:"failure_category,omitempty"`
	Language         string          `json:"language,omitempty"`
	TextLength       int             `json:"text_length"`
	ReportFilename   string          `json:"report_filename,omitempty"`
	ReportSize       int             `json:"report_size,omitempty"`
	ReceivedAt       time.Time       `json:"received_at"`
	CompletedAt      time.Time       `json:"completed_at,omitempty"`
}

// NewSubmission creates a submission in the received state
func NewSubmission(caseID string, upload *Upload) *Submission {
	return &Submission{
		CaseID:           caseID,
		UserID:           upload.UserID,
		OriginalFilename: upload.Filename,
		DeclaredSize:     upload.Size,
		State:            StateReceived,
		ReceivedAt:       time.Now(),
	}
}

// IsTerminal reports whether no further transitions are possible
func (s *Submission) IsTerminal() bool {
	return s.State == StateDelivered || s.State == StateFailed
}

// Succeeded reports whether the report reached the user
func (s *Submission) Succeeded() bool {
	return s.State == StateDelivered
}

// Advance moves the submission exactly one step forward.
// Use Fail to leave the forward sequence.
func (s *Submission) Advance(next SubmissionState) error {
	if s.IsTerminal() {
		return fmt.Errorf("submission %s is terminal (%s), cannot move to %s", s.CaseID, s.State, next)
	}
	nextRank, ok := stateOrder[next]
	if !ok {
		return fmt.Errorf("state %s is not part of the forward sequence", next)
	}
	if nextRank != stateOrder[s.State]+1 {
		return fmt.Errorf("invalid transition %s -> %s for submission %s", s.State, next, s.CaseID)
	}
	s.State = next
	if next == StateDelivered {
		s.CompletedAt = time.Now()
	}
	return nil
}

// Fail records the failing stage and reason. A terminal submission is left unchanged.
func (s *Submission) Fail(stage Stage, reason string) bool {
	if s.IsTerminal() {
		return false
	}
	s.State = StateFailed
	s.FailedStage = stage
	s.FailureReason = reason
	s.CompletedAt = time.Now()
	return true
}

// FailureCategory selects the user-facing message for a failed submission
type FailureCategory string

const (
	CategoryUploadError     FailureCategory = "upload_error"
	CategoryProcessingError FailureCategory = "processing_error"
	CategoryAIServiceError  FailureCategory = "ai_service_error"
	CategoryReportError     FailureCategory = "report_error"
	CategoryDeliveryError   FailureCategory = "delivery_error"
	CategoryUnexpectedError FailureCategory = "unexpected_error"
	// CategoryAgreementRequired is used by the agreement gate, not the pipeline
	CategoryAgreementRequired FailureCategory = "agreement_required"
)
