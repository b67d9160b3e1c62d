package interfaces

import "github.com/ternarybob/casebot/internal/models"

// SubmissionEvent is the payload of every submission stage event
type SubmissionEvent struct {
	Submission *models.Submission
	Messenger  Messenger              // reply channel of the transport that supplied the upload
	Category   models.FailureCategory // set on submission_failed
	Detail     string                 // user-safe failure detail
	Backend    string                 // analysis backend name, when relevant
}

// AgreementEvent is the payload of agreement_changed
type AgreementEvent struct {
	UserID   string
	Previous models.AgreementState
	Current  models.AgreementState
}
