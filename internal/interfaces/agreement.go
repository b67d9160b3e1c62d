package interfaces

import (
	"context"
	"errors"

	"github.com/ternarybob/casebot/internal/models"
)

// ErrAgreementNotFound is returned when no agreement record exists for a user
var ErrAgreementNotFound = errors.New("agreement not found")

// AgreementStorage persists per-user agreement state
type AgreementStorage interface {
	// Get returns ErrAgreementNotFound when the user has no record
	Get(ctx context.Context, userID string) (*models.Agreement, error)
	Save(ctx context.Context, agreement *models.Agreement) error
	Delete(ctx context.Context, userID string) error
	Close() error
}

// AgreementService manages the consent flag that gates document processing
type AgreementService interface {
	// Accept marks the user as agreed; alreadyAgreed reports an idempotent repeat
	Accept(ctx context.Context, userID string) (alreadyAgreed bool, err error)
	Decline(ctx context.Context, userID string) error
	Cancel(ctx context.Context, userID string) error
	Status(ctx context.Context, userID string) (models.AgreementState, error)
}

// DocumentProcessor runs one upload through the pipeline. The outcome is on
// the returned submission, never an error.
type DocumentProcessor interface {
	Process(ctx context.Context, upload *models.Upload, messenger Messenger) *models.Submission
}

// SubmissionGate admits uploads to the pipeline for users who have agreed.
// A nil submission with an error means the upload never entered the pipeline.
type SubmissionGate interface {
	Submit(ctx context.Context, upload *models.Upload, messenger Messenger) (*models.Submission, error)
}
