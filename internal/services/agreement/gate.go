package agreement

import (
	"context"
	"errors"
	"fmt"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/casebot/internal/interfaces"
	"github.com/ternarybob/casebot/internal/models"
	"github.com/ternarybob/casebot/internal/services/notify"
)

// ErrAgreementRequired is returned by Gate.Submit for users who have not agreed
var ErrAgreementRequired = errors.New("user has not accepted the agreement")

// Gate admits uploads to the pipeline only for users who have agreed
type Gate struct {
	agreements interfaces.AgreementService
	processor  interfaces.DocumentProcessor
	logger     arbor.ILogger
}

var _ interfaces.SubmissionGate = (*Gate)(nil)

// NewGate creates a gate in front of processor
func NewGate(agreements interfaces.AgreementService, processor interfaces.DocumentProcessor, logger arbor.ILogger) *Gate {
	return &Gate{
		agreements: agreements,
		processor:  processor,
		logger:     logger,
	}
}

// Submit runs the upload through the pipeline if the user has agreed.
// Otherwise the user is prompted to accept and nothing is fetched.
func (g *Gate) Submit(ctx context.Context, upload *models.Upload, messenger interfaces.Messenger) (*models.Submission, error) {
	if upload == nil {
		return nil, errors.New("upload is required")
	}

	state, err := g.agreements.Status(ctx, upload.UserID)
	if err != nil {
		return nil, fmt.Errorf("failed to check agreement: %w", err)
	}

	if state != models.AgreementAgreed {
		g.logger.Info().
			Str("user_id", upload.UserID).
			Str("filename", upload.Filename).
			Msg("Upload refused - agreement not accepted")
		if messenger != nil {
			if err := messenger.SendText(ctx, upload.UserID, notify.AgreementRequired); err != nil {
				g.logger.Warn().Err(err).Str("user_id", upload.UserID).Msg("Failed to send agreement prompt")
			}
		}
		return nil, ErrAgreementRequired
	}

	return g.processor.Process(ctx, upload, messenger), nil
}
