package agreement

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/casebot/internal/interfaces"
	"github.com/ternarybob/casebot/internal/models"
)

// ErrMissingUser is returned for calls without a user id
var ErrMissingUser = errors.New("user id is required")

// Service manages per-user consent. Users without a record are not agreed.
type Service struct {
	storage interfaces.AgreementStorage
	events  interfaces.EventService
	logger  arbor.ILogger
	now     func() time.Time
}

var _ interfaces.AgreementService = (*Service)(nil)

// NewService creates the agreement service. events may be nil.
func NewService(storage interfaces.AgreementStorage, events interfaces.EventService, logger arbor.ILogger) *Service {
	return &Service{
		storage: storage,
		events:  events,
		logger:  logger,
		now:     time.Now,
	}
}

// Status returns the user's current agreement state
func (s *Service) Status(ctx context.Context, userID string) (models.AgreementState, error) {
	if strings.TrimSpace(userID) == "" {
		return models.AgreementNotAgreed, ErrMissingUser
	}
	record, err := s.storage.Get(ctx, userID)
	if errors.Is(err, interfaces.ErrAgreementNotFound) {
		return models.AgreementNotAgreed, nil
	}
	if err != nil {
		return models.AgreementNotAgreed, fmt.Errorf("failed to load agreement: %w", err)
	}
	if record.IsAgreed() {
		return models.AgreementAgreed, nil
	}
	return models.AgreementNotAgreed, nil
}

// Accept marks the user as agreed. Accepting twice is harmless and reported
// through alreadyAgreed.
func (s *Service) Accept(ctx context.Context, userID string) (bool, error) {
	previous, err := s.Status(ctx, userID)
	if err != nil {
		return false, err
	}
	if previous == models.AgreementAgreed {
		return true, nil
	}
	if err := s.set(ctx, userID, previous, models.AgreementAgreed); err != nil {
		return false, err
	}
	return false, nil
}

// Decline records an explicit not agreed state
func (s *Service) Decline(ctx context.Context, userID string) error {
	previous, err := s.Status(ctx, userID)
	if err != nil {
		return err
	}
	return s.set(ctx, userID, previous, models.AgreementNotAgreed)
}

// Cancel withdraws a previous agreement and forgets the stored record. A user
// without a record is not agreed, so the next submission asks again.
func (s *Service) Cancel(ctx context.Context, userID string) error {
	previous, err := s.Status(ctx, userID)
	if err != nil {
		return err
	}
	if err := s.storage.Delete(ctx, userID); err != nil {
		return fmt.Errorf("failed to remove agreement: %w", err)
	}
	s.changed(ctx, userID, previous, models.AgreementNotAgreed)
	return nil
}

func (s *Service) set(ctx context.Context, userID string, previous, current models.AgreementState) error {
	record := &models.Agreement{
		UserID:    userID,
		State:     current,
		UpdatedAt: s.now(),
	}
	if err := s.storage.Save(ctx, record); err != nil {
		return fmt.Errorf("failed to save agreement: %w", err)
	}
	s.changed(ctx, userID, previous, current)
	return nil
}

// changed logs the transition and notifies subscribers
func (s *Service) changed(ctx context.Context, userID string, previous, current models.AgreementState) {
	s.logger.Info().
		Str("user_id", userID).
		Str("previous", string(previous)).
		Str("current", string(current)).
		Msg("Agreement state changed")

	if s.events == nil {
		return
	}
	event := interfaces.Event{
		Type: interfaces.EventAgreementChanged,
		Payload: interfaces.AgreementEvent{
			UserID:   userID,
			Previous: previous,
			Current:  current,
		},
	}
	if err := s.events.Publish(ctx, event); err != nil {
		s.logger.Warn().Err(err).Msg("Failed to publish agreement change")
	}
}
