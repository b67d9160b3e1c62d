package badger

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/casebot/internal/interfaces"
	"github.com/ternarybob/casebot/internal/models"
	"github.com/timshannon/badgerhold/v4"
)

// AgreementStorage persists agreement records in Badger, keyed by user id
type AgreementStorage struct {
	db     *BadgerDB
	logger arbor.ILogger
}

var _ interfaces.AgreementStorage = (*AgreementStorage)(nil)

// NewAgreementStorage creates a Badger-backed agreement store
func NewAgreementStorage(db *BadgerDB, logger arbor.ILogger) *AgreementStorage {
	return &AgreementStorage{
		db:     db,
		logger: logger,
	}
}

func agreementKey(userID string) string {
	return "agreement:" + strings.TrimSpace(userID)
}

func (s *AgreementStorage) Get(ctx context.Context, userID string) (*models.Agreement, error) {
	var agreement models.Agreement
	err := s.db.Store().Get(agreementKey(userID), &agreement)
	if errors.Is(err, badgerhold.ErrNotFound) {
		return nil, interfaces.ErrAgreementNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get agreement for %s: %w", userID, err)
	}
	return &agreement, nil
}

func (s *AgreementStorage) Save(ctx context.Context, agreement *models.Agreement) error {
	if agreement == nil || strings.TrimSpace(agreement.UserID) == "" {
		return errors.New("agreement requires a user id")
	}
	if err := s.db.Store().Upsert(agreementKey(agreement.UserID), agreement); err != nil {
		return fmt.Errorf("failed to save agreement for %s: %w", agreement.UserID, err)
	}
	return nil
}

// Delete removes the record; deleting a missing record is not an error
func (s *AgreementStorage) Delete(ctx context.Context, userID string) error {
	err := s.db.Store().Delete(agreementKey(userID), models.Agreement{})
	if err != nil && !errors.Is(err, badgerhold.ErrNotFound) {
		return fmt.Errorf("failed to delete agreement for %s: %w", userID, err)
	}
	return nil
}

func (s *AgreementStorage) Close() error {
	return s.db.Close()
}
