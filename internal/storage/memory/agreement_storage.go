package memory

import (
	"context"
	"errors"
	"sync"

	"github.com/ternarybob/casebot/internal/interfaces"
	"github.com/ternarybob/casebot/internal/models"
)

// AgreementStorage keeps agreement records in process memory. State is lost
// on restart, matching a chat bot that asks again after redeploys.
type AgreementStorage struct {
	mu      sync.RWMutex
	records map[string]models.Agreement
}

var _ interfaces.AgreementStorage = (*AgreementStorage)(nil)

// NewAgreementStorage creates an empty in-memory store
func NewAgreementStorage() *AgreementStorage {
	return &AgreementStorage{records: make(map[string]models.Agreement)}
}

func (s *AgreementStorage) Get(ctx context.Context, userID string) (*models.Agreement, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	agreement, ok := s.records[userID]
	if !ok {
		return nil, interfaces.ErrAgreementNotFound
	}
	return &agreement, nil
}

func (s *AgreementStorage) Save(ctx context.Context, agreement *models.Agreement) error {
	if agreement == nil || agreement.UserID == "" {
		return errors.New("agreement requires a user id")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[agreement.UserID] = *agreement
	return nil
}

func (s *AgreementStorage) Delete(ctx context.Context, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.records, userID)
	return nil
}

func (s *AgreementStorage) Close() error {
	return nil
}
