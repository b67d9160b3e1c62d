package storage

import (
	"fmt"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/casebot/internal/common"
	"github.com/ternarybob/casebot/internal/interfaces"
	"github.com/ternarybob/casebot/internal/storage/badger"
	"github.com/ternarybob/casebot/internal/storage/memory"
)

// NewAgreementStorage creates the agreement store selected by storage.type
func NewAgreementStorage(logger arbor.ILogger, config *common.Config) (interfaces.AgreementStorage, error) {
	switch config.Storage.Type {
	case "", "memory":
		logger.Debug().Msg("Using in-memory agreement storage")
		return memory.NewAgreementStorage(), nil
	case "badger":
		db, err := badger.NewBadgerDB(logger, &config.Storage.Badger)
		if err != nil {
			return nil, err
		}
		return badger.NewAgreementStorage(db, logger), nil
	default:
		return nil, fmt.Errorf("unsupported storage type: %s (expected 'memory' or 'badger')", config.Storage.Type)
	}
}
