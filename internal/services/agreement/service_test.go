package agreement

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/casebot/internal/interfaces"
	"github.com/ternarybob/casebot/internal/models"
	"github.com/ternarybob/casebot/internal/services/events"
	"github.com/ternarybob/casebot/internal/storage/memory"
)

type failingStorage struct {
	memory.AgreementStorage
}

func (f *failingStorage) Get(context.Context, string) (*models.Agreement, error) {
	return nil, errors.New("disk unavailable")
}

func newTestService(t *testing.T) (*Service, interfaces.EventService) {
	t.Helper()
	logger := arbor.NewLogger()
	bus := events.NewService(logger)
	t.Cleanup(func() { bus.Close() })
	return NewService(memory.NewAgreementStorage(), bus, logger), bus
}

func TestService_UnknownUserIsNotAgreed(t *testing.T) {
	svc, _ := newTestService(t)

	state, err := svc.Status(context.Background(), "user-1")
	require.NoError(t, err)
	assert.Equal(t, models.AgreementNotAgreed, state)
}

func TestService_AcceptIsIdempotent(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	already, err := svc.Accept(ctx, "user-1")
	require.NoError(t, err)
	assert.False(t, already)

	already, err = svc.Accept(ctx, "user-1")
	require.NoError(t, err)
	assert.True(t, already)

	state, err := svc.Status(ctx, "user-1")
	require.NoError(t, err)
	assert.Equal(t, models.AgreementAgreed, state)
}

func TestService_DeclineAndCancelRevoke(t *testing.T) {
	tests := []struct {
		name   string
		revoke func(*Service, context.Context, string) error
	}{
		{"decline", (*Service).Decline},
		{"cancel", (*Service).Cancel},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, _ := newTestService(t)
			ctx := context.Background()

			_, err := svc.Accept(ctx, "user-1")
			require.NoError(t, err)
			require.NoError(t, tt.revoke(svc, ctx, "user-1"))

			state, err := svc.Status(ctx, "user-1")
			require.NoError(t, err)
			assert.Equal(t, models.AgreementNotAgreed, state)
		})
	}
}

func TestService_CancelForgetsRecordDeclineKeepsIt(t *testing.T) {
	logger := arbor.NewLogger()
	store := memory.NewAgreementStorage()
	svc := NewService(store, nil, logger)
	ctx := context.Background()

	_, err := svc.Accept(ctx, "alice")
	require.NoError(t, err)
	require.NoError(t, svc.Decline(ctx, "alice"))
	record, err := store.Get(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, models.AgreementNotAgreed, record.State)

	_, err = svc.Accept(ctx, "bob")
	require.NoError(t, err)
	require.NoError(t, svc.Cancel(ctx, "bob"))
	_, err = store.Get(ctx, "bob")
	assert.ErrorIs(t, err, interfaces.ErrAgreementNotFound)

	already, err := svc.Accept(ctx, "bob")
	require.NoError(t, err)
	assert.False(t, already, "cancelled user agrees afresh")
}

func TestService_UsersAreIndependent(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.Accept(ctx, "alice")
	require.NoError(t, err)

	state, err := svc.Status(ctx, "bob")
	require.NoError(t, err)
	assert.Equal(t, models.AgreementNotAgreed, state)

	require.NoError(t, svc.Cancel(ctx, "bob"))
	state, err = svc.Status(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, models.AgreementAgreed, state)
}

func TestService_PublishesAgreementChanged(t *testing.T) {
	svc, bus := newTestService(t)
	received := make(chan interfaces.AgreementEvent, 1)
	require.NoError(t, bus.Subscribe(interfaces.EventAgreementChanged, func(_ context.Context, event interfaces.Event) error {
		received <- event.Payload.(interfaces.AgreementEvent)
		return nil
	}))

	_, err := svc.Accept(context.Background(), "user-1")
	require.NoError(t, err)

	select {
	case payload := <-received:
		assert.Equal(t, "user-1", payload.UserID)
		assert.Equal(t, models.AgreementNotAgreed, payload.Previous)
		assert.Equal(t, models.AgreementAgreed, payload.Current)
	case <-time.After(2 * time.Second):
		t.Fatal("agreement_changed was not published")
	}
}

func TestService_RequiresUserID(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.Accept(context.Background(), "  ")
	assert.ErrorIs(t, err, ErrMissingUser)
	_, err = svc.Status(context.Background(), "")
	assert.ErrorIs(t, err, ErrMissingUser)
}

func TestService_StorageErrorPropagates(t *testing.T) {
	svc := NewService(&failingStorage{}, nil, arbor.NewLogger())

	_, err := svc.Status(context.Background(), "user-1")
	assert.ErrorContains(t, err, "disk unavailable")
	_, err = svc.Accept(context.Background(), "user-1")
	assert.Error(t, err)
}
