package sessions

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Domenick1991/activitybooking/internal/domain"
	"github.com/Domenick1991/activitybooking/internal/repository"
	"github.com/Domenick1991/activitybooking/internal/repository/memory"
	"github.com/Domenick1991/activitybooking/internal/service/capacity"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockCache struct {
	mock.Mock
}

func (m *MockCache) GetSessions(ctx context.Context) ([]domain.TrainingSession, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.TrainingSession), args.Error(1)
}

func (m *MockCache) SetSessions(ctx context.Context, sessions []domain.TrainingSession) error {
	args := m.Called(ctx, sessions)
	return args.Error(0)
}

func (m *MockCache) InvalidateSessions(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func seed(t *testing.T, store repository.Store, sessions ...*domain.TrainingSession) {
	t.Helper()
	require.NoError(t, store.InTx(context.Background(), func(ctx context.Context, tx repository.Tx) error {
		for _, s := range sessions {
			if err := tx.Sessions().Create(ctx, s); err != nil {
				return err
			}
		}
		return nil
	}))
}

func TestSessionService_List_CacheHit(t *testing.T) {
	store := memory.NewStore()
	mockCache := &MockCache{}
	service := NewSessionService(store, capacity.NewManager(), mockCache)
	ctx := context.Background()

	cached := []domain.TrainingSession{{ID: 42, ActivityType: "gymnastics", MaxParticipants: 6}}
	mockCache.On("GetSessions", ctx).Return(cached, nil).Once()

	result, err := service.List(ctx)

	require.NoError(t, err)
	assert.Equal(t, cached, result)
	mockCache.AssertExpectations(t)
	mockCache.AssertNotCalled(t, "SetSessions", mock.Anything, mock.Anything)
}

func TestSessionService_List_CacheMiss(t *testing.T) {
	store := memory.NewStore()
	mockCache := &MockCache{}
	service := NewSessionService(store, capacity.NewManager(), mockCache)
	ctx := context.Background()

	start := time.Now().Add(24 * time.Hour)
	seed(t, store,
		&domain.TrainingSession{ActivityType: "swimming", StartsAt: start.Add(time.Hour), Duration: time.Hour, MaxParticipants: 10},
		&domain.TrainingSession{ActivityType: "climbing", StartsAt: start, Duration: time.Hour, MaxParticipants: 8},
	)

	mockCache.On("GetSessions", ctx).Return(nil, nil).Once()
	mockCache.On("SetSessions", ctx, mock.MatchedBy(func(s []domain.TrainingSession) bool { return len(s) == 2 })).Return(nil).Once()

	result, err := service.List(ctx)

	require.NoError(t, err)
	require.Len(t, result, 2)
	assert.Equal(t, "climbing", result[0].ActivityType)
	mockCache.AssertExpectations(t)
}

func TestSessionService_List_CacheErrorFallsThrough(t *testing.T) {
	store := memory.NewStore()
	mockCache := &MockCache{}
	service := NewSessionService(store, capacity.NewManager(), mockCache)
	ctx := context.Background()

	mockCache.On("GetSessions", ctx).Return(nil, errors.New("connection refused")).Once()
	mockCache.On("SetSessions", ctx, []domain.TrainingSession{}).Return(errors.New("connection refused")).Once()

	result, err := service.List(ctx)

	require.NoError(t, err)
	assert.Empty(t, result)
	mockCache.AssertExpectations(t)
}

func TestSessionService_List_NoCache(t *testing.T) {
	store := memory.NewStore()
	service := NewSessionService(store, capacity.NewManager(), nil)
	seed(t, store, &domain.TrainingSession{ActivityType: "swimming", StartsAt: time.Now().Add(time.Hour), MaxParticipants: 3})

	result, err := service.List(context.Background())

	require.NoError(t, err)
	assert.Len(t, result, 1)
}

func TestSessionService_GetAvailability(t *testing.T) {
	store := memory.NewStore()
	service := NewSessionService(store, capacity.NewManager(), nil)
	ctx := context.Background()

	session := &domain.TrainingSession{ActivityType: "swimming", StartsAt: time.Now().Add(time.Hour), MaxParticipants: 5}
	seed(t, store, session)
	require.NoError(t, store.InTx(ctx, func(ctx context.Context, tx repository.Tx) error {
		return tx.Bookings().Create(ctx, &domain.Booking{UserID: 1, SessionID: session.ID, EntitlementType: domain.EntitlementPaid,
			Weight: 2, Status: domain.BookingStatusActive})
	}))

	availability, err := service.GetAvailability(ctx, session.ID)

	require.NoError(t, err)
	assert.Equal(t, 2, availability.Occupied)
	assert.Equal(t, 3, availability.Remaining)

	_, err = service.GetAvailability(ctx, 999)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestSessionService_Invalidate(t *testing.T) {
	mockCache := &MockCache{}
	service := NewSessionService(memory.NewStore(), capacity.NewManager(), mockCache)
	ctx := context.Background()

	mockCache.On("InvalidateSessions", ctx).Return(errors.New("timeout")).Once()

	assert.NotPanics(t, func() { service.Invalidate(ctx) })
	mockCache.AssertExpectations(t)
}
