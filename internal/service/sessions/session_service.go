package sessions

import (
	"context"
	"fmt"

	"github.com/Domenick1991/activitybooking/internal/domain"
	"github.com/Domenick1991/activitybooking/internal/metrics"
	"github.com/Domenick1991/activitybooking/internal/repository"
	"github.com/Domenick1991/activitybooking/internal/service/capacity"
	"go.uber.org/zap"
)

type SessionUseCase interface {
	List(ctx context.Context) ([]domain.TrainingSession, error)
	GetAvailability(ctx context.Context, id int64) (*domain.Availability, error)
}

// Cache holds the catalogue only. Occupancy is always read from the store.
type Cache interface {
	GetSessions(ctx context.Context) ([]domain.TrainingSession, error)
	SetSessions(ctx context.Context, sessions []domain.TrainingSession) error
	InvalidateSessions(ctx context.Context) error
}

type SessionService struct {
	store    repository.Store
	capacity *capacity.Manager
	cache    Cache
}

func NewSessionService(store repository.Store, capacity *capacity.Manager, cache Cache) *SessionService {
	return &SessionService{store: store, capacity: capacity, cache: cache}
}

func (s *SessionService) List(ctx context.Context) ([]domain.TrainingSession, error) {
	if s.cache != nil {
		cached, err := s.cache.GetSessions(ctx)
		if err != nil {
			zap.L().Warn("sessions cache read failed", zap.Error(err))
		}
		if err == nil && cached != nil {
			metrics.CacheLookup(true)
			return cached, nil
		}
		metrics.CacheLookup(false)
	}

	var sessions []domain.TrainingSession
	err := s.store.InTx(ctx, func(ctx context.Context, tx repository.Tx) error {
		var err error
		sessions, err = tx.Sessions().List(ctx)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("tx.Sessions.List -> %w", err)
	}
	if sessions == nil {
		sessions = []domain.TrainingSession{}
	}

	if s.cache != nil {
		if err := s.cache.SetSessions(ctx, sessions); err != nil {
			zap.L().Warn("sessions cache write failed", zap.Error(err))
		}
	}
	return sessions, nil
}

func (s *SessionService) GetAvailability(ctx context.Context, id int64) (*domain.Availability, error) {
	var availability *domain.Availability
	err := s.store.InTx(ctx, func(ctx context.Context, tx repository.Tx) error {
		var err error
		availability, err = s.capacity.Availability(ctx, tx, id)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("capacity.Availability -> %w", err)
	}
	return availability, nil
}

// Invalidate drops the cached catalogue after a write. Failures only cost freshness until the TTL runs out.
func (s *SessionService) Invalidate(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.InvalidateSessions(ctx); err != nil {
		zap.L().Warn("sessions cache invalidation failed", zap.Error(err))
	}
}

var _ SessionUseCase = (*SessionService)(nil)
