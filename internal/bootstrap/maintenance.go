package bootstrap

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/Domenick1991/activitybooking/config"
	"github.com/Domenick1991/activitybooking/internal/domain"
	"go.uber.org/zap"
)

// ErrInProcessStorage is returned when a process that needs shared state is configured with the memory driver.
var ErrInProcessStorage = errors.New("memory storage is private to one process, run the background jobs inside the app instead")

type PendingSweeper interface {
	ExpirePendingBookings(ctx context.Context) ([]domain.Booking, error)
}

type RefundRetrier interface {
	RetryFailedRefunds(ctx context.Context) (int, error)
}

// Maintenance runs the periodic reconciliation jobs: expiring unpaid pending bookings and retrying failed refunds.
type Maintenance struct {
	sweeper    PendingSweeper
	refunds    RefundRetrier
	sweepEvery time.Duration
	retryEvery time.Duration
}

func NewMaintenance(cfg config.WorkerConfig, sweeper PendingSweeper, refunds RefundRetrier) *Maintenance {
	return &Maintenance{
		sweeper:    sweeper,
		refunds:    refunds,
		sweepEvery: cfg.ExpirationSweepInterval(),
		retryEvery: cfg.RefundRetryInterval(),
	}
}

// RequireSharedStorage rejects storage a standalone worker cannot see.
func RequireSharedStorage(cfg config.StorageConfig) error {
	if cfg.InProcess() {
		return ErrInProcessStorage
	}
	return nil
}

// Run blocks until ctx is cancelled.
func (m *Maintenance) Run(ctx context.Context) {
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		every(ctx, m.sweepEvery, func() { m.expirePending(ctx) })
	}()
	go func() {
		defer wg.Done()
		every(ctx, m.retryEvery, func() { m.retryRefunds(ctx) })
	}()
	wg.Wait()
}

func (m *Maintenance) expirePending(ctx context.Context) {
	expired, err := m.sweeper.ExpirePendingBookings(ctx)
	if err != nil {
		zap.L().Error("expire pending bookings", zap.Error(err))
		return
	}
	if len(expired) > 0 {
		zap.L().Info("pending bookings expired", zap.Int("count", len(expired)))
	}
}

func (m *Maintenance) retryRefunds(ctx context.Context) {
	if _, err := m.refunds.RetryFailedRefunds(ctx); err != nil {
		zap.L().Error("retry failed refunds", zap.Error(err))
	}
}

func every(ctx context.Context, interval time.Duration, run func()) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			run()
		case <-ctx.Done():
			return
		}
	}
}
