// Package capacity owns session occupancy. Occupancy is the summed weight of pending and active
// bookings, and a booking row in one of those states is the hold itself.
package capacity

import (
	"context"
	"fmt"
	"time"

	"github.com/Domenick1991/activitybooking/internal/domain"
	"github.com/Domenick1991/activitybooking/internal/repository"
)

type Manager struct {
	now func() time.Time
}

func NewManager() *Manager {
	return &Manager{now: time.Now}
}

// Reserve places booking as a hold on its session. The session row stays locked until tx ends,
// so concurrent reservations for the same session are serialised on the occupancy check.
func (m *Manager) Reserve(ctx context.Context, tx repository.Tx, booking *domain.Booking) (*domain.TrainingSession, error) {
	if booking.Weight <= 0 {
		return nil, fmt.Errorf("weight must be positive -> %w", domain.ErrInvalidInput)
	}
	if !booking.Status.HoldsCapacity() {
		return nil, fmt.Errorf("booking status %q cannot hold capacity -> %w", booking.Status, domain.ErrInvalidInput)
	}

	session, err := tx.Sessions().LockByID(ctx, booking.SessionID)
	if err != nil {
		return nil, fmt.Errorf("tx.Sessions.LockByID -> %w", err)
	}
	if !session.Bookable(m.now()) {
		return nil, domain.ErrSessionUnavailable
	}

	held, err := tx.Bookings().HeldWeight(ctx, session.ID)
	if err != nil {
		return nil, fmt.Errorf("tx.Bookings.HeldWeight -> %w", err)
	}
	if held+booking.Weight > session.MaxParticipants {
		return nil, domain.ErrCapacityExceeded
	}

	if err := tx.Bookings().Create(ctx, booking); err != nil {
		return nil, fmt.Errorf("tx.Bookings.Create -> %w", err)
	}
	return session, nil
}

// Release moves a holding booking into a status that no longer counts against capacity.
func (m *Manager) Release(ctx context.Context, tx repository.Tx, booking *domain.Booking, to domain.BookingStatus) error {
	if !booking.Status.HoldsCapacity() {
		return fmt.Errorf("booking %d in status %q holds nothing -> %w", booking.ID, booking.Status, domain.ErrInvalidInput)
	}
	if to.HoldsCapacity() {
		return fmt.Errorf("release to %q keeps the hold -> %w", to, domain.ErrInvalidInput)
	}

	booking.Status = to
	booking.PendingExpiresAt = nil
	if err := tx.Bookings().Update(ctx, booking); err != nil {
		return fmt.Errorf("tx.Bookings.Update -> %w", err)
	}
	return nil
}

func (m *Manager) Availability(ctx context.Context, tx repository.Tx, sessionID int64) (*domain.Availability, error) {
	session, err := tx.Sessions().GetByID(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("tx.Sessions.GetByID -> %w", err)
	}
	held, err := tx.Bookings().HeldWeight(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("tx.Bookings.HeldWeight -> %w", err)
	}

	remaining := session.MaxParticipants - held
	if remaining < 0 || session.Cancelled {
		remaining = 0
	}
	return &domain.Availability{Session: *session, Occupied: held, Remaining: remaining}, nil
}
