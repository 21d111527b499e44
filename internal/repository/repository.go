package repository

import (
	"context"
	"time"

	"github.com/Domenick1991/activitybooking/internal/domain"
)

// Store runs fn inside one storage transaction. A non-nil error from fn rolls everything back.
type Store interface {
	InTx(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error
}

// Tx exposes the repositories bound to a single transaction.
type Tx interface {
	Sessions() SessionRepository
	Bookings() BookingRepository
	Passes() PassRepository
	Credits() CreditRepository
	CreditOptions() CreditOptionRepository
}

type SessionRepository interface {
	Create(ctx context.Context, session *domain.TrainingSession) error
	GetByID(ctx context.Context, id int64) (*domain.TrainingSession, error)
	// LockByID reads the session and holds its row lock until the transaction ends.
	LockByID(ctx context.Context, id int64) (*domain.TrainingSession, error)
	List(ctx context.Context) ([]domain.TrainingSession, error)
	MarkCancelled(ctx context.Context, id int64, reason string, at time.Time) error
	Delete(ctx context.Context, id int64, at time.Time) error
}

type BookingRepository interface {
	Create(ctx context.Context, booking *domain.Booking) error
	GetByID(ctx context.Context, id int64) (*domain.Booking, error)
	LockByID(ctx context.Context, id int64) (*domain.Booking, error)
	LockByGatewayToken(ctx context.Context, token string) (*domain.Booking, error)
	// GetByReplacement returns the booking that was replaced by the given one.
	GetByReplacement(ctx context.Context, replacementID int64) (*domain.Booking, error)
	Update(ctx context.Context, booking *domain.Booking) error
	// HeldWeight sums the weight of pending and active bookings of a session.
	HeldWeight(ctx context.Context, sessionID int64) (int, error)
	ListHeldBySession(ctx context.Context, sessionID int64) ([]domain.Booking, error)
	ListByUser(ctx context.Context, userID int64) ([]domain.Booking, error)
	// LockPendingBefore locks up to limit pending bookings whose hold expired, skipping rows locked elsewhere.
	LockPendingBefore(ctx context.Context, deadline time.Time, limit int) ([]domain.Booking, error)
	LockRefundFailed(ctx context.Context, limit int) ([]domain.Booking, error)
}

type PassRepository interface {
	Create(ctx context.Context, pass *domain.SeasonPass) error
	GetByID(ctx context.Context, id int64) (*domain.SeasonPass, error)
	LockByID(ctx context.Context, id int64) (*domain.SeasonPass, error)
	UpdateRemaining(ctx context.Context, id int64, remaining int) error
	ListByOwner(ctx context.Context, ownerID int64) ([]domain.SeasonPass, error)
}

type CreditRepository interface {
	Create(ctx context.Context, credit *domain.Credit) error
	GetByID(ctx context.Context, id int64) (*domain.Credit, error)
	LockByID(ctx context.Context, id int64) (*domain.Credit, error)
	MarkConsumed(ctx context.Context, id, bookingID int64, at time.Time) error
	ListByOwner(ctx context.Context, ownerID int64) ([]domain.Credit, error)
}

type CreditOptionRepository interface {
	Create(ctx context.Context, option *domain.CreditOption) error
	LockByToken(ctx context.Context, token string) (*domain.CreditOption, error)
	GetByBookingID(ctx context.Context, bookingID int64) (*domain.CreditOption, error)
	MarkProcessed(ctx context.Context, token string, creditID int64, at time.Time) error
}
