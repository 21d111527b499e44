package admin

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/Domenick1991/activitybooking/internal/domain"
	"github.com/Domenick1991/activitybooking/internal/kafka"
	"github.com/Domenick1991/activitybooking/internal/metrics"
	"github.com/Domenick1991/activitybooking/internal/repository"
	"github.com/Domenick1991/activitybooking/internal/service/cancellation"
	"github.com/Domenick1991/activitybooking/internal/service/ledger"
	"go.uber.org/zap"
)

type AdminUseCase interface {
	ForceCancelSession(ctx context.Context, actor domain.Actor, sessionID int64, reason string) (*CascadeResult, error)
	DeleteSession(ctx context.Context, actor domain.Actor, sessionID int64) error
	CreateSession(ctx context.Context, actor domain.Actor, input CreateSessionInput) (*domain.TrainingSession, error)
	IssuePass(ctx context.Context, actor domain.Actor, input IssuePassInput) (*domain.SeasonPass, error)
	GrantCredit(ctx context.Context, actor domain.Actor, input GrantCreditInput) (*domain.Credit, error)
}

type Canceller interface {
	Cancel(ctx context.Context, req cancellation.CancelRequest) (*cancellation.CancelResult, error)
}

type PendingDiscarder interface {
	DiscardPending(ctx context.Context, bookingID int64) (*domain.Booking, error)
}

type Catalogue interface {
	Invalidate(ctx context.Context)
}

type Notifier interface {
	Emit(ctx context.Context, event kafka.Event)
}

type AdminService struct {
	store      repository.Store
	ledger     *ledger.Ledger
	canceller  Canceller
	pending    PendingDiscarder
	catalogue  Catalogue
	notifier   Notifier
	paidRemedy domain.Remedy
	now        func() time.Time
}

func NewAdminService(
	store repository.Store,
	ledger *ledger.Ledger,
	canceller Canceller,
	pending PendingDiscarder,
	catalogue Catalogue,
	notifier Notifier,
	paidRemedy domain.Remedy,
) *AdminService {
	if paidRemedy != domain.RemedyCredit {
		paidRemedy = domain.RemedyRefund
	}
	return &AdminService{
		store:      store,
		ledger:     ledger,
		canceller:  canceller,
		pending:    pending,
		catalogue:  catalogue,
		notifier:   notifier,
		paidRemedy: paidRemedy,
		now:        time.Now,
	}
}

type CascadeFailure struct {
	BookingID int64
	Err       error
	// Cancelled is true when the booking reached a terminal state but its compensation needs attention.
	Cancelled bool
}

type CascadeResult struct {
	SessionID int64
	Cancelled []int64
	Discarded []int64
	Failures  []CascadeFailure
}

// ForceCancelSession closes a session and compensates every booking still holding a place.
// Bookings are handled one by one and a failure never stops the rest. Running it again resumes
// with whatever still holds capacity.
func (s *AdminService) ForceCancelSession(ctx context.Context, actor domain.Actor, sessionID int64, reason string) (*CascadeResult, error) {
	if !actor.Admin {
		return nil, domain.ErrForbidden
	}

	var (
		session *domain.TrainingSession
		held    []domain.Booking
	)
	err := s.store.InTx(ctx, func(ctx context.Context, tx repository.Tx) error {
		if err := tx.Sessions().MarkCancelled(ctx, sessionID, reason, s.now()); err != nil {
			return fmt.Errorf("tx.Sessions.MarkCancelled -> %w", err)
		}
		var err error
		if session, err = tx.Sessions().GetByID(ctx, sessionID); err != nil {
			return fmt.Errorf("tx.Sessions.GetByID -> %w", err)
		}
		if held, err = tx.Bookings().ListHeldBySession(ctx, sessionID); err != nil {
			return fmt.Errorf("tx.Bookings.ListHeldBySession -> %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.invalidate(ctx)

	result := &CascadeResult{SessionID: sessionID, Cancelled: []int64{}, Discarded: []int64{}, Failures: []CascadeFailure{}}
	users := map[int64]struct{}{}
	for _, b := range held {
		users[b.UserID] = struct{}{}
		s.compensate(ctx, actor, b, result)
	}

	for _, f := range result.Failures {
		metrics.CascadeFailure()
		zap.L().Error("force cancel left a booking for follow-up",
			zap.Int64("session_id", sessionID),
			zap.Int64("booking_id", f.BookingID),
			zap.Bool("cancelled", f.Cancelled),
			zap.Error(f.Err),
		)
	}

	ids := make([]int64, 0, len(users))
	for id := range users {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	startsAt := session.StartsAt
	for _, userID := range ids {
		s.notify(ctx, kafka.Event{
			Type:         kafka.EventSessionForceCancelled,
			UserID:       userID,
			SessionID:    sessionID,
			ActivityType: session.ActivityType,
			StartsAt:     &startsAt,
			Reason:       reason,
		})
	}

	zap.L().Info("session force cancelled",
		zap.Int64("session_id", sessionID),
		zap.Int64("admin", actor.UserID),
		zap.Int("cancelled", len(result.Cancelled)),
		zap.Int("discarded", len(result.Discarded)),
		zap.Int("failures", len(result.Failures)),
	)
	return result, nil
}

func (s *AdminService) compensate(ctx context.Context, actor domain.Actor, b domain.Booking, result *CascadeResult) {
	if b.Status == domain.BookingStatusPending {
		_, err := s.pending.DiscardPending(ctx, b.ID)
		if err == nil {
			result.Discarded = append(result.Discarded, b.ID)
			return
		}
		if !errors.Is(err, domain.ErrBookingNotPending) {
			result.Failures = append(result.Failures, CascadeFailure{BookingID: b.ID, Err: err})
			return
		}
		// The payment landed in between. Fall through and cancel the now active booking.
	}

	remedy := domain.RemedyReturn
	if b.EntitlementType == domain.EntitlementPaid {
		remedy = s.paidRemedy
	}
	res, err := s.canceller.Cancel(ctx, cancellation.CancelRequest{BookingID: b.ID, Actor: actor, Remedy: remedy, Force: true})
	switch {
	case err == nil:
		result.Cancelled = append(result.Cancelled, b.ID)
		if res.Anomaly != nil {
			result.Failures = append(result.Failures, CascadeFailure{BookingID: b.ID, Err: res.Anomaly, Cancelled: true})
		}
	case errors.Is(err, domain.ErrAlreadyCancelled):
		result.Cancelled = append(result.Cancelled, b.ID)
	case errors.Is(err, domain.ErrBookingNotActive):
		// Expired or discarded by a concurrent sweep. Nothing holds capacity any more.
		result.Discarded = append(result.Discarded, b.ID)
	default:
		result.Failures = append(result.Failures, CascadeFailure{BookingID: b.ID, Err: err})
	}
}

// DeleteSession removes a cancelled session once nothing holds capacity on it.
func (s *AdminService) DeleteSession(ctx context.Context, actor domain.Actor, sessionID int64) error {
	if !actor.Admin {
		return domain.ErrForbidden
	}

	err := s.store.InTx(ctx, func(ctx context.Context, tx repository.Tx) error {
		session, err := tx.Sessions().LockByID(ctx, sessionID)
		if err != nil {
			return fmt.Errorf("tx.Sessions.LockByID -> %w", err)
		}
		if !session.Cancelled {
			return domain.ErrSessionNotCancellable
		}
		held, err := tx.Bookings().HeldWeight(ctx, sessionID)
		if err != nil {
			return fmt.Errorf("tx.Bookings.HeldWeight -> %w", err)
		}
		if held > 0 {
			return domain.ErrSessionNotCancellable
		}
		if err := tx.Sessions().Delete(ctx, sessionID, s.now()); err != nil {
			return fmt.Errorf("tx.Sessions.Delete -> %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.invalidate(ctx)
	zap.L().Info("session deleted", zap.Int64("session_id", sessionID), zap.Int64("admin", actor.UserID))
	return nil
}

type CreateSessionInput struct {
	ActivityType    string
	StartsAt        time.Time
	Duration        time.Duration
	MaxParticipants int
}

func (s *AdminService) CreateSession(ctx context.Context, actor domain.Actor, input CreateSessionInput) (*domain.TrainingSession, error) {
	if !actor.Admin {
		return nil, domain.ErrForbidden
	}
	switch {
	case input.ActivityType == "":
		return nil, fmt.Errorf("activity_type is required -> %w", domain.ErrInvalidInput)
	case input.MaxParticipants <= 0:
		return nil, fmt.Errorf("max_participants must be positive -> %w", domain.ErrInvalidInput)
	case input.Duration <= 0:
		return nil, fmt.Errorf("duration must be positive -> %w", domain.ErrInvalidInput)
	case !input.StartsAt.After(s.now()):
		return nil, fmt.Errorf("starts_at must be in the future -> %w", domain.ErrInvalidInput)
	}

	session := &domain.TrainingSession{
		ActivityType:    input.ActivityType,
		StartsAt:        input.StartsAt,
		Duration:        input.Duration,
		MaxParticipants: input.MaxParticipants,
	}
	err := s.store.InTx(ctx, func(ctx context.Context, tx repository.Tx) error {
		return tx.Sessions().Create(ctx, session)
	})
	if err != nil {
		return nil, fmt.Errorf("tx.Sessions.Create -> %w", err)
	}

	s.invalidate(ctx)
	return session, nil
}

type IssuePassInput struct {
	OwnerID      int64
	ActivityType string
	Entries      int
	PurchasedAt  time.Time
}

// IssuePass records a pass sold outside the engine.
func (s *AdminService) IssuePass(ctx context.Context, actor domain.Actor, input IssuePassInput) (*domain.SeasonPass, error) {
	if !actor.Admin {
		return nil, domain.ErrForbidden
	}
	if input.OwnerID <= 0 || input.ActivityType == "" {
		return nil, fmt.Errorf("owner_id and activity_type are required -> %w", domain.ErrInvalidInput)
	}
	purchasedAt := input.PurchasedAt
	if purchasedAt.IsZero() {
		purchasedAt = s.now()
	}

	var pass *domain.SeasonPass
	err := s.store.InTx(ctx, func(ctx context.Context, tx repository.Tx) error {
		var err error
		pass, err = s.ledger.IssuePass(ctx, tx, input.OwnerID, input.ActivityType, input.Entries, purchasedAt)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("ledger.IssuePass -> %w", err)
	}
	return pass, nil
}

type GrantCreditInput struct {
	OwnerID      int64
	ActivityType string
}

func (s *AdminService) GrantCredit(ctx context.Context, actor domain.Actor, input GrantCreditInput) (*domain.Credit, error) {
	if !actor.Admin {
		return nil, domain.ErrForbidden
	}
	if input.OwnerID <= 0 {
		return nil, fmt.Errorf("owner_id is required -> %w", domain.ErrInvalidInput)
	}

	var credit *domain.Credit
	err := s.store.InTx(ctx, func(ctx context.Context, tx repository.Tx) error {
		var err error
		credit, err = s.ledger.IssueCredit(ctx, tx, input.OwnerID, input.ActivityType, nil)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("ledger.IssueCredit -> %w", err)
	}

	s.notify(ctx, kafka.Event{Type: kafka.EventCreditIssued, UserID: credit.OwnerID, CreditID: credit.ID, ActivityType: credit.ActivityType})
	return credit, nil
}

func (s *AdminService) invalidate(ctx context.Context) {
	if s.catalogue != nil {
		s.catalogue.Invalidate(ctx)
	}
}

func (s *AdminService) notify(ctx context.Context, event kafka.Event) {
	if s.notifier != nil {
		s.notifier.Emit(ctx, event)
	}
}

var _ AdminUseCase = (*AdminService)(nil)
