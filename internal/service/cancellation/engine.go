// Package cancellation moves active bookings into exactly one terminal compensation state.
package cancellation

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Domenick1991/activitybooking/internal/domain"
	"github.com/Domenick1991/activitybooking/internal/gateway"
	"github.com/Domenick1991/activitybooking/internal/kafka"
	"github.com/Domenick1991/activitybooking/internal/metrics"
	"github.com/Domenick1991/activitybooking/internal/repository"
	"github.com/Domenick1991/activitybooking/internal/service/capacity"
	"github.com/Domenick1991/activitybooking/internal/service/ledger"
	"go.uber.org/zap"
)

// maxReplacementDepth bounds the walk back to the booking that carries the payment token.
const maxReplacementDepth = 16

type Notifier interface {
	Emit(ctx context.Context, event kafka.Event)
}

type Settings struct {
	Cutoff         time.Duration
	RetryBatchSize int
}

type Engine struct {
	store    repository.Store
	capacity *capacity.Manager
	ledger   *ledger.Ledger
	gateway  gateway.Gateway
	notifier Notifier
	settings Settings
	now      func() time.Time
}

type Option func(*Engine)

func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		e.now = now
	}
}

func NewEngine(
	store repository.Store,
	capacity *capacity.Manager,
	ledger *ledger.Ledger,
	gw gateway.Gateway,
	notifier Notifier,
	settings Settings,
	opts ...Option,
) *Engine {
	if settings.RetryBatchSize <= 0 {
		settings.RetryBatchSize = 50
	}
	if notifier == nil {
		notifier = discardNotifier{}
	}
	e := &Engine{
		store:    store,
		capacity: capacity,
		ledger:   ledger,
		gateway:  gw,
		notifier: notifier,
		settings: settings,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

type CancelRequest struct {
	BookingID       int64
	Actor           domain.Actor
	Remedy          domain.Remedy
	TargetSessionID *int64
	// Force skips the cutoff guard. Admin only.
	Force bool
}

type CancelResult struct {
	Booking     *domain.Booking
	Credit      *domain.Credit
	Pass        *domain.SeasonPass
	Replacement *domain.Booking
	// Anomaly is set when the refund could not be executed. The cancellation itself still stands.
	Anomaly error
}

func (r *CancelResult) RefundPending() bool {
	return r.Anomaly != nil
}

func (e *Engine) Cancel(ctx context.Context, req CancelRequest) (*CancelResult, error) {
	if req.Force && !req.Actor.Admin {
		return nil, domain.ErrForbidden
	}

	var (
		result  CancelResult
		session *domain.TrainingSession
		token   string
	)
	err := e.store.InTx(ctx, func(ctx context.Context, tx repository.Tx) error {
		booking, err := tx.Bookings().LockByID(ctx, req.BookingID)
		if err != nil {
			return fmt.Errorf("tx.Bookings.LockByID -> %w", err)
		}
		if !req.Actor.CanAccess(booking.UserID) {
			return domain.ErrForbidden
		}
		if booking.Status.Cancelled() {
			return domain.ErrAlreadyCancelled
		}
		if !booking.Active() {
			return domain.ErrBookingNotActive
		}

		session, err = tx.Sessions().GetByID(ctx, booking.SessionID)
		if err != nil {
			return fmt.Errorf("tx.Sessions.GetByID -> %w", err)
		}
		now := e.now()
		if !req.Force && !now.Before(session.CancellationDeadline(e.settings.Cutoff)) {
			return domain.ErrCutoffWindowPassed
		}
		if !req.Remedy.AllowedFor(booking.EntitlementType) {
			return fmt.Errorf("%q for %s booking -> %w", req.Remedy, booking.EntitlementType, domain.ErrInvalidRemedy)
		}

		switch req.Remedy {
		case domain.RemedyRefund:
			booking.RefundState = domain.RefundStateRequested
			if token, err = paymentToken(ctx, tx, booking); err != nil {
				return err
			}
		case domain.RemedyCredit:
			if result.Credit, err = e.ledger.IssueCredit(ctx, tx, booking.UserID, session.ActivityType, &booking.ID); err != nil {
				return fmt.Errorf("ledger.IssueCredit -> %w", err)
			}
		case domain.RemedyReturn:
			if err := e.returnEntitlement(ctx, tx, booking, &result); err != nil {
				return err
			}
		case domain.RemedyReplacement:
			if result.Replacement, err = e.replace(ctx, tx, booking, session, req.TargetSessionID); err != nil {
				return err
			}
			booking.ReplacedBy = &result.Replacement.ID
		}

		booking.CancelledAt = &now
		if err := e.capacity.Release(ctx, tx, booking, req.Remedy.Status()); err != nil {
			return fmt.Errorf("capacity.Release -> %w", err)
		}
		result.Booking = booking
		return nil
	})
	if err != nil {
		return nil, err
	}

	if req.Remedy == domain.RemedyRefund {
		result.Anomaly = e.settleRefund(ctx, result.Booking, token)
	}

	metrics.Cancellation(string(req.Remedy), req.Force)
	zap.L().Info("booking cancelled",
		zap.Int64("booking_id", result.Booking.ID),
		zap.String("remedy", string(req.Remedy)),
		zap.Bool("forced", req.Force),
		zap.Int64("actor", req.Actor.UserID),
	)
	e.emit(ctx, &result, session, req)
	return &result, nil
}

func (e *Engine) returnEntitlement(ctx context.Context, tx repository.Tx, booking *domain.Booking, result *CancelResult) error {
	if booking.EntitlementRef == nil {
		return fmt.Errorf("booking %d has no entitlement reference -> %w", booking.ID, domain.ErrInvariantViolation)
	}

	var err error
	if booking.EntitlementType == domain.EntitlementSeasonTicket {
		if result.Pass, err = e.ledger.RestorePass(ctx, tx, *booking.EntitlementRef, booking.Weight); err != nil {
			return fmt.Errorf("ledger.RestorePass -> %w", err)
		}
		return nil
	}

	original, err := tx.Credits().GetByID(ctx, *booking.EntitlementRef)
	if err != nil {
		return fmt.Errorf("tx.Credits.GetByID -> %w", err)
	}
	if result.Credit, err = e.ledger.IssueCredit(ctx, tx, booking.UserID, original.ActivityType, &booking.ID); err != nil {
		return fmt.Errorf("ledger.IssueCredit -> %w", err)
	}
	return nil
}

// replace reserves the target before the source is released, so a full target leaves the source untouched.
// The entitlement moves with the booking and nothing is debited again.
func (e *Engine) replace(ctx context.Context, tx repository.Tx, source *domain.Booking, from *domain.TrainingSession, targetID *int64) (*domain.Booking, error) {
	if targetID == nil {
		return nil, domain.ErrTargetRequired
	}
	if *targetID == source.SessionID {
		return nil, fmt.Errorf("target is the booked session -> %w", domain.ErrInvalidInput)
	}

	target, err := tx.Sessions().GetByID(ctx, *targetID)
	if err != nil {
		return nil, fmt.Errorf("tx.Sessions.GetByID -> %w", err)
	}
	if target.ActivityType != from.ActivityType {
		return nil, domain.ErrActivityMismatch
	}

	replacement := &domain.Booking{
		UserID:             source.UserID,
		SessionID:          target.ID,
		EntitlementType:    source.EntitlementType,
		EntitlementRef:     source.EntitlementRef,
		Weight:             source.Weight,
		AmountDue:          source.AmountDue,
		AmountPaid:         source.AmountPaid,
		Status:             domain.BookingStatusActive,
		AccompanyingPerson: source.AccompanyingPerson,
		Note:               source.Note,
	}
	if _, err := e.capacity.Reserve(ctx, tx, replacement); err != nil {
		if errors.Is(err, domain.ErrCapacityExceeded) {
			return nil, domain.ErrTargetSessionFull
		}
		return nil, fmt.Errorf("capacity.Reserve -> %w", err)
	}
	return replacement, nil
}

// paymentToken finds the checkout that paid for booking. Replacements carry no token of their own.
func paymentToken(ctx context.Context, tx repository.Tx, booking *domain.Booking) (string, error) {
	current := booking
	for i := 0; i < maxReplacementDepth; i++ {
		if current.GatewayToken != "" {
			return current.GatewayToken, nil
		}
		previous, err := tx.Bookings().GetByReplacement(ctx, current.ID)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				break
			}
			return "", fmt.Errorf("tx.Bookings.GetByReplacement -> %w", err)
		}
		current = previous
	}
	return "", fmt.Errorf("no payment recorded for booking %d -> %w", booking.ID, domain.ErrInvariantViolation)
}

// settleRefund calls the gateway outside any transaction and records the outcome.
// A failed refund is returned as an anomaly for the caller to report, never as a rollback.
func (e *Engine) settleRefund(ctx context.Context, booking *domain.Booking, token string) error {
	var (
		refundID string
		gwErr    error
	)
	if booking.AmountPaid.IsPositive() {
		refundID, gwErr = e.gateway.Refund(ctx, gateway.RefundRequest{
			BookingID:    booking.ID,
			GatewayToken: token,
			Amount:       booking.AmountPaid,
		})
	}

	state := domain.RefundStateCompleted
	if gwErr != nil {
		state = domain.RefundStateFailed
	}
	err := e.store.InTx(ctx, func(ctx context.Context, tx repository.Tx) error {
		current, err := tx.Bookings().LockByID(ctx, booking.ID)
		if err != nil {
			return fmt.Errorf("tx.Bookings.LockByID -> %w", err)
		}
		if current.RefundState == domain.RefundStateCompleted {
			*booking = *current
			return nil
		}
		current.RefundState = state
		current.RefundID = refundID
		if err := tx.Bookings().Update(ctx, current); err != nil {
			return fmt.Errorf("tx.Bookings.Update -> %w", err)
		}
		*booking = *current
		return nil
	})
	if err != nil {
		zap.L().Error("refund outcome not recorded",
			zap.Int64("booking_id", booking.ID),
			zap.String("state", string(state)),
			zap.String("refund_id", refundID),
			zap.Error(err),
		)
	}

	if gwErr != nil {
		metrics.GatewayAnomaly("refund")
		zap.L().Error("refund failed, left for reconciliation",
			zap.Int64("booking_id", booking.ID),
			zap.String("amount", booking.AmountPaid.StringFixed(2)),
			zap.Error(gwErr),
		)
		if errors.Is(gwErr, domain.ErrGatewayUnavailable) {
			return gwErr
		}
		return fmt.Errorf("%v -> %w", gwErr, domain.ErrGatewayUnavailable)
	}
	return nil
}

// RetryFailedRefunds re-attempts refunds the gateway rejected earlier. Claimed rows move back to
// requested first so a second worker does not pick them up.
func (e *Engine) RetryFailedRefunds(ctx context.Context) (int, error) {
	type claim struct {
		booking *domain.Booking
		token   string
	}

	var claims []claim
	err := e.store.InTx(ctx, func(ctx context.Context, tx repository.Tx) error {
		failed, err := tx.Bookings().LockRefundFailed(ctx, e.settings.RetryBatchSize)
		if err != nil {
			return fmt.Errorf("tx.Bookings.LockRefundFailed -> %w", err)
		}
		for i := range failed {
			b := &failed[i]
			token, err := paymentToken(ctx, tx, b)
			if errors.Is(err, domain.ErrInvariantViolation) {
				zap.L().Error("refund cannot be retried, needs manual reconciliation", zap.Int64("booking_id", b.ID), zap.Error(err))
				b.RefundState = domain.RefundStateManual
				if err := tx.Bookings().Update(ctx, b); err != nil {
					return fmt.Errorf("tx.Bookings.Update -> %w", err)
				}
				continue
			}
			if err != nil {
				return fmt.Errorf("paymentToken -> %w", err)
			}
			b.RefundState = domain.RefundStateRequested
			if err := tx.Bookings().Update(ctx, b); err != nil {
				return fmt.Errorf("tx.Bookings.Update -> %w", err)
			}
			claims = append(claims, claim{booking: b, token: token})
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	settled := 0
	for _, c := range claims {
		if err := e.settleRefund(ctx, c.booking, c.token); err == nil {
			settled++
		}
	}
	if len(claims) > 0 {
		zap.L().Info("refund retry pass", zap.Int("attempted", len(claims)), zap.Int("settled", settled))
	}
	return settled, nil
}

func (e *Engine) emit(ctx context.Context, result *CancelResult, session *domain.TrainingSession, req CancelRequest) {
	startsAt := session.StartsAt
	event := kafka.Event{
		Type:          kafka.EventBookingCancelled,
		UserID:        result.Booking.UserID,
		BookingID:     result.Booking.ID,
		SessionID:     session.ID,
		ActivityType:  session.ActivityType,
		StartsAt:      &startsAt,
		Weight:        result.Booking.Weight,
		Remedy:        string(req.Remedy),
		Forced:        req.Force,
		RefundPending: result.RefundPending(),
	}
	if req.Remedy == domain.RemedyRefund {
		event.Amount = result.Booking.AmountPaid.StringFixed(2)
	}
	if result.Replacement != nil {
		event.ReplacementBookingID = result.Replacement.ID
	}
	e.notifier.Emit(ctx, event)

	if result.Credit != nil {
		e.notifier.Emit(ctx, kafka.Event{
			Type:         kafka.EventCreditIssued,
			UserID:       result.Credit.OwnerID,
			BookingID:    result.Booking.ID,
			CreditID:     result.Credit.ID,
			ActivityType: result.Credit.ActivityType,
		})
	}
}

type discardNotifier struct{}

func (discardNotifier) Emit(context.Context, kafka.Event) {}
