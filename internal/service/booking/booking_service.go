package booking

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
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type BookingUseCase interface {
	CreateBooking(ctx context.Context, input CreateBookingInput) (*CreateBookingResult, error)
	ConfirmPayment(ctx context.Context, callback PaymentCallback) (*CallbackResult, error)
	FailPayment(ctx context.Context, callback PaymentCallback) (*CallbackResult, error)
	RedeemCreditOption(ctx context.Context, token string, actor domain.Actor) (*RedemptionResult, error)
	ExpirePendingBookings(ctx context.Context) ([]domain.Booking, error)
	DiscardPending(ctx context.Context, bookingID int64) (*domain.Booking, error)
	GetBooking(ctx context.Context, id int64, actor domain.Actor) (*domain.Booking, error)
	ListBookings(ctx context.Context, actor domain.Actor) ([]domain.Booking, error)
}

// CallbackLocker deduplicates concurrent deliveries of one gateway callback.
type CallbackLocker interface {
	AcquireCallbackLock(ctx context.Context, gatewayToken string) (bool, error)
	ReleaseCallbackLock(ctx context.Context, gatewayToken string) error
}

type Notifier interface {
	Emit(ctx context.Context, event kafka.Event)
}

type Settings struct {
	Prices          map[string]decimal.Decimal
	Currency        string
	PendingTTL      time.Duration
	CreditOptionTTL time.Duration
	SweepBatchSize  int
}

type BookingService struct {
	store    repository.Store
	capacity *capacity.Manager
	ledger   *ledger.Ledger
	gateway  gateway.Gateway
	notifier Notifier
	locks    CallbackLocker
	settings Settings
	now      func() time.Time
}

type BookingServiceOption func(*BookingService)

func WithCallbackLocker(locks CallbackLocker) BookingServiceOption {
	return func(s *BookingService) {
		s.locks = locks
	}
}

func WithClock(now func() time.Time) BookingServiceOption {
	return func(s *BookingService) {
		s.now = now
	}
}

func NewBookingService(
	store repository.Store,
	capacity *capacity.Manager,
	ledger *ledger.Ledger,
	gw gateway.Gateway,
	notifier Notifier,
	settings Settings,
	opts ...BookingServiceOption,
) *BookingService {
	if settings.SweepBatchSize <= 0 {
		settings.SweepBatchSize = 100
	}
	if notifier == nil {
		notifier = discardNotifier{}
	}
	service := &BookingService{
		store:    store,
		capacity: capacity,
		ledger:   ledger,
		gateway:  gw,
		notifier: notifier,
		settings: settings,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(service)
	}
	return service
}

type CreateBookingInput struct {
	UserID             int64
	SessionID          int64
	EntitlementType    domain.EntitlementType
	PassID             *int64
	CreditID           *int64
	Weight             int
	AccompanyingPerson bool
	Note               string
	TermsAccepted      bool
}

type CreateBookingResult struct {
	Booking     *domain.Booking
	CheckoutURL string
}

// PaymentCallback is what the gateway reports about a checkout. A nil Amount means the amount due was paid.
type PaymentCallback struct {
	GatewayToken string
	BookingID    int64
	Amount       *decimal.Decimal
}

type CallbackResult struct {
	Booking          *domain.Booking
	CreditOption     *domain.CreditOption
	AlreadyProcessed bool
}

type RedemptionResult struct {
	Outcome domain.RedemptionOutcome
	Credit  *domain.Credit
}

func (s *BookingService) CreateBooking(ctx context.Context, input CreateBookingInput) (*CreateBookingResult, error) {
	if err := validateCreate(input); err != nil {
		metrics.BookingRejected(rejectReason(err))
		return nil, err
	}

	var (
		result *CreateBookingResult
		err    error
	)
	switch input.EntitlementType {
	case domain.EntitlementPaid:
		result, err = s.createPaid(ctx, input)
	default:
		result, err = s.createPrepaid(ctx, input)
	}
	if err != nil {
		metrics.BookingRejected(rejectReason(err))
		return nil, err
	}
	metrics.BookingCreated(string(input.EntitlementType))
	return result, nil
}

func validateCreate(input CreateBookingInput) error {
	if !input.TermsAccepted {
		return domain.ErrConsentRequired
	}
	if input.Weight <= 0 {
		return fmt.Errorf("weight must be positive -> %w", domain.ErrInvalidInput)
	}
	switch input.EntitlementType {
	case domain.EntitlementPaid:
	case domain.EntitlementSeasonTicket:
		if input.PassID == nil {
			return fmt.Errorf("pass_id is required for season_ticket -> %w", domain.ErrInvalidInput)
		}
	case domain.EntitlementCredit:
		if input.CreditID == nil {
			return fmt.Errorf("credit_id is required for credit -> %w", domain.ErrInvalidInput)
		}
	default:
		return fmt.Errorf("unknown entitlement type %q -> %w", input.EntitlementType, domain.ErrInvalidInput)
	}
	return nil
}

// createPrepaid reserves and debits the entitlement in one transaction, so a failed debit leaves no hold behind.
func (s *BookingService) createPrepaid(ctx context.Context, input CreateBookingInput) (*CreateBookingResult, error) {
	booking := newBooking(input, domain.BookingStatusActive)
	if input.EntitlementType == domain.EntitlementSeasonTicket {
		booking.EntitlementRef = input.PassID
	} else {
		booking.EntitlementRef = input.CreditID
	}

	var session *domain.TrainingSession
	err := s.store.InTx(ctx, func(ctx context.Context, tx repository.Tx) error {
		var err error
		session, err = s.capacity.Reserve(ctx, tx, booking)
		if err != nil {
			return fmt.Errorf("capacity.Reserve -> %w", err)
		}

		now := s.now()
		if input.EntitlementType == domain.EntitlementSeasonTicket {
			if _, err := s.ledger.ConsumePass(ctx, tx, *input.PassID, input.UserID, session.ActivityType, input.Weight, now); err != nil {
				return fmt.Errorf("ledger.ConsumePass -> %w", err)
			}
			return nil
		}
		if _, err := s.ledger.ConsumeCredit(ctx, tx, *input.CreditID, input.UserID, session.ActivityType, booking.ID, now); err != nil {
			return fmt.Errorf("ledger.ConsumeCredit -> %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	zap.L().Info("booking created",
		zap.Int64("booking_id", booking.ID),
		zap.Int64("session_id", booking.SessionID),
		zap.String("entitlement", string(booking.EntitlementType)),
		zap.Int("weight", booking.Weight),
	)
	s.notifier.Emit(ctx, confirmedEvent(booking, session))
	return &CreateBookingResult{Booking: booking}, nil
}

// createPaid holds the places while the user pays. The gateway is called between two transactions
// so no row lock is held across the network call.
func (s *BookingService) createPaid(ctx context.Context, input CreateBookingInput) (*CreateBookingResult, error) {
	booking := newBooking(input, domain.BookingStatusPending)
	expiresAt := s.now().Add(s.settings.PendingTTL)
	booking.PendingExpiresAt = &expiresAt

	var (
		session *domain.TrainingSession
		unit    decimal.Decimal
	)
	err := s.store.InTx(ctx, func(ctx context.Context, tx repository.Tx) error {
		current, err := tx.Sessions().GetByID(ctx, input.SessionID)
		if err != nil {
			return fmt.Errorf("tx.Sessions.GetByID -> %w", err)
		}
		price, ok := s.settings.Prices[current.ActivityType]
		if !ok {
			return fmt.Errorf("activity %q -> %w", current.ActivityType, domain.ErrPriceUnavailable)
		}
		unit = price
		booking.AmountDue = price.Mul(decimal.NewFromInt(int64(input.Weight)))

		session, err = s.capacity.Reserve(ctx, tx, booking)
		if err != nil {
			return fmt.Errorf("capacity.Reserve -> %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	checkout, gwErr := s.gateway.CreateCheckout(ctx, gateway.CheckoutRequest{
		BookingID:   booking.ID,
		UnitAmount:  unit,
		Quantity:    booking.Weight,
		Currency:    s.settings.Currency,
		Description: fmt.Sprintf("%s session on %s", session.ActivityType, session.StartsAt.Format("2006-01-02 15:04")),
	})

	err = s.store.InTx(ctx, func(ctx context.Context, tx repository.Tx) error {
		current, err := tx.Bookings().LockByID(ctx, booking.ID)
		if err != nil {
			return fmt.Errorf("tx.Bookings.LockByID -> %w", err)
		}
		if current.Status != domain.BookingStatusPending {
			return domain.ErrBookingNotPending
		}
		if gwErr != nil {
			if err := s.capacity.Release(ctx, tx, current, domain.BookingStatusDiscarded); err != nil {
				return fmt.Errorf("capacity.Release -> %w", err)
			}
			*booking = *current
			return nil
		}
		current.GatewayToken = checkout.Token
		if err := tx.Bookings().Update(ctx, current); err != nil {
			return fmt.Errorf("tx.Bookings.Update -> %w", err)
		}
		*booking = *current
		return nil
	})
	if gwErr == nil && errors.Is(err, domain.ErrBookingNotPending) {
		zap.L().Warn("booking released before checkout was bound, checkout orphaned",
			zap.Int64("booking_id", booking.ID),
			zap.String("checkout_token", checkout.Token),
		)
	}
	if gwErr != nil {
		metrics.GatewayAnomaly("checkout")
		zap.L().Error("checkout failed, hold released",
			zap.Int64("booking_id", booking.ID),
			zap.NamedError("gateway_error", gwErr),
			zap.Error(err),
		)
		if errors.Is(gwErr, domain.ErrGatewayUnavailable) {
			return nil, gwErr
		}
		return nil, fmt.Errorf("%v -> %w", gwErr, domain.ErrGatewayUnavailable)
	}
	if err != nil {
		return nil, err
	}

	zap.L().Info("booking awaiting payment",
		zap.Int64("booking_id", booking.ID),
		zap.Int64("session_id", booking.SessionID),
		zap.String("amount_due", booking.AmountDue.StringFixed(2)),
	)
	return &CreateBookingResult{Booking: booking, CheckoutURL: checkout.URL}, nil
}

func newBooking(input CreateBookingInput, status domain.BookingStatus) *domain.Booking {
	return &domain.Booking{
		UserID:             input.UserID,
		SessionID:          input.SessionID,
		EntitlementType:    input.EntitlementType,
		Weight:             input.Weight,
		AmountDue:          decimal.Zero,
		AmountPaid:         decimal.Zero,
		Status:             status,
		AccompanyingPerson: input.AccompanyingPerson,
		Note:               input.Note,
	}
}

// ConfirmPayment handles the gateway's success callback. Replays of a callback that already took effect are no-ops.
func (s *BookingService) ConfirmPayment(ctx context.Context, callback PaymentCallback) (*CallbackResult, error) {
	unlock, err := s.lockCallback(ctx, callback.GatewayToken)
	if err != nil {
		metrics.PaymentCallback("success", "rejected")
		return nil, err
	}
	defer unlock()

	var (
		result  CallbackResult
		session *domain.TrainingSession
	)
	err = s.store.InTx(ctx, func(ctx context.Context, tx repository.Tx) error {
		booking, err := s.lockByToken(ctx, tx, callback)
		if err != nil {
			return err
		}
		result.Booking = booking

		switch {
		case booking.Status == domain.BookingStatusActive || booking.Status.Cancelled():
			result.AlreadyProcessed = true
			return nil
		case booking.Status != domain.BookingStatusPending:
			return domain.ErrBookingNotPending
		}

		booking.Status = domain.BookingStatusActive
		booking.PendingExpiresAt = nil
		booking.AmountPaid = booking.AmountDue
		if callback.Amount != nil {
			booking.AmountPaid = *callback.Amount
		}
		if err := tx.Bookings().Update(ctx, booking); err != nil {
			return fmt.Errorf("tx.Bookings.Update -> %w", err)
		}
		session, err = tx.Sessions().GetByID(ctx, booking.SessionID)
		if err != nil {
			return fmt.Errorf("tx.Sessions.GetByID -> %w", err)
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, domain.ErrBookingNotPending) {
			metrics.GatewayAnomaly("late_payment")
			zap.L().Error("payment succeeded for a released booking",
				zap.String("gateway_token", callback.GatewayToken),
				zap.Int64("booking_id", callback.BookingID),
			)
		}
		metrics.PaymentCallback("success", "rejected")
		return nil, err
	}

	if result.AlreadyProcessed {
		metrics.PaymentCallback("success", "duplicate")
		return &result, nil
	}
	metrics.PaymentCallback("success", "confirmed")
	zap.L().Info("booking confirmed",
		zap.Int64("booking_id", result.Booking.ID),
		zap.String("amount_paid", result.Booking.AmountPaid.StringFixed(2)),
	)
	s.notifier.Emit(ctx, confirmedEvent(result.Booking, session))
	return &result, nil
}

// FailPayment handles a failed or abandoned checkout. The hold is released and the user gets a credit option.
func (s *BookingService) FailPayment(ctx context.Context, callback PaymentCallback) (*CallbackResult, error) {
	unlock, err := s.lockCallback(ctx, callback.GatewayToken)
	if err != nil {
		metrics.PaymentCallback("failure", "rejected")
		return nil, err
	}
	defer unlock()

	var result CallbackResult
	err = s.store.InTx(ctx, func(ctx context.Context, tx repository.Tx) error {
		booking, err := s.lockByToken(ctx, tx, callback)
		if err != nil {
			return err
		}
		result.Booking = booking

		switch booking.Status {
		case domain.BookingStatusPending:
			result.CreditOption, err = s.releaseWithOption(ctx, tx, booking, domain.BookingStatusDiscarded)
			return err
		case domain.BookingStatusDiscarded, domain.BookingStatusExpired:
			result.AlreadyProcessed = true
			option, err := tx.CreditOptions().GetByBookingID(ctx, booking.ID)
			if err != nil && !errors.Is(err, domain.ErrNotFound) {
				return fmt.Errorf("tx.CreditOptions.GetByBookingID -> %w", err)
			}
			result.CreditOption = option
			return nil
		}
		return domain.ErrBookingNotPending
	})
	if err != nil {
		metrics.PaymentCallback("failure", "rejected")
		return nil, err
	}

	if result.AlreadyProcessed {
		metrics.PaymentCallback("failure", "duplicate")
		return &result, nil
	}
	metrics.PaymentCallback("failure", "discarded")
	zap.L().Info("payment failed, hold released", zap.Int64("booking_id", result.Booking.ID))
	s.notifier.Emit(ctx, creditOptionEvent(result.CreditOption))
	return &result, nil
}

func (s *BookingService) lockByToken(ctx context.Context, tx repository.Tx, callback PaymentCallback) (*domain.Booking, error) {
	if callback.GatewayToken == "" {
		return nil, fmt.Errorf("gateway token is required -> %w", domain.ErrInvalidInput)
	}
	booking, err := tx.Bookings().LockByGatewayToken(ctx, callback.GatewayToken)
	if err != nil {
		return nil, fmt.Errorf("tx.Bookings.LockByGatewayToken -> %w", err)
	}
	if callback.BookingID != 0 && callback.BookingID != booking.ID {
		return nil, fmt.Errorf("token belongs to another booking -> %w", domain.ErrNotFound)
	}
	return booking, nil
}

// lockCallback takes the distributed callback lock when one is configured. Redis being down is not fatal:
// the booking row lock still serialises the state change.
func (s *BookingService) lockCallback(ctx context.Context, token string) (func(), error) {
	noop := func() {}
	if s.locks == nil || token == "" {
		return noop, nil
	}
	ok, err := s.locks.AcquireCallbackLock(ctx, token)
	if err != nil {
		zap.L().Warn("callback lock unavailable", zap.String("gateway_token", token), zap.Error(err))
		return noop, nil
	}
	if !ok {
		return nil, domain.ErrCallbackInProgress
	}
	return func() {
		if err := s.locks.ReleaseCallbackLock(context.WithoutCancel(ctx), token); err != nil {
			zap.L().Warn("callback lock release failed", zap.String("gateway_token", token), zap.Error(err))
		}
	}, nil
}

// releaseWithOption frees a pending hold and opens a credit option for it.
func (s *BookingService) releaseWithOption(ctx context.Context, tx repository.Tx, booking *domain.Booking, to domain.BookingStatus) (*domain.CreditOption, error) {
	if err := s.capacity.Release(ctx, tx, booking, to); err != nil {
		return nil, fmt.Errorf("capacity.Release -> %w", err)
	}
	session, err := tx.Sessions().GetByID(ctx, booking.SessionID)
	if err != nil {
		return nil, fmt.Errorf("tx.Sessions.GetByID -> %w", err)
	}

	now := s.now()
	option := &domain.CreditOption{
		Token:        uuid.NewString(),
		BookingID:    booking.ID,
		UserID:       booking.UserID,
		ActivityType: session.ActivityType,
		Status:       domain.CreditOptionOpen,
		ExpiresAt:    now.Add(s.settings.CreditOptionTTL),
	}
	if err := tx.CreditOptions().Create(ctx, option); err != nil {
		return nil, fmt.Errorf("tx.CreditOptions.Create -> %w", err)
	}
	return option, nil
}

func (s *BookingService) RedeemCreditOption(ctx context.Context, token string, actor domain.Actor) (*RedemptionResult, error) {
	result := &RedemptionResult{}
	err := s.store.InTx(ctx, func(ctx context.Context, tx repository.Tx) error {
		option, err := tx.CreditOptions().LockByToken(ctx, token)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				result.Outcome = domain.RedemptionInvalid
				return nil
			}
			return fmt.Errorf("tx.CreditOptions.LockByToken -> %w", err)
		}
		if !actor.CanAccess(option.UserID) {
			return domain.ErrForbidden
		}

		if option.Status == domain.CreditOptionProcessed {
			result.Outcome = domain.RedemptionAlreadyProcessed
			if option.CreditID != nil {
				if result.Credit, err = tx.Credits().GetByID(ctx, *option.CreditID); err != nil {
					return fmt.Errorf("tx.Credits.GetByID -> %w", err)
				}
			}
			return nil
		}

		now := s.now()
		if !now.Before(option.ExpiresAt) {
			result.Outcome = domain.RedemptionInvalid
			return nil
		}

		bookingID := option.BookingID
		credit, err := s.ledger.IssueCredit(ctx, tx, option.UserID, option.ActivityType, &bookingID)
		if err != nil {
			return fmt.Errorf("ledger.IssueCredit -> %w", err)
		}
		if err := tx.CreditOptions().MarkProcessed(ctx, token, credit.ID, now); err != nil {
			return fmt.Errorf("tx.CreditOptions.MarkProcessed -> %w", err)
		}
		result.Outcome = domain.RedemptionProcessed
		result.Credit = credit
		return nil
	})
	if err != nil {
		return nil, err
	}

	if result.Outcome == domain.RedemptionProcessed {
		zap.L().Info("credit option redeemed", zap.Int64("credit_id", result.Credit.ID), zap.Int64("user_id", result.Credit.OwnerID))
		s.notifier.Emit(ctx, kafka.Event{
			Type:         kafka.EventCreditIssued,
			UserID:       result.Credit.OwnerID,
			CreditID:     result.Credit.ID,
			ActivityType: result.Credit.ActivityType,
		})
	}
	return result, nil
}

// ExpirePendingBookings releases holds whose payment window closed. Rows locked by a concurrent
// callback are skipped and picked up by the next sweep if still pending.
func (s *BookingService) ExpirePendingBookings(ctx context.Context) ([]domain.Booking, error) {
	var (
		expired []domain.Booking
		options []*domain.CreditOption
	)
	err := s.store.InTx(ctx, func(ctx context.Context, tx repository.Tx) error {
		due, err := tx.Bookings().LockPendingBefore(ctx, s.now(), s.settings.SweepBatchSize)
		if err != nil {
			return fmt.Errorf("tx.Bookings.LockPendingBefore -> %w", err)
		}
		for i := range due {
			option, err := s.releaseWithOption(ctx, tx, &due[i], domain.BookingStatusExpired)
			if err != nil {
				return fmt.Errorf("booking %d: %w", due[i].ID, err)
			}
			options = append(options, option)
		}
		expired = due
		return nil
	})
	if err != nil {
		return nil, err
	}

	if len(expired) > 0 {
		metrics.PendingSwept(len(expired))
		zap.L().Info("expired pending bookings", zap.Int("count", len(expired)))
	}
	for _, option := range options {
		s.notifier.Emit(ctx, creditOptionEvent(option))
	}
	return expired, nil
}

// DiscardPending releases one pending booking on behalf of an administrative cascade.
func (s *BookingService) DiscardPending(ctx context.Context, bookingID int64) (*domain.Booking, error) {
	var (
		booking *domain.Booking
		option  *domain.CreditOption
	)
	err := s.store.InTx(ctx, func(ctx context.Context, tx repository.Tx) error {
		var err error
		booking, err = tx.Bookings().LockByID(ctx, bookingID)
		if err != nil {
			return fmt.Errorf("tx.Bookings.LockByID -> %w", err)
		}
		if booking.Status != domain.BookingStatusPending {
			return domain.ErrBookingNotPending
		}
		option, err = s.releaseWithOption(ctx, tx, booking, domain.BookingStatusDiscarded)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.notifier.Emit(ctx, creditOptionEvent(option))
	return booking, nil
}

func (s *BookingService) GetBooking(ctx context.Context, id int64, actor domain.Actor) (*domain.Booking, error) {
	var booking *domain.Booking
	err := s.store.InTx(ctx, func(ctx context.Context, tx repository.Tx) error {
		var err error
		booking, err = tx.Bookings().GetByID(ctx, id)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("tx.Bookings.GetByID -> %w", err)
	}
	if !actor.CanAccess(booking.UserID) {
		return nil, domain.ErrForbidden
	}
	return booking, nil
}

func (s *BookingService) ListBookings(ctx context.Context, actor domain.Actor) ([]domain.Booking, error) {
	var bookings []domain.Booking
	err := s.store.InTx(ctx, func(ctx context.Context, tx repository.Tx) error {
		var err error
		bookings, err = tx.Bookings().ListByUser(ctx, actor.UserID)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("tx.Bookings.ListByUser -> %w", err)
	}
	if bookings == nil {
		bookings = []domain.Booking{}
	}
	return bookings, nil
}

type discardNotifier struct{}

func (discardNotifier) Emit(context.Context, kafka.Event) {}

func confirmedEvent(booking *domain.Booking, session *domain.TrainingSession) kafka.Event {
	event := kafka.Event{
		Type:      kafka.EventBookingConfirmed,
		UserID:    booking.UserID,
		BookingID: booking.ID,
		SessionID: booking.SessionID,
		Weight:    booking.Weight,
		Amount:    booking.AmountPaid.StringFixed(2),
	}
	if session != nil {
		startsAt := session.StartsAt
		event.ActivityType = session.ActivityType
		event.StartsAt = &startsAt
	}
	return event
}

func creditOptionEvent(option *domain.CreditOption) kafka.Event {
	expires := option.ExpiresAt
	return kafka.Event{
		Type:                kafka.EventCreditOptionIssued,
		UserID:              option.UserID,
		BookingID:           option.BookingID,
		ActivityType:        option.ActivityType,
		CreditOptionToken:   option.Token,
		CreditOptionExpires: &expires,
	}
}

func rejectReason(err error) string {
	switch {
	case errors.Is(err, domain.ErrCapacityExceeded):
		return "capacity"
	case errors.Is(err, domain.ErrSessionUnavailable):
		return "session_unavailable"
	case errors.Is(err, domain.ErrConsentRequired):
		return "consent"
	case errors.Is(err, domain.ErrEntitlementInsufficient),
		errors.Is(err, domain.ErrEntitlementExpired),
		errors.Is(err, domain.ErrEntitlementScope),
		errors.Is(err, domain.ErrAlreadyConsumed):
		return "entitlement"
	case errors.Is(err, domain.ErrGatewayUnavailable):
		return "gateway"
	case errors.Is(err, domain.ErrPriceUnavailable):
		return "price"
	}
	return "other"
}

var _ BookingUseCase = (*BookingService)(nil)
