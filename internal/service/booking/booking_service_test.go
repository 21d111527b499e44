package booking

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/Domenick1991/activitybooking/internal/domain"
	"github.com/Domenick1991/activitybooking/internal/gateway"
	"github.com/Domenick1991/activitybooking/internal/kafka"
	"github.com/Domenick1991/activitybooking/internal/repository"
	"github.com/Domenick1991/activitybooking/internal/repository/memory"
	"github.com/Domenick1991/activitybooking/internal/service/capacity"
	"github.com/Domenick1991/activitybooking/internal/service/ledger"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

type MockGateway struct {
	mock.Mock
}

func (m *MockGateway) CreateCheckout(ctx context.Context, req gateway.CheckoutRequest) (*gateway.Checkout, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*gateway.Checkout), args.Error(1)
}

func (m *MockGateway) Refund(ctx context.Context, req gateway.RefundRequest) (string, error) {
	args := m.Called(ctx, req)
	return args.String(0), args.Error(1)
}

type MockNotifier struct {
	mock.Mock
}

func (m *MockNotifier) Emit(ctx context.Context, event kafka.Event) {
	m.Called(ctx, event)
}

type MockLocker struct {
	mock.Mock
}

func (m *MockLocker) AcquireCallbackLock(ctx context.Context, token string) (bool, error) {
	args := m.Called(ctx, token)
	return args.Bool(0), args.Error(1)
}

func (m *MockLocker) ReleaseCallbackLock(ctx context.Context, token string) error {
	args := m.Called(ctx, token)
	return args.Error(0)
}

type clock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type fixture struct {
	store    *memory.Store
	gateway  *MockGateway
	notifier *MockNotifier
	clock    *clock
	service  *BookingService
}

func newFixture(t *testing.T, opts ...BookingServiceOption) *fixture {
	t.Helper()
	f := &fixture{
		store:    memory.NewStore(),
		gateway:  &MockGateway{},
		notifier: &MockNotifier{},
		clock:    &clock{now: time.Now()},
	}
	settings := Settings{
		Prices:          map[string]decimal.Decimal{"swimming": decimal.RequireFromString("18.50")},
		Currency:        "eur",
		PendingTTL:      30 * time.Minute,
		CreditOptionTTL: 72 * time.Hour,
		SweepBatchSize:  10,
	}
	opts = append([]BookingServiceOption{WithClock(f.clock.Now)}, opts...)
	f.service = NewBookingService(f.store, capacity.NewManager(), ledger.NewLedger(180*24*time.Hour),
		f.gateway, f.notifier, settings, opts...)
	return f
}

func (f *fixture) session(t *testing.T, activity string, max int) int64 {
	t.Helper()
	s := &domain.TrainingSession{ActivityType: activity, StartsAt: time.Now().Add(72 * time.Hour), Duration: time.Hour, MaxParticipants: max}
	require.NoError(t, f.store.InTx(context.Background(), func(ctx context.Context, tx repository.Tx) error {
		return tx.Sessions().Create(ctx, s)
	}))
	return s.ID
}

func (f *fixture) heldWeight(t *testing.T, sessionID int64) int {
	t.Helper()
	var held int
	require.NoError(t, f.store.InTx(context.Background(), func(ctx context.Context, tx repository.Tx) error {
		var err error
		held, err = tx.Bookings().HeldWeight(ctx, sessionID)
		return err
	}))
	return held
}

func (f *fixture) booking(t *testing.T, id int64) *domain.Booking {
	t.Helper()
	var b *domain.Booking
	require.NoError(t, f.store.InTx(context.Background(), func(ctx context.Context, tx repository.Tx) error {
		var err error
		b, err = tx.Bookings().GetByID(ctx, id)
		return err
	}))
	return b
}

// pendingBooking creates a paid booking whose checkout token is tok.
func (f *fixture) pendingBooking(t *testing.T, sessionID int64, weight int, tok string) *domain.Booking {
	t.Helper()
	f.gateway.On("CreateCheckout", mock.Anything, mock.Anything).Return(&gateway.Checkout{Token: tok, URL: "https://pay/" + tok}, nil).Once()
	result, err := f.service.CreateBooking(context.Background(), CreateBookingInput{
		UserID: 1, SessionID: sessionID, EntitlementType: domain.EntitlementPaid, Weight: weight, TermsAccepted: true,
	})
	require.NoError(t, err)
	return result.Booking
}

func TestBookingService_CreateBooking_Paid(t *testing.T) {
	f := newFixture(t)
	sessionID := f.session(t, "swimming", 4)
	ctx := context.Background()

	f.gateway.On("CreateCheckout", ctx, mock.MatchedBy(func(req gateway.CheckoutRequest) bool {
		return req.Quantity == 2 && req.UnitAmount.Equal(decimal.RequireFromString("18.50")) && req.Currency == "eur"
	})).Return(&gateway.Checkout{Token: "cs_1", URL: "https://pay/cs_1"}, nil).Once()

	result, err := f.service.CreateBooking(ctx, CreateBookingInput{
		UserID: 1, SessionID: sessionID, EntitlementType: domain.EntitlementPaid, Weight: 2, TermsAccepted: true, Note: "allergic to chlorine",
	})

	require.NoError(t, err)
	assert.Equal(t, "https://pay/cs_1", result.CheckoutURL)
	assert.Equal(t, domain.BookingStatusPending, result.Booking.Status)
	assert.Equal(t, "cs_1", result.Booking.GatewayToken)
	assert.True(t, result.Booking.AmountDue.Equal(decimal.RequireFromString("37.00")))
	require.NotNil(t, result.Booking.PendingExpiresAt)
	assert.Equal(t, f.clock.Now().Add(30*time.Minute), *result.Booking.PendingExpiresAt)
	assert.Equal(t, 2, f.heldWeight(t, sessionID))
	f.gateway.AssertExpectations(t)
	f.notifier.AssertNotCalled(t, "Emit", mock.Anything, mock.Anything)
}

func TestBookingService_CreateBooking_GatewayFailureReleasesHold(t *testing.T) {
	f := newFixture(t)
	sessionID := f.session(t, "swimming", 4)

	f.gateway.On("CreateCheckout", mock.Anything, mock.Anything).
		Return(nil, errors.New("stripe: 503")).Once()

	_, err := f.service.CreateBooking(context.Background(), CreateBookingInput{
		UserID: 1, SessionID: sessionID, EntitlementType: domain.EntitlementPaid, Weight: 3, TermsAccepted: true,
	})

	assert.ErrorIs(t, err, domain.ErrGatewayUnavailable)
	assert.Equal(t, 0, f.heldWeight(t, sessionID))
	assert.Equal(t, domain.BookingStatusDiscarded, f.booking(t, 1).Status)
}

func TestBookingService_CreateBooking_HoldReleasedDuringCheckout(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	defer zap.ReplaceGlobals(zap.New(core))()

	f := newFixture(t)
	sessionID := f.session(t, "swimming", 4)
	f.notifier.On("Emit", mock.Anything, mock.Anything).Maybe()
	f.gateway.On("CreateCheckout", mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) {
			req := args.Get(1).(gateway.CheckoutRequest)
			_, err := f.service.DiscardPending(context.Background(), req.BookingID)
			require.NoError(t, err)
		}).
		Return(&gateway.Checkout{Token: "cs_orphan", URL: "https://pay.example/cs_orphan"}, nil).Once()

	_, err := f.service.CreateBooking(context.Background(), CreateBookingInput{
		UserID: 1, SessionID: sessionID, EntitlementType: domain.EntitlementPaid, Weight: 1, TermsAccepted: true,
	})

	assert.ErrorIs(t, err, domain.ErrBookingNotPending)
	assert.Equal(t, 0, f.heldWeight(t, sessionID))
	assert.Empty(t, f.booking(t, 1).GatewayToken)
	orphaned := logs.FilterMessage("booking released before checkout was bound, checkout orphaned").All()
	require.Len(t, orphaned, 1)
	assert.Equal(t, "cs_orphan", orphaned[0].ContextMap()["checkout_token"])
}

func TestBookingService_CreateBooking_Rejections(t *testing.T) {
	passID := int64(99)

	tests := []struct {
		name    string
		input   func(sessionID int64) CreateBookingInput
		wantErr error
	}{
		{
			name: "consent missing",
			input: func(id int64) CreateBookingInput {
				return CreateBookingInput{UserID: 1, SessionID: id, EntitlementType: domain.EntitlementPaid, Weight: 1}
			},
			wantErr: domain.ErrConsentRequired,
		},
		{
			name: "zero weight",
			input: func(id int64) CreateBookingInput {
				return CreateBookingInput{UserID: 1, SessionID: id, EntitlementType: domain.EntitlementPaid, TermsAccepted: true}
			},
			wantErr: domain.ErrInvalidInput,
		},
		{
			name: "season ticket without pass",
			input: func(id int64) CreateBookingInput {
				return CreateBookingInput{UserID: 1, SessionID: id, EntitlementType: domain.EntitlementSeasonTicket, Weight: 1, TermsAccepted: true}
			},
			wantErr: domain.ErrInvalidInput,
		},
		{
			name: "unknown pass",
			input: func(id int64) CreateBookingInput {
				return CreateBookingInput{UserID: 1, SessionID: id, EntitlementType: domain.EntitlementSeasonTicket, PassID: &passID, Weight: 1, TermsAccepted: true}
			},
			wantErr: domain.ErrNotFound,
		},
		{
			name: "over capacity",
			input: func(id int64) CreateBookingInput {
				return CreateBookingInput{UserID: 1, SessionID: id, EntitlementType: domain.EntitlementPaid, Weight: 5, TermsAccepted: true}
			},
			wantErr: domain.ErrCapacityExceeded,
		},
		{
			name: "unknown session",
			input: func(int64) CreateBookingInput {
				return CreateBookingInput{UserID: 1, SessionID: 404, EntitlementType: domain.EntitlementPaid, Weight: 1, TermsAccepted: true}
			},
			wantErr: domain.ErrNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			sessionID := f.session(t, "swimming", 4)

			_, err := f.service.CreateBooking(context.Background(), tt.input(sessionID))

			assert.ErrorIs(t, err, tt.wantErr)
			assert.Equal(t, 0, f.heldWeight(t, sessionID))
			f.gateway.AssertNotCalled(t, "CreateCheckout", mock.Anything, mock.Anything)
		})
	}
}

func TestBookingService_CreateBooking_PriceUnavailable(t *testing.T) {
	f := newFixture(t)
	sessionID := f.session(t, "fencing", 4)

	_, err := f.service.CreateBooking(context.Background(), CreateBookingInput{
		UserID: 1, SessionID: sessionID, EntitlementType: domain.EntitlementPaid, Weight: 1, TermsAccepted: true,
	})

	assert.ErrorIs(t, err, domain.ErrPriceUnavailable)
	assert.Equal(t, 0, f.heldWeight(t, sessionID))
}

func TestBookingService_CreateBooking_SeasonTicket(t *testing.T) {
	f := newFixture(t)
	sessionID := f.session(t, "swimming", 10)
	ctx := context.Background()

	var pass *domain.SeasonPass
	require.NoError(t, f.store.InTx(ctx, func(ctx context.Context, tx repository.Tx) error {
		var err error
		pass, err = ledger.NewLedger(time.Hour*24*30).IssuePass(ctx, tx, 1, "swimming", 5, time.Now())
		return err
	}))

	f.notifier.On("Emit", ctx, mock.MatchedBy(func(e kafka.Event) bool {
		return e.Type == kafka.EventBookingConfirmed && e.Weight == 3 && e.ActivityType == "swimming"
	})).Once()

	result, err := f.service.CreateBooking(ctx, CreateBookingInput{
		UserID: 1, SessionID: sessionID, EntitlementType: domain.EntitlementSeasonTicket, PassID: &pass.ID, Weight: 3, TermsAccepted: true,
	})
	require.NoError(t, err)
	assert.Equal(t, domain.BookingStatusActive, result.Booking.Status)
	assert.Equal(t, pass.ID, *result.Booking.EntitlementRef)
	assert.True(t, result.Booking.AmountPaid.IsZero())

	// Insufficient entries leave neither a debit nor a hold behind.
	_, err = f.service.CreateBooking(ctx, CreateBookingInput{
		UserID: 1, SessionID: sessionID, EntitlementType: domain.EntitlementSeasonTicket, PassID: &pass.ID, Weight: 3, TermsAccepted: true,
	})
	assert.ErrorIs(t, err, domain.ErrEntitlementInsufficient)
	assert.Equal(t, 3, f.heldWeight(t, sessionID))

	require.NoError(t, f.store.InTx(ctx, func(ctx context.Context, tx repository.Tx) error {
		p, err := tx.Passes().GetByID(ctx, pass.ID)
		require.NoError(t, err)
		assert.Equal(t, 2, p.EntriesRemaining)
		return nil
	}))
	f.notifier.AssertExpectations(t)
}

func TestBookingService_CreateBooking_CreditSingleUse(t *testing.T) {
	f := newFixture(t)
	sessionID := f.session(t, "swimming", 10)
	ctx := context.Background()
	f.notifier.On("Emit", mock.Anything, mock.Anything).Maybe()

	var credit *domain.Credit
	require.NoError(t, f.store.InTx(ctx, func(ctx context.Context, tx repository.Tx) error {
		var err error
		credit, err = ledger.NewLedger(time.Hour).IssueCredit(ctx, tx, 1, "", nil)
		return err
	}))

	input := CreateBookingInput{UserID: 1, SessionID: sessionID, EntitlementType: domain.EntitlementCredit, CreditID: &credit.ID, Weight: 1, TermsAccepted: true}
	first, err := f.service.CreateBooking(ctx, input)
	require.NoError(t, err)

	_, err = f.service.CreateBooking(ctx, input)
	assert.ErrorIs(t, err, domain.ErrAlreadyConsumed)
	assert.Equal(t, 1, f.heldWeight(t, sessionID))

	require.NoError(t, f.store.InTx(ctx, func(ctx context.Context, tx repository.Tx) error {
		c, err := tx.Credits().GetByID(ctx, credit.ID)
		require.NoError(t, err)
		assert.True(t, c.Consumed)
		assert.Equal(t, first.Booking.ID, *c.ConsumedByBookingID)
		return nil
	}))
}

func TestBookingService_ConfirmPayment_Idempotent(t *testing.T) {
	f := newFixture(t)
	sessionID := f.session(t, "swimming", 4)
	ctx := context.Background()
	b := f.pendingBooking(t, sessionID, 2, "cs_ok")

	f.notifier.On("Emit", ctx, mock.MatchedBy(func(e kafka.Event) bool {
		return e.Type == kafka.EventBookingConfirmed && e.BookingID == b.ID && e.Amount == "37.00"
	})).Once()

	first, err := f.service.ConfirmPayment(ctx, PaymentCallback{GatewayToken: "cs_ok", BookingID: b.ID})
	require.NoError(t, err)
	assert.False(t, first.AlreadyProcessed)
	assert.Equal(t, domain.BookingStatusActive, first.Booking.Status)
	assert.True(t, first.Booking.AmountPaid.Equal(decimal.RequireFromString("37")))
	assert.Nil(t, first.Booking.PendingExpiresAt)

	second, err := f.service.ConfirmPayment(ctx, PaymentCallback{GatewayToken: "cs_ok", BookingID: b.ID})
	require.NoError(t, err)
	assert.True(t, second.AlreadyProcessed)

	assert.Equal(t, 2, f.heldWeight(t, sessionID))
	f.notifier.AssertExpectations(t)
}

func TestBookingService_ConfirmPayment_ConcurrentDeliveries(t *testing.T) {
	f := newFixture(t)
	sessionID := f.session(t, "swimming", 4)
	b := f.pendingBooking(t, sessionID, 1, "cs_race")
	f.notifier.On("Emit", mock.Anything, mock.Anything).Once()

	var (
		wg        sync.WaitGroup
		confirmed atomic.Int32
		failures  atomic.Int32
	)
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			res, err := f.service.ConfirmPayment(context.Background(), PaymentCallback{GatewayToken: "cs_race"})
			if err != nil {
				failures.Add(1)
				return
			}
			if !res.AlreadyProcessed {
				confirmed.Add(1)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), confirmed.Load())
	assert.Zero(t, failures.Load())
	assert.Equal(t, domain.BookingStatusActive, f.booking(t, b.ID).Status)
	f.notifier.AssertNumberOfCalls(t, "Emit", 1)
}

func TestBookingService_ConfirmPayment_Errors(t *testing.T) {
	f := newFixture(t)
	sessionID := f.session(t, "swimming", 4)
	ctx := context.Background()
	b := f.pendingBooking(t, sessionID, 1, "cs_err")

	_, err := f.service.ConfirmPayment(ctx, PaymentCallback{GatewayToken: "cs_unknown"})
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = f.service.ConfirmPayment(ctx, PaymentCallback{GatewayToken: "cs_err", BookingID: b.ID + 1})
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = f.service.ConfirmPayment(ctx, PaymentCallback{})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestBookingService_ConfirmPayment_CallbackLock(t *testing.T) {
	locker := &MockLocker{}
	f := newFixture(t, WithCallbackLocker(locker))
	sessionID := f.session(t, "swimming", 4)
	ctx := context.Background()
	b := f.pendingBooking(t, sessionID, 1, "cs_lock")

	locker.On("AcquireCallbackLock", ctx, "cs_lock").Return(false, nil).Once()
	_, err := f.service.ConfirmPayment(ctx, PaymentCallback{GatewayToken: "cs_lock"})
	assert.ErrorIs(t, err, domain.ErrCallbackInProgress)
	assert.Equal(t, domain.BookingStatusPending, f.booking(t, b.ID).Status)

	locker.On("AcquireCallbackLock", ctx, "cs_lock").Return(true, nil).Once()
	locker.On("ReleaseCallbackLock", mock.Anything, "cs_lock").Return(nil).Once()
	f.notifier.On("Emit", ctx, mock.Anything).Once()
	res, err := f.service.ConfirmPayment(ctx, PaymentCallback{GatewayToken: "cs_lock"})
	require.NoError(t, err)
	assert.False(t, res.AlreadyProcessed)

	locker.AssertExpectations(t)
}

func TestBookingService_FailPayment(t *testing.T) {
	f := newFixture(t)
	sessionID := f.session(t, "swimming", 4)
	ctx := context.Background()
	b := f.pendingBooking(t, sessionID, 2, "cs_fail")

	f.notifier.On("Emit", ctx, mock.MatchedBy(func(e kafka.Event) bool {
		return e.Type == kafka.EventCreditOptionIssued && e.BookingID == b.ID && e.CreditOptionToken != ""
	})).Once()

	first, err := f.service.FailPayment(ctx, PaymentCallback{GatewayToken: "cs_fail"})
	require.NoError(t, err)
	assert.False(t, first.AlreadyProcessed)
	assert.Equal(t, domain.BookingStatusDiscarded, first.Booking.Status)
	require.NotNil(t, first.CreditOption)
	assert.Equal(t, "swimming", first.CreditOption.ActivityType)
	assert.Equal(t, 0, f.heldWeight(t, sessionID))

	second, err := f.service.FailPayment(ctx, PaymentCallback{GatewayToken: "cs_fail"})
	require.NoError(t, err)
	assert.True(t, second.AlreadyProcessed)
	assert.Equal(t, first.CreditOption.Token, second.CreditOption.Token)

	_, err = f.service.ConfirmPayment(ctx, PaymentCallback{GatewayToken: "cs_fail"})
	assert.ErrorIs(t, err, domain.ErrBookingNotPending)
	f.notifier.AssertExpectations(t)
}

func TestBookingService_FailPayment_ActiveBooking(t *testing.T) {
	f := newFixture(t)
	sessionID := f.session(t, "swimming", 4)
	ctx := context.Background()
	f.pendingBooking(t, sessionID, 1, "cs_paid")
	f.notifier.On("Emit", mock.Anything, mock.Anything).Maybe()

	_, err := f.service.ConfirmPayment(ctx, PaymentCallback{GatewayToken: "cs_paid"})
	require.NoError(t, err)

	_, err = f.service.FailPayment(ctx, PaymentCallback{GatewayToken: "cs_paid"})
	assert.ErrorIs(t, err, domain.ErrBookingNotPending)
	assert.Equal(t, 1, f.heldWeight(t, sessionID))
}

func TestBookingService_RedeemCreditOption(t *testing.T) {
	f := newFixture(t)
	sessionID := f.session(t, "swimming", 4)
	ctx := context.Background()
	f.pendingBooking(t, sessionID, 1, "cs_redeem")
	f.notifier.On("Emit", mock.Anything, mock.MatchedBy(func(e kafka.Event) bool { return e.Type == kafka.EventCreditOptionIssued })).Once()
	f.notifier.On("Emit", mock.Anything, mock.MatchedBy(func(e kafka.Event) bool { return e.Type == kafka.EventCreditIssued })).Once()

	failed, err := f.service.FailPayment(ctx, PaymentCallback{GatewayToken: "cs_redeem"})
	require.NoError(t, err)
	token := failed.CreditOption.Token

	_, err = f.service.RedeemCreditOption(ctx, token, domain.Actor{UserID: 2})
	assert.ErrorIs(t, err, domain.ErrForbidden)

	first, err := f.service.RedeemCreditOption(ctx, token, domain.Actor{UserID: 1})
	require.NoError(t, err)
	assert.Equal(t, domain.RedemptionProcessed, first.Outcome)
	assert.Equal(t, "swimming", first.Credit.ActivityType)
	assert.False(t, first.Credit.Consumed)

	second, err := f.service.RedeemCreditOption(ctx, token, domain.Actor{UserID: 1})
	require.NoError(t, err)
	assert.Equal(t, domain.RedemptionAlreadyProcessed, second.Outcome)
	assert.Equal(t, first.Credit.ID, second.Credit.ID)

	unknown, err := f.service.RedeemCreditOption(ctx, "nope", domain.Actor{UserID: 1})
	require.NoError(t, err)
	assert.Equal(t, domain.RedemptionInvalid, unknown.Outcome)

	f.notifier.AssertExpectations(t)
}

func TestBookingService_RedeemCreditOption_Expired(t *testing.T) {
	f := newFixture(t)
	sessionID := f.session(t, "swimming", 4)
	ctx := context.Background()
	f.pendingBooking(t, sessionID, 1, "cs_late")
	f.notifier.On("Emit", mock.Anything, mock.Anything).Once()

	failed, err := f.service.FailPayment(ctx, PaymentCallback{GatewayToken: "cs_late"})
	require.NoError(t, err)

	f.clock.Advance(73 * time.Hour)
	res, err := f.service.RedeemCreditOption(ctx, failed.CreditOption.Token, domain.Actor{UserID: 1})
	require.NoError(t, err)
	assert.Equal(t, domain.RedemptionInvalid, res.Outcome)
	assert.Nil(t, res.Credit)
	f.notifier.AssertNumberOfCalls(t, "Emit", 1)
}

func TestBookingService_ExpirePendingBookings(t *testing.T) {
	f := newFixture(t)
	sessionID := f.session(t, "swimming", 4)
	ctx := context.Background()
	stale := f.pendingBooking(t, sessionID, 2, "cs_stale")
	f.clock.Advance(20 * time.Minute)
	fresh := f.pendingBooking(t, sessionID, 1, "cs_fresh")

	f.notifier.On("Emit", ctx, mock.MatchedBy(func(e kafka.Event) bool {
		return e.Type == kafka.EventCreditOptionIssued && e.BookingID == stale.ID
	})).Once()

	f.clock.Advance(15 * time.Minute)
	expired, err := f.service.ExpirePendingBookings(ctx)

	require.NoError(t, err)
	require.Len(t, expired, 1)
	assert.Equal(t, stale.ID, expired[0].ID)
	assert.Equal(t, domain.BookingStatusExpired, f.booking(t, stale.ID).Status)
	assert.Equal(t, domain.BookingStatusPending, f.booking(t, fresh.ID).Status)
	assert.Equal(t, 1, f.heldWeight(t, sessionID))

	// A success callback for the released booking is refused.
	_, err = f.service.ConfirmPayment(ctx, PaymentCallback{GatewayToken: "cs_stale"})
	assert.ErrorIs(t, err, domain.ErrBookingNotPending)
	f.notifier.AssertExpectations(t)
}

func TestBookingService_DiscardPending(t *testing.T) {
	f := newFixture(t)
	sessionID := f.session(t, "swimming", 4)
	ctx := context.Background()
	b := f.pendingBooking(t, sessionID, 2, "cs_discard")
	f.notifier.On("Emit", mock.Anything, mock.Anything).Once()

	discarded, err := f.service.DiscardPending(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.BookingStatusDiscarded, discarded.Status)
	assert.Equal(t, 0, f.heldWeight(t, sessionID))

	_, err = f.service.DiscardPending(ctx, b.ID)
	assert.ErrorIs(t, err, domain.ErrBookingNotPending)
}

func TestBookingService_GetAndList(t *testing.T) {
	f := newFixture(t)
	sessionID := f.session(t, "swimming", 4)
	ctx := context.Background()
	b := f.pendingBooking(t, sessionID, 1, "cs_read")

	got, err := f.service.GetBooking(ctx, b.ID, domain.Actor{UserID: 1})
	require.NoError(t, err)
	assert.Equal(t, b.ID, got.ID)

	_, err = f.service.GetBooking(ctx, b.ID, domain.Actor{UserID: 2})
	assert.ErrorIs(t, err, domain.ErrForbidden)

	_, err = f.service.GetBooking(ctx, b.ID, domain.Actor{UserID: 2, Admin: true})
	assert.NoError(t, err)

	mine, err := f.service.ListBookings(ctx, domain.Actor{UserID: 1})
	require.NoError(t, err)
	assert.Len(t, mine, 1)

	theirs, err := f.service.ListBookings(ctx, domain.Actor{UserID: 2})
	require.NoError(t, err)
	assert.Empty(t, theirs)
}
