package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http/httptest"

	"github.com/Domenick1991/activitybooking/internal/domain"
	"github.com/Domenick1991/activitybooking/internal/service/admin"
	"github.com/Domenick1991/activitybooking/internal/service/booking"
	"github.com/Domenick1991/activitybooking/internal/service/cancellation"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/mock"
)

// MockBookingUseCase is a mock implementation of booking.BookingUseCase
type MockBookingUseCase struct {
	mock.Mock
}

func (m *MockBookingUseCase) CreateBooking(ctx context.Context, input booking.CreateBookingInput) (*booking.CreateBookingResult, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*booking.CreateBookingResult), args.Error(1)
}

func (m *MockBookingUseCase) ConfirmPayment(ctx context.Context, callback booking.PaymentCallback) (*booking.CallbackResult, error) {
	args := m.Called(ctx, callback)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*booking.CallbackResult), args.Error(1)
}

func (m *MockBookingUseCase) FailPayment(ctx context.Context, callback booking.PaymentCallback) (*booking.CallbackResult, error) {
	args := m.Called(ctx, callback)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*booking.CallbackResult), args.Error(1)
}

func (m *MockBookingUseCase) RedeemCreditOption(ctx context.Context, token string, actor domain.Actor) (*booking.RedemptionResult, error) {
	args := m.Called(ctx, token, actor)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*booking.RedemptionResult), args.Error(1)
}

func (m *MockBookingUseCase) ExpirePendingBookings(ctx context.Context) ([]domain.Booking, error) {
	args := m.Called(ctx)
	return args.Get(0).([]domain.Booking), args.Error(1)
}

func (m *MockBookingUseCase) DiscardPending(ctx context.Context, bookingID int64) (*domain.Booking, error) {
	args := m.Called(ctx, bookingID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Booking), args.Error(1)
}

func (m *MockBookingUseCase) GetBooking(ctx context.Context, id int64, actor domain.Actor) (*domain.Booking, error) {
	args := m.Called(ctx, id, actor)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Booking), args.Error(1)
}

func (m *MockBookingUseCase) ListBookings(ctx context.Context, actor domain.Actor) ([]domain.Booking, error) {
	args := m.Called(ctx, actor)
	return args.Get(0).([]domain.Booking), args.Error(1)
}

type MockCanceller struct {
	mock.Mock
}

func (m *MockCanceller) Cancel(ctx context.Context, req cancellation.CancelRequest) (*cancellation.CancelResult, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*cancellation.CancelResult), args.Error(1)
}

type MockSessionUseCase struct {
	mock.Mock
}

func (m *MockSessionUseCase) List(ctx context.Context) ([]domain.TrainingSession, error) {
	args := m.Called(ctx)
	return args.Get(0).([]domain.TrainingSession), args.Error(1)
}

func (m *MockSessionUseCase) GetAvailability(ctx context.Context, id int64) (*domain.Availability, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Availability), args.Error(1)
}

type MockAdminUseCase struct {
	mock.Mock
}

func (m *MockAdminUseCase) ForceCancelSession(ctx context.Context, actor domain.Actor, sessionID int64, reason string) (*admin.CascadeResult, error) {
	args := m.Called(ctx, actor, sessionID, reason)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*admin.CascadeResult), args.Error(1)
}

func (m *MockAdminUseCase) DeleteSession(ctx context.Context, actor domain.Actor, sessionID int64) error {
	args := m.Called(ctx, actor, sessionID)
	return args.Error(0)
}

func (m *MockAdminUseCase) CreateSession(ctx context.Context, actor domain.Actor, input admin.CreateSessionInput) (*domain.TrainingSession, error) {
	args := m.Called(ctx, actor, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.TrainingSession), args.Error(1)
}

func (m *MockAdminUseCase) IssuePass(ctx context.Context, actor domain.Actor, input admin.IssuePassInput) (*domain.SeasonPass, error) {
	args := m.Called(ctx, actor, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.SeasonPass), args.Error(1)
}

func (m *MockAdminUseCase) GrantCredit(ctx context.Context, actor domain.Actor, input admin.GrantCreditInput) (*domain.Credit, error) {
	args := m.Called(ctx, actor, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Credit), args.Error(1)
}

var (
	parent  = domain.Actor{UserID: 7}
	manager = domain.Actor{UserID: 1, Admin: true}
)

// newContext builds a handler test context. A nil actor leaves the request unauthenticated.
func newContext(method, path string, body interface{}, actor *domain.Actor) (*gin.Context, *httptest.ResponseRecorder) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	var reader *bytes.Reader
	switch b := body.(type) {
	case nil:
		reader = bytes.NewReader(nil)
	case string:
		reader = bytes.NewReader([]byte(b))
	default:
		raw, _ := json.Marshal(b)
		reader = bytes.NewReader(raw)
	}
	c.Request = httptest.NewRequest(method, path, reader)
	c.Request.Header.Set("Content-Type", "application/json")
	if actor != nil {
		c.Set(actorKey, *actor)
	}
	return c, w
}
