package api

import (
	"time"

	"github.com/Domenick1991/activitybooking/internal/domain"
)

const moneyPlaces = 2

type sessionResponse struct {
	ID                 int64      `json:"id"`
	ActivityType       string     `json:"activity_type"`
	StartsAt           time.Time  `json:"starts_at"`
	DurationMinutes    int        `json:"duration_minutes"`
	MaxParticipants    int        `json:"max_participants"`
	Cancelled          bool       `json:"cancelled"`
	CancellationReason string     `json:"cancellation_reason,omitempty"`
	CancelledAt        *time.Time `json:"cancelled_at,omitempty"`
	Occupied           *int       `json:"occupied,omitempty"`
	Remaining          *int       `json:"remaining,omitempty"`
}

func toSessionResponse(s domain.TrainingSession) sessionResponse {
	return sessionResponse{
		ID:                 s.ID,
		ActivityType:       s.ActivityType,
		StartsAt:           s.StartsAt,
		DurationMinutes:    int(s.Duration / time.Minute),
		MaxParticipants:    s.MaxParticipants,
		Cancelled:          s.Cancelled,
		CancellationReason: s.CancellationReason,
		CancelledAt:        s.CancelledAt,
	}
}

func toAvailabilityResponse(a domain.Availability) sessionResponse {
	resp := toSessionResponse(a.Session)
	occupied, remaining := a.Occupied, a.Remaining
	resp.Occupied = &occupied
	resp.Remaining = &remaining
	return resp
}

type bookingResponse struct {
	ID                 int64      `json:"id"`
	UserID             int64      `json:"user_id"`
	SessionID          int64      `json:"session_id"`
	EntitlementType    string     `json:"entitlement_type"`
	EntitlementRef     *int64     `json:"entitlement_ref,omitempty"`
	Weight             int        `json:"weight"`
	AmountDue          string     `json:"amount_due"`
	AmountPaid         string     `json:"amount_paid"`
	Status             string     `json:"status"`
	PendingExpiresAt   *time.Time `json:"pending_expires_at,omitempty"`
	AccompanyingPerson bool       `json:"accompanying_person"`
	Note               string     `json:"note,omitempty"`
	ReplacedBy         *int64     `json:"replaced_by,omitempty"`
	RefundState        string     `json:"refund_state,omitempty"`
	CancelledAt        *time.Time `json:"cancelled_at,omitempty"`
	CreatedAt          time.Time  `json:"created_at"`
}

func toBookingResponse(b *domain.Booking) bookingResponse {
	return bookingResponse{
		ID:                 b.ID,
		UserID:             b.UserID,
		SessionID:          b.SessionID,
		EntitlementType:    string(b.EntitlementType),
		EntitlementRef:     b.EntitlementRef,
		Weight:             b.Weight,
		AmountDue:          b.AmountDue.StringFixed(moneyPlaces),
		AmountPaid:         b.AmountPaid.StringFixed(moneyPlaces),
		Status:             string(b.Status),
		PendingExpiresAt:   b.PendingExpiresAt,
		AccompanyingPerson: b.AccompanyingPerson,
		Note:               b.Note,
		ReplacedBy:         b.ReplacedBy,
		RefundState:        string(b.RefundState),
		CancelledAt:        b.CancelledAt,
		CreatedAt:          b.CreatedAt,
	}
}

type createBookingResponse struct {
	Booking     bookingResponse `json:"booking"`
	CheckoutURL string          `json:"checkout_url,omitempty"`
}

type creditResponse struct {
	ID              int64      `json:"id"`
	OwnerID         int64      `json:"owner_id"`
	ActivityType    string     `json:"activity_type,omitempty"`
	Consumed        bool       `json:"consumed"`
	ConsumedAt      *time.Time `json:"consumed_at,omitempty"`
	OriginBookingID *int64     `json:"origin_booking_id,omitempty"`
}

func toCreditResponse(c *domain.Credit) *creditResponse {
	if c == nil {
		return nil
	}
	return &creditResponse{
		ID:              c.ID,
		OwnerID:         c.OwnerID,
		ActivityType:    c.ActivityType,
		Consumed:        c.Consumed,
		ConsumedAt:      c.ConsumedAt,
		OriginBookingID: c.OriginBookingID,
	}
}

type passResponse struct {
	ID               int64     `json:"id"`
	OwnerID          int64     `json:"owner_id"`
	ActivityType     string    `json:"activity_type"`
	EntriesTotal     int       `json:"entries_total"`
	EntriesRemaining int       `json:"entries_remaining"`
	PurchasedAt      time.Time `json:"purchased_at"`
	ExpiresAt        time.Time `json:"expires_at"`
}

func toPassResponse(p *domain.SeasonPass) *passResponse {
	if p == nil {
		return nil
	}
	return &passResponse{
		ID:               p.ID,
		OwnerID:          p.OwnerID,
		ActivityType:     p.ActivityType,
		EntriesTotal:     p.EntriesTotal,
		EntriesRemaining: p.EntriesRemaining,
		PurchasedAt:      p.PurchasedAt,
		ExpiresAt:        p.ExpiresAt,
	}
}

type creditOptionResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
	Status    string    `json:"status"`
}

type callbackResponse struct {
	Booking          bookingResponse       `json:"booking"`
	AlreadyProcessed bool                  `json:"already_processed"`
	CreditOption     *creditOptionResponse `json:"credit_option,omitempty"`
}

type cancelResponse struct {
	Booking       bookingResponse  `json:"booking"`
	Replacement   *bookingResponse `json:"replacement,omitempty"`
	Credit        *creditResponse  `json:"credit,omitempty"`
	Pass          *passResponse    `json:"pass,omitempty"`
	RefundPending bool             `json:"refund_pending"`
}

type redemptionResponse struct {
	Outcome string          `json:"outcome"`
	Credit  *creditResponse `json:"credit,omitempty"`
}

type cascadeFailureResponse struct {
	BookingID int64  `json:"booking_id"`
	Error     string `json:"error"`
	Cancelled bool   `json:"cancelled"`
}

type cascadeResponse struct {
	SessionID int64                    `json:"session_id"`
	Cancelled []int64                  `json:"cancelled"`
	Discarded []int64                  `json:"discarded"`
	Failures  []cascadeFailureResponse `json:"failures"`
}
