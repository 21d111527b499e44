package api

import (
	"errors"
	"time"

	"github.com/Domenick1991/activitybooking/internal/domain"
	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/shopspring/decimal"
)

var (
	errAmountFormat = errors.New("amount must be a decimal string")
	errTargetOnly   = errors.New("target_session_id is only accepted with the replacement remedy")
)

type createBookingRequest struct {
	SessionID          int64  `json:"session_id"`
	EntitlementType    string `json:"entitlement_type"`
	PassID             *int64 `json:"pass_id,omitempty"`
	CreditID           *int64 `json:"credit_id,omitempty"`
	Weight             int    `json:"weight"`
	AccompanyingPerson bool   `json:"accompanying_person"`
	Note               string `json:"note"`
	TermsAccepted      bool   `json:"terms_accepted"`
}

func (r *createBookingRequest) Validate() error {
	if r.Weight == 0 {
		r.Weight = 1
	}
	return validation.ValidateStruct(r,
		validation.Field(&r.SessionID, validation.Required, validation.Min(int64(1))),
		validation.Field(&r.EntitlementType, validation.Required, validation.In(
			string(domain.EntitlementPaid), string(domain.EntitlementCredit), string(domain.EntitlementSeasonTicket),
		)),
		validation.Field(&r.Weight, validation.Min(1), validation.Max(20)),
		validation.Field(&r.Note, validation.Length(0, 500)),
	)
}

type cancelBookingRequest struct {
	Remedy          string `json:"remedy"`
	TargetSessionID *int64 `json:"target_session_id,omitempty"`
}

func (r *cancelBookingRequest) Validate() error {
	err := validation.ValidateStruct(r,
		validation.Field(&r.Remedy, validation.Required, validation.In(
			string(domain.RemedyRefund), string(domain.RemedyCredit), string(domain.RemedyReturn), string(domain.RemedyReplacement),
		)),
	)
	if err != nil {
		return err
	}
	if r.TargetSessionID != nil && domain.Remedy(r.Remedy) != domain.RemedyReplacement {
		return errTargetOnly
	}
	return nil
}

type paymentCallbackRequest struct {
	GatewayToken string `json:"gateway_token"`
	BookingID    int64  `json:"booking_id"`
	Amount       string `json:"amount,omitempty"`
}

func (r *paymentCallbackRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.GatewayToken, validation.Required, validation.Length(1, 255)),
		validation.Field(&r.BookingID, validation.Min(int64(0))),
		validation.Field(&r.Amount, validation.By(func(value interface{}) error {
			s, _ := value.(string)
			if s == "" {
				return nil
			}
			d, err := decimal.NewFromString(s)
			if err != nil || d.IsNegative() {
				return errAmountFormat
			}
			return nil
		})),
	)
}

// amount returns nil when the gateway did not report one.
func (r *paymentCallbackRequest) amount() *decimal.Decimal {
	if r.Amount == "" {
		return nil
	}
	d := decimal.RequireFromString(r.Amount)
	return &d
}

// forceCancelRequest carries an optional reason; the body may be omitted.
type forceCancelRequest struct {
	Reason string `json:"reason"`
}

func (r *forceCancelRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.Reason, validation.Length(0, 500)),
	)
}

type createSessionRequest struct {
	ActivityType    string    `json:"activity_type"`
	StartsAt        time.Time `json:"starts_at"`
	DurationMinutes int       `json:"duration_minutes"`
	MaxParticipants int       `json:"max_participants"`
}

func (r *createSessionRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.ActivityType, validation.Required, validation.Length(1, 64)),
		validation.Field(&r.StartsAt, validation.Required),
		validation.Field(&r.DurationMinutes, validation.Required, validation.Min(1)),
		validation.Field(&r.MaxParticipants, validation.Required, validation.Min(1)),
	)
}

type issuePassRequest struct {
	OwnerID      int64      `json:"owner_id"`
	ActivityType string     `json:"activity_type"`
	Entries      int        `json:"entries"`
	PurchasedAt  *time.Time `json:"purchased_at,omitempty"`
}

func (r *issuePassRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.OwnerID, validation.Required, validation.Min(int64(1))),
		validation.Field(&r.ActivityType, validation.Required, validation.Length(1, 64)),
		validation.Field(&r.Entries, validation.Required, validation.Min(1)),
	)
}

type grantCreditRequest struct {
	OwnerID      int64  `json:"owner_id"`
	ActivityType string `json:"activity_type"`
}

func (r *grantCreditRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.OwnerID, validation.Required, validation.Min(int64(1))),
		validation.Field(&r.ActivityType, validation.Length(0, 64)),
	)
}
