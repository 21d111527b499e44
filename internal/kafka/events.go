package kafka

import (
	"strconv"
	"time"
)

type EventType string

const (
	EventBookingConfirmed      EventType = "booking_confirmed"
	EventBookingCancelled      EventType = "booking_cancelled"
	EventCreditIssued          EventType = "credit_issued"
	EventCreditOptionIssued    EventType = "credit_option_issued"
	EventSessionForceCancelled EventType = "session_force_cancelled"
)

// Event carries what the email side needs to render a message without reading the database.
type Event struct {
	Type                 EventType  `json:"type"`
	UserID               int64      `json:"user_id"`
	BookingID            int64      `json:"booking_id,omitempty"`
	SessionID            int64      `json:"session_id,omitempty"`
	ActivityType         string     `json:"activity_type,omitempty"`
	StartsAt             *time.Time `json:"starts_at,omitempty"`
	Weight               int        `json:"weight,omitempty"`
	Amount               string     `json:"amount,omitempty"`
	Remedy               string     `json:"remedy,omitempty"`
	Forced               bool       `json:"forced,omitempty"`
	ReplacementBookingID int64      `json:"replacement_booking_id,omitempty"`
	CreditID             int64      `json:"credit_id,omitempty"`
	CreditOptionToken    string     `json:"credit_option_token,omitempty"`
	CreditOptionExpires  *time.Time `json:"credit_option_expires,omitempty"`
	RefundPending        bool       `json:"refund_pending,omitempty"`
	Reason               string     `json:"reason,omitempty"`
	OccurredAt           time.Time  `json:"occurred_at"`
}

// Key partitions by user so one guardian's messages stay ordered.
func (e Event) Key() string {
	return strconv.FormatInt(e.UserID, 10)
}
