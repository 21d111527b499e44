package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type EntitlementType string

const (
	EntitlementPaid         EntitlementType = "paid"
	EntitlementCredit       EntitlementType = "credit"
	EntitlementSeasonTicket EntitlementType = "season_ticket"
)

func (t EntitlementType) Valid() bool {
	switch t {
	case EntitlementPaid, EntitlementCredit, EntitlementSeasonTicket:
		return true
	}
	return false
}

type BookingStatus string

const (
	BookingStatusPending             BookingStatus = "pending"
	BookingStatusActive              BookingStatus = "active"
	BookingStatusDiscarded           BookingStatus = "discarded"
	BookingStatusExpired             BookingStatus = "expired"
	BookingStatusRefundRequested     BookingStatus = "refund_requested"
	BookingStatusCreditIssued        BookingStatus = "credit_issued"
	BookingStatusEntitlementReturned BookingStatus = "entitlement_returned"
	BookingStatusReplaced            BookingStatus = "replaced"
)

// HoldsCapacity reports whether a booking in this status counts against the session's capacity.
func (s BookingStatus) HoldsCapacity() bool {
	return s == BookingStatusPending || s == BookingStatusActive
}

// Cancelled reports whether the status is one of the terminal compensation states.
func (s BookingStatus) Cancelled() bool {
	switch s {
	case BookingStatusRefundRequested, BookingStatusCreditIssued, BookingStatusEntitlementReturned, BookingStatusReplaced:
		return true
	}
	return false
}

// RefundState tracks the gateway refund of a cancelled paid booking. Manual means it cannot be retried automatically.
type RefundState string

const (
	RefundStateNone      RefundState = ""
	RefundStateRequested RefundState = "requested"
	RefundStateFailed    RefundState = "failed"
	RefundStateCompleted RefundState = "completed"
	RefundStateManual    RefundState = "manual"
)

type Booking struct {
	ID                 int64
	UserID             int64
	SessionID          int64
	EntitlementType    EntitlementType
	EntitlementRef     *int64
	Weight             int
	AmountDue          decimal.Decimal
	AmountPaid         decimal.Decimal
	Status             BookingStatus
	GatewayToken       string
	PendingExpiresAt   *time.Time
	AccompanyingPerson bool
	Note               string
	ReplacedBy         *int64
	RefundState        RefundState
	RefundID           string
	CancelledAt        *time.Time
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

func (b *Booking) Active() bool {
	return b.Status == BookingStatusActive
}

type Remedy string

const (
	RemedyRefund      Remedy = "refund"
	RemedyCredit      Remedy = "credit"
	RemedyReturn      Remedy = "return"
	RemedyReplacement Remedy = "replacement"
)

// AllowedFor reports whether the remedy can compensate a booking paid with the given entitlement.
func (r Remedy) AllowedFor(t EntitlementType) bool {
	switch r {
	case RemedyReplacement:
		return t.Valid()
	case RemedyRefund, RemedyCredit:
		return t == EntitlementPaid
	case RemedyReturn:
		return t == EntitlementSeasonTicket || t == EntitlementCredit
	}
	return false
}

// Status is the terminal booking status the remedy leads to.
func (r Remedy) Status() BookingStatus {
	switch r {
	case RemedyRefund:
		return BookingStatusRefundRequested
	case RemedyCredit:
		return BookingStatusCreditIssued
	case RemedyReturn:
		return BookingStatusEntitlementReturned
	case RemedyReplacement:
		return BookingStatusReplaced
	}
	return ""
}

// Actor is the authenticated caller of an operation.
type Actor struct {
	UserID int64
	Admin  bool
}

func (a Actor) CanAccess(ownerID int64) bool {
	return a.Admin || a.UserID == ownerID
}
