package domain

import "errors"

var (
	ErrNotFound           = errors.New("not found")
	ErrForbidden          = errors.New("forbidden")
	ErrInvalidInput       = errors.New("invalid input")
	ErrDuplicate          = errors.New("duplicate")
	ErrInvariantViolation = errors.New("invariant violation")

	ErrCapacityExceeded   = errors.New("session is full")
	ErrSessionUnavailable = errors.New("session is not open for booking")

	ErrEntitlementInsufficient = errors.New("not enough entries left on the pass")
	ErrEntitlementExpired      = errors.New("entitlement has expired")
	ErrEntitlementScope        = errors.New("entitlement does not cover this activity")
	ErrAlreadyConsumed         = errors.New("credit already consumed")

	ErrConsentRequired    = errors.New("terms must be accepted")
	ErrPriceUnavailable   = errors.New("no price configured for activity")
	ErrBookingNotPending  = errors.New("booking is not awaiting payment")
	ErrBookingNotActive   = errors.New("booking is not active")
	ErrCallbackInProgress = errors.New("payment callback already in progress")

	ErrAlreadyCancelled   = errors.New("booking already cancelled")
	ErrCutoffWindowPassed = errors.New("cancellation no longer permitted")
	ErrInvalidRemedy      = errors.New("remedy not allowed for this booking")
	ErrTargetRequired     = errors.New("replacement requires a target session")
	ErrActivityMismatch   = errors.New("target session has a different activity")
	ErrTargetSessionFull  = errors.New("target session is full")

	ErrGatewayUnavailable    = errors.New("payment gateway unavailable")
	ErrSessionNotCancellable = errors.New("session still has active bookings or is not cancelled")
)
