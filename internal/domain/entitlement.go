package domain

import "time"

type SeasonPass struct {
	ID               int64
	OwnerID          int64
	ActivityType     string
	EntriesTotal     int
	EntriesRemaining int
	PurchasedAt      time.Time
	ExpiresAt        time.Time
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

func (p *SeasonPass) Expired(now time.Time) bool {
	return !now.Before(p.ExpiresAt)
}

func (p *SeasonPass) Exhausted() bool {
	return p.EntriesRemaining == 0
}

type Credit struct {
	ID                  int64
	OwnerID             int64
	ActivityType        string // empty means any activity
	Consumed            bool
	ConsumedByBookingID *int64
	ConsumedAt          *time.Time
	OriginBookingID     *int64
	CreatedAt           time.Time
}

func (c *Credit) Covers(activity string) bool {
	return c.ActivityType == "" || c.ActivityType == activity
}

type CreditOptionStatus string

const (
	CreditOptionOpen      CreditOptionStatus = "open"
	CreditOptionProcessed CreditOptionStatus = "processed"
)

// CreditOption is a one-time token letting a user claim a courtesy credit after an abandoned payment.
type CreditOption struct {
	Token        string
	BookingID    int64
	UserID       int64
	ActivityType string
	Status       CreditOptionStatus
	CreditID     *int64
	ExpiresAt    time.Time
	ProcessedAt  *time.Time
	CreatedAt    time.Time
}

type RedemptionOutcome string

const (
	RedemptionProcessed        RedemptionOutcome = "processed"
	RedemptionAlreadyProcessed RedemptionOutcome = "already_processed"
	RedemptionInvalid          RedemptionOutcome = "invalid"
)
