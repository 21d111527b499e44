package domain

import "time"

type TrainingSession struct {
	ID                 int64
	ActivityType       string
	StartsAt           time.Time
	Duration           time.Duration
	MaxParticipants    int
	Cancelled          bool
	CancellationReason string
	CancelledAt        *time.Time
	DeletedAt          *time.Time
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// Bookable reports whether new holds may be placed on the session at the given moment.
func (s *TrainingSession) Bookable(now time.Time) bool {
	return !s.Cancelled && s.DeletedAt == nil && now.Before(s.StartsAt)
}

// CancellationDeadline is the last instant at which the owner may still cancel without an admin.
func (s *TrainingSession) CancellationDeadline(cutoff time.Duration) time.Time {
	return s.StartsAt.Add(-cutoff)
}

type Availability struct {
	Session   TrainingSession
	Occupied  int
	Remaining int
}
