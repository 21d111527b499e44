// Package memory is a process-local Store. Transactions are serialised by a single mutex and
// applied copy-on-commit, so a failing transaction leaves no trace.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/Domenick1991/activitybooking/internal/domain"
	"github.com/Domenick1991/activitybooking/internal/repository"
)

type Store struct {
	mu    sync.Mutex
	state *state
}

func NewStore() *Store {
	return &Store{state: &state{
		sessions: map[int64]domain.TrainingSession{},
		bookings: map[int64]domain.Booking{},
		passes:   map[int64]domain.SeasonPass{},
		credits:  map[int64]domain.Credit{},
		options:  map[string]domain.CreditOption{},
	}}
}

func (st *Store) InTx(ctx context.Context, fn func(ctx context.Context, tx repository.Tx) error) error {
	st.mu.Lock()
	defer st.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}
	work := st.state.clone()
	if err := fn(ctx, &memTx{s: work}); err != nil {
		return err
	}
	st.state = work
	return nil
}

type state struct {
	sessionSeq, bookingSeq, passSeq, creditSeq int64

	sessions map[int64]domain.TrainingSession
	bookings map[int64]domain.Booking
	passes   map[int64]domain.SeasonPass
	credits  map[int64]domain.Credit
	options  map[string]domain.CreditOption
}

func (s *state) clone() *state {
	c := *s
	c.sessions = make(map[int64]domain.TrainingSession, len(s.sessions))
	for k, v := range s.sessions {
		c.sessions[k] = v
	}
	c.bookings = make(map[int64]domain.Booking, len(s.bookings))
	for k, v := range s.bookings {
		c.bookings[k] = v
	}
	c.passes = make(map[int64]domain.SeasonPass, len(s.passes))
	for k, v := range s.passes {
		c.passes[k] = v
	}
	c.credits = make(map[int64]domain.Credit, len(s.credits))
	for k, v := range s.credits {
		c.credits[k] = v
	}
	c.options = make(map[string]domain.CreditOption, len(s.options))
	for k, v := range s.options {
		c.options[k] = v
	}
	return &c
}

type memTx struct {
	s *state
}

func (t *memTx) Sessions() repository.SessionRepository           { return sessionRepo{t.s} }
func (t *memTx) Bookings() repository.BookingRepository           { return bookingRepo{t.s} }
func (t *memTx) Passes() repository.PassRepository                { return passRepo{t.s} }
func (t *memTx) Credits() repository.CreditRepository             { return creditRepo{t.s} }
func (t *memTx) CreditOptions() repository.CreditOptionRepository { return creditOptionRepo{t.s} }

func notFound(op string) error {
	return fmt.Errorf("%s -> %w", op, domain.ErrNotFound)
}

type sessionRepo struct{ s *state }

func (r sessionRepo) Create(_ context.Context, session *domain.TrainingSession) error {
	r.s.sessionSeq++
	now := time.Now()
	session.ID = r.s.sessionSeq
	session.CreatedAt, session.UpdatedAt = now, now
	r.s.sessions[session.ID] = *session
	return nil
}

func (r sessionRepo) GetByID(_ context.Context, id int64) (*domain.TrainingSession, error) {
	s, ok := r.s.sessions[id]
	if !ok || s.DeletedAt != nil {
		return nil, notFound("sessions.GetByID")
	}
	return &s, nil
}

func (r sessionRepo) LockByID(ctx context.Context, id int64) (*domain.TrainingSession, error) {
	return r.GetByID(ctx, id)
}

func (r sessionRepo) List(_ context.Context) ([]domain.TrainingSession, error) {
	sessions := make([]domain.TrainingSession, 0, len(r.s.sessions))
	for _, s := range r.s.sessions {
		if s.DeletedAt == nil {
			sessions = append(sessions, s)
		}
	}
	sort.Slice(sessions, func(i, j int) bool {
		if sessions[i].StartsAt.Equal(sessions[j].StartsAt) {
			return sessions[i].ID < sessions[j].ID
		}
		return sessions[i].StartsAt.Before(sessions[j].StartsAt)
	})
	return sessions, nil
}

func (r sessionRepo) MarkCancelled(_ context.Context, id int64, reason string, at time.Time) error {
	s, ok := r.s.sessions[id]
	if !ok || s.DeletedAt != nil {
		return notFound("sessions.MarkCancelled")
	}
	s.Cancelled = true
	s.CancellationReason = reason
	if s.CancelledAt == nil {
		s.CancelledAt = &at
	}
	s.UpdatedAt = time.Now()
	r.s.sessions[id] = s
	return nil
}

func (r sessionRepo) Delete(_ context.Context, id int64, at time.Time) error {
	s, ok := r.s.sessions[id]
	if !ok || s.DeletedAt != nil {
		return notFound("sessions.Delete")
	}
	s.DeletedAt = &at
	r.s.sessions[id] = s
	return nil
}

type bookingRepo struct{ s *state }

func (r bookingRepo) tokenTaken(token string, except int64) bool {
	if token == "" {
		return false
	}
	for id, b := range r.s.bookings {
		if id != except && b.GatewayToken == token {
			return true
		}
	}
	return false
}

func (r bookingRepo) Create(_ context.Context, b *domain.Booking) error {
	if r.tokenTaken(b.GatewayToken, 0) {
		return fmt.Errorf("bookings.Create -> %w", domain.ErrDuplicate)
	}
	r.s.bookingSeq++
	now := time.Now()
	b.ID = r.s.bookingSeq
	b.CreatedAt, b.UpdatedAt = now, now
	r.s.bookings[b.ID] = *b
	return nil
}

func (r bookingRepo) GetByID(_ context.Context, id int64) (*domain.Booking, error) {
	b, ok := r.s.bookings[id]
	if !ok {
		return nil, notFound("bookings.GetByID")
	}
	return &b, nil
}

func (r bookingRepo) LockByID(ctx context.Context, id int64) (*domain.Booking, error) {
	return r.GetByID(ctx, id)
}

func (r bookingRepo) LockByGatewayToken(_ context.Context, token string) (*domain.Booking, error) {
	for _, b := range r.s.bookings {
		if token != "" && b.GatewayToken == token {
			return &b, nil
		}
	}
	return nil, notFound("bookings.LockByGatewayToken")
}

func (r bookingRepo) GetByReplacement(_ context.Context, replacementID int64) (*domain.Booking, error) {
	for _, b := range r.s.bookings {
		if b.ReplacedBy != nil && *b.ReplacedBy == replacementID {
			return &b, nil
		}
	}
	return nil, notFound("bookings.GetByReplacement")
}

func (r bookingRepo) Update(_ context.Context, b *domain.Booking) error {
	current, ok := r.s.bookings[b.ID]
	if !ok {
		return notFound("bookings.Update")
	}
	if r.tokenTaken(b.GatewayToken, b.ID) {
		return fmt.Errorf("bookings.Update -> %w", domain.ErrDuplicate)
	}
	current.Status = b.Status
	current.GatewayToken = b.GatewayToken
	current.AmountPaid = b.AmountPaid
	current.PendingExpiresAt = b.PendingExpiresAt
	current.ReplacedBy = b.ReplacedBy
	current.RefundState = b.RefundState
	current.RefundID = b.RefundID
	current.CancelledAt = b.CancelledAt
	current.UpdatedAt = time.Now()
	b.UpdatedAt = current.UpdatedAt
	r.s.bookings[b.ID] = current
	return nil
}

func (r bookingRepo) filter(keep func(domain.Booking) bool) []domain.Booking {
	var out []domain.Booking
	for _, b := range r.s.bookings {
		if keep(b) {
			out = append(out, b)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (r bookingRepo) HeldWeight(_ context.Context, sessionID int64) (int, error) {
	held := 0
	for _, b := range r.s.bookings {
		if b.SessionID == sessionID && b.Status.HoldsCapacity() {
			held += b.Weight
		}
	}
	return held, nil
}

func (r bookingRepo) ListHeldBySession(_ context.Context, sessionID int64) ([]domain.Booking, error) {
	return r.filter(func(b domain.Booking) bool {
		return b.SessionID == sessionID && b.Status.HoldsCapacity()
	}), nil
}

func (r bookingRepo) ListByUser(_ context.Context, userID int64) ([]domain.Booking, error) {
	out := r.filter(func(b domain.Booking) bool { return b.UserID == userID })
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

func (r bookingRepo) LockPendingBefore(_ context.Context, deadline time.Time, limit int) ([]domain.Booking, error) {
	out := r.filter(func(b domain.Booking) bool {
		return b.Status == domain.BookingStatusPending && b.PendingExpiresAt != nil && !b.PendingExpiresAt.After(deadline)
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r bookingRepo) LockRefundFailed(_ context.Context, limit int) ([]domain.Booking, error) {
	out := r.filter(func(b domain.Booking) bool { return b.RefundState == domain.RefundStateFailed })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

type passRepo struct{ s *state }

func (r passRepo) Create(_ context.Context, p *domain.SeasonPass) error {
	r.s.passSeq++
	now := time.Now()
	p.ID = r.s.passSeq
	p.CreatedAt, p.UpdatedAt = now, now
	r.s.passes[p.ID] = *p
	return nil
}

func (r passRepo) GetByID(_ context.Context, id int64) (*domain.SeasonPass, error) {
	p, ok := r.s.passes[id]
	if !ok {
		return nil, notFound("passes.GetByID")
	}
	return &p, nil
}

func (r passRepo) LockByID(ctx context.Context, id int64) (*domain.SeasonPass, error) {
	return r.GetByID(ctx, id)
}

func (r passRepo) UpdateRemaining(_ context.Context, id int64, remaining int) error {
	p, ok := r.s.passes[id]
	if !ok {
		return notFound("passes.UpdateRemaining")
	}
	if remaining < 0 || remaining > p.EntriesTotal {
		return fmt.Errorf("passes.UpdateRemaining: %d outside [0, %d] -> %w", remaining, p.EntriesTotal, domain.ErrInvariantViolation)
	}
	p.EntriesRemaining = remaining
	p.UpdatedAt = time.Now()
	r.s.passes[id] = p
	return nil
}

func (r passRepo) ListByOwner(_ context.Context, ownerID int64) ([]domain.SeasonPass, error) {
	var out []domain.SeasonPass
	for _, p := range r.s.passes {
		if p.OwnerID == ownerID {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ExpiresAt.After(out[j].ExpiresAt) })
	return out, nil
}

type creditRepo struct{ s *state }

func (r creditRepo) Create(_ context.Context, c *domain.Credit) error {
	r.s.creditSeq++
	c.ID = r.s.creditSeq
	c.CreatedAt = time.Now()
	r.s.credits[c.ID] = *c
	return nil
}

func (r creditRepo) GetByID(_ context.Context, id int64) (*domain.Credit, error) {
	c, ok := r.s.credits[id]
	if !ok {
		return nil, notFound("credits.GetByID")
	}
	return &c, nil
}

func (r creditRepo) LockByID(ctx context.Context, id int64) (*domain.Credit, error) {
	return r.GetByID(ctx, id)
}

func (r creditRepo) MarkConsumed(_ context.Context, id, bookingID int64, at time.Time) error {
	c, ok := r.s.credits[id]
	if !ok {
		return notFound("credits.MarkConsumed")
	}
	if c.Consumed {
		return domain.ErrAlreadyConsumed
	}
	c.Consumed = true
	c.ConsumedByBookingID = &bookingID
	c.ConsumedAt = &at
	r.s.credits[id] = c
	return nil
}

func (r creditRepo) ListByOwner(_ context.Context, ownerID int64) ([]domain.Credit, error) {
	var out []domain.Credit
	for _, c := range r.s.credits {
		if c.OwnerID == ownerID {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

type creditOptionRepo struct{ s *state }

func (r creditOptionRepo) Create(_ context.Context, o *domain.CreditOption) error {
	if _, ok := r.s.options[o.Token]; ok {
		return fmt.Errorf("creditOptions.Create -> %w", domain.ErrDuplicate)
	}
	for _, existing := range r.s.options {
		if existing.BookingID == o.BookingID {
			return fmt.Errorf("creditOptions.Create -> %w", domain.ErrDuplicate)
		}
	}
	o.CreatedAt = time.Now()
	r.s.options[o.Token] = *o
	return nil
}

func (r creditOptionRepo) LockByToken(_ context.Context, token string) (*domain.CreditOption, error) {
	o, ok := r.s.options[token]
	if !ok {
		return nil, notFound("creditOptions.LockByToken")
	}
	return &o, nil
}

func (r creditOptionRepo) GetByBookingID(_ context.Context, bookingID int64) (*domain.CreditOption, error) {
	for _, o := range r.s.options {
		if o.BookingID == bookingID {
			return &o, nil
		}
	}
	return nil, notFound("creditOptions.GetByBookingID")
}

func (r creditOptionRepo) MarkProcessed(_ context.Context, token string, creditID int64, at time.Time) error {
	o, ok := r.s.options[token]
	if !ok || o.Status != domain.CreditOptionOpen {
		return notFound("creditOptions.MarkProcessed")
	}
	o.Status = domain.CreditOptionProcessed
	o.CreditID = &creditID
	o.ProcessedAt = &at
	r.s.options[token] = o
	return nil
}

var _ repository.Store = (*Store)(nil)
