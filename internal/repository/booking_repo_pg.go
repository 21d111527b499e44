package repository

import (
	"context"
	"time"

	"github.com/Domenick1991/activitybooking/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

const bookingColumns = `id, user_id, session_id, entitlement_type, entitlement_ref, weight, amount_due_cents, amount_paid_cents,
	status, COALESCE(gateway_token, ''), pending_expires_at, accompanying_person, note, replaced_by,
	refund_state, refund_id, cancelled_at, created_at, updated_at`

type pgBookingRepo struct {
	tx pgx.Tx
}

func toCents(d decimal.Decimal) int64 {
	return d.Shift(2).Round(0).IntPart()
}

func fromCents(c int64) decimal.Decimal {
	return decimal.New(c, -2)
}

func scanBooking(row pgx.Row) (*domain.Booking, error) {
	var (
		b                 domain.Booking
		dueCents, paidCts int64
	)
	if err := row.Scan(&b.ID, &b.UserID, &b.SessionID, &b.EntitlementType, &b.EntitlementRef, &b.Weight, &dueCents, &paidCts,
		&b.Status, &b.GatewayToken, &b.PendingExpiresAt, &b.AccompanyingPerson, &b.Note, &b.ReplacedBy,
		&b.RefundState, &b.RefundID, &b.CancelledAt, &b.CreatedAt, &b.UpdatedAt); err != nil {
		return nil, err
	}
	b.AmountDue = fromCents(dueCents)
	b.AmountPaid = fromCents(paidCts)
	return &b, nil
}

func collectBookings(rows pgx.Rows) ([]domain.Booking, error) {
	defer rows.Close()

	var bookings []domain.Booking
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, err
		}
		bookings = append(bookings, *b)
	}
	return bookings, rows.Err()
}

func (r *pgBookingRepo) Create(ctx context.Context, b *domain.Booking) error {
	err := r.tx.QueryRow(ctx, `INSERT INTO bookings (user_id, session_id, entitlement_type, entitlement_ref, weight,
			amount_due_cents, amount_paid_cents, status, gateway_token, pending_expires_at, accompanying_person, note)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, NULLIF($9, ''), $10, $11, $12)
		RETURNING id, created_at, updated_at`,
		b.UserID, b.SessionID, b.EntitlementType, b.EntitlementRef, b.Weight,
		toCents(b.AmountDue), toCents(b.AmountPaid), b.Status, b.GatewayToken, b.PendingExpiresAt, b.AccompanyingPerson, b.Note).
		Scan(&b.ID, &b.CreatedAt, &b.UpdatedAt)
	return mapError("bookings.Create", err)
}

func (r *pgBookingRepo) GetByID(ctx context.Context, id int64) (*domain.Booking, error) {
	b, err := scanBooking(r.tx.QueryRow(ctx, `SELECT `+bookingColumns+` FROM bookings WHERE id=$1`, id))
	if err != nil {
		return nil, mapError("bookings.GetByID", err)
	}
	return b, nil
}

func (r *pgBookingRepo) LockByID(ctx context.Context, id int64) (*domain.Booking, error) {
	b, err := scanBooking(r.tx.QueryRow(ctx, `SELECT `+bookingColumns+` FROM bookings WHERE id=$1 FOR UPDATE`, id))
	if err != nil {
		return nil, mapError("bookings.LockByID", err)
	}
	return b, nil
}

func (r *pgBookingRepo) LockByGatewayToken(ctx context.Context, token string) (*domain.Booking, error) {
	b, err := scanBooking(r.tx.QueryRow(ctx, `SELECT `+bookingColumns+` FROM bookings WHERE gateway_token=$1 FOR UPDATE`, token))
	if err != nil {
		return nil, mapError("bookings.LockByGatewayToken", err)
	}
	return b, nil
}

func (r *pgBookingRepo) GetByReplacement(ctx context.Context, replacementID int64) (*domain.Booking, error) {
	b, err := scanBooking(r.tx.QueryRow(ctx, `SELECT `+bookingColumns+` FROM bookings WHERE replaced_by=$1`, replacementID))
	if err != nil {
		return nil, mapError("bookings.GetByReplacement", err)
	}
	return b, nil
}

func (r *pgBookingRepo) Update(ctx context.Context, b *domain.Booking) error {
	err := r.tx.QueryRow(ctx, `UPDATE bookings SET
			status = $2, gateway_token = NULLIF($3, ''), amount_paid_cents = $4, pending_expires_at = $5,
			replaced_by = $6, refund_state = $7, refund_id = $8, cancelled_at = $9, updated_at = now()
		WHERE id = $1
		RETURNING updated_at`,
		b.ID, b.Status, b.GatewayToken, toCents(b.AmountPaid), b.PendingExpiresAt,
		b.ReplacedBy, b.RefundState, b.RefundID, b.CancelledAt).
		Scan(&b.UpdatedAt)
	return mapError("bookings.Update", err)
}

func (r *pgBookingRepo) HeldWeight(ctx context.Context, sessionID int64) (int, error) {
	var held int
	err := r.tx.QueryRow(ctx, `SELECT COALESCE(SUM(weight), 0) FROM bookings WHERE session_id=$1 AND status IN ($2, $3)`,
		sessionID, domain.BookingStatusPending, domain.BookingStatusActive).Scan(&held)
	if err != nil {
		return 0, mapError("bookings.HeldWeight", err)
	}
	return held, nil
}

func (r *pgBookingRepo) ListHeldBySession(ctx context.Context, sessionID int64) ([]domain.Booking, error) {
	rows, err := r.tx.Query(ctx, `SELECT `+bookingColumns+` FROM bookings WHERE session_id=$1 AND status IN ($2, $3) ORDER BY id`,
		sessionID, domain.BookingStatusPending, domain.BookingStatusActive)
	if err != nil {
		return nil, mapError("bookings.ListHeldBySession", err)
	}
	bookings, err := collectBookings(rows)
	return bookings, mapError("bookings.ListHeldBySession", err)
}

func (r *pgBookingRepo) ListByUser(ctx context.Context, userID int64) ([]domain.Booking, error) {
	rows, err := r.tx.Query(ctx, `SELECT `+bookingColumns+` FROM bookings WHERE user_id=$1 ORDER BY created_at DESC, id DESC`, userID)
	if err != nil {
		return nil, mapError("bookings.ListByUser", err)
	}
	bookings, err := collectBookings(rows)
	return bookings, mapError("bookings.ListByUser", err)
}

func (r *pgBookingRepo) LockPendingBefore(ctx context.Context, deadline time.Time, limit int) ([]domain.Booking, error) {
	rows, err := r.tx.Query(ctx, `SELECT `+bookingColumns+` FROM bookings
		WHERE status=$1 AND pending_expires_at <= $2
		ORDER BY pending_expires_at
		LIMIT $3
		FOR UPDATE SKIP LOCKED`, domain.BookingStatusPending, deadline, limit)
	if err != nil {
		return nil, mapError("bookings.LockPendingBefore", err)
	}
	bookings, err := collectBookings(rows)
	return bookings, mapError("bookings.LockPendingBefore", err)
}

func (r *pgBookingRepo) LockRefundFailed(ctx context.Context, limit int) ([]domain.Booking, error) {
	rows, err := r.tx.Query(ctx, `SELECT `+bookingColumns+` FROM bookings
		WHERE refund_state=$1
		ORDER BY updated_at
		LIMIT $2
		FOR UPDATE SKIP LOCKED`, domain.RefundStateFailed, limit)
	if err != nil {
		return nil, mapError("bookings.LockRefundFailed", err)
	}
	bookings, err := collectBookings(rows)
	return bookings, mapError("bookings.LockRefundFailed", err)
}

var _ BookingRepository = (*pgBookingRepo)(nil)
