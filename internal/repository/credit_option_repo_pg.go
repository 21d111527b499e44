package repository

import (
	"context"
	"time"

	"github.com/Domenick1991/activitybooking/internal/domain"
	"github.com/jackc/pgx/v5"
)

const creditOptionColumns = `token, booking_id, user_id, activity_type, status, credit_id, expires_at, processed_at, created_at`

type pgCreditOptionRepo struct {
	tx pgx.Tx
}

func scanCreditOption(row pgx.Row) (*domain.CreditOption, error) {
	var o domain.CreditOption
	if err := row.Scan(&o.Token, &o.BookingID, &o.UserID, &o.ActivityType, &o.Status, &o.CreditID,
		&o.ExpiresAt, &o.ProcessedAt, &o.CreatedAt); err != nil {
		return nil, err
	}
	return &o, nil
}

func (r *pgCreditOptionRepo) Create(ctx context.Context, o *domain.CreditOption) error {
	err := r.tx.QueryRow(ctx, `INSERT INTO credit_options (token, booking_id, user_id, activity_type, status, expires_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at`, o.Token, o.BookingID, o.UserID, o.ActivityType, o.Status, o.ExpiresAt).
		Scan(&o.CreatedAt)
	return mapError("creditOptions.Create", err)
}

func (r *pgCreditOptionRepo) LockByToken(ctx context.Context, token string) (*domain.CreditOption, error) {
	o, err := scanCreditOption(r.tx.QueryRow(ctx, `SELECT `+creditOptionColumns+` FROM credit_options WHERE token=$1 FOR UPDATE`, token))
	if err != nil {
		return nil, mapError("creditOptions.LockByToken", err)
	}
	return o, nil
}

func (r *pgCreditOptionRepo) GetByBookingID(ctx context.Context, bookingID int64) (*domain.CreditOption, error) {
	o, err := scanCreditOption(r.tx.QueryRow(ctx, `SELECT `+creditOptionColumns+` FROM credit_options WHERE booking_id=$1`, bookingID))
	if err != nil {
		return nil, mapError("creditOptions.GetByBookingID", err)
	}
	return o, nil
}

func (r *pgCreditOptionRepo) MarkProcessed(ctx context.Context, token string, creditID int64, at time.Time) error {
	cmd, err := r.tx.Exec(ctx, `UPDATE credit_options SET status=$2, credit_id=$3, processed_at=$4 WHERE token=$1 AND status=$5`,
		token, domain.CreditOptionProcessed, creditID, at, domain.CreditOptionOpen)
	if err != nil {
		return mapError("creditOptions.MarkProcessed", err)
	}
	if cmd.RowsAffected() == 0 {
		return mapError("creditOptions.MarkProcessed", pgx.ErrNoRows)
	}
	return nil
}

var _ CreditOptionRepository = (*pgCreditOptionRepo)(nil)
