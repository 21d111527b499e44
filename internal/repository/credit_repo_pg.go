package repository

import (
	"context"
	"time"

	"github.com/Domenick1991/activitybooking/internal/domain"
	"github.com/jackc/pgx/v5"
)

const creditColumns = `id, owner_id, activity_type, consumed, consumed_by_booking_id, consumed_at, origin_booking_id, created_at`

type pgCreditRepo struct {
	tx pgx.Tx
}

func scanCredit(row pgx.Row) (*domain.Credit, error) {
	var c domain.Credit
	if err := row.Scan(&c.ID, &c.OwnerID, &c.ActivityType, &c.Consumed, &c.ConsumedByBookingID,
		&c.ConsumedAt, &c.OriginBookingID, &c.CreatedAt); err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *pgCreditRepo) Create(ctx context.Context, c *domain.Credit) error {
	err := r.tx.QueryRow(ctx, `INSERT INTO credits (owner_id, activity_type, origin_booking_id)
		VALUES ($1, $2, $3)
		RETURNING id, created_at`, c.OwnerID, c.ActivityType, c.OriginBookingID).
		Scan(&c.ID, &c.CreatedAt)
	return mapError("credits.Create", err)
}

func (r *pgCreditRepo) GetByID(ctx context.Context, id int64) (*domain.Credit, error) {
	c, err := scanCredit(r.tx.QueryRow(ctx, `SELECT `+creditColumns+` FROM credits WHERE id=$1`, id))
	if err != nil {
		return nil, mapError("credits.GetByID", err)
	}
	return c, nil
}

func (r *pgCreditRepo) LockByID(ctx context.Context, id int64) (*domain.Credit, error) {
	c, err := scanCredit(r.tx.QueryRow(ctx, `SELECT `+creditColumns+` FROM credits WHERE id=$1 FOR UPDATE`, id))
	if err != nil {
		return nil, mapError("credits.LockByID", err)
	}
	return c, nil
}

// MarkConsumed only flips unconsumed credits, so a second consumer never succeeds.
func (r *pgCreditRepo) MarkConsumed(ctx context.Context, id, bookingID int64, at time.Time) error {
	cmd, err := r.tx.Exec(ctx, `UPDATE credits SET consumed=TRUE, consumed_by_booking_id=$2, consumed_at=$3
		WHERE id=$1 AND NOT consumed`, id, bookingID, at)
	if err != nil {
		return mapError("credits.MarkConsumed", err)
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrAlreadyConsumed
	}
	return nil
}

func (r *pgCreditRepo) ListByOwner(ctx context.Context, ownerID int64) ([]domain.Credit, error) {
	rows, err := r.tx.Query(ctx, `SELECT `+creditColumns+` FROM credits WHERE owner_id=$1 ORDER BY created_at DESC`, ownerID)
	if err != nil {
		return nil, mapError("credits.ListByOwner", err)
	}
	defer rows.Close()

	var credits []domain.Credit
	for rows.Next() {
		c, err := scanCredit(rows)
		if err != nil {
			return nil, mapError("credits.ListByOwner", err)
		}
		credits = append(credits, *c)
	}
	return credits, mapError("credits.ListByOwner", rows.Err())
}

var _ CreditRepository = (*pgCreditRepo)(nil)
