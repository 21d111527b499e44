package repository

import (
	"context"

	"github.com/Domenick1991/activitybooking/internal/domain"
	"github.com/jackc/pgx/v5"
)

const passColumns = `id, owner_id, activity_type, entries_total, entries_remaining, purchased_at, expires_at, created_at, updated_at`

type pgPassRepo struct {
	tx pgx.Tx
}

func scanPass(row pgx.Row) (*domain.SeasonPass, error) {
	var p domain.SeasonPass
	if err := row.Scan(&p.ID, &p.OwnerID, &p.ActivityType, &p.EntriesTotal, &p.EntriesRemaining,
		&p.PurchasedAt, &p.ExpiresAt, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *pgPassRepo) Create(ctx context.Context, p *domain.SeasonPass) error {
	err := r.tx.QueryRow(ctx, `INSERT INTO season_passes (owner_id, activity_type, entries_total, entries_remaining, purchased_at, expires_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at, updated_at`,
		p.OwnerID, p.ActivityType, p.EntriesTotal, p.EntriesRemaining, p.PurchasedAt, p.ExpiresAt).
		Scan(&p.ID, &p.CreatedAt, &p.UpdatedAt)
	return mapError("passes.Create", err)
}

func (r *pgPassRepo) GetByID(ctx context.Context, id int64) (*domain.SeasonPass, error) {
	p, err := scanPass(r.tx.QueryRow(ctx, `SELECT `+passColumns+` FROM season_passes WHERE id=$1`, id))
	if err != nil {
		return nil, mapError("passes.GetByID", err)
	}
	return p, nil
}

func (r *pgPassRepo) LockByID(ctx context.Context, id int64) (*domain.SeasonPass, error) {
	p, err := scanPass(r.tx.QueryRow(ctx, `SELECT `+passColumns+` FROM season_passes WHERE id=$1 FOR UPDATE`, id))
	if err != nil {
		return nil, mapError("passes.LockByID", err)
	}
	return p, nil
}

func (r *pgPassRepo) UpdateRemaining(ctx context.Context, id int64, remaining int) error {
	cmd, err := r.tx.Exec(ctx, `UPDATE season_passes SET entries_remaining=$2, updated_at=now() WHERE id=$1`, id, remaining)
	if err != nil {
		return mapError("passes.UpdateRemaining", err)
	}
	if cmd.RowsAffected() == 0 {
		return mapError("passes.UpdateRemaining", pgx.ErrNoRows)
	}
	return nil
}

func (r *pgPassRepo) ListByOwner(ctx context.Context, ownerID int64) ([]domain.SeasonPass, error) {
	rows, err := r.tx.Query(ctx, `SELECT `+passColumns+` FROM season_passes WHERE owner_id=$1 ORDER BY expires_at DESC`, ownerID)
	if err != nil {
		return nil, mapError("passes.ListByOwner", err)
	}
	defer rows.Close()

	var passes []domain.SeasonPass
	for rows.Next() {
		p, err := scanPass(rows)
		if err != nil {
			return nil, mapError("passes.ListByOwner", err)
		}
		passes = append(passes, *p)
	}
	return passes, mapError("passes.ListByOwner", rows.Err())
}

var _ PassRepository = (*pgPassRepo)(nil)
