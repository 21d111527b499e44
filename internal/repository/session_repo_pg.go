package repository

import (
	"context"
	"time"

	"github.com/Domenick1991/activitybooking/internal/domain"
	"github.com/jackc/pgx/v5"
)

const sessionColumns = `id, activity_type, starts_at, duration_minutes, max_participants, cancelled,
	COALESCE(cancellation_reason, ''), cancelled_at, deleted_at, created_at, updated_at`

type pgSessionRepo struct {
	tx pgx.Tx
}

func scanSession(row pgx.Row) (*domain.TrainingSession, error) {
	var (
		s       domain.TrainingSession
		minutes int
	)
	if err := row.Scan(&s.ID, &s.ActivityType, &s.StartsAt, &minutes, &s.MaxParticipants, &s.Cancelled,
		&s.CancellationReason, &s.CancelledAt, &s.DeletedAt, &s.CreatedAt, &s.UpdatedAt); err != nil {
		return nil, err
	}
	s.Duration = time.Duration(minutes) * time.Minute
	return &s, nil
}

func (r *pgSessionRepo) Create(ctx context.Context, s *domain.TrainingSession) error {
	err := r.tx.QueryRow(ctx, `INSERT INTO training_sessions (activity_type, starts_at, duration_minutes, max_participants)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at, updated_at`,
		s.ActivityType, s.StartsAt, int(s.Duration/time.Minute), s.MaxParticipants).
		Scan(&s.ID, &s.CreatedAt, &s.UpdatedAt)
	return mapError("sessions.Create", err)
}

func (r *pgSessionRepo) GetByID(ctx context.Context, id int64) (*domain.TrainingSession, error) {
	s, err := scanSession(r.tx.QueryRow(ctx, `SELECT `+sessionColumns+` FROM training_sessions WHERE id=$1 AND deleted_at IS NULL`, id))
	if err != nil {
		return nil, mapError("sessions.GetByID", err)
	}
	return s, nil
}

func (r *pgSessionRepo) LockByID(ctx context.Context, id int64) (*domain.TrainingSession, error) {
	s, err := scanSession(r.tx.QueryRow(ctx, `SELECT `+sessionColumns+` FROM training_sessions WHERE id=$1 AND deleted_at IS NULL FOR UPDATE`, id))
	if err != nil {
		return nil, mapError("sessions.LockByID", err)
	}
	return s, nil
}

func (r *pgSessionRepo) List(ctx context.Context) ([]domain.TrainingSession, error) {
	rows, err := r.tx.Query(ctx, `SELECT `+sessionColumns+` FROM training_sessions WHERE deleted_at IS NULL ORDER BY starts_at, id`)
	if err != nil {
		return nil, mapError("sessions.List", err)
	}
	defer rows.Close()

	var sessions []domain.TrainingSession
	for rows.Next() {
		s, err := scanSession(rows)
		if err != nil {
			return nil, mapError("sessions.List", err)
		}
		sessions = append(sessions, *s)
	}
	return sessions, mapError("sessions.List", rows.Err())
}

func (r *pgSessionRepo) MarkCancelled(ctx context.Context, id int64, reason string, at time.Time) error {
	cmd, err := r.tx.Exec(ctx, `UPDATE training_sessions
		SET cancelled = TRUE, cancellation_reason = NULLIF($2, ''), cancelled_at = COALESCE(cancelled_at, $3), updated_at = now()
		WHERE id = $1 AND deleted_at IS NULL`, id, reason, at)
	if err != nil {
		return mapError("sessions.MarkCancelled", err)
	}
	if cmd.RowsAffected() == 0 {
		return mapError("sessions.MarkCancelled", pgx.ErrNoRows)
	}
	return nil
}

func (r *pgSessionRepo) Delete(ctx context.Context, id int64, at time.Time) error {
	cmd, err := r.tx.Exec(ctx, `UPDATE training_sessions SET deleted_at = $2, updated_at = now() WHERE id = $1 AND deleted_at IS NULL`, id, at)
	if err != nil {
		return mapError("sessions.Delete", err)
	}
	if cmd.RowsAffected() == 0 {
		return mapError("sessions.Delete", pgx.ErrNoRows)
	}
	return nil
}

var _ SessionRepository = (*pgSessionRepo)(nil)
