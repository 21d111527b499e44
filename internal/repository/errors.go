package repository

import (
	"errors"
	"fmt"

	"github.com/Domenick1991/activitybooking/internal/domain"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// mapError translates driver errors into domain sentinels, keeping op as context.
func mapError(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("%s -> %w", op, domain.ErrNotFound)
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgerrcode.UniqueViolation:
			return fmt.Errorf("%s: %s -> %w", op, pgErr.ConstraintName, domain.ErrDuplicate)
		case pgerrcode.CheckViolation, pgerrcode.ForeignKeyViolation:
			return fmt.Errorf("%s: %s -> %w", op, pgErr.ConstraintName, domain.ErrInvariantViolation)
		case pgerrcode.SerializationFailure, pgerrcode.DeadlockDetected:
			return fmt.Errorf("%s: retryable conflict -> %w", op, err)
		}
	}
	return fmt.Errorf("%s -> %w", op, err)
}
