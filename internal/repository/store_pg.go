package repository

import (
	"context"
	_ "embed"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

//go:embed schema.sql
var schema string

type PGStore struct {
	db *pgxpool.Pool
}

func NewPGStore(db *pgxpool.Pool) *PGStore {
	return &PGStore{db: db}
}

// Migrate applies the embedded schema. Every statement is idempotent.
func (s *PGStore) Migrate(ctx context.Context) error {
	if _, err := s.db.Exec(ctx, schema); err != nil {
		return fmt.Errorf("apply schema -> %w", err)
	}
	return nil
}

func (s *PGStore) InTx(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error {
	tx, err := s.db.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.ReadCommitted})
	if err != nil {
		return mapError("begin tx", err)
	}
	defer tx.Rollback(ctx)

	if err := fn(ctx, &pgTx{tx: tx}); err != nil {
		return err
	}
	return mapError("commit tx", tx.Commit(ctx))
}

type pgTx struct {
	tx pgx.Tx
}

func (t *pgTx) Sessions() SessionRepository           { return &pgSessionRepo{tx: t.tx} }
func (t *pgTx) Bookings() BookingRepository           { return &pgBookingRepo{tx: t.tx} }
func (t *pgTx) Passes() PassRepository                { return &pgPassRepo{tx: t.tx} }
func (t *pgTx) Credits() CreditRepository             { return &pgCreditRepo{tx: t.tx} }
func (t *pgTx) CreditOptions() CreditOptionRepository { return &pgCreditOptionRepo{tx: t.tx} }

var _ Store = (*PGStore)(nil)
