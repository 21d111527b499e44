// Package ledger owns season passes and credits. Nothing else writes their balances.
package ledger

import (
	"context"
	"fmt"
	"time"

	"github.com/Domenick1991/activitybooking/internal/domain"
	"github.com/Domenick1991/activitybooking/internal/metrics"
	"github.com/Domenick1991/activitybooking/internal/repository"
	"go.uber.org/zap"
)

type Ledger struct {
	passValidity time.Duration
}

func NewLedger(passValidity time.Duration) *Ledger {
	return &Ledger{passValidity: passValidity}
}

func (l *Ledger) IssuePass(ctx context.Context, tx repository.Tx, ownerID int64, activity string, entries int, purchasedAt time.Time) (*domain.SeasonPass, error) {
	if entries <= 0 {
		return nil, fmt.Errorf("entries must be positive -> %w", domain.ErrInvalidInput)
	}
	pass := &domain.SeasonPass{
		OwnerID:          ownerID,
		ActivityType:     activity,
		EntriesTotal:     entries,
		EntriesRemaining: entries,
		PurchasedAt:      purchasedAt,
		ExpiresAt:        purchasedAt.Add(l.passValidity),
	}
	if err := tx.Passes().Create(ctx, pass); err != nil {
		return nil, fmt.Errorf("tx.Passes.Create -> %w", err)
	}
	return pass, nil
}

// ConsumePass debits entries from the pass after checking owner, scope, expiry and balance under the row lock.
func (l *Ledger) ConsumePass(ctx context.Context, tx repository.Tx, passID, ownerID int64, activity string, entries int, now time.Time) (*domain.SeasonPass, error) {
	if entries <= 0 {
		return nil, fmt.Errorf("entries must be positive -> %w", domain.ErrInvalidInput)
	}

	pass, err := tx.Passes().LockByID(ctx, passID)
	if err != nil {
		return nil, fmt.Errorf("tx.Passes.LockByID -> %w", err)
	}
	switch {
	case pass.OwnerID != ownerID:
		return nil, domain.ErrForbidden
	case pass.ActivityType != activity:
		return nil, domain.ErrEntitlementScope
	case pass.Expired(now):
		return nil, domain.ErrEntitlementExpired
	case pass.EntriesRemaining < entries:
		return nil, domain.ErrEntitlementInsufficient
	}

	pass.EntriesRemaining -= entries
	if err := tx.Passes().UpdateRemaining(ctx, pass.ID, pass.EntriesRemaining); err != nil {
		return nil, fmt.Errorf("tx.Passes.UpdateRemaining -> %w", err)
	}
	return pass, nil
}

// RestorePass credits entries back. It never exceeds entries_total.
func (l *Ledger) RestorePass(ctx context.Context, tx repository.Tx, passID int64, entries int) (*domain.SeasonPass, error) {
	if entries <= 0 {
		return nil, fmt.Errorf("entries must be positive -> %w", domain.ErrInvalidInput)
	}

	pass, err := tx.Passes().LockByID(ctx, passID)
	if err != nil {
		return nil, fmt.Errorf("tx.Passes.LockByID -> %w", err)
	}

	restored := pass.EntriesRemaining + entries
	if restored > pass.EntriesTotal {
		zap.L().Warn("pass restore clamped",
			zap.Int64("pass_id", pass.ID),
			zap.Int("remaining", pass.EntriesRemaining),
			zap.Int("restore", entries),
			zap.Int("total", pass.EntriesTotal),
		)
		metrics.LedgerClamp()
		restored = pass.EntriesTotal
	}

	pass.EntriesRemaining = restored
	if err := tx.Passes().UpdateRemaining(ctx, pass.ID, restored); err != nil {
		return nil, fmt.Errorf("tx.Passes.UpdateRemaining -> %w", err)
	}
	return pass, nil
}

func (l *Ledger) ConsumeCredit(ctx context.Context, tx repository.Tx, creditID, ownerID int64, activity string, bookingID int64, now time.Time) (*domain.Credit, error) {
	credit, err := tx.Credits().LockByID(ctx, creditID)
	if err != nil {
		return nil, fmt.Errorf("tx.Credits.LockByID -> %w", err)
	}
	switch {
	case credit.Consumed:
		return nil, domain.ErrAlreadyConsumed
	case credit.OwnerID != ownerID:
		return nil, domain.ErrForbidden
	case !credit.Covers(activity):
		return nil, domain.ErrEntitlementScope
	}

	if err := tx.Credits().MarkConsumed(ctx, credit.ID, bookingID, now); err != nil {
		return nil, fmt.Errorf("tx.Credits.MarkConsumed -> %w", err)
	}
	credit.Consumed = true
	credit.ConsumedByBookingID = &bookingID
	credit.ConsumedAt = &now
	return credit, nil
}

// IssueCredit creates a fresh unconsumed credit. originBookingID is kept for audit and may be nil.
func (l *Ledger) IssueCredit(ctx context.Context, tx repository.Tx, ownerID int64, scope string, originBookingID *int64) (*domain.Credit, error) {
	credit := &domain.Credit{
		OwnerID:         ownerID,
		ActivityType:    scope,
		OriginBookingID: originBookingID,
	}
	if err := tx.Credits().Create(ctx, credit); err != nil {
		return nil, fmt.Errorf("tx.Credits.Create -> %w", err)
	}
	return credit, nil
}
