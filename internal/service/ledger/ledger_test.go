package ledger

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/Domenick1991/activitybooking/internal/domain"
	"github.com/Domenick1991/activitybooking/internal/repository"
	"github.com/Domenick1991/activitybooking/internal/repository/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const owner int64 = 42

func issuePass(t *testing.T, store repository.Store, l *Ledger, entries int, purchasedAt time.Time) *domain.SeasonPass {
	t.Helper()
	var pass *domain.SeasonPass
	require.NoError(t, store.InTx(context.Background(), func(ctx context.Context, tx repository.Tx) error {
		var err error
		pass, err = l.IssuePass(ctx, tx, owner, "swimming", entries, purchasedAt)
		return err
	}))
	return pass
}

func remaining(t *testing.T, store repository.Store, passID int64) int {
	t.Helper()
	var left int
	require.NoError(t, store.InTx(context.Background(), func(ctx context.Context, tx repository.Tx) error {
		p, err := tx.Passes().GetByID(ctx, passID)
		if err != nil {
			return err
		}
		left = p.EntriesRemaining
		return nil
	}))
	return left
}

func TestLedger_IssuePass_SetsExpiry(t *testing.T) {
	store := memory.NewStore()
	l := NewLedger(30 * 24 * time.Hour)
	purchased := time.Date(2026, 1, 10, 9, 0, 0, 0, time.UTC)

	pass := issuePass(t, store, l, 10, purchased)

	assert.Equal(t, purchased.Add(30*24*time.Hour), pass.ExpiresAt)
	assert.Equal(t, 10, pass.EntriesRemaining)
	assert.Equal(t, 10, pass.EntriesTotal)
}

func TestLedger_ConsumePass(t *testing.T) {
	now := time.Now()
	tests := []struct {
		name      string
		ownerID   int64
		activity  string
		entries   int
		at        time.Time
		wantErr   error
		wantAfter int
	}{
		{name: "debits", ownerID: owner, activity: "swimming", entries: 3, at: now, wantAfter: 2},
		{name: "all entries", ownerID: owner, activity: "swimming", entries: 5, at: now, wantAfter: 0},
		{name: "insufficient", ownerID: owner, activity: "swimming", entries: 6, at: now, wantErr: domain.ErrEntitlementInsufficient, wantAfter: 5},
		{name: "expired", ownerID: owner, activity: "swimming", entries: 1, at: now.Add(400 * 24 * time.Hour), wantErr: domain.ErrEntitlementExpired, wantAfter: 5},
		{name: "other activity", ownerID: owner, activity: "climbing", entries: 1, at: now, wantErr: domain.ErrEntitlementScope, wantAfter: 5},
		{name: "other owner", ownerID: 7, activity: "swimming", entries: 1, at: now, wantErr: domain.ErrForbidden, wantAfter: 5},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := memory.NewStore()
			l := NewLedger(180 * 24 * time.Hour)
			pass := issuePass(t, store, l, 5, now)

			err := store.InTx(context.Background(), func(ctx context.Context, tx repository.Tx) error {
				_, err := l.ConsumePass(ctx, tx, pass.ID, tt.ownerID, tt.activity, tt.entries, tt.at)
				return err
			})
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			} else {
				assert.NoError(t, err)
			}
			assert.Equal(t, tt.wantAfter, remaining(t, store, pass.ID))
		})
	}
}

func TestLedger_RestorePass_Clamps(t *testing.T) {
	store := memory.NewStore()
	l := NewLedger(180 * 24 * time.Hour)
	pass := issuePass(t, store, l, 5, time.Now())

	require.NoError(t, store.InTx(context.Background(), func(ctx context.Context, tx repository.Tx) error {
		_, err := l.ConsumePass(ctx, tx, pass.ID, owner, "swimming", 1, time.Now())
		return err
	}))
	require.NoError(t, store.InTx(context.Background(), func(ctx context.Context, tx repository.Tx) error {
		p, err := l.RestorePass(ctx, tx, pass.ID, 3)
		require.NoError(t, err)
		assert.Equal(t, 5, p.EntriesRemaining)
		return nil
	}))
	assert.Equal(t, 5, remaining(t, store, pass.ID))
}

func TestLedger_PassConservationUnderInterleaving(t *testing.T) {
	store := memory.NewStore()
	l := NewLedger(180 * 24 * time.Hour)
	pass := issuePass(t, store, l, 5, time.Now())

	var wg sync.WaitGroup
	for i := 0; i < 60; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_ = store.InTx(context.Background(), func(ctx context.Context, tx repository.Tx) error {
				var err error
				if i%3 == 0 {
					_, err = l.RestorePass(ctx, tx, pass.ID, 2)
				} else {
					_, err = l.ConsumePass(ctx, tx, pass.ID, owner, "swimming", 1+i%2, time.Now())
				}
				if err != nil && !errors.Is(err, domain.ErrEntitlementInsufficient) {
					t.Errorf("unexpected error: %v", err)
				}
				p, getErr := tx.Passes().GetByID(ctx, pass.ID)
				if getErr != nil {
					return getErr
				}
				if p.EntriesRemaining < 0 || p.EntriesRemaining > p.EntriesTotal {
					t.Errorf("remaining %d outside [0, %d]", p.EntriesRemaining, p.EntriesTotal)
				}
				return err
			})
		}(i)
	}
	wg.Wait()

	left := remaining(t, store, pass.ID)
	assert.GreaterOrEqual(t, left, 0)
	assert.LessOrEqual(t, left, 5)
}

func TestLedger_ConsumeCredit(t *testing.T) {
	store := memory.NewStore()
	l := NewLedger(time.Hour)

	var credit *domain.Credit
	require.NoError(t, store.InTx(context.Background(), func(ctx context.Context, tx repository.Tx) error {
		var err error
		credit, err = l.IssueCredit(ctx, tx, owner, "swimming", nil)
		return err
	}))

	err := store.InTx(context.Background(), func(ctx context.Context, tx repository.Tx) error {
		_, err := l.ConsumeCredit(ctx, tx, credit.ID, owner, "climbing", 1, time.Now())
		return err
	})
	assert.ErrorIs(t, err, domain.ErrEntitlementScope)

	err = store.InTx(context.Background(), func(ctx context.Context, tx repository.Tx) error {
		_, err := l.ConsumeCredit(ctx, tx, credit.ID, 9, "swimming", 1, time.Now())
		return err
	})
	assert.ErrorIs(t, err, domain.ErrForbidden)
}

func TestLedger_ConsumeCredit_ConcurrentDoubleRedeem(t *testing.T) {
	store := memory.NewStore()
	l := NewLedger(time.Hour)

	var credit *domain.Credit
	require.NoError(t, store.InTx(context.Background(), func(ctx context.Context, tx repository.Tx) error {
		var err error
		credit, err = l.IssueCredit(ctx, tx, owner, "", nil)
		return err
	}))

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		succeeded int
		already   int
	)
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(bookingID int64) {
			defer wg.Done()
			err := store.InTx(context.Background(), func(ctx context.Context, tx repository.Tx) error {
				_, err := l.ConsumeCredit(ctx, tx, credit.ID, owner, "gymnastics", bookingID, time.Now())
				return err
			})
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				succeeded++
			case errors.Is(err, domain.ErrAlreadyConsumed):
				already++
			}
		}(int64(i + 1))
	}
	wg.Wait()

	assert.Equal(t, 1, succeeded)
	assert.Equal(t, 9, already)
}
