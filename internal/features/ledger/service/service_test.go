package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"giveaway-draw-backend/internal/features/ledger/models"
	"giveaway-draw-backend/internal/features/ledger/repository/memory"
)

func newTestService() Service {
	return NewLedgerService(memory.NewMemoryLedgerRepository())
}

func TestCreditAndDebit(t *testing.T) {
	ctx := context.Background()
	svc := newTestService()

	balance, err := svc.Credit(ctx, 1, 10, "purchase", models.ActorSystem)
	require.NoError(t, err)
	assert.Equal(t, int64(10), balance)

	balance, err = svc.Debit(ctx, 1, 4, "giveaway pick", models.ActorSystem)
	require.NoError(t, err)
	assert.Equal(t, int64(6), balance)

	got, err := svc.Balance(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(6), got)
}

func TestDebitInsufficientFundsDoesNotMutate(t *testing.T) {
	ctx := context.Background()
	svc := newTestService()

	_, err := svc.Credit(ctx, 1, 3, "purchase", models.ActorSystem)
	require.NoError(t, err)

	_, err = svc.Debit(ctx, 1, 5, "giveaway pick", models.ActorSystem)
	assert.ErrorIs(t, err, ErrInsufficientFunds)

	balance, err := svc.Balance(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(3), balance)

	// The failed debit must not have appended an entry.
	entries, err := svc.History(ctx, 1, 10, 0)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestAdminDeductFloorsAtZero(t *testing.T) {
	ctx := context.Background()
	svc := newTestService()

	_, err := svc.Credit(ctx, 1, 3, "purchase", models.ActorSystem)
	require.NoError(t, err)

	balance, err := svc.AdminDeduct(ctx, 1, 100, "fraud reversal")
	require.NoError(t, err)
	assert.Equal(t, int64(0), balance)

	entries, err := svc.History(ctx, 1, 10, 0)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	// The recorded delta is the applied amount, not the requested one.
	assert.Equal(t, int64(-3), entries[0].Amount)
	assert.Equal(t, int64(3), entries[0].BalanceBefore)
	assert.Equal(t, int64(0), entries[0].BalanceAfter)
}

func TestInvalidAmounts(t *testing.T) {
	ctx := context.Background()
	svc := newTestService()

	_, err := svc.Credit(ctx, 1, 0, "x", models.ActorSystem)
	assert.ErrorIs(t, err, ErrInvalidAmount)

	_, err = svc.Debit(ctx, 1, -2, "x", models.ActorSystem)
	assert.ErrorIs(t, err, ErrInvalidAmount)
}

func TestHistoryClampsNegativeOffset(t *testing.T) {
	ctx := context.Background()
	svc := newTestService()

	_, err := svc.Credit(ctx, 1, 10, "purchase", models.ActorSystem)
	require.NoError(t, err)
	_, err = svc.Debit(ctx, 1, 4, "giveaway pick", models.ActorSystem)
	require.NoError(t, err)

	entries, err := svc.History(ctx, 1, 10, -5)
	require.NoError(t, err)
	assert.Len(t, entries, 2)
}

func TestBalanceEqualsEntrySum(t *testing.T) {
	ctx := context.Background()
	svc := newTestService()

	_, err := svc.Credit(ctx, 7, 20, "purchase", models.ActorSystem)
	require.NoError(t, err)
	_, err = svc.Debit(ctx, 7, 5, "giveaway pick", models.ActorSystem)
	require.NoError(t, err)
	_, err = svc.Credit(ctx, 7, 2, "giveaway cancelled: credits refunded", models.ActorSystem)
	require.NoError(t, err)

	entries, err := svc.History(ctx, 7, 100, 0)
	require.NoError(t, err)

	var sum int64
	for _, entry := range entries {
		sum += entry.Amount
	}

	balance, err := svc.Balance(ctx, 7)
	require.NoError(t, err)
	assert.Equal(t, balance, sum)

	// Entries chain: each BalanceAfter is the next (older) entry's
	// BalanceBefore plus its own delta, newest first.
	for i := 0; i < len(entries)-1; i++ {
		assert.Equal(t, entries[i].BalanceBefore, entries[i+1].BalanceAfter)
	}
}
