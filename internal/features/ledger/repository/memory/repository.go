package memory

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"giveaway-draw-backend/internal/features/ledger/models"
	"giveaway-draw-backend/internal/features/ledger/repository"
)

// Repository is an in-memory ledger store. It backs the test suites and
// honors the same atomicity contract as the Redis implementation.
type Repository struct {
	mu       sync.Mutex
	balances map[int64]int64
	entries  map[int64][]models.Entry // newest first
}

func NewMemoryLedgerRepository() *Repository {
	return &Repository{
		balances: make(map[int64]int64),
		entries:  make(map[int64][]models.Entry),
	}
}

func (r *Repository) Apply(ctx context.Context, delta repository.Delta) (*models.Entry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	before := r.balances[delta.UserID]
	after := before + delta.Amount
	if after < 0 {
		if !delta.ClampToZero {
			return nil, repository.ErrInsufficientFunds
		}
		after = 0
	}

	entry := models.Entry{
		ID:            uuid.NewString(),
		UserID:        delta.UserID,
		Amount:        after - before,
		Reason:        delta.Reason,
		BalanceBefore: before,
		BalanceAfter:  after,
		Actor:         delta.Actor,
		CreatedAt:     time.Now().UTC(),
	}

	r.balances[delta.UserID] = after
	r.entries[delta.UserID] = append([]models.Entry{entry}, r.entries[delta.UserID]...)

	return &entry, nil
}

func (r *Repository) Balance(ctx context.Context, userID int64) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.balances[userID], nil
}

func (r *Repository) Entries(ctx context.Context, userID int64, limit, offset int64) ([]models.Entry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if limit <= 0 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}

	all := r.entries[userID]
	if offset >= int64(len(all)) {
		return []models.Entry{}, nil
	}

	end := offset + limit
	if end > int64(len(all)) {
		end = int64(len(all))
	}

	out := make([]models.Entry, end-offset)
	copy(out, all[offset:end])
	return out, nil
}
