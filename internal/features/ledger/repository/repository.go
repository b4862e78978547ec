package repository

import (
	"context"
	"errors"

	"giveaway-draw-backend/internal/features/ledger/models"
)

var (
	// ErrInsufficientFunds is returned when a debit would take the balance
	// below zero and clamping was not requested.
	ErrInsufficientFunds = errors.New("insufficient funds")
)

// Delta describes a requested balance change.
type Delta struct {
	UserID int64
	Amount int64 // signed; negative debits
	Reason string
	Actor  string
	// ClampToZero permits the administrative override path: a negative delta
	// larger than the balance floors the balance at zero instead of failing.
	ClampToZero bool
}

// Repository stores per-user balances with an append-only audit log. The
// balance read, the bounds check, the balance write and the entry append of
// one Apply call are a single atomic unit per user.
type Repository interface {
	// Apply atomically applies a delta and appends the resulting entry.
	Apply(ctx context.Context, delta Delta) (*models.Entry, error)

	// Balance returns the user's current balance (zero for unknown users).
	Balance(ctx context.Context, userID int64) (int64, error)

	// Entries returns the user's ledger entries, newest first.
	Entries(ctx context.Context, userID int64, limit, offset int64) ([]models.Entry, error)
}
