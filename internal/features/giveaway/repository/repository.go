package repository

import (
	"context"
	"errors"
	"time"

	"giveaway-draw-backend/internal/features/giveaway/models"
)

var (
	ErrGiveawayNotFound = errors.New("giveaway not found")

	// ErrDuplicatePick is returned by CreatePick when the user already holds
	// the same number in the same slot.
	ErrDuplicatePick = models.ErrDuplicatePick
)

// Repository stores giveaways, picks and winners.
//
// Compound operations are atomic as documented: concurrent callers never
// observe a giveaway completed without its winners, nor a stored pick that
// violates the (giveaway, user, slot, number) uniqueness invariant.
type Repository interface {
	Create(ctx context.Context, giveaway *models.Giveaway) error
	GetByID(ctx context.Context, id string) (*models.Giveaway, error)
	ListByStatus(ctx context.Context, status models.GiveawayStatus) ([]*models.Giveaway, error)

	// UpdateAtomic loads the giveaway under its mutation lock, applies
	// mutate and persists the result. When mutate returns an error nothing
	// is written and the error is returned unchanged.
	UpdateAtomic(ctx context.Context, id string, mutate func(*models.Giveaway) error) (*models.Giveaway, error)

	// CreatePick enforces pick uniqueness, stores the pick and returns the
	// recounted pick total for the giveaway. The count is derived from the
	// stored pick set, never incremented from a cache.
	CreatePick(ctx context.Context, pick *models.Pick) (int64, error)

	HasPick(ctx context.Context, giveawayID string, userID int64, slot int, pickNumber string) (bool, error)
	CountPicks(ctx context.Context, giveawayID string) (int64, error)
	FreePickCount(ctx context.Context, giveawayID string, userID int64) (int64, error)
	AllPicks(ctx context.Context, giveawayID string) ([]models.Pick, error)
	PicksBySlot(ctx context.Context, giveawayID string, slot int) ([]models.Pick, error)
	PicksByUser(ctx context.Context, giveawayID string, userID int64) ([]models.Pick, error)
	SlotCounts(ctx context.Context, giveawayID string) (map[int]int, error)

	// CompleteWithWinners writes all winner records, stores the draw result
	// and marks the giveaway completed in one atomic unit. The giveaway must
	// be closed: models.ErrAlreadyCompleted or models.ErrNotClosed otherwise.
	CompleteWithWinners(ctx context.Context, giveawayID, pick3Result string, completedAt time.Time, winners []models.Winner) (*models.Giveaway, error)

	Winners(ctx context.Context, giveawayID string) ([]models.Winner, error)
}
