package service

import (
	"context"

	"giveaway-draw-backend/internal/features/giveaway/models"
)

// Notifier delivers winner notifications. Delivery is best effort: the
// resolver never rolls back because a notification failed.
type Notifier interface {
	// NotifyWinner tells one user about every slot they won in a giveaway.
	NotifyWinner(ctx context.Context, userID int64, giveaway *models.Giveaway, slots []int) error
}

// GiveawayService is the drawing engine's entry point.
type GiveawayService interface {
	Create(ctx context.Context, creatorID int64, input CreateInput) (*models.Giveaway, error)
	GetByID(ctx context.Context, id string) (*models.Giveaway, error)
	ListByStatus(ctx context.Context, status models.GiveawayStatus) ([]*models.Giveaway, error)

	// PlacePick validates and records a user's slot+number reservation,
	// charging credits or consuming a free entry.
	PlacePick(ctx context.Context, giveawayID string, userID int64, slot int, rawNumber string, useFreeEntry bool) (*models.Pick, error)

	UserPicks(ctx context.Context, giveawayID string, userID int64) ([]models.Pick, error)

	// RecomputeSchedule re-anchors the draw schedule on "tomorrow" relative
	// to now. Permitted while the giveaway is open or filling.
	RecomputeSchedule(ctx context.Context, giveawayID string) (*models.Giveaway, error)

	// Close performs the manual filling-to-closed transition.
	Close(ctx context.Context, giveawayID string) (*models.Giveaway, error)

	// CloseExpired closes every filling giveaway whose entry cutoff passed.
	// Called by the periodic sweep.
	CloseExpired(ctx context.Context) (int, error)

	// SubmitDraw resolves winners against a published 3-digit result and
	// completes the giveaway.
	SubmitDraw(ctx context.Context, giveawayID, pick3Result string) ([]models.Winner, error)

	Winners(ctx context.Context, giveawayID string) ([]models.Winner, error)

	// Cancel voids the giveaway and refunds the original cost of every paid
	// pick.
	Cancel(ctx context.Context, giveawayID string) (*models.CancellationResult, error)

	// Suggest proposes a slot and number for a prospective entrant. Purely
	// advisory; it never blocks the allocator.
	Suggest(ctx context.Context, giveawayID string, userID int64) (*models.Suggestion, error)
}

// CreateInput carries the operator-supplied giveaway parameters.
type CreateInput struct {
	Title              string
	SlotCount          int
	HasBoxTopper       bool
	MinParticipation   int64
	FreeEntriesPerUser int64
	CreditCostPerPick  int64
}
