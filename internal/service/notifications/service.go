package notifications

import (
	"context"

	"giveaway-draw-backend/internal/common/logger"
	"giveaway-draw-backend/internal/features/giveaway/models"
)

// Service records winner notifications to the application log. It stands in
// for an outbound delivery channel; the engine only depends on the Notifier
// contract, so swapping in a real transport is a wiring change.
type Service struct{}

func NewNotificationService() *Service {
	return &Service{}
}

func (s *Service) NotifyWinner(ctx context.Context, userID int64, giveaway *models.Giveaway, slots []int) error {
	logger.Info().
		Int64("user_id", userID).
		Str("giveaway_id", giveaway.ID).
		Str("giveaway_title", giveaway.Title).
		Ints("slots", slots).
		Msg("Winner notification dispatched")
	return nil
}
