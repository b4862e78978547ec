package service

import (
	"errors"
	"fmt"

	"giveaway-draw-backend/internal/features/giveaway/repository"
)

var (
	ErrNotFound           = repository.ErrGiveawayNotFound
	ErrNoNumbersAvailable = errors.New("no numbers available to suggest")
)

// InsufficientCreditsError carries the cost breakdown so the caller can see
// what the pick would have cost, with the box-topper multiplier called out.
type InsufficientCreditsError struct {
	Required  int64
	Available int64
	BoxTopper bool
}

func (e *InsufficientCreditsError) Error() string {
	if e.BoxTopper {
		return fmt.Sprintf("insufficient credits: box topper pick costs %d credits (3x base), balance is %d", e.Required, e.Available)
	}
	return fmt.Sprintf("insufficient credits: pick costs %d credits, balance is %d", e.Required, e.Available)
}
