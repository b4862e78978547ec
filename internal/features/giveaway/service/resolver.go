package service

import (
	"regexp"
	"time"

	"giveaway-draw-backend/internal/features/giveaway/models"
)

var drawResultPattern = regexp.MustCompile(`^[0-9]{3}$`)

// validDrawResult reports whether raw is exactly 3 ASCII digits.
func validDrawResult(raw string) bool {
	return drawResultPattern.MatchString(raw)
}

// resolveSlot selects the winning pick of one slot for the given draw
// result. Selection is fully deterministic:
//
//  1. Minimum absolute numeric distance to the result wins.
//  2. Among distance ties, a pick numerically below the result beats one
//     that is not.
//  3. Among same-side ties, the smaller numeric value wins.
//  4. Identical values held by different users fall back to placement time,
//     then pick ID.
//
// Rules 2 and 3 are product behavior and must not be replaced with
// alternatives such as closest-without-going-over.
func resolveSlot(picks []models.Pick, resultValue int) (models.Pick, int, bool) {
	if len(picks) == 0 {
		return models.Pick{}, 0, false
	}

	best := picks[0]
	bestDistance := distance(best.NumberValue(), resultValue)

	for _, candidate := range picks[1:] {
		candidateDistance := distance(candidate.NumberValue(), resultValue)
		switch {
		case candidateDistance < bestDistance:
			best, bestDistance = candidate, candidateDistance
		case candidateDistance == bestDistance && beatsTie(candidate, best, resultValue):
			best = candidate
		}
	}

	return best, bestDistance, true
}

func distance(value, result int) int {
	if value > result {
		return value - result
	}
	return result - value
}

// beatsTie reports whether candidate wins a distance tie against incumbent.
func beatsTie(candidate, incumbent models.Pick, resultValue int) bool {
	candidateBelow := candidate.NumberValue() < resultValue
	incumbentBelow := incumbent.NumberValue() < resultValue

	if candidateBelow != incumbentBelow {
		return candidateBelow
	}
	if candidate.NumberValue() != incumbent.NumberValue() {
		return candidate.NumberValue() < incumbent.NumberValue()
	}
	if !candidate.CreatedAt.Equal(incumbent.CreatedAt) {
		return candidate.CreatedAt.Before(incumbent.CreatedAt)
	}
	return candidate.ID < incumbent.ID
}

// buildWinner maps a resolved pick to its winner record.
func buildWinner(pick models.Pick, dist int, resolvedAt time.Time) models.Winner {
	return models.Winner{
		GiveawayID: pick.GiveawayID,
		UserID:     pick.UserID,
		Slot:       pick.Slot,
		PickNumber: pick.PickNumber,
		Distance:   dist,
		CreatedAt:  resolvedAt,
	}
}
