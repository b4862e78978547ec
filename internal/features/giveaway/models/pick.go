package models

import (
	"fmt"
	"strconv"
	"time"
)

// Pick is one user's reservation of one 3-digit number within one slot.
// Picks are immutable once created.
type Pick struct {
	ID          string `json:"id"`
	GiveawayID  string `json:"giveaway_id"`
	UserID      int64  `json:"user_id"`
	Slot        int    `json:"slot"`
	PickNumber  string `json:"pick_number"` // zero-padded, 000-999
	IsFreeEntry bool   `json:"is_free_entry"`

	// CostPaid is the credit cost charged at placement time. Refunds on
	// cancellation use this value, never the live cost.
	CostPaid int64 `json:"cost_paid"`

	CreatedAt time.Time `json:"created_at"`
}

// NumberValue returns the pick number as an integer.
func (p *Pick) NumberValue() int {
	value, _ := strconv.Atoi(p.PickNumber)
	return value
}

// NormalizePickNumber zero-pads a raw pick number and validates that it lies
// in 000-999. It accepts "7", "007" and "  42 "-style input.
func NormalizePickNumber(raw string) (string, error) {
	trimmed := ""
	for _, r := range raw {
		if r == ' ' || r == '\t' {
			continue
		}
		trimmed += string(r)
	}

	if trimmed == "" || len(trimmed) > 3 {
		return "", ErrInvalidPickNumber
	}

	value, err := strconv.Atoi(trimmed)
	if err != nil || value < 0 || value > 999 {
		return "", ErrInvalidPickNumber
	}

	return fmt.Sprintf("%03d", value), nil
}
