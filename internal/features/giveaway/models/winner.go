package models

import "time"

// Winner is one slot's resolved outcome for a completed giveaway. A slot
// with no picks yields no winner record.
type Winner struct {
	GiveawayID string `json:"giveaway_id"`
	UserID     int64  `json:"user_id"`
	Slot       int    `json:"slot"`
	PickNumber string `json:"pick_number"`

	// Distance is the absolute numeric difference between the winning pick
	// and the published draw result.
	Distance int `json:"distance"`

	CreatedAt time.Time `json:"created_at"`
}
