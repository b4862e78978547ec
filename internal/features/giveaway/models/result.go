package models

// CancellationResult reports the aggregate outcome of a cancellation.
type CancellationResult struct {
	GiveawayID           string `json:"giveaway_id"`
	TotalCreditsRefunded int64  `json:"total_credits_refunded"`
	UsersRefunded        int    `json:"users_refunded"`
}

// Suggestion is an advisory slot and number proposal.
type Suggestion struct {
	GiveawayID string `json:"giveaway_id"`
	Slot       int    `json:"slot"`
	PickNumber string `json:"pick_number"`
	Rationale  string `json:"rationale"`
}
