package models

import "time"

// Actor identifies who initiated a balance change.
const (
	ActorSystem   = "system"
	ActorOperator = "operator"
)

// Entry is one append-only record of a credit balance change. Entries are
// never mutated or deleted; mistakes are corrected by compensating entries.
type Entry struct {
	ID            string    `json:"id"`
	UserID        int64     `json:"user_id"`
	Amount        int64     `json:"amount"` // signed delta
	Reason        string    `json:"reason"`
	BalanceBefore int64     `json:"balance_before"`
	BalanceAfter  int64     `json:"balance_after"`
	Actor         string    `json:"actor"`
	CreatedAt     time.Time `json:"created_at"`
}
