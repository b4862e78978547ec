package models

import (
	"errors"
	"time"
)

var (
	ErrGiveawayNotAcceptingPicks = errors.New("giveaway is not accepting picks")
	ErrEntryCutoffPassed         = errors.New("entry cutoff has passed")
	ErrInvalidSlot               = errors.New("slot is not valid for this giveaway")
	ErrInvalidPickNumber         = errors.New("pick number must be a 3-digit value between 000 and 999")
	ErrDuplicatePick             = errors.New("pick already held for this slot and number")
	ErrNoFreeEntriesRemaining    = errors.New("no free entries remaining")
	ErrAlreadyCompleted          = errors.New("giveaway is already completed")
	ErrAlreadyCancelled          = errors.New("giveaway is already cancelled")
	ErrNotClosed                 = errors.New("giveaway must be closed before a draw result is submitted")
	ErrNotFilling                = errors.New("giveaway must be filling")
	ErrInvalidDrawResult         = errors.New("draw result must be exactly 3 digits")
)

// GiveawayStatus represents the lifecycle state of a giveaway.
type GiveawayStatus string

const (
	GiveawayStatusOpen      GiveawayStatus = "open"
	GiveawayStatusFilling   GiveawayStatus = "filling"   // participation threshold met, draw scheduled
	GiveawayStatusClosed    GiveawayStatus = "closed"    // entry cutoff passed or operator closed
	GiveawayStatusCompleted GiveawayStatus = "completed" // draw result submitted, winners resolved
	GiveawayStatusCancelled GiveawayStatus = "cancelled"
)

const (
	MinSlotCount = 1
	MaxSlotCount = 100

	MinCreditCost = 1
	MaxCreditCost = 100

	// BoxTopperSlot is the extra slot available when HasBoxTopper is set.
	// Entering it costs three times the base cost and never uses free entries.
	BoxTopperSlot = 0

	BoxTopperCostMultiplier = 3
)

// Giveaway is the aggregate for one drawing event of one prize product.
type Giveaway struct {
	ID                 string         `json:"id"`
	CreatorID          int64          `json:"creator_id"`
	Title              string         `json:"title"`
	SlotCount          int            `json:"slot_count"`
	HasBoxTopper       bool           `json:"has_box_topper"`
	MinParticipation   int64          `json:"min_participation"`
	FreeEntriesPerUser int64          `json:"free_entries_per_user"`
	CreditCostPerPick  int64          `json:"credit_cost_per_pick"`
	Status             GiveawayStatus `json:"status"`

	// TotalPicks is a cached count. It is recomputed from the pick set on
	// every mutation and must always equal the number of stored picks.
	TotalPicks int64 `json:"total_picks"`

	DrawDate    *time.Time `json:"draw_date,omitempty"`
	EntryCutoff *time.Time `json:"entry_cutoff,omitempty"`

	Pick3Result string     `json:"pick3_result,omitempty"`
	Pick3Date   *time.Time `json:"pick3_date,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// AcceptingPicks reports whether picks may still be placed, ignoring the
// entry cutoff which is checked separately for a distinct error.
func (g *Giveaway) AcceptingPicks() bool {
	return g.Status == GiveawayStatusOpen || g.Status == GiveawayStatusFilling
}

// IsTerminal reports whether the giveaway reached a final state.
func (g *Giveaway) IsTerminal() bool {
	return g.Status == GiveawayStatusCompleted || g.Status == GiveawayStatusCancelled
}

// ValidSlot reports whether slot exists for this giveaway. Slot 0 exists
// only when the giveaway has a box topper.
func (g *Giveaway) ValidSlot(slot int) bool {
	if slot == BoxTopperSlot {
		return g.HasBoxTopper
	}
	return slot >= 1 && slot <= g.SlotCount
}

// Slots returns every slot index of this giveaway in ascending order.
func (g *Giveaway) Slots() []int {
	slots := make([]int, 0, g.SlotCount+1)
	if g.HasBoxTopper {
		slots = append(slots, BoxTopperSlot)
	}
	for slot := 1; slot <= g.SlotCount; slot++ {
		slots = append(slots, slot)
	}
	return slots
}

// SlotCost returns the credit cost of a pick in the given slot.
func (g *Giveaway) SlotCost(slot int) int64 {
	if slot == BoxTopperSlot {
		return g.CreditCostPerPick * BoxTopperCostMultiplier
	}
	return g.CreditCostPerPick
}
