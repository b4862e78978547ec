package dto

import (
	"encoding/json"
	"fmt"
	"time"

	"giveaway-draw-backend/internal/features/giveaway/models"
)

// PickNumberValue accepts the pick number as either a JSON string or a JSON
// integer, since clients send both.
type PickNumberValue string

func (p *PickNumberValue) UnmarshalJSON(data []byte) error {
	var asString string
	if err := json.Unmarshal(data, &asString); err == nil {
		*p = PickNumberValue(asString)
		return nil
	}

	var asInt int
	if err := json.Unmarshal(data, &asInt); err == nil {
		*p = PickNumberValue(fmt.Sprintf("%d", asInt))
		return nil
	}

	return fmt.Errorf("pick_number must be a string or an integer")
}

type GiveawayCreateRequest struct {
	Title              string `json:"title" binding:"required,min=3,max=200"`
	SlotCount          int    `json:"slot_count" binding:"required,min=1,max=100"`
	HasBoxTopper       bool   `json:"has_box_topper"`
	MinParticipation   int64  `json:"min_participation" binding:"required,min=1"`
	FreeEntriesPerUser int64  `json:"free_entries_per_user" binding:"min=0"`
	CreditCostPerPick  int64  `json:"credit_cost_per_pick" binding:"required,min=1,max=100"`
}

type PlacePickRequest struct {
	Slot         int             `json:"slot"`
	PickNumber   PickNumberValue `json:"pick_number" binding:"required"`
	UseFreeEntry bool            `json:"use_free_entry"`
}

type DrawSubmitRequest struct {
	Pick3Result string `json:"pick3_result" binding:"required"`
}

type DrawSubmitResponse struct {
	GiveawayID  string          `json:"giveaway_id"`
	Pick3Result string          `json:"pick3_result"`
	Winners     []models.Winner `json:"winners"`
}

type CancelResponse struct {
	GiveawayID           string `json:"giveaway_id"`
	TotalCreditsRefunded int64  `json:"total_credits_refunded"`
	UsersRefunded        int    `json:"users_refunded"`
}

type SuggestionResponse struct {
	GiveawayID string `json:"giveaway_id"`
	Slot       int    `json:"slot"`
	PickNumber string `json:"pick_number"`
	Rationale  string `json:"rationale"`
}

type GiveawayResponse struct {
	ID                 string                `json:"id"`
	Title              string                `json:"title"`
	SlotCount          int                   `json:"slot_count"`
	HasBoxTopper       bool                  `json:"has_box_topper"`
	MinParticipation   int64                 `json:"min_participation"`
	FreeEntriesPerUser int64                 `json:"free_entries_per_user"`
	CreditCostPerPick  int64                 `json:"credit_cost_per_pick"`
	Status             models.GiveawayStatus `json:"status"`
	TotalPicks         int64                 `json:"total_picks"`
	DrawDate           *time.Time            `json:"draw_date,omitempty"`
	EntryCutoff        *time.Time            `json:"entry_cutoff,omitempty"`
	Pick3Result        string                `json:"pick3_result,omitempty"`
	Pick3Date          *time.Time            `json:"pick3_date,omitempty"`
	CreatedAt          time.Time             `json:"created_at"`
}

// FromGiveaway maps the aggregate to its API shape.
func FromGiveaway(g *models.Giveaway) GiveawayResponse {
	return GiveawayResponse{
		ID:                 g.ID,
		Title:              g.Title,
		SlotCount:          g.SlotCount,
		HasBoxTopper:       g.HasBoxTopper,
		MinParticipation:   g.MinParticipation,
		FreeEntriesPerUser: g.FreeEntriesPerUser,
		CreditCostPerPick:  g.CreditCostPerPick,
		Status:             g.Status,
		TotalPicks:         g.TotalPicks,
		DrawDate:           g.DrawDate,
		EntryCutoff:        g.EntryCutoff,
		Pick3Result:        g.Pick3Result,
		Pick3Date:          g.Pick3Date,
		CreatedAt:          g.CreatedAt,
	}
}
