package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	gocache "github.com/patrickmn/go-cache"

	"giveaway-draw-backend/internal/common/logger"
	"giveaway-draw-backend/internal/features/giveaway/models"
	"giveaway-draw-backend/internal/features/giveaway/repository"
	ledgermodels "giveaway-draw-backend/internal/features/ledger/models"
	ledgerservice "giveaway-draw-backend/internal/features/ledger/service"
)

const (
	reasonPick         = "giveaway pick"
	reasonPickReversal = "giveaway pick reversal"

	// Slot counts feeding the suggestion engine are advisory, short
	// staleness is acceptable.
	slotCountCacheTTL = 15 * time.Second
)

type giveawayService struct {
	repo     repository.Repository
	ledger   ledgerservice.Service
	notifier Notifier

	loc *time.Location
	now func() time.Time

	slotCounts *gocache.Cache
}

// NewGiveawayService wires the drawing engine. loc is the reference zone for
// draw scheduling; now is injected for testability and defaults to
// time.Now when nil.
func NewGiveawayService(repo repository.Repository, ledger ledgerservice.Service, notifier Notifier, loc *time.Location, now func() time.Time) GiveawayService {
	if now == nil {
		now = time.Now
	}
	return &giveawayService{
		repo:       repo,
		ledger:     ledger,
		notifier:   notifier,
		loc:        loc,
		now:        now,
		slotCounts: gocache.New(slotCountCacheTTL, time.Minute),
	}
}

func (s *giveawayService) Create(ctx context.Context, creatorID int64, input CreateInput) (*models.Giveaway, error) {
	if input.Title == "" {
		return nil, errors.New("missing title")
	}
	if input.SlotCount < models.MinSlotCount || input.SlotCount > models.MaxSlotCount {
		return nil, fmt.Errorf("slot_count must be between %d and %d", models.MinSlotCount, models.MaxSlotCount)
	}
	if input.CreditCostPerPick < models.MinCreditCost || input.CreditCostPerPick > models.MaxCreditCost {
		return nil, fmt.Errorf("credit_cost_per_pick must be between %d and %d", models.MinCreditCost, models.MaxCreditCost)
	}
	if input.MinParticipation < 1 {
		return nil, errors.New("min_participation must be at least 1")
	}
	if input.FreeEntriesPerUser < 0 {
		return nil, errors.New("free_entries_per_user cannot be negative")
	}

	now := s.now().UTC()
	giveaway := &models.Giveaway{
		ID:                 uuid.NewString(),
		CreatorID:          creatorID,
		Title:              input.Title,
		SlotCount:          input.SlotCount,
		HasBoxTopper:       input.HasBoxTopper,
		MinParticipation:   input.MinParticipation,
		FreeEntriesPerUser: input.FreeEntriesPerUser,
		CreditCostPerPick:  input.CreditCostPerPick,
		Status:             models.GiveawayStatusOpen,
		CreatedAt:          now,
		UpdatedAt:          now,
	}

	if err := s.repo.Create(ctx, giveaway); err != nil {
		return nil, fmt.Errorf("failed to create giveaway: %w", err)
	}

	logger.Info().
		Str("giveaway_id", giveaway.ID).
		Int64("creator_id", creatorID).
		Int("slot_count", giveaway.SlotCount).
		Msg("Giveaway created")

	return giveaway, nil
}

func (s *giveawayService) GetByID(ctx context.Context, id string) (*models.Giveaway, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *giveawayService) ListByStatus(ctx context.Context, status models.GiveawayStatus) ([]*models.Giveaway, error) {
	return s.repo.ListByStatus(ctx, status)
}

// PlacePick runs the allocator's validation sequence in order, charges the
// entry, persists the pick and advances the state machine when the
// participation threshold is crossed.
func (s *giveawayService) PlacePick(ctx context.Context, giveawayID string, userID int64, slot int, rawNumber string, useFreeEntry bool) (*models.Pick, error) {
	giveaway, err := s.repo.GetByID(ctx, giveawayID)
	if err != nil {
		return nil, err
	}

	if !giveaway.AcceptingPicks() {
		return nil, models.ErrGiveawayNotAcceptingPicks
	}
	if giveaway.EntryCutoff != nil && s.now().After(*giveaway.EntryCutoff) {
		return nil, models.ErrEntryCutoffPassed
	}
	if !giveaway.ValidSlot(slot) {
		return nil, models.ErrInvalidSlot
	}

	pickNumber, err := models.NormalizePickNumber(rawNumber)
	if err != nil {
		return nil, err
	}

	held, err := s.repo.HasPick(ctx, giveawayID, userID, slot, pickNumber)
	if err != nil {
		return nil, fmt.Errorf("failed to check existing picks: %w", err)
	}
	if held {
		return nil, models.ErrDuplicatePick
	}

	cost := giveaway.SlotCost(slot)

	// The box topper never qualifies for free entries; a free-entry request
	// for it falls through to the paid path.
	isFree := false
	if useFreeEntry && slot != models.BoxTopperSlot {
		freeUsed, err := s.repo.FreePickCount(ctx, giveawayID, userID)
		if err != nil {
			return nil, fmt.Errorf("failed to count free picks: %w", err)
		}
		if freeUsed >= giveaway.FreeEntriesPerUser {
			return nil, models.ErrNoFreeEntriesRemaining
		}
		isFree = true
	}

	if !isFree {
		if _, err := s.ledger.Debit(ctx, userID, cost, reasonPick, ledgermodels.ActorSystem); err != nil {
			if errors.Is(err, ledgerservice.ErrInsufficientFunds) {
				available, balErr := s.ledger.Balance(ctx, userID)
				if balErr != nil {
					available = 0
				}
				return nil, &InsufficientCreditsError{
					Required:  cost,
					Available: available,
					BoxTopper: slot == models.BoxTopperSlot,
				}
			}
			return nil, fmt.Errorf("failed to debit credits: %w", err)
		}
	}

	pick := &models.Pick{
		ID:          uuid.NewString(),
		GiveawayID:  giveawayID,
		UserID:      userID,
		Slot:        slot,
		PickNumber:  pickNumber,
		IsFreeEntry: isFree,
		CreatedAt:   s.now().UTC(),
	}
	if !isFree {
		pick.CostPaid = cost
	}

	total, err := s.repo.CreatePick(ctx, pick)
	if err != nil {
		if !isFree {
			// Compensating entry: the debit committed but the pick did not.
			if _, creditErr := s.ledger.Credit(ctx, userID, cost, reasonPickReversal, ledgermodels.ActorSystem); creditErr != nil {
				logger.Error().
					Err(creditErr).
					Str("giveaway_id", giveawayID).
					Int64("user_id", userID).
					Int64("amount", cost).
					Msg("Failed to reverse debit after pick creation failure")
			}
		}
		return nil, err
	}

	scheduleNow := s.now()
	updated, err := s.repo.UpdateAtomic(ctx, giveawayID, func(g *models.Giveaway) error {
		// The recount can race other placements; never let the cached total
		// move backwards.
		if total > g.TotalPicks {
			g.TotalPicks = total
		}

		// The first crossing computes the schedule; concurrent crossings
		// observe FILLING and keep it.
		if g.Status == models.GiveawayStatusOpen && g.TotalPicks >= g.MinParticipation {
			g.Status = models.GiveawayStatusFilling
			drawDate, entryCutoff := computeDrawSchedule(scheduleNow, s.loc)
			g.DrawDate = &drawDate
			g.EntryCutoff = &entryCutoff
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to update pick totals: %w", err)
	}

	if updated.Status == models.GiveawayStatusFilling && giveaway.Status == models.GiveawayStatusOpen {
		logger.Info().
			Str("giveaway_id", giveawayID).
			Int64("total_picks", updated.TotalPicks).
			Time("draw_date", *updated.DrawDate).
			Time("entry_cutoff", *updated.EntryCutoff).
			Msg("Participation threshold met, draw scheduled")
	}

	return pick, nil
}

func (s *giveawayService) UserPicks(ctx context.Context, giveawayID string, userID int64) ([]models.Pick, error) {
	if _, err := s.repo.GetByID(ctx, giveawayID); err != nil {
		return nil, err
	}
	return s.repo.PicksByUser(ctx, giveawayID, userID)
}

func (s *giveawayService) RecomputeSchedule(ctx context.Context, giveawayID string) (*models.Giveaway, error) {
	scheduleNow := s.now()
	return s.repo.UpdateAtomic(ctx, giveawayID, func(g *models.Giveaway) error {
		if !g.AcceptingPicks() {
			return models.ErrGiveawayNotAcceptingPicks
		}
		drawDate, entryCutoff := computeDrawSchedule(scheduleNow, s.loc)
		g.DrawDate = &drawDate
		g.EntryCutoff = &entryCutoff
		return nil
	})
}

func (s *giveawayService) Close(ctx context.Context, giveawayID string) (*models.Giveaway, error) {
	updated, err := s.repo.UpdateAtomic(ctx, giveawayID, func(g *models.Giveaway) error {
		if g.Status != models.GiveawayStatusFilling {
			return models.ErrNotFilling
		}
		g.Status = models.GiveawayStatusClosed
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.Info().Str("giveaway_id", giveawayID).Msg("Giveaway closed")
	return updated, nil
}

func (s *giveawayService) CloseExpired(ctx context.Context) (int, error) {
	filling, err := s.repo.ListByStatus(ctx, models.GiveawayStatusFilling)
	if err != nil {
		return 0, fmt.Errorf("failed to list filling giveaways: %w", err)
	}

	now := s.now()
	closed := 0
	for _, giveaway := range filling {
		if giveaway.EntryCutoff == nil || now.Before(*giveaway.EntryCutoff) {
			continue
		}

		_, err := s.repo.UpdateAtomic(ctx, giveaway.ID, func(g *models.Giveaway) error {
			// Re-check under the lock, a manual close may have raced us.
			if g.Status != models.GiveawayStatusFilling {
				return models.ErrNotFilling
			}
			if g.EntryCutoff == nil || now.Before(*g.EntryCutoff) {
				return models.ErrNotFilling
			}
			g.Status = models.GiveawayStatusClosed
			return nil
		})
		if err != nil {
			if errors.Is(err, models.ErrNotFilling) {
				continue
			}
			logger.Error().Err(err).Str("giveaway_id", giveaway.ID).Msg("Failed to close expired giveaway")
			continue
		}

		closed++
		logger.Info().Str("giveaway_id", giveaway.ID).Msg("Entry cutoff passed, giveaway closed")
	}

	return closed, nil
}

func (s *giveawayService) SubmitDraw(ctx context.Context, giveawayID, pick3Result string) ([]models.Winner, error) {
	if !validDrawResult(pick3Result) {
		return nil, models.ErrInvalidDrawResult
	}

	giveaway, err := s.repo.GetByID(ctx, giveawayID)
	if err != nil {
		return nil, err
	}

	resultValue := 0
	for _, digit := range pick3Result {
		resultValue = resultValue*10 + int(digit-'0')
	}

	resolvedAt := s.now().UTC()
	winners := make([]models.Winner, 0, giveaway.SlotCount+1)
	for _, slot := range giveaway.Slots() {
		picks, err := s.repo.PicksBySlot(ctx, giveawayID, slot)
		if err != nil {
			return nil, fmt.Errorf("failed to load picks for slot %d: %w", slot, err)
		}

		if winning, dist, ok := resolveSlot(picks, resultValue); ok {
			winners = append(winners, buildWinner(winning, dist, resolvedAt))
		}
	}

	completed, err := s.repo.CompleteWithWinners(ctx, giveawayID, pick3Result, resolvedAt, winners)
	if err != nil {
		return nil, err
	}

	logger.Info().
		Str("giveaway_id", giveawayID).
		Str("pick3_result", pick3Result).
		Int("winners", len(winners)).
		Msg("Giveaway completed")

	// Best effort, never rolls back the resolution.
	go s.notifyWinners(completed, winners)

	return winners, nil
}

// notifyWinners batches slots per user and dispatches one notification each.
func (s *giveawayService) notifyWinners(giveaway *models.Giveaway, winners []models.Winner) {
	if s.notifier == nil {
		return
	}

	slotsByUser := make(map[int64][]int)
	order := make([]int64, 0, len(winners))
	for _, winner := range winners {
		if _, seen := slotsByUser[winner.UserID]; !seen {
			order = append(order, winner.UserID)
		}
		slotsByUser[winner.UserID] = append(slotsByUser[winner.UserID], winner.Slot)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	for _, userID := range order {
		if err := s.notifier.NotifyWinner(ctx, userID, giveaway, slotsByUser[userID]); err != nil {
			logger.Error().
				Err(err).
				Str("giveaway_id", giveaway.ID).
				Int64("user_id", userID).
				Msg("Failed to notify winner")
		}
	}
}

func (s *giveawayService) Winners(ctx context.Context, giveawayID string) ([]models.Winner, error) {
	if _, err := s.repo.GetByID(ctx, giveawayID); err != nil {
		return nil, err
	}
	return s.repo.Winners(ctx, giveawayID)
}

// Cancel flips the giveaway to its terminal cancelled state and then credits
// back the original cost of every paid pick. The status flip is the
// idempotency guard: a second cancellation fails before any refund runs.
func (s *giveawayService) Cancel(ctx context.Context, giveawayID string) (*models.CancellationResult, error) {
	_, err := s.repo.UpdateAtomic(ctx, giveawayID, func(g *models.Giveaway) error {
		switch g.Status {
		case models.GiveawayStatusCompleted:
			return models.ErrAlreadyCompleted
		case models.GiveawayStatusCancelled:
			return models.ErrAlreadyCancelled
		}
		g.Status = models.GiveawayStatusCancelled
		return nil
	})
	if err != nil {
		return nil, err
	}

	picks, err := s.repo.AllPicks(ctx, giveawayID)
	if err != nil {
		return nil, fmt.Errorf("failed to load picks for refund: %w", err)
	}

	// Refund the cost actually charged at placement time, never the live
	// rate. Free entries are voided without refund.
	refunds := make(map[int64]int64)
	order := make([]int64, 0)
	for _, pick := range picks {
		if pick.IsFreeEntry {
			continue
		}
		if _, seen := refunds[pick.UserID]; !seen {
			order = append(order, pick.UserID)
		}
		refunds[pick.UserID] += pick.CostPaid
	}

	// The reason carries the giveaway ID so a replay after a partial failure
	// can tell from the ledger which users were already credited.
	reason := cancellationReason(giveawayID)

	result := &models.CancellationResult{GiveawayID: giveawayID}
	for _, userID := range order {
		amount := refunds[userID]
		if amount <= 0 {
			continue
		}
		if _, err := s.ledger.Credit(ctx, userID, amount, reason, ledgermodels.ActorSystem); err != nil {
			return result, fmt.Errorf("failed to refund user %d: %w", userID, err)
		}
		result.TotalCreditsRefunded += amount
		result.UsersRefunded++
	}

	logger.Info().
		Str("giveaway_id", giveawayID).
		Int64("credits_refunded", result.TotalCreditsRefunded).
		Int("users_refunded", result.UsersRefunded).
		Msg("Giveaway cancelled, paid picks refunded")

	return result, nil
}

// cancellationReason is the ledger reason for cancellation refunds, keyed by
// giveaway so refund entries stay attributable.
func cancellationReason(giveawayID string) string {
	return "giveaway " + giveawayID + " cancelled: credits refunded"
}

func (s *giveawayService) Suggest(ctx context.Context, giveawayID string, userID int64) (*models.Suggestion, error) {
	giveaway, err := s.repo.GetByID(ctx, giveawayID)
	if err != nil {
		return nil, err
	}

	counts, err := s.cachedSlotCounts(ctx, giveawayID)
	if err != nil {
		return nil, err
	}

	// Regular slots only: the box topper's tripled cost makes it a poor
	// default proposal.
	slots := make([]int, 0, giveaway.SlotCount)
	for slot := 1; slot <= giveaway.SlotCount; slot++ {
		slots = append(slots, slot)
	}
	slot := chooseSlot(slots, counts)

	picks, err := s.repo.PicksBySlot(ctx, giveawayID, slot)
	if err != nil {
		return nil, fmt.Errorf("failed to load picks for slot %d: %w", slot, err)
	}

	taken := make(map[int]bool, len(picks))
	userHeld := make(map[int]bool)
	for _, pick := range picks {
		taken[pick.NumberValue()] = true
		if pick.UserID == userID {
			userHeld[pick.NumberValue()] = true
		}
	}

	suggestion := suggestNumber(taken, userHeld)
	if !suggestion.ok {
		return nil, ErrNoNumbersAvailable
	}

	return &models.Suggestion{
		GiveawayID: giveawayID,
		Slot:       slot,
		PickNumber: fmt.Sprintf("%03d", suggestion.value),
		Rationale:  suggestion.rationale,
	}, nil
}

func (s *giveawayService) cachedSlotCounts(ctx context.Context, giveawayID string) (map[int]int, error) {
	if cached, found := s.slotCounts.Get(giveawayID); found {
		return cached.(map[int]int), nil
	}

	counts, err := s.repo.SlotCounts(ctx, giveawayID)
	if err != nil {
		return nil, fmt.Errorf("failed to count picks per slot: %w", err)
	}

	s.slotCounts.Set(giveawayID, counts, gocache.DefaultExpiration)
	return counts, nil
}
