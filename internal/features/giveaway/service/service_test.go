package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"giveaway-draw-backend/internal/features/giveaway/models"
	"giveaway-draw-backend/internal/features/giveaway/repository/memory"
	ledgermodels "giveaway-draw-backend/internal/features/ledger/models"
	ledgermemory "giveaway-draw-backend/internal/features/ledger/repository/memory"
	ledgerservice "giveaway-draw-backend/internal/features/ledger/service"
)

type fixture struct {
	repo   *memory.Repository
	ledger ledgerservice.Service
	svc    GiveawayService
	now    time.Time
	loc    *time.Location
}

// newFixture pins "now" to a Wednesday noon in the reference zone so schedule
// assertions are deterministic.
func newFixture(t *testing.T) *fixture {
	t.Helper()

	loc, err := time.LoadLocation("America/New_York")
	require.NoError(t, err)

	f := &fixture{
		repo:   memory.NewMemoryGiveawayRepository(),
		ledger: ledgerservice.NewLedgerService(ledgermemory.NewMemoryLedgerRepository()),
		now:    time.Date(2025, 6, 11, 12, 0, 0, 0, loc),
		loc:    loc,
	}
	f.svc = NewGiveawayService(f.repo, f.ledger, nil, loc, func() time.Time { return f.now })
	return f
}

func (f *fixture) createGiveaway(t *testing.T, input CreateInput) *models.Giveaway {
	t.Helper()
	giveaway, err := f.svc.Create(context.Background(), 99, input)
	require.NoError(t, err)
	return giveaway
}

func (f *fixture) fund(t *testing.T, userID, amount int64) {
	t.Helper()
	_, err := f.ledger.Credit(context.Background(), userID, amount, "purchase", ledgermodels.ActorSystem)
	require.NoError(t, err)
}

func (f *fixture) setStatus(t *testing.T, giveawayID string, status models.GiveawayStatus) {
	t.Helper()
	_, err := f.repo.UpdateAtomic(context.Background(), giveawayID, func(g *models.Giveaway) error {
		g.Status = status
		return nil
	})
	require.NoError(t, err)
}

func defaultInput() CreateInput {
	return CreateInput{
		Title:              "Vintage booster box",
		SlotCount:          10,
		MinParticipation:   100,
		FreeEntriesPerUser: 0,
		CreditCostPerPick:  2,
	}
}

func TestCreateValidatesLimits(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	input := defaultInput()
	input.SlotCount = 101
	_, err := f.svc.Create(ctx, 1, input)
	assert.Error(t, err)

	input = defaultInput()
	input.CreditCostPerPick = 0
	_, err = f.svc.Create(ctx, 1, input)
	assert.Error(t, err)

	giveaway := f.createGiveaway(t, defaultInput())
	assert.Equal(t, models.GiveawayStatusOpen, giveaway.Status)
	assert.Zero(t, giveaway.TotalPicks)
	assert.Nil(t, giveaway.DrawDate)
}

func TestPlacePickChargesCredits(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	giveaway := f.createGiveaway(t, defaultInput())
	f.fund(t, 1, 10)

	pick, err := f.svc.PlacePick(ctx, giveaway.ID, 1, 3, "047", false)
	require.NoError(t, err)
	assert.Equal(t, "047", pick.PickNumber)
	assert.False(t, pick.IsFreeEntry)
	assert.Equal(t, int64(2), pick.CostPaid)

	balance, err := f.ledger.Balance(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(8), balance)

	updated, err := f.svc.GetByID(ctx, giveaway.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), updated.TotalPicks)
}

func TestPlacePickNormalizesNumber(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	giveaway := f.createGiveaway(t, defaultInput())
	f.fund(t, 1, 10)

	pick, err := f.svc.PlacePick(ctx, giveaway.ID, 1, 1, "7", false)
	require.NoError(t, err)
	assert.Equal(t, "007", pick.PickNumber)

	// "7" and "007" are the same number, so the second placement collides.
	_, err = f.svc.PlacePick(ctx, giveaway.ID, 1, 1, "007", false)
	assert.ErrorIs(t, err, models.ErrDuplicatePick)

	_, err = f.svc.PlacePick(ctx, giveaway.ID, 1, 1, "1000", false)
	assert.ErrorIs(t, err, models.ErrInvalidPickNumber)
}

func TestPlacePickInvalidSlot(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	giveaway := f.createGiveaway(t, defaultInput())
	f.fund(t, 1, 10)

	_, err := f.svc.PlacePick(ctx, giveaway.ID, 1, 11, "100", false)
	assert.ErrorIs(t, err, models.ErrInvalidSlot)

	// Slot 0 only exists with a box topper.
	_, err = f.svc.PlacePick(ctx, giveaway.ID, 1, 0, "100", false)
	assert.ErrorIs(t, err, models.ErrInvalidSlot)
}

func TestPlacePickInsufficientCredits(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	giveaway := f.createGiveaway(t, defaultInput())
	f.fund(t, 1, 1)

	_, err := f.svc.PlacePick(ctx, giveaway.ID, 1, 1, "100", false)

	var insufficient *InsufficientCreditsError
	require.ErrorAs(t, err, &insufficient)
	assert.Equal(t, int64(2), insufficient.Required)
	assert.Equal(t, int64(1), insufficient.Available)
	assert.False(t, insufficient.BoxTopper)

	// The failed placement must not have charged anything.
	balance, err := f.ledger.Balance(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(1), balance)
}

func TestPlacePickFreeEntry(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	input := defaultInput()
	input.FreeEntriesPerUser = 1
	giveaway := f.createGiveaway(t, input)

	// No funding needed for a free entry.
	pick, err := f.svc.PlacePick(ctx, giveaway.ID, 1, 2, "250", true)
	require.NoError(t, err)
	assert.True(t, pick.IsFreeEntry)
	assert.Zero(t, pick.CostPaid)

	_, err = f.svc.PlacePick(ctx, giveaway.ID, 1, 2, "251", true)
	assert.ErrorIs(t, err, models.ErrNoFreeEntriesRemaining)
}

func TestBoxTopperCostsTripleAndIgnoresFreeEntries(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	input := defaultInput()
	input.HasBoxTopper = true
	input.FreeEntriesPerUser = 5
	giveaway := f.createGiveaway(t, input)
	f.fund(t, 1, 10)

	// A free-entry request for slot 0 is charged anyway.
	pick, err := f.svc.PlacePick(ctx, giveaway.ID, 1, models.BoxTopperSlot, "500", true)
	require.NoError(t, err)
	assert.False(t, pick.IsFreeEntry)
	assert.Equal(t, int64(6), pick.CostPaid)

	balance, err := f.ledger.Balance(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(4), balance)

	// An underfunded box topper attempt reports the tripled cost.
	_, err = f.svc.PlacePick(ctx, giveaway.ID, 1, models.BoxTopperSlot, "501", false)
	var insufficient *InsufficientCreditsError
	require.ErrorAs(t, err, &insufficient)
	assert.Equal(t, int64(6), insufficient.Required)
	assert.True(t, insufficient.BoxTopper)
}

func TestThresholdCrossingSchedulesDraw(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	input := defaultInput()
	input.MinParticipation = 2
	giveaway := f.createGiveaway(t, input)
	f.fund(t, 1, 10)
	f.fund(t, 2, 10)

	_, err := f.svc.PlacePick(ctx, giveaway.ID, 1, 1, "100", false)
	require.NoError(t, err)

	mid, err := f.svc.GetByID(ctx, giveaway.ID)
	require.NoError(t, err)
	assert.Equal(t, models.GiveawayStatusOpen, mid.Status)

	_, err = f.svc.PlacePick(ctx, giveaway.ID, 2, 1, "200", false)
	require.NoError(t, err)

	updated, err := f.svc.GetByID(ctx, giveaway.ID)
	require.NoError(t, err)
	assert.Equal(t, models.GiveawayStatusFilling, updated.Status)
	assert.Equal(t, int64(2), updated.TotalPicks)

	// now is Wednesday noon, so the draw lands on Thursday June 12.
	require.NotNil(t, updated.DrawDate)
	require.NotNil(t, updated.EntryCutoff)
	wantDraw := time.Date(2025, 6, 12, 19, 30, 0, 0, f.loc)
	wantCutoff := time.Date(2025, 6, 12, 17, 0, 0, 0, f.loc)
	assert.True(t, updated.DrawDate.Equal(wantDraw))
	assert.True(t, updated.EntryCutoff.Equal(wantCutoff))
}

func TestPlacePickAfterCutoff(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	giveaway := f.createGiveaway(t, defaultInput())
	f.fund(t, 1, 10)

	cutoff := f.now.Add(-time.Hour)
	_, err := f.repo.UpdateAtomic(ctx, giveaway.ID, func(g *models.Giveaway) error {
		g.Status = models.GiveawayStatusFilling
		g.EntryCutoff = &cutoff
		return nil
	})
	require.NoError(t, err)

	_, err = f.svc.PlacePick(ctx, giveaway.ID, 1, 1, "100", false)
	assert.ErrorIs(t, err, models.ErrEntryCutoffPassed)
}

func TestCloseRequiresFilling(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	giveaway := f.createGiveaway(t, defaultInput())

	_, err := f.svc.Close(ctx, giveaway.ID)
	assert.ErrorIs(t, err, models.ErrNotFilling)

	f.setStatus(t, giveaway.ID, models.GiveawayStatusFilling)

	closed, err := f.svc.Close(ctx, giveaway.ID)
	require.NoError(t, err)
	assert.Equal(t, models.GiveawayStatusClosed, closed.Status)
}

func TestCloseExpiredOnlyClosesPastCutoff(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	expired := f.createGiveaway(t, defaultInput())
	pastCutoff := f.now.Add(-time.Hour)
	_, err := f.repo.UpdateAtomic(ctx, expired.ID, func(g *models.Giveaway) error {
		g.Status = models.GiveawayStatusFilling
		g.EntryCutoff = &pastCutoff
		return nil
	})
	require.NoError(t, err)

	active := f.createGiveaway(t, defaultInput())
	futureCutoff := f.now.Add(time.Hour)
	_, err = f.repo.UpdateAtomic(ctx, active.ID, func(g *models.Giveaway) error {
		g.Status = models.GiveawayStatusFilling
		g.EntryCutoff = &futureCutoff
		return nil
	})
	require.NoError(t, err)

	closed, err := f.svc.CloseExpired(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, closed)

	got, err := f.svc.GetByID(ctx, expired.ID)
	require.NoError(t, err)
	assert.Equal(t, models.GiveawayStatusClosed, got.Status)

	got, err = f.svc.GetByID(ctx, active.ID)
	require.NoError(t, err)
	assert.Equal(t, models.GiveawayStatusFilling, got.Status)
}

func TestSubmitDrawResolvesNearestWinner(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	giveaway := f.createGiveaway(t, defaultInput())
	f.fund(t, 1, 10)
	f.fund(t, 2, 10)

	_, err := f.svc.PlacePick(ctx, giveaway.ID, 1, 1, "100", false)
	require.NoError(t, err)
	_, err = f.svc.PlacePick(ctx, giveaway.ID, 2, 1, "420", false)
	require.NoError(t, err)

	f.setStatus(t, giveaway.ID, models.GiveawayStatusClosed)

	winners, err := f.svc.SubmitDraw(ctx, giveaway.ID, "400")
	require.NoError(t, err)
	require.Len(t, winners, 1)
	assert.Equal(t, int64(2), winners[0].UserID)
	assert.Equal(t, "420", winners[0].PickNumber)
	assert.Equal(t, 20, winners[0].Distance)

	completed, err := f.svc.GetByID(ctx, giveaway.ID)
	require.NoError(t, err)
	assert.Equal(t, models.GiveawayStatusCompleted, completed.Status)
	assert.Equal(t, "400", completed.Pick3Result)
	require.NotNil(t, completed.Pick3Date)

	stored, err := f.svc.Winners(ctx, giveaway.ID)
	require.NoError(t, err)
	assert.Equal(t, winners, stored)
}

func TestSubmitDrawTieBreakBelowWins(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	giveaway := f.createGiveaway(t, defaultInput())
	f.fund(t, 1, 10)
	f.fund(t, 2, 10)

	_, err := f.svc.PlacePick(ctx, giveaway.ID, 1, 1, "510", false)
	require.NoError(t, err)
	_, err = f.svc.PlacePick(ctx, giveaway.ID, 2, 1, "490", false)
	require.NoError(t, err)

	f.setStatus(t, giveaway.ID, models.GiveawayStatusClosed)

	winners, err := f.svc.SubmitDraw(ctx, giveaway.ID, "500")
	require.NoError(t, err)
	require.Len(t, winners, 1)
	assert.Equal(t, "490", winners[0].PickNumber)
	assert.Equal(t, int64(2), winners[0].UserID)
}

func TestSubmitDrawGuards(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	giveaway := f.createGiveaway(t, defaultInput())

	_, err := f.svc.SubmitDraw(ctx, giveaway.ID, "40")
	assert.ErrorIs(t, err, models.ErrInvalidDrawResult)

	_, err = f.svc.SubmitDraw(ctx, giveaway.ID, "4a0")
	assert.ErrorIs(t, err, models.ErrInvalidDrawResult)

	// Still open, not closed.
	_, err = f.svc.SubmitDraw(ctx, giveaway.ID, "400")
	assert.ErrorIs(t, err, models.ErrNotClosed)

	f.setStatus(t, giveaway.ID, models.GiveawayStatusClosed)
	_, err = f.svc.SubmitDraw(ctx, giveaway.ID, "400")
	require.NoError(t, err)

	_, err = f.svc.SubmitDraw(ctx, giveaway.ID, "400")
	assert.ErrorIs(t, err, models.ErrAlreadyCompleted)
}

func TestSubmitDrawResolvesBoxTopperSlot(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	input := defaultInput()
	input.HasBoxTopper = true
	giveaway := f.createGiveaway(t, input)
	f.fund(t, 1, 20)

	_, err := f.svc.PlacePick(ctx, giveaway.ID, 1, models.BoxTopperSlot, "300", false)
	require.NoError(t, err)
	_, err = f.svc.PlacePick(ctx, giveaway.ID, 1, 1, "300", false)
	require.NoError(t, err)

	f.setStatus(t, giveaway.ID, models.GiveawayStatusClosed)

	winners, err := f.svc.SubmitDraw(ctx, giveaway.ID, "299")
	require.NoError(t, err)
	require.Len(t, winners, 2)
	assert.Equal(t, models.BoxTopperSlot, winners[0].Slot)
	assert.Equal(t, 1, winners[1].Slot)
}

func TestCancelRefundsPaidPicksOnly(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	input := defaultInput()
	input.FreeEntriesPerUser = 1
	giveaway := f.createGiveaway(t, input)
	f.fund(t, 1, 10)

	_, err := f.svc.PlacePick(ctx, giveaway.ID, 1, 1, "100", false)
	require.NoError(t, err)
	_, err = f.svc.PlacePick(ctx, giveaway.ID, 1, 1, "200", false)
	require.NoError(t, err)
	_, err = f.svc.PlacePick(ctx, giveaway.ID, 2, 1, "300", true)
	require.NoError(t, err)

	result, err := f.svc.Cancel(ctx, giveaway.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(4), result.TotalCreditsRefunded)
	assert.Equal(t, 1, result.UsersRefunded)

	// User 1 paid 4 and got 4 back; user 2's free entry is simply voided.
	balance, err := f.ledger.Balance(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(10), balance)

	balance, err = f.ledger.Balance(ctx, 2)
	require.NoError(t, err)
	assert.Zero(t, balance)

	cancelled, err := f.svc.GetByID(ctx, giveaway.ID)
	require.NoError(t, err)
	assert.Equal(t, models.GiveawayStatusCancelled, cancelled.Status)

	// The refund entry names the giveaway so a partial-failure replay can
	// see from the ledger who was already credited.
	entries, err := f.ledger.History(ctx, 1, 10, 0)
	require.NoError(t, err)
	require.NotEmpty(t, entries)
	assert.Contains(t, entries[0].Reason, giveaway.ID)
	assert.Equal(t, int64(4), entries[0].Amount)

	// A second cancellation must not refund again.
	_, err = f.svc.Cancel(ctx, giveaway.ID)
	assert.ErrorIs(t, err, models.ErrAlreadyCancelled)

	balance, err = f.ledger.Balance(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(10), balance)
}

func TestCancelCompletedFails(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	giveaway := f.createGiveaway(t, defaultInput())
	f.setStatus(t, giveaway.ID, models.GiveawayStatusCompleted)

	_, err := f.svc.Cancel(ctx, giveaway.ID)
	assert.ErrorIs(t, err, models.ErrAlreadyCompleted)
}

func TestRecomputeScheduleReanchors(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	giveaway := f.createGiveaway(t, defaultInput())

	updated, err := f.svc.RecomputeSchedule(ctx, giveaway.ID)
	require.NoError(t, err)
	require.NotNil(t, updated.DrawDate)
	assert.True(t, updated.DrawDate.Equal(time.Date(2025, 6, 12, 19, 30, 0, 0, f.loc)))

	// Advance to Friday: the anchor moves past the weekend to Monday.
	f.now = time.Date(2025, 6, 13, 12, 0, 0, 0, f.loc)
	updated, err = f.svc.RecomputeSchedule(ctx, giveaway.ID)
	require.NoError(t, err)
	assert.True(t, updated.DrawDate.Equal(time.Date(2025, 6, 16, 19, 30, 0, 0, f.loc)))

	f.setStatus(t, giveaway.ID, models.GiveawayStatusClosed)
	_, err = f.svc.RecomputeSchedule(ctx, giveaway.ID)
	assert.ErrorIs(t, err, models.ErrGiveawayNotAcceptingPicks)
}

func TestSuggestEmptyGiveaway(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	giveaway := f.createGiveaway(t, defaultInput())

	suggestion, err := f.svc.Suggest(ctx, giveaway.ID, 1)
	require.NoError(t, err)
	assert.Equal(t, 1, suggestion.Slot)
	assert.Equal(t, "500", suggestion.PickNumber)
}

func TestSuggestPrefersLeastContendedSlot(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	input := defaultInput()
	input.SlotCount = 2
	giveaway := f.createGiveaway(t, input)
	f.fund(t, 1, 10)

	_, err := f.svc.PlacePick(ctx, giveaway.ID, 1, 1, "100", false)
	require.NoError(t, err)

	suggestion, err := f.svc.Suggest(ctx, giveaway.ID, 2)
	require.NoError(t, err)
	assert.Equal(t, 2, suggestion.Slot)
}

func TestNotifyWinnersGroupsSlotsPerUser(t *testing.T) {
	f := newFixture(t)

	recorder := &recordingNotifier{}
	svc := NewGiveawayService(f.repo, f.ledger, recorder, f.loc, func() time.Time { return f.now }).(*giveawayService)

	giveaway := &models.Giveaway{ID: "g1", Title: "Booster box"}
	winners := []models.Winner{
		{GiveawayID: "g1", UserID: 1, Slot: 1},
		{GiveawayID: "g1", UserID: 2, Slot: 2},
		{GiveawayID: "g1", UserID: 1, Slot: 3},
	}

	svc.notifyWinners(giveaway, winners)

	require.Len(t, recorder.calls, 2)
	assert.Equal(t, int64(1), recorder.calls[0].userID)
	assert.Equal(t, []int{1, 3}, recorder.calls[0].slots)
	assert.Equal(t, int64(2), recorder.calls[1].userID)
	assert.Equal(t, []int{2}, recorder.calls[1].slots)
}

type notifyCall struct {
	userID int64
	slots  []int
}

type recordingNotifier struct {
	calls []notifyCall
}

func (r *recordingNotifier) NotifyWinner(ctx context.Context, userID int64, giveaway *models.Giveaway, slots []int) error {
	r.calls = append(r.calls, notifyCall{userID: userID, slots: slots})
	return nil
}
