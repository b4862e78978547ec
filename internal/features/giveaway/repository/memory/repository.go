package memory

import (
	"context"
	"sync"
	"time"

	"giveaway-draw-backend/internal/features/giveaway/models"
	"giveaway-draw-backend/internal/features/giveaway/repository"
)

type pickKey struct {
	userID     int64
	slot       int
	pickNumber string
}

type giveawayState struct {
	giveaway models.Giveaway
	picks    []models.Pick
	pickSet  map[pickKey]bool
	winners  []models.Winner
}

// Repository is an in-memory giveaway store used by the test suites. A
// single mutex stands in for the per-giveaway locks of the Redis
// implementation; every compound operation holds it end to end.
type Repository struct {
	mu     sync.Mutex
	states map[string]*giveawayState
}

func NewMemoryGiveawayRepository() *Repository {
	return &Repository{states: make(map[string]*giveawayState)}
}

func (r *Repository) Create(ctx context.Context, giveaway *models.Giveaway) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.states[giveaway.ID] = &giveawayState{
		giveaway: *giveaway,
		pickSet:  make(map[pickKey]bool),
	}
	return nil
}

func (r *Repository) GetByID(ctx context.Context, id string) (*models.Giveaway, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	state, ok := r.states[id]
	if !ok {
		return nil, repository.ErrGiveawayNotFound
	}

	giveaway := state.giveaway
	return &giveaway, nil
}

func (r *Repository) ListByStatus(ctx context.Context, status models.GiveawayStatus) ([]*models.Giveaway, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []*models.Giveaway
	for _, state := range r.states {
		if state.giveaway.Status == status {
			giveaway := state.giveaway
			out = append(out, &giveaway)
		}
	}
	return out, nil
}

func (r *Repository) UpdateAtomic(ctx context.Context, id string, mutate func(*models.Giveaway) error) (*models.Giveaway, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	state, ok := r.states[id]
	if !ok {
		return nil, repository.ErrGiveawayNotFound
	}

	giveaway := state.giveaway
	if err := mutate(&giveaway); err != nil {
		return nil, err
	}

	giveaway.UpdatedAt = time.Now().UTC()
	state.giveaway = giveaway

	out := giveaway
	return &out, nil
}

func (r *Repository) CreatePick(ctx context.Context, pick *models.Pick) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	state, ok := r.states[pick.GiveawayID]
	if !ok {
		return 0, repository.ErrGiveawayNotFound
	}

	key := pickKey{userID: pick.UserID, slot: pick.Slot, pickNumber: pick.PickNumber}
	if state.pickSet[key] {
		return 0, repository.ErrDuplicatePick
	}

	state.pickSet[key] = true
	state.picks = append(state.picks, *pick)

	return int64(len(state.picks)), nil
}

func (r *Repository) HasPick(ctx context.Context, giveawayID string, userID int64, slot int, pickNumber string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	state, ok := r.states[giveawayID]
	if !ok {
		return false, repository.ErrGiveawayNotFound
	}

	return state.pickSet[pickKey{userID: userID, slot: slot, pickNumber: pickNumber}], nil
}

func (r *Repository) CountPicks(ctx context.Context, giveawayID string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	state, ok := r.states[giveawayID]
	if !ok {
		return 0, repository.ErrGiveawayNotFound
	}

	return int64(len(state.picks)), nil
}

func (r *Repository) FreePickCount(ctx context.Context, giveawayID string, userID int64) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	state, ok := r.states[giveawayID]
	if !ok {
		return 0, repository.ErrGiveawayNotFound
	}

	var count int64
	for _, pick := range state.picks {
		if pick.UserID == userID && pick.IsFreeEntry {
			count++
		}
	}
	return count, nil
}

func (r *Repository) AllPicks(ctx context.Context, giveawayID string) ([]models.Pick, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	state, ok := r.states[giveawayID]
	if !ok {
		return nil, repository.ErrGiveawayNotFound
	}

	out := make([]models.Pick, len(state.picks))
	copy(out, state.picks)
	return out, nil
}

func (r *Repository) PicksBySlot(ctx context.Context, giveawayID string, slot int) ([]models.Pick, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	state, ok := r.states[giveawayID]
	if !ok {
		return nil, repository.ErrGiveawayNotFound
	}

	var out []models.Pick
	for _, pick := range state.picks {
		if pick.Slot == slot {
			out = append(out, pick)
		}
	}
	return out, nil
}

func (r *Repository) PicksByUser(ctx context.Context, giveawayID string, userID int64) ([]models.Pick, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	state, ok := r.states[giveawayID]
	if !ok {
		return nil, repository.ErrGiveawayNotFound
	}

	var out []models.Pick
	for _, pick := range state.picks {
		if pick.UserID == userID {
			out = append(out, pick)
		}
	}
	return out, nil
}

func (r *Repository) SlotCounts(ctx context.Context, giveawayID string) (map[int]int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	state, ok := r.states[giveawayID]
	if !ok {
		return nil, repository.ErrGiveawayNotFound
	}

	counts := make(map[int]int)
	for _, pick := range state.picks {
		counts[pick.Slot]++
	}
	return counts, nil
}

func (r *Repository) CompleteWithWinners(ctx context.Context, giveawayID, pick3Result string, completedAt time.Time, winners []models.Winner) (*models.Giveaway, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	state, ok := r.states[giveawayID]
	if !ok {
		return nil, repository.ErrGiveawayNotFound
	}

	switch state.giveaway.Status {
	case models.GiveawayStatusCompleted:
		return nil, models.ErrAlreadyCompleted
	case models.GiveawayStatusClosed:
	default:
		return nil, models.ErrNotClosed
	}

	state.giveaway.Status = models.GiveawayStatusCompleted
	state.giveaway.Pick3Result = pick3Result
	state.giveaway.Pick3Date = &completedAt
	state.giveaway.UpdatedAt = completedAt
	state.winners = append([]models.Winner{}, winners...)

	out := state.giveaway
	return &out, nil
}

func (r *Repository) Winners(ctx context.Context, giveawayID string) ([]models.Winner, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	state, ok := r.states[giveawayID]
	if !ok {
		return nil, repository.ErrGiveawayNotFound
	}

	out := make([]models.Winner, len(state.winners))
	copy(out, state.winners)
	return out, nil
}
