package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"giveaway-draw-backend/internal/features/giveaway/models"
	"giveaway-draw-backend/internal/features/giveaway/repository"
)

const (
	keyPrefixGiveaway = "giveaway:"
	keyPrefixPick     = "pick:"
	keyPrefixStatus   = "giveaways:status:"

	lockTimeout   = 30 * time.Second
	lockRetries   = 50
	lockRetryWait = 20 * time.Millisecond
)

type redisRepository struct {
	client *redis.Client
}

func NewRedisGiveawayRepository(client *redis.Client) repository.Repository {
	return &redisRepository{client: client}
}

func makeGiveawayKey(id string) string {
	return keyPrefixGiveaway + id
}

func makePickKey(id string) string {
	return keyPrefixPick + id
}

func makeStatusKey(status models.GiveawayStatus) string {
	return keyPrefixStatus + string(status)
}

func makePicksKey(giveawayID string) string {
	return keyPrefixGiveaway + giveawayID + ":picks"
}

func makeSlotKey(giveawayID string, slot int) string {
	return keyPrefixGiveaway + giveawayID + ":slot:" + strconv.Itoa(slot)
}

func makeUserPicksKey(giveawayID string, userID int64) string {
	return keyPrefixGiveaway + giveawayID + ":user:" + strconv.FormatInt(userID, 10)
}

// makeNumbersKey holds "userID:slot:number" members, the uniqueness set for
// the (giveaway, user, slot, number) invariant.
func makeNumbersKey(giveawayID string) string {
	return keyPrefixGiveaway + giveawayID + ":numbers"
}

func makeWinnersKey(giveawayID string) string {
	return keyPrefixGiveaway + giveawayID + ":winners"
}

func makeLockKey(giveawayID string) string {
	return keyPrefixGiveaway + giveawayID + ":lock"
}

func numberMember(userID int64, slot int, pickNumber string) string {
	return fmt.Sprintf("%d:%d:%s", userID, slot, pickNumber)
}

// acquireLock serializes compound mutations of one giveaway.
func (r *redisRepository) acquireLock(ctx context.Context, giveawayID string) (func(), error) {
	lockKey := makeLockKey(giveawayID)

	for attempt := 0; attempt < lockRetries; attempt++ {
		ok, err := r.client.SetNX(ctx, lockKey, "locked", lockTimeout).Result()
		if err != nil {
			return nil, fmt.Errorf("failed to acquire giveaway lock: %w", err)
		}
		if ok {
			return func() { r.client.Del(context.Background(), lockKey) }, nil
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(lockRetryWait):
		}
	}

	return nil, fmt.Errorf("failed to acquire lock for giveaway %s: still held", giveawayID)
}

func (r *redisRepository) Create(ctx context.Context, giveaway *models.Giveaway) error {
	data, err := json.Marshal(giveaway)
	if err != nil {
		return fmt.Errorf("failed to marshal giveaway: %w", err)
	}

	pipe := r.client.TxPipeline()
	pipe.Set(ctx, makeGiveawayKey(giveaway.ID), data, 0)
	pipe.SAdd(ctx, makeStatusKey(giveaway.Status), giveaway.ID)
	_, err = pipe.Exec(ctx)
	return err
}

func (r *redisRepository) GetByID(ctx context.Context, id string) (*models.Giveaway, error) {
	data, err := r.client.Get(ctx, makeGiveawayKey(id)).Bytes()
	if err == redis.Nil {
		return nil, repository.ErrGiveawayNotFound
	}
	if err != nil {
		return nil, err
	}

	var giveaway models.Giveaway
	if err := json.Unmarshal(data, &giveaway); err != nil {
		return nil, fmt.Errorf("failed to unmarshal giveaway: %w", err)
	}

	return &giveaway, nil
}

func (r *redisRepository) ListByStatus(ctx context.Context, status models.GiveawayStatus) ([]*models.Giveaway, error) {
	ids, err := r.client.SMembers(ctx, makeStatusKey(status)).Result()
	if err != nil {
		return nil, err
	}

	giveaways := make([]*models.Giveaway, 0, len(ids))
	for _, id := range ids {
		giveaway, err := r.GetByID(ctx, id)
		if err == repository.ErrGiveawayNotFound {
			continue
		}
		if err != nil {
			return nil, err
		}
		giveaways = append(giveaways, giveaway)
	}

	return giveaways, nil
}

func (r *redisRepository) UpdateAtomic(ctx context.Context, id string, mutate func(*models.Giveaway) error) (*models.Giveaway, error) {
	release, err := r.acquireLock(ctx, id)
	if err != nil {
		return nil, err
	}
	defer release()

	giveaway, err := r.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	oldStatus := giveaway.Status
	if err := mutate(giveaway); err != nil {
		return nil, err
	}
	giveaway.UpdatedAt = time.Now().UTC()

	data, err := json.Marshal(giveaway)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal giveaway: %w", err)
	}

	pipe := r.client.TxPipeline()
	pipe.Set(ctx, makeGiveawayKey(id), data, 0)
	if giveaway.Status != oldStatus {
		pipe.SRem(ctx, makeStatusKey(oldStatus), id)
		pipe.SAdd(ctx, makeStatusKey(giveaway.Status), id)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return nil, fmt.Errorf("failed to update giveaway: %w", err)
	}

	return giveaway, nil
}

func (r *redisRepository) CreatePick(ctx context.Context, pick *models.Pick) (int64, error) {
	release, err := r.acquireLock(ctx, pick.GiveawayID)
	if err != nil {
		return 0, err
	}
	defer release()

	exists, err := r.client.Exists(ctx, makeGiveawayKey(pick.GiveawayID)).Result()
	if err != nil {
		return 0, err
	}
	if exists == 0 {
		return 0, repository.ErrGiveawayNotFound
	}

	// SAdd doubles as the uniqueness check: zero added members means the
	// user already holds this slot and number.
	added, err := r.client.SAdd(ctx, makeNumbersKey(pick.GiveawayID),
		numberMember(pick.UserID, pick.Slot, pick.PickNumber)).Result()
	if err != nil {
		return 0, err
	}
	if added == 0 {
		return 0, repository.ErrDuplicatePick
	}

	data, err := json.Marshal(pick)
	if err != nil {
		return 0, fmt.Errorf("failed to marshal pick: %w", err)
	}

	pipe := r.client.TxPipeline()
	pipe.Set(ctx, makePickKey(pick.ID), data, 0)
	pipe.SAdd(ctx, makePicksKey(pick.GiveawayID), pick.ID)
	pipe.SAdd(ctx, makeSlotKey(pick.GiveawayID, pick.Slot), pick.ID)
	pipe.SAdd(ctx, makeUserPicksKey(pick.GiveawayID, pick.UserID), pick.ID)
	if _, err := pipe.Exec(ctx); err != nil {
		// Roll the uniqueness reservation back so a retry is possible.
		r.client.SRem(ctx, makeNumbersKey(pick.GiveawayID),
			numberMember(pick.UserID, pick.Slot, pick.PickNumber))
		return 0, fmt.Errorf("failed to store pick: %w", err)
	}

	return r.client.SCard(ctx, makePicksKey(pick.GiveawayID)).Result()
}

func (r *redisRepository) HasPick(ctx context.Context, giveawayID string, userID int64, slot int, pickNumber string) (bool, error) {
	return r.client.SIsMember(ctx, makeNumbersKey(giveawayID),
		numberMember(userID, slot, pickNumber)).Result()
}

func (r *redisRepository) CountPicks(ctx context.Context, giveawayID string) (int64, error) {
	return r.client.SCard(ctx, makePicksKey(giveawayID)).Result()
}

func (r *redisRepository) FreePickCount(ctx context.Context, giveawayID string, userID int64) (int64, error) {
	picks, err := r.PicksByUser(ctx, giveawayID, userID)
	if err != nil {
		return 0, err
	}

	var count int64
	for _, pick := range picks {
		if pick.IsFreeEntry {
			count++
		}
	}
	return count, nil
}

func (r *redisRepository) AllPicks(ctx context.Context, giveawayID string) ([]models.Pick, error) {
	return r.picksFromSet(ctx, makePicksKey(giveawayID))
}

func (r *redisRepository) PicksBySlot(ctx context.Context, giveawayID string, slot int) ([]models.Pick, error) {
	return r.picksFromSet(ctx, makeSlotKey(giveawayID, slot))
}

func (r *redisRepository) PicksByUser(ctx context.Context, giveawayID string, userID int64) ([]models.Pick, error) {
	return r.picksFromSet(ctx, makeUserPicksKey(giveawayID, userID))
}

func (r *redisRepository) picksFromSet(ctx context.Context, setKey string) ([]models.Pick, error) {
	ids, err := r.client.SMembers(ctx, setKey).Result()
	if err != nil {
		return nil, err
	}

	picks := make([]models.Pick, 0, len(ids))
	for _, id := range ids {
		data, err := r.client.Get(ctx, makePickKey(id)).Bytes()
		if err == redis.Nil {
			continue
		}
		if err != nil {
			return nil, err
		}

		var pick models.Pick
		if err := json.Unmarshal(data, &pick); err != nil {
			return nil, fmt.Errorf("failed to unmarshal pick %s: %w", id, err)
		}
		picks = append(picks, pick)
	}

	return picks, nil
}

func (r *redisRepository) SlotCounts(ctx context.Context, giveawayID string) (map[int]int, error) {
	picks, err := r.AllPicks(ctx, giveawayID)
	if err != nil {
		return nil, err
	}

	counts := make(map[int]int)
	for _, pick := range picks {
		counts[pick.Slot]++
	}
	return counts, nil
}

func (r *redisRepository) CompleteWithWinners(ctx context.Context, giveawayID, pick3Result string, completedAt time.Time, winners []models.Winner) (*models.Giveaway, error) {
	release, err := r.acquireLock(ctx, giveawayID)
	if err != nil {
		return nil, err
	}
	defer release()

	giveaway, err := r.GetByID(ctx, giveawayID)
	if err != nil {
		return nil, err
	}

	switch giveaway.Status {
	case models.GiveawayStatusCompleted:
		return nil, models.ErrAlreadyCompleted
	case models.GiveawayStatusClosed:
	default:
		return nil, models.ErrNotClosed
	}

	oldStatus := giveaway.Status
	giveaway.Status = models.GiveawayStatusCompleted
	giveaway.Pick3Result = pick3Result
	giveaway.Pick3Date = &completedAt
	giveaway.UpdatedAt = completedAt

	data, err := json.Marshal(giveaway)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal giveaway: %w", err)
	}

	pipe := r.client.TxPipeline()
	pipe.Set(ctx, makeGiveawayKey(giveawayID), data, 0)
	for _, winner := range winners {
		winnerData, err := json.Marshal(winner)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal winner: %w", err)
		}
		pipe.RPush(ctx, makeWinnersKey(giveawayID), winnerData)
	}
	pipe.SRem(ctx, makeStatusKey(oldStatus), giveawayID)
	pipe.SAdd(ctx, makeStatusKey(models.GiveawayStatusCompleted), giveawayID)
	if _, err := pipe.Exec(ctx); err != nil {
		return nil, fmt.Errorf("failed to complete giveaway: %w", err)
	}

	return giveaway, nil
}

func (r *redisRepository) Winners(ctx context.Context, giveawayID string) ([]models.Winner, error) {
	raw, err := r.client.LRange(ctx, makeWinnersKey(giveawayID), 0, -1).Result()
	if err != nil {
		return nil, err
	}

	winners := make([]models.Winner, 0, len(raw))
	for _, item := range raw {
		var winner models.Winner
		if err := json.Unmarshal([]byte(item), &winner); err != nil {
			return nil, fmt.Errorf("failed to unmarshal winner: %w", err)
		}
		winners = append(winners, winner)
	}

	return winners, nil
}
