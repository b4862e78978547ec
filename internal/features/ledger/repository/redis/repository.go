package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"giveaway-draw-backend/internal/features/ledger/models"
	"giveaway-draw-backend/internal/features/ledger/repository"
)

const (
	keyPrefixBalance = "credits:balance:"
	keyPrefixLedger  = "credits:ledger:"
	keyPrefixLock    = "credits:lock:"

	lockTimeout   = 10 * time.Second
	lockRetries   = 50
	lockRetryWait = 20 * time.Millisecond
)

type redisRepository struct {
	client *redis.Client
}

func NewRedisLedgerRepository(client *redis.Client) repository.Repository {
	return &redisRepository{client: client}
}

func makeBalanceKey(userID int64) string {
	return keyPrefixBalance + strconv.FormatInt(userID, 10)
}

func makeLedgerKey(userID int64) string {
	return keyPrefixLedger + strconv.FormatInt(userID, 10)
}

func makeLockKey(userID int64) string {
	return keyPrefixLock + strconv.FormatInt(userID, 10)
}

// acquireLock serializes all balance mutations for one user. Concurrent pick
// placements and cancellation refunds for the same user contend here.
func (r *redisRepository) acquireLock(ctx context.Context, userID int64) (func(), error) {
	lockKey := makeLockKey(userID)

	for attempt := 0; attempt < lockRetries; attempt++ {
		ok, err := r.client.SetNX(ctx, lockKey, "locked", lockTimeout).Result()
		if err != nil {
			return nil, fmt.Errorf("failed to acquire balance lock: %w", err)
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

	return nil, fmt.Errorf("failed to acquire balance lock for user %d: still held", userID)
}

func (r *redisRepository) Apply(ctx context.Context, delta repository.Delta) (*models.Entry, error) {
	release, err := r.acquireLock(ctx, delta.UserID)
	if err != nil {
		return nil, err
	}
	defer release()

	before, err := r.Balance(ctx, delta.UserID)
	if err != nil {
		return nil, err
	}

	after := before + delta.Amount
	if after < 0 {
		if !delta.ClampToZero {
			return nil, repository.ErrInsufficientFunds
		}
		after = 0
	}

	entry := &models.Entry{
		ID:            uuid.NewString(),
		UserID:        delta.UserID,
		Amount:        after - before,
		Reason:        delta.Reason,
		BalanceBefore: before,
		BalanceAfter:  after,
		Actor:         delta.Actor,
		CreatedAt:     time.Now().UTC(),
	}

	data, err := json.Marshal(entry)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal ledger entry: %w", err)
	}

	pipe := r.client.TxPipeline()
	pipe.Set(ctx, makeBalanceKey(delta.UserID), after, 0)
	pipe.LPush(ctx, makeLedgerKey(delta.UserID), data)
	if _, err := pipe.Exec(ctx); err != nil {
		return nil, fmt.Errorf("failed to apply ledger delta: %w", err)
	}

	return entry, nil
}

func (r *redisRepository) Balance(ctx context.Context, userID int64) (int64, error) {
	balance, err := r.client.Get(ctx, makeBalanceKey(userID)).Int64()
	if err == redis.Nil {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to read balance: %w", err)
	}
	return balance, nil
}

func (r *redisRepository) Entries(ctx context.Context, userID int64, limit, offset int64) ([]models.Entry, error) {
	if limit <= 0 {
		limit = 50
	}
	// Negative offsets index from the tail in LRANGE; clamp so the paging
	// contract holds for any caller.
	if offset < 0 {
		offset = 0
	}

	raw, err := r.client.LRange(ctx, makeLedgerKey(userID), offset, offset+limit-1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read ledger entries: %w", err)
	}

	entries := make([]models.Entry, 0, len(raw))
	for _, item := range raw {
		var entry models.Entry
		if err := json.Unmarshal([]byte(item), &entry); err != nil {
			return nil, fmt.Errorf("failed to unmarshal ledger entry: %w", err)
		}
		entries = append(entries, entry)
	}

	return entries, nil
}
