package state

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"danawa/crawler/internal/domain"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// ErrLocked is returned when another sweep holds the run lock.
var ErrLocked = errors.New("sweep already running")

type StateManager interface {
	// AcquireRunLock takes the sweep lock for ttl. The returned release
	// function is safe to call once the lock has expired.
	AcquireRunLock(ctx context.Context, ttl time.Duration) (release func(context.Context) error, err error)
	GetLastRun(ctx context.Context, categoryID int) (*domain.CategorySummary, error)
	SetLastRun(ctx context.Context, summary domain.CategorySummary) error
}

// releaseLockScript deletes the lock only if this holder still owns it.
var releaseLockScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0`)

type redisStateManager struct {
	redisClient *redis.Client
	keyPrefix   string
}

func NewRedisStateManager(redisClient *redis.Client) StateManager {
	return &redisStateManager{
		redisClient: redisClient,
		keyPrefix:   "danawa:",
	}
}

func (s *redisStateManager) lockKey() string {
	return s.keyPrefix + "lock:sweep"
}

func (s *redisStateManager) lastRunKey() string {
	return s.keyPrefix + "last_run"
}

func (s *redisStateManager) AcquireRunLock(ctx context.Context, ttl time.Duration) (func(context.Context) error, error) {
	token := holderToken()
	ok, err := s.redisClient.SetNX(ctx, s.lockKey(), token, ttl).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to acquire run lock: %w", err)
	}
	if !ok {
		return nil, ErrLocked
	}

	release := func(ctx context.Context) error {
		if err := releaseLockScript.Run(ctx, s.redisClient, []string{s.lockKey()}, token).Err(); err != nil {
			return fmt.Errorf("failed to release run lock: %w", err)
		}
		return nil
	}
	return release, nil
}

func (s *redisStateManager) GetLastRun(ctx context.Context, categoryID int) (*domain.CategorySummary, error) {
	val, err := s.redisClient.HGet(ctx, s.lastRunKey(), strconv.Itoa(categoryID)).Result()
	if err != nil {
		if err == redis.Nil {
			return nil, nil // No run recorded yet
		}
		return nil, fmt.Errorf("failed to get last run for category %d: %w", categoryID, err)
	}

	var summary domain.CategorySummary
	if err := json.Unmarshal([]byte(val), &summary); err != nil {
		return nil, fmt.Errorf("failed to parse last run for category %d: %w", categoryID, err)
	}
	return &summary, nil
}

func (s *redisStateManager) SetLastRun(ctx context.Context, summary domain.CategorySummary) error {
	data, err := json.Marshal(summary)
	if err != nil {
		return fmt.Errorf("failed to encode last run for category %d: %w", summary.CategoryID, err)
	}
	err = s.redisClient.HSet(ctx, s.lastRunKey(), strconv.Itoa(summary.CategoryID), data).Err()
	if err != nil {
		return fmt.Errorf("failed to set last run for category %d: %w", summary.CategoryID, err)
	}
	return nil
}

func holderToken() string {
	host, _ := os.Hostname()
	return host + ":" + uuid.NewString()
}

type nopStateManager struct{}

// NewNopStateManager is used when redis is disabled: locking always
// succeeds and nothing is remembered between runs.
func NewNopStateManager() StateManager {
	return nopStateManager{}
}

func (nopStateManager) AcquireRunLock(context.Context, time.Duration) (func(context.Context) error, error) {
	return func(context.Context) error { return nil }, nil
}

func (nopStateManager) GetLastRun(context.Context, int) (*domain.CategorySummary, error) {
	return nil, nil
}

func (nopStateManager) SetLastRun(context.Context, domain.CategorySummary) error {
	return nil
}
