package ledgerapi

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/nimasrn/denitracker/pkg/redis"
	"github.com/rs/zerolog"
)

var (
	ErrAlreadyProcessed  = errors.New("request already processed")
	ErrLockAcquireFailed = errors.New("request with the same key is in progress")
)

type IdempotencyConfig struct {
	// LockTTL bounds how long a crashed request keeps its key blocked.
	LockTTL time.Duration

	ProcessedTTL time.Duration

	LockKeyPrefix string

	ProcessedKeyPrefix string
}

func DefaultIdempotencyConfig() IdempotencyConfig {
	return IdempotencyConfig{
		LockTTL:            30 * time.Second,
		ProcessedTTL:       24 * time.Hour,
		LockKeyPrefix:      "idem:lock:",
		ProcessedKeyPrefix: "idem:done:",
	}
}

// IdempotencyService remembers which Idempotency-Key produced which
// transaction so a replayed create returns the first answer.
type IdempotencyService struct {
	redis  redis.RedisAdapter
	config IdempotencyConfig
	log    zerolog.Logger
}

func NewIdempotencyService(redisAdapter redis.RedisAdapter, config IdempotencyConfig, log zerolog.Logger) *IdempotencyService {
	return &IdempotencyService{
		redis:  redisAdapter,
		config: config,
		log:    log,
	}
}

type ProcessingContext struct {
	Key          string
	lockAcquired bool
}

// AcquireProcessingLock claims key. If the key already completed, the
// stored transaction id is returned with ErrAlreadyProcessed.
func (s *IdempotencyService) AcquireProcessingLock(ctx context.Context, key string) (*ProcessingContext, int64, error) {
	id, err := s.Result(ctx, key)
	if err != nil {
		return nil, 0, err
	}
	if id != 0 {
		s.log.Info().Str("key", key).Int64("transaction_id", id).Msg("Idempotent replay")
		return nil, id, ErrAlreadyProcessed
	}

	lockKey := s.config.LockKeyPrefix + key
	lockValue := []byte(strconv.FormatInt(time.Now().UnixNano(), 10))

	acquired, err := s.redis.SetNX(ctx, lockKey, lockValue, s.config.LockTTL)
	if err != nil {
		return nil, 0, fmt.Errorf("acquire idempotency lock: %w", err)
	}
	if !acquired {
		s.log.Info().Str("key", key).Msg("Lock already held by another request")
		return nil, 0, ErrLockAcquireFailed
	}

	return &ProcessingContext{Key: key, lockAcquired: true}, 0, nil
}

// Result returns the transaction id stored for key, zero when none.
func (s *IdempotencyService) Result(ctx context.Context, key string) (int64, error) {
	raw, err := s.redis.Get(ctx, s.config.ProcessedKeyPrefix+key)
	if err != nil {
		if errors.Is(err, redis.NilError) {
			return 0, nil
		}
		return 0, err
	}
	id, err := strconv.ParseInt(string(raw), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("corrupt idempotency record for %s: %w", key, err)
	}
	return id, nil
}

func (s *IdempotencyService) MarkSuccess(ctx context.Context, pc *ProcessingContext, transactionID int64) error {
	processedKey := s.redis.Key(s.config.ProcessedKeyPrefix + pc.Key)
	lockKey := s.redis.Key(s.config.LockKeyPrefix + pc.Key)
	err := s.redis.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.Set(ctx, processedKey, strconv.FormatInt(transactionID, 10), s.config.ProcessedTTL)
		p.Del(ctx, lockKey)
		return nil
	})
	if err != nil {
		s.log.Error().Err(err).Str("key", pc.Key).Msg("Failed to store idempotency result")
		_ = s.ReleaseLock(ctx, pc)
		return fmt.Errorf("failed to mark as processed: %w", err)
	}
	pc.lockAcquired = false
	return nil
}

func (s *IdempotencyService) ReleaseLock(ctx context.Context, pc *ProcessingContext) error {
	if pc == nil || !pc.lockAcquired {
		return nil
	}
	if err := s.redis.Del(ctx, s.config.LockKeyPrefix+pc.Key); err != nil {
		s.log.Warn().Err(err).Str("key", pc.Key).Msg("Failed to release lock")
		return err
	}
	pc.lockAcquired = false
	return nil
}
