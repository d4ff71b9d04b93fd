package session

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	apperrors "github.com/blueworldgit/epc-parts-store/pkg/errors"
	"github.com/blueworldgit/epc-parts-store/internal/domain"
)

const (
	submissionKeyPrefix = "checkout:submission:"
	numberSequenceKey   = "checkout:order_number"
)

// RedisStore implements Store using Redis. Each session maps to one JSON
// value with a TTL, so abandoned checkouts expire on their own.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisStore creates a Redis-backed submission store.
func NewRedisStore(client *redis.Client, ttl time.Duration) *RedisStore {
	return &RedisStore{
		client: client,
		ttl:    ttl,
	}
}

// Save persists a submission to Redis with the configured TTL.
func (s *RedisStore) Save(ctx context.Context, sub *domain.Submission) error {
	key := submissionKeyPrefix + sub.SessionID

	data, err := json.Marshal(sub)
	if err != nil {
		return fmt.Errorf("marshal submission: %w", err)
	}

	if err := s.client.Set(ctx, key, data, s.ttl).Err(); err != nil {
		return fmt.Errorf("redis set submission: %w", err)
	}

	return nil
}

// Load retrieves a submission from Redis by session ID.
func (s *RedisStore) Load(ctx context.Context, sessionID string) (*domain.Submission, error) {
	key := submissionKeyPrefix + sessionID

	data, err := s.client.Get(ctx, key).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, apperrors.NotFound("submission", sessionID)
		}
		return nil, fmt.Errorf("redis get submission: %w", err)
	}

	var sub domain.Submission
	if err := json.Unmarshal(data, &sub); err != nil {
		return nil, fmt.Errorf("unmarshal submission: %w", err)
	}

	return &sub, nil
}

// Clear removes a submission from Redis by session ID.
func (s *RedisStore) Clear(ctx context.Context, sessionID string) error {
	key := submissionKeyPrefix + sessionID

	if err := s.client.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("redis del submission: %w", err)
	}

	return nil
}

// RedisSequence reserves order numbers with a Redis INCR counter.
// The counter survives restarts and is shared across replicas, so two
// concurrent checkouts can never be handed the same number.
type RedisSequence struct {
	client *redis.Client
	seed   int64
}

// NewRedisSequence creates a Redis-backed order number sequence. seed offsets
// the counter so numbers start at a presentable value (e.g. 1000000).
func NewRedisSequence(client *redis.Client, seed int64) *RedisSequence {
	return &RedisSequence{
		client: client,
		seed:   seed,
	}
}

// Next reserves and returns the next order number.
func (s *RedisSequence) Next(ctx context.Context) (string, error) {
	n, err := s.client.Incr(ctx, numberSequenceKey).Result()
	if err != nil {
		return "", fmt.Errorf("redis incr order number: %w", err)
	}
	return strconv.FormatInt(s.seed+n, 10), nil
}
