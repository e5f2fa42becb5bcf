package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
)

const (
	challengeKeyPrefix = "verify:challenge:"
	codeKeyPrefix      = "verify:code:"
)

// redisStore keeps verification state in redis. Key expiry provides the
// hard eviction; the logical code TTL is the ExpiresAt inside the record
// so expired codes stay distinguishable from vanished sessions until the
// key itself is evicted.
type redisStore struct {
	client *redis.Client
}

func newRedisStore(client *redis.Client) *redisStore {
	return &redisStore{client: client}
}

// evictSlack is the fallback retention when a key's TTL cannot be read.
const evictSlack = 30 * time.Minute

func (s *redisStore) PutChallenge(ctx context.Context, token string, ttl time.Duration) error {
	if err := s.client.Set(ctx, challengeKeyPrefix+token, "1", ttl).Err(); err != nil {
		return fmt.Errorf("challenge put: %w", err)
	}
	return nil
}

func (s *redisStore) HasChallenge(ctx context.Context, token string) (bool, error) {
	n, err := s.client.Exists(ctx, challengeKeyPrefix+token).Result()
	if err != nil {
		return false, fmt.Errorf("challenge exists: %w", err)
	}
	return n > 0, nil
}

func (s *redisStore) DeleteChallenge(ctx context.Context, token string) error {
	if err := s.client.Del(ctx, challengeKeyPrefix+token).Err(); err != nil {
		return fmt.Errorf("challenge delete: %w", err)
	}
	return nil
}

func (s *redisStore) PutCode(ctx context.Context, handle string, rec *codeRecord, ttl time.Duration) error {
	b, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("code record encode: %w", err)
	}
	if err := s.client.Set(ctx, codeKeyPrefix+handle, b, ttl).Err(); err != nil {
		return fmt.Errorf("code put: %w", err)
	}
	return nil
}

func (s *redisStore) GetCode(ctx context.Context, handle string) (*codeRecord, error) {
	b, err := s.client.Get(ctx, codeKeyPrefix+handle).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("code get: %w", err)
	}
	var rec codeRecord
	if err := json.Unmarshal(b, &rec); err != nil {
		return nil, fmt.Errorf("code record decode: %w", err)
	}
	return &rec, nil
}

func (s *redisStore) IncAttempts(ctx context.Context, handle string) (int, error) {
	rec, err := s.GetCode(ctx, handle)
	if err != nil {
		return 0, err
	}
	if rec == nil {
		return 0, nil
	}
	rec.Attempts++
	ttl, err := s.client.TTL(ctx, codeKeyPrefix+handle).Result()
	if err != nil || ttl <= 0 {
		ttl = evictSlack
	}
	b, err := json.Marshal(rec)
	if err != nil {
		return 0, fmt.Errorf("code record encode: %w", err)
	}
	if err := s.client.Set(ctx, codeKeyPrefix+handle, b, ttl).Err(); err != nil {
		return 0, fmt.Errorf("code attempts update: %w", err)
	}
	return rec.Attempts, nil
}

func (s *redisStore) DeleteCode(ctx context.Context, handle string) error {
	if err := s.client.Del(ctx, codeKeyPrefix+handle).Err(); err != nil {
		return fmt.Errorf("code delete: %w", err)
	}
	return nil
}
