package jwks

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
)

// DocumentStore is a shared tier for raw key set documents, letting several
// gateway replicas reuse one provider fetch. Load reports how much longer
// the stored document may be trusted.
type DocumentStore interface {
	Load(ctx context.Context) ([]byte, time.Duration, error)
	Store(ctx context.Context, raw []byte) error
}

// RedisStore keeps the key set document in Redis under a single key
type RedisStore struct {
	client *redis.Client
	key    string
	ttl    time.Duration
}

// NewRedisClient parses a redis:// URL and returns a connected client
func NewRedisClient(ctx context.Context, redisURL string) (*redis.Client, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("invalid redis URL: %w", err)
	}

	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	return client, nil
}

// NewRedisStore creates a store for the key set fetched from keySetURL
func NewRedisStore(client *redis.Client, keySetURL string, ttl time.Duration) *RedisStore {
	return &RedisStore{
		client: client,
		key:    "gatekeeper:jwks:" + keySetURL,
		ttl:    ttl,
	}
}

// Load returns the stored document and its remaining lifetime, or nil if
// none is stored. A document without an expiry is treated as absent since
// its age is unknown.
func (s *RedisStore) Load(ctx context.Context) ([]byte, time.Duration, error) {
	var (
		get  *redis.StringCmd
		pttl *redis.DurationCmd
	)
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		get = pipe.Get(ctx, s.key)
		pttl = pipe.PTTL(ctx, s.key)
		return nil
	})
	if errors.Is(err, redis.Nil) {
		return nil, 0, nil
	}
	if err != nil {
		return nil, 0, fmt.Errorf("redis get %s: %w", s.key, err)
	}

	remaining := pttl.Val()
	if remaining <= 0 {
		return nil, 0, nil
	}
	raw, err := get.Bytes()
	if err != nil {
		return nil, 0, fmt.Errorf("redis get %s: %w", s.key, err)
	}
	return raw, remaining, nil
}

// Store saves the document with the store's TTL
func (s *RedisStore) Store(ctx context.Context, raw []byte) error {
	if err := s.client.Set(ctx, s.key, raw, s.ttl).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", s.key, err)
	}
	return nil
}
