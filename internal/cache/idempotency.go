package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"lendahand-backend/internal/logger"

	"github.com/redis/go-redis/v9"
)

// ErrInFlight is returned when a request with the same key is still being processed.
var ErrInFlight = errors.New("request with this idempotency key is in progress")

const pendingMarker = "pending"

// StoredResponse is the replayable part of an HTTP response.
type StoredResponse struct {
	Status      int    `json:"status"`
	ContentType string `json:"content_type"`
	Body        []byte `json:"body"`
}

// IdempotencyStore remembers the first response produced for a key.
type IdempotencyStore interface {
	// Reserve claims key. It returns the stored response when one exists,
	// ErrInFlight when another request holds the key, or (nil, nil) when the
	// caller now owns it and must call Save or Release.
	Reserve(ctx context.Context, key string) (*StoredResponse, error)
	Save(ctx context.Context, key string, resp *StoredResponse) error
	Release(ctx context.Context, key string) error
}

type Config struct {
	Addr     string
	Password string
	DB       int
}

func NewRedisClient(cfg Config) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
}

type redisIdempotencyStore struct {
	client *redis.Client
	ttl    time.Duration
}

func NewIdempotencyStore(client *redis.Client, ttl time.Duration) IdempotencyStore {
	return &redisIdempotencyStore{client: client, ttl: ttl}
}

func (s *redisIdempotencyStore) Reserve(ctx context.Context, key string) (*StoredResponse, error) {
	// A key that expires between SETNX and GET gets one more claim attempt.
	for attempt := 0; attempt < 2; attempt++ {
		ok, err := s.client.SetNX(ctx, redisKey(key), pendingMarker, s.ttl).Result()
		if err != nil {
			return nil, fmt.Errorf("reserve idempotency key: %w", err)
		}
		if ok {
			return nil, nil
		}

		val, err := s.client.Get(ctx, redisKey(key)).Result()
		if errors.Is(err, redis.Nil) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("read idempotency key: %w", err)
		}
		return decodeResponse(val)
	}
	return nil, ErrInFlight
}

func (s *redisIdempotencyStore) Save(ctx context.Context, key string, resp *StoredResponse) error {
	data, err := json.Marshal(resp)
	if err != nil {
		return err
	}
	if err := s.client.Set(ctx, redisKey(key), data, s.ttl).Err(); err != nil {
		return fmt.Errorf("save idempotency key: %w", err)
	}
	logger.Debug("Stored idempotent response", "key", key, "status", resp.Status)
	return nil
}

func (s *redisIdempotencyStore) Release(ctx context.Context, key string) error {
	return s.client.Del(ctx, redisKey(key)).Err()
}

func redisKey(key string) string {
	return "idempotency:" + key
}

func decodeResponse(val string) (*StoredResponse, error) {
	if val == pendingMarker {
		return nil, ErrInFlight
	}
	var resp StoredResponse
	if err := json.Unmarshal([]byte(val), &resp); err != nil {
		return nil, fmt.Errorf("decode idempotent response: %w", err)
	}
	return &resp, nil
}

// HealthCheck pings the server.
func HealthCheck(ctx context.Context, client *redis.Client) error {
	if err := client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis connection failed: %w", err)
	}
	return nil
}
