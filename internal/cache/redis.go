package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/Domenick1991/activitybooking/config"
	"github.com/Domenick1991/activitybooking/internal/domain"
	"github.com/redis/go-redis/v9"
)

type RedisCache struct {
	client      *redis.Client
	sessionsTTL time.Duration
	lockTTL     time.Duration
}

func NewRedisCache(cfg config.RedisConfig, sessionsTTL, lockTTL time.Duration) *RedisCache {
	return NewRedisCacheWithClient(
		redis.NewClient(&redis.Options{Addr: cfg.Addr, Password: cfg.Password, DB: cfg.DB}),
		sessionsTTL, lockTTL,
	)
}

func NewRedisCacheWithClient(client *redis.Client, sessionsTTL, lockTTL time.Duration) *RedisCache {
	return &RedisCache{client: client, sessionsTTL: sessionsTTL, lockTTL: lockTTL}
}

func (c *RedisCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

func (c *RedisCache) Close() error {
	return c.client.Close()
}

// GetSessions returns nil without an error on a cache miss.
func (c *RedisCache) GetSessions(ctx context.Context) ([]domain.TrainingSession, error) {
	data, err := c.client.Get(ctx, sessionsKey()).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, err
	}

	var sessions []domain.TrainingSession
	if err := json.Unmarshal(data, &sessions); err != nil {
		return nil, err
	}
	return sessions, nil
}

func (c *RedisCache) SetSessions(ctx context.Context, sessions []domain.TrainingSession) error {
	if sessions == nil {
		sessions = []domain.TrainingSession{}
	}
	payload, err := json.Marshal(sessions)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, sessionsKey(), payload, c.sessionsTTL).Err()
}

func (c *RedisCache) InvalidateSessions(ctx context.Context) error {
	return c.client.Del(ctx, sessionsKey()).Err()
}

// AcquireCallbackLock keeps two deliveries of the same gateway callback from racing each other.
// The lock expires on its own if the holder dies.
func (c *RedisCache) AcquireCallbackLock(ctx context.Context, gatewayToken string) (bool, error) {
	return c.client.SetNX(ctx, callbackLockKey(gatewayToken), "locked", c.lockTTL).Result()
}

func (c *RedisCache) ReleaseCallbackLock(ctx context.Context, gatewayToken string) error {
	return c.client.Del(ctx, callbackLockKey(gatewayToken)).Err()
}

func sessionsKey() string {
	return "cache:sessions"
}

func callbackLockKey(token string) string {
	return fmt.Sprintf("lock:callback:%s", token)
}
