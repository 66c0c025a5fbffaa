// SPDX-License-Identifier: MIT

package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/Ch0c0l4tE/fraud/internal/log"
	"github.com/Ch0c0l4tE/fraud/internal/model"
)

const redisKeyPrefix = "fraud:analysis:"

// RedisCache stores analyses in Redis so multiple instances share the
// read-side cache. Values are JSON-encoded.
type RedisCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisCache connects to addr and verifies the connection.
func NewRedisCache(ctx context.Context, addr, password string, db int, ttl time.Duration) (*RedisCache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping %q: %w", addr, err)
	}
	logger := log.WithComponent("cache")
	logger.Info().Str("addr", addr).Int("db", db).Msg("redis cache connected")
	return &RedisCache{client: client, ttl: ttl}, nil
}

func (c *RedisCache) Get(ctx context.Context, sessionID string) (*model.FraudAnalysis, error) {
	raw, err := c.client.Get(ctx, redisKeyPrefix+sessionID).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("redis get %q: %w", sessionID, err)
	}
	var a model.FraudAnalysis
	if err := json.Unmarshal(raw, &a); err != nil {
		return nil, fmt.Errorf("decode cached analysis %q: %w", sessionID, err)
	}
	return &a, nil
}

func (c *RedisCache) Set(ctx context.Context, a *model.FraudAnalysis) error {
	raw, err := json.Marshal(a)
	if err != nil {
		return fmt.Errorf("encode analysis %q: %w", a.SessionID, err)
	}
	if err := c.client.Set(ctx, redisKeyPrefix+a.SessionID, raw, c.ttl).Err(); err != nil {
		return fmt.Errorf("redis set %q: %w", a.SessionID, err)
	}
	return nil
}

func (c *RedisCache) Close() error { return c.client.Close() }
