package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/warp/curbside/regulation"
)

const keyPrefix = "curbside:rules:"

// RedisConfig holds Redis connection configuration.
type RedisConfig struct {
	Addr     string // host:port
	Password string
	DB       int
	TTL      time.Duration
}

// Redis is a RuleCache shared between processes.
type Redis struct {
	client *redis.Client
	ttl    time.Duration
	logger zerolog.Logger
}

var _ RuleCache = (*Redis)(nil)

// NewRedis connects to Redis and verifies the connection.
func NewRedis(ctx context.Context, cfg RedisConfig, logger zerolog.Logger) (*Redis, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("redis connection failed: %w", err)
	}

	logger.Info().Str("addr", cfg.Addr).Int("db", cfg.DB).Msg("connected to Redis rule cache")
	return NewRedisWithClient(client, cfg.TTL, logger), nil
}

// NewRedisWithClient wraps an existing client.
func NewRedisWithClient(client *redis.Client, ttl time.Duration, logger zerolog.Logger) *Redis {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Redis{client: client, ttl: ttl, logger: logger}
}

func (c *Redis) Get(ctx context.Context, id regulation.SlotID) ([]regulation.ConsolidatedRule, bool) {
	data, err := c.client.Get(ctx, keyPrefix+string(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false
	}
	if err != nil {
		c.logger.Warn().Err(err).Str("slot", string(id)).Msg("redis get failed")
		return nil, false
	}

	var rules []regulation.ConsolidatedRule
	if err := json.Unmarshal(data, &rules); err != nil {
		c.logger.Warn().Err(err).Str("slot", string(id)).Msg("cached rules unreadable, dropping")
		c.Delete(ctx, id)
		return nil, false
	}
	return rules, true
}

func (c *Redis) Set(ctx context.Context, id regulation.SlotID, rules []regulation.ConsolidatedRule) {
	if rules == nil {
		rules = []regulation.ConsolidatedRule{}
	}
	data, err := json.Marshal(rules)
	if err != nil {
		c.logger.Warn().Err(err).Str("slot", string(id)).Msg("json marshal failed")
		return
	}
	if err := c.client.Set(ctx, keyPrefix+string(id), data, c.ttl).Err(); err != nil {
		c.logger.Warn().Err(err).Str("slot", string(id)).Msg("redis set failed")
	}
}

func (c *Redis) Delete(ctx context.Context, id regulation.SlotID) {
	if err := c.client.Del(ctx, keyPrefix+string(id)).Err(); err != nil {
		c.logger.Warn().Err(err).Str("slot", string(id)).Msg("redis delete failed")
	}
}

// Clear removes every rule entry. Only keys under the cache prefix are touched.
func (c *Redis) Clear(ctx context.Context) {
	iter := c.client.Scan(ctx, 0, keyPrefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		if err := c.client.Del(ctx, iter.Val()).Err(); err != nil {
			c.logger.Warn().Err(err).Str("key", iter.Val()).Msg("redis delete failed")
		}
	}
	if err := iter.Err(); err != nil {
		c.logger.Warn().Err(err).Msg("redis scan failed")
	}
}

func (c *Redis) Backend() string { return "redis" }

func (c *Redis) Close() error { return c.client.Close() }

// HealthCheck pings Redis.
func (c *Redis) HealthCheck(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}
