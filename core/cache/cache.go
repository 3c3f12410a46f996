package cache

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"

	"schedulesync/core/constants"
	"schedulesync/core/logger"
)

type Cache interface {
	// Public-token resolution cache
	SetPublicTokenUser(ctx context.Context, token string, userID string) error
	GetPublicTokenUser(ctx context.Context, token string) (string, error)
	InvalidatePublicToken(ctx context.Context, token string) error

	// JWT blacklist (logout)
	AddToTokenBlacklist(ctx context.Context, token string, ttl time.Duration) error
	IsTokenBlacklisted(ctx context.Context, token string) (bool, error)

	Close() error
}

type redisCache struct {
	client *redis.Client
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

func NewCache(cfg RedisConfig) (Cache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, err
	}

	logger.Info("Cache initialized successfully", "addr", cfg.Addr, "db", cfg.DB)
	return &redisCache{client: client}, nil
}

func (c *redisCache) SetPublicTokenUser(ctx context.Context, token string, userID string) error {
	return c.client.Set(ctx, constants.RedisKeyPublicToken+token, userID, constants.PublicTokenCacheTTL).Err()
}

func (c *redisCache) GetPublicTokenUser(ctx context.Context, token string) (string, error) {
	val, err := c.client.Get(ctx, constants.RedisKeyPublicToken+token).Result()
	if err == redis.Nil {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return val, nil
}

func (c *redisCache) InvalidatePublicToken(ctx context.Context, token string) error {
	return c.client.Del(ctx, constants.RedisKeyPublicToken+token).Err()
}

func (c *redisCache) AddToTokenBlacklist(ctx context.Context, token string, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = time.Minute
	}
	return c.client.Set(ctx, constants.RedisKeyTokenBlacklist+token, "1", ttl).Err()
}

func (c *redisCache) IsTokenBlacklisted(ctx context.Context, token string) (bool, error) {
	n, err := c.client.Exists(ctx, constants.RedisKeyTokenBlacklist+token).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (c *redisCache) Close() error {
	return c.client.Close()
}
