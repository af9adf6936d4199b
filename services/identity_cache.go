package services

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"knowledge-base/models"
)

// IdentityCache stores verified identities keyed by credential.
type IdentityCache interface {
	Get(ctx context.Context, token string) (*models.Identity, bool, error)
	Set(ctx context.Context, token string, identity *models.Identity, ttl time.Duration) error
}

// RedisIdentityCache keeps identities under a hash of the token so raw
// credentials never reach Redis.
type RedisIdentityCache struct {
	client *redis.Client
	prefix string
}

// NewRedisIdentityCache connects to redisURL and checks the connection.
func NewRedisIdentityCache(redisURL string) (*RedisIdentityCache, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}

	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("connect to redis: %w", err)
	}

	return NewRedisIdentityCacheWithClient(client), nil
}

func NewRedisIdentityCacheWithClient(client *redis.Client) *RedisIdentityCache {
	return &RedisIdentityCache{client: client, prefix: "identity:"}
}

func (c *RedisIdentityCache) key(token string) string {
	sum := sha256.Sum256([]byte(token))
	return c.prefix + hex.EncodeToString(sum[:])
}

func (c *RedisIdentityCache) Get(ctx context.Context, token string) (*models.Identity, bool, error) {
	raw, err := c.client.Get(ctx, c.key(token)).Result()
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("read identity: %w", err)
	}

	var identity models.Identity
	if err := json.Unmarshal([]byte(raw), &identity); err != nil {
		return nil, false, fmt.Errorf("unmarshal identity: %w", err)
	}
	return &identity, true, nil
}

func (c *RedisIdentityCache) Set(ctx context.Context, token string, identity *models.Identity, ttl time.Duration) error {
	raw, err := json.Marshal(identity)
	if err != nil {
		return fmt.Errorf("marshal identity: %w", err)
	}
	if err := c.client.Set(ctx, c.key(token), raw, ttl).Err(); err != nil {
		return fmt.Errorf("save identity: %w", err)
	}
	return nil
}

func (c *RedisIdentityCache) Close() error {
	return c.client.Close()
}
