package auth

import (
	"context"
	"fmt"
	"time"

	"github.com/dmitrijs2005/gophtodo/internal/server/repositories/revokedsessions"
	"github.com/redis/go-redis/v9"
)

// Revoker remembers token ids that must no longer resolve.
type Revoker interface {
	Revoke(ctx context.Context, tokenID string, expiresAt time.Time) error
	IsRevoked(ctx context.Context, tokenID string) (bool, error)
}

// RepositoryRevoker keeps revoked ids in the primary database.
type RepositoryRevoker struct {
	repo revokedsessions.Repository
}

func NewRepositoryRevoker(repo revokedsessions.Repository) *RepositoryRevoker {
	return &RepositoryRevoker{repo: repo}
}

func (r *RepositoryRevoker) Revoke(ctx context.Context, tokenID string, expiresAt time.Time) error {
	return r.repo.Add(ctx, tokenID, expiresAt)
}

func (r *RepositoryRevoker) IsRevoked(ctx context.Context, tokenID string) (bool, error) {
	return r.repo.Exists(ctx, tokenID)
}

// redisCmdable is the part of redis.Cmdable the revoker uses.
type redisCmdable interface {
	Set(ctx context.Context, key string, value any, expiration time.Duration) *redis.StatusCmd
	Exists(ctx context.Context, keys ...string) *redis.IntCmd
}

// RedisRevoker stores revoked ids as keys that expire together with the token.
type RedisRevoker struct {
	rdb    redisCmdable
	prefix string
	now    func() time.Time
}

func NewRedisRevoker(rdb redisCmdable) *RedisRevoker {
	return &RedisRevoker{rdb: rdb, prefix: "todo:revoked:", now: time.Now}
}

// NewRedisRevokerFromURL connects using a redis:// URL.
func NewRedisRevokerFromURL(url string) (*RedisRevoker, *redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, nil, fmt.Errorf("parse redis url: %w", err)
	}
	client := redis.NewClient(opts)
	return NewRedisRevoker(client), client, nil
}

func (r *RedisRevoker) Revoke(ctx context.Context, tokenID string, expiresAt time.Time) error {
	ttl := expiresAt.Sub(r.now())
	if ttl <= 0 {
		return nil
	}
	if err := r.rdb.Set(ctx, r.prefix+tokenID, 1, ttl).Err(); err != nil {
		return fmt.Errorf("redis error: %w", err)
	}
	return nil
}

func (r *RedisRevoker) IsRevoked(ctx context.Context, tokenID string) (bool, error) {
	n, err := r.rdb.Exists(ctx, r.prefix+tokenID).Result()
	if err != nil {
		return false, fmt.Errorf("redis error: %w", err)
	}
	return n > 0, nil
}
