package identity

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Provider 外部认证身份
// Delete 撤销用户的认证身份，之后签发给该用户的令牌全部失效
type Provider interface {
	Delete(ctx context.Context, userID string) error
	IsRevoked(ctx context.Context, userID string) (bool, error)
}

type redisProvider struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewRedisProvider ttl 应不短于令牌有效期，过期后旧令牌本身也已失效
func NewRedisProvider(rdb *redis.Client, ttl time.Duration) Provider {
	return &redisProvider{rdb: rdb, ttl: ttl}
}

func revokedKey(userID string) string {
	return fmt.Sprintf("identity:revoked:%s", userID)
}

func (p *redisProvider) Delete(ctx context.Context, userID string) error {
	if err := p.rdb.Set(ctx, revokedKey(userID), "1", p.ttl).Err(); err != nil {
		return fmt.Errorf("revoke identity %s: %w", userID, err)
	}
	return nil
}

func (p *redisProvider) IsRevoked(ctx context.Context, userID string) (bool, error) {
	n, err := p.rdb.Exists(ctx, revokedKey(userID)).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}
