package service

import (
	"context"
	"errors"
	"time"

	"socialgraph/internal/domain/user/model"
	"socialgraph/internal/domain/user/repository"
	"socialgraph/pkg/cache"
	"socialgraph/pkg/database"
	"socialgraph/pkg/metrics"

	"go.uber.org/zap"
)

const profileCacheKeyPrefix = "profile:"

func profileCacheKey(username string) string {
	return profileCacheKeyPrefix + username
}

// ProfileCache 按用户名读穿缓存用户记录（含关注计数）
type ProfileCache struct {
	repo    repository.UserRepository
	cache   cache.CacheService
	ttl     time.Duration
	log     *zap.Logger
	metrics *metrics.Collector
}

// NewProfileCache c 为 nil 时直接读库
func NewProfileCache(repo repository.UserRepository, c cache.CacheService, ttl time.Duration, log *zap.Logger, m *metrics.Collector) *ProfileCache {
	if log == nil {
		log = zap.NewNop()
	}
	return &ProfileCache{repo: repo, cache: c, ttl: ttl, log: log, metrics: m}
}

// Lookup 按用户名读取
func (p *ProfileCache) Lookup(ctx context.Context, username string) (*model.User, error) {
	key := profileCacheKey(username)
	if p.cache != nil {
		var cached model.User
		err := p.cache.Get(ctx, key, &cached)
		if err == nil {
			p.metrics.RecordCacheLookup("profile", true)
			return &cached, nil
		}
		if !errors.Is(err, cache.ErrCacheMiss) {
			p.log.Warn("profile cache read failed", zap.String("key", key), zap.Error(err))
		}
		p.metrics.RecordCacheLookup("profile", false)
	}

	user, err := p.repo.GetByUsername(ctx, username)
	if err != nil {
		return nil, database.Translate(err, "user not found")
	}

	if p.cache != nil && p.ttl > 0 {
		if err := p.cache.Set(ctx, key, user, p.ttl); err != nil {
			p.log.Warn("profile cache write failed", zap.String("key", key), zap.Error(err))
		}
	}
	return user, nil
}

// Invalidate 按用户名删除缓存
func (p *ProfileCache) Invalidate(ctx context.Context, usernames ...string) {
	if p.cache == nil || len(usernames) == 0 {
		return
	}
	keys := make([]string, len(usernames))
	for i, username := range usernames {
		keys[i] = profileCacheKey(username)
	}
	if err := p.cache.Delete(ctx, keys...); err != nil {
		p.log.Warn("profile cache invalidation failed", zap.Strings("usernames", usernames), zap.Error(err))
	}
}

// InvalidateUsers 按用户 ID 删除缓存，关注计数变化后调用
func (p *ProfileCache) InvalidateUsers(ctx context.Context, userIDs ...string) {
	if p.cache == nil {
		return
	}
	usernames := make([]string, 0, len(userIDs))
	for _, id := range userIDs {
		user, err := p.repo.GetByID(ctx, id)
		if err != nil {
			if !database.IsNotFound(err) {
				p.log.Warn("profile cache invalidation lookup failed", zap.String("user_id", id), zap.Error(err))
			}
			continue
		}
		usernames = append(usernames, user.Username)
	}
	p.Invalidate(ctx, usernames...)
}
