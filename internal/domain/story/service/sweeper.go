package service

import (
	"context"
	"time"

	"socialgraph/pkg/cache"

	"go.uber.org/zap"
)

const sweepLockKey = "story-sweep"

// Sweeper 定期回收过期故事，多实例部署时通过分布式锁保证同一时刻只有一个实例在清理
type Sweeper struct {
	service  StoryService
	locker   cache.Locker
	interval time.Duration
	batch    int
	log      *zap.Logger
}

func NewSweeper(service StoryService, locker cache.Locker, interval time.Duration, batch int, log *zap.Logger) *Sweeper {
	if interval <= 0 {
		interval = 10 * time.Minute
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Sweeper{
		service:  service,
		locker:   locker,
		interval: interval,
		batch:    batch,
		log:      log.Named("story-sweeper"),
	}
}

// Run 阻塞直到 ctx 取消
func (s *Sweeper) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.log.Info("story sweeper started", zap.Duration("interval", s.interval))
	for {
		select {
		case <-ctx.Done():
			s.log.Info("story sweeper stopped")
			return
		case <-ticker.C:
			s.SweepOnce(ctx)
		}
	}
}

// SweepOnce 抢到锁时执行一轮清理，返回删除数量
func (s *Sweeper) SweepOnce(ctx context.Context) int {
	if s.locker != nil {
		token, ok, err := s.locker.Acquire(ctx, sweepLockKey, s.interval)
		if err != nil {
			s.log.Warn("acquire sweep lock failed", zap.Error(err))
			return 0
		}
		if !ok {
			return 0
		}
		defer func() {
			if err := s.locker.Release(context.WithoutCancel(ctx), sweepLockKey, token); err != nil {
				s.log.Warn("release sweep lock failed", zap.Error(err))
			}
		}()
	}

	removed, err := s.service.SweepExpired(ctx, time.Now(), s.batch)
	if err != nil {
		s.log.Error("story sweep failed", zap.Int("removed", removed), zap.Error(err))
		return removed
	}
	if removed > 0 {
		s.log.Info("expired stories removed", zap.Int("removed", removed))
	}
	return removed
}
