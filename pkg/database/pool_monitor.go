package database

import (
	"context"
	"database/sql"
	"time"

	"socialgraph/pkg/metrics"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// PoolMonitor 定期采样连接池状态写入指标，等待数持续增长时告警
type PoolMonitor struct {
	db       *gorm.DB
	metrics  *metrics.Collector
	log      *zap.Logger
	interval time.Duration

	// 单次采样周期内新增等待数超过该值时告警
	waitAlert int64
	lastWait  int64
}

func NewPoolMonitor(db *gorm.DB, m *metrics.Collector, log *zap.Logger, interval time.Duration) *PoolMonitor {
	if interval <= 0 {
		interval = 30 * time.Second
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &PoolMonitor{
		db:        db,
		metrics:   m,
		log:       log.Named("db_pool"),
		interval:  interval,
		waitAlert: 100,
	}
}

// Run 阻塞直到 ctx 取消
func (p *PoolMonitor) Run(ctx context.Context) {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.Sample()
		}
	}
}

// Sample 采样一次，返回当前连接池状态
func (p *PoolMonitor) Sample() sql.DBStats {
	sqlDB, err := p.db.DB()
	if err != nil {
		p.log.Warn("get sql.DB failed", zap.Error(err))
		return sql.DBStats{}
	}
	stats := sqlDB.Stats()
	p.metrics.UpdateDBPool(stats)

	if delta := stats.WaitCount - p.lastWait; p.lastWait > 0 && delta > p.waitAlert {
		p.log.Warn("connection pool saturated",
			zap.Int64("waits", delta),
			zap.Int("open", stats.OpenConnections),
			zap.Int("max_open", stats.MaxOpenConnections),
			zap.Duration("wait_duration", stats.WaitDuration),
		)
	}
	p.lastWait = stats.WaitCount
	return stats
}
