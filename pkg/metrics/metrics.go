package metrics

import (
	"database/sql"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Collector 业务与 HTTP 指标
type Collector struct {
	httpRequestsTotal   *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	followTransitions *prometheus.CounterVec
	feedDuration      *prometheus.HistogramVec
	storiesSwept      prometheus.Counter
	mediaReleases     *prometheus.CounterVec
	cacheLookups      *prometheus.CounterVec

	dbConnections *prometheus.GaugeVec
	dbWaitCount   prometheus.Gauge
}

var (
	once      sync.Once
	collector *Collector
)

// Default 返回进程内唯一的指标收集器（promauto 注册到默认 registry，只能注册一次）
func Default() *Collector {
	once.Do(func() {
		collector = newCollector(prometheus.DefaultRegisterer)
	})
	return collector
}

// NewCollector 使用指定 registry 创建收集器，便于测试
func NewCollector(reg prometheus.Registerer) *Collector {
	return newCollector(reg)
}

func newCollector(reg prometheus.Registerer) *Collector {
	factory := promauto.With(reg)
	return &Collector{
		httpRequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "endpoint", "status"},
		),
		httpRequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "endpoint"},
		),
		followTransitions: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "social_follow_transitions_total",
				Help: "Follow state machine transitions by kind",
			},
			[]string{"transition"},
		),
		feedDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "social_feed_duration_seconds",
				Help:    "Feed composition latency by feed type",
				Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
			},
			[]string{"feed"},
		),
		storiesSwept: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "social_stories_swept_total",
				Help: "Expired stories removed by the sweeper",
			},
		),
		mediaReleases: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "social_media_releases_total",
				Help: "Media release attempts by result",
			},
			[]string{"result"},
		),
		cacheLookups: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "social_cache_lookups_total",
				Help: "Cache lookups by cache name and result",
			},
			[]string{"cache", "result"},
		),
		dbConnections: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "db_connections",
				Help: "Database pool connections by state",
			},
			[]string{"state"},
		),
		dbWaitCount: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "db_connection_wait_total",
				Help: "Total number of connections waited for",
			},
		),
	}
}

// RecordHTTPRequest 记录 HTTP 请求
func (c *Collector) RecordHTTPRequest(method, endpoint, status string, duration time.Duration) {
	if c == nil {
		return
	}
	c.httpRequestsTotal.WithLabelValues(method, endpoint, status).Inc()
	c.httpRequestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}

// RecordFollowTransition 记录关注状态迁移，如 requested / accepted / removed / blocked
func (c *Collector) RecordFollowTransition(transition string) {
	if c == nil {
		return
	}
	c.followTransitions.WithLabelValues(transition).Inc()
}

// ObserveFeed 记录 feed 组装耗时
func (c *Collector) ObserveFeed(feed string, start time.Time) {
	if c == nil {
		return
	}
	c.feedDuration.WithLabelValues(feed).Observe(time.Since(start).Seconds())
}

// AddStoriesSwept 记录清理的过期 story 数量
func (c *Collector) AddStoriesSwept(n int) {
	if c == nil || n <= 0 {
		return
	}
	c.storiesSwept.Add(float64(n))
}

// RecordMediaRelease 记录媒体释放结果
func (c *Collector) RecordMediaRelease(ok bool) {
	if c == nil {
		return
	}
	result := "success"
	if !ok {
		result = "failure"
	}
	c.mediaReleases.WithLabelValues(result).Inc()
}

// RecordCacheLookup 记录缓存命中情况
func (c *Collector) RecordCacheLookup(cache string, hit bool) {
	if c == nil {
		return
	}
	result := "hit"
	if !hit {
		result = "miss"
	}
	c.cacheLookups.WithLabelValues(cache, result).Inc()
}

// UpdateDBPool 更新数据库连接池指标
func (c *Collector) UpdateDBPool(stats sql.DBStats) {
	if c == nil {
		return
	}
	c.dbConnections.WithLabelValues("open").Set(float64(stats.OpenConnections))
	c.dbConnections.WithLabelValues("in_use").Set(float64(stats.InUse))
	c.dbConnections.WithLabelValues("idle").Set(float64(stats.Idle))
	c.dbWaitCount.Set(float64(stats.WaitCount))
}
