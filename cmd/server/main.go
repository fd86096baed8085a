package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "socialgraph/internal/domain/common"
	_ "socialgraph/internal/domain/feed"
	_ "socialgraph/internal/domain/follow"
	_ "socialgraph/internal/domain/post"
	_ "socialgraph/internal/domain/story"
	_ "socialgraph/internal/domain/user"
	"socialgraph/internal/pkg/common"
	"socialgraph/internal/pkg/config"
	"socialgraph/internal/pkg/identity"
	"socialgraph/internal/pkg/middleware"
	"socialgraph/internal/pkg/push"
	"socialgraph/internal/pkg/registry"
	"socialgraph/internal/pkg/uploader"
	"socialgraph/internal/pkg/worker"
	"socialgraph/pkg/cache"
	"socialgraph/pkg/database"
	"socialgraph/pkg/logger"
	"socialgraph/pkg/metrics"
	"socialgraph/pkg/utils"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

func main() {
	// 1. 配置与日志
	config.LoadConfig()
	cfg := &config.GlobalConfig

	log, err := logger.InitLogger(cfg.Log)
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	// 2. 存储
	db, err := database.InitDatabase(cfg.Database, log)
	if err != nil {
		log.Fatal("failed to connect database", zap.Error(err))
	}
	rdb, err := database.InitRedis(cfg.Redis, log)
	if err != nil {
		log.Fatal("failed to connect redis", zap.Error(err))
	}

	storage, err := uploader.New(*cfg)
	if err != nil {
		log.Fatal("failed to init media storage", zap.Error(err))
	}

	collector := metrics.Default()
	releasePool := worker.NewReleasePool(storage, cfg.Storage.Workers, cfg.Storage.QueueSize, cfg.Storage.Retries, log.Named("release"), collector)
	releasePool.Start()

	var cacheService cache.CacheService
	if cfg.Cache.Driver == "memory" {
		cacheService = cache.NewMemoryCache()
	} else {
		cacheService = cache.NewRedisCache(rdb, cfg.App.Env)
	}

	ident := identity.NewRedisProvider(rdb, utils.TokenTTL())

	// 3. HTTP
	gin.SetMode(cfg.Server.Mode)
	router := gin.New()
	router.MaxMultipartMemory = common.MaxUploadMemory

	limiter := middleware.NewIPRateLimiter(rate.Limit(cfg.RateLimit.QPS), cfg.RateLimit.Burst)
	router.Use(
		gin.Recovery(),
		cors.Default(),
		middleware.TraceMiddleware(),
		middleware.LoggerMiddleware(),
		middleware.MetricsMiddleware(collector),
		middleware.RateLimitMiddleware(limiter),
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go database.NewPoolMonitor(db, collector, log, 30*time.Second).Run(ctx)

	// 定期清理限流器中的空闲 IP
	go func() {
		ticker := time.NewTicker(time.Minute)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				limiter.Cleanup(10 * time.Minute)
			}
		}
	}()

	public := router.Group("/api/v1")
	api := router.Group("/api/v1", middleware.AuthMiddleware(ident))

	// 4. 模块
	if err := registry.InitModules(&registry.ModuleContext{
		Ctx:      ctx,
		Config:   cfg,
		DB:       db,
		Redis:    rdb,
		Router:   router,
		API:      api,
		Public:   public,
		Logger:   log,
		Metrics:  collector,
		Cache:    cacheService,
		Storage:  storage,
		Releaser: releasePool,
		Identity: ident,
		Notifier: push.NewNotifier(cfg.Push, log),
	}); err != nil {
		log.Fatal("failed to init modules", zap.Error(err))
	}

	srv := &http.Server{
		Addr:    ":" + cfg.Server.Port,
		Handler: router,
	}

	go func() {
		log.Info("server starting", zap.String("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("listen failed", zap.Error(err))
		}
	}()

	// 5. 优雅退出
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("shutting down server")

	// 先停后台任务，再等待在途请求
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("server forced to shutdown", zap.Error(err))
	}

	releasePool.Stop()
	if sqlDB, err := db.DB(); err == nil {
		_ = sqlDB.Close()
	}
	_ = rdb.Close()
	log.Info("server exited")
}
