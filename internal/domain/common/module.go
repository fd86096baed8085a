package common

import (
	"net/http"

	"socialgraph/internal/pkg/registry"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// CommonModule 健康检查、指标和本地媒体目录
type CommonModule struct{}

func init() {
	registry.Register(&CommonModule{})
}

func (m *CommonModule) Name() string {
	return "common"
}

func (m *CommonModule) Priority() int {
	return 100 // 最后初始化
}

func (m *CommonModule) Init(ctx *registry.ModuleContext) error {
	setupRoutes(ctx)
	return nil
}

func setupRoutes(ctx *registry.ModuleContext) {
	r := ctx.Router
	r.GET("/health", health(ctx.DB, ctx.Logger))
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// local 驱动直接由服务本身提供文件
	if ctx.Config.Storage.Driver == "local" {
		r.Static(ctx.Config.Storage.PublicURL, ctx.Config.Storage.LocalDir)
	}
}

func health(db *gorm.DB, log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		sqlDB, err := db.DB()
		if err == nil {
			err = sqlDB.PingContext(c.Request.Context())
		}
		if err != nil {
			log.Warn("health check failed", zap.Error(err))
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "down"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	}
}
