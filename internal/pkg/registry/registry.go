package registry

import (
	"context"
	"sort"

	"socialgraph/internal/pkg/config"
	"socialgraph/internal/pkg/identity"
	"socialgraph/internal/pkg/push"
	"socialgraph/internal/pkg/uploader"
	"socialgraph/internal/pkg/worker"
	"socialgraph/pkg/cache"
	"socialgraph/pkg/metrics"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// ModuleContext 模块初始化所需的上下文
type ModuleContext struct {
	// Ctx 进程生命周期，后台任务在其取消时退出
	Ctx context.Context

	Config *config.Config
	DB     *gorm.DB
	Redis  *redis.Client
	Router *gin.Engine
	// API 需要登录的路由组，Public 不需要
	API    *gin.RouterGroup
	Public *gin.RouterGroup

	Logger   *zap.Logger
	Metrics  *metrics.Collector
	Cache    cache.CacheService
	Storage  uploader.MediaStorage
	Releaser worker.MediaReleaser
	Identity identity.Provider
	Notifier push.Notifier
}

// Module 模块接口
type Module interface {
	// Name 返回模块名称
	Name() string

	// Init 初始化模块（依赖注入、路由注册等）
	Init(ctx *ModuleContext) error

	// Priority 返回初始化优先级（数字越小越先初始化）
	Priority() int
}

// moduleRegistry 全局模块注册表
var moduleRegistry = make(map[string]Module)

// Register 注册模块
func Register(module Module) {
	moduleRegistry[module.Name()] = module
}

// GetModules 获取所有已注册的模块
func GetModules() map[string]Module {
	return moduleRegistry
}

// sorted 按优先级排序，优先级相同按名称，保证初始化顺序稳定
func sorted() []Module {
	modules := make([]Module, 0, len(moduleRegistry))
	for _, m := range moduleRegistry {
		modules = append(modules, m)
	}
	sort.Slice(modules, func(i, j int) bool {
		if modules[i].Priority() != modules[j].Priority() {
			return modules[i].Priority() < modules[j].Priority()
		}
		return modules[i].Name() < modules[j].Name()
	})
	return modules
}

// InitModules 按优先级初始化所有模块
func InitModules(ctx *ModuleContext) error {
	for _, module := range sorted() {
		if err := module.Init(ctx); err != nil {
			return err
		}
		if ctx.Logger != nil {
			ctx.Logger.Info("module initialized", zap.String("module", module.Name()))
		}
	}
	return nil
}
