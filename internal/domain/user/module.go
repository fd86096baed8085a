package user

import (
	"socialgraph/internal/domain/follow"
	"socialgraph/internal/domain/user/handler"
	"socialgraph/internal/domain/user/repository"
	"socialgraph/internal/domain/user/service"
	"socialgraph/internal/pkg/registry"

	"github.com/gin-gonic/gin"
)

// UserModule 用户模块
type UserModule struct{}

func init() {
	// 自动注册模块
	registry.Register(&UserModule{})
}

func (m *UserModule) Name() string {
	return "user"
}

func (m *UserModule) Priority() int {
	// 用户模块优先级最高，因为其他模块可能依赖它
	return 10
}

func (m *UserModule) Init(ctx *registry.ModuleContext) error {
	// 1. 依赖注入
	userRepo := repository.NewUserRepository(ctx.DB)
	userService := service.NewUserService(service.Deps{
		Repo:       userRepo,
		Follows:    follow.NewService(ctx),
		Identity:   ctx.Identity,
		Releaser:   ctx.Releaser,
		Cache:      ctx.Cache,
		ProfileTTL: ctx.Config.Cache.ProfileTTL,
		Log:        ctx.Logger.Named("user"),
		Metrics:    ctx.Metrics,
	})
	userHandler := handler.NewUserHandler(userService, ctx.Storage, ctx.Releaser)

	// 2. 路由注册
	setupRoutes(ctx.Public, ctx.API, userHandler)

	return nil
}

func setupRoutes(public, api *gin.RouterGroup, h *handler.UserHandler) {
	// 公开路由
	authGroup := public.Group("/auth")
	{
		authGroup.POST("/register", h.Register)
		authGroup.POST("/login", h.Login)
	}

	// 受保护的路由
	me := api.Group("/me")
	{
		me.GET("", h.GetMe)
		me.PUT("", h.UpdateProfile)
		me.POST("/privacy", h.TogglePrivacy)
		me.DELETE("", h.DeleteAccount)
	}
	api.GET("/profiles/:username", h.GetProfile)
}
