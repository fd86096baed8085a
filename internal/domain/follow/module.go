package follow

import (
	"socialgraph/internal/domain/follow/handler"
	"socialgraph/internal/domain/follow/repository"
	"socialgraph/internal/domain/follow/service"
	userRepo "socialgraph/internal/domain/user/repository"
	userService "socialgraph/internal/domain/user/service"
	"socialgraph/internal/pkg/registry"

	"github.com/gin-gonic/gin"
)

// FollowModule 关注关系模块
type FollowModule struct{}

func init() {
	registry.Register(&FollowModule{})
}

func (m *FollowModule) Name() string {
	return "follow"
}

func (m *FollowModule) Priority() int {
	return 20
}

func (m *FollowModule) Init(ctx *registry.ModuleContext) error {
	setupRoutes(ctx.API, handler.NewFollowHandler(NewService(ctx)))
	return nil
}

// NewService 组装关注服务，其他模块通过它查询关注关系与可见性
func NewService(ctx *registry.ModuleContext) service.FollowService {
	users := userRepo.NewUserRepository(ctx.DB)
	return service.NewFollowService(service.Deps{
		Repo:     repository.NewFollowRepository(ctx.DB),
		Users:    users,
		Notifier: ctx.Notifier,
		Profiles: userService.NewProfileCache(users, ctx.Cache, ctx.Config.Cache.ProfileTTL, ctx.Logger, ctx.Metrics),
		Log:      ctx.Logger,
		Metrics:  ctx.Metrics,
	})
}

func setupRoutes(api *gin.RouterGroup, h *handler.FollowHandler) {
	users := api.Group("/users/:id")
	{
		users.POST("/follow", h.Follow)
		users.DELETE("/follow", h.Unfollow)
		users.POST("/block", h.Block)
		users.DELETE("/block", h.Unblock)
		users.GET("/follow-status", h.GetFollowStatus)
		users.GET("/followers", h.ListFollowers)
		users.GET("/following", h.ListFollowing)
	}

	requests := api.Group("/follow-requests/:id")
	{
		requests.POST("/accept", h.AcceptRequest)
		requests.POST("/reject", h.RejectRequest)
	}
	api.GET("/me/follow-requests", h.ListRequests)
}
