package story

import (
	"socialgraph/internal/domain/follow"
	"socialgraph/internal/domain/story/handler"
	"socialgraph/internal/domain/story/repository"
	"socialgraph/internal/domain/story/service"
	"socialgraph/internal/pkg/registry"
	"socialgraph/pkg/cache"

	"github.com/gin-gonic/gin"
)

// StoryModule 故事模块
type StoryModule struct{}

func init() {
	registry.Register(&StoryModule{})
}

func (m *StoryModule) Name() string {
	return "story"
}

func (m *StoryModule) Priority() int {
	return 30
}

func (m *StoryModule) Init(ctx *registry.ModuleContext) error {
	cfg := ctx.Config.Story
	storyService := service.NewStoryService(service.Deps{
		Repo:     repository.NewStoryRepository(ctx.DB),
		Gate:     follow.NewService(ctx),
		Releaser: ctx.Releaser,
		TTL:      cfg.TTL,
		Log:      ctx.Logger,
		Metrics:  ctx.Metrics,
	})

	// 过期回收在后台运行，随进程上下文退出
	if cfg.SweepInterval > 0 && ctx.Redis != nil {
		sweeper := service.NewSweeper(storyService, cache.NewRedisLocker(ctx.Redis), cfg.SweepInterval, cfg.SweepBatch, ctx.Logger)
		go sweeper.Run(ctx.Ctx)
	}

	setupRoutes(ctx.API, handler.NewStoryHandler(storyService, ctx.Storage, ctx.Releaser))
	return nil
}

func setupRoutes(api *gin.RouterGroup, h *handler.StoryHandler) {
	stories := api.Group("/stories")
	{
		stories.POST("", h.CreateStory)
		stories.POST("/:id/view", h.ViewStory)
		stories.GET("/:id/viewers", h.GetViewers)
		stories.DELETE("/:id", h.DeleteStory)
	}
}
