package feed

import (
	"socialgraph/internal/domain/feed/handler"
	"socialgraph/internal/domain/feed/repository"
	"socialgraph/internal/domain/feed/service"
	"socialgraph/internal/domain/follow"
	"socialgraph/internal/pkg/registry"

	"github.com/gin-gonic/gin"
)

// FeedModule 只读的 feed 组装，依赖 post / story / follow 的表
type FeedModule struct{}

func init() {
	registry.Register(&FeedModule{})
}

func (m *FeedModule) Name() string {
	return "feed"
}

func (m *FeedModule) Priority() int {
	return 40
}

func (m *FeedModule) Init(ctx *registry.ModuleContext) error {
	feedService := service.NewFeedService(service.Deps{
		Repo:    repository.NewFeedRepository(ctx.DB),
		Gate:    follow.NewService(ctx),
		Log:     ctx.Logger,
		Metrics: ctx.Metrics,
	})
	setupRoutes(ctx.API, handler.NewFeedHandler(feedService))
	return nil
}

func setupRoutes(api *gin.RouterGroup, h *handler.FeedHandler) {
	api.GET("/feed", h.GlobalFeed)
	api.GET("/feed/stories", h.StoryFeed)
	api.GET("/me/saved", h.SavedPosts)
	api.GET("/users/:id/posts", h.UserPosts)
	api.GET("/users/:id/tagged", h.TaggedPosts)
	api.GET("/hashtags/:tag/posts", h.HashtagFeed)
}
