package post

import (
	"socialgraph/internal/domain/follow"
	"socialgraph/internal/domain/post/handler"
	"socialgraph/internal/domain/post/repository"
	"socialgraph/internal/domain/post/service"
	"socialgraph/internal/pkg/registry"

	"github.com/gin-gonic/gin"
)

// PostModule 帖子模块：帖子、评论、点赞、收藏、话题
type PostModule struct{}

func init() {
	registry.Register(&PostModule{})
}

func (m *PostModule) Name() string {
	return "post"
}

func (m *PostModule) Priority() int {
	return 30
}

func (m *PostModule) Init(ctx *registry.ModuleContext) error {
	// 1. 依赖注入
	postService := service.NewPostService(service.Deps{
		Repo:     repository.NewPostRepository(ctx.DB),
		Graph:    follow.NewService(ctx),
		Releaser: ctx.Releaser,
		Log:      ctx.Logger,
	})
	postHandler := handler.NewPostHandler(postService, ctx.Storage, ctx.Releaser)

	// 2. 路由注册
	setupRoutes(ctx.API, postHandler)
	return nil
}

func setupRoutes(api *gin.RouterGroup, h *handler.PostHandler) {
	posts := api.Group("/posts")
	{
		posts.POST("", h.CreatePost)
		posts.GET("/:id", h.GetPost)
		posts.PUT("/:id", h.UpdatePost)
		posts.DELETE("/:id", h.DeletePost)
		posts.POST("/:id/like", h.LikePost)
		posts.POST("/:id/save", h.SavePost)
		posts.GET("/:id/comments", h.GetComments)
		posts.POST("/:id/comments", h.AddComment)
	}

	comments := api.Group("/comments")
	{
		comments.DELETE("/:id", h.DeleteComment)
		comments.POST("/:id/like", h.LikeComment)
	}

	api.GET("/hashtags", h.ListHashtags)
}
