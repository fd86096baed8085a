package handler

import (
	"socialgraph/internal/domain/feed/service"
	"socialgraph/internal/pkg/common"
	"socialgraph/internal/pkg/middleware"
	"socialgraph/pkg/response"

	"github.com/gin-gonic/gin"
)

type FeedHandler struct {
	service service.FeedService
}

func NewFeedHandler(s service.FeedService) *FeedHandler {
	return &FeedHandler{service: s}
}

// GlobalFeed 主 feed
// @Summary 主 feed
// @Tags feed
// @Param page query int false "页码"
// @Param limit query int false "每页数量，最大 100"
// @Router /feed [get]
func (h *FeedHandler) GlobalFeed(c *gin.Context) {
	page, err := h.service.GlobalFeed(c.Request.Context(), middleware.GetUserID(c), common.Pagination(c))
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, page)
}

// StoryFeed 故事栏
func (h *FeedHandler) StoryFeed(c *gin.Context) {
	groups, err := h.service.StoryFeed(c.Request.Context(), middleware.GetUserID(c))
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, groups)
}

func (h *FeedHandler) SavedPosts(c *gin.Context) {
	page, err := h.service.SavedPosts(c.Request.Context(), middleware.GetUserID(c), common.Pagination(c))
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, page)
}

// UserPosts :id 用户主页的帖子
func (h *FeedHandler) UserPosts(c *gin.Context) {
	page, err := h.service.UserPosts(c.Request.Context(), middleware.GetUserID(c), c.Param("id"), common.Pagination(c))
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, page)
}

// TaggedPosts :id 被 @ 的帖子
func (h *FeedHandler) TaggedPosts(c *gin.Context) {
	page, err := h.service.TaggedPosts(c.Request.Context(), middleware.GetUserID(c), c.Param("id"), common.Pagination(c))
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, page)
}

func (h *FeedHandler) HashtagFeed(c *gin.Context) {
	page, err := h.service.HashtagFeed(c.Request.Context(), middleware.GetUserID(c), c.Param("tag"), common.Pagination(c))
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, page)
}
