package handler

import (
	"net/http"

	"socialgraph/internal/domain/story/service"
	"socialgraph/internal/pkg/common"
	"socialgraph/internal/pkg/middleware"
	"socialgraph/internal/pkg/uploader"
	"socialgraph/internal/pkg/worker"
	"socialgraph/pkg/response"

	"github.com/gin-gonic/gin"
)

type StoryHandler struct {
	service  service.StoryService
	storage  uploader.MediaStorage
	releaser worker.MediaReleaser
}

func NewStoryHandler(s service.StoryService, storage uploader.MediaStorage, releaser worker.MediaReleaser) *StoryHandler {
	return &StoryHandler{service: s, storage: storage, releaser: releaser}
}

// CreateStory 发布故事，multipart 表单字段 media（单个文件）
func (h *StoryHandler) CreateStory(c *gin.Context) {
	ctx := c.Request.Context()
	files := common.MediaFiles(c, "media")
	if len(files) != 1 {
		response.Error(c, http.StatusBadRequest, response.ErrInvalidParam, "exactly one media file is required")
		return
	}

	items, err := common.UploadMedia(ctx, h.storage, h.releaser, files, "stories")
	if err != nil {
		response.FromError(c, err)
		return
	}

	story, err := h.service.CreateStory(ctx, middleware.GetUserID(c), items[0])
	if err != nil {
		h.releaser.Release(items...)
		response.FromError(c, err)
		return
	}
	response.Created(c, story)
}

// ViewStory 标记已看
func (h *StoryHandler) ViewStory(c *gin.Context) {
	if err := h.service.ViewStory(c.Request.Context(), middleware.GetUserID(c), c.Param("id")); err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, gin.H{"viewed": true})
}

// GetViewers 观众列表
func (h *StoryHandler) GetViewers(c *gin.Context) {
	list, err := h.service.GetViewers(c.Request.Context(), middleware.GetUserID(c), c.Param("id"))
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, list)
}

func (h *StoryHandler) DeleteStory(c *gin.Context) {
	if err := h.service.DeleteStory(c.Request.Context(), middleware.GetUserID(c), c.Param("id")); err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, gin.H{"deleted": true})
}
