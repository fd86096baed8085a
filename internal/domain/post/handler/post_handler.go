package handler

import (
	"net/http"
	"strings"

	"socialgraph/internal/domain/post/model"
	"socialgraph/internal/domain/post/service"
	"socialgraph/internal/pkg/common"
	"socialgraph/internal/pkg/middleware"
	"socialgraph/internal/pkg/uploader"
	"socialgraph/internal/pkg/worker"
	baseModel "socialgraph/pkg/model"
	"socialgraph/pkg/response"
	"socialgraph/pkg/utils"

	"github.com/gin-gonic/gin"
)

const mediaFolder = "posts"

type PostHandler struct {
	service  service.PostService
	storage  uploader.MediaStorage
	releaser worker.MediaReleaser
}

func NewPostHandler(s service.PostService, storage uploader.MediaStorage, releaser worker.MediaReleaser) *PostHandler {
	return &PostHandler{service: s, storage: storage, releaser: releaser}
}

// CommentInput 评论输入
type CommentInput struct {
	Text     string `json:"text" binding:"required"`
	ParentID string `json:"parentId"`
}

// formList 读取表单中的列表字段，支持重复字段和逗号分隔
func formList(c *gin.Context, key string) []string {
	var out []string
	for _, raw := range c.PostFormArray(key) {
		for _, v := range strings.Split(raw, ",") {
			if v = strings.TrimSpace(v); v != "" {
				out = append(out, v)
			}
		}
	}
	return out
}

// CreatePost 发帖
// @Summary 发帖
// @Tags Post
// @Accept multipart/form-data
// @Param caption formData string false "文案"
// @Param media formData file false "媒体文件，可多个"
// @Param taggedUsers formData string false "被 @ 的用户 ID"
// @Param hashtags formData string false "话题"
// @Success 201 {object} model.Post
// @Router /posts [post]
func (h *PostHandler) CreatePost(c *gin.Context) {
	ctx := c.Request.Context()
	items, err := common.UploadMedia(ctx, h.storage, h.releaser, common.MediaFiles(c, "media"), mediaFolder)
	if err != nil {
		response.FromError(c, err)
		return
	}

	post, err := h.service.CreatePost(ctx, middleware.GetUserID(c), service.CreatePostInput{
		Caption:     c.PostForm("caption"),
		Media:       items,
		TaggedUsers: formList(c, "taggedUsers"),
		Hashtags:    formList(c, "hashtags"),
	})
	if err != nil {
		h.releaser.Release(items...)
		response.FromError(c, err)
		return
	}
	response.Created(c, post)
}

// UpdatePost 编辑帖子
// replace=true 时上传的文件整体替换原媒体，否则追加，removeStorageIds 指定要移除的媒体
func (h *PostHandler) UpdatePost(c *gin.Context) {
	ctx := c.Request.Context()
	actorID, postID := middleware.GetUserID(c), c.Param("id")
	// 先确认作者身份，避免为无权编辑的请求上传文件
	if err := h.service.EnsureAuthor(ctx, actorID, postID); err != nil {
		response.FromError(c, err)
		return
	}

	items, err := common.UploadMedia(ctx, h.storage, h.releaser, common.MediaFiles(c, "media"), mediaFolder)
	if err != nil {
		response.FromError(c, err)
		return
	}

	var in service.UpdatePostInput
	if caption, ok := c.GetPostForm("caption"); ok {
		in.Caption = &caption
	}
	if c.PostForm("replace") == "true" {
		in.Replace = items
		if in.Replace == nil {
			in.Replace = []baseModel.MediaItem{}
		}
	} else {
		in.Add = items
		in.RemoveStorageIDs = formList(c, "removeStorageIds")
	}

	post, err := h.service.UpdatePost(ctx, actorID, postID, in)
	if err != nil {
		h.releaser.Release(items...)
		response.FromError(c, err)
		return
	}
	response.Success(c, post)
}

// GetPost 帖子详情
func (h *PostHandler) GetPost(c *gin.Context) {
	post, err := h.service.GetPost(c.Request.Context(), middleware.GetUserID(c), c.Param("id"))
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, post)
}

// DeletePost 删除帖子
// @Summary 删除帖子
// @Tags Post
// @Param id path string true "帖子ID"
// @Router /posts/{id} [delete]
func (h *PostHandler) DeletePost(c *gin.Context) {
	if err := h.service.DeletePost(c.Request.Context(), middleware.GetUserID(c), c.Param("id")); err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, gin.H{"deleted": true})
}

// AddComment 发表评论
func (h *PostHandler) AddComment(c *gin.Context) {
	var input CommentInput
	if err := c.ShouldBindJSON(&input); err != nil {
		response.Error(c, http.StatusBadRequest, response.ErrInvalidParam, err.Error())
		return
	}

	comment, err := h.service.AddComment(c.Request.Context(), middleware.GetUserID(c), c.Param("id"), input.Text, input.ParentID)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Created(c, comment)
}

// GetComments 评论树
func (h *PostHandler) GetComments(c *gin.Context) {
	comments, err := h.service.GetComments(c.Request.Context(), middleware.GetUserID(c), c.Param("id"))
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, comments)
}

// DeleteComment 删除评论及其回复
func (h *PostHandler) DeleteComment(c *gin.Context) {
	removed, err := h.service.DeleteComment(c.Request.Context(), middleware.GetUserID(c), c.Param("id"))
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, gin.H{"deleted": removed})
}

// LikePost 点赞/取消点赞帖子
func (h *PostHandler) LikePost(c *gin.Context) {
	h.toggleLike(c, model.TargetPost)
}

// LikeComment 点赞/取消点赞评论
func (h *PostHandler) LikeComment(c *gin.Context) {
	h.toggleLike(c, model.TargetComment)
}

func (h *PostHandler) toggleLike(c *gin.Context, targetType string) {
	result, err := h.service.ToggleLike(c.Request.Context(), middleware.GetUserID(c), c.Param("id"), targetType)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, result)
}

// SavePost 收藏/取消收藏
func (h *PostHandler) SavePost(c *gin.Context) {
	saved, err := h.service.ToggleSave(c.Request.Context(), middleware.GetUserID(c), c.Param("id"))
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, gin.H{"saved": saved})
}

// ListHashtags 话题列表
// @Summary 热门话题
// @Tags Post
// @Param page query int false "Page"
// @Param limit query int false "Limit"
// @Param keyword query string false "Keyword"
// @Success 200 {object} utils.PageResult
// @Router /hashtags [get]
func (h *PostHandler) ListHashtags(c *gin.Context) {
	p := common.Pagination(c)
	tags, err := h.service.ListHashtags(c.Request.Context(), c.Query("keyword"), p)
	if err != nil {
		response.FromError(c, err)
		return
	}
	if tags == nil {
		tags = []model.HashtagStat{}
	}

	_, limit := p.GetPageOffset()
	response.Success(c, utils.PageResult{
		List:  tags,
		Page:  p.Page,
		Limit: limit,
	})
}
