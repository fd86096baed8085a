package handler

import (
	"net/http"

	"socialgraph/internal/domain/user/service"
	"socialgraph/internal/pkg/common"
	"socialgraph/internal/pkg/middleware"
	"socialgraph/internal/pkg/uploader"
	"socialgraph/internal/pkg/worker"
	"socialgraph/pkg/response"

	"github.com/gin-gonic/gin"
)

// UserHandler 用户处理器
type UserHandler struct {
	service  service.UserService
	storage  uploader.MediaStorage
	releaser worker.MediaReleaser
}

// NewUserHandler 创建处理器
func NewUserHandler(service service.UserService, storage uploader.MediaStorage, releaser worker.MediaReleaser) *UserHandler {
	return &UserHandler{service: service, storage: storage, releaser: releaser}
}

// RegisterInput 注册输入
type RegisterInput struct {
	Username string `json:"username" binding:"required"`
	Name     string `json:"name" binding:"required"`
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// LoginInput 登录输入
type LoginInput struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// Register 处理注册请求
func (h *UserHandler) Register(c *gin.Context) {
	var input RegisterInput
	if err := c.ShouldBindJSON(&input); err != nil {
		response.Error(c, http.StatusBadRequest, response.ErrInvalidParam, err.Error())
		return
	}

	user, token, err := h.service.Register(c.Request.Context(), service.RegisterInput{
		Username: input.Username,
		Name:     input.Name,
		Email:    input.Email,
		Password: input.Password,
	})
	if err != nil {
		response.FromError(c, err)
		return
	}

	response.Created(c, gin.H{"user": user, "token": token})
}

// Login 处理登录请求
func (h *UserHandler) Login(c *gin.Context) {
	var input LoginInput
	if err := c.ShouldBindJSON(&input); err != nil {
		response.Error(c, http.StatusBadRequest, response.ErrInvalidParam, err.Error())
		return
	}

	user, token, err := h.service.Login(c.Request.Context(), input.Username, input.Password)
	if err != nil {
		response.FromError(c, err)
		return
	}

	response.Success(c, gin.H{"user": user, "token": token})
}

// GetMe 当前用户资料
func (h *UserHandler) GetMe(c *gin.Context) {
	user, err := h.service.GetMe(c.Request.Context(), middleware.GetUserID(c))
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, user)
}

// GetProfile 按用户名查看主页
func (h *UserHandler) GetProfile(c *gin.Context) {
	profile, err := h.service.GetProfile(c.Request.Context(), middleware.GetUserID(c), c.Param("username"))
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, profile)
}

// UpdateProfile 更新资料，multipart 表单：name, bio, avatar(文件)
func (h *UserHandler) UpdateProfile(c *gin.Context) {
	ctx := c.Request.Context()
	var in service.UpdateProfileInput
	if name, ok := c.GetPostForm("name"); ok {
		in.Name = &name
	}
	if bio, ok := c.GetPostForm("bio"); ok {
		in.Bio = &bio
	}

	files := common.MediaFiles(c, "avatar")
	if len(files) > 1 {
		response.Error(c, http.StatusBadRequest, response.ErrInvalidParam, "only one avatar file is allowed")
		return
	}
	items, err := common.UploadMedia(ctx, h.storage, h.releaser, files, "avatars")
	if err != nil {
		response.FromError(c, err)
		return
	}
	if len(items) == 1 {
		in.Avatar = &items[0]
	}

	user, err := h.service.UpdateProfile(ctx, middleware.GetUserID(c), in)
	if err != nil {
		// 业务失败时刚上传的头像不会被引用，直接回收
		h.releaser.Release(items...)
		response.FromError(c, err)
		return
	}
	response.Success(c, user)
}

// TogglePrivacy 切换私密账号
func (h *UserHandler) TogglePrivacy(c *gin.Context) {
	isPrivate, err := h.service.TogglePrivacy(c.Request.Context(), middleware.GetUserID(c))
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, gin.H{"isPrivate": isPrivate})
}

// DeleteAccount 注销当前账号
func (h *UserHandler) DeleteAccount(c *gin.Context) {
	if err := h.service.DeleteAccount(c.Request.Context(), middleware.GetUserID(c)); err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, gin.H{"deleted": true})
}
