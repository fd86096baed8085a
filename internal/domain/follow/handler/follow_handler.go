package handler

import (
	"socialgraph/internal/domain/follow/service"
	userModel "socialgraph/internal/domain/user/model"
	"socialgraph/internal/pkg/common"
	"socialgraph/internal/pkg/middleware"
	"socialgraph/pkg/response"
	"socialgraph/pkg/utils"

	"github.com/gin-gonic/gin"
)

// FollowHandler 关注关系处理器
type FollowHandler struct {
	service service.FollowService
}

func NewFollowHandler(service service.FollowService) *FollowHandler {
	return &FollowHandler{service: service}
}

// Follow 关注 :id 用户，私密账号返回 pending
func (h *FollowHandler) Follow(c *gin.Context) {
	edge, err := h.service.RequestFollow(c.Request.Context(), middleware.GetUserID(c), c.Param("id"))
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Created(c, gin.H{"status": edge.Status})
}

// Unfollow 取消关注或撤回申请
func (h *FollowHandler) Unfollow(c *gin.Context) {
	if err := h.service.Unfollow(c.Request.Context(), middleware.GetUserID(c), c.Param("id")); err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, gin.H{"following": false})
}

// AcceptRequest 接受 :id 发来的关注申请
func (h *FollowHandler) AcceptRequest(c *gin.Context) {
	if err := h.service.AcceptRequest(c.Request.Context(), middleware.GetUserID(c), c.Param("id")); err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, gin.H{"accepted": true})
}

// RejectRequest 拒绝 :id 发来的关注申请
func (h *FollowHandler) RejectRequest(c *gin.Context) {
	if err := h.service.RejectRequest(c.Request.Context(), middleware.GetUserID(c), c.Param("id")); err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, gin.H{"rejected": true})
}

func (h *FollowHandler) Block(c *gin.Context) {
	if err := h.service.Block(c.Request.Context(), middleware.GetUserID(c), c.Param("id")); err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, gin.H{"blocked": true})
}

func (h *FollowHandler) Unblock(c *gin.Context) {
	if err := h.service.Unblock(c.Request.Context(), middleware.GetUserID(c), c.Param("id")); err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, gin.H{"blocked": false})
}

// GetFollowStatus 当前用户与 :id 的关系
func (h *FollowHandler) GetFollowStatus(c *gin.Context) {
	status, err := h.service.GetFollowStatus(c.Request.Context(), middleware.GetUserID(c), c.Param("id"))
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, gin.H{"status": status})
}

func (h *FollowHandler) ListFollowers(c *gin.Context) {
	page := common.Pagination(c)
	users, err := h.service.ListFollowers(c.Request.Context(), c.Param("id"), page)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, listResult(users, page))
}

func (h *FollowHandler) ListFollowing(c *gin.Context) {
	page := common.Pagination(c)
	users, err := h.service.ListFollowing(c.Request.Context(), c.Param("id"), page)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, listResult(users, page))
}

// ListRequests 当前用户待处理的关注申请
func (h *FollowHandler) ListRequests(c *gin.Context) {
	page := common.Pagination(c)
	users, err := h.service.ListRequests(c.Request.Context(), middleware.GetUserID(c), page)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, listResult(users, page))
}

func listResult(users []userModel.ViewerEntry, page utils.Pagination) utils.PageResult {
	if users == nil {
		users = []userModel.ViewerEntry{}
	}
	_, limit := page.GetPageOffset()
	return utils.PageResult{List: users, Page: page.Page, Limit: limit}
}
