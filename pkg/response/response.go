package response

import (
	"net/http"

	"socialgraph/pkg/apperr"

	"github.com/gin-gonic/gin"
)

// Response 统一响应结构
type Response struct {
	Success bool        `json:"success"`
	Code    int         `json:"code"`    // 业务码
	Message string      `json:"message"` // 提示信息
	Data    interface{} `json:"data"`    // 数据
}

// Success 成功响应
func Success(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, Response{
		Success: true,
		Code:    CodeSuccess,
		Message: "success",
		Data:    data,
	})
}

// Created 创建成功响应
func Created(c *gin.Context, data interface{}) {
	c.JSON(http.StatusCreated, Response{
		Success: true,
		Code:    CodeSuccess,
		Message: "success",
		Data:    data,
	})
}

// Error 错误响应
func Error(c *gin.Context, httpCode int, errCode int, msg string) {
	c.JSON(httpCode, Response{
		Success: false,
		Code:    errCode,
		Message: msg,
		Data:    nil,
	})
}

// FromError 按业务错误分类输出错误响应，原始错误挂到 gin.Context 供日志中间件输出
func FromError(c *gin.Context, err error) {
	_ = c.Error(err)
	Error(c, apperr.HTTPStatus(err), codeFor(err), apperr.Message(err))
}
