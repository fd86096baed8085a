package middleware

import (
	"net/http"
	"strings"

	"socialgraph/internal/pkg/identity"
	"socialgraph/pkg/logger"
	"socialgraph/pkg/response"
	"socialgraph/pkg/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const userIDKey = "userID"

// AuthMiddleware JWT认证中间件，身份已被撤销的用户同样拒绝
func AuthMiddleware(provider identity.Provider) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			response.Error(c, http.StatusUnauthorized, response.ErrTokenInvalid, "Authorization header is required")
			c.Abort()
			return
		}

		// 检查格式 "Bearer <token>"
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" {
			response.Error(c, http.StatusUnauthorized, response.ErrTokenInvalid, "Invalid authorization header format")
			c.Abort()
			return
		}

		claims, err := utils.ParseToken(parts[1])
		if err != nil || claims.UserID == "" {
			response.Error(c, http.StatusUnauthorized, response.ErrTokenInvalid, "Invalid or expired token")
			c.Abort()
			return
		}

		if provider != nil {
			revoked, err := provider.IsRevoked(c.Request.Context(), claims.UserID)
			if err != nil {
				logger.Log.Error("identity lookup failed", zap.String("user_id", claims.UserID), zap.Error(err))
				response.Error(c, http.StatusInternalServerError, response.ErrServerInternal, "internal server error")
				c.Abort()
				return
			}
			if revoked {
				response.Error(c, http.StatusUnauthorized, response.ErrTokenInvalid, "Account no longer exists")
				c.Abort()
				return
			}
		}

		// 将 userID 存入上下文
		c.Set(userIDKey, claims.UserID)
		c.Next()
	}
}

// GetUserID 获取当前登录用户 ID，未经过 AuthMiddleware 时返回空串
func GetUserID(c *gin.Context) string {
	return c.GetString(userIDKey)
}
