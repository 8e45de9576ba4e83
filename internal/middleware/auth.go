package middleware

import (
	"strings"

	"github.com/ksk584/anonymous-social-media/internal/errors"
	"github.com/ksk584/anonymous-social-media/internal/util"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// AuthMiddleware 校验认证服务签发的访问令牌，把用户ID写入上下文
func AuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			errors.HandleError(c, errors.New(errors.ErrUnauthorized, "需要认证"))
			c.Abort()
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if !(len(parts) == 2 && parts[0] == "Bearer") {
			errors.HandleError(c, errors.New(errors.ErrUnauthorized, "无效的认证格式"))
			c.Abort()
			return
		}

		userID, err := util.ValidateToken(parts[1])
		if err != nil {
			util.Logger.Warn("令牌校验失败", zap.Error(err))
			errors.HandleError(c, errors.Wrap(errors.ErrInvalidToken, "无效或过期的令牌", err))
			c.Abort()
			return
		}

		c.Set("user_id", userID)
		c.Next()
	}
}
