package middleware

import (
	"github.com/ksk584/anonymous-social-media/internal/errors"
	"github.com/ksk584/anonymous-social-media/internal/repository/interfaces"
	"github.com/ksk584/anonymous-social-media/internal/util"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// ModeratorMiddleware 确保只有版主可以访问举报处理路由
func ModeratorMiddleware(profileRepo interfaces.ProfileRepository) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, exists := c.Get("user_id")
		if !exists {
			errors.HandleError(c, errors.New(errors.ErrUnauthorized, "需要认证"))
			c.Abort()
			return
		}

		profile, err := profileRepo.FindByID(c.Request.Context(), userID.(string))
		if err != nil || profile == nil || !profile.IsModerator() {
			util.Logger.Warn("非版主访问",
				zap.String("user_id", userID.(string)),
				zap.Error(err))
			errors.HandleError(c, errors.New(errors.ErrForbidden, "需要版主权限"))
			c.Abort()
			return
		}

		c.Next()
	}
}
