package moderation

import (
	"github.com/ksk584/anonymous-social-media/internal/errors"
	"github.com/ksk584/anonymous-social-media/internal/model"
	"github.com/ksk584/anonymous-social-media/internal/service"

	"github.com/gin-gonic/gin"
)

// ModerationHandler 版主后台的HTTP处理器
type ModerationHandler struct {
	moderationService *service.ModerationService
}

func NewModerationHandler(moderationService *service.ModerationService) *ModerationHandler {
	return &ModerationHandler{moderationService: moderationService}
}

// GetReportedPosts 返回被举报帖子的汇总视图
func (h *ModerationHandler) GetReportedPosts(c *gin.Context) {
	summaries, err := h.moderationService.LoadReportedPosts(c.Request.Context())
	if err != nil {
		errors.HandleError(c, err)
		return
	}

	if summaries == nil {
		summaries = []*model.ReportedPost{}
	}
	errors.HandleSuccess(c, gin.H{
		"reported_posts": summaries,
		"total":          len(summaries),
	}, "")
}

// ResolvePost 处理被举报的帖子：删帖或者驳回举报
func (h *ModerationHandler) ResolvePost(c *gin.Context) {
	postID := c.Param("id")

	var resolveData struct {
		Action string `json:"action" binding:"required"`
	}
	if err := c.ShouldBindJSON(&resolveData); err != nil {
		errors.HandleError(c, errors.Wrap(errors.ErrValidation, "无效的请求数据", err))
		return
	}

	if err := h.moderationService.Resolve(c.Request.Context(), postID, resolveData.Action); err != nil {
		errors.HandleError(c, err)
		return
	}

	errors.HandleSuccess(c, nil, "处理成功")
}
