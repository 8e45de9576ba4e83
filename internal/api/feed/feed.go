package feed

import (
	"fmt"
	"io"
	"net/http"

	"github.com/ksk584/anonymous-social-media/internal/errors"
	"github.com/ksk584/anonymous-social-media/internal/model"
	"github.com/ksk584/anonymous-social-media/internal/repository/interfaces"
	"github.com/ksk584/anonymous-social-media/internal/service"
	"github.com/ksk584/anonymous-social-media/internal/storage"
	"github.com/ksk584/anonymous-social-media/internal/util"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type FeedHandler struct {
	feedService       *service.FeedService
	commentService    *service.CommentService
	moderationService *service.ModerationService
	changeFeed        interfaces.ChangeFeed
	storage           storage.Storage
}

func NewFeedHandler(feedService *service.FeedService, commentService *service.CommentService,
	moderationService *service.ModerationService, changeFeed interfaces.ChangeFeed, storage storage.Storage) *FeedHandler {
	return &FeedHandler{
		feedService:       feedService,
		commentService:    commentService,
		moderationService: moderationService,
		changeFeed:        changeFeed,
		storage:           storage,
	}
}

// ListPosts 返回按创建时间倒序的完整信息流
func (h *FeedHandler) ListPosts(c *gin.Context) {
	if err := h.feedService.Load(c.Request.Context()); err != nil {
		errors.HandleError(c, err)
		return
	}

	posts := h.feedService.Posts()
	if posts == nil {
		posts = []*model.Post{}
	}
	errors.HandleSuccess(c, gin.H{"posts": posts}, "")
}

// CreatePost 发布新帖子
func (h *FeedHandler) CreatePost(c *gin.Context) {
	var postData struct {
		Content  string `json:"content"`
		ImageURL string `json:"image_url"`
	}

	if err := c.ShouldBindJSON(&postData); err != nil {
		errors.HandleError(c, errors.Wrap(errors.ErrValidation, "无效的请求数据", err))
		return
	}

	userID := c.GetString("user_id")
	post, err := h.feedService.Submit(c.Request.Context(), postData.Content, postData.ImageURL, userID)
	if err != nil {
		errors.HandleError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"code": 201,
		"data": post,
	})
}

// DeletePost 删除自己的帖子
func (h *FeedHandler) DeletePost(c *gin.Context) {
	postID := c.Param("id")
	userID := c.GetString("user_id")

	if err := h.feedService.Delete(c.Request.Context(), postID, userID); err != nil {
		errors.HandleError(c, err)
		return
	}

	errors.HandleSuccess(c, nil, "帖子删除成功")
}

// StreamPosts 通过 SSE 把实时插入的帖子推给客户端
func (h *FeedHandler) StreamPosts(c *gin.Context) {
	events := make(chan *model.Post, 16)
	unsubscribe := h.changeFeed.SubscribePosts(func(post *model.Post) {
		// 客户端消费不过来时丢弃事件，不阻塞监听协程
		select {
		case events <- post:
		default:
		}
	})
	defer unsubscribe()

	c.Stream(func(w io.Writer) bool {
		select {
		case post := <-events:
			c.SSEvent("post", post)
			return true
		case <-c.Request.Context().Done():
			return false
		}
	})
}

// ListComments 返回某个帖子下的全部评论（升序）
func (h *FeedHandler) ListComments(c *gin.Context) {
	postID := c.Param("id")

	comments, err := h.commentService.Load(c.Request.Context(), postID)
	if err != nil {
		errors.HandleError(c, err)
		return
	}

	if comments == nil {
		comments = []*model.Comment{}
	}
	errors.HandleSuccess(c, gin.H{"comments": comments}, "")
}

// CreateComment 在某个帖子下发表评论
func (h *FeedHandler) CreateComment(c *gin.Context) {
	postID := c.Param("id")

	var commentData struct {
		Content string `json:"content"`
	}
	if err := c.ShouldBindJSON(&commentData); err != nil {
		errors.HandleError(c, errors.Wrap(errors.ErrValidation, "无效的请求数据", err))
		return
	}

	userID := c.GetString("user_id")
	comment, err := h.commentService.Add(c.Request.Context(), postID, commentData.Content, userID)
	if err != nil {
		errors.HandleError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"code": 201,
		"data": comment,
	})
}

// DeleteComment 删除自己的评论
func (h *FeedHandler) DeleteComment(c *gin.Context) {
	commentID := c.Param("id")
	userID := c.GetString("user_id")

	if err := h.commentService.Delete(c.Request.Context(), commentID, userID); err != nil {
		errors.HandleError(c, err)
		return
	}

	errors.HandleSuccess(c, nil, "评论删除成功")
}

// ReportPost 举报某个帖子
func (h *FeedHandler) ReportPost(c *gin.Context) {
	postID := c.Param("id")

	var reportData struct {
		Reason string `json:"reason" binding:"required,report_reason"`
	}
	if err := c.ShouldBindJSON(&reportData); err != nil {
		errors.HandleError(c, errors.Wrap(errors.ErrValidation, "无效的举报原因", err))
		return
	}

	userID := c.GetString("user_id")
	report, err := h.moderationService.Report(c.Request.Context(), postID, model.ReportReason(reportData.Reason), userID)
	if err != nil {
		errors.HandleError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"code": 201,
		"data": report,
	})
}

// UploadImage 上传帖子配图，返回可用作 image_url 的地址
func (h *FeedHandler) UploadImage(c *gin.Context) {
	file, err := c.FormFile("image")
	if err != nil {
		errors.HandleError(c, errors.Wrap(errors.ErrValidation, "缺少图片文件", err))
		return
	}

	if !storage.IsAllowedImageType(file.Header.Get("Content-Type")) {
		errors.HandleError(c, errors.New(errors.ErrValidation, "只支持 jpeg/png/gif/webp 图片"))
		return
	}

	userID := c.GetString("user_id")
	filename := util.GenerateUniqueFilename(file.Filename)
	path := fmt.Sprintf("posts/%s/%s", userID, filename)

	imageURL, err := h.storage.UploadFile(file, path)
	if err != nil {
		util.Logger.Error("图片上传失败", zap.Error(err))
		errors.HandleError(c, errors.Wrap(errors.ErrInternal, "图片上传失败", err))
		return
	}

	errors.HandleSuccess(c, gin.H{"url": imageURL}, "")
}
