package service

import (
	"context"
	"strings"
	"sync"

	"github.com/ksk584/anonymous-social-media/internal/errors"
	"github.com/ksk584/anonymous-social-media/internal/model"
	"github.com/ksk584/anonymous-social-media/internal/repository/interfaces"
	"github.com/ksk584/anonymous-social-media/internal/util"

	"go.uber.org/zap"
)

// 评论正文的最大长度（按字符计）
const maxCommentLength = 200

// thread 单个帖子的评论线程缓存
type thread struct {
	comments    []*model.Comment
	unsubscribe func()
}

// CommentService 按帖子维护评论线程：升序整批拉取加作者名补全，
// 实时事件按ID去重后追加到队尾。
type CommentService struct {
	commentRepo interfaces.CommentRepository
	profileRepo interfaces.ProfileRepository
	feed        interfaces.ChangeFeed

	mu      sync.RWMutex
	threads map[string]*thread
}

// NewCommentService 创建一个新的 CommentService 实例
func NewCommentService(commentRepo interfaces.CommentRepository, profileRepo interfaces.ProfileRepository, feed interfaces.ChangeFeed) *CommentService {
	return &CommentService{
		commentRepo: commentRepo,
		profileRepo: profileRepo,
		feed:        feed,
		threads:     make(map[string]*thread),
	}
}

// Load 整批拉取某个帖子的全部评论（升序）并补全作者名
func (s *CommentService) Load(ctx context.Context, postID string) ([]*model.Comment, error) {
	comments, err := s.commentRepo.FindByPostID(ctx, postID)
	if err != nil {
		util.Logger.Error("获取评论列表失败", zap.Error(err), zap.String("post_id", postID))
		return nil, errors.Wrap(errors.ErrGateway, "获取评论列表失败", err)
	}

	s.enrichComments(ctx, comments)

	s.mu.Lock()
	t := s.ensureThread(postID)
	t.comments = comments
	s.mu.Unlock()
	return comments, nil
}

func (s *CommentService) enrichComments(ctx context.Context, comments []*model.Comment) {
	if len(comments) == 0 {
		return
	}

	seen := make(map[string]bool)
	var userIDs []string
	for _, comment := range comments {
		if !seen[comment.UserID] {
			seen[comment.UserID] = true
			userIDs = append(userIDs, comment.UserID)
		}
	}

	profiles, err := s.profileRepo.FindByIDs(ctx, userIDs)
	if err != nil {
		util.Logger.Warn("获取评论作者资料失败", zap.Error(err))
		return
	}

	byID := make(map[string]*model.Profile, len(profiles))
	for _, profile := range profiles {
		byID[profile.ID] = profile
	}
	for _, comment := range comments {
		if profile, ok := byID[comment.UserID]; ok {
			comment.AuthorName = profile.Username
		}
	}
}

// Start 打开某个帖子的评论实时订阅。
// 订阅动作在锁外执行：事件分发会回头拿本服务的锁。
func (s *CommentService) Start(postID string) {
	s.mu.RLock()
	t, ok := s.threads[postID]
	active := ok && t.unsubscribe != nil
	s.mu.RUnlock()
	if active {
		return
	}

	unsubscribe := s.feed.SubscribeComments(postID, func(comment *model.Comment) {
		s.append(postID, comment)
	})

	s.mu.Lock()
	t = s.ensureThread(postID)
	if t.unsubscribe != nil {
		s.mu.Unlock()
		unsubscribe()
		return
	}
	t.unsubscribe = unsubscribe
	s.mu.Unlock()
}

// Stop 释放某个帖子的评论订阅并丢弃其缓存
func (s *CommentService) Stop(postID string) {
	s.mu.Lock()
	t, ok := s.threads[postID]
	if ok {
		delete(s.threads, postID)
	}
	s.mu.Unlock()

	if ok && t.unsubscribe != nil {
		t.unsubscribe()
	}
}

// Comments 返回某个帖子当前缓存的评论快照
func (s *CommentService) Comments(postID string) []*model.Comment {
	s.mu.RLock()
	defer s.mu.RUnlock()

	t, ok := s.threads[postID]
	if !ok {
		return nil
	}
	snapshot := make([]*model.Comment, len(t.comments))
	copy(snapshot, t.comments)
	return snapshot
}

// Add 校验并发布新评论，成功后把补全了作者名的记录追加到队尾。
// 内容为空或未登录时不发出任何远端请求。
func (s *CommentService) Add(ctx context.Context, postID, content, userID string) (*model.Comment, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, errors.New(errors.ErrValidation, "评论内容不能为空")
	}
	if len([]rune(content)) > maxCommentLength {
		return nil, errors.New(errors.ErrValidation, "评论超出长度限制")
	}
	if userID == "" {
		return nil, errors.New(errors.ErrUnauthorized, "需要登录后才能评论")
	}

	comment := &model.Comment{
		PostID:  postID,
		UserID:  userID,
		Content: content,
	}

	if err := s.commentRepo.Create(ctx, comment); err != nil {
		return nil, errors.Wrap(errors.ErrGateway, "创建评论失败", err)
	}

	if profile, err := s.profileRepo.FindByID(ctx, userID); err == nil && profile != nil {
		comment.AuthorName = profile.Username
	}

	s.append(postID, comment)
	return comment, nil
}

// Delete 只有评论作者本人可以删除；删除成功后从本地缓存移除
func (s *CommentService) Delete(ctx context.Context, commentID, userID string) error {
	comment, err := s.commentRepo.FindByID(ctx, commentID)
	if err != nil {
		return errors.Wrap(errors.ErrGateway, "获取评论失败", err)
	}
	if comment == nil {
		return errors.New(errors.ErrCommentNotFound, "评论不存在")
	}
	if comment.UserID != userID {
		return errors.New(errors.ErrNotOwner, "只能删除自己的评论")
	}

	if err := s.commentRepo.Delete(ctx, commentID); err != nil {
		return errors.Wrap(errors.ErrGateway, "删除评论失败", err)
	}

	s.mu.Lock()
	if t, ok := s.threads[comment.PostID]; ok {
		for i, cached := range t.comments {
			if cached.ID == commentID {
				t.comments = append(t.comments[:i], t.comments[i+1:]...)
				break
			}
		}
	}
	s.mu.Unlock()
	return nil
}

// append 按ID去重后把评论追加到线程队尾（评论缓存是升序的）
func (s *CommentService) append(postID string, comment *model.Comment) {
	s.mu.Lock()
	defer s.mu.Unlock()

	t := s.ensureThread(postID)
	for i, cached := range t.comments {
		if cached.ID == comment.ID {
			t.comments[i] = comment
			return
		}
	}
	t.comments = append(t.comments, comment)
}

// 调用方必须持有写锁
func (s *CommentService) ensureThread(postID string) *thread {
	t, ok := s.threads[postID]
	if !ok {
		t = &thread{}
		s.threads[postID] = t
	}
	return t
}
