package service

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/ksk584/anonymous-social-media/internal/errors"
	"github.com/ksk584/anonymous-social-media/internal/model"
	"github.com/ksk584/anonymous-social-media/internal/repository/interfaces"
	"github.com/ksk584/anonymous-social-media/internal/util"

	"go.uber.org/zap"
)

// 帖子正文的最大长度（按字符计）
const maxPostLength = 500

// FeedService 维护帖子的本地有序缓存：先整批拉取并补全作者名，
// 再消费行插入通知把新帖子并入队头。同一ID的事件按更新处理，
// 不会产生重复条目。
type FeedService struct {
	postRepo    interfaces.PostRepository
	profileRepo interfaces.ProfileRepository
	feed        interfaces.ChangeFeed

	mu          sync.RWMutex
	posts       []*model.Post
	unsubscribe func()
}

// NewFeedService 创建一个新的 FeedService 实例
func NewFeedService(postRepo interfaces.PostRepository, profileRepo interfaces.ProfileRepository, feed interfaces.ChangeFeed) *FeedService {
	return &FeedService{
		postRepo:    postRepo,
		profileRepo: profileRepo,
		feed:        feed,
	}
}

// Load 整批拉取全部帖子（按创建时间倒序）并补全作者名。
// 拉取失败时记录日志并清空缓存，不做重试。
func (s *FeedService) Load(ctx context.Context) error {
	posts, err := s.postRepo.FindAll(ctx)
	if err != nil {
		util.Logger.Error("获取帖子列表失败", zap.Error(err))
		s.mu.Lock()
		s.posts = nil
		s.mu.Unlock()
		return errors.Wrap(errors.ErrGateway, "获取帖子列表失败", err)
	}

	s.enrichPosts(ctx, posts)

	s.mu.Lock()
	s.posts = posts
	s.mu.Unlock()
	return nil
}

// enrichPosts 第二次请求取出出现过的作者资料并合并用户名。
// 资料缺失的帖子保留，作者名留空。
func (s *FeedService) enrichPosts(ctx context.Context, posts []*model.Post) {
	if len(posts) == 0 {
		return
	}

	seen := make(map[string]bool)
	var userIDs []string
	for _, post := range posts {
		if !seen[post.UserID] {
			seen[post.UserID] = true
			userIDs = append(userIDs, post.UserID)
		}
	}

	profiles, err := s.profileRepo.FindByIDs(ctx, userIDs)
	if err != nil {
		util.Logger.Warn("获取作者资料失败", zap.Error(err))
		return
	}

	byID := make(map[string]*model.Profile, len(profiles))
	for _, profile := range profiles {
		byID[profile.ID] = profile
	}
	for _, post := range posts {
		if profile, ok := byID[post.UserID]; ok {
			post.AuthorName = profile.Username
		}
	}
}

// Start 打开帖子表的实时订阅。
// 订阅动作在锁外执行：事件分发会回头拿本服务的锁。
func (s *FeedService) Start() {
	s.mu.RLock()
	active := s.unsubscribe != nil
	s.mu.RUnlock()
	if active {
		return
	}

	unsubscribe := s.feed.SubscribePosts(s.onInsert)

	s.mu.Lock()
	if s.unsubscribe != nil {
		s.mu.Unlock()
		unsubscribe()
		return
	}
	s.unsubscribe = unsubscribe
	s.mu.Unlock()
}

// Stop 释放实时订阅，之后不会再有事件写入缓存
func (s *FeedService) Stop() {
	s.mu.Lock()
	unsubscribe := s.unsubscribe
	s.unsubscribe = nil
	s.mu.Unlock()

	if unsubscribe != nil {
		unsubscribe()
	}
}

// Posts 返回当前缓存的快照
func (s *FeedService) Posts() []*model.Post {
	s.mu.RLock()
	defer s.mu.RUnlock()
	snapshot := make([]*model.Post, len(s.posts))
	copy(snapshot, s.posts)
	return snapshot
}

// Submit 校验并发布新帖子，返回补全了作者名的记录并并入缓存队头。
// 内容为空或未登录时不发出任何远端请求。
func (s *FeedService) Submit(ctx context.Context, content, imageURL, userID string) (*model.Post, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, errors.New(errors.ErrValidation, "内容不能为空")
	}
	if len([]rune(content)) > maxPostLength {
		return nil, errors.New(errors.ErrValidation, "内容超出长度限制")
	}
	if userID == "" {
		return nil, errors.New(errors.ErrUnauthorized, "需要登录后才能发帖")
	}

	post := &model.Post{
		UserID:  userID,
		Content: content,
	}
	if trimmed := strings.TrimSpace(imageURL); trimmed != "" {
		post.ImageURL = &trimmed
	}

	if err := s.postRepo.Create(ctx, post); err != nil {
		return nil, errors.Wrap(errors.ErrGateway, "创建帖子失败", err)
	}

	// 回读作者资料补全显示名
	if profile, err := s.profileRepo.FindByID(ctx, userID); err == nil && profile != nil {
		post.AuthorName = profile.Username
	}

	s.upsert(post)
	return post, nil
}

// Delete 删除自己的帖子
func (s *FeedService) Delete(ctx context.Context, postID, userID string) error {
	post, err := s.postRepo.FindByID(ctx, postID)
	if err != nil {
		return errors.Wrap(errors.ErrGateway, "获取帖子失败", err)
	}
	if post == nil {
		return errors.New(errors.ErrPostNotFound, "帖子不存在")
	}
	if post.UserID != userID {
		return errors.New(errors.ErrNotOwner, "只能删除自己的帖子")
	}

	if err := s.postRepo.Delete(ctx, postID); err != nil {
		return errors.Wrap(errors.ErrGateway, "删除帖子失败", err)
	}

	s.mu.Lock()
	for i, cached := range s.posts {
		if cached.ID == postID {
			s.posts = append(s.posts[:i], s.posts[i+1:]...)
			break
		}
	}
	s.mu.Unlock()
	return nil
}

// onInsert 处理通知通道送来的新帖子
func (s *FeedService) onInsert(post *model.Post) {
	if post.AuthorName == "" {
		// 通知里只有裸行，作者名需要补一次查询
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if profile, err := s.profileRepo.FindByID(ctx, post.UserID); err == nil && profile != nil {
			post.AuthorName = profile.Username
		}
	}
	s.upsert(post)
}

// upsert 按ID去重：已存在的条目就地更新，新条目放到队头。
// 事件默认比所有缓存条目新，不做重新排序。
func (s *FeedService) upsert(post *model.Post) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, cached := range s.posts {
		if cached.ID == post.ID {
			s.posts[i] = post
			return
		}
	}
	s.posts = append([]*model.Post{post}, s.posts...)
}
