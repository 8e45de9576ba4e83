package service

import (
	"context"
	"sync"

	"github.com/ksk584/anonymous-social-media/config"
	"github.com/ksk584/anonymous-social-media/internal/errors"
	"github.com/ksk584/anonymous-social-media/internal/model"
	"github.com/ksk584/anonymous-social-media/internal/repository/interfaces"
	"github.com/ksk584/anonymous-social-media/internal/util"

	"go.uber.org/zap"
)

// 版主处理举报的两种动作
const (
	ActionDeletePost     = "delete-post"
	ActionDismissReports = "dismiss-reports"
)

// ReportNotifier 举报告警的推送通道
type ReportNotifier interface {
	SendReportAlert(post *model.Post, reportCount int)
}

// ModerationService 聚合举报：整批读出全部举报和被举报的帖子，
// 在本地按帖子分组，产出帖子、代表性举报和举报计数的汇总视图，
// 并承载版主的删除/驳回动作。
type ModerationService struct {
	reportRepo interfaces.ReportRepository
	postRepo   interfaces.PostRepository
	notifier   ReportNotifier

	mu        sync.RWMutex
	summaries []*model.ReportedPost
}

// NewModerationService 创建一个新的 ModerationService 实例。
// notifier 可以为 nil，此时不发送告警。
func NewModerationService(reportRepo interfaces.ReportRepository, postRepo interfaces.PostRepository, notifier ReportNotifier) *ModerationService {
	return &ModerationService{
		reportRepo: reportRepo,
		postRepo:   postRepo,
		notifier:   notifier,
	}
}

// LoadReportedPosts 执行三次顺序读取：全部举报（倒序）、去重后的
// 帖子ID集合、对应的帖子，然后在本地分组。每组的代表举报是最新
// 的一条（倒序 + 先见先得），输出顺序跟随分组时首次出现的顺序。
// 帖子已被删除的举报组会被丢弃。
func (s *ModerationService) LoadReportedPosts(ctx context.Context) ([]*model.ReportedPost, error) {
	reports, err := s.reportRepo.FindAll(ctx)
	if err != nil {
		util.Logger.Error("获取举报列表失败", zap.Error(err))
		return nil, errors.Wrap(errors.ErrGateway, "获取举报列表失败", err)
	}

	var postIDs []string
	grouped := make(map[string][]*model.Report)
	for _, report := range reports {
		if _, ok := grouped[report.PostID]; !ok {
			postIDs = append(postIDs, report.PostID)
		}
		grouped[report.PostID] = append(grouped[report.PostID], report)
	}

	posts, err := s.postRepo.FindByIDs(ctx, postIDs)
	if err != nil {
		util.Logger.Error("获取被举报帖子失败", zap.Error(err))
		return nil, errors.Wrap(errors.ErrGateway, "获取被举报帖子失败", err)
	}

	postMap := make(map[string]*model.Post, len(posts))
	for _, post := range posts {
		postMap[post.ID] = post
	}

	var summaries []*model.ReportedPost
	for _, postID := range postIDs {
		post, ok := postMap[postID]
		if !ok {
			// 帖子已经不存在，丢弃这组举报
			continue
		}
		postReports := grouped[postID]
		summaries = append(summaries, &model.ReportedPost{
			Post:        post,
			Report:      postReports[0],
			ReportCount: len(postReports),
		})
	}

	s.mu.Lock()
	s.summaries = summaries
	s.mu.Unlock()
	return summaries, nil
}

// Summaries 返回当前汇总视图的快照
func (s *ModerationService) Summaries() []*model.ReportedPost {
	s.mu.RLock()
	defer s.mu.RUnlock()
	snapshot := make([]*model.ReportedPost, len(s.summaries))
	copy(snapshot, s.summaries)
	return snapshot
}

// Report 任何登录用户都可以举报帖子，同一用户允许重复举报。
// 举报数达到阈值时给版主发告警邮件。
func (s *ModerationService) Report(ctx context.Context, postID string, reason model.ReportReason, userID string) (*model.Report, error) {
	switch reason {
	case model.ReasonSpam, model.ReasonOffensive, model.ReasonMisinformation,
		model.ReasonInappropriate, model.ReasonOther:
	default:
		return nil, errors.New(errors.ErrInvalidReason, "无效的举报原因")
	}
	if userID == "" {
		return nil, errors.New(errors.ErrUnauthorized, "需要登录后才能举报")
	}

	report := &model.Report{
		PostID: postID,
		UserID: userID,
		Reason: reason,
	}
	if err := s.reportRepo.Create(ctx, report); err != nil {
		return nil, errors.Wrap(errors.ErrGateway, "创建举报失败", err)
	}

	if s.notifier != nil {
		count, err := s.reportRepo.CountByPostID(ctx, postID)
		if err != nil {
			util.Logger.Warn("统计举报数失败", zap.Error(err), zap.String("post_id", postID))
		} else if count >= config.AppConfig.ReportThreshold {
			post, err := s.postRepo.FindByID(ctx, postID)
			if err == nil && post != nil {
				s.notifier.SendReportAlert(post, count)
			}
		}
	}

	return report, nil
}

// Resolve 处理被举报的帖子。delete-post 先删举报再删帖子，两步
// 不是原子的，这个顺序保证不会留下指向已删除帖子的举报；
// dismiss-reports 只清掉举报，帖子保留。成功后从本地视图移除该
// 帖子的汇总，失败则视图不变。
func (s *ModerationService) Resolve(ctx context.Context, postID, action string) error {
	switch action {
	case ActionDeletePost:
		if err := s.reportRepo.DeleteByPostID(ctx, postID); err != nil {
			return errors.Wrap(errors.ErrGateway, "删除举报失败", err)
		}
		if err := s.postRepo.Delete(ctx, postID); err != nil {
			// 举报已删而帖子还在：帖子仍然可见、可再次被举报
			util.Logger.Error("举报已清除但删除帖子失败",
				zap.Error(err), zap.String("post_id", postID))
			return errors.Wrap(errors.ErrGateway, "删除帖子失败", err)
		}
	case ActionDismissReports:
		if err := s.reportRepo.DeleteByPostID(ctx, postID); err != nil {
			return errors.Wrap(errors.ErrGateway, "驳回举报失败", err)
		}
	default:
		return errors.New(errors.ErrBadRequest, "未知的处理动作")
	}

	s.mu.Lock()
	for i, summary := range s.summaries {
		if summary.Post.ID == postID {
			s.summaries = append(s.summaries[:i], s.summaries[i+1:]...)
			break
		}
	}
	s.mu.Unlock()

	util.Logger.Info("举报处理完成",
		zap.String("post_id", postID), zap.String("action", action))
	return nil
}
