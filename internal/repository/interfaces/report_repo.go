package interfaces

import (
	"context"

	"github.com/ksk584/anonymous-social-media/internal/model"
)

// ReportRepository 定义了举报相关的行存储操作接口
type ReportRepository interface {
	Create(ctx context.Context, report *model.Report) error
	// FindAll 按创建时间倒序返回全部举报
	FindAll(ctx context.Context) ([]*model.Report, error)
	CountByPostID(ctx context.Context, postID string) (int, error)
	// DeleteByPostID 删除某个帖子的全部举报
	DeleteByPostID(ctx context.Context, postID string) error
}
