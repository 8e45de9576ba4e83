package interfaces

import (
	"context"

	"github.com/ksk584/anonymous-social-media/internal/model"
)

// CommentRepository 定义了评论相关的行存储操作接口
type CommentRepository interface {
	Create(ctx context.Context, comment *model.Comment) error
	FindByID(ctx context.Context, id string) (*model.Comment, error)
	// FindByPostID 按创建时间升序返回某个帖子下的全部评论
	FindByPostID(ctx context.Context, postID string) ([]*model.Comment, error)
	Delete(ctx context.Context, id string) error
}
