package interfaces

import (
	"context"

	"github.com/ksk584/anonymous-social-media/internal/model"
)

// PostRepository 定义了帖子相关的行存储操作接口
type PostRepository interface {
	Create(ctx context.Context, post *model.Post) error
	FindByID(ctx context.Context, id string) (*model.Post, error)
	// FindAll 按创建时间倒序返回全部帖子
	FindAll(ctx context.Context) ([]*model.Post, error)
	FindByIDs(ctx context.Context, ids []string) ([]*model.Post, error)
	Delete(ctx context.Context, id string) error
}
