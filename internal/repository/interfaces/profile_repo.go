package interfaces

import (
	"context"

	"github.com/ksk584/anonymous-social-media/internal/model"
)

// ProfileRepository 定义了用户资料的只读存储接口。
// 资料行由认证服务在注册时创建，本应用不写入。
type ProfileRepository interface {
	FindByID(ctx context.Context, id string) (*model.Profile, error)
	FindByIDs(ctx context.Context, ids []string) ([]*model.Profile, error)
}
