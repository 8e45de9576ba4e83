package model

import "time"

// Profile 用户资料，由认证服务在注册时一并创建，本应用只读
type Profile struct {
	ID        string    `json:"id"` // 与认证身份一致的 uuid
	Username  string    `json:"username"`
	Role      string    `json:"role"` // user 或 moderator
	CreatedAt time.Time `json:"created_at"`
}

// IsModerator 判断该用户是否具有版主权限
func (p *Profile) IsModerator() bool {
	return p.Role == "moderator"
}
