package model

import "time"

// Post 帖子，作者名是读取时从 profiles 关联出来的冗余字段
type Post struct {
	ID         string    `json:"id"`
	UserID     string    `json:"user_id"`
	Content    string    `json:"content"`
	ImageURL   *string   `json:"image_url"`
	CreatedAt  time.Time `json:"created_at"`
	AuthorName string    `json:"author_name,omitempty"`
}

// Comment 评论，归属于单个帖子
type Comment struct {
	ID         string    `json:"id"`
	PostID     string    `json:"post_id"`
	UserID     string    `json:"user_id"`
	Content    string    `json:"content"`
	CreatedAt  time.Time `json:"created_at"`
	AuthorName string    `json:"author_name,omitempty"`
}

// ReportReason 举报原因类型
type ReportReason string

// 固定的举报原因枚举
const (
	ReasonSpam           ReportReason = "Spam"
	ReasonOffensive      ReportReason = "Offensive"
	ReasonMisinformation ReportReason = "Misinformation"
	ReasonInappropriate  ReportReason = "Inappropriate"
	ReasonOther          ReportReason = "Other"
)

// Report 针对帖子的举报，同一用户可重复举报
type Report struct {
	ID        string       `json:"id"`
	PostID    string       `json:"post_id"`
	UserID    string       `json:"user_id"`
	Reason    ReportReason `json:"reason"`
	CreatedAt time.Time    `json:"created_at"`
}

// ReportedPost 帖子的举报汇总视图：帖子本身、一条代表性举报和举报总数。
// 举报数永远是现算的，不落库。
type ReportedPost struct {
	Post        *Post   `json:"post"`
	Report      *Report `json:"report"`
	ReportCount int     `json:"report_count"`
}
