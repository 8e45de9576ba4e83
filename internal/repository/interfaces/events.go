package interfaces

import (
	"github.com/ksk584/anonymous-social-media/internal/model"
)

// ChangeFeed 定义了托管存储的行插入通知通道。
// 回调在监听协程中被调用；订阅方必须在视图销毁时调用返回的
// 取消函数，避免回调继续写入已经失效的本地状态。
type ChangeFeed interface {
	// SubscribePosts 订阅帖子表的插入事件
	SubscribePosts(handler func(*model.Post)) (unsubscribe func())
	// SubscribeComments 订阅评论表的插入事件，按帖子ID过滤
	SubscribeComments(postID string, handler func(*model.Comment)) (unsubscribe func())
}
