package postgres

import (
	"os"
	"testing"

	"github.com/ksk584/anonymous-social-media/internal/model"
	"github.com/ksk584/anonymous-social-media/internal/util"

	"github.com/stretchr/testify/assert"
)

func TestMain(m *testing.M) {
	util.InitLogger("error")
	os.Exit(m.Run())
}

// TestDispatchDeliversIndependentCopies 每个订阅者拿到独立的行副本，
// 一个订阅者改写自己的副本不会影响其他订阅者
func TestDispatchDeliversIndependentCopies(t *testing.T) {
	l := NewListener("")

	var first, second *model.Post
	l.SubscribePosts(func(post *model.Post) {
		post.AuthorName = "本地补全"
		first = post
	})
	l.SubscribePosts(func(post *model.Post) {
		second = post
	})

	l.dispatch(postsChannel, `{"id":"p1","user_id":"u1","content":"你好"}`)

	assert.NotNil(t, first)
	assert.NotNil(t, second)
	assert.NotSame(t, first, second)
	assert.Equal(t, "本地补全", first.AuthorName)
	assert.Equal(t, "", second.AuthorName)
	assert.Equal(t, "p1", second.ID)
}

// TestDispatchCommentFiltering 评论事件只送达订阅了该帖子的订阅者
func TestDispatchCommentFiltering(t *testing.T) {
	l := NewListener("")

	var matched, other []*model.Comment
	l.SubscribeComments("p1", func(comment *model.Comment) {
		matched = append(matched, comment)
	})
	l.SubscribeComments("p2", func(comment *model.Comment) {
		other = append(other, comment)
	})

	l.dispatch(commentsChannel, `{"id":"c1","post_id":"p1","user_id":"u1","content":"评论"}`)

	assert.Len(t, matched, 1)
	assert.Equal(t, "c1", matched[0].ID)
	assert.Empty(t, other)
}

// TestUnsubscribeInsideHandler 订阅者在回调里取消自己的订阅，
// 分发不能被卡死，之后的事件也不再送达
func TestUnsubscribeInsideHandler(t *testing.T) {
	l := NewListener("")

	var count int
	var unsubscribe func()
	unsubscribe = l.SubscribePosts(func(*model.Post) {
		count++
		unsubscribe()
	})

	l.dispatch(postsChannel, `{"id":"p1","user_id":"u1","content":"第一条"}`)
	l.dispatch(postsChannel, `{"id":"p2","user_id":"u1","content":"第二条"}`)

	assert.Equal(t, 1, count)
}

// TestDispatchBadPayload 无法解析的通知被丢弃，不触发任何回调
func TestDispatchBadPayload(t *testing.T) {
	l := NewListener("")

	var called bool
	l.SubscribePosts(func(*model.Post) { called = true })

	l.dispatch(postsChannel, `不是JSON`)

	assert.False(t, called)
}
