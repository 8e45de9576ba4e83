package postgres

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/ksk584/anonymous-social-media/internal/common"
	"github.com/ksk584/anonymous-social-media/internal/model"
	"github.com/ksk584/anonymous-social-media/internal/util"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
)

// 托管平台通过触发器把新插入的行以 JSON 推到这两个通知通道
const (
	postsChannel    = "posts_inserted"
	commentsChannel = "comments_inserted"
)

type commentSub struct {
	postID  string
	handler func(*model.Comment)
}

// Listener 消费托管存储的行插入通知，并分发给进程内的订阅者。
// 使用独立的 pgx 连接执行 LISTEN，连接中断时自动重连。
type Listener struct {
	connString string

	mu          sync.RWMutex
	nextID      int
	postSubs    map[int]func(*model.Post)
	commentSubs map[int]commentSub

	cancel context.CancelFunc
	done   chan struct{}
}

func NewListener(connString string) *Listener {
	return &Listener{
		connString:  connString,
		postSubs:    make(map[int]func(*model.Post)),
		commentSubs: make(map[int]commentSub),
		done:        make(chan struct{}),
	}
}

// Start 启动监听协程
func (l *Listener) Start(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	l.cancel = cancel
	go l.run(ctx)
}

// Close 停止监听并等待协程退出
func (l *Listener) Close() {
	if l.cancel != nil {
		l.cancel()
		<-l.done
	}
}

// SubscribePosts 订阅帖子插入事件
func (l *Listener) SubscribePosts(handler func(*model.Post)) func() {
	l.mu.Lock()
	defer l.mu.Unlock()

	id := l.nextID
	l.nextID++
	l.postSubs[id] = handler

	return func() {
		l.mu.Lock()
		defer l.mu.Unlock()
		delete(l.postSubs, id)
	}
}

// SubscribeComments 订阅评论插入事件，按帖子ID过滤
func (l *Listener) SubscribeComments(postID string, handler func(*model.Comment)) func() {
	l.mu.Lock()
	defer l.mu.Unlock()

	id := l.nextID
	l.nextID++
	l.commentSubs[id] = commentSub{postID: postID, handler: handler}

	return func() {
		l.mu.Lock()
		defer l.mu.Unlock()
		delete(l.commentSubs, id)
	}
}

func (l *Listener) run(ctx context.Context) {
	defer close(l.done)

	for ctx.Err() == nil {
		if err := l.listen(ctx); err != nil && ctx.Err() == nil {
			util.Logger.Error("通知连接中断，准备重连", zap.Error(err))
			continue
		}
		return
	}
}

func (l *Listener) listen(ctx context.Context) error {
	var conn *pgx.Conn
	err := common.WithRetry(func() error {
		var connErr error
		conn, connErr = pgx.Connect(ctx, l.connString)
		return connErr
	}, 5)
	if err != nil {
		return err
	}
	defer conn.Close(context.Background())

	for _, channel := range []string{postsChannel, commentsChannel} {
		if _, err := conn.Exec(ctx, "LISTEN "+channel); err != nil {
			return err
		}
	}

	util.Logger.Info("行插入通知通道已就绪")

	for {
		notification, err := conn.WaitForNotification(ctx)
		if err != nil {
			return err
		}
		l.dispatch(notification.Channel, notification.Payload)
	}
}

// dispatch 先在锁内拷出订阅者快照，再在锁外逐个调用，回调里
// 取消订阅不会卡死分发。每个订阅者拿到独立的行副本：订阅方会
// 在自己的协程上继续读写这条行（比如补作者名、序列化推流），
// 共享同一个指针会产生数据竞争。
func (l *Listener) dispatch(channel, payload string) {
	switch channel {
	case postsChannel:
		var post model.Post
		if err := json.Unmarshal([]byte(payload), &post); err != nil {
			util.Logger.Warn("无法解析帖子通知", zap.Error(err))
			return
		}
		l.mu.RLock()
		handlers := make([]func(*model.Post), 0, len(l.postSubs))
		for _, handler := range l.postSubs {
			handlers = append(handlers, handler)
		}
		l.mu.RUnlock()

		for _, handler := range handlers {
			row := post
			handler(&row)
		}
	case commentsChannel:
		var comment model.Comment
		if err := json.Unmarshal([]byte(payload), &comment); err != nil {
			util.Logger.Warn("无法解析评论通知", zap.Error(err))
			return
		}
		l.mu.RLock()
		handlers := make([]func(*model.Comment), 0, len(l.commentSubs))
		for _, sub := range l.commentSubs {
			if sub.postID == comment.PostID {
				handlers = append(handlers, sub.handler)
			}
		}
		l.mu.RUnlock()

		for _, handler := range handlers {
			row := comment
			handler(&row)
		}
	}
}
