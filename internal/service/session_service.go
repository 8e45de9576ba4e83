package service

import (
	"context"
	"sync"

	"github.com/ksk584/anonymous-social-media/internal/authclient"
	"github.com/ksk584/anonymous-social-media/internal/errors"
	"github.com/ksk584/anonymous-social-media/internal/util"

	"go.uber.org/zap"
)

// AuthClient 定义了托管认证服务的客户端契约
type AuthClient interface {
	SignUp(ctx context.Context, email, password, username string) error
	SignIn(ctx context.Context, email, password string) (*authclient.Session, error)
	SignOut(ctx context.Context, accessToken string) error
}

// AuthEvent 认证状态变更事件
type AuthEvent struct {
	SignedIn bool
	UserID   string
}

// SessionService 是进程级的会话上下文：当前登录身份的唯一来源，
// 登录和注销都通过它广播给订阅者。
type SessionService struct {
	authClient AuthClient

	mu          sync.RWMutex
	userID      string
	accessToken string
	nextID      int
	listeners   map[int]func(AuthEvent)
}

// NewSessionService 创建一个新的 SessionService 实例
func NewSessionService(authClient AuthClient) *SessionService {
	return &SessionService{
		authClient: authClient,
		listeners:  make(map[int]func(AuthEvent)),
	}
}

// Current 返回当前登录的用户ID，未登录时第二个返回值为 false
func (s *SessionService) Current() (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.userID, s.userID != ""
}

// SignUp 注册走认证服务，资料行由服务端创建
func (s *SessionService) SignUp(ctx context.Context, email, password, username string) error {
	if err := s.authClient.SignUp(ctx, email, password, username); err != nil {
		return errors.Wrap(errors.ErrGateway, "注册失败", err)
	}
	return nil
}

// SignIn 登录成功后更新当前身份并通知订阅者
func (s *SessionService) SignIn(ctx context.Context, email, password string) (*authclient.Session, error) {
	session, err := s.authClient.SignIn(ctx, email, password)
	if err != nil {
		return nil, errors.Wrap(errors.ErrInvalidCredentials, "登录失败", err)
	}

	s.mu.Lock()
	s.userID = session.User.ID
	s.accessToken = session.AccessToken
	s.mu.Unlock()

	util.Logger.Info("用户已登录", zap.String("user_id", session.User.ID))
	s.notify(AuthEvent{SignedIn: true, UserID: session.User.ID})
	return session, nil
}

// SignOut 注销当前会话。远端注销失败时本地状态保持不变。
func (s *SessionService) SignOut(ctx context.Context) error {
	s.mu.RLock()
	token := s.accessToken
	s.mu.RUnlock()

	if token == "" {
		return nil
	}

	if err := s.authClient.SignOut(ctx, token); err != nil {
		return errors.Wrap(errors.ErrGateway, "注销失败", err)
	}

	s.mu.Lock()
	s.userID = ""
	s.accessToken = ""
	s.mu.Unlock()

	util.Logger.Info("用户已注销")
	s.notify(AuthEvent{SignedIn: false})
	return nil
}

// Subscribe 订阅认证状态变更，返回取消函数。
// 回调在锁外执行，监听器可以在回调里取消自己的订阅。
func (s *SessionService) Subscribe(listener func(AuthEvent)) func() {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.nextID
	s.nextID++
	s.listeners[id] = listener

	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.listeners, id)
	}
}

// notify 先在锁内拷出监听器快照，再在锁外逐个调用，
// 取消订阅需要写锁，回调里取消自己不会卡死分发。
func (s *SessionService) notify(event AuthEvent) {
	s.mu.RLock()
	listeners := make([]func(AuthEvent), 0, len(s.listeners))
	for _, listener := range s.listeners {
		listeners = append(listeners, listener)
	}
	s.mu.RUnlock()

	for _, listener := range listeners {
		listener(event)
	}
}
