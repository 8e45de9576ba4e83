package service

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/ksk584/anonymous-social-media/internal/model"
	"github.com/ksk584/anonymous-social-media/internal/util"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

func TestMain(m *testing.M) {
	util.InitLogger("error")
	os.Exit(m.Run())
}

// MockPostRepository 是 PostRepository 接口的模拟实现
type MockPostRepository struct {
	mock.Mock
}

func (m *MockPostRepository) Create(ctx context.Context, post *model.Post) error {
	args := m.Called(ctx, post)
	return args.Error(0)
}

func (m *MockPostRepository) FindByID(ctx context.Context, id string) (*model.Post, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Post), args.Error(1)
}

func (m *MockPostRepository) FindAll(ctx context.Context) ([]*model.Post, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.Post), args.Error(1)
}

func (m *MockPostRepository) FindByIDs(ctx context.Context, ids []string) ([]*model.Post, error) {
	args := m.Called(ctx, ids)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.Post), args.Error(1)
}

func (m *MockPostRepository) Delete(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// MockProfileRepository 是 ProfileRepository 接口的模拟实现
type MockProfileRepository struct {
	mock.Mock
}

func (m *MockProfileRepository) FindByID(ctx context.Context, id string) (*model.Profile, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Profile), args.Error(1)
}

func (m *MockProfileRepository) FindByIDs(ctx context.Context, ids []string) ([]*model.Profile, error) {
	args := m.Called(ctx, ids)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.Profile), args.Error(1)
}

// fakeChangeFeed 捕获订阅回调，允许测试手动触发插入事件
type fakeChangeFeed struct {
	postHandler    func(*model.Post)
	commentHandler func(*model.Comment)
	commentPostID  string
	unsubscribed   bool
}

func (f *fakeChangeFeed) SubscribePosts(handler func(*model.Post)) func() {
	f.postHandler = handler
	return func() {
		f.unsubscribed = true
		f.postHandler = nil
	}
}

func (f *fakeChangeFeed) SubscribeComments(postID string, handler func(*model.Comment)) func() {
	f.commentPostID = postID
	f.commentHandler = handler
	return func() {
		f.unsubscribed = true
		f.commentHandler = nil
	}
}

// TestLoadEnrichesAuthors 测试整批拉取后作者名被正确补全
func TestLoadEnrichesAuthors(t *testing.T) {
	postRepo := new(MockPostRepository)
	profileRepo := new(MockProfileRepository)
	svc := NewFeedService(postRepo, profileRepo, &fakeChangeFeed{})

	posts := []*model.Post{
		{ID: "p1", UserID: "u1", Content: "第一条"},
		{ID: "p2", UserID: "u2", Content: "第二条"},
		{ID: "p3", UserID: "u1", Content: "第三条"},
	}
	postRepo.On("FindAll", mock.Anything).Return(posts, nil)
	// u2 的资料缺失，帖子仍然保留
	profileRepo.On("FindByIDs", mock.Anything, []string{"u1", "u2"}).
		Return([]*model.Profile{{ID: "u1", Username: "alice"}}, nil)

	err := svc.Load(context.Background())
	assert.NoError(t, err)

	cached := svc.Posts()
	assert.Len(t, cached, 3)
	assert.Equal(t, "alice", cached[0].AuthorName)
	assert.Equal(t, "", cached[1].AuthorName)
	assert.Equal(t, "alice", cached[2].AuthorName)
	postRepo.AssertExpectations(t)
	profileRepo.AssertExpectations(t)
}

// TestLoadEmptyStoreIdempotent 空存储上重复加载不报错且缓存为空
func TestLoadEmptyStoreIdempotent(t *testing.T) {
	postRepo := new(MockPostRepository)
	profileRepo := new(MockProfileRepository)
	svc := NewFeedService(postRepo, profileRepo, &fakeChangeFeed{})

	postRepo.On("FindAll", mock.Anything).Return(nil, nil)

	for i := 0; i < 2; i++ {
		err := svc.Load(context.Background())
		assert.NoError(t, err)
		assert.Empty(t, svc.Posts())
	}
	profileRepo.AssertNotCalled(t, "FindByIDs", mock.Anything, mock.Anything)
}

// TestLoadFailureLeavesCacheEmpty 拉取失败时缓存清空且不重试
func TestLoadFailureLeavesCacheEmpty(t *testing.T) {
	postRepo := new(MockPostRepository)
	profileRepo := new(MockProfileRepository)
	svc := NewFeedService(postRepo, profileRepo, &fakeChangeFeed{})

	postRepo.On("FindAll", mock.Anything).Return(nil, errors.New("connection refused")).Once()

	err := svc.Load(context.Background())
	assert.Error(t, err)
	assert.Empty(t, svc.Posts())
	postRepo.AssertNumberOfCalls(t, "FindAll", 1)
}

// TestSubmit 发帖成功后新记录出现在缓存队头
func TestSubmit(t *testing.T) {
	postRepo := new(MockPostRepository)
	profileRepo := new(MockProfileRepository)
	svc := NewFeedService(postRepo, profileRepo, &fakeChangeFeed{})

	postRepo.On("Create", mock.Anything, mock.AnythingOfType("*model.Post")).
		Run(func(args mock.Arguments) {
			post := args.Get(1).(*model.Post)
			post.ID = "p-new"
			post.CreatedAt = time.Now()
		}).Return(nil)
	profileRepo.On("FindByID", mock.Anything, "U").
		Return(&model.Profile{ID: "U", Username: "bob"}, nil)

	post, err := svc.Submit(context.Background(), "hello", "", "U")
	assert.NoError(t, err)
	assert.Equal(t, "hello", post.Content)
	assert.Nil(t, post.ImageURL)
	assert.Equal(t, "U", post.UserID)
	assert.Equal(t, "bob", post.AuthorName)

	cached := svc.Posts()
	assert.Len(t, cached, 1)
	assert.Equal(t, "p-new", cached[0].ID)
	postRepo.AssertExpectations(t)
}

// TestSubmitValidation 空内容或未登录时不发出任何远端请求
func TestSubmitValidation(t *testing.T) {
	postRepo := new(MockPostRepository)
	profileRepo := new(MockProfileRepository)
	svc := NewFeedService(postRepo, profileRepo, &fakeChangeFeed{})

	_, err := svc.Submit(context.Background(), "   \t  ", "", "U")
	assert.Error(t, err)

	_, err = svc.Submit(context.Background(), "内容正常", "", "")
	assert.Error(t, err)

	assert.Empty(t, svc.Posts())
	postRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	profileRepo.AssertNotCalled(t, "FindByID", mock.Anything, mock.Anything)
}

// TestInsertEventPrepends 实时事件并入缓存队头
func TestInsertEventPrepends(t *testing.T) {
	postRepo := new(MockPostRepository)
	profileRepo := new(MockProfileRepository)
	feed := &fakeChangeFeed{}
	svc := NewFeedService(postRepo, profileRepo, feed)

	postRepo.On("FindAll", mock.Anything).
		Return([]*model.Post{{ID: "p1", UserID: "u1", Content: "旧帖"}}, nil)
	profileRepo.On("FindByIDs", mock.Anything, mock.Anything).
		Return([]*model.Profile{{ID: "u1", Username: "alice"}}, nil)
	profileRepo.On("FindByID", mock.Anything, "u2").
		Return(&model.Profile{ID: "u2", Username: "carol"}, nil)

	assert.NoError(t, svc.Load(context.Background()))
	svc.Start()

	feed.postHandler(&model.Post{ID: "p2", UserID: "u2", Content: "新帖"})

	cached := svc.Posts()
	assert.Len(t, cached, 2)
	assert.Equal(t, "p2", cached[0].ID)
	assert.Equal(t, "carol", cached[0].AuthorName)
}

// TestDuplicateInsertEventsDeduped 同一ID的重复事件不产生重复条目
func TestDuplicateInsertEventsDeduped(t *testing.T) {
	postRepo := new(MockPostRepository)
	profileRepo := new(MockProfileRepository)
	feed := &fakeChangeFeed{}
	svc := NewFeedService(postRepo, profileRepo, feed)

	profileRepo.On("FindByID", mock.Anything, "u1").
		Return(&model.Profile{ID: "u1", Username: "alice"}, nil)

	svc.Start()
	event := &model.Post{ID: "p1", UserID: "u1", Content: "同一条"}
	feed.postHandler(event)
	feed.postHandler(event)

	assert.Len(t, svc.Posts(), 1)
}

// TestStopReleasesSubscription 停止后订阅被释放
func TestStopReleasesSubscription(t *testing.T) {
	feed := &fakeChangeFeed{}
	svc := NewFeedService(new(MockPostRepository), new(MockProfileRepository), feed)

	svc.Start()
	assert.NotNil(t, feed.postHandler)

	svc.Stop()
	assert.True(t, feed.unsubscribed)
	assert.Nil(t, feed.postHandler)
}

// TestDeletePostOwnerOnly 只有作者本人能删除帖子
func TestDeletePostOwnerOnly(t *testing.T) {
	postRepo := new(MockPostRepository)
	profileRepo := new(MockProfileRepository)
	svc := NewFeedService(postRepo, profileRepo, &fakeChangeFeed{})

	postRepo.On("FindByID", mock.Anything, "p1").
		Return(&model.Post{ID: "p1", UserID: "u1"}, nil)

	err := svc.Delete(context.Background(), "p1", "u2")
	assert.Error(t, err)
	postRepo.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything)

	postRepo.On("Delete", mock.Anything, "p1").Return(nil)
	err = svc.Delete(context.Background(), "p1", "u1")
	assert.NoError(t, err)
	postRepo.AssertCalled(t, "Delete", mock.Anything, "p1")
}
