package auth

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/ksk584/anonymous-social-media/internal/authclient"
	"github.com/ksk584/anonymous-social-media/internal/util"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	util.InitLogger("error")
	os.Exit(m.Run())
}

// MockSessionManager 是 SessionManager 接口的模拟实现
type MockSessionManager struct {
	mock.Mock
}

func (m *MockSessionManager) SignUp(ctx context.Context, email, password, username string) error {
	args := m.Called(ctx, email, password, username)
	return args.Error(0)
}

func (m *MockSessionManager) SignIn(ctx context.Context, email, password string) (*authclient.Session, error) {
	args := m.Called(ctx, email, password)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*authclient.Session), args.Error(1)
}

func (m *MockSessionManager) SignOut(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func setupRouter(session SessionManager) *gin.Engine {
	handler := NewAuthHandler(session)
	r := gin.New()
	r.POST("/api/auth/signup", handler.Signup)
	r.POST("/api/auth/login", handler.Login)
	r.POST("/api/auth/logout", handler.Logout)
	return r
}

func postJSON(r *gin.Engine, path string, body interface{}) *httptest.ResponseRecorder {
	data, _ := json.Marshal(body)
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(data))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

// TestSignupSuccess 注册成功返回200和确认消息
func TestSignupSuccess(t *testing.T) {
	session := new(MockSessionManager)
	session.On("SignUp", mock.Anything, "a@b.com", "secret", "alice").Return(nil)
	r := setupRouter(session)

	w := postJSON(r, "/api/auth/signup", gin.H{
		"email":    "a@b.com",
		"password": "secret",
		"username": "alice",
	})

	assert.Equal(t, http.StatusOK, w.Code)
	var resp map[string]string
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "注册成功", resp["message"])
	session.AssertExpectations(t)
}

// TestSignupMissingFields 缺少任一字段返回400，不触达下游
func TestSignupMissingFields(t *testing.T) {
	cases := []gin.H{
		{"password": "secret", "username": "alice"},
		{"email": "a@b.com", "username": "alice"},
		{"email": "a@b.com", "password": "secret"},
	}

	for _, body := range cases {
		session := new(MockSessionManager)
		r := setupRouter(session)

		w := postJSON(r, "/api/auth/signup", body)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		var resp map[string]string
		assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.NotEmpty(t, resp["error"])
		session.AssertNotCalled(t, "SignUp", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	}
}

// TestSignupDownstreamFailure 下游失败映射为500
func TestSignupDownstreamFailure(t *testing.T) {
	session := new(MockSessionManager)
	session.On("SignUp", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(errors.New("service unavailable"))
	r := setupRouter(session)

	w := postJSON(r, "/api/auth/signup", gin.H{
		"email":    "a@b.com",
		"password": "secret",
		"username": "alice",
	})

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	var resp map[string]string
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "注册失败", resp["error"])
}

// TestLoginSuccess 登录成功返回访问令牌
func TestLoginSuccess(t *testing.T) {
	session := new(MockSessionManager)
	session.On("SignIn", mock.Anything, "a@b.com", "secret").Return(&authclient.Session{
		AccessToken: "tok-1",
		User:        authclient.User{ID: "u1"},
	}, nil)
	r := setupRouter(session)

	w := postJSON(r, "/api/auth/login", gin.H{"email": "a@b.com", "password": "secret"})

	assert.Equal(t, http.StatusOK, w.Code)
	var resp map[string]string
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "登录成功", resp["message"])
	assert.Equal(t, "tok-1", resp["access_token"])
}

// TestLoginMissingFields 缺少字段返回400
func TestLoginMissingFields(t *testing.T) {
	session := new(MockSessionManager)
	r := setupRouter(session)

	w := postJSON(r, "/api/auth/login", gin.H{"email": "a@b.com"})

	assert.Equal(t, http.StatusBadRequest, w.Code)
	session.AssertNotCalled(t, "SignIn", mock.Anything, mock.Anything, mock.Anything)
}

// TestLoginFailure 登录失败返回500
func TestLoginFailure(t *testing.T) {
	session := new(MockSessionManager)
	session.On("SignIn", mock.Anything, mock.Anything, mock.Anything).
		Return(nil, errors.New("invalid credentials"))
	r := setupRouter(session)

	w := postJSON(r, "/api/auth/login", gin.H{"email": "a@b.com", "password": "wrong"})

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	var resp map[string]string
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "登录失败", resp["error"])
}

// TestLogout 注销成功返回确认消息
func TestLogout(t *testing.T) {
	session := new(MockSessionManager)
	session.On("SignOut", mock.Anything).Return(nil)
	r := setupRouter(session)

	w := postJSON(r, "/api/auth/logout", nil)

	assert.Equal(t, http.StatusOK, w.Code)
	var resp map[string]string
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "已成功注销", resp["message"])
}
