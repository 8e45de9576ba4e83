package auth

import (
	"context"
	"net/http"

	"github.com/ksk584/anonymous-social-media/internal/authclient"
	"github.com/ksk584/anonymous-social-media/internal/util"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// SessionManager 定义了认证处理器依赖的会话上下文契约
type SessionManager interface {
	SignUp(ctx context.Context, email, password, username string) error
	SignIn(ctx context.Context, email, password string) (*authclient.Session, error)
	SignOut(ctx context.Context) error
}

// AuthHandler 处理与认证相关的HTTP请求，全部透传给托管认证服务
type AuthHandler struct {
	session SessionManager
}

// NewAuthHandler 创建一个新的 AuthHandler 实例
func NewAuthHandler(session SessionManager) *AuthHandler {
	return &AuthHandler{session}
}

// Signup 处理注册请求。缺少字段返回400，下游失败返回500。
func (h *AuthHandler) Signup(c *gin.Context) {
	var signupData struct {
		Email    string `json:"email"`
		Password string `json:"password"`
		Username string `json:"username"`
	}

	if err := c.ShouldBindJSON(&signupData); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "无效的请求数据"})
		return
	}

	if signupData.Email == "" || signupData.Password == "" || signupData.Username == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "邮箱、密码和用户名都是必填的"})
		return
	}

	if err := h.session.SignUp(c.Request.Context(), signupData.Email, signupData.Password, signupData.Username); err != nil {
		util.Logger.Error("注册失败", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "注册失败"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "注册成功"})
}

// Login 处理登录请求，响应契约与注册一致
func (h *AuthHandler) Login(c *gin.Context) {
	var loginData struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}

	if err := c.ShouldBindJSON(&loginData); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "无效的请求数据"})
		return
	}

	if loginData.Email == "" || loginData.Password == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "邮箱和密码都是必填的"})
		return
	}

	session, err := h.session.SignIn(c.Request.Context(), loginData.Email, loginData.Password)
	if err != nil {
		util.Logger.Error("登录失败", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "登录失败"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":      "登录成功",
		"access_token": session.AccessToken,
	})
}

// Logout 处理注销请求
func (h *AuthHandler) Logout(c *gin.Context) {
	if err := h.session.SignOut(c.Request.Context()); err != nil {
		util.Logger.Error("注销失败", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "注销失败"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "已成功注销"})
}
