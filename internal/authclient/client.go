package authclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Client 是托管认证服务的 HTTP 客户端。凭证校验、密码哈希和
// 会话签发都发生在服务端，这里只做请求转发。
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

func New(baseURL, apiKey string) *Client {
	return &Client{
		baseURL: baseURL,
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// User 认证服务返回的用户身份
type User struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

// Session 登录成功后返回的会话
type Session struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int    `json:"expires_in"`
	User        User   `json:"user"`
}

// SignUp 注册新用户，用户名随注册元数据一并传给认证服务，
// 由服务端在 profiles 表创建对应的资料行
func (c *Client) SignUp(ctx context.Context, email, password, username string) error {
	body := map[string]interface{}{
		"email":    email,
		"password": password,
		"data": map[string]string{
			"username": username,
		},
	}

	var user User
	if err := c.post(ctx, "/signup", "", body, &user); err != nil {
		return err
	}
	if user.ID == "" {
		return fmt.Errorf("认证服务未返回用户")
	}
	return nil
}

// SignIn 用邮箱和密码换取会话
func (c *Client) SignIn(ctx context.Context, email, password string) (*Session, error) {
	body := map[string]string{
		"email":    email,
		"password": password,
	}

	var session Session
	if err := c.post(ctx, "/token?grant_type=password", "", body, &session); err != nil {
		return nil, err
	}
	return &session, nil
}

// SignOut 注销会话，令牌在服务端失效
func (c *Client) SignOut(ctx context.Context, accessToken string) error {
	return c.post(ctx, "/logout", accessToken, nil, nil)
}

func (c *Client) post(ctx context.Context, path, accessToken string, body, out interface{}) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("apikey", c.apiKey)
	if accessToken != "" {
		req.Header.Set("Authorization", "Bearer "+accessToken)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		var remoteErr struct {
			Msg         string `json:"msg"`
			Description string `json:"error_description"`
		}
		data, _ := io.ReadAll(resp.Body)
		if err := json.Unmarshal(data, &remoteErr); err == nil {
			if remoteErr.Msg != "" {
				return fmt.Errorf("认证服务返回错误: %s", remoteErr.Msg)
			}
			if remoteErr.Description != "" {
				return fmt.Errorf("认证服务返回错误: %s", remoteErr.Description)
			}
		}
		return fmt.Errorf("认证服务返回状态码 %d", resp.StatusCode)
	}

	if out != nil {
		return json.NewDecoder(resp.Body).Decode(out)
	}
	return nil
}
