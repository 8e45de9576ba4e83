package util

import (
	"errors"

	"github.com/ksk584/anonymous-social-media/config"

	"github.com/dgrijalva/jwt-go"
)

// ValidateToken 校验认证服务签发的访问令牌，返回其中的用户ID。
// 令牌由托管认证服务用共享密钥以 HS256 签发，sub 声明携带用户的 uuid。
func ValidateToken(tokenString string) (string, error) {
	if tokenString == "" {
		return "", errors.New("令牌为空")
	}

	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("不支持的签名算法")
		}
		return []byte(config.AppConfig.JWTSecret), nil
	})

	if err != nil {
		return "", err
	}

	if claims, ok := token.Claims.(jwt.MapClaims); ok && token.Valid {
		sub, ok := claims["sub"].(string)
		if !ok || sub == "" {
			return "", errors.New("无效的用户ID")
		}
		return sub, nil
	}

	return "", errors.New("无效的令牌")
}
