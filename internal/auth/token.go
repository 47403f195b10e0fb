package auth

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

// 写入 gin 上下文的键
const (
	ContextUserID   = "user_id"
	ContextUserName = "username"
	ContextOfficeID = "office_id"
)

// 未启用认证时使用的请求头
const (
	HeaderUserID   = "X-User-ID"
	HeaderUserName = "X-User-Name"
	HeaderOfficeID = "X-Office-ID"
)

// Claims 令牌声明,由上游身份服务签发
type Claims struct {
	Name     string `json:"name"`
	OfficeID string `json:"office_id"`
	jwt.RegisteredClaims
}

// TokenValidator HS256 令牌校验器
type TokenValidator struct {
	secret []byte
	issuer string
}

// NewTokenValidator 创建令牌校验器,issuer 为空时不校验签发方
func NewTokenValidator(secret, issuer string) *TokenValidator {
	return &TokenValidator{
		secret: []byte(secret),
		issuer: issuer,
	}
}

// GenerateToken 签发令牌,用于开发环境和测试
func (v *TokenValidator) GenerateToken(userID, name, officeID string, ttl time.Duration) (string, time.Time, error) {
	now := time.Now()
	expiresAt := now.Add(ttl)
	claims := Claims{
		Name:     name,
		OfficeID: officeID,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			Issuer:    v.issuer,
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(v.secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, expiresAt, nil
}

// ValidateToken 校验签名和过期时间,返回声明
func (v *TokenValidator) ValidateToken(tokenString string) (*Claims, error) {
	opts := []jwt.ParserOption{jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()})}
	if v.issuer != "" {
		opts = append(opts, jwt.WithIssuer(v.issuer))
	}

	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		return v.secret, nil
	}, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to validate token: %w", err)
	}
	if !token.Valid {
		return nil, errors.New("invalid token")
	}
	if claims.Subject == "" {
		return nil, errors.New("missing subject claim")
	}
	if claims.OfficeID == "" {
		return nil, errors.New("missing office_id claim")
	}
	return claims, nil
}

// AuthMiddleware JWT 认证中间件
func AuthMiddleware(validator *TokenValidator) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			c.JSON(http.StatusUnauthorized, gin.H{
				"code":    401,
				"message": "missing authorization header",
			})
			c.Abort()
			return
		}

		// 移除 "Bearer " 前缀
		parts := strings.SplitN(header, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" {
			c.JSON(http.StatusUnauthorized, gin.H{
				"code":    401,
				"message": "invalid authorization header format",
			})
			c.Abort()
			return
		}

		claims, err := validator.ValidateToken(parts[1])
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{
				"code":    401,
				"message": "invalid token",
				"detail":  err.Error(),
			})
			c.Abort()
			return
		}

		// 将用户信息存储到上下文
		c.Set(ContextUserID, claims.Subject)
		c.Set(ContextUserName, claims.Name)
		c.Set(ContextOfficeID, claims.OfficeID)

		c.Next()
	}
}

// HeaderIdentityMiddleware 未启用认证时从请求头读取身份,只用于开发环境
func HeaderIdentityMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if v := c.GetHeader(HeaderUserID); v != "" {
			c.Set(ContextUserID, v)
		}
		if v := c.GetHeader(HeaderUserName); v != "" {
			c.Set(ContextUserName, v)
		}
		if v := c.GetHeader(HeaderOfficeID); v != "" {
			c.Set(ContextOfficeID, v)
		}
		c.Next()
	}
}
