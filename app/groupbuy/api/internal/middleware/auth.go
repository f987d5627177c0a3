package middleware

import (
	"context"
	"net/http"
	"strings"

	"groupbuy-platform/common/ctxdata"
	"groupbuy-platform/common/errorx"
	"groupbuy-platform/common/response"
	"groupbuy-platform/common/utils/jwt"
)

// AuthMiddleware JWT 认证中间件
type AuthMiddleware struct {
	accessSecret string
}

// NewAuthMiddleware 创建认证中间件
func NewAuthMiddleware(accessSecret string) *AuthMiddleware {
	return &AuthMiddleware{accessSecret: accessSecret}
}

// Handle 处理认证逻辑
func (m *AuthMiddleware) Handle(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		// 1. 获取 Authorization 头
		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			response.FailWithCode(w, errorx.CodeLoginRequired)
			return
		}

		// 2. 解析 Bearer Token
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" {
			response.FailWithCode(w, errorx.CodeTokenInvalid)
			return
		}

		// 3. 解析 Token
		claims, err := jwt.ParseToken(parts[1], m.accessSecret)
		if err != nil {
			if jwt.IsTokenExpired(err) {
				response.FailWithCode(w, errorx.CodeTokenExpired)
				return
			}
			response.FailWithCode(w, errorx.CodeTokenInvalid)
			return
		}

		// 4. 将用户信息注入上下文
		ctx := r.Context()
		ctx = ctxdata.WithUserID(ctx, claims.UserId)
		ctx = ctxdata.WithCommunityID(ctx, claims.CommunityId)

		next.ServeHTTP(w, r.WithContext(ctx))
	}
}

// CallbackAuthMiddleware 支付回调共享密钥校验
type CallbackAuthMiddleware struct {
	token string
}

func NewCallbackAuthMiddleware(token string) *CallbackAuthMiddleware {
	return &CallbackAuthMiddleware{token: token}
}

func (m *CallbackAuthMiddleware) Handle(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if m.token != "" && r.Header.Get("X-Callback-Token") != m.token {
			response.FailWithCode(w, errorx.CodeUnauthorized)
			return
		}
		next.ServeHTTP(w, r.WithContext(context.WithoutCancel(r.Context())))
	}
}
