package ctxdata

import (
	"context"
	"encoding/json"
	"strconv"
)

// 定义上下文 key 类型，避免冲突
type contextKey string

const (
	// CtxKeyUserID 用户ID在上下文中的key
	CtxKeyUserID contextKey = "userId"
	// CtxKeyCommunityID 用户所属社区ID
	CtxKeyCommunityID contextKey = "communityId"
)

// GetUserIDFromCtx 从上下文中获取用户ID
// go-zero 会将 JWT payload 中的字段注入到 context 中
func GetUserIDFromCtx(ctx context.Context) uint64 {
	if val := ctx.Value(CtxKeyUserID); val != nil {
		return parseToUint64(val)
	}

	// 兼容 go-zero 的 JWT 解析方式（字符串 key）
	if val := ctx.Value("userId"); val != nil {
		return parseToUint64(val)
	}

	return 0
}

// GetCommunityIDFromCtx 从上下文中获取社区ID，未登录或未绑定社区时返回 0
func GetCommunityIDFromCtx(ctx context.Context) uint64 {
	if val := ctx.Value(CtxKeyCommunityID); val != nil {
		return parseToUint64(val)
	}
	if val := ctx.Value("communityId"); val != nil {
		return parseToUint64(val)
	}
	return 0
}

// WithUserID 将用户ID注入上下文
func WithUserID(ctx context.Context, userID uint64) context.Context {
	return context.WithValue(ctx, CtxKeyUserID, userID)
}

// WithCommunityID 将社区ID注入上下文
func WithCommunityID(ctx context.Context, communityID uint64) context.Context {
	return context.WithValue(ctx, CtxKeyCommunityID, communityID)
}

// parseToUint64 将各种类型转换为 uint64
func parseToUint64(val interface{}) uint64 {
	switch v := val.(type) {
	case uint64:
		return v
	case int64:
		if v > 0 {
			return uint64(v)
		}
	case int:
		if v > 0 {
			return uint64(v)
		}
	case float64:
		if v > 0 {
			return uint64(v)
		}
	case json.Number:
		if i, err := strconv.ParseUint(v.String(), 10, 64); err == nil {
			return i
		}
	case string:
		if i, err := strconv.ParseUint(v, 10, 64); err == nil {
			return i
		}
	}
	return 0
}
