// Package cache 提供通用缓存工具
//
// 设计原则：
//   - Key 命名规范：{业务}:{模块}:{标识}，如 groupbuy:activity:123
//   - 随机 TTL 防止缓存雪崩
//   - 只缓存只读模板数据（拼团活动），团的人数与状态永远以数据库为准
package cache

import (
	"fmt"
	"time"

	"github.com/zeromicro/go-zero/core/mathx"
)

// ==================== 默认配置 ====================

const (
	// DefaultTTL 默认缓存过期时间（5 分钟）
	DefaultTTL = 5 * time.Minute

	// NullTTL 空值缓存过期时间（防穿透）
	NullTTL = 1 * time.Minute

	// DefaultJitter 默认 TTL 抖动系数（±10%）
	DefaultJitter = 0.1

	// NullPlaceholder 空值占位符
	NullPlaceholder = "null"
)

// unstable 随机数生成器，用于 TTL 抖动
var unstable = mathx.NewUnstable(DefaultJitter)

// ==================== TTL 工具函数 ====================

// RandomTTL 生成带抖动的 TTL，防止缓存雪崩
//
//	RandomTTL(5 * time.Minute) => 4.5min ~ 5.5min
func RandomTTL(base time.Duration) time.Duration {
	return time.Duration(unstable.AroundDuration(base))
}

// RandomTTLSeconds 返回带抖动的 TTL（秒数），用于 Redis SETEX
func RandomTTLSeconds(base time.Duration) int {
	return int(RandomTTL(base).Seconds())
}

// ==================== Key 生成函数 ====================

// GroupBuyActivityKey 拼团活动模板缓存 Key
//
// 格式：groupbuy:activity:{id}
// TTL：5min ± 10%
func GroupBuyActivityKey(id uint64) string {
	return fmt.Sprintf("groupbuy:activity:%d", id)
}

// JoinLimitKeyPrefix 参团限流 Key 前缀，完整格式：groupbuy:limit:join:{user_id}
const JoinLimitKeyPrefix = "groupbuy:limit:join:"
