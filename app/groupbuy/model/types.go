package model

import (
	"errors"
	"strings"

	mysqlerr "github.com/go-sql-driver/mysql"
	"gorm.io/gorm"
)

// ==================== 拼团活动状态 ====================

const (
	ActivityStatusNotStarted int8 = 0 // 未开始
	ActivityStatusOngoing    int8 = 1 // 进行中
	ActivityStatusEnded      int8 = 2 // 已结束
	ActivityStatusAbnormal   int8 = 3 // 异常
)

// ==================== 团状态 ====================

const (
	TeamStatusForming   int8 = 0 // 拼团中
	TeamStatusSucceeded int8 = 1 // 已成团
	TeamStatusFailed    int8 = 2 // 已失败
)

// TeamStatusText 团状态文本映射
var TeamStatusText = map[int8]string{
	TeamStatusForming:   "拼团中",
	TeamStatusSucceeded: "已成团",
	TeamStatusFailed:    "已失败",
}

// ==================== 成员状态 ====================

const (
	MemberStatusUnpaid    int8 = 0 // 待支付
	MemberStatusPaid      int8 = 1 // 已支付
	MemberStatusSucceeded int8 = 2 // 已成团
	MemberStatusCancelled int8 = 3 // 已取消
)

// MemberStatusText 成员状态文本映射
var MemberStatusText = map[int8]string{
	MemberStatusUnpaid:    "待支付",
	MemberStatusPaid:      "已支付",
	MemberStatusSucceeded: "已成团",
	MemberStatusCancelled: "已取消",
}

// ==================== 数据库错误识别 ====================

// mysql 错误码
const (
	mysqlErrDuplicateEntry = 1062
	mysqlErrLockWaitTimout = 1205
	mysqlErrDeadlock       = 1213
)

// IsDuplicateKeyErr 判断是否为唯一键冲突
func IsDuplicateKeyErr(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var mysqlErr *mysqlerr.MySQLError
	if errors.As(err, &mysqlErr) {
		return mysqlErr.Number == mysqlErrDuplicateEntry
	}
	// sqlite（测试环境）未开启错误翻译时的兜底
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}

// IsLockTimeoutErr 判断是否为行锁等待超时或死锁回滚
// 两种情况调用方都可以直接重试
func IsLockTimeoutErr(err error) bool {
	var mysqlErr *mysqlerr.MySQLError
	if errors.As(err, &mysqlErr) {
		return mysqlErr.Number == mysqlErrLockWaitTimout || mysqlErr.Number == mysqlErrDeadlock
	}
	return false
}
