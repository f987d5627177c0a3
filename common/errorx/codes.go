/**
 * @projectName: GroupBuy
 * @package: errorx
 * @className: codes
 * @description: 统一错误码定义
 * @version: 1.0
 */

package errorx

// 错误码规范：
// 0       - 成功
// 1xxx    - 通用错误
// 2xxx    - 认证错误
// 3xxx    - 拼团服务错误
//   30xx  - 参数校验
//   31xx  - 业务冲突（加锁后判定，无状态变更）
//   32xx  - 资源不存在
//   33xx  - 依赖/并发
//   39xx  - 数据完整性

const (
	CodeSuccess            = 0    // 成功
	CodeInternalError      = 1000 // 内部服务器错误
	CodeInvalidParams      = 1001 // 参数校验失败
	CodeUnauthorized       = 1002 // 未授权访问
	CodeForbidden          = 1003 // 禁止访问
	CodeNotFound           = 1004 // 资源不存在
	CodeTooManyRequests    = 1005 // 请求过于频繁
	CodeServiceUnavailable = 1006 // 服务暂不可用
	CodeTimeout            = 1007 // 请求超时
	CodeDBError            = 1008 // 数据库错误
	CodeCacheError         = 1009 // 缓存错误
	CodeRPCError           = 1010 // RPC调用失败

	// 认证 2001-2003
	CodeLoginRequired = 2001 // 需要登录
	CodeTokenInvalid  = 2002 // Token无效
	CodeTokenExpired  = 2003 // Token已过期

	// 拼团服务 - 参数校验 3001-3020
	CodeInvalidMemberCount  = 3001 // 成团人数不在允许范围内
	CodeAddressInvalid      = 3002 // 收货地址无效
	CodeInvalidDuration     = 3003 // 拼团时长不在允许范围内
	CodeInvalidQuantity     = 3004 // 购买数量无效
	CodeInvalidActivityTime = 3005 // 活动时间无效
	CodeInvalidGroupPrice   = 3006 // 拼团价无效

	// 拼团服务 - 业务冲突 3101-3120
	CodeTeamFull          = 3101 // 团已满员
	CodeTeamClosed        = 3102 // 团已结束
	CodeDuplicateJoin     = 3103 // 重复参团
	CodeNotLeader         = 3104 // 非团长
	CodeActivityNotActive = 3105 // 拼团活动未进行中
	CodeNotTeamLeader     = 3106 // 非本团团长
	CodeMemberCannotLeave = 3107 // 当前状态不允许退团
	CodeTeamNotFailed     = 3108 // 团未失败，无需对账
	CodeActivityInUse     = 3109 // 活动下仍有拼团中的团

	// 拼团服务 - 资源不存在 3201-3220
	CodeTeamNotFound     = 3201 // 团不存在
	CodeMemberNotFound   = 3202 // 团成员不存在
	CodeActivityNotFound = 3203 // 拼团活动不存在

	// 拼团服务 - 依赖/并发 3301-3320
	CodeLockTimeout  = 3301 // 行锁等待超时，可重试
	CodeRefundFailed = 3302 // 退款失败，待重试

	// 拼团服务 - 数据完整性 3901
	CodeIntegrityViolation = 3901 // 数据状态异常
)

// codeMessages 错误码对应的默认消息
var codeMessages = map[int]string{
	CodeSuccess:            "success",
	CodeInternalError:      "内部服务器错误",
	CodeInvalidParams:      "参数校验失败",
	CodeUnauthorized:       "未授权访问",
	CodeForbidden:          "禁止访问",
	CodeNotFound:           "资源不存在",
	CodeTooManyRequests:    "请求过于频繁，请稍后再试",
	CodeServiceUnavailable: "服务暂不可用",
	CodeTimeout:            "请求超时",
	CodeDBError:            "数据库错误",
	CodeCacheError:         "缓存错误",
	CodeRPCError:           "服务调用失败",

	CodeLoginRequired: "请先登录",
	CodeTokenInvalid:  "登录状态无效",
	CodeTokenExpired:  "登录已过期",

	CodeInvalidMemberCount:  "成团人数不在允许范围内",
	CodeAddressInvalid:      "收货地址无效",
	CodeInvalidDuration:     "拼团时长不在允许范围内",
	CodeInvalidQuantity:     "购买数量无效",
	CodeInvalidActivityTime: "活动开始时间必须早于结束时间",
	CodeInvalidGroupPrice:   "拼团价必须大于0",

	CodeTeamFull:          "该团已满员",
	CodeTeamClosed:        "该团已结束",
	CodeDuplicateJoin:     "您已参加该团，请勿重复参团",
	CodeNotLeader:         "仅团长可以发起拼团",
	CodeActivityNotActive: "拼团活动未在进行中",
	CodeNotTeamLeader:     "仅本团团长可以操作",
	CodeMemberCannotLeave: "当前状态不允许退团",
	CodeTeamNotFailed:     "该团未失败，无需对账",
	CodeActivityInUse:     "该活动下仍有拼团中的团，不能删除",

	CodeTeamNotFound:     "团不存在",
	CodeMemberNotFound:   "团成员不存在",
	CodeActivityNotFound: "拼团活动不存在",

	CodeLockTimeout:  "系统繁忙，请稍后重试",
	CodeRefundFailed: "退款处理失败，请稍后重试",

	CodeIntegrityViolation: "数据状态异常",
}

// GetMessage 根据错误码获取默认消息
func GetMessage(code int) string {
	if msg, ok := codeMessages[code]; ok {
		return msg
	}
	return "未知错误"
}

// IsValidCode 判断是否为有效的业务错误码
// 用于区分业务错误码和 gRPC 系统错误码
// 业务错误码应该返回给前端，系统错误码（如 Unknown=2）应该隐藏
func IsValidCode(code int) bool {
	_, exists := codeMessages[code]
	return exists
}

// IsRetryable 调用方可以原样重试的错误码
func IsRetryable(code int) bool {
	switch code {
	case CodeLockTimeout, CodeRefundFailed, CodeServiceUnavailable, CodeTimeout, CodeRPCError:
		return true
	}
	return false
}
