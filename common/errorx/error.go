package errorx

import (
	"fmt"

	"github.com/pkg/errors"
	"google.golang.org/grpc/status"
)

// BizError 业务错误，实现 error 接口
type BizError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// Error 实现 error 接口
func (e *BizError) Error() string {
	return fmt.Sprintf("BizError: code=%d, message=%s", e.Code, e.Message)
}

// GetCode 获取错误码
func (e *BizError) GetCode() int {
	return e.Code
}

// GetMessage 获取错误消息
func (e *BizError) GetMessage() string {
	return e.Message
}

// New 创建业务错误（使用默认消息）
func New(code int) *BizError {
	return &BizError{
		Code:    code,
		Message: GetMessage(code),
	}
}

// NewWithMessage 创建业务错误（自定义消息）
func NewWithMessage(code int, message string) *BizError {
	return &BizError{
		Code:    code,
		Message: message,
	}
}

// Wrap 包装错误，添加上下文信息
func Wrap(code int, err error) *BizError {
	if err == nil {
		return New(code)
	}
	return &BizError{
		Code:    code,
		Message: fmt.Sprintf("%s: %v", GetMessage(code), err),
	}
}

// Is 判断是否为特定错误码（支持 errors.Wrap 包装的错误）
func Is(err error, code int) bool {
	if err == nil {
		return false
	}
	var bizErr *BizError
	if errors.As(err, &bizErr) {
		return bizErr.Code == code
	}
	return false
}

// FromError 从 error 转换为 BizError
// 支持以下错误类型：
//  1. *BizError：直接返回
//  2. gRPC Status：从 RPC 返回的错误，解析 message 中的业务错误
//  3. 其他错误：返回内部错误（隐藏细节）
func FromError(err error) *BizError {
	if err == nil {
		return nil
	}

	// 获取原始错误（支持 errors.Wrap 包装的错误）
	causeErr := errors.Cause(err)

	// 1. 检查是否是本地 BizError
	var bizErr *BizError
	if errors.As(causeErr, &bizErr) {
		return bizErr
	}

	// 2. 检查是否是 gRPC Status（从 RPC 返回的错误）
	if gstatus, ok := status.FromError(causeErr); ok {
		message := gstatus.Message()
		grpcCode := int(gstatus.Code())

		// 尝试从 message 中解析业务错误码
		// go-zero 的 RPC 错误格式：message 中包含了业务错误信息
		// 格式可能是 "BizError: code=2201, message=认证记录不存在"
		// 或者直接是业务消息 "团不存在"
		var bizCode int
		var bizMsg string

		// 尝试解析 "BizError: code=xxx, message=xxx" 格式
		n, _ := fmt.Sscanf(message, "BizError: code=%d, message=", &bizCode)
		if n == 1 && IsValidCode(bizCode) {
			// 提取 message= 后面的内容
			prefix := fmt.Sprintf("BizError: code=%d, message=", bizCode)
			if len(message) > len(prefix) {
				bizMsg = message[len(prefix):]
			} else {
				bizMsg = GetMessage(bizCode)
			}
			return &BizError{
				Code:    bizCode,
				Message: bizMsg,
			}
		}

		// 如果 gRPC code 本身是业务错误码
		if IsValidCode(grpcCode) {
			return &BizError{
				Code:    grpcCode,
				Message: message,
			}
		}

		// gRPC 标准错误码，但 message 可能有用
		// 返回内部错误，但记录原始消息供调试
	}

	// 3. 其他错误：返回内部错误，不暴露细节
	return &BizError{
		Code:    CodeInternalError,
		Message: "内部服务器错误",
	}
}

// ============ 常用错误快捷方法 ============

// ErrInternalError 内部错误
func ErrInternalError() *BizError {
	return New(CodeInternalError)
}

// ErrInvalidParams 参数错误
func ErrInvalidParams(msg string) *BizError {
	if msg == "" {
		return New(CodeInvalidParams)
	}
	return NewWithMessage(CodeInvalidParams, msg)
}

// ErrUnauthorized 未授权
func ErrUnauthorized() *BizError {
	return New(CodeUnauthorized)
}

// ErrInvalidToken Token无效
func ErrInvalidToken() *BizError {
	return New(CodeTokenInvalid)
}

// NewDefaultError 创建默认业务错误（通常用于提示用户）
func NewDefaultError(msg string) *BizError {
	return NewWithMessage(CodeInvalidParams, msg)
}

// NewSystemError 创建系统错误
func NewSystemError(msg string) *BizError {
	return NewWithMessage(CodeInternalError, msg)
}

// ErrForbidden 禁止访问
func ErrForbidden() *BizError {
	return New(CodeForbidden)
}

// ErrNotFound 资源不存在
func ErrNotFound() *BizError {
	return New(CodeNotFound)
}

// ErrTooManyRequests 请求过于频繁
func ErrTooManyRequests() *BizError {
	return New(CodeTooManyRequests)
}

// ErrDBError 数据库错误
func ErrDBError(err error) *BizError {
	return Wrap(CodeDBError, err)
}

// ErrCacheError 缓存错误
func ErrCacheError(err error) *BizError {
	return Wrap(CodeCacheError, err)
}

// ErrRPCError RPC调用错误
func ErrRPCError(err error) *BizError {
	return Wrap(CodeRPCError, err)
}

// ============ 拼团相关错误 ============

// ErrInvalidMemberCount 成团人数不在允许范围内
func ErrInvalidMemberCount(min, max uint32) *BizError {
	return NewWithMessage(CodeInvalidMemberCount, fmt.Sprintf("成团人数需在%d-%d人之间", min, max))
}

// ErrAddressInvalid 收货地址无效
func ErrAddressInvalid() *BizError {
	return New(CodeAddressInvalid)
}

// ErrTeamFull 团已满员
func ErrTeamFull() *BizError {
	return New(CodeTeamFull)
}

// ErrTeamClosed 团已结束
func ErrTeamClosed() *BizError {
	return New(CodeTeamClosed)
}

// ErrDuplicateJoin 重复参团
func ErrDuplicateJoin() *BizError {
	return New(CodeDuplicateJoin)
}

// ErrNotLeader 非团长
func ErrNotLeader() *BizError {
	return New(CodeNotLeader)
}

// ErrActivityNotActive 拼团活动未进行中
func ErrActivityNotActive() *BizError {
	return New(CodeActivityNotActive)
}

// ErrTeamNotFound 团不存在
func ErrTeamNotFound() *BizError {
	return New(CodeTeamNotFound)
}

// ErrMemberNotFound 团成员不存在
func ErrMemberNotFound() *BizError {
	return New(CodeMemberNotFound)
}

// ErrActivityNotFound 拼团活动不存在
func ErrActivityNotFound() *BizError {
	return New(CodeActivityNotFound)
}

// ErrInvalidActivityTime 活动时间无效
func ErrInvalidActivityTime() *BizError {
	return New(CodeInvalidActivityTime)
}

// ErrInvalidGroupPrice 拼团价无效
func ErrInvalidGroupPrice() *BizError {
	return New(CodeInvalidGroupPrice)
}

// ErrActivityInUse 活动下仍有拼团中的团
func ErrActivityInUse() *BizError {
	return New(CodeActivityInUse)
}

// ErrLockTimeout 行锁等待超时
func ErrLockTimeout() *BizError {
	return New(CodeLockTimeout)
}

// ErrIntegrityViolation 数据状态异常（需要人工介入，禁止自动修正）
func ErrIntegrityViolation(detail string) *BizError {
	return NewWithMessage(CodeIntegrityViolation, fmt.Sprintf("%s: %s", GetMessage(CodeIntegrityViolation), detail))
}
