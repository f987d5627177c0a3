package response

import (
	"context"
	"net/http"

	"groupbuy-platform/common/errorx"

	"github.com/zeromicro/go-zero/core/logx"
	"github.com/zeromicro/go-zero/rest/httpx"
)

// Response 统一响应结构
type Response struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// PageData 分页数据结构
type PageData struct {
	List     interface{} `json:"list"`
	Total    int64       `json:"total"`
	Page     int         `json:"page"`
	PageSize int         `json:"pageSize"`
}

// Success 成功响应
func Success(w http.ResponseWriter, data interface{}) {
	httpx.OkJson(w, &Response{
		Code:    errorx.CodeSuccess,
		Message: "success",
		Data:    data,
	})
}

// SuccessCtx 成功响应（带 context，便于链路日志）
func SuccessCtx(ctx context.Context, w http.ResponseWriter, data interface{}) {
	httpx.OkJsonCtx(ctx, w, &Response{
		Code:    errorx.CodeSuccess,
		Message: "success",
		Data:    data,
	})
}

// SuccessWithPage 分页成功响应
func SuccessWithPage(w http.ResponseWriter, list interface{}, total int64, page, pageSize int) {
	httpx.OkJson(w, &Response{
		Code:    errorx.CodeSuccess,
		Message: "success",
		Data: PageData{
			List:     list,
			Total:    total,
			Page:     page,
			PageSize: pageSize,
		},
	})
}

// Fail 失败响应（使用 BizError）
func Fail(w http.ResponseWriter, err error) {
	bizErr := errorx.FromError(err)
	httpx.WriteJson(w, getHttpStatus(bizErr.Code), &Response{
		Code:    bizErr.Code,
		Message: bizErr.Message,
	})
}

// FailWithCode 失败响应（指定错误码）
func FailWithCode(w http.ResponseWriter, code int) {
	httpx.WriteJson(w, getHttpStatus(code), &Response{
		Code:    code,
		Message: errorx.GetMessage(code),
	})
}

// getHttpStatus 根据业务错误码映射 HTTP 状态码
func getHttpStatus(code int) int {
	switch code {
	case errorx.CodeSuccess:
		return http.StatusOK
	case errorx.CodeInvalidParams:
		return http.StatusBadRequest
	case errorx.CodeUnauthorized, errorx.CodeLoginRequired, errorx.CodeTokenInvalid, errorx.CodeTokenExpired:
		return http.StatusUnauthorized
	case errorx.CodeTooManyRequests:
		return http.StatusTooManyRequests
	case errorx.CodeServiceUnavailable, errorx.CodeLockTimeout:
		return http.StatusServiceUnavailable
	case errorx.CodeInternalError, errorx.CodeIntegrityViolation:
		return http.StatusInternalServerError
	default:
		// 其他业务错误返回 200，但 code 非 0
		return http.StatusOK
	}
}

// HandleError 统一错误处理（用于 handler 层）
// 用法: response.HandleError(w, err, func() { response.Success(w, data) })
func HandleError(w http.ResponseWriter, err error, successFn func()) {
	if err != nil {
		Fail(w, err)
		return
	}
	successFn()
}

// SetupGlobalErrorHandler 注册 httpx 全局错误处理
//
// handler 里直接 httpx.ErrorCtx(ctx, w, err) 即可得到统一结构，
// 非业务错误在这里记录日志后以内部错误返回
func SetupGlobalErrorHandler() {
	httpx.SetErrorHandlerCtx(func(ctx context.Context, err error) (int, any) {
		bizErr := errorx.FromError(err)
		if bizErr.Code == errorx.CodeInternalError || bizErr.Code == errorx.CodeIntegrityViolation {
			logx.WithContext(ctx).Errorf("[HTTP] 请求处理失败: %v", err)
		}
		return getHttpStatus(bizErr.Code), &Response{
			Code:    bizErr.Code,
			Message: bizErr.Message,
		}
	})
}
