package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"groupbuy-platform/app/groupbuy/api/internal/config"
	"groupbuy-platform/common/breakerx"
	"groupbuy-platform/common/errorx"

	"github.com/pkg/errors"
	"github.com/zeromicro/go-zero/core/breaker"
	"github.com/zeromicro/go-zero/core/logx"
	"github.com/zeromicro/go-zero/rest/httpc"
)

// envelope 下游服务统一响应结构 {code, message, data}
type envelope struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

// remoteBizError 下游返回的业务错误（code != 0），不计入熔断错误率
type remoteBizError struct {
	*errorx.BizError
}

func (e *remoteBizError) Unwrap() error {
	return e.BizError
}

// upstream 单个下游 HTTP 服务：httpc 发请求，breakerx 熔断
type upstream struct {
	name     string
	endpoint string
	svc      httpc.Service
	brk      breaker.Breaker
}

func newUpstream(name string, c config.UpstreamConf) *upstream {
	return &upstream{
		name:     name,
		endpoint: strings.TrimRight(c.Endpoint, "/"),
		svc:      httpc.NewServiceWithClient(name, &http.Client{Timeout: c.Timeout}),
		brk:      breakerx.NewBreaker(name, c.Breaker),
	}
}

// call 调用下游并把 data 解析到 out（out 可为 nil）
//
// 返回值：
//   - 下游业务错误：*errorx.BizError（保留下游错误码）
//   - 熔断打开：CodeServiceUnavailable
//   - 网络/协议错误：CodeRPCError
func (u *upstream) call(ctx context.Context, method, path string, req, out interface{}) error {
	err := u.brk.DoWithAcceptableCtx(ctx, func() error {
		return u.do(ctx, method, path, req, out)
	}, acceptable)
	if err == nil {
		return nil
	}

	var bizErr *remoteBizError
	switch {
	case errors.As(err, &bizErr):
		return bizErr.BizError
	case errors.Is(err, breaker.ErrServiceUnavailable):
		logx.WithContext(ctx).Errorf("[Client] %s 熔断中，拒绝调用: %s %s", u.name, method, path)
		return errorx.NewWithMessage(errorx.CodeServiceUnavailable, fmt.Sprintf("%s 服务暂不可用", u.name))
	default:
		logx.WithContext(ctx).Errorf("[Client] 调用 %s 失败: %s %s, err=%v", u.name, method, path, err)
		return errorx.ErrRPCError(err)
	}
}

func (u *upstream) do(ctx context.Context, method, path string, req, out interface{}) error {
	resp, err := u.svc.Do(ctx, method, u.endpoint+path, req)
	if err != nil {
		return errors.Wrapf(err, "%s %s", method, path)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return errors.Errorf("%s %s: unexpected status %d", method, path, resp.StatusCode)
	}

	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return errors.Wrapf(err, "%s %s: decode response", method, path)
	}
	if env.Code != errorx.CodeSuccess {
		return &remoteBizError{BizError: errorx.NewWithMessage(env.Code, env.Message)}
	}
	if out == nil || len(env.Data) == 0 {
		return nil
	}
	if err := json.Unmarshal(env.Data, out); err != nil {
		return errors.Wrapf(err, "%s %s: decode data", method, path)
	}
	return nil
}

// acceptable 业务错误说明下游是健康的，不计入熔断
func acceptable(err error) bool {
	if err == nil {
		return true
	}
	var bizErr *remoteBizError
	return errors.As(err, &bizErr)
}
