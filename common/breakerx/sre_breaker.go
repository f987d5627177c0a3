package breakerx

import (
	"context"
	"sync"
	"time"

	"github.com/zeromicro/go-zero/core/breaker"
	"github.com/zeromicro/go-zero/core/collection"
	"github.com/zeromicro/go-zero/core/logx"
)

const (
	defaultWindow   = 10 * time.Second
	defaultBuckets  = 40
	defaultRequests = 20
	defaultError    = 0.5
	defaultTimeout  = 30 * time.Second
)

// Conf 下游熔断配置（可直接写在服务 yaml 里）
type Conf struct {
	// 窗口内最少请求数，低于该值不熔断
	Requests int `json:",default=20"`
	// 错误率阈值 (0,1]
	ErrorRate float64 `json:",default=0.5"`
	// 熔断打开后持续时间
	Timeout time.Duration `json:",default=30s"`
}

// NewBreaker 按下游名称创建熔断器
//
// 与 go-zero 自带的自适应熔断不同，这里是固定阈值：窗口内错误率
// 达到阈值后直接拒绝 Timeout 时长，适合调用退款、下单这类不能被
// 概率放行压垮的下游
func NewBreaker(name string, c Conf) breaker.Breaker {
	requests := c.Requests
	if requests <= 0 {
		requests = defaultRequests
	}
	errorRate := c.ErrorRate
	if errorRate <= 0 || errorRate > 1 {
		errorRate = defaultError
	}
	timeout := c.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	return &sreBreaker{
		name:      name,
		requests:  int64(requests),
		errorRate: errorRate,
		timeout:   timeout,
		window: collection.NewRollingWindow[int64, *collection.Bucket[int64]](
			func() *collection.Bucket[int64] {
				return &collection.Bucket[int64]{}
			},
			defaultBuckets,
			defaultWindow/time.Duration(defaultBuckets),
		),
	}
}

type sreBreaker struct {
	name      string
	requests  int64
	errorRate float64
	timeout   time.Duration
	window    *collection.RollingWindow[int64, *collection.Bucket[int64]]

	mu        sync.Mutex
	openUntil time.Time
}

func (b *sreBreaker) Name() string {
	return b.name
}

func (b *sreBreaker) Allow() (breaker.Promise, error) {
	if b.isOpen() {
		return nil, breaker.ErrServiceUnavailable
	}
	return srePromise{b: b}, nil
}

func (b *sreBreaker) AllowCtx(ctx context.Context) (breaker.Promise, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return b.Allow()
}

func (b *sreBreaker) Do(req func() error) error {
	return b.doReq(req, nil, nil)
}

func (b *sreBreaker) DoCtx(ctx context.Context, req func() error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return b.Do(req)
}

func (b *sreBreaker) DoWithAcceptable(req func() error, acceptable breaker.Acceptable) error {
	return b.doReq(req, nil, acceptable)
}

func (b *sreBreaker) DoWithAcceptableCtx(ctx context.Context, req func() error, acceptable breaker.Acceptable) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return b.DoWithAcceptable(req, acceptable)
}

func (b *sreBreaker) DoWithFallback(req func() error, fallback breaker.Fallback) error {
	return b.doReq(req, fallback, nil)
}

func (b *sreBreaker) DoWithFallbackCtx(ctx context.Context, req func() error, fallback breaker.Fallback) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return b.DoWithFallback(req, fallback)
}

func (b *sreBreaker) DoWithFallbackAcceptable(req func() error, fallback breaker.Fallback,
	acceptable breaker.Acceptable) error {
	return b.doReq(req, fallback, acceptable)
}

func (b *sreBreaker) DoWithFallbackAcceptableCtx(ctx context.Context, req func() error,
	fallback breaker.Fallback, acceptable breaker.Acceptable) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return b.DoWithFallbackAcceptable(req, fallback, acceptable)
}

func (b *sreBreaker) doReq(req func() error, fallback breaker.Fallback, acceptable breaker.Acceptable) error {
	if acceptable == nil {
		acceptable = func(err error) bool { return err == nil }
	}
	if b.isOpen() {
		if fallback != nil {
			return fallback(breaker.ErrServiceUnavailable)
		}
		return breaker.ErrServiceUnavailable
	}

	defer func() {
		if e := recover(); e != nil {
			b.record(false)
			panic(e)
		}
	}()

	err := req()
	b.record(acceptable(err))
	return err
}

func (b *sreBreaker) isOpen() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.openUntil.IsZero() {
		return false
	}
	if time.Now().Before(b.openUntil) {
		return true
	}
	b.openUntil = time.Time{}
	logx.Infof("[Breaker] %s 熔断结束，恢复放行", b.name)
	return false
}

func (b *sreBreaker) record(success bool) {
	if success {
		b.window.Add(0)
	} else {
		b.window.Add(1)
	}
	failures, total := b.history()
	if total < b.requests {
		return
	}
	if float64(failures)/float64(total) >= b.errorRate {
		b.mu.Lock()
		if b.openUntil.IsZero() {
			logx.Errorf("[Breaker] %s 错误率过高，熔断 %s: failures=%d, total=%d",
				b.name, b.timeout, failures, total)
		}
		b.openUntil = time.Now().Add(b.timeout)
		b.mu.Unlock()
	}
}

func (b *sreBreaker) history() (failures, total int64) {
	b.window.Reduce(func(bucket *collection.Bucket[int64]) {
		failures += bucket.Sum
		total += bucket.Count
	})
	return failures, total
}

type srePromise struct {
	b *sreBreaker
}

func (p srePromise) Accept() {
	p.b.record(true)
}

func (p srePromise) Reject(_ string) {
	p.b.record(false)
}
