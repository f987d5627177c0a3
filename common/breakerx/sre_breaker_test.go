package breakerx

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/zeromicro/go-zero/core/breaker"
)

func TestBreakerOpensOnErrorRate(t *testing.T) {
	b := NewBreaker("payment", Conf{Requests: 4, ErrorRate: 0.5, Timeout: time.Minute})
	boom := errors.New("boom")

	for i := 0; i < 4; i++ {
		_ = b.Do(func() error { return boom })
	}

	err := b.Do(func() error { return nil })
	assert.ErrorIs(t, err, breaker.ErrServiceUnavailable)
}

func TestBreakerStaysClosedBelowMinRequests(t *testing.T) {
	b := NewBreaker("order", Conf{Requests: 10, ErrorRate: 0.5, Timeout: time.Minute})
	boom := errors.New("boom")

	for i := 0; i < 3; i++ {
		assert.ErrorIs(t, b.Do(func() error { return boom }), boom)
	}
	assert.NoError(t, b.Do(func() error { return nil }))
}

func TestBreakerAcceptable(t *testing.T) {
	b := NewBreaker("user", Conf{Requests: 2, ErrorRate: 0.5, Timeout: time.Minute})
	bizErr := errors.New("not found")

	for i := 0; i < 5; i++ {
		_ = b.DoWithAcceptable(func() error { return bizErr }, func(err error) bool {
			return err == nil || errors.Is(err, bizErr)
		})
	}
	assert.NoError(t, b.Do(func() error { return nil }))
}
