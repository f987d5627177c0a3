package messaging

import (
	"errors"
)

// RetryableError 可重试错误接口
type RetryableError interface {
	error
	IsRetryable() bool
}

type retryableError struct {
	err       error
	retryable bool
}

func (e *retryableError) Error() string {
	return e.err.Error()
}

func (e *retryableError) Unwrap() error {
	return e.err
}

func (e *retryableError) IsRetryable() bool {
	return e.retryable
}

// NewRetryableError 创建可重试错误
func NewRetryableError(err error) error {
	return &retryableError{err: err, retryable: true}
}

// NewNonRetryableError 创建不可重试错误（消息格式错误等），跳过重试直接进入死信
func NewNonRetryableError(err error) error {
	return &retryableError{err: err, retryable: false}
}

// IsRetryable 判断错误是否可重试，未标记的错误默认可重试
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	var retryableErr RetryableError
	if errors.As(err, &retryableErr) {
		return retryableErr.IsRetryable()
	}
	return true
}
