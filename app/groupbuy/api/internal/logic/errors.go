package logic

import (
	"groupbuy-platform/app/groupbuy/model"
	"groupbuy-platform/common/errorx"

	"github.com/pkg/errors"
)

// ToBizError 把存储层错误转换为对外错误码，BizError 原样返回
func ToBizError(err error) error {
	if err == nil {
		return nil
	}

	var bizErr *errorx.BizError
	switch {
	case errors.As(err, &bizErr):
		return bizErr
	case errors.Is(err, model.ErrTeamNotFound):
		return errorx.ErrTeamNotFound()
	case errors.Is(err, model.ErrMemberNotFound):
		return errorx.ErrMemberNotFound()
	case errors.Is(err, model.ErrActivityNotFound):
		return errorx.ErrActivityNotFound()
	case model.IsLockTimeoutErr(err):
		return errorx.ErrLockTimeout()
	default:
		return errorx.ErrDBError(err)
	}
}
