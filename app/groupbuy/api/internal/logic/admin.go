package logic

import (
	"context"

	"groupbuy-platform/app/groupbuy/api/internal/client"
	"groupbuy-platform/common/ctxdata"
	"groupbuy-platform/common/errorx"
)

// RequireAdmin 校验当前登录用户为管理员，返回操作人ID
func RequireAdmin(ctx context.Context, users client.UserService) (uint64, error) {
	operatorID := ctxdata.GetUserIDFromCtx(ctx)
	if operatorID == 0 {
		return 0, errorx.ErrUnauthorized()
	}

	user, err := users.GetUser(ctx, operatorID)
	if err != nil {
		return 0, err
	}
	if !user.IsAdmin() {
		return 0, errorx.ErrForbidden()
	}
	return operatorID, nil
}
