package activity

import (
	"context"

	"groupbuy-platform/app/groupbuy/api/internal/logic"
	"groupbuy-platform/app/groupbuy/api/internal/svc"
	"groupbuy-platform/app/groupbuy/api/internal/types"

	"github.com/zeromicro/go-zero/core/logx"
)

type GetActivityLogic struct {
	logx.Logger
	ctx    context.Context
	svcCtx *svc.ServiceContext
}

// 活动详情（走缓存）
func NewGetActivityLogic(ctx context.Context, svcCtx *svc.ServiceContext) *GetActivityLogic {
	return &GetActivityLogic{
		Logger: logx.WithContext(ctx),
		ctx:    ctx,
		svcCtx: svcCtx,
	}
}

func (l *GetActivityLogic) GetActivity(req *types.ActivityIdReq) (*types.ActivityInfo, error) {
	activity, err := l.svcCtx.ActivityCache.GetByID(l.ctx, req.Id)
	if err != nil {
		return nil, logic.ToBizError(err)
	}
	info := toActivityInfo(activity)
	return &info, nil
}
