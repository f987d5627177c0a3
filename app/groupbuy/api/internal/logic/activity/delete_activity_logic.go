package activity

import (
	"context"

	"groupbuy-platform/app/groupbuy/api/internal/logic"
	"groupbuy-platform/app/groupbuy/api/internal/svc"
	"groupbuy-platform/app/groupbuy/api/internal/types"
	"groupbuy-platform/common/errorx"

	"github.com/zeromicro/go-zero/core/logx"
)

type DeleteActivityLogic struct {
	logx.Logger
	ctx    context.Context
	svcCtx *svc.ServiceContext
}

// 管理员删除拼团活动，仍有拼团中的团时拒绝
func NewDeleteActivityLogic(ctx context.Context, svcCtx *svc.ServiceContext) *DeleteActivityLogic {
	return &DeleteActivityLogic{
		Logger: logx.WithContext(ctx),
		ctx:    ctx,
		svcCtx: svcCtx,
	}
}

func (l *DeleteActivityLogic) DeleteActivity(req *types.ActivityIdReq) error {
	operatorID, err := logic.RequireAdmin(l.ctx, l.svcCtx.UserClient)
	if err != nil {
		return err
	}

	if _, err := l.svcCtx.ActivityModel.FindByID(l.ctx, req.Id); err != nil {
		return logic.ToBizError(err)
	}

	forming, err := l.svcCtx.TeamModel.CountFormingByActivity(l.ctx, req.Id)
	if err != nil {
		return logic.ToBizError(err)
	}
	if forming > 0 {
		return errorx.ErrActivityInUse()
	}

	if err := l.svcCtx.ActivityModel.Delete(l.ctx, req.Id); err != nil {
		return logic.ToBizError(err)
	}
	if err := l.svcCtx.ActivityCache.Invalidate(l.ctx, req.Id); err != nil {
		l.Errorf("[DeleteActivity] 缓存失效失败，等待 TTL 过期: activityId=%d, err=%v", req.Id, err)
	}

	l.Infof("[DeleteActivity] 删除活动: activityId=%d, operatorId=%d", req.Id, operatorID)
	return nil
}
