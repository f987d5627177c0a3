package activity

import (
	"context"

	"groupbuy-platform/app/groupbuy/api/internal/logic"
	"groupbuy-platform/app/groupbuy/api/internal/svc"
	"groupbuy-platform/app/groupbuy/api/internal/types"
	"groupbuy-platform/app/groupbuy/model"
	"groupbuy-platform/common/errorx"

	"github.com/zeromicro/go-zero/core/logx"
)

type UpdateActivityLogic struct {
	logx.Logger
	ctx    context.Context
	svcCtx *svc.ServiceContext
}

// 管理员修改拼团活动，只改传入的字段
//
// 已开的团在开团时固化了人数和价格，修改只影响之后开的团
func NewUpdateActivityLogic(ctx context.Context, svcCtx *svc.ServiceContext) *UpdateActivityLogic {
	return &UpdateActivityLogic{
		Logger: logx.WithContext(ctx),
		ctx:    ctx,
		svcCtx: svcCtx,
	}
}

func (l *UpdateActivityLogic) UpdateActivity(req *types.UpdateActivityReq) (*types.ActivityInfo, error) {
	operatorID, err := logic.RequireAdmin(l.ctx, l.svcCtx.UserClient)
	if err != nil {
		return nil, err
	}

	activity, err := l.svcCtx.ActivityModel.FindByID(l.ctx, req.Id)
	if err != nil {
		return nil, logic.ToBizError(err)
	}

	fields := make(map[string]interface{})
	if req.GroupPrice != nil {
		activity.GroupPrice = *req.GroupPrice
		fields["group_price"] = *req.GroupPrice
	}
	if req.RequiredNum != nil {
		activity.RequiredNum = *req.RequiredNum
		fields["required_num"] = *req.RequiredNum
	}
	if req.StartTime != nil {
		activity.StartTime = *req.StartTime
		fields["start_time"] = *req.StartTime
	}
	if req.EndTime != nil {
		activity.EndTime = *req.EndTime
		fields["end_time"] = *req.EndTime
	}
	if req.Status != nil {
		if !validActivityStatus(*req.Status) {
			return nil, errorx.ErrInvalidParams("活动状态无效")
		}
		activity.Status = *req.Status
		fields["status"] = *req.Status
	}
	if len(fields) == 0 {
		info := toActivityInfo(activity)
		return &info, nil
	}

	// 合并后整体校验，避免只改开始时间导致时间窗倒置
	if err := validateTerms(l.svcCtx.Config.Team, activity.GroupPrice, activity.RequiredNum, activity.StartTime, activity.EndTime); err != nil {
		return nil, err
	}

	if err := l.svcCtx.ActivityModel.Update(l.ctx, req.Id, fields); err != nil {
		return nil, logic.ToBizError(err)
	}
	if err := l.svcCtx.ActivityCache.Invalidate(l.ctx, req.Id); err != nil {
		l.Errorf("[UpdateActivity] 缓存失效失败，等待 TTL 过期: activityId=%d, err=%v", req.Id, err)
	}

	l.Infof("[UpdateActivity] 修改活动: activityId=%d, fields=%d, operatorId=%d", req.Id, len(fields), operatorID)
	info := toActivityInfo(activity)
	return &info, nil
}

func validActivityStatus(status int8) bool {
	switch status {
	case model.ActivityStatusNotStarted, model.ActivityStatusOngoing,
		model.ActivityStatusEnded, model.ActivityStatusAbnormal:
		return true
	}
	return false
}
