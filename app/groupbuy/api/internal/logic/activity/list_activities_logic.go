package activity

import (
	"context"
	"time"

	"groupbuy-platform/app/groupbuy/api/internal/logic"
	"groupbuy-platform/app/groupbuy/api/internal/svc"
	"groupbuy-platform/app/groupbuy/api/internal/types"
	"groupbuy-platform/app/groupbuy/model"

	"github.com/zeromicro/go-zero/core/logx"
)

type ListActivitiesLogic struct {
	logx.Logger
	ctx    context.Context
	svcCtx *svc.ServiceContext
}

// 活动列表，ongoing=true 时只返回当前可开团的活动
func NewListActivitiesLogic(ctx context.Context, svcCtx *svc.ServiceContext) *ListActivitiesLogic {
	return &ListActivitiesLogic{
		Logger: logx.WithContext(ctx),
		ctx:    ctx,
		svcCtx: svcCtx,
	}
}

func (l *ListActivitiesLogic) ListActivities(req *types.ListActivitiesReq) (*types.ListActivitiesResp, error) {
	page, pageSize := normalizePage(req.Page, req.PageSize)

	var (
		activities []model.Activity
		total      int64
		err        error
	)
	if req.Ongoing {
		activities, total, err = l.svcCtx.ActivityModel.ListOngoing(l.ctx, time.Now().Unix(), page, pageSize)
	} else {
		activities, total, err = l.svcCtx.ActivityModel.List(l.ctx, page, pageSize)
	}
	if err != nil {
		return nil, logic.ToBizError(err)
	}

	list := make([]types.ActivityInfo, 0, len(activities))
	for i := range activities {
		list = append(list, toActivityInfo(&activities[i]))
	}
	return &types.ListActivitiesResp{
		List:     list,
		Total:    total,
		Page:     page,
		PageSize: pageSize,
	}, nil
}
