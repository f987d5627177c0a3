package activity

import (
	"context"

	"groupbuy-platform/app/groupbuy/api/internal/config"
	"groupbuy-platform/app/groupbuy/api/internal/logic"
	"groupbuy-platform/app/groupbuy/api/internal/svc"
	"groupbuy-platform/app/groupbuy/api/internal/types"
	"groupbuy-platform/app/groupbuy/model"
	"groupbuy-platform/common/errorx"

	"github.com/zeromicro/go-zero/core/logx"
)

type CreateActivityLogic struct {
	logx.Logger
	ctx    context.Context
	svcCtx *svc.ServiceContext
}

// 管理员创建拼团活动
func NewCreateActivityLogic(ctx context.Context, svcCtx *svc.ServiceContext) *CreateActivityLogic {
	return &CreateActivityLogic{
		Logger: logx.WithContext(ctx),
		ctx:    ctx,
		svcCtx: svcCtx,
	}
}

func (l *CreateActivityLogic) CreateActivity(req *types.CreateActivityReq) (*types.ActivityInfo, error) {
	operatorID, err := logic.RequireAdmin(l.ctx, l.svcCtx.UserClient)
	if err != nil {
		return nil, err
	}

	if req.ProductId == 0 {
		return nil, errorx.ErrInvalidParams("商品ID不能为空")
	}
	if err := validateTerms(l.svcCtx.Config.Team, req.GroupPrice, req.RequiredNum, req.StartTime, req.EndTime); err != nil {
		return nil, err
	}

	activity := &model.Activity{
		ProductID:   req.ProductId,
		GroupPrice:  req.GroupPrice,
		RequiredNum: req.RequiredNum,
		StartTime:   req.StartTime,
		EndTime:     req.EndTime,
		Status:      model.ActivityStatusOngoing,
	}
	if err := l.svcCtx.ActivityModel.Create(l.ctx, activity); err != nil {
		return nil, logic.ToBizError(err)
	}

	l.Infof("[CreateActivity] 创建活动: activityId=%d, productId=%d, operatorId=%d",
		activity.ID, activity.ProductID, operatorID)
	info := toActivityInfo(activity)
	return &info, nil
}

// validateTerms 校验拼团价、成团人数和时间窗
func validateTerms(conf config.TeamConf, groupPrice int64, requiredNum uint32, startTime, endTime int64) error {
	if groupPrice <= 0 {
		return errorx.ErrInvalidGroupPrice()
	}
	if requiredNum < conf.MinRequiredNum || requiredNum > conf.MaxRequiredNum {
		return errorx.ErrInvalidMemberCount(conf.MinRequiredNum, conf.MaxRequiredNum)
	}
	if startTime >= endTime {
		return errorx.ErrInvalidActivityTime()
	}
	return nil
}
