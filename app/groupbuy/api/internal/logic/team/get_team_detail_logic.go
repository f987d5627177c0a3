package team

import (
	"context"

	"groupbuy-platform/app/groupbuy/api/internal/logic"
	"groupbuy-platform/app/groupbuy/api/internal/svc"
	"groupbuy-platform/app/groupbuy/api/internal/types"
	"groupbuy-platform/app/groupbuy/model"
	"groupbuy-platform/common/errorx"

	"github.com/zeromicro/go-zero/core/logx"
	"golang.org/x/sync/errgroup"
)

type GetTeamDetailLogic struct {
	logx.Logger
	ctx    context.Context
	svcCtx *svc.ServiceContext
}

// 团详情
func NewGetTeamDetailLogic(ctx context.Context, svcCtx *svc.ServiceContext) *GetTeamDetailLogic {
	return &GetTeamDetailLogic{
		Logger: logx.WithContext(ctx),
		ctx:    ctx,
		svcCtx: svcCtx,
	}
}

func (l *GetTeamDetailLogic) GetTeamDetail(req *types.TeamIdReq) (*types.TeamDetailResp, error) {
	if req.TeamId == 0 {
		return nil, errorx.ErrInvalidParams("团ID不能为空")
	}

	team, err := l.svcCtx.TeamModel.FindByID(l.ctx, req.TeamId)
	if err != nil {
		return nil, logic.ToBizError(err)
	}

	var (
		members  []model.Member
		activity *model.Activity
	)
	g, gctx := errgroup.WithContext(l.ctx)
	g.Go(func() error {
		var err error
		members, err = l.svcCtx.MemberModel.ListByTeam(gctx, nil, team.ID)
		return err
	})
	g.Go(func() error {
		// 活动信息缺失不影响团详情展示
		a, err := l.svcCtx.ActivityCache.GetByID(gctx, team.ActivityID)
		if err != nil {
			l.Errorf("[GetTeamDetail] 查询活动失败: activityId=%d, err=%v", team.ActivityID, err)
			return nil
		}
		activity = a
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, logic.ToBizError(err)
	}

	resp := &types.TeamDetailResp{
		Team:    toTeamInfo(team),
		Members: make([]types.MemberInfo, 0, len(members)),
	}
	if activity != nil {
		resp.Activity = toActivityInfo(activity)
	}
	for i := range members {
		if members[i].Status == model.MemberStatusCancelled {
			continue
		}
		resp.Members = append(resp.Members, toMemberInfo(&members[i]))
	}
	return resp, nil
}
