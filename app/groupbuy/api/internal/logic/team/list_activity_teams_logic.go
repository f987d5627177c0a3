package team

import (
	"context"
	"time"

	"groupbuy-platform/app/groupbuy/api/internal/logic"
	"groupbuy-platform/app/groupbuy/api/internal/svc"
	"groupbuy-platform/app/groupbuy/api/internal/types"
	"groupbuy-platform/common/ctxdata"
	"groupbuy-platform/common/errorx"

	"github.com/zeromicro/go-zero/core/logx"
)

type ListActivityTeamsLogic struct {
	logx.Logger
	ctx    context.Context
	svcCtx *svc.ServiceContext
}

// 活动下可参与的团（同社区优先）
func NewListActivityTeamsLogic(ctx context.Context, svcCtx *svc.ServiceContext) *ListActivityTeamsLogic {
	return &ListActivityTeamsLogic{
		Logger: logx.WithContext(ctx),
		ctx:    ctx,
		svcCtx: svcCtx,
	}
}

func (l *ListActivityTeamsLogic) ListActivityTeams(req *types.ListActivityTeamsReq) (*types.ListActivityTeamsResp, error) {
	if req.ActivityId == 0 {
		return nil, errorx.ErrInvalidParams("活动ID不能为空")
	}

	communityID := req.CommunityId
	if communityID == 0 {
		communityID = ctxdata.GetCommunityIDFromCtx(l.ctx)
	}

	teams, err := l.svcCtx.TeamModel.ListOpenByActivity(l.ctx, req.ActivityId, communityID,
		time.Now().Unix(), l.svcCtx.Config.Team.ListLimit)
	if err != nil {
		return nil, logic.ToBizError(err)
	}

	list := make([]types.TeamInfo, 0, len(teams))
	for i := range teams {
		list = append(list, toTeamInfo(&teams[i]))
	}
	return &types.ListActivityTeamsResp{List: list}, nil
}
