package team

import (
	"context"

	"groupbuy-platform/app/groupbuy/api/internal/logic"
	"groupbuy-platform/app/groupbuy/api/internal/svc"
	"groupbuy-platform/app/groupbuy/api/internal/types"
	"groupbuy-platform/common/ctxdata"
	"groupbuy-platform/common/errorx"

	"github.com/zeromicro/go-zero/core/logx"
)

type ListLeaderTeamsLogic struct {
	logx.Logger
	ctx    context.Context
	svcCtx *svc.ServiceContext
}

// 我发起的团
func NewListLeaderTeamsLogic(ctx context.Context, svcCtx *svc.ServiceContext) *ListLeaderTeamsLogic {
	return &ListLeaderTeamsLogic{
		Logger: logx.WithContext(ctx),
		ctx:    ctx,
		svcCtx: svcCtx,
	}
}

func (l *ListLeaderTeamsLogic) ListLeaderTeams(req *types.ListLeaderTeamsReq) (*types.ListLeaderTeamsResp, error) {
	userID := ctxdata.GetUserIDFromCtx(l.ctx)
	if userID == 0 {
		return nil, errorx.ErrUnauthorized()
	}

	page, pageSize := req.Page, req.PageSize
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > maxPageSize {
		pageSize = 20
	}

	teams, total, err := l.svcCtx.TeamModel.ListByLeader(l.ctx, userID, req.Status, page, pageSize)
	if err != nil {
		return nil, logic.ToBizError(err)
	}

	list := make([]types.TeamInfo, 0, len(teams))
	for i := range teams {
		list = append(list, toTeamInfo(&teams[i]))
	}
	return &types.ListLeaderTeamsResp{
		List:     list,
		Total:    total,
		Page:     page,
		PageSize: pageSize,
	}, nil
}
