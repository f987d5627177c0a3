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

const maxPageSize = 100

type ListMyTeamsLogic struct {
	logx.Logger
	ctx    context.Context
	svcCtx *svc.ServiceContext
}

// 我参与的团
func NewListMyTeamsLogic(ctx context.Context, svcCtx *svc.ServiceContext) *ListMyTeamsLogic {
	return &ListMyTeamsLogic{
		Logger: logx.WithContext(ctx),
		ctx:    ctx,
		svcCtx: svcCtx,
	}
}

func (l *ListMyTeamsLogic) ListMyTeams(req *types.ListMyTeamsReq) (*types.ListMyTeamsResp, error) {
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

	members, total, err := l.svcCtx.MemberModel.ListByUser(l.ctx, userID, page, pageSize)
	if err != nil {
		return nil, logic.ToBizError(err)
	}

	teamIDs := make([]uint64, 0, len(members))
	for i := range members {
		teamIDs = append(teamIDs, members[i].TeamID)
	}
	teams, err := l.svcCtx.TeamModel.FindByIDs(l.ctx, teamIDs)
	if err != nil {
		return nil, logic.ToBizError(err)
	}
	teamMap := make(map[uint64]types.TeamInfo, len(teams))
	for i := range teams {
		teamMap[teams[i].ID] = toTeamInfo(&teams[i])
	}

	list := make([]types.MyTeamItem, 0, len(members))
	for i := range members {
		item := types.MyTeamItem{Member: toMemberInfo(&members[i])}
		if info, ok := teamMap[members[i].TeamID]; ok {
			item.Team = &info
		}
		list = append(list, item)
	}

	return &types.ListMyTeamsResp{
		List:     list,
		Total:    total,
		Page:     page,
		PageSize: pageSize,
	}, nil
}
