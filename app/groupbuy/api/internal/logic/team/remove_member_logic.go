package team

import (
	"context"

	"groupbuy-platform/app/groupbuy/api/internal/svc"
	"groupbuy-platform/app/groupbuy/api/internal/types"
	"groupbuy-platform/app/groupbuy/model"
	"groupbuy-platform/common/ctxdata"
	"groupbuy-platform/common/errorx"

	"github.com/zeromicro/go-zero/core/logx"
)

type RemoveMemberLogic struct {
	logx.Logger
	ctx    context.Context
	svcCtx *svc.ServiceContext
}

// 团长移除成员
func NewRemoveMemberLogic(ctx context.Context, svcCtx *svc.ServiceContext) *RemoveMemberLogic {
	return &RemoveMemberLogic{
		Logger: logx.WithContext(ctx),
		ctx:    ctx,
		svcCtx: svcCtx,
	}
}

func (l *RemoveMemberLogic) RemoveMember(req *types.RemoveMemberReq) (*types.LeaveTeamResp, error) {
	operatorID := ctxdata.GetUserIDFromCtx(l.ctx)
	if operatorID == 0 {
		return nil, errorx.ErrUnauthorized()
	}
	if req.TeamId == 0 || req.UserId == 0 {
		return nil, errorx.ErrInvalidParams("团ID和用户ID不能为空")
	}
	if req.UserId == operatorID {
		return nil, errorx.NewWithMessage(errorx.CodeMemberCannotLeave, "团长不能移除自己，请取消拼团")
	}

	resp, err := leaveTeam(l.ctx, l.svcCtx, req.TeamId, req.UserId, func(team *model.Team) error {
		if team.LeaderID != operatorID {
			return errorx.New(errorx.CodeNotTeamLeader)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	l.Infof("[RemoveMember] 团长移除成员: teamId=%d, leaderId=%d, userId=%d", req.TeamId, operatorID, req.UserId)
	return resp, nil
}
