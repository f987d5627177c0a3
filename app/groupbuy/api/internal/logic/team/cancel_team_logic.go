package team

import (
	"context"

	"groupbuy-platform/app/groupbuy/api/internal/saga"
	"groupbuy-platform/app/groupbuy/api/internal/svc"
	"groupbuy-platform/app/groupbuy/api/internal/types"
	"groupbuy-platform/app/groupbuy/model"
	"groupbuy-platform/common/ctxdata"
	"groupbuy-platform/common/errorx"

	"github.com/zeromicro/go-zero/core/logx"
)

type CancelTeamLogic struct {
	logx.Logger
	ctx    context.Context
	svcCtx *svc.ServiceContext
}

// 团长取消拼团
func NewCancelTeamLogic(ctx context.Context, svcCtx *svc.ServiceContext) *CancelTeamLogic {
	return &CancelTeamLogic{
		Logger: logx.WithContext(ctx),
		ctx:    ctx,
		svcCtx: svcCtx,
	}
}

// CancelTeam 与过期走同一条补偿路径：团置为失败，逐个成员退款/取消订单
func (l *CancelTeamLogic) CancelTeam(req *types.TeamIdReq) (*types.ReconcileTeamResp, error) {
	leaderID := ctxdata.GetUserIDFromCtx(l.ctx)
	if leaderID == 0 {
		return nil, errorx.ErrUnauthorized()
	}
	if req.TeamId == 0 {
		return nil, errorx.ErrInvalidParams("团ID不能为空")
	}

	report, err := l.svcCtx.RefundSaga.FailTeam(l.ctx, req.TeamId, saga.ReasonLeaderCancel, func(team *model.Team) error {
		if team.LeaderID != leaderID {
			return errorx.New(errorx.CodeNotTeamLeader)
		}
		if !team.IsForming() {
			return errorx.ErrTeamClosed()
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	l.Infof("[CancelTeam] 团长取消拼团: teamId=%d, leaderId=%d, attempted=%d, failed=%d",
		req.TeamId, leaderID, report.Attempted, report.Failed)
	return toReportResp(report), nil
}

func toReportResp(r *saga.Report) *types.ReconcileTeamResp {
	failed := r.FailedMembers
	if failed == nil {
		failed = []uint64{}
	}
	return &types.ReconcileTeamResp{
		TeamId:        r.TeamID,
		Attempted:     r.Attempted,
		Succeeded:     r.Succeeded,
		Failed:        r.Failed,
		FailedMembers: failed,
	}
}
