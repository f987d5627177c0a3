package team

import (
	"context"

	"groupbuy-platform/app/groupbuy/api/internal/logic"
	"groupbuy-platform/app/groupbuy/api/internal/svc"
	"groupbuy-platform/app/groupbuy/api/internal/types"

	"github.com/zeromicro/go-zero/core/logx"
)

type ReconcileTeamLogic struct {
	logx.Logger
	ctx    context.Context
	svcCtx *svc.ServiceContext
}

// 管理员对账：重跑失败团未完成的补偿
func NewReconcileTeamLogic(ctx context.Context, svcCtx *svc.ServiceContext) *ReconcileTeamLogic {
	return &ReconcileTeamLogic{
		Logger: logx.WithContext(ctx),
		ctx:    ctx,
		svcCtx: svcCtx,
	}
}

func (l *ReconcileTeamLogic) ReconcileTeam(req *types.TeamIdReq) (*types.ReconcileTeamResp, error) {
	operatorID, err := logic.RequireAdmin(l.ctx, l.svcCtx.UserClient)
	if err != nil {
		return nil, err
	}

	report, err := l.svcCtx.RefundSaga.ReconcileTeam(l.ctx, req.TeamId)
	if err != nil {
		return nil, err
	}

	l.Infof("[ReconcileTeam] 对账完成: teamId=%d, operatorId=%d, attempted=%d, failed=%d",
		req.TeamId, operatorID, report.Attempted, report.Failed)
	return toReportResp(report), nil
}
