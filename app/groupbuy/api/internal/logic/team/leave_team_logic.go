package team

import (
	"context"

	"groupbuy-platform/app/groupbuy/api/internal/logic"
	"groupbuy-platform/app/groupbuy/api/internal/svc"
	"groupbuy-platform/app/groupbuy/api/internal/types"
	"groupbuy-platform/app/groupbuy/model"
	"groupbuy-platform/common/ctxdata"
	"groupbuy-platform/common/errorx"

	"github.com/pkg/errors"
	"github.com/zeromicro/go-zero/core/logx"
	"gorm.io/gorm"
)

type LeaveTeamLogic struct {
	logx.Logger
	ctx    context.Context
	svcCtx *svc.ServiceContext
}

// 退团
func NewLeaveTeamLogic(ctx context.Context, svcCtx *svc.ServiceContext) *LeaveTeamLogic {
	return &LeaveTeamLogic{
		Logger: logx.WithContext(ctx),
		ctx:    ctx,
		svcCtx: svcCtx,
	}
}

func (l *LeaveTeamLogic) LeaveTeam(req *types.TeamIdReq) (*types.LeaveTeamResp, error) {
	userID := ctxdata.GetUserIDFromCtx(l.ctx)
	if userID == 0 {
		return nil, errorx.ErrUnauthorized()
	}
	if req.TeamId == 0 {
		return nil, errorx.ErrInvalidParams("团ID不能为空")
	}

	return leaveTeam(l.ctx, l.svcCtx, req.TeamId, userID, nil)
}

// leaveTeam 成员退出（本人退团、团长移除共用）
//
// 加锁顺序：成员 → 团。团必须仍在拼团中，发起人不能退出（只能取消整个团）。
// 待支付：成员取消，提交后取消订单；
// 已支付：先退余额再取消成员并扣减人数，退款失败整个事务回滚
func leaveTeam(ctx context.Context, svcCtx *svc.ServiceContext, teamID, userID uint64,
	check func(team *model.Team) error) (*types.LeaveTeamResp, error) {
	logger := logx.WithContext(ctx)

	existing, err := svcCtx.MemberModel.FindByTeamUser(ctx, nil, teamID, userID)
	if err != nil {
		return nil, logic.ToBizError(err)
	}

	var (
		refunded      bool
		cancelOrderID uint64
	)
	err = svcCtx.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		member, err := svcCtx.MemberModel.FindByIDForUpdate(ctx, tx, existing.ID)
		if err != nil {
			return err
		}
		team, err := svcCtx.TeamModel.FindByIDForUpdate(ctx, tx, member.TeamID)
		if err != nil {
			return err
		}

		if check != nil {
			if err := check(team); err != nil {
				return err
			}
		}
		if !team.IsForming() {
			return errorx.ErrTeamClosed()
		}
		if member.IsLauncher {
			return errorx.New(errorx.CodeMemberCannotLeave)
		}

		switch member.Status {
		case model.MemberStatusUnpaid:
			cancelOrderID = member.OrderID
			return svcCtx.MemberModel.TransitStatus(ctx, tx, member.ID,
				model.MemberStatusUnpaid, model.MemberStatusCancelled)

		case model.MemberStatusPaid:
			if err := svcCtx.RefundSaga.RefundMember(ctx, member); err != nil {
				return errorx.Wrap(errorx.CodeRefundFailed, err)
			}
			refunded = true
			if err := svcCtx.MemberModel.TransitStatus(ctx, tx, member.ID,
				model.MemberStatusPaid, model.MemberStatusCancelled); err != nil {
				return err
			}
			if err := svcCtx.TeamModel.AddCurrentNum(ctx, tx, team.ID, -1); err != nil {
				if errors.Is(err, model.ErrTeamStatusConflict) {
					logger.Errorf("[LeaveTeam] 数据异常: 团人数已为 0 但仍有已支付成员, teamId=%d, memberId=%d",
						team.ID, member.ID)
					return errorx.ErrIntegrityViolation("current_num underflow")
				}
				return err
			}
			return nil

		default:
			return errorx.New(errorx.CodeMemberCannotLeave)
		}
	})
	if err != nil {
		if refunded {
			// 余额已退但本地状态未提交，退款以订单号幂等，重试不会重复入账
			logger.Errorf("[LeaveTeam] 已退款但状态提交失败，需重试: teamId=%d, userId=%d, orderId=%d, err=%v",
				teamID, userID, existing.OrderID, err)
		}
		return nil, logic.ToBizError(err)
	}

	if cancelOrderID > 0 {
		if err := svcCtx.OrderClient.CancelOrder(ctx, cancelOrderID); err != nil {
			logger.Errorf("[LeaveTeam] 取消订单失败，待对账: orderId=%d, err=%v", cancelOrderID, err)
		}
	}

	logger.Infof("[LeaveTeam] 退团成功: teamId=%d, userId=%d, refunded=%v", teamID, userID, refunded)
	return &types.LeaveTeamResp{
		TeamId:   teamID,
		Refunded: refunded,
	}, nil
}
