package payment

import (
	"context"
	"time"

	"groupbuy-platform/app/groupbuy/api/internal/logic"
	"groupbuy-platform/app/groupbuy/api/internal/metrics"
	"groupbuy-platform/app/groupbuy/api/internal/svc"
	"groupbuy-platform/app/groupbuy/api/internal/types"
	"groupbuy-platform/app/groupbuy/model"
	"groupbuy-platform/common/errorx"
	"groupbuy-platform/common/messaging"

	"github.com/zeromicro/go-zero/core/logx"
	"gorm.io/gorm"
)

// 回调处理结果
const (
	OutcomePaid       = "paid"        // 成员已支付，团未满
	OutcomeCompleted  = "completed"   // 本次支付触发成团
	OutcomeDuplicate  = "duplicate"   // 重复投递，无操作
	OutcomeLateRefund = "late_refund" // 团已结束或已满，原路退回
)

type PaymentCallbackLogic struct {
	logx.Logger
	ctx    context.Context
	svcCtx *svc.ServiceContext
}

// 支付成功回调（HTTP 回调与 payment.confirmed 消息共用，至少一次投递）
func NewPaymentCallbackLogic(ctx context.Context, svcCtx *svc.ServiceContext) *PaymentCallbackLogic {
	return &PaymentCallbackLogic{
		Logger: logx.WithContext(ctx),
		ctx:    ctx,
		svcCtx: svcCtx,
	}
}

func (l *PaymentCallbackLogic) PaymentCallback(req *types.PaymentCallbackReq) (*types.PaymentCallbackResp, error) {
	return l.OnPaymentConfirmed(req.OrderId)
}

// OnPaymentConfirmed 一个事务内完成：锁成员 → 锁团 → 成员已支付、人数 +1 → 满员则成团并批量更新成员
//
// 成员已不是待支付状态时直接返回成功，重复回调不会重复计数
func (l *PaymentCallbackLogic) OnPaymentConfirmed(orderID uint64) (*types.PaymentCallbackResp, error) {
	if orderID == 0 {
		return nil, errorx.ErrInvalidParams("订单ID不能为空")
	}

	var (
		member    *model.Member
		team      *model.Team
		outcome   string
		orderIDs  []uint64
		successAt int64
	)
	err := l.svcCtx.DB.WithContext(l.ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		member, err = l.svcCtx.MemberModel.FindByOrderIDForUpdate(l.ctx, tx, orderID)
		if err != nil {
			return err
		}
		if member.Status != model.MemberStatusUnpaid {
			outcome = OutcomeDuplicate
			return nil
		}

		team, err = l.svcCtx.TeamModel.FindByIDForUpdate(l.ctx, tx, member.TeamID)
		if err != nil {
			return err
		}
		if !team.IsForming() || team.CurrentNum >= team.RequiredNum {
			outcome = OutcomeLateRefund
			return nil
		}

		if err := l.svcCtx.MemberModel.TransitStatus(l.ctx, tx, member.ID,
			model.MemberStatusUnpaid, model.MemberStatusPaid); err != nil {
			return err
		}
		if err := l.svcCtx.TeamModel.AddCurrentNum(l.ctx, tx, team.ID, 1); err != nil {
			return err
		}
		team.CurrentNum++
		outcome = OutcomePaid

		if team.CurrentNum < team.RequiredNum {
			return nil
		}

		// 满员：成团 + 已支付成员批量转为已成团
		successAt = time.Now().Unix()
		if err := l.svcCtx.TeamModel.MarkSucceeded(l.ctx, tx, team.ID, successAt); err != nil {
			return err
		}
		if _, err := l.svcCtx.MemberModel.BatchTransitByTeam(l.ctx, tx, team.ID,
			model.MemberStatusPaid, model.MemberStatusSucceeded); err != nil {
			return err
		}
		orderIDs, err = l.svcCtx.MemberModel.ListOrderIDsByTeamStatus(l.ctx, tx, team.ID, model.MemberStatusSucceeded)
		if err != nil {
			return err
		}
		team.Status = model.TeamStatusSucceeded
		team.SuccessTime = successAt
		outcome = OutcomeCompleted
		return nil
	})
	if err != nil {
		l.Errorf("[PaymentCallback] 处理失败: orderId=%d, err=%v", orderID, err)
		metrics.PaymentCallbacks.WithLabelValues("error").Inc()
		return nil, logic.ToBizError(err)
	}

	switch outcome {
	case OutcomeLateRefund:
		if err := l.refundLatePayment(member); err != nil {
			metrics.PaymentCallbacks.WithLabelValues("error").Inc()
			return nil, err
		}
	case OutcomeCompleted:
		metrics.TeamTransitions.WithLabelValues("succeeded").Inc()
		l.Infof("[PaymentCallback] 成团: teamId=%d, teamNo=%s, orders=%v", team.ID, team.TeamNo, orderIDs)
		NotifyReadyToShip(l.ctx, l.svcCtx, team.ID, orderIDs)
		l.svcCtx.MsgProducer.PublishTeamSucceeded(l.ctx, messaging.TeamSucceededEvent{
			TeamID:      team.ID,
			TeamNo:      team.TeamNo,
			ActivityID:  team.ActivityID,
			LeaderID:    team.LeaderID,
			OrderIDs:    orderIDs,
			SuccessTime: successAt,
		})
	case OutcomeDuplicate:
		l.Infof("[PaymentCallback] 重复回调，忽略: orderId=%d, memberStatus=%d", orderID, member.Status)
	}
	metrics.PaymentCallbacks.WithLabelValues(outcome).Inc()

	resp := &types.PaymentCallbackResp{
		OrderId: orderID,
		Outcome: outcome,
	}
	if team != nil {
		resp.TeamStatus = team.Status
	}
	if outcome == OutcomeDuplicate {
		if t, err := l.svcCtx.TeamModel.FindByID(l.ctx, member.TeamID); err == nil {
			resp.TeamStatus = t.Status
		}
	}
	return resp, nil
}

// refundLatePayment 团已结束或已满时到达的支付：锁外退款，再把成员置为已取消
//
// 退款失败返回错误，由上游重新投递；退款以订单号幂等
func (l *PaymentCallbackLogic) refundLatePayment(member *model.Member) error {
	l.Infof("[PaymentCallback] 迟到支付，原路退回: orderId=%d, teamId=%d, userId=%d, amount=%d",
		member.OrderID, member.TeamID, member.UserID, member.PayAmount)

	if err := l.svcCtx.RefundSaga.RefundMember(l.ctx, member); err != nil {
		l.Errorf("[PaymentCallback] 迟到支付退款失败: orderId=%d, err=%v", member.OrderID, err)
		return errorx.Wrap(errorx.CodeRefundFailed, err)
	}

	err := l.svcCtx.DB.WithContext(l.ctx).Transaction(func(tx *gorm.DB) error {
		locked, err := l.svcCtx.MemberModel.FindByIDForUpdate(l.ctx, tx, member.ID)
		if err != nil {
			return err
		}
		if locked.Status != model.MemberStatusUnpaid {
			return nil
		}
		return l.svcCtx.MemberModel.TransitStatus(l.ctx, tx, locked.ID,
			model.MemberStatusUnpaid, model.MemberStatusCancelled)
	})
	return logic.ToBizError(err)
}

// NotifyReadyToShip 通知订单服务批量待发货，成功后标记团已通知
//
// 失败只记录，由定时任务重新投递
func NotifyReadyToShip(ctx context.Context, svcCtx *svc.ServiceContext, teamID uint64, orderIDs []uint64) bool {
	logger := logx.WithContext(ctx)
	if len(orderIDs) > 0 {
		if err := svcCtx.OrderClient.BatchMarkReadyToShip(ctx, orderIDs); err != nil {
			logger.Errorf("[ShipNotify] 通知待发货失败，稍后重试: teamId=%d, orders=%v, err=%v", teamID, orderIDs, err)
			return false
		}
	}
	if err := svcCtx.TeamModel.MarkShipNotified(ctx, teamID); err != nil {
		logger.Errorf("[ShipNotify] 标记已通知失败: teamId=%d, err=%v", teamID, err)
		return false
	}
	return true
}
