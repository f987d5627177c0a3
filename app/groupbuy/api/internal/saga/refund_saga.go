// Package saga 拼团失败后的跨服务补偿
//
// 不依赖分布式事务协调器：团状态在本地事务里一次性置为失败并生成补偿清单，
// 之后逐个成员执行补偿，单个成员失败只记录、不影响其他成员，也不回滚团状态。
// 每一步都可以安全重跑：余额退款以订单号幂等，成员状态用条件更新守护。
package saga

import (
	"context"
	"fmt"
	"time"

	"groupbuy-platform/app/groupbuy/api/internal/client"
	"groupbuy-platform/app/groupbuy/api/internal/metrics"
	"groupbuy-platform/app/groupbuy/api/internal/mq"
	"groupbuy-platform/app/groupbuy/model"
	"groupbuy-platform/common/errorx"
	"groupbuy-platform/common/messaging"

	"github.com/pkg/errors"
	"github.com/zeromicro/go-zero/core/logx"
	"gorm.io/gorm"
)

// ==================== 补偿清单 ====================

// StepKind 补偿动作类型
type StepKind string

const (
	StepRefund      StepKind = "refund"       // 已支付：退余额 → 订单标记已退款 → 成员取消
	StepCancelOrder StepKind = "cancel_order" // 待支付：取消订单 → 成员取消
)

// 失败原因
const (
	ReasonExpired      = "expired"
	ReasonLeaderCancel = "leader_cancel"
)

// Step 单个成员的补偿动作（事务内生成的快照）
type Step struct {
	Kind     StepKind
	TeamID   uint64
	MemberID uint64
	UserID   uint64
	OrderID  uint64
	Amount   int64
}

// Report 一次补偿的执行摘要
type Report struct {
	TeamID        uint64   `json:"team_id"`
	Skipped       bool     `json:"skipped"` // 团已是终态，本次无操作
	Attempted     int      `json:"attempted"`
	Succeeded     int      `json:"succeeded"`
	Failed        int      `json:"failed"`
	FailedMembers []uint64 `json:"failed_members"`
}

func (r *Report) record(step Step, err error) {
	r.Attempted++
	if err != nil {
		r.Failed++
		r.FailedMembers = append(r.FailedMembers, step.MemberID)
		return
	}
	r.Succeeded++
}

// TeamCheck 加锁后对团的前置校验，返回 errSkip 表示无需处理
type TeamCheck func(team *model.Team) error

var errSkip = errors.New("saga: nothing to do")

// ==================== RefundSaga ====================

// RefundSaga 团级/成员级补偿
type RefundSaga struct {
	db          *gorm.DB
	teamModel   *model.TeamModel
	memberModel *model.MemberModel
	order       client.OrderService
	payment     client.PaymentService
	producer    *mq.Producer // 可为 nil
}

// NewRefundSaga 创建补偿执行器
func NewRefundSaga(
	db *gorm.DB,
	teamModel *model.TeamModel,
	memberModel *model.MemberModel,
	order client.OrderService,
	payment client.PaymentService,
	producer *mq.Producer,
) *RefundSaga {
	return &RefundSaga{
		db:          db,
		teamModel:   teamModel,
		memberModel: memberModel,
		order:       order,
		payment:     payment,
		producer:    producer,
	}
}

// RefundExpiredTeam 过期团补偿入口（定时任务调用）
//
// 团不在拼团中（已成团/已失败）或尚未过期时直接返回 Skipped，重复调用无副作用
func (s *RefundSaga) RefundExpiredTeam(ctx context.Context, teamID uint64) (*Report, error) {
	now := time.Now().Unix()
	return s.FailTeam(ctx, teamID, ReasonExpired, func(team *model.Team) error {
		if !team.IsForming() || team.ExpireTime >= now {
			return errSkip
		}
		return nil
	})
}

// FailTeam 锁团 → 校验 → 置为失败并生成补偿清单 → 提交 → 逐个补偿
func (s *RefundSaga) FailTeam(ctx context.Context, teamID uint64, reason string, check TeamCheck) (*Report, error) {
	logger := logx.WithContext(ctx)
	report := &Report{TeamID: teamID}

	var (
		team  *model.Team
		steps []Step
	)
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		team, err = s.teamModel.FindByIDForUpdate(ctx, tx, teamID)
		if err != nil {
			return err
		}
		if err := check(team); err != nil {
			return err
		}
		if !team.IsForming() {
			return errSkip
		}

		if err := s.teamModel.MarkFailed(ctx, tx, teamID); err != nil {
			return err
		}

		steps, err = s.snapshotSteps(ctx, tx, team)
		return err
	})
	if errors.Is(err, errSkip) {
		report.Skipped = true
		return report, nil
	}
	if err != nil {
		if errors.Is(err, model.ErrTeamNotFound) {
			return nil, errorx.ErrTeamNotFound()
		}
		if model.IsLockTimeoutErr(err) {
			return nil, errorx.ErrLockTimeout()
		}
		if _, ok := errors.Cause(err).(*errorx.BizError); ok {
			return nil, err
		}
		return nil, errors.Wrapf(err, "fail team %d", teamID)
	}

	metrics.TeamTransitions.WithLabelValues("failed").Inc()
	logger.Infof("[Saga] 团已置为失败: teamId=%d, reason=%s, 补偿步骤=%d", teamID, reason, len(steps))

	s.execute(ctx, steps, report)

	s.producer.PublishTeamFailed(ctx, messaging.TeamFailedEvent{
		TeamID:     team.ID,
		TeamNo:     team.TeamNo,
		ActivityID: team.ActivityID,
		Reason:     reason,
		Attempted:  report.Attempted,
		Failed:     report.Failed,
		FailedAt:   time.Now().Unix(),
	})

	if report.Failed > 0 {
		logger.Errorf("[Saga] 团补偿部分失败，待人工对账: teamId=%d, attempted=%d, failed=%d, members=%v",
			teamID, report.Attempted, report.Failed, report.FailedMembers)
	}
	return report, nil
}

// snapshotSteps 在团锁内生成补偿清单
//
// 只读成员，不修改成员行：成员锁必须先于团锁获取，成员状态变更全部放到各步骤里
func (s *RefundSaga) snapshotSteps(ctx context.Context, tx *gorm.DB, team *model.Team) ([]Step, error) {
	members, err := s.memberModel.ListByTeamStatus(ctx, tx, team.ID,
		model.MemberStatusUnpaid, model.MemberStatusPaid)
	if err != nil {
		return nil, err
	}
	return buildSteps(members), nil
}

// buildSteps 已支付 → 退款；待支付（含尚未回填订单号的占位）→ 取消订单
func buildSteps(members []model.Member) []Step {
	steps := make([]Step, 0, len(members))
	for i := range members {
		kind := StepCancelOrder
		if members[i].Status == model.MemberStatusPaid {
			kind = StepRefund
		}
		steps = append(steps, newStep(kind, &members[i]))
	}
	return steps
}

func newStep(kind StepKind, m *model.Member) Step {
	return Step{
		Kind:     kind,
		TeamID:   m.TeamID,
		MemberID: m.ID,
		UserID:   m.UserID,
		OrderID:  m.OrderID,
		Amount:   m.PayAmount,
	}
}

// execute 逐个执行补偿，单步失败不影响后续
func (s *RefundSaga) execute(ctx context.Context, steps []Step, report *Report) {
	for _, step := range steps {
		err := s.runStep(ctx, step)
		report.record(step, err)
		metrics.CompensationSteps.WithLabelValues(string(step.Kind), metrics.Result(err)).Inc()
		if err != nil {
			s.onStepFailed(ctx, step, err)
		}
	}
}

// runStep 执行单步补偿，panic 也按失败处理
func (s *RefundSaga) runStep(ctx context.Context, step Step) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()

	switch step.Kind {
	case StepRefund:
		return s.compensateRefund(ctx, step)
	case StepCancelOrder:
		return s.compensateCancelOrder(ctx, step)
	default:
		return errors.Errorf("unknown step kind %q", step.Kind)
	}
}

func (s *RefundSaga) onStepFailed(ctx context.Context, step Step, err error) {
	logx.WithContext(ctx).Errorf("[Saga] 成员补偿失败: teamId=%d, memberId=%d, userId=%d, orderId=%d, step=%s, err=%v",
		step.TeamID, step.MemberID, step.UserID, step.OrderID, step.Kind, err)

	s.producer.PublishMemberRefundFailed(ctx, messaging.MemberRefundFailedEvent{
		TeamID:   step.TeamID,
		MemberID: step.MemberID,
		UserID:   step.UserID,
		OrderID:  step.OrderID,
		Amount:   step.Amount,
		Step:     string(step.Kind),
		Error:    err.Error(),
		FailedAt: time.Now().Unix(),
	})
}

// ==================== 单步补偿 ====================

// compensateRefund 已支付成员：退余额 → 订单标记已退款 → 锁成员、锁团，成员取消并扣减人数
func (s *RefundSaga) compensateRefund(ctx context.Context, step Step) error {
	if err := s.payment.CreditBalance(ctx, step.UserID, step.Amount, step.OrderID); err != nil {
		return errors.Wrap(err, "credit balance")
	}
	if err := s.order.MarkRefunded(ctx, step.OrderID); err != nil {
		return errors.Wrap(err, "mark refunded")
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return s.cancelPaidMemberInTx(ctx, tx, step.MemberID)
	})
}

// compensateCancelOrder 待支付成员：锁成员重读订单号 → 占位直接取消 / 取消订单后成员取消
//
// 快照之后参团流程可能已回填订单号，以加锁重读的订单号为准
func (s *RefundSaga) compensateCancelOrder(ctx context.Context, step Step) error {
	var orderID uint64
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		member, err := s.memberModel.FindByIDForUpdate(ctx, tx, step.MemberID)
		if err != nil {
			return err
		}
		if member.Status != model.MemberStatusUnpaid {
			// 支付回调已按迟到支付处理
			return nil
		}
		if member.OrderID == 0 {
			return s.memberModel.CancelReservation(ctx, tx, member.ID)
		}
		orderID = member.OrderID
		return nil
	})
	if err != nil || orderID == 0 {
		return err
	}

	if err := s.order.CancelOrder(ctx, orderID); err != nil {
		return errors.Wrap(err, "cancel order")
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		member, err := s.memberModel.FindByIDForUpdate(ctx, tx, step.MemberID)
		if err != nil {
			return err
		}
		if member.Status != model.MemberStatusUnpaid {
			return nil
		}
		return s.memberModel.TransitStatus(ctx, tx, member.ID,
			model.MemberStatusUnpaid, model.MemberStatusCancelled)
	})
}

// cancelPaidMemberInTx 已支付成员 → 已取消，current_num - 1
//
// 加锁顺序：成员 → 团。成员已不是已支付状态时视为已处理
func (s *RefundSaga) cancelPaidMemberInTx(ctx context.Context, tx *gorm.DB, memberID uint64) error {
	member, err := s.memberModel.FindByIDForUpdate(ctx, tx, memberID)
	if err != nil {
		return err
	}
	if member.Status != model.MemberStatusPaid {
		return nil
	}
	if _, err := s.teamModel.FindByIDForUpdate(ctx, tx, member.TeamID); err != nil {
		return err
	}

	if err := s.memberModel.TransitStatus(ctx, tx, member.ID,
		model.MemberStatusPaid, model.MemberStatusCancelled); err != nil {
		return err
	}
	if err := s.teamModel.AddCurrentNum(ctx, tx, member.TeamID, -1); err != nil {
		if errors.Is(err, model.ErrTeamStatusConflict) {
			logx.WithContext(ctx).Errorf("[Saga] 数据异常: 团人数已为 0 但仍有已支付成员, teamId=%d, memberId=%d",
				member.TeamID, member.ID)
			return errorx.ErrIntegrityViolation(fmt.Sprintf("team %d current_num underflow", member.TeamID))
		}
		return err
	}
	return nil
}

// ==================== 成员级退款 ====================

// RefundMember 单个成员退款（退团、迟到支付）
//
// 余额退款失败直接返回，由调用方决定回滚或重试；
// 订单标记失败只记录并发出对账事件，不影响成员后续状态
func (s *RefundSaga) RefundMember(ctx context.Context, member *model.Member) error {
	if err := s.payment.CreditBalance(ctx, member.UserID, member.PayAmount, member.OrderID); err != nil {
		metrics.CompensationSteps.WithLabelValues(string(StepRefund), "failed").Inc()
		return errors.Wrap(err, "credit balance")
	}
	metrics.CompensationSteps.WithLabelValues(string(StepRefund), "succeeded").Inc()

	if err := s.order.MarkRefunded(ctx, member.OrderID); err != nil {
		s.onStepFailed(ctx, newStep(StepRefund, member), errors.Wrap(err, "mark refunded"))
	}
	return nil
}

// ==================== 人工对账 ====================

// ReconcileTeam 对已失败的团重跑未完成的补偿
//
// 余额退款以订单号幂等，已完成的成员不会重复处理
func (s *RefundSaga) ReconcileTeam(ctx context.Context, teamID uint64) (*Report, error) {
	team, err := s.teamModel.FindByID(ctx, teamID)
	if err != nil {
		if errors.Is(err, model.ErrTeamNotFound) {
			return nil, errorx.ErrTeamNotFound()
		}
		return nil, err
	}
	if team.Status != model.TeamStatusFailed {
		return nil, errorx.New(errorx.CodeTeamNotFailed)
	}

	members, err := s.memberModel.ListByTeamStatus(ctx, nil, teamID,
		model.MemberStatusUnpaid, model.MemberStatusPaid)
	if err != nil {
		return nil, err
	}

	steps := buildSteps(members)

	report := &Report{TeamID: teamID}
	s.execute(ctx, steps, report)
	logx.WithContext(ctx).Infof("[Saga] 对账完成: teamId=%d, attempted=%d, succeeded=%d, failed=%d",
		teamID, report.Attempted, report.Succeeded, report.Failed)
	return report, nil
}
