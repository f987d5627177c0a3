package saga_test

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"groupbuy-platform/app/groupbuy/api/internal/logic/payment"
	"groupbuy-platform/app/groupbuy/api/internal/logic/team"
	"groupbuy-platform/app/groupbuy/api/internal/testkit"
	"groupbuy-platform/app/groupbuy/api/internal/types"
	"groupbuy-platform/app/groupbuy/model"
	"groupbuy-platform/common/errorx"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"gorm.io/gorm"
)

type RefundSagaSuite struct {
	suite.Suite
	k    *testkit.Kit
	ctx  context.Context
	team *model.Team
}

func TestRefundSagaSuite(t *testing.T) {
	suite.Run(t, new(RefundSagaSuite))
}

func (s *RefundSagaSuite) SetupTest() {
	s.k = testkit.New(s.T())
	s.ctx = context.Background()
	activity := s.k.SeedActivity(s.T(), 4, 1000)
	s.team = s.k.SeedTeam(s.T(), activity, 1, 10, time.Now().Add(time.Hour).Unix())
}

func (s *RefundSagaSuite) join(userID uint64) *types.JoinResp {
	resp, err := team.NewJoinTeamLogic(testkit.UserCtx(userID, 10), s.k.SvcCtx).JoinTeam(&types.JoinTeamReq{
		TeamId:    s.team.ID,
		AddressId: 1,
		Quantity:  1,
	})
	s.Require().NoError(err)
	return resp
}

func (s *RefundSagaSuite) joinAndPay(userID uint64) *types.JoinResp {
	resp := s.join(userID)
	_, err := payment.NewPaymentCallbackLogic(s.ctx, s.k.SvcCtx).OnPaymentConfirmed(resp.OrderId)
	s.Require().NoError(err)
	return resp
}

func (s *RefundSagaSuite) TestExpiredTeamWithOnePaidMember() {
	paid := s.joinAndPay(101)
	unpaid := s.join(102)
	s.k.ExpireTeam(s.T(), s.team.ID)

	report, err := s.k.SvcCtx.RefundSaga.RefundExpiredTeam(s.ctx, s.team.ID)
	s.Require().NoError(err)
	s.False(report.Skipped)
	s.Equal(2, report.Attempted)
	s.Equal(2, report.Succeeded)
	s.Zero(report.Failed)

	got := s.k.Team(s.T(), s.team.ID)
	s.Equal(model.TeamStatusFailed, got.Status)
	s.Equal(uint32(0), got.CurrentNum)

	s.Equal(model.MemberStatusCancelled, s.k.Member(s.T(), paid.MemberId).Status)
	s.Equal(model.MemberStatusCancelled, s.k.Member(s.T(), unpaid.MemberId).Status)

	credit, ok := s.k.Payment.CreditOf(paid.OrderId)
	s.Require().True(ok)
	s.Equal(testkit.Credit{UserID: 101, Amount: 1000}, credit)
	s.Equal([]uint64{paid.OrderId}, s.k.Order.RefundedOrders())
	s.Equal([]uint64{unpaid.OrderId}, s.k.Order.CancelledOrders())
}

func (s *RefundSagaSuite) TestSweepTwiceSameState() {
	paid := s.joinAndPay(101)
	s.k.ExpireTeam(s.T(), s.team.ID)

	_, err := s.k.SvcCtx.RefundSaga.RefundExpiredTeam(s.ctx, s.team.ID)
	s.Require().NoError(err)
	calls := s.k.Payment.Calls

	report, err := s.k.SvcCtx.RefundSaga.RefundExpiredTeam(s.ctx, s.team.ID)
	s.Require().NoError(err)
	s.True(report.Skipped)
	s.Zero(report.Attempted)

	s.Equal(calls, s.k.Payment.Calls)
	s.Equal(1, s.k.Payment.CreditCount())
	s.Equal(model.MemberStatusCancelled, s.k.Member(s.T(), paid.MemberId).Status)
	s.Equal(model.TeamStatusFailed, s.k.Team(s.T(), s.team.ID).Status)
}

func (s *RefundSagaSuite) TestFaultIsolation() {
	m1 := s.joinAndPay(101)
	m2 := s.joinAndPay(102)
	m3 := s.joinAndPay(103)
	s.k.ExpireTeam(s.T(), s.team.ID)

	s.k.Payment.FailFor(102, errorx.ErrRPCError(assert.AnError))

	report, err := s.k.SvcCtx.RefundSaga.RefundExpiredTeam(s.ctx, s.team.ID)
	s.Require().NoError(err)
	s.Equal(3, report.Attempted)
	s.Equal(2, report.Succeeded)
	s.Equal(1, report.Failed)
	s.Equal([]uint64{m2.MemberId}, report.FailedMembers)

	s.Equal(model.TeamStatusFailed, s.k.Team(s.T(), s.team.ID).Status)
	s.Equal(model.MemberStatusCancelled, s.k.Member(s.T(), m1.MemberId).Status)
	s.Equal(model.MemberStatusPaid, s.k.Member(s.T(), m2.MemberId).Status)
	s.Equal(model.MemberStatusCancelled, s.k.Member(s.T(), m3.MemberId).Status)
	s.Equal(uint32(1), s.k.Team(s.T(), s.team.ID).CurrentNum)

	_, ok := s.k.Payment.CreditOf(m1.OrderId)
	s.True(ok)
	_, ok = s.k.Payment.CreditOf(m3.OrderId)
	s.True(ok)

	// 人工对账
	s.k.Payment.FailFor(102, nil)
	report, err = s.k.SvcCtx.RefundSaga.ReconcileTeam(s.ctx, s.team.ID)
	s.Require().NoError(err)
	s.Equal(1, report.Attempted)
	s.Equal(1, report.Succeeded)

	s.Equal(model.MemberStatusCancelled, s.k.Member(s.T(), m2.MemberId).Status)
	s.Equal(uint32(0), s.k.Team(s.T(), s.team.ID).CurrentNum)
	s.Equal(3, s.k.Payment.CreditCount())
}

func (s *RefundSagaSuite) TestSkipsTeamsNotDue() {
	s.joinAndPay(101)

	// 未过期
	report, err := s.k.SvcCtx.RefundSaga.RefundExpiredTeam(s.ctx, s.team.ID)
	s.Require().NoError(err)
	s.True(report.Skipped)
	s.Equal(model.TeamStatusForming, s.k.Team(s.T(), s.team.ID).Status)

	// 已成团
	s.joinAndPay(102)
	s.joinAndPay(103)
	s.joinAndPay(104)
	s.Require().Equal(model.TeamStatusSucceeded, s.k.Team(s.T(), s.team.ID).Status)
	s.k.ExpireTeam(s.T(), s.team.ID)

	report, err = s.k.SvcCtx.RefundSaga.RefundExpiredTeam(s.ctx, s.team.ID)
	s.Require().NoError(err)
	s.True(report.Skipped)
	s.Equal(model.TeamStatusSucceeded, s.k.Team(s.T(), s.team.ID).Status)
	s.Zero(s.k.Payment.CreditCount())
}

func (s *RefundSagaSuite) TestPendingReservationCancelledInPlace() {
	s.k.ExpireTeam(s.T(), s.team.ID)
	pending := s.insertReservation(105)

	report, err := s.k.SvcCtx.RefundSaga.RefundExpiredTeam(s.ctx, s.team.ID)
	s.Require().NoError(err)
	s.Equal(1, report.Attempted)
	s.Equal(1, report.Succeeded)
	s.Equal(model.MemberStatusCancelled, s.k.Member(s.T(), pending.ID).Status)
	s.Empty(s.k.Order.CancelledOrders())
}

// 快照读到占位后、补偿执行前，参团流程回填了订单号：必须取消该订单
func (s *RefundSagaSuite) TestOrderBoundAfterSnapshotIsCancelled() {
	s.k.ExpireTeam(s.T(), s.team.ID)
	pending := s.insertReservation(105)
	const boundOrderID = uint64(7001)

	var armed atomic.Bool
	armed.Store(true)
	s.Require().NoError(s.k.DB.Callback().Query().After("gorm:query").Register("test:bind_after_snapshot", func(db *gorm.DB) {
		if db.Statement.Schema == nil || db.Statement.Schema.Table != "group_buy_member" {
			return
		}
		if !armed.CompareAndSwap(true, false) {
			return
		}
		db.AddError(db.Session(&gorm.Session{NewDB: true}).
			Exec("UPDATE group_buy_member SET order_id = ? WHERE id = ?", boundOrderID, pending.ID).Error)
	}))

	report, err := s.k.SvcCtx.RefundSaga.RefundExpiredTeam(s.ctx, s.team.ID)
	s.Require().NoError(err)
	s.False(armed.Load())
	s.Equal(1, report.Attempted)
	s.Equal(1, report.Succeeded)

	got := s.k.Member(s.T(), pending.ID)
	s.Equal(boundOrderID, got.OrderID)
	s.Equal(model.MemberStatusCancelled, got.Status)
	s.Equal([]uint64{boundOrderID}, s.k.Order.CancelledOrders())
}

func (s *RefundSagaSuite) TestReconcileCancelsLeftoverReservation() {
	s.k.ExpireTeam(s.T(), s.team.ID)
	_, err := s.k.SvcCtx.RefundSaga.RefundExpiredTeam(s.ctx, s.team.ID)
	s.Require().NoError(err)

	// 团失败后才写入的占位
	pending := s.insertReservation(106)
	report, err := s.k.SvcCtx.RefundSaga.ReconcileTeam(s.ctx, s.team.ID)
	s.Require().NoError(err)
	s.Equal(1, report.Succeeded)
	s.Equal(model.MemberStatusCancelled, s.k.Member(s.T(), pending.ID).Status)
}

func (s *RefundSagaSuite) insertReservation(userID uint64) *model.Member {
	m := &model.Member{
		TeamID: s.team.ID,
		UserID: userID,
		Status: model.MemberStatusUnpaid,
	}
	s.Require().NoError(s.k.SvcCtx.MemberModel.Insert(s.ctx, nil, m))
	return m
}

func TestRefundExpiredTeamNotFound(t *testing.T) {
	k := testkit.New(t)
	_, err := k.SvcCtx.RefundSaga.RefundExpiredTeam(context.Background(), 99999)
	require.Error(t, err)
	assert.True(t, errorx.Is(err, errorx.CodeTeamNotFound), "got %v", err)
}
