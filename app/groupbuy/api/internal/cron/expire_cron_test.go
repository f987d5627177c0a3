package cron_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"groupbuy-platform/app/groupbuy/api/internal/cron"
	"groupbuy-platform/app/groupbuy/api/internal/logic/payment"
	"groupbuy-platform/app/groupbuy/api/internal/logic/team"
	"groupbuy-platform/app/groupbuy/api/internal/testkit"
	"groupbuy-platform/app/groupbuy/api/internal/types"
	"groupbuy-platform/app/groupbuy/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func joinAndPay(t *testing.T, k *testkit.Kit, teamID, userID uint64) *types.JoinResp {
	t.Helper()
	resp, err := team.NewJoinTeamLogic(testkit.UserCtx(userID, 10), k.SvcCtx).JoinTeam(&types.JoinTeamReq{
		TeamId:    teamID,
		AddressId: 1,
		Quantity:  1,
	})
	require.NoError(t, err)
	_, err = payment.NewPaymentCallbackLogic(context.Background(), k.SvcCtx).OnPaymentConfirmed(resp.OrderId)
	require.NoError(t, err)
	return resp
}

func TestRunOnceExpiresAcrossBatches(t *testing.T) {
	k := testkit.New(t)
	activity := k.SeedActivity(t, 3, 500)
	future := time.Now().Add(time.Hour).Unix()

	var expired []*model.Team
	for i := 0; i < 3; i++ {
		tm := k.SeedTeam(t, activity, 1, 10, future)
		joinAndPay(t, k, tm.ID, uint64(200+i))
		k.ExpireTeam(t, tm.ID)
		expired = append(expired, tm)
	}
	live := k.SeedTeam(t, activity, 1, 10, future)
	joinAndPay(t, k, live.ID, 300)

	c := cron.NewExpireCron(k.SvcCtx)
	report := c.RunOnce(context.Background())
	assert.Equal(t, 3, report.Attempted)
	assert.Equal(t, 3, report.Succeeded)
	assert.Zero(t, report.Failed)
	assert.Zero(t, report.MemberFailures)

	for _, tm := range expired {
		got := k.Team(t, tm.ID)
		assert.Equal(t, model.TeamStatusFailed, got.Status)
		assert.Equal(t, uint32(0), got.CurrentNum)
	}
	assert.Equal(t, model.TeamStatusForming, k.Team(t, live.ID).Status)
	assert.Equal(t, 3, k.Payment.CreditCount())

	// 第二次扫描没有可处理的团
	report = c.RunOnce(context.Background())
	assert.Zero(t, report.Attempted)
	assert.Equal(t, 3, k.Payment.CreditCount())
}

func TestRunOnceCountsMemberFailures(t *testing.T) {
	k := testkit.New(t)
	activity := k.SeedActivity(t, 3, 500)
	tm := k.SeedTeam(t, activity, 1, 10, time.Now().Add(time.Hour).Unix())
	joinAndPay(t, k, tm.ID, 201)
	m2 := joinAndPay(t, k, tm.ID, 202)
	k.ExpireTeam(t, tm.ID)

	k.Payment.FailFor(202, errors.New("account service down"))

	report := cron.NewExpireCron(k.SvcCtx).RunOnce(context.Background())
	assert.Equal(t, 1, report.Attempted)
	assert.Equal(t, 1, report.Succeeded)
	assert.Equal(t, 1, report.MemberFailures)
	assert.Equal(t, model.TeamStatusFailed, k.Team(t, tm.ID).Status)
	assert.Equal(t, model.MemberStatusPaid, k.Member(t, m2.MemberId).Status)
}

func TestRunOnceRedeliversShipNotify(t *testing.T) {
	k := testkit.New(t)
	activity := k.SeedActivity(t, 2, 500)
	tm := k.SeedTeam(t, activity, 1, 10, time.Now().Add(time.Hour).Unix())

	k.Order.SetReadyToShipErr(errors.New("order service down"))
	a := joinAndPay(t, k, tm.ID, 201)
	b := joinAndPay(t, k, tm.ID, 202)

	got := k.Team(t, tm.ID)
	require.Equal(t, model.TeamStatusSucceeded, got.Status)
	require.False(t, got.ShipNotified)

	k.Order.SetReadyToShipErr(nil)
	report := cron.NewExpireCron(k.SvcCtx).RunOnce(context.Background())
	assert.Equal(t, 1, report.ShipRedelivered)
	assert.True(t, k.Team(t, tm.ID).ShipNotified)

	calls := k.Order.ShipCalls()
	require.NotEmpty(t, calls)
	assert.ElementsMatch(t, []uint64{a.OrderId, b.OrderId}, calls[len(calls)-1])

	// 已通知的团不再重投
	report = cron.NewExpireCron(k.SvcCtx).RunOnce(context.Background())
	assert.Zero(t, report.ShipRedelivered)
}

func TestRunOnceCleansStaleReservations(t *testing.T) {
	k := testkit.New(t)
	activity := k.SeedActivity(t, 3, 500)
	tm := k.SeedTeam(t, activity, 1, 10, time.Now().Add(time.Hour).Unix())

	stale := &model.Member{TeamID: tm.ID, UserID: 201, JoinTime: time.Now().Unix() - 1000}
	fresh := &model.Member{TeamID: tm.ID, UserID: 202, JoinTime: time.Now().Unix()}
	require.NoError(t, k.SvcCtx.MemberModel.Insert(context.Background(), nil, stale))
	require.NoError(t, k.SvcCtx.MemberModel.Insert(context.Background(), nil, fresh))

	report := cron.NewExpireCron(k.SvcCtx).RunOnce(context.Background())
	assert.Equal(t, 1, report.StaleReservations)

	_, err := k.SvcCtx.MemberModel.FindByID(context.Background(), stale.ID)
	assert.ErrorIs(t, err, model.ErrMemberNotFound)
	assert.Equal(t, model.MemberStatusUnpaid, k.Member(t, fresh.ID).Status)
}
