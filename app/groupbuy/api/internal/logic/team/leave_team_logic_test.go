package team_test

import (
	"testing"

	"groupbuy-platform/app/groupbuy/api/internal/client"
	"groupbuy-platform/app/groupbuy/api/internal/logic/team"
	"groupbuy-platform/app/groupbuy/api/internal/testkit"
	"groupbuy-platform/app/groupbuy/api/internal/types"
	"groupbuy-platform/app/groupbuy/model"
	"groupbuy-platform/common/errorx"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func leave(k *testkit.Kit, teamID, userID uint64) (*types.LeaveTeamResp, error) {
	return team.NewLeaveTeamLogic(testkit.UserCtx(userID, communityID), k.SvcCtx).
		LeaveTeam(&types.TeamIdReq{TeamId: teamID})
}

func TestLeaveTeamUnpaid(t *testing.T) {
	k := testkit.New(t)
	tm := openTeam(t, k, 3)

	joined, err := join(k, tm.ID, 100)
	require.NoError(t, err)

	resp, err := leave(k, tm.ID, 100)
	require.NoError(t, err)
	assert.False(t, resp.Refunded)

	assert.Equal(t, model.MemberStatusCancelled, k.Member(t, joined.MemberId).Status)
	assert.Equal(t, []uint64{joined.OrderId}, k.Order.CancelledOrders())
	assert.Zero(t, k.Payment.CreditCount())
}

func TestLeaveTeamPaid(t *testing.T) {
	k := testkit.New(t)
	tm := openTeam(t, k, 3)

	joined, err := join(k, tm.ID, 100)
	require.NoError(t, err)
	pay(t, k, joined.OrderId)
	require.Equal(t, uint32(1), k.Team(t, tm.ID).CurrentNum)

	resp, err := leave(k, tm.ID, 100)
	require.NoError(t, err)
	assert.True(t, resp.Refunded)

	assert.Equal(t, model.MemberStatusCancelled, k.Member(t, joined.MemberId).Status)
	assert.Equal(t, uint32(0), k.Team(t, tm.ID).CurrentNum)

	credit, ok := k.Payment.CreditOf(joined.OrderId)
	require.True(t, ok)
	assert.Equal(t, testkit.Credit{UserID: 100, Amount: 1000}, credit)
	assert.Equal(t, []uint64{joined.OrderId}, k.Order.RefundedOrders())
}

func TestLeaveTeamRefundFailureRollsBack(t *testing.T) {
	k := testkit.New(t)
	tm := openTeam(t, k, 3)

	joined, err := join(k, tm.ID, 100)
	require.NoError(t, err)
	pay(t, k, joined.OrderId)

	k.Payment.FailFor(100, errorx.ErrRPCError(assert.AnError))
	_, err = leave(k, tm.ID, 100)
	assert.True(t, errorx.Is(err, errorx.CodeRefundFailed), "got %v", err)

	assert.Equal(t, model.MemberStatusPaid, k.Member(t, joined.MemberId).Status)
	assert.Equal(t, uint32(1), k.Team(t, tm.ID).CurrentNum)

	// 恢复后重试成功
	k.Payment.FailFor(100, nil)
	resp, err := leave(k, tm.ID, 100)
	require.NoError(t, err)
	assert.True(t, resp.Refunded)
	assert.Equal(t, 1, k.Payment.CreditCount())
}

func TestLeaveTeamRejected(t *testing.T) {
	k := testkit.New(t)
	k.User.Put(leaderID, client.RoleLeader, communityID)
	activity := k.SeedActivity(t, 2, 1000)

	launched, err := launch(k, leaderID, &types.LaunchTeamReq{
		ActivityId:      activity.ID,
		DurationHours:   1,
		JoinImmediately: true,
		AddressId:       addressID,
	})
	require.NoError(t, err)

	// 发起人不能退团
	_, err = leave(k, launched.TeamId, leaderID)
	assert.True(t, errorx.Is(err, errorx.CodeMemberCannotLeave), "got %v", err)

	// 非成员
	_, err = leave(k, launched.TeamId, 404)
	assert.True(t, errorx.Is(err, errorx.CodeMemberNotFound), "got %v", err)

	// 成团后不能退团
	other, err := join(k, launched.TeamId, 100)
	require.NoError(t, err)
	pay(t, k, launched.Join.OrderId)
	pay(t, k, other.OrderId)
	require.Equal(t, model.TeamStatusSucceeded, k.Team(t, launched.TeamId).Status)

	_, err = leave(k, launched.TeamId, 100)
	assert.True(t, errorx.Is(err, errorx.CodeTeamClosed), "got %v", err)
}

func TestRemoveMember(t *testing.T) {
	k := testkit.New(t)
	tm := openTeam(t, k, 3)

	joined, err := join(k, tm.ID, 100)
	require.NoError(t, err)
	pay(t, k, joined.OrderId)

	// 非本团团长
	_, err = team.NewRemoveMemberLogic(testkit.UserCtx(555, communityID), k.SvcCtx).
		RemoveMember(&types.RemoveMemberReq{TeamId: tm.ID, UserId: 100})
	assert.True(t, errorx.Is(err, errorx.CodeNotTeamLeader), "got %v", err)
	assert.Equal(t, model.MemberStatusPaid, k.Member(t, joined.MemberId).Status)

	// 团长不能移除自己
	_, err = team.NewRemoveMemberLogic(testkit.UserCtx(leaderID, communityID), k.SvcCtx).
		RemoveMember(&types.RemoveMemberReq{TeamId: tm.ID, UserId: leaderID})
	assert.True(t, errorx.Is(err, errorx.CodeMemberCannotLeave), "got %v", err)

	resp, err := team.NewRemoveMemberLogic(testkit.UserCtx(leaderID, communityID), k.SvcCtx).
		RemoveMember(&types.RemoveMemberReq{TeamId: tm.ID, UserId: 100})
	require.NoError(t, err)
	assert.True(t, resp.Refunded)
	assert.Equal(t, model.MemberStatusCancelled, k.Member(t, joined.MemberId).Status)
	assert.Equal(t, uint32(0), k.Team(t, tm.ID).CurrentNum)
}
