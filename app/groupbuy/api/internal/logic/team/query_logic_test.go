package team_test

import (
	"context"
	"testing"
	"time"

	"groupbuy-platform/app/groupbuy/api/internal/client"
	"groupbuy-platform/app/groupbuy/api/internal/logic/team"
	"groupbuy-platform/app/groupbuy/api/internal/testkit"
	"groupbuy-platform/app/groupbuy/api/internal/types"
	"groupbuy-platform/app/groupbuy/model"
	"groupbuy-platform/common/errorx"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetTeamDetail(t *testing.T) {
	k := testkit.New(t)
	tm := openTeam(t, k, 3)

	a, err := join(k, tm.ID, 100)
	require.NoError(t, err)
	pay(t, k, a.OrderId)
	_, err = join(k, tm.ID, 101)
	require.NoError(t, err)
	_, err = join(k, tm.ID, 102)
	require.NoError(t, err)
	_, err = leave(k, tm.ID, 102)
	require.NoError(t, err)

	resp, err := team.NewGetTeamDetailLogic(context.Background(), k.SvcCtx).
		GetTeamDetail(&types.TeamIdReq{TeamId: tm.ID})
	require.NoError(t, err)

	assert.Equal(t, tm.ID, resp.Team.Id)
	assert.Equal(t, uint32(1), resp.Team.CurrentNum)
	assert.Equal(t, uint32(2), resp.Team.RemainNum)
	require.NotNil(t, resp.Activity)
	assert.Equal(t, int64(1000), resp.Activity.GroupPrice)

	// 已取消成员不展示
	require.Len(t, resp.Members, 2)
	assert.Equal(t, uint64(100), resp.Members[0].UserId)
	assert.Equal(t, model.MemberStatusPaid, resp.Members[0].Status)
	assert.Equal(t, uint64(101), resp.Members[1].UserId)

	_, err = team.NewGetTeamDetailLogic(context.Background(), k.SvcCtx).
		GetTeamDetail(&types.TeamIdReq{TeamId: 99999})
	assert.True(t, errorx.Is(err, errorx.CodeTeamNotFound), "got %v", err)
}

func TestListActivityTeamsCommunityFirst(t *testing.T) {
	k := testkit.New(t)
	activity := k.SeedActivity(t, 3, 1000)
	expireAt := time.Now().Add(time.Hour).Unix()

	own := k.SeedTeam(t, activity, leaderID, communityID, expireAt)
	otherOld := k.SeedTeam(t, activity, 2, 20, expireAt)
	otherNew := k.SeedTeam(t, activity, 3, 30, expireAt)
	require.NoError(t, k.DB.Model(&model.Team{}).Where("id = ?", otherOld.ID).
		Update("created_at", time.Now().Unix()-600).Error)
	require.NoError(t, k.DB.Model(&model.Team{}).Where("id = ?", own.ID).
		Update("created_at", time.Now().Unix()-1200).Error)

	expired := k.SeedTeam(t, activity, 4, communityID, expireAt)
	k.ExpireTeam(t, expired.ID)

	// 未传 communityId 时取登录用户所属社区
	resp, err := team.NewListActivityTeamsLogic(testkit.UserCtx(100, communityID), k.SvcCtx).
		ListActivityTeams(&types.ListActivityTeamsReq{ActivityId: activity.ID})
	require.NoError(t, err)

	ids := make([]uint64, 0, len(resp.List))
	for _, item := range resp.List {
		ids = append(ids, item.Id)
	}
	assert.Equal(t, []uint64{own.ID, otherNew.ID, otherOld.ID}, ids)

	resp, err = team.NewListActivityTeamsLogic(context.Background(), k.SvcCtx).
		ListActivityTeams(&types.ListActivityTeamsReq{ActivityId: activity.ID, CommunityId: 20})
	require.NoError(t, err)
	require.Len(t, resp.List, 3)
	assert.Equal(t, otherOld.ID, resp.List[0].Id)
}

func TestListMyTeams(t *testing.T) {
	k := testkit.New(t)
	first := openTeam(t, k, 3)
	second := openTeam(t, k, 3)

	_, err := join(k, first.ID, 100)
	require.NoError(t, err)
	_, err = join(k, second.ID, 100)
	require.NoError(t, err)

	resp, err := team.NewListMyTeamsLogic(testkit.UserCtx(100, communityID), k.SvcCtx).
		ListMyTeams(&types.ListMyTeamsReq{Page: 1, PageSize: 1})
	require.NoError(t, err)

	assert.Equal(t, int64(2), resp.Total)
	require.Len(t, resp.List, 1)
	require.NotNil(t, resp.List[0].Team)
	assert.Equal(t, second.ID, resp.List[0].Team.Id)

	resp, err = team.NewListMyTeamsLogic(testkit.UserCtx(404, communityID), k.SvcCtx).
		ListMyTeams(&types.ListMyTeamsReq{Page: 1, PageSize: 20})
	require.NoError(t, err)
	assert.Zero(t, resp.Total)
	assert.Empty(t, resp.List)
}

func TestListLeaderTeams(t *testing.T) {
	k := testkit.New(t)
	activity := k.SeedActivity(t, 3, 1000)
	expireAt := time.Now().Add(time.Hour).Unix()

	first := k.SeedTeam(t, activity, leaderID, communityID, expireAt)
	failed := k.SeedTeam(t, activity, leaderID, communityID, expireAt)
	latest := k.SeedTeam(t, activity, leaderID, communityID, expireAt)
	k.SeedTeam(t, activity, 2, communityID, expireAt)
	require.NoError(t, k.DB.Model(&model.Team{}).Where("id = ?", failed.ID).
		Update("status", model.TeamStatusFailed).Error)

	ctx := testkit.UserCtx(leaderID, communityID)
	resp, err := team.NewListLeaderTeamsLogic(ctx, k.SvcCtx).
		ListLeaderTeams(&types.ListLeaderTeamsReq{Page: 1, PageSize: 20})
	require.NoError(t, err)
	assert.Equal(t, int64(3), resp.Total)
	require.Len(t, resp.List, 3)
	assert.Equal(t, latest.ID, resp.List[0].Id)

	forming := model.TeamStatusForming
	resp, err = team.NewListLeaderTeamsLogic(ctx, k.SvcCtx).
		ListLeaderTeams(&types.ListLeaderTeamsReq{Status: &forming, Page: 2, PageSize: 1})
	require.NoError(t, err)
	assert.Equal(t, int64(2), resp.Total)
	require.Len(t, resp.List, 1)
	assert.Equal(t, first.ID, resp.List[0].Id)
	assert.Equal(t, model.TeamStatusForming, resp.List[0].Status)

	failedStatus := model.TeamStatusFailed
	resp, err = team.NewListLeaderTeamsLogic(ctx, k.SvcCtx).
		ListLeaderTeams(&types.ListLeaderTeamsReq{Status: &failedStatus, Page: 1, PageSize: 20})
	require.NoError(t, err)
	require.Len(t, resp.List, 1)
	assert.Equal(t, failed.ID, resp.List[0].Id)

	_, err = team.NewListLeaderTeamsLogic(context.Background(), k.SvcCtx).
		ListLeaderTeams(&types.ListLeaderTeamsReq{Page: 1, PageSize: 20})
	assert.True(t, errorx.Is(err, errorx.CodeUnauthorized), "got %v", err)
}

func TestCancelTeam(t *testing.T) {
	k := testkit.New(t)
	tm := openTeam(t, k, 3)

	paid, err := join(k, tm.ID, 100)
	require.NoError(t, err)
	pay(t, k, paid.OrderId)
	unpaid, err := join(k, tm.ID, 101)
	require.NoError(t, err)

	_, err = team.NewCancelTeamLogic(testkit.UserCtx(100, communityID), k.SvcCtx).
		CancelTeam(&types.TeamIdReq{TeamId: tm.ID})
	assert.True(t, errorx.Is(err, errorx.CodeNotTeamLeader), "got %v", err)
	assert.Equal(t, model.TeamStatusForming, k.Team(t, tm.ID).Status)

	resp, err := team.NewCancelTeamLogic(testkit.UserCtx(leaderID, communityID), k.SvcCtx).
		CancelTeam(&types.TeamIdReq{TeamId: tm.ID})
	require.NoError(t, err)
	assert.Equal(t, 2, resp.Attempted)
	assert.Equal(t, 2, resp.Succeeded)
	assert.Empty(t, resp.FailedMembers)

	got := k.Team(t, tm.ID)
	assert.Equal(t, model.TeamStatusFailed, got.Status)
	assert.Equal(t, uint32(0), got.CurrentNum)
	assert.Equal(t, model.MemberStatusCancelled, k.Member(t, paid.MemberId).Status)
	assert.Equal(t, model.MemberStatusCancelled, k.Member(t, unpaid.MemberId).Status)
	assert.Equal(t, []uint64{paid.OrderId}, k.Order.RefundedOrders())
	assert.Equal(t, []uint64{unpaid.OrderId}, k.Order.CancelledOrders())

	// 再次取消
	_, err = team.NewCancelTeamLogic(testkit.UserCtx(leaderID, communityID), k.SvcCtx).
		CancelTeam(&types.TeamIdReq{TeamId: tm.ID})
	assert.True(t, errorx.Is(err, errorx.CodeTeamClosed), "got %v", err)
}

func TestReconcileTeamRequiresAdmin(t *testing.T) {
	k := testkit.New(t)
	k.User.Put(900, client.RoleAdmin, 0)
	tm := openTeam(t, k, 3)

	_, err := team.NewReconcileTeamLogic(testkit.UserCtx(100, communityID), k.SvcCtx).
		ReconcileTeam(&types.TeamIdReq{TeamId: tm.ID})
	assert.True(t, errorx.Is(err, errorx.CodeForbidden), "got %v", err)

	_, err = team.NewReconcileTeamLogic(testkit.UserCtx(900, 0), k.SvcCtx).
		ReconcileTeam(&types.TeamIdReq{TeamId: tm.ID})
	assert.True(t, errorx.Is(err, errorx.CodeTeamNotFailed), "got %v", err)
}
