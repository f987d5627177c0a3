package team_test

import (
	"context"
	"sync"
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
)

const (
	leaderID    uint64 = 1
	communityID uint64 = 10
	addressID   uint64 = 77
)

func join(k *testkit.Kit, teamID, userID uint64) (*types.JoinResp, error) {
	ctx := testkit.UserCtx(userID, communityID)
	return team.NewJoinTeamLogic(ctx, k.SvcCtx).JoinTeam(&types.JoinTeamReq{
		TeamId:    teamID,
		AddressId: addressID,
		Quantity:  1,
	})
}

func pay(t *testing.T, k *testkit.Kit, orderID uint64) *types.PaymentCallbackResp {
	t.Helper()
	resp, err := payment.NewPaymentCallbackLogic(context.Background(), k.SvcCtx).OnPaymentConfirmed(orderID)
	require.NoError(t, err)
	return resp
}

func openTeam(t *testing.T, k *testkit.Kit, requiredNum uint32) *model.Team {
	t.Helper()
	activity := k.SeedActivity(t, requiredNum, 1000)
	return k.SeedTeam(t, activity, leaderID, communityID, time.Now().Add(time.Hour).Unix())
}

func TestJoinTeamSuccess(t *testing.T) {
	k := testkit.New(t)
	tm := openTeam(t, k, 3)

	ctx := testkit.UserCtx(100, communityID)
	resp, err := team.NewJoinTeamLogic(ctx, k.SvcCtx).JoinTeam(&types.JoinTeamReq{
		TeamId:    tm.ID,
		AddressId: addressID,
		Quantity:  2,
	})
	require.NoError(t, err)

	assert.Equal(t, tm.ID, resp.TeamId)
	assert.NotZero(t, resp.OrderId)
	assert.Equal(t, int64(2000), resp.PayAmount)
	assert.Equal(t, uint32(2), resp.RemainNum)
	assert.Equal(t, tm.ExpireTime, resp.ExpireTime)

	m := k.Member(t, resp.MemberId)
	assert.Equal(t, model.MemberStatusUnpaid, m.Status)
	assert.Equal(t, resp.OrderId, m.OrderID)
	assert.False(t, m.IsLauncher)

	require.Len(t, k.Order.Created, 1)
	created := k.Order.Created[0]
	assert.Equal(t, "join:"+itoa(tm.ID)+":100", created.BizNo)
	assert.Equal(t, leaderID, created.LeaderID)
	assert.Equal(t, uint32(2), created.Quantity)
	assert.Equal(t, int64(1000), created.UnitPrice)

	// 未支付不计入 current_num
	assert.Equal(t, uint32(0), k.Team(t, tm.ID).CurrentNum)
}

func TestJoinTeamConcurrentSameUser(t *testing.T) {
	k := testkit.New(t)
	tm := openTeam(t, k, 5)

	const workers = 8
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		success   int
		duplicate int
	)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := join(k, tm.ID, 200)

			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				success++
			case errorx.Is(err, errorx.CodeDuplicateJoin):
				duplicate++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, success)
	assert.Equal(t, workers-1, duplicate)
	assert.Len(t, k.Members(t, tm.ID), 1)
	assert.Equal(t, 1, k.Order.CreatedCount())
}

func TestJoinTeamLastSlotRace(t *testing.T) {
	k := testkit.New(t)
	tm := openTeam(t, k, 2)

	first, err := join(k, tm.ID, 100)
	require.NoError(t, err)
	pay(t, k, first.OrderId)

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		success int
		full    int
	)
	for _, uid := range []uint64{201, 202} {
		wg.Add(1)
		go func(uid uint64) {
			defer wg.Done()
			_, err := join(k, tm.ID, uid)

			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				success++
			case errorx.Is(err, errorx.CodeTeamFull), errorx.Is(err, errorx.CodeDuplicateJoin):
				full++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}(uid)
	}
	wg.Wait()

	assert.Equal(t, 1, success)
	assert.Equal(t, 1, full)
}

func TestJoinTeamAtMostRequiredMembersPaid(t *testing.T) {
	k := testkit.New(t)
	tm := openTeam(t, k, 3)

	var (
		wg     sync.WaitGroup
		mu     sync.Mutex
		orders []uint64
	)
	for uid := uint64(300); uid < 310; uid++ {
		wg.Add(1)
		go func(uid uint64) {
			defer wg.Done()
			resp, err := join(k, tm.ID, uid)
			if err != nil {
				assert.True(t, errorx.Is(err, errorx.CodeTeamFull), "unexpected error: %v", err)
				return
			}
			mu.Lock()
			orders = append(orders, resp.OrderId)
			mu.Unlock()
		}(uid)
	}
	wg.Wait()
	require.Len(t, orders, 3)

	var completed int
	for _, orderID := range orders {
		if pay(t, k, orderID).Outcome == payment.OutcomeCompleted {
			completed++
		}
	}
	assert.Equal(t, 1, completed)

	got := k.Team(t, tm.ID)
	assert.Equal(t, model.TeamStatusSucceeded, got.Status)
	assert.Equal(t, uint32(3), got.CurrentNum)
	assert.Len(t, k.Order.ShipCalls(), 1)
}

func TestJoinTeamOccupiedByUnpaidReservations(t *testing.T) {
	k := testkit.New(t)
	tm := openTeam(t, k, 2)

	_, err := join(k, tm.ID, 100)
	require.NoError(t, err)
	_, err = join(k, tm.ID, 101)
	require.NoError(t, err)

	_, err = join(k, tm.ID, 102)
	assert.True(t, errorx.Is(err, errorx.CodeTeamFull), "got %v", err)
}

func TestJoinTeamClosed(t *testing.T) {
	k := testkit.New(t)

	expired := openTeam(t, k, 3)
	k.ExpireTeam(t, expired.ID)
	_, err := join(k, expired.ID, 100)
	assert.True(t, errorx.Is(err, errorx.CodeTeamClosed), "got %v", err)

	failed := openTeam(t, k, 3)
	require.NoError(t, k.DB.Model(&model.Team{}).Where("id = ?", failed.ID).
		Update("status", model.TeamStatusFailed).Error)
	_, err = join(k, failed.ID, 100)
	assert.True(t, errorx.Is(err, errorx.CodeTeamClosed), "got %v", err)

	_, err = join(k, 99999, 100)
	assert.True(t, errorx.Is(err, errorx.CodeTeamNotFound), "got %v", err)

	assert.Zero(t, k.Order.CreatedCount())
}

func TestJoinTeamValidation(t *testing.T) {
	k := testkit.New(t)
	tm := openTeam(t, k, 3)
	ctx := testkit.UserCtx(100, communityID)
	l := team.NewJoinTeamLogic(ctx, k.SvcCtx)

	_, err := l.JoinTeam(&types.JoinTeamReq{TeamId: tm.ID, Quantity: 1})
	assert.True(t, errorx.Is(err, errorx.CodeAddressInvalid), "got %v", err)

	_, err = l.JoinTeam(&types.JoinTeamReq{TeamId: tm.ID, AddressId: addressID, Quantity: 11})
	assert.True(t, errorx.Is(err, errorx.CodeInvalidQuantity), "got %v", err)

	_, err = team.NewJoinTeamLogic(context.Background(), k.SvcCtx).
		JoinTeam(&types.JoinTeamReq{TeamId: tm.ID, AddressId: addressID, Quantity: 1})
	assert.True(t, errorx.Is(err, errorx.CodeUnauthorized), "got %v", err)

	assert.Empty(t, k.Members(t, tm.ID))
}

func TestJoinTeamCreateOrderFailureReleasesSlot(t *testing.T) {
	k := testkit.New(t)
	tm := openTeam(t, k, 2)

	k.Order.SetCreateErr(errorx.ErrAddressInvalid())
	_, err := join(k, tm.ID, 100)
	assert.True(t, errorx.Is(err, errorx.CodeAddressInvalid), "got %v", err)
	assert.Empty(t, k.Members(t, tm.ID))

	// 名额已释放，可以重新参团
	k.Order.SetCreateErr(nil)
	resp, err := join(k, tm.ID, 100)
	require.NoError(t, err)
	assert.NotZero(t, resp.OrderId)
}

func TestJoinTeamDuplicateAfterLeave(t *testing.T) {
	k := testkit.New(t)
	tm := openTeam(t, k, 3)

	_, err := join(k, tm.ID, 100)
	require.NoError(t, err)

	_, err = team.NewLeaveTeamLogic(testkit.UserCtx(100, communityID), k.SvcCtx).
		LeaveTeam(&types.TeamIdReq{TeamId: tm.ID})
	require.NoError(t, err)

	_, err = join(k, tm.ID, 100)
	assert.True(t, errorx.Is(err, errorx.CodeDuplicateJoin), "got %v", err)
}

func TestJoinTeamRateLimited(t *testing.T) {
	k := testkit.New(t)
	c := testkit.Config()
	c.JoinLimit.Quota = 1
	k.SvcCtx.Config = c
	k.SvcCtx.JoinLimiter = newLimiter(k, c)

	tm := openTeam(t, k, 5)
	_, err := join(k, tm.ID, 100)
	require.NoError(t, err)

	_, err = join(k, tm.ID, 100)
	assert.True(t, errorx.Is(err, errorx.CodeTooManyRequests), "got %v", err)
}
