// Package testkit 组装测试用服务上下文：sqlite 内存库 + miniredis + 内存下游服务
package testkit

import (
	"context"
	"fmt"
	"testing"
	"time"

	"groupbuy-platform/app/groupbuy/api/internal/config"
	"groupbuy-platform/app/groupbuy/api/internal/svc"
	"groupbuy-platform/app/groupbuy/model"
	"groupbuy-platform/common/ctxdata"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"github.com/zeromicro/go-zero/core/stores/redis"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Kit 测试依赖集合
type Kit struct {
	SvcCtx  *svc.ServiceContext
	DB      *gorm.DB
	Redis   *miniredis.Miniredis
	Order   *FakeOrder
	Payment *FakePayment
	User    *FakeUser
}

// New 创建测试上下文，测试结束自动释放
func New(t *testing.T) *Kit {
	t.Helper()

	db := NewDB(t)
	mr := miniredis.RunT(t)
	rds := redis.New(mr.Addr())

	k := &Kit{
		DB:      db,
		Redis:   mr,
		Order:   NewFakeOrder(),
		Payment: NewFakePayment(),
		User:    NewFakeUser(),
	}
	k.SvcCtx = svc.Assemble(Config(), db, rds, svc.Upstreams{
		Order:   k.Order,
		Payment: k.Payment,
		User:    k.User,
	}, nil)
	return k
}

// Config 测试配置（与 yaml 默认值一致，限流放宽）
func Config() config.Config {
	var c config.Config
	c.Team = config.TeamConf{
		MinRequiredNum:   2,
		MaxRequiredNum:   10,
		MinDurationHours: 1,
		MaxDurationHours: 72,
		MaxQuantity:      10,
		ListLimit:        20,
	}
	c.Cron = config.CronConf{
		ExpireIntervalSeconds: 3600,
		BatchSize:             2,
		ShipRetryDelaySeconds: 0,
		ReservationTTLSeconds: 300,
	}
	c.JoinLimit = config.JoinLimitConf{
		Period: 1,
		Quota:  1000,
	}
	return c
}

// NewDB sqlite 内存库，单连接保证事务串行
func NewDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:groupbuy_%s?mode=memory&cache=shared", uuid.New().String())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	sqlDB.SetMaxIdleConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, model.AutoMigrate(db))
	return db
}

// UserCtx 模拟已登录用户的请求上下文
func UserCtx(userID, communityID uint64) context.Context {
	ctx := ctxdata.WithUserID(context.Background(), userID)
	return ctxdata.WithCommunityID(ctx, communityID)
}

// ==================== 数据准备 ====================

// SeedActivity 创建进行中的活动，价格单位分
func (k *Kit) SeedActivity(t *testing.T, requiredNum uint32, groupPrice int64) *model.Activity {
	t.Helper()

	now := time.Now().Unix()
	a := &model.Activity{
		ProductID:   9001,
		GroupPrice:  groupPrice,
		RequiredNum: requiredNum,
		StartTime:   now - 3600,
		EndTime:     now + 86400,
		Status:      model.ActivityStatusOngoing,
	}
	require.NoError(t, k.SvcCtx.ActivityModel.Create(context.Background(), a))
	return a
}

// SeedTeam 直接创建拼团中的团
func (k *Kit) SeedTeam(t *testing.T, activity *model.Activity, leaderID, communityID uint64, expireAt int64) *model.Team {
	t.Helper()

	team := &model.Team{
		TeamNo:      "GB" + uuid.New().String()[:16],
		ActivityID:  activity.ID,
		LauncherID:  leaderID,
		LeaderID:    leaderID,
		CommunityID: communityID,
		RequiredNum: activity.RequiredNum,
		Status:      model.TeamStatusForming,
		ExpireTime:  expireAt,
	}
	require.NoError(t, k.SvcCtx.TeamModel.Insert(context.Background(), nil, team))
	return team
}

// ExpireTeam 把团的过期时间改到过去
func (k *Kit) ExpireTeam(t *testing.T, teamID uint64) {
	t.Helper()
	require.NoError(t, k.DB.Model(&model.Team{}).
		Where("id = ?", teamID).
		Update("expire_time", time.Now().Unix()-60).Error)
}

// Team 重新读取团
func (k *Kit) Team(t *testing.T, teamID uint64) *model.Team {
	t.Helper()
	team, err := k.SvcCtx.TeamModel.FindByID(context.Background(), teamID)
	require.NoError(t, err)
	return team
}

// Member 重新读取成员
func (k *Kit) Member(t *testing.T, memberID uint64) *model.Member {
	t.Helper()
	m, err := k.SvcCtx.MemberModel.FindByID(context.Background(), memberID)
	require.NoError(t, err)
	return m
}

// Members 团内全部成员
func (k *Kit) Members(t *testing.T, teamID uint64) []model.Member {
	t.Helper()
	members, err := k.SvcCtx.MemberModel.ListByTeam(context.Background(), nil, teamID)
	require.NoError(t, err)
	return members
}
