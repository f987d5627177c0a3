package cache_test

import (
	"context"
	"testing"
	"time"

	"groupbuy-platform/app/groupbuy/api/internal/cache"
	"groupbuy-platform/app/groupbuy/api/internal/testkit"
	"groupbuy-platform/app/groupbuy/model"
	commonCache "groupbuy-platform/common/cache"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zeromicro/go-zero/core/stores/redis"
)

func TestActivityCacheGetByID(t *testing.T) {
	db := testkit.NewDB(t)
	mr := miniredis.RunT(t)
	activityModel := model.NewActivityModel(db)
	c := cache.NewActivityCache(redis.New(mr.Addr()), activityModel)
	ctx := context.Background()

	now := time.Now().Unix()
	a := &model.Activity{
		ProductID:   9001,
		GroupPrice:  1990,
		RequiredNum: 3,
		StartTime:   now - 60,
		EndTime:     now + 3600,
		Status:      model.ActivityStatusOngoing,
	}
	require.NoError(t, activityModel.Create(ctx, a))

	got, err := c.GetByID(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1990), got.GroupPrice)
	assert.True(t, mr.Exists(commonCache.GroupBuyActivityKey(a.ID)))

	ttl := mr.TTL(commonCache.GroupBuyActivityKey(a.ID))
	assert.InDelta(t, commonCache.DefaultTTL.Seconds(), ttl.Seconds(), commonCache.DefaultTTL.Seconds()*0.11)

	// 命中缓存时不回源
	require.NoError(t, db.Model(&model.Activity{}).Where("id = ?", a.ID).Update("group_price", 2990).Error)
	got, err = c.GetByID(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1990), got.GroupPrice)

	require.NoError(t, c.Invalidate(ctx, a.ID))
	got, err = c.GetByID(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(2990), got.GroupPrice)
}

func TestActivityCacheNotFound(t *testing.T) {
	db := testkit.NewDB(t)
	mr := miniredis.RunT(t)
	c := cache.NewActivityCache(redis.New(mr.Addr()), model.NewActivityModel(db))

	_, err := c.GetByID(context.Background(), 404)
	assert.ErrorIs(t, err, model.ErrActivityNotFound)

	val, err := mr.Get(commonCache.GroupBuyActivityKey(404))
	require.NoError(t, err)
	assert.Equal(t, commonCache.NullPlaceholder, val)

	_, err = c.GetByID(context.Background(), 404)
	assert.ErrorIs(t, err, model.ErrActivityNotFound)
}

func TestActivityCacheRedisDown(t *testing.T) {
	db := testkit.NewDB(t)
	mr := miniredis.RunT(t)
	activityModel := model.NewActivityModel(db)
	c := cache.NewActivityCache(redis.New(mr.Addr()), activityModel)
	ctx := context.Background()

	a := &model.Activity{ProductID: 1, GroupPrice: 100, RequiredNum: 2, EndTime: time.Now().Unix() + 60, Status: model.ActivityStatusOngoing}
	require.NoError(t, activityModel.Create(ctx, a))

	mr.Close()
	got, err := c.GetByID(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, a.ID, got.ID)
}
