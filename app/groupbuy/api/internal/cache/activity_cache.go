// Package cache 拼团活动模板的读缓存
//
// 只缓存活动模板（价格、成团人数、时间窗），团的 current_num 和状态
// 永远在事务里读写，不进缓存
package cache

import (
	"context"
	"encoding/json"
	"errors"

	"groupbuy-platform/app/groupbuy/model"
	commonCache "groupbuy-platform/common/cache"

	"github.com/zeromicro/go-zero/core/logx"
	"github.com/zeromicro/go-zero/core/stores/redis"
	"golang.org/x/sync/singleflight"
)

// ==================== ActivityCache 拼团活动缓存 ====================
//
// 缓存策略：
//   - Key: groupbuy:activity:{id}
//   - TTL: 5min ± 10%，空值 1min
//   - 失效时机: 管理端修改活动后调用 Invalidate

// ActivityCache 拼团活动缓存服务
type ActivityCache struct {
	rds           *redis.Redis
	activityModel *model.ActivityModel
	sfGroup       singleflight.Group
}

// NewActivityCache 创建活动缓存服务
func NewActivityCache(rds *redis.Redis, activityModel *model.ActivityModel) *ActivityCache {
	return &ActivityCache{
		rds:           rds,
		activityModel: activityModel,
	}
}

// activityCacheData 缓存数据结构，只保留拼团需要的字段
type activityCacheData struct {
	ID          uint64 `json:"id"`
	ProductID   uint64 `json:"product_id"`
	GroupPrice  int64  `json:"group_price"`
	RequiredNum uint32 `json:"required_num"`
	MaxNum      uint32 `json:"max_num"`
	StartTime   int64  `json:"start_time"`
	EndTime     int64  `json:"end_time"`
	Status      int8   `json:"status"`
}

// GetByID 获取拼团活动（带缓存）
//
// Redis 故障时降级直接查 DB；不存在时返回 model.ErrActivityNotFound
func (c *ActivityCache) GetByID(ctx context.Context, id uint64) (*model.Activity, error) {
	key := commonCache.GroupBuyActivityKey(id)

	val, err := c.rds.GetCtx(ctx, key)
	if err != nil && !errors.Is(err, redis.Nil) {
		logx.WithContext(ctx).Errorf("[ActivityCache] Redis 错误，降级查 DB: key=%s, err=%v", key, err)
		return c.activityModel.FindByID(ctx, id)
	}

	if val != "" {
		if val == commonCache.NullPlaceholder {
			return nil, model.ErrActivityNotFound
		}

		var data activityCacheData
		if err := json.Unmarshal([]byte(val), &data); err != nil {
			logx.WithContext(ctx).Errorf("[ActivityCache] 反序列化失败: key=%s, err=%v", key, err)
			_, _ = c.rds.DelCtx(ctx, key)
			return c.activityModel.FindByID(ctx, id)
		}
		return data.toActivity(), nil
	}

	// 未命中，singleflight 合并并发回源
	result, err, _ := c.sfGroup.Do(key, func() (interface{}, error) {
		return c.loadAndCache(ctx, id, key)
	})
	if err != nil {
		return nil, err
	}
	return result.(*model.Activity), nil
}

// loadAndCache 回源并写缓存，写缓存失败不影响返回
func (c *ActivityCache) loadAndCache(ctx context.Context, id uint64, key string) (*model.Activity, error) {
	activity, err := c.activityModel.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, model.ErrActivityNotFound) {
			_ = c.rds.SetexCtx(ctx, key, commonCache.NullPlaceholder, int(commonCache.NullTTL.Seconds()))
		}
		return nil, err
	}

	data, err := json.Marshal(toCacheData(activity))
	if err != nil {
		logx.WithContext(ctx).Errorf("[ActivityCache] 序列化失败: id=%d, err=%v", id, err)
		return activity, nil
	}

	ttl := commonCache.RandomTTLSeconds(commonCache.DefaultTTL)
	if err := c.rds.SetexCtx(ctx, key, string(data), ttl); err != nil {
		logx.WithContext(ctx).Errorf("[ActivityCache] 写入缓存失败: key=%s, err=%v", key, err)
	}
	return activity, nil
}

// Invalidate 删除活动缓存
func (c *ActivityCache) Invalidate(ctx context.Context, id uint64) error {
	key := commonCache.GroupBuyActivityKey(id)
	if _, err := c.rds.DelCtx(ctx, key); err != nil {
		logx.WithContext(ctx).Errorf("[ActivityCache] 删除缓存失败: key=%s, err=%v", key, err)
		return err
	}
	return nil
}

// ==================== 数据转换 ====================

func toCacheData(a *model.Activity) *activityCacheData {
	return &activityCacheData{
		ID:          a.ID,
		ProductID:   a.ProductID,
		GroupPrice:  a.GroupPrice,
		RequiredNum: a.RequiredNum,
		MaxNum:      a.MaxNum,
		StartTime:   a.StartTime,
		EndTime:     a.EndTime,
		Status:      a.Status,
	}
}

func (d *activityCacheData) toActivity() *model.Activity {
	return &model.Activity{
		ID:          d.ID,
		ProductID:   d.ProductID,
		GroupPrice:  d.GroupPrice,
		RequiredNum: d.RequiredNum,
		MaxNum:      d.MaxNum,
		StartTime:   d.StartTime,
		EndTime:     d.EndTime,
		Status:      d.Status,
	}
}
