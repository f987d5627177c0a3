package team_test

import (
	"strconv"

	"groupbuy-platform/app/groupbuy/api/internal/config"
	"groupbuy-platform/app/groupbuy/api/internal/testkit"
	"groupbuy-platform/common/cache"

	"github.com/zeromicro/go-zero/core/limit"
	"github.com/zeromicro/go-zero/core/stores/redis"
)

func itoa(v uint64) string {
	return strconv.FormatUint(v, 10)
}

func newLimiter(k *testkit.Kit, c config.Config) *limit.PeriodLimit {
	return limit.NewPeriodLimit(c.JoinLimit.Period, c.JoinLimit.Quota,
		redis.New(k.Redis.Addr()), cache.JoinLimitKeyPrefix)
}
