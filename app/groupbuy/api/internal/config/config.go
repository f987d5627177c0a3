package config

import (
	"time"

	"groupbuy-platform/common/breakerx"
	"groupbuy-platform/common/messaging"

	"github.com/zeromicro/go-zero/core/stores/redis"
	"github.com/zeromicro/go-zero/rest"
)

type Config struct {
	rest.RestConf

	// JWT 认证配置
	Auth struct {
		AccessSecret string
		AccessExpire int64
	}

	// 支付回调共享密钥，为空时不校验
	CallbackToken string `json:",optional"`

	// 数据存储
	MySQL    MySQLConfig
	BizRedis redis.RedisConf // 活动缓存、参团限流

	// 消息队列（Redis Streams），Redis.Addr 为空时不启用
	Messaging messaging.Config `json:",optional"`

	// 下游服务
	OrderService   UpstreamConf
	PaymentService UpstreamConf
	UserService    UpstreamConf

	// 业务参数
	Team      TeamConf
	Cron      CronConf
	JoinLimit JoinLimitConf
}

// MySQLConfig 数据库配置
type MySQLConfig struct {
	Host            string `json:",default=127.0.0.1"`
	Port            int    `json:",default=3306"`
	Username        string
	Password        string
	Database        string
	MaxOpenConns    int `json:",default=100"`  // 最大打开连接数
	MaxIdleConns    int `json:",default=10"`   // 最大空闲连接数
	ConnMaxLifetime int `json:",default=3600"` // 连接生命周期（秒）
	LockWaitTimeout int `json:",default=5"`    // 行锁等待超时（秒），超时后返回可重试错误

	// 启动时同步表结构（仅开发环境）
	AutoMigrate bool `json:",default=false"`
}

// UpstreamConf 下游 HTTP 服务配置
type UpstreamConf struct {
	// 如 http://order-api:8080
	Endpoint string
	Timeout  time.Duration `json:",default=3s"` // 单次调用超时
	Breaker  breakerx.Conf `json:",optional"`
}

// TeamConf 拼团业务约束
type TeamConf struct {
	MinRequiredNum   uint32 `json:",default=2"`  // 成团人数下限
	MaxRequiredNum   uint32 `json:",default=10"` // 成团人数上限
	MinDurationHours int    `json:",default=1"`  // 拼团时长下限（小时）
	MaxDurationHours int    `json:",default=72"` // 拼团时长上限（小时）
	MaxQuantity      uint32 `json:",default=10"` // 单人最大购买数量
	ListLimit        int    `json:",default=20"` // 活动下可参与团列表条数
}

// CronConf 过期扫描配置
type CronConf struct {
	ExpireIntervalSeconds int `json:",default=3600"` // 扫描间隔（秒）
	BatchSize             int `json:",default=100"`  // 单批团数量
	ShipRetryDelaySeconds int `json:",default=60"`   // 成团后多久未通知发货视为丢失
	ReservationTTLSeconds int `json:",default=300"`  // 未回填订单号的占位超过该时长视为孤儿
}

// JoinLimitConf 参团限流（按用户）
type JoinLimitConf struct {
	Period int `json:",default=1"` // 窗口（秒）
	Quota  int `json:",default=5"` // 窗口内最大请求数
}
