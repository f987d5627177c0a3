package svc

import (
	"fmt"
	"time"

	"groupbuy-platform/app/groupbuy/api/internal/cache"
	"groupbuy-platform/app/groupbuy/api/internal/client"
	"groupbuy-platform/app/groupbuy/api/internal/config"
	"groupbuy-platform/app/groupbuy/api/internal/mq"
	"groupbuy-platform/app/groupbuy/api/internal/saga"
	"groupbuy-platform/app/groupbuy/model"
	commonCache "groupbuy-platform/common/cache"
	"groupbuy-platform/common/messaging"

	"github.com/zeromicro/go-zero/core/limit"
	"github.com/zeromicro/go-zero/core/logx"
	"github.com/zeromicro/go-zero/core/stores/redis"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type ServiceContext struct {
	Config config.Config

	// 数据存储
	DB    *gorm.DB     // MySQL 连接
	Redis *redis.Redis // 业务 Redis（活动缓存、限流）

	// 限流
	JoinLimiter *limit.PeriodLimit

	// Model 层
	ActivityModel *model.ActivityModel
	TeamModel     *model.TeamModel
	MemberModel   *model.MemberModel

	// 缓存
	ActivityCache *cache.ActivityCache

	// 下游服务
	OrderClient   client.OrderService
	PaymentClient client.PaymentService
	UserClient    client.UserService

	// 消息（未配置时为 nil）
	MsgClient   *messaging.Client
	MsgProducer *mq.Producer

	// 补偿
	RefundSaga *saga.RefundSaga
}

// Upstreams 下游服务客户端
type Upstreams struct {
	Order   client.OrderService
	Payment client.PaymentService
	User    client.UserService
}

func NewServiceContext(c config.Config) *ServiceContext {
	// 1. 初始化数据库连接
	db := initDB(c.MySQL)

	// 2. 初始化业务 Redis
	rds := initRedis(c.BizRedis)

	// 3. 初始化消息客户端（可选）
	msgClient := initMessaging(c.Messaging)

	// 4. 下游 HTTP 客户端
	upstreams := Upstreams{
		Order:   client.NewOrderClient(c.OrderService),
		Payment: client.NewPaymentClient(c.PaymentService),
		User:    client.NewUserClient(c.UserService),
	}

	svcCtx := Assemble(c, db, rds, upstreams, mq.NewProducer(msgClient))
	svcCtx.MsgClient = msgClient
	return svcCtx
}

// Assemble 用已建立的连接组装服务上下文
func Assemble(c config.Config, db *gorm.DB, rds *redis.Redis, upstreams Upstreams, producer *mq.Producer) *ServiceContext {
	activityModel := model.NewActivityModel(db)
	teamModel := model.NewTeamModel(db)
	memberModel := model.NewMemberModel(db)

	return &ServiceContext{
		Config: c,

		DB:    db,
		Redis: rds,

		JoinLimiter: limit.NewPeriodLimit(
			c.JoinLimit.Period,
			c.JoinLimit.Quota,
			rds,
			commonCache.JoinLimitKeyPrefix,
		),

		ActivityModel: activityModel,
		TeamModel:     teamModel,
		MemberModel:   memberModel,

		ActivityCache: cache.NewActivityCache(rds, activityModel),

		OrderClient:   upstreams.Order,
		PaymentClient: upstreams.Payment,
		UserClient:    upstreams.User,

		MsgProducer: producer,

		RefundSaga: saga.NewRefundSaga(db, teamModel, memberModel, upstreams.Order, upstreams.Payment, producer),
	}
}

// Close 释放资源
func (s *ServiceContext) Close() {
	if s.MsgClient != nil {
		if err := s.MsgClient.Close(); err != nil {
			logx.Errorf("关闭消息客户端失败: %v", err)
		}
	}
	if sqlDB, err := s.DB.DB(); err == nil {
		_ = sqlDB.Close()
	}
}

// 初始化函数

// initDB 初始化数据库连接
func initDB(mysqlConf config.MySQLConfig) *gorm.DB {
	dsn := buildMySQLDSN(mysqlConf)
	db, err := gorm.Open(mysql.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Warn),
		TranslateError: true, // 唯一键冲突翻译为 gorm.ErrDuplicatedKey
	})
	if err != nil {
		logx.Errorf("连接数据库失败: %v", err)
		panic(err)
	}

	// 设置连接池
	sqlDB, err := db.DB()
	if err != nil {
		panic(err)
	}
	maxOpenConns := mysqlConf.MaxOpenConns
	if maxOpenConns <= 0 {
		maxOpenConns = 100
	}
	maxIdleConns := mysqlConf.MaxIdleConns
	if maxIdleConns <= 0 {
		maxIdleConns = 10
	}
	connMaxLifetime := mysqlConf.ConnMaxLifetime
	if connMaxLifetime <= 0 {
		connMaxLifetime = 3600
	}
	sqlDB.SetMaxOpenConns(maxOpenConns)
	sqlDB.SetMaxIdleConns(maxIdleConns)
	sqlDB.SetConnMaxLifetime(time.Duration(connMaxLifetime) * time.Second)

	if mysqlConf.AutoMigrate {
		if err := model.AutoMigrate(db); err != nil {
			logx.Errorf("同步表结构失败: %v", err)
			panic(err)
		}
	}

	logx.Info("数据库连接成功")
	return db
}

// initRedis 初始化 Redis 连接
func initRedis(c redis.RedisConf) *redis.Redis {
	rds := redis.MustNewRedis(c)
	logx.Info("Redis 连接成功")
	return rds
}

// initMessaging 初始化消息客户端，未配置 Redis 地址时不启用
func initMessaging(c messaging.Config) *messaging.Client {
	if c.Redis.Addr == "" {
		logx.Info("未配置消息队列，跳过事件发布与支付消息消费")
		return nil
	}
	msgClient, err := messaging.NewClient(c)
	if err != nil {
		logx.Errorf("初始化消息客户端失败: %v", err)
		panic(err)
	}
	logx.Info("消息客户端初始化成功")
	return msgClient
}

// buildMySQLDSN 行锁等待超时通过 innodb_lock_wait_timeout 会话变量下发
func buildMySQLDSN(c config.MySQLConfig) string {
	lockWait := c.LockWaitTimeout
	if lockWait <= 0 {
		lockWait = 5
	}
	return fmt.Sprintf(
		"%s:%s@tcp(%s:%d)/%s?charset=utf8mb4&parseTime=true&loc=Local&innodb_lock_wait_timeout=%d",
		c.Username,
		c.Password,
		c.Host,
		c.Port,
		c.Database,
		lockWait,
	)
}
