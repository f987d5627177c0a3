package messaging

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill-redisstream/pkg/redisstream"
	"github.com/ThreeDotsLabs/watermill/message"
	wmMiddleware "github.com/ThreeDotsLabs/watermill/message/router/middleware"
	"github.com/redis/go-redis/v9"
)

// Client Watermill 消息客户端（Redis Streams）
type Client struct {
	Publisher  message.Publisher
	Subscriber message.Subscriber
	Router     *message.Router

	config      Config
	logger      watermill.LoggerAdapter
	redisClient redis.UniversalClient
}

// NewClient 创建消息客户端并检查 Redis 连通性
func NewClient(config Config) (*Client, error) {
	redisClient := redis.NewClient(&redis.Options{
		Addr:     config.Redis.Addr,
		Password: config.Redis.Password,
		DB:       config.Redis.DB,
	})

	if err := redisClient.Ping(context.Background()).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return NewClientWithRedis(config, redisClient)
}

// NewClientWithRedis 复用已有 Redis 客户端创建消息客户端
func NewClientWithRedis(config Config, redisClient redis.UniversalClient) (*Client, error) {
	logger := newWatermillLogger(config.ServiceName)

	publisher, err := redisstream.NewPublisher(
		redisstream.PublisherConfig{
			Client: redisClient,
		},
		logger,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create publisher: %w", err)
	}

	subscriber, err := redisstream.NewSubscriber(
		redisstream.SubscriberConfig{
			Client:        redisClient,
			ConsumerGroup: config.ServiceName,
		},
		logger,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create subscriber: %w", err)
	}

	router, err := message.NewRouter(message.RouterConfig{}, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create router: %w", err)
	}

	// 路由级中间件：panic 恢复 → trace → 指标；重试与死信在 Subscribe 中按 handler 配置
	router.AddMiddleware(wmMiddleware.Recoverer)
	router.AddMiddleware(traceMiddleware)
	if config.EnableMetrics {
		router.AddMiddleware(metricsMiddleware)
	}

	return &Client{
		Publisher:   publisher,
		Subscriber:  subscriber,
		Router:      router,
		config:      config,
		logger:      logger,
		redisClient: redisClient,
	}, nil
}

// Close 关闭客户端
func (c *Client) Close() error {
	if err := c.Router.Close(); err != nil {
		return fmt.Errorf("failed to close router: %w", err)
	}
	if err := c.Subscriber.Close(); err != nil {
		return fmt.Errorf("failed to close subscriber: %w", err)
	}
	if err := c.Publisher.Close(); err != nil {
		return fmt.Errorf("failed to close publisher: %w", err)
	}
	return nil
}

// Publish 发布原始消息
func (c *Client) Publish(ctx context.Context, topic string, payload []byte) error {
	msg := message.NewMessage(watermill.NewUUID(), payload)
	InjectTraceID(ctx, msg)

	err := c.Publisher.Publish(topic, msg)
	if c.config.EnableMetrics {
		recordPublish(topic, err)
	}
	return err
}

// PublishJSON 序列化后发布
func (c *Client) PublishJSON(ctx context.Context, topic string, v interface{}) error {
	payload, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}
	return c.Publish(ctx, topic, payload)
}

// Subscribe 注册消费者，需要调用 Run 启动
//
// handler 中间件由外到内：死信 → 重试 → 不可重试错误直接转死信。
// 重试耗尽或返回 NewNonRetryableError 的消息转入 {topic}{DLQTopicSuffix}
func (c *Client) Subscribe(topic, handlerName string, handler message.NoPublishHandlerFunc) error {
	h := c.Router.AddNoPublisherHandler(handlerName, topic, c.Subscriber, handler)

	dlqTopic := topic + c.config.DLQTopicSuffix
	if c.config.DLQTopicSuffix != "" {
		poison, err := wmMiddleware.PoisonQueue(c.Publisher, dlqTopic)
		if err != nil {
			return fmt.Errorf("failed to create poison queue: %w", err)
		}
		h.AddMiddleware(poison)
	}

	if c.config.Retry.MaxRetries > 0 {
		retry := wmMiddleware.Retry{
			MaxRetries:      c.config.Retry.MaxRetries,
			InitialInterval: c.config.Retry.InitialInterval,
			MaxInterval:     c.config.Retry.MaxInterval,
			Multiplier:      c.config.Retry.Multiplier,
			Logger:          c.logger,
		}
		h.AddMiddleware(retry.Middleware)
	}

	if c.config.DLQTopicSuffix != "" {
		skipRetry, err := wmMiddleware.PoisonQueueWithFilter(c.Publisher, dlqTopic, func(err error) bool {
			return !IsRetryable(err)
		})
		if err != nil {
			return fmt.Errorf("failed to create non-retryable poison queue: %w", err)
		}
		h.AddMiddleware(skipRetry)
	}
	return nil
}

// Run 启动 Router（阻塞）
func (c *Client) Run(ctx context.Context) error {
	return c.Router.Run(ctx)
}

// Running Router 启动完成后关闭
func (c *Client) Running() chan struct{} {
	return c.Router.Running()
}
