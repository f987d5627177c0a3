package messaging

import "time"

// Config 消息中间件配置（可直接嵌入 go-zero 服务配置）
type Config struct {
	// Redis Streams 连接
	Redis RedisConfig

	// 服务名，同时作为消费者组名
	ServiceName string `json:",optional"`

	// 是否采集 Prometheus 指标
	EnableMetrics bool `json:",default=true"`

	Retry RetryConfig `json:",optional"`

	// 死信队列 Topic 后缀，为空时不启用
	DLQTopicSuffix string `json:",default=.dlq"`
}

// RedisConfig Redis 连接配置
type RedisConfig struct {
	Addr     string
	Password string `json:",optional"`
	DB       int    `json:",default=0"`
}

// RetryConfig 消费重试配置
type RetryConfig struct {
	MaxRetries      int           `json:",default=3"`
	InitialInterval time.Duration `json:",default=100ms"`
	MaxInterval     time.Duration `json:",default=10s"`
	Multiplier      float64       `json:",default=2.0"`
}
