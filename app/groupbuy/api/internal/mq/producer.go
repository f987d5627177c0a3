package mq

import (
	"context"
	"time"

	"groupbuy-platform/common/messaging"

	"github.com/zeromicro/go-zero/core/contextx"
	"github.com/zeromicro/go-zero/core/logx"
	"github.com/zeromicro/go-zero/core/threading"
)

// publishTimeout 单条事件发布超时
const publishTimeout = 3 * time.Second

// Producer 拼团服务事件发布器
// nil 安全：Producer 或 Client 为 nil 时所有方法静默返回
type Producer struct {
	client *messaging.Client
}

// NewProducer 创建事件发布器
func NewProducer(client *messaging.Client) *Producer {
	if client == nil {
		return nil
	}
	return &Producer{client: client}
}

// publishAsync 异步发布事件
// - 不阻塞调用方，失败只记日志，不影响主业务
// - 保留链路 trace_id，但不继承调用方的取消
func (p *Producer) publishAsync(ctx context.Context, topic string, payload interface{}) {
	if p == nil || p.client == nil {
		return
	}

	pubCtx := contextx.ValueOnlyFrom(ctx)
	threading.GoSafe(func() {
		ctx, cancel := context.WithTimeout(pubCtx, publishTimeout)
		defer cancel()

		if err := p.client.PublishJSON(ctx, topic, payload); err != nil {
			logx.WithContext(ctx).Errorf("[MQ-Producer] 发布失败: topic=%s, err=%v", topic, err)
			return
		}
		logx.WithContext(ctx).Infof("[MQ-Producer] 发布成功: topic=%s", topic)
	})
}

// ==================== 拼团事件 ====================

// PublishTeamSucceeded 发布成团事件
func (p *Producer) PublishTeamSucceeded(ctx context.Context, event messaging.TeamSucceededEvent) {
	p.publishAsync(ctx, messaging.TopicTeamSucceeded, event)
}

// PublishTeamFailed 发布拼团失败事件
func (p *Producer) PublishTeamFailed(ctx context.Context, event messaging.TeamFailedEvent) {
	p.publishAsync(ctx, messaging.TopicTeamFailed, event)
}

// PublishMemberRefundFailed 发布成员补偿失败事件，供对账/告警消费
func (p *Producer) PublishMemberRefundFailed(ctx context.Context, event messaging.MemberRefundFailedEvent) {
	if event.FailedAt == 0 {
		event.FailedAt = time.Now().Unix()
	}
	p.publishAsync(ctx, messaging.TopicMemberRefundFailed, event)
}
