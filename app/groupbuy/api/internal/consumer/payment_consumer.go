package consumer

import (
	"encoding/json"
	"fmt"

	"groupbuy-platform/app/groupbuy/api/internal/logic/payment"
	"groupbuy-platform/app/groupbuy/api/internal/svc"
	"groupbuy-platform/common/errorx"
	"groupbuy-platform/common/messaging"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/zeromicro/go-zero/core/logx"
)

const paymentConfirmedHandler = "groupbuy-payment-confirmed"

// PaymentConfirmedConsumer 支付成功事件消费者
//
// 与 HTTP 回调走同一处理逻辑，重复投递由成员状态保证幂等
type PaymentConfirmedConsumer struct {
	svcCtx *svc.ServiceContext
}

func NewPaymentConfirmedConsumer(svcCtx *svc.ServiceContext) *PaymentConfirmedConsumer {
	return &PaymentConfirmedConsumer{svcCtx: svcCtx}
}

func (c *PaymentConfirmedConsumer) Subscribe(msgClient *messaging.Client) error {
	if err := msgClient.Subscribe(messaging.TopicPaymentConfirmed, paymentConfirmedHandler, c.Handle); err != nil {
		return err
	}
	logx.Infof("已订阅 %s 事件", messaging.TopicPaymentConfirmed)
	return nil
}

// Handle 处理一条支付成功消息
func (c *PaymentConfirmedConsumer) Handle(msg *message.Message) error {
	ctx := msg.Context()
	logger := logx.WithContext(ctx)

	var event messaging.PaymentConfirmedEvent
	if err := json.Unmarshal(msg.Payload, &event); err != nil {
		logger.Errorf("解析支付成功事件失败: %v", err)
		return messaging.NewNonRetryableError(fmt.Errorf("解析事件失败: %w", err))
	}
	if event.OrderID == 0 {
		return messaging.NewNonRetryableError(fmt.Errorf("事件缺少订单号: msgId=%s", msg.UUID))
	}

	resp, err := payment.NewPaymentCallbackLogic(ctx, c.svcCtx).OnPaymentConfirmed(event.OrderID)
	if err != nil {
		// 非拼团订单直接丢弃
		if errorx.Is(err, errorx.CodeMemberNotFound) {
			logger.Infof("非拼团订单，忽略: orderId=%d", event.OrderID)
			return nil
		}
		logger.Errorf("处理支付成功事件失败: orderId=%d, err=%v", event.OrderID, err)
		return messaging.NewRetryableError(err)
	}

	logger.Infof("支付成功事件处理完成: orderId=%d, outcome=%s", event.OrderID, resp.Outcome)
	return nil
}
