package client

import (
	"context"
	"net/http"

	"groupbuy-platform/app/groupbuy/api/internal/config"
	"groupbuy-platform/common/utils/idgen"
)

// PaymentService 支付/账户服务
type PaymentService interface {
	// CreditBalance 退款到用户余额，orderID 作为幂等键，重复调用只入账一次
	CreditBalance(ctx context.Context, userID uint64, amount int64, orderID uint64) error
}

type creditReq struct {
	BizNo   string `json:"biz_no"`
	UserID  uint64 `json:"user_id"`
	Amount  int64  `json:"amount"`
	OrderID uint64 `json:"order_id"`
}

type paymentClient struct {
	*upstream
}

// NewPaymentClient 支付服务 HTTP 客户端
func NewPaymentClient(c config.UpstreamConf) PaymentService {
	return &paymentClient{upstream: newUpstream("payment-service", c)}
}

func (c *paymentClient) CreditBalance(ctx context.Context, userID uint64, amount int64, orderID uint64) error {
	return c.call(ctx, http.MethodPost, "/api/v1/accounts/credit", &creditReq{
		BizNo:   idgen.GenRefundSourceID(orderID),
		UserID:  userID,
		Amount:  amount,
		OrderID: orderID,
	}, nil)
}
