package client

import (
	"context"
	"fmt"
	"net/http"

	"groupbuy-platform/app/groupbuy/api/internal/config"
)

// OrderService 订单服务
type OrderService interface {
	// CreateOrder 创建拼团订单，BizNo 相同的请求只会生成一笔订单
	CreateOrder(ctx context.Context, req *CreateOrderReq) (uint64, error)
	CancelOrder(ctx context.Context, orderID uint64) error
	BatchMarkReadyToShip(ctx context.Context, orderIDs []uint64) error
	MarkRefunded(ctx context.Context, orderID uint64) error
}

// CreateOrderReq 拼团下单请求
type CreateOrderReq struct {
	BizNo      string `json:"biz_no"`
	UserID     uint64 `json:"user_id"`
	LeaderID   uint64 `json:"leader_id"`
	ProductID  uint64 `json:"product_id"`
	ActivityID uint64 `json:"activity_id"`
	TeamID     uint64 `json:"team_id"`
	Quantity   uint32 `json:"quantity"`
	UnitPrice  int64  `json:"unit_price"`
	AddressID  uint64 `json:"address_id"`
}

type createOrderResp struct {
	OrderID uint64 `json:"order_id"`
}

type orderIDsReq struct {
	OrderIDs []uint64 `json:"order_ids"`
}

type orderClient struct {
	*upstream
}

// NewOrderClient 订单服务 HTTP 客户端
func NewOrderClient(c config.UpstreamConf) OrderService {
	return &orderClient{upstream: newUpstream("order-service", c)}
}

func (c *orderClient) CreateOrder(ctx context.Context, req *CreateOrderReq) (uint64, error) {
	var resp createOrderResp
	if err := c.call(ctx, http.MethodPost, "/api/v1/orders/groupbuy", req, &resp); err != nil {
		return 0, err
	}
	return resp.OrderID, nil
}

func (c *orderClient) CancelOrder(ctx context.Context, orderID uint64) error {
	return c.call(ctx, http.MethodPost, fmt.Sprintf("/api/v1/orders/%d/cancel", orderID), nil, nil)
}

func (c *orderClient) BatchMarkReadyToShip(ctx context.Context, orderIDs []uint64) error {
	return c.call(ctx, http.MethodPost, "/api/v1/orders/ready-to-ship", &orderIDsReq{OrderIDs: orderIDs}, nil)
}

func (c *orderClient) MarkRefunded(ctx context.Context, orderID uint64) error {
	return c.call(ctx, http.MethodPost, fmt.Sprintf("/api/v1/orders/%d/refunded", orderID), nil, nil)
}
