package client

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"groupbuy-platform/app/groupbuy/api/internal/config"
	"groupbuy-platform/common/breakerx"
	"groupbuy-platform/common/errorx"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeEnvelope(w http.ResponseWriter, code int, message string, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]interface{}{
		"code":    code,
		"message": message,
		"data":    data,
	})
}

func upstreamConf(endpoint string) config.UpstreamConf {
	return config.UpstreamConf{
		Endpoint: endpoint,
		Timeout:  time.Second,
		Breaker:  breakerx.Conf{Requests: 3, ErrorRate: 0.5, Timeout: time.Minute},
	}
}

func TestOrderClientCreateOrder(t *testing.T) {
	var got CreateOrderReq
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/orders/groupbuy", r.URL.Path)
		assert.Equal(t, http.MethodPost, r.Method)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		writeEnvelope(w, 0, "success", map[string]interface{}{"order_id": 9001})
	}))
	defer srv.Close()

	c := NewOrderClient(upstreamConf(srv.URL))
	orderID, err := c.CreateOrder(context.Background(), &CreateOrderReq{
		BizNo:     "join:1:2",
		UserID:    2,
		TeamID:    1,
		Quantity:  1,
		UnitPrice: 1000,
		AddressID: 3,
	})
	require.NoError(t, err)
	assert.Equal(t, uint64(9001), orderID)
	assert.Equal(t, "join:1:2", got.BizNo)
	assert.Equal(t, int64(1000), got.UnitPrice)
}

func TestOrderClientPropagatesBizError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeEnvelope(w, errorx.CodeAddressInvalid, "收货地址不在配送范围", nil)
	}))
	defer srv.Close()

	c := NewOrderClient(upstreamConf(srv.URL))
	// 业务错误不计入熔断，多次调用仍能拿到下游错误码
	for i := 0; i < 5; i++ {
		_, err := c.CreateOrder(context.Background(), &CreateOrderReq{AddressID: 1})
		require.Error(t, err)
		assert.True(t, errorx.Is(err, errorx.CodeAddressInvalid))
	}
}

func TestPaymentClientBreakerOpens(t *testing.T) {
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	c := NewPaymentClient(upstreamConf(srv.URL))
	for i := 0; i < 3; i++ {
		err := c.CreditBalance(context.Background(), 1, 100, 10)
		assert.True(t, errorx.Is(err, errorx.CodeRPCError))
	}

	err := c.CreditBalance(context.Background(), 1, 100, 10)
	assert.True(t, errorx.Is(err, errorx.CodeServiceUnavailable))
	assert.Equal(t, int32(3), atomic.LoadInt32(&hits))
}

func TestUserClientGetUser(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/users/7", r.URL.Path)
		writeEnvelope(w, 0, "success", UserInfo{UserID: 7, Role: RoleLeader, CommunityID: 3})
	}))
	defer srv.Close()

	info, err := NewUserClient(upstreamConf(srv.URL)).GetUser(context.Background(), 7)
	require.NoError(t, err)
	assert.True(t, info.IsLeader())
	assert.Equal(t, uint64(3), info.CommunityID)
}
