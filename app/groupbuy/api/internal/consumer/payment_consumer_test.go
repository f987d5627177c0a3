package consumer_test

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"groupbuy-platform/app/groupbuy/api/internal/consumer"
	"groupbuy-platform/app/groupbuy/api/internal/logic/team"
	"groupbuy-platform/app/groupbuy/api/internal/testkit"
	"groupbuy-platform/app/groupbuy/api/internal/types"
	"groupbuy-platform/app/groupbuy/model"
	"groupbuy-platform/common/messaging"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zeromicro/go-zero/core/logx"
	"github.com/zeromicro/go-zero/core/logx/logtest"
)

func newMessage(t *testing.T, payload interface{}) *message.Message {
	t.Helper()
	var data []byte
	switch p := payload.(type) {
	case []byte:
		data = p
	default:
		var err error
		data, err = json.Marshal(p)
		require.NoError(t, err)
	}
	msg := message.NewMessage(watermill.NewUUID(), data)
	msg.SetContext(context.Background())
	return msg
}

func TestHandleMarksMemberPaid(t *testing.T) {
	k := testkit.New(t)
	activity := k.SeedActivity(t, 3, 800)
	tm := k.SeedTeam(t, activity, 1, 10, time.Now().Add(time.Hour).Unix())

	resp, err := team.NewJoinTeamLogic(testkit.UserCtx(201, 10), k.SvcCtx).JoinTeam(&types.JoinTeamReq{
		TeamId:    tm.ID,
		AddressId: 1,
		Quantity:  1,
	})
	require.NoError(t, err)

	c := consumer.NewPaymentConfirmedConsumer(k.SvcCtx)
	msg := newMessage(t, messaging.PaymentConfirmedEvent{OrderID: resp.OrderId, UserID: 201, Amount: 800})
	require.NoError(t, c.Handle(msg))

	assert.Equal(t, model.MemberStatusPaid, k.Member(t, resp.MemberId).Status)
	assert.Equal(t, uint32(1), k.Team(t, tm.ID).CurrentNum)

	// 重复投递
	require.NoError(t, c.Handle(newMessage(t, messaging.PaymentConfirmedEvent{OrderID: resp.OrderId})))
	assert.Equal(t, uint32(1), k.Team(t, tm.ID).CurrentNum)
}

func TestHandleRejectsBadPayload(t *testing.T) {
	k := testkit.New(t)
	c := consumer.NewPaymentConfirmedConsumer(k.SvcCtx)

	err := c.Handle(newMessage(t, []byte("not-json")))
	require.Error(t, err)
	assert.False(t, messaging.IsRetryable(err))

	err = c.Handle(newMessage(t, messaging.PaymentConfirmedEvent{}))
	require.Error(t, err)
	assert.False(t, messaging.IsRetryable(err))
}

func TestHandleIgnoresUnknownOrder(t *testing.T) {
	k := testkit.New(t)
	c := consumer.NewPaymentConfirmedConsumer(k.SvcCtx)

	assert.NoError(t, c.Handle(newMessage(t, messaging.PaymentConfirmedEvent{OrderID: 424242})))
}

func TestHandleLogsWithMessageContext(t *testing.T) {
	k := testkit.New(t)
	c := consumer.NewPaymentConfirmedConsumer(k.SvcCtx)
	buf := logtest.NewCollector(t)

	msg := newMessage(t, []byte("not-json"))
	msg.SetContext(logx.ContextWithFields(context.Background(), logx.Field("msg_trace", "trace-42")))
	require.Error(t, c.Handle(msg))

	assert.Contains(t, buf.String(), "trace-42")
}
