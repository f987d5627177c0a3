package messaging

// ==================== Topic 定义 ====================

const (
	// 拼团服务发布
	TopicTeamSucceeded      = "groupbuy.team.succeeded"
	TopicTeamFailed         = "groupbuy.team.failed"
	TopicMemberRefundFailed = "groupbuy.member.refund_failed"

	// 支付服务发布，拼团服务消费（与 HTTP 回调互为补充，至少一次投递）
	TopicPaymentConfirmed = "payment.confirmed"
)

// ==================== 事件结构体 ====================

// TeamSucceededEvent 成团事件
// 消费者：订单服务（备货）、通知服务
type TeamSucceededEvent struct {
	TeamID      uint64   `json:"team_id"`
	TeamNo      string   `json:"team_no"`
	ActivityID  uint64   `json:"activity_id"`
	LeaderID    uint64   `json:"leader_id"`
	OrderIDs    []uint64 `json:"order_ids"`
	SuccessTime int64    `json:"success_time"`
}

// TeamFailedEvent 拼团失败事件
type TeamFailedEvent struct {
	TeamID     uint64 `json:"team_id"`
	TeamNo     string `json:"team_no"`
	ActivityID uint64 `json:"activity_id"`
	Reason     string `json:"reason"` // expired | leader_cancel
	Attempted  int    `json:"attempted"`
	Failed     int    `json:"failed"`
	FailedAt   int64  `json:"failed_at"`
}

// MemberRefundFailedEvent 单个成员补偿失败，需要人工对账
type MemberRefundFailedEvent struct {
	TeamID   uint64 `json:"team_id"`
	MemberID uint64 `json:"member_id"`
	UserID   uint64 `json:"user_id"`
	OrderID  uint64 `json:"order_id"`
	Amount   int64  `json:"amount"`
	Step     string `json:"step"`
	Error    string `json:"error"`
	FailedAt int64  `json:"failed_at"`
}

// PaymentConfirmedEvent 支付成功事件（上游支付服务）
type PaymentConfirmedEvent struct {
	OrderID uint64 `json:"order_id"`
	UserID  uint64 `json:"user_id"`
	Amount  int64  `json:"amount"`
	PaidAt  int64  `json:"paid_at"`
}
