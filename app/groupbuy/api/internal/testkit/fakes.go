package testkit

import (
	"context"
	"sync"

	"groupbuy-platform/app/groupbuy/api/internal/client"
	"groupbuy-platform/common/errorx"
)

// ==================== 订单服务 ====================

// FakeOrder 内存订单服务，按 BizNo 去重
type FakeOrder struct {
	mu sync.Mutex

	nextID      uint64
	byBizNo     map[string]uint64
	Created     []client.CreateOrderReq
	Cancelled   []uint64
	ReadyToShip [][]uint64
	Refunded    []uint64

	CreateErr       error
	ReadyToShipErr  error
	MarkRefundedErr error
}

func NewFakeOrder() *FakeOrder {
	return &FakeOrder{
		nextID:  1000,
		byBizNo: make(map[string]uint64),
	}
}

func (f *FakeOrder) CreateOrder(_ context.Context, req *client.CreateOrderReq) (uint64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.CreateErr != nil {
		return 0, f.CreateErr
	}
	if id, ok := f.byBizNo[req.BizNo]; ok {
		return id, nil
	}
	f.nextID++
	f.byBizNo[req.BizNo] = f.nextID
	f.Created = append(f.Created, *req)
	return f.nextID, nil
}

func (f *FakeOrder) CancelOrder(_ context.Context, orderID uint64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Cancelled = append(f.Cancelled, orderID)
	return nil
}

func (f *FakeOrder) BatchMarkReadyToShip(_ context.Context, orderIDs []uint64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.ReadyToShipErr != nil {
		return f.ReadyToShipErr
	}
	f.ReadyToShip = append(f.ReadyToShip, append([]uint64(nil), orderIDs...))
	return nil
}

func (f *FakeOrder) MarkRefunded(_ context.Context, orderID uint64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.MarkRefundedErr != nil {
		return f.MarkRefundedErr
	}
	f.Refunded = append(f.Refunded, orderID)
	return nil
}

// SetCreateErr 注入下单错误
func (f *FakeOrder) SetCreateErr(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.CreateErr = err
}

// SetReadyToShipErr 注入待发货通知错误
func (f *FakeOrder) SetReadyToShipErr(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.ReadyToShipErr = err
}

// CreatedCount 已创建订单数
func (f *FakeOrder) CreatedCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.Created)
}

// ShipCalls 待发货通知调用快照
func (f *FakeOrder) ShipCalls() [][]uint64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([][]uint64(nil), f.ReadyToShip...)
}

// RefundedOrders 已标记退款的订单快照
func (f *FakeOrder) RefundedOrders() []uint64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]uint64(nil), f.Refunded...)
}

// CancelledOrders 已取消订单快照
func (f *FakeOrder) CancelledOrders() []uint64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]uint64(nil), f.Cancelled...)
}

// ==================== 支付服务 ====================

// Credit 一笔余额退款
type Credit struct {
	UserID uint64
	Amount int64
}

// FakePayment 内存账户服务，按订单号幂等
type FakePayment struct {
	mu sync.Mutex

	credits   map[uint64]Credit
	failUsers map[uint64]error
	Calls     int
}

func NewFakePayment() *FakePayment {
	return &FakePayment{
		credits:   make(map[uint64]Credit),
		failUsers: make(map[uint64]error),
	}
}

func (f *FakePayment) CreditBalance(_ context.Context, userID uint64, amount int64, orderID uint64) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.Calls++
	if err, ok := f.failUsers[userID]; ok {
		return err
	}
	if _, ok := f.credits[orderID]; ok {
		return nil
	}
	f.credits[orderID] = Credit{UserID: userID, Amount: amount}
	return nil
}

// FailFor 指定用户的退款失败，err 为 nil 时恢复
func (f *FakePayment) FailFor(userID uint64, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err == nil {
		delete(f.failUsers, userID)
		return
	}
	f.failUsers[userID] = err
}

// CreditOf 订单对应的退款记录
func (f *FakePayment) CreditOf(orderID uint64) (Credit, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.credits[orderID]
	return c, ok
}

// CreditCount 实际入账笔数
func (f *FakePayment) CreditCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.credits)
}

// ==================== 用户服务 ====================

// FakeUser 内存用户服务，未登记的用户视为普通用户
type FakeUser struct {
	mu    sync.Mutex
	users map[uint64]*client.UserInfo
}

func NewFakeUser() *FakeUser {
	return &FakeUser{users: make(map[uint64]*client.UserInfo)}
}

func (f *FakeUser) GetUser(_ context.Context, userID uint64) (*client.UserInfo, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if userID == 0 {
		return nil, errorx.ErrNotFound()
	}
	if u, ok := f.users[userID]; ok {
		info := *u
		return &info, nil
	}
	return &client.UserInfo{UserID: userID, Role: client.RoleUser}, nil
}

// Put 登记用户角色与社区
func (f *FakeUser) Put(userID uint64, role string, communityID uint64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.users[userID] = &client.UserInfo{UserID: userID, Role: role, CommunityID: communityID}
}
