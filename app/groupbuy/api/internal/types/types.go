package types

// ==================== 开团 / 参团 ====================

// LaunchTeamReq 团长开团
type LaunchTeamReq struct {
	ActivityId      uint64 `json:"activityId"`
	DurationHours   int    `json:"durationHours"`
	JoinImmediately bool   `json:"joinImmediately,optional"`
	AddressId       uint64 `json:"addressId,optional"`
	Quantity        uint32 `json:"quantity,optional"`
}

// LaunchTeamResp 开团结果
type LaunchTeamResp struct {
	TeamId     uint64    `json:"teamId"`
	TeamNo     string    `json:"teamNo"`
	ExpireTime int64     `json:"expireTime"`
	Join       *JoinResp `json:"join,omitempty"` // 立即参团时返回
}

// JoinTeamReq 参团
type JoinTeamReq struct {
	TeamId    uint64 `path:"id"`
	AddressId uint64 `json:"addressId"`
	Quantity  uint32 `json:"quantity,default=1"`
}

// JoinResp 参团结果
type JoinResp struct {
	TeamId     uint64 `json:"teamId"`
	MemberId   uint64 `json:"memberId"`
	OrderId    uint64 `json:"orderId"`
	PayAmount  int64  `json:"payAmount"`  // 应付金额（分）
	RemainNum  uint32 `json:"remainNum"`  // 剩余名额
	ExpireTime int64  `json:"expireTime"` // 团过期时间
}

// TeamIdReq 路径中只有团ID的请求
type TeamIdReq struct {
	TeamId uint64 `path:"id"`
}

// LeaveTeamResp 退团结果
type LeaveTeamResp struct {
	TeamId   uint64 `json:"teamId"`
	Refunded bool   `json:"refunded"` // 是否已退款（已支付成员）
}

// ==================== 支付回调 ====================

// PaymentCallbackReq 支付成功回调
type PaymentCallbackReq struct {
	OrderId uint64 `json:"orderId"`
}

// PaymentCallbackResp 回调处理结果
type PaymentCallbackResp struct {
	OrderId    uint64 `json:"orderId"`
	Outcome    string `json:"outcome"` // paid | completed | duplicate | late_refund
	TeamStatus int8   `json:"teamStatus"`
}

// ==================== 查询 ====================

// TeamInfo 团信息
type TeamInfo struct {
	Id          uint64 `json:"id"`
	TeamNo      string `json:"teamNo"`
	ActivityId  uint64 `json:"activityId"`
	LeaderId    uint64 `json:"leaderId"`
	CommunityId uint64 `json:"communityId"`
	RequiredNum uint32 `json:"requiredNum"`
	CurrentNum  uint32 `json:"currentNum"`
	RemainNum   uint32 `json:"remainNum"`
	Status      int8   `json:"status"`
	StatusText  string `json:"statusText"`
	SuccessTime int64  `json:"successTime"`
	ExpireTime  int64  `json:"expireTime"`
	CreatedAt   int64  `json:"createdAt"`
}

// MemberInfo 团成员信息
type MemberInfo struct {
	Id         uint64 `json:"id"`
	UserId     uint64 `json:"userId"`
	IsLauncher bool   `json:"isLauncher"`
	Quantity   uint32 `json:"quantity"`
	PayAmount  int64  `json:"payAmount"`
	Status     int8   `json:"status"`
	StatusText string `json:"statusText"`
	JoinTime   int64  `json:"joinTime"`
}

// ActivityInfo 拼团活动信息
type ActivityInfo struct {
	Id          uint64 `json:"id"`
	ProductId   uint64 `json:"productId"`
	GroupPrice  int64  `json:"groupPrice"`
	RequiredNum uint32 `json:"requiredNum"`
	StartTime   int64  `json:"startTime"`
	EndTime     int64  `json:"endTime"`
	Status      int8   `json:"status"`
}

// TeamDetailResp 团详情
type TeamDetailResp struct {
	Team     TeamInfo      `json:"team"`
	Activity *ActivityInfo `json:"activity,omitempty"`
	Members  []MemberInfo  `json:"members"`
}

// ListActivityTeamsReq 活动下可参与的团
type ListActivityTeamsReq struct {
	ActivityId  uint64 `path:"id"`
	CommunityId uint64 `form:"communityId,optional"` // 为空时取登录用户所属社区
}

// ListActivityTeamsResp 可参与的团列表
type ListActivityTeamsResp struct {
	List []TeamInfo `json:"list"`
}

// ListMyTeamsReq 我参与的团
type ListMyTeamsReq struct {
	Page     int `form:"page,default=1"`
	PageSize int `form:"pageSize,default=20"`
}

// MyTeamItem 我参与的团（成员记录 + 团摘要）
type MyTeamItem struct {
	Member MemberInfo `json:"member"`
	Team   *TeamInfo  `json:"team,omitempty"`
}

// ListMyTeamsResp 我参与的团列表
type ListMyTeamsResp struct {
	List     []MyTeamItem `json:"list"`
	Total    int64        `json:"total"`
	Page     int          `json:"page"`
	PageSize int          `json:"pageSize"`
}

// ListLeaderTeamsReq 我发起的团
type ListLeaderTeamsReq struct {
	Status   *int8 `form:"status,optional"` // 为空时不过滤
	Page     int   `form:"page,default=1"`
	PageSize int   `form:"pageSize,default=20"`
}

// ListLeaderTeamsResp 我发起的团列表
type ListLeaderTeamsResp struct {
	List     []TeamInfo `json:"list"`
	Total    int64      `json:"total"`
	Page     int        `json:"page"`
	PageSize int        `json:"pageSize"`
}

// ==================== 拼团活动 ====================

// ActivityIdReq 活动ID路径参数
type ActivityIdReq struct {
	Id uint64 `path:"id"`
}

// ListActivitiesReq 活动列表
type ListActivitiesReq struct {
	Ongoing  bool `form:"ongoing,optional"` // 只看进行中的活动
	Page     int  `form:"page,default=1"`
	PageSize int  `form:"pageSize,default=20"`
}

// ListActivitiesResp 活动列表
type ListActivitiesResp struct {
	List     []ActivityInfo `json:"list"`
	Total    int64          `json:"total"`
	Page     int            `json:"page"`
	PageSize int            `json:"pageSize"`
}

// CreateActivityReq 创建拼团活动（管理端）
type CreateActivityReq struct {
	ProductId   uint64 `json:"productId"`
	GroupPrice  int64  `json:"groupPrice"`
	RequiredNum uint32 `json:"requiredNum"`
	StartTime   int64  `json:"startTime"`
	EndTime     int64  `json:"endTime"`
}

// UpdateActivityReq 修改拼团活动（管理端），未传的字段保持不变
type UpdateActivityReq struct {
	Id          uint64  `path:"id"`
	GroupPrice  *int64  `json:"groupPrice,optional"`
	RequiredNum *uint32 `json:"requiredNum,optional"`
	StartTime   *int64  `json:"startTime,optional"`
	EndTime     *int64  `json:"endTime,optional"`
	Status      *int8   `json:"status,optional"`
}

// ==================== 管理端 ====================

// ReconcileTeamResp 对账结果
type ReconcileTeamResp struct {
	TeamId        uint64   `json:"teamId"`
	Attempted     int      `json:"attempted"`
	Succeeded     int      `json:"succeeded"`
	Failed        int      `json:"failed"`
	FailedMembers []uint64 `json:"failedMembers"`
}

// RemoveMemberReq 团长移除成员
type RemoveMemberReq struct {
	TeamId uint64 `path:"id"`
	UserId uint64 `path:"userId"`
}
