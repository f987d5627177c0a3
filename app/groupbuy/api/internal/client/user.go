package client

import (
	"context"
	"fmt"
	"net/http"

	"groupbuy-platform/app/groupbuy/api/internal/config"
)

// 用户角色
const (
	RoleUser   = "USER"
	RoleLeader = "LEADER" // 团长
	RoleAdmin  = "ADMIN"
)

// UserService 用户服务
type UserService interface {
	GetUser(ctx context.Context, userID uint64) (*UserInfo, error)
}

// UserInfo 拼团只关心角色与所属社区
type UserInfo struct {
	UserID      uint64 `json:"user_id"`
	Role        string `json:"role"`
	CommunityID uint64 `json:"community_id"`
}

// IsLeader 是否团长
func (u *UserInfo) IsLeader() bool {
	return u != nil && u.Role == RoleLeader
}

// IsAdmin 是否管理员
func (u *UserInfo) IsAdmin() bool {
	return u != nil && u.Role == RoleAdmin
}

type userClient struct {
	*upstream
}

// NewUserClient 用户服务 HTTP 客户端
func NewUserClient(c config.UpstreamConf) UserService {
	return &userClient{upstream: newUpstream("user-service", c)}
}

func (c *userClient) GetUser(ctx context.Context, userID uint64) (*UserInfo, error) {
	var info UserInfo
	if err := c.call(ctx, http.MethodGet, fmt.Sprintf("/api/v1/users/%d", userID), nil, &info); err != nil {
		return nil, err
	}
	return &info, nil
}
