// ============================================================================
// 路由注册
// ============================================================================
//
// 中间件执行顺序：
//   RequestID -> [Auth | CallbackAuth] -> Handler
//
// ============================================================================

package handler

import (
	"net/http"

	"groupbuy-platform/app/groupbuy/api/internal/handler/activity"
	"groupbuy-platform/app/groupbuy/api/internal/handler/payment"
	"groupbuy-platform/app/groupbuy/api/internal/handler/team"
	"groupbuy-platform/app/groupbuy/api/internal/middleware"
	"groupbuy-platform/app/groupbuy/api/internal/svc"

	"github.com/zeromicro/go-zero/rest"
)

const apiPrefix = "/api/v1/groupbuy"

// RegisterHandlers 注册所有路由
func RegisterHandlers(server *rest.Server, serverCtx *svc.ServiceContext) {
	// ==================== 全局中间件 ====================
	server.Use(middleware.NewRequestIDMiddleware().Handle)

	auth := middleware.NewAuthMiddleware(serverCtx.Config.Auth.AccessSecret)
	callbackAuth := middleware.NewCallbackAuthMiddleware(serverCtx.Config.CallbackToken)

	// ==================== 公开路由 ====================
	server.AddRoutes(
		[]rest.Route{
			{
				Method:  http.MethodGet,
				Path:    "/health",
				Handler: HealthHandler(serverCtx),
			},
		},
	)

	// ==================== 支付回调（共享密钥） ====================
	server.AddRoutes(
		rest.WithMiddlewares(
			[]rest.Middleware{callbackAuth.Handle},
			[]rest.Route{
				{
					Method:  http.MethodPost,
					Path:    "/callbacks/payment",
					Handler: payment.PaymentCallbackHandler(serverCtx),
				},
			}...,
		),
		rest.WithPrefix(apiPrefix),
	)

	// ==================== 需要登录的路由 ====================
	server.AddRoutes(
		rest.WithMiddlewares(
			[]rest.Middleware{auth.Handle},
			[]rest.Route{
				// 团长开团
				{
					Method:  http.MethodPost,
					Path:    "/teams",
					Handler: team.LaunchTeamHandler(serverCtx),
				},
				// 团详情
				{
					Method:  http.MethodGet,
					Path:    "/teams/:id",
					Handler: team.GetTeamDetailHandler(serverCtx),
				},
				// 参团
				{
					Method:  http.MethodPost,
					Path:    "/teams/:id/join",
					Handler: team.JoinTeamHandler(serverCtx),
				},
				// 退团
				{
					Method:  http.MethodPost,
					Path:    "/teams/:id/leave",
					Handler: team.LeaveTeamHandler(serverCtx),
				},
				// 团长取消拼团
				{
					Method:  http.MethodPost,
					Path:    "/teams/:id/cancel",
					Handler: team.CancelTeamHandler(serverCtx),
				},
				// 团长移除成员
				{
					Method:  http.MethodPost,
					Path:    "/teams/:id/members/:userId/remove",
					Handler: team.RemoveMemberHandler(serverCtx),
				},
				// 活动列表
				{
					Method:  http.MethodGet,
					Path:    "/activities",
					Handler: activity.ListActivitiesHandler(serverCtx),
				},
				// 活动详情
				{
					Method:  http.MethodGet,
					Path:    "/activities/:id",
					Handler: activity.GetActivityHandler(serverCtx),
				},
				// 活动下可参与的团
				{
					Method:  http.MethodGet,
					Path:    "/activities/:id/teams",
					Handler: team.ListActivityTeamsHandler(serverCtx),
				},
				// 我参与的团
				{
					Method:  http.MethodGet,
					Path:    "/my/teams",
					Handler: team.ListMyTeamsHandler(serverCtx),
				},
				// 我发起的团
				{
					Method:  http.MethodGet,
					Path:    "/leader/teams",
					Handler: team.ListLeaderTeamsHandler(serverCtx),
				},
				// 管理员创建活动
				{
					Method:  http.MethodPost,
					Path:    "/admin/activities",
					Handler: activity.CreateActivityHandler(serverCtx),
				},
				// 管理员修改活动
				{
					Method:  http.MethodPut,
					Path:    "/admin/activities/:id",
					Handler: activity.UpdateActivityHandler(serverCtx),
				},
				// 管理员删除活动
				{
					Method:  http.MethodDelete,
					Path:    "/admin/activities/:id",
					Handler: activity.DeleteActivityHandler(serverCtx),
				},
				// 管理员对账
				{
					Method:  http.MethodPost,
					Path:    "/admin/teams/:id/reconcile",
					Handler: team.ReconcileTeamHandler(serverCtx),
				},
			}...,
		),
		rest.WithPrefix(apiPrefix),
	)
}
