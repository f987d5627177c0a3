package handler

import (
	"net/http"
	"time"

	"groupbuy-platform/app/groupbuy/api/internal/svc"
	"groupbuy-platform/common/response"
)

var startTime = time.Now()

// HealthHandler 健康检查接口
// GET /health
// 用途：Kubernetes 探针、负载均衡健康检查
func HealthHandler(svcCtx *svc.ServiceContext) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		status := "healthy"
		if sqlDB, err := svcCtx.DB.DB(); err != nil || sqlDB.PingContext(r.Context()) != nil {
			status = "degraded"
		}
		response.SuccessCtx(r.Context(), w, map[string]interface{}{
			"status":    status,
			"timestamp": time.Now().Format(time.RFC3339),
			"uptime":    time.Since(startTime).String(),
		})
	}
}
