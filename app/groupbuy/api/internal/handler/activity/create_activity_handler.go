package activity

import (
	"net/http"

	"groupbuy-platform/app/groupbuy/api/internal/logic/activity"
	"groupbuy-platform/app/groupbuy/api/internal/svc"
	"groupbuy-platform/app/groupbuy/api/internal/types"
	"groupbuy-platform/common/errorx"
	"groupbuy-platform/common/response"

	"github.com/zeromicro/go-zero/rest/httpx"
)

// CreateActivityHandler POST /api/v1/groupbuy/admin/activities
func CreateActivityHandler(svcCtx *svc.ServiceContext) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req types.CreateActivityReq
		if err := httpx.Parse(r, &req); err != nil {
			httpx.ErrorCtx(r.Context(), w, errorx.ErrInvalidParams(err.Error()))
			return
		}

		l := activity.NewCreateActivityLogic(r.Context(), svcCtx)
		resp, err := l.CreateActivity(&req)
		if err != nil {
			httpx.ErrorCtx(r.Context(), w, err)
		} else {
			response.SuccessCtx(r.Context(), w, resp)
		}
	}
}
