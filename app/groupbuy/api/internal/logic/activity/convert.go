package activity

import (
	"groupbuy-platform/app/groupbuy/api/internal/types"
	"groupbuy-platform/app/groupbuy/model"
)

const maxPageSize = 100

func toActivityInfo(a *model.Activity) types.ActivityInfo {
	return types.ActivityInfo{
		Id:          a.ID,
		ProductId:   a.ProductID,
		GroupPrice:  a.GroupPrice,
		RequiredNum: a.RequiredNum,
		StartTime:   a.StartTime,
		EndTime:     a.EndTime,
		Status:      a.Status,
	}
}

func normalizePage(page, pageSize int) (int, int) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > maxPageSize {
		pageSize = 20
	}
	return page, pageSize
}
