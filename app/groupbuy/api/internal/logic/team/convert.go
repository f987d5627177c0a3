package team

import (
	"groupbuy-platform/app/groupbuy/api/internal/types"
	"groupbuy-platform/app/groupbuy/model"
)

func toTeamInfo(t *model.Team) types.TeamInfo {
	return types.TeamInfo{
		Id:          t.ID,
		TeamNo:      t.TeamNo,
		ActivityId:  t.ActivityID,
		LeaderId:    t.LeaderID,
		CommunityId: t.CommunityID,
		RequiredNum: t.RequiredNum,
		CurrentNum:  t.CurrentNum,
		RemainNum:   t.RemainNum(),
		Status:      t.Status,
		StatusText:  t.StatusText(),
		SuccessTime: t.SuccessTime,
		ExpireTime:  t.ExpireTime,
		CreatedAt:   t.CreatedAt,
	}
}

func toMemberInfo(m *model.Member) types.MemberInfo {
	return types.MemberInfo{
		Id:         m.ID,
		UserId:     m.UserID,
		IsLauncher: m.IsLauncher,
		Quantity:   m.Quantity,
		PayAmount:  m.PayAmount,
		Status:     m.Status,
		StatusText: m.StatusText(),
		JoinTime:   m.JoinTime,
	}
}

func toActivityInfo(a *model.Activity) *types.ActivityInfo {
	return &types.ActivityInfo{
		Id:          a.ID,
		ProductId:   a.ProductID,
		GroupPrice:  a.GroupPrice,
		RequiredNum: a.RequiredNum,
		StartTime:   a.StartTime,
		EndTime:     a.EndTime,
		Status:      a.Status,
	}
}
