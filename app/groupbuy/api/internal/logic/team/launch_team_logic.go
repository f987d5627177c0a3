package team

import (
	"context"
	"fmt"
	"time"

	"groupbuy-platform/app/groupbuy/api/internal/logic"
	"groupbuy-platform/app/groupbuy/api/internal/svc"
	"groupbuy-platform/app/groupbuy/api/internal/types"
	"groupbuy-platform/app/groupbuy/model"
	"groupbuy-platform/common/ctxdata"
	"groupbuy-platform/common/errorx"
	"groupbuy-platform/common/utils/idgen"

	"github.com/zeromicro/go-zero/core/logx"
	"gorm.io/gorm"
)

type LaunchTeamLogic struct {
	logx.Logger
	ctx    context.Context
	svcCtx *svc.ServiceContext
}

// 团长开团
func NewLaunchTeamLogic(ctx context.Context, svcCtx *svc.ServiceContext) *LaunchTeamLogic {
	return &LaunchTeamLogic{
		Logger: logx.WithContext(ctx),
		ctx:    ctx,
		svcCtx: svcCtx,
	}
}

func (l *LaunchTeamLogic) LaunchTeam(req *types.LaunchTeamReq) (*types.LaunchTeamResp, error) {
	leaderID := ctxdata.GetUserIDFromCtx(l.ctx)
	if leaderID == 0 {
		return nil, errorx.ErrUnauthorized()
	}

	// 1. 参数校验
	if req.ActivityId == 0 {
		return nil, errorx.ErrInvalidParams("活动ID不能为空")
	}
	teamConf := l.svcCtx.Config.Team
	if req.DurationHours < teamConf.MinDurationHours || req.DurationHours > teamConf.MaxDurationHours {
		return nil, errorx.NewWithMessage(errorx.CodeInvalidDuration,
			fmt.Sprintf("拼团时长需在%d-%d小时之间", teamConf.MinDurationHours, teamConf.MaxDurationHours))
	}

	// 2. 校验团长身份
	user, err := l.svcCtx.UserClient.GetUser(l.ctx, leaderID)
	if err != nil {
		l.Errorf("[LaunchTeam] 查询用户失败: userId=%d, err=%v", leaderID, err)
		return nil, err
	}
	if !user.IsLeader() {
		return nil, errorx.ErrNotLeader()
	}

	// 3. 校验活动
	activity, err := l.svcCtx.ActivityCache.GetByID(l.ctx, req.ActivityId)
	if err != nil {
		return nil, logic.ToBizError(err)
	}
	now := time.Now()
	if !activity.IsActiveAt(now.Unix()) {
		return nil, errorx.ErrActivityNotActive()
	}
	if activity.RequiredNum < teamConf.MinRequiredNum || activity.RequiredNum > teamConf.MaxRequiredNum {
		return nil, errorx.ErrInvalidMemberCount(teamConf.MinRequiredNum, teamConf.MaxRequiredNum)
	}

	// 4. 创建团
	team := &model.Team{
		TeamNo:      idgen.GenTeamNo(now),
		ActivityID:  activity.ID,
		LauncherID:  leaderID,
		LeaderID:    leaderID,
		CommunityID: user.CommunityID,
		RequiredNum: activity.RequiredNum,
		Status:      model.TeamStatusForming,
		ExpireTime:  now.Add(time.Duration(req.DurationHours) * time.Hour).Unix(),
	}
	if err := l.svcCtx.TeamModel.Insert(l.ctx, nil, team); err != nil {
		l.Errorf("[LaunchTeam] 创建团失败: activityId=%d, leaderId=%d, err=%v", activity.ID, leaderID, err)
		return nil, logic.ToBizError(err)
	}

	resp := &types.LaunchTeamResp{
		TeamId:     team.ID,
		TeamNo:     team.TeamNo,
		ExpireTime: team.ExpireTime,
	}

	// 5. 团长立即参团，失败则删除刚创建的团
	if req.JoinImmediately {
		quantity := req.Quantity
		if quantity == 0 {
			quantity = 1
		}
		joinResp, err := NewJoinTeamLogic(l.ctx, l.svcCtx).join(leaderID, team.ID, req.AddressId, quantity, true)
		if err != nil {
			l.rollbackTeam(team.ID)
			return nil, err
		}
		resp.Join = joinResp
	}

	l.Infof("[LaunchTeam] 开团成功: teamId=%d, teamNo=%s, activityId=%d, leaderId=%d, requiredNum=%d",
		team.ID, team.TeamNo, activity.ID, leaderID, team.RequiredNum)
	return resp, nil
}

// rollbackTeam 立即参团失败：同一事务删除残留占位和团
//
// 先删成员行再删团，与全局加锁顺序一致；团内还有其他成员记录时保留该团，到期后由过期扫描按失败处理
func (l *LaunchTeamLogic) rollbackTeam(teamID uint64) {
	err := l.svcCtx.DB.WithContext(l.ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := l.svcCtx.MemberModel.DeleteReservationsByTeam(l.ctx, tx, teamID); err != nil {
			return err
		}
		remaining, err := l.svcCtx.MemberModel.CountByTeam(l.ctx, tx, teamID)
		if err != nil {
			return err
		}
		if remaining > 0 {
			l.Infof("[LaunchTeam] 团内仍有成员，保留待过期处理: teamId=%d, members=%d", teamID, remaining)
			return nil
		}
		return l.svcCtx.TeamModel.Delete(l.ctx, tx, teamID)
	})
	if err != nil {
		l.Errorf("[LaunchTeam] 回滚团失败: teamId=%d, err=%v", teamID, err)
	}
}
