package team

import (
	"context"
	"strconv"
	"time"

	"groupbuy-platform/app/groupbuy/api/internal/client"
	"groupbuy-platform/app/groupbuy/api/internal/logic"
	"groupbuy-platform/app/groupbuy/api/internal/metrics"
	"groupbuy-platform/app/groupbuy/api/internal/svc"
	"groupbuy-platform/app/groupbuy/api/internal/types"
	"groupbuy-platform/app/groupbuy/model"
	"groupbuy-platform/common/ctxdata"
	"groupbuy-platform/common/errorx"
	"groupbuy-platform/common/utils/idgen"

	"github.com/pkg/errors"
	"github.com/zeromicro/go-zero/core/limit"
	"github.com/zeromicro/go-zero/core/logx"
	"gorm.io/gorm"
)

type JoinTeamLogic struct {
	logx.Logger
	ctx    context.Context
	svcCtx *svc.ServiceContext
}

// 参团
func NewJoinTeamLogic(ctx context.Context, svcCtx *svc.ServiceContext) *JoinTeamLogic {
	return &JoinTeamLogic{
		Logger: logx.WithContext(ctx),
		ctx:    ctx,
		svcCtx: svcCtx,
	}
}

func (l *JoinTeamLogic) JoinTeam(req *types.JoinTeamReq) (*types.JoinResp, error) {
	userID := ctxdata.GetUserIDFromCtx(l.ctx)
	if userID == 0 {
		return nil, errorx.ErrUnauthorized()
	}

	if err := l.takeQuota(userID); err != nil {
		return nil, err
	}

	resp, err := l.join(userID, req.TeamId, req.AddressId, req.Quantity, false)
	if err != nil {
		metrics.JoinResults.WithLabelValues(joinResultLabel(err)).Inc()
		return nil, err
	}
	metrics.JoinResults.WithLabelValues("succeeded").Inc()
	return resp, nil
}

// takeQuota 按用户限流，Redis 异常时放行
func (l *JoinTeamLogic) takeQuota(userID uint64) error {
	code, err := l.svcCtx.JoinLimiter.TakeCtx(l.ctx, strconv.FormatUint(userID, 10))
	if err != nil {
		l.Errorf("[JoinTeam] 限流器异常，放行: userId=%d, err=%v", userID, err)
		return nil
	}
	if code == limit.OverQuota {
		return errorx.ErrTooManyRequests()
	}
	return nil
}

// join 参团核心流程
//
//  1. 事务 A：锁团 → 校验状态/名额/重复 → 写入待支付占位（order_id = 0）
//  2. 释放锁后调用订单服务下单
//  3. 事务 B：锁成员 → 回填订单号
//
// 下单失败删除占位；回填失败先取消刚创建的订单再删除占位
func (l *JoinTeamLogic) join(userID, teamID, addressID uint64, quantity uint32, isLauncher bool) (*types.JoinResp, error) {
	// 1. 参数校验
	if teamID == 0 {
		return nil, errorx.ErrInvalidParams("团ID不能为空")
	}
	if addressID == 0 {
		return nil, errorx.ErrAddressInvalid()
	}
	if quantity == 0 || quantity > l.svcCtx.Config.Team.MaxQuantity {
		return nil, errorx.New(errorx.CodeInvalidQuantity)
	}

	// 2. 读取团与活动模板（不加锁，仅用于定价）
	snapshot, err := l.svcCtx.TeamModel.FindByID(l.ctx, teamID)
	if err != nil {
		return nil, logic.ToBizError(err)
	}
	activity, err := l.svcCtx.ActivityCache.GetByID(l.ctx, snapshot.ActivityID)
	if err != nil {
		return nil, logic.ToBizError(err)
	}
	payAmount := activity.GroupPrice * int64(quantity)

	// 3. 事务 A：占位
	member, team, remain, err := l.reserve(userID, teamID, addressID, quantity, payAmount, isLauncher)
	if err != nil {
		return nil, err
	}

	// 4. 锁外下单
	orderID, err := l.svcCtx.OrderClient.CreateOrder(l.ctx, &client.CreateOrderReq{
		BizNo:      idgen.GenJoinBizNo(teamID, userID),
		UserID:     userID,
		LeaderID:   team.LeaderID,
		ProductID:  activity.ProductID,
		ActivityID: activity.ID,
		TeamID:     teamID,
		Quantity:   quantity,
		UnitPrice:  activity.GroupPrice,
		AddressID:  addressID,
	})
	if err != nil {
		l.Errorf("[JoinTeam] 下单失败，释放名额: teamId=%d, userId=%d, err=%v", teamID, userID, err)
		l.releaseReservation(member.ID)
		if errorx.Is(err, errorx.CodeAddressInvalid) {
			return nil, errorx.ErrAddressInvalid()
		}
		return nil, err
	}

	// 5. 事务 B：回填订单号
	if err := l.bindOrder(member.ID, orderID); err != nil {
		l.Errorf("[JoinTeam] 回填订单失败，取消订单: teamId=%d, userId=%d, orderId=%d, err=%v",
			teamID, userID, orderID, err)
		if cancelErr := l.svcCtx.OrderClient.CancelOrder(l.ctx, orderID); cancelErr != nil {
			l.Errorf("[JoinTeam] 取消订单失败，待对账: orderId=%d, err=%v", orderID, cancelErr)
		}
		l.releaseReservation(member.ID)
		return nil, err
	}

	l.Infof("[JoinTeam] 参团成功: teamId=%d, userId=%d, orderId=%d, payAmount=%d", teamID, userID, orderID, payAmount)
	return &types.JoinResp{
		TeamId:     teamID,
		MemberId:   member.ID,
		OrderId:    orderID,
		PayAmount:  payAmount,
		RemainNum:  remain,
		ExpireTime: team.ExpireTime,
	}, nil
}

// reserve 事务 A：团行锁内完成全部校验并写入占位
//
// 名额按 待支付 + 已支付 计算，成员唯一索引兜底重复参团
func (l *JoinTeamLogic) reserve(userID, teamID, addressID uint64, quantity uint32, payAmount int64,
	isLauncher bool) (*model.Member, *model.Team, uint32, error) {
	var (
		member *model.Member
		team   *model.Team
		remain uint32
	)

	err := l.svcCtx.DB.WithContext(l.ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		team, err = l.svcCtx.TeamModel.FindByIDForUpdate(l.ctx, tx, teamID)
		if err != nil {
			return err
		}

		if !team.IsForming() || team.ExpireTime <= time.Now().Unix() {
			return errorx.ErrTeamClosed()
		}
		if team.CurrentNum >= team.RequiredNum {
			return errorx.ErrTeamFull()
		}

		if _, err := l.svcCtx.MemberModel.FindByTeamUser(l.ctx, tx, teamID, userID); err == nil {
			return errorx.ErrDuplicateJoin()
		} else if !errors.Is(err, model.ErrMemberNotFound) {
			return err
		}

		occupied, err := l.svcCtx.MemberModel.CountOccupied(l.ctx, tx, teamID)
		if err != nil {
			return err
		}
		if occupied >= int64(team.RequiredNum) {
			return errorx.ErrTeamFull()
		}

		member = &model.Member{
			TeamID:     teamID,
			UserID:     userID,
			IsLauncher: isLauncher,
			Quantity:   quantity,
			PayAmount:  payAmount,
			AddressID:  addressID,
			Status:     model.MemberStatusUnpaid,
		}
		if err := l.svcCtx.MemberModel.Insert(l.ctx, tx, member); err != nil {
			if model.IsDuplicateKeyErr(err) {
				return errorx.ErrDuplicateJoin()
			}
			return err
		}

		remain = team.RequiredNum - uint32(occupied) - 1
		return nil
	})
	if err != nil {
		return nil, nil, 0, logic.ToBizError(err)
	}
	return member, team, remain, nil
}

// bindOrder 事务 B：锁成员并回填订单号
//
// 占位在下单期间被取消（团已失败）时返回团已结束
func (l *JoinTeamLogic) bindOrder(memberID, orderID uint64) error {
	err := l.svcCtx.DB.WithContext(l.ctx).Transaction(func(tx *gorm.DB) error {
		member, err := l.svcCtx.MemberModel.FindByIDForUpdate(l.ctx, tx, memberID)
		if err != nil {
			return err
		}
		if member.Status != model.MemberStatusUnpaid {
			return errorx.ErrTeamClosed()
		}
		return l.svcCtx.MemberModel.BindOrder(l.ctx, tx, memberID, orderID)
	})
	return logic.ToBizError(err)
}

// releaseReservation 删除占位，失败只记录（超时占位由定时任务清理）
func (l *JoinTeamLogic) releaseReservation(memberID uint64) {
	if err := l.svcCtx.MemberModel.DeleteReservation(l.ctx, nil, memberID); err != nil {
		l.Errorf("[JoinTeam] 释放名额失败: memberId=%d, err=%v", memberID, err)
	}
}

func joinResultLabel(err error) string {
	switch {
	case errorx.Is(err, errorx.CodeTeamFull):
		return "team_full"
	case errorx.Is(err, errorx.CodeTeamClosed):
		return "team_closed"
	case errorx.Is(err, errorx.CodeDuplicateJoin):
		return "duplicate"
	default:
		return "failed"
	}
}
