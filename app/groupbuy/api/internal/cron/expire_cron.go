package cron

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"groupbuy-platform/app/groupbuy/api/internal/logic/payment"
	"groupbuy-platform/app/groupbuy/api/internal/metrics"
	"groupbuy-platform/app/groupbuy/api/internal/saga"
	"groupbuy-platform/app/groupbuy/api/internal/svc"
	"groupbuy-platform/app/groupbuy/model"
	"groupbuy-platform/common/utils/idgen"

	"github.com/google/uuid"
	"github.com/zeromicro/go-zero/core/logx"
)

// ==================== 常量定义 ====================

const (
	defaultIntervalSeconds = 3600
	defaultBatchSize       = 100
)

// ==================== SweepReport 扫描结果 ====================

// SweepReport 一次扫描的汇总
type SweepReport struct {
	Attempted      int      // 处理的过期团数
	Succeeded      int      // 补偿流程正常结束的团数（含个别成员补偿失败）
	Skipped        int      // 已被其他流程处理的团数
	Failed         int      // 补偿流程报错或 panic 的团数
	FailedTeams    []uint64 // 报错的团ID
	MemberFailures int      // 补偿失败待对账的成员数

	ShipRedelivered   int // 重新通知待发货的团数
	StaleReservations int // 清理的孤儿占位数
}

// ==================== ExpireCron 过期扫描 ====================

// ExpireCron 拼团过期扫描
//
// 执行策略：
//   - 默认每小时执行一次，启动后立即执行一次
//   - 每个团独立调用补偿流程，单个团报错或 panic 不影响其他团
//   - 不使用分布式锁：补偿流程在团行锁内判断状态，多实例重复扫描只会跳过
//   - 顺带重新投递成团后未成功的待发货通知、清理超时未回填订单号的占位
type ExpireCron struct {
	svcCtx *svc.ServiceContext

	intervalSeconds int
	batchSize       int
	stopChan        chan struct{}
	running         atomic.Bool
	stopOnce        sync.Once
	ownerID         string // 实例标识，仅用于日志
}

// NewExpireCron 创建过期扫描任务
func NewExpireCron(svcCtx *svc.ServiceContext) *ExpireCron {
	c := &ExpireCron{
		svcCtx:          svcCtx,
		intervalSeconds: defaultIntervalSeconds,
		batchSize:       defaultBatchSize,
		stopChan:        make(chan struct{}),
		ownerID:         uuid.New().String(),
	}
	if svcCtx.Config.Cron.ExpireIntervalSeconds > 0 {
		c.intervalSeconds = svcCtx.Config.Cron.ExpireIntervalSeconds
	}
	if svcCtx.Config.Cron.BatchSize > 0 {
		c.batchSize = svcCtx.Config.Cron.BatchSize
	}
	return c
}

// Start 启动定时任务
func (c *ExpireCron) Start() {
	if !c.running.CompareAndSwap(false, true) {
		logx.Info("[ExpireCron] 定时任务已在运行中，跳过重复启动")
		return
	}

	logx.Infof("[ExpireCron] 启动拼团过期扫描，执行间隔: %d 秒, owner: %s", c.intervalSeconds, c.ownerID)

	go func() {
		c.execute()

		ticker := time.NewTicker(time.Duration(c.intervalSeconds) * time.Second)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				c.execute()
			case <-c.stopChan:
				logx.Info("[ExpireCron] 定时任务已停止")
				return
			}
		}
	}()
}

// Stop 停止定时任务
func (c *ExpireCron) Stop() {
	if !c.running.Load() {
		return
	}
	c.stopOnce.Do(func() {
		close(c.stopChan)
	})
	c.running.Store(false)
}

// RunOnce 手动执行一次扫描（供测试/运维使用）
func (c *ExpireCron) RunOnce(ctx context.Context) *SweepReport {
	logx.WithContext(ctx).Info("[ExpireCron] 手动触发过期扫描")
	return c.sweep(ctx)
}

func (c *ExpireCron) execute() {
	c.sweep(context.Background())
}

// sweep 一次完整扫描
func (c *ExpireCron) sweep(ctx context.Context) *SweepReport {
	start := time.Now()
	report := &SweepReport{}

	c.expireTeams(ctx, start.Unix(), report)
	c.redeliverShipNotify(ctx, start.Unix(), report)
	c.cleanStaleReservations(ctx, start.Unix(), report)

	metrics.SweepDuration.Observe(time.Since(start).Seconds())
	if report.Attempted > 0 || report.ShipRedelivered > 0 || report.StaleReservations > 0 {
		logx.WithContext(ctx).Infof("[ExpireCron] 扫描完成: attempted=%d, succeeded=%d, skipped=%d, failed=%d, "+
			"memberFailures=%d, shipRedelivered=%d, staleReservations=%d, cost=%s",
			report.Attempted, report.Succeeded, report.Skipped, report.Failed,
			report.MemberFailures, report.ShipRedelivered, report.StaleReservations, time.Since(start))
	}
	if report.Failed > 0 {
		logx.WithContext(ctx).Errorf("[ExpireCron] 部分团处理失败，下次扫描重试: teams=%v", report.FailedTeams)
	}
	return report
}

// ==================== 过期团 ====================

// expireTeams 按 ID 游标分批处理过期团
func (c *ExpireCron) expireTeams(ctx context.Context, now int64, report *SweepReport) {
	var afterID uint64
	for {
		ids, err := c.svcCtx.TeamModel.FindExpiredIDs(ctx, now, afterID, c.batchSize)
		if err != nil {
			logx.WithContext(ctx).Errorf("[ExpireCron] 查询过期团失败: afterId=%d, err=%v", afterID, err)
			return
		}
		if len(ids) == 0 {
			return
		}

		for _, id := range ids {
			c.expireOne(ctx, id, report)
		}
		afterID = ids[len(ids)-1]

		if len(ids) < c.batchSize {
			return
		}
	}
}

// expireOne 单个团的补偿，错误与 panic 都只计入报告
func (c *ExpireCron) expireOne(ctx context.Context, teamID uint64, report *SweepReport) {
	report.Attempted++

	sagaReport, err := c.refundTeam(ctx, teamID)
	switch {
	case err != nil:
		report.Failed++
		report.FailedTeams = append(report.FailedTeams, teamID)
		metrics.SweepTeams.WithLabelValues("failed").Inc()
		logx.WithContext(ctx).Errorf("[ExpireCron] 团补偿失败: teamId=%d, err=%v", teamID, err)
	case sagaReport.Skipped:
		report.Skipped++
		metrics.SweepTeams.WithLabelValues("skipped").Inc()
	default:
		report.Succeeded++
		report.MemberFailures += sagaReport.Failed
		metrics.SweepTeams.WithLabelValues("succeeded").Inc()
	}
}

func (c *ExpireCron) refundTeam(ctx context.Context, teamID uint64) (report *saga.Report, err error) {
	defer func() {
		if p := recover(); p != nil {
			report, err = nil, fmt.Errorf("panic: %v", p)
		}
	}()

	return c.svcCtx.RefundSaga.RefundExpiredTeam(ctx, teamID)
}

// ==================== 待发货通知重投 ====================

// redeliverShipNotify 成团后超过重试延迟仍未通知成功的团，重新通知订单服务
func (c *ExpireCron) redeliverShipNotify(ctx context.Context, now int64, report *SweepReport) {
	before := now - int64(c.svcCtx.Config.Cron.ShipRetryDelaySeconds)
	ids, err := c.svcCtx.TeamModel.FindUnshippedSucceededIDs(ctx, before, c.batchSize)
	if err != nil {
		logx.WithContext(ctx).Errorf("[ExpireCron] 查询未通知发货的团失败: err=%v", err)
		return
	}

	for _, teamID := range ids {
		orderIDs, err := c.svcCtx.MemberModel.ListOrderIDsByTeamStatus(ctx, nil, teamID, model.MemberStatusSucceeded)
		if err != nil {
			logx.WithContext(ctx).Errorf("[ExpireCron] 查询成团订单失败: teamId=%d, err=%v", teamID, err)
			continue
		}
		if payment.NotifyReadyToShip(ctx, c.svcCtx, teamID, orderIDs) {
			report.ShipRedelivered++
		}
	}
}

// ==================== 孤儿占位清理 ====================

// cleanStaleReservations 删除超时仍未回填订单号的占位
//
// 参团进程在下单后、回填前退出会留下这类记录，对应订单可能已创建，
// 按业务单号输出日志供订单侧对账
func (c *ExpireCron) cleanStaleReservations(ctx context.Context, now int64, report *SweepReport) {
	before := now - int64(c.svcCtx.Config.Cron.ReservationTTLSeconds)
	members, err := c.svcCtx.MemberModel.FindStaleReservations(ctx, before, c.batchSize)
	if err != nil {
		logx.WithContext(ctx).Errorf("[ExpireCron] 查询超时占位失败: err=%v", err)
		return
	}

	for _, m := range members {
		if err := c.svcCtx.MemberModel.DeleteReservation(ctx, nil, m.ID); err != nil {
			logx.WithContext(ctx).Errorf("[ExpireCron] 删除超时占位失败: memberId=%d, err=%v", m.ID, err)
			continue
		}
		report.StaleReservations++
		logx.WithContext(ctx).Infof("[ExpireCron] 清理超时占位，待订单对账: teamId=%d, userId=%d, bizNo=%s",
			m.TeamID, m.UserID, idgen.GenJoinBizNo(m.TeamID, m.UserID))
	}
}
