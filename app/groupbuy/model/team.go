package model

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ==================== 错误定义 ====================

var (
	ErrTeamNotFound       = errors.New("团不存在")
	ErrTeamStatusConflict = errors.New("团状态已变更")
)

// ==================== Team 团模型 ====================

// Team 一次具体的、有时限的拼团实例
//
// current_num 只统计已支付/已成团的成员，必须与成员状态变更在同一事务内维护
type Team struct {
	ID uint64 `gorm:"primaryKey;autoIncrement" json:"id"`

	TeamNo     string `gorm:"type:varchar(32);uniqueIndex:uk_team_no;not null;comment:团编号" json:"team_no"`
	ActivityID uint64 `gorm:"index:idx_activity_status,priority:1;not null;comment:拼团活动ID" json:"activity_id"`

	LauncherID  uint64 `gorm:"not null;comment:发起人ID" json:"launcher_id"`
	LeaderID    uint64 `gorm:"index;not null;comment:团长ID" json:"leader_id"`
	CommunityID uint64 `gorm:"default:0;comment:所属社区ID" json:"community_id"`

	RequiredNum uint32 `gorm:"not null;comment:成团人数" json:"required_num"`
	CurrentNum  uint32 `gorm:"default:0;comment:已支付人数" json:"current_num"`

	Status       int8  `gorm:"default:0;index:idx_status_expire,priority:1;index:idx_activity_status,priority:2;comment:状态: 0拼团中 1已成团 2已失败" json:"status"`
	SuccessTime  int64 `gorm:"default:0;comment:成团时间" json:"success_time"`
	ExpireTime   int64 `gorm:"index:idx_status_expire,priority:2;not null;comment:过期时间" json:"expire_time"`
	ShipNotified bool  `gorm:"default:false;comment:是否已通知订单待发货" json:"ship_notified"`

	CreatedAt int64 `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt int64 `gorm:"autoUpdateTime" json:"updated_at"`
}

func (Team) TableName() string {
	return "group_buy_team"
}

// StatusText 获取状态文本
func (t *Team) StatusText() string {
	if text, ok := TeamStatusText[t.Status]; ok {
		return text
	}
	return "未知"
}

// IsForming 是否仍在拼团中
func (t *Team) IsForming() bool {
	return t.Status == TeamStatusForming
}

// RemainNum 剩余名额（按已支付人数计算）
func (t *Team) RemainNum() uint32 {
	if t.CurrentNum >= t.RequiredNum {
		return 0
	}
	return t.RequiredNum - t.CurrentNum
}

// ==================== TeamModel 数据访问层 ====================

type TeamModel struct {
	db *gorm.DB
}

func NewTeamModel(db *gorm.DB) *TeamModel {
	return &TeamModel{db: db}
}

func (m *TeamModel) conn(ctx context.Context, tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx.WithContext(ctx)
	}
	return m.db.WithContext(ctx)
}

// Insert 创建团
func (m *TeamModel) Insert(ctx context.Context, tx *gorm.DB, team *Team) error {
	return m.conn(ctx, tx).Create(team).Error
}

// Delete 删除团（仅用于发起失败时回滚刚创建且无成员的团）
func (m *TeamModel) Delete(ctx context.Context, tx *gorm.DB, id uint64) error {
	return m.conn(ctx, tx).
		Where("id = ? AND status = ? AND current_num = 0", id, TeamStatusForming).
		Delete(&Team{}).Error
}

// FindByID 根据ID查询（不加锁，仅用于展示）
func (m *TeamModel) FindByID(ctx context.Context, id uint64) (*Team, error) {
	var team Team
	err := m.db.WithContext(ctx).Where("id = ?", id).First(&team).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTeamNotFound
		}
		return nil, err
	}
	return &team, nil
}

// FindByIDForUpdate 查询并加行锁
//
// 团行锁是修改该团的唯一临界区边界，必须在事务内调用
func (m *TeamModel) FindByIDForUpdate(ctx context.Context, tx *gorm.DB, id uint64) (*Team, error) {
	var team Team
	err := tx.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", id).
		First(&team).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTeamNotFound
		}
		return nil, err
	}
	return &team, nil
}

// AddCurrentNum 调整已支付人数（调用方必须已持有团行锁）
func (m *TeamModel) AddCurrentNum(ctx context.Context, tx *gorm.DB, id uint64, delta int) error {
	query := tx.WithContext(ctx).Model(&Team{}).Where("id = ?", id)
	if delta < 0 {
		query = query.Where("current_num >= ?", -delta)
	}
	result := query.Update("current_num", gorm.Expr("current_num + ?", delta))
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrTeamStatusConflict
	}
	return nil
}

// MarkSucceeded 拼团中 → 已成团（不可逆，只会成功一次）
func (m *TeamModel) MarkSucceeded(ctx context.Context, tx *gorm.DB, id uint64, successTime int64) error {
	result := tx.WithContext(ctx).
		Model(&Team{}).
		Where("id = ? AND status = ?", id, TeamStatusForming).
		Updates(map[string]interface{}{
			"status":       TeamStatusSucceeded,
			"success_time": successTime,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrTeamStatusConflict
	}
	return nil
}

// MarkFailed 拼团中 → 已失败（不可逆，不会覆盖已成团）
func (m *TeamModel) MarkFailed(ctx context.Context, tx *gorm.DB, id uint64) error {
	result := tx.WithContext(ctx).
		Model(&Team{}).
		Where("id = ? AND status = ?", id, TeamStatusForming).
		Update("status", TeamStatusFailed)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrTeamStatusConflict
	}
	return nil
}

// MarkShipNotified 标记已通知订单服务待发货
func (m *TeamModel) MarkShipNotified(ctx context.Context, id uint64) error {
	return m.db.WithContext(ctx).
		Model(&Team{}).
		Where("id = ? AND status = ?", id, TeamStatusSucceeded).
		Update("ship_notified", true).Error
}

// ==================== 定时任务查询 ====================

// FindExpiredIDs 查询已过期但仍在拼团中的团ID（按ID游标分批）
//
// 命中 idx_status_expire(status, expire_time)
func (m *TeamModel) FindExpiredIDs(ctx context.Context, now int64, afterID uint64, limit int) ([]uint64, error) {
	var ids []uint64
	err := m.db.WithContext(ctx).
		Model(&Team{}).
		Where("status = ? AND expire_time < ? AND id > ?", TeamStatusForming, now, afterID).
		Order("id ASC").
		Limit(limit).
		Pluck("id", &ids).Error
	return ids, err
}

// FindUnshippedSucceededIDs 查询已成团但未成功通知发货的团ID
func (m *TeamModel) FindUnshippedSucceededIDs(ctx context.Context, successBefore int64, limit int) ([]uint64, error) {
	var ids []uint64
	err := m.db.WithContext(ctx).
		Model(&Team{}).
		Where("status = ? AND ship_notified = ? AND success_time <= ?", TeamStatusSucceeded, false, successBefore).
		Order("id ASC").
		Limit(limit).
		Pluck("id", &ids).Error
	return ids, err
}

// ==================== 列表查询 ====================

// ListOpenByActivity 查询活动下仍可参与的团，同社区的团优先，其次按创建时间倒序
func (m *TeamModel) ListOpenByActivity(ctx context.Context, activityID, communityID uint64, now int64, limit int) ([]Team, error) {
	var teams []Team
	err := m.db.WithContext(ctx).
		Where("activity_id = ? AND status = ? AND expire_time > ?", activityID, TeamStatusForming, now).
		Order(clause.OrderBy{Expression: clause.Expr{
			SQL:                "CASE WHEN community_id = ? THEN 0 ELSE 1 END ASC, created_at DESC, id DESC",
			Vars:               []interface{}{communityID},
			WithoutParentheses: true,
		}}).
		Limit(limit).
		Find(&teams).Error
	return teams, err
}

// FindByIDs 批量查询团
func (m *TeamModel) FindByIDs(ctx context.Context, ids []uint64) ([]Team, error) {
	if len(ids) == 0 {
		return []Team{}, nil
	}
	var teams []Team
	err := m.db.WithContext(ctx).Where("id IN ?", ids).Find(&teams).Error
	return teams, err
}

// CountFormingByActivity 活动下仍在拼团中的团数
func (m *TeamModel) CountFormingByActivity(ctx context.Context, activityID uint64) (int64, error) {
	var count int64
	err := m.db.WithContext(ctx).
		Model(&Team{}).
		Where("activity_id = ? AND status = ?", activityID, TeamStatusForming).
		Count(&count).Error
	return count, err
}

// ListByLeader 团长的团（分页，最新在前），status 为 nil 时不过滤状态
func (m *TeamModel) ListByLeader(ctx context.Context, leaderID uint64, status *int8, page, pageSize int) ([]Team, int64, error) {
	var (
		teams []Team
		total int64
	)
	db := m.db.WithContext(ctx).Model(&Team{}).Where("leader_id = ?", leaderID)
	if status != nil {
		db = db.Where("status = ?", *status)
	}
	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	err := db.Order("created_at DESC, id DESC").
		Offset((page - 1) * pageSize).
		Limit(pageSize).
		Find(&teams).Error
	return teams, total, err
}
