package model

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ==================== 错误定义 ====================

var (
	ErrMemberNotFound       = errors.New("团成员不存在")
	ErrMemberStatusConflict = errors.New("团成员状态已变更")
)

// ==================== Member 团成员模型 ====================

// Member 用户在某个团中的参与记录，关联一笔外部订单
//
// (team_id, user_id) 唯一，order_id 为 0 表示名额已占用但订单尚未回填
type Member struct {
	ID uint64 `gorm:"primaryKey;autoIncrement" json:"id"`

	TeamID  uint64 `gorm:"uniqueIndex:uk_team_user,priority:1;not null;comment:团ID" json:"team_id"`
	UserID  uint64 `gorm:"uniqueIndex:uk_team_user,priority:2;index;not null;comment:用户ID" json:"user_id"`
	OrderID uint64 `gorm:"index:idx_order_id;default:0;comment:订单ID" json:"order_id"`

	IsLauncher bool   `gorm:"default:false;comment:是否发起人" json:"is_launcher"`
	Quantity   uint32 `gorm:"default:1;comment:购买数量" json:"quantity"`
	PayAmount  int64  `gorm:"default:0;comment:应付金额(分)" json:"pay_amount"`
	AddressID  uint64 `gorm:"default:0;comment:收货地址ID" json:"address_id"`

	Status   int8  `gorm:"default:0;index;comment:状态: 0待支付 1已支付 2已成团 3已取消" json:"status"`
	JoinTime int64 `gorm:"autoCreateTime;comment:参团时间" json:"join_time"`

	UpdatedAt int64 `gorm:"autoUpdateTime" json:"updated_at"`
}

func (Member) TableName() string {
	return "group_buy_member"
}

// StatusText 获取状态文本
func (m *Member) StatusText() string {
	if text, ok := MemberStatusText[m.Status]; ok {
		return text
	}
	return "未知"
}

// IsPaid 是否已计入 current_num
func (m *Member) IsPaid() bool {
	return m.Status == MemberStatusPaid || m.Status == MemberStatusSucceeded
}

// ==================== MemberModel 数据访问层 ====================

type MemberModel struct {
	db *gorm.DB
}

func NewMemberModel(db *gorm.DB) *MemberModel {
	return &MemberModel{db: db}
}

func (m *MemberModel) conn(ctx context.Context, tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx.WithContext(ctx)
	}
	return m.db.WithContext(ctx)
}

// Insert 新增成员（唯一索引 uk_team_user 冲突时返回原始错误，由调用方用 IsDuplicateKeyErr 判断）
func (m *MemberModel) Insert(ctx context.Context, tx *gorm.DB, member *Member) error {
	return m.conn(ctx, tx).Create(member).Error
}

// DeleteReservation 删除尚未回填订单的占位记录
func (m *MemberModel) DeleteReservation(ctx context.Context, tx *gorm.DB, id uint64) error {
	return m.conn(ctx, tx).
		Where("id = ? AND status = ? AND order_id = 0", id, MemberStatusUnpaid).
		Delete(&Member{}).Error
}

// CancelReservation 尚未回填订单号的占位 → 已取消（调用方必须已持有成员行锁）
//
// 订单号已回填时返回 ErrMemberStatusConflict，由调用方改为取消订单
func (m *MemberModel) CancelReservation(ctx context.Context, tx *gorm.DB, id uint64) error {
	result := tx.WithContext(ctx).
		Model(&Member{}).
		Where("id = ? AND status = ? AND order_id = 0", id, MemberStatusUnpaid).
		Update("status", MemberStatusCancelled)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrMemberStatusConflict
	}
	return nil
}

// DeleteReservationsByTeam 删除团内全部未回填订单的占位，返回删除行数
func (m *MemberModel) DeleteReservationsByTeam(ctx context.Context, tx *gorm.DB, teamID uint64) (int64, error) {
	result := m.conn(ctx, tx).
		Where("team_id = ? AND status = ? AND order_id = 0", teamID, MemberStatusUnpaid).
		Delete(&Member{})
	return result.RowsAffected, result.Error
}

// CountByTeam 团内成员记录数（含已取消）
func (m *MemberModel) CountByTeam(ctx context.Context, tx *gorm.DB, teamID uint64) (int64, error) {
	var count int64
	err := m.conn(ctx, tx).Model(&Member{}).Where("team_id = ?", teamID).Count(&count).Error
	return count, err
}

// FindByID 根据ID查询
func (m *MemberModel) FindByID(ctx context.Context, id uint64) (*Member, error) {
	var member Member
	err := m.db.WithContext(ctx).Where("id = ?", id).First(&member).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrMemberNotFound
		}
		return nil, err
	}
	return &member, nil
}

// FindByIDForUpdate 查询并加行锁
func (m *MemberModel) FindByIDForUpdate(ctx context.Context, tx *gorm.DB, id uint64) (*Member, error) {
	var member Member
	err := tx.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", id).
		First(&member).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrMemberNotFound
		}
		return nil, err
	}
	return &member, nil
}

// FindByOrderIDForUpdate 根据订单号查询并加行锁（支付回调入口）
func (m *MemberModel) FindByOrderIDForUpdate(ctx context.Context, tx *gorm.DB, orderID uint64) (*Member, error) {
	var member Member
	err := tx.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("order_id = ?", orderID).
		First(&member).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrMemberNotFound
		}
		return nil, err
	}
	return &member, nil
}

// FindByTeamUser 查询用户在团中的成员记录
func (m *MemberModel) FindByTeamUser(ctx context.Context, tx *gorm.DB, teamID, userID uint64) (*Member, error) {
	var member Member
	err := m.conn(ctx, tx).
		Where("team_id = ? AND user_id = ?", teamID, userID).
		First(&member).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrMemberNotFound
		}
		return nil, err
	}
	return &member, nil
}

// CountOccupied 统计占用名额的成员数（待支付 + 已支付）
func (m *MemberModel) CountOccupied(ctx context.Context, tx *gorm.DB, teamID uint64) (int64, error) {
	var count int64
	err := m.conn(ctx, tx).
		Model(&Member{}).
		Where("team_id = ? AND status IN ?", teamID, []int8{MemberStatusUnpaid, MemberStatusPaid}).
		Count(&count).Error
	return count, err
}

// CountPaid 统计计入 current_num 的成员数（对账用）
func (m *MemberModel) CountPaid(ctx context.Context, tx *gorm.DB, teamID uint64) (int64, error) {
	var count int64
	err := m.conn(ctx, tx).
		Model(&Member{}).
		Where("team_id = ? AND status IN ?", teamID, []int8{MemberStatusPaid, MemberStatusSucceeded}).
		Count(&count).Error
	return count, err
}

// BindOrder 回填订单号（只允许从 0 回填一次）
func (m *MemberModel) BindOrder(ctx context.Context, tx *gorm.DB, id, orderID uint64) error {
	result := tx.WithContext(ctx).
		Model(&Member{}).
		Where("id = ? AND order_id = 0 AND status = ?", id, MemberStatusUnpaid).
		Update("order_id", orderID)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrMemberStatusConflict
	}
	return nil
}

// TransitStatus 条件更新成员状态 from → to
func (m *MemberModel) TransitStatus(ctx context.Context, tx *gorm.DB, id uint64, from, to int8) error {
	result := tx.WithContext(ctx).
		Model(&Member{}).
		Where("id = ? AND status = ?", id, from).
		Update("status", to)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrMemberStatusConflict
	}
	return nil
}

// BatchTransitByTeam 批量更新团内某状态的成员，返回影响行数
func (m *MemberModel) BatchTransitByTeam(ctx context.Context, tx *gorm.DB, teamID uint64, from, to int8) (int64, error) {
	result := tx.WithContext(ctx).
		Model(&Member{}).
		Where("team_id = ? AND status = ?", teamID, from).
		Update("status", to)
	return result.RowsAffected, result.Error
}

// ListByTeam 查询团内所有成员（按参团顺序）
func (m *MemberModel) ListByTeam(ctx context.Context, tx *gorm.DB, teamID uint64) ([]Member, error) {
	var members []Member
	err := m.conn(ctx, tx).
		Where("team_id = ?", teamID).
		Order("id ASC").
		Find(&members).Error
	return members, err
}

// ListByTeamStatus 查询团内指定状态的成员
func (m *MemberModel) ListByTeamStatus(ctx context.Context, tx *gorm.DB, teamID uint64, statuses ...int8) ([]Member, error) {
	var members []Member
	err := m.conn(ctx, tx).
		Where("team_id = ? AND status IN ?", teamID, statuses).
		Order("id ASC").
		Find(&members).Error
	return members, err
}

// ListOrderIDsByTeamStatus 查询团内指定状态成员的订单号
func (m *MemberModel) ListOrderIDsByTeamStatus(ctx context.Context, tx *gorm.DB, teamID uint64, status int8) ([]uint64, error) {
	var orderIDs []uint64
	err := m.conn(ctx, tx).
		Model(&Member{}).
		Where("team_id = ? AND status = ? AND order_id > 0", teamID, status).
		Order("id ASC").
		Pluck("order_id", &orderIDs).Error
	return orderIDs, err
}

// ListByUser 查询用户参与的成员记录（分页，最新在前）
func (m *MemberModel) ListByUser(ctx context.Context, userID uint64, page, pageSize int) ([]Member, int64, error) {
	var (
		members []Member
		total   int64
	)
	query := m.db.WithContext(ctx).Model(&Member{}).Where("user_id = ?", userID)
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	if total == 0 {
		return []Member{}, 0, nil
	}
	err := query.Order("id DESC").
		Offset((page - 1) * pageSize).
		Limit(pageSize).
		Find(&members).Error
	return members, total, err
}

// FindStaleReservations 查询长时间未回填订单号的占位记录
func (m *MemberModel) FindStaleReservations(ctx context.Context, joinedBefore int64, limit int) ([]Member, error) {
	var members []Member
	err := m.db.WithContext(ctx).
		Where("status = ? AND order_id = 0 AND join_time < ?", MemberStatusUnpaid, joinedBefore).
		Order("id ASC").
		Limit(limit).
		Find(&members).Error
	return members, err
}
