package model

import (
	"context"
	"errors"

	"gorm.io/gorm"
)

var ErrActivityNotFound = errors.New("拼团活动不存在")

// ==================== Activity 拼团活动模型 ====================

// Activity 管理员创建的拼团活动模板，与团的状态无关
type Activity struct {
	ID uint64 `gorm:"primaryKey;autoIncrement" json:"id"`

	ProductID  uint64 `gorm:"index;not null;comment:商品ID" json:"product_id"`
	GroupPrice int64  `gorm:"not null;comment:拼团价(分)" json:"group_price"`

	RequiredNum uint32 `gorm:"not null;comment:成团人数" json:"required_num"`
	MaxNum      uint32 `gorm:"default:0;comment:最大人数(0=同成团人数)" json:"max_num"`

	StartTime int64 `gorm:"not null;comment:开始时间" json:"start_time"`
	EndTime   int64 `gorm:"not null;comment:结束时间" json:"end_time"`

	Status int8 `gorm:"default:1;index;comment:状态: 0未开始 1进行中 2已结束 3异常" json:"status"`

	CreatedAt int64 `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt int64 `gorm:"autoUpdateTime" json:"updated_at"`
}

func (Activity) TableName() string {
	return "group_buy_activity"
}

// IsActiveAt 活动是否处于进行中且在时间窗口内
func (a *Activity) IsActiveAt(now int64) bool {
	return a.Status == ActivityStatusOngoing && a.StartTime <= now && now <= a.EndTime
}

// ==================== ActivityModel 数据访问层 ====================

type ActivityModel struct {
	db *gorm.DB
}

func NewActivityModel(db *gorm.DB) *ActivityModel {
	return &ActivityModel{db: db}
}

// Create 创建拼团活动
func (m *ActivityModel) Create(ctx context.Context, activity *Activity) error {
	return m.db.WithContext(ctx).Create(activity).Error
}

// FindByID 根据ID查询
func (m *ActivityModel) FindByID(ctx context.Context, id uint64) (*Activity, error) {
	var activity Activity
	err := m.db.WithContext(ctx).Where("id = ?", id).First(&activity).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrActivityNotFound
		}
		return nil, err
	}
	return &activity, nil
}

// Update 按字段更新拼团活动，调用方需先确认活动存在
func (m *ActivityModel) Update(ctx context.Context, id uint64, fields map[string]interface{}) error {
	return m.db.WithContext(ctx).Model(&Activity{}).Where("id = ?", id).Updates(fields).Error
}

// Delete 删除拼团活动
func (m *ActivityModel) Delete(ctx context.Context, id uint64) error {
	result := m.db.WithContext(ctx).Where("id = ?", id).Delete(&Activity{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrActivityNotFound
	}
	return nil
}

// List 分页查询拼团活动（最新在前）
func (m *ActivityModel) List(ctx context.Context, page, pageSize int) ([]Activity, int64, error) {
	var (
		activities []Activity
		total      int64
	)
	db := m.db.WithContext(ctx).Model(&Activity{})
	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	err := db.Order("id DESC").
		Offset((page - 1) * pageSize).
		Limit(pageSize).
		Find(&activities).Error
	return activities, total, err
}

// ListOngoing 查询当前进行中的拼团活动（按结束时间升序）
func (m *ActivityModel) ListOngoing(ctx context.Context, now int64, page, pageSize int) ([]Activity, int64, error) {
	var (
		activities []Activity
		total      int64
	)
	db := m.db.WithContext(ctx).
		Model(&Activity{}).
		Where("status = ? AND start_time <= ? AND end_time >= ?", ActivityStatusOngoing, now, now)
	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	err := db.Order("end_time ASC, id ASC").
		Offset((page - 1) * pageSize).
		Limit(pageSize).
		Find(&activities).Error
	return activities, total, err
}
