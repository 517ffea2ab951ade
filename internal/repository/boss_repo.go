package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/yuqie6/YukiClanBattle/internal/schema"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// BossRepository Boss 状态仓储
type BossRepository struct {
	db *gorm.DB
}

// NewBossRepository 创建仓储
func NewBossRepository(db *gorm.DB) *BossRepository {
	return &BossRepository{db: db}
}

// ListByArchive 返回某档案下按 Boss 序号排序的全部 Boss 位
func (r *BossRepository) ListByArchive(ctx context.Context, clanID string, archive int) ([]schema.BossSlot, error) {
	var slots []schema.BossSlot
	if err := r.db.WithContext(ctx).
		Where("clan_id = ? AND archive = ?", clanID, archive).
		Order("boss ASC").
		Find(&slots).Error; err != nil {
		return nil, fmt.Errorf("查询 Boss 状态失败: %w", err)
	}
	return slots, nil
}

// Get 查询单个 Boss 位（不存在返回 nil）
func (r *BossRepository) Get(ctx context.Context, clanID string, archive, boss int) (*schema.BossSlot, error) {
	var slot schema.BossSlot
	err := r.db.WithContext(ctx).
		Where("clan_id = ? AND archive = ? AND boss = ?", clanID, archive, boss).
		First(&slot).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("查询 Boss 状态失败: %w", err)
	}
	return &slot, nil
}

// EnsureSlots 为档案补齐缺失的 Boss 位（已存在的保持不动）
func (r *BossRepository) EnsureSlots(ctx context.Context, slots []schema.BossSlot) error {
	if len(slots) == 0 {
		return nil
	}
	if err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "clan_id"}, {Name: "archive"}, {Name: "boss"}},
		DoNothing: true,
	}).Create(&slots).Error; err != nil {
		return fmt.Errorf("初始化 Boss 状态失败: %w", err)
	}
	return nil
}

// UpdateState 写回周目与血量
func (r *BossRepository) UpdateState(ctx context.Context, id int64, cycle int, hp int64) error {
	if err := r.db.WithContext(ctx).Model(&schema.BossSlot{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{"cycle": cycle, "hp": hp}).Error; err != nil {
		return fmt.Errorf("更新 Boss 状态失败: %w", err)
	}
	return nil
}
