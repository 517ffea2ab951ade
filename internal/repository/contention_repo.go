package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/yuqie6/YukiClanBattle/internal/schema"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ContentionRepository 申请出刀 / 预约 / 挂树仓储
type ContentionRepository struct {
	db *gorm.DB
}

// NewContentionRepository 创建仓储
func NewContentionRepository(db *gorm.DB) *ContentionRepository {
	return &ContentionRepository{db: db}
}

// ========== 申请出刀 ==========

// GetInProgress 查询成员当前的出刀申请（没有返回 nil）
func (r *ContentionRepository) GetInProgress(ctx context.Context, clanID string, archive int, memberID string) (*schema.ChallengeSlot, error) {
	var slot schema.ChallengeSlot
	err := r.db.WithContext(ctx).
		Where("clan_id = ? AND archive = ? AND member_id = ?", clanID, archive, memberID).
		First(&slot).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("查询出刀申请失败: %w", err)
	}
	return &slot, nil
}

// ListInProgress 列出出刀申请；boss 为 0 时列出全部
func (r *ContentionRepository) ListInProgress(ctx context.Context, clanID string, archive, boss int) ([]schema.ChallengeSlot, error) {
	q := r.db.WithContext(ctx).Where("clan_id = ? AND archive = ?", clanID, archive)
	if boss > 0 {
		q = q.Where("boss = ?", boss)
	}
	var slots []schema.ChallengeSlot
	if err := q.Order("boss ASC, created_at ASC, id ASC").Find(&slots).Error; err != nil {
		return nil, fmt.Errorf("查询出刀申请失败: %w", err)
	}
	return slots, nil
}

// CreateInProgress 写入出刀申请
func (r *ContentionRepository) CreateInProgress(ctx context.Context, slot *schema.ChallengeSlot) error {
	if err := r.db.WithContext(ctx).Create(slot).Error; err != nil {
		return fmt.Errorf("写入出刀申请失败: %w", err)
	}
	return nil
}

// DeleteInProgress 删除成员的出刀申请，返回删除条数
func (r *ContentionRepository) DeleteInProgress(ctx context.Context, clanID string, archive int, memberID string) (int64, error) {
	res := r.db.WithContext(ctx).
		Where("clan_id = ? AND archive = ? AND member_id = ?", clanID, archive, memberID).
		Delete(&schema.ChallengeSlot{})
	if res.Error != nil {
		return 0, fmt.Errorf("删除出刀申请失败: %w", res.Error)
	}
	return res.RowsAffected, nil
}

// ========== 预约 ==========

// ListSubscriptions 列出预约；boss/cycle 为 0 时不参与过滤，memberID 为空时不限成员
func (r *ContentionRepository) ListSubscriptions(ctx context.Context, clanID string, archive int, memberID string, boss, cycle int) ([]schema.Subscription, error) {
	q := r.db.WithContext(ctx).Where("clan_id = ? AND archive = ?", clanID, archive)
	if memberID != "" {
		q = q.Where("member_id = ?", memberID)
	}
	if boss > 0 {
		q = q.Where("boss = ?", boss)
	}
	if cycle > 0 {
		q = q.Where("cycle = ?", cycle)
	}
	var subs []schema.Subscription
	if err := q.Order("boss ASC, cycle ASC, created_at ASC, id ASC").Find(&subs).Error; err != nil {
		return nil, fmt.Errorf("查询预约失败: %w", err)
	}
	return subs, nil
}

// CreateSubscription 写入预约
func (r *ContentionRepository) CreateSubscription(ctx context.Context, sub *schema.Subscription) error {
	if err := r.db.WithContext(ctx).Create(sub).Error; err != nil {
		return fmt.Errorf("写入预约失败: %w", err)
	}
	return nil
}

// DeleteSubscriptions 删除成员对某 Boss 的预约；cycle 为 0 时删除该 Boss 的全部预约
func (r *ContentionRepository) DeleteSubscriptions(ctx context.Context, clanID string, archive int, memberID string, boss, cycle int) (int64, error) {
	q := r.db.WithContext(ctx).
		Where("clan_id = ? AND archive = ? AND member_id = ? AND boss = ?", clanID, archive, memberID, boss)
	if cycle > 0 {
		q = q.Where("cycle = ?", cycle)
	}
	res := q.Delete(&schema.Subscription{})
	if res.Error != nil {
		return 0, fmt.Errorf("删除预约失败: %w", res.Error)
	}
	return res.RowsAffected, nil
}

// ========== 挂树 ==========

// GetOnTree 查询成员的挂树记录（没有返回 nil）
func (r *ContentionRepository) GetOnTree(ctx context.Context, clanID string, archive int, memberID string) (*schema.TreeHold, error) {
	var hold schema.TreeHold
	err := r.db.WithContext(ctx).
		Where("clan_id = ? AND archive = ? AND member_id = ?", clanID, archive, memberID).
		First(&hold).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("查询挂树失败: %w", err)
	}
	return &hold, nil
}

// ListOnTree 列出挂树；boss 为 0 时列出全部
func (r *ContentionRepository) ListOnTree(ctx context.Context, clanID string, archive, boss int) ([]schema.TreeHold, error) {
	q := r.db.WithContext(ctx).Where("clan_id = ? AND archive = ?", clanID, archive)
	if boss > 0 {
		q = q.Where("boss = ?", boss)
	}
	var holds []schema.TreeHold
	if err := q.Order("boss ASC, created_at ASC, id ASC").Find(&holds).Error; err != nil {
		return nil, fmt.Errorf("查询挂树失败: %w", err)
	}
	return holds, nil
}

// CreateOnTree 写入挂树
func (r *ContentionRepository) CreateOnTree(ctx context.Context, hold *schema.TreeHold) error {
	if err := r.db.WithContext(ctx).Create(hold).Error; err != nil {
		return fmt.Errorf("写入挂树失败: %w", err)
	}
	return nil
}

// DeleteOnTree 删除成员的挂树记录，返回删除条数
func (r *ContentionRepository) DeleteOnTree(ctx context.Context, clanID string, archive int, memberID string) (int64, error) {
	res := r.db.WithContext(ctx).
		Where("clan_id = ? AND archive = ? AND member_id = ?", clanID, archive, memberID).
		Delete(&schema.TreeHold{})
	if res.Error != nil {
		return 0, fmt.Errorf("删除挂树失败: %w", res.Error)
	}
	return res.RowsAffected, nil
}

// RestoreHolds 按快照原样恢复被释放的占位（保留原 ID 与时间）；与现存占位冲突的条目跳过
func (r *ContentionRepository) RestoreHolds(ctx context.Context, snap schema.HoldSnapshot) error {
	// 每种占位单独起一条语句链，避免复用上一个 Create 的 Statement
	insert := func(value any) error {
		return r.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(value).Error
	}
	if snap.InProgress != nil {
		if err := insert(snap.InProgress); err != nil {
			return fmt.Errorf("恢复出刀申请失败: %w", err)
		}
	}
	if snap.OnTree != nil {
		if err := insert(snap.OnTree); err != nil {
			return fmt.Errorf("恢复挂树失败: %w", err)
		}
	}
	if len(snap.Subscriptions) > 0 {
		subs := append([]schema.Subscription(nil), snap.Subscriptions...)
		if err := insert(&subs); err != nil {
			return fmt.Errorf("恢复预约失败: %w", err)
		}
	}
	return nil
}
