package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/yuqie6/YukiClanBattle/internal/schema"
	"gorm.io/gorm"
)

// UsageRepository 每日出刀计数 / SL 仓储
type UsageRepository struct {
	db *gorm.DB
}

// NewUsageRepository 创建仓储
func NewUsageRepository(db *gorm.DB) *UsageRepository {
	return &UsageRepository{db: db}
}

// Get 查询成员某天的计数（没有返回 nil）
func (r *UsageRepository) Get(ctx context.Context, clanID, memberID, day string) (*schema.DailyUsage, error) {
	var u schema.DailyUsage
	err := r.db.WithContext(ctx).
		Where("clan_id = ? AND member_id = ? AND day = ?", clanID, memberID, day).
		First(&u).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("查询每日计数失败: %w", err)
	}
	return &u, nil
}

// GetOrInit 查询计数，没有则返回未落库的零值行
func (r *UsageRepository) GetOrInit(ctx context.Context, clanID, memberID, day string) (*schema.DailyUsage, error) {
	u, err := r.Get(ctx, clanID, memberID, day)
	if err != nil {
		return nil, err
	}
	if u == nil {
		u = &schema.DailyUsage{ClanID: clanID, MemberID: memberID, Day: day}
	}
	return u, nil
}

// ListByDay 列出公会某天的全部计数
func (r *UsageRepository) ListByDay(ctx context.Context, clanID, day string) ([]schema.DailyUsage, error) {
	var list []schema.DailyUsage
	if err := r.db.WithContext(ctx).
		Where("clan_id = ? AND day = ?", clanID, day).
		Order("member_id ASC").
		Find(&list).Error; err != nil {
		return nil, fmt.Errorf("查询每日计数失败: %w", err)
	}
	return list, nil
}

// Save 新增或覆盖
func (r *UsageRepository) Save(ctx context.Context, u *schema.DailyUsage) error {
	if err := r.db.WithContext(ctx).Save(u).Error; err != nil {
		return fmt.Errorf("保存每日计数失败: %w", err)
	}
	return nil
}

// DailyTotal 公会当天汇总
type DailyTotal struct {
	Challenges      int64 `json:"challenges"`
	PendingAddition int64 `json:"pending_addition"`
}

// SumByDay 汇总公会某天的出刀数与未用补偿刀
func (r *UsageRepository) SumByDay(ctx context.Context, clanID, day string) (DailyTotal, error) {
	var total DailyTotal
	if err := r.db.WithContext(ctx).
		Model(&schema.DailyUsage{}).
		Select("COALESCE(SUM(challenge_count), 0) AS challenges, COALESCE(SUM(pending_addition), 0) AS pending_addition").
		Where("clan_id = ? AND day = ?", clanID, day).
		Scan(&total).Error; err != nil {
		return DailyTotal{}, fmt.Errorf("汇总每日计数失败: %w", err)
	}
	return total, nil
}
