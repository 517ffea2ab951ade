package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/yuqie6/YukiClanBattle/internal/schema"
	"gorm.io/gorm"
)

// ClanRepository 公会仓储
type ClanRepository struct {
	db *gorm.DB
}

// NewClanRepository 创建公会仓储
func NewClanRepository(db *gorm.DB) *ClanRepository {
	return &ClanRepository{db: db}
}

// Create 创建公会
func (r *ClanRepository) Create(ctx context.Context, clan *schema.Clan) error {
	if err := r.db.WithContext(ctx).Create(clan).Error; err != nil {
		return fmt.Errorf("创建公会失败: %w", err)
	}
	return nil
}

// GetByID 按 ID 查询公会（不存在返回 nil）
func (r *ClanRepository) GetByID(ctx context.Context, clanID string) (*schema.Clan, error) {
	var clan schema.Clan
	err := r.db.WithContext(ctx).Where("clan_id = ?", clanID).First(&clan).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("查询公会失败: %w", err)
	}
	return &clan, nil
}

// List 列出全部公会
func (r *ClanRepository) List(ctx context.Context) ([]schema.Clan, error) {
	var clans []schema.Clan
	if err := r.db.WithContext(ctx).Order("clan_id ASC").Find(&clans).Error; err != nil {
		return nil, fmt.Errorf("查询公会列表失败: %w", err)
	}
	return clans, nil
}

// UpdateFields 部分字段更新
func (r *ClanRepository) UpdateFields(ctx context.Context, clanID string, updates map[string]interface{}) error {
	if len(updates) == 0 {
		return nil
	}
	if err := r.db.WithContext(ctx).Model(&schema.Clan{}).Where("clan_id = ?", clanID).Updates(updates).Error; err != nil {
		return fmt.Errorf("更新公会失败: %w", err)
	}
	return nil
}
