package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/yuqie6/YukiClanBattle/internal/schema"
	"gorm.io/gorm"
)

// MemberRepository 成员仓储
type MemberRepository struct {
	db *gorm.DB
}

// NewMemberRepository 创建成员仓储
func NewMemberRepository(db *gorm.DB) *MemberRepository {
	return &MemberRepository{db: db}
}

// Get 查询成员（不存在返回 nil）
func (r *MemberRepository) Get(ctx context.Context, memberID string) (*schema.Member, error) {
	var m schema.Member
	err := r.db.WithContext(ctx).Where("member_id = ?", memberID).First(&m).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("查询成员失败: %w", err)
	}
	return &m, nil
}

// GetInClan 查询某公会内的成员（不在该公会返回 nil）
func (r *MemberRepository) GetInClan(ctx context.Context, clanID, memberID string) (*schema.Member, error) {
	var m schema.Member
	err := r.db.WithContext(ctx).
		Where("clan_id = ? AND member_id = ?", clanID, memberID).
		First(&m).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("查询成员失败: %w", err)
	}
	return &m, nil
}

// ListByClan 列出公会成员
func (r *MemberRepository) ListByClan(ctx context.Context, clanID string) ([]schema.Member, error) {
	var members []schema.Member
	if err := r.db.WithContext(ctx).
		Where("clan_id = ?", clanID).
		Order("created_at ASC, member_id ASC").
		Find(&members).Error; err != nil {
		return nil, fmt.Errorf("查询成员列表失败: %w", err)
	}
	return members, nil
}

// Save 新增或覆盖成员
func (r *MemberRepository) Save(ctx context.Context, m *schema.Member) error {
	if err := r.db.WithContext(ctx).Save(m).Error; err != nil {
		return fmt.Errorf("保存成员失败: %w", err)
	}
	return nil
}

// Rename 修改昵称，返回是否命中
func (r *MemberRepository) Rename(ctx context.Context, clanID, memberID, name string) (bool, error) {
	res := r.db.WithContext(ctx).Model(&schema.Member{}).
		Where("clan_id = ? AND member_id = ?", clanID, memberID).
		Update("name", name)
	if res.Error != nil {
		return false, fmt.Errorf("修改昵称失败: %w", res.Error)
	}
	return res.RowsAffected > 0, nil
}

// Delete 移出公会，返回是否命中
func (r *MemberRepository) Delete(ctx context.Context, clanID, memberID string) (bool, error) {
	res := r.db.WithContext(ctx).
		Where("clan_id = ? AND member_id = ?", clanID, memberID).
		Delete(&schema.Member{})
	if res.Error != nil {
		return false, fmt.Errorf("移出成员失败: %w", res.Error)
	}
	return res.RowsAffected > 0, nil
}
