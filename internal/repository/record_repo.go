package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/yuqie6/YukiClanBattle/internal/schema"
	"gorm.io/gorm"
)

// RecordRepository 出刀记录仓储
type RecordRepository struct {
	db *gorm.DB
}

// NewRecordRepository 创建出刀记录仓储
func NewRecordRepository(db *gorm.DB) *RecordRepository {
	return &RecordRepository{db: db}
}

// RecordFilter 出刀记录查询条件；零值字段不参与过滤
type RecordFilter struct {
	ClanID    string
	Archive   int
	MemberID  string
	Boss      int
	Cycle     int
	StartTime int64 // 毫秒，闭区间
	EndTime   int64 // 毫秒，开区间
	Desc      bool
	Limit     int
}

// Create 追加一条记录
func (r *RecordRepository) Create(ctx context.Context, rec *schema.DamageRecord) error {
	if err := r.db.WithContext(ctx).Create(rec).Error; err != nil {
		return fmt.Errorf("写入出刀记录失败: %w", err)
	}
	return nil
}

// Delete 删除记录
func (r *RecordRepository) Delete(ctx context.Context, id int64) error {
	if err := r.db.WithContext(ctx).Delete(&schema.DamageRecord{}, id).Error; err != nil {
		return fmt.Errorf("删除出刀记录失败: %w", err)
	}
	return nil
}

// Latest 返回档案内最新一条记录；memberID 为空时不限成员
func (r *RecordRepository) Latest(ctx context.Context, clanID string, archive int, memberID string) (*schema.DamageRecord, error) {
	q := r.db.WithContext(ctx).Where("clan_id = ? AND archive = ?", clanID, archive)
	if memberID != "" {
		q = q.Where("member_id = ?", memberID)
	}
	var rec schema.DamageRecord
	if err := q.Order("id DESC").First(&rec).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("查询最近出刀失败: %w", err)
	}
	return &rec, nil
}

// Query 按条件查询记录，按提交顺序排序
func (r *RecordRepository) Query(ctx context.Context, f RecordFilter) ([]schema.DamageRecord, error) {
	q := r.db.WithContext(ctx).Where("clan_id = ?", f.ClanID)
	if f.Archive > 0 {
		q = q.Where("archive = ?", f.Archive)
	}
	if f.MemberID != "" {
		q = q.Where("member_id = ?", f.MemberID)
	}
	if f.Boss > 0 {
		q = q.Where("boss = ?", f.Boss)
	}
	if f.Cycle > 0 {
		q = q.Where("cycle = ?", f.Cycle)
	}
	if f.StartTime > 0 {
		q = q.Where("record_time >= ?", f.StartTime)
	}
	if f.EndTime > 0 {
		q = q.Where("record_time < ?", f.EndTime)
	}
	if f.Desc {
		q = q.Order("record_time DESC, id DESC")
	} else {
		q = q.Order("record_time ASC, id ASC")
	}
	if f.Limit > 0 {
		q = q.Limit(f.Limit)
	}

	var records []schema.DamageRecord
	if err := q.Find(&records).Error; err != nil {
		return nil, fmt.Errorf("查询出刀记录失败: %w", err)
	}
	return records, nil
}
