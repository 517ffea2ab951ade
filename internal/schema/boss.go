package schema

import "time"

// BossCount 每个档案固定 5 个 Boss 位
const BossCount = 5

// BossSlot Boss 当前周目与剩余血量，按 (公会, 档案, Boss) 唯一
type BossSlot struct {
	ID        int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	ClanID    string    `gorm:"size:32;not null;uniqueIndex:idx_boss_slot" json:"clan_id"`
	Archive   int       `gorm:"not null;uniqueIndex:idx_boss_slot" json:"archive"`
	Boss      int       `gorm:"not null;uniqueIndex:idx_boss_slot" json:"boss"`
	Cycle     int       `gorm:"not null;default:1" json:"cycle"`
	HP        int64     `gorm:"not null" json:"hp"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (BossSlot) TableName() string {
	return "boss_slots"
}
