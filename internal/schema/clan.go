package schema

import "time"

// 公会服务器类型，决定日切时区与 Boss 血量表
const (
	VariantJP = "jp"
	VariantTW = "tw"
	VariantCN = "cn"
)

// Clan 公会信息
// 数据量级：个位数~百级
type Clan struct {
	ClanID                string    `gorm:"primaryKey;size:32" json:"clan_id"`
	Name                  string    `gorm:"size:64" json:"name"`
	Variant               string    `gorm:"size:8;not null" json:"variant"`
	Admins                JSONArray `gorm:"type:text" json:"admins"`
	CurrentArchive        int       `gorm:"not null;default:1" json:"current_archive"`
	FullChancesPerDay     int       `gorm:"not null;default:3" json:"full_chances_per_day"`
	AdditionChancesPerDay int       `gorm:"not null;default:3" json:"addition_chances_per_day"`
	CreatedAt             time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt             time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (Clan) TableName() string {
	return "clans"
}

// Member 公会成员；一个成员同一时间只属于一个公会
type Member struct {
	MemberID  string    `gorm:"primaryKey;size:32" json:"member_id"`
	ClanID    string    `gorm:"size:32;index;not null" json:"clan_id"`
	Name      string    `gorm:"size:64" json:"name"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (Member) TableName() string {
	return "members"
}
