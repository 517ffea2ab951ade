package schema

// DailyUsage 成员单个会战日的出刀计数与 SL 标记
type DailyUsage struct {
	ID              int64  `gorm:"primaryKey;autoIncrement" json:"id"`
	ClanID          string `gorm:"size:32;not null;uniqueIndex:idx_usage_day" json:"clan_id"`
	MemberID        string `gorm:"size:32;not null;uniqueIndex:idx_usage_day" json:"member_id"`
	Day             string `gorm:"size:10;not null;uniqueIndex:idx_usage_day" json:"day"`
	ChallengeCount  int    `gorm:"not null;default:0" json:"challenge_count"`
	FullCount       int    `gorm:"not null;default:0" json:"full_count"`
	AdditionCount   int    `gorm:"not null;default:0" json:"addition_count"`   // 已使用的补偿刀
	AdditionGranted int    `gorm:"not null;default:0" json:"addition_granted"` // 当天获得过的补偿刀
	PendingAddition int    `gorm:"not null;default:0" json:"pending_addition"` // 尚未使用的补偿刀
	LastIsAddition  bool   `gorm:"not null;default:false" json:"last_is_addition"`

	SLUsed     bool   `gorm:"column:sl_used;not null;default:false" json:"sl_used"`
	SLBoss     int    `gorm:"column:sl_boss" json:"sl_boss,omitempty"`
	SLComment  string `gorm:"column:sl_comment;type:text" json:"sl_comment,omitempty"`
	SLProxy    string `gorm:"column:sl_proxy;size:32" json:"sl_proxy,omitempty"`
	SLRecordAt int64  `gorm:"column:sl_record_at" json:"sl_record_at,omitempty"`
}

func (DailyUsage) TableName() string {
	return "daily_usage"
}
