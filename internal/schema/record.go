package schema

// DamageRecord 出刀记录（只追加；仅允许按成员后进先出撤回）
// 数据量级：万级/赛季
type DamageRecord struct {
	ID              int64        `gorm:"primaryKey;autoIncrement" json:"id"`
	ClanID          string       `gorm:"size:32;not null;index:idx_record_scope" json:"clan_id"`
	Archive         int          `gorm:"not null;index:idx_record_scope" json:"archive"`
	MemberID        string       `gorm:"size:32;not null;index" json:"member_id"`
	Boss            int          `gorm:"not null" json:"boss"`
	Cycle           int          `gorm:"not null" json:"cycle"`
	Damage          int64        `gorm:"not null" json:"damage"`
	RecordTime      int64        `gorm:"not null;index" json:"record_time"` // Unix 时间戳（毫秒）
	Day             string       `gorm:"size:10;index" json:"day"`          // 会战日 YYYY-MM-DD（冗余字段，便于按天统计）
	ProxyReporter   string       `gorm:"size:32" json:"proxy_reporter,omitempty"`
	Comment         string       `gorm:"type:text" json:"comment,omitempty"`
	IsAddition      bool         `gorm:"not null;default:false" json:"is_addition"`
	IsKill          bool         `gorm:"not null;default:false" json:"is_kill"`
	GrantedAddition bool         `gorm:"not null;default:false" json:"granted_addition"` // 击杀时是否获得了补偿刀
	Released        HoldSnapshot `gorm:"type:text" json:"-"`
}

func (DamageRecord) TableName() string {
	return "damage_records"
}

// IsProxy 是否为代报
func (r DamageRecord) IsProxy() bool {
	return r.ProxyReporter != "" && r.ProxyReporter != r.MemberID
}
