package schema

// ChallengeSlot 申请出刀（每个成员在一个档案内至多一条）
type ChallengeSlot struct {
	ID        int64  `gorm:"primaryKey;autoIncrement" json:"id"`
	ClanID    string `gorm:"size:32;not null;uniqueIndex:idx_in_progress_member" json:"clan_id"`
	Archive   int    `gorm:"not null;uniqueIndex:idx_in_progress_member" json:"archive"`
	MemberID  string `gorm:"size:32;not null;uniqueIndex:idx_in_progress_member" json:"member_id"`
	Boss      int    `gorm:"not null;index" json:"boss"`
	Comment   string `gorm:"type:text" json:"comment,omitempty"`
	CreatedAt int64  `gorm:"not null" json:"created_at"` // 毫秒
}

func (ChallengeSlot) TableName() string {
	return "battle_in_progress"
}

// Subscription 预约某个 Boss 的未来周目
type Subscription struct {
	ID        int64  `gorm:"primaryKey;autoIncrement" json:"id"`
	ClanID    string `gorm:"size:32;not null;uniqueIndex:idx_subscribe_target" json:"clan_id"`
	Archive   int    `gorm:"not null;uniqueIndex:idx_subscribe_target" json:"archive"`
	MemberID  string `gorm:"size:32;not null;uniqueIndex:idx_subscribe_target" json:"member_id"`
	Boss      int    `gorm:"not null;uniqueIndex:idx_subscribe_target" json:"boss"`
	Cycle     int    `gorm:"not null;uniqueIndex:idx_subscribe_target" json:"cycle"`
	Comment   string `gorm:"type:text" json:"comment,omitempty"`
	CreatedAt int64  `gorm:"not null" json:"created_at"`
}

func (Subscription) TableName() string {
	return "battle_subscribe"
}

// TreeHold 挂树（每个成员在一个档案内至多一条）
type TreeHold struct {
	ID        int64  `gorm:"primaryKey;autoIncrement" json:"id"`
	ClanID    string `gorm:"size:32;not null;uniqueIndex:idx_on_tree_member" json:"clan_id"`
	Archive   int    `gorm:"not null;uniqueIndex:idx_on_tree_member" json:"archive"`
	MemberID  string `gorm:"size:32;not null;uniqueIndex:idx_on_tree_member" json:"member_id"`
	Boss      int    `gorm:"not null;index" json:"boss"`
	Comment   string `gorm:"type:text" json:"comment,omitempty"`
	CreatedAt int64  `gorm:"not null" json:"created_at"`
}

func (TreeHold) TableName() string {
	return "battle_on_tree"
}
