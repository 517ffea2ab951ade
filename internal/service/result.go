package service

// 所有业务失败都以封闭枚举返回，只有基础设施故障才走 error。
// String() 返回对外（HTTP / 聊天回复）使用的 snake_case 结果码。

// CommitRecordResult 报刀结果
type CommitRecordResult int

const (
	CommitRecordSuccess CommitRecordResult = iota
	CommitRecordMemberNotInClan
	CommitRecordIllegalTargetBoss
	CommitRecordIllegalDamageInput
	CommitRecordDamageOutOfHP
	CommitRecordCheckRecordLegalFailed
)

func (r CommitRecordResult) String() string {
	switch r {
	case CommitRecordSuccess:
		return "success"
	case CommitRecordMemberNotInClan:
		return "member_not_in_clan"
	case CommitRecordIllegalTargetBoss:
		return "illegal_target_boss"
	case CommitRecordIllegalDamageInput:
		return "illegal_damage_input"
	case CommitRecordDamageOutOfHP:
		return "damage_out_of_hp"
	case CommitRecordCheckRecordLegalFailed:
		return "check_record_legal_failed"
	default:
		return "unknown"
	}
}

// InProgressResult 申请出刀结果
type InProgressResult int

const (
	InProgressSuccess InProgressResult = iota
	InProgressMemberNotInClan
	InProgressAlreadyInBattle
	InProgressIllegalTargetBoss
)

func (r InProgressResult) String() string {
	switch r {
	case InProgressSuccess:
		return "success"
	case InProgressMemberNotInClan:
		return "member_not_in_clan"
	case InProgressAlreadyInBattle:
		return "already_in_battle"
	case InProgressIllegalTargetBoss:
		return "illegal_target_boss"
	default:
		return "unknown"
	}
}

// SubscribeResult 预约结果
type SubscribeResult int

const (
	SubscribeSuccess SubscribeResult = iota
	SubscribeMemberNotInClan
	SubscribeIllegalTargetBoss
	SubscribeAlreadyInProgress
	SubscribeAlreadySubscribed
	SubscribeBossCycleAlreadyKilled
)

func (r SubscribeResult) String() string {
	switch r {
	case SubscribeSuccess:
		return "success"
	case SubscribeMemberNotInClan:
		return "member_not_in_clan"
	case SubscribeIllegalTargetBoss:
		return "illegal_target_boss"
	case SubscribeAlreadyInProgress:
		return "already_in_progress"
	case SubscribeAlreadySubscribed:
		return "already_subscribed"
	case SubscribeBossCycleAlreadyKilled:
		return "boss_cycle_already_killed"
	default:
		return "unknown"
	}
}

// OnTreeResult 挂树结果
type OnTreeResult int

const (
	OnTreeSuccess OnTreeResult = iota
	OnTreeMemberNotInClan
	OnTreeAlreadyInOtherBossProgress
	OnTreeAlreadyOnTree
	OnTreeIllegalTargetBoss
)

func (r OnTreeResult) String() string {
	switch r {
	case OnTreeSuccess:
		return "success"
	case OnTreeMemberNotInClan:
		return "member_not_in_clan"
	case OnTreeAlreadyInOtherBossProgress:
		return "already_in_other_boss_progress"
	case OnTreeAlreadyOnTree:
		return "already_on_tree"
	case OnTreeIllegalTargetBoss:
		return "illegal_target_boss"
	default:
		return "unknown"
	}
}

// SLResult SL 登记结果
type SLResult int

const (
	SLSuccess SLResult = iota
	SLMemberNotInClan
	SLAlreadySL
	SLIllegalTargetBoss
)

func (r SLResult) String() string {
	switch r {
	case SLSuccess:
		return "success"
	case SLMemberNotInClan:
		return "member_not_in_clan"
	case SLAlreadySL:
		return "already_sl"
	case SLIllegalTargetBoss:
		return "illegal_target_boss"
	default:
		return "unknown"
	}
}

// AdminResult 管理员操作（切换档案、修改设置）结果
type AdminResult int

const (
	AdminSuccess AdminResult = iota
	AdminPermissionDenied
	AdminIllegalValue
)

func (r AdminResult) String() string {
	switch r {
	case AdminSuccess:
		return "success"
	case AdminPermissionDenied:
		return "permission_denied"
	case AdminIllegalValue:
		return "illegal_value"
	default:
		return "unknown"
	}
}

// CreateClanResult 创建公会结果
type CreateClanResult int

const (
	CreateClanSuccess CreateClanResult = iota
	CreateClanAlreadyExists
	CreateClanIllegalVariant
)

func (r CreateClanResult) String() string {
	switch r {
	case CreateClanSuccess:
		return "success"
	case CreateClanAlreadyExists:
		return "clan_already_exists"
	case CreateClanIllegalVariant:
		return "illegal_variant"
	default:
		return "unknown"
	}
}

var resultMessages = map[string]string{
	"member_not_in_clan":             "您还未加入公会，请发送“加入公会”加入",
	"illegal_target_boss":            "目前无法挑战这个 Boss",
	"illegal_damage_input":           "上报的伤害格式不合法",
	"damage_out_of_hp":               "上报的伤害超出了 Boss 血量，如已击杀请使用尾刀",
	"check_record_legal_failed":      "今日出刀次数已用完，请检查是否正确上报",
	"already_in_battle":              "您已经有正在挑战的 Boss",
	"already_in_progress":            "您已经正在挑战这个 Boss 了",
	"already_subscribed":             "您已经预约了这个 Boss",
	"boss_cycle_already_killed":      "该周目的 Boss 已经被击破",
	"already_in_other_boss_progress": "您正在挑战其他 Boss，无法在这里挂树",
	"already_on_tree":                "您已经在树上了",
	"already_sl":                     "您今天已经使用过 SL 了",
	"permission_denied":              "您不是会战管理员",
	"illegal_value":                  "参数不合法",
	"clan_already_exists":            "本群已经创建过公会",
	"illegal_variant":                "不支持的服务器类型",
}

// ResultMessage 结果码对应的中文提示；未知结果码原样返回
func ResultMessage(code string) string {
	if msg, ok := resultMessages[code]; ok {
		return msg
	}
	return code
}
