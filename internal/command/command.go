package command

// Op 命令种类；每种命令对应一个引擎操作
type Op string

const (
	OpCreateClan    Op = "create_clan"
	OpCommitRecord  Op = "commit_record"
	OpCommitKill    Op = "commit_kill"
	OpStatus        Op = "status"
	OpRecentRecords Op = "recent_records"
	OpQueue         Op = "commit_in_progress"
	OpUnqueue       Op = "delete_in_progress"
	OpShowQueue     Op = "show_queue"
	OpOnTree        Op = "commit_on_tree"
	OpOffTree       Op = "delete_on_tree"
	OpQueryTree     Op = "query_tree"
	OpSubscribe     Op = "commit_subscribe"
	OpUnsubscribe   Op = "delete_subscribe"
	OpUndo          Op = "undo_recent"
	OpSL            Op = "commit_sl"
	OpQuerySL       Op = "query_sl"
	OpJoinClan      Op = "add_member"
	OpLeaveClan     Op = "leave_clan"
	OpRefreshAdmins Op = "refresh_admins"
	OpRenameMember  Op = "rename_member"
	OpRenameClan    Op = "rename_clan"
	OpRemoveMember  Op = "remove_member"
	OpSwitchArchive Op = "switch_archive"
	OpSettings      Op = "update_settings"
	OpHelp          Op = "help"
)

// Command 解析后的命令；具体类型见下方各结构体
type Command interface {
	Op() Op
}

// 各命令中的 Target 为空表示发送者本人，非空表示代他人操作

// CreateClan 创建[台日]服公会
type CreateClan struct {
	Variant string
}

// CommitRecord 报刀[整]N 伤害[:备注][@成员]
type CommitRecord struct {
	Boss      int
	Damage    string
	Comment   string
	Target    string
	ForceFull bool
}

// CommitKill 尾刀[整]N[:备注][@成员]，伤害取当前剩余血量
type CommitKill struct {
	Boss      int
	Comment   string
	Target    string
	ForceFull bool
}

// Status 状态 / 查N
type Status struct {
	Detail bool
	Bosses []int
}

type RecentRecords struct{}

// Queue 申请[出刀]N[:备注]
type Queue struct {
	Boss    int
	Comment string
}

type Unqueue struct{}

// ShowQueue 出刀表[N...]
type ShowQueue struct {
	Bosses []int
}

// OnTree 挂树N[:备注][@成员]
type OnTree struct {
	Boss    int
	Comment string
	Target  string
}

type OffTree struct{}

type QueryTree struct{}

// Subscribe 预约N [周目][:备注]；Cycle 为 0 表示下一周目
type Subscribe struct {
	Boss    int
	Cycle   int
	Comment string
}

// Unsubscribe 取消预约N [周目]；Cycle 为 0 表示该 Boss 的全部预约
type Unsubscribe struct {
	Boss  int
	Cycle int
}

type Undo struct {
	Target string
}

// SL SL[?]N[:备注][@成员]
type SL struct {
	Boss    int
	Comment string
	Target  string
}

type QuerySL struct {
	Target string
}

type JoinClan struct {
	Target string
}

type LeaveClan struct{}

type RefreshAdmins struct{}

type RenameMember struct {
	Name   string
	Target string
}

type RenameClan struct {
	Name string
}

type RemoveMember struct {
	MemberID string
}

type SwitchArchive struct {
	Archive int
}

// Settings 设置刀数 整刀 补偿刀
type Settings struct {
	FullPerDay     int
	AdditionPerDay int
}

type Help struct{}

func (CreateClan) Op() Op    { return OpCreateClan }
func (CommitRecord) Op() Op  { return OpCommitRecord }
func (CommitKill) Op() Op    { return OpCommitKill }
func (Status) Op() Op        { return OpStatus }
func (RecentRecords) Op() Op { return OpRecentRecords }
func (Queue) Op() Op         { return OpQueue }
func (Unqueue) Op() Op       { return OpUnqueue }
func (ShowQueue) Op() Op     { return OpShowQueue }
func (OnTree) Op() Op        { return OpOnTree }
func (OffTree) Op() Op       { return OpOffTree }
func (QueryTree) Op() Op     { return OpQueryTree }
func (Subscribe) Op() Op     { return OpSubscribe }
func (Unsubscribe) Op() Op   { return OpUnsubscribe }
func (Undo) Op() Op          { return OpUndo }
func (SL) Op() Op            { return OpSL }
func (QuerySL) Op() Op       { return OpQuerySL }
func (JoinClan) Op() Op      { return OpJoinClan }
func (LeaveClan) Op() Op     { return OpLeaveClan }
func (RefreshAdmins) Op() Op { return OpRefreshAdmins }
func (RenameMember) Op() Op  { return OpRenameMember }
func (RenameClan) Op() Op    { return OpRenameClan }
func (RemoveMember) Op() Op  { return OpRemoveMember }
func (SwitchArchive) Op() Op { return OpSwitchArchive }
func (Settings) Op() Op      { return OpSettings }
func (Help) Op() Op          { return OpHelp }
