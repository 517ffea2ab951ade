package dto

// 本包承载 HTTP API 的对外契约；持久化结构见 internal/schema，业务逻辑在 internal/service。

// Response 统一响应外壳。ErrCode 为 0 表示成功；Code 为引擎结果码
type Response struct {
	ErrCode int    `json:"err_code"`
	Code    string `json:"code,omitempty"`
	Msg     string `json:"msg,omitempty"`
	Data    any    `json:"data,omitempty"`
}

// 业务错误码，与网页端约定一致
const (
	ErrCodeOK         = 0
	ErrCodeSession    = -1
	ErrCodeNotAdmin   = -2
	ErrCodeForbidden  = 403
	ErrCodeNotFound   = 404
	ErrCodeBadRequest = 400
)

type ClanRequest struct {
	ClanGID string `json:"clan_gid"`
}

type ReportRecordRequest struct {
	ClanGID           string `json:"clan_gid"`
	TargetBoss        int    `json:"target_boss"`
	Damage            string `json:"damage"`
	IsKillBoss        bool   `json:"is_kill_boss"`
	ForceFullChance   bool   `json:"force_use_full_chance"`
	IsProxyReport     bool   `json:"is_proxy_report"`
	ProxyReportMember string `json:"proxy_report_member"`
	Comment           string `json:"comment"`
}

type ReportQueueRequest struct {
	ClanGID    string `json:"clan_gid"`
	TargetBoss int    `json:"target_boss"`
	Comment    string `json:"comment"`
}

// ReportSubscribeRequest 预约与取消预约共用；TargetCycle 为 0 表示下一周目
type ReportSubscribeRequest struct {
	ClanGID     string `json:"clan_gid"`
	TargetBoss  int    `json:"target_boss"`
	TargetCycle int    `json:"target_cycle"`
	Comment     string `json:"comment"`
}

type ReportOnTreeRequest struct {
	ClanGID string `json:"clan_gid"`
	Boss    int    `json:"boss"`
	Comment string `json:"comment"`
}

type ReportSLRequest struct {
	ClanGID        string `json:"clan_gid"`
	Boss           int    `json:"boss"`
	Comment        string `json:"comment"`
	IsProxyReport  bool   `json:"is_proxy_report"`
	ProxyReportUID string `json:"proxy_report_uid"`
}

// ReportUndoRequest RecordID 为 0 表示撤回最近一刀
type ReportUndoRequest struct {
	ClanGID  string `json:"clan_gid"`
	RecordID int64  `json:"record_id"`
}

// QueryRecordRequest Date 为会战日（2006-01-02，可带 T 之后的时间部分）；空值表示不过滤
type QueryRecordRequest struct {
	ClanGID string `json:"clan_gid"`
	Date    string `json:"date"`
	Member  string `json:"member"`
	Boss    int    `json:"boss"`
	Cycle   int    `json:"cycle"`
}

type SetArchiveRequest struct {
	ClanGID string `json:"clan_gid"`
	DataNum int    `json:"data_num"`
}

