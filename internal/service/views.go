package service

import "github.com/yuqie6/YukiClanBattle/internal/schema"

// BossView Boss 位只读视图
type BossView struct {
	Boss  int   `json:"boss"`
	Cycle int   `json:"cycle"`
	HP    int64 `json:"hp"`
	MaxHP int64 `json:"max_hp"`
	Stage int   `json:"stage"`
}

// RecordView 出刀记录对外展示形态
type RecordView struct {
	ID            int64  `json:"id"`
	MemberID      string `json:"member_id"`
	Boss          int    `json:"boss"`
	Cycle         int    `json:"cycle"`
	Damage        int64  `json:"damage"`
	Timestamp     int64  `json:"timestamp"`
	Day           string `json:"day"`
	Comment       string `json:"comment,omitempty"`
	ProxyReporter string `json:"proxy_reporter,omitempty"`
	IsKill        bool   `json:"is_kill"`
	IsProxy       bool   `json:"is_proxy"`
	IsAddition    bool   `json:"is_addition"`
}

func toRecordView(r schema.DamageRecord) RecordView {
	return RecordView{
		ID:            r.ID,
		MemberID:      r.MemberID,
		Boss:          r.Boss,
		Cycle:         r.Cycle,
		Damage:        r.Damage,
		Timestamp:     r.RecordTime,
		Day:           r.Day,
		Comment:       r.Comment,
		ProxyReporter: r.ProxyReporter,
		IsKill:        r.IsKill,
		IsProxy:       r.IsProxy(),
		IsAddition:    r.IsAddition,
	}
}

func toRecordViews(records []schema.DamageRecord) []RecordView {
	out := make([]RecordView, 0, len(records))
	for _, r := range records {
		out = append(out, toRecordView(r))
	}
	return out
}

// TodayStatus 成员今日出刀情况
type TodayStatus struct {
	Challenges      int  `json:"challenges_today"`
	LastWasAddition bool `json:"last_was_addition"`
	PendingAddition int  `json:"pending_addition"`
}

// TodayTotal 全会今日出刀汇总
type TodayTotal struct {
	TotalChallenges        int64 `json:"total_challenges_today"`
	RemainingAdditionQuota int64 `json:"remaining_addition_quota"`
}

// MemberStatus 成员及其今日状态
type MemberStatus struct {
	MemberID string      `json:"member_id"`
	Name     string      `json:"name"`
	IsAdmin  bool        `json:"is_admin"`
	Today    TodayStatus `json:"today"`
}

// SLStatus 今日 SL 登记
type SLStatus struct {
	Used     bool   `json:"used"`
	Boss     int    `json:"boss,omitempty"`
	Comment  string `json:"comment,omitempty"`
	Proxy    string `json:"proxy,omitempty"`
	RecordAt int64  `json:"record_at,omitempty"`
}

func usageStatus(u *schema.DailyUsage) TodayStatus {
	if u == nil {
		return TodayStatus{}
	}
	return TodayStatus{
		Challenges:      u.ChallengeCount,
		LastWasAddition: u.LastIsAddition,
		PendingAddition: u.PendingAddition,
	}
}
