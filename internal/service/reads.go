package service

import (
	"context"

	"github.com/yuqie6/YukiClanBattle/internal/schema"
)

// BossStatus 当前档案 5 个 Boss 的状态
func (c *Clan) BossStatus(ctx context.Context) ([]BossView, error) {
	var out []BossView
	err := c.withRead(ctx, "boss_status", func(s *scope) error {
		slots, err := s.bosses()
		if err != nil {
			return err
		}
		out = make([]BossView, 0, len(slots))
		for _, slot := range slots {
			out = append(out, s.view(slot))
		}
		return nil
	})
	return out, err
}

// Members 成员列表及今日状态
func (c *Clan) Members(ctx context.Context) ([]MemberStatus, error) {
	var out []MemberStatus
	err := c.withRead(ctx, "members", func(s *scope) error {
		members, err := s.r.Members.ListByClan(ctx, c.id)
		if err != nil {
			return err
		}
		usages, err := s.r.Usage.ListByDay(ctx, c.id, s.day())
		if err != nil {
			return err
		}
		byMember := make(map[string]*schema.DailyUsage, len(usages))
		for i := range usages {
			byMember[usages[i].MemberID] = &usages[i]
		}

		out = make([]MemberStatus, 0, len(members))
		for _, m := range members {
			out = append(out, MemberStatus{
				MemberID: m.MemberID,
				Name:     m.Name,
				IsAdmin:  s.isAdmin(m.MemberID),
				Today:    usageStatus(byMember[m.MemberID]),
			})
		}
		return nil
	})
	return out, err
}

// InProgress 申请出刀列表；boss 为 0 时列出全部
func (c *Clan) InProgress(ctx context.Context, boss int) ([]schema.ChallengeSlot, error) {
	var out []schema.ChallengeSlot
	err := c.withRead(ctx, "in_progress", func(s *scope) error {
		var err error
		out, err = s.r.Contention.ListInProgress(ctx, c.id, s.archive(), boss)
		return err
	})
	return out, err
}

// OnTree 挂树列表；boss 为 0 时列出全部
func (c *Clan) OnTree(ctx context.Context, boss int) ([]schema.TreeHold, error) {
	var out []schema.TreeHold
	err := c.withRead(ctx, "on_tree", func(s *scope) error {
		var err error
		out, err = s.r.Contention.ListOnTree(ctx, c.id, s.archive(), boss)
		return err
	})
	return out, err
}

// Subscriptions 预约列表；boss/cycle 为 0 时不过滤
func (c *Clan) Subscriptions(ctx context.Context, boss, cycle int) ([]schema.Subscription, error) {
	var out []schema.Subscription
	err := c.withRead(ctx, "subscriptions", func(s *scope) error {
		var err error
		out, err = s.r.Contention.ListSubscriptions(ctx, c.id, s.archive(), "", boss, cycle)
		return err
	})
	return out, err
}

// TodaySL 成员今日 SL 登记情况
func (c *Clan) TodaySL(ctx context.Context, memberID string) (SLStatus, error) {
	var out SLStatus
	err := c.withRead(ctx, "today_sl", func(s *scope) error {
		u, err := s.r.Usage.Get(ctx, c.id, memberID, s.day())
		if err != nil || u == nil {
			return err
		}
		out = SLStatus{
			Used:     u.SLUsed,
			Boss:     u.SLBoss,
			Comment:  u.SLComment,
			Proxy:    u.SLProxy,
			RecordAt: u.SLRecordAt,
		}
		return nil
	})
	return out, err
}
