package service

import (
	"context"

	"github.com/yuqie6/YukiClanBattle/internal/eventbus"
	"github.com/yuqie6/YukiClanBattle/internal/schema"
)

// CommitRecordRequest 报刀参数；MemberID 为出刀成员（代报时为被代报人）
type CommitRecordRequest struct {
	MemberID      string
	Boss          int
	Damage        string
	Comment       string
	ProxyReporter string
	ForceFull     bool
}

// CommitRecordOutcome 报刀结果；除 Result 外的字段只在成功时有值
type CommitRecordOutcome struct {
	Result          CommitRecordResult
	Record          RecordView
	Boss            BossView
	ChallengesToday int
	IsAddition      bool
	GrantedAddition bool
	// 击杀后：预约了新周目的成员、仍挂在该 Boss 树上的成员
	Subscribers []schema.Subscription
	OnTree      []schema.TreeHold
}

// CommitRecord 校验并提交一刀伤害。校验顺序：成员、Boss 编号、伤害格式、剩余血量、每日配额；
// 任一失败都不产生写入。伤害恰好等于剩余血量即为击杀，Boss 立即进入下一周目。
func (c *Clan) CommitRecord(ctx context.Context, req CommitRecordRequest) (CommitRecordOutcome, error) {
	var out CommitRecordOutcome
	err := c.withWrite(ctx, opCommitRecord, func(s *scope) error {
		ok, err := s.isMember(req.MemberID)
		if err != nil {
			return err
		}
		if !ok {
			out.Result = CommitRecordMemberNotInClan
			return nil
		}
		if req.Boss < 1 || req.Boss > schema.BossCount {
			out.Result = CommitRecordIllegalTargetBoss
			return nil
		}
		damage, ok := ParseDamage(req.Damage)
		if !ok {
			out.Result = CommitRecordIllegalDamageInput
			return nil
		}
		slot, err := s.boss(req.Boss)
		if err != nil {
			return err
		}
		if damage > slot.HP {
			out.Result = CommitRecordDamageOutOfHP
			return nil
		}

		day := s.day()
		usage, err := s.r.Usage.GetOrInit(s.ctx, c.id, req.MemberID, day)
		if err != nil {
			return err
		}
		quota := quotaOf(s.info)
		isAddition, ok := quota.Classify(usage, req.ForceFull)
		if !ok {
			out.Result = CommitRecordCheckRecordLegalFailed
			return nil
		}

		// 以下开始写入
		isKill := damage == slot.HP
		released, err := s.releaseHolds(req.MemberID, req.Boss)
		if err != nil {
			return err
		}
		granted := quota.Apply(usage, isAddition, isKill)

		proxy := req.ProxyReporter
		if proxy == req.MemberID {
			proxy = ""
		}
		rec := &schema.DamageRecord{
			ClanID:          c.id,
			Archive:         s.archive(),
			MemberID:        req.MemberID,
			Boss:            req.Boss,
			Cycle:           slot.Cycle,
			Damage:          damage,
			RecordTime:      s.now.UnixMilli(),
			Day:             day,
			ProxyReporter:   proxy,
			Comment:         req.Comment,
			IsAddition:      isAddition,
			IsKill:          isKill,
			GrantedAddition: granted,
			Released:        released,
		}
		if err := s.r.Records.Create(s.ctx, rec); err != nil {
			return err
		}

		cycle, hp := slot.Cycle, slot.HP-damage
		if isKill {
			cycle++
			if hp, err = s.table.Lookup(s.info.Variant, s.archive(), req.Boss, cycle); err != nil {
				return err
			}
		}
		if err := s.r.Bosses.UpdateState(s.ctx, slot.ID, cycle, hp); err != nil {
			return err
		}
		if err := s.r.Usage.Save(s.ctx, usage); err != nil {
			return err
		}

		slot.Cycle, slot.HP = cycle, hp
		out.Result = CommitRecordSuccess
		out.Record = toRecordView(*rec)
		out.Boss = s.view(*slot)
		out.ChallengesToday = usage.ChallengeCount
		out.IsAddition = isAddition
		out.GrantedAddition = granted

		if isKill {
			if out.Subscribers, err = s.r.Contention.ListSubscriptions(s.ctx, c.id, s.archive(), "", req.Boss, cycle); err != nil {
				return err
			}
			if out.OnTree, err = s.r.Contention.ListOnTree(s.ctx, c.id, s.archive(), req.Boss); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return CommitRecordOutcome{}, c.fail(opCommitRecord, err)
	}

	var events []eventbus.Event
	if out.Result == CommitRecordSuccess {
		events = append(events, c.event(EventRecordCommitted, map[string]any{
			"record":           out.Record,
			"boss":             out.Boss,
			"challenges_today": out.ChallengesToday,
			"is_addition":      out.IsAddition,
		}))
		if out.Record.IsKill {
			events = append(events, c.event(EventBossKilled, map[string]any{
				"boss":        out.Boss,
				"subscribers": memberIDsOfSubs(out.Subscribers),
				"on_tree":     memberIDsOfTree(out.OnTree),
			}))
		}
	}
	c.finish(opCommitRecord, out.Result.String(), events...)
	return out, nil
}

// releaseHolds 释放成员在该 Boss 上的申请出刀 / 挂树 / 预约，返回被释放的快照供撤回恢复
func (s *scope) releaseHolds(memberID string, boss int) (schema.HoldSnapshot, error) {
	var snap schema.HoldSnapshot
	clanID, archive := s.info.ClanID, s.archive()

	slot, err := s.r.Contention.GetInProgress(s.ctx, clanID, archive, memberID)
	if err != nil {
		return snap, err
	}
	if slot != nil && slot.Boss == boss {
		if _, err := s.r.Contention.DeleteInProgress(s.ctx, clanID, archive, memberID); err != nil {
			return snap, err
		}
		snap.InProgress = slot
	}

	tree, err := s.r.Contention.GetOnTree(s.ctx, clanID, archive, memberID)
	if err != nil {
		return snap, err
	}
	if tree != nil && tree.Boss == boss {
		if _, err := s.r.Contention.DeleteOnTree(s.ctx, clanID, archive, memberID); err != nil {
			return snap, err
		}
		snap.OnTree = tree
	}

	subs, err := s.r.Contention.ListSubscriptions(s.ctx, clanID, archive, memberID, boss, 0)
	if err != nil {
		return snap, err
	}
	if len(subs) > 0 {
		if _, err := s.r.Contention.DeleteSubscriptions(s.ctx, clanID, archive, memberID, boss, 0); err != nil {
			return snap, err
		}
		snap.Subscriptions = subs
	}
	return snap, nil
}

func memberIDsOfSubs(subs []schema.Subscription) []string {
	out := make([]string, 0, len(subs))
	for _, s := range subs {
		out = append(out, s.MemberID)
	}
	return out
}

func memberIDsOfTree(holds []schema.TreeHold) []string {
	out := make([]string, 0, len(holds))
	for _, h := range holds {
		out = append(out, h.MemberID)
	}
	return out
}
