package service

import (
	"context"
	"strconv"

	"github.com/yuqie6/YukiClanBattle/internal/eventbus"
	"github.com/yuqie6/YukiClanBattle/internal/schema"
)

// InProgressOutcome 申请出刀结果；成功时 Holders 为同一 Boss 上已在出刀的其他成员
type InProgressOutcome struct {
	Result  InProgressResult
	Holders []schema.ChallengeSlot
}

// CommitInProgress 申请出刀。成员同一时间只能持有一个申请；挂在其他 Boss 树上时同样视为出刀中。
func (c *Clan) CommitInProgress(ctx context.Context, memberID string, boss int, comment string) (InProgressOutcome, error) {
	var out InProgressOutcome
	err := c.withWrite(ctx, opInProgress, func(s *scope) error {
		ok, err := s.isMember(memberID)
		if err != nil {
			return err
		}
		if !ok {
			out.Result = InProgressMemberNotInClan
			return nil
		}

		existing, err := s.r.Contention.GetInProgress(s.ctx, c.id, s.archive(), memberID)
		if err != nil {
			return err
		}
		if existing != nil {
			out.Result = InProgressAlreadyInBattle
			return nil
		}
		tree, err := s.r.Contention.GetOnTree(s.ctx, c.id, s.archive(), memberID)
		if err != nil {
			return err
		}
		if tree != nil && tree.Boss != boss {
			out.Result = InProgressAlreadyInBattle
			return nil
		}

		eligible, err := s.eligible(boss)
		if err != nil {
			return err
		}
		if !eligible {
			out.Result = InProgressIllegalTargetBoss
			return nil
		}

		holders, err := s.r.Contention.ListInProgress(s.ctx, c.id, s.archive(), boss)
		if err != nil {
			return err
		}
		slot := &schema.ChallengeSlot{
			ClanID:    c.id,
			Archive:   s.archive(),
			MemberID:  memberID,
			Boss:      boss,
			Comment:   comment,
			CreatedAt: s.now.UnixMilli(),
		}
		if err := s.r.Contention.CreateInProgress(s.ctx, slot); err != nil {
			return err
		}
		out.Result = InProgressSuccess
		out.Holders = holders
		return nil
	})
	if err != nil {
		return InProgressOutcome{}, c.fail(opInProgress, err)
	}

	var events []eventbus.Event
	if out.Result == InProgressSuccess {
		events = append(events, c.event(EventInProgress, map[string]any{
			"action": "apply", "member_id": memberID, "boss": boss, "comment": comment,
		}))
	}
	c.finish(opInProgress, out.Result.String(), events...)
	return out, nil
}

// SubscribeOutcome 预约结果；Cycle 为实际预约的周目
type SubscribeOutcome struct {
	Result SubscribeResult
	Cycle  int
}

// CommitSubscribe 预约 Boss 的某个未来周目；cycle 为 0 时预约下一周目
func (c *Clan) CommitSubscribe(ctx context.Context, memberID string, boss, cycle int, comment string) (SubscribeOutcome, error) {
	var out SubscribeOutcome
	err := c.withWrite(ctx, opSubscribe, func(s *scope) error {
		ok, err := s.isMember(memberID)
		if err != nil {
			return err
		}
		if !ok {
			out.Result = SubscribeMemberNotInClan
			return nil
		}
		if boss < 1 || boss > schema.BossCount {
			out.Result = SubscribeIllegalTargetBoss
			return nil
		}

		slot, err := s.r.Contention.GetInProgress(s.ctx, c.id, s.archive(), memberID)
		if err != nil {
			return err
		}
		if slot != nil && slot.Boss == boss {
			out.Result = SubscribeAlreadyInProgress
			return nil
		}

		state, err := s.boss(boss)
		if err != nil {
			return err
		}
		if cycle == 0 {
			cycle = state.Cycle + 1
		}
		out.Cycle = cycle

		subs, err := s.r.Contention.ListSubscriptions(s.ctx, c.id, s.archive(), memberID, boss, cycle)
		if err != nil {
			return err
		}
		if len(subs) > 0 {
			out.Result = SubscribeAlreadySubscribed
			return nil
		}
		if cycle <= state.Cycle {
			out.Result = SubscribeBossCycleAlreadyKilled
			return nil
		}

		sub := &schema.Subscription{
			ClanID:    c.id,
			Archive:   s.archive(),
			MemberID:  memberID,
			Boss:      boss,
			Cycle:     cycle,
			Comment:   comment,
			CreatedAt: s.now.UnixMilli(),
		}
		if err := s.r.Contention.CreateSubscription(s.ctx, sub); err != nil {
			return err
		}
		out.Result = SubscribeSuccess
		return nil
	})
	if err != nil {
		return SubscribeOutcome{}, c.fail(opSubscribe, err)
	}

	var events []eventbus.Event
	if out.Result == SubscribeSuccess {
		events = append(events, c.event(EventSubscribe, map[string]any{
			"action": "subscribe", "member_id": memberID, "boss": boss, "cycle": out.Cycle, "comment": comment,
		}))
	}
	c.finish(opSubscribe, out.Result.String(), events...)
	return out, nil
}

// CommitOnTree 挂树。成员在其他 Boss 上申请了出刀时不允许。
func (c *Clan) CommitOnTree(ctx context.Context, memberID string, boss int, comment string) (OnTreeResult, error) {
	var result OnTreeResult
	err := c.withWrite(ctx, opOnTree, func(s *scope) error {
		ok, err := s.isMember(memberID)
		if err != nil {
			return err
		}
		if !ok {
			result = OnTreeMemberNotInClan
			return nil
		}

		slot, err := s.r.Contention.GetInProgress(s.ctx, c.id, s.archive(), memberID)
		if err != nil {
			return err
		}
		if slot != nil && slot.Boss != boss {
			result = OnTreeAlreadyInOtherBossProgress
			return nil
		}
		tree, err := s.r.Contention.GetOnTree(s.ctx, c.id, s.archive(), memberID)
		if err != nil {
			return err
		}
		if tree != nil {
			result = OnTreeAlreadyOnTree
			return nil
		}
		eligible, err := s.eligible(boss)
		if err != nil {
			return err
		}
		if !eligible {
			result = OnTreeIllegalTargetBoss
			return nil
		}

		hold := &schema.TreeHold{
			ClanID:    c.id,
			Archive:   s.archive(),
			MemberID:  memberID,
			Boss:      boss,
			Comment:   comment,
			CreatedAt: s.now.UnixMilli(),
		}
		if err := s.r.Contention.CreateOnTree(s.ctx, hold); err != nil {
			return err
		}
		result = OnTreeSuccess
		return nil
	})
	if err != nil {
		return 0, c.fail(opOnTree, err)
	}

	var events []eventbus.Event
	if result == OnTreeSuccess {
		events = append(events, c.event(EventOnTree, map[string]any{
			"action": "on_tree", "member_id": memberID, "boss": boss, "comment": comment,
		}))
	}
	c.finish(opOnTree, result.String(), events...)
	return result, nil
}

// CommitSL 登记今日 SL；每个会战日一次
func (c *Clan) CommitSL(ctx context.Context, memberID string, boss int, comment, proxyReporter string) (SLResult, error) {
	var result SLResult
	err := c.withWrite(ctx, opSL, func(s *scope) error {
		ok, err := s.isMember(memberID)
		if err != nil {
			return err
		}
		if !ok {
			result = SLMemberNotInClan
			return nil
		}
		usage, err := s.r.Usage.GetOrInit(s.ctx, c.id, memberID, s.day())
		if err != nil {
			return err
		}
		if usage.SLUsed {
			result = SLAlreadySL
			return nil
		}
		if boss < 1 || boss > schema.BossCount {
			result = SLIllegalTargetBoss
			return nil
		}

		if proxyReporter == memberID {
			proxyReporter = ""
		}
		usage.SLUsed = true
		usage.SLBoss = boss
		usage.SLComment = comment
		usage.SLProxy = proxyReporter
		usage.SLRecordAt = s.now.UnixMilli()
		if err := s.r.Usage.Save(s.ctx, usage); err != nil {
			return err
		}
		result = SLSuccess
		return nil
	})
	if err != nil {
		return 0, c.fail(opSL, err)
	}

	var events []eventbus.Event
	if result == SLSuccess {
		events = append(events, c.event(EventSL, map[string]any{"member_id": memberID, "boss": boss}))
	}
	c.finish(opSL, result.String(), events...)
	return result, nil
}

// DeleteInProgress 取消申请出刀
func (c *Clan) DeleteInProgress(ctx context.Context, memberID string) (bool, error) {
	return c.deleteHold(ctx, opDeleteInProgress, EventInProgress, memberID, func(s *scope) (int64, error) {
		return s.r.Contention.DeleteInProgress(s.ctx, c.id, s.archive(), memberID)
	})
}

// DeleteOnTree 下树
func (c *Clan) DeleteOnTree(ctx context.Context, memberID string) (bool, error) {
	return c.deleteHold(ctx, opDeleteOnTree, EventOnTree, memberID, func(s *scope) (int64, error) {
		return s.r.Contention.DeleteOnTree(s.ctx, c.id, s.archive(), memberID)
	})
}

// DeleteSubscribe 取消预约；cycle 为 0 时取消该 Boss 的全部预约
func (c *Clan) DeleteSubscribe(ctx context.Context, memberID string, boss, cycle int) (bool, error) {
	return c.deleteHold(ctx, opDeleteSubscribe, EventSubscribe, memberID, func(s *scope) (int64, error) {
		if boss < 1 || boss > schema.BossCount {
			return 0, nil
		}
		return s.r.Contention.DeleteSubscriptions(s.ctx, c.id, s.archive(), memberID, boss, cycle)
	})
}

func (c *Clan) deleteHold(ctx context.Context, op, eventType, memberID string, del func(s *scope) (int64, error)) (bool, error) {
	deleted := false
	err := c.withWrite(ctx, op, func(s *scope) error {
		ok, err := s.isMember(memberID)
		if err != nil || !ok {
			return err
		}
		n, err := del(s)
		if err != nil {
			return err
		}
		deleted = n > 0
		return nil
	})
	if err != nil {
		return false, c.fail(op, err)
	}
	var events []eventbus.Event
	if deleted {
		events = append(events, c.event(eventType, map[string]any{"action": op, "member_id": memberID}))
	}
	c.finish(op, strconv.FormatBool(deleted), events...)
	return deleted, nil
}
