package service

import (
	"context"
	"strconv"

	"github.com/yuqie6/YukiClanBattle/internal/eventbus"
	"github.com/yuqie6/YukiClanBattle/internal/repository"
	"github.com/yuqie6/YukiClanBattle/internal/schema"
)

// UndoOutcome 撤回结果；Undone=false 时不做任何修改
type UndoOutcome struct {
	Undone bool
	Record RecordView
	Boss   BossView
}

// UndoRecent 撤回成员最近的一刀。只有当这刀同时是当前档案全会最新的一刀时才允许，
// 以保证 Boss 状态能按原样回退；expectedID 非 0 时还必须与该记录 id 一致。
func (c *Clan) UndoRecent(ctx context.Context, memberID string, expectedID int64) (UndoOutcome, error) {
	var out UndoOutcome
	err := c.withWrite(ctx, opUndo, func(s *scope) error {
		ok, err := s.isMember(memberID)
		if err != nil || !ok {
			return err
		}
		rec, err := s.r.Records.Latest(s.ctx, c.id, s.archive(), memberID)
		if err != nil || rec == nil {
			return err
		}
		if expectedID != 0 && rec.ID != expectedID {
			return nil
		}
		latest, err := s.r.Records.Latest(s.ctx, c.id, s.archive(), "")
		if err != nil {
			return err
		}
		if latest == nil || latest.ID != rec.ID {
			return nil
		}

		if err := s.r.Records.Delete(s.ctx, rec.ID); err != nil {
			return err
		}

		slot, err := s.boss(rec.Boss)
		if err != nil {
			return err
		}
		if rec.IsKill {
			slot.Cycle, slot.HP = rec.Cycle, rec.Damage
		} else {
			slot.HP += rec.Damage
		}
		if err := s.r.Bosses.UpdateState(s.ctx, slot.ID, slot.Cycle, slot.HP); err != nil {
			return err
		}

		if err := s.revertUsage(rec); err != nil {
			return err
		}
		holds, err := s.restorable(memberID, rec.Released)
		if err != nil {
			return err
		}
		if err := s.r.Contention.RestoreHolds(s.ctx, holds); err != nil {
			return err
		}

		out.Undone = true
		out.Record = toRecordView(*rec)
		out.Boss = s.view(*slot)
		return nil
	})
	if err != nil {
		return UndoOutcome{}, c.fail(opUndo, err)
	}

	var events []eventbus.Event
	if out.Undone {
		events = append(events, c.event(EventRecordUndone, map[string]any{"record": out.Record, "boss": out.Boss}))
	}
	c.finish(opUndo, strconv.FormatBool(out.Undone), events...)
	return out, nil
}

// revertUsage 回退记录所在会战日的计数，并按当天剩余的最后一刀重算 LastIsAddition
func (s *scope) revertUsage(rec *schema.DamageRecord) error {
	usage, err := s.r.Usage.Get(s.ctx, s.info.ClanID, rec.MemberID, rec.Day)
	if err != nil || usage == nil {
		return err
	}
	quotaOf(s.info).Revert(usage, rec)

	start, end, err := s.dayRange(rec.Day)
	if err != nil {
		return err
	}
	rest, err := s.r.Records.Query(s.ctx, repository.RecordFilter{
		ClanID:    s.info.ClanID,
		MemberID:  rec.MemberID,
		StartTime: start,
		EndTime:   end,
		Desc:      true,
		Limit:     1,
	})
	if err != nil {
		return err
	}
	usage.LastIsAddition = len(rest) > 0 && rest[0].IsAddition
	return s.r.Usage.Save(s.ctx, usage)
}

// restorable 过滤掉与成员当前占位冲突的快照条目，保证恢复后仍满足“至多一个申请、不在别的 Boss 挂树”
func (s *scope) restorable(memberID string, snap schema.HoldSnapshot) (schema.HoldSnapshot, error) {
	slot, err := s.r.Contention.GetInProgress(s.ctx, s.info.ClanID, s.archive(), memberID)
	if err != nil {
		return schema.HoldSnapshot{}, err
	}
	tree, err := s.r.Contention.GetOnTree(s.ctx, s.info.ClanID, s.archive(), memberID)
	if err != nil {
		return schema.HoldSnapshot{}, err
	}

	out := schema.HoldSnapshot{Subscriptions: snap.Subscriptions}
	if snap.InProgress != nil && slot == nil && (tree == nil || tree.Boss == snap.InProgress.Boss) {
		out.InProgress = snap.InProgress
		slot = snap.InProgress
	}
	if snap.OnTree != nil && tree == nil && (slot == nil || slot.Boss == snap.OnTree.Boss) {
		out.OnTree = snap.OnTree
	}
	return out, nil
}

// RecentRecords 最近 n 条记录（新的在前）；memberID 为空时取全会，n<=0 时取默认条数。
// 成员不在公会时 member 为 false
func (c *Clan) RecentRecords(ctx context.Context, memberID string, n int) (out []RecordView, member bool, err error) {
	if n <= 0 {
		n = c.reg.Settings().RecentRecords
	}
	err = c.withRead(ctx, "recent_records", func(s *scope) error {
		if memberID != "" {
			ok, err := s.isMember(memberID)
			if err != nil || !ok {
				return err
			}
		}
		member = true
		records, err := s.r.Records.Query(ctx, repository.RecordFilter{
			ClanID:   c.id,
			Archive:  s.archive(),
			MemberID: memberID,
			Desc:     true,
			Limit:    n,
		})
		if err != nil {
			return err
		}
		out = toRecordViews(records)
		return nil
	})
	return out, member, err
}

// TodayStatus 成员今日出刀情况；成员不在公会时 member 为 false
func (c *Clan) TodayStatus(ctx context.Context, memberID string) (out TodayStatus, member bool, err error) {
	err = c.withRead(ctx, "today_status", func(s *scope) error {
		ok, err := s.isMember(memberID)
		if err != nil || !ok {
			return err
		}
		member = true
		u, err := s.r.Usage.Get(ctx, c.id, memberID, s.day())
		if err != nil {
			return err
		}
		out = usageStatus(u)
		return nil
	})
	return out, member, err
}

// TodayStatusTotal 全会今日出刀数与剩余补偿刀
func (c *Clan) TodayStatusTotal(ctx context.Context) (TodayTotal, error) {
	var out TodayTotal
	err := c.withRead(ctx, "today_status_total", func(s *scope) error {
		total, err := s.r.Usage.SumByDay(ctx, c.id, s.day())
		if err != nil {
			return err
		}
		out = TodayTotal{TotalChallenges: total.Challenges, RemainingAdditionQuota: total.PendingAddition}
		return nil
	})
	return out, err
}

// RecordQuery 记录查询条件；零值不参与过滤，Archive 为 0 时取当前档案。
// Day 非空时按会战日换算时间区间，覆盖 StartTime/EndTime。
type RecordQuery struct {
	MemberID  string
	Day       string
	Boss      int
	Cycle     int
	StartTime int64
	EndTime   int64
	Archive   int
	Desc      bool
	Limit     int
}

// Query 按条件查询出刀记录
func (c *Clan) Query(ctx context.Context, q RecordQuery) ([]RecordView, error) {
	var out []RecordView
	err := c.withRead(ctx, "query", func(s *scope) error {
		archive := q.Archive
		if archive == 0 {
			archive = s.archive()
		}
		if q.Day != "" {
			start, end, err := s.dayRange(q.Day)
			if err != nil {
				return err
			}
			q.StartTime, q.EndTime = start, end
		}
		records, err := s.r.Records.Query(ctx, repository.RecordFilter{
			ClanID:    c.id,
			Archive:   archive,
			MemberID:  q.MemberID,
			Boss:      q.Boss,
			Cycle:     q.Cycle,
			StartTime: q.StartTime,
			EndTime:   q.EndTime,
			Desc:      q.Desc,
			Limit:     q.Limit,
		})
		if err != nil {
			return err
		}
		out = toRecordViews(records)
		return nil
	})
	return out, err
}

// QueryDay 查询某个会战日（YYYY-MM-DD，按公会时区与日切时刻）的全部记录；date 为空时为今天
func (c *Clan) QueryDay(ctx context.Context, date, memberID string) ([]RecordView, error) {
	var out []RecordView
	err := c.withRead(ctx, "query_day", func(s *scope) error {
		if date == "" {
			date = s.day()
		}
		start, end, err := s.dayRange(date)
		if err != nil {
			return err
		}
		records, err := s.r.Records.Query(ctx, repository.RecordFilter{
			ClanID:    c.id,
			Archive:   s.archive(),
			MemberID:  memberID,
			StartTime: start,
			EndTime:   end,
		})
		if err != nil {
			return err
		}
		out = toRecordViews(records)
		return nil
	})
	return out, err
}
