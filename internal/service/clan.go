package service

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"sync"
	"time"

	"github.com/yuqie6/YukiClanBattle/internal/eventbus"
	"github.com/yuqie6/YukiClanBattle/internal/repository"
	"github.com/yuqie6/YukiClanBattle/internal/schema"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// 操作名（指标 op 标签 / span 名）
const (
	opCreateClan       = "create_clan"
	opCommitRecord     = "commit_record"
	opInProgress       = "commit_in_progress"
	opSubscribe        = "commit_subscribe"
	opOnTree           = "commit_on_tree"
	opSL               = "commit_sl"
	opDeleteInProgress = "delete_in_progress"
	opDeleteSubscribe  = "delete_subscribe"
	opDeleteOnTree     = "delete_on_tree"
	opUndo             = "undo_recent"
	opAddMember        = "add_member"
	opRemoveMember     = "remove_member"
	opRenameMember     = "rename_member"
	opRenameClan       = "rename_clan"
	opSwitchArchive    = "switch_archive"
	opRefreshAdmins    = "refresh_admins"
	opUpdateSettings   = "update_settings"

	resultError = "error"
)

var tracer = otel.Tracer("github.com/yuqie6/YukiClanBattle/internal/service")

// Clan 单个公会的聚合：Boss 状态、出刀记录、占位与每日配额都在这把锁下变更。
// 数据库是唯一的状态来源，写操作在锁内开启事务，业务失败不产生任何写入。
type Clan struct {
	id  string
	reg *Registry
	mu  sync.RWMutex
}

// ID 公会 id
func (c *Clan) ID() string {
	return c.id
}

// scope 单次操作的上下文：事务内的仓储、公会信息与操作时刻
type scope struct {
	ctx      context.Context
	r        *repository.Repos
	info     *schema.Clan
	now      time.Time
	table    *BossTable
	settings Settings
}

func (s *scope) archive() int {
	return s.info.CurrentArchive
}

func (s *scope) offset() time.Duration {
	return variantOffset(s.info.Variant)
}

func (s *scope) day() string {
	return repository.BattleDay(s.now, s.offset(), s.settings.DayStartHour)
}

func (s *scope) dayRange(day string) (int64, int64, error) {
	return repository.BattleDayRange(day, s.offset(), s.settings.DayStartHour)
}

func (s *scope) isMember(memberID string) (bool, error) {
	if memberID == "" {
		return false, nil
	}
	m, err := s.r.Members.GetInClan(s.ctx, s.info.ClanID, memberID)
	if err != nil {
		return false, err
	}
	return m != nil, nil
}

func (s *scope) isAdmin(memberID string) bool {
	return memberID != "" && s.info.Admins.Contains(memberID)
}

func (s *scope) bosses() ([]schema.BossSlot, error) {
	return s.r.Bosses.ListByArchive(s.ctx, s.info.ClanID, s.archive())
}

func (s *scope) boss(boss int) (*schema.BossSlot, error) {
	slot, err := s.r.Bosses.Get(s.ctx, s.info.ClanID, s.archive(), boss)
	if err != nil {
		return nil, err
	}
	if slot == nil {
		return nil, fmt.Errorf("Boss 状态缺失: archive=%d boss=%d", s.archive(), boss)
	}
	return slot, nil
}

// eligible Boss 是否可以申请出刀 / 挂树
func (s *scope) eligible(boss int) (bool, error) {
	if boss < 1 || boss > schema.BossCount {
		return false, nil
	}
	slots, err := s.bosses()
	if err != nil {
		return false, err
	}
	policy := EligibilityPolicy{MaxCycleLead: s.settings.MaxCycleLead}
	return policy.Eligible(s.table, s.info, slots, boss), nil
}

func (s *scope) view(slot schema.BossSlot) BossView {
	maxHP, err := s.table.Lookup(s.info.Variant, slot.Archive, slot.Boss, slot.Cycle)
	if err != nil {
		maxHP = slot.HP
	}
	return BossView{
		Boss:  slot.Boss,
		Cycle: slot.Cycle,
		HP:    slot.HP,
		MaxHP: maxHP,
		Stage: s.table.Stage(s.info.Variant, slot.Archive, slot.Cycle),
	}
}

func (c *Clan) newScope(ctx context.Context, r *repository.Repos) (*scope, error) {
	info, err := r.Clans.GetByID(ctx, c.id)
	if err != nil {
		return nil, err
	}
	if info == nil {
		return nil, ErrClanNotFound
	}
	return &scope{
		ctx:      ctx,
		r:        r,
		info:     info,
		now:      c.reg.now(),
		table:    c.reg.table,
		settings: c.reg.Settings(),
	}, nil
}

// withWrite 持有公会写锁并在单个事务内执行 fn；返回时锁已释放。
// 事务不随调用方 ctx 取消，fn 内只能使用 s.ctx
func (c *Clan) withWrite(ctx context.Context, op string, fn func(s *scope) error) error {
	ctx, span := tracer.Start(context.WithoutCancel(ctx), "clanbattle."+op, trace.WithAttributes(attribute.String("clan.id", c.id)))
	defer span.End()

	waitStart := time.Now()
	c.mu.Lock()
	defer c.mu.Unlock()
	c.reg.observer.ObserveLockWait(op, time.Since(waitStart))

	err := c.reg.store.Transaction(ctx, func(r *repository.Repos) error {
		s, err := c.newScope(ctx, r)
		if err != nil {
			return err
		}
		return fn(s)
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	return err
}

// withRead 持有公会读锁执行只读查询
func (c *Clan) withRead(ctx context.Context, name string, fn func(s *scope) error) error {
	ctx, span := tracer.Start(ctx, "clanbattle.read."+name, trace.WithAttributes(attribute.String("clan.id", c.id)))
	defer span.End()

	c.mu.RLock()
	defer c.mu.RUnlock()

	s, err := c.newScope(ctx, c.reg.store.Repos())
	if err == nil {
		err = fn(s)
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	return err
}

// finish 记录结果并发布事件；调用时公会锁必须已经释放
func (c *Clan) finish(op, result string, events ...eventbus.Event) {
	c.reg.observer.ObserveOp(op, result)
	slog.Debug("会战操作完成", "op", op, "clan_id", c.id, "result", result)
	for _, evt := range events {
		c.reg.events.Publish(evt)
	}
}

func (c *Clan) fail(op string, err error) error {
	c.reg.observer.ObserveOp(op, resultError)
	slog.Error("会战操作失败", "op", op, "clan_id", c.id, "error", err)
	return fmt.Errorf("%s 失败: %w", op, err)
}

// ========== 公会与成员管理 ==========

// Info 公会信息
func (c *Clan) Info(ctx context.Context) (*schema.Clan, error) {
	var info *schema.Clan
	err := c.withRead(ctx, "info", func(s *scope) error {
		info = s.info
		return nil
	})
	return info, err
}

// CurrentArchive 当前档案号
func (c *Clan) CurrentArchive(ctx context.Context) (int, error) {
	info, err := c.Info(ctx)
	if err != nil {
		return 0, err
	}
	return info.CurrentArchive, nil
}

// IsAdmin 是否为会战管理员
func (c *Clan) IsAdmin(ctx context.Context, memberID string) (bool, error) {
	var ok bool
	err := c.withRead(ctx, "is_admin", func(s *scope) error {
		ok = s.isAdmin(memberID)
		return nil
	})
	return ok, err
}

// AddMember 加入公会；已在其他公会时返回 false，已在本公会时只更新昵称
func (c *Clan) AddMember(ctx context.Context, memberID, name string) (bool, error) {
	if memberID == "" {
		return false, nil
	}
	added := false
	err := c.withWrite(ctx, opAddMember, func(s *scope) error {
		m, err := s.r.Members.Get(s.ctx, memberID)
		if err != nil {
			return err
		}
		if m != nil && m.ClanID != c.id {
			return nil
		}
		if m == nil {
			m = &schema.Member{MemberID: memberID, ClanID: c.id}
		}
		if name != "" {
			m.Name = name
		}
		if err := s.r.Members.Save(s.ctx, m); err != nil {
			return err
		}
		added = true
		return nil
	})
	if err != nil {
		return false, c.fail(opAddMember, err)
	}
	var events []eventbus.Event
	if added {
		events = append(events, c.event(EventClanChanged, map[string]any{"action": "member_added", "member_id": memberID}))
	}
	c.finish(opAddMember, strconv.FormatBool(added), events...)
	return added, nil
}

// RemoveMember 移出成员；历史记录保留，当前档案的占位一并清除
func (c *Clan) RemoveMember(ctx context.Context, memberID string) (bool, error) {
	removed := false
	err := c.withWrite(ctx, opRemoveMember, func(s *scope) error {
		ok, err := s.r.Members.Delete(s.ctx, c.id, memberID)
		if err != nil || !ok {
			return err
		}
		if _, err := s.r.Contention.DeleteInProgress(s.ctx, c.id, s.archive(), memberID); err != nil {
			return err
		}
		if _, err := s.r.Contention.DeleteOnTree(s.ctx, c.id, s.archive(), memberID); err != nil {
			return err
		}
		for boss := 1; boss <= schema.BossCount; boss++ {
			if _, err := s.r.Contention.DeleteSubscriptions(s.ctx, c.id, s.archive(), memberID, boss, 0); err != nil {
				return err
			}
		}
		removed = true
		return nil
	})
	if err != nil {
		return false, c.fail(opRemoveMember, err)
	}
	var events []eventbus.Event
	if removed {
		events = append(events, c.event(EventClanChanged, map[string]any{"action": "member_removed", "member_id": memberID}))
	}
	c.finish(opRemoveMember, strconv.FormatBool(removed), events...)
	return removed, nil
}

// RenameMember 修改成员昵称；成员不在本公会时返回 false
func (c *Clan) RenameMember(ctx context.Context, memberID, name string) (bool, error) {
	ok := false
	err := c.withWrite(ctx, opRenameMember, func(s *scope) error {
		var err error
		ok, err = s.r.Members.Rename(s.ctx, c.id, memberID, name)
		return err
	})
	if err != nil {
		return false, c.fail(opRenameMember, err)
	}
	c.finish(opRenameMember, strconv.FormatBool(ok))
	return ok, nil
}

// RenameClan 修改公会名称
func (c *Clan) RenameClan(ctx context.Context, name string) error {
	err := c.withWrite(ctx, opRenameClan, func(s *scope) error {
		return s.r.Clans.UpdateFields(s.ctx, c.id, map[string]interface{}{"name": name})
	})
	if err != nil {
		return c.fail(opRenameClan, err)
	}
	c.finish(opRenameClan, "success", c.event(EventClanChanged, map[string]any{"action": "renamed", "name": name}))
	return nil
}

// RefreshAdmins 用外部拉取好的名单整体替换管理员集合
func (c *Clan) RefreshAdmins(ctx context.Context, admins []string) error {
	list := schema.JSONArray(admins).Normalize()
	err := c.withWrite(ctx, opRefreshAdmins, func(s *scope) error {
		return s.r.Clans.UpdateFields(s.ctx, c.id, map[string]interface{}{"admins": list})
	})
	if err != nil {
		return c.fail(opRefreshAdmins, err)
	}
	c.finish(opRefreshAdmins, "success")
	return nil
}

// SwitchArchive 切换当前档案（仅管理员）；新档案的 Boss 位按需初始化，旧档案数据保留
func (c *Clan) SwitchArchive(ctx context.Context, operator string, archive int) (AdminResult, error) {
	result := AdminSuccess
	err := c.withWrite(ctx, opSwitchArchive, func(s *scope) error {
		if !s.isAdmin(operator) {
			result = AdminPermissionDenied
			return nil
		}
		if archive < 1 {
			result = AdminIllegalValue
			return nil
		}
		if err := ensureArchiveSlots(s.ctx, s.r, s.table, s.info, archive); err != nil {
			return err
		}
		return s.r.Clans.UpdateFields(s.ctx, c.id, map[string]interface{}{"current_archive": archive})
	})
	if err != nil {
		return 0, c.fail(opSwitchArchive, err)
	}
	var events []eventbus.Event
	if result == AdminSuccess {
		events = append(events, c.event(EventArchiveSwitched, map[string]any{"archive": archive, "operator": operator}))
	}
	c.finish(opSwitchArchive, result.String(), events...)
	return result, nil
}

// UpdateSettings 修改本公会每日整刀 / 补偿刀上限（仅管理员）
func (c *Clan) UpdateSettings(ctx context.Context, operator string, fullPerDay, additionPerDay int) (AdminResult, error) {
	result := AdminSuccess
	err := c.withWrite(ctx, opUpdateSettings, func(s *scope) error {
		if !s.isAdmin(operator) {
			result = AdminPermissionDenied
			return nil
		}
		if fullPerDay < 1 || additionPerDay < 0 {
			result = AdminIllegalValue
			return nil
		}
		return s.r.Clans.UpdateFields(s.ctx, c.id, map[string]interface{}{
			"full_chances_per_day":     fullPerDay,
			"addition_chances_per_day": additionPerDay,
		})
	})
	if err != nil {
		return 0, c.fail(opUpdateSettings, err)
	}
	var events []eventbus.Event
	if result == AdminSuccess {
		events = append(events, c.event(EventClanChanged, map[string]any{
			"action": "settings_updated", "full_chances_per_day": fullPerDay, "addition_chances_per_day": additionPerDay,
		}))
	}
	c.finish(opUpdateSettings, result.String(), events...)
	return result, nil
}
