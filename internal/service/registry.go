package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/yuqie6/YukiClanBattle/internal/repository"
	"github.com/yuqie6/YukiClanBattle/internal/schema"
)

// ErrClanNotFound 公会不存在
var ErrClanNotFound = errors.New("公会不存在")

// Settings 引擎全局参数；配额两项只作为新建公会的默认值
type Settings struct {
	FullChancesPerDay     int
	AdditionChancesPerDay int
	MaxCycleLead          int
	DayStartHour          int
	RecentRecords         int // 查刀默认条数
}

// DefaultSettings 默认参数：每天 3 整刀、至多 3 补偿刀，凌晨 5 点日切
func DefaultSettings() Settings {
	return Settings{
		FullChancesPerDay:     3,
		AdditionChancesPerDay: 3,
		MaxCycleLead:          1,
		DayStartHour:          5,
		RecentRecords:         3,
	}
}

func (s Settings) normalized() Settings {
	d := DefaultSettings()
	if s.FullChancesPerDay <= 0 {
		s.FullChancesPerDay = d.FullChancesPerDay
	}
	if s.AdditionChancesPerDay < 0 {
		s.AdditionChancesPerDay = d.AdditionChancesPerDay
	}
	if s.MaxCycleLead < 0 {
		s.MaxCycleLead = d.MaxCycleLead
	}
	if s.DayStartHour < 0 || s.DayStartHour > 23 {
		s.DayStartHour = d.DayStartHour
	}
	if s.RecentRecords <= 0 {
		s.RecentRecords = d.RecentRecords
	}
	return s
}

// RegistryOptions 注册表依赖
type RegistryOptions struct {
	Store    Store
	Table    *BossTable
	Settings Settings
	Now      func() time.Time
	Events   EventPublisher
	Observer OpObserver
}

// Registry 公会 id -> 公会聚合；各公会互相独立，没有跨公会的锁
type Registry struct {
	store    Store
	table    *BossTable
	now      func() time.Time
	events   EventPublisher
	observer OpObserver

	settingsMu sync.RWMutex
	settings   Settings

	mu    sync.Mutex
	clans map[string]*Clan
}

// NewRegistry 创建注册表
func NewRegistry(opts RegistryOptions) (*Registry, error) {
	if opts.Store == nil {
		return nil, fmt.Errorf("store 不能为空")
	}
	if opts.Table == nil {
		return nil, fmt.Errorf("boss table 不能为空")
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Events == nil {
		opts.Events = noopPublisher{}
	}
	if opts.Observer == nil {
		opts.Observer = noopObserver{}
	}
	return &Registry{
		store:    opts.Store,
		table:    opts.Table,
		now:      opts.Now,
		events:   opts.Events,
		observer: opts.Observer,
		settings: opts.Settings.normalized(),
		clans:    make(map[string]*Clan),
	}, nil
}

// Settings 当前参数快照
func (g *Registry) Settings() Settings {
	g.settingsMu.RLock()
	defer g.settingsMu.RUnlock()
	return g.settings
}

// SetSettings 热更新参数（配置文件变更时调用）；已有公会的配额不受影响
func (g *Registry) SetSettings(s Settings) {
	g.settingsMu.Lock()
	g.settings = s.normalized()
	g.settingsMu.Unlock()
	slog.Info("会战参数已更新", "full", s.FullChancesPerDay, "addition", s.AdditionChancesPerDay, "max_cycle_lead", s.MaxCycleLead)
}

// Table 当前使用的血量表
func (g *Registry) Table() *BossTable {
	return g.table
}

// CreateClan 创建公会并初始化档案 1 的 Boss 位；已存在时不做任何修改
func (g *Registry) CreateClan(ctx context.Context, clanID, name, variant string, admins []string) (CreateClanResult, error) {
	if !ValidVariant(variant) || !g.table.HasVariant(variant) {
		g.observer.ObserveOp(opCreateClan, CreateClanIllegalVariant.String())
		return CreateClanIllegalVariant, nil
	}

	g.mu.Lock()
	result, err := g.createClanLocked(ctx, clanID, name, variant, admins)
	var clan *Clan
	if err == nil && result == CreateClanSuccess {
		clan = &Clan{id: clanID, reg: g}
		g.clans[clanID] = clan
	}
	g.mu.Unlock()

	if err != nil {
		g.observer.ObserveOp(opCreateClan, resultError)
		return 0, fmt.Errorf("创建公会失败: %w", err)
	}
	g.observer.ObserveOp(opCreateClan, result.String())
	if clan != nil {
		slog.Info("公会已创建", "clan_id", clanID, "variant", variant)
		g.events.Publish(clan.event(EventClanChanged, map[string]any{"action": "created", "name": name}))
	}
	return result, nil
}

func (g *Registry) createClanLocked(ctx context.Context, clanID, name, variant string, admins []string) (CreateClanResult, error) {
	settings := g.Settings()
	result := CreateClanSuccess
	ctx = context.WithoutCancel(ctx)
	err := g.store.Transaction(ctx, func(r *repository.Repos) error {
		existing, err := r.Clans.GetByID(ctx, clanID)
		if err != nil {
			return err
		}
		if existing != nil {
			result = CreateClanAlreadyExists
			return nil
		}
		clan := &schema.Clan{
			ClanID:                clanID,
			Name:                  name,
			Variant:               variant,
			Admins:                schema.JSONArray(admins).Normalize(),
			CurrentArchive:        1,
			FullChancesPerDay:     settings.FullChancesPerDay,
			AdditionChancesPerDay: settings.AdditionChancesPerDay,
		}
		if err := r.Clans.Create(ctx, clan); err != nil {
			return err
		}
		return ensureArchiveSlots(ctx, r, g.table, clan, 1)
	})
	return result, err
}

// Clan 取得公会聚合
func (g *Registry) Clan(ctx context.Context, clanID string) (*Clan, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if c, ok := g.clans[clanID]; ok {
		return c, nil
	}
	info, err := g.store.Repos().Clans.GetByID(ctx, clanID)
	if err != nil {
		return nil, err
	}
	if info == nil {
		return nil, ErrClanNotFound
	}
	c := &Clan{id: clanID, reg: g}
	g.clans[clanID] = c
	return c, nil
}

// ListClans 列出全部公会
func (g *Registry) ListClans(ctx context.Context) ([]schema.Clan, error) {
	return g.store.Repos().Clans.List(ctx)
}

// JoinedClans 成员所在的公会（一个成员至多属于一个公会）
func (g *Registry) JoinedClans(ctx context.Context, memberID string) ([]schema.Clan, error) {
	m, err := g.store.Repos().Members.Get(ctx, memberID)
	if err != nil {
		return nil, err
	}
	if m == nil {
		return []schema.Clan{}, nil
	}
	info, err := g.store.Repos().Clans.GetByID(ctx, m.ClanID)
	if err != nil {
		return nil, err
	}
	if info == nil {
		return []schema.Clan{}, nil
	}
	return []schema.Clan{*info}, nil
}

// ensureArchiveSlots 为档案补齐 5 个 Boss 位（第 1 周目满血）；已存在的不覆盖
func ensureArchiveSlots(ctx context.Context, r *repository.Repos, table *BossTable, clan *schema.Clan, archive int) error {
	slots := make([]schema.BossSlot, 0, schema.BossCount)
	for boss := 1; boss <= schema.BossCount; boss++ {
		hp, err := table.Lookup(clan.Variant, archive, boss, 1)
		if err != nil {
			return err
		}
		slots = append(slots, schema.BossSlot{
			ClanID:  clan.ClanID,
			Archive: archive,
			Boss:    boss,
			Cycle:   1,
			HP:      hp,
		})
	}
	return r.Bosses.EnsureSlots(ctx, slots)
}
