package service

import (
	"github.com/yuqie6/YukiClanBattle/internal/eventbus"
)

// 事件类型
const (
	EventRecordCommitted = "record_committed"
	EventRecordUndone    = "record_undone"
	EventBossKilled      = "boss_killed"
	EventInProgress      = "in_progress_changed"
	EventSubscribe       = "subscribe_changed"
	EventOnTree          = "on_tree_changed"
	EventSL              = "sl_committed"
	EventClanChanged     = "clan_changed"
	EventArchiveSwitched = "archive_switched"
)

func (c *Clan) event(typ string, data map[string]any) eventbus.Event {
	return eventbus.Event{
		Type:      typ,
		ClanID:    c.id,
		Timestamp: c.reg.now().UnixMilli(),
		Data:      data,
	}
}
