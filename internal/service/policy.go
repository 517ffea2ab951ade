package service

import (
	"time"

	"github.com/yuqie6/YukiClanBattle/internal/schema"
)

// QuotaPolicy 每日出刀配额策略（按公会配置）
type QuotaPolicy struct {
	FullChancesPerDay     int
	AdditionChancesPerDay int
}

func quotaOf(c *schema.Clan) QuotaPolicy {
	return QuotaPolicy{
		FullChancesPerDay:     c.FullChancesPerDay,
		AdditionChancesPerDay: c.AdditionChancesPerDay,
	}
}

// Classify 判断本次出刀算作补偿刀还是整刀。
// 有待用补偿刀时默认消耗补偿刀；forceFull 时强制使用整刀。ok=false 表示整刀已用完。
func (p QuotaPolicy) Classify(u *schema.DailyUsage, forceFull bool) (isAddition bool, ok bool) {
	if u.PendingAddition > 0 && !forceFull {
		return true, true
	}
	if u.FullCount >= p.FullChancesPerDay {
		return false, false
	}
	return false, true
}

// Apply 将一次出刀记入当日计数，返回是否因击杀获得了补偿刀
func (p QuotaPolicy) Apply(u *schema.DailyUsage, isAddition, isKill bool) (granted bool) {
	u.ChallengeCount++
	u.LastIsAddition = isAddition
	if isAddition {
		u.AdditionCount++
		u.PendingAddition--
		return false
	}
	u.FullCount++
	if isKill && u.AdditionGranted < p.AdditionChancesPerDay {
		u.PendingAddition++
		u.AdditionGranted++
		return true
	}
	return false
}

// Revert 撤销一次出刀对当日计数的影响（LastIsAddition 由调用方根据剩余记录重算）
func (p QuotaPolicy) Revert(u *schema.DailyUsage, rec *schema.DamageRecord) {
	if u.ChallengeCount > 0 {
		u.ChallengeCount--
	}
	if rec.IsAddition {
		if u.AdditionCount > 0 {
			u.AdditionCount--
		}
		u.PendingAddition++
		return
	}
	if u.FullCount > 0 {
		u.FullCount--
	}
	if rec.GrantedAddition {
		if u.PendingAddition > 0 {
			u.PendingAddition--
		}
		if u.AdditionGranted > 0 {
			u.AdditionGranted--
		}
	}
}

// EligibilityPolicy 判断某个 Boss 当前能否申请出刀/挂树：
// 与最落后的 Boss 相差不超过 MaxCycleLead 周目，且处于同一阶段
type EligibilityPolicy struct {
	MaxCycleLead int
}

// Eligible slots 为当前档案的全部 Boss 位
func (p EligibilityPolicy) Eligible(table *BossTable, clan *schema.Clan, slots []schema.BossSlot, boss int) bool {
	if boss < 1 || boss > schema.BossCount {
		return false
	}
	var target *schema.BossSlot
	minCycle := 0
	for i := range slots {
		if slots[i].Boss == boss {
			target = &slots[i]
		}
		if minCycle == 0 || slots[i].Cycle < minCycle {
			minCycle = slots[i].Cycle
		}
	}
	if target == nil {
		return false
	}
	if target.Cycle-minCycle > p.MaxCycleLead {
		return false
	}
	return table.Stage(clan.Variant, clan.CurrentArchive, target.Cycle) ==
		table.Stage(clan.Variant, clan.CurrentArchive, minCycle)
}

// variantOffset 服务器类型对应的 UTC 偏移：日服 +9，台服/国服 +8
func variantOffset(variant string) time.Duration {
	if variant == schema.VariantJP {
		return 9 * time.Hour
	}
	return 8 * time.Hour
}

// ValidVariant 是否为支持的服务器类型
func ValidVariant(variant string) bool {
	switch variant {
	case schema.VariantJP, schema.VariantTW, schema.VariantCN:
		return true
	default:
		return false
	}
}
