package service

import (
	_ "embed"
	"fmt"
	"os"
	"sort"

	"github.com/yuqie6/YukiClanBattle/internal/schema"
	"go.yaml.in/yaml/v3"
)

//go:embed bosstable.yaml
var defaultBossTableYAML []byte

// BossStage 从 FromCycle 开始生效的一组 Boss 血量
type BossStage struct {
	FromCycle int     `yaml:"from_cycle"`
	HP        []int64 `yaml:"hp"`
}

type variantTable struct {
	Default  []BossStage         `yaml:"default"`
	Archives map[int][]BossStage `yaml:"archives"`
}

// BossTable 按服务器类型与档案查询 Boss 血量；加载后只读
type BossTable struct {
	variants map[string]variantTable
}

// DefaultBossTable 内置血量表
func DefaultBossTable() (*BossTable, error) {
	return ParseBossTable(defaultBossTableYAML)
}

// LoadBossTable 从文件加载血量表；path 为空时使用内置表
func LoadBossTable(path string) (*BossTable, error) {
	if path == "" {
		return DefaultBossTable()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("读取 Boss 血量表失败: %w", err)
	}
	return ParseBossTable(data)
}

// ParseBossTable 解析并校验 YAML 血量表
func ParseBossTable(data []byte) (*BossTable, error) {
	var raw map[string]variantTable
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("解析 Boss 血量表失败: %w", err)
	}
	if len(raw) == 0 {
		return nil, fmt.Errorf("Boss 血量表为空")
	}

	for variant, vt := range raw {
		if err := normalizeStages(vt.Default); err != nil {
			return nil, fmt.Errorf("%s/default: %w", variant, err)
		}
		for archive, stages := range vt.Archives {
			if err := normalizeStages(stages); err != nil {
				return nil, fmt.Errorf("%s/archive %d: %w", variant, archive, err)
			}
		}
	}
	return &BossTable{variants: raw}, nil
}

func normalizeStages(stages []BossStage) error {
	if len(stages) == 0 {
		return fmt.Errorf("至少需要一个阶段")
	}
	sort.Slice(stages, func(i, j int) bool { return stages[i].FromCycle < stages[j].FromCycle })
	if stages[0].FromCycle != 1 {
		return fmt.Errorf("第一个阶段必须从第 1 周目开始")
	}
	for i, st := range stages {
		if i > 0 && st.FromCycle == stages[i-1].FromCycle {
			return fmt.Errorf("阶段起始周目重复: %d", st.FromCycle)
		}
		if len(st.HP) != schema.BossCount {
			return fmt.Errorf("周目 %d 的血量数量为 %d，应为 %d", st.FromCycle, len(st.HP), schema.BossCount)
		}
		for _, hp := range st.HP {
			if hp <= 0 {
				return fmt.Errorf("周目 %d 存在非正血量", st.FromCycle)
			}
		}
	}
	return nil
}

func (t *BossTable) stages(variant string, archive int) ([]BossStage, bool) {
	vt, ok := t.variants[variant]
	if !ok {
		return nil, false
	}
	if s, ok := vt.Archives[archive]; ok {
		return s, true
	}
	return vt.Default, true
}

// HasVariant 是否收录了该服务器类型
func (t *BossTable) HasVariant(variant string) bool {
	_, ok := t.variants[variant]
	return ok
}

// Stage 返回 cycle 所在阶段的下标（从 0 开始）；超出表格范围时落在最后一个阶段
func (t *BossTable) Stage(variant string, archive, cycle int) int {
	stages, ok := t.stages(variant, archive)
	if !ok {
		return 0
	}
	idx := 0
	for i, st := range stages {
		if st.FromCycle <= cycle {
			idx = i
		}
	}
	return idx
}

// Lookup 查询 (服务器, 档案, Boss, 周目) 的满血血量
func (t *BossTable) Lookup(variant string, archive, boss, cycle int) (int64, error) {
	if boss < 1 || boss > schema.BossCount {
		return 0, fmt.Errorf("Boss 编号越界: %d", boss)
	}
	stages, ok := t.stages(variant, archive)
	if !ok {
		return 0, fmt.Errorf("未知的服务器类型: %s", variant)
	}
	return stages[t.Stage(variant, archive, cycle)].HP[boss-1], nil
}
