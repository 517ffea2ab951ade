package schema

import (
	"database/sql/driver"
	"encoding/json"
	"strings"
)

// JSONArray 用于存储 JSON 字符串数组（管理员列表等）
type JSONArray []string

// Value 实现 driver.Valuer 接口
func (j JSONArray) Value() (driver.Value, error) {
	if j == nil {
		return "[]", nil
	}
	b, err := json.Marshal(j)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Scan 实现 sql.Scanner 接口
func (j *JSONArray) Scan(value interface{}) error {
	if value == nil {
		*j = make(JSONArray, 0)
		return nil
	}

	var bytes []byte
	switch v := value.(type) {
	case []byte:
		bytes = v
	case string:
		bytes = []byte(v)
	default:
		*j = make(JSONArray, 0)
		return nil
	}

	return json.Unmarshal(bytes, j)
}

// Contains 判断是否包含某个值（忽略首尾空白）
func (j JSONArray) Contains(s string) bool {
	s = strings.TrimSpace(s)
	for _, v := range j {
		if strings.TrimSpace(v) == s {
			return true
		}
	}
	return false
}

// Normalize 去空、去重，保持原顺序
func (j JSONArray) Normalize() JSONArray {
	out := make(JSONArray, 0, len(j))
	seen := make(map[string]struct{}, len(j))
	for _, v := range j {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}

// HoldSnapshot 提交出刀时被一并释放的占位快照，撤回出刀时据此恢复
type HoldSnapshot struct {
	InProgress    *ChallengeSlot `json:"in_progress,omitempty"`
	OnTree        *TreeHold      `json:"on_tree,omitempty"`
	Subscriptions []Subscription `json:"subscriptions,omitempty"`
}

// Empty 是否没有任何被释放的占位
func (h HoldSnapshot) Empty() bool {
	return h.InProgress == nil && h.OnTree == nil && len(h.Subscriptions) == 0
}

// Value 实现 driver.Valuer 接口
func (h HoldSnapshot) Value() (driver.Value, error) {
	if h.Empty() {
		return "{}", nil
	}
	b, err := json.Marshal(h)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Scan 实现 sql.Scanner 接口
func (h *HoldSnapshot) Scan(value interface{}) error {
	*h = HoldSnapshot{}
	var bytes []byte
	switch v := value.(type) {
	case nil:
		return nil
	case []byte:
		bytes = v
	case string:
		bytes = []byte(v)
	default:
		return nil
	}
	if len(bytes) == 0 {
		return nil
	}
	return json.Unmarshal(bytes, h)
}
