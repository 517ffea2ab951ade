package service

import (
	"math"
	"strings"

	"golang.org/x/text/width"
)

// maxDamageSuffixes 伤害后缀最多叠加两个（如 1kw = 1000 万）
const maxDamageSuffixes = 2

var damageMultipliers = map[rune]int64{
	'k': 1_000, 'K': 1_000, '千': 1_000,
	'w': 10_000, 'W': 10_000, '万': 10_000,
	'e': 100_000_000, 'E': 100_000_000,
	'b': 100_000_000, 'B': 100_000_000,
	'亿': 100_000_000,
}

// ParseDamage 解析伤害输入：数字后跟至多两个数量级后缀。
// 全角数字/字母先转半角，千分位逗号忽略；结果必须为正且不溢出 int64。
func ParseDamage(input string) (int64, bool) {
	s := strings.TrimSpace(width.Narrow.String(input))
	s = strings.ReplaceAll(s, ",", "")
	if s == "" {
		return 0, false
	}

	var value int64
	digits := 0
	suffixes := 0
	for _, r := range s {
		if r >= '0' && r <= '9' {
			if suffixes > 0 {
				return 0, false
			}
			d := int64(r - '0')
			if value > (math.MaxInt64-d)/10 {
				return 0, false
			}
			value = value*10 + d
			digits++
			continue
		}
		mul, ok := damageMultipliers[r]
		if !ok || digits == 0 {
			return 0, false
		}
		suffixes++
		if suffixes > maxDamageSuffixes {
			return 0, false
		}
		if value > math.MaxInt64/mul {
			return 0, false
		}
		value *= mul
	}

	if value <= 0 {
		return 0, false
	}
	return value, true
}
