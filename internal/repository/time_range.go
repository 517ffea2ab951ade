package repository

import (
	"fmt"
	"time"
)

const battleDayLayout = "2006-01-02"

// BattleDay 返回时间点所属的会战日（YYYY-MM-DD）。
// 会战日在 UTC+offset 的 startHour 点切换。
func BattleDay(t time.Time, offset time.Duration, startHour int) string {
	local := t.UTC().Add(offset).Add(-time.Duration(startHour) * time.Hour)
	return local.Format(battleDayLayout)
}

// BattleDayRange 将会战日解析为毫秒时间戳区间 [start, end)。
func BattleDayRange(date string, offset time.Duration, startHour int) (startMs int64, endMs int64, err error) {
	t, err := time.ParseInLocation(battleDayLayout, date, time.UTC)
	if err != nil {
		return 0, 0, fmt.Errorf("解析日期失败: %w", err)
	}
	start := t.Add(time.Duration(startHour) * time.Hour).Add(-offset)
	return start.UnixMilli(), start.Add(24 * time.Hour).UnixMilli(), nil
}
