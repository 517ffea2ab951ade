package repository

import (
	"testing"
	"time"
)

func TestBattleDay_SwitchesAtStartHour(t *testing.T) {
	jst := 9 * time.Hour
	// 2024-05-01 04:59 JST = 2024-04-30 19:59 UTC，仍属于 4/30
	before := time.Date(2024, 4, 30, 19, 59, 0, 0, time.UTC)
	after := before.Add(time.Minute)

	if got := BattleDay(before, jst, 5); got != "2024-04-30" {
		t.Fatalf("before = %s, want 2024-04-30", got)
	}
	if got := BattleDay(after, jst, 5); got != "2024-05-01" {
		t.Fatalf("after = %s, want 2024-05-01", got)
	}
}

func TestBattleDayRange(t *testing.T) {
	start, end, err := BattleDayRange("2024-05-01", 8*time.Hour, 5)
	if err != nil {
		t.Fatalf("BattleDayRange: %v", err)
	}
	// 05:00 UTC+8 = 前一天 21:00 UTC
	want := time.Date(2024, 4, 30, 21, 0, 0, 0, time.UTC).UnixMilli()
	if start != want || end-start != int64(24*time.Hour/time.Millisecond) {
		t.Fatalf("range=[%d,%d), want start %d", start, end, want)
	}
	if _, _, err := BattleDayRange("bad", 0, 5); err == nil {
		t.Fatal("expected parse error")
	}
}
