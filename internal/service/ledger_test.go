package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUndoRecent_StrictLIFO(t *testing.T) {
	f := newFixture(t, "a", "b")
	ctx := context.Background()

	undo, err := f.clan.UndoRecent(ctx, "a", 0)
	require.NoError(t, err)
	assert.False(t, undo.Undone, "no records yet")

	require.Equal(t, CommitRecordSuccess, f.commit(t, "a", 1, "10").Result)
	require.Equal(t, CommitRecordSuccess, f.commit(t, "b", 1, "20").Result)

	// b 的记录更新，a 不能越过它撤回
	undo, err = f.clan.UndoRecent(ctx, "a", 0)
	require.NoError(t, err)
	assert.False(t, undo.Undone)
	assert.Equal(t, int64(70), f.boss(t, 1).HP)

	undo, err = f.clan.UndoRecent(ctx, "b", 0)
	require.NoError(t, err)
	require.True(t, undo.Undone)
	assert.Equal(t, int64(20), undo.Record.Damage)
	assert.Equal(t, int64(90), undo.Boss.HP)

	undo, err = f.clan.UndoRecent(ctx, "a", 0)
	require.NoError(t, err)
	require.True(t, undo.Undone)
	assert.Equal(t, int64(100), f.boss(t, 1).HP)

	today, _, err := f.clan.TodayStatus(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, 0, today.Challenges)
}

func TestUndoRecent_ExpectedIDMismatch(t *testing.T) {
	f := newFixture(t, "a")
	ctx := context.Background()

	first := f.commit(t, "a", 1, "10")
	second := f.commit(t, "a", 1, "10")
	require.Equal(t, CommitRecordSuccess, second.Result)

	undo, err := f.clan.UndoRecent(ctx, "a", first.Record.ID)
	require.NoError(t, err)
	assert.False(t, undo.Undone)

	undo, err = f.clan.UndoRecent(ctx, "a", second.Record.ID)
	require.NoError(t, err)
	assert.True(t, undo.Undone)
}

func TestUndoRecent_KillRestoresCycleQuotaAndHolds(t *testing.T) {
	f := newFixture(t, "a")
	ctx := context.Background()

	ip, err := f.clan.CommitInProgress(ctx, "a", 1, "冲")
	require.NoError(t, err)
	require.Equal(t, InProgressSuccess, ip.Result)

	out := f.commit(t, "a", 1, "100")
	require.True(t, out.Record.IsKill)
	require.True(t, out.GrantedAddition)

	undo, err := f.clan.UndoRecent(ctx, "a", 0)
	require.NoError(t, err)
	require.True(t, undo.Undone)

	state := f.boss(t, 1)
	assert.Equal(t, 1, state.Cycle)
	assert.Equal(t, int64(100), state.HP)

	today, _, err := f.clan.TodayStatus(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, 0, today.Challenges)
	assert.Equal(t, 0, today.PendingAddition)

	slots, err := f.clan.InProgress(ctx, 1)
	require.NoError(t, err)
	require.Len(t, slots, 1)
	assert.Equal(t, "冲", slots[0].Comment)
}

func TestUndoRecent_RestoresEveryReleasedHold(t *testing.T) {
	f := newFixture(t, "a", "b")
	ctx := context.Background()

	// a：预约 + 申请出刀，同一个 Boss
	sub, err := f.clan.CommitSubscribe(ctx, "a", 1, 2, "下周目")
	require.NoError(t, err)
	require.Equal(t, SubscribeSuccess, sub.Result)
	ip, err := f.clan.CommitInProgress(ctx, "a", 1, "")
	require.NoError(t, err)
	require.Equal(t, InProgressSuccess, ip.Result)

	require.Equal(t, CommitRecordSuccess, f.commit(t, "a", 1, "10").Result)
	subs, err := f.clan.Subscriptions(ctx, 1, 2)
	require.NoError(t, err)
	require.Empty(t, subs)

	var undo UndoOutcome
	require.NotPanics(t, func() {
		undo, err = f.clan.UndoRecent(ctx, "a", 0)
	})
	require.NoError(t, err)
	require.True(t, undo.Undone)

	slots, err := f.clan.InProgress(ctx, 1)
	require.NoError(t, err)
	require.Len(t, slots, 1)
	assert.Equal(t, "a", slots[0].MemberID)
	subs, err = f.clan.Subscriptions(ctx, 1, 2)
	require.NoError(t, err)
	require.Len(t, subs, 1)
	assert.Equal(t, "下周目", subs[0].Comment)

	// b：申请出刀 + 挂树，同一个 Boss
	ip, err = f.clan.CommitInProgress(ctx, "b", 2, "")
	require.NoError(t, err)
	require.Equal(t, InProgressSuccess, ip.Result)
	tree, err := f.clan.CommitOnTree(ctx, "b", 2, "救")
	require.NoError(t, err)
	require.Equal(t, OnTreeSuccess, tree)

	require.Equal(t, CommitRecordSuccess, f.commit(t, "b", 2, "10").Result)
	holds, err := f.clan.OnTree(ctx, 2)
	require.NoError(t, err)
	require.Empty(t, holds)

	require.NotPanics(t, func() {
		undo, err = f.clan.UndoRecent(ctx, "b", 0)
	})
	require.NoError(t, err)
	require.True(t, undo.Undone)

	slots, err = f.clan.InProgress(ctx, 2)
	require.NoError(t, err)
	require.Len(t, slots, 1)
	assert.Equal(t, "b", slots[0].MemberID)
	holds, err = f.clan.OnTree(ctx, 2)
	require.NoError(t, err)
	require.Len(t, holds, 1)
	assert.Equal(t, "救", holds[0].Comment)
}

func TestUndoRecent_AdditionRestoresPending(t *testing.T) {
	f := newFixture(t, "a")
	ctx := context.Background()

	require.True(t, f.commit(t, "a", 1, "100").GrantedAddition)
	require.True(t, f.commit(t, "a", 2, "10").IsAddition)

	undo, err := f.clan.UndoRecent(ctx, "a", 0)
	require.NoError(t, err)
	require.True(t, undo.Undone)

	today, _, err := f.clan.TodayStatus(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, 1, today.Challenges)
	assert.Equal(t, 1, today.PendingAddition)
	assert.False(t, today.LastWasAddition)
}

func TestRecentRecordsAndQuery(t *testing.T) {
	f := newFixture(t, "a", "b")
	ctx := context.Background()

	f.commit(t, "a", 1, "10")
	f.commit(t, "b", 2, "20")
	f.commit(t, "a", 3, "30")

	recent, _, err := f.clan.RecentRecords(ctx, "a", 5)
	require.NoError(t, err)
	require.Len(t, recent, 2)
	assert.Equal(t, int64(30), recent[0].Damage)

	all, _, err := f.clan.RecentRecords(ctx, "", 0)
	require.NoError(t, err)
	assert.Len(t, all, 3)

	byBoss, err := f.clan.Query(ctx, RecordQuery{Boss: 2})
	require.NoError(t, err)
	require.Len(t, byBoss, 1)
	assert.Equal(t, "b", byBoss[0].MemberID)

	desc, err := f.clan.Query(ctx, RecordQuery{Desc: true})
	require.NoError(t, err)
	require.Len(t, desc, 3)
	assert.Equal(t, int64(30), desc[0].Damage)

	day, err := f.clan.QueryDay(ctx, "2024-05-01", "")
	require.NoError(t, err)
	assert.Len(t, day, 3)
	other, err := f.clan.QueryDay(ctx, "2024-04-30", "")
	require.NoError(t, err)
	assert.Empty(t, other)

	dayBoss, err := f.clan.Query(ctx, RecordQuery{Day: "2024-05-01", MemberID: "a", Boss: 3})
	require.NoError(t, err)
	require.Len(t, dayBoss, 1)
	assert.Equal(t, int64(30), dayBoss[0].Damage)

	total, err := f.clan.TodayStatusTotal(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(3), total.TotalChallenges)
	assert.Equal(t, int64(0), total.RemainingAdditionQuota)
}

func TestReads_ReportNonMember(t *testing.T) {
	f := newFixture(t, "a")
	ctx := context.Background()
	f.commit(t, "a", 1, "10")

	records, member, err := f.clan.RecentRecords(ctx, "stranger", 0)
	require.NoError(t, err)
	assert.False(t, member)
	assert.Empty(t, records)

	_, member, err = f.clan.TodayStatus(ctx, "stranger")
	require.NoError(t, err)
	assert.False(t, member)

	// 成员没有记录与非成员可以区分
	records, member, err = f.clan.RecentRecords(ctx, "admin", 0)
	require.NoError(t, err)
	assert.True(t, member)
	assert.Empty(t, records)

	today, member, err := f.clan.TodayStatus(ctx, "a")
	require.NoError(t, err)
	assert.True(t, member)
	assert.Equal(t, 1, today.Challenges)
}
