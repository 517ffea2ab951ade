package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCommitRecord_DamageAndOutOfHP(t *testing.T) {
	f := newFixture(t, "m")

	out := f.commit(t, "m", 1, "50")
	require.Equal(t, CommitRecordSuccess, out.Result)
	assert.Equal(t, int64(50), out.Boss.HP)
	assert.Equal(t, 1, out.Boss.Cycle)
	assert.False(t, out.Record.IsKill)
	assert.Equal(t, 1, out.ChallengesToday)

	out = f.commit(t, "m", 1, "60")
	assert.Equal(t, CommitRecordDamageOutOfHP, out.Result)
	assert.Equal(t, int64(50), f.boss(t, 1).HP)

	today, _, err := f.clan.TodayStatus(context.Background(), "m")
	require.NoError(t, err)
	assert.Equal(t, 1, today.Challenges, "rejected commit must not count")
}

func TestCommitRecord_KillAdvancesCycle(t *testing.T) {
	f := newFixture(t, "m")

	require.Equal(t, CommitRecordSuccess, f.commit(t, "m", 1, "70").Result)
	out := f.commit(t, "m", 1, "30")
	require.Equal(t, CommitRecordSuccess, out.Result)
	assert.True(t, out.Record.IsKill)
	assert.Equal(t, 1, out.Record.Cycle)
	assert.Equal(t, 2, out.Boss.Cycle)
	assert.Equal(t, int64(150), out.Boss.HP)
	assert.Equal(t, int64(150), out.Boss.MaxHP)
	assert.True(t, out.GrantedAddition)

	state := f.boss(t, 1)
	assert.Equal(t, 2, state.Cycle)
	assert.Equal(t, int64(150), state.HP)
	assert.Contains(t, f.events.types(), EventBossKilled)
	assert.False(t, f.events.lockHeld, "events must be published after lock release")
}

func TestCommitRecord_ValidationOrder(t *testing.T) {
	f := newFixture(t, "m")

	assert.Equal(t, CommitRecordMemberNotInClan, f.commit(t, "ghost", 1, "abc").Result)
	assert.Equal(t, CommitRecordIllegalTargetBoss, f.commit(t, "m", 6, "10").Result)
	assert.Equal(t, CommitRecordIllegalDamageInput, f.commit(t, "m", 1, "abc").Result)
	assert.Equal(t, CommitRecordIllegalDamageInput, f.commit(t, "m", 1, "0").Result)
	assert.Equal(t, CommitRecordDamageOutOfHP, f.commit(t, "m", 1, "1k").Result)

	records, _, err := f.clan.RecentRecords(context.Background(), "", 10)
	require.NoError(t, err)
	assert.Empty(t, records)
	assert.Equal(t, int64(100), f.boss(t, 1).HP)
}

func TestCommitRecord_QuotaAndAddition(t *testing.T) {
	f := newFixture(t, "m")
	ctx := context.Background()

	// 整刀击杀获得补偿刀，下一刀默认消耗补偿刀
	out := f.commit(t, "m", 1, "100")
	require.Equal(t, CommitRecordSuccess, out.Result)
	require.True(t, out.GrantedAddition)
	assert.False(t, out.IsAddition)

	out = f.commit(t, "m", 2, "10")
	require.Equal(t, CommitRecordSuccess, out.Result)
	assert.True(t, out.IsAddition)
	assert.True(t, out.Record.IsAddition)

	today, _, err := f.clan.TodayStatus(ctx, "m")
	require.NoError(t, err)
	assert.Equal(t, 2, today.Challenges)
	assert.True(t, today.LastWasAddition)

	require.Equal(t, CommitRecordSuccess, f.commit(t, "m", 2, "10").Result)
	require.Equal(t, CommitRecordSuccess, f.commit(t, "m", 2, "10").Result)
	// 三个整刀已用完
	assert.Equal(t, CommitRecordCheckRecordLegalFailed, f.commit(t, "m", 2, "10").Result)

	// 日切后重置
	f.clock.Advance(24 * time.Hour)
	assert.Equal(t, CommitRecordSuccess, f.commit(t, "m", 2, "10").Result)
}

func TestCommitRecord_ForceFullSkipsPendingAddition(t *testing.T) {
	f := newFixture(t, "m")
	ctx := context.Background()

	require.True(t, f.commit(t, "m", 1, "100").GrantedAddition)
	out, err := f.clan.CommitRecord(ctx, CommitRecordRequest{MemberID: "m", Boss: 2, Damage: "10", ForceFull: true})
	require.NoError(t, err)
	require.Equal(t, CommitRecordSuccess, out.Result)
	assert.False(t, out.IsAddition)

	today, _, err := f.clan.TodayStatus(ctx, "m")
	require.NoError(t, err)
	assert.Equal(t, 1, today.PendingAddition)
}

func TestCommitRecord_ProxyAndReleaseHolds(t *testing.T) {
	f := newFixture(t, "m", "helper")
	ctx := context.Background()

	sub, err := f.clan.CommitSubscribe(ctx, "m", 1, 3, "")
	require.NoError(t, err)
	require.Equal(t, SubscribeSuccess, sub.Result)
	ip, err := f.clan.CommitInProgress(ctx, "m", 1, "")
	require.NoError(t, err)
	require.Equal(t, InProgressSuccess, ip.Result)
	tree, err := f.clan.CommitOnTree(ctx, "m", 1, "")
	require.NoError(t, err)
	require.Equal(t, OnTreeSuccess, tree)

	out, err := f.clan.CommitRecord(ctx, CommitRecordRequest{MemberID: "m", Boss: 1, Damage: "20", ProxyReporter: "helper", Comment: "代报"})
	require.NoError(t, err)
	require.Equal(t, CommitRecordSuccess, out.Result)
	assert.True(t, out.Record.IsProxy)
	assert.Equal(t, "helper", out.Record.ProxyReporter)

	slots, err := f.clan.InProgress(ctx, 0)
	require.NoError(t, err)
	assert.Empty(t, slots)
	holds, err := f.clan.OnTree(ctx, 0)
	require.NoError(t, err)
	assert.Empty(t, holds)
	subs, err := f.clan.Subscriptions(ctx, 0, 0)
	require.NoError(t, err)
	assert.Empty(t, subs)
}

func TestCommitRecord_KillReportsSubscribersAndTree(t *testing.T) {
	f := newFixture(t, "m", "waiter", "stuck")
	ctx := context.Background()

	sub, err := f.clan.CommitSubscribe(ctx, "waiter", 1, 0, "")
	require.NoError(t, err)
	require.Equal(t, 2, sub.Cycle)
	tree, err := f.clan.CommitOnTree(ctx, "stuck", 1, "")
	require.NoError(t, err)
	require.Equal(t, OnTreeSuccess, tree)

	out := f.commit(t, "m", 1, "100")
	require.Equal(t, CommitRecordSuccess, out.Result)
	require.Len(t, out.Subscribers, 1)
	assert.Equal(t, "waiter", out.Subscribers[0].MemberID)
	require.Len(t, out.OnTree, 1)
	assert.Equal(t, "stuck", out.OnTree[0].MemberID)
}

func TestCommitRecord_RunsToCompletionAfterCallerCancel(t *testing.T) {
	f := newFixture(t, "a")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	out, err := f.clan.CommitRecord(ctx, CommitRecordRequest{MemberID: "a", Boss: 1, Damage: "10"})
	require.NoError(t, err)
	require.Equal(t, CommitRecordSuccess, out.Result)
	assert.Equal(t, int64(90), f.boss(t, 1).HP)

	undo, err := f.clan.UndoRecent(ctx, "a", 0)
	require.NoError(t, err)
	assert.True(t, undo.Undone)
	assert.Equal(t, int64(100), f.boss(t, 1).HP)
}
