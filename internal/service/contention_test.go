package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNonMemberRejectedEverywhere(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	assert.Equal(t, CommitRecordMemberNotInClan, f.commit(t, "ghost", 1, "10").Result)

	ip, err := f.clan.CommitInProgress(ctx, "ghost", 1, "")
	require.NoError(t, err)
	assert.Equal(t, InProgressMemberNotInClan, ip.Result)

	sub, err := f.clan.CommitSubscribe(ctx, "ghost", 1, 0, "")
	require.NoError(t, err)
	assert.Equal(t, SubscribeMemberNotInClan, sub.Result)

	tree, err := f.clan.CommitOnTree(ctx, "ghost", 1, "")
	require.NoError(t, err)
	assert.Equal(t, OnTreeMemberNotInClan, tree)

	sl, err := f.clan.CommitSL(ctx, "ghost", 1, "", "")
	require.NoError(t, err)
	assert.Equal(t, SLMemberNotInClan, sl)

	undo, err := f.clan.UndoRecent(ctx, "ghost", 0)
	require.NoError(t, err)
	assert.False(t, undo.Undone)

	for _, del := range []func() (bool, error){
		func() (bool, error) { return f.clan.DeleteInProgress(ctx, "ghost") },
		func() (bool, error) { return f.clan.DeleteOnTree(ctx, "ghost") },
		func() (bool, error) { return f.clan.DeleteSubscribe(ctx, "ghost", 1, 0) },
	} {
		ok, err := del()
		require.NoError(t, err)
		assert.False(t, ok)
	}
}

func TestCommitInProgress(t *testing.T) {
	f := newFixture(t, "a", "b")
	ctx := context.Background()

	out, err := f.clan.CommitInProgress(ctx, "a", 1, "先出")
	require.NoError(t, err)
	require.Equal(t, InProgressSuccess, out.Result)
	assert.Empty(t, out.Holders)

	out, err = f.clan.CommitInProgress(ctx, "b", 1, "")
	require.NoError(t, err)
	require.Equal(t, InProgressSuccess, out.Result)
	require.Len(t, out.Holders, 1)
	assert.Equal(t, "a", out.Holders[0].MemberID)

	// 同一成员只能持有一个申请
	out, err = f.clan.CommitInProgress(ctx, "a", 2, "")
	require.NoError(t, err)
	assert.Equal(t, InProgressAlreadyInBattle, out.Result)

	ok, err := f.clan.DeleteInProgress(ctx, "a")
	require.NoError(t, err)
	assert.True(t, ok)
	ok, err = f.clan.DeleteInProgress(ctx, "a")
	require.NoError(t, err)
	assert.False(t, ok)

	out, err = f.clan.CommitInProgress(ctx, "a", 6, "")
	require.NoError(t, err)
	assert.Equal(t, InProgressIllegalTargetBoss, out.Result)
}

func TestCommitInProgress_BossTooFarAhead(t *testing.T) {
	f := newFixture(t, "a")
	ctx := context.Background()

	// Boss 1 进入第 2 周目，测试表中第 2 周目是新阶段
	require.Equal(t, CommitRecordSuccess, f.commit(t, "a", 1, "100").Result)

	out, err := f.clan.CommitInProgress(ctx, "a", 1, "")
	require.NoError(t, err)
	assert.Equal(t, InProgressIllegalTargetBoss, out.Result)

	out, err = f.clan.CommitInProgress(ctx, "a", 2, "")
	require.NoError(t, err)
	assert.Equal(t, InProgressSuccess, out.Result)
}

func TestCommitInProgress_TreeOnOtherBossBlocks(t *testing.T) {
	f := newFixture(t, "a")
	ctx := context.Background()

	tree, err := f.clan.CommitOnTree(ctx, "a", 2, "")
	require.NoError(t, err)
	require.Equal(t, OnTreeSuccess, tree)

	out, err := f.clan.CommitInProgress(ctx, "a", 3, "")
	require.NoError(t, err)
	assert.Equal(t, InProgressAlreadyInBattle, out.Result)

	out, err = f.clan.CommitInProgress(ctx, "a", 2, "")
	require.NoError(t, err)
	assert.Equal(t, InProgressSuccess, out.Result)
}

func TestCommitOnTree_OtherBossProgress(t *testing.T) {
	f := newFixture(t, "m")
	ctx := context.Background()

	ip, err := f.clan.CommitInProgress(ctx, "m", 2, "")
	require.NoError(t, err)
	require.Equal(t, InProgressSuccess, ip.Result)

	res, err := f.clan.CommitOnTree(ctx, "m", 3, "")
	require.NoError(t, err)
	assert.Equal(t, OnTreeAlreadyInOtherBossProgress, res)

	res, err = f.clan.CommitOnTree(ctx, "m", 2, "")
	require.NoError(t, err)
	assert.Equal(t, OnTreeSuccess, res)

	res, err = f.clan.CommitOnTree(ctx, "m", 2, "")
	require.NoError(t, err)
	assert.Equal(t, OnTreeAlreadyOnTree, res)

	ok, err := f.clan.DeleteOnTree(ctx, "m")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = f.clan.DeleteInProgress(ctx, "m")
	require.NoError(t, err)
	require.True(t, ok)
	res, err = f.clan.CommitOnTree(ctx, "m", 0, "")
	require.NoError(t, err)
	assert.Equal(t, OnTreeIllegalTargetBoss, res)
}

func TestCommitSubscribe(t *testing.T) {
	f := newFixture(t, "m")
	ctx := context.Background()

	out, err := f.clan.CommitSubscribe(ctx, "m", 3, 2, "")
	require.NoError(t, err)
	assert.Equal(t, SubscribeSuccess, out.Result)

	out, err = f.clan.CommitSubscribe(ctx, "m", 3, 2, "")
	require.NoError(t, err)
	assert.Equal(t, SubscribeAlreadySubscribed, out.Result)

	out, err = f.clan.CommitSubscribe(ctx, "m", 3, 1, "")
	require.NoError(t, err)
	assert.Equal(t, SubscribeBossCycleAlreadyKilled, out.Result)

	out, err = f.clan.CommitSubscribe(ctx, "m", 9, 2, "")
	require.NoError(t, err)
	assert.Equal(t, SubscribeIllegalTargetBoss, out.Result)

	ip, err := f.clan.CommitInProgress(ctx, "m", 4, "")
	require.NoError(t, err)
	require.Equal(t, InProgressSuccess, ip.Result)
	out, err = f.clan.CommitSubscribe(ctx, "m", 4, 0, "")
	require.NoError(t, err)
	assert.Equal(t, SubscribeAlreadyInProgress, out.Result)

	subs, err := f.clan.Subscriptions(ctx, 3, 0)
	require.NoError(t, err)
	require.Len(t, subs, 1)

	ok, err := f.clan.DeleteSubscribe(ctx, "m", 3, 2)
	require.NoError(t, err)
	assert.True(t, ok)
	ok, err = f.clan.DeleteSubscribe(ctx, "m", 3, 2)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestCommitSL_OncePerBattleDay(t *testing.T) {
	f := newFixture(t, "m")
	ctx := context.Background()

	res, err := f.clan.CommitSL(ctx, "m", 2, "翻车", "")
	require.NoError(t, err)
	assert.Equal(t, SLSuccess, res)

	res, err = f.clan.CommitSL(ctx, "m", 2, "", "")
	require.NoError(t, err)
	assert.Equal(t, SLAlreadySL, res)

	sl, err := f.clan.TodaySL(ctx, "m")
	require.NoError(t, err)
	assert.True(t, sl.Used)
	assert.Equal(t, 2, sl.Boss)
	assert.Equal(t, "翻车", sl.Comment)

	// 12:00 JST -> 次日 04:59 JST 仍是同一会战日
	f.clock.Advance(16*time.Hour + 58*time.Minute)
	res, err = f.clan.CommitSL(ctx, "m", 2, "", "")
	require.NoError(t, err)
	assert.Equal(t, SLAlreadySL, res)

	f.clock.Advance(2 * time.Minute)
	res, err = f.clan.CommitSL(ctx, "m", 7, "", "")
	require.NoError(t, err)
	assert.Equal(t, SLIllegalTargetBoss, res)
	res, err = f.clan.CommitSL(ctx, "m", 2, "", "")
	require.NoError(t, err)
	assert.Equal(t, SLSuccess, res)
}
