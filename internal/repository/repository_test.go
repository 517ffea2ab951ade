package repository

import (
	"context"
	"testing"

	"github.com/yuqie6/YukiClanBattle/internal/schema"
	"github.com/yuqie6/YukiClanBattle/internal/testutil"
)

func TestClanAndMemberRepository(t *testing.T) {
	db := testutil.OpenTestDB(t)
	repos := NewStore(db).Repos()
	ctx := context.Background()

	clan := &schema.Clan{ClanID: "1001", Name: "测试公会", Variant: schema.VariantJP, Admins: schema.JSONArray{"a", "b"}}
	if err := repos.Clans.Create(ctx, clan); err != nil {
		t.Fatalf("Create clan: %v", err)
	}

	got, err := repos.Clans.GetByID(ctx, "1001")
	if err != nil || got == nil {
		t.Fatalf("GetByID err=%v got=%v", err, got)
	}
	if got.CurrentArchive != 1 || !got.Admins.Contains("b") {
		t.Fatalf("got=%+v, want archive 1 and admin b", got)
	}

	missing, err := repos.Clans.GetByID(ctx, "404")
	if err != nil || missing != nil {
		t.Fatalf("GetByID missing err=%v got=%v", err, missing)
	}

	if err := repos.Members.Save(ctx, &schema.Member{MemberID: "m1", ClanID: "1001", Name: "yuki"}); err != nil {
		t.Fatalf("Save member: %v", err)
	}
	ok, err := repos.Members.Rename(ctx, "1001", "m1", "yuki2")
	if err != nil || !ok {
		t.Fatalf("Rename ok=%v err=%v", ok, err)
	}
	ok, err = repos.Members.Rename(ctx, "9999", "m1", "x")
	if err != nil || ok {
		t.Fatalf("Rename in other clan should miss, ok=%v err=%v", ok, err)
	}

	m, err := repos.Members.GetInClan(ctx, "1001", "m1")
	if err != nil || m == nil || m.Name != "yuki2" {
		t.Fatalf("GetInClan m=%+v err=%v", m, err)
	}

	ok, err = repos.Members.Delete(ctx, "1001", "m1")
	if err != nil || !ok {
		t.Fatalf("Delete ok=%v err=%v", ok, err)
	}
	m, _ = repos.Members.Get(ctx, "m1")
	if m != nil {
		t.Fatalf("member should be gone, got %+v", m)
	}
}

func TestBossRepository_EnsureSlotsKeepsExisting(t *testing.T) {
	db := testutil.OpenTestDB(t)
	repos := NewStore(db).Repos()
	ctx := context.Background()

	slots := []schema.BossSlot{
		{ClanID: "c", Archive: 1, Boss: 1, Cycle: 1, HP: 100},
		{ClanID: "c", Archive: 1, Boss: 2, Cycle: 1, HP: 200},
	}
	if err := repos.Bosses.EnsureSlots(ctx, slots); err != nil {
		t.Fatalf("EnsureSlots: %v", err)
	}

	first, _ := repos.Bosses.Get(ctx, "c", 1, 1)
	if err := repos.Bosses.UpdateState(ctx, first.ID, 3, 42); err != nil {
		t.Fatalf("UpdateState: %v", err)
	}

	// 再次初始化不应覆盖已推进的状态
	again := []schema.BossSlot{
		{ClanID: "c", Archive: 1, Boss: 1, Cycle: 1, HP: 100},
		{ClanID: "c", Archive: 1, Boss: 2, Cycle: 1, HP: 200},
	}
	if err := repos.Bosses.EnsureSlots(ctx, again); err != nil {
		t.Fatalf("EnsureSlots again: %v", err)
	}

	list, err := repos.Bosses.ListByArchive(ctx, "c", 1)
	if err != nil || len(list) != 2 {
		t.Fatalf("ListByArchive err=%v len=%d", err, len(list))
	}
	if list[0].Cycle != 3 || list[0].HP != 42 {
		t.Fatalf("boss 1 = %+v, want cycle 3 hp 42", list[0])
	}
}

func TestRecordRepository_LatestAndQuery(t *testing.T) {
	db := testutil.OpenTestDB(t)
	repos := NewStore(db).Repos()
	ctx := context.Background()

	recs := []*schema.DamageRecord{
		{ClanID: "c", Archive: 1, MemberID: "a", Boss: 1, Cycle: 1, Damage: 10, RecordTime: 1000},
		{ClanID: "c", Archive: 1, MemberID: "b", Boss: 2, Cycle: 1, Damage: 20, RecordTime: 2000},
		{ClanID: "c", Archive: 1, MemberID: "a", Boss: 1, Cycle: 2, Damage: 30, RecordTime: 3000},
		{ClanID: "c", Archive: 2, MemberID: "a", Boss: 1, Cycle: 1, Damage: 40, RecordTime: 4000},
	}
	for _, r := range recs {
		if err := repos.Records.Create(ctx, r); err != nil {
			t.Fatalf("Create: %v", err)
		}
	}

	latest, err := repos.Records.Latest(ctx, "c", 1, "")
	if err != nil || latest == nil || latest.Damage != 30 {
		t.Fatalf("Latest clan-wide = %+v err=%v", latest, err)
	}
	latestB, err := repos.Records.Latest(ctx, "c", 1, "b")
	if err != nil || latestB == nil || latestB.Damage != 20 {
		t.Fatalf("Latest b = %+v err=%v", latestB, err)
	}
	none, err := repos.Records.Latest(ctx, "c", 1, "zzz")
	if err != nil || none != nil {
		t.Fatalf("Latest unknown = %+v err=%v", none, err)
	}

	got, err := repos.Records.Query(ctx, RecordFilter{ClanID: "c", Archive: 1, MemberID: "a", Desc: true})
	if err != nil || len(got) != 2 {
		t.Fatalf("Query member a err=%v len=%d", err, len(got))
	}
	if got[0].Damage != 30 {
		t.Fatalf("Query desc first = %d, want 30", got[0].Damage)
	}

	ranged, err := repos.Records.Query(ctx, RecordFilter{ClanID: "c", Archive: 1, StartTime: 1500, EndTime: 3000})
	if err != nil || len(ranged) != 1 || ranged[0].MemberID != "b" {
		t.Fatalf("Query range = %+v err=%v", ranged, err)
	}
}

func TestContentionRepository_RestoreHolds(t *testing.T) {
	db := testutil.OpenTestDB(t)
	repos := NewStore(db).Repos()
	ctx := context.Background()

	slot := &schema.ChallengeSlot{ClanID: "c", Archive: 1, MemberID: "a", Boss: 3, CreatedAt: 1}
	sub := &schema.Subscription{ClanID: "c", Archive: 1, MemberID: "a", Boss: 3, Cycle: 4, CreatedAt: 2}
	tree := &schema.TreeHold{ClanID: "c", Archive: 1, MemberID: "a", Boss: 3, CreatedAt: 3}
	if err := repos.Contention.CreateInProgress(ctx, slot); err != nil {
		t.Fatalf("CreateInProgress: %v", err)
	}
	if err := repos.Contention.CreateSubscription(ctx, sub); err != nil {
		t.Fatalf("CreateSubscription: %v", err)
	}
	if err := repos.Contention.CreateOnTree(ctx, tree); err != nil {
		t.Fatalf("CreateOnTree: %v", err)
	}

	// 三种占位同时恢复
	snap := schema.HoldSnapshot{InProgress: slot, OnTree: tree, Subscriptions: []schema.Subscription{*sub}}
	if n, err := repos.Contention.DeleteInProgress(ctx, "c", 1, "a"); err != nil || n != 1 {
		t.Fatalf("DeleteInProgress n=%d err=%v", n, err)
	}
	if n, err := repos.Contention.DeleteOnTree(ctx, "c", 1, "a"); err != nil || n != 1 {
		t.Fatalf("DeleteOnTree n=%d err=%v", n, err)
	}
	if n, err := repos.Contention.DeleteSubscriptions(ctx, "c", 1, "a", 3, 0); err != nil || n != 1 {
		t.Fatalf("DeleteSubscriptions n=%d err=%v", n, err)
	}

	if err := repos.Contention.RestoreHolds(ctx, snap); err != nil {
		t.Fatalf("RestoreHolds: %v", err)
	}
	back, err := repos.Contention.GetInProgress(ctx, "c", 1, "a")
	if err != nil || back == nil || back.ID != slot.ID || back.Boss != 3 {
		t.Fatalf("restored slot = %+v err=%v", back, err)
	}
	subs, err := repos.Contention.ListSubscriptions(ctx, "c", 1, "a", 3, 4)
	if err != nil || len(subs) != 1 {
		t.Fatalf("restored subs = %+v err=%v", subs, err)
	}
	onTree, err := repos.Contention.GetOnTree(ctx, "c", 1, "a")
	if err != nil || onTree == nil || onTree.ID != tree.ID {
		t.Fatalf("restored tree = %+v err=%v", onTree, err)
	}

	// 再次恢复与现存占位冲突，应整体跳过而不报错
	if err := repos.Contention.RestoreHolds(ctx, snap); err != nil {
		t.Fatalf("RestoreHolds again: %v", err)
	}
}

func TestRecordRepository_ReleasedSnapshotRoundTrip(t *testing.T) {
	db := testutil.OpenTestDB(t)
	repos := NewStore(db).Repos()
	ctx := context.Background()

	rec := &schema.DamageRecord{
		ClanID: "c", Archive: 1, MemberID: "a", Boss: 1, Cycle: 1, Damage: 5, RecordTime: 1,
		Released: schema.HoldSnapshot{OnTree: &schema.TreeHold{ID: 7, ClanID: "c", Archive: 1, MemberID: "a", Boss: 1}},
	}
	if err := repos.Records.Create(ctx, rec); err != nil {
		t.Fatalf("Create: %v", err)
	}
	got, err := repos.Records.Latest(ctx, "c", 1, "a")
	if err != nil || got == nil {
		t.Fatalf("Latest err=%v", err)
	}
	if got.Released.OnTree == nil || got.Released.OnTree.ID != 7 {
		t.Fatalf("Released = %+v, want on-tree hold 7", got.Released)
	}
}

func TestUsageRepository_SumByDay(t *testing.T) {
	db := testutil.OpenTestDB(t)
	repos := NewStore(db).Repos()
	ctx := context.Background()

	for _, u := range []*schema.DailyUsage{
		{ClanID: "c", MemberID: "a", Day: "2024-05-01", ChallengeCount: 2, PendingAddition: 1},
		{ClanID: "c", MemberID: "b", Day: "2024-05-01", ChallengeCount: 3},
		{ClanID: "c", MemberID: "a", Day: "2024-05-02", ChallengeCount: 1},
	} {
		if err := repos.Usage.Save(ctx, u); err != nil {
			t.Fatalf("Save: %v", err)
		}
	}

	total, err := repos.Usage.SumByDay(ctx, "c", "2024-05-01")
	if err != nil {
		t.Fatalf("SumByDay: %v", err)
	}
	if total.Challenges != 5 || total.PendingAddition != 1 {
		t.Fatalf("total=%+v, want 5/1", total)
	}

	u, err := repos.Usage.GetOrInit(ctx, "c", "z", "2024-05-01")
	if err != nil || u == nil || u.ID != 0 {
		t.Fatalf("GetOrInit should return unsaved zero row, got %+v err=%v", u, err)
	}
}
