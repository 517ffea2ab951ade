package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/yuqie6/YukiClanBattle/internal/eventbus"
	"github.com/yuqie6/YukiClanBattle/internal/repository"
	"github.com/yuqie6/YukiClanBattle/internal/testutil"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

const testBossTableYAML = `
jp:
  default:
    - from_cycle: 1
      hp: [100, 200, 300, 400, 500]
    - from_cycle: 2
      hp: [150, 250, 350, 450, 550]
  archives:
    2:
      - from_cycle: 1
        hp: [1000, 2000, 3000, 4000, 5000]
cn:
  default:
    - from_cycle: 1
      hp: [100, 200, 300, 400, 500]
`

// recordingPublisher 记录事件，并检查发布时公会锁已经释放
type recordingPublisher struct {
	mu       sync.Mutex
	reg      *Registry
	events   []eventbus.Event
	lockHeld bool
}

func (p *recordingPublisher) Publish(evt eventbus.Event) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, evt)
	if p.reg == nil {
		return
	}
	p.reg.mu.Lock()
	c := p.reg.clans[evt.ClanID]
	p.reg.mu.Unlock()
	if c == nil {
		return
	}
	if !c.mu.TryLock() {
		p.lockHeld = true
		return
	}
	c.mu.Unlock()
}

func (p *recordingPublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.events))
	for _, e := range p.events {
		out = append(out, e.Type)
	}
	return out
}

type countingObserver struct {
	mu      sync.Mutex
	results map[string]int
}

func (o *countingObserver) ObserveOp(op, result string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.results == nil {
		o.results = make(map[string]int)
	}
	o.results[op+"/"+result]++
}

func (o *countingObserver) ObserveLockWait(string, time.Duration) {}

type fixture struct {
	reg      *Registry
	clock    *testutil.Clock
	events   *recordingPublisher
	observer *countingObserver
	clan     *Clan
}

// 2024-05-01 12:00 JST
var fixtureStart = time.Date(2024, 5, 1, 3, 0, 0, 0, time.UTC)

func newFixture(t *testing.T, members ...string) *fixture {
	t.Helper()
	db := testutil.OpenTestDB(t)
	table, err := ParseBossTable([]byte(testBossTableYAML))
	require.NoError(t, err)

	clock := testutil.NewClock(fixtureStart)
	pub := &recordingPublisher{}
	obs := &countingObserver{}
	reg, err := NewRegistry(RegistryOptions{
		Store:    repository.NewStore(db),
		Table:    table,
		Settings: DefaultSettings(),
		Now:      clock.Now,
		Events:   pub,
		Observer: obs,
	})
	require.NoError(t, err)
	pub.reg = reg

	ctx := context.Background()
	res, err := reg.CreateClan(ctx, "c1", "测试公会", "jp", []string{"admin"})
	require.NoError(t, err)
	require.Equal(t, CreateClanSuccess, res)

	clan, err := reg.Clan(ctx, "c1")
	require.NoError(t, err)
	for _, m := range append([]string{"admin"}, members...) {
		ok, err := clan.AddMember(ctx, m, "name-"+m)
		require.NoError(t, err)
		require.True(t, ok)
	}
	return &fixture{reg: reg, clock: clock, events: pub, observer: obs, clan: clan}
}

func (f *fixture) commit(t *testing.T, member string, boss int, damage string) CommitRecordOutcome {
	t.Helper()
	out, err := f.clan.CommitRecord(context.Background(), CommitRecordRequest{MemberID: member, Boss: boss, Damage: damage})
	require.NoError(t, err)
	return out
}

func (f *fixture) boss(t *testing.T, boss int) BossView {
	t.Helper()
	views, err := f.clan.BossStatus(context.Background())
	require.NoError(t, err)
	require.Len(t, views, 5)
	return views[boss-1]
}
