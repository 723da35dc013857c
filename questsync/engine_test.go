package questsync_test

import (
	"context"
	"errors"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lovequest/questsync/internal/devserver"
	"github.com/lovequest/questsync/internal/domain/identity"
	"github.com/lovequest/questsync/internal/domain/quests"
	"github.com/lovequest/questsync/internal/domain/unlocks"
	"github.com/lovequest/questsync/internal/gateways/backend"
	"github.com/lovequest/questsync/internal/gateways/memory"
	"github.com/lovequest/questsync/questsync"
)

type clock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func newClock() *clock {
	return &clock{now: time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)}
}

func newBackend(t *testing.T) (*devserver.Server, *httptest.Server) {
	t.Helper()
	dev := devserver.New(devserver.Config{Token: "dev"})
	srv := httptest.NewServer(dev.Handler())
	t.Cleanup(srv.Close)
	return dev, srv
}

func newClient(t *testing.T, url string) *backend.Client {
	t.Helper()
	c, err := backend.New(url, backend.StaticToken("dev"), 2*time.Second)
	require.NoError(t, err)
	return c
}

func newDevice(t *testing.T, url string, user identity.User, clk *clock) *questsync.Engine {
	t.Helper()
	cfg := questsync.DefaultConfig()
	cfg.Quests.Timezone = "UTC"
	cfg.Rollover.Disabled = true

	e, err := questsync.NewEngine(cfg, memory.New(), newClient(t, url), questsync.WithClock(clk.Now))
	require.NoError(t, err)
	t.Cleanup(func() { _ = e.Close() })

	_, err = e.SignIn(context.Background(), user)
	require.NoError(t, err)
	return e
}

// foreground runs the foreground refresh without leaving the poller running,
// so the test drives every sync itself.
func foreground(t *testing.T, e *questsync.Engine) {
	t.Helper()
	require.NoError(t, e.Foreground(context.Background()))
	assert.True(t, e.Syncing())
	e.Background()
	assert.False(t, e.Syncing())
}

func findUnlock(list []unlocks.Unlock, f unlocks.Feature) unlocks.Unlock {
	for _, u := range list {
		if u.Feature == f {
			return u
		}
	}
	return unlocks.Unlock{}
}

func TestEngine_TwoDevices(t *testing.T) {
	ctx := context.Background()
	clk := newClock()
	dev, srv := newBackend(t)
	dev.Pair("c1", backend.User{ID: "alice"}, backend.User{ID: "bob"})

	a := newDevice(t, srv.URL, identity.User{ID: "alice"}, clk)
	b := newDevice(t, srv.URL, identity.User{ID: "bob"}, clk)
	foreground(t, a)
	foreground(t, b)

	couple, err := a.Couple(ctx)
	require.NoError(t, err)
	assert.Equal(t, "c1", couple.ID)
	require.True(t, couple.Paired())
	assert.Equal(t, "bob", couple.Partner.ID)

	var changes []string
	a.OnQuestsChanged(func(_ context.Context, date string) { changes = append(changes, date) })

	todayA, err := a.TodayQuests(ctx)
	require.NoError(t, err)
	todayB, err := b.TodayQuests(ctx)
	require.NoError(t, err)
	assert.Equal(t, "2026-03-01", todayA.Date)
	assert.False(t, todayA.Retry)
	require.Len(t, todayA.Quests, 3)
	require.Len(t, todayB.Quests, 3)
	for i := range todayA.Quests {
		assert.Equal(t, todayA.Quests[i].ID, todayB.Quests[i].ID)
		assert.Equal(t, todayA.Quests[i].ContentID, todayB.Quests[i].ContentID)
		assert.True(t, todayA.Quests[i].YourTurn)
	}
	questID := todayA.Quests[0].ID

	out, err := a.RecordCompletion(ctx, questID)
	require.NoError(t, err)
	assert.Equal(t, questsync.OutcomeRecorded, out)
	assert.Equal(t, []string{"2026-03-01"}, changes)

	out, err = a.RecordCompletion(ctx, questID)
	require.NoError(t, err)
	assert.Equal(t, questsync.OutcomeUnchanged, out)

	todayA, err = a.TodayQuests(ctx)
	require.NoError(t, err)
	assert.True(t, todayA.Quests[0].WaitingOnPartner)
	assert.False(t, todayA.Quests[0].YourTurn)

	// bob completes on his own device before it has seen alice's completion
	out, err = b.RecordCompletion(ctx, questID)
	require.NoError(t, err)
	assert.Equal(t, questsync.OutcomeRecorded, out)

	report, err := b.SyncNow(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, report.Applied)
	assert.Equal(t, 1, report.Awarded)

	report, err = a.SyncNow(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, report.Awarded)
	assert.Len(t, changes, 2)

	// a second poll changes nothing
	report, err = a.SyncNow(ctx)
	require.NoError(t, err)
	assert.False(t, report.Mutated())

	for _, e := range []*questsync.Engine{a, b} {
		today, err := e.TodayQuests(ctx)
		require.NoError(t, err)
		q := today.Quests[0]
		assert.Equal(t, quests.StatusCompleted, q.Status)
		assert.Equal(t, quests.DefaultAwardAmount, q.LPAwarded)
		assert.False(t, q.YourTurn)
		assert.False(t, q.WaitingOnPartner)

		balance, err := e.Balance(ctx)
		require.NoError(t, err)
		assert.Equal(t, int64(30), balance)
	}

	history, err := a.History(ctx)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.True(t, history[0].Confirmed)
	assert.Equal(t, questID, history[0].RelatedID)

	client := newClient(t, srv.URL)
	for _, user := range []string{"alice", "bob"} {
		snap, err := client.FetchLedger(ctx, user)
		require.NoError(t, err)
		assert.Equal(t, int64(30), snap.Balance, user)
		assert.Len(t, snap.Transactions, 1, user)
	}

	list, err := a.Unlocks(ctx)
	require.NoError(t, err)
	assert.True(t, findUnlock(list, unlocks.FeaturePoke).Unlocked)
	assert.False(t, findUnlock(list, unlocks.FeatureSideWordSearch).Unlocked)

	require.NoError(t, a.CreditPoke(ctx))
	balance, err := a.Balance(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(35), balance)

	b.SyncLedger(ctx)
	balance, err = b.Balance(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(35), balance)

	tier, err := b.Tier(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Sparks", tier.Name)
	assert.Equal(t, int64(165), tier.ToNext)
}

func TestEngine_Unpaired(t *testing.T) {
	ctx := context.Background()
	_, srv := newBackend(t)
	e := newDevice(t, srv.URL, identity.User{ID: "alice"}, newClock())
	foreground(t, e)

	today, err := e.TodayQuests(ctx)
	require.NoError(t, err)
	require.Len(t, today.Quests, 3)
	assert.Equal(t, "solo-alice", today.Quests[0].CoupleID)

	out, err := e.RecordCompletion(ctx, today.Quests[0].ID)
	require.NoError(t, err)
	assert.Equal(t, questsync.OutcomeRecorded, out)

	today, err = e.TodayQuests(ctx)
	require.NoError(t, err)
	assert.Equal(t, quests.StatusInProgress, today.Quests[0].Status)
	assert.True(t, today.Quests[0].YourTurn)
	assert.False(t, today.Quests[0].WaitingOnPartner)

	report, err := e.SyncNow(ctx)
	require.NoError(t, err)
	assert.False(t, report.Mutated())

	assert.ErrorIs(t, e.CreditPoke(ctx), questsync.ErrNotPaired)
}

func TestEngine_Expired(t *testing.T) {
	ctx := context.Background()
	clk := newClock()
	_, srv := newBackend(t)
	e := newDevice(t, srv.URL, identity.User{ID: "alice"}, clk)
	foreground(t, e)

	today, err := e.TodayQuests(ctx)
	require.NoError(t, err)
	require.NotEmpty(t, today.Quests)
	stale := today.Quests[0].ID

	clk.Advance(48 * time.Hour)

	out, err := e.RecordCompletion(ctx, stale)
	require.NoError(t, err)
	assert.Equal(t, questsync.OutcomeExpired, out)

	out, err = e.RecordCompletion(ctx, "no-such-quest")
	require.NoError(t, err)
	assert.Equal(t, questsync.OutcomeNotFound, out)

	today, err = e.TodayQuests(ctx)
	require.NoError(t, err)
	assert.Equal(t, "2026-03-03", today.Date)
	assert.Empty(t, today.Quests)
}

func TestEngine_BackendDown(t *testing.T) {
	ctx := context.Background()
	_, srv := newBackend(t)
	e := newDevice(t, srv.URL, identity.User{ID: "alice"}, newClock())
	srv.Close()

	require.NoError(t, e.Foreground(ctx))
	e.Background()

	today, err := e.TodayQuests(ctx)
	require.NoError(t, err)
	assert.Empty(t, today.Quests)
	assert.True(t, today.Retry)
}

func TestEngine_NoIdentity(t *testing.T) {
	_, srv := newBackend(t)
	cfg := questsync.DefaultConfig()
	cfg.Rollover.Disabled = true

	e, err := questsync.NewEngine(cfg, memory.New(), newClient(t, srv.URL))
	require.NoError(t, err)
	defer e.Close()

	assert.ErrorIs(t, e.Foreground(context.Background()), identity.ErrNoIdentity)
	_, err = e.TodayQuests(context.Background())
	assert.ErrorIs(t, err, identity.ErrNoIdentity)
	out, err := e.RecordCompletion(context.Background(), "q1")
	assert.ErrorIs(t, err, identity.ErrNoIdentity)
	assert.Equal(t, questsync.OutcomeFailed, out)
}

type brokenQuests struct{ quests.Repository }

func (brokenQuests) Update(context.Context, *quests.Quest) error {
	return errors.New("disk full")
}

type brokenStore struct{ *memory.Store }

func (s brokenStore) Quests() quests.Repository {
	return brokenQuests{s.Store.Quests()}
}

func TestEngine_StoreFailure(t *testing.T) {
	ctx := context.Background()
	_, srv := newBackend(t)
	cfg := questsync.DefaultConfig()
	cfg.Quests.Timezone = "UTC"
	cfg.Rollover.Disabled = true

	clk := newClock()
	e, err := questsync.NewEngine(cfg, brokenStore{memory.New()}, newClient(t, srv.URL), questsync.WithClock(clk.Now))
	require.NoError(t, err)
	defer e.Close()
	_, err = e.SignIn(ctx, identity.User{ID: "alice"})
	require.NoError(t, err)
	foreground(t, e)

	today, err := e.TodayQuests(ctx)
	require.NoError(t, err)
	require.NotEmpty(t, today.Quests)

	out, err := e.RecordCompletion(ctx, today.Quests[0].ID)
	require.NoError(t, err)
	assert.Equal(t, questsync.OutcomeFailed, out)
	assert.Equal(t, "failed", out.String())

	today, err = e.TodayQuests(ctx)
	require.NoError(t, err)
	assert.Equal(t, quests.StatusNotStarted, today.Quests[0].Status)
}
