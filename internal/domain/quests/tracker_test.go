package quests_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lovequest/questsync/internal/domain/identity"
	"github.com/lovequest/questsync/internal/domain/ledger"
	"github.com/lovequest/questsync/internal/domain/quests"
	"github.com/lovequest/questsync/internal/gateways/memory"
)

var (
	alice = identity.User{ID: "alice", LegacyID: "tok-alice", DisplayName: "Alice"}
	bob   = identity.User{ID: "bob", LegacyID: "tok-bob", DisplayName: "Bob"}
	day   = time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
)

type fixture struct {
	store   *memory.Store
	ledger  *ledger.Service
	tracker *quests.Tracker
	now     time.Time
}

func newFixture(t *testing.T, partner *identity.User) *fixture {
	t.Helper()
	ctx := context.Background()

	f := &fixture{store: memory.New(), now: day}
	couple := &identity.Couple{ID: "c1", User: alice, Partner: partner}
	require.NoError(t, f.store.Identity().Save(ctx, couple))

	f.ledger = ledger.NewService(f.store.Ledger(), f.store, nil)
	f.tracker = quests.NewTracker(f.store.Quests(), f.store, f.ledger, identity.NewService(f.store.Identity(), nil),
		quests.WithTrackerClock(func() time.Time { return f.now }))

	require.NoError(t, f.store.Quests().InsertDay(ctx, []*quests.Quest{
		{
			ID:              "q1",
			CoupleID:        "c1",
			Date:            "2026-03-01",
			Type:            quests.TypeQuiz,
			FormatType:      "classic",
			Status:          quests.StatusNotStarted,
			UserCompletions: map[string]bool{},
			ExpiresAt:       time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC),
		},
	}))
	return f
}

func (f *fixture) balance(t *testing.T, userID string) int64 {
	t.Helper()
	b, err := f.ledger.Balance(context.Background(), userID)
	require.NoError(t, err)
	return b
}

func (f *fixture) quest(t *testing.T) *quests.Quest {
	t.Helper()
	q, err := f.store.Quests().GetByID(context.Background(), "q1")
	require.NoError(t, err)
	return q
}

func TestTracker_BothCompletionsAward(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name  string
		steps []func(f *fixture) (*quests.Result, error)
	}{
		{
			name: "Local first",
			steps: []func(f *fixture) (*quests.Result, error){
				func(f *fixture) (*quests.Result, error) { return f.tracker.RecordCompletion(ctx, "q1", "alice") },
				func(f *fixture) (*quests.Result, error) {
					return f.tracker.ApplyPartnerCompletion(ctx, "q1", "bob", "in_progress")
				},
			},
		},
		{
			name: "Partner first",
			steps: []func(f *fixture) (*quests.Result, error){
				func(f *fixture) (*quests.Result, error) {
					return f.tracker.ApplyPartnerCompletion(ctx, "q1", "bob", "in_progress")
				},
				func(f *fixture) (*quests.Result, error) { return f.tracker.RecordCompletion(ctx, "q1", "alice") },
			},
		},
		{
			name: "Partner by legacy id",
			steps: []func(f *fixture) (*quests.Result, error){
				func(f *fixture) (*quests.Result, error) { return f.tracker.RecordCompletion(ctx, "q1", "tok-alice") },
				func(f *fixture) (*quests.Result, error) {
					return f.tracker.ApplyPartnerCompletion(ctx, "q1", "tok-bob", "completed")
				},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, &bob)

			first, err := tt.steps[0](f)
			require.NoError(t, err)
			assert.True(t, first.Changed)
			assert.False(t, first.Awarded)
			assert.Equal(t, quests.StatusInProgress, f.quest(t).Status)
			assert.Zero(t, f.balance(t, "alice"))

			second, err := tt.steps[1](f)
			require.NoError(t, err)
			assert.True(t, second.Awarded)

			q := f.quest(t)
			assert.Equal(t, quests.StatusCompleted, q.Status)
			assert.Equal(t, quests.DefaultAwardAmount, q.LPAwarded)
			assert.Equal(t, quests.DefaultAwardAmount, f.balance(t, "alice"))
			assert.Equal(t, quests.DefaultAwardAmount, f.balance(t, "bob"))

			history, err := f.ledger.History(ctx, "bob", 0)
			require.NoError(t, err)
			require.Len(t, history, 1)
			assert.Equal(t, "daily_quest_quiz", history[0].Reason)
			assert.Equal(t, "q1", history[0].RelatedID)
		})
	}
}

func TestTracker_RecordCompletionIdempotent(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, &bob)

	_, err := f.tracker.ApplyPartnerCompletion(ctx, "q1", "bob", "")
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		res, err := f.tracker.RecordCompletion(ctx, "q1", "alice")
		require.NoError(t, err)
		if i == 0 {
			assert.True(t, res.Awarded)
			continue
		}
		assert.False(t, res.Changed)
		assert.False(t, res.Awarded)
	}

	assert.Equal(t, quests.DefaultAwardAmount, f.balance(t, "alice"))
	assert.Equal(t, quests.DefaultAwardAmount, f.balance(t, "bob"))
}

func TestTracker_InterleavedSingleAward(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, &bob)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			_, err := f.tracker.RecordCompletion(ctx, "q1", "alice")
			assert.NoError(t, err)
		}()
		go func() {
			defer wg.Done()
			_, err := f.tracker.ApplyPartnerCompletion(ctx, "q1", "bob", "completed")
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	assert.Equal(t, quests.DefaultAwardAmount, f.balance(t, "alice"))
	assert.Equal(t, quests.DefaultAwardAmount, f.balance(t, "bob"))
	assert.Equal(t, quests.DefaultAwardAmount, f.quest(t).LPAwarded)
}

func TestTracker_PartnerNeverRegresses(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, &bob)

	_, err := f.tracker.RecordCompletion(ctx, "q1", "alice")
	require.NoError(t, err)
	_, err = f.tracker.ApplyPartnerCompletion(ctx, "q1", "bob", "completed")
	require.NoError(t, err)

	res, err := f.tracker.ApplyPartnerCompletion(ctx, "q1", "bob", "not_started")
	require.NoError(t, err)
	assert.False(t, res.Changed)

	q := f.quest(t)
	assert.Equal(t, quests.StatusCompleted, q.Status)
	assert.True(t, q.UserCompletions["alice"])
	assert.True(t, q.UserCompletions["bob"])
}

func TestTracker_Errors(t *testing.T) {
	ctx := context.Background()

	t.Run("Unknown quest", func(t *testing.T) {
		f := newFixture(t, &bob)
		_, err := f.tracker.RecordCompletion(ctx, "missing", "alice")
		assert.ErrorIs(t, err, quests.ErrQuestNotFound)
		_, err = f.tracker.ApplyPartnerCompletion(ctx, "missing", "bob", "completed")
		assert.ErrorIs(t, err, quests.ErrQuestNotFound)
	})

	t.Run("Expired quest", func(t *testing.T) {
		f := newFixture(t, &bob)
		f.now = time.Date(2026, 3, 2, 0, 0, 1, 0, time.UTC)

		_, err := f.tracker.RecordCompletion(ctx, "q1", "alice")
		assert.ErrorIs(t, err, quests.ErrQuestExpired)
		assert.Equal(t, quests.StatusNotStarted, f.quest(t).Status)
	})

	t.Run("Expired but already completed is a no-op", func(t *testing.T) {
		f := newFixture(t, &bob)
		_, err := f.tracker.RecordCompletion(ctx, "q1", "alice")
		require.NoError(t, err)

		f.now = time.Date(2026, 3, 3, 0, 0, 0, 0, time.UTC)
		res, err := f.tracker.RecordCompletion(ctx, "q1", "alice")
		require.NoError(t, err)
		assert.False(t, res.Changed)
	})

	t.Run("Partner completion after expiry is rejected", func(t *testing.T) {
		f := newFixture(t, &bob)
		res, err := f.tracker.RecordCompletion(ctx, "q1", "alice")
		require.NoError(t, err)
		require.True(t, res.Changed)

		f.now = time.Date(2026, 3, 2, 0, 0, 1, 0, time.UTC)
		_, err = f.tracker.ApplyPartnerCompletion(ctx, "q1", "bob", "completed")
		assert.ErrorIs(t, err, quests.ErrQuestExpired)

		q := f.quest(t)
		assert.Equal(t, quests.StatusInProgress, q.Status)
		assert.True(t, q.UserCompletions["alice"])
		assert.False(t, q.UserCompletions["bob"])
		assert.Zero(t, q.LPAwarded)
		assert.Zero(t, f.balance(t, "alice"))
		assert.Zero(t, f.balance(t, "bob"))
	})

	t.Run("Stranger", func(t *testing.T) {
		f := newFixture(t, &bob)
		_, err := f.tracker.RecordCompletion(ctx, "q1", "mallory")
		assert.ErrorIs(t, err, quests.ErrNotMember)
		_, err = f.tracker.ApplyPartnerCompletion(ctx, "q1", "alice", "completed")
		assert.ErrorIs(t, err, quests.ErrNotMember)
	})
}

func TestTracker_UnpairedStaysInProgress(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, nil)

	res, err := f.tracker.RecordCompletion(ctx, "q1", "alice")
	require.NoError(t, err)
	assert.False(t, res.Awarded)
	assert.Equal(t, quests.StatusInProgress, f.quest(t).Status)

	_, err = f.tracker.ApplyPartnerCompletion(ctx, "q1", "bob", "completed")
	assert.ErrorIs(t, err, quests.ErrNotMember)
	assert.Zero(t, f.balance(t, "alice"))
}

func TestTracker_Reports(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, &bob)

	pending, err := f.tracker.PendingReports(ctx, "c1", "2026-03-01", alice)
	require.NoError(t, err)
	assert.Empty(t, pending)

	_, err = f.tracker.RecordCompletion(ctx, "q1", "alice")
	require.NoError(t, err)

	pending, err = f.tracker.PendingReports(ctx, "c1", "2026-03-01", alice)
	require.NoError(t, err)
	require.Len(t, pending, 1)

	require.NoError(t, f.tracker.MarkReported(ctx, "q1", "alice"))
	pending, err = f.tracker.PendingReports(ctx, "c1", "2026-03-01", alice)
	require.NoError(t, err)
	assert.Empty(t, pending)
}
