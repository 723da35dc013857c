package ledger_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/lovequest/questsync/internal/domain/ledger"
	"github.com/lovequest/questsync/internal/domain/ledger/mock"
	"github.com/lovequest/questsync/internal/gateways/memory"
)

var base = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func newService(remote ledger.Remote, now *time.Time) (*memory.Store, *ledger.Service) {
	store := memory.New()
	svc := ledger.NewService(store.Ledger(), store, remote,
		ledger.WithProvisionalTTL(time.Hour),
		ledger.WithClock(func() time.Time { return *now }))
	return store, svc
}

func TestService_CreditAndBalance(t *testing.T) {
	ctx := context.Background()
	now := base
	_, svc := newService(nil, &now)

	var notified []string
	svc.OnChange(func(_ context.Context, userID string) { notified = append(notified, userID) })

	for i, amount := range []int64{30, 5, 30} {
		now = base.Add(time.Duration(i) * time.Minute)
		_, err := svc.Credit(ctx, "alice", amount, ledger.QuestReason("quiz"), "")
		require.NoError(t, err)
	}
	_, err := svc.Credit(ctx, "bob", 30, ledger.ReasonPokeMutual, "")
	require.NoError(t, err)

	_, err = svc.Credit(ctx, "alice", 0, ledger.ReasonPokeMutual, "")
	assert.ErrorIs(t, err, ledger.ErrInvalidAmount)

	balance, err := svc.Balance(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, int64(65), balance)

	history, err := svc.History(ctx, "alice", 2)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, int64(30), history[0].Amount)
	assert.Equal(t, int64(5), history[1].Amount)
	assert.False(t, history[0].Confirmed)

	assert.Equal(t, []string{"alice", "alice", "alice", "bob"}, notified)
}

func TestService_SyncFromServer(t *testing.T) {
	ctx := context.Background()

	t.Run("Provisional award replaced by server copy", func(t *testing.T) {
		now := base
		remote := mock.NewMockRemote(gomock.NewController(t))
		_, svc := newService(remote, &now)

		local, err := svc.Credit(ctx, "alice", 30, "daily_quest_quiz", "q1")
		require.NoError(t, err)

		snapshot := &ledger.Snapshot{
			Balance: 60,
			Transactions: []*ledger.Transaction{
				{ID: "s1", UserID: "alice", Amount: 30, Reason: "daily_quest_quiz", RelatedID: "q1", Timestamp: base},
				{ID: "s0", UserID: "alice", Amount: 30, Reason: "daily_quest_game", RelatedID: "q0", Timestamp: base.Add(-time.Hour)},
			},
		}
		gomock.InOrder(
			remote.EXPECT().PushLedger(gomock.Any(), "alice", gomock.Len(1)).Return(nil),
			remote.EXPECT().FetchLedger(gomock.Any(), "alice").Return(snapshot, nil),
			remote.EXPECT().FetchLedger(gomock.Any(), "alice").Return(snapshot, nil),
		)

		changes := 0
		svc.OnChange(func(context.Context, string) { changes++ })

		require.NoError(t, svc.SyncFromServer(ctx, "alice"))
		balance, err := svc.Balance(ctx, "alice")
		require.NoError(t, err)
		assert.Equal(t, int64(60), balance)
		assert.Equal(t, 1, changes)

		history, err := svc.History(ctx, "alice", 0)
		require.NoError(t, err)
		for _, h := range history {
			assert.True(t, h.Confirmed)
			assert.NotEqual(t, local.ID, h.ID)
		}

		require.NoError(t, svc.SyncFromServer(ctx, "alice"))
		balance, err = svc.Balance(ctx, "alice")
		require.NoError(t, err)
		assert.Equal(t, int64(60), balance)
		assert.Equal(t, 1, changes)
	})

	t.Run("Stale provisional dropped, fresh one kept", func(t *testing.T) {
		now := base
		remote := mock.NewMockRemote(gomock.NewController(t))
		_, svc := newService(remote, &now)

		_, err := svc.Credit(ctx, "alice", 30, "daily_quest_quiz", "q1")
		require.NoError(t, err)
		now = base.Add(2 * time.Hour)
		_, err = svc.Credit(ctx, "alice", 5, ledger.ReasonPokeMutual, "")
		require.NoError(t, err)

		remote.EXPECT().PushLedger(gomock.Any(), "alice", gomock.Len(2)).Return(nil)
		remote.EXPECT().FetchLedger(gomock.Any(), "alice").Return(&ledger.Snapshot{}, nil)

		require.NoError(t, svc.SyncFromServer(ctx, "alice"))
		balance, err := svc.Balance(ctx, "alice")
		require.NoError(t, err)
		assert.Equal(t, int64(5), balance)
	})

	t.Run("Confirmed entry missing on server is removed", func(t *testing.T) {
		now := base
		remote := mock.NewMockRemote(gomock.NewController(t))
		store, svc := newService(remote, &now)

		require.NoError(t, store.Ledger().Upsert(ctx, []*ledger.Transaction{
			{ID: "old", UserID: "alice", Amount: 30, Reason: "daily_quest_quiz", RelatedID: "q9", Timestamp: base, Confirmed: true},
		}))
		remote.EXPECT().FetchLedger(gomock.Any(), "alice").Return(&ledger.Snapshot{}, nil)

		require.NoError(t, svc.SyncFromServer(ctx, "alice"))
		balance, err := svc.Balance(ctx, "alice")
		require.NoError(t, err)
		assert.Zero(t, balance)
	})

	t.Run("Push failure still reconciles", func(t *testing.T) {
		now := base
		remote := mock.NewMockRemote(gomock.NewController(t))
		_, svc := newService(remote, &now)

		_, err := svc.Credit(ctx, "alice", 30, "daily_quest_quiz", "q1")
		require.NoError(t, err)

		remote.EXPECT().PushLedger(gomock.Any(), "alice", gomock.Any()).Return(errors.New("timeout"))
		remote.EXPECT().FetchLedger(gomock.Any(), "alice").Return(&ledger.Snapshot{}, nil)

		require.NoError(t, svc.SyncFromServer(ctx, "alice"))
		balance, err := svc.Balance(ctx, "alice")
		require.NoError(t, err)
		assert.Equal(t, int64(30), balance)
	})

	t.Run("Fetch failure leaves local state", func(t *testing.T) {
		now := base
		remote := mock.NewMockRemote(gomock.NewController(t))
		_, svc := newService(remote, &now)

		_, err := svc.Credit(ctx, "alice", 30, "daily_quest_quiz", "q1")
		require.NoError(t, err)

		remote.EXPECT().PushLedger(gomock.Any(), "alice", gomock.Any()).Return(nil)
		remote.EXPECT().FetchLedger(gomock.Any(), "alice").Return(nil, errors.New("offline"))

		require.Error(t, svc.SyncFromServer(ctx, "alice"))
		balance, err := svc.Balance(ctx, "alice")
		require.NoError(t, err)
		assert.Equal(t, int64(30), balance)
	})

	t.Run("No remote", func(t *testing.T) {
		now := base
		_, svc := newService(nil, &now)
		assert.ErrorIs(t, svc.SyncFromServer(ctx, "alice"), ledger.ErrNoRemote)
	})
}
