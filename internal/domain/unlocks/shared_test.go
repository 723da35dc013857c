package unlocks_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lovequest/questsync/internal/domain/ledger"
	"github.com/lovequest/questsync/internal/domain/unlocks"
	"github.com/lovequest/questsync/internal/gateways/memory"
)

type members map[string][]string

func (m members) MemberIDs(_ context.Context, coupleID string) ([]string, error) {
	ids, ok := m[coupleID]
	if !ok {
		return nil, errors.New("unknown couple")
	}
	return ids, nil
}

func TestSharedProgress(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	led := ledger.NewService(store.Ledger(), store, nil)
	cutoff := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

	add := func(id, userID string, amount int64, reason, related string, at time.Time, confirmed bool) {
		require.NoError(t, store.Ledger().Append(ctx, &ledger.Transaction{
			ID: id, UserID: userID, Amount: amount, Reason: reason, RelatedID: related, Timestamp: at, Confirmed: confirmed,
		}))
	}
	before := cutoff.Add(-time.Hour)
	for i, q := range []string{"q1", "q2", "q3", "q4", "q5"} {
		add("a-"+q, "alice", 30, ledger.QuestReason("quiz"), q, before.Add(time.Duration(i)*time.Minute), true)
		add("b-"+q, "bob", 30, ledger.QuestReason("quiz"), q, before.Add(time.Duration(i)*time.Minute), true)
	}
	add("a-poke", "alice", 5, ledger.ReasonPokeMutual, "", before, true)
	add("a-local", "alice", 300, ledger.QuestReason("quiz"), "q6", before, false)
	add("b-late", "bob", 300, ledger.QuestReason("quiz"), "q7", cutoff.Add(time.Minute), true)

	lp, completed, err := led.ConfirmedTotals(ctx, "alice", cutoff)
	require.NoError(t, err)
	assert.Equal(t, int64(155), lp)
	assert.Equal(t, 5, completed)

	shared := unlocks.NewSharedProgress(led, members{"c1": {"alice", "bob"}, "solo-alice": {"alice"}}, nil)

	p, err := shared.At(ctx, "c1", cutoff)
	require.NoError(t, err)
	assert.Equal(t, unlocks.Progress{LovePoints: 150, CompletedQuests: 5}, p)

	got, err := shared.UnlockedAt(ctx, "c1", cutoff)
	require.NoError(t, err)
	assert.Equal(t, map[unlocks.Feature]bool{
		unlocks.FeaturePoke:           true,
		unlocks.FeatureSideWordSearch: true,
	}, got)

	// bob's late award counts once the cutoff passes it
	p, err = shared.At(ctx, "c1", cutoff.Add(time.Hour))
	require.NoError(t, err)
	assert.Equal(t, unlocks.Progress{LovePoints: 155, CompletedQuests: 5}, p)

	p, err = shared.At(ctx, "solo-alice", cutoff)
	require.NoError(t, err)
	assert.Equal(t, unlocks.Progress{LovePoints: 155, CompletedQuests: 5}, p)

	_, err = shared.At(ctx, "c2", cutoff)
	assert.Error(t, err)
}
