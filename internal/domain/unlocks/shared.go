package unlocks

import (
	"context"
	"fmt"
	"time"
)

type ConfirmedLedger interface {
	ConfirmedTotals(ctx context.Context, userID string, before time.Time) (int64, int, error)
}

type Members interface {
	MemberIDs(ctx context.Context, coupleID string) ([]string, error)
}

// SharedProgress evaluates a couple's unlocks from server-confirmed ledger
// entries only. Both partners' devices receive the same confirmed history, so
// they agree on which features were unlocked at a given instant.
type SharedProgress struct {
	ledger  ConfirmedLedger
	members Members
	rules   []Rule
}

func NewSharedProgress(ledger ConfirmedLedger, members Members, rules []Rule) *SharedProgress {
	if len(rules) == 0 {
		rules = DefaultRules
	}
	return &SharedProgress{ledger: ledger, members: members, rules: rules}
}

// At returns the couple's progress as of at: the lowest confirmed totals among
// its members.
func (s *SharedProgress) At(ctx context.Context, coupleID string, at time.Time) (Progress, error) {
	ids, err := s.members.MemberIDs(ctx, coupleID)
	if err != nil {
		return Progress{}, err
	}

	var p Progress
	for i, id := range ids {
		lp, completed, err := s.ledger.ConfirmedTotals(ctx, id, at)
		if err != nil {
			return Progress{}, fmt.Errorf("failed to read confirmed ledger of %s: %w", id, err)
		}
		if i == 0 || lp < p.LovePoints {
			p.LovePoints = lp
		}
		if i == 0 || completed < p.CompletedQuests {
			p.CompletedQuests = completed
		}
	}
	return p, nil
}

// UnlockedAt reports which features the couple had reached at at.
func (s *SharedProgress) UnlockedAt(ctx context.Context, coupleID string, at time.Time) (map[Feature]bool, error) {
	p, err := s.At(ctx, coupleID, at)
	if err != nil {
		return nil, err
	}
	out := make(map[Feature]bool, len(s.rules))
	for _, u := range Evaluate(p, s.rules) {
		if u.Unlocked {
			out[u.Feature] = true
		}
	}
	return out, nil
}
