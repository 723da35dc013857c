package quests

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/lovequest/questsync/internal/domain/identity"
	"github.com/lovequest/questsync/internal/domain/ledger"
	"github.com/lovequest/questsync/internal/domain/txn"
)

type Crediter interface {
	Credit(ctx context.Context, userID string, amount int64, reason, relatedID string) (*ledger.Transaction, error)
}

type Couples interface {
	Current(ctx context.Context) (*identity.Couple, error)
}

// Tracker owns every quest mutation. Local completions and partner
// completions from the poller go through the same critical section, so the
// award decision and its writes can never interleave.
type Tracker struct {
	repo        Repository
	tx          txn.Transactor
	ledger      Crediter
	couples     Couples
	awardAmount int64
	now         func() time.Time

	mu sync.Mutex
}

type TrackerOption func(*Tracker)

func WithAwardAmount(amount int64) TrackerOption {
	return func(t *Tracker) {
		if amount > 0 {
			t.awardAmount = amount
		}
	}
}

func WithTrackerClock(now func() time.Time) TrackerOption {
	return func(t *Tracker) { t.now = now }
}

func NewTracker(repo Repository, tx txn.Transactor, ledger Crediter, couples Couples, opts ...TrackerOption) *Tracker {
	t := &Tracker{
		repo:        repo,
		tx:          tx,
		ledger:      ledger,
		couples:     couples,
		awardAmount: DefaultAwardAmount,
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// RecordCompletion marks the local user as done. Repeating the call is a
// no-op, and so is a call for an expired quest the user already completed.
func (t *Tracker) RecordCompletion(ctx context.Context, questID, userID string) (*Result, error) {
	return t.mutate(ctx, questID, func(q *Quest, couple *identity.Couple) (bool, error) {
		member := couple.Member(userID)
		if member == nil || member.ID != couple.User.ID {
			return false, ErrNotMember
		}
		if q.CompletedBy(*member) {
			return false, nil
		}
		if q.Expired(t.now()) {
			return false, ErrQuestExpired
		}
		q.UserCompletions[member.ID] = true
		return true, nil
	})
}

// ApplyPartnerCompletion folds a partner completion reported by the backend
// into the local quest. serverStatus is only logged; the local status is
// derived from the flags and never moves backwards.
func (t *Tracker) ApplyPartnerCompletion(ctx context.Context, questID, partnerUserID, serverStatus string) (*Result, error) {
	return t.mutate(ctx, questID, func(q *Quest, couple *identity.Couple) (bool, error) {
		if !couple.Paired() || !couple.Partner.Matches(partnerUserID) {
			return false, ErrNotMember
		}
		if q.CompletedBy(*couple.Partner) {
			return false, nil
		}
		if q.Expired(t.now()) {
			return false, ErrQuestExpired
		}
		q.UserCompletions[couple.Partner.ID] = true

		slog.Debug("Partner completion applied",
			slog.String("type", "sync"),
			slog.String("quest_id", q.ID),
			slog.String("partner_id", couple.Partner.ID),
			slog.String("server_status", serverStatus))
		return true, nil
	})
}

// mutate loads the quest, applies change and, when the quest just completed,
// credits every member. All writes share one store transaction.
func (t *Tracker) mutate(ctx context.Context, questID string, change func(q *Quest, couple *identity.Couple) (bool, error)) (*Result, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	couple, err := t.couples.Current(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load couple: %w", err)
	}

	res := &Result{}
	err = t.tx.Atomic(ctx, func(ctx context.Context) error {
		q, err := t.repo.GetByID(ctx, questID)
		if err != nil {
			return err
		}
		res.Quest = q

		changed, err := change(q, couple)
		if err != nil || !changed {
			return err
		}

		if s := deriveStatus(q, couple); s.rank() > q.Status.rank() {
			q.Status = s
		}

		if ShouldAward(q) {
			q.LPAwarded = t.awardAmount
			for _, m := range couple.Members() {
				if _, err := t.ledger.Credit(ctx, m.ID, t.awardAmount, ledger.QuestReason(string(q.Type)), q.ID); err != nil {
					return fmt.Errorf("failed to credit %s: %w", m.ID, err)
				}
			}
			res.Awarded = true
		}

		q.UpdatedAt = t.now().UTC()
		if err := t.repo.Update(ctx, q); err != nil {
			return err
		}
		res.Changed = true
		return nil
	})
	if err != nil {
		if errors.Is(err, ErrQuestNotFound) {
			slog.Warn("Completion for unknown quest ignored",
				slog.String("type", "sys"),
				slog.String("quest_id", questID))
		}
		return nil, err
	}

	if res.Awarded {
		slog.Info("Quest completed, love points awarded",
			slog.String("type", "sys"),
			slog.String("quest_id", res.Quest.ID),
			slog.String("quest_type", string(res.Quest.Type)),
			slog.Int64("amount", res.Quest.LPAwarded))
	}
	return res, nil
}

// MarkReported records that the backend acknowledged userID's completion.
func (t *Tracker) MarkReported(ctx context.Context, questID, userID string) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	return t.tx.Atomic(ctx, func(ctx context.Context) error {
		q, err := t.repo.GetByID(ctx, questID)
		if err != nil {
			return err
		}
		if q.ReportedBy[userID] {
			return nil
		}
		if q.ReportedBy == nil {
			q.ReportedBy = map[string]bool{}
		}
		q.ReportedBy[userID] = true
		q.UpdatedAt = t.now().UTC()
		return t.repo.Update(ctx, q)
	})
}

// PendingReports lists the day's quests user completed locally that the
// backend has not acknowledged yet.
func (t *Tracker) PendingReports(ctx context.Context, coupleID, date string, user identity.User) ([]*Quest, error) {
	day, err := t.repo.ListByDay(ctx, coupleID, date)
	if err != nil {
		return nil, err
	}
	var out []*Quest
	for _, q := range day {
		if q.CompletedBy(user) && !q.ReportedFor(user) {
			out = append(out, q)
		}
	}
	return out, nil
}

func (t *Tracker) Quests(ctx context.Context, coupleID, date string) ([]*Quest, error) {
	return t.repo.ListByDay(ctx, coupleID, date)
}
