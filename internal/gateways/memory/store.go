// Package memory is an in-process implementation of the local state store.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/lovequest/questsync/internal/domain/identity"
	"github.com/lovequest/questsync/internal/domain/ledger"
	"github.com/lovequest/questsync/internal/domain/quests"
	"github.com/lovequest/questsync/internal/domain/txn"
	"github.com/lovequest/questsync/internal/domain/unlocks"
)

type state struct {
	quests  map[string]*quests.Quest
	txns    map[string]*ledger.Transaction
	seq     map[string]int
	next    int
	couple  *identity.Couple
	unlocks map[string]map[unlocks.Feature]time.Time
}

func (s *state) clone() *state {
	c := &state{
		quests:  make(map[string]*quests.Quest, len(s.quests)),
		txns:    make(map[string]*ledger.Transaction, len(s.txns)),
		seq:     make(map[string]int, len(s.seq)),
		next:    s.next,
		unlocks: make(map[string]map[unlocks.Feature]time.Time, len(s.unlocks)),
	}
	for k, q := range s.quests {
		c.quests[k] = q.Clone()
	}
	for k, t := range s.txns {
		t := *t
		c.txns[k] = &t
	}
	for k, v := range s.seq {
		c.seq[k] = v
	}
	if s.couple != nil {
		c.couple = cloneCouple(s.couple)
	}
	for k, m := range s.unlocks {
		cm := make(map[unlocks.Feature]time.Time, len(m))
		for f, at := range m {
			cm[f] = at
		}
		c.unlocks[k] = cm
	}
	return c
}

// Store keeps all state behind one mutex. Atomic holds the mutex for the whole
// callback and restores a snapshot when the callback fails.
type Store struct {
	mu sync.Mutex
	st *state
}

var _ txn.Transactor = (*Store)(nil)

func New() *Store {
	return &Store{st: &state{
		quests:  map[string]*quests.Quest{},
		txns:    map[string]*ledger.Transaction{},
		seq:     map[string]int{},
		unlocks: map[string]map[unlocks.Feature]time.Time{},
	}}
}

func (s *Store) Atomic(ctx context.Context, fn func(ctx context.Context) error) error {
	if s.owns(ctx) {
		return fn(ctx)
	}

	s.mu.Lock()
	snapshot := s.st.clone()
	txCtx, hooks := txn.WithTx(ctx, s)
	err := fn(txCtx)
	if err != nil {
		s.st = snapshot
	}
	s.mu.Unlock()

	if err != nil {
		return err
	}
	hooks.Run(ctx)
	return nil
}

func (s *Store) owns(ctx context.Context) bool {
	tx, ok := txn.From(ctx).(*Store)
	return ok && tx == s
}

// lock acquires the store mutex unless ctx already runs inside Atomic.
func (s *Store) lock(ctx context.Context) func() {
	if s.owns(ctx) {
		return func() {}
	}
	s.mu.Lock()
	return s.mu.Unlock
}

func (s *Store) Quests() quests.Repository     { return questRepo{s} }
func (s *Store) Ledger() ledger.Repository     { return ledgerRepo{s} }
func (s *Store) Identity() identity.Repository { return identityRepo{s} }
func (s *Store) Unlocks() unlocks.Repository   { return unlockRepo{s} }
func (s *Store) Close() error                  { return nil }

type questRepo struct{ s *Store }

func (r questRepo) GetByID(ctx context.Context, id string) (*quests.Quest, error) {
	defer r.s.lock(ctx)()
	q, ok := r.s.st.quests[id]
	if !ok {
		return nil, quests.ErrQuestNotFound
	}
	return q.Clone(), nil
}

func (r questRepo) ListByDay(ctx context.Context, coupleID, date string) ([]*quests.Quest, error) {
	defer r.s.lock(ctx)()
	var out []*quests.Quest
	for _, q := range r.s.st.quests {
		if q.CoupleID == coupleID && q.Date == date {
			out = append(out, q.Clone())
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].SortOrder != out[j].SortOrder {
			return out[i].SortOrder < out[j].SortOrder
		}
		return out[i].Slot < out[j].Slot
	})
	return out, nil
}

func (r questRepo) InsertDay(ctx context.Context, day []*quests.Quest) error {
	defer r.s.lock(ctx)()
	for _, q := range day {
		if _, ok := r.s.st.quests[q.ID]; ok {
			return quests.ErrDayExists
		}
		for _, existing := range r.s.st.quests {
			if existing.CoupleID == q.CoupleID && existing.Date == q.Date {
				return quests.ErrDayExists
			}
		}
	}
	for _, q := range day {
		r.s.st.quests[q.ID] = q.Clone()
	}
	return nil
}

func (r questRepo) Update(ctx context.Context, q *quests.Quest) error {
	defer r.s.lock(ctx)()
	if _, ok := r.s.st.quests[q.ID]; !ok {
		return quests.ErrQuestNotFound
	}
	r.s.st.quests[q.ID] = q.Clone()
	return nil
}

func (r questRepo) CountCompleted(ctx context.Context, coupleID string) (int, error) {
	defer r.s.lock(ctx)()
	n := 0
	for _, q := range r.s.st.quests {
		if q.CoupleID == coupleID && q.Status == quests.StatusCompleted {
			n++
		}
	}
	return n, nil
}

type ledgerRepo struct{ s *Store }

func (r ledgerRepo) Append(ctx context.Context, t *ledger.Transaction) error {
	defer r.s.lock(ctx)()
	r.put(t)
	return nil
}

func (r ledgerRepo) put(t *ledger.Transaction) {
	c := *t
	if _, ok := r.s.st.seq[c.ID]; !ok {
		r.s.st.next++
		r.s.st.seq[c.ID] = r.s.st.next
	}
	r.s.st.txns[c.ID] = &c
}

func (r ledgerRepo) ListByUser(ctx context.Context, userID string) ([]*ledger.Transaction, error) {
	defer r.s.lock(ctx)()
	var out []*ledger.Transaction
	for _, t := range r.s.st.txns {
		if t.UserID == userID {
			c := *t
			out = append(out, &c)
		}
	}
	seq := r.s.st.seq
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Timestamp.Equal(out[j].Timestamp) {
			return out[i].Timestamp.Before(out[j].Timestamp)
		}
		return seq[out[i].ID] < seq[out[j].ID]
	})
	return out, nil
}

func (r ledgerRepo) Sum(ctx context.Context, userID string) (int64, error) {
	defer r.s.lock(ctx)()
	var sum int64
	for _, t := range r.s.st.txns {
		if t.UserID == userID {
			sum += t.Amount
		}
	}
	return sum, nil
}

func (r ledgerRepo) Upsert(ctx context.Context, txns []*ledger.Transaction) error {
	defer r.s.lock(ctx)()
	for _, t := range txns {
		r.put(t)
	}
	return nil
}

func (r ledgerRepo) Delete(ctx context.Context, ids []string) error {
	defer r.s.lock(ctx)()
	for _, id := range ids {
		delete(r.s.st.txns, id)
		delete(r.s.st.seq, id)
	}
	return nil
}

type identityRepo struct{ s *Store }

func (r identityRepo) Current(ctx context.Context) (*identity.Couple, error) {
	defer r.s.lock(ctx)()
	if r.s.st.couple == nil {
		return nil, nil
	}
	return cloneCouple(r.s.st.couple), nil
}

func (r identityRepo) Save(ctx context.Context, couple *identity.Couple) error {
	defer r.s.lock(ctx)()
	r.s.st.couple = cloneCouple(couple)
	return nil
}

func cloneCouple(c *identity.Couple) *identity.Couple {
	out := *c
	if c.Partner != nil {
		p := *c.Partner
		out.Partner = &p
	}
	return &out
}

type unlockRepo struct{ s *Store }

func (r unlockRepo) List(ctx context.Context, coupleID string) (map[unlocks.Feature]time.Time, error) {
	defer r.s.lock(ctx)()
	out := map[unlocks.Feature]time.Time{}
	for f, at := range r.s.st.unlocks[coupleID] {
		out[f] = at
	}
	return out, nil
}

func (r unlockRepo) Insert(ctx context.Context, coupleID string, feature unlocks.Feature, at time.Time) error {
	defer r.s.lock(ctx)()
	m, ok := r.s.st.unlocks[coupleID]
	if !ok {
		m = map[unlocks.Feature]time.Time{}
		r.s.st.unlocks[coupleID] = m
	}
	if _, exists := m[feature]; !exists {
		m[feature] = at
	}
	return nil
}
