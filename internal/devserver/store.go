package devserver

import (
	"sort"
	"sync"
	"time"

	"github.com/lovequest/questsync/internal/gateways/backend"
)

type couple struct {
	id      string
	members []backend.User
}

func (c *couple) member(key string) *backend.User {
	for i := range c.members {
		m := &c.members[i]
		if key != "" && (m.ID == key || m.LegacyID == key) {
			return m
		}
	}
	return nil
}

type questKey struct {
	coupleID   string
	date       string
	questType  string
	formatType string
}

// state is the in-memory backing of the dev server. All methods expect mu held.
type state struct {
	mu sync.Mutex

	couples map[string]*couple
	byUser  map[string]string
	users   map[string]backend.User

	// completions[questKey][userID]
	completions map[questKey]map[string]time.Time
	order       []questKey

	ledgers map[string][]backend.Transaction
	ids     map[string]bool
	awards  map[string]bool
}

func newState() *state {
	return &state{
		couples:     make(map[string]*couple),
		byUser:      make(map[string]string),
		users:       make(map[string]backend.User),
		completions: make(map[questKey]map[string]time.Time),
		ledgers:     make(map[string][]backend.Transaction),
		ids:         make(map[string]bool),
		awards:      make(map[string]bool),
	}
}

func (s *state) register(u backend.User) {
	if existing, ok := s.users[u.ID]; ok && u.LegacyID == "" {
		u.LegacyID = existing.LegacyID
	}
	s.users[u.ID] = u
}

func (s *state) pair(coupleID string, a, b backend.User) {
	s.register(a)
	s.register(b)
	s.couples[coupleID] = &couple{id: coupleID, members: []backend.User{s.users[a.ID], s.users[b.ID]}}
	s.byUser[a.ID] = coupleID
	s.byUser[b.ID] = coupleID
}

func (s *state) complete(k questKey, userID string, at time.Time) bool {
	users, ok := s.completions[k]
	if !ok {
		users = make(map[string]time.Time)
		s.completions[k] = users
		s.order = append(s.order, k)
	}
	if _, done := users[userID]; done {
		return false
	}
	users[userID] = at
	return true
}

// status reports every quest of the day that has at least one completion,
// from the point of view of viewer.
func (s *state) status(c *couple, date string, viewer *backend.User) []backend.QuestStatusRecord {
	out := make([]backend.QuestStatusRecord, 0)
	for _, k := range s.order {
		if k.coupleID != c.id || k.date != date {
			continue
		}
		users := s.completions[k]

		partnerDone := false
		all := true
		for _, m := range c.members {
			_, done := users[m.ID]
			if !done {
				all = false
			}
			if done && m.ID != viewer.ID {
				partnerDone = true
			}
		}

		status := "in_progress"
		if all {
			status = "completed"
		}
		out = append(out, backend.QuestStatusRecord{
			QuestType:        k.questType,
			FormatType:       k.formatType,
			PartnerCompleted: partnerDone,
			Status:           status,
		})
	}
	return out
}

// push stores txns, skipping known ids and repeated awards of the same
// (user, related id, reason).
func (s *state) push(userID string, txns []backend.Transaction) int {
	accepted := 0
	for _, t := range txns {
		if t.ID == "" || t.Amount <= 0 || s.ids[t.ID] {
			continue
		}
		t.UserID = userID
		if t.RelatedID != "" {
			key := userID + "|" + t.RelatedID + "|" + t.Reason
			if s.awards[key] {
				continue
			}
			s.awards[key] = true
		}
		s.ids[t.ID] = true
		s.ledgers[userID] = append(s.ledgers[userID], t)
		accepted++
	}

	sort.SliceStable(s.ledgers[userID], func(i, j int) bool {
		return s.ledgers[userID][i].Timestamp.Before(s.ledgers[userID][j].Timestamp)
	})
	return accepted
}

func (s *state) ledger(userID string) backend.LedgerResponse {
	txns := append([]backend.Transaction(nil), s.ledgers[userID]...)
	var balance int64
	for _, t := range txns {
		balance += t.Amount
	}
	return backend.LedgerResponse{Balance: balance, Transactions: txns}
}
