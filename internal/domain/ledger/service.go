package ledger

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/lovequest/questsync/internal/domain/txn"
)

const DefaultProvisionalTTL = 24 * time.Hour

var (
	ErrInvalidAmount = errors.New("ledger: amount must be positive")
	ErrNoRemote      = errors.New("ledger: no remote configured")
)

// ChangeFunc is notified after a committed change to userID's ledger.
type ChangeFunc func(ctx context.Context, userID string)

// Service is the local read cache of the love point ledger. It never
// deduplicates credits; callers own the single-award guarantee.
type Service struct {
	repo           Repository
	tx             txn.Transactor
	remote         Remote
	provisionalTTL time.Duration
	now            func() time.Time

	mu        sync.RWMutex
	observers []ChangeFunc
}

type Option func(*Service)

func WithProvisionalTTL(ttl time.Duration) Option {
	return func(s *Service) {
		if ttl > 0 {
			s.provisionalTTL = ttl
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func NewService(repo Repository, tx txn.Transactor, remote Remote, opts ...Option) *Service {
	s := &Service{
		repo:           repo,
		tx:             tx,
		remote:         remote,
		provisionalTTL: DefaultProvisionalTTL,
		now:            time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// OnChange registers fn for every committed ledger change.
func (s *Service) OnChange(fn ChangeFunc) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.observers = append(s.observers, fn)
}

func (s *Service) notify(ctx context.Context, userID string) {
	s.mu.RLock()
	observers := append([]ChangeFunc(nil), s.observers...)
	s.mu.RUnlock()

	txn.AfterCommit(ctx, func(ctx context.Context) {
		for _, fn := range observers {
			fn(ctx, userID)
		}
	})
}

// Credit appends a provisional transaction. Inside a transaction the write joins it.
func (s *Service) Credit(ctx context.Context, userID string, amount int64, reason, relatedID string) (*Transaction, error) {
	if amount <= 0 {
		return nil, ErrInvalidAmount
	}

	t := &Transaction{
		ID:        uuid.NewString(),
		UserID:    userID,
		Amount:    amount,
		Reason:    reason,
		RelatedID: relatedID,
		Timestamp: s.now().UTC(),
	}
	if err := s.repo.Append(ctx, t); err != nil {
		return nil, fmt.Errorf("failed to append transaction: %w", err)
	}

	slog.Info("Love points credited",
		slog.String("type", "sys"),
		slog.String("user_id", userID),
		slog.Int64("amount", amount),
		slog.String("reason", reason),
		slog.String("related_id", relatedID))

	s.notify(ctx, userID)
	return t, nil
}

func (s *Service) Balance(ctx context.Context, userID string) (int64, error) {
	return s.repo.Sum(ctx, userID)
}

// History returns up to limit of the newest transactions, newest first.
func (s *Service) History(ctx context.Context, userID string, limit int) ([]*Transaction, error) {
	all, err := s.repo.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	out := make([]*Transaction, 0, len(all))
	for i := len(all) - 1; i >= 0; i-- {
		out = append(out, all[i])
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}

// ConfirmedTotals sums the server-confirmed entries stamped before cutoff and
// counts the distinct quests they awarded. Provisional entries are ignored, so
// every device that synced the same history gets the same totals.
func (s *Service) ConfirmedTotals(ctx context.Context, userID string, before time.Time) (int64, int, error) {
	all, err := s.repo.ListByUser(ctx, userID)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to list ledger: %w", err)
	}

	var lp int64
	seen := make(map[string]bool)
	for _, t := range all {
		if !t.Confirmed || !t.Timestamp.Before(before) {
			continue
		}
		lp += t.Amount
		if strings.HasPrefix(t.Reason, ReasonQuestPrefix) {
			key := t.RelatedID
			if key == "" {
				key = t.ID
			}
			seen[key] = true
		}
	}
	return lp, len(seen), nil
}

// SyncFromServer pushes provisional credits, pulls the authoritative history
// and reconciles the local cache with it.
func (s *Service) SyncFromServer(ctx context.Context, userID string) error {
	if s.remote == nil {
		return ErrNoRemote
	}

	local, err := s.repo.ListByUser(ctx, userID)
	if err != nil {
		return fmt.Errorf("failed to list local ledger: %w", err)
	}

	var provisional []*Transaction
	for _, t := range local {
		if !t.Confirmed {
			provisional = append(provisional, t)
		}
	}
	if len(provisional) > 0 {
		if err := s.remote.PushLedger(ctx, userID, provisional); err != nil {
			slog.Warn("Failed to push provisional credits",
				slog.String("type", "sync"),
				slog.String("user_id", userID),
				slog.Int("count", len(provisional)),
				slog.Any("error", err))
		}
	}

	snap, err := s.remote.FetchLedger(ctx, userID)
	if err != nil {
		return fmt.Errorf("failed to fetch ledger: %w", err)
	}

	var changed bool
	err = s.tx.Atomic(ctx, func(ctx context.Context) error {
		c, err := s.reconcile(ctx, userID, snap)
		changed = c
		return err
	})
	if err != nil {
		return fmt.Errorf("failed to reconcile ledger: %w", err)
	}

	if changed {
		s.notify(ctx, userID)
	}

	balance, err := s.repo.Sum(ctx, userID)
	if err == nil && balance != snap.Balance {
		slog.Debug("Local balance differs from server",
			slog.String("type", "sync"),
			slog.String("user_id", userID),
			slog.Int64("local", balance),
			slog.Int64("server", snap.Balance))
	}
	return nil
}

func (s *Service) reconcile(ctx context.Context, userID string, snap *Snapshot) (bool, error) {
	local, err := s.repo.ListByUser(ctx, userID)
	if err != nil {
		return false, err
	}

	localByID := make(map[string]*Transaction, len(local))
	for _, t := range local {
		localByID[t.ID] = t
	}

	serverIDs := make(map[string]bool, len(snap.Transactions))
	serverKeys := make(map[string]bool, len(snap.Transactions))
	upserts := make([]*Transaction, 0, len(snap.Transactions))
	for _, t := range snap.Transactions {
		if t.UserID != "" && t.UserID != userID {
			continue
		}
		st := *t
		st.UserID = userID
		st.Confirmed = true
		serverIDs[st.ID] = true
		if k := st.dedupeKey(); k != "" {
			serverKeys[k] = true
		}
		if existing, ok := localByID[st.ID]; ok && existing.Confirmed {
			continue
		}
		upserts = append(upserts, &st)
	}

	now := s.now()
	var stale []string
	for _, t := range local {
		if serverIDs[t.ID] {
			continue
		}
		switch {
		case t.Confirmed:
			// the server is the source of truth for confirmed entries
			stale = append(stale, t.ID)
		case t.dedupeKey() != "" && serverKeys[t.dedupeKey()]:
			stale = append(stale, t.ID)
		case now.Sub(t.Timestamp) > s.provisionalTTL:
			stale = append(stale, t.ID)
		}
	}

	if len(upserts) > 0 {
		if err := s.repo.Upsert(ctx, upserts); err != nil {
			return false, err
		}
	}
	if len(stale) > 0 {
		if err := s.repo.Delete(ctx, stale); err != nil {
			return false, err
		}
	}

	if len(upserts) > 0 || len(stale) > 0 {
		slog.Info("Ledger reconciled",
			slog.String("type", "sync"),
			slog.String("user_id", userID),
			slog.Int("confirmed", len(upserts)),
			slog.Int("dropped", len(stale)))
		return true, nil
	}
	return false, nil
}
