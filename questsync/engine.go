// Package questsync is the entry point the presentation layer talks to. It
// wires the quest, ledger and unlock domains to a local store and the
// couples backend, and owns the background partner sync.
package questsync

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/lovequest/questsync/internal/domain/content"
	"github.com/lovequest/questsync/internal/domain/identity"
	"github.com/lovequest/questsync/internal/domain/ledger"
	"github.com/lovequest/questsync/internal/domain/partnersync"
	"github.com/lovequest/questsync/internal/domain/quests"
	"github.com/lovequest/questsync/internal/domain/txn"
	"github.com/lovequest/questsync/internal/domain/unlocks"
)

const syncTimeout = 15 * time.Second

var (
	ErrNotPaired     = errors.New("questsync: no partner paired")
	ErrFeatureLocked = errors.New("questsync: feature is locked")
)

// Store is the local state store.
type Store interface {
	txn.Transactor
	Quests() quests.Repository
	Ledger() ledger.Repository
	Identity() identity.Repository
	Unlocks() unlocks.Repository
	Close() error
}

// Backend is everything the engine needs from the couples backend.
type Backend interface {
	partnersync.Backend
	ledger.Remote
	identity.Remote
	content.Source
}

// QuestsChangedFunc is called with the affected day whenever quest state
// changed outside a direct call, for example after a partner sync.
type QuestsChangedFunc func(ctx context.Context, date string)

type Engine struct {
	cfg     Config
	store   Store
	backend Backend
	now     func() time.Time

	identity  *identity.Service
	ledger    *ledger.Service
	gate      *unlocks.Gate
	content   *content.CachedSource
	generator *quests.Generator
	tracker   *quests.Tracker
	poller    *partnersync.Poller
	rollover  *Rollover

	runCtx    context.Context
	runCancel context.CancelFunc

	mu        sync.Mutex
	retryDate string
	listeners []QuestsChangedFunc
}

type EngineOption func(*Engine)

// WithClock replaces the wall clock in every component.
func WithClock(now func() time.Time) EngineOption {
	return func(e *Engine) { e.now = now }
}

func NewEngine(cfg Config, store Store, backend Backend, opts ...EngineOption) (*Engine, error) {
	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}

	e := &Engine{
		cfg:     cfg,
		store:   store,
		backend: backend,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	e.runCtx, e.runCancel = context.WithCancel(context.Background())

	e.identity = identity.NewService(store.Identity(), backend)
	e.ledger = ledger.NewService(store.Ledger(), store, backend,
		ledger.WithProvisionalTTL(cfg.Ledger.ProvisionalTTL.Duration),
		ledger.WithClock(e.now))
	e.gate = unlocks.NewGate(store.Unlocks(), e.ledger, store.Quests(), unlocks.DefaultRules)
	e.content = content.NewCachedSource(backend, cfg.Content.CacheSize, cfg.Content.CacheTTL.Duration)
	shared := unlocks.NewSharedProgress(e.ledger, e.identity, unlocks.DefaultRules)
	e.generator = quests.NewGenerator(store.Quests(), store, e.content, shared, loc,
		quests.WithGeneratorClock(e.now))
	e.tracker = quests.NewTracker(store.Quests(), store, e.ledger, e.identity,
		quests.WithAwardAmount(cfg.Quests.AwardAmount),
		quests.WithTrackerClock(e.now))
	e.poller = partnersync.NewPoller(backend, e.tracker, e.ledger, e.identity, e.generator.Today,
		partnersync.Config{
			Interval:    cfg.Sync.PollInterval.Duration,
			TickTimeout: cfg.Sync.TickTimeout.Duration,
		},
		partnersync.WithTickObserver(func(ctx context.Context, _ partnersync.TickReport) {
			e.notifyQuests(ctx, e.generator.Today())
		}))

	if !cfg.Rollover.Disabled {
		e.rollover, err = NewRollover(loc, cfg.Rollover.Schedule, e.rolloverDay)
		if err != nil {
			return nil, err
		}
	}

	e.ledger.OnChange(e.onLedgerChange)
	return e, nil
}

// SignIn stores the signed-in user on this device.
func (e *Engine) SignIn(ctx context.Context, user identity.User) (*identity.Couple, error) {
	if user.ID == "" {
		return nil, errors.New("questsync: user id is required")
	}
	return e.identity.Bootstrap(ctx, user)
}

func (e *Engine) Couple(ctx context.Context) (*identity.Couple, error) {
	return e.identity.Current(ctx)
}

// Foreground refreshes pairing, pulls the ledger, makes sure today's quests
// exist and starts partner sync. Only a missing identity is an error;
// everything else degrades and is retried on the next foreground.
func (e *Engine) Foreground(ctx context.Context) error {
	couple, err := e.identity.Refresh(ctx)
	if couple == nil {
		return err
	}

	e.SyncLedger(ctx)
	if _, err := e.gate.Refresh(ctx, couple.Key(), couple.User.ID); err != nil {
		slog.Warn("Unlock refresh failed",
			slog.String("type", "sys"),
			slog.Any("error", err))
	}
	e.ensureToday(ctx, couple)

	if err := e.poller.Start(e.runCtx); err != nil {
		return fmt.Errorf("failed to start partner sync: %w", err)
	}
	if e.rollover != nil {
		e.rollover.Start(e.runCtx)
	}
	return nil
}

// Background stops partner sync and the day rollover.
func (e *Engine) Background() {
	e.poller.Stop()
	if e.rollover != nil {
		e.rollover.Stop()
	}
}

func (e *Engine) Syncing() bool {
	return e.poller.Running()
}

// SyncNow runs one partner sync cycle immediately.
func (e *Engine) SyncNow(ctx context.Context) (partnersync.TickReport, error) {
	report, err := e.poller.Tick(ctx)
	if err == nil && report.Mutated() {
		e.notifyQuests(ctx, e.generator.Today())
	}
	return report, err
}

// SyncLedger reconciles every couple member's ledger with the backend.
// Failures are logged; the next sync retries.
func (e *Engine) SyncLedger(ctx context.Context) {
	couple, err := e.identity.Current(ctx)
	if err != nil {
		return
	}

	ctx, cancel := context.WithTimeout(ctx, syncTimeout)
	defer cancel()
	for _, m := range couple.Members() {
		if err := e.ledger.SyncFromServer(ctx, m.ID); err != nil {
			slog.Warn("Ledger sync failed",
				slog.String("type", "sync"),
				slog.String("user_id", m.ID),
				slog.Any("error", err))
		}
	}
}

func (e *Engine) ensureToday(ctx context.Context, couple *identity.Couple) []*quests.Quest {
	date := e.generator.Today()
	day, err := e.generator.EnsureTodayQuests(ctx, couple.Key(), date)

	e.mu.Lock()
	defer e.mu.Unlock()
	if err != nil {
		e.retryDate = date
		slog.Warn("Today's quests unavailable, will retry",
			slog.String("type", "sys"),
			slog.String("date", date),
			slog.Any("error", err))
		return nil
	}
	if e.retryDate == date {
		e.retryDate = ""
	}
	return day
}

func (e *Engine) rolloverDay(ctx context.Context) {
	couple, err := e.identity.Current(ctx)
	if err != nil {
		return
	}
	e.SyncLedger(ctx)
	if e.ensureToday(ctx, couple) != nil {
		e.notifyQuests(ctx, e.generator.Today())
	}
}

// QuestView is a quest as the presentation layer renders it.
type QuestView struct {
	*quests.Quest
	// YourTurn is true while the local user can still act. Without a
	// partner it stays true, since the quest cannot complete.
	YourTurn         bool
	WaitingOnPartner bool
	IsExpired        bool
}

type Today struct {
	Date   string
	Quests []QuestView
	// Retry is set when generation failed; the next Foreground tries again.
	Retry bool
}

func (e *Engine) TodayQuests(ctx context.Context) (*Today, error) {
	couple, err := e.identity.Current(ctx)
	if err != nil {
		return nil, err
	}

	date := e.generator.Today()
	day, err := e.tracker.Quests(ctx, couple.Key(), date)
	if err != nil {
		return nil, fmt.Errorf("failed to list quests: %w", err)
	}

	e.mu.Lock()
	retry := e.retryDate == date
	e.mu.Unlock()

	out := &Today{Date: date, Quests: make([]QuestView, 0, len(day)), Retry: retry && len(day) == 0}
	now := e.now()
	for _, q := range day {
		out.Quests = append(out.Quests, viewOf(q, couple, now))
	}
	return out, nil
}

func viewOf(q *quests.Quest, couple *identity.Couple, now time.Time) QuestView {
	v := QuestView{Quest: q, IsExpired: q.Expired(now)}
	if q.Status == quests.StatusCompleted || v.IsExpired {
		return v
	}
	done := q.CompletedBy(couple.User)
	switch {
	case !couple.Paired():
		v.YourTurn = true
	case done:
		v.WaitingOnPartner = true
	default:
		v.YourTurn = true
	}
	return v
}

type Outcome int

const (
	// OutcomeRecorded means the completion was stored; the partner is still due.
	OutcomeRecorded Outcome = iota
	OutcomeAwarded
	// OutcomeUnchanged is a repeated completion.
	OutcomeUnchanged
	OutcomeExpired
	OutcomeNotFound
	// OutcomeFailed means the completion could not be stored; the user may retry.
	OutcomeFailed
)

func (o Outcome) String() string {
	switch o {
	case OutcomeRecorded:
		return "recorded"
	case OutcomeAwarded:
		return "awarded"
	case OutcomeUnchanged:
		return "unchanged"
	case OutcomeExpired:
		return "expired"
	case OutcomeNotFound:
		return "not_found"
	case OutcomeFailed:
		return "failed"
	default:
		return fmt.Sprintf("outcome(%d)", int(o))
	}
}

// RecordCompletion marks questID done for the signed-in user and reports it
// to the backend. A failed report is retried by partner sync. The only error
// returned is ErrNoIdentity; every other failure is an Outcome.
func (e *Engine) RecordCompletion(ctx context.Context, questID string) (Outcome, error) {
	couple, err := e.identity.Current(ctx)
	if errors.Is(err, identity.ErrNoIdentity) {
		return OutcomeFailed, err
	}
	if err != nil {
		slog.Error("Failed to load identity for completion",
			slog.String("type", "error"),
			slog.String("quest_id", questID),
			slog.Any("error", err))
		return OutcomeFailed, nil
	}

	res, err := e.tracker.RecordCompletion(ctx, questID, couple.User.ID)
	switch {
	case errors.Is(err, quests.ErrQuestExpired):
		return OutcomeExpired, nil
	case errors.Is(err, quests.ErrQuestNotFound), errors.Is(err, quests.ErrNotMember):
		return OutcomeNotFound, nil
	case err != nil:
		slog.Error("Failed to record completion",
			slog.String("type", "error"),
			slog.String("quest_id", questID),
			slog.String("user_id", couple.User.ID),
			slog.Any("error", err))
		return OutcomeFailed, nil
	}
	if !res.Changed {
		return OutcomeUnchanged, nil
	}

	if couple.Paired() {
		e.report(ctx, couple, res.Quest)
	}
	if res.Awarded {
		e.SyncLedger(ctx)
		e.notifyQuests(ctx, res.Quest.Date)
		return OutcomeAwarded, nil
	}
	e.notifyQuests(ctx, res.Quest.Date)
	return OutcomeRecorded, nil
}

func (e *Engine) report(ctx context.Context, couple *identity.Couple, q *quests.Quest) {
	ctx, cancel := context.WithTimeout(ctx, syncTimeout)
	defer cancel()

	err := e.backend.ReportCompletion(ctx, couple.Key(), partnersync.CompletionReport{
		Date:       q.Date,
		QuestType:  string(q.Type),
		FormatType: q.FormatType,
		UserID:     couple.User.ID,
	})
	if err != nil {
		slog.Warn("Completion report failed, partner sync will retry",
			slog.String("type", "sync"),
			slog.String("quest_id", q.ID),
			slog.Any("error", err))
		return
	}
	if err := e.tracker.MarkReported(ctx, q.ID, couple.User.ID); err != nil {
		slog.Warn("Failed to mark completion reported",
			slog.String("type", "sync"),
			slog.String("quest_id", q.ID),
			slog.Any("error", err))
	}
}

func (e *Engine) Unlocks(ctx context.Context) ([]unlocks.Unlock, error) {
	couple, err := e.identity.Current(ctx)
	if err != nil {
		return nil, err
	}
	return e.gate.Refresh(ctx, couple.Key(), couple.User.ID)
}

func (e *Engine) Balance(ctx context.Context) (int64, error) {
	couple, err := e.identity.Current(ctx)
	if err != nil {
		return 0, err
	}
	return e.ledger.Balance(ctx, couple.User.ID)
}

func (e *Engine) History(ctx context.Context) ([]*ledger.Transaction, error) {
	couple, err := e.identity.Current(ctx)
	if err != nil {
		return nil, err
	}
	return e.ledger.History(ctx, couple.User.ID, e.cfg.Ledger.HistoryLimit)
}

func (e *Engine) Tier(ctx context.Context) (unlocks.TierInfo, error) {
	lp, err := e.Balance(ctx)
	if err != nil {
		return unlocks.TierInfo{}, err
	}
	return unlocks.Tier(lp), nil
}

// CreditPoke awards the mutual poke bonus to both partners. Pokes are not
// deduplicated.
func (e *Engine) CreditPoke(ctx context.Context) error {
	couple, err := e.identity.Current(ctx)
	if err != nil {
		return err
	}
	if !couple.Paired() {
		return ErrNotPaired
	}
	ok, err := e.gate.IsUnlocked(ctx, couple.Key(), unlocks.FeaturePoke)
	if err != nil {
		return fmt.Errorf("failed to check poke unlock: %w", err)
	}
	if !ok {
		return ErrFeatureLocked
	}

	err = e.store.Atomic(ctx, func(ctx context.Context) error {
		for _, m := range couple.Members() {
			if _, err := e.ledger.Credit(ctx, m.ID, e.cfg.Ledger.PokeAmount, ledger.ReasonPokeMutual, ""); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to credit poke: %w", err)
	}

	e.SyncLedger(ctx)
	return nil
}

func (e *Engine) OnQuestsChanged(fn QuestsChangedFunc) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.listeners = append(e.listeners, fn)
}

func (e *Engine) notifyQuests(ctx context.Context, date string) {
	e.mu.Lock()
	listeners := append([]QuestsChangedFunc(nil), e.listeners...)
	e.mu.Unlock()

	for _, fn := range listeners {
		fn(ctx, date)
	}
}

// onLedgerChange keeps unlocks current for the local user.
func (e *Engine) onLedgerChange(ctx context.Context, userID string) {
	couple, err := e.identity.Current(ctx)
	if err != nil || !couple.User.Matches(userID) {
		return
	}
	if _, err := e.gate.Refresh(ctx, couple.Key(), couple.User.ID); err != nil {
		slog.Warn("Unlock refresh after ledger change failed",
			slog.String("type", "sys"),
			slog.Any("error", err))
	}
}

// Close stops background work and closes the store.
func (e *Engine) Close() error {
	e.Background()
	e.runCancel()
	return e.store.Close()
}
