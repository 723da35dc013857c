package partnersync

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/go-co-op/gocron/v2"

	"github.com/lovequest/questsync/internal/domain/identity"
	"github.com/lovequest/questsync/internal/domain/quests"
)

const (
	DefaultInterval    = 10 * time.Second
	MinInterval        = time.Second
	MaxInterval        = 5 * time.Minute
	DefaultTickTimeout = 8 * time.Second
)

type Config struct {
	Interval    time.Duration
	TickTimeout time.Duration
}

// Poller periodically pulls partner progress from the backend and pushes the
// local user's unacknowledged completions.
type Poller struct {
	backend Backend
	tracker Tracker
	ledger  Ledger
	couples Couples
	today   func() string
	cfg     Config
	onTick  func(ctx context.Context, report TickReport)

	mu        sync.Mutex
	scheduler gocron.Scheduler
	cancel    context.CancelFunc
}

type Option func(*Poller)

// WithTickObserver registers fn to run after every tick that mutated local state.
func WithTickObserver(fn func(ctx context.Context, report TickReport)) Option {
	return func(p *Poller) { p.onTick = fn }
}

func NewPoller(backend Backend, tracker Tracker, ledger Ledger, couples Couples, today func() string, cfg Config, opts ...Option) *Poller {
	if cfg.Interval <= 0 {
		cfg.Interval = DefaultInterval
	}
	if cfg.TickTimeout <= 0 || cfg.TickTimeout > cfg.Interval {
		cfg.TickTimeout = min(DefaultTickTimeout, cfg.Interval)
	}
	p := &Poller{
		backend: backend,
		tracker: tracker,
		ledger:  ledger,
		couples: couples,
		today:   today,
		cfg:     cfg,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Start schedules ticks until Stop is called or ctx ends. Starting a running
// poller replaces its scheduler.
func (p *Poller) Start(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.scheduler != nil {
		p.stopLocked()
	}

	s, err := gocron.NewScheduler()
	if err != nil {
		return fmt.Errorf("failed to create scheduler: %w", err)
	}

	runCtx, cancel := context.WithCancel(ctx)
	_, err = s.NewJob(
		gocron.DurationJob(p.cfg.Interval),
		gocron.NewTask(func() { p.run(runCtx) }),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
		gocron.WithStartAt(gocron.WithStartImmediately()),
	)
	if err != nil {
		cancel()
		_ = s.Shutdown()
		return fmt.Errorf("failed to schedule poll job: %w", err)
	}

	s.Start()
	p.scheduler = s
	p.cancel = cancel

	slog.Info("Partner sync started",
		slog.String("type", "sync"),
		slog.Duration("interval", p.cfg.Interval))
	return nil
}

func (p *Poller) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.scheduler != nil {
		p.stopLocked()
		slog.Info("Partner sync stopped", slog.String("type", "sync"))
	}
}

func (p *Poller) stopLocked() {
	p.cancel()
	if err := p.scheduler.Shutdown(); err != nil {
		slog.Warn("Scheduler shutdown failed",
			slog.String("type", "sync"),
			slog.Any("error", err))
	}
	p.scheduler = nil
	p.cancel = nil
}

func (p *Poller) Running() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.scheduler != nil
}

func (p *Poller) run(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}
	report, err := p.Tick(ctx)
	if err != nil {
		if !errors.Is(err, context.Canceled) {
			slog.Warn("Partner sync tick failed",
				slog.String("type", "sync"),
				slog.Any("error", err))
		}
		return
	}
	if report.Mutated() && p.onTick != nil {
		p.onTick(ctx, report)
	}
}

// Tick runs one poll cycle. It is safe to call directly, for example on foreground.
func (p *Poller) Tick(ctx context.Context) (TickReport, error) {
	ctx, cancel := context.WithTimeout(ctx, p.cfg.TickTimeout)
	defer cancel()

	var report TickReport
	couple, err := p.couples.Current(ctx)
	if err != nil {
		return report, fmt.Errorf("failed to load couple: %w", err)
	}
	coupleID := couple.Key()
	date := p.today()

	// the backend only knows paired couples; solo completions stay pending
	if !couple.Paired() {
		return report, nil
	}

	report.Pushed = p.pushReports(ctx, couple, date)

	records, err := p.backend.QuestStatus(ctx, coupleID, date, couple.User.ID)
	if err != nil {
		return report, fmt.Errorf("failed to fetch quest status: %w", err)
	}

	local, err := p.tracker.Quests(ctx, coupleID, date)
	if err != nil {
		return report, fmt.Errorf("failed to list local quests: %w", err)
	}

	partner := *couple.Partner
	for _, rec := range records {
		if !rec.PartnerCompleted {
			continue
		}
		q := quests.Match(local, rec.QuestType, rec.FormatType)
		if q == nil {
			slog.Debug("No local quest for status record",
				slog.String("type", "sync"),
				slog.String("quest_type", rec.QuestType),
				slog.String("format_type", rec.FormatType))
			continue
		}
		if q.CompletedBy(partner) {
			continue
		}

		res, err := p.tracker.ApplyPartnerCompletion(ctx, q.ID, partner.ID, rec.Status)
		if err != nil {
			slog.Warn("Failed to apply partner completion",
				slog.String("type", "sync"),
				slog.String("quest_id", q.ID),
				slog.Any("error", err))
			continue
		}
		if res.Changed {
			report.Applied++
		}
		if res.Awarded {
			report.Awarded++
		}
	}

	if report.Mutated() {
		for _, m := range couple.Members() {
			if err := p.ledger.SyncFromServer(ctx, m.ID); err != nil {
				slog.Warn("Ledger sync after partner update failed",
					slog.String("type", "sync"),
					slog.String("user_id", m.ID),
					slog.Any("error", err))
			}
		}
	}

	slog.Debug("Partner sync tick",
		slog.String("type", "sync"),
		slog.String("couple_id", coupleID),
		slog.Int("pushed", report.Pushed),
		slog.Int("applied", report.Applied),
		slog.Int("awarded", report.Awarded))
	return report, nil
}

// pushReports sends completions the backend has not acknowledged. Failures
// stay pending for the next tick.
func (p *Poller) pushReports(ctx context.Context, couple *identity.Couple, date string) int {
	pending, err := p.tracker.PendingReports(ctx, couple.Key(), date, couple.User)
	if err != nil {
		slog.Warn("Failed to list pending completion reports",
			slog.String("type", "sync"),
			slog.Any("error", err))
		return 0
	}

	pushed := 0
	for _, q := range pending {
		err := p.backend.ReportCompletion(ctx, couple.Key(), CompletionReport{
			Date:       q.Date,
			QuestType:  string(q.Type),
			FormatType: q.FormatType,
			UserID:     couple.User.ID,
		})
		if err != nil {
			slog.Warn("Completion report failed, will retry",
				slog.String("type", "sync"),
				slog.String("quest_id", q.ID),
				slog.Any("error", err))
			continue
		}
		if err := p.tracker.MarkReported(ctx, q.ID, couple.User.ID); err != nil {
			slog.Warn("Failed to mark completion reported",
				slog.String("type", "sync"),
				slog.String("quest_id", q.ID),
				slog.Any("error", err))
			continue
		}
		pushed++
	}
	return pushed
}
