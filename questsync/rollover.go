package questsync

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
)

// Rollover runs a job on a cron schedule in the quest timezone, by default
// at local midnight so the new day's quests exist before the app asks.
type Rollover struct {
	cron *cron.Cron
	id   cron.EntryID
	job  func(ctx context.Context)

	mu      sync.Mutex
	running bool
	ctx     context.Context
	cancel  context.CancelFunc
}

func NewRollover(loc *time.Location, schedule string, job func(ctx context.Context)) (*Rollover, error) {
	if loc == nil {
		loc = time.Local
	}
	r := &Rollover{
		cron: cron.New(
			cron.WithLocation(loc),
			cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)),
		),
		job: job,
		ctx: context.Background(),
	}

	id, err := r.cron.AddFunc(schedule, r.run)
	if err != nil {
		return nil, fmt.Errorf("invalid rollover schedule %q: %w", schedule, err)
	}
	r.id = id
	return r, nil
}

func (r *Rollover) run() {
	r.mu.Lock()
	ctx := r.ctx
	r.mu.Unlock()

	if ctx.Err() != nil {
		return
	}
	slog.Info("Day rollover", slog.String("type", "sys"))
	r.job(ctx)
}

func (r *Rollover) Start(ctx context.Context) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.running {
		return
	}
	r.ctx, r.cancel = context.WithCancel(ctx)
	r.cron.Start()
	r.running = true
}

// Stop waits for a running job to return.
func (r *Rollover) Stop() {
	r.mu.Lock()
	if !r.running {
		r.mu.Unlock()
		return
	}
	r.cancel()
	r.running = false
	r.mu.Unlock()

	<-r.cron.Stop().Done()
}

// Next is the time of the next scheduled run, zero when stopped.
func (r *Rollover) Next() time.Time {
	return r.cron.Entry(r.id).Next
}
