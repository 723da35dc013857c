package quests

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/lovequest/questsync/internal/domain/content"
	"github.com/lovequest/questsync/internal/domain/txn"
	"github.com/lovequest/questsync/internal/domain/unlocks"
)

var questNamespace = uuid.MustParse("6c1f3c52-8d3e-4f0c-9a57-3f7f5b1e2a90")

// QuestID is the stable id of a couple's quest for one day and slot.
func QuestID(coupleID, date string, slot int) string {
	return uuid.NewSHA1(questNamespace, []byte(coupleID+"|"+date+"|"+strconv.Itoa(slot))).String()
}

// FeatureChecker reports the features a couple had unlocked at an instant.
// Answers must depend only on data both partners' devices share.
type FeatureChecker interface {
	UnlockedAt(ctx context.Context, coupleID string, at time.Time) (map[unlocks.Feature]bool, error)
}

type Generator struct {
	repo     Repository
	tx       txn.Transactor
	source   content.Source
	features FeatureChecker
	location *time.Location
	now      func() time.Time

	group singleflight.Group
}

type GeneratorOption func(*Generator)

func WithGeneratorClock(now func() time.Time) GeneratorOption {
	return func(g *Generator) { g.now = now }
}

func NewGenerator(repo Repository, tx txn.Transactor, source content.Source, features FeatureChecker, location *time.Location, opts ...GeneratorOption) *Generator {
	if location == nil {
		location = time.Local
	}
	g := &Generator{
		repo:     repo,
		tx:       tx,
		source:   source,
		features: features,
		location: location,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Today returns the current calendar day in the generator's location.
func (g *Generator) Today() string {
	return g.now().In(g.location).Format(DateLayout)
}

// EnsureTodayQuests returns the couple's quests for date, generating and
// storing them first when none exist. Generation is all or nothing.
func (g *Generator) EnsureTodayQuests(ctx context.Context, coupleID, date string) ([]*Quest, error) {
	existing, err := g.repo.ListByDay(ctx, coupleID, date)
	if err != nil {
		return nil, fmt.Errorf("failed to list quests: %w", err)
	}
	if len(existing) > 0 {
		return existing, nil
	}

	v, err, shared := g.group.Do(coupleID+"|"+date, func() (any, error) {
		return g.generate(ctx, coupleID, date)
	})
	if err != nil {
		return nil, err
	}
	if shared {
		slog.Debug("Joined in-flight quest generation",
			slog.String("type", "sys"),
			slog.String("couple_id", coupleID),
			slog.String("date", date))
	}
	return v.([]*Quest), nil
}

func (g *Generator) generate(ctx context.Context, coupleID, date string) ([]*Quest, error) {
	start := time.Now()

	day, err := time.ParseInLocation(DateLayout, date, g.location)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid date %q: %w", ErrGenerationFailed, date, err)
	}

	planned, err := g.plan(ctx, coupleID, date, day)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrGenerationFailed, err)
	}

	if err := g.prefetch(ctx, planned, date); err != nil {
		slog.Warn("Quest generation aborted, content unavailable",
			slog.String("type", "sys"),
			slog.String("couple_id", coupleID),
			slog.String("date", date),
			slog.Any("error", err))
		return nil, fmt.Errorf("%w: %w", ErrGenerationFailed, err)
	}

	var out []*Quest
	err = g.tx.Atomic(ctx, func(ctx context.Context) error {
		existing, err := g.repo.ListByDay(ctx, coupleID, date)
		if err != nil {
			return err
		}
		if len(existing) > 0 {
			out = existing
			return nil
		}
		if err := g.repo.InsertDay(ctx, planned); err != nil {
			return err
		}
		out = planned
		return nil
	})
	if errors.Is(err, ErrDayExists) {
		out, err = g.repo.ListByDay(ctx, coupleID, date)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to store quests: %w", err)
	}

	slog.Info("Daily quests ready",
		slog.String("type", "sys"),
		slog.String("couple_id", coupleID),
		slog.String("date", date),
		slog.Int("count", len(out)),
		slog.Duration("took", time.Since(start)))
	return out, nil
}

func (g *Generator) plan(ctx context.Context, coupleID, date string, day time.Time) ([]*Quest, error) {
	now := g.now().UTC()
	expires := day.AddDate(0, 0, 1).UTC()

	newQuest := func(slot, sortOrder int, opt option, side bool) *Quest {
		return &Quest{
			ID:              QuestID(coupleID, date, slot),
			CoupleID:        coupleID,
			Date:            date,
			Slot:            slot,
			Type:            opt.Type,
			FormatType:      opt.Format,
			Status:          StatusNotStarted,
			UserCompletions: map[string]bool{},
			ReportedBy:      map[string]bool{},
			ExpiresAt:       expires,
			SortOrder:       sortOrder,
			IsSideQuest:     side,
			CreatedAt:       now,
			UpdatedAt:       now,
		}
	}

	planned := make([]*Quest, 0, len(mainSlots)+len(sideQuests))
	for slot := range mainSlots {
		planned = append(planned, newQuest(slot, slot, pickMain(coupleID, date, slot), false))
	}

	if g.features == nil {
		return planned, nil
	}
	// side quests follow the unlocks in place when the day began
	unlocked, err := g.features.UnlockedAt(ctx, coupleID, day)
	if err != nil {
		return nil, fmt.Errorf("failed to check unlocks: %w", err)
	}
	for i, sq := range sideQuests {
		if !unlocked[sq.feature] {
			continue
		}
		q := newQuest(sq.slot, sideSortBase+i, sq.option, true)
		if !sq.needsContent {
			q.ContentID = string(sq.option.Type) + ":" + date
		}
		planned = append(planned, q)
	}
	return planned, nil
}

// prefetch resolves content for every planned quest that still lacks it.
func (g *Generator) prefetch(ctx context.Context, planned []*Quest, date string) error {
	eg, ctx := errgroup.WithContext(ctx)
	for _, q := range planned {
		if q.ContentID != "" {
			continue
		}
		eg.Go(func() error {
			item, err := g.source.Fetch(ctx, content.Request{
				Type:   string(q.Type),
				Format: q.FormatType,
				Date:   date,
			})
			if err != nil {
				return fmt.Errorf("fetch %s/%s: %w", q.Type, q.FormatType, err)
			}
			q.ContentID = item.ID
			return nil
		})
	}
	return eg.Wait()
}
