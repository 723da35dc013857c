package unlocks

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var printer = message.NewPrinter(language.English)

// Evaluate computes every rule against p. It has no side effects.
func Evaluate(p Progress, rules []Rule) []Unlock {
	out := make([]Unlock, 0, len(rules))
	for _, r := range rules {
		var missing []string
		if lp := r.MinLovePoints - p.LovePoints; lp > 0 {
			missing = append(missing, printer.Sprintf("Earn %d more LP", lp))
		}
		if n := r.MinCompletedQuests - p.CompletedQuests; n > 0 {
			noun := "quests"
			if n == 1 {
				noun = "quest"
			}
			missing = append(missing, printer.Sprintf("Complete %d more %s", n, noun))
		}
		out = append(out, Unlock{
			Feature:   r.Feature,
			Unlocked:  len(missing) == 0,
			Remaining: strings.Join(missing, " and "),
		})
	}
	return out
}

type Balances interface {
	Balance(ctx context.Context, userID string) (int64, error)
}

type Completions interface {
	CountCompleted(ctx context.Context, coupleID string) (int, error)
}

// Gate persists unlocks as thresholds are reached. An unlocked feature never
// locks again, even when the balance drops after a ledger reconcile.
type Gate struct {
	repo        Repository
	balances    Balances
	completions Completions
	rules       []Rule
	now         func() time.Time

	mu sync.Mutex
}

func NewGate(repo Repository, balances Balances, completions Completions, rules []Rule) *Gate {
	if len(rules) == 0 {
		rules = DefaultRules
	}
	return &Gate{
		repo:        repo,
		balances:    balances,
		completions: completions,
		rules:       rules,
		now:         time.Now,
	}
}

func (g *Gate) Rules() []Rule {
	return g.rules
}

// Refresh evaluates the couple's progress and stores newly reached unlocks.
func (g *Gate) Refresh(ctx context.Context, coupleID, userID string) ([]Unlock, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	persisted, err := g.repo.List(ctx, coupleID)
	if err != nil {
		return nil, fmt.Errorf("failed to list unlocks: %w", err)
	}

	lp, err := g.balances.Balance(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to read balance: %w", err)
	}
	completed, err := g.completions.CountCompleted(ctx, coupleID)
	if err != nil {
		return nil, fmt.Errorf("failed to count completed quests: %w", err)
	}

	result := Evaluate(Progress{LovePoints: lp, CompletedQuests: completed}, g.rules)
	for i := range result {
		u := &result[i]
		if at, ok := persisted[u.Feature]; ok {
			u.Unlocked = true
			u.Remaining = ""
			u.UnlockedAt = at
			continue
		}
		if !u.Unlocked {
			continue
		}

		u.UnlockedAt = g.now().UTC()
		if err := g.repo.Insert(ctx, coupleID, u.Feature, u.UnlockedAt); err != nil {
			return nil, fmt.Errorf("failed to store unlock %s: %w", u.Feature, err)
		}
		slog.Info("Feature unlocked",
			slog.String("type", "sys"),
			slog.String("couple_id", coupleID),
			slog.String("feature", string(u.Feature)),
			slog.Int64("love_points", lp),
			slog.Int("completed_quests", completed))
	}
	return result, nil
}

// IsUnlocked reports whether feature has been persisted as unlocked.
func (g *Gate) IsUnlocked(ctx context.Context, coupleID string, feature Feature) (bool, error) {
	persisted, err := g.repo.List(ctx, coupleID)
	if err != nil {
		return false, err
	}
	_, ok := persisted[feature]
	return ok, nil
}
