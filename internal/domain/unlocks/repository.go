package unlocks

import (
	"context"
	"time"
)

// Repository stores unlocks. Rows are only ever inserted.
type Repository interface {
	List(ctx context.Context, coupleID string) (map[Feature]time.Time, error)
	// Insert is a no-op when the feature is already unlocked for the couple.
	Insert(ctx context.Context, coupleID string, feature Feature, at time.Time) error
}
