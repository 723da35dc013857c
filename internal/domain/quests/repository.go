package quests

import "context"

type Repository interface {
	// GetByID returns ErrQuestNotFound when no quest has the id.
	GetByID(ctx context.Context, id string) (*Quest, error)
	// ListByDay returns the day's quests ordered by sort order.
	ListByDay(ctx context.Context, coupleID, date string) ([]*Quest, error)
	// InsertDay stores a generated day. It returns ErrDayExists without writing
	// anything when quests already exist for the couple and date.
	InsertDay(ctx context.Context, quests []*Quest) error
	Update(ctx context.Context, quest *Quest) error
	CountCompleted(ctx context.Context, coupleID string) (int, error)
}
