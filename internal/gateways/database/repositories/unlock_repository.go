package repositories

import (
	"context"
	"time"

	"github.com/uptrace/bun"

	"github.com/lovequest/questsync/internal/domain/unlocks"
	"github.com/lovequest/questsync/internal/gateways/database/models"
)

type unlockRepository struct {
	BaseRepository
}

var _ unlocks.Repository = &unlockRepository{}

func NewUnlockRepository(db *bun.DB) *unlockRepository {
	return &unlockRepository{BaseRepository: NewBaseRepository(db)}
}

func (r *unlockRepository) List(ctx context.Context, coupleID string) (map[unlocks.Feature]time.Time, error) {
	ctx, cancel := r.WithTimeout(ctx)
	defer cancel()

	var rows []*models.UnlockState
	err := r.Conn(ctx).NewSelect().
		Model(&rows).
		Where("us.couple_id = ?", coupleID).
		Scan(ctx)
	if err != nil {
		return nil, r.HandleError("list", "unlock_state", err)
	}

	out := make(map[unlocks.Feature]time.Time, len(rows))
	for _, row := range rows {
		out[unlocks.Feature(row.Feature)] = row.UnlockedAt
	}
	return out, nil
}

func (r *unlockRepository) Insert(ctx context.Context, coupleID string, feature unlocks.Feature, at time.Time) error {
	ctx, cancel := r.WithTimeout(ctx)
	defer cancel()

	_, err := r.Conn(ctx).NewInsert().
		Model(&models.UnlockState{
			CoupleID:   coupleID,
			Feature:    string(feature),
			UnlockedAt: at,
		}).
		On("CONFLICT DO NOTHING").
		Exec(ctx)
	return r.HandleError("insert", "unlock_state", err)
}
