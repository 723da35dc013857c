package repositories

import (
	"context"

	"github.com/uptrace/bun"

	"github.com/lovequest/questsync/internal/domain/quests"
	"github.com/lovequest/questsync/internal/gateways/database/models"
)

type questRepository struct {
	BaseRepository
}

var _ quests.Repository = &questRepository{}

func NewQuestRepository(db *bun.DB) *questRepository {
	return &questRepository{BaseRepository: NewBaseRepository(db)}
}

func (r *questRepository) GetByID(ctx context.Context, id string) (*quests.Quest, error) {
	ctx, cancel := r.WithTimeout(ctx)
	defer cancel()

	row := new(models.Quest)
	err := r.Conn(ctx).NewSelect().
		Model(row).
		Where("q.id = ?", id).
		Scan(ctx)
	if err != nil {
		return nil, r.HandleErrorWithID("get", "quest", id, quests.ErrQuestNotFound, err)
	}
	return toQuest(row), nil
}

func (r *questRepository) ListByDay(ctx context.Context, coupleID, date string) ([]*quests.Quest, error) {
	ctx, cancel := r.WithTimeout(ctx)
	defer cancel()

	var rows []*models.Quest
	err := r.Conn(ctx).NewSelect().
		Model(&rows).
		Where("q.couple_id = ?", coupleID).
		Where("q.date = ?", date).
		Order("q.sort_order ASC", "q.slot ASC").
		Scan(ctx)
	if err != nil {
		return nil, r.HandleError("list", "quest", err)
	}

	out := make([]*quests.Quest, 0, len(rows))
	for _, row := range rows {
		out = append(out, toQuest(row))
	}
	return out, nil
}

// InsertDay writes every quest or none. A conflict on any unique key means
// another writer stored the day first.
func (r *questRepository) InsertDay(ctx context.Context, day []*quests.Quest) error {
	if len(day) == 0 {
		return nil
	}
	ctx, cancel := r.WithTimeout(ctx)
	defer cancel()

	rows := make([]*models.Quest, 0, len(day))
	for _, q := range day {
		rows = append(rows, fromQuest(q))
	}

	res, err := r.Conn(ctx).NewInsert().
		Model(&rows).
		On("CONFLICT DO NOTHING").
		Exec(ctx)
	if err != nil {
		return r.HandleError("insert_day", "quest", err)
	}
	if n, err := res.RowsAffected(); err == nil && n < int64(len(rows)) {
		return &ConflictError{Entity: "quest", Field: "couple_id/date", Value: day[0].CoupleID + "/" + day[0].Date, Err: quests.ErrDayExists}
	}
	return nil
}

func (r *questRepository) Update(ctx context.Context, q *quests.Quest) error {
	ctx, cancel := r.WithTimeout(ctx)
	defer cancel()

	res, err := r.Conn(ctx).NewUpdate().
		Model(fromQuest(q)).
		WherePK().
		Exec(ctx)
	if err != nil {
		return r.HandleError("update", "quest", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return &NotFoundError{Entity: "quest", ID: q.ID, Err: quests.ErrQuestNotFound}
	}
	return nil
}

func (r *questRepository) CountCompleted(ctx context.Context, coupleID string) (int, error) {
	ctx, cancel := r.WithTimeout(ctx)
	defer cancel()

	n, err := r.Conn(ctx).NewSelect().
		Model((*models.Quest)(nil)).
		Where("q.couple_id = ?", coupleID).
		Where("q.status = ?", string(quests.StatusCompleted)).
		Count(ctx)
	return n, r.HandleError("count", "quest", err)
}

func toQuest(row *models.Quest) *quests.Quest {
	q := &quests.Quest{
		ID:              row.ID,
		CoupleID:        row.CoupleID,
		Date:            row.Date,
		Slot:            row.Slot,
		Type:            quests.Type(row.Type),
		ContentID:       row.ContentID,
		FormatType:      row.FormatType,
		Status:          quests.Status(row.Status),
		UserCompletions: row.UserCompletions,
		LPAwarded:       row.LPAwarded,
		ExpiresAt:       row.ExpiresAt,
		SortOrder:       row.SortOrder,
		IsSideQuest:     row.IsSideQuest,
		ReportedBy:      row.ReportedBy,
		CreatedAt:       row.CreatedAt,
		UpdatedAt:       row.UpdatedAt,
	}
	if q.UserCompletions == nil {
		q.UserCompletions = map[string]bool{}
	}
	if q.ReportedBy == nil {
		q.ReportedBy = map[string]bool{}
	}
	return q
}

func fromQuest(q *quests.Quest) *models.Quest {
	return &models.Quest{
		ID:              q.ID,
		CoupleID:        q.CoupleID,
		Date:            q.Date,
		Slot:            q.Slot,
		Type:            string(q.Type),
		ContentID:       q.ContentID,
		FormatType:      q.FormatType,
		Status:          string(q.Status),
		UserCompletions: q.UserCompletions,
		LPAwarded:       q.LPAwarded,
		ExpiresAt:       q.ExpiresAt,
		SortOrder:       q.SortOrder,
		IsSideQuest:     q.IsSideQuest,
		ReportedBy:      q.ReportedBy,
		CreatedAt:       q.CreatedAt,
		UpdatedAt:       q.UpdatedAt,
	}
}
