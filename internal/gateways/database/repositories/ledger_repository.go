package repositories

import (
	"context"

	"github.com/uptrace/bun"

	"github.com/lovequest/questsync/internal/domain/ledger"
	"github.com/lovequest/questsync/internal/gateways/database/models"
)

type ledgerRepository struct {
	BaseRepository
}

var _ ledger.Repository = &ledgerRepository{}

func NewLedgerRepository(db *bun.DB) *ledgerRepository {
	return &ledgerRepository{BaseRepository: NewBaseRepository(db)}
}

func (r *ledgerRepository) Append(ctx context.Context, t *ledger.Transaction) error {
	ctx, cancel := r.WithTimeout(ctx)
	defer cancel()

	_, err := r.Conn(ctx).NewInsert().
		Model(fromTransaction(t)).
		Exec(ctx)
	return r.HandleError("append", "love_point_transaction", err)
}

func (r *ledgerRepository) ListByUser(ctx context.Context, userID string) ([]*ledger.Transaction, error) {
	ctx, cancel := r.WithTimeout(ctx)
	defer cancel()

	var rows []*models.LovePointTransaction
	err := r.Conn(ctx).NewSelect().
		Model(&rows).
		Where("lpt.user_id = ?", userID).
		Order("lpt.timestamp ASC", "lpt.id ASC").
		Scan(ctx)
	if err != nil {
		return nil, r.HandleError("list", "love_point_transaction", err)
	}

	out := make([]*ledger.Transaction, 0, len(rows))
	for _, row := range rows {
		out = append(out, toTransaction(row))
	}
	return out, nil
}

func (r *ledgerRepository) Sum(ctx context.Context, userID string) (int64, error) {
	ctx, cancel := r.WithTimeout(ctx)
	defer cancel()

	var sum int64
	err := r.Conn(ctx).NewSelect().
		Model((*models.LovePointTransaction)(nil)).
		ColumnExpr("COALESCE(SUM(lpt.amount), 0)").
		Where("lpt.user_id = ?", userID).
		Scan(ctx, &sum)
	return sum, r.HandleError("sum", "love_point_transaction", err)
}

func (r *ledgerRepository) Upsert(ctx context.Context, txns []*ledger.Transaction) error {
	if len(txns) == 0 {
		return nil
	}
	ctx, cancel := r.WithTimeout(ctx)
	defer cancel()

	rows := make([]*models.LovePointTransaction, 0, len(txns))
	for _, t := range txns {
		rows = append(rows, fromTransaction(t))
	}

	_, err := r.Conn(ctx).NewInsert().
		Model(&rows).
		On("CONFLICT (id) DO UPDATE").
		Set("amount = EXCLUDED.amount").
		Set("reason = EXCLUDED.reason").
		Set("related_id = EXCLUDED.related_id").
		Set("timestamp = EXCLUDED.timestamp").
		Set("confirmed = EXCLUDED.confirmed").
		Exec(ctx)
	return r.HandleError("upsert", "love_point_transaction", err)
}

func (r *ledgerRepository) Delete(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	ctx, cancel := r.WithTimeout(ctx)
	defer cancel()

	_, err := r.Conn(ctx).NewDelete().
		Model((*models.LovePointTransaction)(nil)).
		Where("id IN (?)", bun.In(ids)).
		Exec(ctx)
	return r.HandleError("delete", "love_point_transaction", err)
}

func toTransaction(row *models.LovePointTransaction) *ledger.Transaction {
	return &ledger.Transaction{
		ID:        row.ID,
		UserID:    row.UserID,
		Amount:    row.Amount,
		Reason:    row.Reason,
		RelatedID: row.RelatedID,
		Timestamp: row.Timestamp,
		Confirmed: row.Confirmed,
	}
}

func fromTransaction(t *ledger.Transaction) *models.LovePointTransaction {
	return &models.LovePointTransaction{
		ID:        t.ID,
		UserID:    t.UserID,
		Amount:    t.Amount,
		Reason:    t.Reason,
		RelatedID: t.RelatedID,
		Timestamp: t.Timestamp,
		Confirmed: t.Confirmed,
	}
}
