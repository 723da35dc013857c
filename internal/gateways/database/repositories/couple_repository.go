package repositories

import (
	"context"
	"database/sql"
	"errors"

	"github.com/uptrace/bun"

	"github.com/lovequest/questsync/internal/domain/identity"
	"github.com/lovequest/questsync/internal/gateways/database/models"
)

type coupleRepository struct {
	BaseRepository
}

var _ identity.Repository = &coupleRepository{}

func NewCoupleRepository(db *bun.DB) *coupleRepository {
	return &coupleRepository{BaseRepository: NewBaseRepository(db)}
}

func (r *coupleRepository) Current(ctx context.Context) (*identity.Couple, error) {
	ctx, cancel := r.WithTimeout(ctx)
	defer cancel()

	row := new(models.Couple)
	err := r.Conn(ctx).NewSelect().
		Model(row).
		Where("cp.key = ?", models.CurrentCoupleKey).
		Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, r.HandleError("get", "couple", err)
	}

	c := &identity.Couple{
		ID: row.CoupleID,
		User: identity.User{
			ID:          row.UserID,
			LegacyID:    row.UserLegacyID,
			DisplayName: row.UserDisplayName,
		},
		UpdatedAt: row.UpdatedAt,
	}
	if row.PartnerID != "" {
		c.Partner = &identity.User{
			ID:          row.PartnerID,
			LegacyID:    row.PartnerLegacyID,
			DisplayName: row.PartnerDisplayName,
		}
	}
	return c, nil
}

func (r *coupleRepository) Save(ctx context.Context, c *identity.Couple) error {
	ctx, cancel := r.WithTimeout(ctx)
	defer cancel()

	row := &models.Couple{
		Key:             models.CurrentCoupleKey,
		CoupleID:        c.ID,
		UserID:          c.User.ID,
		UserLegacyID:    c.User.LegacyID,
		UserDisplayName: c.User.DisplayName,
		UpdatedAt:       c.UpdatedAt,
	}
	if c.Partner != nil {
		row.PartnerID = c.Partner.ID
		row.PartnerLegacyID = c.Partner.LegacyID
		row.PartnerDisplayName = c.Partner.DisplayName
	}

	_, err := r.Conn(ctx).NewInsert().
		Model(row).
		On("CONFLICT (key) DO UPDATE").
		Set("couple_id = EXCLUDED.couple_id").
		Set("user_id = EXCLUDED.user_id").
		Set("user_legacy_id = EXCLUDED.user_legacy_id").
		Set("user_display_name = EXCLUDED.user_display_name").
		Set("partner_id = EXCLUDED.partner_id").
		Set("partner_legacy_id = EXCLUDED.partner_legacy_id").
		Set("partner_display_name = EXCLUDED.partner_display_name").
		Set("updated_at = EXCLUDED.updated_at").
		Exec(ctx)
	return r.HandleError("save", "couple", err)
}
