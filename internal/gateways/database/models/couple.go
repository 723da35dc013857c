package models

import (
	"time"

	"github.com/uptrace/bun"
)

// CurrentCoupleKey is the primary key of the only row in couples.
const CurrentCoupleKey = "current"

type Couple struct {
	bun.BaseModel `bun:"table:couples,alias:cp"`

	Key                string    `bun:"key,pk"`
	CoupleID           string    `bun:"couple_id,notnull"`
	UserID             string    `bun:"user_id,notnull"`
	UserLegacyID       string    `bun:"user_legacy_id,notnull"`
	UserDisplayName    string    `bun:"user_display_name,notnull"`
	PartnerID          string    `bun:"partner_id,notnull"`
	PartnerLegacyID    string    `bun:"partner_legacy_id,notnull"`
	PartnerDisplayName string    `bun:"partner_display_name,notnull"`
	UpdatedAt          time.Time `bun:"updated_at,notnull"`
}

type UnlockState struct {
	bun.BaseModel `bun:"table:unlock_states,alias:us"`

	CoupleID   string    `bun:"couple_id,pk"`
	Feature    string    `bun:"feature,pk"`
	UnlockedAt time.Time `bun:"unlocked_at,notnull"`
}
