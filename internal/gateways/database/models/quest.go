package models

import (
	"time"

	"github.com/uptrace/bun"
)

type Quest struct {
	bun.BaseModel `bun:"table:quests,alias:q"`

	ID              string          `bun:"id,pk"`
	CoupleID        string          `bun:"couple_id,notnull"`
	Date            string          `bun:"date,notnull"`
	Slot            int             `bun:"slot,notnull"`
	Type            string          `bun:"type,notnull"`
	ContentID       string          `bun:"content_id,notnull"`
	FormatType      string          `bun:"format_type,notnull"`
	Status          string          `bun:"status,notnull"`
	UserCompletions map[string]bool `bun:"user_completions"`
	LPAwarded       int64           `bun:"lp_awarded,notnull"`
	ExpiresAt       time.Time       `bun:"expires_at,notnull"`
	SortOrder       int             `bun:"sort_order,notnull"`
	IsSideQuest     bool            `bun:"is_side_quest,notnull"`
	ReportedBy      map[string]bool `bun:"reported_by"`
	CreatedAt       time.Time       `bun:"created_at,notnull"`
	UpdatedAt       time.Time       `bun:"updated_at,notnull"`
}
