package models

import (
	"time"

	"github.com/uptrace/bun"
)

type LovePointTransaction struct {
	bun.BaseModel `bun:"table:love_point_transactions,alias:lpt"`

	ID        string    `bun:"id,pk"`
	UserID    string    `bun:"user_id,notnull"`
	Amount    int64     `bun:"amount,notnull"`
	Reason    string    `bun:"reason,notnull"`
	RelatedID string    `bun:"related_id,notnull"`
	Timestamp time.Time `bun:"timestamp,notnull"`
	Confirmed bool      `bun:"confirmed,notnull"`
}
