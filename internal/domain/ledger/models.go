package ledger

import "time"

// Reasons used by the engine. Free-form reasons are allowed.
const (
	ReasonQuestPrefix = "daily_quest_"
	ReasonPokeMutual  = "poke_mutual"
)

// Transaction is an immutable love point entry. Confirmed is false for local
// credits the server has not acknowledged yet.
type Transaction struct {
	ID        string
	UserID    string
	Amount    int64
	Reason    string
	RelatedID string
	Timestamp time.Time
	Confirmed bool
}

// dedupeKey identifies an award independent of which device wrote it.
// Entries without a related id never dedupe.
func (t *Transaction) dedupeKey() string {
	if t.RelatedID == "" {
		return ""
	}
	return t.UserID + "|" + t.RelatedID + "|" + t.Reason
}

// Snapshot is the authoritative ledger state reported by the backend.
type Snapshot struct {
	Balance      int64
	Transactions []*Transaction
}

func QuestReason(questType string) string {
	return ReasonQuestPrefix + questType
}
