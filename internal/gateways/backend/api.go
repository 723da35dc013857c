package backend

import (
	"encoding/json"
	"time"
)

// Wire types of the backend HTTP API.

type QuestStatusRecord struct {
	QuestType        string `json:"quest_type"`
	FormatType       string `json:"format_type"`
	PartnerCompleted bool   `json:"partner_completed"`
	Status           string `json:"status"`
}

type QuestStatusResponse struct {
	Quests []QuestStatusRecord `json:"quests"`
}

type CompletionRequest struct {
	Date       string `json:"date"`
	QuestType  string `json:"quest_type"`
	FormatType string `json:"format_type"`
	UserID     string `json:"user_id"`
}

type Transaction struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Amount    int64     `json:"amount"`
	Reason    string    `json:"reason"`
	RelatedID string    `json:"related_id,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

type LedgerResponse struct {
	Balance      int64         `json:"balance"`
	Transactions []Transaction `json:"transactions"`
}

type PushLedgerRequest struct {
	Transactions []Transaction `json:"transactions"`
}

type User struct {
	ID          string `json:"id"`
	LegacyID    string `json:"legacy_id,omitempty"`
	DisplayName string `json:"display_name,omitempty"`
}

type PairingResponse struct {
	CoupleID string `json:"couple_id"`
	User     User   `json:"user"`
	Partner  *User  `json:"partner"`
}

type ContentResponse struct {
	ID         string          `json:"id"`
	Type       string          `json:"type"`
	FormatType string          `json:"format_type"`
	Title      string          `json:"title"`
	Payload    json.RawMessage `json:"payload,omitempty"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}
