package partnersync

import (
	"context"

	"github.com/lovequest/questsync/internal/domain/identity"
	"github.com/lovequest/questsync/internal/domain/quests"
)

// StatusRecord is the backend's view of one quest of the day, from the point
// of view of the requesting user.
type StatusRecord struct {
	QuestType        string
	FormatType       string
	PartnerCompleted bool
	Status           string
}

type CompletionReport struct {
	Date       string
	QuestType  string
	FormatType string
	UserID     string
}

type Backend interface {
	QuestStatus(ctx context.Context, coupleID, date, userID string) ([]StatusRecord, error)
	ReportCompletion(ctx context.Context, coupleID string, report CompletionReport) error
}

type Tracker interface {
	ApplyPartnerCompletion(ctx context.Context, questID, partnerUserID, serverStatus string) (*quests.Result, error)
	PendingReports(ctx context.Context, coupleID, date string, user identity.User) ([]*quests.Quest, error)
	MarkReported(ctx context.Context, questID, userID string) error
	Quests(ctx context.Context, coupleID, date string) ([]*quests.Quest, error)
}

type Ledger interface {
	SyncFromServer(ctx context.Context, userID string) error
}

type Couples interface {
	Current(ctx context.Context) (*identity.Couple, error)
}

// TickReport summarises one poll.
type TickReport struct {
	Pushed  int
	Applied int
	Awarded int
}

func (r TickReport) Mutated() bool {
	return r.Applied > 0
}
