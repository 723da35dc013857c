package quests

import (
	"time"

	"github.com/lovequest/questsync/internal/domain/identity"
)

type Type string

const (
	TypeQuiz       Type = "quiz"
	TypeYouOrMe    Type = "youOrMe"
	TypeWordSearch Type = "wordSearch"
	TypeLinked     Type = "linked"
	TypeSteps      Type = "steps"
	TypeQuestion   Type = "question"
	TypeGame       Type = "game"
)

type Status string

const (
	StatusNotStarted Status = "not_started"
	StatusInProgress Status = "in_progress"
	StatusCompleted  Status = "completed"
)

func (s Status) rank() int {
	switch s {
	case StatusInProgress:
		return 1
	case StatusCompleted:
		return 2
	default:
		return 0
	}
}

// DateLayout is the calendar day format used for Quest.Date.
const DateLayout = "2006-01-02"

type Quest struct {
	ID         string
	CoupleID   string
	Date       string
	Slot       int
	Type       Type
	ContentID  string
	FormatType string
	Status     Status
	// UserCompletions is keyed by stable user id or by legacy id.
	UserCompletions map[string]bool
	LPAwarded       int64
	ExpiresAt       time.Time
	SortOrder       int
	IsSideQuest     bool
	// ReportedBy holds the users whose completion the backend acknowledged.
	ReportedBy map[string]bool
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// CompletedBy reports whether u completed q under either of u's keys.
func (q *Quest) CompletedBy(u identity.User) bool {
	for _, k := range u.Keys() {
		if q.UserCompletions[k] {
			return true
		}
	}
	return false
}

func (q *Quest) ReportedFor(u identity.User) bool {
	for _, k := range u.Keys() {
		if q.ReportedBy[k] {
			return true
		}
	}
	return false
}

func (q *Quest) Expired(now time.Time) bool {
	return !q.ExpiresAt.IsZero() && !now.Before(q.ExpiresAt)
}

// Clone returns a deep copy of q.
func (q *Quest) Clone() *Quest {
	c := *q
	c.UserCompletions = make(map[string]bool, len(q.UserCompletions))
	for k, v := range q.UserCompletions {
		c.UserCompletions[k] = v
	}
	c.ReportedBy = make(map[string]bool, len(q.ReportedBy))
	for k, v := range q.ReportedBy {
		c.ReportedBy[k] = v
	}
	return &c
}

// deriveStatus computes the status implied by the completion flags. Only a
// paired couple with both members marked is completed.
func deriveStatus(q *Quest, couple *identity.Couple) Status {
	marked := 0
	for _, m := range couple.Members() {
		if q.CompletedBy(m) {
			marked++
		}
	}
	switch {
	case couple.Paired() && marked == 2:
		return StatusCompleted
	case marked > 0:
		return StatusInProgress
	}
	for _, v := range q.UserCompletions {
		if v {
			return StatusInProgress
		}
	}
	return StatusNotStarted
}

// Result describes the effect of a completion call.
type Result struct {
	Quest   *Quest
	Changed bool
	Awarded bool
}
