package quests

import "errors"

var (
	ErrQuestNotFound    = errors.New("quests: quest not found")
	ErrQuestExpired     = errors.New("quests: quest expired")
	ErrGenerationFailed = errors.New("quests: generation failed")
	ErrNotMember        = errors.New("quests: user is not a member of the couple")
	// ErrDayExists is returned by Repository.InsertDay when another writer
	// already stored quests for the day.
	ErrDayExists = errors.New("quests: day already generated")
)
