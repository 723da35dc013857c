package quests

// DefaultAwardAmount is credited to each member once a quest completes.
const DefaultAwardAmount int64 = 30

// ShouldAward is the single award rule shared by local and partner completion.
func ShouldAward(q *Quest) bool {
	return q.Status == StatusCompleted && q.LPAwarded == 0
}
