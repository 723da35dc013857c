package unlocks

import "time"

type Feature string

// Features gating optional daily quests and engine extras.
const (
	FeatureSideWordSearch Feature = "side_word_search"
	FeatureSideLinked     Feature = "side_linked"
	FeatureSideSteps      Feature = "side_steps"
	FeaturePoke           Feature = "poke"
)

// Rule lists the thresholds a couple must reach for Feature. A zero value
// means the criterion does not apply.
type Rule struct {
	Feature            Feature
	MinLovePoints      int64
	MinCompletedQuests int
}

type Progress struct {
	LovePoints      int64
	CompletedQuests int
}

// Unlock is the evaluated state of one feature. Remaining is empty once unlocked.
type Unlock struct {
	Feature    Feature
	Unlocked   bool
	Remaining  string
	UnlockedAt time.Time
}
