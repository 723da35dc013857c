package quests

import (
	"hash/fnv"
	"strconv"

	"github.com/lovequest/questsync/internal/domain/unlocks"
)

type option struct {
	Type   Type
	Format string
}

// mainSlots rotates one option per slot, picked by a hash of couple and day.
var mainSlots = [][]option{
	{{TypeQuiz, "classic"}, {TypeQuiz, "affirmation"}},
	{{TypeYouOrMe, "classic"}, {TypeQuestion, "daily"}},
	{{TypeQuestion, "deep"}, {TypeGame, "classic"}},
}

const sideSortBase = 10

type sideQuest struct {
	slot    int
	feature unlocks.Feature
	option  option
	// needsContent is false for quests driven by device data.
	needsContent bool
}

var sideQuests = []sideQuest{
	{slot: 3, feature: unlocks.FeatureSideWordSearch, option: option{TypeWordSearch, "classic"}, needsContent: true},
	{slot: 4, feature: unlocks.FeatureSideLinked, option: option{TypeLinked, "classic"}, needsContent: true},
	{slot: 5, feature: unlocks.FeatureSideSteps, option: option{TypeSteps, "daily"}},
}

func pickMain(coupleID, date string, slot int) option {
	opts := mainSlots[slot]
	h := fnv.New64a()
	h.Write([]byte(coupleID + "|" + date + "|" + strconv.Itoa(slot)))
	return opts[h.Sum64()%uint64(len(opts))]
}
