package unlocks

// TierInfo describes where a love point total sits on the tier ladder.
type TierInfo struct {
	Level    int
	Name     string
	MinLP    int64
	NextName string
	// ToNext is zero at the top tier.
	ToNext int64
}

var tiers = []struct {
	name  string
	minLP int64
}{
	{"Sparks", 0},
	{"Crush", 200},
	{"Sweethearts", 600},
	{"Soulmates", 1500},
	{"Eternal", 4000},
}

func Tier(lp int64) TierInfo {
	idx := 0
	for i := len(tiers) - 1; i >= 0; i-- {
		if lp >= tiers[i].minLP {
			idx = i
			break
		}
	}

	info := TierInfo{
		Level: idx + 1,
		Name:  tiers[idx].name,
		MinLP: tiers[idx].minLP,
	}
	if idx+1 < len(tiers) {
		info.NextName = tiers[idx+1].name
		info.ToNext = tiers[idx+1].minLP - lp
	}
	return info
}
