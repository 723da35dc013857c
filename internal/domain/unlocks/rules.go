package unlocks

// DefaultRules is the rule table used when none is configured.
var DefaultRules = []Rule{
	{Feature: FeaturePoke, MinLovePoints: 30},
	{Feature: FeatureSideWordSearch, MinLovePoints: 150, MinCompletedQuests: 3},
	{Feature: FeatureSideLinked, MinLovePoints: 450, MinCompletedQuests: 10},
	{Feature: FeatureSideSteps, MinLovePoints: 1000, MinCompletedQuests: 20},
}

// RuleFor returns the rule for f from rules.
func RuleFor(rules []Rule, f Feature) (Rule, bool) {
	for _, r := range rules {
		if r.Feature == f {
			return r, true
		}
	}
	return Rule{}, false
}
