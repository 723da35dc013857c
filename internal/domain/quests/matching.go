package quests

import (
	"strings"

	"github.com/gosimple/slug"
)

// Canonical normalises a quest or format type so that spellings such as
// "you_or_me", "youOrMe" and "You Or Me" compare equal.
func Canonical(s string) string {
	return strings.NewReplacer("-", "", "_", "").Replace(slug.Make(s))
}

// MatchKey is the key used to pair a backend status record with a local quest.
func MatchKey(questType, formatType string) string {
	return Canonical(questType) + "/" + Canonical(formatType)
}

// Match finds the local quest for a backend record. A record without a
// format matches only when exactly one local quest has its type.
func Match(local []*Quest, questType, formatType string) *Quest {
	if Canonical(formatType) == "" {
		var found *Quest
		want := Canonical(questType)
		for _, q := range local {
			if Canonical(string(q.Type)) != want {
				continue
			}
			if found != nil {
				return nil
			}
			found = q
		}
		return found
	}

	key := MatchKey(questType, formatType)
	for _, q := range local {
		if MatchKey(string(q.Type), q.FormatType) == key {
			return q
		}
	}
	return nil
}
