package devserver

import (
	"encoding/json"
	"hash/fnv"

	"github.com/lovequest/questsync/internal/gateways/backend"
)

var contentTitles = map[string][]string{
	"quiz":       {"How well do you know me?", "Little things", "Firsts"},
	"youOrMe":    {"Who is more likely to...", "Morning people"},
	"question":   {"Tonight's question", "Dig deeper", "Memory lane"},
	"game":       {"Emoji story", "Two truths"},
	"wordSearch": {"Love words", "Date night"},
	"linked":     {"Connect the dots", "Our places"},
}

// contentFor picks a deterministic item so both partners see the same content
// for a day.
func contentFor(questType, format, date string) (backend.ContentResponse, bool) {
	titles, ok := contentTitles[questType]
	if !ok {
		return backend.ContentResponse{}, false
	}
	if format == "" {
		format = "classic"
	}

	h := fnv.New32a()
	h.Write([]byte(questType + "|" + format + "|" + date))
	idx := int(h.Sum32() % uint32(len(titles)))

	payload, _ := json.Marshal(map[string]any{"variant": idx, "date": date})
	return backend.ContentResponse{
		ID:         questType + "-" + format + "-" + date,
		Type:       questType,
		FormatType: format,
		Title:      titles[idx],
		Payload:    payload,
	}, true
}
