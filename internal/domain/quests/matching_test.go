package quests

import "testing"

func TestCanonical(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"youOrMe", "youorme"},
		{"you_or_me", "youorme"},
		{"You Or Me", "youorme"},
		{"you-or-me", "youorme"},
		{"wordSearch", "wordsearch"},
		{"", ""},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			if got := Canonical(tt.in); got != tt.want {
				t.Errorf("Canonical(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestMatch(t *testing.T) {
	local := []*Quest{
		{ID: "1", Type: TypeQuiz, FormatType: "classic"},
		{ID: "2", Type: TypeYouOrMe, FormatType: "classic"},
		{ID: "3", Type: TypeQuestion, FormatType: "daily"},
		{ID: "4", Type: TypeQuestion, FormatType: "deep"},
	}

	tests := []struct {
		name       string
		questType  string
		formatType string
		want       string
	}{
		{name: "Exact", questType: "quiz", formatType: "classic", want: "1"},
		{name: "Snake case type", questType: "you_or_me", formatType: "Classic", want: "2"},
		{name: "Format disambiguates", questType: "question", formatType: "deep", want: "4"},
		{name: "Empty format unique type", questType: "quiz", want: "1"},
		{name: "Empty format ambiguous type", questType: "question", want: ""},
		{name: "Unknown format", questType: "quiz", formatType: "affirmation", want: ""},
		{name: "Unknown type", questType: "steps", formatType: "daily", want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Match(local, tt.questType, tt.formatType)
			var id string
			if got != nil {
				id = got.ID
			}
			if id != tt.want {
				t.Errorf("Match() = %q, want %q", id, tt.want)
			}
		})
	}
}
