// Package intel fetches regulatory news feeds and scores each item for
// enforcement risk by keyword presence.
//
// Scoring is a pure function of an item's title and description. The
// Refresher replaces the whole item list on each cycle; a source that fails
// contributes one placeholder item so the list always names every source.
package intel

import (
	"sort"
	"strings"
	"time"
)

// Vocabulary is the fixed risk term list. Each term present in an item's
// lower-cased title+description adds one to its score.
var Vocabulary = []string{
	"penalty",
	"order",
	"non-compliance",
	"fraud",
	"enforcement",
	"violation",
	"investigation",
	"default",
}

// Item is one news or regulatory update.
type Item struct {
	Source      string    `json:"source"`
	Title       string    `json:"title"`
	Link        string    `json:"link,omitempty"`
	PublishedAt time.Time `json:"published_at,omitzero"`
	Description string    `json:"description,omitempty"`
	Risk        int       `json:"risk"`
	Placeholder bool      `json:"placeholder,omitempty"`
}

// Source is a named feed.
type Source struct {
	Name string `json:"name" yaml:"name"`
	URL  string `json:"url" yaml:"url"`
}

// Score counts how many Vocabulary terms occur as substrings of the
// lower-cased title and description. The result is in [0, len(Vocabulary)].
func Score(title, description string) int {
	text := strings.ToLower(title + " " + description)
	n := 0
	for _, term := range Vocabulary {
		if strings.Contains(text, term) {
			n++
		}
	}
	return n
}

// Scored returns a copy of items with Risk set from Score.
func Scored(items []Item) []Item {
	out := make([]Item, len(items))
	for i, it := range items {
		it.Risk = Score(it.Title, it.Description)
		out[i] = it
	}
	return out
}

// SortByRisk orders items by descending risk, then newest first. Items with
// equal risk and time keep their relative order.
func SortByRisk(items []Item) {
	sort.SliceStable(items, func(i, j int) bool {
		if items[i].Risk != items[j].Risk {
			return items[i].Risk > items[j].Risk
		}
		return items[i].PublishedAt.After(items[j].PublishedAt)
	})
}

// HighRisk returns up to limit items with Risk >= min, in their current order.
func HighRisk(items []Item, min, limit int) []Item {
	var out []Item
	for _, it := range items {
		if len(out) == limit {
			break
		}
		if it.Risk >= min {
			out = append(out, it)
		}
	}
	return out
}
